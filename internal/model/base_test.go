package model

import "testing"

func TestIntArray_ScanValue(t *testing.T) {
	var a IntArray
	if err := a.Scan([]byte("{1, 3,5}")); err != nil {
		t.Fatalf("Scan 失败: %v", err)
	}
	if len(a) != 3 || a[0] != 1 || a[1] != 3 || a[2] != 5 {
		t.Fatalf("Scan 结果不符: %v", a)
	}
	if !a.Contains(3) || a.Contains(2) {
		t.Errorf("Contains 结果不符: %v", a)
	}

	v, err := a.Value()
	if err != nil || v != "{1,3,5}" {
		t.Errorf("Value = %v, %v", v, err)
	}

	var empty IntArray
	if err := empty.Scan("{}"); err != nil || empty == nil || len(empty) != 0 {
		t.Errorf("空数组应解析为非 nil 空切片: %v, %v", empty, err)
	}
	if err := empty.Scan("{a}"); err == nil {
		t.Error("非法元素应报错")
	}
}
