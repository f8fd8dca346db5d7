package errors

import (
	"fmt"
	"testing"
)

func TestAsValidation_Wrapped(t *testing.T) {
	err := fmt.Errorf("创建失败: %w", NewValidation("days_of_week", "不能为空"))

	v, ok := AsValidation(err)
	if !ok {
		t.Fatal("期望从包装错误中提取 ValidationError")
	}
	if v.Field != "days_of_week" {
		t.Errorf("期望 Field=days_of_week，实际=%s", v.Field)
	}
	if err.Error() != "创建失败: days_of_week: 不能为空" {
		t.Errorf("错误文本不符: %s", err.Error())
	}
}

func TestAsValidation_Other(t *testing.T) {
	if _, ok := AsValidation(fmt.Errorf("db down")); ok {
		t.Error("普通错误不应识别为 ValidationError")
	}
}
