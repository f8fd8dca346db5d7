package handler

import (
	"fmt"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// RegisterValidators 向 gin 默认校验器注册自定义 tag
//
// hhmm：24 小时制两位 HH:MM。time 的 "15" 布局接受一位小时，len=5 排除 "9:00"
func RegisterValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return fmt.Errorf("gin 校验引擎不是 validator/v10")
	}
	v.RegisterAlias("hhmm", "len=5,datetime=15:04")
	return nil
}
