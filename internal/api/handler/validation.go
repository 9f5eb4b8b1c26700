package handler

import (
	"fmt"
	"regexp"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/d60-Lab/microblog/internal/model"
)

var nicknamePattern = regexp.MustCompile(fmt.Sprintf(`^[A-Za-z0-9_.]{1,%d}$`, model.MaxNicknameLen))

func validateNickname(fl validator.FieldLevel) bool {
	return nicknamePattern.MatchString(fl.Field().String())
}

// RegisterValidators 在 gin 的 validator 上注册自定义规则
func RegisterValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return nil
	}
	return v.RegisterValidation("nickname", validateNickname)
}
