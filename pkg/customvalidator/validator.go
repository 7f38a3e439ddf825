// Файл: pkg/customvalidator/validator.go

package customvalidator

import (
	"regexp"

	"github.com/go-playground/validator/v10"
)

// RegisterCustomValidations регистрирует кастомные правила валидации
// в переданном экземпляре валидатора.
func RegisterCustomValidations(v *validator.Validate) error {
	if err := v.RegisterValidation("asset_code", isAssetCode); err != nil {
		return err
	}
	if err := v.RegisterValidation("decision", isDecision); err != nil {
		return err
	}
	if err := v.RegisterValidation("email", isGoodEmailFormat); err != nil {
		return err
	}

	return nil
}

var assetCodeRegex = regexp.MustCompile(`^AST-[A-Za-z0-9\-]+$`)

func isAssetCode(fl validator.FieldLevel) bool {
	return assetCodeRegex.MatchString(fl.Field().String())
}

// Решение по заявке всегда одно из двух. Статусы клиент не присылает -
// их вычисляет движок, см. internal/services.
func isDecision(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	return s == "approve" || s == "reject"
}

func isGoodEmailFormat(fl validator.FieldLevel) bool {
	emailRegex := regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	return emailRegex.MatchString(fl.Field().String())
}
