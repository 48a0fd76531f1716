package assessment

import (
	"github.com/go-playground/validator/v10"

	"github.com/uwezocare/uwezo/core"
)

var (
	statusTag  = "assessmentstatus"
	statusText = "invalid assessment status"
)

func init() {
	_ = core.Validate.RegisterValidation(statusTag, statusValidation)
	core.RegisterCustomTranslation(statusTag, statusText)
}

func statusValidation(fl validator.FieldLevel) bool {
	return Status(fl.Field().String()).Valid()
}
