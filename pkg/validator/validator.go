package validator

import (
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/jwalitptl/clinic-api/internal/model"
)

// RegisterCustom adds domain validation rules to gin's binding validator.
// Called once at startup.
func RegisterCustom() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return nil
	}
	return v.RegisterValidation("weekday", func(fl validator.FieldLevel) bool {
		return model.ValidWeekday(fl.Field().String())
	})
}
