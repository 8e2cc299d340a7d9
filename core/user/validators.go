package user

import (
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/safestep/core"
)

var (
	roleTag  = "role"
	roleText = "unknown role"

	jurisdictionTag  = "jurisdiction"
	jurisdictionText = "unknown state or union territory"
)

func init() {
	_ = core.Validate.RegisterValidation(roleTag, roleValidation)
	core.RegisterCustomTranslation(core.Validate, core.Translator, roleTag, roleText)

	_ = core.Validate.RegisterValidation(jurisdictionTag, jurisdictionValidation)
	core.RegisterCustomTranslation(core.Validate, core.Translator, jurisdictionTag, jurisdictionText)
}

func roleValidation(fl validator.FieldLevel) bool {
	return Role(fl.Field().String()).Valid()
}

func jurisdictionValidation(fl validator.FieldLevel) bool {
	return ValidJurisdiction(fl.Field().String())
}
