package training

import (
	"regexp"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/safestep/core"
)

var (
	timeHHMMTag   = "timehhmm"
	timeHHMMText  = "must be a time in HH:MM format"
	timeHHMMRegex = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)

	themeTag  = "theme"
	themeText = "unknown training theme"
)

func init() {
	_ = core.Validate.RegisterValidation(timeHHMMTag, timeHHMMValidation)
	core.RegisterCustomTranslation(core.Validate, core.Translator, timeHHMMTag, timeHHMMText)

	_ = core.Validate.RegisterValidation(themeTag, themeValidation)
	core.RegisterCustomTranslation(core.Validate, core.Translator, themeTag, themeText)
}

func timeHHMMValidation(fl validator.FieldLevel) bool {
	return timeHHMMRegex.MatchString(fl.Field().String())
}

func themeValidation(fl validator.FieldLevel) bool {
	return ValidTheme(fl.Field().String())
}
