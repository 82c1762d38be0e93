package member

import (
	"regexp"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/njitshpe/shpe-app-sub007/core"
)

var (
	pushTokenTag   = "expo_push_token"
	pushTokenText  = "invalid push token"
	pushTokenRegex = regexp.MustCompile(`^Expo(nent)?PushToken\[[^\]\s]+\]$`)
)

// InitValidators registers the member validators.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(pushTokenTag, pushTokenValidation)
	core.RegisterCustomTranslation(validate, translator, pushTokenTag, pushTokenText)
}

// IsPushToken reports whether token looks like an Expo push token.
func IsPushToken(token string) bool {
	return pushTokenRegex.MatchString(token)
}

func pushTokenValidation(fl validator.FieldLevel) bool {
	return IsPushToken(fl.Field().String())
}
