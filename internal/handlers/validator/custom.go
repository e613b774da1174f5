package validator

import (
	"net/url"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/synthbed/tts-api/internal/service"
)

func textLengthValidator(fl validator.FieldLevel) bool {
	val, ok := fl.Field().Interface().(string)
	if !ok {
		return false
	}

	return strings.TrimSpace(val) != "" && len(val) <= service.MaxTextLength
}

func webhookURLValidator(fl validator.FieldLevel) bool {
	val, ok := fl.Field().Interface().(string)
	if !ok {
		return false
	}

	u, err := url.Parse(val)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
