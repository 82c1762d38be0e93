package notification

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/njitshpe/shpe-app-sub007/core"
)

var (
	kindTag  = "notification_kind"
	kindText = "unknown notification type"

	eventRequiredTag = "event_required"
	requiredTag      = "required"
)

// InitValidators registers the notification validators.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(kindTag, kindValidation)
	core.RegisterCustomTranslation(validate, translator, kindTag, kindText)

	validate.RegisterStructValidation(requestStructValidation, Request{})
	core.RegisterCustomTranslation(validate, translator, eventRequiredTag, "this notification type requires an event")
}

func kindValidation(fl validator.FieldLevel) bool {
	return Kind(fl.Field().String()).Valid()
}

// requestStructValidation checks the fields each Kind depends on.
func requestStructValidation(sl validator.StructLevel) {
	req := sl.Current().Interface().(Request)
	if req.Kind.NeedsEvent() && core.CleanString(req.EventID) == "" {
		sl.ReportError(req.EventID, "event_id", "EventID", eventRequiredTag, "")
	}
	if req.Kind == KindAnnouncement {
		if core.CleanString(req.Title) == "" {
			sl.ReportError(req.Title, "title", "Title", requiredTag, "")
		}
		if core.CleanString(req.Body) == "" {
			sl.ReportError(req.Body, "body", "Body", requiredTag, "")
		}
	}
}
