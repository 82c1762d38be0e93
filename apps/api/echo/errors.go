package echoapi

import (
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/njitshpe/shpe-app-sub007/core"
	"github.com/njitshpe/shpe-app-sub007/core/checkin"
	"github.com/njitshpe/shpe-app-sub007/core/member"
	"github.com/njitshpe/shpe-app-sub007/core/notification"
)

var (
	errUnauthorized  = echo.NewHTTPError(http.StatusUnauthorized, "user not authenticated")
	errHttpForbidden = echo.NewHTTPError(http.StatusForbidden, "permission denied")
)

// domainErrors maps the sentinel errors of the core packages to HTTP status codes.
var domainErrors = []struct {
	err  error
	code int
}{
	{checkin.ErrInvalidToken, http.StatusBadRequest},
	{checkin.ErrTokenExpired, http.StatusGone},
	{checkin.ErrCheckInNotOpen, http.StatusBadRequest},
	{checkin.ErrCheckInClosed, http.StatusBadRequest},
	{checkin.ErrRSVPRequired, http.StatusForbidden},
	{checkin.ErrEventNotFound, http.StatusNotFound},
	{member.ErrNotFound, http.StatusNotFound},
	{notification.ErrEventRequired, http.StatusBadRequest},
	{notification.ErrEventEnded, http.StatusBadRequest},
	{notification.ErrUnknownKind, http.StatusBadRequest},
}

func domainErrorCode(err error) (int, error) {
	for _, de := range domainErrors {
		if errors.Is(err, de.err) {
			return de.code, de.err
		}
	}
	return 0, nil
}

// newAppHTTPErrorHandler returns a custom echo.HTTPErrorHandler that knows how to handle our errors.
// signalShutdown is called in order to gracefully shutdown the Server whenever a core.shutdown error is caught.
func newAppHTTPErrorHandler(logger core.Logger, translator ut.Translator, signalShutdown func()) echo.HTTPErrorHandler {
	return func(err error, ctx echo.Context) {
		var code int
		var message interface{}

		if c, sentinel := domainErrorCode(err); sentinel != nil {
			code = c
			message = sentinel.Error()
		} else {
			switch origErr := errors.Cause(err).(type) {
			case *echo.HTTPError:
				if origErr == middleware.ErrJWTMissing {
					code = http.StatusUnauthorized
					message = origErr.Message
					break
				}
				if origErr.Internal != nil {
					if herr, ok := origErr.Internal.(*echo.HTTPError); ok {
						origErr = herr
					}
				}
				code = origErr.Code
				message = origErr.Message
			case validator.ValidationErrors:
				code = http.StatusBadRequest
				message = core.TranslateErrors(origErr, translator)
			case *core.ValidationError:
				if origErr.Fields != nil {
					message = origErr.FieldErrors()
				} else {
					message = origErr.Error()
				}
				code = http.StatusBadRequest
			default: // any other error is a server error
				code = http.StatusInternalServerError
				msg := http.StatusText(http.StatusInternalServerError)
				message = msg

				var person core.Person
				if claims, cErr := getContextClaims(ctx); cErr == nil {
					person = claims.person()
				}
				logger.Error(msg, errors.Wrap(err, msg), person)

				if ctx.Echo().Debug {
					message = err.Error()
				}

				// shutting down...
				if core.IsShutdown(err) {
					signalShutdown()
				}
			}
		}

		if m, ok := message.(string); ok {
			message = echo.Map{"error": m}
		}

		// Send response
		if !ctx.Response().Committed {
			if ctx.Request().Method == http.MethodHead { // Issue #608
				err = ctx.NoContent(code)
			} else {
				err = ctx.JSON(code, message)
			}
			if err != nil {
				ctx.Echo().Logger.Error(err)
			}
		}
	}
}
