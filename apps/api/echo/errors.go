package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/baitusshuffah20-wq/TPQ-BAITUS-SHUFFAH-sub003/core"
	"github.com/baitusshuffah20-wq/TPQ-BAITUS-SHUFFAH-sub003/core/insights"
)

var (
	errAuthenticationFailed = echo.NewHTTPError(http.StatusBadRequest, "authentication failed")
	errTokenSigningFailed   = echo.NewHTTPError(http.StatusInternalServerError, "signing token failed")
	errHttpNotFound         = echo.NewHTTPError(http.StatusNotFound, "insight not found")
	errHttpUnavailable      = echo.NewHTTPError(http.StatusServiceUnavailable, "insight unavailable")
)

// newAppHTTPErrorHandler returns a custom echo.HTTPErrorHandler that knows how to handle our errors.
// signalShutdown is called in order to gracefully shutdown the Server whenever a core.shutdown error is caught.
func newAppHTTPErrorHandler(logger core.Logger, signalShutdown func()) echo.HTTPErrorHandler {
	return func(err error, ctx echo.Context) {
		var code int
		var message interface{}

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
			fldErrs := make(map[string]string, len(origErr))
			for _, vErr := range origErr {
				fldErrs[vErr.Field()] = vErr.Translate(core.Translator)
			}
			code = http.StatusBadRequest
			message = fldErrs
		case *core.ValidationError:
			if origErr.Fields != nil {
				fldErrs := make(map[string]string, len(origErr.Fields))
				for _, fErr := range origErr.Fields {
					fldErrs[fErr.Field] = fErr.Error
				}
				message = fldErrs
			} else {
				message = origErr.Error()
			}
			code = http.StatusBadRequest
		default:
			switch origErr {
			case insights.ErrNotFound:
				code = errHttpNotFound.Code
				message = errHttpNotFound.Message
			case insights.ErrUnavailable:
				code = errHttpUnavailable.Code
				message = errHttpUnavailable.Message
			default: // any other error is a server error
				code = http.StatusInternalServerError
				msg := http.StatusText(http.StatusInternalServerError)
				message = msg
				logger.Error(msg, errors.Wrap(err, msg))

				// shutting down...
				if core.IsShutdown(err) {
					signalShutdown()
				}
			}
		}

		// reply
		if !ctx.Response().Committed {
			var rErr error
			if ctx.Request().Method == http.MethodHead {
				rErr = ctx.NoContent(code)
			} else {
				rErr = ctx.JSON(code, map[string]interface{}{"error": message})
			}
			if rErr != nil {
				logger.Error("replying with error", rErr)
			}
		}
	}
}
