package errcodes

import (
	"fmt"
	"net/http"

	"github.com/iancoleman/strcase"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/echo/v4/middleware/logger"
	"github.com/robinjoseph08/golib/errutils"
)

type payload struct {
	Error payloadError `json:"error"`
}

type payloadError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"status_code"`
}

type Handler struct{}

func NewHandler() *Handler {
	return &Handler{}
}

// Handle is the echo error handler. *Error and *echo.HTTPError keep their
// status; anything else is a logged 500.
func (h *Handler) Handle(err error, c echo.Context) {
	log := logger.FromEchoContext(c)

	if errutils.IsIgnorableErr(err) {
		// Usually a listener seeking away mid-stream.
		log.Err(err).Warn("broken pipe")
		return
	}

	p := toPayload(err)
	if p.Error.StatusCode == http.StatusInternalServerError {
		log.Err(err).Error("server error")
	}

	if err := c.JSON(p.Error.StatusCode, p); err != nil {
		log.Err(errors.WithStack(err)).Error("error handler json error")
	}
}

func toPayload(err error) payload {
	var e *Error
	if errors.As(err, &e) {
		return payload{payloadError{Code: e.Code, Message: e.Message, StatusCode: e.HTTPCode}}
	}

	var he *echo.HTTPError
	if errors.As(err, &he) {
		msg, ok := he.Message.(string)
		if !ok {
			msg = fmt.Sprint(he.Message)
		}
		return payload{payloadError{Code: strcase.ToSnake(msg), Message: msg, StatusCode: he.Code}}
	}

	return payload{payloadError{
		Code:       "internal_server_error",
		Message:    "Internal Server Error",
		StatusCode: http.StatusInternalServerError,
	}}
}
