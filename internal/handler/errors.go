package handler

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/spacehire/internal/apperr"
	"github.com/iliyamo/spacehire/internal/repository"
)

// errorBody is the JSON shape of every error response.
type errorBody struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}

// classify maps err to a status, a stable error code and a client message.
// ok is false for unclassified errors, whose text must not reach clients.
func classify(err error) (status int, code, msg string, ok bool) {
	var (
		ve *apperr.ValidationError
		ne *apperr.NotFoundError
		ce *apperr.ConflictError
		ae *apperr.AuthorizationError
		ue *apperr.UnauthenticatedError
		he *echo.HTTPError
	)
	switch {
	case errors.As(err, &ve):
		return http.StatusBadRequest, "validation_error", ve.Reason, true
	case errors.As(err, &ce):
		return http.StatusBadRequest, "conflict", ce.Reason, true
	case errors.As(err, &ne):
		return http.StatusNotFound, "not_found", ne.Reason, true
	case errors.As(err, &ae):
		return http.StatusForbidden, "forbidden", ae.Reason, true
	case errors.As(err, &ue):
		return http.StatusUnauthorized, "unauthorized", ue.Reason, true
	case errors.Is(err, sql.ErrNoRows):
		return http.StatusNotFound, "not_found", "resource not found", true
	case errors.Is(err, repository.ErrForbidden):
		return http.StatusForbidden, "forbidden", "you do not own this resource", true
	case errors.Is(err, repository.ErrEmailExists):
		return http.StatusBadRequest, "conflict", "email already registered", true
	case errors.Is(err, repository.ErrConflict):
		return http.StatusBadRequest, "conflict", "resource already exists", true
	case errors.As(err, &he):
		msg = http.StatusText(he.Code)
		if s, isStr := he.Message.(string); isStr && s != "" {
			msg = s
		}
		return he.Code, statusCode(he.Code), msg, true
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "timeout", "request timed out", true
	}
	return http.StatusInternalServerError, "internal_error", "internal server error", false
}

// notFoundAs gives a missing row a resource-specific message.
func notFoundAs(err error, msg string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return apperr.NotFound("%s", msg)
	}
	return err
}

// statusCode turns "Too Many Requests" into "too_many_requests".
func statusCode(status int) string {
	text := http.StatusText(status)
	if text == "" {
		return "error"
	}
	return strings.ReplaceAll(strings.ToLower(text), " ", "_")
}

// ErrorHandler is installed as echo's HTTPErrorHandler and is the only place
// errors become responses.  Unclassified errors are logged with the request
// id; their text is only returned when dev is set.
func ErrorHandler(log logrus.FieldLogger, dev bool) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		status, code, msg, ok := classify(err)
		body := errorBody{Error: code, Message: msg}
		if !ok {
			log.WithError(err).WithFields(logrus.Fields{
				"method":     c.Request().Method,
				"path":       c.Request().URL.Path,
				"request_id": c.Response().Header().Get(echo.HeaderXRequestID),
			}).Error("unhandled error")
			if dev {
				body.Detail = err.Error()
			}
		}
		var werr error
		if c.Request().Method == http.MethodHead {
			werr = c.NoContent(status)
		} else {
			werr = c.JSON(status, body)
		}
		if werr != nil {
			log.WithError(werr).Warn("writing error response failed")
		}
	}
}
