// Package logging builds the process-wide logrus logger and the echo
// access-log middleware that writes through it.
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"
)

const serviceName = "spacehire-api"

// New returns a logger writing to stdout at the given level ("debug",
// "info", ...) in "json" or "text" format.  Unknown levels fall back to info.
func New(level, format string) *logrus.Logger {
	return newWithOutput(level, format, os.Stdout)
}

func newWithOutput(level, format string, out io.Writer) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(out)
	lvl, err := logrus.ParseLevel(strings.TrimSpace(level))
	if err != nil {
		lvl = logrus.InfoLevel
	}
	l.SetLevel(lvl)
	if strings.EqualFold(format, "text") {
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true, TimestampFormat: time.RFC3339})
	} else {
		l.SetFormatter(&logrus.JSONFormatter{TimestampFormat: time.RFC3339Nano})
	}
	return l
}

// Service returns the entry every component logs through.
func Service(l *logrus.Logger) *logrus.Entry {
	return l.WithField("service", serviceName)
}

// RequestLogger logs one line per request.  5xx responses are logged at
// error level, 4xx at warn, everything else at info.
func RequestLogger(log logrus.FieldLogger) echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURIPath:   true,
		LogRoutePath: true,
		LogStatus:    true,
		LogLatency:   true,
		LogRemoteIP:  true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			entry := log.WithFields(logrus.Fields{
				"method":     v.Method,
				"path":       v.URIPath,
				"route":      v.RoutePath,
				"status":     v.Status,
				"latency_ms": v.Latency.Milliseconds(),
				"remote_ip":  v.RemoteIP,
				"request_id": v.RequestID,
			})
			if v.Error != nil {
				entry = entry.WithError(v.Error)
			}
			switch {
			case v.Status >= 500:
				entry.Error("request")
			case v.Status >= 400:
				entry.Warn("request")
			default:
				entry.Info("request")
			}
			return nil
		},
	})
}
