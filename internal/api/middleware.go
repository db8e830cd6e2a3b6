package api

import (
	"crypto/rand"
	"net/http"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/birdeye-app/birdeye/internal/errors"
	"github.com/birdeye-app/birdeye/internal/logger"
)

// requestLogger logs one line per request through the module logger.
func (s *Server) requestLogger() echo.MiddlewareFunc {
	log := s.log.Module("http")
	return echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogStatus:   true,
		LogURI:      true,
		LogMethod:   true,
		LogLatency:  true,
		LogRemoteIP: true,
		LogError:    true,
		LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
			fields := []logger.Field{
				logger.String("method", v.Method),
				logger.String("uri", v.URI),
				logger.Int("status", v.Status),
				logger.String("ip", v.RemoteIP),
				logger.Duration("latency", v.Latency),
			}
			if v.Error != nil {
				fields = append(fields, logger.Error(v.Error))
			}
			log.WithContext(c.Request().Context()).Info("request", fields...)
			return nil
		},
	})
}

// ErrorResponse is the JSON body of every failed request.
type ErrorResponse struct {
	Error         string `json:"error"`
	Message       string `json:"message"`
	Code          int    `json:"code"`
	CorrelationID string `json:"correlation_id"`
}

// NewErrorResponse creates an error body with a fresh correlation id.
func NewErrorResponse(err error, message string, code int) *ErrorResponse {
	errorStr := message
	if err != nil {
		errorStr = logger.RedactSensitiveData(err.Error())
	}
	return &ErrorResponse{
		Error:         errorStr,
		Message:       message,
		Code:          code,
		CorrelationID: generateCorrelationID(),
	}
}

// generateCorrelationID returns an 8 character random identifier.
func generateCorrelationID() string {
	const charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		return "ERR-RAND"
	}
	for i := range b {
		b[i] = charset[int(b[i])%len(charset)]
	}
	return string(b)
}

// HandleError logs err and writes it as an ErrorResponse.
func (s *Server) HandleError(c echo.Context, err error, message string, code int) error {
	resp := NewErrorResponse(err, message, code)
	fields := []logger.Field{
		logger.String("correlation_id", resp.CorrelationID),
		logger.String("path", c.Path()),
		logger.Int("code", code),
	}
	if err != nil {
		fields = append(fields, logger.Error(err))
		var ee *errors.EnhancedError
		if errors.As(err, &ee) {
			fields = append(fields,
				logger.String("component", ee.GetComponent()),
				logger.String("category", ee.GetCategory()))
		}
	}
	log := s.log.WithContext(c.Request().Context())
	if code >= http.StatusInternalServerError {
		log.Error(message, fields...)
	} else {
		log.Warn(message, fields...)
	}
	return c.JSON(code, resp)
}

// statusFor maps an error category to an HTTP status.
func statusFor(err error) int {
	switch {
	case errors.IsNotFound(err):
		return http.StatusNotFound
	case errors.IsCategory(err, errors.CategoryValidation):
		return http.StatusBadRequest
	case errors.IsCategory(err, errors.CategoryNetwork),
		errors.IsCategory(err, errors.CategoryHTTP),
		errors.IsCategory(err, errors.CategoryDatabase):
		return http.StatusBadGateway
	case errors.IsCategory(err, errors.CategoryCancellation):
		return 499
	}
	return http.StatusInternalServerError
}
