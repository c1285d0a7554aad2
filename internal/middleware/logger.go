package middleware

import (
    "strconv"
    "time"

    "github.com/google/uuid"
    "github.com/labstack/echo/v4"
    "github.com/sirupsen/logrus"

    "github.com/impulse-events/ticketing/internal/metrics"
)

// RequestLogger assigns a request id, then logs and counts every request.
func RequestLogger(log logrus.FieldLogger) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            start := time.Now()
            req := c.Request()
            rid := req.Header.Get(echo.HeaderXRequestID)
            if rid == "" {
                rid = uuid.NewString()
            }
            c.Response().Header().Set(echo.HeaderXRequestID, rid)

            err := next(c)
            if err != nil {
                c.Error(err)
            }

            status := c.Response().Status
            route := c.Path()
            if route == "" {
                route = "unmatched"
            }
            metrics.HTTPRequests.WithLabelValues(req.Method, route, strconv.Itoa(status)).Inc()

            entry := log.WithFields(logrus.Fields{
                "request_id":  rid,
                "method":      req.Method,
                "path":        req.URL.Path,
                "status":      status,
                "duration_ms": time.Since(start).Milliseconds(),
                "remote_ip":   c.RealIP(),
            })
            switch {
            case status >= 500:
                entry.Error("request")
            case status >= 400:
                entry.Warn("request")
            default:
                entry.Info("request")
            }
            return nil
        }
    }
}
