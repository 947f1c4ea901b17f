package loggingmw

import (
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// RequestLogger attaches a request-scoped logger to the request context and
// emits one completion line per request, levelled by outcome.
func RequestLogger(base zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			rid := c.Request().Header.Get(echo.HeaderXRequestID)
			if rid == "" {
				rid = c.Response().Header().Get(echo.HeaderXRequestID)
			}

			l := base.With().
				Str("method", c.Request().Method).
				Str("path", c.Path()).
				Str("url", c.Request().URL.Path).
				Str("remote_ip", c.RealIP()).
				Logger()
			if rid != "" {
				l = l.With().Str("request_id", rid).Logger()
				c.Response().Header().Set(echo.HeaderXRequestID, rid)
			}

			req := c.Request().WithContext(l.WithContext(c.Request().Context()))
			c.SetRequest(req)

			start := time.Now()
			err := next(c)
			dur := time.Since(start)
			status := c.Response().Status

			if err != nil {
				c.Echo().HTTPErrorHandler(err, c)
				status = c.Response().Status
			}

			switch {
			case err != nil || status >= 500:
				l.Error().Err(err).Int("status", status).Int64("duration_ms", dur.Milliseconds()).Msg("request completed")
			case status >= 400:
				l.Warn().Int("status", status).Int64("duration_ms", dur.Milliseconds()).Msg("request completed")
			default:
				l.Info().Int("status", status).Int64("duration_ms", dur.Milliseconds()).Int64("bytes", c.Response().Size).Msg("request completed")
			}
			return nil
		}
	}
}
