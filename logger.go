// Copyright 2022 Sylvain Müller. All rights reserved.
// Mount of this source code is governed by a Apache-2.0 license that can be found
// at https://github.com/tigerwill90/fox/blob/master/LICENSE.txt.

package hrouter

import (
	"errors"
	"log/slog"
	"time"

	"github.com/tigerwill90/hrouter/internal/slogpretty"
)

// LoggerWithHandler returns middleware that logs routed request information using the provided slog.Handler.
// It logs details such as the HTTP method, request path, matched prefix, status code and latency. A request
// declined with [ErrPass] is logged at debug level since nothing was sent.
func LoggerWithHandler(handler slog.Handler) MiddlewareFunc {
	log := slog.New(handler)
	return func(next Handler) Handler {
		return HandlerFunc(func(c *Context) error {
			start := time.Now()
			err := next.Handle(c)
			latency := time.Since(start)

			req := c.Request()
			if errors.Is(err, ErrPass) {
				log.LogAttrs(
					req.Context(),
					slog.LevelDebug,
					"pass",
					slog.String("method", req.Method),
					slog.String("path", req.URL.String()),
					slog.Duration("latency", roundLatency(latency)),
				)
				return err
			}

			status := c.Writer().Status()
			attrs := []slog.Attr{
				slog.Int("status", status),
				slog.String("method", req.Method),
				slog.String("path", req.URL.String()),
				slog.Duration("latency", roundLatency(latency)),
			}
			if prefix := c.ScriptName(); prefix != "" {
				attrs = append(attrs, slog.String("prefix", prefix))
			}
			if location := c.Writer().Header().Get("Location"); location != "" {
				attrs = append(attrs, slog.String("location", location))
			}
			if err != nil {
				attrs = append(attrs, slog.String("error", err.Error()))
			}

			log.LogAttrs(req.Context(), level(status, err), "request", attrs...)
			return err
		})
	}
}

// Logger returns middleware that logs routed request information to os.Stdout and os.Stderr.
// It logs details such as the HTTP method, request path, status code and latency.
func Logger() MiddlewareFunc {
	return LoggerWithHandler(slogpretty.DefaultHandler)
}

func level(status int, err error) slog.Level {
	switch {
	case err != nil:
		return slog.LevelError
	case status >= 200 && status < 300:
		return slog.LevelInfo
	case status >= 300 && status < 400:
		return slog.LevelDebug
	case status >= 400 && status < 500:
		return slog.LevelWarn
	case status >= 500:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func roundLatency(d time.Duration) time.Duration {
	switch {
	case d < 1*time.Microsecond:
		return d.Round(100 * time.Nanosecond)
	case d < 1*time.Millisecond:
		return d.Round(10 * time.Microsecond)
	case d < 10*time.Millisecond:
		return d.Round(100 * time.Microsecond)
	case d < 100*time.Millisecond:
		return d.Round(1 * time.Millisecond)
	case d < 1*time.Second:
		return d.Round(10 * time.Millisecond)
	case d < 10*time.Second:
		return d.Round(100 * time.Millisecond)
	default:
		return d.Round(1 * time.Second)
	}
}
