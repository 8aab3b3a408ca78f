package api

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/fulldump/box"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/fulldump/editdb/database"
	"github.com/fulldump/editdb/dataportal"
)

var ErrUnavailable = errors.New("temporary unavailable")

func RecoverFromPanic(next box.H) box.H {
	return func(ctx context.Context) {
		defer func() {
			if err := recover(); err != nil {
				debug.PrintStack()
				box.SetError(ctx, fmt.Errorf("panic: %v", err))
			}
		}()
		next(ctx)
	}
}

func AccessLog(l *log.Logger) box.I {
	return func(next box.H) box.H {
		return func(ctx context.Context) {
			r := box.GetRequest(ctx)
			now := time.Now()
			defer func() {
				l.Println(now.UTC().Format(time.RFC3339Nano), formatRemoteAddr(r), r.Method, r.URL.String(), time.Since(now))
			}()

			next(ctx)
		}
	}
}

// CallContext tags every request with an id, reusing X-Request-Id when the
// client sends one, and hands it to the dispatcher.
func CallContext(next box.H) box.H {
	return func(ctx context.Context) {
		r := box.GetRequest(ctx)
		requestID := r.Header.Get("X-Request-Id")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		box.GetResponse(ctx).Header().Set("X-Request-Id", requestID)

		next(dataportal.WithCallContext(ctx, dataportal.CallContext{
			Principal: formatRemoteAddr(r),
			Culture:   r.Header.Get("Accept-Language"),
			RequestID: requestID,
		}))
	}
}

func formatRemoteAddr(r *http.Request) string {
	xorigin := strings.TrimSpace(strings.Split(
		r.Header.Get("X-Forwarded-For"), ",")[0])
	if xorigin != "" {
		return xorigin
	}

	i := strings.LastIndex(r.RemoteAddr, ":")
	if i < 0 {
		return r.RemoteAddr
	}
	return r.RemoteAddr[:i]
}

func InterceptorUnavailable(db *database.Database) box.I {
	return func(next box.H) box.H {
		return func(ctx context.Context) {

			status := db.GetStatus()
			if status == database.StatusOpening {
				box.SetError(ctx, fmt.Errorf("%w: opening", ErrUnavailable))
				return
			}
			if status == database.StatusClosing {
				box.SetError(ctx, fmt.Errorf("%w: closing", ErrUnavailable))
				return
			}
			next(ctx)
		}
	}
}

// Metrics counts requests per method and action.
func Metrics(registerer prometheus.Registerer) box.I {
	requests := promauto.With(registerer).NewCounterVec(prometheus.CounterOpts{
		Name: "editdb_http_requests_total",
		Help: "HTTP requests by method, action and outcome",
	}, []string{"method", "action", "outcome"})

	return func(next box.H) box.H {
		return func(ctx context.Context) {
			next(ctx)

			action := ""
			if c := box.GetBoxContext(ctx); c != nil && c.Action != nil {
				action = c.Action.Name
			}
			outcome := "ok"
			if box.GetError(ctx) != nil {
				outcome = "error"
			}
			requests.WithLabelValues(box.GetRequest(ctx).Method, action, outcome).Inc()
		}
	}
}

func PrettyErrorInterceptor(next box.H) box.H {
	return func(ctx context.Context) {

		next(ctx)

		err := box.GetError(ctx)
		if err == nil {
			return
		}
		w := box.GetResponse(ctx)

		if err == box.ErrResourceNotFound {
			w.WriteHeader(http.StatusNotFound)
			PrettyError{
				Message:     err.Error(),
				Description: fmt.Sprintf("resource '%s' not found", box.GetRequest(ctx).URL.String()),
			}.MarshalTo(w)
			return
		}

		if err == box.ErrMethodNotAllowed {
			w.WriteHeader(http.StatusMethodNotAllowed)
			PrettyError{
				Message:     err.Error(),
				Description: fmt.Sprintf("method '%s' not allowed", box.GetRequest(ctx).Method),
			}.MarshalTo(w)
			return
		}

		if errors.Is(err, ErrUnavailable) {
			w.WriteHeader(http.StatusServiceUnavailable)
			PrettyError{
				Message:     err.Error(),
				Description: "the database is not operating, try again later",
			}.MarshalTo(w)
			return
		}

		status, pretty := describe(err)
		w.WriteHeader(status)
		pretty.MarshalTo(w)
	}
}
