package api

import (
	"context"
	"net/http"

	"github.com/fulldump/box"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/fulldump/editdb/api/apiprojectsv1"
	"github.com/fulldump/editdb/service"
)

// Build mounts the v1 API. Metrics are served from gatherer when it is not
// nil.
func Build(s service.Servicer, version string, gatherer prometheus.Gatherer) *box.B {

	b := box.NewBox()

	v1 := b.Resource("/v1")
	v1.WithInterceptors(
		box.SetResponseHeader("Content-Type", "application/json"),
		CallContext,
		injectServicer(s),
	)
	apiprojectsv1.BuildV1Projects(v1)

	b.Resource("/release").
		WithActions(box.Get(func() string {
			return version
		}).WithName("release"))

	if gatherer != nil {
		metrics := promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
		b.Resource("/metrics").
			WithActions(box.Get(func(w http.ResponseWriter, r *http.Request) {
				metrics.ServeHTTP(w, r)
			}).WithName("metrics"))
	}

	return b
}

func injectServicer(s service.Servicer) box.I {
	return func(next box.H) box.H {
		return func(ctx context.Context) {
			next(apiprojectsv1.SetServicer(ctx, s))
		}
	}
}
