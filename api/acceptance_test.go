package api

import (
	"net/http"
	"strings"
	"testing"

	"github.com/fulldump/apitest"
	"github.com/fulldump/biff"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/fulldump/editdb/database"
	"github.com/fulldump/editdb/service"
)

func TestAcceptance(t *testing.T) {

	biff.Alternative("Setup", func(a *biff.A) {

		registry := prometheus.NewRegistry()

		db := database.NewDatabase(&database.Config{
			Store:      "memory",
			Dir:        t.TempDir(),
			Registerer: registry,
		})

		biff.AssertNil(db.Load())
		biff.AssertEqual(db.GetStatus(), database.StatusOperating)

		s := service.NewService(db)

		b := Build(s, "test", registry)
		b.WithInterceptors(
			Metrics(registry),
			PrettyErrorInterceptor,
			InterceptorUnavailable(db),
			RecoverFromPanic,
		)

		api := apitest.NewWithHandler(b)

		service.Acceptance(a, func(method, path string) *apitest.Request {
			return api.Request(method, "/v1"+path)
		})

		a.Alternative("Release", func(a *biff.A) {
			resp := api.Request("GET", "/release").Do()
			biff.AssertEqual(resp.StatusCode, http.StatusOK)
			biff.AssertEqual(resp.BodyJson(), "test")
		})

		a.Alternative("Metrics", func(a *biff.A) {
			api.Request("GET", "/v1/projects").Do()
			api.Request("GET", "/v1/projects/nope").Do()

			resp := api.Request("GET", "/metrics").Do()
			biff.AssertEqual(resp.StatusCode, http.StatusOK)
			body := resp.BodyString()
			biff.AssertTrue(strings.Contains(body, "editdb_dataportal_calls_total"))
			biff.AssertTrue(strings.Contains(body, `editdb_http_requests_total{action="listProjects",method="GET",outcome="ok"} 1`))
			biff.AssertTrue(strings.Contains(body, `editdb_http_requests_total{action="getProject",method="GET",outcome="error"} 1`))
		})

		a.Alternative("Request id", func(a *biff.A) {
			resp := api.Request("GET", "/v1/workspace").WithHeader("X-Request-Id", "abc").Do()
			biff.AssertEqual(resp.Header.Get("X-Request-Id"), "abc")

			resp = api.Request("GET", "/v1/workspace").Do()
			biff.AssertEqual(len(resp.Header.Get("X-Request-Id")), 36)
		})

		a.Alternative("Malformed body", func(a *biff.A) {
			resp := api.Request("POST", "/v1/projects").WithBodyString("{not json").Do()
			biff.AssertEqual(resp.StatusCode, http.StatusBadRequest)
		})

		a.Alternative("Closed database", func(a *biff.A) {
			db.Stop()

			resp := api.Request("GET", "/v1/workspace").Do()
			biff.AssertEqual(resp.StatusCode, http.StatusServiceUnavailable)
			biff.AssertEqual(resp.BodyJsonMap()["error"].(map[string]interface{})["message"], "temporary unavailable: closing")
		})
	})
}

func TestUnavailable_WhileOpening(t *testing.T) {

	db := database.NewDatabase(&database.Config{
		Store: "memory",
	})

	b := Build(service.NewService(db), "test", nil)
	b.WithInterceptors(
		PrettyErrorInterceptor,
		InterceptorUnavailable(db),
		RecoverFromPanic,
	)

	api := apitest.NewWithHandler(b)

	resp := api.Request("GET", "/v1/projects").Do()
	biff.AssertEqual(resp.StatusCode, http.StatusServiceUnavailable)
	biff.AssertEqual(resp.BodyJsonMap()["error"].(map[string]interface{})["message"], "temporary unavailable: opening")

	resp = api.Request("GET", "/release").Do()
	biff.AssertEqual(resp.StatusCode, http.StatusServiceUnavailable)
}
