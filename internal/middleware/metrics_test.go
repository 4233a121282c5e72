package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetrics_UsesRouteTemplate(t *testing.T) {
	// Arrange
	router := mux.NewRouter()
	router.Use(mux.MiddlewareFunc(Metrics()))
	router.Handle("/api/v1/items/{id}", okHandler(http.StatusNotFound)).Methods(http.MethodGet)
	counter := httpRequestsTotal.WithLabelValues(http.MethodGet, "/api/v1/items/{id}", "404")
	before := testutil.ToFloat64(counter)

	// Act
	for _, id := range []string{"1", "2", "3"} {
		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/items/"+id, nil))
	}

	// Assert
	if got := testutil.ToFloat64(counter) - before; got != 3 {
		t.Errorf("counter delta = %v, want 3", got)
	}
}

func TestMetrics_InFlightReturnsToBaseline(t *testing.T) {
	// Arrange
	before := testutil.ToFloat64(httpRequestsInFlight)
	var during float64
	wrapped := Metrics()(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		during = testutil.ToFloat64(httpRequestsInFlight)
		w.WriteHeader(http.StatusOK)
	}))

	// Act
	wrapped.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/items", nil))

	// Assert
	if during != before+1 {
		t.Errorf("in flight during request = %v, want %v", during, before+1)
	}
	if after := testutil.ToFloat64(httpRequestsInFlight); after != before {
		t.Errorf("in flight after request = %v, want %v", after, before)
	}
}
