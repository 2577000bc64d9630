package main

import (
	"encoding/json"
	"net/http"
	"sync/atomic"

	"github.com/gorilla/mux"
)

// queueDepths counts the events fanOut has passed across each hand-off
// between pipeline stages, for the status endpoint, grounded on the
// teacher's pkg/web status server (a small /healthz + metrics-snapshot
// mux.Router). The counters only ever increase: they are running
// totals since startup, not the number of events currently queued.
type queueDepths struct {
	generatorOut int64
	archivesIn   int64
	metricsIn    int64
}

func (q *queueDepths) snapshot() map[string]int64 {
	return map[string]int64{
		"generator_out": atomic.LoadInt64(&q.generatorOut),
		"archives_in":   atomic.LoadInt64(&q.archivesIn),
		"metrics_in":    atomic.LoadInt64(&q.metricsIn),
	}
}

// newStatusServer builds the internal status HTTP server: "/healthz"
// for liveness and "/debug/queues" for the queueDepths counters.
func newStatusServer(addr string, q *queueDepths) *http.Server {
	r := mux.NewRouter()
	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}).Methods(http.MethodGet)
	r.HandleFunc("/debug/queues", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(q.snapshot())
	}).Methods(http.MethodGet)

	return &http.Server{Addr: addr, Handler: r}
}
