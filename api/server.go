// Package api is the network ingest layer: an HTTP surface that decodes
// batches, submits them to the runtime, and reports progress over
// gorilla/mux, gorilla/websocket, json-iterator/go, macaroon.v2,
// prometheus/client_golang, and x/time/rate.
package api

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	jsoniter "github.com/json-iterator/go"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"github.com/pkt-cash/leafledger/ledgerlog"
	"github.com/pkt-cash/leafledger/runtime"
)

var log = ledgerlog.New(ledgerlog.TagAPI)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// Server exposes the runtime over HTTP: POST /batches submits a batch,
// GET /batches/{id}/stream reports its outcome over a websocket, and
// /metrics serves the runtime's prometheus collectors.
type Server struct {
	rt      *runtime.Runtime
	router  *mux.Router
	rootKey []byte

	mu       sync.Mutex
	limiters map[string]*rate.Limiter

	nextVersion uint64
}

// NewServer builds a Server around rt. It mints and returns the admin
// macaroon callers must present in the X-Macaroon header; the caller is
// responsible for persisting and distributing it.
func NewServer(rt *runtime.Runtime, startVersion uint64) (*Server, string, error) {
	rootKey, encoded, err := issueAdminMacaroon()
	if err != nil {
		return nil, "", err
	}
	s := &Server{
		rt:          rt,
		rootKey:     rootKey,
		limiters:    make(map[string]*rate.Limiter),
		nextVersion: startVersion,
	}
	s.router = mux.NewRouter()
	protected := s.router.PathPrefix("/batches").Subrouter()
	protected.Use(authMiddleware(rootKey), s.rateLimitMiddleware)
	protected.HandleFunc("", s.handleSubmitBatch).Methods(http.MethodPost)
	protected.HandleFunc("/{id}/stream", s.handleStream).Methods(http.MethodGet)
	s.router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	return s, encoded, nil
}

func (s *Server) Handler() http.Handler { return s.router }

// rateLimitMiddleware caps requests per remote address.
func (s *Server) rateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.limiterFor(r.RemoteAddr).Allow() {
			writeError(w, http.StatusTooManyRequests, ErrRateLimited())
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) limiterFor(addr string) *rate.Limiter {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.limiters[addr]
	if !ok {
		l = rate.NewLimiter(rate.Every(time.Second), 10)
		s.limiters[addr] = l
	}
	return l
}

func writeError(w http.ResponseWriter, status int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}
