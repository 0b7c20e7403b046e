package api

import (
	"encoding/hex"
	"net/http"
	"sync"

	"github.com/gorilla/mux"

	"github.com/pkt-cash/leafledger/leafwire"
)

type batchRequest struct {
	Transactions []string `json:"transactions"` // hex-encoded signed Transaction wire bytes
}

type batchResult struct {
	ID      string `json:"id"`
	Error   string `json:"error,omitempty"`
	Version uint64 `json:"version,omitempty"`
}

var (
	resultsMu sync.Mutex
	results   = make(map[string]batchResult)
)

func (s *Server) handleSubmitBatch(w http.ResponseWriter, r *http.Request) {
	var req batchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, ErrBadRequest(err.Error()))
		return
	}

	txs := make([]leafwire.Transaction, 0, len(req.Transactions))
	for _, h := range req.Transactions {
		raw, err := hex.DecodeString(h)
		if err != nil {
			writeError(w, http.StatusBadRequest, ErrBadRequest("invalid hex"))
			return
		}
		tx, derr := leafwire.DecodeTransaction(raw)
		if derr != nil {
			writeError(w, http.StatusBadRequest, ErrBadRequest(derr.Error()))
			return
		}
		txs = append(txs, tx)
	}

	id := newBatchID()

	s.mu.Lock()
	version := s.nextVersion
	s.nextVersion++
	s.mu.Unlock()

	res := batchResult{ID: id.String()}
	if err := s.rt.RunBatch(txs, version); err != nil {
		log.Errorf("batch %s failed: %v", id, err)
		res.Error = err.Error()
	} else {
		res.Version = version
	}

	resultsMu.Lock()
	results[id.String()] = res
	resultsMu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(res)
}

// handleStream reports a submitted batch's outcome over a websocket; this
// implementation answers with the already-known final result immediately,
// since RunBatch runs synchronously to completion before responding to
// the POST that created this batch id.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Errorf("websocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	resultsMu.Lock()
	res, ok := results[id]
	resultsMu.Unlock()
	if !ok {
		_ = conn.WriteJSON(map[string]string{"error": "unknown batch id"})
		return
	}
	_ = conn.WriteJSON(res)
}
