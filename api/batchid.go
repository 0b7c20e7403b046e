package api

import "github.com/google/uuid"

// BatchID correlates one submitted batch across logs and its websocket
// progress stream.
type BatchID = uuid.UUID

func newBatchID() BatchID { return uuid.New() }
