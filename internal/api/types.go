package api

import (
	"encoding/json"

	"github.com/rhyred/routerdash/internal/engine"
)

// ErrorResponse is the body of every non-2xx JSON response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// InterfaceSummary is the latest known rate of one tracked interface.
type InterfaceSummary struct {
	ID string `json:"id"`
	engine.RateResult
}

type InterfacesResponse struct {
	Interfaces []InterfaceSummary `json:"interfaces"`
}

type HistoryResponse struct {
	Interface     string             `json:"interface"`
	WindowMinutes float64            `json:"window"`
	Points        []engine.RatePoint `json:"points"`
}

// SampleRequest carries raw counters. Counters stay json.Number until
// engine.ParseCounter validates them.
type SampleRequest struct {
	InOctets  json.Number `json:"in_octets"`
	OutOctets json.Number `json:"out_octets"`
	Timestamp *int64      `json:"timestamp,omitempty"` // epoch millis, defaults to now
}

type SampleResponse struct {
	Interface string `json:"interface"`
	Timestamp int64  `json:"timestamp"`
	engine.RateResult
}

type DiagnosticsResponse struct {
	Estimator engine.Diagnostics `json:"estimator"`
	Poller    *engine.PollerInfo `json:"poller,omitempty"`
}

// StreamMessage is one websocket frame of /api/stream.
type StreamMessage struct {
	Type     string           `json:"type"` // "bandwidth" or "error"
	Snapshot *engine.Snapshot `json:"data,omitempty"`
	Error    string           `json:"error,omitempty"`
}
