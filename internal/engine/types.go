package engine

import "time"

// InterfaceRate is the current state and throughput of one interface.
type InterfaceRate struct {
	Name        string `json:"name"`
	IfIndex     int    `json:"if_index"`
	Description string `json:"description,omitempty"`
	Status      string `json:"status"` // "up", "down", "testing", "unknown"
	SpeedMbps   uint64 `json:"speed_mbps"`
	RateResult
	Utilization float64 `json:"utilization"`
	Timestamp   int64   `json:"timestamp"`
	Error       string  `json:"error,omitempty"`
}

// Snapshot is a point-in-time view of all monitored interfaces of a router.
type Snapshot struct {
	Router     string          `json:"router"`
	Interfaces []InterfaceRate `json:"interfaces"`
	PolledAt   time.Time       `json:"polled_at"`
	PollCount  int             `json:"poll_count"`
	// Throttled is set when the snapshot was served without polling the
	// device because the previous poll was too recent.
	Throttled bool `json:"throttled"`
}

func (s *Snapshot) clone() *Snapshot {
	c := *s
	c.Interfaces = append([]InterfaceRate(nil), s.Interfaces...)
	return &c
}

// PollerInfo provides summary information about a Poller.
type PollerInfo struct {
	Router     string    `json:"router"`
	LastPoll   time.Time `json:"last_poll"`
	PollCount  int       `json:"poll_count"`
	ErrorCount int       `json:"error_count"`
}
