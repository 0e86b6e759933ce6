package engine

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/benbjohnson/clock"
	lru "github.com/hashicorp/golang-lru/v2"
)

// Estimator defaults.
const (
	DefaultMaxHistory    = 1000
	DefaultRetention     = 60 * time.Minute
	DefaultMaxInterfaces = 4096
)

// EstimatorOptions configures an Estimator. Zero values select the defaults.
type EstimatorOptions struct {
	// MaxHistory bounds the number of RatePoints kept per interface.
	MaxHistory int
	// Retention bounds the age of RatePoints, measured from the newest one.
	Retention time.Duration
	// MaxInterfaces bounds how many interface states are tracked. The least
	// recently sampled interface is dropped beyond it.
	MaxInterfaces int
	Clock         clock.Clock
	Logger        *slog.Logger
}

// Diagnostics counts the anomalies an Estimator absorbed instead of failing.
type Diagnostics struct {
	Samples           uint64 `json:"samples"`
	WarmUps           uint64 `json:"warm_ups"`
	ClockAnomalies    uint64 `json:"clock_anomalies"`
	CounterAnomalies  uint64 `json:"counter_anomalies"`
	EvictedInterfaces uint64 `json:"evicted_interfaces"`
	TrackedInterfaces int    `json:"tracked_interfaces"`
}

// interfaceState is the mutable per-interface state. All fields are guarded
// by mu so that samples for one interface are applied one at a time.
type interfaceState struct {
	mu       sync.Mutex
	last     *CounterSample
	lastRate RateResult
	history  *RingBuffer[RatePoint]
}

// Estimator converts cumulative octet counters into per-interface throughput
// and keeps a bounded rate history for each interface. It is safe for
// concurrent use; interfaces are updated independently of each other.
type Estimator struct {
	maxHistory int
	retention  time.Duration
	clock      clock.Clock
	logger     *slog.Logger
	states     *lru.Cache[string, *interfaceState]

	samples          atomic.Uint64
	warmUps          atomic.Uint64
	clockAnomalies   atomic.Uint64
	counterAnomalies atomic.Uint64
	evicted          atomic.Uint64
}

// NewEstimator creates an empty Estimator. It is meant to be created once by
// the process composition root and shared by every consumer.
func NewEstimator(opts EstimatorOptions) (*Estimator, error) {
	if opts.MaxHistory < 0 || opts.Retention < 0 || opts.MaxInterfaces < 0 {
		return nil, fmt.Errorf("%w: negative estimator bound", ErrInvalidArgument)
	}
	if opts.MaxHistory == 0 {
		opts.MaxHistory = DefaultMaxHistory
	}
	if opts.Retention == 0 {
		opts.Retention = DefaultRetention
	}
	if opts.MaxInterfaces == 0 {
		opts.MaxInterfaces = DefaultMaxInterfaces
	}
	if opts.Clock == nil {
		opts.Clock = clock.New()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	e := &Estimator{
		maxHistory: opts.MaxHistory,
		retention:  opts.Retention,
		clock:      opts.Clock,
		logger:     opts.Logger,
	}
	states, err := lru.NewWithEvict(opts.MaxInterfaces, func(id string, _ *interfaceState) {
		e.evicted.Add(1)
		e.logger.Info("dropped rate state", "interface", id)
	})
	if err != nil {
		return nil, err
	}
	e.states = states
	return e, nil
}

// Sample records a raw counter observation for an interface and returns the
// throughput since the previous observation.
//
// The first sample of an interface returns a zero rate and adds nothing to
// its history. A sample whose timestamp is not after the previous one is
// ignored and the previous rate is returned, unless it lies more than the
// retention period before the previous one: the clock is then taken to have
// been reset and the interface starts over from this sample. Counters that
// went backwards produce a zero rate for that direction and become the new
// baseline. Negative timestamps are rejected.
func (e *Estimator) Sample(interfaceID string, inOctets, outOctets uint64, nowMillis int64) (RateResult, error) {
	if interfaceID == "" {
		return RateResult{}, fmt.Errorf("%w: empty interface id", ErrInvalidArgument)
	}
	if nowMillis < 0 {
		return RateResult{}, fmt.Errorf("%w: negative timestamp %d", ErrInvalidArgument, nowMillis)
	}
	curr := CounterSample{
		InterfaceID:     interfaceID,
		InOctets:        inOctets,
		OutOctets:       outOctets,
		TimestampMillis: nowMillis,
	}

	st := e.lockedState(interfaceID)
	defer st.mu.Unlock()
	e.samples.Add(1)

	if st.last == nil {
		st.last = &curr
		e.warmUps.Add(1)
		return RateResult{}, nil
	}

	rate, anomaly := CalculateRate(*st.last, curr)
	switch anomaly {
	case AnomalyClock:
		e.clockAnomalies.Add(1)
		// Both timestamps are non-negative, so the difference cannot overflow.
		if st.last.TimestampMillis-nowMillis > e.retention.Milliseconds() {
			e.logger.Info("clock moved back past retention, rebaselining",
				"interface", interfaceID, "last", st.last.TimestampMillis, "now", nowMillis)
			st.history.DropWhile(func(RatePoint) bool { return true })
			st.last = &curr
			st.lastRate = RateResult{}
			return RateResult{}, nil
		}
		e.logger.Debug("ignoring sample without elapsed time",
			"interface", interfaceID, "last", st.last.TimestampMillis, "now", nowMillis)
		return st.lastRate, nil
	case AnomalyCounter:
		e.counterAnomalies.Add(1)
		e.logger.Debug("counter went backwards, clamping delta",
			"interface", interfaceID, "in", inOctets, "out", outOctets)
	}

	st.history.Add(RatePoint{
		TimestampMillis: nowMillis,
		DownloadMbps:    rate.Download,
		UploadMbps:      rate.Upload,
	})
	cutoff := nowMillis - e.retention.Milliseconds()
	st.history.DropWhile(func(p RatePoint) bool { return p.TimestampMillis < cutoff })

	st.last = &curr
	st.lastRate = rate
	return rate, nil
}

// History returns the retained RatePoints of an interface that are no older
// than window, oldest first. An unknown interface yields an empty slice.
func (e *Estimator) History(interfaceID string, window time.Duration) ([]RatePoint, error) {
	if window < 0 {
		return nil, fmt.Errorf("%w: negative window %s", ErrInvalidArgument, window)
	}
	st, ok := e.states.Peek(interfaceID)
	if !ok {
		return []RatePoint{}, nil
	}
	cutoff := e.clock.Now().UnixMilli() - window.Milliseconds()

	st.mu.Lock()
	defer st.mu.Unlock()
	return st.history.Filter(func(p RatePoint) bool { return p.TimestampMillis >= cutoff }), nil
}

// Latest returns the last computed rate of an interface without sampling.
func (e *Estimator) Latest(interfaceID string) (RateResult, bool) {
	st, ok := e.states.Peek(interfaceID)
	if !ok {
		return RateResult{}, false
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.lastRate, true
}

// Interfaces returns the ids of all tracked interfaces, sorted.
func (e *Estimator) Interfaces() []string {
	ids := e.states.Keys()
	sort.Strings(ids)
	return ids
}

// Diagnostics returns a snapshot of the absorbed-anomaly counters.
func (e *Estimator) Diagnostics() Diagnostics {
	return Diagnostics{
		Samples:           e.samples.Load(),
		WarmUps:           e.warmUps.Load(),
		ClockAnomalies:    e.clockAnomalies.Load(),
		CounterAnomalies:  e.counterAnomalies.Load(),
		EvictedInterfaces: e.evicted.Load(),
		TrackedInterfaces: e.states.Len(),
	}
}

// lockedState returns the interface's state with its mutex held. A state
// evicted between lookup and locking is orphaned, so the lookup is retried
// until the locked state is the registered one.
func (e *Estimator) lockedState(interfaceID string) *interfaceState {
	for {
		st := e.state(interfaceID)
		st.mu.Lock()
		if cur, ok := e.states.Peek(interfaceID); ok && cur == st {
			return st
		}
		st.mu.Unlock()
	}
}

// state returns the interface's state, creating it if absent. Concurrent
// callers for the same id always receive the same state.
func (e *Estimator) state(interfaceID string) *interfaceState {
	if st, ok := e.states.Get(interfaceID); ok {
		return st
	}
	fresh := &interfaceState{history: NewRingBuffer[RatePoint](e.maxHistory)}
	if prev, ok, _ := e.states.PeekOrAdd(interfaceID, fresh); ok {
		return prev
	}
	return fresh
}
