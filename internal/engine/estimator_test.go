package engine

import (
	"errors"
	"io"
	"log/slog"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
)

func newTestEstimator(t *testing.T, opts EstimatorOptions) (*Estimator, *clock.Mock) {
	t.Helper()
	mock := clock.NewMock()
	opts.Clock = mock
	opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	est, err := NewEstimator(opts)
	if err != nil {
		t.Fatalf("NewEstimator() error: %v", err)
	}
	return est, mock
}

func mustSample(t *testing.T, est *Estimator, id string, in, out uint64, ts int64) RateResult {
	t.Helper()
	rate, err := est.Sample(id, in, out, ts)
	if err != nil {
		t.Fatalf("Sample(%q, %d, %d, %d) error: %v", id, in, out, ts, err)
	}
	return rate
}

func historyAll(t *testing.T, est *Estimator, id string) []RatePoint {
	t.Helper()
	points, err := est.History(id, 24*time.Hour)
	if err != nil {
		t.Fatalf("History(%q) error: %v", id, err)
	}
	return points
}

func TestEstimatorWarmUp(t *testing.T) {
	est, _ := newTestEstimator(t, EstimatorOptions{})
	rate := mustSample(t, est, "eth0", 123456, 654321, 1000)
	if rate != (RateResult{}) {
		t.Errorf("first sample should return zero rate, got %+v", rate)
	}
	if n := len(historyAll(t, est, "eth0")); n != 0 {
		t.Errorf("first sample should not add history, got %d points", n)
	}
	if got, ok := est.Latest("eth0"); !ok || got != (RateResult{}) {
		t.Errorf("expected tracked interface with zero rate, got %+v ok=%v", got, ok)
	}
	if d := est.Diagnostics(); d.WarmUps != 1 || d.Samples != 1 {
		t.Errorf("expected 1 warm-up and 1 sample, got %+v", d)
	}
}

func TestEstimatorDelta(t *testing.T) {
	est, mock := newTestEstimator(t, EstimatorOptions{})
	mustSample(t, est, "eth0", 1000, 500, 0)
	rate := mustSample(t, est, "eth0", 1008000, 504000, 1000)

	if !approxEqual(rate.Download, 8.056) {
		t.Errorf("expected Download ~8.056, got %f", rate.Download)
	}
	if !approxEqual(rate.Upload, 4.028) {
		t.Errorf("expected Upload ~4.028, got %f", rate.Upload)
	}

	mock.Set(time.UnixMilli(1000))
	points := historyAll(t, est, "eth0")
	if len(points) != 1 {
		t.Fatalf("expected 1 history point, got %d", len(points))
	}
	if points[0].TimestampMillis != 1000 || points[0].DownloadMbps != rate.Download || points[0].UploadMbps != rate.Upload {
		t.Errorf("unexpected history point %+v", points[0])
	}
}

func TestEstimatorCounterReset(t *testing.T) {
	est, _ := newTestEstimator(t, EstimatorOptions{})
	mustSample(t, est, "eth0", 5000, 5000, 0)
	rate := mustSample(t, est, "eth0", 100, 100, 1000)
	if rate.Download != 0 || rate.Upload != 0 {
		t.Errorf("expected zero rate after reset, got %+v", rate)
	}

	// The low values become the new baseline.
	rate = mustSample(t, est, "eth0", 100+125_000, 100+250_000, 2000)
	if !approxEqual(rate.Download, 1) || !approxEqual(rate.Upload, 2) {
		t.Errorf("expected 1/2 Mbps from the post-reset baseline, got %+v", rate)
	}
	if d := est.Diagnostics(); d.CounterAnomalies != 1 {
		t.Errorf("expected 1 counter anomaly, got %d", d.CounterAnomalies)
	}
}

func TestEstimatorDegenerateTimestamp(t *testing.T) {
	est, _ := newTestEstimator(t, EstimatorOptions{})

	// Degenerate before any rate exists returns zero.
	mustSample(t, est, "eth0", 0, 0, 5000)
	if rate := mustSample(t, est, "eth0", 999, 999, 5000); rate != (RateResult{}) {
		t.Errorf("expected zero rate for duplicate timestamp, got %+v", rate)
	}

	first := mustSample(t, est, "eth0", 125_000, 250_000, 6000)
	for _, ts := range []int64{6000, 5500} {
		rate := mustSample(t, est, "eth0", 10_000_000, 10_000_000, ts)
		if rate != first {
			t.Errorf("ts=%d: expected previous rate %+v, got %+v", ts, first, rate)
		}
	}

	// The baseline is still the sample taken at 6000.
	rate := mustSample(t, est, "eth0", 125_000+125_000, 250_000+125_000, 7000)
	if !approxEqual(rate.Download, 1) || !approxEqual(rate.Upload, 1) {
		t.Errorf("expected 1/1 Mbps against the 6000ms baseline, got %+v", rate)
	}
	if n := len(historyAll(t, est, "eth0")); n != 2 {
		t.Errorf("expected 2 history points, got %d", n)
	}
	if d := est.Diagnostics(); d.ClockAnomalies != 3 {
		t.Errorf("expected 3 clock anomalies, got %d", d.ClockAnomalies)
	}
}

func TestEstimatorNonNegative(t *testing.T) {
	est, _ := newTestEstimator(t, EstimatorOptions{})
	counters := []uint64{10, 5, 5, 1 << 40, 0, 7, 3, 1 << 63, 1}
	ts := []int64{0, 1000, 1000, 2000, 1500, 3000, 4000, 5000, 6000}
	for i := range counters {
		rate := mustSample(t, est, "eth0", counters[i], counters[len(counters)-1-i], ts[i])
		if rate.Download < 0 || rate.Upload < 0 {
			t.Fatalf("sample %d: negative rate %+v", i, rate)
		}
	}
	for _, p := range historyAll(t, est, "eth0") {
		if p.DownloadMbps < 0 || p.UploadMbps < 0 {
			t.Errorf("negative rate in history: %+v", p)
		}
	}
}

func TestEstimatorHistoryBound(t *testing.T) {
	est, mock := newTestEstimator(t, EstimatorOptions{MaxHistory: 1000})
	const samples = 1501
	for i := 0; i < samples; i++ {
		mustSample(t, est, "eth0", uint64(i)*1000, uint64(i)*500, int64(i)*1000)
	}
	mock.Set(time.UnixMilli((samples - 1) * 1000))

	points := historyAll(t, est, "eth0")
	if len(points) != 1000 {
		t.Fatalf("expected 1000 points, got %d", len(points))
	}
	if points[0].TimestampMillis != 501_000 {
		t.Errorf("expected oldest retained point at 501000, got %d", points[0].TimestampMillis)
	}
	if points[len(points)-1].TimestampMillis != 1_500_000 {
		t.Errorf("expected newest point at 1500000, got %d", points[len(points)-1].TimestampMillis)
	}
	for i := 1; i < len(points); i++ {
		if points[i].TimestampMillis < points[i-1].TimestampMillis {
			t.Fatalf("history not ascending at %d", i)
		}
	}
}

func TestEstimatorRetention(t *testing.T) {
	est, mock := newTestEstimator(t, EstimatorOptions{Retention: 10 * time.Second})
	for i := int64(0); i <= 30; i++ {
		mustSample(t, est, "eth0", uint64(i)*1000, uint64(i)*1000, i*1000)
	}
	mock.Set(time.UnixMilli(30_000))

	points := historyAll(t, est, "eth0")
	if len(points) != 11 {
		t.Fatalf("expected 11 points within retention, got %d", len(points))
	}
	if points[0].TimestampMillis != 20_000 {
		t.Errorf("expected oldest point at 20000, got %d", points[0].TimestampMillis)
	}
}

func TestEstimatorHistoryWindow(t *testing.T) {
	est, mock := newTestEstimator(t, EstimatorOptions{})
	base := time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)
	// One sample per minute for 10 minutes.
	for i := 0; i <= 10; i++ {
		ts := base.Add(time.Duration(i) * time.Minute).UnixMilli()
		mustSample(t, est, "eth0", uint64(i)*60_000_000, 0, ts)
	}
	now := base.Add(10 * time.Minute)
	mock.Set(now)

	points, err := est.History("eth0", 5*time.Minute)
	if err != nil {
		t.Fatalf("History() error: %v", err)
	}
	cutoff := now.UnixMilli() - 300_000
	if len(points) != 6 {
		t.Errorf("expected 6 points in a 5 minute window, got %d", len(points))
	}
	for i, p := range points {
		if p.TimestampMillis < cutoff {
			t.Errorf("point %d at %d is older than cutoff %d", i, p.TimestampMillis, cutoff)
		}
		if i > 0 && p.TimestampMillis <= points[i-1].TimestampMillis {
			t.Errorf("points not ascending at %d", i)
		}
	}

	points, _ = est.History("eth0", 0)
	if len(points) != 1 || points[0].TimestampMillis != now.UnixMilli() {
		t.Errorf("zero window should return only the point at now, got %+v", points)
	}
}

func TestEstimatorInvalidArguments(t *testing.T) {
	est, _ := newTestEstimator(t, EstimatorOptions{})
	if _, err := est.Sample("", 1, 1, 1); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("empty id: expected ErrInvalidArgument, got %v", err)
	}
	if _, err := est.History("eth0", -time.Minute); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("negative window: expected ErrInvalidArgument, got %v", err)
	}
	if len(est.Interfaces()) != 0 {
		t.Error("failed samples must not create interface state")
	}
	if _, err := NewEstimator(EstimatorOptions{MaxHistory: -1}); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("negative MaxHistory: expected ErrInvalidArgument, got %v", err)
	}
}

func TestEstimatorTimestampExtremes(t *testing.T) {
	tests := []struct {
		name    string
		ts      int64
		wantErr bool
	}{
		{"min int64", math.MinInt64, true},
		{"minus one", -1, true},
		{"zero", 0, false},
		{"max int64", math.MaxInt64, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			est, _ := newTestEstimator(t, EstimatorOptions{})
			mustSample(t, est, "eth0", 0, 0, 1_000)
			_, err := est.Sample("eth0", 1, 1, tt.ts)
			if got := errors.Is(err, ErrInvalidArgument); got != tt.wantErr {
				t.Fatalf("Sample(ts=%d) error = %v, want invalid argument: %v", tt.ts, err, tt.wantErr)
			}

			// Ordinary samples afterwards must produce real rates again.
			base := int64(10_000_000)
			mustSample(t, est, "eth0", 1_000, 1_000, base)
			rate := mustSample(t, est, "eth0", 1_000+125_000, 1_000+250_000, base+1_000)
			if !approxEqual(rate.Download, 1) || !approxEqual(rate.Upload, 2) {
				t.Errorf("expected 1/2 Mbps after ts=%d, got %+v", tt.ts, rate)
			}
		})
	}
}

func TestEstimatorClockReset(t *testing.T) {
	est, mock := newTestEstimator(t, EstimatorOptions{Retention: time.Minute})
	mustSample(t, est, "eth0", 0, 0, 600_000)
	mustSample(t, est, "eth0", 125_000, 125_000, 601_000)

	// A jump back further than the retention starts the interface over.
	if rate := mustSample(t, est, "eth0", 500_000, 500_000, 1_000); rate != (RateResult{}) {
		t.Errorf("expected zero rate on clock reset, got %+v", rate)
	}
	rate := mustSample(t, est, "eth0", 500_000+250_000, 500_000+125_000, 2_000)
	if !approxEqual(rate.Download, 2) || !approxEqual(rate.Upload, 1) {
		t.Errorf("expected 2/1 Mbps against the reset baseline, got %+v", rate)
	}

	mock.Set(time.UnixMilli(2_000))
	points := historyAll(t, est, "eth0")
	if len(points) != 1 || points[0].TimestampMillis != 2_000 {
		t.Errorf("history should restart at the reset, got %+v", points)
	}
}

func TestEstimatorHugeWindow(t *testing.T) {
	est, mock := newTestEstimator(t, EstimatorOptions{})
	mustSample(t, est, "eth0", 0, 0, 1_000)
	mustSample(t, est, "eth0", 125_000, 125_000, 2_000)
	mock.Set(time.UnixMilli(2_000))

	points, err := est.History("eth0", time.Duration(math.MaxInt64))
	if err != nil {
		t.Fatalf("History() error: %v", err)
	}
	if len(points) != 1 {
		t.Errorf("expected every retained point, got %d", len(points))
	}
}

func TestEstimatorUnknownInterface(t *testing.T) {
	est, _ := newTestEstimator(t, EstimatorOptions{})
	points, err := est.History("nope", 5*time.Minute)
	if err != nil {
		t.Fatalf("History() error: %v", err)
	}
	if points == nil || len(points) != 0 {
		t.Errorf("expected empty non-nil slice, got %#v", points)
	}
	if _, ok := est.Latest("nope"); ok {
		t.Error("Latest() should report unknown interface")
	}
}

func TestEstimatorInterfaceIsolation(t *testing.T) {
	est, _ := newTestEstimator(t, EstimatorOptions{})
	mustSample(t, est, "eth1", 0, 0, 0)
	mustSample(t, est, "eth1", 125_000, 125_000, 1000)
	before := historyAll(t, est, "eth1")

	mustSample(t, est, "eth0", 0, 0, 0)
	mustSample(t, est, "eth0", 1_250_000, 0, 1000)
	mustSample(t, est, "eth0", 2_500_000, 0, 2000)

	after := historyAll(t, est, "eth1")
	if len(after) != len(before) || after[0] != before[0] {
		t.Errorf("eth1 history changed by eth0 samples: %+v -> %+v", before, after)
	}
	if latest, _ := est.Latest("eth1"); !approxEqual(latest.Download, 1) {
		t.Errorf("eth1 latest changed: %+v", latest)
	}
	for _, p := range historyAll(t, est, "eth0") {
		if !approxEqual(p.DownloadMbps, 10) {
			t.Errorf("eth0 history contains foreign point %+v", p)
		}
	}
	ids := est.Interfaces()
	if len(ids) != 2 || ids[0] != "eth0" || ids[1] != "eth1" {
		t.Errorf("expected [eth0 eth1], got %v", ids)
	}
}

func TestEstimatorConcurrentSameInterface(t *testing.T) {
	est, mock := newTestEstimator(t, EstimatorOptions{})
	const workers = 50
	var wg sync.WaitGroup
	for i := 1; i <= workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			rate, err := est.Sample("eth0", uint64(i)*125_000, uint64(i)*125_000, int64(i)*1000)
			if err != nil {
				t.Errorf("Sample() error: %v", err)
			}
			if rate.Download < 0 || rate.Upload < 0 {
				t.Errorf("negative rate %+v", rate)
			}
		}(i)
	}
	wg.Wait()

	if d := est.Diagnostics(); d.Samples != workers {
		t.Errorf("expected %d samples, got %d", workers, d.Samples)
	}
	mock.Set(time.UnixMilli(workers * 1000))
	points := historyAll(t, est, "eth0")
	if len(points) >= workers {
		t.Errorf("expected fewer than %d points (first is warm-up), got %d", workers, len(points))
	}
	for i := 1; i < len(points); i++ {
		if points[i].TimestampMillis <= points[i-1].TimestampMillis {
			t.Fatalf("history not strictly ascending at %d: %+v", i, points)
		}
	}
	// Every applied sample was against the true previous baseline, so each
	// point reflects an exact 1 Mbps per elapsed second.
	for _, p := range points {
		if p.DownloadMbps <= 0 || p.DownloadMbps > 1.0000001 {
			t.Errorf("unexpected rate from concurrent samples: %+v", p)
		}
	}
}

func TestEstimatorMaxInterfaces(t *testing.T) {
	est, _ := newTestEstimator(t, EstimatorOptions{MaxInterfaces: 2})
	mustSample(t, est, "a", 1, 1, 0)
	mustSample(t, est, "b", 1, 1, 0)
	mustSample(t, est, "c", 1, 1, 0)

	ids := est.Interfaces()
	if len(ids) != 2 || ids[0] != "b" || ids[1] != "c" {
		t.Errorf("expected least recently sampled interface dropped, got %v", ids)
	}
	if d := est.Diagnostics(); d.EvictedInterfaces != 1 || d.TrackedInterfaces != 2 {
		t.Errorf("unexpected diagnostics %+v", d)
	}
}

func TestEstimatorSampleAfterEvictionWhileLocked(t *testing.T) {
	est, _ := newTestEstimator(t, EstimatorOptions{})
	mustSample(t, est, "eth0", 0, 0, 0)

	// Hold the state's lock so a concurrent Sample blocks on it, then drop
	// the state from the registry before releasing.
	orphan := est.state("eth0")
	orphan.mu.Lock()
	done := make(chan error)
	go func() {
		_, err := est.Sample("eth0", 125_000, 125_000, 1_000)
		done <- err
	}()
	time.Sleep(20 * time.Millisecond)
	est.states.Remove("eth0")
	orphan.mu.Unlock()

	if err := <-done; err != nil {
		t.Fatalf("Sample() error: %v", err)
	}
	st, ok := est.states.Peek("eth0")
	if !ok || st == orphan {
		t.Fatal("sample should land on a registered state")
	}
	if st.last == nil || st.last.TimestampMillis != 1_000 {
		t.Errorf("registered state did not record the sample: %+v", st.last)
	}
}
