package engine

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidArgument is returned for empty interface ids, negative counter
// values and negative history windows.
var ErrInvalidArgument = errors.New("invalid argument")

// CounterSample holds raw SNMP octet counters for one interface at a point in
// time. Samples are values; a newer sample replaces an older one.
type CounterSample struct {
	InterfaceID     string
	InOctets        uint64
	OutOctets       uint64
	TimestampMillis int64
}

// RatePoint is one entry of an interface's rate history.
type RatePoint struct {
	TimestampMillis int64   `json:"timestamp"`
	DownloadMbps    float64 `json:"download"`
	UploadMbps      float64 `json:"upload"`
}

// RateResult is the throughput returned by a single Sample call.
type RateResult struct {
	Download float64 `json:"download"`
	Upload   float64 `json:"upload"`
}

// Anomaly names a condition absorbed while computing a rate.
type Anomaly int

const (
	AnomalyNone Anomaly = iota
	// AnomalyClock means the elapsed time between samples was not positive.
	AnomalyClock
	// AnomalyCounter means a counter went backwards (device reset or wrap).
	AnomalyCounter
)

// CalculateRate computes download/upload Mbps between two counter samples.
// A non-positive elapsed time yields AnomalyClock and a zero rate. A counter
// that went backwards (device reset or wrap) contributes a zero delta.
func CalculateRate(prev, curr CounterSample) (RateResult, Anomaly) {
	if curr.TimestampMillis <= prev.TimestampMillis {
		return RateResult{}, AnomalyClock
	}
	elapsedMillis := curr.TimestampMillis - prev.TimestampMillis
	if elapsedMillis <= 0 { // overflowed
		return RateResult{}, AnomalyClock
	}
	elapsed := float64(elapsedMillis) / 1000

	outcome := AnomalyNone
	deltaIn, ok := counterDelta(prev.InOctets, curr.InOctets)
	if !ok {
		outcome = AnomalyCounter
	}
	deltaOut, ok := counterDelta(prev.OutOctets, curr.OutOctets)
	if !ok {
		outcome = AnomalyCounter
	}

	return RateResult{
		Download: octetsToMbps(deltaIn, elapsed),
		Upload:   octetsToMbps(deltaOut, elapsed),
	}, outcome
}

func counterDelta(prev, curr uint64) (uint64, bool) {
	if curr < prev {
		return 0, false
	}
	return curr - prev, true
}

func octetsToMbps(delta uint64, elapsedSeconds float64) float64 {
	return float64(delta) / elapsedSeconds * 8 / 1_000_000
}

// CalculateUtilization returns the utilization percentage given rates in
// Mbps and the interface speed in Mbps. It uses whichever direction is higher.
func CalculateUtilization(downMbps, upMbps float64, speedMbps uint64) float64 {
	if speedMbps == 0 {
		return 0
	}
	maxRate := downMbps
	if upMbps > maxRate {
		maxRate = upMbps
	}
	return maxRate / float64(speedMbps) * 100
}

// ParseCounter parses a decimal octet counter as supplied by an external
// producer. Negative or malformed values are rejected with ErrInvalidArgument.
func ParseCounter(s string) (uint64, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "-") {
		return 0, fmt.Errorf("%w: negative counter %s", ErrInvalidArgument, s)
	}
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: counter %q: %v", ErrInvalidArgument, s, err)
	}
	return v, nil
}
