package engine

import (
	"errors"
	"math"
	"testing"
)

func approxEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestCalculateRate(t *testing.T) {
	prev := CounterSample{InOctets: 1000, OutOctets: 500, TimestampMillis: 0}
	curr := CounterSample{InOctets: 1008000, OutOctets: 504000, TimestampMillis: 1000}

	rate, anomaly := CalculateRate(prev, curr)
	if anomaly != AnomalyNone {
		t.Fatalf("expected no anomaly, got %v", anomaly)
	}
	if !approxEqual(rate.Download, 8.056) {
		t.Errorf("expected Download 8.056, got %f", rate.Download)
	}
	if !approxEqual(rate.Upload, 4.028) {
		t.Errorf("expected Upload 4.028, got %f", rate.Upload)
	}
}

func TestCalculateRateElapsed(t *testing.T) {
	prev := CounterSample{InOctets: 0, OutOctets: 0, TimestampMillis: 10_000}
	curr := CounterSample{InOctets: 12_500_000, OutOctets: 1_250_000, TimestampMillis: 20_000}

	rate, _ := CalculateRate(prev, curr)
	if !approxEqual(rate.Download, 10) {
		t.Errorf("expected Download 10 Mbps, got %f", rate.Download)
	}
	if !approxEqual(rate.Upload, 1) {
		t.Errorf("expected Upload 1 Mbps, got %f", rate.Upload)
	}
}

func TestCalculateRateCounterReset(t *testing.T) {
	prev := CounterSample{InOctets: 5000, OutOctets: 5000, TimestampMillis: 0}
	curr := CounterSample{InOctets: 100, OutOctets: 100, TimestampMillis: 1000}

	rate, anomaly := CalculateRate(prev, curr)
	if anomaly != AnomalyCounter {
		t.Errorf("expected AnomalyCounter, got %v", anomaly)
	}
	if rate.Download != 0 || rate.Upload != 0 {
		t.Errorf("expected zero rate after reset, got %+v", rate)
	}
}

func TestCalculateRateOneDirectionReset(t *testing.T) {
	prev := CounterSample{InOctets: 5000, OutOctets: 0, TimestampMillis: 0}
	curr := CounterSample{InOctets: 100, OutOctets: 125_000, TimestampMillis: 1000}

	rate, anomaly := CalculateRate(prev, curr)
	if anomaly != AnomalyCounter {
		t.Errorf("expected AnomalyCounter, got %v", anomaly)
	}
	if rate.Download != 0 {
		t.Errorf("expected zero Download, got %f", rate.Download)
	}
	if !approxEqual(rate.Upload, 1) {
		t.Errorf("expected Upload 1 Mbps, got %f", rate.Upload)
	}
}

func TestCalculateRateNoElapsedTime(t *testing.T) {
	prev := CounterSample{InOctets: 0, TimestampMillis: 5000}
	for _, ts := range []int64{5000, 4000} {
		curr := CounterSample{InOctets: 1000, TimestampMillis: ts}
		rate, anomaly := CalculateRate(prev, curr)
		if anomaly != AnomalyClock {
			t.Errorf("ts=%d: expected AnomalyClock, got %v", ts, anomaly)
		}
		if rate != (RateResult{}) {
			t.Errorf("ts=%d: expected zero rate, got %+v", ts, rate)
		}
	}
}

func TestCalculateRateElapsedOverflow(t *testing.T) {
	prev := CounterSample{TimestampMillis: math.MinInt64}
	curr := CounterSample{InOctets: 1000, TimestampMillis: math.MaxInt64}
	if rate, anomaly := CalculateRate(prev, curr); anomaly != AnomalyClock || rate != (RateResult{}) {
		t.Errorf("expected AnomalyClock with zero rate, got %v %+v", anomaly, rate)
	}
}

func TestCalculateUtilization(t *testing.T) {
	util := CalculateUtilization(500, 300, 1000)
	if util < 49 || util > 51 {
		t.Errorf("expected ~50%%, got %f", util)
	}
	if got := CalculateUtilization(500, 300, 0); got != 0 {
		t.Errorf("expected 0 for unknown speed, got %f", got)
	}
}

func TestParseCounter(t *testing.T) {
	tests := []struct {
		in      string
		want    uint64
		wantErr bool
	}{
		{"0", 0, false},
		{" 1008000 ", 1008000, false},
		{"18446744073709551615", math.MaxUint64, false},
		{"-1", 0, true},
		{"12a", 0, true},
		{"", 0, true},
		{"18446744073709551616", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseCounter(tt.in)
		if tt.wantErr {
			if !errors.Is(err, ErrInvalidArgument) {
				t.Errorf("ParseCounter(%q) error = %v, want ErrInvalidArgument", tt.in, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseCounter(%q) unexpected error: %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseCounter(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}
