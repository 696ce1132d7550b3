package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNewTimer(t *testing.T) {
	timer := NewTimer()

	if timer == nil {
		t.Fatal("NewTimer() returned nil")
	}

	if timer.start.IsZero() {
		t.Error("NewTimer() start time is zero")
	}

	if time.Since(timer.start) > time.Second {
		t.Error("NewTimer() start time is not recent")
	}
}

func TestTimerDuration(t *testing.T) {
	timer := NewTimer()

	sleepDuration := 20 * time.Millisecond
	time.Sleep(sleepDuration)

	if d := timer.Duration(); d < sleepDuration {
		t.Errorf("Timer.Duration() = %v, want >= %v", d, sleepDuration)
	}
}

func TestTimerObserveDuration(t *testing.T) {
	histogram := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "test_duration_seconds",
		Help:    "Test duration histogram",
		Buckets: prometheus.DefBuckets,
	})

	timer := NewTimer()
	timer.ObserveDuration(histogram)

	if n := testutil.CollectAndCount(histogram); n != 1 {
		t.Errorf("expected 1 histogram series, got %d", n)
	}
}

func TestTimerObserveDurationVec(t *testing.T) {
	histogramVec := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "test_duration_vec_seconds",
			Help:    "Test duration histogram vec",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route"},
	)

	timer := NewTimer()
	timer.ObserveDurationVec(histogramVec, "/servers")
	timer.ObserveDurationVec(histogramVec, "/hello")

	if n := testutil.CollectAndCount(histogramVec); n != 2 {
		t.Errorf("expected 2 histogram series, got %d", n)
	}
}

func TestMultipleTimers(t *testing.T) {
	timer1 := NewTimer()
	time.Sleep(10 * time.Millisecond)

	timer2 := NewTimer()
	time.Sleep(10 * time.Millisecond)

	if d1, d2 := timer1.Duration(), timer2.Duration(); d1 <= d2 {
		t.Errorf("timer1 should be running longer: timer1=%v, timer2=%v", d1, d2)
	}
}
