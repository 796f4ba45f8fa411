package estimator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestEstimateNoChanges(t *testing.T) {
	got := Estimate(100*time.Second, 5, 0)
	assert.Equal(t, 100*time.Second, got)
}

func TestEstimateAdaptiveCadence(t *testing.T) {
	// wait=100s, n=5, k=2 -> ~221s.
	got := Estimate(100*time.Second, 5, 2)
	assert.InDelta(t, 221, got.Seconds(), 1)
}

func TestEstimateRoundsToWholeSeconds(t *testing.T) {
	// wait=100s, n=5, k=3 -> exactly 100/-ln(2.5/5.5) ~= 126.8457s, which
	// must round up to 127s, not truncate down to 126s.
	got := Estimate(100*time.Second, 5, 3)
	assert.Equal(t, 127*time.Second, got)
}

func TestEstimateAllChanged(t *testing.T) {
	// n == k: argument to ln is (0.5)/(n+0.5), still in (0,1].
	got := Estimate(100*time.Second, 5, 5)
	assert.Greater(t, got, time.Duration(0))
	assert.Less(t, got, 100*time.Second)
}
