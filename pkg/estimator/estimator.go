// Package estimator implements the Cho & Garcia-Molina change-frequency
// estimator used to adapt a task's revisit cadence to observed change
// frequency.
package estimator

import (
	"math"
	"time"
)

// Estimate returns a new revisit wait given the current wait and the
// observed revisit/change counts. If changeCount is zero there is no
// evidence to adjust from, so wait is returned unchanged.
//
// The caller is responsible for only calling Estimate once
// revisitCount has reached the scheduler's REVISIT_THRESHOLD (so that
// revisitCount >= 1) and for clamping the result to the site's
// [min_revisit_wait, max_revisit_wait] bounds.
func Estimate(wait time.Duration, revisitCount, changeCount int) time.Duration {
	if changeCount == 0 {
		return wait
	}
	n := float64(revisitCount)
	k := float64(changeCount)
	newWaitSeconds := wait.Seconds() / -math.Log((n-k+0.5)/(n+0.5))
	return time.Duration(math.Round(newWaitSeconds)) * time.Second
}
