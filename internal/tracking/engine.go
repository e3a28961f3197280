package tracking

import (
	"fmt"
	"sort"
	"time"
)

// The engine is a set of pure functions over the job history of one
// product, optionally scoped to one machine. Callers pass histories in any
// order; every function re-sorts a copy by CreatedAt ascending (ties by ID)
// so position in the sequence is well defined.

// sorted returns a copy of jobs ordered by CreatedAt ascending, ties broken
// by ID ascending.
func sorted(jobs []Job) []Job {
	out := make([]Job, len(jobs))
	copy(out, jobs)
	sort.SliceStable(out, func(i, k int) bool {
		if out[i].CreatedAt.Equal(out[k].CreatedAt) {
			return out[i].ID < out[k].ID
		}
		return out[i].CreatedAt.Before(out[k].CreatedAt)
	})
	return out
}

// LatestState returns the state of the job with the maximum CreatedAt
// (ties broken by maximum ID), or StateUnknown for an empty history.
func LatestState(jobs []Job) State {
	if len(jobs) == 0 {
		return StateUnknown
	}
	s := sorted(jobs)
	return s[len(s)-1].State
}

// AvailableOnQuantity counts ON jobs for the given machine. One unit per ON
// row regardless of its Quantity field; this is the ceiling for an OFF
// request. The Quantity field only feeds the displayed net quantity.
func AvailableOnQuantity(jobs []Job, machineID int64) int {
	n := 0
	for _, j := range jobs {
		if j.State == StateOn && j.MachineID == machineID {
			n++
		}
	}
	return n
}

// OnJobs returns the ON jobs for the given machine, newest first.
func OnJobs(jobs []Job, machineID int64) []Job {
	s := sorted(jobs)
	out := make([]Job, 0)
	for i := len(s) - 1; i >= 0; i-- {
		if s[i].State == StateOn && s[i].MachineID == machineID {
			out = append(out, s[i])
		}
	}
	return out
}

// OnMachineNames returns the names of machines other than excludeMachineID
// that hold an ON job, deduplicated in first-seen order. A non-empty result
// means the single-machine-at-a-time invariant blocks an OFF request.
func OnMachineNames(jobs []Job, excludeMachineID int64) []string {
	seen := make(map[string]bool)
	names := make([]string, 0)
	for _, j := range jobs {
		if j.State != StateOn || j.MachineID == excludeMachineID {
			continue
		}
		if !seen[j.MachineName] {
			seen[j.MachineName] = true
			names = append(names, j.MachineName)
		}
	}
	return names
}

// ComputeDuration reconstructs the display duration for a product history.
//
// ON histories show the elapsed time since the most recent ON job. OFF
// histories come in two shapes: a single row flipped in place (UpdatedAt
// minus CreatedAt) or a multi-row history, where the interval runs from the
// nearest ON job strictly before the most recent OFF job up to that OFF
// job's off instant. Zero or negative raw intervals degrade to a sentinel
// instead of a negative figure; the function never fails on missing data.
func ComputeDuration(jobs []Job, now time.Time) Duration {
	s := sorted(jobs)

	if LatestState(s) == StateOn {
		for i := len(s) - 1; i >= 0; i-- {
			if s[i].State == StateOn {
				return Duration{Kind: DurationRunning, Elapsed: now.Sub(s[i].CreatedAt)}
			}
		}
		return Duration{Kind: DurationCompleted}
	}

	// Single row mutated in place from ON to OFF
	if len(s) == 1 && s[0].State == StateOff {
		d := s[0].offAt().Sub(s[0].CreatedAt)
		if d > 0 {
			return Duration{Kind: DurationFinal, Elapsed: d}
		}
		return Duration{Kind: DurationCompleted}
	}

	// Multi-row history: most recent OFF, then the nearest ON before it.
	// "Before" is by position in the time-ordered sequence, not by raw
	// timestamp, so equal-timestamp rows resolve deterministically.
	offIdx := -1
	for i := len(s) - 1; i >= 0; i-- {
		if s[i].State == StateOff {
			offIdx = i
			break
		}
	}
	if offIdx < 0 {
		return Duration{Kind: DurationCompleted}
	}
	for i := offIdx - 1; i >= 0; i-- {
		if s[i].State == StateOn {
			d := s[offIdx].offAt().Sub(s[i].CreatedAt)
			if d > 0 {
				return Duration{Kind: DurationFinal, Elapsed: d}
			}
			return Duration{Kind: DurationTotalZero}
		}
	}
	return Duration{Kind: DurationCompleted}
}

// NetQuantity sums Quantity over ON jobs minus Quantity over OFF jobs,
// floored at 1. A product being displayed always has at least one unit.
// Rows without an explicit quantity count as one.
func NetQuantity(jobs []Job) int {
	net := 0
	for _, j := range jobs {
		q := j.Quantity
		if q <= 0 {
			q = 1
		}
		switch j.State {
		case StateOn:
			net += q
		case StateOff:
			net -= q
		}
	}
	if net < 1 {
		net = 1
	}
	return net
}

// LatestJobPerProduct reduces a mixed job list to the newest job per
// product. Every listing projection goes through this one reduction so the
// live and past sets stay disjoint by construction.
func LatestJobPerProduct(jobs []Job) map[int64]Job {
	latest := make(map[int64]Job)
	for _, j := range jobs {
		cur, ok := latest[j.ProductID]
		if !ok || j.CreatedAt.After(cur.CreatedAt) ||
			(j.CreatedAt.Equal(cur.CreatedAt) && j.ID > cur.ID) {
			latest[j.ProductID] = j
		}
	}
	return latest
}

// FormatClock renders a duration as HH:MM:SS. Hours are not capped at 24.
func FormatClock(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int64(d / time.Second)
	return fmt.Sprintf("%02d:%02d:%02d", total/3600, (total%3600)/60, total%60)
}
