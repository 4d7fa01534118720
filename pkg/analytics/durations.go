// Package analytics aggregates durations and workload from instance history.
// History entries are the only input; the aggregation is shared between the
// assignment resolver (via workload snapshots) and reporting.
package analytics

import (
	"sort"
	"time"

	"github.com/procline/procline/pkg/assignment"
	"github.com/procline/procline/pkg/models"
)

// maxCreditedGap caps the gap attributed to a single activity stay. Longer
// gaps are data-quality outliers (clock skew, bulk imports) and are skipped.
const maxCreditedGap = 365 * 24 * time.Hour

// ActivityDurations sums, per activity, the time instances spent sitting at
// it. The gap between two consecutive entries of one process is attributed
// to the earlier entry's activity; negative and over-long gaps are excluded
// from the result rather than treated as errors.
func ActivityDurations(entries []models.HistoryEntry) map[string]time.Duration {
	totals := make(map[string]time.Duration)

	forEachGap(entries, func(earlier models.HistoryEntry, gap time.Duration) {
		totals[earlier.ActivityID] += gap
	})

	return totals
}

// UserAverageHours computes the mean resolution time in hours per user: for
// every credited gap, the time is attributed to the user who completed the
// earlier entry. Users with no credited gaps are absent from the map.
func UserAverageHours(entries []models.HistoryEntry) map[string]float64 {
	sums := make(map[string]time.Duration)
	counts := make(map[string]int)

	forEachGap(entries, func(earlier models.HistoryEntry, gap time.Duration) {
		if earlier.UserID == "" {
			return
		}

		sums[earlier.UserID] += gap
		counts[earlier.UserID]++
	})

	averages := make(map[string]float64, len(sums))

	for userID, total := range sums {
		averages[userID] = total.Hours() / float64(counts[userID])
	}

	return averages
}

// forEachGap walks entries grouped by process, ordered by timestamp
// ascending, and yields every credited gap between consecutive entries.
func forEachGap(entries []models.HistoryEntry, fn func(earlier models.HistoryEntry, gap time.Duration)) {
	byProcess := make(map[string][]models.HistoryEntry)

	for _, e := range entries {
		byProcess[e.ProcessID] = append(byProcess[e.ProcessID], e)
	}

	for _, list := range byProcess {
		sort.SliceStable(list, func(i, j int) bool {
			return list[i].Timestamp.Before(list[j].Timestamp)
		})

		for i := 1; i < len(list); i++ {
			gap := list[i].Timestamp.Sub(list[i-1].Timestamp)
			if gap < 0 || gap > maxCreditedGap {
				continue
			}

			fn(list[i-1], gap)
		}
	}
}

// BuildSnapshot assembles the read-only workload snapshot the assignment
// resolver consumes: active-instance counts from the live instances, average
// resolution hours from history, membership from the org directory maps.
func BuildSnapshot(
	instances []*models.ProcessInstance,
	entries []models.HistoryEntry,
	departmentMembers map[string][]string,
	positionMembers map[string][]string,
) assignment.WorkloadSnapshot {
	active := make(map[string]int)

	for _, inst := range instances {
		if inst.Status != models.InstanceStatusActive {
			continue
		}

		if inst.Assignment.UserID != "" {
			active[inst.Assignment.UserID]++
		}
	}

	return assignment.WorkloadSnapshot{
		ActiveByUser:       active,
		AvgResolutionHours: UserAverageHours(entries),
		DepartmentMembers:  departmentMembers,
		PositionMembers:    positionMembers,
	}
}
