// Package assignment picks the owner of a newly started activity instance.
package assignment

import (
	"math/rand"

	"github.com/procline/procline/pkg/diag"
	"github.com/procline/procline/pkg/models"
)

// WorkloadSnapshot is a point-in-time view of who is busy with what. It is
// read-only input captured by the caller; the resolver never mutates it.
type WorkloadSnapshot struct {
	// ActiveByUser counts active instances currently assigned to each user.
	ActiveByUser map[string]int
	// AvgResolutionHours is the historical mean task-resolution time per
	// user. Users absent from the map have no history.
	AvgResolutionHours map[string]float64
	// DepartmentMembers and PositionMembers list eligible users per pool in
	// stable insertion order. Tie-breaks depend on that order.
	DepartmentMembers map[string][]string
	PositionMembers   map[string][]string
}

// Resolver resolves assignment configs to a concrete owner reference.
type Resolver struct {
	rand *rand.Rand
}

// NewResolver creates a resolver drawing randomness from src. A nil src
// falls back to the shared global source.
func NewResolver(src rand.Source) *Resolver {
	r := &Resolver{}
	if src != nil {
		r.rand = rand.New(src)
	}

	return r
}

// Resolve picks the owner for an activity entered by an instance created by
// creatorID. It never fails: when no user can be chosen the result is a pool
// reference and a no_eligible_assignee diagnostic.
func (r *Resolver) Resolve(cfg models.AssignmentConfig, creatorID string, snapshot WorkloadSnapshot, diags *diag.Collector) models.AssignmentRef {
	switch cfg.Type {
	case models.AssignmentTypeCreator, "":
		return models.AssignmentRef{UserID: creatorID}

	case models.AssignmentTypeSpecificUser:
		return models.AssignmentRef{UserID: cfg.UserID}

	case models.AssignmentTypeManual:
		return models.AssignmentRef{DepartmentID: cfg.DepartmentID, PositionID: cfg.PositionID}

	case models.AssignmentTypeDepartment:
		return r.resolvePool(cfg, snapshot.DepartmentMembers[cfg.DepartmentID], snapshot, diags)

	case models.AssignmentTypePosition:
		return r.resolvePool(cfg, snapshot.PositionMembers[cfg.PositionID], snapshot, diags)
	}

	// Unknown type behaves like manual so ownership context is never lost.
	return models.AssignmentRef{DepartmentID: cfg.DepartmentID, PositionID: cfg.PositionID}
}

func (r *Resolver) resolvePool(cfg models.AssignmentConfig, eligible []string, snapshot WorkloadSnapshot, diags *diag.Collector) models.AssignmentRef {
	pool := models.AssignmentRef{DepartmentID: cfg.DepartmentID, PositionID: cfg.PositionID}

	if cfg.Strategy == models.StrategyManual || cfg.Strategy == "" {
		return pool
	}

	if len(eligible) == 0 {
		if diags != nil {
			diags.Add(diag.CodeNoEligibleAssignee, "",
				"no eligible users for department=%q position=%q, falling back to pool",
				cfg.DepartmentID, cfg.PositionID)
		}

		return pool
	}

	var userID string

	switch cfg.Strategy {
	case models.StrategyWorkload:
		userID = pickLeastLoaded(eligible, snapshot.ActiveByUser)
	case models.StrategyEfficiency:
		userID = pickMostEfficient(eligible, snapshot.AvgResolutionHours)
	case models.StrategyRandom:
		userID = eligible[r.intn(len(eligible))]
	default:
		return pool
	}

	pool.UserID = userID

	return pool
}

// pickLeastLoaded returns the eligible user with the fewest active instances.
// Ties go to the first user encountered in the eligible slice.
func pickLeastLoaded(eligible []string, active map[string]int) string {
	best := eligible[0]
	bestCount := active[best]

	for _, userID := range eligible[1:] {
		if active[userID] < bestCount {
			best = userID
			bestCount = active[userID]
		}
	}

	return best
}

// pickMostEfficient returns the eligible user with the lowest average
// resolution time. Users with no history count as the best possible time so
// new hires bootstrap into rotation; among several of those the first in
// eligible order wins.
func pickMostEfficient(eligible []string, avgHours map[string]float64) string {
	best := eligible[0]
	bestAvg, bestKnown := avgHours[best]

	if !bestKnown {
		return best
	}

	for _, userID := range eligible[1:] {
		avg, known := avgHours[userID]
		if !known {
			return userID
		}

		if avg < bestAvg {
			best = userID
			bestAvg = avg
		}
	}

	return best
}

func (r *Resolver) intn(n int) int {
	if r.rand != nil {
		return r.rand.Intn(n)
	}

	return rand.Intn(n)
}
