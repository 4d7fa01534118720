// Package layout assigns deterministic canvas positions to process graphs.
package layout

import "github.com/procline/procline/pkg/models"

// Config holds the grid geometry. Values are canvas units.
type Config struct {
	BaseX float64
	BaseY float64
	GapX  float64
	GapY  float64
}

// DefaultConfig matches the designer's default grid.
func DefaultConfig() Config {
	return Config{BaseX: 80, BaseY: 80, GapX: 320, GapY: 160}
}

// Apply computes and writes a position for every activity in the workflow.
//
// Ranks are assigned breadth-first: all start activities seed the queue at
// rank 0 (if the graph has none, the first activity stands in); a node keeps
// its first-seen rank; anything unreached lands at rank 0. Within a rank,
// activities are centered around the base line in visit order. Given the same
// graph and insertion order the result is identical run to run.
func Apply(w *models.Workflow, cfg Config) {
	if len(w.Activities) == 0 {
		return
	}

	ranks := assignRanks(w)

	// Group by rank preserving activity insertion order.
	byRank := make(map[int][]*models.Activity)
	maxRank := 0

	for _, a := range w.Activities {
		r := ranks[a.ID]
		byRank[r] = append(byRank[r], a)

		if r > maxRank {
			maxRank = r
		}
	}

	for r := 0; r <= maxRank; r++ {
		row := byRank[r]

		for i, a := range row {
			offset := float64(i) - float64(len(row)-1)/2
			a.PositionX = cfg.BaseX + float64(r)*cfg.GapX
			a.PositionY = cfg.BaseY + offset*cfg.GapY
		}
	}
}

type queueItem struct {
	id   string
	rank int
}

func assignRanks(w *models.Workflow) map[string]int {
	ranks := make(map[string]int, len(w.Activities))
	visited := make(map[string]bool, len(w.Activities))

	queue := make([]queueItem, 0, len(w.Activities))

	for _, a := range w.StartActivities() {
		queue = append(queue, queueItem{id: a.ID, rank: 0})
	}

	// A half-built graph without a start still gets a readable layout.
	if len(queue) == 0 {
		queue = append(queue, queueItem{id: w.Activities[0].ID, rank: 0})
	}

	for len(queue) > 0 {
		item := queue[0]
		queue = queue[1:]

		if visited[item.id] {
			continue
		}

		visited[item.id] = true
		ranks[item.id] = item.rank

		for _, t := range w.TransitionsFrom(item.id) {
			if !visited[t.TargetID] {
				queue = append(queue, queueItem{id: t.TargetID, rank: item.rank + 1})
			}
		}
	}

	// Disconnected subgraphs fall back to rank 0.
	for _, a := range w.Activities {
		if !visited[a.ID] {
			ranks[a.ID] = 0
		}
	}

	return ranks
}
