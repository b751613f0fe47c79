package main

// boardRetryLimit caps hazard generation attempts before the playability
// fallback kicks in.
const boardRetryLimit = 20

// Board is one playable level: the lattice, its hazard placement, and the
// start/target pair. It also owns the registry of per-sentry combat ships so
// hit-point damage persists across repeated engagements with the same sentry.
type Board struct {
	Grid       *Grid
	Hazards    *HazardSet
	Start      string
	Target     string
	Difficulty int

	blackHoles  StringSet
	sentryShips map[string]*Ship
}

// NewBoard builds the grid, then re-runs hazard generation with a fresh
// shuffle until a BFS confirms the target is reachable, up to the retry
// ceiling. Past the ceiling the blocking hazards are stripped so the board
// is always playable.
func NewBoard(cols, rows int, size float64, difficulty int, rng *Rand) *Board {
	grid := BuildGrid(cols, rows, size)
	centers := grid.Centers()
	start := centers[0]
	target := centers[len(centers)-1]

	var hazards *HazardSet
	connected := false
	for attempt := 0; attempt < boardRetryLimit; attempt++ {
		hazards = GenerateHazards(grid.Order, start, target, difficulty, rng, grid.Rays, grid.Adj)
		if Reachable(grid.Adj, start, target, hazards.Blocking) {
			connected = true
			break
		}
	}
	if !connected {
		hazards.ClearBlocking()
	}

	blackHoles := make(StringSet, len(hazards.BlackHoles))
	for v := range hazards.BlackHoles {
		blackHoles[v] = true
	}

	return &Board{
		Grid:        grid,
		Hazards:     hazards,
		Start:       start,
		Target:      target,
		Difficulty:  difficulty,
		blackHoles:  blackHoles,
		sentryShips: make(map[string]*Ship),
	}
}

// SentryShip returns the persistent combat ship for a sentry, building it
// from the sentry's intensity on first engagement.
func (b *Board) SentryShip(s *Sentry) *Ship {
	if ship, ok := b.sentryShips[s.ID]; ok {
		return ship
	}
	ship := buildSentryShip(s)
	b.sentryShips[s.ID] = ship
	return ship
}

// buildSentryShip sizes a weapon/engine/bridge loadout from the sentry's
// intensity value. High-value sentries carry tier-2 weapons.
func buildSentryShip(s *Sentry) *Ship {
	tier := 1
	if s.Value >= 4 {
		tier = 2
	}
	hp := 1 + s.Value/4

	ship := NewShip(s.ID, 6)
	ship.AddComponent(NewComponent("Weapons", CompWeapon, tier, hp))
	ship.AddComponent(NewComponent("Engines", CompEngine, 1, hp))
	ship.AddComponent(NewComponent("Bridge", CompBridge, 1, 1))
	return ship
}

// AvailableDirections lists the open direction indices from a vertex.
func (b *Board) AvailableDirections(vertex string) []int {
	return AvailableDirections(b.Grid.Rays, vertex, b.Hazards.Blocking)
}

// Trace walks a direction from the vertex with this board's hazard sets.
func (b *Board) Trace(from string, dir, steps int, excludeEntity string) PathResult {
	return TracePath(b.Grid.Rays, from, dir, steps, b.Hazards.Blocking,
		b.Target, b.blackHoles, b.Hazards.Zones, excludeEntity)
}

// Trapped reports whether no direction is open from the vertex.
func (b *Board) Trapped(vertex string) bool {
	return IsTrapped(b.Grid.Rays, vertex, b.Hazards.Blocking)
}
