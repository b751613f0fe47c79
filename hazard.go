package main

import "fmt"

// Sentry is a hostile board entity with a facing direction and vision range.
// It occupies and blocks its own vertex. Value is the intensity used to size
// its combat ship; it is kept separate from VisionRange even though
// generation currently assigns them from the same difficulty band.
type Sentry struct {
	ID          string
	VertexID    string
	Value       int
	Facing      int // 0-5
	VisionRange int // 1-6
}

// HazardSet is the procedural placement output for one board.
type HazardSet struct {
	Obstacles  map[string]int // vertex id -> value
	BlackHoles map[string]int
	PowerUps   map[string]int
	Sentries   []*Sentry
	// Blocking holds obstacle and sentry vertices. Black holes are not
	// blocking, just lethal.
	Blocking StringSet
	Zones    ZoneMap
}

// Sentry returns the sentry with the given entity id, nil if absent.
func (h *HazardSet) Sentry(id string) *Sentry {
	for _, s := range h.Sentries {
		if s.ID == id {
			return s
		}
	}
	return nil
}

// RemoveSentry deletes a sentry (killed or fled) together with its blocking
// vertex and all of its zone entries.
func (h *HazardSet) RemoveSentry(id string) {
	for i, s := range h.Sentries {
		if s.ID != id {
			continue
		}
		delete(h.Blocking, s.VertexID)
		h.Sentries = append(h.Sentries[:i], h.Sentries[i+1:]...)
		break
	}
	for v, entries := range h.Zones {
		kept := entries[:0]
		for _, e := range entries {
			if e.EntityID != id {
				kept = append(kept, e)
			}
		}
		if len(kept) == 0 {
			delete(h.Zones, v)
		} else {
			h.Zones[v] = kept
		}
	}
}

// ClearBlocking strips obstacles, sentries and zones. Generation fallback
// after the retry ceiling: the board must stay playable, so non-convergence
// is resolved by policy, not by error. Black holes and power-ups stay; they
// never participate in the reachability check.
func (h *HazardSet) ClearBlocking() {
	h.Obstacles = make(map[string]int)
	h.Sentries = nil
	h.Blocking = make(StringSet)
	h.Zones = make(ZoneMap)
}

// GenerateHazards places obstacles, black holes, sentries and power-ups onto
// the eligible vertices. The shuffled order of the supplied vertex list is
// the sole source of placement randomness, so the result is bit-for-bit
// reproducible for a given RNG state.
func GenerateHazards(order []string, start, target string, difficulty int,
	rng *Rand, rays RayTable, adj Adjacency) *HazardSet {

	if difficulty < 1 {
		difficulty = 1
	} else if difficulty > 10 {
		difficulty = 10
	}

	h := &HazardSet{
		Obstacles:  make(map[string]int),
		BlackHoles: make(map[string]int),
		PowerUps:   make(map[string]int),
		Blocking:   make(StringSet),
		Zones:      make(ZoneMap),
	}

	eligible := make([]string, 0, len(order))
	for _, id := range order {
		if id != start && id != target {
			eligible = append(eligible, id)
		}
	}

	// Fisher-Yates on the supplied RNG.
	for i := len(eligible) - 1; i > 0; i-- {
		j := rng.Intn(i + 1)
		eligible[i], eligible[j] = eligible[j], eligible[i]
	}

	d := float64(difficulty)
	total := int(float64(len(eligible)) * (0.05 + (d-1)*(0.15/9)))
	powerCount := int(float64(len(eligible)) * (0.15 - (d-1)*(0.12/9)))

	// Split the obstacle class. No sentries at low difficulty; otherwise
	// floor/floor/remainder so the sub-counts sum exactly.
	var obstacleCount, holeCount, sentryCount int
	if difficulty <= 2 {
		obstacleCount = int(0.8 * float64(total))
		holeCount = total - obstacleCount
	} else {
		obstacleCount = int(0.6 * float64(total))
		holeCount = int(0.2 * float64(total))
		sentryCount = total - obstacleCount - holeCount
	}

	hazardLo, hazardHi := maxInt(1, difficulty-2), minInt(10, difficulty+2)
	powerLo, powerHi := maxInt(1, 11-difficulty-2), minInt(10, 11-difficulty+2)

	cursor := 0
	take := func() (string, bool) {
		if cursor >= len(eligible) {
			return "", false
		}
		v := eligible[cursor]
		cursor++
		return v, true
	}

	for i := 0; i < obstacleCount; i++ {
		v, ok := take()
		if !ok {
			break
		}
		h.Obstacles[v] = rng.Range(hazardLo, hazardHi)
		h.Blocking[v] = true
	}
	for i := 0; i < holeCount; i++ {
		v, ok := take()
		if !ok {
			break
		}
		h.BlackHoles[v] = rng.Range(hazardLo, hazardHi)
	}

	// Sentries spend a vision-range budget rather than a fixed count, so
	// their number varies but their total vision coverage is bounded.
	budget := sentryCount * 3
	for budget > 0 {
		v, ok := take()
		if !ok {
			break
		}
		facing := rng.Intn(6)
		visionRange := 1 + rng.Intn(minInt(6, budget))
		budget -= visionRange
		s := &Sentry{
			ID:          fmt.Sprintf("sentry-%d", len(h.Sentries)),
			VertexID:    v,
			Value:       visionRange,
			Facing:      facing,
			VisionRange: visionRange,
		}
		h.Sentries = append(h.Sentries, s)
		h.Blocking[v] = true
	}

	for i := 0; i < powerCount; i++ {
		v, ok := take()
		if !ok {
			break
		}
		h.PowerUps[v] = rng.Range(powerLo, powerHi)
	}

	// Two-phase: zones are computed only after every sentry is placed, so
	// one sentry's vision stops at another's occupied vertex.
	for _, s := range h.Sentries {
		h.addVisionZone(s, rays)
	}
	for _, s := range h.Sentries {
		h.addProximityZone(s, adj, start, target)
	}

	return h
}

// addVisionZone walks the sentry's facing ray up to its vision range,
// stopping before the first blocking vertex. Vision never passes through an
// obstacle, including other sentries.
func (h *HazardSet) addVisionZone(s *Sentry, rays RayTable) {
	r, ok := rays[s.VertexID]
	if !ok {
		return
	}
	ray := r[s.Facing]
	for i := 0; i < s.VisionRange && i < len(ray); i++ {
		v := ray[i]
		if h.Blocking[v] {
			return
		}
		h.Zones[v] = append(h.Zones[v], ZoneEntry{EntityID: s.ID, Kind: ZoneVision})
	}
}

// addProximityZone runs a depth-2 BFS over adjacency from the sentry vertex,
// skipping blocking vertices, start/target, and any vertex this sentry
// already covers with vision. A (vertex, entity) pair never holds both kinds.
func (h *HazardSet) addProximityZone(s *Sentry, adj Adjacency, start, target string) {
	type node struct {
		id    string
		depth int
	}
	visited := StringSet{s.VertexID: true}
	queue := []node{{s.VertexID, 0}}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if cur.depth >= 2 {
			continue
		}
		for _, n := range adj[cur.id] {
			if visited[n] {
				continue
			}
			visited[n] = true
			if h.Blocking[n] || n == start || n == target {
				continue
			}
			if !h.coveredByVision(n, s.ID) {
				h.Zones[n] = append(h.Zones[n], ZoneEntry{EntityID: s.ID, Kind: ZoneProximity})
			}
			queue = append(queue, node{n, cur.depth + 1})
		}
	}
}

func (h *HazardSet) coveredByVision(vertex, entityID string) bool {
	for _, e := range h.Zones[vertex] {
		if e.EntityID == entityID && e.Kind == ZoneVision {
			return true
		}
	}
	return false
}

// Reachable runs a plain BFS over adjacency from start, avoiding blocking
// vertices. The target counts as reachable even when it is adjacent-only:
// no blocking test is applied to the target itself.
func Reachable(adj Adjacency, start, target string, blocking StringSet) bool {
	if start == target {
		return true
	}
	visited := StringSet{start: true}
	queue := []string{start}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, n := range adj[cur] {
			if n == target {
				return true
			}
			if visited[n] || blocking[n] {
				continue
			}
			visited[n] = true
			queue = append(queue, n)
		}
	}
	return false
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
