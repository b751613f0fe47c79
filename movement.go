package main

// ZoneKind tags a zone entry as vision cone or proximity radius.
type ZoneKind int

const (
	ZoneVision    ZoneKind = 0
	ZoneProximity ZoneKind = 1
)

// ZoneEntry marks a vertex as covered by one sentry.
type ZoneEntry struct {
	EntityID string
	Kind     ZoneKind
}

// ZoneMap maps vertex id to zone entries. A vertex may carry entries from
// several sentries.
type ZoneMap map[string][]ZoneEntry

// StringSet is a set of vertex ids.
type StringSet map[string]bool

// PathResult is the full outcome of walking a direction ray. It is computed
// eagerly so playback can be abandoned at any point without corrupting state.
type PathResult struct {
	Path          []string
	BlockedBy     string // obstacle vertex that stopped the walk, never included in Path
	HitBlackHole  bool
	ReachedTarget bool
	Engaged       bool
	EngagedEntity string
	EngagedZone   ZoneKind
}

// Stopped reports whether the walk ended before exhausting its steps.
func (r *PathResult) Stopped() bool {
	return r.BlockedBy != "" || r.HitBlackHole || r.ReachedTarget || r.Engaged
}

// AvailableDirections returns the direction indices whose ray is non-empty
// and whose first vertex is not blocked. Unknown vertex ids yield an empty
// list rather than a panic; this runs on every interaction.
func AvailableDirections(rays RayTable, vertex string, blocking StringSet) []int {
	r, ok := rays[vertex]
	if !ok {
		return nil
	}
	var dirs []int
	for d := 0; d < 6; d++ {
		if len(r[d]) > 0 && !blocking[r[d][0]] {
			dirs = append(dirs, d)
		}
	}
	return dirs
}

// IsTrapped reports whether no direction is available from the vertex.
func IsTrapped(rays RayTable, vertex string, blocking StringSet) bool {
	return len(AvailableDirections(rays, vertex, blocking)) == 0
}

// TracePath walks the chosen direction's ray up to steps vertices, applying
// a fixed per-vertex precedence: blocked (stop before), black hole (include,
// stop), zone engagement (include, stop), target (include, stop), continue.
// Entries belonging to excludeEntity are ignored, which implements the
// one-turn bypass after a declined engagement. Pure: identical inputs give
// identical results.
func TracePath(rays RayTable, from string, dir, steps int, blocking StringSet,
	target string, blackHoles StringSet, zones ZoneMap, excludeEntity string) PathResult {

	var res PathResult
	if dir < 0 || dir >= 6 || steps <= 0 {
		return res
	}
	r, ok := rays[from]
	if !ok {
		return res
	}
	ray := r[dir]
	if steps > len(ray) {
		steps = len(ray)
	}

	for i := 0; i < steps; i++ {
		v := ray[i]

		if blocking[v] {
			res.BlockedBy = v
			return res
		}
		if blackHoles[v] {
			res.Path = append(res.Path, v)
			res.HitBlackHole = true
			return res
		}
		if entries := activeZoneEntries(zones[v], excludeEntity); len(entries) > 0 {
			res.Path = append(res.Path, v)
			res.Engaged = true
			// A vision entry always outranks proximity entries.
			pick := entries[0]
			for _, e := range entries {
				if e.Kind == ZoneVision {
					pick = e
					break
				}
			}
			res.EngagedEntity = pick.EntityID
			res.EngagedZone = pick.Kind
			return res
		}
		if v == target {
			res.Path = append(res.Path, v)
			res.ReachedTarget = true
			return res
		}
		res.Path = append(res.Path, v)
	}
	return res
}

// activeZoneEntries filters out the excluded entity's entries. If the filter
// empties the list the vertex is passable.
func activeZoneEntries(entries []ZoneEntry, excludeEntity string) []ZoneEntry {
	if excludeEntity == "" || len(entries) == 0 {
		return entries
	}
	var out []ZoneEntry
	for _, e := range entries {
		if e.EntityID != excludeEntity {
			out = append(out, e)
		}
	}
	return out
}
