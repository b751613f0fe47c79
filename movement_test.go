package main

import "testing"

// lineRays builds a one-direction ray table over a synthetic line of vertices
// so precedence rules can be tested without grid geometry.
func lineRays(ids ...string) RayTable {
	rays := make(RayTable)
	for i, id := range ids {
		r := &[6][]string{}
		r[0] = append([]string{}, ids[i+1:]...)
		rays[id] = r
	}
	return rays
}

func TestTracePathWalksSteps(t *testing.T) {
	rays := lineRays("a", "b", "c", "d", "e")
	res := TracePath(rays, "a", 0, 3, nil, "", nil, nil, "")
	if len(res.Path) != 3 {
		t.Fatalf("expected 3 steps, got %d", len(res.Path))
	}
	if res.Path[2] != "d" {
		t.Errorf("expected landing on d, got %s", res.Path[2])
	}
	if res.Stopped() {
		t.Error("plain walk should not report a stop")
	}
}

func TestTracePathClampsToRayLength(t *testing.T) {
	rays := lineRays("a", "b", "c")
	res := TracePath(rays, "a", 0, 10, nil, "", nil, nil, "")
	if len(res.Path) != 2 {
		t.Errorf("expected path clamped to ray length 2, got %d", len(res.Path))
	}
}

func TestTracePathBlockedStopsBefore(t *testing.T) {
	rays := lineRays("a", "b", "c", "d")
	blocking := StringSet{"c": true}
	res := TracePath(rays, "a", 0, 3, blocking, "", nil, nil, "")
	if res.BlockedBy != "c" {
		t.Errorf("expected blocked by c, got %q", res.BlockedBy)
	}
	if len(res.Path) != 1 || res.Path[0] != "b" {
		t.Errorf("blocked vertex must not be entered, path %v", res.Path)
	}
}

func TestTracePathBlackHoleIncludesAndStops(t *testing.T) {
	rays := lineRays("a", "b", "c", "d")
	holes := StringSet{"c": true}
	res := TracePath(rays, "a", 0, 3, nil, "", holes, nil, "")
	if !res.HitBlackHole {
		t.Fatal("expected black hole hit")
	}
	if len(res.Path) != 2 || res.Path[1] != "c" {
		t.Errorf("black hole vertex should end the path, got %v", res.Path)
	}
}

func TestTracePathTargetStops(t *testing.T) {
	rays := lineRays("a", "b", "c", "d")
	res := TracePath(rays, "a", 0, 3, nil, "c", nil, nil, "")
	if !res.ReachedTarget {
		t.Fatal("expected target reached")
	}
	if len(res.Path) != 2 || res.Path[1] != "c" {
		t.Errorf("target should be last path vertex, got %v", res.Path)
	}
}

func TestTracePathZoneEngagement(t *testing.T) {
	rays := lineRays("a", "b", "c", "d")
	zones := ZoneMap{"b": {{EntityID: "sentry-0", Kind: ZoneProximity}}}
	res := TracePath(rays, "a", 0, 3, nil, "", nil, zones, "")
	if !res.Engaged {
		t.Fatal("expected engagement")
	}
	if res.EngagedEntity != "sentry-0" || res.EngagedZone != ZoneProximity {
		t.Errorf("wrong engagement: %s / %d", res.EngagedEntity, res.EngagedZone)
	}
	if len(res.Path) != 1 || res.Path[0] != "b" {
		t.Errorf("zone vertex should be included, got %v", res.Path)
	}
}

func TestTracePathVisionOutranksProximity(t *testing.T) {
	rays := lineRays("a", "b", "c")
	zones := ZoneMap{"b": {
		{EntityID: "sentry-0", Kind: ZoneProximity},
		{EntityID: "sentry-1", Kind: ZoneVision},
	}}
	res := TracePath(rays, "a", 0, 2, nil, "", nil, zones, "")
	if !res.Engaged || res.EngagedEntity != "sentry-1" || res.EngagedZone != ZoneVision {
		t.Errorf("vision entry should win, got %s / %d", res.EngagedEntity, res.EngagedZone)
	}
}

func TestTracePathExcludeEntity(t *testing.T) {
	rays := lineRays("a", "b", "c", "d")
	zones := ZoneMap{"b": {{EntityID: "sentry-0", Kind: ZoneVision}}}

	res := TracePath(rays, "a", 0, 3, nil, "", nil, zones, "sentry-0")
	if res.Engaged {
		t.Error("excluded entity's zone should be passable")
	}
	if len(res.Path) != 3 {
		t.Errorf("expected full walk through excluded zone, got %v", res.Path)
	}

	// A second sentry on the same vertex still engages.
	zones["b"] = append(zones["b"], ZoneEntry{EntityID: "sentry-1", Kind: ZoneProximity})
	res = TracePath(rays, "a", 0, 3, nil, "", nil, zones, "sentry-0")
	if !res.Engaged || res.EngagedEntity != "sentry-1" {
		t.Errorf("non-excluded entry should engage, got %+v", res)
	}
}

func TestTracePathPrecedenceBlockedOverZone(t *testing.T) {
	rays := lineRays("a", "b", "c")
	blocking := StringSet{"b": true}
	zones := ZoneMap{"b": {{EntityID: "sentry-0", Kind: ZoneVision}}}
	res := TracePath(rays, "a", 0, 2, blocking, "", nil, zones, "")
	if res.BlockedBy != "b" || res.Engaged {
		t.Errorf("blocking must outrank zones, got %+v", res)
	}
}

func TestTracePathInvalidInputs(t *testing.T) {
	rays := lineRays("a", "b")
	for _, res := range []PathResult{
		TracePath(rays, "a", -1, 3, nil, "", nil, nil, ""),
		TracePath(rays, "a", 6, 3, nil, "", nil, nil, ""),
		TracePath(rays, "a", 0, 0, nil, "", nil, nil, ""),
		TracePath(rays, "missing", 0, 3, nil, "", nil, nil, ""),
	} {
		if len(res.Path) != 0 || res.Stopped() {
			t.Errorf("invalid input should give empty result, got %+v", res)
		}
	}
}

func TestAvailableDirectionsExcludesBlockedFirstStep(t *testing.T) {
	g := BuildGrid(3, 3, 40)
	center := g.Centers()[4]

	if len(AvailableDirections(g.Rays, center, nil)) != 6 {
		t.Error("interior center should have all 6 directions open")
	}

	blocking := StringSet{g.Next[center][2]: true}
	dirs := AvailableDirections(g.Rays, center, blocking)
	if len(dirs) != 5 {
		t.Fatalf("expected 5 directions, got %d", len(dirs))
	}
	for _, d := range dirs {
		if d == 2 {
			t.Error("direction 2 should be excluded")
		}
	}
}

func TestIsTrapped(t *testing.T) {
	g := BuildGrid(2, 2, 40)
	center := g.Centers()[0]

	if IsTrapped(g.Rays, center, nil) {
		t.Error("open center should not be trapped")
	}

	blocking := make(StringSet)
	for d := 0; d < 6; d++ {
		if n := g.Next[center][d]; n != "" {
			blocking[n] = true
		}
	}
	if !IsTrapped(g.Rays, center, blocking) {
		t.Error("fully surrounded center should be trapped")
	}
}

func TestClosedDirectionsYieldEmptyPaths(t *testing.T) {
	g := BuildGrid(4, 4, 40)
	v := g.Centers()[0]
	blocking := make(StringSet)
	for dir := 0; dir < 6; dir += 2 {
		if ray := g.Rays[v][dir]; len(ray) > 0 {
			blocking[ray[0]] = true
		}
	}

	open := make(map[int]bool)
	for _, d := range AvailableDirections(g.Rays, v, blocking) {
		open[d] = true
	}
	for dir := 0; dir < 6; dir++ {
		if open[dir] {
			continue
		}
		res := TracePath(g.Rays, v, dir, 5, blocking, "", nil, nil, "")
		if len(res.Path) != 0 {
			t.Errorf("closed direction %d produced a %d-step path", dir, len(res.Path))
		}
	}
}
