package main

import "testing"

func TestNewBoardAlwaysReachable(t *testing.T) {
	for difficulty := 1; difficulty <= 9; difficulty++ {
		for seed := uint32(1); seed <= 4; seed++ {
			b := NewBoard(6, 5, 40, difficulty, NewRand(seed*31+uint32(difficulty)))
			if !Reachable(b.Grid.Adj, b.Start, b.Target, b.Hazards.Blocking) {
				t.Errorf("difficulty %d seed %d: target unreachable", difficulty, seed)
			}
			if b.Trapped(b.Start) {
				t.Errorf("difficulty %d seed %d: start vertex is trapped", difficulty, seed)
			}
		}
	}
}

func TestNewBoardStartTargetPlacement(t *testing.T) {
	b := NewBoard(6, 5, 40, 3, NewRand(11))
	centers := b.Grid.Centers()
	if b.Start != centers[0] {
		t.Errorf("start = %s, want first center %s", b.Start, centers[0])
	}
	if b.Target != centers[len(centers)-1] {
		t.Errorf("target = %s, want last center %s", b.Target, centers[len(centers)-1])
	}
	if b.Difficulty != 3 {
		t.Errorf("difficulty = %d", b.Difficulty)
	}
}

func TestNewBoardFallbackOnCrampedGrid(t *testing.T) {
	// A tiny grid at max difficulty forces the retry ceiling; the board must
	// still come out connected.
	b := NewBoard(2, 2, 40, 9, NewRand(5))
	if !Reachable(b.Grid.Adj, b.Start, b.Target, b.Hazards.Blocking) {
		t.Error("fallback board is not connected")
	}
}

func TestSentryShipPersistsAcrossEngagements(t *testing.T) {
	b := NewBoard(6, 5, 40, 3, NewRand(11))
	s := &Sentry{ID: "sentry-1", Value: 5, Facing: 2, VisionRange: 3}

	ship := b.SentryShip(s)
	ship.Component("Weapons").Hit(1)
	damaged := ship.Component("Weapons").HP

	again := b.SentryShip(s)
	if again != ship {
		t.Fatal("re-engaging the same sentry must return the same ship")
	}
	if again.Component("Weapons").HP != damaged {
		t.Error("damage did not persist across engagements")
	}
}

func TestBuildSentryShipTiers(t *testing.T) {
	weak := buildSentryShip(&Sentry{ID: "w", Value: 2})
	if weak.ActiveWeapon().PowerCost != 1 {
		t.Error("low-value sentry should carry a tier-1 weapon")
	}
	if weak.Component("Weapons").MaxHP != 1 {
		t.Errorf("value 2 sentry hull = %d, want 1", weak.Component("Weapons").MaxHP)
	}

	strong := buildSentryShip(&Sentry{ID: "s", Value: 8})
	if strong.ActiveWeapon().PowerCost != 2 {
		t.Error("high-value sentry should carry a tier-2 weapon")
	}
	if strong.Component("Engines").MaxHP != 3 {
		t.Errorf("value 8 sentry hull = %d, want 3", strong.Component("Engines").MaxHP)
	}
	if strong.Component("Bridge").MaxHP != 1 {
		t.Error("sentry bridge is always a single point")
	}
}
