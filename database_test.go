package main

import (
	"path/filepath"
	"testing"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := OpenDB(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestXPForLevel(t *testing.T) {
	if XPForLevel(1) != 0 {
		t.Errorf("level 1 needs 0 XP, got %d", XPForLevel(1))
	}
	if XPForLevel(2) != 100 {
		t.Errorf("level 2 needs 100 XP, got %d", XPForLevel(2))
	}
	prev := 0
	for lvl := 2; lvl <= 20; lvl++ {
		xp := XPForLevel(lvl)
		if xp <= prev {
			t.Fatalf("XP curve must be strictly increasing, level %d: %d <= %d", lvl, xp, prev)
		}
		prev = xp
	}
}

func TestCalculateLevel(t *testing.T) {
	if CalculateLevel(0) != 1 {
		t.Errorf("0 XP = level %d, want 1", CalculateLevel(0))
	}
	if CalculateLevel(99) != 1 {
		t.Errorf("99 XP = level %d, want 1", CalculateLevel(99))
	}
	if CalculateLevel(100) != 2 {
		t.Errorf("100 XP = level %d, want 2", CalculateLevel(100))
	}
	// Round trip: the XP floor of each level maps back to it.
	for lvl := 1; lvl <= 15; lvl++ {
		if got := CalculateLevel(XPForLevel(lvl)); got != lvl {
			t.Errorf("CalculateLevel(XPForLevel(%d)) = %d", lvl, got)
		}
	}
}

func TestCreatePlayerAndStats(t *testing.T) {
	db := openTestDB(t)

	id, err := db.CreatePlayer("cmdr", "", "hash")
	if err != nil {
		t.Fatal(err)
	}
	stats, err := db.GetStats(id)
	if err != nil {
		t.Fatal(err)
	}
	if stats.Level != 1 || stats.XP != 0 || stats.Credits != 0 {
		t.Errorf("fresh stats = %+v", stats)
	}

	exists, err := db.UsernameExists("cmdr")
	if err != nil || !exists {
		t.Error("created username should exist")
	}
	exists, _ = db.UsernameExists("nobody")
	if exists {
		t.Error("unknown username should not exist")
	}

	p, err := db.GetPlayerByID(id)
	if err != nil {
		t.Fatal(err)
	}
	if p == nil || p.Username != "cmdr" {
		t.Errorf("GetPlayerByID(%d) = %+v", id, p)
	}
	p, err = db.GetPlayerByID(id + 999)
	if err != nil || p != nil {
		t.Errorf("missing player should be (nil, nil), got %+v, %v", p, err)
	}
}

func TestUpdateStatsAfterBoard(t *testing.T) {
	db := openTestDB(t)
	id, _ := db.CreatePlayer("cmdr", "", "hash")

	totalXP, level, err := db.UpdateStatsAfterBoard(id, 3, 1, true, 120.5, 40, 150)
	if err != nil {
		t.Fatal(err)
	}
	if totalXP != 150 {
		t.Errorf("total XP = %d, want 150", totalXP)
	}
	if level != 2 {
		t.Errorf("level = %d, want 2 after 150 XP", level)
	}

	stats, _ := db.GetStats(id)
	if stats.BoardsWon != 1 || stats.BoardsLost != 0 {
		t.Errorf("win/loss = %d/%d", stats.BoardsWon, stats.BoardsLost)
	}
	if stats.SentriesKilled != 3 || stats.SentriesFled != 1 {
		t.Errorf("kills/fled = %d/%d", stats.SentriesKilled, stats.SentriesFled)
	}
	if stats.Credits != 40 {
		t.Errorf("credits = %d", stats.Credits)
	}

	_, _, err = db.UpdateStatsAfterBoard(id, 0, 0, false, 30, 10, 20)
	if err != nil {
		t.Fatal(err)
	}
	stats, _ = db.GetStats(id)
	if stats.BoardsLost != 1 {
		t.Errorf("losses = %d, want 1", stats.BoardsLost)
	}
}

func TestSpendCredits(t *testing.T) {
	db := openTestDB(t)
	id, _ := db.CreatePlayer("cmdr", "", "hash")

	if err := db.AddCredits(id, 100); err != nil {
		t.Fatal(err)
	}
	ok, err := db.SpendCredits(id, 60)
	if err != nil || !ok {
		t.Fatalf("spend within balance failed: ok=%t err=%v", ok, err)
	}
	ok, err = db.SpendCredits(id, 60)
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Error("overspend must be refused")
	}
	stats, _ := db.GetStats(id)
	if stats.Credits != 40 {
		t.Errorf("credits = %d, want 40", stats.Credits)
	}
}

func TestCampaignPersistence(t *testing.T) {
	db := openTestDB(t)
	id, _ := db.CreatePlayer("cmdr", "", "hash")

	if blob, _ := db.GetCampaign(id); blob != nil {
		t.Error("no campaign saved yet")
	}

	c := NewCampaign(7)
	c.MarkWon(0, 0)
	blob, _ := c.Marshal()
	if err := db.SaveCampaign(id, c.Seed, blob); err != nil {
		t.Fatal(err)
	}

	loadedBlob, err := db.GetCampaign(id)
	if err != nil {
		t.Fatal(err)
	}
	loaded, err := LoadCampaign(loadedBlob)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Board(0, 0).Status != BoardWon {
		t.Error("campaign state lost through persistence")
	}

	// Upsert: a later save replaces the blob.
	c.MarkWon(0, 1)
	blob, _ = c.Marshal()
	if err := db.SaveCampaign(id, c.Seed, blob); err != nil {
		t.Fatal(err)
	}
	loadedBlob, _ = db.GetCampaign(id)
	loaded, _ = LoadCampaign(loadedBlob)
	if loaded.Board(0, 1).Status != BoardWon {
		t.Error("campaign upsert did not replace the blob")
	}
}

func TestBoardResultHistory(t *testing.T) {
	db := openTestDB(t)
	id, _ := db.CreatePlayer("cmdr", "", "hash")

	for i := 0; i < 3; i++ {
		if err := db.RecordBoardResult(id, i+1, i%2 == 0, 10*i, i, 0, 5, 20); err != nil {
			t.Fatal(err)
		}
	}
	history, err := db.GetBoardHistory(id, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(history) != 2 {
		t.Fatalf("history length = %d, want 2", len(history))
	}
}

func TestAchievementUnlockOnce(t *testing.T) {
	db := openTestDB(t)
	id, _ := db.CreatePlayer("cmdr", "", "hash")

	fresh, err := db.UnlockAchievement(id, "first_raid")
	if err != nil {
		t.Fatal(err)
	}
	if !fresh {
		t.Error("first unlock should report fresh")
	}
	fresh, err = db.UnlockAchievement(id, "first_raid")
	if err != nil {
		t.Fatal(err)
	}
	if fresh {
		t.Error("repeat unlock should not report fresh")
	}

	unlocked, err := db.GetAchievements(id)
	if err != nil {
		t.Fatal(err)
	}
	if len(unlocked) != 1 || unlocked[0] != "first_raid" {
		t.Errorf("unlocked = %v", unlocked)
	}
}

func TestCheckAchievementsAfterFirstWin(t *testing.T) {
	db := openTestDB(t)
	id, _ := db.CreatePlayer("cmdr", "", "hash")
	if _, _, err := db.UpdateStatsAfterBoard(id, 1, 0, true, 60, 10, 50); err != nil {
		t.Fatal(err)
	}

	defs := CheckAchievements(db, id, 1, true, false)
	got := make(map[string]bool, len(defs))
	for _, d := range defs {
		got[d.ID] = true
	}
	if !got["first_raid"] {
		t.Error("first win should unlock first_raid")
	}
	if !got["hunter"] {
		t.Error("first kill should unlock hunter")
	}

	// Second pass unlocks nothing new.
	if again := CheckAchievements(db, id, 0, true, false); len(again) != 0 {
		t.Errorf("repeat check unlocked %v", again)
	}
}

func TestSettings(t *testing.T) {
	db := openTestDB(t)
	if db.GetSetting("jwt_secret_missing") != "" {
		t.Error("missing setting should read empty")
	}
	if err := db.SetSetting("motd", "welcome"); err != nil {
		t.Fatal(err)
	}
	if got := db.GetSetting("motd"); got != "welcome" {
		t.Errorf("setting = %q", got)
	}
	if err := db.SetSetting("motd", "updated"); err != nil {
		t.Fatal(err)
	}
	if got := db.GetSetting("motd"); got != "updated" {
		t.Errorf("setting after update = %q", got)
	}
}
