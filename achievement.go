package main

// Achievement definitions
type AchievementDef struct {
	ID          string
	Name        string
	Description string
}

var Achievements = []AchievementDef{
	{"first_raid", "First Raid", "Win your first board"},
	{"pathfinder", "Pathfinder", "Win 10 boards"},
	{"warlord", "Warlord", "Win 100 boards"},
	{"conqueror", "Conqueror", "Clear a full campaign"},
	{"hunter", "Hunter", "Destroy your first sentry"},
	{"exterminator", "Exterminator", "Destroy 50 sentries"},
	{"terror", "Terror of the Lanes", "Drive 25 sentries to flee"},
	{"rampage", "Rampage", "Destroy 3 sentries on a single board"},
	{"veteran", "Veteran", "Reach level 10"},
	{"elite", "Elite", "Reach level 25"},
	{"legend", "Legend", "Reach level 50"},
	{"survivor", "Survivor", "Play for 1 hour total"},
}

// CheckAchievements checks if any new achievements should be unlocked for a
// player. Returns a list of newly unlocked achievement definitions.
func CheckAchievements(db *DB, playerID int64, boardKills int, won, cleared bool) []AchievementDef {
	if db == nil {
		return nil
	}

	stats, err := db.GetStats(playerID)
	if err != nil || stats == nil {
		return nil
	}

	existing, err := db.GetAchievements(playerID)
	if err != nil {
		return nil
	}
	has := make(map[string]bool, len(existing))
	for _, a := range existing {
		has[a] = true
	}

	var unlocked []AchievementDef

	check := func(id string) bool {
		if has[id] {
			return false
		}
		switch id {
		case "first_raid":
			return stats.BoardsWon >= 1
		case "pathfinder":
			return stats.BoardsWon >= 10
		case "warlord":
			return stats.BoardsWon >= 100
		case "conqueror":
			return cleared
		case "hunter":
			return stats.SentriesKilled >= 1
		case "exterminator":
			return stats.SentriesKilled >= 50
		case "terror":
			return stats.SentriesFled >= 25
		case "rampage":
			return boardKills >= 3
		case "veteran":
			return stats.Level >= 10
		case "elite":
			return stats.Level >= 25
		case "legend":
			return stats.Level >= 50
		case "survivor":
			return stats.Playtime >= 3600
		}
		return false
	}

	for _, def := range Achievements {
		if check(def.ID) {
			if newlyUnlocked, err := db.UnlockAchievement(playerID, def.ID); err == nil && newlyUnlocked {
				unlocked = append(unlocked, def)
			}
		}
	}

	return unlocked
}
