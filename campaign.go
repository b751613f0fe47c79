package main

import "encoding/json"

// Board statuses in the campaign grid.
const (
	BoardLocked   = "locked"
	BoardUnlocked = "unlocked"
	BoardWon      = "won"
	BoardLost     = "lost"
)

// CampaignSide is the campaign grid dimension (3x3 boards).
const CampaignSide = 3

// BoardDescriptor is one cell of the campaign grid. Generated once from the
// session seed and persisted as part of the campaign blob; the board itself
// is rebuilt from Seed on demand.
type BoardDescriptor struct {
	Row        int    `json:"row"`
	Col        int    `json:"col"`
	SizeTag    string `json:"size"`
	Cols       int    `json:"cols"`
	Rows       int    `json:"rows"`
	Difficulty int    `json:"difficulty"`
	Seed       uint32 `json:"seed"`
	Status     string `json:"status"`
}

// Campaign is a player's 3x3 grid of boards plus the seed it grew from.
type Campaign struct {
	Seed   uint32                                           `json:"seed"`
	Boards [CampaignSide][CampaignSide]*BoardDescriptor `json:"boards"`
}

// boardSizes maps size tags to grid dimensions.
var boardSizes = map[string]struct {
	Cols, Rows int
}{
	"small":  {4, 4},
	"medium": {6, 5},
	"large":  {8, 6},
}

var sizeTags = []string{"small", "medium", "large"}

// NewCampaign generates the descriptor grid from a session seed. Difficulty
// climbs with the cell index; only the top-left board starts unlocked.
func NewCampaign(seed uint32) *Campaign {
	rng := NewRand(seed)
	c := &Campaign{Seed: seed}
	for row := 0; row < CampaignSide; row++ {
		for col := 0; col < CampaignSide; col++ {
			idx := row*CampaignSide + col
			tag := sizeTags[rng.Intn(len(sizeTags))]
			dims := boardSizes[tag]
			status := BoardLocked
			if idx == 0 {
				status = BoardUnlocked
			}
			c.Boards[row][col] = &BoardDescriptor{
				Row:        row,
				Col:        col,
				SizeTag:    tag,
				Cols:       dims.Cols,
				Rows:       dims.Rows,
				Difficulty: idx + 1,
				Seed:       rng.Uint32(),
				Status:     status,
			}
		}
	}
	return c
}

// Board returns the descriptor at (row, col), nil when out of range.
func (c *Campaign) Board(row, col int) *BoardDescriptor {
	if row < 0 || row >= CampaignSide || col < 0 || col >= CampaignSide {
		return nil
	}
	return c.Boards[row][col]
}

// MarkWon records a win and unlocks adjacent boards. Only locked neighbours
// transition to unlocked; terminal won/lost statuses are never overwritten.
func (c *Campaign) MarkWon(row, col int) {
	b := c.Board(row, col)
	if b == nil || b.Status == BoardWon || b.Status == BoardLost {
		return
	}
	b.Status = BoardWon
	for _, d := range [][2]int{{-1, 0}, {1, 0}, {0, -1}, {0, 1}} {
		if n := c.Board(row+d[0], col+d[1]); n != nil && n.Status == BoardLocked {
			n.Status = BoardUnlocked
		}
	}
}

// MarkLost records a loss. Terminal statuses are never overwritten.
func (c *Campaign) MarkLost(row, col int) {
	b := c.Board(row, col)
	if b == nil || b.Status == BoardWon || b.Status == BoardLost {
		return
	}
	b.Status = BoardLost
}

// Cleared reports whether every board has been won.
func (c *Campaign) Cleared() bool {
	for row := 0; row < CampaignSide; row++ {
		for col := 0; col < CampaignSide; col++ {
			if c.Boards[row][col].Status != BoardWon {
				return false
			}
		}
	}
	return true
}

// Marshal serializes the campaign to the opaque JSON blob stored per player.
func (c *Campaign) Marshal() ([]byte, error) {
	return json.Marshal(c)
}

// LoadCampaign restores a campaign from its persisted blob.
func LoadCampaign(blob []byte) (*Campaign, error) {
	var c Campaign
	if err := json.Unmarshal(blob, &c); err != nil {
		return nil, err
	}
	return &c, nil
}
