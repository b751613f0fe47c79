package main

// Component tiers map to accuracy: tier 1 hits on 4+, tier 2 on 3+.
const (
	TierStandard = 1
	TierAdvanced = 2
)

// StoreItem represents a purchasable ship component
type StoreItem struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Kind    int    `json:"kind"`  // ComponentKind
	Power   int    `json:"power"` // 1 or 2
	MaxHP   int    `json:"hp"`
	Price   int    `json:"price"` // in credits
	Preview string `json:"preview"`
}

// StoreCatalog is the full list of purchasable components
var StoreCatalog = []StoreItem{
	// Weapons
	{ID: "wpn_pulse", Name: "Pulse Laser", Kind: int(CompWeapon), Power: 2, MaxHP: 3, Price: 80, Preview: "Standard-tier laser, hits on 4+"},
	{ID: "wpn_lance", Name: "Plasma Lance", Kind: int(CompWeapon), Power: 2, MaxHP: 2, Price: 200, Preview: "Advanced targeting, hits on 3+"},
	{ID: "wpn_turret", Name: "Flak Turret", Kind: int(CompWeapon), Power: 1, MaxHP: 4, Price: 120, Preview: "Cheap to power, sturdy mount"},

	// Engines
	{ID: "eng_ion", Name: "Ion Drive", Kind: int(CompEngine), Power: 1, MaxHP: 3, Price: 70, Preview: "Reliable sublight thruster"},
	{ID: "eng_fusion", Name: "Fusion Torch", Kind: int(CompEngine), Power: 2, MaxHP: 4, Price: 180, Preview: "Heavy drive with reinforced housing"},

	// Hull modules
	{ID: "mod_plating", Name: "Armor Plating", Kind: int(CompGeneric), Power: 1, MaxHP: 5, Price: 90, Preview: "Spare mass that soaks incoming fire"},
	{ID: "mod_bay", Name: "Cargo Bay", Kind: int(CompGeneric), Power: 1, MaxHP: 4, Price: 60, Preview: "Extra stowage, extra silhouette"},
	{ID: "mod_shield", Name: "Deflector Coil", Kind: int(CompGeneric), Power: 2, MaxHP: 6, Price: 250, Preview: "Dense coil housing, hard to crack"},
}

// StoreCatalogMap provides O(1) lookup by item ID
var StoreCatalogMap map[string]StoreItem

func init() {
	StoreCatalogMap = make(map[string]StoreItem, len(StoreCatalog))
	for _, item := range StoreCatalog {
		StoreCatalogMap[item.ID] = item
	}
}

// BuildComponent instantiates the catalog item as a mountable component
func (i StoreItem) BuildComponent() *Component {
	return NewComponent(i.Name, ComponentKind(i.Kind), i.Power, i.MaxHP)
}

// CreditsPerBoard returns the credits earned for a board attempt
func CreditsPerBoard(difficulty, score, kills int, won bool) int {
	credits := 10 + score + kills*5
	if won {
		credits += 20 + difficulty*5
	}
	return credits
}

// XPPerBoard returns the XP earned for a board attempt
func XPPerBoard(difficulty, score, kills int, won bool) int {
	xp := score*2 + kills*15
	if won {
		xp += 50 + difficulty*10
	}
	return xp
}
