package main

import "fmt"

// ComponentKind identifies what a ship component does.
type ComponentKind int

const (
	CompGeneric ComponentKind = 0 // legacy untyped component
	CompWeapon  ComponentKind = 1
	CompEngine  ComponentKind = 2
	CompBridge  ComponentKind = 3
)

// Component is one installed ship part. Kind-specific stats are pure
// functions of the power-cost tier. HP only ever decreases, except through
// Repair when the component is salvaged back to an inventory pool.
type Component struct {
	Name      string
	Kind      ComponentKind
	PowerCost int // 1 or 2
	MaxHP     int
	HP        int
	Damage    int // per-hit, defaults to 1 for every tier
}

// NewComponent builds a component with tier-derived stats. Power cost is
// clamped to the valid 1-2 band.
func NewComponent(name string, kind ComponentKind, powerCost, maxHP int) *Component {
	if powerCost < 1 {
		powerCost = 1
	} else if powerCost > 2 {
		powerCost = 2
	}
	if maxHP < 1 {
		maxHP = 1
	}
	return &Component{
		Name:      name,
		Kind:      kind,
		PowerCost: powerCost,
		MaxHP:     maxHP,
		HP:        maxHP,
		Damage:    1,
	}
}

// Destroyed is a derived flag, never a structural removal.
func (c *Component) Destroyed() bool {
	return c.HP <= 0
}

// Accuracy is the roll a weapon needs to hit (lower is better):
// 4 at power cost 1, 3 at power cost 2. Zero for non-weapons.
func (c *Component) Accuracy() int {
	if c.Kind != CompWeapon {
		return 0
	}
	if c.PowerCost >= 2 {
		return 3
	}
	return 4
}

// SpeedBonus is 1 for a tier-2 engine, otherwise 0.
func (c *Component) SpeedBonus() int {
	if c.Kind == CompEngine && c.PowerCost >= 2 {
		return 1
	}
	return 0
}

// EvasionBonus is 1 for a tier-2 bridge, otherwise 0.
func (c *Component) EvasionBonus() int {
	if c.Kind == CompBridge && c.PowerCost >= 2 {
		return 1
	}
	return 0
}

// Hit applies damage and reports whether this hit destroyed the component.
func (c *Component) Hit(damage int) bool {
	if c.Destroyed() {
		return false
	}
	c.HP -= damage
	if c.HP <= 0 {
		c.HP = 0
		return true
	}
	return false
}

// Repair restores the component to full HP. Used when a component is
// salvaged back into the inventory pool.
func (c *Component) Repair() {
	c.HP = c.MaxHP
}

// Ship is a named component bag bounded by a power budget. The same type
// serves the player and sentries; the power ceiling and single-bridge rule
// are all they share.
type Ship struct {
	Name        string
	PowerBudget int
	components  []*Component
}

// NewShip creates an empty ship with the given power ceiling.
func NewShip(name string, powerBudget int) *Ship {
	return &Ship{Name: name, PowerBudget: powerBudget}
}

// AddComponent installs a component. Exceeding the power budget or
// installing a second bridge is a programming error in the caller and
// fails loudly.
func (s *Ship) AddComponent(c *Component) error {
	if s.PowerUsed()+c.PowerCost > s.PowerBudget {
		return fmt.Errorf("ship %s: component %s exceeds power budget (%d/%d)",
			s.Name, c.Name, s.PowerUsed()+c.PowerCost, s.PowerBudget)
	}
	if c.Kind == CompBridge {
		for _, existing := range s.components {
			if existing.Kind == CompBridge {
				return fmt.Errorf("ship %s: already has a bridge", s.Name)
			}
		}
	}
	s.components = append(s.components, c)
	return nil
}

// RemoveComponent uninstalls a component by name and returns it, nil if
// absent. Damage never removes components; removal is always explicit.
func (s *Ship) RemoveComponent(name string) *Component {
	for i, c := range s.components {
		if c.Name == name {
			s.components = append(s.components[:i], s.components[i+1:]...)
			return c
		}
	}
	return nil
}

// Component returns the installed component with the given name, nil if
// absent.
func (s *Ship) Component(name string) *Component {
	for _, c := range s.components {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// Components returns the installed components in install order.
func (s *Ship) Components() []*Component {
	return s.components
}

// PowerUsed sums the power cost of installed components.
func (s *Ship) PowerUsed() int {
	total := 0
	for _, c := range s.components {
		total += c.PowerCost
	}
	return total
}

// ActiveComponents returns the undestroyed components.
func (s *Ship) ActiveComponents() []*Component {
	var out []*Component
	for _, c := range s.components {
		if !c.Destroyed() {
			out = append(out, c)
		}
	}
	return out
}

// ActiveWeapon returns the first undestroyed weapon, nil when disarmed.
func (s *Ship) ActiveWeapon() *Component {
	for _, c := range s.components {
		if c.Kind == CompWeapon && !c.Destroyed() {
			return c
		}
	}
	return nil
}

// HasWeapon reports whether any weapon-kind component is installed at all,
// destroyed or not. Ships without one fall back to a flat hit threshold.
func (s *Ship) HasWeapon() bool {
	for _, c := range s.components {
		if c.Kind == CompWeapon {
			return true
		}
	}
	return false
}

// CanAttack is true iff at least one weapon is undestroyed.
func (s *Ship) CanAttack() bool {
	return s.ActiveWeapon() != nil
}

// CanFlee is true iff at least one engine is undestroyed. Only sentries
// flee, but the rule lives with the component data.
func (s *Ship) CanFlee() bool {
	for _, c := range s.components {
		if c.Kind == CompEngine && !c.Destroyed() {
			return true
		}
	}
	return false
}

// SpeedBonus is the extra movement step granted by the best undestroyed
// engine. Zero for tier-1 engines and for a dead engine bay.
func (s *Ship) SpeedBonus() int {
	best := 0
	for _, c := range s.components {
		if c.Kind == CompEngine && !c.Destroyed() && c.SpeedBonus() > best {
			best = c.SpeedBonus()
		}
	}
	return best
}

// EngineDestroyed reports an installed-but-dead engine bay. Outside combat
// this caps the player's movement roll.
func (s *Ship) EngineDestroyed() bool {
	hasEngine := false
	for _, c := range s.components {
		if c.Kind == CompEngine {
			hasEngine = true
			if !c.Destroyed() {
				return false
			}
		}
	}
	return hasEngine
}

// BridgeDestroyed is true iff the singular bridge is destroyed. A ship with
// no bridge at all reports false.
func (s *Ship) BridgeDestroyed() bool {
	for _, c := range s.components {
		if c.Kind == CompBridge {
			return c.Destroyed()
		}
	}
	return false
}

// AllDestroyed is true when every installed component is destroyed.
func (s *Ship) AllDestroyed() bool {
	if len(s.components) == 0 {
		return false
	}
	for _, c := range s.components {
		if !c.Destroyed() {
			return false
		}
	}
	return true
}
