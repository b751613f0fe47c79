package main

import "fmt"

// CombatResult is the terminal tag of an encounter.
type CombatResult int

const (
	ResultNone            CombatResult = 0 // still running
	ResultPlayerWin       CombatResult = 1
	ResultPlayerDestroyed CombatResult = 2
	ResultSentryFled      CombatResult = 3
	ResultTimeout         CombatResult = 4 // both sides hit the attack cap; counts as a player loss
	ResultEscaped         CombatResult = 5 // player disengaged; neither win nor loss
)

const (
	// DefaultMaxTurns is the attack count per side before combat times out.
	DefaultMaxTurns = 10
	// DefaultFlatAccuracy is the hit threshold for a ship with no typed
	// weapon component (legacy loadouts).
	DefaultFlatAccuracy = 4
)

// ApproachPosition maps the player's move direction against the sentry's
// facing onto a 1-6 clock position. Position 4 is directly behind the sentry.
func ApproachPosition(playerDir, sentryFacing int) int {
	return (playerDir-sentryFacing+3+6)%6 + 1
}

// FirstStrike resolves who attacks first for a given engagement, plus the
// player's opening roll bonus. Entering a vision zone always hands the
// sentry the first attack. Entering a proximity zone gives the player the
// first attack, with a +1 rear-ambush bonus only at approach position 4.
func FirstStrike(zone ZoneKind, playerDir, sentryFacing int) (playerFirst bool, rollBonus int) {
	if zone == ZoneVision {
		return false, 0
	}
	if ApproachPosition(playerDir, sentryFacing) == 4 {
		return true, 1
	}
	return true, 0
}

// AttackOutcome records one resolved attack.
type AttackOutcome struct {
	PlayerActing bool
	Roll         int // 0 when the attacker auto-missed without rolling
	Bonus        int
	Hit          bool
	Target       string // component name hit
	Destroyed    bool   // the hit destroyed the target component
	Result       CombatResult
}

// Encounter is the turn engine for one fight. It owns its turn state
// exclusively; a sentry's ship is borrowed from the board's registry so
// damage persists across repeated engagements.
type Encounter struct {
	Player *Ship
	Sentry *Ship

	rng *Rand

	playerTurn      bool
	turn            int
	playerAttacks   int
	sentryAttacks   int
	attacksThisTurn int
	bonusAttacks    int
	rollBonus       int
	maxTurns        int
	flatAccuracy    int
	log             []AttackOutcome
	result          CombatResult
}

// NewEncounter builds a turn engine from two ships and the
// first-attacker / bonus-attack / roll-bonus triple.
func NewEncounter(player, sentry *Ship, playerFirst bool, bonusAttacks, rollBonus int, rng *Rand) *Encounter {
	return &Encounter{
		Player:       player,
		Sentry:       sentry,
		rng:          rng,
		playerTurn:   playerFirst,
		turn:         1,
		bonusAttacks: bonusAttacks,
		rollBonus:    rollBonus,
		maxTurns:     DefaultMaxTurns,
		flatAccuracy: DefaultFlatAccuracy,
	}
}

// Result returns the terminal tag, ResultNone while combat runs.
func (e *Encounter) Result() CombatResult { return e.result }

// Over reports whether the encounter has ended.
func (e *Encounter) Over() bool { return e.result != ResultNone }

// PlayerTurn reports whose attack is next.
func (e *Encounter) PlayerTurn() bool { return e.playerTurn }

// Turn returns the current turn counter. It increments each time control
// returns to the player.
func (e *Encounter) Turn() int { return e.turn }

// Log returns the append-only attack history.
func (e *Encounter) Log() []AttackOutcome { return e.log }

// Attack resolves one attack for whichever side is acting. The player names
// the sentry component to hit; the sentry picks uniformly among the player's
// active components. Calling after combat ended is a caller bug.
func (e *Encounter) Attack(targetName string) (AttackOutcome, error) {
	if e.Over() {
		return AttackOutcome{}, fmt.Errorf("combat is over")
	}

	var out AttackOutcome
	if e.playerTurn {
		o, err := e.playerAttack(targetName)
		if err != nil {
			return AttackOutcome{}, err
		}
		out = o
		e.playerAttacks++
		e.attacksThisTurn++
	} else {
		out = e.sentryAttack()
		e.sentryAttacks++
	}

	e.result = e.checkEnd(out.PlayerActing)
	out.Result = e.result
	e.log = append(e.log, out)

	if e.result == ResultNone {
		e.advanceTurn(out.PlayerActing)
	}
	return out, nil
}

// Escape ends combat immediately on the player's turn. Distinct terminal
// tag: neither a win nor a loss for scoring.
func (e *Encounter) Escape() (CombatResult, error) {
	if e.Over() {
		return e.result, fmt.Errorf("combat is over")
	}
	if !e.playerTurn {
		return e.result, fmt.Errorf("escape is only available on the player's turn")
	}
	e.result = ResultEscaped
	return e.result, nil
}

func (e *Encounter) playerAttack(targetName string) (AttackOutcome, error) {
	out := AttackOutcome{PlayerActing: true}

	target := e.Sentry.Component(targetName)
	if target == nil || target.Destroyed() {
		return out, fmt.Errorf("invalid attack target %q", targetName)
	}

	if e.Player.HasWeapon() && !e.Player.CanAttack() {
		// Disarmed: auto-miss, no roll.
		return out, nil
	}

	acc, dmg := e.attackStats(e.Player)
	out.Roll = e.rng.Roll()
	if e.playerAttacks == 0 {
		out.Bonus = e.rollBonus
	}
	out.Hit = out.Roll+out.Bonus >= acc
	if out.Hit {
		out.Target = target.Name
		out.Destroyed = target.Hit(dmg)
	}
	return out, nil
}

func (e *Encounter) sentryAttack() AttackOutcome {
	out := AttackOutcome{}

	// A disarmed sentry auto-misses every turn without rolling.
	if e.Sentry.HasWeapon() && !e.Sentry.CanAttack() {
		return out
	}

	acc, dmg := e.attackStats(e.Sentry)
	out.Roll = e.rng.Roll()
	out.Hit = out.Roll >= acc
	if out.Hit {
		active := e.Player.ActiveComponents()
		if len(active) == 0 {
			out.Hit = false
			return out
		}
		target := active[e.rng.Intn(len(active))]
		out.Target = target.Name
		out.Destroyed = target.Hit(dmg)
	}
	return out
}

// attackStats returns the hit threshold and per-hit damage for the acting
// ship, falling back to the flat threshold when no typed weapon exists.
func (e *Encounter) attackStats(s *Ship) (accuracy, damage int) {
	if w := s.ActiveWeapon(); w != nil {
		return w.Accuracy(), w.Damage
	}
	return e.flatAccuracy, 1
}

// checkEnd evaluates the end conditions in fixed priority after every attack.
func (e *Encounter) checkEnd(playerActed bool) CombatResult {
	// 1. Defender's bridge destroyed: attacker wins outright.
	if playerActed && e.Sentry.BridgeDestroyed() {
		return ResultPlayerWin
	}
	if !playerActed && e.Player.BridgeDestroyed() {
		return ResultPlayerDestroyed
	}

	// 2. Player side: bridge gone or nothing left.
	if e.Player.BridgeDestroyed() || e.Player.AllDestroyed() {
		return ResultPlayerDestroyed
	}

	// 3. Sentry disarmed but still mobile. The prior-attack gate prevents an
	// instant flee when a pre-disarmed sentry is re-engaged.
	if e.Sentry.HasWeapon() && !e.Sentry.CanAttack() && e.Sentry.CanFlee() && e.playerAttacks >= 1 {
		return ResultSentryFled
	}

	// 4. Both sides out of attacks.
	if e.playerAttacks >= e.maxTurns && e.sentryAttacks >= e.maxTurns {
		return ResultTimeout
	}
	return ResultNone
}

// advanceTurn passes control after an attack. A pending bonus attack lets the
// player act once more in the same turn; the turn counter increments only
// when control returns to the player.
func (e *Encounter) advanceTurn(playerActed bool) {
	if playerActed && e.bonusAttacks > 0 && e.attacksThisTurn == 1 {
		e.bonusAttacks--
		return
	}
	e.playerTurn = !e.playerTurn
	if e.playerTurn {
		e.turn++
		e.attacksThisTurn = 0
	}
}
