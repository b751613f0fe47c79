package main

import (
	"fmt"
	"sync"

	"github.com/vmihailenco/msgpack/v5"
)

const maxPlayersPerSession = 20

// Run phases. The orchestrator is an explicit state machine; the phase
// value decides which calls are legal.
const (
	PhasePickBoard = 0 // choosing a campaign cell
	PhaseAwaitRoll = 1
	PhaseAwaitMove = 2
	PhaseEngage    = 3 // engagement prompt pending
	PhaseCombat    = 4
	PhaseBoardWon  = 5
	PhaseBoardLost = 6
)

// Broadcaster interface for sending messages to clients
type Broadcaster interface {
	SendJSON(msg interface{})
}

// Run is one player's campaign progress and current board attempt. All
// randomness flows through rng, reseeded from the board descriptor when a
// board starts, so an attempt replays from its seed.
type Run struct {
	PlayerID string
	Name     string

	Campaign *Campaign
	Row, Col int

	Board     *Board
	Ship      *Ship
	Inventory []*Component // salvaged components, repaired to max

	Phase        int
	Pos          string
	Roll         int
	StepsLeft    int
	Score        int
	BonusAttacks int

	Encounter     *Encounter
	pendingEntity string
	pendingZone   ZoneKind
	pendingDir    int
	stealthEntity string // declined sentry, bypassed for the rest of this turn

	// Per-board tallies for persistence
	Kills int
	Fled  int

	rng *Rand
}

// Game holds the state for one game session: each player runs their own
// campaign grown from the session seed.
type Game struct {
	mu      sync.RWMutex
	seed    uint32
	runs    map[string]*Run
	clients map[string]Broadcaster // playerID -> client
}

// NewGame creates a new Game around a campaign seed
func NewGame(seed uint32) *Game {
	return &Game{
		seed:    seed,
		runs:    make(map[string]*Run),
		clients: make(map[string]Broadcaster),
	}
}

// Seed returns the session campaign seed.
func (g *Game) Seed() uint32 { return g.seed }

// NewPlayerShip is the starting loadout. Power headroom is left for
// purchased components.
func NewPlayerShip(name string) *Ship {
	s := NewShip(name, 8)
	s.AddComponent(NewComponent("Pulse Laser", CompWeapon, 2, 3))
	s.AddComponent(NewComponent("Ion Drive", CompEngine, 1, 3))
	s.AddComponent(NewComponent("Bridge", CompBridge, 1, 2))
	return s
}

// AddPlayer adds a new player with a fresh campaign. Returns nil when the
// session is full.
func (g *Game) AddPlayer(name string) *Run {
	g.mu.Lock()
	defer g.mu.Unlock()

	if len(g.runs) >= maxPlayersPerSession {
		return nil
	}

	id := GenerateID(4)
	run := &Run{
		PlayerID: id,
		Name:     name,
		Campaign: NewCampaign(g.seed),
		Ship:     NewPlayerShip(name),
		Phase:    PhasePickBoard,
		rng:      NewRand(g.seed ^ 0x5bd1e995),
	}
	g.runs[id] = run
	return run
}

// RestoreCampaign swaps in a previously persisted campaign for the player.
// Only a campaign grown from the session seed fits this session's board
// descriptors, and a board attempt already in progress keeps its grid.
func (g *Game) RestoreCampaign(playerID string, c *Campaign) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	run, ok := g.runs[playerID]
	if !ok {
		return fmt.Errorf("unknown player")
	}
	if c == nil || c.Seed != run.Campaign.Seed {
		return fmt.Errorf("campaign seed mismatch")
	}
	if run.Phase != PhasePickBoard {
		return fmt.Errorf("board attempt in progress")
	}
	run.Campaign = c
	g.pushState(playerID)
	return nil
}

// RemovePlayer removes a player from the game
func (g *Game) RemovePlayer(id string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.runs, id)
	delete(g.clients, id)
}

// HasPlayer reports whether the player id belongs to this game.
func (g *Game) HasPlayer(id string) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	_, ok := g.runs[id]
	return ok
}

// SetClient associates a broadcaster with a player
func (g *Game) SetClient(playerID string, client Broadcaster) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.clients[playerID] = client
}

// PlayerCount returns the number of players
func (g *Game) PlayerCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.runs)
}

// Run returns the run for a player id, nil when absent.
func (g *Game) Run(playerID string) *Run {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.runs[playerID]
}

// SelectBoard starts an unlocked campaign board. The board is rebuilt from
// its descriptor seed and the dice continue from the same RNG, so a whole
// attempt replays from the seed.
func (g *Game) SelectBoard(playerID string, row, col int) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	run, ok := g.runs[playerID]
	if !ok {
		return fmt.Errorf("unknown player")
	}
	if run.Phase == PhaseCombat || run.Phase == PhaseEngage {
		return fmt.Errorf("cannot change boards mid-encounter")
	}
	desc := run.Campaign.Board(row, col)
	if desc == nil {
		return fmt.Errorf("no board at (%d,%d)", row, col)
	}
	if desc.Status != BoardUnlocked {
		return fmt.Errorf("board (%d,%d) is %s", row, col, desc.Status)
	}

	run.rng = NewRand(desc.Seed)
	run.Board = NewBoard(desc.Cols, desc.Rows, DefaultHexSize, desc.Difficulty, run.rng)
	run.Row, run.Col = row, col
	run.Pos = run.Board.Start
	run.Phase = PhaseAwaitRoll
	run.Roll = 0
	run.StepsLeft = 0
	run.Score = 0
	run.Kills = 0
	run.Fled = 0
	run.BonusAttacks = 0
	run.Encounter = nil
	run.stealthEntity = ""

	// The shipyard patches the hull between raids.
	for _, c := range run.Ship.Components() {
		c.Repair()
	}

	g.pushState(playerID)
	return nil
}

// RollDice rolls the movement die. A destroyed engine bay caps the step
// count. A player already boxed in loses the board before the roll.
func (g *Game) RollDice(playerID string) (RolledMsg, *BoardOverMsg, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	run, ok := g.runs[playerID]
	if !ok {
		return RolledMsg{}, nil, fmt.Errorf("unknown player")
	}
	if run.Phase != PhaseAwaitRoll {
		return RolledMsg{}, nil, fmt.Errorf("not awaiting a roll")
	}

	if run.Board.Trapped(run.Pos) {
		over := g.loseBoard(run)
		g.pushState(playerID)
		return RolledMsg{}, over, nil
	}

	roll := run.rng.Roll()
	steps := roll + run.Ship.SpeedBonus()
	if run.Ship.EngineDestroyed() {
		if roll <= 3 {
			steps = 1
		} else {
			steps = 2
		}
	}
	run.Roll = roll
	run.StepsLeft = steps
	run.Phase = PhaseAwaitMove

	msg := RolledMsg{
		Roll:       roll,
		Steps:      steps,
		Directions: run.Board.AvailableDirections(run.Pos),
	}
	g.pushState(playerID)
	return msg, nil, nil
}

// Move traces the chosen direction with the remaining steps and applies the
// outcome: movement, black-hole loss, target win, or an engagement prompt.
func (g *Game) Move(playerID string, dir int) (MovedMsg, *EngagementMsg, *BoardOverMsg, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	run, ok := g.runs[playerID]
	if !ok {
		return MovedMsg{}, nil, nil, fmt.Errorf("unknown player")
	}
	if run.Phase != PhaseAwaitMove {
		return MovedMsg{}, nil, nil, fmt.Errorf("not awaiting a move")
	}
	if dir < 0 || dir >= 6 {
		return MovedMsg{}, nil, nil, fmt.Errorf("invalid direction %d", dir)
	}

	res := run.Board.Trace(run.Pos, dir, run.StepsLeft, run.stealthEntity)

	if len(res.Path) > 0 {
		run.Pos = res.Path[len(res.Path)-1]
	}
	run.StepsLeft -= len(res.Path)

	moved := MovedMsg{
		Path:          res.Path,
		BlockedBy:     res.BlockedBy,
		HitBlackHole:  res.HitBlackHole,
		ReachedTarget: res.ReachedTarget,
		StepsLeft:     run.StepsLeft,
	}

	// Power-ups are collected on pass-through, landing vertex included.
	for _, v := range res.Path {
		if val, ok := run.Board.Hazards.PowerUps[v]; ok {
			run.Score += val
			run.BonusAttacks++
			delete(run.Board.Hazards.PowerUps, v)
			moved.PowerUps = append(moved.PowerUps, v)
		}
	}

	switch {
	case res.HitBlackHole:
		over := g.loseBoard(run)
		g.pushState(playerID)
		return moved, nil, over, nil

	case res.ReachedTarget:
		over := g.winBoard(run)
		g.pushState(playerID)
		return moved, nil, over, nil

	case res.Engaged:
		sentry := run.Board.Hazards.Sentry(res.EngagedEntity)
		if sentry == nil {
			// A zone entry with no live sentry means the generator and
			// the hazard set disagree; treat the stop as a plain turn end.
			over := g.endTurn(run)
			g.pushState(playerID)
			return moved, nil, over, nil
		}
		run.Phase = PhaseEngage
		run.pendingEntity = res.EngagedEntity
		run.pendingZone = res.EngagedZone
		run.pendingDir = dir
		prompt := &EngagementMsg{
			EntityID: sentry.ID,
			Zone:     int(res.EngagedZone),
			Position: ApproachPosition(dir, sentry.Facing),
		}
		g.pushState(playerID)
		return moved, prompt, nil, nil

	default:
		var over *BoardOverMsg
		if run.StepsLeft <= 0 {
			over = g.endTurn(run)
		}
		g.pushState(playerID)
		return moved, nil, over, nil
	}
}

// Engage answers a pending engagement prompt. Accepting starts combat and,
// when the sentry holds the first strike, resolves its opening attacks.
// Declining grants stealth against that one sentry for the rest of the turn.
func (g *Game) Engage(playerID string, accept bool) (*CombatMsg, *BoardOverMsg, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	run, ok := g.runs[playerID]
	if !ok {
		return nil, nil, fmt.Errorf("unknown player")
	}
	if run.Phase != PhaseEngage {
		return nil, nil, fmt.Errorf("no engagement pending")
	}

	sentry := run.Board.Hazards.Sentry(run.pendingEntity)

	if !accept {
		run.stealthEntity = run.pendingEntity
		run.pendingEntity = ""
		if run.StepsLeft > 0 {
			run.Phase = PhaseAwaitMove
			g.pushState(playerID)
			return nil, nil, nil
		}
		over := g.endTurn(run)
		g.pushState(playerID)
		return nil, over, nil
	}

	playerFirst, rollBonus := FirstStrike(run.pendingZone, run.pendingDir, sentry.Facing)
	enc := NewEncounter(run.Ship, run.Board.SentryShip(sentry), playerFirst, run.BonusAttacks, rollBonus, run.rng)
	run.BonusAttacks = 0
	run.Encounter = enc
	run.Phase = PhaseCombat

	msg := &CombatMsg{Attacks: g.resolveSentryTurn(run), Turn: enc.Turn(), Result: int(enc.Result())}
	var over *BoardOverMsg
	if enc.Over() {
		over = g.finishCombat(run)
	}
	g.pushState(playerID)
	return msg, over, nil
}

// CombatAttack fires at the named sentry component, then resolves the
// sentry's reply until control returns to the player or combat ends.
func (g *Game) CombatAttack(playerID, target string) (*CombatMsg, *BoardOverMsg, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	run, ok := g.runs[playerID]
	if !ok {
		return nil, nil, fmt.Errorf("unknown player")
	}
	if run.Phase != PhaseCombat || run.Encounter == nil {
		return nil, nil, fmt.Errorf("not in combat")
	}
	enc := run.Encounter
	if !enc.PlayerTurn() {
		return nil, nil, fmt.Errorf("not the player's turn")
	}

	out, err := enc.Attack(target)
	if err != nil {
		return nil, nil, err
	}
	attacks := []AttackReport{toReport(out)}
	attacks = append(attacks, g.resolveSentryTurn(run)...)

	msg := &CombatMsg{Attacks: attacks, Turn: enc.Turn(), Result: int(enc.Result())}
	var over *BoardOverMsg
	if enc.Over() {
		over = g.finishCombat(run)
	}
	g.pushState(playerID)
	return msg, over, nil
}

// CombatEscape disengages on the player's turn and ends the movement turn.
func (g *Game) CombatEscape(playerID string) (*CombatMsg, *BoardOverMsg, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	run, ok := g.runs[playerID]
	if !ok {
		return nil, nil, fmt.Errorf("unknown player")
	}
	if run.Phase != PhaseCombat || run.Encounter == nil {
		return nil, nil, fmt.Errorf("not in combat")
	}

	result, err := run.Encounter.Escape()
	if err != nil {
		return nil, nil, err
	}
	msg := &CombatMsg{Turn: run.Encounter.Turn(), Result: int(result)}
	over := g.finishCombat(run)
	g.pushState(playerID)
	return msg, over, nil
}

// InstallComponent mounts a purchased component onto the player ship.
// Budget and bridge violations surface as errors.
func (g *Game) InstallComponent(playerID string, c *Component) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	run, ok := g.runs[playerID]
	if !ok {
		return fmt.Errorf("unknown player")
	}
	if err := run.Ship.AddComponent(c); err != nil {
		return err
	}
	g.pushState(playerID)
	return nil
}

// resolveSentryTurn plays out sentry attacks until the player acts again.
func (g *Game) resolveSentryTurn(run *Run) []AttackReport {
	var reports []AttackReport
	enc := run.Encounter
	for !enc.Over() && !enc.PlayerTurn() {
		out, err := enc.Attack("")
		if err != nil {
			break
		}
		reports = append(reports, toReport(out))
	}
	return reports
}

// finishCombat applies the terminal encounter result to the board and run.
func (g *Game) finishCombat(run *Run) *BoardOverMsg {
	result := run.Encounter.Result()
	sentry := run.Board.Hazards.Sentry(run.pendingEntity)
	run.Encounter = nil
	run.pendingEntity = ""

	switch result {
	case ResultPlayerWin:
		if sentry != nil {
			run.Score += sentry.Value * 2
			run.Kills++
			g.salvage(run, sentry)
			run.Board.Hazards.RemoveSentry(sentry.ID)
		}
		return g.endTurn(run)

	case ResultSentryFled:
		if sentry != nil {
			run.Fled++
			run.Board.Hazards.RemoveSentry(sentry.ID)
		}
		return g.endTurn(run)

	case ResultEscaped:
		return g.endTurn(run)

	default: // ResultPlayerDestroyed, ResultTimeout
		return g.loseBoard(run)
	}
}

// salvage pulls one random component off a defeated sentry, repairs it and
// drops it into the inventory pool.
func (g *Game) salvage(run *Run, sentry *Sentry) {
	ship := run.Board.SentryShip(sentry)
	comps := ship.Components()
	if len(comps) == 0 {
		return
	}
	c := comps[run.rng.Intn(len(comps))]
	ship.RemoveComponent(c.Name)
	c.Repair()
	run.Inventory = append(run.Inventory, c)
}

// endTurn closes the movement turn: stealth expires, and a trapped player
// loses before the next roll.
func (g *Game) endTurn(run *Run) *BoardOverMsg {
	run.stealthEntity = ""
	run.StepsLeft = 0
	run.Roll = 0
	if run.Board.Trapped(run.Pos) {
		return g.loseBoard(run)
	}
	run.Phase = PhaseAwaitRoll
	return nil
}

func (g *Game) winBoard(run *Run) *BoardOverMsg {
	run.Campaign.MarkWon(run.Row, run.Col)
	run.Phase = PhaseBoardWon
	return &BoardOverMsg{
		Won:     true,
		Score:   run.Score,
		Cleared: run.Campaign.Cleared(),
	}
}

func (g *Game) loseBoard(run *Run) *BoardOverMsg {
	run.Campaign.MarkLost(run.Row, run.Col)
	run.Phase = PhaseBoardLost
	return &BoardOverMsg{Won: false, Score: run.Score}
}

// pushState msgpack-encodes the run snapshot and ships it as a binary frame.
func (g *Game) pushState(playerID string) {
	run, ok := g.runs[playerID]
	if !ok {
		return
	}
	client, ok := g.clients[playerID]
	if !ok {
		return
	}

	state := RunState{
		Phase:        run.Phase,
		Row:          run.Row,
		Col:          run.Col,
		Pos:          run.Pos,
		Roll:         run.Roll,
		StepsLeft:    run.StepsLeft,
		Score:        run.Score,
		BonusAttacks: run.BonusAttacks,
		Campaign:     run.Campaign,
	}
	for _, c := range run.Ship.Components() {
		state.Ship = append(state.Ship, ComponentState{
			Name: c.Name, Kind: int(c.Kind), Power: c.PowerCost,
			HP: c.HP, MaxHP: c.MaxHP, Damage: c.Damage,
			Speed: c.SpeedBonus(), Evasion: c.EvasionBonus(),
		})
	}
	if run.Board != nil {
		state.Start = run.Board.Start
		state.Target = run.Board.Target
		h := run.Board.Hazards
		for v := range h.Obstacles {
			state.Obstacles = append(state.Obstacles, v)
		}
		for v := range h.BlackHoles {
			state.BlackHoles = append(state.BlackHoles, v)
		}
		for v := range h.PowerUps {
			state.PowerUps = append(state.PowerUps, v)
		}
		for _, s := range h.Sentries {
			state.Sentries = append(state.Sentries, SentryState{
				ID: s.ID, Vertex: s.VertexID, Value: s.Value,
				Facing: s.Facing, Range: s.VisionRange,
			})
		}
		for v, entries := range h.Zones {
			for _, e := range entries {
				state.Zones = append(state.Zones, ZoneState{
					Vertex: v, EntityID: e.EntityID, Kind: int(e.Kind),
				})
			}
		}
	}

	data, err := msgpack.Marshal(state)
	if err != nil {
		return
	}
	if c, ok := client.(*Client); ok {
		c.SendBinary(data)
	}
}

func toReport(out AttackOutcome) AttackReport {
	return AttackReport{
		Player:    out.PlayerActing,
		Roll:      out.Roll,
		Bonus:     out.Bonus,
		Hit:       out.Hit,
		Target:    out.Target,
		Destroyed: out.Destroyed,
	}
}
