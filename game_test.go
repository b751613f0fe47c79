package main

import (
	"sync"
	"testing"
)

// mockBroadcaster captures sent messages for testing
type mockBroadcaster struct {
	mu       sync.Mutex
	messages []interface{}
}

func (m *mockBroadcaster) SendJSON(msg interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, msg)
}

func TestGameAddRemovePlayer(t *testing.T) {
	g := NewGame(42)
	run := g.AddPlayer("TestPilot")
	if run.Name != "TestPilot" {
		t.Errorf("expected name TestPilot, got %s", run.Name)
	}
	if run.Phase != PhasePickBoard {
		t.Errorf("new player should start picking a board, got phase %d", run.Phase)
	}
	if g.PlayerCount() != 1 {
		t.Errorf("expected 1 player, got %d", g.PlayerCount())
	}
	if !g.HasPlayer(run.PlayerID) {
		t.Error("HasPlayer should find the new player")
	}

	g.RemovePlayer(run.PlayerID)
	if g.PlayerCount() != 0 {
		t.Errorf("expected 0 players, got %d", g.PlayerCount())
	}
	if g.Run(run.PlayerID) != nil {
		t.Error("removed player's run should be gone")
	}
}

func TestGameSessionFull(t *testing.T) {
	g := NewGame(42)
	for i := 0; i < maxPlayersPerSession; i++ {
		if g.AddPlayer("P") == nil {
			t.Fatalf("player %d rejected below the cap", i)
		}
	}
	if g.AddPlayer("Overflow") != nil {
		t.Error("player above the cap should be rejected")
	}
}

func TestNewPlayerShipLoadout(t *testing.T) {
	s := NewPlayerShip("Pilot")
	if !s.HasWeapon() || !s.CanAttack() {
		t.Error("starter ship must be armed")
	}
	if s.EngineDestroyed() || s.BridgeDestroyed() {
		t.Error("starter ship must be intact")
	}
	if s.PowerUsed() > s.PowerBudget {
		t.Errorf("starter loadout overruns the budget: %d > %d", s.PowerUsed(), s.PowerBudget)
	}
}

func TestGameSelectBoard(t *testing.T) {
	g := NewGame(42)
	run := g.AddPlayer("Pilot")
	g.SetClient(run.PlayerID, &mockBroadcaster{})

	if err := g.SelectBoard("nobody", 0, 0); err == nil {
		t.Error("unknown player should error")
	}
	if err := g.SelectBoard(run.PlayerID, 1, 1); err == nil {
		t.Error("locked board should be rejected")
	}
	if err := g.SelectBoard(run.PlayerID, -1, 0); err == nil {
		t.Error("out-of-range cell should be rejected")
	}

	run.Ship.Component("Pulse Laser").Hit(2)
	if err := g.SelectBoard(run.PlayerID, 0, 0); err != nil {
		t.Fatal(err)
	}
	if run.Phase != PhaseAwaitRoll {
		t.Errorf("phase = %d, want awaiting roll", run.Phase)
	}
	if run.Board == nil || run.Pos != run.Board.Start {
		t.Error("player should stand on the board's start vertex")
	}
	if run.Ship.Component("Pulse Laser").HP != run.Ship.Component("Pulse Laser").MaxHP {
		t.Error("hull damage should be repaired between raids")
	}
}

func TestGameSelectBoardDeterministic(t *testing.T) {
	makeBoard := func() *Board {
		g := NewGame(42)
		run := g.AddPlayer("Pilot")
		if err := g.SelectBoard(run.PlayerID, 0, 0); err != nil {
			t.Fatal(err)
		}
		return run.Board
	}
	a, b := makeBoard(), makeBoard()
	if len(a.Hazards.Obstacles) != len(b.Hazards.Obstacles) {
		t.Fatal("same session seed should produce identical hazards")
	}
	for v, val := range a.Hazards.Obstacles {
		if b.Hazards.Obstacles[v] != val {
			t.Fatalf("obstacle at %s diverged: %d != %d", v, val, b.Hazards.Obstacles[v])
		}
	}
}

func TestGameRollDice(t *testing.T) {
	g := NewGame(42)
	run := g.AddPlayer("Pilot")

	if _, _, err := g.RollDice(run.PlayerID); err == nil {
		t.Error("rolling before a board is selected should error")
	}
	if err := g.SelectBoard(run.PlayerID, 0, 0); err != nil {
		t.Fatal(err)
	}

	msg, over, err := g.RollDice(run.PlayerID)
	if err != nil {
		t.Fatal(err)
	}
	if over != nil {
		t.Fatal("fresh board start cannot be trapped")
	}
	if msg.Roll < 1 || msg.Roll > 6 {
		t.Errorf("roll %d out of range", msg.Roll)
	}
	if msg.Steps != msg.Roll {
		t.Errorf("intact engines should give steps == roll, got %d vs %d", msg.Steps, msg.Roll)
	}
	if len(msg.Directions) == 0 {
		t.Error("start vertex should have open directions")
	}
	if run.Phase != PhaseAwaitMove {
		t.Errorf("phase = %d, want awaiting move", run.Phase)
	}
	if _, _, err := g.RollDice(run.PlayerID); err == nil {
		t.Error("double roll should error")
	}
}

func TestGameRollDiceWithDeadEngines(t *testing.T) {
	g := NewGame(42)
	run := g.AddPlayer("Pilot")
	if err := g.SelectBoard(run.PlayerID, 0, 0); err != nil {
		t.Fatal(err)
	}
	eng := run.Ship.Component("Ion Drive")
	for !eng.Destroyed() {
		eng.Hit(1)
	}

	msg, _, err := g.RollDice(run.PlayerID)
	if err != nil {
		t.Fatal(err)
	}
	want := 1
	if msg.Roll > 3 {
		want = 2
	}
	if msg.Steps != want {
		t.Errorf("dead engines: roll %d should cap steps at %d, got %d", msg.Roll, want, msg.Steps)
	}
}

func TestGameMoveValidation(t *testing.T) {
	g := NewGame(42)
	run := g.AddPlayer("Pilot")

	if _, _, _, err := g.Move(run.PlayerID, 0); err == nil {
		t.Error("moving before rolling should error")
	}
	if err := g.SelectBoard(run.PlayerID, 0, 0); err != nil {
		t.Fatal(err)
	}
	if _, _, err := g.RollDice(run.PlayerID); err != nil {
		t.Fatal(err)
	}
	if _, _, _, err := g.Move(run.PlayerID, 6); err == nil {
		t.Error("direction 6 should be rejected")
	}
	if _, _, _, err := g.Move(run.PlayerID, -1); err == nil {
		t.Error("negative direction should be rejected")
	}
	if _, _, _, err := g.Move("nobody", 0); err == nil {
		t.Error("unknown player should error")
	}
}

func TestGameMoveConsumesSteps(t *testing.T) {
	g := NewGame(42)
	run := g.AddPlayer("Pilot")
	if err := g.SelectBoard(run.PlayerID, 0, 0); err != nil {
		t.Fatal(err)
	}
	msg, _, err := g.RollDice(run.PlayerID)
	if err != nil {
		t.Fatal(err)
	}

	moved, engage, over, err := g.Move(run.PlayerID, msg.Directions[0])
	if err != nil {
		t.Fatal(err)
	}
	if over != nil || engage != nil {
		// A hazard this close to the start is possible; nothing more to check.
		return
	}
	if len(moved.Path) == 0 {
		t.Fatal("an open direction should advance at least one vertex")
	}
	if run.Pos != moved.Path[len(moved.Path)-1] {
		t.Error("player position should track the path end")
	}
	if moved.StepsLeft != msg.Steps-len(moved.Path) {
		t.Errorf("steps left = %d, want %d", moved.StepsLeft, msg.Steps-len(moved.Path))
	}
	if moved.StepsLeft <= 0 && run.Phase != PhaseAwaitRoll {
		t.Errorf("spent roll should end the turn, phase = %d", run.Phase)
	}
	if moved.StepsLeft > 0 && run.Phase != PhaseAwaitMove {
		t.Errorf("remaining steps should keep the move phase, phase = %d", run.Phase)
	}
}

func TestGameInstallComponent(t *testing.T) {
	g := NewGame(42)
	run := g.AddPlayer("Pilot")
	g.SetClient(run.PlayerID, &mockBroadcaster{})

	if err := g.InstallComponent("nobody", NewComponent("X", CompGeneric, 1, 1)); err == nil {
		t.Error("unknown player should error")
	}
	if err := g.InstallComponent(run.PlayerID, NewComponent("Shield", CompGeneric, 2, 4)); err != nil {
		t.Fatalf("install within budget failed: %v", err)
	}
	if err := g.InstallComponent(run.PlayerID, NewComponent("Second Bridge", CompBridge, 1, 2)); err == nil {
		t.Error("a second bridge must be rejected")
	}
	// Budget is 8, loadout now uses 6.
	if err := g.InstallComponent(run.PlayerID, NewComponent("Oversize", CompGeneric, 2, 4)); err != nil {
		t.Fatal(err)
	}
	if err := g.InstallComponent(run.PlayerID, NewComponent("Overflow", CompGeneric, 1, 1)); err == nil {
		t.Error("install past the power budget must be rejected")
	}
}

func TestGameSelectBoardMidCombatRejected(t *testing.T) {
	g := NewGame(42)
	run := g.AddPlayer("Pilot")
	if err := g.SelectBoard(run.PlayerID, 0, 0); err != nil {
		t.Fatal(err)
	}
	run.Phase = PhaseCombat
	if err := g.SelectBoard(run.PlayerID, 0, 0); err == nil {
		t.Error("board change mid-combat must be rejected")
	}
	run.Phase = PhaseEngage
	if err := g.SelectBoard(run.PlayerID, 0, 0); err == nil {
		t.Error("board change with a pending engagement must be rejected")
	}
}

func TestGameRestoreCampaign(t *testing.T) {
	g := NewGame(42)
	run := g.AddPlayer("Pilot")

	saved := NewCampaign(42)
	saved.MarkWon(0, 0)
	if err := g.RestoreCampaign(run.PlayerID, saved); err != nil {
		t.Fatal(err)
	}
	if run.Campaign.Board(0, 0).Status != BoardWon {
		t.Error("restored campaign should carry the persisted win")
	}
	if run.Campaign.Board(0, 1).Status != BoardUnlocked {
		t.Error("restored campaign should carry the unlocked neighbour")
	}

	if err := g.RestoreCampaign("nobody", saved); err == nil {
		t.Error("unknown player should error")
	}
	if err := g.RestoreCampaign(run.PlayerID, NewCampaign(7)); err == nil {
		t.Error("a campaign from another seed must be refused")
	}
	if run.Campaign.Board(0, 0).Status != BoardWon {
		t.Error("refused restore must not touch the current campaign")
	}

	// Mid-board the current grid stays.
	if err := g.SelectBoard(run.PlayerID, 0, 1); err != nil {
		t.Fatal(err)
	}
	if err := g.RestoreCampaign(run.PlayerID, NewCampaign(42)); err == nil {
		t.Error("restore during a board attempt must be refused")
	}
}

func TestGameRollDiceSpeedBonus(t *testing.T) {
	g := NewGame(42)
	run := g.AddPlayer("Pilot")
	if err := g.SelectBoard(run.PlayerID, 0, 0); err != nil {
		t.Fatal(err)
	}
	if err := run.Ship.AddComponent(NewComponent("Fusion Drive", CompEngine, 2, 3)); err != nil {
		t.Fatal(err)
	}

	msg, _, err := g.RollDice(run.PlayerID)
	if err != nil {
		t.Fatal(err)
	}
	if msg.Steps != msg.Roll+1 {
		t.Errorf("tier-2 engine: steps = %d, want roll %d + 1", msg.Steps, msg.Roll)
	}

	// A dead engine bay forfeits the bonus along with the roll.
	for _, c := range run.Ship.Components() {
		if c.Kind == CompEngine {
			for !c.Destroyed() {
				c.Hit(1)
			}
		}
	}
	run.Phase = PhaseAwaitRoll
	msg, _, err = g.RollDice(run.PlayerID)
	if err != nil {
		t.Fatal(err)
	}
	want := 1
	if msg.Roll > 3 {
		want = 2
	}
	if msg.Steps != want {
		t.Errorf("dead engines: roll %d should cap steps at %d, got %d", msg.Roll, want, msg.Steps)
	}
}
