package main

import "encoding/json"

// Client -> Server message types
const (
	MsgJoin     = "join"
	MsgLeave    = "leave"
	MsgCreate   = "create"   // create session
	MsgList     = "list"     // list sessions
	MsgCheck    = "check"    // check if session exists
	MsgSelect   = "select"   // pick a campaign board
	MsgRoll     = "roll"     // roll the movement die
	MsgMove     = "move"     // move along a direction ray
	MsgEngage   = "engage"   // accept/decline an engagement
	MsgAttack   = "attack"   // combat attack (names the target component)
	MsgEscape   = "escape"   // combat escape
	MsgShop     = "shop"     // list the component catalog
	MsgBuy      = "buy"      // purchase a component
	MsgRegister = "register"
	MsgLogin    = "login"
	MsgAuth     = "auth"
	MsgProfile  = "profile"
)

// Server -> Client message types
const (
	MsgState       = "state" // binary msgpack RunState
	MsgWelcome     = "welcome"
	MsgJoined      = "joined"
	MsgCreated     = "created"
	MsgSessions    = "sessions"
	MsgChecked     = "checked"
	MsgRolled      = "rolled"
	MsgMoved       = "moved"
	MsgEngagement  = "engagement"
	MsgCombat      = "combat"
	MsgBoardOver   = "board_over"
	MsgCatalog     = "catalog"
	MsgBought      = "bought"
	MsgError       = "error"
	MsgAuthOK      = "auth_ok"
	MsgProfileData = "profile_data"
	MsgUnlocked    = "unlocked" // achievement unlocks
)

// Envelope wraps all outgoing messages with a type field
type Envelope struct {
	T    string      `json:"t"`
	Data interface{} `json:"d,omitempty"`
}

// InEnvelope is used for incoming messages — json.RawMessage avoids double-unmarshal
type InEnvelope struct {
	T string          `json:"t"`
	D json.RawMessage `json:"d,omitempty"`
}

// JoinMsg is sent when a player wants to join a session
type JoinMsg struct {
	Name      string `json:"name"`
	SessionID string `json:"sid"`
}

// CreateMsg is sent when a player wants to create a session
type CreateMsg struct {
	Name        string `json:"name"`
	SessionName string `json:"sname"`
	Seed        uint32 `json:"seed,omitempty"` // 0 = let the server pick
}

// CheckMsg asks whether a session exists
type CheckMsg struct {
	SID string `json:"sid"`
}

// CheckedMsg is the response to a session check
type CheckedMsg struct {
	SID     string `json:"sid"`
	Exists  bool   `json:"exists"`
	Name    string `json:"name,omitempty"`
	Players int    `json:"players,omitempty"`
}

// SelectMsg picks a campaign cell to play
type SelectMsg struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// MoveMsg chooses a direction ray (0-5)
type MoveMsg struct {
	Dir int `json:"dir"`
}

// EngageMsg answers an engagement prompt
type EngageMsg struct {
	Accept bool `json:"accept"`
}

// AttackMsg names the sentry component to fire at
type AttackMsg struct {
	Target string `json:"target"`
}

// BuyMsg purchases a catalog component
type BuyMsg struct {
	ItemID string `json:"item"`
}

// RegisterMsg / LoginMsg / AuthMsg carry account credentials
type RegisterMsg struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginMsg struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type AuthMsg struct {
	Token string `json:"token"`
}

// AuthOKMsg confirms authentication
type AuthOKMsg struct {
	Token    string `json:"token"`
	Username string `json:"username"`
	PlayerID int64  `json:"pid"`
}

// ProfileDataMsg returns persistent stats
type ProfileDataMsg struct {
	Username       string              `json:"username"`
	Level          int                 `json:"level"`
	XP             int                 `json:"xp"`
	XPToNext       int                 `json:"xp_next"`
	Credits        int                 `json:"credits"`
	BoardsWon      int                 `json:"wins"`
	BoardsLost     int                 `json:"losses"`
	SentriesKilled int                 `json:"kills"`
	SentriesFled   int                 `json:"fled"`
	Playtime       float64             `json:"playtime"`
	History        []BoardHistoryEntry `json:"history,omitempty"`
}

// BoardHistoryEntry is one past board attempt in the profile payload
type BoardHistoryEntry struct {
	Difficulty int  `json:"difficulty"`
	Won        bool `json:"won"`
	Score      int  `json:"score"`
	Kills      int  `json:"kills"`
	Fled       int  `json:"fled"`
	Credits    int  `json:"credits"`
	XP         int  `json:"xp"`
}

// SessionInfo is used in the session list
type SessionInfo struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Players int    `json:"players"`
}

// ErrorMsg sends an error to the client
type ErrorMsg struct {
	Msg string `json:"msg"`
}

// WelcomeMsg is sent to a player when they join
type WelcomeMsg struct {
	ID   string `json:"id"`
	Seed uint32 `json:"seed"`
}

// RolledMsg reports a movement roll and the open directions
type RolledMsg struct {
	Roll       int   `json:"roll"`
	Steps      int   `json:"steps"`
	Directions []int `json:"dirs"`
}

// MovedMsg reports a traced path and its termination reason
type MovedMsg struct {
	Path          []string `json:"path"`
	BlockedBy     string   `json:"blocked,omitempty"`
	HitBlackHole  bool     `json:"hole,omitempty"`
	ReachedTarget bool     `json:"goal,omitempty"`
	StepsLeft     int      `json:"left"`
	PowerUps      []string `json:"powerups,omitempty"` // vertex ids collected along the path
}

// EngagementMsg prompts the player about a zone entry
type EngagementMsg struct {
	EntityID string `json:"eid"`
	Zone     int    `json:"zone"` // 0=vision, 1=proximity
	Position int    `json:"pos"`  // 1-6 approach clock position
}

// AttackReport is one combat attack in wire form
type AttackReport struct {
	Player    bool   `json:"player"`
	Roll      int    `json:"roll"`
	Bonus     int    `json:"bonus,omitempty"`
	Hit       bool   `json:"hit"`
	Target    string `json:"target,omitempty"`
	Destroyed bool   `json:"destroyed,omitempty"`
}

// CombatMsg reports the attacks resolved since the player's last action
type CombatMsg struct {
	Attacks []AttackReport `json:"attacks"`
	Turn    int            `json:"turn"`
	Result  int            `json:"result"` // CombatResult, 0 while running
}

// BoardOverMsg reports the end of a board
type BoardOverMsg struct {
	Won     bool `json:"won"`
	Score   int  `json:"score"`
	Credits int  `json:"credits"`
	XP      int  `json:"xp"`
	Cleared bool `json:"cleared"` // whole campaign won
}

// --- state snapshot (msgpack binary) ---

// ComponentState mirrors one installed ship component
type ComponentState struct {
	Name    string `msgpack:"n" json:"n"`
	Kind    int    `msgpack:"k" json:"k"`
	Power   int    `msgpack:"p" json:"p"`
	HP      int    `msgpack:"hp" json:"hp"`
	MaxHP   int    `msgpack:"mhp" json:"mhp"`
	Damage  int    `msgpack:"dmg" json:"dmg"`
	Speed   int    `msgpack:"spd" json:"spd"`
	Evasion int    `msgpack:"ev" json:"ev"`
}

// SentryState mirrors one placed sentry
type SentryState struct {
	ID     string `msgpack:"id" json:"id"`
	Vertex string `msgpack:"v" json:"v"`
	Value  int    `msgpack:"val" json:"val"`
	Facing int    `msgpack:"f" json:"f"`
	Range  int    `msgpack:"r" json:"r"`
}

// ZoneState mirrors one zone entry
type ZoneState struct {
	Vertex   string `msgpack:"v" json:"v"`
	EntityID string `msgpack:"eid" json:"eid"`
	Kind     int    `msgpack:"k" json:"k"`
}

// RunState is the full per-player snapshot, msgpack-encoded and sent as a
// binary frame after every state change.
type RunState struct {
	Phase        int              `msgpack:"ph" json:"ph"`
	Row          int              `msgpack:"row" json:"row"`
	Col          int              `msgpack:"col" json:"col"`
	Pos          string           `msgpack:"pos" json:"pos"`
	Start        string           `msgpack:"start" json:"start"`
	Target       string           `msgpack:"tgt" json:"tgt"`
	Roll         int              `msgpack:"roll" json:"roll"`
	StepsLeft    int              `msgpack:"left" json:"left"`
	Score        int              `msgpack:"score" json:"score"`
	BonusAttacks int              `msgpack:"bonus" json:"bonus"`
	Ship         []ComponentState `msgpack:"ship" json:"ship"`
	Obstacles    []string         `msgpack:"obs" json:"obs"`
	BlackHoles   []string         `msgpack:"holes" json:"holes"`
	PowerUps     []string         `msgpack:"pow" json:"pow"`
	Sentries     []SentryState    `msgpack:"sen" json:"sen"`
	Zones        []ZoneState      `msgpack:"zones" json:"zones"`
	Campaign     *Campaign        `msgpack:"camp" json:"camp"`
}
