package main

import (
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait         = 10 * time.Second
	pongWait          = 60 * time.Second
	pingPeriod        = (pongWait * 9) / 10
	maxMessageSize    = 4096
	sendBufSize       = 256
	maxMessagesPerSec = 50
	maxNameLen        = 16
)

// Client represents a WebSocket connection
type Client struct {
	hub        *Hub
	conn       *websocket.Conn
	send       chan []byte
	playerID   string
	sessionID  string
	remoteAddr string
	msgCount   int
	msgResetAt time.Time
	boardStart time.Time
	// Auth state
	authPlayerID int64  // 0 = unauthenticated/guest
	authUsername string // "" = unauthenticated
}

// NewClient creates a new Client
func NewClient(hub *Hub, conn *websocket.Conn, remoteAddr string) *Client {
	return &Client{
		hub:        hub,
		conn:       conn,
		send:       make(chan []byte, sendBufSize),
		remoteAddr: remoteAddr,
	}
}

// ReadPump reads messages from the WebSocket connection
func (c *Client) ReadPump() {
	defer func() {
		c.hub.ReleaseSlot(c.remoteAddr)
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("ws error: %v", err)
			}
			break
		}

		// Rate limiting
		now := time.Now()
		if now.After(c.msgResetAt) {
			c.msgCount = 0
			c.msgResetAt = now.Add(time.Second)
		}
		c.msgCount++
		if c.msgCount > maxMessagesPerSec {
			log.Printf("rate limit exceeded for %s, disconnecting", c.remoteAddr)
			break
		}

		c.handleMessage(message)
	}
}

// WritePump writes messages to the WebSocket connection
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			// Check for binary marker (0xFF prefix from SendBinary)
			var err error
			if len(message) > 0 && message[0] == 0xFF {
				err = c.conn.WriteMessage(websocket.BinaryMessage, message[1:])
			} else {
				err = c.conn.WriteMessage(websocket.TextMessage, message)
			}
			if err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// SendJSON sends a JSON message to the client
func (c *Client) SendJSON(msg interface{}) {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Printf("marshal error: %v", err)
		return
	}
	c.SendRaw(data)
}

// SendRaw sends pre-marshaled bytes as a text message to the client
func (c *Client) SendRaw(data []byte) {
	defer func() { recover() }()
	select {
	case c.send <- data:
	default:
		// Client too slow, drop message
	}
}

// SendBinary sends pre-marshaled bytes as a binary WebSocket message
// Prefixes with 0xFF marker byte so WritePump can distinguish from text
func (c *Client) SendBinary(data []byte) {
	defer func() { recover() }()
	msg := make([]byte, len(data)+1)
	msg[0] = 0xFF // binary marker
	copy(msg[1:], data)
	select {
	case c.send <- msg:
	default:
	}
}

func (c *Client) sendError(text string) {
	c.SendJSON(Envelope{T: MsgError, Data: ErrorMsg{Msg: text}})
}

// game returns the game for the client's current session, nil when not joined
func (c *Client) game() *Game {
	if c.sessionID == "" || c.playerID == "" {
		return nil
	}
	sess := c.hub.sessions.GetSession(c.sessionID)
	if sess == nil {
		return nil
	}
	sess.MarkActive()
	return sess.Game
}

// handleMessage routes incoming messages (single-pass decode via InEnvelope)
func (c *Client) handleMessage(raw []byte) {
	var env InEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		log.Printf("unmarshal error: %v", err)
		return
	}

	switch env.T {
	case MsgList:
		c.handleList()
	case MsgCreate:
		c.handleCreate(env.D)
	case MsgJoin:
		c.handleJoin(env.D)
	case MsgLeave:
		c.handleLeave()
	case MsgCheck:
		c.handleCheck(env.D)
	case MsgSelect:
		c.handleSelect(env.D)
	case MsgRoll:
		c.handleRoll()
	case MsgMove:
		c.handleMove(env.D)
	case MsgEngage:
		c.handleEngage(env.D)
	case MsgAttack:
		c.handleAttack(env.D)
	case MsgEscape:
		c.handleEscape()
	case MsgShop:
		c.handleShop()
	case MsgBuy:
		c.handleBuy(env.D)
	case MsgRegister:
		c.handleRegister(env.D)
	case MsgLogin:
		c.handleLogin(env.D)
	case MsgAuth:
		c.handleAuth(env.D)
	case MsgProfile:
		c.handleProfile()
	}
}

func (c *Client) handleList() {
	sessions := c.hub.sessions.ListSessions()
	c.SendJSON(Envelope{T: MsgSessions, Data: sessions})
}

func (c *Client) handleCreate(data json.RawMessage) {
	var msg CreateMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		return
	}
	sname := msg.SessionName
	if sname == "" {
		sname = "New Expedition"
	}
	if len(sname) > 30 {
		sname = sname[:30]
	}

	sess := c.hub.sessions.CreateSession(sname, msg.Seed)
	if sess == nil {
		c.sendError("too many active sessions")
		return
	}

	c.SendJSON(Envelope{T: MsgCreated, Data: map[string]string{"sid": sess.ID}})
}

func (c *Client) handleJoin(data json.RawMessage) {
	var msg JoinMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		return
	}
	name := msg.Name
	if name == "" {
		name = GenerateGuestName()
	}
	if len(name) > maxNameLen {
		name = name[:maxNameLen]
	}

	sess := c.hub.sessions.GetSession(msg.SessionID)
	if sess == nil {
		c.sendError("session not found")
		return
	}

	run := sess.Game.AddPlayer(name)
	if run == nil {
		c.sendError("session full")
		return
	}
	sess.MarkActive()
	c.playerID = run.PlayerID
	c.sessionID = sess.ID

	sess.Game.SetClient(run.PlayerID, c)
	c.restoreCampaign()

	c.hub.analytics.Track(EvtSessionStart, c.authPlayerID, sess.ID, "")
	c.SendJSON(Envelope{T: MsgJoined, Data: map[string]string{"sid": sess.ID}})
	c.SendJSON(Envelope{T: MsgWelcome, Data: WelcomeMsg{ID: run.PlayerID, Seed: sess.Game.Seed()}})
}

func (c *Client) handleCheck(data json.RawMessage) {
	var msg CheckMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		return
	}
	sess := c.hub.sessions.GetSession(msg.SID)
	if sess == nil {
		c.SendJSON(Envelope{T: MsgChecked, Data: CheckedMsg{SID: msg.SID, Exists: false}})
		return
	}
	c.SendJSON(Envelope{T: MsgChecked, Data: CheckedMsg{
		SID:     msg.SID,
		Exists:  true,
		Name:    sess.Name,
		Players: sess.Game.PlayerCount(),
	}})
}

func (c *Client) handleLeave() {
	if c.sessionID != "" {
		c.hub.analytics.Track(EvtSessionEnd, c.authPlayerID, c.sessionID, "")
		c.hub.sessions.RemovePlayer(c.sessionID, c.playerID)
		c.sessionID = ""
		c.playerID = ""
	}
}

func (c *Client) handleSelect(data json.RawMessage) {
	var msg SelectMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		return
	}
	game := c.game()
	if game == nil {
		c.sendError("not in a session")
		return
	}
	if err := game.SelectBoard(c.playerID, msg.Row, msg.Col); err != nil {
		c.sendError(err.Error())
		return
	}
	c.boardStart = time.Now()
	c.hub.analytics.Track(EvtBoardStart, c.authPlayerID, c.sessionID, "")
}

func (c *Client) handleRoll() {
	game := c.game()
	if game == nil {
		c.sendError("not in a session")
		return
	}
	rolled, over, err := game.RollDice(c.playerID)
	if err != nil {
		c.sendError(err.Error())
		return
	}
	if over != nil {
		c.finishBoard(game, over)
		return
	}
	c.SendJSON(Envelope{T: MsgRolled, Data: rolled})
}

func (c *Client) handleMove(data json.RawMessage) {
	var msg MoveMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		return
	}
	game := c.game()
	if game == nil {
		c.sendError("not in a session")
		return
	}
	moved, prompt, over, err := game.Move(c.playerID, msg.Dir)
	if err != nil {
		c.sendError(err.Error())
		return
	}
	c.SendJSON(Envelope{T: MsgMoved, Data: moved})
	if prompt != nil {
		c.SendJSON(Envelope{T: MsgEngagement, Data: *prompt})
	}
	if over != nil {
		c.finishBoard(game, over)
	}
}

func (c *Client) handleEngage(data json.RawMessage) {
	var msg EngageMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		return
	}
	game := c.game()
	if game == nil {
		c.sendError("not in a session")
		return
	}
	combat, over, err := game.Engage(c.playerID, msg.Accept)
	if err != nil {
		c.sendError(err.Error())
		return
	}
	if combat != nil {
		c.trackCombat(combat.Result)
		c.SendJSON(Envelope{T: MsgCombat, Data: *combat})
	}
	if over != nil {
		c.finishBoard(game, over)
	}
}

func (c *Client) handleAttack(data json.RawMessage) {
	var msg AttackMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		return
	}
	game := c.game()
	if game == nil {
		c.sendError("not in a session")
		return
	}
	combat, over, err := game.CombatAttack(c.playerID, msg.Target)
	if err != nil {
		c.sendError(err.Error())
		return
	}
	c.trackCombat(combat.Result)
	c.SendJSON(Envelope{T: MsgCombat, Data: *combat})
	if over != nil {
		c.finishBoard(game, over)
	}
}

func (c *Client) handleEscape() {
	game := c.game()
	if game == nil {
		c.sendError("not in a session")
		return
	}
	combat, over, err := game.CombatEscape(c.playerID)
	if err != nil {
		c.sendError(err.Error())
		return
	}
	c.trackCombat(combat.Result)
	c.SendJSON(Envelope{T: MsgCombat, Data: *combat})
	if over != nil {
		c.finishBoard(game, over)
	}
}

func (c *Client) handleShop() {
	c.SendJSON(Envelope{T: MsgCatalog, Data: StoreCatalog})
}

func (c *Client) handleBuy(data json.RawMessage) {
	var msg BuyMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		return
	}
	if c.authPlayerID == 0 {
		c.sendError("sign in to purchase components")
		return
	}
	game := c.game()
	if game == nil {
		c.sendError("not in a session")
		return
	}
	item, ok := StoreCatalogMap[msg.ItemID]
	if !ok {
		c.sendError("unknown item")
		return
	}

	paid, err := c.hub.db.SpendCredits(c.authPlayerID, item.Price)
	if err != nil {
		c.sendError("purchase failed")
		return
	}
	if !paid {
		c.sendError("not enough credits")
		return
	}
	if err := game.InstallComponent(c.playerID, item.BuildComponent()); err != nil {
		c.hub.db.AddCredits(c.authPlayerID, item.Price)
		c.sendError(err.Error())
		return
	}

	c.hub.analytics.Track(EvtPurchase, c.authPlayerID, c.sessionID,
		fmt.Sprintf(`{"item_id":%q,"price":%d}`, item.ID, item.Price))
	c.SendJSON(Envelope{T: MsgBought, Data: item})
}

// trackCombat records terminal combat outcomes
func (c *Client) trackCombat(result int) {
	switch CombatResult(result) {
	case ResultPlayerWin:
		c.hub.analytics.Track(EvtCombatWin, c.authPlayerID, c.sessionID, "")
	case ResultSentryFled:
		c.hub.analytics.Track(EvtCombatFlee, c.authPlayerID, c.sessionID, "")
	case ResultEscaped:
		c.hub.analytics.Track(EvtCombatEscape, c.authPlayerID, c.sessionID, "")
	}
}

// finishBoard awards credits and XP, persists results for authenticated
// players and sends the board-over message.
func (c *Client) finishBoard(game *Game, over *BoardOverMsg) {
	run := game.Run(c.playerID)
	if run == nil {
		return
	}
	difficulty := 1
	if desc := run.Campaign.Board(run.Row, run.Col); desc != nil {
		difficulty = desc.Difficulty
	}
	over.Credits = CreditsPerBoard(difficulty, over.Score, run.Kills, over.Won)
	over.XP = XPPerBoard(difficulty, over.Score, run.Kills, over.Won)

	if c.authPlayerID != 0 && c.hub.db != nil {
		playtime := time.Since(c.boardStart).Seconds()
		oldStats, _ := c.hub.db.GetStats(c.authPlayerID)

		_, newLevel, err := c.hub.db.UpdateStatsAfterBoard(
			c.authPlayerID, run.Kills, run.Fled, over.Won, playtime, over.Credits, over.XP)
		if err != nil {
			log.Printf("stat update error for player %d: %v", c.authPlayerID, err)
		}
		if oldStats != nil && newLevel > oldStats.Level {
			c.hub.analytics.Track(EvtLevelUp, c.authPlayerID, c.sessionID,
				fmt.Sprintf(`{"level":%d}`, newLevel))
		}

		if err := c.hub.db.RecordBoardResult(c.authPlayerID, difficulty, over.Won,
			over.Score, run.Kills, run.Fled, over.Credits, over.XP); err != nil {
			log.Printf("board result error for player %d: %v", c.authPlayerID, err)
		}
		if blob, err := run.Campaign.Marshal(); err == nil {
			c.hub.db.SaveCampaign(c.authPlayerID, run.Campaign.Seed, blob)
		}

		unlocked := CheckAchievements(c.hub.db, c.authPlayerID, run.Kills, over.Won, over.Cleared)
		for _, def := range unlocked {
			c.hub.analytics.Track(EvtAchievement, c.authPlayerID, c.sessionID,
				fmt.Sprintf(`{"id":%q}`, def.ID))
			c.SendJSON(Envelope{T: MsgUnlocked, Data: def})
		}
	}

	c.hub.analytics.Track(EvtBoardEnd, c.authPlayerID, c.sessionID,
		fmt.Sprintf(`{"difficulty":%d,"won":%t,"score":%d}`, difficulty, over.Won, over.Score))
	c.SendJSON(Envelope{T: MsgBoardOver, Data: *over})
}

func (c *Client) handleRegister(data json.RawMessage) {
	if c.hub.auth == nil {
		return
	}
	var msg RegisterMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		return
	}
	id, token, err := c.hub.auth.Register(msg.Username, msg.Password)
	if err != nil {
		c.sendError(err.Error())
		return
	}
	c.authPlayerID = id
	c.authUsername = msg.Username
	c.hub.SetOnline(id, c)
	c.SendJSON(Envelope{T: MsgAuthOK, Data: AuthOKMsg{
		Token:    token,
		Username: msg.Username,
		PlayerID: id,
	}})
}

func (c *Client) handleLogin(data json.RawMessage) {
	if c.hub.auth == nil {
		return
	}
	var msg LoginMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		return
	}
	id, token, err := c.hub.auth.Login(msg.Username, msg.Password, c.remoteAddr)
	if err != nil {
		c.sendError(err.Error())
		return
	}
	c.authPlayerID = id
	c.authUsername = msg.Username
	c.hub.SetOnline(id, c)
	c.SendJSON(Envelope{T: MsgAuthOK, Data: AuthOKMsg{
		Token:    token,
		Username: msg.Username,
		PlayerID: id,
	}})
	c.restoreCampaign()
}

func (c *Client) handleAuth(data json.RawMessage) {
	if c.hub.auth == nil || c.hub.db == nil {
		return
	}
	var msg AuthMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		return
	}
	id, username, err := c.hub.auth.ValidateToken(msg.Token)
	if err != nil {
		c.sendError("invalid token")
		return
	}
	// The token may outlive the account row.
	if p, err := c.hub.db.GetPlayerByID(id); err != nil || p == nil {
		c.sendError("invalid token")
		return
	}
	c.authPlayerID = id
	c.authUsername = username
	c.hub.SetOnline(id, c)
	c.SendJSON(Envelope{T: MsgAuthOK, Data: AuthOKMsg{
		Token:    msg.Token,
		Username: username,
		PlayerID: id,
	}})
	c.restoreCampaign()
}

// restoreCampaign swaps an authenticated player's persisted campaign back in.
// A blob grown from a different session seed stays on disk untouched.
func (c *Client) restoreCampaign() {
	if c.hub.db == nil || c.authPlayerID == 0 {
		return
	}
	game := c.game()
	if game == nil {
		return
	}
	blob, err := c.hub.db.GetCampaign(c.authPlayerID)
	if err != nil || blob == nil {
		return
	}
	camp, err := LoadCampaign(blob)
	if err != nil {
		log.Printf("campaign restore error for player %d: %v", c.authPlayerID, err)
		return
	}
	game.RestoreCampaign(c.playerID, camp)
}

func (c *Client) handleProfile() {
	if c.hub.db == nil || c.authPlayerID == 0 {
		c.sendError("not authenticated")
		return
	}
	stats, err := c.hub.db.GetStats(c.authPlayerID)
	if err != nil || stats == nil {
		c.sendError("profile not found")
		return
	}
	var history []BoardHistoryEntry
	recent, err := c.hub.db.GetBoardHistory(c.authPlayerID, 10)
	if err != nil {
		log.Printf("board history error for player %d: %v", c.authPlayerID, err)
	}
	for _, r := range recent {
		history = append(history, BoardHistoryEntry{
			Difficulty: r.Difficulty,
			Won:        r.Won,
			Score:      r.Score,
			Kills:      r.Kills,
			Fled:       r.Fled,
			Credits:    r.Credits,
			XP:         r.XPEarned,
		})
	}
	c.SendJSON(Envelope{T: MsgProfileData, Data: ProfileDataMsg{
		Username:       c.authUsername,
		Level:          stats.Level,
		XP:             stats.XP,
		XPToNext:       XPToNextLevel(stats.Level),
		Credits:        stats.Credits,
		BoardsWon:      stats.BoardsWon,
		BoardsLost:     stats.BoardsLost,
		SentriesKilled: stats.SentriesKilled,
		SentriesFled:   stats.SentriesFled,
		Playtime:       stats.Playtime,
		History:        history,
	}})
}
