package main

import (
	"database/sql"
	"log"
	"sync"
	"time"
)

// Event types recorded per player action.
const (
	EvtBoardStart   = "board_start"
	EvtBoardEnd     = "board_end"
	EvtCombatWin    = "combat_win"
	EvtCombatFlee   = "combat_flee"
	EvtCombatEscape = "combat_escape"
	EvtPurchase     = "purchase"
	EvtAchievement  = "achievement"
	EvtSessionStart = "session_start"
	EvtSessionEnd   = "session_end"
	EvtLevelUp      = "level_up"
)

const (
	eventQueueSize = 1024
	flushBatchSize = 50
	flushInterval  = 5 * time.Second
)

// AnalyticsEvent is one queued event awaiting persistence.
type AnalyticsEvent struct {
	Type      string
	PlayerID  int64
	SessionID string
	Data      string // optional JSON payload
	Timestamp time.Time
}

// BoardAnalytics aggregates board attempts per difficulty.
type BoardAnalytics struct {
	Difficulty int     `json:"difficulty"`
	Count      int     `json:"count"`
	WinRate    float64 `json:"win_rate"`
}

// ItemAnalytics counts purchases of one catalog item.
type ItemAnalytics struct {
	ItemID string `json:"item_id"`
	Count  int    `json:"count"`
}

// DayCount is a per-day distinct-player count.
type DayCount struct {
	Day   string `json:"day"`
	Count int    `json:"count"`
}

// Analytics queues events from the message handlers and persists them in
// batches from a background goroutine, so a slow disk never stalls a turn.
// It also carries the live gauges the metrics endpoint reads.
type Analytics struct {
	db     *DB
	events chan AnalyticsEvent
	stop   chan struct{}
	wg     sync.WaitGroup

	mu              sync.RWMutex
	concurrentPeers int
	activeSessions  int
}

// NewAnalytics starts the background writer.
func NewAnalytics(db *DB) *Analytics {
	a := &Analytics{
		db:     db,
		events: make(chan AnalyticsEvent, eventQueueSize),
		stop:   make(chan struct{}),
	}
	a.wg.Add(1)
	go a.writer()
	return a
}

// Track queues an event. If the queue is full the event is dropped; losing
// an analytics row is cheaper than blocking a handler.
func (a *Analytics) Track(evtType string, playerID int64, sessionID string, data string) {
	evt := AnalyticsEvent{
		Type:      evtType,
		PlayerID:  playerID,
		SessionID: sessionID,
		Data:      data,
		Timestamp: time.Now().UTC(),
	}
	select {
	case a.events <- evt:
	default:
	}
}

// SetConcurrentPeers updates the live connection gauge.
func (a *Analytics) SetConcurrentPeers(n int) {
	a.mu.Lock()
	a.concurrentPeers = n
	a.mu.Unlock()
}

// SetActiveSessions updates the live session gauge.
func (a *Analytics) SetActiveSessions(n int) {
	a.mu.Lock()
	a.activeSessions = n
	a.mu.Unlock()
}

// GetLiveMetrics returns the current peer and session gauges.
func (a *Analytics) GetLiveMetrics() (peers, sessions int) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.concurrentPeers, a.activeSessions
}

// Stop flushes queued events and waits for the writer to exit.
func (a *Analytics) Stop() {
	close(a.stop)
	a.wg.Wait()
}

func (a *Analytics) writer() {
	defer a.wg.Done()

	batch := make([]AnalyticsEvent, 0, flushBatchSize)
	ticker := time.NewTicker(flushInterval)
	defer ticker.Stop()

	for {
		select {
		case evt := <-a.events:
			batch = append(batch, evt)
			if len(batch) < flushBatchSize {
				continue
			}
		case <-ticker.C:
			if len(batch) == 0 {
				continue
			}
		case <-a.stop:
			// The channel stays open so a straggler Track during shutdown
			// lands in the buffer instead of panicking.
		drain:
			for {
				select {
				case evt := <-a.events:
					batch = append(batch, evt)
				default:
					break drain
				}
			}
			a.flush(batch)
			return
		}
		a.flush(batch)
		batch = batch[:0]
	}
}

func (a *Analytics) flush(events []AnalyticsEvent) {
	if a.db == nil || len(events) == 0 {
		return
	}
	tx, err := a.db.conn.Begin()
	if err != nil {
		log.Printf("analytics: begin tx: %v", err)
		return
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`INSERT INTO analytics_events (event_type, player_id, session_id, data, created_at) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		log.Printf("analytics: prepare: %v", err)
		return
	}
	defer stmt.Close()

	for _, evt := range events {
		pid := sql.NullInt64{Int64: evt.PlayerID, Valid: evt.PlayerID > 0}
		sid := sql.NullString{String: evt.SessionID, Valid: evt.SessionID != ""}
		data := sql.NullString{String: evt.Data, Valid: evt.Data != ""}
		if _, err := stmt.Exec(evt.Type, pid, sid, data, evt.Timestamp.Format(time.RFC3339)); err != nil {
			log.Printf("analytics: insert: %v", err)
		}
	}
	tx.Commit()
}

// activeSince counts distinct players with any event since the given SQLite
// date modifier ("" for today).
func (a *Analytics) activeSince(modifier string) (int, error) {
	if a.db == nil {
		return 0, nil
	}
	var count int
	err := a.db.conn.QueryRow(`
		SELECT COUNT(DISTINCT player_id) FROM analytics_events
		WHERE player_id IS NOT NULL AND created_at >= date('now', ?)
	`, modifier).Scan(&count)
	return count, err
}

// DAUCount returns distinct players active today.
func (a *Analytics) DAUCount() (int, error) { return a.activeSince("+0 days") }

// WAUCount returns distinct players active in the last 7 days.
func (a *Analytics) WAUCount() (int, error) { return a.activeSince("-7 days") }

// MAUCount returns distinct players active in the last 30 days.
func (a *Analytics) MAUCount() (int, error) { return a.activeSince("-30 days") }

// BoardStats returns attempt counts and win rates per difficulty over the
// last N days, from the board_end event payloads.
func (a *Analytics) BoardStats(days int) ([]BoardAnalytics, error) {
	if a.db == nil {
		return nil, nil
	}
	rows, err := a.db.conn.Query(`
		SELECT COALESCE(json_extract(data, '$.difficulty'), 0) as diff,
			COUNT(*) as cnt,
			AVG(CAST(
				CASE WHEN json_valid(data) THEN json_extract(data, '$.won') ELSE NULL END
			AS REAL)) as win_rate
		FROM analytics_events
		WHERE event_type = ? AND created_at >= date('now', '-' || ? || ' days')
		GROUP BY diff ORDER BY diff
	`, EvtBoardEnd, days)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []BoardAnalytics
	for rows.Next() {
		var b BoardAnalytics
		var winRate sql.NullFloat64
		if err := rows.Scan(&b.Difficulty, &b.Count, &winRate); err != nil {
			continue
		}
		b.WinRate = winRate.Float64
		result = append(result, b)
	}
	return result, rows.Err()
}

// EventCounts returns per-type event counts over the last N days.
func (a *Analytics) EventCounts(days int) (map[string]int, error) {
	if a.db == nil {
		return nil, nil
	}
	rows, err := a.db.conn.Query(`
		SELECT event_type, COUNT(*) FROM analytics_events
		WHERE created_at >= date('now', '-' || ? || ' days')
		GROUP BY event_type ORDER BY COUNT(*) DESC
	`, days)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make(map[string]int)
	for rows.Next() {
		var evtType string
		var count int
		if err := rows.Scan(&evtType, &count); err != nil {
			continue
		}
		result[evtType] = count
	}
	return result, rows.Err()
}

// PopularPurchases returns the most-bought components.
func (a *Analytics) PopularPurchases(limit int) ([]ItemAnalytics, error) {
	if a.db == nil {
		return nil, nil
	}
	rows, err := a.db.conn.Query(`
		SELECT COALESCE(json_extract(data, '$.item_id'), 'unknown') as item, COUNT(*) as cnt
		FROM analytics_events
		WHERE event_type = ? AND json_valid(data)
		GROUP BY item ORDER BY cnt DESC LIMIT ?
	`, EvtPurchase, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []ItemAnalytics
	for rows.Next() {
		var ia ItemAnalytics
		if err := rows.Scan(&ia.ItemID, &ia.Count); err != nil {
			continue
		}
		result = append(result, ia)
	}
	return result, rows.Err()
}

// DailyActiveHistory returns the DAU series for the last N days.
func (a *Analytics) DailyActiveHistory(days int) ([]DayCount, error) {
	if a.db == nil {
		return nil, nil
	}
	rows, err := a.db.conn.Query(`
		SELECT date(created_at) as day, COUNT(DISTINCT player_id)
		FROM analytics_events
		WHERE player_id IS NOT NULL AND created_at >= date('now', '-' || ? || ' days')
		GROUP BY day ORDER BY day
	`, days)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []DayCount
	for rows.Next() {
		var dc DayCount
		if err := rows.Scan(&dc.Day, &dc.Count); err != nil {
			continue
		}
		result = append(result, dc)
	}
	return result, rows.Err()
}
