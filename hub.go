package main

import "sync"

const (
	maxConnsPerIP = 5
	maxTotalConns = 1000
)

// Hub owns the connected-client set and the session registry, and feeds the
// live gauges of the analytics collector.
type Hub struct {
	mu         sync.RWMutex
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	sessions   *SessionManager

	// Connection slots, accounted per IP. Guarded separately because the
	// HTTP upgrade handler touches them before a Client exists.
	slotMu     sync.Mutex
	ipConns    map[string]int
	totalConns int

	db        *DB
	auth      *Auth
	analytics *Analytics

	// Authenticated players currently connected: account id -> client.
	onlineMu    sync.RWMutex
	onlineUsers map[int64]*Client
}

// NewHub wires a hub to its database, auth and analytics collaborators.
func NewHub(db *DB) *Hub {
	return &Hub{
		clients:     make(map[*Client]bool),
		register:    make(chan *Client, 64),
		unregister:  make(chan *Client, 64),
		sessions:    NewSessionManager(),
		ipConns:     make(map[string]int),
		db:          db,
		auth:        NewAuth(db),
		analytics:   NewAnalytics(db),
		onlineUsers: make(map[int64]*Client),
	}
}

// AcquireSlot claims a connection slot for an IP. Returns false when either
// the per-IP or the global ceiling is hit; the caller must not upgrade.
func (h *Hub) AcquireSlot(ip string) bool {
	h.slotMu.Lock()
	defer h.slotMu.Unlock()
	if h.totalConns >= maxTotalConns || h.ipConns[ip] >= maxConnsPerIP {
		return false
	}
	h.ipConns[ip]++
	h.totalConns++
	return true
}

// ReleaseSlot returns a connection slot claimed by AcquireSlot.
func (h *Hub) ReleaseSlot(ip string) {
	h.slotMu.Lock()
	defer h.slotMu.Unlock()
	h.ipConns[ip]--
	if h.ipConns[ip] <= 0 {
		delete(h.ipConns, ip)
	}
	h.totalConns--
}

// Run processes register/unregister events.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			h.mu.Unlock()
			if client.sessionID != "" {
				h.sessions.RemovePlayer(client.sessionID, client.playerID)
			}
			if client.authPlayerID != 0 {
				h.SetOffline(client.authPlayerID)
			}
		}
		h.analytics.SetConcurrentPeers(h.ClientCount())
		h.analytics.SetActiveSessions(h.sessions.Count())
	}
}

// SetOnline marks an authenticated account as connected.
func (h *Hub) SetOnline(playerID int64, client *Client) {
	h.onlineMu.Lock()
	defer h.onlineMu.Unlock()
	h.onlineUsers[playerID] = client
}

// SetOffline clears an authenticated account's connection.
func (h *Hub) SetOffline(playerID int64) {
	h.onlineMu.Lock()
	defer h.onlineMu.Unlock()
	delete(h.onlineUsers, playerID)
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
