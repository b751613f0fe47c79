package main

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

const (
	tokenTTL        = 7 * 24 * time.Hour
	bcryptCost      = 12
	minPasswordLen  = 4
	minUsernameLen  = 2
	maxUsernameLen  = 16
	loginWindow     = 60 * time.Second
	loginAttemptCap = 10

	secretSettingKey = "jwt_secret"
)

// accountClaims is the JWT payload for a signed-in commander.
type accountClaims struct {
	PlayerID int64  `json:"pid"`
	Username string `json:"usr"`
	jwt.RegisteredClaims
}

// Auth issues and validates account tokens. The signing secret is persisted
// in the settings table so tokens survive a server restart.
type Auth struct {
	db     *DB
	secret []byte

	mu       sync.Mutex
	failures map[string]*loginWindowEntry // keyed by client IP
}

type loginWindowEntry struct {
	count   int
	resetAt time.Time
}

// NewAuth builds an Auth handler, loading or minting the signing secret.
func NewAuth(db *DB) *Auth {
	return &Auth{
		db:       db,
		secret:   loadOrCreateSecret(db),
		failures: make(map[string]*loginWindowEntry),
	}
}

func loadOrCreateSecret(db *DB) []byte {
	if db != nil {
		if h := db.GetSetting(secretSettingKey); h != "" {
			if b, err := hex.DecodeString(h); err == nil && len(b) == 32 {
				return b
			}
		}
	}
	secret := make([]byte, 32)
	if _, err := rand.Read(secret); err != nil {
		panic("failed to generate signing secret: " + err.Error())
	}
	if db != nil {
		if err := db.SetSetting(secretSettingKey, hex.EncodeToString(secret)); err != nil {
			log.Printf("warning: could not persist signing secret: %v", err)
		}
	}
	return secret
}

// Register creates a new account and signs the commander in.
func (a *Auth) Register(username, password string) (int64, string, error) {
	username = strings.TrimSpace(username)
	if len(username) < minUsernameLen || len(username) > maxUsernameLen {
		return 0, "", fmt.Errorf("username must be %d-%d characters", minUsernameLen, maxUsernameLen)
	}
	if len(password) < minPasswordLen {
		return 0, "", fmt.Errorf("password must be at least %d characters", minPasswordLen)
	}

	exists, err := a.db.UsernameExists(username)
	if err != nil {
		return 0, "", fmt.Errorf("database error")
	}
	if exists {
		return 0, "", fmt.Errorf("username already taken")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return 0, "", fmt.Errorf("internal error")
	}
	id, err := a.db.CreatePlayer(username, "", string(hash))
	if err != nil {
		return 0, "", fmt.Errorf("failed to create account")
	}

	token, err := a.signToken(id, username)
	if err != nil {
		return 0, "", fmt.Errorf("internal error")
	}
	return id, token, nil
}

// Login verifies credentials and returns a fresh token. Failed attempts are
// rate limited per IP.
func (a *Auth) Login(username, password, ip string) (int64, string, error) {
	if !a.allowAttempt(ip) {
		return 0, "", fmt.Errorf("too many login attempts, try again later")
	}

	player, err := a.db.GetPlayerByUsername(username)
	if err != nil {
		return 0, "", fmt.Errorf("database error")
	}
	if player == nil || player.PassHash == "" ||
		bcrypt.CompareHashAndPassword([]byte(player.PassHash), []byte(password)) != nil {
		return 0, "", fmt.Errorf("invalid username or password")
	}

	token, err := a.signToken(player.ID, player.Username)
	if err != nil {
		return 0, "", fmt.Errorf("internal error")
	}
	return player.ID, token, nil
}

// ValidateToken checks a token and returns the account it names.
func (a *Auth) ValidateToken(tokenStr string) (int64, string, error) {
	var claims accountClaims
	token, err := jwt.ParseWithClaims(tokenStr, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method")
		}
		return a.secret, nil
	})
	if err != nil {
		return 0, "", err
	}
	if !token.Valid || claims.PlayerID == 0 || claims.Username == "" {
		return 0, "", fmt.Errorf("invalid token")
	}
	return claims.PlayerID, claims.Username, nil
}

func (a *Auth) signToken(playerID int64, username string) (string, error) {
	now := time.Now()
	claims := accountClaims{
		PlayerID: playerID,
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(tokenTTL)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
}

// allowAttempt counts login attempts per IP in a fixed window.
func (a *Auth) allowAttempt(ip string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	now := time.Now()
	e, ok := a.failures[ip]
	if !ok || now.After(e.resetAt) {
		a.failures[ip] = &loginWindowEntry{count: 1, resetAt: now.Add(loginWindow)}
		return true
	}
	e.count++
	return e.count <= loginAttemptCap
}

// GenerateGuestName mints a throwaway pilot name like "Pilot_a3f2".
func GenerateGuestName() string {
	b := make([]byte, 2)
	rand.Read(b)
	return "Pilot_" + hex.EncodeToString(b)
}
