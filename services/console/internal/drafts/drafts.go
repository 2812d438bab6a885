// Package drafts is the chat-style generator behind the "draft a data
// contract" panel. It is deterministic: each user message is mined for rule
// candidates and the accumulated rules are rendered into structured contract
// content. Sessions live in memory and expire after a TTL.
package drafts

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"

	"govdesk/pkg/artifact"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("draft session not found")

type Message struct {
	Role    string    `json:"role"`
	Content string    `json:"content"`
	At      time.Time `json:"at"`
}

type Session struct {
	ID            string          `json:"id"`
	Messages      []Message       `json:"messages"`
	Rules         []artifact.Rule `json:"rules"`
	SuggestedName string          `json:"suggested_name"`
	ContentHash   string          `json:"content_hash"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// Content renders the session's rules as contract content, ready for the
// regular upload path.
func (s Session) Content() string {
	rules := s.Rules
	if rules == nil {
		rules = []artifact.Rule{}
	}
	b, _ := json.MarshalIndent(map[string]any{"rules": rules}, "", "  ")
	return string(b)
}

type Generator struct {
	mu       sync.Mutex
	ttl      time.Duration
	sessions map[string]*Session
	now      func() time.Time
}

func NewGenerator(ttl time.Duration) *Generator {
	return &Generator{
		ttl:      ttl,
		sessions: map[string]*Session{},
		now:      time.Now,
	}
}

func (g *Generator) Start(message string) Session {
	g.mu.Lock()
	defer g.mu.Unlock()
	now := g.now().UTC()
	s := &Session{
		ID:        "drf_" + uuid.NewString(),
		CreatedAt: now,
	}
	g.apply(s, message, now)
	g.sessions[s.ID] = s
	return s.clone()
}

// Append adds a user message to an existing session and extends the draft
// with any new rule candidates.
func (g *Generator) Append(id, message string) (Session, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	s, ok := g.sessions[id]
	if !ok {
		return Session{}, ErrNotFound
	}
	g.apply(s, message, g.now().UTC())
	return s.clone(), nil
}

func (g *Generator) Get(id string) (Session, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	s, ok := g.sessions[id]
	if !ok {
		return Session{}, ErrNotFound
	}
	return s.clone(), nil
}

// PurgeExpired drops sessions idle past the TTL and reports how many went.
func (g *Generator) PurgeExpired(now time.Time) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	purged := 0
	for id, s := range g.sessions {
		if now.Sub(s.UpdatedAt) > g.ttl {
			delete(g.sessions, id)
			purged++
		}
	}
	return purged
}

func (g *Generator) apply(s *Session, message string, now time.Time) {
	message = strings.TrimSpace(message)
	if message != "" {
		s.Messages = append(s.Messages, Message{Role: "user", Content: message, At: now})
		for _, clause := range extractClauses(message) {
			s.Rules = append(s.Rules, artifact.Rule{
				ID:        fmt.Sprintf("r%d", len(s.Rules)+1),
				Name:      slug(clause),
				Condition: clause,
			})
		}
	}
	if s.SuggestedName == "" && len(s.Rules) > 0 {
		s.SuggestedName = strings.ReplaceAll(s.Rules[0].Name, "_", " ")
	}
	s.ContentHash = sha256Hex([]byte(s.Content()))
	s.UpdatedAt = now
	reply := fmt.Sprintf("Draft has %d rule(s).", len(s.Rules))
	if len(s.Rules) == 0 {
		reply = "Describe the rules the contract should enforce, one per line."
	}
	s.Messages = append(s.Messages, Message{Role: "assistant", Content: reply, At: now})
}

func (s *Session) clone() Session {
	out := *s
	out.Messages = append([]Message(nil), s.Messages...)
	out.Rules = append([]artifact.Rule(nil), s.Rules...)
	return out
}

// extractClauses splits a chat message into rule candidates: one per line,
// with semicolons as secondary separators. Clauses too short to mean
// anything are dropped.
func extractClauses(message string) []string {
	var out []string
	for _, line := range strings.Split(message, "\n") {
		for _, clause := range strings.Split(line, ";") {
			clause = strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(clause), "-* \t"))
			if len(clause) < 3 {
				continue
			}
			out = append(out, clause)
		}
	}
	return out
}

var nonWordRe = regexp.MustCompile(`[^a-z0-9]+`)

func slug(clause string) string {
	s := nonWordRe.ReplaceAllString(strings.ToLower(clause), "_")
	s = strings.Trim(s, "_")
	if len(s) > 40 {
		s = strings.Trim(s[:40], "_")
	}
	if s == "" {
		s = "rule"
	}
	return s
}

func sha256Hex(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}
