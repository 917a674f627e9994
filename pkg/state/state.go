// Package state is the per-conversation state store: group settings,
// anti-link warning counters, and live game sessions. Everything except
// settings is ephemeral and lives in memory only; game sessions are
// evicted by a periodic sweep once they outlive their TTL.
package state

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"log/slog"
	"sync"
	"time"

	"github.com/vorte-labs/vorte/pkg/games"
)

const (
	// SweepInterval is how often expired sessions are scanned for eviction.
	SweepInterval = 5 * time.Minute

	// BoardTTL evicts tic-tac-toe and hangman sessions this long after
	// they were started.
	BoardTTL = time.Hour

	// QuizTTL evicts quiz sessions this long after they were started.
	QuizTTL = 5 * time.Minute
)

var (
	ErrGameInProgress = errors.New("a game of this kind is already running here")
	ErrNoGame         = errors.New("no game of this kind is running here")
)

// Settings are the per-conversation feature toggles.
type Settings struct {
	Welcome           bool `json:"welcome"`
	Goodbye           bool `json:"goodbye"`
	Antilink          bool `json:"antilink"`
	AutoReact         bool `json:"autoreact"`
	AutoTyping        bool `json:"autotyping"`
	AutoRecording     bool `json:"autorecording"`
	AutoStatusView    bool `json:"autostatusview"`
	AutoReactToStatus bool `json:"autoreacttostatus"`
}

// Session wraps a live game with its start time, which the sweep uses
// to expire it. Game holds one of *games.TicTacToe, *games.Hangman, or
// *games.Quiz depending on Kind.
type Session struct {
	Kind    games.Kind
	Game    any
	Started time.Time
}

// Eviction reports one session removed by a sweep.
type Eviction struct {
	Conversation string
	Kind         games.Kind
}

// SettingsSink receives the full settings map whenever it changes.
type SettingsSink interface {
	Persist(map[string]Settings) error
}

const shardCount = 16

type shard struct {
	mu            sync.Mutex
	conversations map[string]*convState
}

type convState struct {
	settings    Settings
	hasSettings bool
	warnings    map[string]int
	games       map[games.Kind]*Session
}

// Store holds all per-conversation state behind striped locks.
type Store struct {
	shards [shardCount]*shard
	sink   SettingsSink
	now    func() time.Time

	// OnEvict, when set, is called once per evicted session, outside
	// any shard lock.
	OnEvict func(Eviction)
}

// New creates a store. sink may be nil for fully ephemeral operation;
// seed preloads persisted settings.
func New(sink SettingsSink, seed map[string]Settings) *Store {
	s := &Store{sink: sink, now: time.Now}
	for i := range s.shards {
		s.shards[i] = &shard{conversations: make(map[string]*convState)}
	}
	for conv, set := range seed {
		cs := s.shardFor(conv).conv(conv)
		cs.settings = set
		cs.hasSettings = true
	}
	return s
}

func (s *Store) shardFor(conversation string) *shard {
	h := fnv.New32a()
	h.Write([]byte(conversation))
	return s.shards[h.Sum32()%shardCount]
}

// conv returns the conversation entry, creating it if absent. Caller
// must hold sh.mu or be inside single-threaded construction.
func (sh *shard) conv(conversation string) *convState {
	cs, ok := sh.conversations[conversation]
	if !ok {
		cs = &convState{
			warnings: make(map[string]int),
			games:    make(map[games.Kind]*Session),
		}
		sh.conversations[conversation] = cs
	}
	return cs
}

// --- Settings ---

// Get returns the settings for a conversation (zero value if unset).
func (s *Store) Get(conversation string) Settings {
	sh := s.shardFor(conversation)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	if cs, ok := sh.conversations[conversation]; ok {
		return cs.settings
	}
	return Settings{}
}

// Update applies fn to the conversation's settings and persists the
// result through the sink.
func (s *Store) Update(conversation string, fn func(*Settings)) error {
	sh := s.shardFor(conversation)
	sh.mu.Lock()
	cs := sh.conv(conversation)
	fn(&cs.settings)
	cs.hasSettings = true
	sh.mu.Unlock()
	return s.persist()
}

func (s *Store) persist() error {
	if s.sink == nil {
		return nil
	}
	snap := make(map[string]Settings)
	for _, sh := range s.shards {
		sh.mu.Lock()
		for conv, cs := range sh.conversations {
			if cs.hasSettings {
				snap[conv] = cs.settings
			}
		}
		sh.mu.Unlock()
	}
	if err := s.sink.Persist(snap); err != nil {
		return fmt.Errorf("persist settings: %w", err)
	}
	return nil
}

// --- Warnings ---

// Warn increments and returns the warning count for user in conversation.
func (s *Store) Warn(conversation, user string) int {
	sh := s.shardFor(conversation)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	cs := sh.conv(conversation)
	cs.warnings[user]++
	return cs.warnings[user]
}

// Warnings returns the current warning count without changing it.
func (s *Store) Warnings(conversation, user string) int {
	sh := s.shardFor(conversation)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	if cs, ok := sh.conversations[conversation]; ok {
		return cs.warnings[user]
	}
	return 0
}

// ClearWarnings resets the count for user in conversation.
func (s *Store) ClearWarnings(conversation, user string) {
	sh := s.shardFor(conversation)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	if cs, ok := sh.conversations[conversation]; ok {
		delete(cs.warnings, user)
	}
}

// --- Game sessions ---

// StartGame registers a new session. At most one session per (conversation,
// kind) may exist at a time.
func (s *Store) StartGame(conversation string, kind games.Kind, game any) error {
	sh := s.shardFor(conversation)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	cs := sh.conv(conversation)
	if _, exists := cs.games[kind]; exists {
		return ErrGameInProgress
	}
	cs.games[kind] = &Session{Kind: kind, Game: game, Started: s.now()}
	return nil
}

// Mutate runs fn over the live session under the shard lock, so engine
// calls never race. fn returning end=true removes the session. Moves do
// not extend a session's life; the TTL runs from Started.
func (s *Store) Mutate(conversation string, kind games.Kind, fn func(*Session) (end bool, err error)) error {
	sh := s.shardFor(conversation)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	cs, ok := sh.conversations[conversation]
	if !ok {
		return ErrNoGame
	}
	sess, ok := cs.games[kind]
	if !ok {
		return ErrNoGame
	}
	end, err := fn(sess)
	if end {
		delete(cs.games, kind)
	}
	return err
}

// EndGame removes a session unconditionally, reporting whether one existed.
func (s *Store) EndGame(conversation string, kind games.Kind) bool {
	sh := s.shardFor(conversation)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	cs, ok := sh.conversations[conversation]
	if !ok {
		return false
	}
	if _, ok := cs.games[kind]; !ok {
		return false
	}
	delete(cs.games, kind)
	return true
}

// ActiveGames counts live sessions across all conversations.
func (s *Store) ActiveGames() int {
	n := 0
	for _, sh := range s.shards {
		sh.mu.Lock()
		for _, cs := range sh.conversations {
			n += len(cs.games)
		}
		sh.mu.Unlock()
	}
	return n
}

func ttlFor(kind games.Kind) time.Duration {
	if kind == games.KindQuiz {
		return QuizTTL
	}
	return BoardTTL
}

// Sweep evicts every session started longer ago than its TTL and
// returns what was removed. Callbacks fire after all locks are released
// so an OnEvict that reenters the store cannot deadlock.
func (s *Store) Sweep() []Eviction {
	now := s.now()
	var evicted []Eviction
	for _, sh := range s.shards {
		sh.mu.Lock()
		for conv, cs := range sh.conversations {
			for kind, sess := range cs.games {
				if now.Sub(sess.Started) >= ttlFor(kind) {
					delete(cs.games, kind)
					evicted = append(evicted, Eviction{Conversation: conv, Kind: kind})
				}
			}
		}
		sh.mu.Unlock()
	}
	if s.OnEvict != nil {
		for _, e := range evicted {
			s.OnEvict(e)
		}
	}
	return evicted
}

// Run sweeps on a fixed interval until ctx is cancelled.
func (s *Store) Run(ctx context.Context) {
	slog.Info("state sweeper started", "interval", SweepInterval)
	ticker := time.NewTicker(SweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			slog.Info("state sweeper stopping")
			return
		case <-ticker.C:
			if evicted := s.Sweep(); len(evicted) > 0 {
				slog.Info("evicted expired game sessions", "count", len(evicted))
			}
		}
	}
}
