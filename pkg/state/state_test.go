package state

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/vorte-labs/vorte/pkg/games"
)

func TestSettingsRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	store := New(&FileSink{Path: path}, nil)

	if err := store.Update("room1", func(s *Settings) { s.Antilink = true; s.Welcome = true }); err != nil {
		t.Fatalf("update: %v", err)
	}
	if got := store.Get("room1"); !got.Antilink || !got.Welcome || got.Goodbye {
		t.Fatalf("settings = %+v", got)
	}

	seed, err := LoadSettings(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	reloaded := New(nil, seed)
	if got := reloaded.Get("room1"); !got.Antilink {
		t.Fatalf("reloaded settings = %+v", got)
	}
	if got := reloaded.Get("room2"); got.Antilink {
		t.Fatalf("unexpected settings for untouched room: %+v", got)
	}
}

func TestLoadSettingsMissingFile(t *testing.T) {
	seed, err := LoadSettings(filepath.Join(t.TempDir(), "nope.json"))
	if err != nil {
		t.Fatalf("load missing: %v", err)
	}
	if len(seed) != 0 {
		t.Fatalf("seed = %v, want empty", seed)
	}
}

func TestWarnings(t *testing.T) {
	store := New(nil, nil)
	if n := store.Warn("room", "alice"); n != 1 {
		t.Fatalf("first warn = %d", n)
	}
	if n := store.Warn("room", "alice"); n != 2 {
		t.Fatalf("second warn = %d", n)
	}
	if n := store.Warnings("room", "bob"); n != 0 {
		t.Fatalf("bob warnings = %d", n)
	}
	store.ClearWarnings("room", "alice")
	if n := store.Warnings("room", "alice"); n != 0 {
		t.Fatalf("after clear = %d", n)
	}
}

func TestGameLifecycle(t *testing.T) {
	store := New(nil, nil)
	if err := store.StartGame("room", games.KindTicTacToe, games.NewTicTacToe("a", "b")); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := store.StartGame("room", games.KindTicTacToe, games.NewTicTacToe("c", "d")); !errors.Is(err, ErrGameInProgress) {
		t.Fatalf("duplicate start: err = %v", err)
	}
	// A different kind in the same conversation is fine.
	if err := store.StartGame("room", games.KindHangman, games.NewHangman()); err != nil {
		t.Fatalf("start hangman: %v", err)
	}
	if n := store.ActiveGames(); n != 2 {
		t.Fatalf("active = %d, want 2", n)
	}

	err := store.Mutate("room", games.KindTicTacToe, func(sess *Session) (bool, error) {
		g := sess.Game.(*games.TicTacToe)
		if _, err := g.Move("a", 5); err != nil {
			return false, err
		}
		return false, nil
	})
	if err != nil {
		t.Fatalf("mutate: %v", err)
	}

	if err := store.Mutate("room", games.KindQuiz, func(*Session) (bool, error) { return false, nil }); !errors.Is(err, ErrNoGame) {
		t.Fatalf("mutate missing: err = %v", err)
	}

	if !store.EndGame("room", games.KindTicTacToe) {
		t.Fatal("end: session not found")
	}
	if store.EndGame("room", games.KindTicTacToe) {
		t.Fatal("double end reported a session")
	}
}

func TestSweepEvictsByKindTTL(t *testing.T) {
	store := New(nil, nil)
	base := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return base }

	if err := store.StartGame("room", games.KindHangman, games.NewHangman()); err != nil {
		t.Fatalf("start hangman: %v", err)
	}
	if err := store.StartGame("room", games.KindQuiz, games.NewQuizFixed("q", "a")); err != nil {
		t.Fatalf("start quiz: %v", err)
	}

	var notices []Eviction
	store.OnEvict = func(e Eviction) { notices = append(notices, e) }

	// Ten minutes in: the quiz is past its TTL, the hangman board is not.
	store.now = func() time.Time { return base.Add(10 * time.Minute) }
	evicted := store.Sweep()
	if len(evicted) != 1 || evicted[0].Kind != games.KindQuiz {
		t.Fatalf("first sweep evicted %v", evicted)
	}

	// A second sweep must not re-announce the same session.
	if again := store.Sweep(); len(again) != 0 {
		t.Fatalf("second sweep evicted %v", again)
	}

	store.now = func() time.Time { return base.Add(2 * time.Hour) }
	evicted = store.Sweep()
	if len(evicted) != 1 || evicted[0].Kind != games.KindHangman {
		t.Fatalf("third sweep evicted %v", evicted)
	}
	if len(notices) != 2 {
		t.Fatalf("notices = %v, want 2", notices)
	}
}

func TestSweepExpiryRunsFromStart(t *testing.T) {
	store := New(nil, nil)
	base := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return base }

	if err := store.StartGame("room", games.KindTicTacToe, games.NewTicTacToe("a", "b")); err != nil {
		t.Fatalf("start: %v", err)
	}

	// Keep the board busy with a move every thirty minutes. The TTL
	// runs from Started, so the activity does not save the session.
	for i := 1; i <= 3; i++ {
		store.now = func() time.Time { return base.Add(time.Duration(i) * 30 * time.Minute) }
		if err := store.Mutate("room", games.KindTicTacToe, func(*Session) (bool, error) { return false, nil }); err != nil {
			t.Fatalf("mutate %d: %v", i, err)
		}
	}

	store.now = func() time.Time { return base.Add(2 * time.Hour) }
	evicted := store.Sweep()
	if len(evicted) != 1 || evicted[0].Kind != games.KindTicTacToe {
		t.Fatalf("sweep = %v, want the stale board gone", evicted)
	}
}
