package games

import (
	"errors"
	"testing"
)

func TestTicTacToeWinRow(t *testing.T) {
	g := NewTicTacToe("alice", "bob")
	moves := []struct {
		player string
		cell   int
		want   Outcome
	}{
		{"alice", 1, Continue},
		{"bob", 4, Continue},
		{"alice", 2, Continue},
		{"bob", 5, Continue},
		{"alice", 3, Win},
	}
	for i, m := range moves {
		got, err := g.Move(m.player, m.cell)
		if err != nil {
			t.Fatalf("move %d: unexpected error: %v", i, err)
		}
		if got != m.want {
			t.Fatalf("move %d: outcome = %v, want %v", i, got, m.want)
		}
	}
	if g.Winner != "alice" {
		t.Fatalf("winner = %q, want alice", g.Winner)
	}
	if _, err := g.Move("bob", 6); !errors.Is(err, ErrGameOver) {
		t.Fatalf("move after win: err = %v, want ErrGameOver", err)
	}
}

func TestTicTacToeDraw(t *testing.T) {
	g := NewTicTacToe("alice", "bob")
	// X O X / X O O / O X X, no three in a line.
	seq := []struct {
		player string
		cell   int
	}{
		{"alice", 1}, {"bob", 2}, {"alice", 3},
		{"bob", 5}, {"alice", 4}, {"bob", 6},
		{"alice", 8}, {"bob", 7},
	}
	for i, m := range seq {
		if out, err := g.Move(m.player, m.cell); err != nil || out != Continue {
			t.Fatalf("move %d: outcome = %v, err = %v", i, out, err)
		}
	}
	out, err := g.Move("alice", 9)
	if err != nil {
		t.Fatalf("final move: %v", err)
	}
	if out != Draw {
		t.Fatalf("final outcome = %v, want Draw", out)
	}
}

func TestTicTacToeRejections(t *testing.T) {
	g := NewTicTacToe("alice", "bob")
	if _, err := g.Move("bob", 1); !errors.Is(err, ErrNotYourTurn) {
		t.Fatalf("out-of-turn: err = %v, want ErrNotYourTurn", err)
	}
	if _, err := g.Move("mallory", 1); !errors.Is(err, ErrNotAPlayer) {
		t.Fatalf("outsider: err = %v, want ErrNotAPlayer", err)
	}
	if _, err := g.Move("alice", 0); !errors.Is(err, ErrInvalidCell) {
		t.Fatalf("cell 0: err = %v, want ErrInvalidCell", err)
	}
	if _, err := g.Move("alice", 10); !errors.Is(err, ErrInvalidCell) {
		t.Fatalf("cell 10: err = %v, want ErrInvalidCell", err)
	}
	if _, err := g.Move("alice", 5); err != nil {
		t.Fatalf("valid move: %v", err)
	}
	if _, err := g.Move("bob", 5); !errors.Is(err, ErrCellOccupied) {
		t.Fatalf("occupied: err = %v, want ErrCellOccupied", err)
	}
}

func TestHangmanWin(t *testing.T) {
	g := NewHangmanWord("go")
	if out, err := g.Guess("g"); err != nil || out != Continue {
		t.Fatalf("guess g: outcome = %v, err = %v", out, err)
	}
	if got := g.Masked(); got != "g _" {
		t.Fatalf("masked = %q, want %q", got, "g _")
	}
	out, err := g.Guess("O")
	if err != nil {
		t.Fatalf("guess O: %v", err)
	}
	if out != Win {
		t.Fatalf("outcome = %v, want Win", out)
	}
}

func TestHangmanLossAfterSixMisses(t *testing.T) {
	g := NewHangmanWord("z")
	misses := []string{"a", "b", "c", "d", "e"}
	for _, l := range misses {
		if out, err := g.Guess(l); err != nil || out != Continue {
			t.Fatalf("guess %s: outcome = %v, err = %v", l, out, err)
		}
	}
	if g.TriesLeft != 1 {
		t.Fatalf("tries left = %d, want 1", g.TriesLeft)
	}
	out, err := g.Guess("f")
	if err != nil {
		t.Fatalf("final guess: %v", err)
	}
	if out != Loss {
		t.Fatalf("outcome = %v, want Loss", out)
	}
	if got := g.WrongLetters(); len(got) != 6 {
		t.Fatalf("wrong letters = %v, want 6 entries", got)
	}
}

func TestHangmanRejections(t *testing.T) {
	g := NewHangmanWord("cat")
	if _, err := g.Guess("ab"); !errors.Is(err, ErrInvalidLetter) {
		t.Fatalf("two letters: err = %v, want ErrInvalidLetter", err)
	}
	if _, err := g.Guess("3"); !errors.Is(err, ErrInvalidLetter) {
		t.Fatalf("digit: err = %v, want ErrInvalidLetter", err)
	}
	if _, err := g.Guess("c"); err != nil {
		t.Fatalf("valid guess: %v", err)
	}
	if _, err := g.Guess("c"); !errors.Is(err, ErrAlreadyGuessed) {
		t.Fatalf("repeat: err = %v, want ErrAlreadyGuessed", err)
	}
}

func TestQuizCorrectAnswerWins(t *testing.T) {
	q := NewQuizFixed("What is the capital of Japan?", "Tokyo", "Osaka", "Kyoto", "Tokyo")
	out, err := q.Try("  TOKYO ")
	if err != nil {
		t.Fatalf("correct answer: %v", err)
	}
	if out != Win {
		t.Fatalf("outcome = %v, want Win", out)
	}
	if !q.Done {
		t.Fatal("quiz not consumed by a correct answer")
	}
	if _, err := q.Try("tokyo"); !errors.Is(err, ErrGameOver) {
		t.Fatalf("after win: err = %v, want ErrGameOver", err)
	}
}

func TestQuizConsumedOnFirstAttempt(t *testing.T) {
	q := NewQuizFixed("What is the capital of Japan?", "Tokyo", "Osaka", "Kyoto", "Tokyo")
	out, err := q.Try("osaka")
	if err != nil {
		t.Fatalf("wrong answer: %v", err)
	}
	if out != Loss {
		t.Fatalf("outcome = %v, want Loss", out)
	}
	if !q.Done {
		t.Fatal("quiz survived a wrong answer")
	}
	if q.Attempts != 1 {
		t.Fatalf("attempts = %d, want 1", q.Attempts)
	}
	if _, err := q.Try("tokyo"); !errors.Is(err, ErrGameOver) {
		t.Fatalf("second attempt: err = %v, want ErrGameOver", err)
	}
}
