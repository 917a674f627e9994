package games

import (
	"math/rand"
	"strings"
)

// MaxHangmanTries is the number of wrong guesses before the game is lost.
const MaxHangmanTries = 6

var hangmanWords = []string{
	"elephant", "giraffe", "penguin", "dolphin", "kangaroo",
	"computer", "keyboard", "internet", "software", "network",
	"mountain", "rainbow", "thunder", "volcano", "glacier",
	"guitar", "trumpet", "violin", "saxophone", "drums",
	"pineapple", "mango", "avocado", "coconut", "papaya",
	"galaxy", "asteroid", "nebula", "comet", "eclipse",
}

// Hangman is a shared-pot word guessing game: any participant in the
// conversation may guess.
type Hangman struct {
	Word      string
	Guessed   map[rune]bool
	TriesLeft int
	Done      bool
}

// NewHangman starts a game with a random word from the built-in list.
func NewHangman() *Hangman {
	return NewHangmanWord(hangmanWords[rand.Intn(len(hangmanWords))])
}

// NewHangmanWord starts a game over a fixed word. Used by tests.
func NewHangmanWord(word string) *Hangman {
	return &Hangman{
		Word:      strings.ToLower(word),
		Guessed:   make(map[rune]bool),
		TriesLeft: MaxHangmanTries,
	}
}

// Guess submits a single letter. Case-insensitive.
func (g *Hangman) Guess(letter string) (Outcome, error) {
	if g.Done {
		return Continue, ErrGameOver
	}
	letter = strings.ToLower(strings.TrimSpace(letter))
	if len(letter) != 1 || letter[0] < 'a' || letter[0] > 'z' {
		return Continue, ErrInvalidLetter
	}
	r := rune(letter[0])
	if g.Guessed[r] {
		return Continue, ErrAlreadyGuessed
	}
	g.Guessed[r] = true

	if !strings.ContainsRune(g.Word, r) {
		g.TriesLeft--
		if g.TriesLeft <= 0 {
			g.Done = true
			return Loss, nil
		}
		return Continue, nil
	}
	if g.revealed() {
		g.Done = true
		return Win, nil
	}
	return Continue, nil
}

func (g *Hangman) revealed() bool {
	for _, r := range g.Word {
		if !g.Guessed[r] {
			return false
		}
	}
	return true
}

// Masked renders the word with unguessed letters hidden, space separated.
func (g *Hangman) Masked() string {
	var b strings.Builder
	for i, r := range g.Word {
		if i > 0 {
			b.WriteByte(' ')
		}
		if g.Guessed[r] {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}
	return b.String()
}

// WrongLetters lists the incorrect guesses in guess-independent sorted order.
func (g *Hangman) WrongLetters() []string {
	var out []string
	for r := 'a'; r <= 'z'; r++ {
		if g.Guessed[r] && !strings.ContainsRune(g.Word, r) {
			out = append(out, string(r))
		}
	}
	return out
}
