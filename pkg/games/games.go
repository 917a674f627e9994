// Package games holds the pure engines behind the chat games. Engines
// carry no transport or rendering concerns: they take moves, mutate
// their own state, and report an Outcome the caller turns into replies.
package games

import "errors"

// Outcome classifies the state of a game after a move.
type Outcome int

const (
	Continue Outcome = iota
	Win
	Draw
	Loss
)

func (o Outcome) String() string {
	switch o {
	case Win:
		return "win"
	case Draw:
		return "draw"
	case Loss:
		return "loss"
	default:
		return "continue"
	}
}

// Kind names a game type for session bookkeeping.
type Kind string

const (
	KindTicTacToe Kind = "tictactoe"
	KindHangman   Kind = "hangman"
	KindQuiz      Kind = "quiz"
)

var (
	ErrNotYourTurn    = errors.New("not your turn")
	ErrNotAPlayer     = errors.New("not a player in this game")
	ErrCellOccupied   = errors.New("cell already taken")
	ErrInvalidCell    = errors.New("cell must be between 1 and 9")
	ErrInvalidLetter  = errors.New("guess a single letter a-z")
	ErrAlreadyGuessed = errors.New("letter already guessed")
	ErrGameOver       = errors.New("game is already over")
)
