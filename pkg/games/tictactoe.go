package games

// TicTacToe is a two-player 3x3 board. Cells are addressed 1..9 in
// reading order. PlayerX always moves first.
type TicTacToe struct {
	Board   [9]byte // 'X', 'O', or 0 for empty
	PlayerX string
	PlayerO string
	Turn    string
	Done    bool
	Winner  string
}

// NewTicTacToe starts a game between two participants. The challenger
// plays X and moves first.
func NewTicTacToe(challenger, opponent string) *TicTacToe {
	return &TicTacToe{
		PlayerX: challenger,
		PlayerO: opponent,
		Turn:    challenger,
	}
}

var ticTacToeLines = [8][3]int{
	{0, 1, 2}, {3, 4, 5}, {6, 7, 8}, // rows
	{0, 3, 6}, {1, 4, 7}, {2, 5, 8}, // columns
	{0, 4, 8}, {2, 4, 6}, // diagonals
}

// Move places player's mark in cell (1..9).
func (g *TicTacToe) Move(player string, cell int) (Outcome, error) {
	if g.Done {
		return Continue, ErrGameOver
	}
	if player != g.PlayerX && player != g.PlayerO {
		return Continue, ErrNotAPlayer
	}
	if player != g.Turn {
		return Continue, ErrNotYourTurn
	}
	if cell < 1 || cell > 9 {
		return Continue, ErrInvalidCell
	}
	idx := cell - 1
	if g.Board[idx] != 0 {
		return Continue, ErrCellOccupied
	}

	mark := byte('X')
	next := g.PlayerO
	if player == g.PlayerO {
		mark = 'O'
		next = g.PlayerX
	}
	g.Board[idx] = mark

	for _, line := range ticTacToeLines {
		a, b, c := g.Board[line[0]], g.Board[line[1]], g.Board[line[2]]
		if a != 0 && a == b && b == c {
			g.Done = true
			g.Winner = player
			return Win, nil
		}
	}
	full := true
	for _, b := range g.Board {
		if b == 0 {
			full = false
			break
		}
	}
	if full {
		g.Done = true
		return Draw, nil
	}
	g.Turn = next
	return Continue, nil
}

// Mark returns the mark ('X' or 'O') for a player, or 0.
func (g *TicTacToe) Mark(player string) byte {
	switch player {
	case g.PlayerX:
		return 'X'
	case g.PlayerO:
		return 'O'
	}
	return 0
}
