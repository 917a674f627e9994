package commands

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/vorte-labs/vorte/internal/router"
	"github.com/vorte-labs/vorte/pkg/games"
	"github.com/vorte-labs/vorte/pkg/state"
)

// renderBoard draws a tic-tac-toe board, free cells showing their number.
func renderBoard(g *games.TicTacToe) string {
	cell := func(i int) string {
		if g.Board[i] != 0 {
			return string(g.Board[i])
		}
		return strconv.Itoa(i + 1)
	}
	var b strings.Builder
	b.WriteString("```\n")
	for row := 0; row < 3; row++ {
		i := row * 3
		fmt.Fprintf(&b, " %s | %s | %s \n", cell(i), cell(i+1), cell(i+2))
		if row < 2 {
			b.WriteString("---+---+---\n")
		}
	}
	b.WriteString("```")
	return b.String()
}

// gallows stages indexed by wrong guesses so far (0..6).
var gallows = []string{
	"  +---+\n      |\n      |\n      |\n     ===",
	"  +---+\n  O   |\n      |\n      |\n     ===",
	"  +---+\n  O   |\n  |   |\n      |\n     ===",
	"  +---+\n  O   |\n /|   |\n      |\n     ===",
	"  +---+\n  O   |\n /|\\  |\n      |\n     ===",
	"  +---+\n  O   |\n /|\\  |\n /    |\n     ===",
	"  +---+\n  O   |\n /|\\  |\n / \\  |\n     ===",
}

func renderHangman(g *games.Hangman) string {
	stage := games.MaxHangmanTries - g.TriesLeft
	if stage < 0 {
		stage = 0
	}
	if stage >= len(gallows) {
		stage = len(gallows) - 1
	}
	text := "```\n" + gallows[stage] + "\n```\n" + g.Masked()
	if wrong := g.WrongLetters(); len(wrong) > 0 {
		text += "\nWrong: " + strings.Join(wrong, " ")
	}
	return text + fmt.Sprintf("\nTries left: %d", g.TriesLeft)
}

func gameCommands(d *Deps) []*router.Command {
	return []*router.Command{
		{
			Name: "ttt", Aliases: []string{"tictactoe"}, Usage: "@user", Help: "Challenge someone to tic-tac-toe",
			Caps: router.GroupOnly,
			Handler: func(c *router.Context) error {
				opponent, err := target(c)
				if err != nil {
					return fmt.Errorf("mention who you want to play")
				}
				if opponent == c.Msg.Sender {
					return fmt.Errorf("you can't play against yourself")
				}
				g := games.NewTicTacToe(c.Msg.Sender, opponent)
				if err := d.State.StartGame(c.Msg.Conversation, games.KindTicTacToe, g); err != nil {
					if errors.Is(err, state.ErrGameInProgress) {
						return fmt.Errorf("a game is already running here, finish it or %sendgame ttt", c.R.Prefix)
					}
					return err
				}
				return c.Reply(fmt.Sprintf("@%s vs @%s — tic-tac-toe!\n%s\n@%s (X) goes first: %smove <1-9>",
					c.Msg.Sender, opponent, renderBoard(g), c.Msg.Sender, c.R.Prefix),
					c.Msg.Sender, opponent)
			},
		},
		{
			Name: "move", Aliases: []string{"place", "tttmove"}, Usage: "<1-9>", Help: "Play a tic-tac-toe cell",
			Caps: router.GroupOnly,
			Handler: func(c *router.Context) error {
				if len(c.Args) != 1 {
					return fmt.Errorf("pick a cell, 1-9")
				}
				cell, err := strconv.Atoi(c.Args[0])
				if err != nil {
					return games.ErrInvalidCell
				}

				var reply string
				var mentions []string
				err = d.State.Mutate(c.Msg.Conversation, games.KindTicTacToe, func(sess *state.Session) (bool, error) {
					g := sess.Game.(*games.TicTacToe)
					outcome, err := g.Move(c.Msg.Sender, cell)
					if err != nil {
						return false, err
					}
					switch outcome {
					case games.Win:
						reply = fmt.Sprintf("%s\n@%s wins! 🎉", renderBoard(g), g.Winner)
						mentions = []string{g.Winner}
						return true, nil
					case games.Draw:
						reply = renderBoard(g) + "\nIt's a draw."
						return true, nil
					default:
						reply = fmt.Sprintf("%s\n@%s, your move.", renderBoard(g), g.Turn)
						mentions = []string{g.Turn}
						return false, nil
					}
				})
				if errors.Is(err, state.ErrNoGame) {
					return fmt.Errorf("no game running, start one with %sttt @user", c.R.Prefix)
				}
				if err != nil {
					return err
				}
				return c.Reply(reply, mentions...)
			},
		},
		{
			Name: "hangman", Aliases: []string{"hangmanstart"}, Help: "Start a game of hangman",
			Handler: func(c *router.Context) error {
				g := games.NewHangman()
				if err := d.State.StartGame(c.Msg.Conversation, games.KindHangman, g); err != nil {
					if errors.Is(err, state.ErrGameInProgress) {
						return fmt.Errorf("hangman is already running here")
					}
					return err
				}
				return c.Reply(fmt.Sprintf("Hangman! Guess with %sguess <letter>\n%s", c.R.Prefix, renderHangman(g)))
			},
		},
		{
			Name: "guess", Aliases: []string{"hangmanguess"}, Usage: "<letter>", Help: "Guess a hangman letter",
			Handler: func(c *router.Context) error {
				if len(c.Args) != 1 {
					return games.ErrInvalidLetter
				}
				var reply string
				err := d.State.Mutate(c.Msg.Conversation, games.KindHangman, func(sess *state.Session) (bool, error) {
					g := sess.Game.(*games.Hangman)
					outcome, err := g.Guess(c.Args[0])
					if err != nil {
						return false, err
					}
					switch outcome {
					case games.Win:
						reply = fmt.Sprintf("Correct! The word was *%s*. 🎉", g.Word)
						return true, nil
					case games.Loss:
						reply = fmt.Sprintf("%s\nOut of tries — the word was *%s*.", renderHangman(g), g.Word)
						return true, nil
					default:
						reply = renderHangman(g)
						return false, nil
					}
				})
				if errors.Is(err, state.ErrNoGame) {
					return fmt.Errorf("no hangman running, start one with %shangman", c.R.Prefix)
				}
				if err != nil {
					return err
				}
				return c.Reply(reply)
			},
		},
		{
			Name: "quiz", Aliases: []string{"trivia", "quizstart"}, Help: "Ask a trivia question",
			Handler: func(c *router.Context) error {
				q := games.NewQuiz()
				if err := d.State.StartGame(c.Msg.Conversation, games.KindQuiz, q); err != nil {
					if errors.Is(err, state.ErrGameInProgress) {
						return fmt.Errorf("answer the current question first (%sanswer <text>)", c.R.Prefix)
					}
					return err
				}
				return c.Reply(fmt.Sprintf("❓ %s\nChoices: %s\nAnswer with %sanswer <text>",
					q.Question, strings.Join(q.Choices, ", "), c.R.Prefix))
			},
		},
		{
			Name: "answer", Aliases: []string{"quizanswer"}, Usage: "<text>", Help: "Answer the open quiz question",
			Handler: func(c *router.Context) error {
				if c.ArgText == "" {
					return fmt.Errorf("answer what?")
				}
				var reply string
				var mentions []string
				// One attempt settles the question, right or wrong.
				err := d.State.Mutate(c.Msg.Conversation, games.KindQuiz, func(sess *state.Session) (bool, error) {
					q := sess.Game.(*games.Quiz)
					outcome, err := q.Try(c.ArgText)
					if err != nil {
						return false, err
					}
					if outcome == games.Win {
						reply = fmt.Sprintf("✅ @%s got it — *%s*! 🎉", c.Msg.Sender, q.Answer)
						mentions = []string{c.Msg.Sender}
					} else {
						reply = fmt.Sprintf("❌ Wrong! The answer was *%s*.", q.Answer)
					}
					return true, nil
				})
				if errors.Is(err, state.ErrNoGame) {
					return fmt.Errorf("no open question, start one with %squiz", c.R.Prefix)
				}
				if err != nil {
					return err
				}
				return c.Reply(reply, mentions...)
			},
		},
		{
			Name: "endgame", Usage: "ttt|hangman|quiz", Help: "Abandon a running game",
			Handler: func(c *router.Context) error {
				if len(c.Args) != 1 {
					return fmt.Errorf("which game? ttt, hangman or quiz")
				}
				var kind games.Kind
				switch strings.ToLower(c.Args[0]) {
				case "ttt", "tictactoe":
					kind = games.KindTicTacToe
				case "hangman":
					kind = games.KindHangman
				case "quiz", "trivia":
					kind = games.KindQuiz
				default:
					return fmt.Errorf("which game? ttt, hangman or quiz")
				}
				if !d.State.EndGame(c.Msg.Conversation, kind) {
					return fmt.Errorf("no %s game running here", c.Args[0])
				}
				return c.Reply("Game abandoned.")
			},
		},
	}
}
