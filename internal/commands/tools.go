package commands

import (
	"fmt"
	"strings"
	"time"

	"github.com/vorte-labs/vorte/internal/mathexpr"
	"github.com/vorte-labs/vorte/internal/router"
)

func toolCommands(d *Deps) []*router.Command {
	return []*router.Command{
		{
			Name: "calc", Aliases: []string{"math"}, Usage: "<expression>", Help: "Evaluate arithmetic",
			Handler: func(c *router.Context) error {
				if c.ArgText == "" {
					return fmt.Errorf("give me an expression, like 2*(3+4)")
				}
				v, err := mathexpr.Eval(c.ArgText)
				if err != nil {
					return err
				}
				return c.Reply(c.ArgText + " = " + mathexpr.Format(v))
			},
		},
		{
			Name: "time", Help: "Current server time",
			Handler: func(c *router.Context) error {
				return c.Reply(time.Now().UTC().Format("Mon, 02 Jan 2006 15:04:05 MST"))
			},
		},
		{
			Name: "echo", Aliases: []string{"say"}, Usage: "<text>", Help: "Repeat after you",
			Handler: func(c *router.Context) error {
				if c.ArgText == "" {
					return fmt.Errorf("say what?")
				}
				return c.Reply(c.ArgText)
			},
		},
		{
			Name: "upper", Usage: "<text>", Help: "SHOUT your text",
			Handler: func(c *router.Context) error {
				if c.ArgText == "" {
					return fmt.Errorf("upper what?")
				}
				return c.Reply(strings.ToUpper(c.ArgText))
			},
		},
		{
			Name: "reverse", Usage: "<text>", Help: "Reverse your text",
			Handler: func(c *router.Context) error {
				if c.ArgText == "" {
					return fmt.Errorf("reverse what?")
				}
				runes := []rune(c.ArgText)
				for i, j := 0, len(runes)-1; i < j; i, j = i+1, j-1 {
					runes[i], runes[j] = runes[j], runes[i]
				}
				return c.Reply(string(runes))
			},
		},
		{
			Name: "countchars", Aliases: []string{"count"}, Usage: "<text>", Help: "Count characters and words",
			Handler: func(c *router.Context) error {
				if c.ArgText == "" {
					return fmt.Errorf("count what?")
				}
				chars := len([]rune(c.ArgText))
				words := len(strings.Fields(c.ArgText))
				return c.Reply(fmt.Sprintf("%d characters, %d words.", chars, words))
			},
		},
	}
}
