package commands

import (
	"fmt"
	"math/rand"
	"strconv"
	"strings"

	"github.com/vorte-labs/vorte/internal/router"
)

var jokes = []string{
	"Why do programmers prefer dark mode? Because light attracts bugs.",
	"I told my computer I needed a break, and it said it would go to sleep.",
	"There are 10 kinds of people: those who understand binary and those who don't.",
	"Why did the developer go broke? Because they used up all their cache.",
	"A SQL query walks into a bar, walks up to two tables and asks: may I join you?",
	"Why do Java developers wear glasses? Because they can't C#.",
}

var eightBall = []string{
	"It is certain.", "Without a doubt.", "Yes, definitely.",
	"Ask again later.", "Better not tell you now.", "Cannot predict now.",
	"Don't count on it.", "My reply is no.", "Very doubtful.",
}

var truths = []string{
	"What is the most embarrassing thing you have ever said in this group?",
	"Who in this chat would you call at 3am, and why?",
	"What is one app on your phone you would never show anyone?",
	"What is the longest you have gone without showering?",
	"What is a lie you told that you never got caught for?",
}

var dares = []string{
	"Send the last photo in your gallery here.",
	"Type your next three messages with your eyes closed.",
	"Change your profile picture to whatever the group picks, for one day.",
	"Voice note yourself singing the chorus of the last song you played.",
	"Let the person above you write your status for today.",
}

var quotes = []string{
	"Simplicity is the ultimate sophistication. — Leonardo da Vinci",
	"The best way to predict the future is to invent it. — Alan Kay",
	"First, solve the problem. Then, write the code. — John Johnson",
	"Make it work, make it right, make it fast. — Kent Beck",
	"Talk is cheap. Show me the code. — Linus Torvalds",
}

func funCommands() []*router.Command {
	return []*router.Command{
		{
			Name: "joke", Help: "Tell a joke",
			Handler: func(c *router.Context) error {
				return c.Reply(jokes[rand.Intn(len(jokes))])
			},
		},
		{
			Name: "8ball", Usage: "<question>", Help: "Shake the magic 8-ball",
			Handler: func(c *router.Context) error {
				if c.ArgText == "" {
					return fmt.Errorf("ask the ball a question")
				}
				return c.Reply("🎱 " + eightBall[rand.Intn(len(eightBall))])
			},
		},
		{
			Name: "flip", Aliases: []string{"coin"}, Help: "Flip a coin",
			Handler: func(c *router.Context) error {
				if rand.Intn(2) == 0 {
					return c.Reply("Heads!")
				}
				return c.Reply("Tails!")
			},
		},
		{
			Name: "truth", Help: "A truth question for the group",
			Handler: func(c *router.Context) error {
				return c.Reply("🗣️ " + truths[rand.Intn(len(truths))])
			},
		},
		{
			Name: "dare", Help: "A dare for the brave",
			Handler: func(c *router.Context) error {
				return c.Reply("😈 " + dares[rand.Intn(len(dares))])
			},
		},
		{
			Name: "roll", Aliases: []string{"dice"}, Usage: "[sides]", Help: "Roll a die (default 6 sides)",
			Handler: func(c *router.Context) error {
				sides := 6
				if len(c.Args) > 0 {
					n, err := strconv.Atoi(c.Args[0])
					if err != nil || n < 2 {
						return fmt.Errorf("sides must be a number of at least 2")
					}
					sides = n
				}
				return c.Reply(fmt.Sprintf("🎲 You rolled a %d (d%d).", 1+rand.Intn(sides), sides))
			},
		},
		{
			Name: "quote", Help: "A quote worth reading",
			Handler: func(c *router.Context) error {
				return c.Reply(quotes[rand.Intn(len(quotes))])
			},
		},
		{
			Name: "choose", Usage: "a | b | c", Help: "Pick one option for you",
			Handler: func(c *router.Context) error {
				parts := strings.Split(c.ArgText, "|")
				var options []string
				for _, p := range parts {
					if p = strings.TrimSpace(p); p != "" {
						options = append(options, p)
					}
				}
				if len(options) < 2 {
					return fmt.Errorf("give me at least two options separated by |")
				}
				return c.Reply("I pick: " + options[rand.Intn(len(options))])
			},
		},
	}
}
