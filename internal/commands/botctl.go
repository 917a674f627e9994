package commands

import (
	"fmt"
	"strings"
	"time"

	"github.com/vorte-labs/vorte/internal/router"
)

func botCommands(r *router.Router, d *Deps) []*router.Command {
	return []*router.Command{
		{
			Name: "menu", Aliases: []string{"commands"}, Help: "List every command",
			Handler: func(c *router.Context) error {
				var b strings.Builder
				fmt.Fprintf(&b, "*%s* — commands\n\n", c.R.BotName)
				for _, cmd := range c.R.Commands() {
					fmt.Fprintf(&b, "%s%s", c.R.Prefix, cmd.Name)
					if cmd.Usage != "" {
						fmt.Fprintf(&b, " %s", cmd.Usage)
					}
					if cmd.Help != "" {
						fmt.Fprintf(&b, " — %s", cmd.Help)
					}
					b.WriteByte('\n')
				}
				return c.Reply(b.String())
			},
		},
		{
			Name: "help", Usage: "[command]", Help: "Describe a command",
			Handler: func(c *router.Context) error {
				if len(c.Args) == 0 {
					return c.Reply(fmt.Sprintf("Use %smenu for the full list, or %shelp <command>.", c.R.Prefix, c.R.Prefix))
				}
				name := strings.TrimPrefix(strings.ToLower(c.Args[0]), c.R.Prefix)
				cmd, ok := c.R.Lookup(name)
				if !ok {
					return fmt.Errorf("no command named %q", name)
				}
				text := fmt.Sprintf("*%s%s* %s\n%s", c.R.Prefix, cmd.Name, cmd.Usage, cmd.Help)
				if len(cmd.Aliases) > 0 {
					text += "\nAliases: " + strings.Join(cmd.Aliases, ", ")
				}
				return c.Reply(text)
			},
		},
		{
			Name: "ping", Help: "Check the bot is alive",
			Handler: func(c *router.Context) error {
				return c.Reply("pong")
			},
		},
		{
			Name: "uptime", Help: "How long the bot has been running",
			Handler: func(c *router.Context) error {
				up := time.Since(d.StartedAt).Round(time.Second)
				return c.Reply("Up for " + up.String())
			},
		},
		{
			Name: "version", Help: "Bot version",
			Handler: func(c *router.Context) error {
				return c.Reply(c.R.BotName + " " + d.Version)
			},
		},
		{
			Name: "stats", Help: "Bot-wide usage counters",
			Handler: func(c *router.Context) error {
				if d.Stats == nil {
					return fmt.Errorf("usage stats are not configured")
				}
				t := d.Stats.Totals()
				return c.Reply(fmt.Sprintf("Messages seen: %d\nCommands run: %d\nConversations: %d",
					t.Messages, t.Commands, t.Conversations))
			},
		},
		{
			Name: "rank", Help: "Most active members here",
			Handler: func(c *router.Context) error {
				if d.Stats == nil {
					return fmt.Errorf("usage stats are not configured")
				}
				ranks, err := d.Stats.TopSenders(c.Msg.Conversation, 5)
				if err != nil {
					return err
				}
				if len(ranks) == 0 {
					return c.Reply("No activity recorded here yet.")
				}
				var b strings.Builder
				b.WriteString("*Most active*\n")
				mentions := make([]string, 0, len(ranks))
				for i, rk := range ranks {
					fmt.Fprintf(&b, "%d. @%s — %d messages\n", i+1, rk.Sender, rk.Messages)
					mentions = append(mentions, rk.Sender)
				}
				return c.Reply(strings.TrimRight(b.String(), "\n"), mentions...)
			},
		},
		{
			Name: "bio", Usage: "[text]", Help: "Show or set the bot bio",
			Handler: func(c *router.Context) error {
				if d.Stats == nil {
					return fmt.Errorf("the bio store is not configured")
				}
				if c.ArgText == "" {
					bio, err := d.Stats.Get("bio")
					if err != nil {
						return err
					}
					if bio == "" {
						bio = "No bio set."
					}
					return c.Reply(bio)
				}
				if !c.R.IsOwner(c.Msg.Sender) {
					return fmt.Errorf("only my owner can change the bio")
				}
				if err := d.Stats.Set("bio", c.ArgText); err != nil {
					return err
				}
				return c.Reply("Bio updated.")
			},
		},
		{
			Name: "setprofile", Usage: "<name>", Help: "Change the bot's display name",
			Caps: router.OwnerOnly,
			Handler: func(c *router.Context) error {
				if c.ArgText == "" {
					return fmt.Errorf("give me a name")
				}
				if err := c.T.SetProfileName(c.Ctx, c.ArgText); err != nil {
					return err
				}
				return c.Reply("Display name updated.")
			},
		},
		{
			Name: "setstatus", Usage: "<text>", Help: "Change the bot's status text",
			Caps: router.OwnerOnly,
			Handler: func(c *router.Context) error {
				if c.ArgText == "" {
					return fmt.Errorf("give me a status")
				}
				if err := c.T.SetProfileStatus(c.Ctx, c.ArgText); err != nil {
					return err
				}
				return c.Reply("Status updated.")
			},
		},
		{
			Name: "owner", Help: "Who runs this bot",
			Handler: func(c *router.Context) error {
				if len(c.R.Owners) == 0 {
					return c.Reply("No owner configured.")
				}
				var b strings.Builder
				b.WriteString("My owner")
				if len(c.R.Owners) > 1 {
					b.WriteString("s")
				}
				b.WriteString(":\n")
				for _, o := range c.R.Owners {
					b.WriteString("@" + o + "\n")
				}
				return c.Reply(strings.TrimRight(b.String(), "\n"), c.R.Owners...)
			},
		},
		{
			Name: "broadcast", Usage: "<message>", Help: "Send a message to every chat",
			Caps: router.OwnerOnly,
			Handler: func(c *router.Context) error {
				if c.ArgText == "" {
					return fmt.Errorf("broadcast what?")
				}
				chats, err := c.T.Chats(c.Ctx)
				if err != nil {
					return fmt.Errorf("list chats: %w", err)
				}
				sent := 0
				for _, chat := range chats {
					if chat == c.Msg.Conversation {
						continue
					}
					if err := c.T.SendText(c.Ctx, chat, "📢 "+c.ArgText); err == nil {
						sent++
					}
				}
				return c.Reply(fmt.Sprintf("Broadcast sent to %d chats.", sent))
			},
		},
		{
			Name: "logout", Help: "End the session and forget credentials",
			Caps: router.OwnerOnly,
			Handler: func(c *router.Context) error {
				if d.Logout == nil {
					return fmt.Errorf("logout is not available")
				}
				_ = c.Reply("Logging out. Pair again to reconnect.")
				return d.Logout(c.Ctx)
			},
		},
	}
}
