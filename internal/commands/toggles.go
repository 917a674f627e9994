package commands

import (
	"fmt"

	"github.com/vorte-labs/vorte/internal/router"
	"github.com/vorte-labs/vorte/pkg/state"
)

// toggle builds an on/off command writing one settings field.
func toggle(d *Deps, name, what string, set func(*state.Settings, bool)) *router.Command {
	return &router.Command{
		Name:  name,
		Usage: "on|off",
		Help:  "Turn " + what + " on or off",
		Caps:  router.GroupOnly | router.AdminOnly,
		Handler: func(c *router.Context) error {
			if len(c.Args) != 1 || (c.Args[0] != "on" && c.Args[0] != "off") {
				return fmt.Errorf("say on or off")
			}
			enabled := c.Args[0] == "on"
			if err := d.State.Update(c.Msg.Conversation, func(s *state.Settings) { set(s, enabled) }); err != nil {
				return err
			}
			status := "disabled"
			if enabled {
				status = "enabled"
			}
			return c.Reply(fmt.Sprintf("%s %s for this group.", what, status))
		},
	}
}

func toggleCommands(d *Deps) []*router.Command {
	return []*router.Command{
		toggle(d, "antilink", "Link removal", func(s *state.Settings, v bool) { s.Antilink = v }),
		toggle(d, "welcome", "Welcome messages", func(s *state.Settings, v bool) { s.Welcome = v }),
		toggle(d, "goodbye", "Goodbye messages", func(s *state.Settings, v bool) { s.Goodbye = v }),
		toggle(d, "autoreact", "Auto reactions", func(s *state.Settings, v bool) { s.AutoReact = v }),
		toggle(d, "autotyping", "The typing indicator", func(s *state.Settings, v bool) { s.AutoTyping = v }),
		toggle(d, "autorecording", "The recording indicator", func(s *state.Settings, v bool) { s.AutoRecording = v }),
		toggle(d, "autostatusview", "Automatic status viewing", func(s *state.Settings, v bool) { s.AutoStatusView = v }),
		toggle(d, "autoreacttostatus", "Status reactions", func(s *state.Settings, v bool) { s.AutoReactToStatus = v }),
	}
}
