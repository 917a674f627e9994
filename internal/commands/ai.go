package commands

import (
	"fmt"

	"github.com/vorte-labs/vorte/internal/router"
	"github.com/vorte-labs/vorte/pkg/transport"
)

func aiCommands(d *Deps) []*router.Command {
	cmds := []*router.Command{
		{
			Name: "gpt", Aliases: []string{"ai", "ask"}, Usage: "<question>", Help: "Ask the AI anything",
			Handler: func(c *router.Context) error {
				if d.AI == nil {
					return fmt.Errorf("AI replies are not configured")
				}
				if c.ArgText == "" {
					return fmt.Errorf("ask me something")
				}
				_ = c.T.SendPresence(c.Ctx, c.Msg.Conversation, transport.PresenceComposing)
				answer, err := d.AI.Reply(c.Ctx, c.ArgText)
				if err != nil {
					return fmt.Errorf("ai: %w", err)
				}
				return c.Reply(answer)
			},
		},
		{
			Name: "imagine", Aliases: []string{"img"}, Usage: "<prompt>", Help: "Generate an image",
			Handler: func(c *router.Context) error {
				if d.Images == nil {
					return fmt.Errorf("image generation is not configured")
				}
				if c.ArgText == "" {
					return fmt.Errorf("describe the image")
				}
				_ = c.T.SendPresence(c.Ctx, c.Msg.Conversation, transport.PresenceComposing)
				url, err := d.Images.Generate(c.Ctx, c.ArgText)
				if err != nil {
					return fmt.Errorf("image: %w", err)
				}
				return c.T.SendImage(c.Ctx, c.Msg.Conversation, url, c.ArgText)
			},
		},
	}
	for name, style := range textStyles {
		cmds = append(cmds, styleCommand(d, name, style))
	}
	return cmds
}

// textStyles maps each style command to the rendering instruction fed
// to the image model.
var textStyles = map[string]string{
	"1917style":     "dramatic 1917 war film poster lettering",
	"advancedglow":  "bright neon glow lettering on a dark background",
	"cartoonstyle":  "bold 3D cartoon lettering",
	"luxurygold":    "luxurious engraved gold lettering",
	"matrix":        "green digital rain matrix lettering",
	"sand":          "letters drawn in beach sand",
	"papercutstyle": "layered papercut lettering",
}

func styleCommand(d *Deps, name, style string) *router.Command {
	return &router.Command{
		Name:  name,
		Usage: "<text>",
		Help:  "Render text as " + style,
		Handler: func(c *router.Context) error {
			if d.Images == nil {
				return fmt.Errorf("image generation is not configured")
			}
			if c.ArgText == "" {
				return fmt.Errorf("what text should I render?")
			}
			_ = c.T.SendPresence(c.Ctx, c.Msg.Conversation, transport.PresenceComposing)
			prompt := fmt.Sprintf("The text %q rendered as %s", c.ArgText, style)
			url, err := d.Images.Generate(c.Ctx, prompt)
			if err != nil {
				return fmt.Errorf("image: %w", err)
			}
			return c.T.SendImage(c.Ctx, c.Msg.Conversation, url, c.ArgText)
		},
	}
}
