package commands

import (
	"encoding/base64"
	"fmt"

	qrcode "github.com/skip2/go-qrcode"

	"github.com/vorte-labs/vorte/internal/router"
)

func mediaCommands(d *Deps) []*router.Command {
	return []*router.Command{
		{
			Name: "yt", Aliases: []string{"youtube", "song"}, Usage: "<query>", Help: "Search YouTube",
			Handler: func(c *router.Context) error {
				if d.Lookup == nil {
					return fmt.Errorf("search is not configured")
				}
				if c.ArgText == "" {
					return fmt.Errorf("search for what?")
				}
				v, err := d.Lookup.YouTube(c.Ctx, c.ArgText)
				if err != nil {
					return err
				}
				return c.Reply(fmt.Sprintf("▶️ *%s*\nby %s\n%s", v.Title, v.Channel, v.URL))
			},
		},
		{
			Name: "movie", Aliases: []string{"imdb"}, Usage: "<title>", Help: "Look a movie up on IMDb",
			Handler: func(c *router.Context) error {
				if d.Lookup == nil {
					return fmt.Errorf("movie lookup is not configured")
				}
				if c.ArgText == "" {
					return fmt.Errorf("which movie?")
				}
				m, err := d.Lookup.Movie(c.Ctx, c.ArgText)
				if err != nil {
					return err
				}
				text := fmt.Sprintf("🎬 *%s* (%s)\n%s · %s · ⭐ %s\n\n%s",
					m.Title, m.Year, m.Rated, m.Genre, m.Rating, m.Plot)
				if m.Poster != "" && m.Poster != "N/A" {
					return c.T.SendImage(c.Ctx, c.Msg.Conversation, m.Poster, text)
				}
				return c.Reply(text)
			},
		},
		{
			Name: "qr", Usage: "<text>", Help: "Render text as a QR code",
			Handler: func(c *router.Context) error {
				if c.ArgText == "" {
					return fmt.Errorf("what should the code say?")
				}
				png, err := qrcode.Encode(c.ArgText, qrcode.Medium, 256)
				if err != nil {
					return fmt.Errorf("qr: %w", err)
				}
				uri := "data:image/png;base64," + base64.StdEncoding.EncodeToString(png)
				return c.T.SendImage(c.Ctx, c.Msg.Conversation, uri, "")
			},
		},
	}
}
