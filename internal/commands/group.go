package commands

import (
	"fmt"
	"strings"

	"github.com/vorte-labs/vorte/internal/router"
	"github.com/vorte-labs/vorte/pkg/transport"
)

// target picks the user a moderation command acts on: the first
// mention, or the first argument.
func target(c *router.Context) (string, error) {
	if len(c.Msg.Mentions) > 0 {
		return c.Msg.Mentions[0], nil
	}
	if len(c.Args) > 0 {
		return strings.TrimPrefix(c.Args[0], "@"), nil
	}
	return "", fmt.Errorf("mention who you mean")
}

func groupCommands(d *Deps) []*router.Command {
	modCaps := router.GroupOnly | router.AdminOnly | router.BotMustBeAdmin

	return []*router.Command{
		{
			Name: "kick", Usage: "@user", Help: "Remove a member from the group",
			Caps: modCaps,
			Handler: func(c *router.Context) error {
				user, err := target(c)
				if err != nil {
					return err
				}
				if err := c.T.UpdateParticipants(c.Ctx, c.Msg.Conversation, []string{user}, transport.ParticipantRemove); err != nil {
					return fmt.Errorf("remove %s: %w", user, err)
				}
				return c.Reply("@"+user+" has been removed.", user)
			},
		},
		{
			Name: "add", Usage: "<number>", Help: "Add a member to the group",
			Caps: modCaps,
			Handler: func(c *router.Context) error {
				user, err := target(c)
				if err != nil {
					return err
				}
				if err := c.T.UpdateParticipants(c.Ctx, c.Msg.Conversation, []string{user}, transport.ParticipantAdd); err != nil {
					return fmt.Errorf("add %s: %w", user, err)
				}
				return c.Reply("@"+user+" has been added.", user)
			},
		},
		{
			Name: "promote", Usage: "@user", Help: "Make a member an admin",
			Caps: modCaps,
			Handler: func(c *router.Context) error {
				user, err := target(c)
				if err != nil {
					return err
				}
				if err := c.T.UpdateParticipants(c.Ctx, c.Msg.Conversation, []string{user}, transport.ParticipantPromote); err != nil {
					return fmt.Errorf("promote %s: %w", user, err)
				}
				return c.Reply("@"+user+" is now an admin.", user)
			},
		},
		{
			Name: "demote", Usage: "@user", Help: "Remove a member's admin",
			Caps: modCaps,
			Handler: func(c *router.Context) error {
				user, err := target(c)
				if err != nil {
					return err
				}
				if err := c.T.UpdateParticipants(c.Ctx, c.Msg.Conversation, []string{user}, transport.ParticipantDemote); err != nil {
					return fmt.Errorf("demote %s: %w", user, err)
				}
				return c.Reply("@"+user+" is no longer an admin.", user)
			},
		},
		{
			Name: "setsubject", Aliases: []string{"setname", "setgroupname"}, Usage: "<subject>", Help: "Rename the group",
			Caps: modCaps,
			Handler: func(c *router.Context) error {
				if c.ArgText == "" {
					return fmt.Errorf("give me a new subject")
				}
				if err := c.T.SetGroupSubject(c.Ctx, c.Msg.Conversation, c.ArgText); err != nil {
					return fmt.Errorf("set subject: %w", err)
				}
				return c.Reply("Group renamed to *" + c.ArgText + "*.")
			},
		},
		{
			Name: "mute", Aliases: []string{"close"}, Help: "Only admins may send messages",
			Caps: modCaps,
			Handler: func(c *router.Context) error {
				if err := c.T.SetGroupAnnounce(c.Ctx, c.Msg.Conversation, true); err != nil {
					return fmt.Errorf("mute: %w", err)
				}
				return c.Reply("Group muted. Only admins can send messages now.")
			},
		},
		{
			Name: "unmute", Aliases: []string{"open"}, Help: "Everyone may send messages again",
			Caps: modCaps,
			Handler: func(c *router.Context) error {
				if err := c.T.SetGroupAnnounce(c.Ctx, c.Msg.Conversation, false); err != nil {
					return fmt.Errorf("unmute: %w", err)
				}
				return c.Reply("Group unmuted.")
			},
		},
		{
			Name: "link", Aliases: []string{"invite", "gclink"}, Help: "Get the group invite link",
			Caps: router.GroupOnly | router.AdminOnly | router.BotMustBeAdmin,
			Handler: func(c *router.Context) error {
				link, err := c.T.GroupInviteLink(c.Ctx, c.Msg.Conversation)
				if err != nil {
					return fmt.Errorf("invite link: %w", err)
				}
				return c.Reply(link)
			},
		},
		{
			Name: "tagall", Aliases: []string{"everyone"}, Usage: "[message]", Help: "Mention everyone in the group",
			Caps: router.GroupOnly | router.AdminOnly,
			Handler: func(c *router.Context) error {
				meta, err := c.T.GroupMetadata(c.Ctx, c.Msg.Conversation)
				if err != nil {
					return fmt.Errorf("group metadata: %w", err)
				}
				var b strings.Builder
				if c.ArgText != "" {
					b.WriteString(c.ArgText)
					b.WriteString("\n\n")
				}
				mentions := make([]string, 0, len(meta.Participants))
				for _, p := range meta.Participants {
					b.WriteString("@" + p.ID + "\n")
					mentions = append(mentions, p.ID)
				}
				return c.Reply(strings.TrimRight(b.String(), "\n"), mentions...)
			},
		},
		{
			Name: "hidetag", Usage: "<message>", Help: "Message everyone without the @ wall",
			Caps: router.GroupOnly | router.AdminOnly,
			Handler: func(c *router.Context) error {
				if c.ArgText == "" {
					return fmt.Errorf("what should I announce?")
				}
				meta, err := c.T.GroupMetadata(c.Ctx, c.Msg.Conversation)
				if err != nil {
					return fmt.Errorf("group metadata: %w", err)
				}
				mentions := make([]string, 0, len(meta.Participants))
				for _, p := range meta.Participants {
					mentions = append(mentions, p.ID)
				}
				return c.Reply(c.ArgText, mentions...)
			},
		},
		{
			Name: "listadmins", Help: "List the group admins",
			Caps: router.GroupOnly,
			Handler: func(c *router.Context) error {
				meta, err := c.T.GroupMetadata(c.Ctx, c.Msg.Conversation)
				if err != nil {
					return fmt.Errorf("group metadata: %w", err)
				}
				admins := meta.Admins()
				if len(admins) == 0 {
					return c.Reply("This group has no admins.")
				}
				var b strings.Builder
				b.WriteString("*Admins*\n")
				for _, a := range admins {
					b.WriteString("@" + a + "\n")
				}
				return c.Reply(strings.TrimRight(b.String(), "\n"), admins...)
			},
		},
		{
			Name: "tagadmins", Usage: "[message]", Help: "Mention the group admins",
			Caps: router.GroupOnly,
			Handler: func(c *router.Context) error {
				meta, err := c.T.GroupMetadata(c.Ctx, c.Msg.Conversation)
				if err != nil {
					return fmt.Errorf("group metadata: %w", err)
				}
				admins := meta.Admins()
				if len(admins) == 0 {
					return c.Reply("This group has no admins.")
				}
				var b strings.Builder
				if c.ArgText != "" {
					b.WriteString(c.ArgText)
					b.WriteString("\n\n")
				}
				for _, a := range admins {
					b.WriteString("@" + a + "\n")
				}
				return c.Reply(strings.TrimRight(b.String(), "\n"), admins...)
			},
		},
		{
			Name: "warn", Usage: "@user", Help: "Warn a member; 3 warnings remove them",
			Caps: modCaps,
			Handler: func(c *router.Context) error {
				user, err := target(c)
				if err != nil {
					return err
				}
				n := d.State.Warn(c.Msg.Conversation, user)
				if n < router.MaxWarnings {
					return c.Reply(fmt.Sprintf("⚠️ @%s warned (%d/%d).", user, n, router.MaxWarnings), user)
				}
				d.State.ClearWarnings(c.Msg.Conversation, user)
				if err := c.T.UpdateParticipants(c.Ctx, c.Msg.Conversation, []string{user}, transport.ParticipantRemove); err != nil {
					return fmt.Errorf("remove %s: %w", user, err)
				}
				return c.Reply(fmt.Sprintf("@%s removed after %d warnings.", user, router.MaxWarnings), user)
			},
		},
		{
			Name: "kickall", Help: "Remove every non-admin member",
			Caps: router.GroupOnly | router.OwnerOnly | router.BotMustBeAdmin,
			Handler: func(c *router.Context) error {
				meta, err := c.T.GroupMetadata(c.Ctx, c.Msg.Conversation)
				if err != nil {
					return fmt.Errorf("group metadata: %w", err)
				}
				self := c.R.SelfID()
				var victims []string
				for _, p := range meta.Participants {
					if !p.IsAdmin && p.ID != self {
						victims = append(victims, p.ID)
					}
				}
				if len(victims) == 0 {
					return c.Reply("Nobody to remove.")
				}
				if err := c.T.UpdateParticipants(c.Ctx, c.Msg.Conversation, victims, transport.ParticipantRemove); err != nil {
					return fmt.Errorf("kickall: %w", err)
				}
				return c.Reply(fmt.Sprintf("Removed %d members.", len(victims)))
			},
		},
		{
			Name: "leave", Help: "Make the bot leave this group",
			Caps: router.GroupOnly | router.OwnerOnly,
			Handler: func(c *router.Context) error {
				if err := c.Reply("Goodbye! 👋"); err != nil {
					return err
				}
				return c.T.LeaveGroup(c.Ctx, c.Msg.Conversation)
			},
		},
		{
			Name: "setgpic", Usage: "<image url>", Help: "Change the group picture",
			Caps: modCaps,
			Handler: func(c *router.Context) error {
				if c.ArgText == "" {
					return fmt.Errorf("give me an image URL")
				}
				if err := c.T.SetGroupPicture(c.Ctx, c.Msg.Conversation, c.ArgText); err != nil {
					return fmt.Errorf("set picture: %w", err)
				}
				return c.Reply("Group picture updated.")
			},
		},
		{
			Name: "userid", Usage: "[@user]", Help: "Show a member's id",
			Handler: func(c *router.Context) error {
				user, err := target(c)
				if err != nil {
					user = c.Msg.Sender
				}
				return c.Reply("`" + user + "`")
			},
		},
		{
			Name: "poll", Usage: "question | option | option", Help: "Post a numbered poll",
			Caps: router.GroupOnly,
			Handler: func(c *router.Context) error {
				parts := strings.Split(c.ArgText, "|")
				for i := range parts {
					parts[i] = strings.TrimSpace(parts[i])
				}
				if len(parts) < 3 || parts[0] == "" {
					return fmt.Errorf("format: question | option | option")
				}
				var b strings.Builder
				fmt.Fprintf(&b, "📊 *%s*\n", parts[0])
				for i, opt := range parts[1:] {
					if opt == "" {
						return fmt.Errorf("empty option %d", i+1)
					}
					fmt.Fprintf(&b, "%d. %s\n", i+1, opt)
				}
				b.WriteString("\nReply with the number of your choice.")
				return c.Reply(b.String())
			},
		},
		{
			Name: "groupinfo", Help: "Show group name, size and admins",
			Caps: router.GroupOnly,
			Handler: func(c *router.Context) error {
				meta, err := c.T.GroupMetadata(c.Ctx, c.Msg.Conversation)
				if err != nil {
					return fmt.Errorf("group metadata: %w", err)
				}
				return c.Reply(fmt.Sprintf("*%s*\nMembers: %d\nAdmins: %d",
					meta.Subject, len(meta.Participants), len(meta.Admins())))
			},
		},
		{
			Name: "warnings", Usage: "@user", Help: "Show a member's link warnings",
			Caps: router.GroupOnly,
			Handler: func(c *router.Context) error {
				user, err := target(c)
				if err != nil {
					user = c.Msg.Sender
				}
				n := d.State.Warnings(c.Msg.Conversation, user)
				return c.Reply(fmt.Sprintf("@%s has %d/%d warnings.", user, n, router.MaxWarnings), user)
			},
		},
		{
			Name: "resetwarn", Usage: "@user", Help: "Clear a member's link warnings",
			Caps: router.GroupOnly | router.AdminOnly,
			Handler: func(c *router.Context) error {
				user, err := target(c)
				if err != nil {
					return err
				}
				d.State.ClearWarnings(c.Msg.Conversation, user)
				return c.Reply("Warnings cleared for @"+user+".", user)
			},
		},
	}
}
