// Package router turns inbound messages into command executions. It
// owns the pre-command behaviors (ambient presence and reaction
// toggles, anti-link moderation, mention replies), the per-sender
// cooldown, and the capability checks that gate each command.
package router

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/vorte-labs/vorte/internal/bus"
	"github.com/vorte-labs/vorte/internal/llm"
	"github.com/vorte-labs/vorte/internal/stats"
	"github.com/vorte-labs/vorte/pkg/state"
	"github.com/vorte-labs/vorte/pkg/transport"
)

// Cooldown is the minimum gap between commands from one sender in one
// conversation. Messages inside the window are dropped silently.
const Cooldown = time.Second

// CooldownPruneInterval is how often stale cooldown entries are
// dropped. The map gains one entry per (conversation, sender) pair, so
// it has to be trimmed over the life of the daemon.
const CooldownPruneInterval = time.Minute

// MaxWarnings removes a user on the anti-link warning that reaches it.
const MaxWarnings = 3

// Capability gates a command. Checks run in declaration order: group
// scope first, then sender privilege, then bot privilege, then owner.
type Capability uint8

const (
	GroupOnly Capability = 1 << iota
	AdminOnly
	BotMustBeAdmin
	OwnerOnly
)

// Command is one registered chat command.
type Command struct {
	Name    string
	Aliases []string
	Help    string
	Usage   string // argument synopsis, without the prefix or name
	Caps    Capability
	Handler func(*Context) error
}

// Context is everything a command handler gets to work with.
type Context struct {
	Ctx     context.Context
	Msg     transport.Message
	Args    []string
	ArgText string // raw argument string, original spacing preserved

	T transport.Transport
	R *Router
}

// Reply sends text back to the conversation the command came from.
func (c *Context) Reply(text string, mentions ...string) error {
	return c.T.SendText(c.Ctx, c.Msg.Conversation, text, mentions...)
}

// Router dispatches messages against the command registry.
type Router struct {
	Prefix  string
	BotName string
	Owners  []string

	State *state.Store
	Stats *stats.Store
	Bus   *bus.Bus
	AI    *llm.Client // nil disables mention replies and .gpt

	SelfID func() string

	registry map[string]*Command
	ordered  []*Command

	// Now is the cooldown clock. Replaceable in tests.
	Now func() time.Time

	mu       sync.Mutex
	lastSeen map[string]time.Time
}

// New creates a router with an empty registry.
func New(prefix, botName string, owners []string) *Router {
	if prefix == "" {
		prefix = "."
	}
	return &Router{
		Prefix:   prefix,
		BotName:  botName,
		Owners:   owners,
		registry: make(map[string]*Command),
		lastSeen: make(map[string]time.Time),
		Now:      time.Now,
	}
}

// Register adds commands to the registry. Duplicate names panic: the
// registry is assembled once at startup and a collision is a bug.
func (r *Router) Register(cmds ...*Command) {
	for _, cmd := range cmds {
		for _, name := range append([]string{cmd.Name}, cmd.Aliases...) {
			if _, dup := r.registry[name]; dup {
				panic(fmt.Sprintf("duplicate command %q", name))
			}
			r.registry[name] = cmd
		}
		r.ordered = append(r.ordered, cmd)
	}
	sort.Slice(r.ordered, func(i, j int) bool { return r.ordered[i].Name < r.ordered[j].Name })
}

// Commands returns the registry sorted by name, for menu rendering.
func (r *Router) Commands() []*Command {
	return r.ordered
}

// Lookup resolves a command name or alias.
func (r *Router) Lookup(name string) (*Command, bool) {
	cmd, ok := r.registry[name]
	return cmd, ok
}

// IsOwner reports whether user is a configured owner.
func (r *Router) IsOwner(user string) bool {
	for _, o := range r.Owners {
		if o == user {
			return true
		}
	}
	return false
}

var linkPattern = regexp.MustCompile(`(?i)\bhttps?://\S+|\bwww\.\S+\.\S+|\bchat\.whatsapp\.com/\S+`)

// HasLink reports whether text contains something that reads as a URL.
func HasLink(text string) bool {
	return linkPattern.MatchString(text)
}

// Handle processes one inbound message end to end. Handler panics are
// contained here so one bad command cannot take the daemon down.
func (r *Router) Handle(ctx context.Context, tr transport.Transport, msg transport.Message) {
	if msg.FromSelf {
		return
	}

	// Status posts carry no commands. View and react per the toggles,
	// then stop.
	if msg.IsStatus {
		r.statusBehaviors(ctx, tr, msg)
		return
	}

	body := strings.TrimSpace(msg.Body)
	isCommand := strings.HasPrefix(body, r.Prefix) && len(body) > len(r.Prefix)

	if r.Stats != nil {
		if err := r.Stats.RecordMessage(msg.Conversation, msg.Sender, isCommand); err != nil {
			slog.Error("record stats", "error", err)
		}
	}

	r.preBehaviors(ctx, tr, msg)

	if msg.IsGroup && r.moderate(ctx, tr, msg) {
		return
	}

	if !isCommand {
		r.mentionReply(ctx, tr, msg)
		return
	}

	name, args, argText := splitCommand(body[len(r.Prefix):])
	cmd, ok := r.Lookup(name)
	if !ok {
		_ = tr.SendText(ctx, msg.Conversation, fmt.Sprintf("Unknown command *%s%s*. Try %smenu.", r.Prefix, name, r.Prefix))
		return
	}

	if !r.allowCooldown(msg.Conversation, msg.Sender) {
		return
	}

	if denied := r.checkCaps(ctx, tr, msg, cmd); denied != "" {
		_ = tr.SendText(ctx, msg.Conversation, denied)
		return
	}

	if r.Bus != nil {
		r.Bus.Publish(bus.Event{
			Type:         bus.EventCommand,
			Conversation: msg.Conversation,
			Sender:       msg.Sender,
			Command:      cmd.Name,
		})
	}

	c := &Context{Ctx: ctx, Msg: msg, Args: args, ArgText: argText, T: tr, R: r}
	defer func() {
		if rec := recover(); rec != nil {
			slog.Error("command panicked", "command", cmd.Name, "panic", rec)
			_ = tr.SendText(ctx, msg.Conversation, "Something went wrong running that command.")
		}
	}()
	if err := cmd.Handler(c); err != nil {
		slog.Error("command failed", "command", cmd.Name, "sender", msg.Sender, "error", err)
		_ = tr.SendText(ctx, msg.Conversation, fmt.Sprintf("Couldn't run %s%s: %v", r.Prefix, cmd.Name, err))
	}
}

var autoReactions = []string{"👍", "❤️", "😂", "🔥", "👏", "✨"}

// preBehaviors applies the per-conversation ambient toggles (reaction,
// typing or recording indicator) before any command handling.
func (r *Router) preBehaviors(ctx context.Context, tr transport.Transport, msg transport.Message) {
	if r.State == nil {
		return
	}
	s := r.State.Get(msg.Conversation)
	if s.AutoTyping {
		_ = tr.SendPresence(ctx, msg.Conversation, transport.PresenceComposing)
	} else if s.AutoRecording {
		_ = tr.SendPresence(ctx, msg.Conversation, transport.PresenceRecording)
	}
	if s.AutoReact && msg.ID != "" {
		_ = tr.React(ctx, msg.Conversation, msg.ID, autoReactions[rand.Intn(len(autoReactions))])
	}
}

// statusBehaviors views and reacts to status posts per the
// conversation's toggles.
func (r *Router) statusBehaviors(ctx context.Context, tr transport.Transport, msg transport.Message) {
	if r.State == nil || msg.ID == "" {
		return
	}
	s := r.State.Get(msg.Conversation)
	if s.AutoStatusView {
		_ = tr.MarkRead(ctx, msg.Conversation, msg.ID)
	}
	if s.AutoReactToStatus {
		_ = tr.React(ctx, msg.Conversation, msg.ID, autoReactions[rand.Intn(len(autoReactions))])
	}
}

// moderate applies anti-link enforcement. Returns true when the message
// was consumed by moderation and must not be processed further.
func (r *Router) moderate(ctx context.Context, tr transport.Transport, msg transport.Message) bool {
	if r.State == nil || !r.State.Get(msg.Conversation).Antilink {
		return false
	}
	if !HasLink(msg.Body) || r.IsOwner(msg.Sender) {
		return false
	}
	meta, err := tr.GroupMetadata(ctx, msg.Conversation)
	if err != nil {
		slog.Error("antilink metadata", "conversation", msg.Conversation, "error", err)
		return false
	}
	if meta.IsAdmin(msg.Sender) {
		return false
	}

	if err := tr.DeleteMessage(ctx, msg.Conversation, msg.ID); err != nil {
		slog.Error("antilink delete", "error", err)
	}

	count := r.State.Warn(msg.Conversation, msg.Sender)
	if count >= MaxWarnings {
		r.State.ClearWarnings(msg.Conversation, msg.Sender)
		if err := tr.UpdateParticipants(ctx, msg.Conversation, []string{msg.Sender}, transport.ParticipantRemove); err != nil {
			slog.Error("antilink remove", "error", err)
			_ = tr.SendText(ctx, msg.Conversation, "@"+msg.Sender+" reached 3 warnings but I couldn't remove them.", msg.Sender)
			return true
		}
		_ = tr.SendText(ctx, msg.Conversation, "@"+msg.Sender+" removed after 3 link warnings.", msg.Sender)
		if r.Bus != nil {
			r.Bus.Publish(bus.Event{
				Type:         bus.EventModeration,
				Conversation: msg.Conversation,
				Sender:       msg.Sender,
				Message:      "removed after 3 link warnings",
			})
		}
		return true
	}

	_ = tr.SendText(ctx, msg.Conversation,
		fmt.Sprintf("@%s links are not allowed here. Warning %d/%d.", msg.Sender, count, MaxWarnings), msg.Sender)
	return true
}

// mentionReply answers plain messages that @-mention the bot.
func (r *Router) mentionReply(ctx context.Context, tr transport.Transport, msg transport.Message) {
	if r.AI == nil || r.SelfID == nil {
		return
	}
	self := r.SelfID()
	mentioned := false
	for _, m := range msg.Mentions {
		if m == self {
			mentioned = true
			break
		}
	}
	if !mentioned {
		return
	}

	prompt := strings.TrimSpace(strings.ReplaceAll(msg.Body, "@"+self, ""))
	if prompt == "" {
		return
	}
	_ = tr.SendPresence(ctx, msg.Conversation, transport.PresenceComposing)
	answer, err := r.AI.Reply(ctx, prompt)
	if err != nil {
		slog.Error("mention reply", "error", err)
		return
	}
	_ = tr.SendText(ctx, msg.Conversation, answer)
}

// allowCooldown reports whether the sender is outside the cooldown
// window, recording the hit when they are.
func (r *Router) allowCooldown(conversation, sender string) bool {
	key := conversation + "_" + sender
	now := r.Now()
	r.mu.Lock()
	defer r.mu.Unlock()
	if last, ok := r.lastSeen[key]; ok && now.Sub(last) < Cooldown {
		return false
	}
	r.lastSeen[key] = now
	return true
}

// PruneCooldowns drops every entry already outside the cooldown window
// and returns how many were removed.
func (r *Router) PruneCooldowns() int {
	now := r.Now()
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for key, last := range r.lastSeen {
		if now.Sub(last) >= Cooldown {
			delete(r.lastSeen, key)
			n++
		}
	}
	return n
}

// Run prunes the cooldown map on a fixed interval until ctx is
// cancelled.
func (r *Router) Run(ctx context.Context) {
	slog.Info("cooldown pruner started", "interval", CooldownPruneInterval)
	ticker := time.NewTicker(CooldownPruneInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			slog.Info("cooldown pruner stopping")
			return
		case <-ticker.C:
			r.PruneCooldowns()
		}
	}
}

// checkCaps enforces a command's capability gates in order. Returns the
// denial message, or "" when the command may run.
func (r *Router) checkCaps(ctx context.Context, tr transport.Transport, msg transport.Message, cmd *Command) string {
	if cmd.Caps&GroupOnly != 0 && !msg.IsGroup {
		return "That command only works in groups."
	}

	var meta *transport.GroupMetadata
	needMeta := msg.IsGroup && cmd.Caps&(AdminOnly|BotMustBeAdmin) != 0
	if needMeta {
		var err error
		meta, err = tr.GroupMetadata(ctx, msg.Conversation)
		if err != nil {
			slog.Error("capability metadata", "conversation", msg.Conversation, "error", err)
			return "Couldn't check group permissions, try again."
		}
	}

	if cmd.Caps&AdminOnly != 0 && msg.IsGroup {
		if !meta.IsAdmin(msg.Sender) && !r.IsOwner(msg.Sender) {
			return "Only group admins can use that."
		}
	}
	if cmd.Caps&BotMustBeAdmin != 0 && msg.IsGroup {
		if self := r.SelfID(); self != "" && !meta.IsAdmin(self) {
			return "I need to be a group admin to do that."
		}
	}
	if cmd.Caps&OwnerOnly != 0 && !r.IsOwner(msg.Sender) {
		return "Only my owner can use that."
	}
	return ""
}

// splitCommand parses "name arg arg ..." preserving the raw arg text.
func splitCommand(s string) (name string, args []string, argText string) {
	s = strings.TrimSpace(s)
	if i := strings.IndexAny(s, " \t\n"); i >= 0 {
		name, argText = s[:i], strings.TrimSpace(s[i+1:])
	} else {
		name = s
	}
	name = strings.ToLower(name)
	if argText != "" {
		args = strings.Fields(argText)
	}
	return name, args, argText
}
