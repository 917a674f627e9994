package bot

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/vorte-labs/vorte/internal/bus"
	"github.com/vorte-labs/vorte/internal/commands"
	"github.com/vorte-labs/vorte/internal/config"
	"github.com/vorte-labs/vorte/internal/conn"
	"github.com/vorte-labs/vorte/internal/llm"
	"github.com/vorte-labs/vorte/internal/lookup"
	"github.com/vorte-labs/vorte/internal/router"
	"github.com/vorte-labs/vorte/internal/stats"
	"github.com/vorte-labs/vorte/pkg/credential"
	"github.com/vorte-labs/vorte/pkg/state"
	"github.com/vorte-labs/vorte/pkg/transport"
)

// queueDepth bounds the backlog per conversation. Messages past the
// bound are dropped rather than stalling the transport read loop.
const queueDepth = 64

// Options carries everything the bot needs. Factory, Config, State and
// Bus are required; the rest degrade gracefully when nil.
type Options struct {
	Config  *config.Config
	Factory transport.Factory
	State   *state.Store
	Stats   *stats.Store
	Bus     *bus.Bus
	AI      *llm.Client
	Images  *llm.ImageClient
	Lookup  *lookup.Client
	Version string
}

// Bot is the long-running service: it owns the connection manager,
// dispatches inbound messages through the command router, greets
// arriving and departing group members, and announces expired games.
type Bot struct {
	Manager *conn.Manager
	Router  *router.Router

	cfg       *config.Config
	state     *state.Store
	bus       *bus.Bus
	startedAt time.Time

	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.Mutex
	queues map[string]chan transport.Message
	wg     sync.WaitGroup
}

// New wires the router, command registry and connection manager. It
// restores a session token into the session directory before the first
// connect so the transport comes up already logged in.
func New(opts Options) (*Bot, error) {
	if opts.Config == nil {
		return nil, fmt.Errorf("config is required")
	}
	if opts.Factory == nil {
		return nil, fmt.Errorf("transport factory is required")
	}
	if opts.State == nil {
		return nil, fmt.Errorf("state store is required")
	}
	if opts.Bus == nil {
		opts.Bus = bus.New()
	}

	if tok := opts.Config.Session.Token; tok != "" {
		if err := restoreSession(tok, opts.Config.Session.Dir); err != nil {
			return nil, err
		}
	}

	b := &Bot{
		cfg:       opts.Config,
		state:     opts.State,
		bus:       opts.Bus,
		startedAt: time.Now(),
		queues:    make(map[string]chan transport.Message),
	}

	r := router.New(opts.Config.Prefix, opts.Config.Name, opts.Config.Owners)
	r.State = opts.State
	r.Stats = opts.Stats
	r.Bus = opts.Bus
	r.AI = opts.AI
	r.SelfID = b.selfID
	commands.Register(r, &commands.Deps{
		State:     opts.State,
		Stats:     opts.Stats,
		AI:        opts.AI,
		Images:    opts.Images,
		Lookup:    opts.Lookup,
		Version:   opts.Version,
		StartedAt: b.startedAt,
		Logout:    func(ctx context.Context) error { return b.Manager.Logout(ctx) },
	})
	b.Router = r

	b.Manager = conn.New(opts.Factory, opts.Config.Session.Dir, opts.Bus, b)
	opts.State.OnEvict = b.announceEviction
	return b, nil
}

// restoreSession decodes an exported session token and writes it into
// the session directory. A malformed token is a hard error, the bot
// must not silently fall back to a fresh pairing.
func restoreSession(token, dir string) error {
	cred, err := credential.Decode(token)
	if err != nil {
		return fmt.Errorf("restore session: %w", err)
	}
	if err := credential.Save(dir, cred); err != nil {
		return fmt.Errorf("restore session: %w", err)
	}
	slog.Info("session restored from token", "dir", dir)
	return nil
}

// Start connects and runs the background workers: the game session
// sweeper and the cooldown pruner. It returns once the connection
// attempt is in flight.
func (b *Bot) Start(ctx context.Context) error {
	b.ctx, b.cancel = context.WithCancel(ctx)
	go b.state.Run(b.ctx)
	go b.Router.Run(b.ctx)
	return b.Manager.Start(b.ctx)
}

// Stop tears the bot down and waits for in-flight handlers to drain.
func (b *Bot) Stop() {
	if b.cancel != nil {
		b.cancel()
	}
	b.Manager.Stop()

	b.mu.Lock()
	for _, q := range b.queues {
		close(q)
	}
	b.queues = nil
	b.mu.Unlock()
	b.wg.Wait()
	slog.Info("bot stopped")
}

// StartedAt reports when the bot was constructed, for uptime display.
func (b *Bot) StartedAt() time.Time { return b.startedAt }

func (b *Bot) selfID() string {
	tr, err := b.Manager.Transport()
	if err != nil {
		return ""
	}
	return tr.SelfID()
}

// HandleMessage enqueues the message on its conversation's serial
// queue. Conversations process concurrently with each other but a
// single conversation sees its messages in arrival order.
func (b *Bot) HandleMessage(ctx context.Context, msg transport.Message) {
	b.mu.Lock()
	if b.queues == nil {
		b.mu.Unlock()
		return
	}
	q, ok := b.queues[msg.Conversation]
	if !ok {
		q = make(chan transport.Message, queueDepth)
		b.queues[msg.Conversation] = q
		b.wg.Add(1)
		go b.drain(q)
	}
	// Enqueue under the lock so Stop cannot close the channel between
	// the lookup and the send. The send never blocks.
	select {
	case q <- msg:
	default:
		slog.Warn("conversation queue full, dropping message",
			"conversation", msg.Conversation, "sender", msg.Sender)
	}
	b.mu.Unlock()
}

func (b *Bot) drain(q chan transport.Message) {
	defer b.wg.Done()
	for msg := range q {
		tr, err := b.Manager.Transport()
		if err != nil {
			continue
		}
		b.Router.Handle(b.ctx, tr, msg)
	}
}

// HandleParticipants greets members joining and leaving groups where
// the welcome or goodbye toggle is on.
func (b *Bot) HandleParticipants(ctx context.Context, update transport.ParticipantUpdate) {
	settings := b.state.Get(update.Conversation)

	var text string
	switch update.Action {
	case transport.ParticipantAdd:
		if !settings.Welcome {
			return
		}
		text = "Welcome to the group, %s! 👋"
	case transport.ParticipantRemove:
		if !settings.Goodbye {
			return
		}
		text = "Goodbye, %s. 👋"
	default:
		return
	}

	tr, err := b.Manager.Transport()
	if err != nil {
		return
	}
	for _, user := range update.Users {
		msg := fmt.Sprintf(text, "@"+user)
		if err := tr.SendText(ctx, update.Conversation, msg, user); err != nil {
			slog.Warn("greeting failed", "conversation", update.Conversation, "error", err)
		}
	}
}

// announceEviction tells a conversation its game ran out of time.
func (b *Bot) announceEviction(e state.Eviction) {
	tr, err := b.Manager.Transport()
	if err != nil {
		return
	}
	text := fmt.Sprintf("⌛ The %s game timed out.", e.Kind)
	if err := tr.SendText(b.ctx, e.Conversation, text); err != nil {
		slog.Warn("eviction notice failed", "conversation", e.Conversation, "error", err)
	}
}
