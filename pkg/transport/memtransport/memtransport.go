// Package memtransport is an in-memory Transport used by tests and -dev
// runs. It speaks no wire protocol: pairing, connection drops, and
// inbound traffic are driven explicitly by the harness, and everything
// sent is captured in an outbox for inspection.
package memtransport

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"sync"
	"time"

	"github.com/vorte-labs/vorte/pkg/credential"
	"github.com/vorte-labs/vorte/pkg/transport"
)

// Sent is one captured outbound action.
type Sent struct {
	Kind         string // "text", "image", "react", "delete", "presence", "read"
	Conversation string
	Text         string
	ImageURL     string
	Caption      string
	Emoji        string
	MessageID    string
	Presence     transport.Presence
	Mentions     []string
}

// Transport implements transport.Transport entirely in memory.
type Transport struct {
	mu      sync.Mutex
	dir     string
	events  chan transport.Event
	closed  bool
	selfID  string
	cred    credential.Credential
	pending string // outstanding pairing code
	outbox  []Sent
	groups  map[string]*transport.GroupMetadata
	chats   map[string]struct{}

	// FailConnect, when set, makes the next Connect return an error once.
	FailConnect error
}

// New opens a memtransport over a session directory. An existing
// credential document in dir makes the transport LoggedIn.
func New(dir string) (*Transport, error) {
	t := &Transport{
		dir:    dir,
		events: make(chan transport.Event, 64),
		selfID: "bot@vorte",
		groups: make(map[string]*transport.GroupMetadata),
		chats:  make(map[string]struct{}),
	}
	if credential.Exists(dir) {
		c, err := credential.Load(dir)
		if err != nil {
			return nil, fmt.Errorf("load credential: %w", err)
		}
		t.cred = c
	}
	return t, nil
}

// Factory returns a transport.Factory producing memtransports.
func Factory() transport.Factory {
	return func(dir string) (transport.Transport, error) { return New(dir) }
}

func (t *Transport) Connect(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return fmt.Errorf("memtransport: closed")
	}
	if t.FailConnect != nil {
		err := t.FailConnect
		t.FailConnect = nil
		return err
	}
	if t.cred != nil {
		t.emitLocked(transport.Event{Kind: transport.EventConnected})
	} else {
		t.emitLocked(transport.Event{Kind: transport.EventQR, QR: "mem-qr-" + randToken()})
	}
	return nil
}

func (t *Transport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return nil
	}
	t.closed = true
	close(t.events)
	return nil
}

func (t *Transport) Logout(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.cred = nil
	_ = os.Remove(t.dir + "/creds.json")
	t.emitLocked(transport.Event{Kind: transport.EventDisconnected, Reason: transport.ReasonLoggedOut})
	return nil
}

func (t *Transport) Events() <-chan transport.Event { return t.events }

func (t *Transport) LoggedIn() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.cred != nil
}

func (t *Transport) RequestPairingCode(ctx context.Context, phone string) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return "", fmt.Errorf("memtransport: closed")
	}
	if t.cred != nil {
		return "", fmt.Errorf("memtransport: already registered")
	}
	t.pending = randCode(8)
	return t.pending, nil
}

func (t *Transport) SelfID() string { return t.selfID }

// --- Harness controls ---

// CompletePairing simulates the user entering the pairing code on their
// device: a fresh credential is minted, persisted to the session dir,
// and EventCredential + EventConnected are emitted.
func (t *Transport) CompletePairing() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.pending == "" {
		return fmt.Errorf("memtransport: no pairing in progress")
	}
	t.pending = ""
	t.cred = credential.Credential{
		"deviceId": json.RawMessage(fmt.Sprintf("%q", "dev-"+randToken())),
		"noiseKey": json.RawMessage(fmt.Sprintf("%q", randToken())),
	}
	if err := credential.Save(t.dir, t.cred); err != nil {
		return err
	}
	t.emitLocked(transport.Event{Kind: transport.EventConnected})
	t.emitLocked(transport.Event{Kind: transport.EventCredential, Credential: t.cred})
	return nil
}

// Open emits a bare EventConnected, the way a link comes up before any
// credential has been captured.
func (t *Transport) Open() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.emitLocked(transport.Event{Kind: transport.EventConnected})
}

// Drop simulates a connection close with the given reason.
func (t *Transport) Drop(reason transport.CloseReason) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.emitLocked(transport.Event{Kind: transport.EventDisconnected, Reason: reason})
}

// Inject delivers an inbound message to the event stream.
func (t *Transport) Inject(msg transport.Message) {
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now()
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.chats[msg.Conversation] = struct{}{}
	t.emitLocked(transport.Event{Kind: transport.EventMessage, Message: &msg})
}

// InjectParticipants delivers a group membership change event.
func (t *Transport) InjectParticipants(u transport.ParticipantUpdate) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.emitLocked(transport.Event{Kind: transport.EventParticipants, Participants: &u})
}

// SetGroup registers group metadata served by GroupMetadata.
func (t *Transport) SetGroup(meta *transport.GroupMetadata) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.groups[meta.ID] = meta
	t.chats[meta.ID] = struct{}{}
}

// Outbox returns a copy of everything sent so far.
func (t *Transport) Outbox() []Sent {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Sent, len(t.outbox))
	copy(out, t.outbox)
	return out
}

// LastText returns the most recent text send, or an empty Sent.
func (t *Transport) LastText() Sent {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i := len(t.outbox) - 1; i >= 0; i-- {
		if t.outbox[i].Kind == "text" {
			return t.outbox[i]
		}
	}
	return Sent{}
}

// --- Outbound ---

func (t *Transport) SendText(ctx context.Context, conversation, text string, mentions ...string) error {
	return t.record(Sent{Kind: "text", Conversation: conversation, Text: text, Mentions: mentions})
}

func (t *Transport) SendImage(ctx context.Context, conversation, imageURL, caption string, mentions ...string) error {
	return t.record(Sent{Kind: "image", Conversation: conversation, ImageURL: imageURL, Caption: caption, Mentions: mentions})
}

func (t *Transport) React(ctx context.Context, conversation, messageID, emoji string) error {
	return t.record(Sent{Kind: "react", Conversation: conversation, MessageID: messageID, Emoji: emoji})
}

func (t *Transport) DeleteMessage(ctx context.Context, conversation, messageID string) error {
	return t.record(Sent{Kind: "delete", Conversation: conversation, MessageID: messageID})
}

func (t *Transport) SendPresence(ctx context.Context, conversation string, p transport.Presence) error {
	return t.record(Sent{Kind: "presence", Conversation: conversation, Presence: p})
}

func (t *Transport) MarkRead(ctx context.Context, conversation, messageID string) error {
	return t.record(Sent{Kind: "read", Conversation: conversation, MessageID: messageID})
}

// --- Groups ---

func (t *Transport) GroupMetadata(ctx context.Context, conversation string) (*transport.GroupMetadata, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	meta, ok := t.groups[conversation]
	if !ok {
		return nil, fmt.Errorf("memtransport: unknown group %s", conversation)
	}
	cp := *meta
	cp.Participants = append([]transport.Participant(nil), meta.Participants...)
	return &cp, nil
}

func (t *Transport) UpdateParticipants(ctx context.Context, conversation string, users []string, action transport.ParticipantAction) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	meta, ok := t.groups[conversation]
	if !ok {
		return fmt.Errorf("memtransport: unknown group %s", conversation)
	}
	for _, u := range users {
		switch action {
		case transport.ParticipantRemove:
			for i, p := range meta.Participants {
				if p.ID == u {
					meta.Participants = append(meta.Participants[:i], meta.Participants[i+1:]...)
					break
				}
			}
		case transport.ParticipantAdd:
			meta.Participants = append(meta.Participants, transport.Participant{ID: u})
		case transport.ParticipantPromote, transport.ParticipantDemote:
			for i := range meta.Participants {
				if meta.Participants[i].ID == u {
					meta.Participants[i].IsAdmin = action == transport.ParticipantPromote
				}
			}
		}
	}
	return nil
}

func (t *Transport) SetGroupSubject(ctx context.Context, conversation, subject string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if meta, ok := t.groups[conversation]; ok {
		meta.Subject = subject
		return nil
	}
	return fmt.Errorf("memtransport: unknown group %s", conversation)
}

func (t *Transport) SetGroupAnnounce(ctx context.Context, conversation string, announceOnly bool) error {
	return nil
}

func (t *Transport) GroupInviteLink(ctx context.Context, conversation string) (string, error) {
	return "https://chat.example.com/" + randToken(), nil
}

func (t *Transport) LeaveGroup(ctx context.Context, conversation string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.groups, conversation)
	delete(t.chats, conversation)
	return nil
}

func (t *Transport) SetGroupPicture(ctx context.Context, conversation, imageURL string) error {
	return nil
}

func (t *Transport) SetProfileName(ctx context.Context, name string) error { return nil }
func (t *Transport) SetProfileStatus(ctx context.Context, status string) error { return nil }

func (t *Transport) Chats(ctx context.Context) ([]string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]string, 0, len(t.chats))
	for c := range t.chats {
		out = append(out, c)
	}
	return out, nil
}

// --- internals ---

func (t *Transport) record(s Sent) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return fmt.Errorf("memtransport: closed")
	}
	t.outbox = append(t.outbox, s)
	return nil
}

// emitLocked delivers an event without blocking; tests that never drain
// the channel should not deadlock the code under test.
func (t *Transport) emitLocked(e transport.Event) {
	if t.closed {
		return
	}
	select {
	case t.events <- e:
	default:
	}
}

func randToken() string {
	const chars = "abcdefghijklmnopqrstuvwxyz0123456789"
	b := make([]byte, 12)
	for i := range b {
		b[i] = chars[rand.Intn(len(chars))]
	}
	return string(b)
}

func randCode(n int) string {
	const chars = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	b := make([]byte, n)
	for i := range b {
		b[i] = chars[rand.Intn(len(chars))]
	}
	return string(b)
}
