// Package transport defines the abstraction over the messaging network
// connection. The wire protocol, encryption, and device-pairing
// cryptography live behind this interface. The bot consumes it as an
// opaque capability: connect, send, receive events, request a pairing
// code.
package transport

import (
	"context"
	"errors"
	"time"

	"github.com/vorte-labs/vorte/pkg/credential"
)

// ErrNotSupported is returned by implementations that do not provide an
// optional capability (e.g. group operations on a direct-only transport).
var ErrNotSupported = errors.New("transport: operation not supported")

// CloseReason classifies why a connection closed.
type CloseReason int

const (
	// ReasonNetwork is a transient drop. The session is still valid and
	// the caller should reconnect.
	ReasonNetwork CloseReason = iota
	// ReasonLoggedOut means the session was terminated by the user or
	// server. The local credential is no longer valid.
	ReasonLoggedOut
	// ReasonShutdown is a deliberate local Close.
	ReasonShutdown
)

func (r CloseReason) String() string {
	switch r {
	case ReasonNetwork:
		return "network"
	case ReasonLoggedOut:
		return "logged_out"
	case ReasonShutdown:
		return "shutdown"
	default:
		return "unknown"
	}
}

// EventKind tags a transport event.
type EventKind int

const (
	EventConnected EventKind = iota
	EventDisconnected
	EventMessage
	EventParticipants
	EventCredential
	EventQR
)

// Event is a single item from the transport's event stream. Exactly one
// payload field is set, matching Kind.
type Event struct {
	Kind         EventKind
	Reason       CloseReason            // EventDisconnected
	Message      *Message               // EventMessage
	Participants *ParticipantUpdate     // EventParticipants
	Credential   credential.Credential  // EventCredential
	QR           string                 // EventQR, raw payload to render
}

// Message is an inbound message from the network.
type Message struct {
	ID           string
	Conversation string // stable conversation id (direct or group)
	Sender       string
	Body         string
	Mentions     []string
	IsGroup      bool
	IsStatus     bool // a status/story post, not conversation traffic
	FromSelf     bool
	Timestamp    time.Time
}

// ParticipantAction is a group membership change.
type ParticipantAction string

const (
	ParticipantAdd     ParticipantAction = "add"
	ParticipantRemove  ParticipantAction = "remove"
	ParticipantPromote ParticipantAction = "promote"
	ParticipantDemote  ParticipantAction = "demote"
)

// ParticipantUpdate reports a group membership change.
type ParticipantUpdate struct {
	Conversation string
	Users        []string
	Action       ParticipantAction
}

// Presence is an ephemeral typing/recording indicator.
type Presence string

const (
	PresenceComposing Presence = "composing"
	PresenceRecording Presence = "recording"
	PresencePaused    Presence = "paused"
)

// Participant is one member of a group conversation.
type Participant struct {
	ID      string
	IsAdmin bool
}

// GroupMetadata describes a group conversation.
type GroupMetadata struct {
	ID           string
	Subject      string
	Participants []Participant
}

// Admins returns the ids of all admin participants.
func (g *GroupMetadata) Admins() []string {
	var admins []string
	for _, p := range g.Participants {
		if p.IsAdmin {
			admins = append(admins, p.ID)
		}
	}
	return admins
}

// IsAdmin reports whether the given user is an admin of the group.
func (g *GroupMetadata) IsAdmin(user string) bool {
	for _, p := range g.Participants {
		if p.ID == user && p.IsAdmin {
			return true
		}
	}
	return false
}

// Transport is the connection to the messaging network. Implementations
// own the wire protocol; callers own lifecycle and dispatch.
//
// Events() delivers the stream for this connection instance; the channel
// is closed when the transport shuts down. Connect is asynchronous in the
// sense that a successful return only means negotiation started. The
// session is usable once EventConnected arrives.
type Transport interface {
	Connect(ctx context.Context) error
	Close() error
	Logout(ctx context.Context) error
	Events() <-chan Event

	// LoggedIn reports whether a registered credential exists in the
	// transport's session store.
	LoggedIn() bool

	// RequestPairingCode asks the network for a short link code for the
	// given phone number. Only meaningful before the session is
	// registered.
	RequestPairingCode(ctx context.Context, phone string) (string, error)

	// SelfID returns this session's own user id, or "" before login.
	SelfID() string

	SendText(ctx context.Context, conversation, text string, mentions ...string) error
	SendImage(ctx context.Context, conversation, imageURL, caption string, mentions ...string) error
	React(ctx context.Context, conversation, messageID, emoji string) error
	DeleteMessage(ctx context.Context, conversation, messageID string) error
	SendPresence(ctx context.Context, conversation string, p Presence) error

	// MarkRead reports a message (or status post) as viewed.
	MarkRead(ctx context.Context, conversation, messageID string) error

	GroupMetadata(ctx context.Context, conversation string) (*GroupMetadata, error)
	UpdateParticipants(ctx context.Context, conversation string, users []string, action ParticipantAction) error
	SetGroupSubject(ctx context.Context, conversation, subject string) error
	SetGroupAnnounce(ctx context.Context, conversation string, announceOnly bool) error
	GroupInviteLink(ctx context.Context, conversation string) (string, error)
	LeaveGroup(ctx context.Context, conversation string) error
	SetGroupPicture(ctx context.Context, conversation, imageURL string) error

	SetProfileName(ctx context.Context, name string) error
	SetProfileStatus(ctx context.Context, status string) error

	// Chats lists known conversation ids (best effort; used for
	// owner broadcast).
	Chats(ctx context.Context) ([]string, error)
}

// Factory opens a new transport instance backed by the given session
// directory. Each instance owns its directory's credential and key store.
type Factory func(dir string) (Transport, error)
