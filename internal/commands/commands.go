// Package commands holds every chat command the bot answers to. Each
// file groups one area; Register assembles the full registry.
package commands

import (
	"context"
	"time"

	"github.com/vorte-labs/vorte/internal/llm"
	"github.com/vorte-labs/vorte/internal/lookup"
	"github.com/vorte-labs/vorte/internal/router"
	"github.com/vorte-labs/vorte/internal/stats"
	"github.com/vorte-labs/vorte/pkg/state"
)

// Deps is everything command handlers reach for. Nil fields disable
// the commands that need them.
type Deps struct {
	State   *state.Store
	Stats   *stats.Store
	AI      *llm.Client
	Images  *llm.ImageClient
	Lookup  *lookup.Client
	Version string

	StartedAt time.Time

	// Logout tears the session down on .logout.
	Logout func(ctx context.Context) error
}

// Register adds the complete command set to the router.
func Register(r *router.Router, d *Deps) {
	r.Register(groupCommands(d)...)
	r.Register(toggleCommands(d)...)
	r.Register(botCommands(r, d)...)
	r.Register(gameCommands(d)...)
	r.Register(aiCommands(d)...)
	r.Register(mediaCommands(d)...)
	r.Register(funCommands()...)
	r.Register(toolCommands(d)...)
}
