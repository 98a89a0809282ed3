package testutil

import (
	"io"
	"log/slog"
	"time"

	"github.com/skosovsky/tooluse"
)

// NewTestRegistry returns a Registry with long timeout, panic recovery enabled and a
// discarding logger, suitable for tests.
func NewTestRegistry(tools ...tooluse.Tool) *tooluse.Registry {
	reg := tooluse.NewRegistry(
		tooluse.WithDefaultTimeout(30*time.Second),
		tooluse.WithRecoverPanics(true),
		tooluse.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
	for _, t := range tools {
		reg.Register(t)
	}
	return reg
}
