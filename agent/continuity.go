package agent

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/hupe1980/serenitystar/core"
)

var nilID = uuid.Nil.String()

// Continuity holds the correlation id that binds the turns of one
// conversation. It is empty until the first turn completes, unless it was
// pre-seeded with SetID to resume an existing conversation.
//
// Continuity is not safe for concurrent use; turns are sequential.
type Continuity struct {
	id string
}

// ID returns the current id, or "" before the first turn.
func (c *Continuity) ID() string { return c.id }

// Known reports whether an id is set.
func (c *Continuity) Known() bool { return c.id != "" }

// SetID pre-seeds the id. It fails for an empty id, or when a different id is
// already set.
func (c *Continuity) SetID(id string) error {
	if id == "" {
		return core.NewValidationError("conversationId", "must not be empty")
	}
	if c.id != "" && c.id != id {
		return core.NewValidationError("conversationId", fmt.Sprintf("already bound to %s", c.id))
	}
	c.id = id
	return nil
}

// Capture stores id if none is set yet and id is non-empty (the all-zero
// uuid counts as empty). It reports whether the id changed.
func (c *Continuity) Capture(id string) bool {
	if c.id != "" || id == "" || id == nilID {
		return false
	}
	c.id = id
	return true
}
