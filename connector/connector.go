// Package connector reports whether an agent instance has completed the
// out-of-band connection flow for one of its connectors.
package connector

import (
	"context"
	"fmt"
	"net/url"

	"github.com/google/uuid"

	"github.com/hupe1980/serenitystar/core"
	"github.com/hupe1980/serenitystar/internal/transport"
)

// Status is the connection state of a connector.
type Status struct {
	IsConnected bool `json:"isConnected"`
}

// Service queries connector status.
type Service struct {
	tc *transport.Client
}

// NewService constructs a Service on top of a transport client.
func NewService(tc *transport.Client) *Service { return &Service{tc: tc} }

// GetStatus returns the status of connectorID for the agent instance
// agentInstanceID. A ConnectionPendingAction on an AgentResult carries the
// connector id to poll here.
func (s *Service) GetStatus(ctx context.Context, agentCode string, agentInstanceID, connectorID uuid.UUID) (*Status, error) {
	if agentCode == "" {
		return nil, core.NewValidationError("agentCode", "must not be empty")
	}
	if agentInstanceID == uuid.Nil {
		return nil, core.NewValidationError("agentInstanceId", "must not be empty")
	}
	if connectorID == uuid.Nil {
		return nil, core.NewValidationError("connectorId", "must not be empty")
	}

	path := fmt.Sprintf("agent/%s/connector/%s/status", agentCode, connectorID)
	resp, err := s.tc.Get(ctx, path, url.Values{"agentInstanceId": {agentInstanceID.String()}})
	if err != nil {
		return nil, fmt.Errorf("connector status: %w", err)
	}
	var st Status
	if err := transport.DecodeJSON(resp, &st); err != nil {
		return nil, fmt.Errorf("connector status: %w", err)
	}
	return &st, nil
}
