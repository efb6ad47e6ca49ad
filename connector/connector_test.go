package connector

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/serenitystar/core"
	"github.com/hupe1980/serenitystar/internal/testutil"
	"github.com/hupe1980/serenitystar/internal/transport"
)

func newService(t *testing.T, h http.HandlerFunc) (*Service, *testutil.Server) {
	t.Helper()
	srv := testutil.NewServer(t, h)
	tc, err := transport.New(transport.Options{BaseURL: srv.URL + "/api/v2", APIKey: "k"})
	require.NoError(t, err)
	return NewService(tc), srv
}

func TestGetStatus(t *testing.T) {
	svc, srv := newService(t, func(w http.ResponseWriter, _ *http.Request) {
		testutil.WriteJSON(w, map[string]any{"isConnected": true})
	})
	instance, conn := uuid.New(), uuid.New()

	st, err := svc.GetStatus(context.Background(), "helper", instance, conn)
	require.NoError(t, err)
	assert.True(t, st.IsConnected)

	req := srv.Last(t)
	assert.Equal(t, http.MethodGet, req.Method)
	assert.Equal(t, "/api/v2/agent/helper/connector/"+conn.String()+"/status", req.Path)
	assert.Equal(t, []string{instance.String()}, req.Query["agentInstanceId"])
}

func TestGetStatus_Validation(t *testing.T) {
	svc, srv := newService(t, nil)
	ctx := context.Background()

	_, err := svc.GetStatus(ctx, "", uuid.New(), uuid.New())
	assert.ErrorIs(t, err, core.ErrValidation)
	_, err = svc.GetStatus(ctx, "helper", uuid.Nil, uuid.New())
	assert.ErrorIs(t, err, core.ErrValidation)
	_, err = svc.GetStatus(ctx, "helper", uuid.New(), uuid.Nil)
	assert.ErrorIs(t, err, core.ErrValidation)
	assert.Empty(t, srv.Requests())
}

func TestGetStatus_HTTPError(t *testing.T) {
	svc, _ := newService(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	_, err := svc.GetStatus(context.Background(), "helper", uuid.New(), uuid.New())
	var he *core.HTTPError
	require.True(t, errors.As(err, &he))
	assert.Equal(t, http.StatusNotFound, he.StatusCode)
}
