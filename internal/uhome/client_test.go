package uhome

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"utec-gateway/internal/common/errors"
	"utec-gateway/internal/credstore"
	"utec-gateway/internal/executor"
	"utec-gateway/internal/settings"
	"utec-gateway/internal/token"
)

type memStore struct {
	mu   sync.Mutex
	cred *credstore.Credential
}

func (s *memStore) Load(ctx context.Context) (*credstore.Credential, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cred.Clone(), nil
}

func (s *memStore) Save(ctx context.Context, cred *credstore.Credential) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cred = cred.Clone()
	return nil
}

// newTestClient points a client at the given API server with a fresh token.
func newTestClient(t *testing.T, apiURL string) *Client {
	t.Helper()
	src := func() settings.Settings {
		s := settings.Defaults()
		s.APIBaseURL = apiURL
		return s
	}
	expiresAt := time.Now().Add(time.Hour)
	store := &memStore{cred: &credstore.Credential{
		AccessToken:  "access-1",
		RefreshToken: "refresh-1",
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		ExpiresAt:    &expiresAt,
	}}
	m, err := token.NewManager(context.Background(), store, src, nil)
	require.NoError(t, err)
	return NewClient(executor.New(m, nil), src, nil)
}

func decodeEnvelope(t *testing.T, r *http.Request) map[string]interface{} {
	t.Helper()
	raw, err := io.ReadAll(r.Body)
	require.NoError(t, err)
	var env map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &env))
	return env
}

func TestDiscover(t *testing.T) {
	var env map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		env = decodeEnvelope(t, r)
		assert.Equal(t, "/action", r.URL.Path)
		w.Write([]byte(`{"payload":{"devices":[
			{"id":"lock-1","name":"Front Door","category":"SmartLock","handleType":"utec-lock"},
			{"id":"lock-2","name":"Back Door","category":"SmartLock"}
		]}}`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)

	devices, err := client.Discover(context.Background())
	require.NoError(t, err)

	assert.Equal(t, ActionQuery, env["action"])
	assert.Equal(t, map[string]interface{}{}, env["data"])

	require.Len(t, devices, 2)
	assert.Equal(t, "lock-1", devices[0].ID)
	assert.Equal(t, "Front Door", devices[0].Name)
	// Vendor-specific fields survive the round trip.
	assert.Contains(t, string(devices[0].Raw), "utec-lock")

	out, err := json.Marshal(devices[0])
	require.NoError(t, err)
	assert.Contains(t, string(out), "handleType")
}

func TestQueryStatus(t *testing.T) {
	var env map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		env = decodeEnvelope(t, r)
		w.Write([]byte(`{"payload":{"devices":[{"id":"lock-1","states":[{"capability":"st.lock","value":"locked"}]}]}}`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)

	status, err := client.QueryStatus(context.Background(), []string{"lock-1", ""})
	require.NoError(t, err)
	require.NotNil(t, status)

	assert.Equal(t, ActionQuery, env["action"])
	data := env["data"].(map[string]interface{})
	refs := data["devices"].([]interface{})
	require.Len(t, refs, 1, "empty ids are dropped")
	assert.Equal(t, map[string]interface{}{"id": "lock-1"}, refs[0])
}

func TestQueryStatus_RequiresIDs(t *testing.T) {
	client := newTestClient(t, "http://unused.invalid")

	_, err := client.QueryStatus(context.Background(), nil)
	assert.True(t, errors.IsType(err, errors.ErrTypeValidation))

	_, err = client.QueryStatus(context.Background(), []string{""})
	assert.True(t, errors.IsType(err, errors.ErrTypeValidation))
}

func TestLockAndUnlock(t *testing.T) {
	var envs []map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		envs = append(envs, decodeEnvelope(t, r))
		w.Write([]byte(`{"payload":{"result":"ok"}}`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)

	_, err := client.Lock(context.Background(), "lock-1")
	require.NoError(t, err)
	_, err = client.Unlock(context.Background(), "lock-1")
	require.NoError(t, err)

	require.Len(t, envs, 2)
	for i, name := range []string{"lock", "unlock"} {
		assert.Equal(t, ActionCommand, envs[i]["action"])
		data := envs[i]["data"].(map[string]interface{})
		assert.Equal(t, "lock-1", data["id"])
		assert.Equal(t, CapabilityLock, data["capability"])
		assert.Equal(t, map[string]interface{}{"name": name}, data["command"])
	}
}

func TestSendCommand_RequiresDeviceID(t *testing.T) {
	client := newTestClient(t, "http://unused.invalid")

	_, err := client.SendCommand(context.Background(), "", CapabilityLock, "lock")
	assert.True(t, errors.IsType(err, errors.ErrTypeValidation))
}

func TestUpstreamErrorCarriesStatusAndBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte(`{"error":"vendor down"}`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)

	_, err := client.Discover(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrTypeUpstream))

	var appErr *errors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, http.StatusBadGateway, appErr.StatusCode)
	assert.Contains(t, appErr.Message, "vendor down")
}
