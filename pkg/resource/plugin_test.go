package resource

import (
	"errors"
	"net"
	"net/rpc"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRemoteBackend implements Backend plus every optional capability, so
// tests can exercise backendRPCServer/backendRPCClient's full wire contract
// without spawning a real plugin subprocess.
type fakeRemoteBackend struct {
	queryErr error
}

func (f *fakeRemoteBackend) Initialize() error { return nil }
func (f *fakeRemoteBackend) Cleanup() error    { return nil }
func (f *fakeRemoteBackend) Query(request any) (any, error) {
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	return "queried:" + request.(string), nil
}
func (f *fakeRemoteBackend) Chat(messages []map[string]string, systemPrompt string) (string, error) {
	return systemPrompt + ":" + messages[0]["content"], nil
}
func (f *fakeRemoteBackend) Complete(prompt string, opts map[string]any) (string, error) {
	return "completed:" + prompt, nil
}
func (f *fakeRemoteBackend) Embed(text string, opts map[string]any) ([]float64, error) {
	return []float64{1, 2, 3}, nil
}

// dialBackend wires a backendRPCServer over an in-memory net.Pipe and
// returns a backendRPCClient talking to it, mirroring what BackendPlugin's
// Server/Client pair does across a real subprocess boundary.
func dialBackend(t *testing.T, impl Backend) *backendRPCClient {
	t.Helper()
	server := rpc.NewServer()
	require.NoError(t, server.RegisterName(pluginMapKey, &backendRPCServer{impl: impl}))

	clientConn, serverConn := net.Pipe()
	go server.ServeConn(serverConn)
	t.Cleanup(func() { clientConn.Close() })

	rpcClient := rpc.NewClient(clientConn)
	t.Cleanup(func() { rpcClient.Close() })

	client := &backendRPCClient{client: rpcClient}
	require.NoError(t, rpcClient.Call(pluginMapKey+".Capabilities", struct{}{}, &client.caps))
	return client
}

func TestPluginCapabilitiesReflectImplementedInterfaces(t *testing.T) {
	client := dialBackend(t, &fakeRemoteBackend{})
	assert.True(t, client.caps.Queryable)
	assert.True(t, client.caps.Chattable)
	assert.True(t, client.caps.Completable)
	assert.True(t, client.caps.Embeddable)
}

func TestPluginCapabilitiesFalseWhenBackendLacksInterface(t *testing.T) {
	client := dialBackend(t, &fakeBackend{})
	assert.False(t, client.caps.Queryable)
	assert.False(t, client.caps.Chattable)
}

func TestPluginInitializeCleanupRoundTrip(t *testing.T) {
	client := dialBackend(t, &fakeRemoteBackend{})
	assert.NoError(t, client.Initialize())
	assert.NoError(t, client.Cleanup())
}

func TestPluginQueryRoundTrip(t *testing.T) {
	client := dialBackend(t, &fakeRemoteBackend{})
	result, err := client.Query("ping")
	require.NoError(t, err)
	assert.Equal(t, "queried:ping", result)
}

func TestPluginQueryPropagatesBackendError(t *testing.T) {
	client := dialBackend(t, &fakeRemoteBackend{queryErr: errors.New("not found")})
	_, err := client.Query("ping")
	assert.ErrorContains(t, err, "not found")
}

func TestPluginQueryUnsupportedByRemoteErrors(t *testing.T) {
	client := dialBackend(t, &fakeBackend{})
	_, err := client.Query("ping")
	assert.ErrorContains(t, err, "does not implement Queryable")
}

func TestPluginChatRoundTrip(t *testing.T) {
	client := dialBackend(t, &fakeRemoteBackend{})
	text, err := client.Chat([]map[string]string{{"content": "hi"}}, "system")
	require.NoError(t, err)
	assert.Equal(t, "system:hi", text)
}

func TestPluginCompleteRoundTrip(t *testing.T) {
	client := dialBackend(t, &fakeRemoteBackend{})
	text, err := client.Complete("prompt", nil)
	require.NoError(t, err)
	assert.Equal(t, "completed:prompt", text)
}

func TestPluginEmbedRoundTrip(t *testing.T) {
	client := dialBackend(t, &fakeRemoteBackend{})
	vec, err := client.Embed("text", nil)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2, 3}, vec)
}

func TestLoadedBackendCloseIsSafeWithNilClient(t *testing.T) {
	lb := &LoadedBackend{Backend: &fakeRemoteBackend{}}
	assert.NotPanics(t, func() { lb.Close() })
}
