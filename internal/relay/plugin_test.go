package relay

import (
	"net"
	"net/rpc"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRelayPlugin_ServesAndDispensesContextRelay(t *testing.T) {
	out := &syncBuffer{}
	p := &RelayPlugin{Impl: NewService(testSnapshot(), out)}

	serverSide, clientSide := net.Pipe()
	defer serverSide.Close()
	defer clientSide.Close()

	raw, err := p.Server(nil)
	require.NoError(t, err)
	rpcServer, ok := raw.(*RelayRPCServer)
	require.True(t, ok)

	srv := rpc.NewServer()
	require.NoError(t, srv.RegisterName(rpcServiceName, rpcServer))
	go srv.ServeConn(serverSide)

	raw, err = p.Client(nil, rpc.NewClient(clientSide))
	require.NoError(t, err)
	client, ok := raw.(ContextRelay)
	require.True(t, ok, "dispensed object must implement ContextRelay")

	assert.Equal(t, "YaPyCon", client.Request())
	assert.Equal(t, int64(424242), client.SerialNumber())
	require.NoError(t, client.StdoutRelay("relayed\n"))
	assert.Equal(t, "relayed\n", out.String())
}

func TestHandshakeConfig_IsStable(t *testing.T) {
	// Hosts pin the handshake; changing it strands deployed plugins.
	assert.EqualValues(t, 1, HandshakeConfig.ProtocolVersion)
	assert.Equal(t, "YAPYCON_PLUGIN", HandshakeConfig.MagicCookieKey)
	assert.Equal(t, "yapycon_context_relay", HandshakeConfig.MagicCookieValue)
}

func TestPluginMap_ContainsRelay(t *testing.T) {
	m := PluginMap(NewService(testSnapshot(), &syncBuffer{}))
	require.Contains(t, m, PluginName)
}
