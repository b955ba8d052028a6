package relay

import (
	"net/rpc"

	"github.com/hashicorp/go-plugin"
)

// PluginName is the key the relay is dispensed under.
const PluginName = "relay"

// HandshakeConfig is the go-plugin handshake for hosts that manage the
// console bridge as a plugin subprocess instead of dialing the fixed port.
var HandshakeConfig = plugin.HandshakeConfig{
	ProtocolVersion:  1,
	MagicCookieKey:   "YAPYCON_PLUGIN",
	MagicCookieValue: "yapycon_context_relay",
}

// RelayPlugin implements the go-plugin Plugin interface over net/rpc for the
// context relay.
type RelayPlugin struct {
	plugin.Plugin
	Impl ContextRelay
}

func (p *RelayPlugin) Server(*plugin.MuxBroker) (interface{}, error) {
	return &RelayRPCServer{Impl: p.Impl}, nil
}

func (p *RelayPlugin) Client(b *plugin.MuxBroker, c *rpc.Client) (interface{}, error) {
	return &Client{rpc: c}, nil
}

// PluginMap returns the plugin map for serving or dispensing the relay.
func PluginMap(impl ContextRelay) map[string]plugin.Plugin {
	return map[string]plugin.Plugin{
		PluginName: &RelayPlugin{Impl: impl},
	}
}
