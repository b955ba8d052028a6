package relay

import "net/rpc"

// rpcServiceName is the name the relay methods are registered under. It
// matches the name go-plugin registers dispensed implementations with, so the
// same client stub works against both the standalone server and a go-plugin
// managed one.
const rpcServiceName = "Plugin"

// RelayRPCServer adapts a ContextRelay to net/rpc.
type RelayRPCServer struct {
	Impl ContextRelay
}

func (s *RelayRPCServer) GetPlugin(args interface{}, reply *string) error {
	*reply = s.Impl.Plugin()
	return nil
}

func (s *RelayRPCServer) GetRequest(args interface{}, reply *string) error {
	*reply = s.Impl.Request()
	return nil
}

func (s *RelayRPCServer) GetOpSys(args interface{}, reply *string) error {
	*reply = s.Impl.OpSys()
	return nil
}

func (s *RelayRPCServer) GetVersion(args interface{}, reply *string) error {
	*reply = s.Impl.Version()
	return nil
}

func (s *RelayRPCServer) GetSerialNumber(args interface{}, reply *int64) error {
	*reply = s.Impl.SerialNumber()
	return nil
}

func (s *RelayRPCServer) GetStage(args interface{}, reply *string) error {
	*reply = s.Impl.Stage()
	return nil
}

func (s *RelayRPCServer) GetOwner(args interface{}, reply *string) error {
	*reply = s.Impl.Owner()
	return nil
}

func (s *RelayRPCServer) GetPermissions(args interface{}, reply *string) error {
	*reply = s.Impl.Permissions()
	return nil
}

func (s *RelayRPCServer) GetWorkDir(args interface{}, reply *string) error {
	*reply = s.Impl.WorkDir()
	return nil
}

func (s *RelayRPCServer) GetSelection(args interface{}, reply *[]string) error {
	*reply = s.Impl.Selection()
	return nil
}

func (s *RelayRPCServer) GetCom(args interface{}, reply *string) error {
	*reply = s.Impl.Com()
	return nil
}

func (s *RelayRPCServer) GetConnectionInfo(args interface{}, reply *string) error {
	*reply = s.Impl.ConnectionInfo()
	return nil
}

func (s *RelayRPCServer) StdoutRelay(payload string, ack *bool) error {
	if err := s.Impl.StdoutRelay(payload); err != nil {
		*ack = false
		return err
	}
	*ack = true
	return nil
}

// Client is the console-process side of the relay: a typed stub over the
// net/rpc connection. Getter failures yield zero values, mirroring the
// pass-through nature of the calls; StdoutRelay reports the write error.
type Client struct {
	rpc *rpc.Client
}

// Dial connects to a standalone relay server.
func Dial(addr string) (*Client, error) {
	c, err := rpc.Dial("tcp", addr)
	if err != nil {
		return nil, err
	}
	return &Client{rpc: c}, nil
}

// Close releases the underlying connection.
func (c *Client) Close() error {
	return c.rpc.Close()
}

func (c *Client) callString(method string) string {
	var reply string
	_ = c.rpc.Call(rpcServiceName+"."+method, new(interface{}), &reply)
	return reply
}

func (c *Client) Plugin() string      { return c.callString("GetPlugin") }
func (c *Client) Request() string     { return c.callString("GetRequest") }
func (c *Client) OpSys() string       { return c.callString("GetOpSys") }
func (c *Client) Version() string     { return c.callString("GetVersion") }
func (c *Client) Stage() string       { return c.callString("GetStage") }
func (c *Client) Owner() string       { return c.callString("GetOwner") }
func (c *Client) Permissions() string { return c.callString("GetPermissions") }
func (c *Client) WorkDir() string     { return c.callString("GetWorkDir") }
func (c *Client) Com() string         { return c.callString("GetCom") }

func (c *Client) ConnectionInfo() string { return c.callString("GetConnectionInfo") }

func (c *Client) SerialNumber() int64 {
	var reply int64
	_ = c.rpc.Call(rpcServiceName+".GetSerialNumber", new(interface{}), &reply)
	return reply
}

func (c *Client) Selection() []string {
	var reply []string
	_ = c.rpc.Call(rpcServiceName+".GetSelection", new(interface{}), &reply)
	return reply
}

func (c *Client) StdoutRelay(payload string) error {
	var ack bool
	return c.rpc.Call(rpcServiceName+".StdoutRelay", payload, &ack)
}
