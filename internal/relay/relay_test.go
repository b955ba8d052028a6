package relay

import (
	"bytes"
	"sync"
	"testing"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yapycon/yapycon/internal/hostctx"
)

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func testSnapshot() *hostctx.Snapshot {
	return hostctx.New(
		"yapycon", "YaPyCon", "linux", "23.12.24", 424242,
		"run", "Structural Biology Lab", "all", "/data/projects",
		[]string{"obj 1", "res 42-58"},
		"com-7", "/tmp/kernel-abc.json",
	)
}

func startTestServer(t *testing.T, svc ContextRelay) *Server {
	t.Helper()

	srv, err := NewServer(svc, hclog.NewNullLogger())
	require.NoError(t, err)
	require.NoError(t, srv.Start("127.0.0.1:0"))
	t.Cleanup(func() { srv.Close() })
	return srv
}

func TestRelay_GettersMirrorSnapshot(t *testing.T) {
	out := &syncBuffer{}
	snap := testSnapshot()
	srv := startTestServer(t, NewService(snap, out))

	client, err := Dial(srv.Addr().String())
	require.NoError(t, err)
	defer client.Close()

	assert.Equal(t, "yapycon", client.Plugin())
	assert.Equal(t, "YaPyCon", client.Request())
	assert.Equal(t, "linux", client.OpSys())
	assert.Equal(t, "23.12.24", client.Version())
	assert.Equal(t, int64(424242), client.SerialNumber())
	assert.Equal(t, "run", client.Stage())
	assert.Equal(t, "Structural Biology Lab", client.Owner())
	assert.Equal(t, "all", client.Permissions())
	assert.Equal(t, "/data/projects", client.WorkDir())
	assert.Equal(t, []string{"obj 1", "res 42-58"}, client.Selection())
	assert.Equal(t, "com-7", client.Com())
	assert.Equal(t, "/tmp/kernel-abc.json", client.ConnectionInfo())
}

func TestRelay_StdoutRelay_ForwardsToOutputStream(t *testing.T) {
	out := &syncBuffer{}
	srv := startTestServer(t, NewService(testSnapshot(), out))

	client, err := Dial(srv.Addr().String())
	require.NoError(t, err)
	defer client.Close()

	require.NoError(t, client.StdoutRelay("In [1]: 2+2\n"))
	require.NoError(t, client.StdoutRelay("Out[1]: 4\n"))

	assert.Equal(t, "In [1]: 2+2\nOut[1]: 4\n", out.String())
}

func TestRelay_MultipleClientsShareOneSnapshot(t *testing.T) {
	out := &syncBuffer{}
	srv := startTestServer(t, NewService(testSnapshot(), out))
	addr := srv.Addr().String()

	first, err := Dial(addr)
	require.NoError(t, err)
	defer first.Close()

	second, err := Dial(addr)
	require.NoError(t, err)
	defer second.Close()

	assert.Equal(t, first.SerialNumber(), second.SerialNumber())
	assert.Equal(t, first.ConnectionInfo(), second.ConnectionInfo())
}

func TestServer_Close_IsIdempotentAndUnblocksAcceptLoop(t *testing.T) {
	srv, err := NewServer(NewService(testSnapshot(), &syncBuffer{}), hclog.NewNullLogger())
	require.NoError(t, err)
	require.NoError(t, srv.Start("127.0.0.1:0"))

	require.NoError(t, srv.Close())
	require.NoError(t, srv.Close())

	// The listener is gone, so new dials must fail.
	_, err = Dial(srv.Addr().String())
	assert.Error(t, err)
}

func TestServer_Start_RejectsDoubleStart(t *testing.T) {
	srv := startTestServer(t, NewService(testSnapshot(), &syncBuffer{}))

	err := srv.Start("127.0.0.1:0")
	assert.Error(t, err)
}

func TestService_ImplementsContextRelay(t *testing.T) {
	var _ ContextRelay = NewService(testSnapshot(), &syncBuffer{})
	var _ ContextRelay = &Client{}
}
