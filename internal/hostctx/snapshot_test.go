package hostctx

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnvironment_ReadsHostVariables(t *testing.T) {
	t.Setenv(EnvPlugin, "yapycon")
	t.Setenv(EnvOpSys, "Linux")
	t.Setenv(EnvVersion, "23.12.24")
	t.Setenv(EnvSerialNumber, "123456")
	t.Setenv(EnvStage, "run")
	t.Setenv(EnvOwner, "owner@example.org")
	t.Setenv(EnvPermissions, "all")
	t.Setenv(EnvWorkDir, "/data/run")
	t.Setenv(EnvSelection, "obj 1, res 42-58")
	t.Setenv(EnvCom, "com-7")

	s := FromEnvironment("YaPyCon")

	assert.Equal(t, "yapycon", s.Plugin())
	assert.Equal(t, "YaPyCon", s.Request())
	assert.Equal(t, "Linux", s.OpSys())
	assert.Equal(t, "23.12.24", s.Version())
	assert.Equal(t, int64(123456), s.SerialNumber())
	assert.Equal(t, "run", s.Stage())
	assert.Equal(t, "owner@example.org", s.Owner())
	assert.Equal(t, "all", s.Permissions())
	assert.Equal(t, "/data/run", s.WorkDir())
	assert.Equal(t, []string{"obj 1", "res 42-58"}, s.Selection())
	assert.Equal(t, "com-7", s.Com())
	assert.Empty(t, s.ConnectionFile())
}

func TestFromEnvironment_FallsBackToLocalProcess(t *testing.T) {
	t.Setenv(EnvOpSys, "")
	t.Setenv(EnvWorkDir, "")
	t.Setenv(EnvSerialNumber, "not-a-number")

	s := FromEnvironment("YaPyCon")

	assert.Equal(t, runtime.GOOS, s.OpSys())
	assert.NotEmpty(t, s.WorkDir())
	assert.Zero(t, s.SerialNumber())
}

func TestWithConnectionFile_ReturnsBoundCopy(t *testing.T) {
	orig := New("yapycon", "YaPyCon", "linux", "1.0", 1,
		"run", "owner", "all", "/work", []string{"obj 1"}, "com", "")

	bound := orig.WithConnectionFile("/tmp/kernel-1.json")

	require.NotSame(t, orig, bound)
	assert.Equal(t, "/tmp/kernel-1.json", bound.ConnectionFile())
	assert.Empty(t, orig.ConnectionFile(), "original snapshot must stay untouched")
	assert.Equal(t, orig.Request(), bound.Request())
}

func TestSelection_ReturnsDefensiveCopy(t *testing.T) {
	s := New("p", "r", "os", "v", 0, "st", "o", "perm", "wd",
		[]string{"obj 1", "obj 2"}, "com", "")

	got := s.Selection()
	got[0] = "mutated"

	assert.Equal(t, []string{"obj 1", "obj 2"}, s.Selection())
}
