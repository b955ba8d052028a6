package kernel

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConnectionInfo_GeneratesFreshKey(t *testing.T) {
	first := NewConnectionInfo("127.0.0.1", 18861)
	second := NewConnectionInfo("127.0.0.1", 18861)

	assert.Equal(t, "tcp", first.Transport)
	assert.Equal(t, "127.0.0.1", first.IP)
	assert.Equal(t, 18861, first.Port)
	assert.Equal(t, "hmac-sha256", first.SignatureScheme)

	_, err := uuid.Parse(first.Key)
	assert.NoError(t, err, "session key must be a valid UUID")
	assert.NotEqual(t, first.Key, second.Key)
}

func TestConnectionInfo_WriteFileRoundTrip(t *testing.T) {
	dir := t.TempDir()
	info := NewConnectionInfo("127.0.0.1", 19001)

	path, err := info.WriteFile(dir)
	require.NoError(t, err)
	require.FileExists(t, path)

	loaded, err := ReadConnectionFile(path)
	require.NoError(t, err)
	assert.Equal(t, info, loaded)
}

func TestReadConnectionFile_Errors(t *testing.T) {
	t.Run("MissingFile_ShouldError", func(t *testing.T) {
		_, err := ReadConnectionFile("/nonexistent/yapycon-kernel.json")
		assert.Error(t, err)
	})

	t.Run("MalformedFile_ShouldError", func(t *testing.T) {
		dir := t.TempDir()
		path := dir + "/broken.json"
		require.NoError(t, writeFile(path, "{not json"))

		_, err := ReadConnectionFile(path)
		assert.Error(t, err)
	})
}
