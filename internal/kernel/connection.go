package kernel

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// ConnectionInfo describes how follow-on processes attach to the running
// console bridge. It is written next to the kernel once the relay port is
// known and exposed through the relay's GetConnectionInfo call.
type ConnectionInfo struct {
	Transport       string `json:"transport"`
	IP              string `json:"ip"`
	Port            int    `json:"port"`
	Key             string `json:"key"`
	SignatureScheme string `json:"signature_scheme"`
}

// NewConnectionInfo creates connection metadata for the given relay endpoint
// with a fresh session key.
func NewConnectionInfo(ip string, port int) ConnectionInfo {
	return ConnectionInfo{
		Transport:       "tcp",
		IP:              ip,
		Port:            port,
		Key:             uuid.NewString(),
		SignatureScheme: "hmac-sha256",
	}
}

// WriteFile serializes the connection info into dir and returns the file
// path. The name embeds the pid so concurrent bridges don't collide.
func (ci ConnectionInfo) WriteFile(dir string) (string, error) {
	data, err := json.MarshalIndent(ci, "", "  ")
	if err != nil {
		return "", err
	}

	path := filepath.Join(dir, fmt.Sprintf("yapycon-kernel-%d.json", os.Getpid()))
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", fmt.Errorf("failed to write connection file: %w", err)
	}
	return path, nil
}

// ReadConnectionFile loads connection metadata written by WriteFile.
func ReadConnectionFile(path string) (ConnectionInfo, error) {
	var ci ConnectionInfo
	data, err := os.ReadFile(path)
	if err != nil {
		return ci, err
	}
	if err := json.Unmarshal(data, &ci); err != nil {
		return ci, fmt.Errorf("malformed connection file %s: %w", path, err)
	}
	return ci, nil
}
