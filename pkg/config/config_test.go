package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "/var/run/docker.sock", cfg.SocketPath)
	assert.Equal(t, "1.47", cfg.APIVersion)
	assert.Equal(t, ".docker", cfg.Suffix)
	assert.Equal(t, 3*time.Second, cfg.Timeout)
	assert.Equal(t, log.WarnLevel, cfg.Level())
	assert.Equal(t, "127.0.0.1:5353", cfg.DNS.Listen)
	assert.Empty(t, cfg.Metrics.Listen)
	assert.NoError(t, cfg.Validate())
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
socket_path: /run/user/1000/docker.sock
api_version: "1.45"
suffix: .ctr
timeout: 500ms
log_level: debug
dns:
  listen: 127.0.0.1:1053
  ttl: 30
metrics:
  listen: 127.0.0.1:9153
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/run/user/1000/docker.sock", cfg.SocketPath)
	assert.Equal(t, "1.45", cfg.APIVersion)
	assert.Equal(t, ".ctr", cfg.Suffix)
	assert.Equal(t, 500*time.Millisecond, cfg.Timeout)
	assert.Equal(t, log.DebugLevel, cfg.Level())
	assert.Equal(t, "127.0.0.1:1053", cfg.DNS.Listen)
	assert.Equal(t, uint32(30), cfg.DNS.TTL)
	assert.Equal(t, "127.0.0.1:9153", cfg.Metrics.Listen)
	assert.Equal(t, path, cfg.File)

	d := cfg.Docker()
	assert.Equal(t, cfg.SocketPath, d.SocketPath)
	assert.Equal(t, cfg.Timeout, d.Timeout)
}

func TestLoadPartialFileKeepsDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "timeout: 1s\n"))
	require.NoError(t, err)

	assert.Equal(t, time.Second, cfg.Timeout)
	assert.Equal(t, ".docker", cfg.Suffix)
	assert.Equal(t, "/var/run/docker.sock", cfg.SocketPath)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("NSS_DOCKER_SUFFIX", ".local.docker")
	t.Setenv("NSS_DOCKER_DNS_LISTEN", "0.0.0.0:53")

	cfg, err := Load(writeConfig(t, "suffix: .ctr\n"))
	require.NoError(t, err)

	assert.Equal(t, ".local.docker", cfg.Suffix)
	assert.Equal(t, "0.0.0.0:53", cfg.DNS.Listen)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"suffix without dot", "suffix: docker\n"},
		{"bare dot suffix", "suffix: .\n"},
		{"zero timeout", "timeout: 0s\n"},
		{"negative timeout", "timeout: -1s\n"},
		{"empty socket", "socket_path: \"\"\n"},
		{"bad log level", "log_level: loud\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			assert.Error(t, err)
		})
	}
}
