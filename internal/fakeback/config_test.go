package fakeback

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempYAML(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fakeback.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestConfig_LoadFile(t *testing.T) {
	path := writeTempYAML(t, `
server:
  listen_addr: 127.0.0.1:9999
database:
  path: /var/lib/sqlparrot/meta.db
`)

	cfg := &Config{}
	cfg.loadDefaults()
	require.NoError(t, cfg.loadFile(path))

	assert.Equal(t, "127.0.0.1:9999", cfg.Server.ListenAddr)
	assert.Equal(t, "/var/lib/sqlparrot/meta.db", cfg.Database.Path)
	// Missing keys keep their defaults.
	assert.Equal(t, "/tmp/sqlparrot.sock", cfg.Bridge.SocketPath)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestConfig_LoadFile_ExpandsEnvVars(t *testing.T) {
	t.Setenv("SQLPARROT_TEST_DB_DIR", "/data/parrot")

	path := writeTempYAML(t, `
database:
  path: ${SQLPARROT_TEST_DB_DIR}/meta.db
logging:
  level: ${SQLPARROT_TEST_UNSET_VAR}
`)

	cfg := &Config{}
	cfg.loadDefaults()
	require.NoError(t, cfg.loadFile(path))

	assert.Equal(t, "/data/parrot/meta.db", cfg.Database.Path)
	// Unset variables expand to empty, not to the literal pattern.
	assert.Equal(t, "", cfg.Logging.Level)
}

func TestConfig_LoadFile_Invalid(t *testing.T) {
	path := writeTempYAML(t, "server: [not, a, mapping")

	cfg := &Config{}
	cfg.loadDefaults()
	require.Error(t, cfg.loadFile(path))
}

func TestConfig_ParseFlags(t *testing.T) {
	cfg := &Config{}
	cfg.loadDefaults()

	args := []string{
		"-listen", "0.0.0.0:8080",
		"--socket=/run/parrot.sock",
		"-unrelated", "ignored",
	}
	require.NoError(t, cfg.parseFlags(args))

	assert.Equal(t, "0.0.0.0:8080", cfg.Server.ListenAddr)
	assert.Equal(t, "/run/parrot.sock", cfg.Bridge.SocketPath)
	assert.Equal(t, "sqlparrot.db", cfg.Database.Path)
}

func TestConfigPathFromArgs(t *testing.T) {
	assert.Equal(t, "b.yaml", configPathFromArgs([]string{"-listen", "x", "-config", "b.yaml"}))
	assert.Equal(t, "c.yaml", configPathFromArgs([]string{"--config=c.yaml"}))
	assert.Equal(t, "", configPathFromArgs([]string{"-listen", "x"}))
}

func TestConfig_Validate(t *testing.T) {
	cfg := &Config{}
	cfg.loadDefaults()
	require.NoError(t, cfg.validate())

	cfg.Database.Path = ""
	require.Error(t, cfg.validate())
}
