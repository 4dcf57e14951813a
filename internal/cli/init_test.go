package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"multitool/internal/config"
)

func TestLoadEnvFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.env")
	require.NoError(t, os.WriteFile(path, []byte("MULTITOOL_CLI_TEST=from-file\n"), 0o600))
	t.Setenv("MULTITOOL_CLI_TEST", "")
	os.Unsetenv("MULTITOOL_CLI_TEST")

	require.NoError(t, LoadEnvFile(filepath.Join(dir, "missing.env"), path))
	assert.Equal(t, "from-file", os.Getenv("MULTITOOL_CLI_TEST"))

	// Existing variables win over the file.
	t.Setenv("MULTITOOL_CLI_TEST", "from-env")
	require.NoError(t, LoadEnvFile(path))
	assert.Equal(t, "from-env", os.Getenv("MULTITOOL_CLI_TEST"))

	assert.NoError(t, LoadEnvFile(filepath.Join(dir, "none.env")), "missing files are skipped")
}

func TestSetupLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := SetupLogger(&config.Config{LogLevel: "warn", LogFormat: "json"}, &buf)

	logger.Info("hidden")
	logger.Warn("shown", "key", "value")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, `"msg":"shown"`)
	assert.Contains(t, out, `"key":"value"`)
}

func TestInitAMQPDisabled(t *testing.T) {
	var buf bytes.Buffer
	logger := SetupLogger(&config.Config{LogLevel: "info", LogFormat: "text"}, &buf)

	client, err := InitAMQP(logger, &config.Config{})
	require.NoError(t, err)
	assert.Nil(t, client)
	assert.Contains(t, buf.String(), "AMQP disabled")
}

func TestInitSQLite(t *testing.T) {
	var buf bytes.Buffer
	logger := SetupLogger(&config.Config{LogLevel: "info", LogFormat: "text"}, &buf)

	repo, err := InitSQLite(logger, filepath.Join(t.TempDir(), "nested", "cli.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	assert.NoError(t, repo.Ping(context.Background()))
}
