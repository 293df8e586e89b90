package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

const testConfigYAML = `
is_production: true
log_level: warn
ops_endpoints_enable: true
server:
  host: 127.0.0.1
  port: "8080"
  read_timeout: 5s
events:
  enable: true
  queue_prefix: shelf
redis:
  host: localhost
  port: "6379"
  password: secret
boltdb:
  filepath: ./data/events.db
  timeout: 1s
  bucket_name: book.events
`

func writeTestConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadConfigFile(t *testing.T) {
	config, err := LoadConfigFile(writeTestConfigFile(t, testConfigYAML))
	require.NoError(t, err)
	assert.True(t, config.IsProduction)
	assert.Equal(t, zapcore.WarnLevel, config.LogLevel)
	assert.True(t, config.OpsEndpointsEnable)
	assert.Equal(t, "127.0.0.1", config.Server.Host)
	assert.Equal(t, "8080", config.Server.Port)
	assert.Equal(t, 5*time.Second, config.Server.ReadTimeout)
	assert.True(t, config.Events.Enable)
	assert.Equal(t, "shelf", config.Events.QueuePrefix)
	assert.Equal(t, "secret", config.Redis.Password)
	assert.Equal(t, time.Second, config.BoltDB.Timeout)
	assert.Equal(t, "book.events", config.BoltDB.BucketName)

	_, err = LoadConfigFile(filepath.Join(t.TempDir(), "missing.yml"))
	assert.Error(t, err)

	_, err = LoadConfigFile(writeTestConfigFile(t, "server: ["))
	assert.Error(t, err)
}

func TestLoadConfigEnvs(t *testing.T) {
	config, err := LoadConfigFile(writeTestConfigFile(t, testConfigYAML))
	require.NoError(t, err)

	t.Setenv("BKSF_SERVER_PORT", "9090")
	t.Setenv("BKSF_EVENTS_ENABLE", "false")
	t.Setenv("BKSF_LOG_LEVEL", "debug")
	t.Setenv("BKSF_SERVER_REQUEST_TIMEOUT", "3s")

	require.NoError(t, LoadConfigEnvs(ConfigPrefix, config))
	assert.Equal(t, "9090", config.Server.Port)
	assert.Equal(t, "127.0.0.1", config.Server.Host)
	assert.False(t, config.Events.Enable)
	assert.Equal(t, zapcore.DebugLevel, config.LogLevel)
	assert.Equal(t, 3*time.Second, config.Server.RequestTimeout)

	t.Setenv("BKSF_LOG_MAX_SIZE", "ten")
	assert.Error(t, LoadConfigEnvs(ConfigPrefix, config))
}

func TestInitConfig(t *testing.T) {
	t.Run("defaults and build details", func(t *testing.T) {
		config := &Config{Server: ServerConfig{Host: "0.0.0.0", Port: "5000"}}
		require.NoError(t, InitConfig(config, "abc123", "v1.0.0", "2023-07-01"))
		assert.Equal(t, "abc123", config.GitCommit)
		assert.Equal(t, "v1.0.0", config.GitTag)
		assert.Equal(t, "2023-07-01", config.BuildTime)
		assert.Equal(t, 10*time.Second, config.Server.RequestTimeout)
		assert.Equal(t, 30*time.Second, config.Server.ShutdownTimeout)
		assert.Equal(t, "./logs", config.LogFolder)
		assert.Equal(t, 10, config.LogMaxSize)
	})

	t.Run("build details do not override with empty values", func(t *testing.T) {
		config := &Config{GitTag: "v0.1.0", Server: ServerConfig{Host: "0.0.0.0", Port: "5000"}}
		require.NoError(t, InitConfig(config, "", "", ""))
		assert.Equal(t, "v0.1.0", config.GitTag)
	})

	t.Run("missing server address", func(t *testing.T) {
		assert.Error(t, InitConfig(&Config{Server: ServerConfig{Host: "0.0.0.0"}}, "", "", ""))
	})

	t.Run("events require redis", func(t *testing.T) {
		config := &Config{
			Server: ServerConfig{Host: "0.0.0.0", Port: "5000"},
			Events: EventsConfig{Enable: true},
			BoltDB: BoltDBConfig{FilePath: "events.db", BucketName: "events"},
		}
		assert.Error(t, InitConfig(config, "", "", ""))
	})

	t.Run("events require boltdb", func(t *testing.T) {
		config := &Config{
			Server: ServerConfig{Host: "0.0.0.0", Port: "5000"},
			Events: EventsConfig{Enable: true},
			Redis:  RedisConfig{Host: "localhost", Port: "6379"},
		}
		assert.Error(t, InitConfig(config, "", "", ""))
	})

	t.Run("disabled events skip storage checks", func(t *testing.T) {
		config := &Config{Server: ServerConfig{Host: "0.0.0.0", Port: "5000"}}
		assert.NoError(t, InitConfig(config, "", "", ""))
	})
}
