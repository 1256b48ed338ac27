package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg := LoadConfig()

	assert.Equal(t, "LOCAL", cfg.EnvType)
	assert.Equal(t, "8080", cfg.ServerPort)
	assert.Equal(t, "112", cfg.EmergencyNumber)
	assert.Equal(t, "100", cfg.DispatchExtension)
	assert.Equal(t, "Hausnotruf", cfg.SMSSenderID)
	assert.Equal(t, "auto", cfg.DBMigrationMode)
	assert.Equal(t, 15*time.Second, cfg.GatewayTimeout)
	assert.Equal(t, "pbx/event", cfg.GatewayEvtTopic)
}

func TestLoadConfigEnvPrefix(t *testing.T) {
	t.Setenv("ENV_TYPE", "SERVER")
	t.Setenv("SERVER_DB_HOST", "db.internal")
	t.Setenv("DB_HOST", "fallback-host")
	t.Setenv("EMERGENCY_NUMBER", "19222")

	cfg := LoadConfig()
	assert.Equal(t, "SERVER", cfg.EnvType)
	assert.Equal(t, "db.internal", cfg.DBHost)
	assert.Equal(t, "19222", cfg.EmergencyNumber)
}

func TestLoadConfigUnprefixedFallback(t *testing.T) {
	t.Setenv("ENV_TYPE", "LOCAL")
	t.Setenv("DB_NAME", "carecall_test")

	cfg := LoadConfig()
	assert.Equal(t, "carecall_test", cfg.DBName)
}

func TestGetDSN(t *testing.T) {
	cfg := &Config{
		DBUser:     "carecall",
		DBPassword: "geheim",
		DBHost:     "localhost",
		DBPort:     "3306",
		DBName:     "carecall_db",
	}
	dsn := cfg.GetDSN()
	assert.Contains(t, dsn, "carecall:geheim@tcp(localhost:3306)/carecall_db")
	assert.Contains(t, dsn, "charset=utf8mb4")
	assert.Contains(t, dsn, "parseTime=True")
	assert.Contains(t, dsn, "clientFoundRows=true")
}

func TestGetRedisAddr(t *testing.T) {
	cfg := &Config{RedisHost: "localhost", RedisPort: "6379"}
	assert.Equal(t, "localhost:6379", cfg.GetRedisAddr())
}
