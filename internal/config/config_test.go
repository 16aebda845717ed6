package config_test

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/grocerydev/grocery-shop/internal/config"
)

func TestMustLoadByPath_Success(t *testing.T) {
	t.Setenv("DB_PASSWORD", "mypassword")
	t.Setenv("JWT_SECRET", "mysecret")

	content := `
env: "local"
http_server:
  address: "localhost:8080"
  timeout: "4s"
  idle_timeout: "60s"
database:
  host: "localhost"
  port: 5432
  user: "postgres"
  name: "grocery"
jwt:
  token_ttl: 60
cart:
  key_prefix: "cart:"
migrations:
  path: "./migrations"
`
	tmpFile, err := os.CreateTemp("", "config_test_*.yaml")
	assert.NoError(t, err)
	defer os.Remove(tmpFile.Name())

	_, err = tmpFile.WriteString(content)
	assert.NoError(t, err)
	err = tmpFile.Close()
	assert.NoError(t, err)

	cfg := config.MustLoadByPath(tmpFile.Name())

	assert.Equal(t, "local", cfg.Env)
	assert.Equal(t, "localhost:8080", cfg.HTTPServer.Address)
	assert.Equal(t, 4*time.Second, cfg.HTTPServer.Timeout)
	assert.Equal(t, 60*time.Second, cfg.HTTPServer.IdleTimeout)
	assert.Equal(t, "localhost", cfg.Database.Host)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, "postgres", cfg.Database.User)
	assert.Equal(t, "grocery", cfg.Database.Name)
	assert.Equal(t, 60, cfg.JWT.TokenTTL)
	assert.Equal(t, "cart:", cfg.Cart.KeyPrefix)
	assert.Equal(t, "./migrations", cfg.Migrations.Path)
}

func TestMustLoadByPath_FileNotFound(t *testing.T) {
	assert.Panics(t, func() {
		config.MustLoadByPath("non_existent_config.yaml")
	})
}
