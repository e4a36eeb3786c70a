package config

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestFromEnv_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	t.Setenv("HASH_COST", "")
	t.Setenv("STORE_DRIVER", "")
	t.Setenv("SERVER_PORT", "")
	t.Setenv("JWT_ACCESS_TTL", "")
	t.Setenv("HASH_MAX_CONCURRENT", "")
	t.Setenv("CORS_ALLOWED_ORIGINS", "")

	c := FromEnv()

	assert.Equal(t, "5000", c.Server.Port)
	assert.Equal(t, StoreDriverPostgres, c.Store.Driver)
	assert.Equal(t, time.Hour, c.JWT.AccessTokenTTL)
	assert.Equal(t, MinHashCost, c.Hash.Cost)
	assert.GreaterOrEqual(t, c.Hash.MaxConcurrent, int64(1))
	assert.Equal(t, []string{"*"}, c.CORS.AllowedOrigins)
	assert.Empty(t, c.JWT.Secret, "there must be no built-in signing secret")
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("JWT_ACCESS_TTL", "15m")
	t.Setenv("HASH_COST", "12")
	t.Setenv("DB_MAX_RETRIES", "5")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example,")

	c := FromEnv()

	assert.Equal(t, "9090", c.Server.Port)
	assert.Equal(t, 15*time.Minute, c.JWT.AccessTokenTTL)
	assert.Equal(t, 12, c.Hash.Cost)
	assert.Equal(t, uint64(5), c.Store.MaxRetries)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, c.CORS.AllowedOrigins)
}

func TestFromEnv_InvalidValuesFallBack(t *testing.T) {
	t.Setenv("JWT_ACCESS_TTL", "soon")
	t.Setenv("HASH_COST", "ten")
	t.Setenv("DB_AUTO_MIGRATE", "maybe")

	c := FromEnv()

	assert.Equal(t, time.Hour, c.JWT.AccessTokenTTL)
	assert.Equal(t, MinHashCost, c.Hash.Cost)
	assert.False(t, c.Database.AutoMigrate)
}

func TestFromEnv_NegativeRetriesFallBack(t *testing.T) {
	t.Setenv("DB_MAX_RETRIES", "-1")

	c := FromEnv()

	assert.Equal(t, uint64(2), c.Store.MaxRetries)
}

func validConfig() *Config {
	return &Config{
		Database: DatabaseConfig{Password: "pw"},
		Store:    StoreConfig{Driver: StoreDriverPostgres},
		JWT:      JWTConfig{Secret: testSecret, AccessTokenTTL: time.Hour},
		Hash:     HashConfig{Cost: MinHashCost, MaxConcurrent: 2},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "valid", mutate: func(c *Config) {}},
		{name: "missing secret", mutate: func(c *Config) { c.JWT.Secret = "" }, wantErr: "JWT_SECRET"},
		{name: "short secret", mutate: func(c *Config) { c.JWT.Secret = "short" }, wantErr: "JWT_SECRET"},
		{name: "zero ttl", mutate: func(c *Config) { c.JWT.AccessTokenTTL = 0 }, wantErr: "JWT_ACCESS_TTL"},
		{name: "weak cost", mutate: func(c *Config) { c.Hash.Cost = 4 }, wantErr: "HASH_COST"},
		{name: "no hash slots", mutate: func(c *Config) { c.Hash.MaxConcurrent = 0 }, wantErr: "HASH_MAX_CONCURRENT"},
		{name: "postgres without password", mutate: func(c *Config) { c.Database.Password = "" }, wantErr: "DB_PASSWORD"},
		{name: "memory without password", mutate: func(c *Config) {
			c.Store.Driver = StoreDriverMemory
			c.Database.Password = ""
		}},
		{name: "too many retries", mutate: func(c *Config) { c.Store.MaxRetries = MaxStoreRetries + 1 }, wantErr: "DB_MAX_RETRIES"},
		{name: "unknown driver", mutate: func(c *Config) { c.Store.Driver = "mysql" }, wantErr: "STORE_DRIVER"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validConfig()
			tt.mutate(c)

			err := c.Validate()
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, strings.Contains(err.Error(), tt.wantErr), "error %q should mention %s", err, tt.wantErr)
		})
	}
}

func TestGetDSN(t *testing.T) {
	c := &Config{Database: DatabaseConfig{
		User: "u", Password: "p", Host: "db", Port: "5432", Name: "elderease",
		SSLMode: "disable", ConnTimeout: 10 * time.Second,
	}}

	assert.Equal(t, "postgres://u:p@db:5432/elderease?sslmode=disable&connect_timeout=10", c.GetDSN())
}

func TestIsGoogleOAuthConfigured(t *testing.T) {
	c := &Config{}
	assert.False(t, c.IsGoogleOAuthConfigured())

	c.GoogleOAuth.ClientID = "id"
	assert.False(t, c.IsGoogleOAuthConfigured())

	c.GoogleOAuth.ClientSecret = "secret"
	assert.True(t, c.IsGoogleOAuthConfigured())
}
