package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigurePostgresPool(t *testing.T) {
	tests := []struct {
		name     string
		cfg      *DatabaseConfig
		wantTLS  bool
		wantMax  int32
		wantMin  int32
		wantLife time.Duration
	}{
		{
			name: "local without tls",
			cfg: &DatabaseConfig{
				Host: "localhost", Port: 5432, User: "postgres", Password: "pw", Name: "dispatch",
				SSLMode: "disable", MaxConnections: 8, MinConnections: 2, ConnMaxLife: "30m",
			},
			wantMax:  8,
			wantMin:  2,
			wantLife: 30 * time.Minute,
		},
		{
			name: "require enables tls and clamps min",
			cfg: &DatabaseConfig{
				Host: "db.internal", Port: 5432, User: "dispatch", Password: "pw", Name: "dispatch",
				SSLMode: "require", MaxConnections: 3, MinConnections: 9, ConnMaxLife: "bogus",
			},
			wantTLS:  true,
			wantMax:  3,
			wantMin:  3,
			wantLife: time.Hour,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pc, err := ConfigurePostgresPool(tt.cfg)
			require.NoError(t, err)
			assert.Equal(t, tt.cfg.User, pc.ConnConfig.User)
			assert.Equal(t, tt.cfg.Name, pc.ConnConfig.Database)
			assert.Equal(t, tt.wantTLS, pc.ConnConfig.TLSConfig != nil && tt.cfg.SSLMode == "require")
			assert.Equal(t, tt.wantMax, pc.MaxConns)
			assert.Equal(t, tt.wantMin, pc.MinConns)
			assert.Equal(t, tt.wantLife, pc.MaxConnLifetime)
		})
	}
}

func TestConfigureRedisOptions(t *testing.T) {
	opts := ConfigureRedisOptions(&RedisConfig{Address: "localhost:6379", DB: 2, PoolSize: 4})
	assert.Equal(t, "localhost:6379", opts.Addr)
	assert.Equal(t, 2, opts.DB)
	assert.Nil(t, opts.TLSConfig)

	tlsOpts := ConfigureRedisOptions(&RedisConfig{Address: "cache:6380", UseTLS: true})
	assert.NotNil(t, tlsOpts.TLSConfig)
}
