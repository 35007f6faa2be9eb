package config

import (
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newViper(t *testing.T, settings string) *viper.Viper {
	t.Helper()
	v := viper.New()
	v.SetConfigType("toml")
	setDefaults(v)
	require.NoError(t, v.ReadConfig(strings.NewReader(settings)))
	return v
}

func TestFromViperDefaults(t *testing.T) {
	cfg, err := FromViper(newViper(t, ""))
	require.NoError(t, err)

	assert.Equal(t, DriverPostgres, cfg.Database.Driver)
	assert.Zero(t, cfg.Database.MaxIdleConns)
	assert.Equal(t, ":8444", cfg.HTTP.Bind)
	assert.Equal(t, 2500*time.Millisecond, cfg.HTTP.InteractionTimeout)
	assert.True(t, cfg.Cache.Enabled)
	assert.Equal(t, 30*time.Second, cfg.Cache.TTL)
	assert.Equal(t, "@every 5m", cfg.Cron.HealthCheck)
	assert.Empty(t, cfg.Security.RequiredRoles)
}

func TestFromViper(t *testing.T) {
	cfg, err := FromViper(newViper(t, `
[discord]
application_id = "1234"
public_key = "abcd"
guild_id = "5678"

[security]
required_roles = ["111", "222, 333"]

[database]
driver = "MySQL"
dsn = "user:pass@tcp(localhost:3306)/renfield?parseTime=true"
max_open_conns = 8

[http]
bind = ":9000"
interaction_timeout = "1s"

[cache]
enabled = false
`))
	require.NoError(t, err)

	assert.Equal(t, "1234", cfg.Discord.ApplicationID)
	assert.Equal(t, "abcd", cfg.Discord.PublicKey)
	assert.Equal(t, "5678", cfg.Discord.GuildID)
	assert.Equal(t, []string{"111", "222", "333"}, cfg.Security.RequiredRoles)
	assert.Equal(t, DriverMysql, cfg.Database.Driver)
	assert.Equal(t, 8, cfg.Database.MaxOpenConns)
	assert.Equal(t, ":9000", cfg.HTTP.Bind)
	assert.Equal(t, time.Second, cfg.HTTP.InteractionTimeout)
	assert.False(t, cfg.Cache.Enabled)
}

func TestFromViperRejectsBadValues(t *testing.T) {
	_, err := FromViper(newViper(t, "[database]\ndriver = \"oracle\"\n"))
	assert.Error(t, err)

	_, err = FromViper(newViper(t, "[http]\ninteraction_timeout = \"0s\"\n"))
	assert.Error(t, err)
}

func TestRequiredRolesFromEnvironment(t *testing.T) {
	t.Setenv("RENFIELD_SECURITY_REQUIRED_ROLES", "111,222")

	v := viper.New()
	v.SetEnvPrefix("renfield")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	cfg, err := FromViper(v)
	require.NoError(t, err)
	assert.Equal(t, []string{"111", "222"}, cfg.Security.RequiredRoles)
}
