package config

import (
	"flag"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_Defaults(t *testing.T) {
	t.Setenv("DATABASE_URI", "")
	t.Setenv("RUN_ADDRESS", "")

	conf, err := parse(flag.NewFlagSet("test", flag.ContinueOnError), []string{})
	require.NoError(t, err)

	assert.Equal(t, "", conf.Database.DSN)
	assert.Equal(t, "localhost:8080", conf.HTTP.HostString)
	assert.Equal(t, "campuscafe.events", conf.Redis.Channel)
	assert.Equal(t, 2, conf.Notify.Workers)
	assert.Equal(t, AppModeDevelop, conf.App.Mode)
	assert.False(t, conf.App.FreeItemImmediate)
}

func TestParse_EnvOverridesFlags(t *testing.T) {
	t.Setenv("DATABASE_URI", "postgres://env")
	t.Setenv("RUN_ADDRESS", ":9090")
	t.Setenv("LOYALTY_FREE_ITEM_IMMEDIATE", "true")
	t.Setenv("STAFF_CODE", "kitchen")

	conf, err := parse(flag.NewFlagSet("test", flag.ContinueOnError),
		[]string{"-d", "postgres://flag", "-a", ":8081", "-staff-code", "flag"})
	require.NoError(t, err)

	assert.Equal(t, "postgres://env", conf.Database.DSN)
	assert.Equal(t, ":9090", conf.HTTP.HostString)
	assert.True(t, conf.App.FreeItemImmediate)
	assert.Equal(t, "kitchen", conf.App.StaffCode)
}

func TestParse_BadWorkers(t *testing.T) {
	_, err := parse(flag.NewFlagSet("test", flag.ContinueOnError), []string{"-w", "0"})
	assert.Error(t, err)
}
