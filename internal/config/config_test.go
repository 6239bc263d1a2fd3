package config

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDurationUnmarshalJSON(t *testing.T) {
	var d Duration

	require.NoError(t, json.Unmarshal([]byte(`"10h"`), &d))
	require.Equal(t, 10*time.Hour, d.Std())

	require.NoError(t, json.Unmarshal([]byte(`30000000000`), &d))
	require.Equal(t, 30*time.Second, d.Std())

	require.Error(t, json.Unmarshal([]byte(`"not-a-duration"`), &d))
	require.Error(t, json.Unmarshal([]byte(`true`), &d))
}

func TestDurationUnmarshalText(t *testing.T) {
	var d Duration

	require.NoError(t, d.UnmarshalText([]byte("15m")))
	require.Equal(t, 15*time.Minute, d.Std())

	require.Error(t, d.UnmarshalText([]byte("soon")))
}

func TestValidateDefaults(t *testing.T) {
	var cfg Config
	setDefaults(&cfg)

	require.NoError(t, Validate(&cfg))
}

func TestValidateRejectsSharedSecrets(t *testing.T) {
	var cfg Config
	setDefaults(&cfg)
	cfg.Tokens.RefreshSecret = cfg.Tokens.AccessSecret

	require.Error(t, Validate(&cfg))
}

func TestValidateRejectsUnknownLedgerBackend(t *testing.T) {
	var cfg Config
	setDefaults(&cfg)
	cfg.Ledger.Backend = "etcd"

	require.Error(t, Validate(&cfg))
}

func TestValidateRejectsZeroDurations(t *testing.T) {
	var cfg Config
	setDefaults(&cfg)
	cfg.Tokens.AccessTTL = 0

	require.Error(t, Validate(&cfg))
}
