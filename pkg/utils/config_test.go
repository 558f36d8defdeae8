package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_ReadsReservationSettingsFromEnv(t *testing.T) {
	t.Setenv("HOLD_DURATION", "30m")
	t.Setenv("SWEEP_INTERVAL", "15s")
	t.Setenv("STORAGE_DRIVER", StorageDriverMemory)

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 30*time.Minute, cfg.Reservation.HoldDuration)
	assert.Equal(t, 15*time.Second, cfg.Reservation.SweepInterval)
	assert.Equal(t, StorageDriverMemory, cfg.App.StorageDriver)
	assert.Equal(t, 100, cfg.Reservation.SweepBatchSize)
}

func TestLoadConfig_RejectsNonPositiveHoldDuration(t *testing.T) {
	t.Setenv("HOLD_DURATION", "0s")

	_, err := LoadConfig()
	assert.Error(t, err)
}
