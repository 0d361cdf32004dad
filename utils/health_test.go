package utils

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStartHealthMonitorSnapshotsImmediately(t *testing.T) {
	StartHealthMonitor(nil, func() error { return nil })

	status := GetHealthStatus()
	assert.True(t, status.Redis, "nil redis client counts as healthy")
	assert.True(t, status.Telegram)
	assert.False(t, status.CheckedAt.IsZero(), "snapshot taken before the first tick")
}

func TestStartHealthMonitorReportsTransportFailure(t *testing.T) {
	StartHealthMonitor(nil, func() error { return errors.New("getMe failed") })

	status := GetHealthStatus()
	assert.True(t, status.Redis)
	assert.False(t, status.Telegram)
}
