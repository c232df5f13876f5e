package mdns

import (
	"errors"
	"testing"

	"github.com/godbus/dbus/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zarko379/iMangarr-ng/internal/logger"
)

func TestTXTRecords(t *testing.T) {
	records := TXTRecords("/")

	require.Len(t, records, 2)
	assert.Equal(t, "path=/", string(records[0]))
	assert.Equal(t, "app=imangarr", string(records[1]))
}

func TestServiceStop_NotStarted(t *testing.T) {
	service := NewService(logger.Discard())

	service.Stop()
	service.Stop()

	assert.False(t, service.Running())
}

func TestServiceStart_NoSystemBus(t *testing.T) {
	service := NewService(logger.Discard())
	busErr := errors.New("no system bus")
	service.dial = func() (*dbus.Conn, error) { return nil, busErr }

	err := service.Start("iMangarr", 8080)

	require.ErrorIs(t, err, busErr)
	assert.False(t, service.Running())
}

func TestServiceStart_InvalidPort(t *testing.T) {
	service := NewService(logger.Discard())
	service.dial = func() (*dbus.Conn, error) {
		t.Fatal("dial must not be called for an invalid port")
		return nil, nil
	}

	assert.Error(t, service.Start("iMangarr", 0))
	assert.Error(t, service.Start("iMangarr", 70000))
}
