package framesync

import (
	"testing"

	"github.com/pion/framesync/pkg/driver"
	"github.com/pion/framesync/pkg/driver/devicetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContextDevices(t *testing.T) {
	ctx := newTestContext(t)

	var added, removed []driver.Driver
	unsubscribe := ctx.OnDevicesChanged(func(r, a []driver.Driver) {
		removed = append(removed, r...)
		added = append(added, a...)
	})
	defer unsubscribe()

	camera := addDevice(t, ctx, devicetest.WithSerial("0001"))
	playback, err := ctx.LoadDevice("walk.bag", devicetest.New(devicetest.WithSerial("0002")))
	require.NoError(t, err)

	_, err = ctx.LoadDevice("walk.bag", devicetest.New())
	assert.Error(t, err, "a file can only be loaded once")

	assert.Len(t, ctx.QueryDevices(), 2)
	assert.Len(t, ctx.QuerySensors(), 6)

	playbacks := ctx.QueryDevices(driver.FilterDeviceType(driver.Playback))
	require.Len(t, playbacks, 1)
	info := playbacks[0].Info()
	assert.Equal(t, "walk.bag", info.PlaybackFile)
	assert.Equal(t, "0002", info.Serial, "the adapter info is kept")

	require.NoError(t, ctx.UnloadDevice("walk.bag"))
	assert.Error(t, ctx.UnloadDevice("walk.bag"))
	assert.Len(t, ctx.QueryDevices(), 1)

	require.Len(t, added, 2)
	assert.Equal(t, camera.ID(), added[0].ID())
	assert.Equal(t, playback.ID(), added[1].ID())
	require.Len(t, removed, 1)
	assert.Equal(t, playback.ID(), removed[0].ID())
}

func TestContextUnregisterPlayback(t *testing.T) {
	ctx := newTestContext(t)
	d, err := ctx.LoadDevice("walk.bag", devicetest.New())
	require.NoError(t, err)

	require.NoError(t, ctx.Unregister(d))
	// The file can be loaded again.
	_, err = ctx.LoadDevice("walk.bag", devicetest.New())
	assert.NoError(t, err)
}
