package location_test

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/benmeehan/route-agent/pkg/location"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const nmeaStream = `garbage line
$GPRMC,broken*00
$GPRMC,220516,A,5133.82,N,00042.24,W,173.8,231.8,130624,004.2,W*7B
$GPRMC,220517,V,5133.83,N,00042.25,W,0.0,0.0,130624,004.2,W*68
$GPGGA,220518,5133.84,N,00042.26,W,1,08,0.9,54.7,M,46.9,M,,*6A
$GPGGA,220519,5133.85,N,00042.27,W,0,00,,,M,,M,,*48
$GPRMC,220520,A,5133.86,N,00042.28,W,10.0,90.0,130624,004.2,W*7B
`

func openerFor(data string) location.PortOpener {
	return func() (io.ReadCloser, error) {
		return io.NopCloser(strings.NewReader(data)), nil
	}
}

func collect(t *testing.T, src location.Source) ([]location.Location, error) {
	t.Helper()
	var got []location.Location
	err := src.Watch(context.Background(), func(loc location.Location) {
		got = append(got, loc)
	})
	return got, err
}

func TestDeviceSensorSource_EmitsValidRMCFixes(t *testing.T) {
	src := location.NewDeviceSensorSourceFromOpener(openerFor(nmeaStream), false)

	got, err := collect(t, src)
	assert.Error(t, err)

	require.Len(t, got, 2)
	assert.InDelta(t, 51.563667, got[0].Latitude, 1e-5)
	assert.InDelta(t, -0.704, got[0].Longitude, 1e-5)
	require.NotNil(t, got[0].Speed)
	assert.InDelta(t, 89.41, *got[0].Speed, 0.01)
	require.NotNil(t, got[0].Bearing)
	assert.Equal(t, 231.8, *got[0].Bearing)
	assert.Nil(t, got[0].Altitude)
	assert.Equal(t, time.Date(2024, time.June, 13, 22, 5, 16, 0, time.UTC), got[0].Time)

	require.NotNil(t, got[1].Altitude)
	assert.Equal(t, 54.7, *got[1].Altitude)
	assert.Equal(t, 0.9, got[1].Accuracy)
	assert.InDelta(t, 5.144, *got[1].Speed, 0.001)
}

func TestDeviceSensorSource_AllowStale(t *testing.T) {
	src := location.NewDeviceSensorSourceFromOpener(openerFor(nmeaStream), true)

	got, _ := collect(t, src)

	assert.Len(t, got, 3)
}

func TestDeviceSensorSource_GGAOnlyReceiver(t *testing.T) {
	stream := "$GPGGA,220518,5133.84,N,00042.26,W,1,08,0.9,54.7,M,46.9,M,,*6A\n" +
		"$GPGGA,220519,5133.85,N,00042.27,W,0,00,,,M,,M,,*48\n"
	src := location.NewDeviceSensorSourceFromOpener(openerFor(stream), false)

	got, _ := collect(t, src)

	require.Len(t, got, 1)
	assert.InDelta(t, 51.564, got[0].Latitude, 1e-5)
	assert.Equal(t, 0.9, got[0].Accuracy)
}

func TestDeviceSensorSource_OpenError(t *testing.T) {
	src := location.NewDeviceSensorSourceFromOpener(func() (io.ReadCloser, error) {
		return nil, errors.New("no such device")
	}, false)

	got, err := collect(t, src)

	assert.EqualError(t, err, "no such device")
	assert.Empty(t, got)
}

func TestDeviceSensorSource_StopsOnCancel(t *testing.T) {
	reader, writer := io.Pipe()
	defer writer.Close()
	src := location.NewDeviceSensorSourceFromOpener(func() (io.ReadCloser, error) {
		return reader, nil
	}, false)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- src.Watch(ctx, func(location.Location) {})
	}()

	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("Watch did not return after cancel")
	}
}
