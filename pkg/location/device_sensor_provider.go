package location

import (
	"bufio"
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/adrianmo/go-nmea"
	"github.com/tarm/serial"
)

const knotsToMetersPerSecond = 0.514444

// PortOpener opens the byte stream carrying NMEA sentences.
type PortOpener func() (io.ReadCloser, error)

// DeviceSensorSource streams fixes from a GPS receiver connected via serial port.
// RMC sentences produce a fix; GGA sentences contribute altitude and HDOP, and
// produce a fix on their own only for receivers that never send RMC.
type DeviceSensorSource struct {
	open       PortOpener
	allowStale bool
}

// NewDeviceSensorSource reads from the serial port at the given baud rate.
func NewDeviceSensorSource(port string, baudRate int, allowStale bool) *DeviceSensorSource {
	return NewDeviceSensorSourceFromOpener(func() (io.ReadCloser, error) {
		return serial.OpenPort(&serial.Config{Name: port, Baud: baudRate})
	}, allowStale)
}

// NewDeviceSensorSourceFromOpener reads NMEA from whatever open returns.
func NewDeviceSensorSourceFromOpener(open PortOpener, allowStale bool) *DeviceSensorSource {
	return &DeviceSensorSource{
		open:       open,
		allowStale: allowStale,
	}
}

// Watch reads sentences until ctx is cancelled or the stream ends.
func (d *DeviceSensorSource) Watch(ctx context.Context, handler Handler) error {
	port, err := d.open()
	if err != nil {
		return err
	}

	var closeOnce sync.Once
	closePort := func() { closeOnce.Do(func() { port.Close() }) }
	defer closePort()

	// Closing the port unblocks the pending read.
	stop := context.AfterFunc(ctx, closePort)
	defer stop()

	var (
		current Location
		sawRMC  bool
	)
	scanner := bufio.NewScanner(port)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, "$") {
			continue
		}

		sentence, err := nmea.Parse(line)
		if err != nil {
			// Partial sentences are common right after the port opens.
			continue
		}

		switch s := sentence.(type) {
		case nmea.RMC:
			sawRMC = true
			if s.Validity != nmea.ValidRMC && !d.allowStale {
				continue
			}
			current.Latitude = s.Latitude
			current.Longitude = s.Longitude
			speed := s.Speed * knotsToMetersPerSecond
			course := s.Course
			current.Speed = &speed
			current.Bearing = &course
			current.Time = fixTime(s.Date, s.Time)
			handler(current)

		case nmea.GGA:
			if s.FixQuality == nmea.Invalid && !d.allowStale {
				continue
			}
			altitude := s.Altitude
			current.Altitude = &altitude
			current.Accuracy = s.HDOP
			if !sawRMC {
				current.Latitude = s.Latitude
				current.Longitude = s.Longitude
				current.Time = fixTime(nmea.Date{}, s.Time)
				handler(current)
			}
		}
	}

	if ctx.Err() != nil {
		return ctx.Err()
	}
	if err := scanner.Err(); err != nil {
		return err
	}
	return errors.New("gps stream ended")
}

// fixTime combines NMEA date and time. Without a valid date the current UTC date is used.
func fixTime(d nmea.Date, t nmea.Time) time.Time {
	if !t.Valid {
		return time.Now().UTC()
	}
	year, month, day := time.Now().UTC().Date()
	if d.Valid {
		year, month, day = 2000+d.YY, time.Month(d.MM), d.DD
	}
	return time.Date(year, month, day, t.Hour, t.Minute, t.Second, t.Millisecond*int(time.Millisecond), time.UTC)
}
