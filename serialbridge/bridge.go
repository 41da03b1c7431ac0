// Package serialbridge implements core.LeadAxisSensor by reading
// line-delimited position reports off a serial link, adapted from the
// teacher's host/serial package (its Config/DefaultConfig shape and its
// tarm/serial-backed NativePort) — generalized here from a raw
// io.ReadWriteCloser wrapper into a sensor that owns its own read loop.
package serialbridge

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/tarm/serial"

	"github.com/EmperorArthur/TeensyELS/core"
)

// Config mirrors the teacher's host/serial.Config.
type Config struct {
	Device      string
	Baud        int
	ReadTimeout time.Duration
}

// DefaultConfig returns typical settings for a USB-CDC encoder bridge.
func DefaultConfig(device string) Config {
	return Config{
		Device:      device,
		Baud:        115200,
		ReadTimeout: 100 * time.Millisecond,
	}
}

// Bridge is a core.LeadAxisSensor fed by position reports of the form
// "P <signed-int>\n" arriving on a serial link — e.g. from a standalone
// microcontroller decoding a quadrature encoder and relaying counts
// upstream to a host that runs the leadscrew controller itself.
type Bridge struct {
	port     io.ReadWriteCloser
	position atomic.Int64
	done     chan struct{}
}

// Open opens the serial device and starts the background reader. Close
// stops it.
func Open(cfg Config) (*Bridge, error) {
	port, err := serial.OpenPort(&serial.Config{
		Name:        cfg.Device,
		Baud:        cfg.Baud,
		ReadTimeout: cfg.ReadTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("serialbridge: open %s: %w", cfg.Device, err)
	}

	b := &Bridge{port: port, done: make(chan struct{})}
	go b.readLoop()
	return b, nil
}

// GetCurrentPosition implements core.LeadAxisSensor.
func (b *Bridge) GetCurrentPosition() int32 {
	return int32(b.position.Load())
}

// Close stops the read loop and closes the underlying port.
func (b *Bridge) Close() error {
	close(b.done)
	return b.port.Close()
}

func (b *Bridge) readLoop() {
	scanner := bufio.NewScanner(b.port)
	for scanner.Scan() {
		select {
		case <-b.done:
			return
		default:
		}
		b.handleLine(scanner.Text())
	}
}

func (b *Bridge) handleLine(line string) {
	line = strings.TrimSpace(line)
	fields := strings.Fields(line)
	if len(fields) != 2 || fields[0] != "P" {
		core.DebugPrintln("[serialbridge] ignoring malformed line: " + line)
		return
	}
	pos, err := strconv.ParseInt(fields[1], 10, 32)
	if err != nil {
		core.DebugPrintln("[serialbridge] bad position field: " + line)
		return
	}
	b.position.Store(pos)
}
