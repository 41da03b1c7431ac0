// Package rpi implements core.PinIO on Linux/Raspberry Pi, adapted from
// EdgxCloud-EdgeFlow's internal/hal RaspberryPiHAL: periph.io/x/host/v3
// brings up the platform, github.com/stianeikeland/go-rpio/v4 does the
// actual register-level GPIO writes.
package rpi

import (
	"fmt"
	"time"

	"github.com/stianeikeland/go-rpio/v4"
	"periph.io/x/host/v3"
)

// Pins drives a step/direction pair of Broadcom GPIO pins through go-rpio,
// after periph.io/x/host/v3 has mapped /dev/gpiomem.
type Pins struct {
	stepPin rpio.Pin
	dirPin  rpio.Pin

	invertStep bool
	invertDir  bool
	stepLevel  uint8

	start time.Time
}

// New initializes the periph.io host and go-rpio's GPIO mapping, configures
// stepPin/dirPin as outputs, and returns a ready Pins.
func New(stepPin, dirPin int, invertStep, invertDir bool) (*Pins, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("rpi: periph host init: %w", err)
	}
	if err := rpio.Open(); err != nil {
		return nil, fmt.Errorf("rpi: rpio.Open: %w", err)
	}

	p := &Pins{
		stepPin:    rpio.Pin(stepPin),
		dirPin:     rpio.Pin(dirPin),
		invertStep: invertStep,
		invertDir:  invertDir,
		start:      time.Now(),
	}
	p.stepPin.Output()
	p.dirPin.Output()
	p.WriteStepPin(0)
	p.WriteDirPin(0)
	return p, nil
}

// Close releases the go-rpio GPIO mapping.
func (p *Pins) Close() error {
	return rpio.Close()
}

func (p *Pins) ReadStepPin() uint8 {
	return p.stepLevel
}

func (p *Pins) WriteStepPin(level uint8) {
	p.stepLevel = level
	setPin(p.stepPin, level, p.invertStep)
}

func (p *Pins) WriteDirPin(level uint8) {
	setPin(p.dirPin, level, p.invertDir)
}

func setPin(pin rpio.Pin, level uint8, invert bool) {
	high := level != 0
	if invert {
		high = !high
	}
	if high {
		pin.High()
	} else {
		pin.Low()
	}
}

// Micros returns a free-running microsecond counter since New was called.
func (p *Pins) Micros() uint32 {
	return uint32(time.Since(p.start).Microseconds())
}
