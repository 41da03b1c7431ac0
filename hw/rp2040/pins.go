//go:build tinygo

// Package rp2040 implements core.PinIO directly against TinyGo's machine
// package, adapted from the teacher's targets/rp2350/stepper_gpio.go
// GPIO-toggling stepper backend. Unlike that backend, which drove a full
// step pulse (high, busy-wait, low) inside a single Step() call, this one
// only ever sets a level: the pulse's high/low timing comes entirely from
// leadscrew.Controller calling WriteStepPin across successive Update()
// calls, so there is no busy-wait here.
package rp2040

import (
	"machine"
	"time"
)

// Pins drives a step/direction pair of RP2040 GPIOs.
type Pins struct {
	stepPin machine.Pin
	dirPin  machine.Pin

	invertStep bool
	invertDir  bool
	stepLevel  uint8

	start time.Time
}

// New configures stepPin and dirPin as outputs and returns a ready Pins.
// invertStep/invertDir flip the electrical polarity for drivers that are
// wired active-low.
func New(stepPin, dirPin machine.Pin, invertStep, invertDir bool) *Pins {
	p := &Pins{
		stepPin:    stepPin,
		dirPin:     dirPin,
		invertStep: invertStep,
		invertDir:  invertDir,
		start:      time.Now(),
	}
	p.stepPin.Configure(machine.PinConfig{Mode: machine.PinOutput})
	p.dirPin.Configure(machine.PinConfig{Mode: machine.PinOutput})
	p.WriteStepPin(0)
	p.WriteDirPin(0)
	return p
}

func (p *Pins) ReadStepPin() uint8 {
	return p.stepLevel
}

func (p *Pins) WriteStepPin(level uint8) {
	p.stepLevel = level
	p.setPin(p.stepPin, level, p.invertStep)
}

func (p *Pins) WriteDirPin(level uint8) {
	p.setPin(p.dirPin, level, p.invertDir)
}

func (p *Pins) setPin(pin machine.Pin, level uint8, invert bool) {
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

// Micros returns a free-running microsecond counter derived from the
// monotonic clock TinyGo's runtime maintains since boot.
func (p *Pins) Micros() uint32 {
	return uint32(time.Since(p.start).Microseconds())
}
