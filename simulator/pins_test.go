package simulator

import "testing"

func TestPinsRecordsEdges(t *testing.T) {
	p := NewPins()
	var edges []uint8
	p.OnStep = func(level uint8) { edges = append(edges, level) }

	p.WriteStepPin(1)
	p.WriteStepPin(0)

	if len(edges) != 2 || edges[0] != 1 || edges[1] != 0 {
		t.Fatalf("edges = %v, want [1 0]", edges)
	}
	if p.ReadStepPin() != 0 {
		t.Fatalf("ReadStepPin() = %d, want 0", p.ReadStepPin())
	}
}

func TestPinsClockAdvances(t *testing.T) {
	p := NewPins()
	p.Advance(5)
	p.Advance(5)
	if got := p.Micros(); got != 10 {
		t.Fatalf("Micros() = %d, want 10", got)
	}
}

func TestSpindleSetAndAdvance(t *testing.T) {
	s := NewSpindle()
	s.Set(42)
	if got := s.GetCurrentPosition(); got != 42 {
		t.Fatalf("GetCurrentPosition() = %d, want 42", got)
	}

	s.SetRate(3)
	s.Advance()
	s.Advance()
	if got := s.GetCurrentPosition(); got != 48 {
		t.Fatalf("GetCurrentPosition() = %d, want 48", got)
	}
}
