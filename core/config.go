package core

import "encoding/json"

// Config holds the compile-time constants of spec.md §6 as
// runtime-overridable fields, in the manner of the teacher's
// standalone/config.MachineConfig: a plain struct loadable from JSON,
// filled in with sensible defaults when a field is left zero.
type Config struct {
	// LeadscrewInitialPulseDelayUS is the slowest (start/stop) inter-pulse
	// interval, in microseconds. Also the clamp ceiling for
	// currentPulseDelay.
	LeadscrewInitialPulseDelayUS uint32 `json:"leadscrew_initial_pulse_delay_us"`

	// LeadscrewPulseDelayStepUS is the base ramp quantum: the per-decision
	// change to currentPulseDelay is this value scaled by elapsed time
	// since the last pulse.
	LeadscrewPulseDelayStepUS uint32 `json:"leadscrew_pulse_delay_step_us"`

	// LeadscrewTimerUS is the tick period the host driver calls Update() at.
	LeadscrewTimerUS uint32 `json:"leadscrew_timer_us"`

	// JogPulseDelayUS is the fixed inter-pulse interval used in JOG mode.
	JogPulseDelayUS uint32 `json:"jog_pulse_delay_us"`

	// StepperPPR is the stepper's pulses (steps) per revolution.
	StepperPPR uint32 `json:"stepper_ppr"`

	// StepsPerMM is the mechanical conversion used for velocity reporting.
	StepsPerMM float32 `json:"steps_per_mm"`

	// StopsGateDeceleration controls whether the soft stop positions
	// participate in the deceleration predicate of Update() (see open
	// question #1 in spec.md §9). Defaults to false: stop positions are
	// then stored and reported but not consulted by Update(). When true, a
	// set stop in the direction of travel forces deceleration once it is
	// within stopping distance. In neither case is travel halted at a stop.
	StopsGateDeceleration bool `json:"stops_gate_deceleration"`
}

// DefaultConfig returns the constants used throughout spec.md's
// end-to-end scenarios (§8): INITIAL_PULSE_DELAY_US=1000,
// PULSE_DELAY_STEP_US=10, TIMER_US=5, JOG_PULSE_DELAY_US=500.
func DefaultConfig() Config {
	return Config{
		LeadscrewInitialPulseDelayUS: 1000,
		LeadscrewPulseDelayStepUS:    10,
		LeadscrewTimerUS:             5,
		JogPulseDelayUS:              500,
		StepperPPR:                   200,
		StepsPerMM:                   80,
		StopsGateDeceleration:        false,
	}
}

// applyDefaults fills any zero-valued field with the DefaultConfig value,
// mirroring the teacher's standalone/config.applyDefaults.
func (c *Config) applyDefaults() {
	d := DefaultConfig()
	if c.LeadscrewInitialPulseDelayUS == 0 {
		c.LeadscrewInitialPulseDelayUS = d.LeadscrewInitialPulseDelayUS
	}
	if c.LeadscrewPulseDelayStepUS == 0 {
		c.LeadscrewPulseDelayStepUS = d.LeadscrewPulseDelayStepUS
	}
	if c.LeadscrewTimerUS == 0 {
		c.LeadscrewTimerUS = d.LeadscrewTimerUS
	}
	if c.JogPulseDelayUS == 0 {
		c.JogPulseDelayUS = d.JogPulseDelayUS
	}
	if c.StepperPPR == 0 {
		c.StepperPPR = d.StepperPPR
	}
	if c.StepsPerMM == 0 {
		c.StepsPerMM = d.StepsPerMM
	}
}

// LoadConfig parses a JSON configuration document and returns a Config
// with defaults applied to any field left unset, mirroring the teacher's
// standalone/config.LoadConfig.
func LoadConfig(jsonData []byte) (Config, error) {
	var cfg Config
	if err := json.Unmarshal(jsonData, &cfg); err != nil {
		return Config{}, err
	}
	cfg.applyDefaults()
	return cfg, nil
}
