// Command els-host is a host-side driver and interactive console for the
// leadscrew controller, adapted from the teacher's host/cmd/gopper-host
// REPL (flag-configured connection, bufio.Scanner command loop, a "help"
// command listing everything else) — generalized from Klipper dictionary
// commands to leadscrew motion commands, and from a remote-MCU connection
// to either an in-process simulator or a real Raspberry Pi GPIO backend.
//
// The ticking goroutine is the sole owner of the Controller; the REPL
// goroutine never touches it directly. Commands are funneled through a
// channel and executed between ticks, so Controller itself never needs a
// lock — it is only ever called from one goroutine, consistent with the
// single-owner tick discipline the controller is built around.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/EmperorArthur/TeensyELS/core"
	"github.com/EmperorArthur/TeensyELS/hw/rpi"
	"github.com/EmperorArthur/TeensyELS/leadscrew"
	"github.com/EmperorArthur/TeensyELS/serialbridge"
	"github.com/EmperorArthur/TeensyELS/simulator"
)

var (
	configFile = flag.String("config", "", "JSON configuration file (empty = built-in defaults)")
	backend    = flag.String("backend", "sim", "Pin backend: sim or rpi")
	stepPin    = flag.Int("step-pin", 20, "rpi backend: BCM step pin number")
	dirPin     = flag.Int("dir-pin", 21, "rpi backend: BCM direction pin number")
	leadDevice = flag.String("lead-device", "", "Serial device reporting lead-axis position (empty = simulated spindle)")
	leadBaud   = flag.Int("lead-baud", 115200, "Baud rate for -lead-device")
	simRate    = flag.Int64("sim-rate", 4, "Simulated spindle counts advanced per tick when -lead-device is empty")
	verbose    = flag.Bool("verbose", false, "Enable debug logging")
)

func main() {
	flag.Parse()

	cfg := core.DefaultConfig()
	if *configFile != "" {
		data, err := os.ReadFile(*configFile)
		if err == nil {
			cfg, err = core.LoadConfig(data)
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	}
	global := core.NewGlobalState()

	if *verbose {
		core.SetDebugEnabled(true)
		core.SetDebugWriter(func(msg string) { fmt.Println(msg) })
	}

	pins, closePins, err := openPins()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer closePins()

	lead, closeLead, err := openLead()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer closeLead()

	controller := leadscrew.New(pins, lead, global, cfg)

	simPins, isSim := pins.(*simulator.Pins)
	simSpindle, isSimSpindle := lead.(*simulator.Spindle)

	cmds := make(chan func())
	stop := make(chan struct{})
	go tickLoop(controller, cfg, cmds, stop, func() {
		if isSim {
			simPins.Advance(cfg.LeadscrewTimerUS)
		}
		if isSimSpindle {
			simSpindle.Advance()
		}
	})
	defer close(stop)

	fmt.Println("Electronic Lead Screw host console")
	fmt.Println("===================================")
	fmt.Println("Type 'help' for available commands, 'quit' to exit.")

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if !runCommand(line, controller, global, cmds) {
			break
		}
	}
}

func openPins() (core.PinIO, func(), error) {
	switch *backend {
	case "sim":
		return simulator.NewPins(), func() {}, nil
	case "rpi":
		p, err := rpi.New(*stepPin, *dirPin, false, false)
		if err != nil {
			return nil, nil, err
		}
		return p, func() { p.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unknown -backend %q (want sim or rpi)", *backend)
	}
}

func openLead() (core.LeadAxisSensor, func(), error) {
	if *leadDevice == "" {
		s := simulator.NewSpindle()
		s.SetRate(*simRate)
		return s, func() {}, nil
	}
	sc := serialbridge.DefaultConfig(*leadDevice)
	sc.Baud = *leadBaud
	b, err := serialbridge.Open(sc)
	if err != nil {
		return nil, nil, err
	}
	return b, func() { b.Close() }, nil
}

// tickLoop is the sole owner of controller: it calls Update() once per
// configured timer period and, between ticks, drains any pending command
// closures sent by the REPL goroutine.
func tickLoop(controller *leadscrew.Controller, cfg core.Config, cmds <-chan func(), stop <-chan struct{}, advanceSim func()) {
	period := time.Duration(cfg.LeadscrewTimerUS) * time.Microsecond
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case fn := <-cmds:
			fn()
		case <-ticker.C:
			advanceSim()
			controller.Update()
		}
	}
}

// runCommand parses and executes one REPL line. It returns false when the
// console should exit.
func runCommand(line string, controller *leadscrew.Controller, global *core.GlobalState, cmds chan<- func()) bool {
	fields := strings.Fields(line)
	switch fields[0] {
	case "quit", "exit", "q":
		fmt.Println("Goodbye!")
		return false

	case "help", "?":
		printHelp()

	case "status":
		done := make(chan string, 1)
		cmds <- func() {
			done <- fmt.Sprintf(
				"mode=%s sync=%s ratio=%.4f position=%d error=%d direction=%s velocity=%.2fmm/s",
				global.MotionMode(), global.ThreadSyncState(), controller.GetRatio(),
				controller.GetCurrentPosition(), controller.GetPositionError(),
				controller.GetCurrentDirection(), controller.GetEstimatedVelocityInMillimetersPerSecond())
		}
		fmt.Println(<-done)

	case "enable":
		cmds <- func() { global.SetMotionMode(core.MotionEnabled) }

	case "disable":
		cmds <- func() { global.SetMotionMode(core.MotionDisabled) }

	case "jog":
		cmds <- func() { global.SetMotionMode(core.MotionJog) }

	case "ratio":
		if len(fields) != 2 {
			fmt.Println("usage: ratio <float>")
			return true
		}
		r, err := strconv.ParseFloat(fields[1], 32)
		if err != nil {
			fmt.Printf("bad ratio: %v\n", err)
			return true
		}
		cmds <- func() { controller.SetRatio(float32(r)) }

	case "stop":
		runStopCommand(fields, controller, cmds)

	default:
		fmt.Printf("unknown command: %s (type 'help' for available commands)\n", fields[0])
	}
	return true
}

func runStopCommand(fields []string, controller *leadscrew.Controller, cmds chan<- func()) {
	if len(fields) < 3 {
		fmt.Println("usage: stop set|unset left|right [position]")
		return
	}
	side, err := parseSide(fields[2])
	if err != nil {
		fmt.Println(err)
		return
	}
	switch fields[1] {
	case "set":
		if len(fields) != 4 {
			fmt.Println("usage: stop set left|right <position>")
			return
		}
		pos, err := strconv.ParseInt(fields[3], 10, 32)
		if err != nil {
			fmt.Printf("bad position: %v\n", err)
			return
		}
		cmds <- func() { controller.SetStopPosition(side, int32(pos)) }
	case "unset":
		cmds <- func() { controller.UnsetStopPosition(side) }
	default:
		fmt.Println("usage: stop set|unset left|right [position]")
	}
}

func parseSide(s string) (leadscrew.Side, error) {
	switch s {
	case "left":
		return leadscrew.SideLeft, nil
	case "right":
		return leadscrew.SideRight, nil
	default:
		return 0, fmt.Errorf("unknown side %q (want left or right)", s)
	}
}

func printHelp() {
	fmt.Println(`
Available commands:
  status                    - Print mode, sync, ratio, position, velocity
  enable                    - Enter ENABLED (ratio-tracking) mode
  disable                   - Enter DISABLED mode
  jog                       - Enter JOG mode
  ratio <float>             - Set the tracking ratio
  stop set left|right <pos> - Pin a soft stop position
  stop unset left|right     - Release a soft stop
  help                      - Show this help message
  quit/exit/q               - Exit the console
`)
}
