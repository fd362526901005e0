//go:build linux && (arm || arm64)

package servo

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/warthog618/go-gpiocdev"
)

// openGPIO returns a pwmDriver-compatible wrapper driving the given BCM
// GPIO as a digital output via the Linux GPIO character device.
//
// This backend is for bang-bang actuators (relay, transistor-driven
// motor enable): any duty above zero switches the line ON, zero switches
// it OFF. PWM frequency is ignored.
func openGPIO(pin int) (pwmDriver, error) {
	if pin <= 0 {
		return nil, fmt.Errorf("servo: invalid gpio pin %d", pin)
	}

	// On Pi, line names are commonly "GPIO18", etc.
	lineName := fmt.Sprintf("GPIO%d", pin)

	chipCandidates := []string{"/dev/gpiochip0", "/dev/gpiochip4"}
	entries, _ := os.ReadDir("/dev")
	for _, e := range entries {
		name := e.Name()
		if strings.HasPrefix(name, "gpiochip") {
			chipCandidates = append(chipCandidates, filepath.Join("/dev", name))
		}
	}

	for _, chipPath := range chipCandidates {
		chip, err := gpiocdev.NewChip(chipPath)
		if err != nil {
			continue
		}
		offset, err := chip.FindLine(lineName)
		if err != nil {
			_ = chip.Close()
			continue
		}
		line, err := chip.RequestLine(offset, gpiocdev.AsOutput(0), gpiocdev.WithConsumer("altimu-ng-servo"))
		if err != nil {
			_ = chip.Close()
			continue
		}
		return &gpiodOutput{chip: chip, line: line}, nil
	}

	return nil, fmt.Errorf("servo: gpio line %q not found (or busy)", lineName)
}

type gpiodOutput struct {
	chip *gpiocdev.Chip
	line *gpiocdev.Line
}

func (g *gpiodOutput) SetFrequencyHz(hz int) error {
	// Digital on/off backend has no frequency.
	return nil
}

func (g *gpiodOutput) SetDutyPercent(p float64) error {
	if g == nil || g.line == nil {
		return fmt.Errorf("servo: gpio driver not initialized")
	}
	v := 0
	if p > 0 {
		v = 1
	}
	return g.line.SetValue(v)
}

func (g *gpiodOutput) Close() error {
	if g == nil || g.line == nil {
		return nil
	}
	// Graceful shutdown: line OFF.
	_ = g.line.SetValue(0)
	err := g.line.Close()
	g.line = nil
	if g.chip != nil {
		_ = g.chip.Close()
		g.chip = nil
	}
	return err
}
