//go:build !linux || (!arm && !arm64)

package servo

import "fmt"

// Stubs for non-Linux and/or non-ARM platforms.

func openPWM() (pwmDriver, error) {
	return nil, fmt.Errorf("servo: pwm unsupported on this platform")
}

func openGPIO(pin int) (pwmDriver, error) {
	return nil, fmt.Errorf("servo: gpio unsupported on this platform")
}
