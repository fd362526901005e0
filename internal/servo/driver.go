// Package servo drives a leveling servo from the fused attitude estimate.
// It nudges a PWM output so the mounted platform holds a target angle.
package servo

// pwmDriver is the minimal interface the leveling loop needs from a
// PWM/GPIO backend. Duty is percent of the period (0..100).
//
// Close is best-effort and must leave the output in a safe state.
type pwmDriver interface {
	SetFrequencyHz(hz int) error
	SetDutyPercent(p float64) error
	Close() error
}
