package servo

// pidController turns an angle error into a servo duty offset.
//
// Output is clamped to the configured range. Not safe for concurrent use.
type pidController struct {
	kp, ki, kd float64
	setpoint   float64
	outMin     float64
	outMax     float64

	integral  float64
	prevError float64
	havePrev  bool
}

func newPID(kp, ki, kd float64) *pidController {
	return &pidController{kp: kp, ki: ki, kd: kd, outMin: -100, outMax: 100}
}

func (p *pidController) SetOutputLimits(min, max float64) {
	p.outMin = min
	p.outMax = max
}

func (p *pidController) Set(setpoint float64) {
	p.setpoint = setpoint
	p.integral = 0
	p.prevError = 0
	p.havePrev = false
}

// Update advances the controller by dt seconds given the measured angle.
func (p *pidController) Update(measurement, dt float64) float64 {
	if dt <= 0 {
		// No time elapsed, no update.
		return 0
	}
	err := p.setpoint - measurement
	p.integral += err * dt

	derivative := 0.0
	if p.havePrev {
		derivative = (err - p.prevError) / dt
	}
	p.prevError = err
	p.havePrev = true

	out := p.kp*err + p.ki*p.integral + p.kd*derivative
	if out < p.outMin {
		out = p.outMin
	}
	if out > p.outMax {
		out = p.outMax
	}
	return out
}
