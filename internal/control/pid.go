// Package control turns stick rate commands and measured body rates into
// the roll, pitch and yaw demand handed to the mixer.
package control

// PIDController holds the state for a PID controller.
type PIDController struct {
	Kp, Ki, Kd float64
	IMax       float64 // integrator magnitude limit, 0 for none
	prevError  float64
	integral   float64
}

// NewPIDController creates and initializes a new PIDController.
func NewPIDController(Kp, Ki, Kd float64) *PIDController {
	return &PIDController{
		Kp: Kp,
		Ki: Ki,
		Kd: Kd,
	}
}

// Update calculates the new control output. While limited is set the
// integrator holds its value so it does not wind up against a saturated
// output.
func (pid *PIDController) Update(currentError, dt float64, limited bool) float64 {
	// Proportional term
	proportional := pid.Kp * currentError

	// Integral term
	if !limited {
		pid.integral += currentError * dt
		if pid.IMax > 0 {
			if pid.integral > pid.IMax {
				pid.integral = pid.IMax
			} else if pid.integral < -pid.IMax {
				pid.integral = -pid.IMax
			}
		}
	}
	integral := pid.Ki * pid.integral

	// Derivative term
	var derivative float64
	if dt > 0 {
		derivative = pid.Kd * (currentError - pid.prevError) / dt
	}
	pid.prevError = currentError

	return proportional + integral + derivative
}

// Integral returns the accumulated error.
func (pid *PIDController) Integral() float64 { return pid.integral }

// Reset clears the accumulated state.
func (pid *PIDController) Reset() {
	pid.prevError = 0
	pid.integral = 0
}
