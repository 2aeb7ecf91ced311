package motors

// Params is the snapshot of tunable parameters the output stage reads each
// tick. Persistence and naming live with the ParamSource implementation.
type Params struct {
	YawDir     float64 // MOT_YAW_DIR: 1 normal, -1 reversed
	RotorYawFF float64 // MOT_ROTOR_YAW_FF: reserved for rotor torque feed-forward
	GyroFF     float64 // MOT_GYRO_FF: reserved for gyroscopic feed-forward

	SpinMin    float64 // actuator value at zero thrust
	SpinMax    float64 // actuator value at full thrust
	ThrustExpo float64 // thrust curve expo, 0 is linear

	PWMMin uint16 // pulse width at actuator 0
	PWMMax uint16 // pulse width at actuator 1

	SlewUpTime   float64 // seconds from 0 to 1, 0 disables the limit
	SlewDownTime float64 // seconds from 1 to 0, 0 disables the limit
}

// ParamSource provides the current parameter values.
type ParamSource interface {
	Params() Params
}

// DefaultParams returns the stock tuning.
func DefaultParams() Params {
	return Params{
		YawDir:     1,
		SpinMin:    0.15,
		SpinMax:    0.95,
		ThrustExpo: 0.65,
		PWMMin:     1000,
		PWMMax:     2000,
	}
}

// StaticParams is a fixed ParamSource.
type StaticParams Params

func (s StaticParams) Params() Params { return Params(s) }
