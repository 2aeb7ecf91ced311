package motors

// Writer is the signal layer the output stage drives. Writes are fire and
// forget; implementations must not block.
type Writer interface {
	// Write sets a pulse width in microseconds on a channel.
	Write(ch uint8, pwm uint16)
	// WriteAngle sets an angle output, within the range given to SetAngleRange.
	WriteAngle(ch uint8, angle int16)
	// SetFreq sets the output rate of every channel in mask.
	SetFreq(mask uint32, hz uint16)
	// SetAngleRange marks a channel as an angle output over [-rng, rng].
	SetAngleRange(ch uint8, rng uint16)
}
