package hal

import (
	"fmt"

	"github.com/rs/zerolog"
)

// LogWriter logs every output call. Per-tick writes go out at trace level so
// a running loop stays quiet unless asked.
type LogWriter struct {
	log zerolog.Logger
}

func NewLogWriter(log zerolog.Logger) *LogWriter {
	return &LogWriter{log: log.With().Str("component", "hal").Logger()}
}

func (w *LogWriter) Write(ch uint8, pwm uint16) {
	w.log.Trace().Uint8("ch", ch).Uint16("pwm", pwm).Msg("write")
}

func (w *LogWriter) WriteAngle(ch uint8, angle int16) {
	w.log.Trace().Uint8("ch", ch).Int16("angle", angle).Msg("write angle")
}

func (w *LogWriter) SetFreq(mask uint32, hz uint16) {
	w.log.Info().Str("mask", maskString(mask)).Uint16("hz", hz).Msg("set output rate")
}

func (w *LogWriter) SetAngleRange(ch uint8, rng uint16) {
	w.log.Info().Uint8("ch", ch).Uint16("range", rng).Msg("set angle output")
}

func maskString(mask uint32) string {
	return fmt.Sprintf("%032b", mask)
}
