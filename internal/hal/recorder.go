package hal

import "sync"

// Output is the last value written to one channel.
type Output struct {
	PWM        uint16
	Angle      int16
	IsAngle    bool
	AngleRange uint16
	Hz         uint16
}

// Recorder keeps the last write per channel in memory. It backs the bench
// status page and the tests.
type Recorder struct {
	mu      sync.Mutex
	outputs map[uint8]Output
	writes  uint64
}

func NewRecorder() *Recorder {
	return &Recorder{outputs: make(map[uint8]Output)}
}

func (r *Recorder) Write(ch uint8, pwm uint16) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o := r.outputs[ch]
	o.PWM = pwm
	r.outputs[ch] = o
	r.writes++
}

func (r *Recorder) WriteAngle(ch uint8, angle int16) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o := r.outputs[ch]
	o.Angle = angle
	o.PWM = AngleToPWM(angle, o.AngleRange)
	r.outputs[ch] = o
	r.writes++
}

func (r *Recorder) SetFreq(mask uint32, hz uint16) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for ch := uint8(0); ch < 32; ch++ {
		if mask&(1<<ch) == 0 {
			continue
		}
		o := r.outputs[ch]
		o.Hz = hz
		r.outputs[ch] = o
	}
}

func (r *Recorder) SetAngleRange(ch uint8, rng uint16) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o := r.outputs[ch]
	o.IsAngle = true
	o.AngleRange = rng
	r.outputs[ch] = o
}

// Output returns the last state of a channel.
func (r *Recorder) Output(ch uint8) Output {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.outputs[ch]
}

// Snapshot copies all channel states.
func (r *Recorder) Snapshot() map[uint8]Output {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[uint8]Output, len(r.outputs))
	for ch, o := range r.outputs {
		out[ch] = o
	}
	return out
}

// Writes counts Write and WriteAngle calls.
func (r *Recorder) Writes() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.writes
}
