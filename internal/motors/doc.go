// Package motors implements the output stage of a coaxial "pulsing" frame:
// one lift rotor, one tail rotor and two gimbal servos for pitch and roll.
//
// Each control-loop tick the caller hands a TickInput to Pulsing.Output.
// The demand is mixed with a fixed-priority saturation policy (Mix), the
// spool phase selects the output policy, and the thrust channels are moved
// toward their targets through a slew limiter before being written to the
// signal layer (Writer).
//
// Nothing in this package blocks or performs I/O directly and a Pulsing
// value must only be driven from one goroutine.
package motors
