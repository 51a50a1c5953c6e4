// Package firmata provides Firmata protocol support.
package firmata

// Firmata is communicated between a host and microcontroller firmware over
// a byte stream, usually a serial port. It borrows its framing from MIDI:
// command bytes have the high bit set and every payload byte is 7-bit.
// Payloads which don't fit the fixed size frames travel in SysEx frames
// delimited by StartSysex and EndSysex.
//
// The Parser consumes one byte at a time and never fails: bytes which
// can't belong to a frame are dropped until the next command byte, which
// is how the stream recovers from line noise or a reset board.
//
// Producer: firmware (StandardFirmata 2.x)
// Consumer: host client
