package firmata

const sevenBitMask byte = 0x7F

// Split14 splits a 14-bit value into two 7-bit bytes.
func Split14(v uint16) (lsb, msb byte) {
	return byte(v) & sevenBitMask, byte(v>>7) & sevenBitMask
}

// Join14 joins two 7-bit bytes into a 14-bit value.
func Join14(lsb, msb byte) uint16 {
	return uint16(lsb&sevenBitMask) | uint16(msb&sevenBitMask)<<7
}

// PinValues expands a port value into the states of its 8 pins.
func PinValues(port byte) (pins [8]bool) {
	for i := range pins {
		pins[i] = (port>>uint(i))&1 != 0
	}
	return
}

// PortValue packs the states of 8 pins into a port value.
func PortValue(pins [8]bool) (port byte) {
	for i, on := range pins {
		if on {
			port |= 1 << uint(i)
		}
	}
	return
}

// Encode7 encodes 8-bit bytes as pairs of 7-bit bytes, LSB first.
func Encode7(data []byte) []byte {
	if len(data) == 0 {
		return nil
	}
	out := make([]byte, len(data)*2)
	for i, b := range data {
		out[i*2], out[i*2+1] = b&sevenBitMask, b>>7
	}
	return out
}

// Decode7 reverses Encode7. A trailing odd byte is ignored.
func Decode7(data []byte) []byte {
	if len(data) < 2 {
		return nil
	}
	out := make([]byte, len(data)/2)
	for i := range out {
		out[i] = (data[i*2] & sevenBitMask) | data[i*2+1]<<7
	}
	return out
}

// appendUint7 appends v 7 bits per byte, LSB first, at least min bytes.
func appendUint7(b []byte, v uint32, min int) []byte {
	for n := 0; n < min || v != 0; n++ {
		b = append(b, byte(v)&sevenBitMask)
		v >>= 7
	}
	return b
}

func parseUint7(data []byte) (v uint32) {
	for i, b := range data {
		v |= uint32(b&sevenBitMask) << uint(7*i)
	}
	return
}

func is7Bit(data []byte) bool {
	for _, b := range data {
		if b > sevenBitMask {
			return false
		}
	}
	return true
}

func boolByte(v bool) byte {
	if v {
		return 1
	}
	return 0
}
