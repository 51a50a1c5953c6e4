package firmata

// decodeFrame decodes a fixed size frame. data is always complete.
func decodeFrame(cmd byte, data []byte) Message {
	switch cmd {
	case SetPinModeCmd:
		return &PinModeMessage{Pin: data[0], Mode: PinMode(data[1])}
	case SetDigitalPinValueCmd:
		return &DigitalWriteMessage{Pin: data[0], Value: data[1] != 0}
	case ProtocolVersionCmd:
		return &ProtocolVersionMessage{Major: data[0], Minor: data[1]}
	}
	channel := cmd & channelMask
	switch cmd & commandMask {
	case DigitalMessageCmd:
		return &DigitalMessage{Port: channel, Values: byte(Join14(data[0], data[1]))}
	case AnalogMessageCmd:
		return &AnalogMessage{Pin: channel, Value: Join14(data[0], data[1])}
	case ReportAnalogCmd:
		return &ReportAnalogMessage{Pin: channel, Enable: data[0] != 0}
	case ReportDigitalCmd:
		return &ReportDigitalMessage{Port: channel, Enable: data[0] != 0}
	}
	panic("unexpected command")
}

// decodeSysex decodes the bytes between StartSysex and EndSysex.
func decodeSysex(data []byte) (Message, error) {
	if len(data) == 0 {
		return nil, malformed("empty sysex", data)
	}
	cmd, payload := SysexCmd(data[0]), data[1:]
	switch cmd {
	case SysexReportFirmware:
		if len(payload) == 0 {
			return &FirmwareQueryMessage{}, nil
		}
		if len(payload) < 2 {
			return nil, malformed("firmware report", payload)
		}
		return &FirmwareMessage{
			Major: payload[0],
			Minor: payload[1],
			Name:  string(Decode7(payload[2:])),
		}, nil
	case SysexCapabilityQuery:
		return &CapabilityQueryMessage{}, nil
	case SysexCapabilityResponse:
		return decodeCapabilities(payload)
	case SysexAnalogMappingQuery:
		return &AnalogMappingQueryMessage{}, nil
	case SysexAnalogMappingResponse:
		return &AnalogMappingMessage{Channels: copyBytes(payload)}, nil
	case SysexPinStateQuery:
		if len(payload) != 1 {
			return nil, malformed("pin state query", payload)
		}
		return &PinStateQueryMessage{Pin: payload[0]}, nil
	case SysexPinStateResponse:
		if len(payload) < 3 {
			return nil, malformed("pin state response", payload)
		}
		return &PinStateMessage{
			Pin:   payload[0],
			Mode:  PinMode(payload[1]),
			State: parseUint7(payload[2:]),
		}, nil
	case SysexExtendedAnalog:
		if len(payload) < 2 || len(payload) > 5 {
			return nil, malformed("extended analog", payload)
		}
		return &ExtendedAnalogMessage{Pin: payload[0], Value: parseUint7(payload[1:])}, nil
	case SysexServoConfig:
		// The angle was dropped from servo config in later protocol versions.
		if len(payload) != 5 && len(payload) != 7 {
			return nil, malformed("servo config", payload)
		}
		m := &ServoConfigMessage{
			Pin:      payload[0],
			MinPulse: Join14(payload[1], payload[2]),
			MaxPulse: Join14(payload[3], payload[4]),
		}
		if len(payload) == 7 {
			m.Angle = Join14(payload[5], payload[6])
		}
		return m, nil
	case SysexSamplingInterval:
		if len(payload) != 2 {
			return nil, malformed("sampling interval", payload)
		}
		return &SamplingIntervalMessage{Interval: Join14(payload[0], payload[1])}, nil
	case SysexStringData:
		return &StringMessage{Text: string(Decode7(payload))}, nil
	case SysexI2CConfig:
		if len(payload) < 2 {
			return nil, malformed("i2c config", payload)
		}
		return &I2CConfigMessage{Delay: Join14(payload[0], payload[1])}, nil
	case SysexI2CRequest:
		if len(payload) < 2 {
			return nil, malformed("i2c request", payload)
		}
		return &I2CRequestMessage{
			Address: uint16(payload[0]) | uint16(payload[1]&i2cAddressMSBMask)<<7,
			Mode:    I2CMode(payload[1]>>i2cModeShift) & I2CStopReading,
			Data:    Decode7(payload[2:]),
		}, nil
	case SysexI2CReply:
		if len(payload) < 4 {
			return nil, malformed("i2c reply", payload)
		}
		return &I2CReplyMessage{
			Address:  Join14(payload[0], payload[1]),
			Register: Join14(payload[2], payload[3]),
			Data:     Decode7(payload[4:]),
		}, nil
	}
	return &SysexMessage{Command: cmd, Data: copyBytes(payload)}, nil
}

func decodeCapabilities(payload []byte) (Message, error) {
	m := &CapabilityMessage{}
	caps := PinCapabilities{}
	for i := 0; i < len(payload); {
		if payload[i] == capabilityPinDelimiter {
			m.Pins = append(m.Pins, caps)
			caps = PinCapabilities{}
			i++
			continue
		}
		if i+1 >= len(payload) {
			return nil, malformed("capability response", payload)
		}
		caps[PinMode(payload[i])] = payload[i+1]
		i += 2
	}
	return m, nil
}

func copyBytes(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	return append([]byte(nil), b...)
}
