package firmata

// Parser parses bytes received.
type Parser struct {
	state parseState
	cmd   byte
	need  int
	buf   []byte
}

// ParseResult indicates the result after one parsing step.
type ParseResult struct {
	// Message is set when the byte completes a frame.
	Message Message
	// Dropped is the number of bytes discarded to resynchronize.
	Dropped int
	// Err is set when a complete frame can't be decoded.
	// The frame bytes are counted in Dropped.
	Err error
}

type parseState int

const (
	stateIdle  parseState = iota // waiting for a command byte
	stateData                    // waiting for fixed size data
	stateSysex                   // waiting for EndSysex
)

// InFrame indicates if the parser is in the middle of a frame.
func (p *Parser) InFrame() bool {
	return p.state != stateIdle
}

// Reset drops any partial frame.
func (p *Parser) Reset() (pr ParseResult) {
	pr.Dropped = p.abort()
	return
}

// Parse consumes one byte.
func (p *Parser) Parse(b byte) (pr ParseResult) {
	if b&0x80 == 0 {
		return p.parseData(b)
	}
	if p.state == stateSysex && b == EndSysex {
		data := p.buf
		p.state, p.buf = stateIdle, nil
		pr.Message, pr.Err = decodeSysex(data)
		if pr.Err != nil {
			pr.Dropped = len(data) + 2
		}
		return
	}
	// Any other command byte interrupts a partial frame.
	pr.Dropped = p.abort()
	switch {
	case b == StartSysex:
		p.state, p.buf = stateSysex, make([]byte, 0, 16)
	case b == SystemResetCmd:
		pr.Message = &ResetMessage{}
	case b == SetPinModeCmd, b == SetDigitalPinValueCmd, b == ProtocolVersionCmd:
		p.expect(b, 2)
	default:
		switch b & commandMask {
		case DigitalMessageCmd, AnalogMessageCmd:
			p.expect(b, 2)
		case ReportAnalogCmd, ReportDigitalCmd:
			p.expect(b, 1)
		default:
			// unknown command, or a stray EndSysex.
			pr.Dropped++
		}
	}
	return
}

func (p *Parser) parseData(b byte) (pr ParseResult) {
	switch p.state {
	case stateIdle:
		pr.Dropped = 1
	case stateData:
		p.buf = append(p.buf, b)
		if len(p.buf) >= p.need {
			cmd, data := p.cmd, p.buf
			p.state, p.buf = stateIdle, nil
			pr.Message = decodeFrame(cmd, data)
		}
	case stateSysex:
		p.buf = append(p.buf, b)
		if len(p.buf) > MaxSysexBytes {
			pr.Dropped = p.abort()
		}
	}
	return
}

func (p *Parser) expect(cmd byte, need int) {
	p.state, p.cmd, p.need = stateData, cmd, need
	p.buf = make([]byte, 0, need)
}

// abort drops the partial frame and returns its length including the command byte.
func (p *Parser) abort() (n int) {
	if p.state != stateIdle {
		n = len(p.buf) + 1
	}
	p.state, p.buf = stateIdle, nil
	return
}

// Decode parses all complete frames in data.
func Decode(data []byte) (msgs []Message) {
	var p Parser
	for _, b := range data {
		if pr := p.Parse(b); pr.Message != nil {
			msgs = append(msgs, pr.Message)
		}
	}
	return
}
