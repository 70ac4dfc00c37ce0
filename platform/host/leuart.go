package host

import (
	"strings"

	"beaconcode-go/drivers/hm10"
	"beaconcode-go/platform/port"
)

// Radio models an HM-10 module behind a LEUART. Bytes accumulate until the
// transmitter drains; a buffer starting with AT is a command and is answered
// on the receive line, anything else is a message sent to the connected
// phone. It implements xfer.StreamPort.
type Radio struct {
	*port.Stream
	name     string
	buf      []byte
	messages []string
	resets   uint32

	// Mute stops answering commands.
	Mute bool
	// Echo prints every message.
	Echo bool
}

func NewRadio(core *port.Core) *Radio {
	r := &Radio{Stream: port.NewStream(core), name: "HMSoft"}
	r.Drain = r.drained
	return r
}

func (r *Radio) Send(b byte) { r.buf = append(r.buf, b) }

func (r *Radio) Flush() { r.buf = r.buf[:0] }

// drained acts on the buffer once the last byte has left the shift
// register. Replies queue behind transmit complete.
func (r *Radio) drained() {
	if len(r.buf) == 0 {
		return
	}
	s := string(r.buf)
	r.buf = r.buf[:0]
	if strings.HasPrefix(s, "AT") {
		r.command(s)
		return
	}
	if len(s) > hm10.MaxMessage {
		println("[radio] oversized message dropped")
		return
	}
	r.messages = append(r.messages, s)
	if r.Echo {
		print("[radio] ", s)
	}
}

func (r *Radio) command(cmd string) {
	var reply string
	switch {
	case cmd == "AT":
		reply = "OK"
	case strings.HasPrefix(cmd, "AT+NAME") && len(cmd) > len("AT+NAME"):
		r.name = cmd[len("AT+NAME"):]
		reply = "OK+Set" + r.name
	case cmd == "AT+RESET":
		r.resets++
		reply = "OK+RESET"
	default:
		reply = "ERROR"
	}
	if r.Mute {
		return
	}
	for i := 0; i < len(reply); i++ {
		r.Receive(reply[i])
	}
}

// Inject delivers bytes on the receive line, as a connected phone would.
func (r *Radio) Inject(s string) {
	for i := 0; i < len(s); i++ {
		r.Receive(s[i])
	}
}

// Name is the advertised name.
func (r *Radio) Name() string { return r.name }

// Messages returns what has been sent over the air.
func (r *Radio) Messages() []string { return r.messages }

// Resets counts AT+RESET commands.
func (r *Radio) Resets() uint32 { return r.resets }
