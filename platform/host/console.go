package host

import (
	"strconv"
	"strings"

	"github.com/google/shlex"

	"beaconcode-go/errcode"
)

// Console changes the simulated environment from text commands:
//
//	light 12          ambient light level
//	z -300            Z axis sample
//	rx "hello there"  bytes arriving from the phone
//	mute on|off       stop answering AT commands
//	status            counters
//
// Exec touches the models and must run on the main goroutine; a reader on
// another goroutine hands lines over with Core.Raise.
type Console struct {
	sim *Sim
}

func NewConsole(sim *Sim) *Console { return &Console{sim: sim} }

// Exec runs one command line and returns the reply.
func (c *Console) Exec(line string) (string, error) {
	const op = "console"
	args, err := shlex.Split(line)
	if err != nil {
		return "", errcode.New(op, errcode.InvalidParams, err.Error())
	}
	if len(args) == 0 {
		return "", nil
	}
	cmd, args := strings.ToLower(args[0]), args[1:]
	switch cmd {
	case "light":
		v, err := c.arg(args, 0, 255)
		if err != nil {
			return "", err
		}
		c.sim.Level = uint8(v)
		return "light " + strconv.Itoa(v), nil
	case "z":
		v, err := c.arg(args, -32768, 32767)
		if err != nil {
			return "", err
		}
		c.sim.Tilt = int16(v)
		return "z " + strconv.Itoa(v), nil
	case "rx":
		if len(args) == 0 {
			return "", errcode.New(op, errcode.InvalidParams, "rx needs text")
		}
		s := strings.Join(args, " ")
		c.sim.Radio.Inject(s)
		return "rx " + strconv.Itoa(len(s)) + " bytes", nil
	case "mute":
		if len(args) != 1 || (args[0] != "on" && args[0] != "off") {
			return "", errcode.New(op, errcode.InvalidParams, "mute on|off")
		}
		c.sim.Radio.Mute = args[0] == "on"
		return "mute " + args[0], nil
	case "status":
		return c.status(), nil
	}
	return "", errcode.New(op, errcode.Unsupported, "unknown command "+strconv.Quote(cmd))
}

func (c *Console) arg(args []string, lo, hi int) (int, error) {
	if len(args) != 1 {
		return 0, errcode.New("console", errcode.InvalidParams, "want one value")
	}
	v, err := strconv.Atoi(args[0])
	if err != nil || v < lo || v > hi {
		return 0, errcode.New("console", errcode.InvalidParams, "value out of range: "+args[0])
	}
	return v, nil
}

func (c *Console) status() string {
	var b strings.Builder
	b.WriteString("messages=")
	b.WriteString(strconv.Itoa(len(c.sim.Radio.Messages())))
	b.WriteString(" forced=")
	b.WriteString(strconv.FormatUint(uint64(c.sim.Light.Forced()), 10))
	b.WriteString(" imu=")
	b.WriteString(strconv.FormatUint(uint64(c.sim.IMU.Accesses()), 10))
	b.WriteString(" irq=")
	b.WriteString(strconv.FormatUint(uint64(c.sim.Core.Served()), 10))
	return b.String()
}
