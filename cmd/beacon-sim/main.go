//go:build !rp2040

// Command beacon-sim runs the beacon firmware against simulated sensors on
// the host. Lines typed on stdin change the environment (see
// host.Console); messages the firmware sends over BLE are echoed.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"time"

	"golang.org/x/sync/errgroup"

	"beaconcode-go/board"
	"beaconcode-go/config"
	"beaconcode-go/errcode"
	"beaconcode-go/platform/host"
	"beaconcode-go/sleep"
)

type options struct {
	config string
	speed  uint
	limit  time.Duration
	light  uint
	z      int
	radio  string
	baud   int
	trace  bool
	dump   bool
}

func main() {
	var o options
	flag.StringVar(&o.config, "config", "", "board YAML file; defaults when empty")
	flag.UintVar(&o.speed, "speed", 10, "time compression factor")
	flag.DurationVar(&o.limit, "for", 0, "stop after this wall time; 0 runs until interrupted")
	flag.UintVar(&o.light, "light", 100, "initial ambient light level")
	flag.IntVar(&o.z, "z", 16384, "initial Z axis sample")
	flag.StringVar(&o.radio, "radio", "", "serial device of a real HM-10; the model is used when empty")
	flag.IntVar(&o.baud, "baud", 9600, "radio baud rate")
	flag.BoolVar(&o.trace, "trace", false, "log every sleep entry")
	flag.BoolVar(&o.dump, "dump-config", false, "print the effective configuration and exit")
	flag.Parse()

	if err := run(o); err != nil {
		println("[sim] error:", err.Error())
		os.Exit(1)
	}
}

func loadConfig(path string) (config.Board, error) {
	if path != "" {
		return config.Load(path)
	}
	cfg := config.Default()
	if err := config.Validate(&cfg); err != nil {
		return config.Board{}, err
	}
	config.Normalize(&cfg)
	return cfg, nil
}

func run(o options) (err error) {
	cfg, err := loadConfig(o.config)
	if err != nil {
		return err
	}
	if o.dump {
		out, err := config.Marshal(cfg)
		if err != nil {
			return err
		}
		_, err = os.Stdout.Write(out)
		return err
	}
	if o.light > 255 || o.z < -32768 || o.z > 32767 {
		return errcode.New("sim", errcode.InvalidParams, "environment out of range")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if o.limit > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.limit)
		defer cancel()
	}

	sim := host.New(host.Options{Hz: cfg.Timer.Hz, Speed: uint32(o.speed)})
	sim.Level, sim.Tilt = uint8(o.light), int16(o.z)
	sim.Radio.Echo = true
	sim.Core.Trace(o.trace)
	hw := sim.Hardware()

	g, gctx := errgroup.WithContext(ctx)
	if o.radio != "" {
		sr, err := host.OpenSerialRadio(sim.Core, o.radio, o.baud)
		if err != nil {
			return errcode.Wrap("sim.radio", err)
		}
		defer sr.Close()
		hw.LEUART = sr
		g.Go(func() error { return sr.Listen(gctx) })
		println("[sim] radio on", o.radio)
	}
	g.Go(func() error {
		<-gctx.Done()
		sim.Core.Close()
		return nil
	})
	go readConsole(sim)

	b, err := board.New(gctx, cfg, hw)
	if err != nil {
		return err
	}

	// A fault halts the firmware; report it and leave.
	defer func() {
		if r := recover(); r != nil {
			if c := errcode.Recovered(r); c != errcode.Error {
				err = errcode.New("sim", c, "firmware halted")
				println("[sim] fault:", r.(error).Error())
				return
			}
			panic(r)
		}
	}()

	println("[sim] running at x", o.speed)
	start := time.Now()
	runErr := b.Run(gctx)
	b.Stop()
	sim.Core.Close()
	if err := g.Wait(); err != nil {
		return err
	}
	report(sim, b, time.Since(start))
	if runErr != nil && !errors.Is(runErr, context.Canceled) && !errors.Is(runErr, context.DeadlineExceeded) {
		return runErr
	}
	return nil
}

// readConsole hands stdin lines to the main goroutine.
func readConsole(sim *host.Sim) {
	c := host.NewConsole(sim)
	sc := bufio.NewScanner(os.Stdin)
	for sc.Scan() {
		line := sc.Text()
		sim.Core.Raise(func() {
			reply, err := c.Exec(line)
			switch {
			case err != nil:
				println("[console]", err.Error())
			case reply != "":
				println("[console]", reply)
			}
		})
	}
}

func report(sim *host.Sim, b *board.Board, wall time.Duration) {
	println("[sim] wall", wall.String(), "periods", b.Timer.Ticks(), "messages", len(sim.Radio.Messages()))
	println("[sim] loop sleeps", b.Loop.Sleeps(), "interrupts", sim.Core.Served())
	for m := sleep.EM0; m < sleep.NumModes; m++ {
		if n := sim.Core.Entered(m); n > 0 {
			println("[sim] slept in", m.String(), n)
		}
	}
}
