//go:build rp2040

// Command beacon is the firmware image for a Pico carrying the Si1133,
// ICM-20648 and HM-10.
package main

import (
	"context"
	"time"

	"beaconcode-go/board"
	"beaconcode-go/config"
	"beaconcode-go/errcode"
	"beaconcode-go/platform/rp2"
)

func main() {
	// Allow USB CDC to enumerate before we print.
	time.Sleep(2 * time.Second)
	println("[main] boot")

	// A fault parks the core with the reason on the console.
	errcode.SetHalt(func(e *errcode.E) {
		for {
			println("[main] halted:", e.Error())
			time.Sleep(5 * time.Second)
		}
	})

	cfg := config.Default()
	if err := config.Validate(&cfg); err != nil {
		errcode.Fatal("main", errcode.Of(err), err.Error())
	}
	config.Normalize(&cfg)

	ctx := context.Background()
	pico := rp2.New(ctx, cfg)
	b, err := board.New(ctx, cfg, pico.Hardware())
	if err != nil {
		errcode.Fatal("main", errcode.Of(err), err.Error())
	}
	_ = b.Run(ctx)
}
