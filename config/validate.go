package config

import (
	"beaconcode-go/errcode"
	"beaconcode-go/sleep"
)

const op = "config.validate"

func invalid(msg string) error { return errcode.New(op, errcode.InvalidParams, msg) }

// Validate checks configuration correctness.
// It performs declarative validation only; zero values are accepted where
// Normalize supplies a default. It never mutates cfg.
func Validate(cfg *Board) error {
	if cfg == nil {
		return invalid("nil board")
	}

	// ---- sleep ----
	if cfg.Sleep.Deepest != 0 && !sleep.Mode(cfg.Sleep.Deepest).Valid() {
		return invalid("sleep.deepest: not an energy mode")
	}
	if cfg.Sleep.Ceiling < 0 || cfg.Sleep.Ceiling > 255 {
		return invalid("sleep.ceiling: out of range")
	}
	if !sleep.Mode(cfg.Sleep.SystemBlock).Valid() {
		return invalid("sleep.system_block: not an energy mode")
	}

	// ---- buses ----
	for _, b := range [...]struct {
		name string
		m    uint8
	}{
		{"buses.i2c_block", cfg.Buses.I2CBlock},
		{"buses.spi_block", cfg.Buses.SPIBlock},
		{"buses.leuart_block", cfg.Buses.LEUARTBlock},
		{"timer.block", cfg.Timer.Block},
	} {
		if !sleep.Mode(b.m).Valid() {
			return invalid(b.name + ": not an energy mode")
		}
	}

	// ---- timer ----
	if cfg.Timer.PeriodMs < 0 || cfg.Timer.ActiveMs < 0 {
		return invalid("timer: negative duration")
	}
	if cfg.Timer.PeriodMs > 0 && cfg.Timer.ActiveMs > cfg.Timer.PeriodMs {
		return invalid("timer.active_ms: exceeds period")
	}

	// ---- light ----
	if cfg.Light.Address > 0x7F {
		return invalid("light.address: exceeds 7 bits")
	}

	// ---- ble ----
	if len(cfg.BLE.Name) > 12 {
		return invalid("ble.name: longer than 12 characters")
	}
	for i := 0; i < len(cfg.BLE.Name); i++ {
		if c := cfg.BLE.Name[i]; c <= ' ' || c > 0x7E {
			return invalid("ble.name: printable ASCII only")
		}
	}
	if cfg.BLE.SelfTest && cfg.BLE.Name == "" {
		return invalid("ble.self_test: requires a name")
	}
	if n := cfg.BLE.RxRing; n < 0 || (n != 0 && (n < 2 || n&(n-1) != 0)) {
		return invalid("ble.rx_ring: must be a power of two")
	}
	if cfg.BLE.SelfTestTimeout < 0 {
		return invalid("ble.self_test_timeout_ms: negative")
	}
	return nil
}
