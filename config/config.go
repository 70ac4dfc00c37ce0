// Package config holds the board's build-time knobs.
//
// Firmware builds use Default(). Host builds may load YAML with Load; either
// way the result goes through Validate (declarative, never mutates) and then
// Normalize (fills defaults).
package config

import (
	"time"

	"beaconcode-go/sleep"
)

type Board struct {
	Sleep    SleepConfig    `yaml:"sleep"`
	Buses    BusConfig      `yaml:"buses"`
	Timer    TimerConfig    `yaml:"timer"`
	Light    LightConfig    `yaml:"light"`
	BLE      BLEConfig      `yaml:"ble"`
	Watchdog WatchdogConfig `yaml:"watchdog"`
}

// ---- SLEEP ----

type SleepConfig struct {
	Deepest     uint8 `yaml:"deepest"`      // mode entered when nothing is blocked
	Ceiling     int   `yaml:"ceiling"`      // per-mode block count that signals a pairing bug
	SystemBlock uint8 `yaml:"system_block"` // held for the life of the firmware; 0 = none
}

// ---- BUSES ----

// BusConfig is the energy mode each bus blocks while a transfer is in flight.
type BusConfig struct {
	I2CBlock    uint8 `yaml:"i2c_block"`
	SPIBlock    uint8 `yaml:"spi_block"`
	LEUARTBlock uint8 `yaml:"leuart_block"`
}

// ---- TIMER ----

type TimerConfig struct {
	PeriodMs int    `yaml:"period_ms"`
	ActiveMs int    `yaml:"active_ms"`
	Hz       uint32 `yaml:"hz"`
	Block    uint8  `yaml:"block"`
}

// ---- SENSORS / RADIO ----

type LightConfig struct {
	Address   uint8 `yaml:"address"`
	Threshold uint8 `yaml:"threshold"`
}

type BLEConfig struct {
	Name            string `yaml:"name"`
	SelfTest        bool   `yaml:"self_test"`
	SelfTestTimeout int    `yaml:"self_test_timeout_ms"`
	RxRing          int    `yaml:"rx_ring"` // bytes, power of two
}

// ---- WATCHDOG ----

type WatchdogConfig struct {
	LimitTicks uint32 `yaml:"limit_ticks"` // timer periods; 0 disables
}

// Default returns the reference board.
func Default() Board {
	return Board{
		Sleep: SleepConfig{
			Deepest:     uint8(sleep.EM3),
			Ceiling:     sleep.DefaultCeiling,
			SystemBlock: uint8(sleep.EM3),
		},
		Buses: BusConfig{
			I2CBlock:    uint8(sleep.EM2),
			SPIBlock:    uint8(sleep.EM2),
			LEUARTBlock: uint8(sleep.EM3),
		},
		Timer: TimerConfig{
			PeriodMs: 2000,
			ActiveMs: 2,
			Hz:       1000,
			Block:    uint8(sleep.EM4),
		},
		Light: LightConfig{
			Address:   0x55,
			Threshold: 20,
		},
		BLE: BLEConfig{
			Name:            "Beacon",
			SelfTestTimeout: 2000,
			RxRing:          64,
		},
		Watchdog: WatchdogConfig{LimitTicks: 2},
	}
}

func (t TimerConfig) Period() time.Duration { return time.Duration(t.PeriodMs) * time.Millisecond }
func (t TimerConfig) Active() time.Duration { return time.Duration(t.ActiveMs) * time.Millisecond }

func (b BLEConfig) Timeout() time.Duration {
	return time.Duration(b.SelfTestTimeout) * time.Millisecond
}
