package config

import "beaconcode-go/x/mathx"

// Normalize applies post-validation defaults.
// It MUST be called only after Validate().
func Normalize(cfg *Board) {
	if cfg == nil {
		return
	}
	def := Default()

	if cfg.Sleep.Deepest == 0 {
		cfg.Sleep.Deepest = def.Sleep.Deepest
	}
	if cfg.Sleep.Ceiling == 0 {
		cfg.Sleep.Ceiling = def.Sleep.Ceiling
	}
	cfg.Sleep.Ceiling = mathx.Clamp(cfg.Sleep.Ceiling, 2, 255)

	// An EM1 block targets EM0, so unset buses take the reference blocks.
	if cfg.Buses.I2CBlock == 0 {
		cfg.Buses.I2CBlock = def.Buses.I2CBlock
	}
	if cfg.Buses.SPIBlock == 0 {
		cfg.Buses.SPIBlock = def.Buses.SPIBlock
	}
	if cfg.Buses.LEUARTBlock == 0 {
		cfg.Buses.LEUARTBlock = def.Buses.LEUARTBlock
	}
	if cfg.Timer.Block == 0 {
		cfg.Timer.Block = def.Timer.Block
	}

	if cfg.Timer.PeriodMs == 0 {
		cfg.Timer.PeriodMs = def.Timer.PeriodMs
		cfg.Timer.ActiveMs = mathx.Min(cfg.Timer.ActiveMs, cfg.Timer.PeriodMs)
	}
	if cfg.Timer.Hz == 0 {
		cfg.Timer.Hz = def.Timer.Hz
	}

	if cfg.Light.Address == 0 {
		cfg.Light.Address = def.Light.Address
	}
	if cfg.Light.Threshold == 0 {
		cfg.Light.Threshold = def.Light.Threshold
	}

	if cfg.BLE.Name == "" {
		cfg.BLE.Name = def.BLE.Name
	}
	if cfg.BLE.SelfTestTimeout == 0 {
		cfg.BLE.SelfTestTimeout = def.BLE.SelfTestTimeout
	}
	if cfg.BLE.RxRing == 0 {
		cfg.BLE.RxRing = def.BLE.RxRing
	}
}
