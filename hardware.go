package main

import (
	"fmt"

	"mqtt-relay-bridge/adapters"
	"mqtt-relay-bridge/application"
	"mqtt-relay-bridge/config"

	"github.com/rs/zerolog"
)

type hardware struct {
	Sensor application.Sensor
	Bank   *application.ActuatorBank

	closers []func() error
	log     zerolog.Logger
}

// openHardware initializes the sensor and claims the relay lines with every
// relay switched off. A sensor that fails to initialize is fatal.
func openHardware(cfg config.Config, log zerolog.Logger) (*hardware, error) {
	hw := &hardware{log: log}

	var sensor application.Sensor
	switch cfg.Hardware {
	case config.HardwareSim:
		sensor = adapters.NewSimSensor()
	default:
		bme := adapters.NewBME280Sensor(cfg.Sensor.Bus)
		hw.closers = append(hw.closers, bme.Close)
		sensor = bme
	}

	if err := sensor.Init(cfg.Sensor.Address); err != nil {
		hw.Close()
		return nil, fmt.Errorf("could not find a BME280 sensor, check wiring: %w", err)
	}
	hw.Sensor = sensor

	lines := make(map[application.ActuatorID]application.OutputLine, len(cfg.Relays))
	for _, r := range cfg.Relays {
		var line application.OutputLine
		switch cfg.Hardware {
		case config.HardwareSim:
			line = adapters.NewSimLine(application.LevelHigh)
		default:
			gpioLine, err := adapters.OpenGPIOLine(cfg.GPIO.Chip, r.Line,
				fmt.Sprintf("relay-%02d", r.ID), application.LevelHigh)
			if err != nil {
				for _, l := range lines {
					l.Close()
				}
				hw.Close()
				return nil, err
			}
			line = gpioLine
		}
		lines[application.ActuatorID(r.ID)] = line
	}

	bank, err := application.NewActuatorBank(lines)
	if err != nil {
		hw.Close()
		return nil, err
	}
	hw.closers = append(hw.closers, bank.Close)

	if err := bank.Reset(); err != nil {
		hw.Close()
		return nil, err
	}
	hw.Bank = bank

	log.Info().Str("hardware", cfg.Hardware).Int("relays", len(lines)).Msg("hardware ready")
	return hw, nil
}

func (h *hardware) Close() {
	for i := len(h.closers) - 1; i >= 0; i-- {
		if err := h.closers[i](); err != nil {
			h.log.Warn().Err(err).Msg("failed to release hardware")
		}
	}
	h.closers = nil
}
