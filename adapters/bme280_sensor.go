package adapters

import (
	"fmt"

	"mqtt-relay-bridge/application"

	"gobot.io/x/gobot/v2/drivers/i2c"
	"gobot.io/x/gobot/v2/platforms/raspi"
)

const BME280DefaultAddress = 0x76

// BME280Sensor reads a BME280 on the Raspberry Pi I2C bus.
type BME280Sensor struct {
	bus int

	adaptor *raspi.Adaptor
	driver  *i2c.BME280Driver
}

func NewBME280Sensor(bus int) *BME280Sensor {
	return &BME280Sensor{bus: bus, adaptor: raspi.NewAdaptor()}
}

func (s *BME280Sensor) Init(address int) error {
	if err := s.adaptor.Connect(); err != nil {
		return fmt.Errorf("connect raspi adaptor: %w", err)
	}

	s.driver = i2c.NewBME280Driver(s.adaptor, i2c.WithBus(s.bus), i2c.WithAddress(address))
	if err := s.driver.Start(); err != nil {
		return fmt.Errorf("start bme280 at 0x%02x: %w", address, err)
	}
	return nil
}

func (s *BME280Sensor) ReadTemperature() (float32, error) {
	if s.driver == nil {
		return 0, ErrSensorNotInitialized
	}
	return s.driver.Temperature()
}

func (s *BME280Sensor) ReadHumidity() (float32, error) {
	if s.driver == nil {
		return 0, ErrSensorNotInitialized
	}
	return s.driver.Humidity()
}

// ReadPressure returns the pressure in whole Pascals.
func (s *BME280Sensor) ReadPressure() (int, error) {
	if s.driver == nil {
		return 0, ErrSensorNotInitialized
	}
	p, err := s.driver.Pressure()
	if err != nil {
		return 0, err
	}
	return int(p), nil
}

func (s *BME280Sensor) Close() error {
	if s.driver != nil {
		if err := s.driver.Halt(); err != nil {
			return err
		}
	}
	return s.adaptor.Finalize()
}

var _ application.Sensor = &BME280Sensor{}
