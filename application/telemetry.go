package application

import "fmt"

type Sensor interface {
	Init(address int) error
	ReadTemperature() (float32, error)
	ReadHumidity() (float32, error)
	ReadPressure() (int, error)
}

// Reading holds one sensor poll. Temperature is in Celsius, humidity in
// %RH and pressure in Pascals.
type Reading struct {
	Temperature float32
	Humidity    float32
	Pressure    int
}

type TelemetryReader struct {
	sensor Sensor
}

func NewTelemetryReader(sensor Sensor) (*TelemetryReader, error) {
	if sensor == nil {
		return nil, fmt.Errorf("Sensor is nil")
	}
	return &TelemetryReader{sensor: sensor}, nil
}

func (r *TelemetryReader) Read() (Reading, error) {
	temperature, err := r.sensor.ReadTemperature()
	if err != nil {
		return Reading{}, fmt.Errorf("read temperature: %w", err)
	}

	humidity, err := r.sensor.ReadHumidity()
	if err != nil {
		return Reading{}, fmt.Errorf("read humidity: %w", err)
	}

	pressure, err := r.sensor.ReadPressure()
	if err != nil {
		return Reading{}, fmt.Errorf("read pressure: %w", err)
	}

	return Reading{Temperature: temperature, Humidity: humidity, Pressure: pressure}, nil
}
