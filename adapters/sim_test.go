package adapters

import (
	"testing"
	"time"

	"mqtt-relay-bridge/application"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSimLine(t *testing.T) {
	line := NewSimLine(application.LevelHigh)
	assert.Equal(t, application.LevelHigh, line.Level())

	require.NoError(t, line.SetLevel(application.LevelLow))
	assert.Equal(t, application.LevelLow, line.Level())

	require.NoError(t, line.Close())
	require.ErrorIs(t, line.SetLevel(application.LevelHigh), ErrLineClosed)
}

func TestSimSensor(t *testing.T) {
	sensor := NewSimSensor()

	_, err := sensor.ReadTemperature()
	require.ErrorIs(t, err, ErrSensorNotInitialized)

	require.NoError(t, sensor.Init(BME280DefaultAddress))

	now := sensor.start.Add(150 * time.Second)
	sensor.nowFunc = func() time.Time { return now }

	temperature, err := sensor.ReadTemperature()
	require.NoError(t, err)
	assert.InDelta(t, 23, temperature, 0.01)

	humidity, err := sensor.ReadHumidity()
	require.NoError(t, err)
	assert.InDelta(t, 40, humidity, 0.01)

	pressure, err := sensor.ReadPressure()
	require.NoError(t, err)
	assert.InDelta(t, 101475, pressure, 1)
}

func TestSimHardware_Bank(t *testing.T) {
	lines := map[application.ActuatorID]application.OutputLine{}
	sims := map[application.ActuatorID]*SimLine{}
	for id := application.ActuatorID(0); id < 4; id++ {
		sims[id] = NewSimLine(application.LevelLow)
		lines[id] = sims[id]
	}

	bank, err := application.NewActuatorBank(lines)
	require.NoError(t, err)
	require.NoError(t, bank.Reset())

	for _, line := range sims {
		assert.Equal(t, application.LevelHigh, line.Level())
	}

	require.NoError(t, bank.Set(2, application.StateOn))
	assert.Equal(t, application.LevelLow, sims[2].Level())
}
