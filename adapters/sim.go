package adapters

import (
	"math"
	"sync"
	"time"

	"mqtt-relay-bridge/application"
)

// SimLine is an in-memory output line for running without GPIO hardware.
type SimLine struct {
	level  application.Level
	closed bool
	mu     sync.Mutex
}

func NewSimLine(level application.Level) *SimLine {
	return &SimLine{level: level}
}

func (s *SimLine) SetLevel(level application.Level) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrLineClosed
	}
	s.level = level
	return nil
}

func (s *SimLine) Level() application.Level {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.level
}

func (s *SimLine) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return nil
}

// SimSensor produces a slow sine wave around typical indoor values.
type SimSensor struct {
	start   time.Time
	nowFunc func() time.Time
	ready   bool
}

func NewSimSensor() *SimSensor {
	return &SimSensor{start: time.Now(), nowFunc: time.Now}
}

func (s *SimSensor) Init(address int) error {
	s.ready = true
	return nil
}

func (s *SimSensor) ReadTemperature() (float32, error) {
	if !s.ready {
		return 0, ErrSensorNotInitialized
	}
	return float32(21 + 2*s.wave()), nil
}

func (s *SimSensor) ReadHumidity() (float32, error) {
	if !s.ready {
		return 0, ErrSensorNotInitialized
	}
	return float32(45 - 5*s.wave()), nil
}

func (s *SimSensor) ReadPressure() (int, error) {
	if !s.ready {
		return 0, ErrSensorNotInitialized
	}
	return int(101325 + 150*s.wave()), nil
}

func (s *SimSensor) wave() float64 {
	elapsed := s.nowFunc().Sub(s.start)
	return math.Sin(2 * math.Pi * elapsed.Minutes() / 10)
}

var (
	_ application.OutputLine = &SimLine{}
	_ application.Sensor     = &SimSensor{}
)
