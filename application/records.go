package application

import (
	"encoding/json"
	"fmt"
)

// DefaultPayloadCapacity is the largest encoded record accepted for publishing.
const DefaultPayloadCapacity = 200

var ErrPayloadTooLarge = fmt.Errorf("payload exceeds capacity")

type StatusRecord struct {
	DeviceName string     `json:"deviceName"`
	Time       int64      `json:"time"`
	RelayID    ActuatorID `json:"relayId"`
	Status     string     `json:"status"`
}

type TelemetryRecord struct {
	ClientID    string  `json:"clientId"`
	DeviceName  string  `json:"deviceName"`
	Time        int64   `json:"time"`
	Temperature float32 `json:"temperature"`
	Humidity    float32 `json:"humidity"`
	Pressure    int     `json:"pressure"`
	Interval    int64   `json:"interval"`
	Counter     uint64  `json:"counter"`
}

// Encode serializes v as JSON and fails instead of truncating when the
// result does not fit in capacity bytes.
func Encode(v any, capacity int) ([]byte, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}

	if capacity > 0 && len(b) > capacity {
		return nil, fmt.Errorf("%w: %d > %d bytes", ErrPayloadTooLarge, len(b), capacity)
	}
	return b, nil
}
