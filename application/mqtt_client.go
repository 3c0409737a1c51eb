package application

import "time"

type MQTTStatus struct {
	MessageCount      uint64
	LastTimePublished time.Time
	Connected         bool
}

type MQTTMessage interface {
	Topic() string
	Payload() []byte
}

type MQTTClient interface {
	Publish(topic string, qos byte, retained bool, msg any) error
	Subscribe(topic string, qos byte) error

	// OnMessage registers the handler run by Poll for every inbound message.
	OnMessage(handler func(msg MQTTMessage))
	// Poll runs the registered handler for messages received since the last
	// call, on the calling goroutine.
	Poll() int

	Connect() error
	Disconnect()
	IsConnected() bool
	LastErrorCode() int
	Status() MQTTStatus
}
