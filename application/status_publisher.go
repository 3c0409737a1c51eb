package application

import (
	"fmt"

	"github.com/rs/zerolog"
)

type StatusPublisherParams struct {
	MQTTClient MQTTClient
	TimeSync   TimeSync

	DeviceName string
	Topics     Topics
	// PayloadCapacity defaults to DefaultPayloadCapacity.
	PayloadCapacity int

	Log zerolog.Logger
}

type StatusPublisher struct {
	params StatusPublisherParams

	log zerolog.Logger
}

func NewStatusPublisher(params StatusPublisherParams) (*StatusPublisher, error) {
	if params.MQTTClient == nil {
		return nil, fmt.Errorf("MQTTClient is nil")
	}
	if params.TimeSync == nil {
		return nil, fmt.Errorf("TimeSync is nil")
	}
	if params.PayloadCapacity == 0 {
		params.PayloadCapacity = DefaultPayloadCapacity
	}
	return &StatusPublisher{params: params, log: params.Log}, nil
}

// PublishStatus reports the state of one actuator on its status topic.
// Failures are logged and dropped.
func (p *StatusPublisher) PublishStatus(id ActuatorID, state ActuatorState) {
	topic := p.params.Topics.RelayStatus(id)

	if !p.params.MQTTClient.IsConnected() {
		p.log.Warn().Str("topic", topic).Msg("not connected, status dropped")
		return
	}

	payload, err := Encode(StatusRecord{
		DeviceName: p.params.DeviceName,
		Time:       p.params.TimeSync.Now().Unix(),
		RelayID:    id,
		Status:     state.Flag(),
	}, p.params.PayloadCapacity)
	if err != nil {
		p.log.Error().Err(err).Int("relay_id", int(id)).Msg("failed to encode relay status")
		return
	}

	if err := p.params.MQTTClient.Publish(topic, 0, false, payload); err != nil {
		p.log.Error().Err(err).Str("topic", topic).Msg("failed to publish relay status")
		return
	}

	p.log.Debug().Str("topic", topic).Str("status", state.Flag()).Msg("relay status published")
}
