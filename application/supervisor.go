package application

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

const DefaultReconnectDelay = 5 * time.Second

type ConnectionState int

const (
	Disconnected ConnectionState = iota
	Connected
)

func (s ConnectionState) String() string {
	if s == Connected {
		return "connected"
	}
	return "disconnected"
}

type ConnectionSupervisorParams struct {
	MQTTClient      MQTTClient
	StatusPublisher StatusSink

	CommandTopic string
	ActuatorIDs  []ActuatorID
	// Retry defaults to a DefaultReconnectDelay fixed delay.
	Retry RetryPolicy

	Log zerolog.Logger
}

type ConnectionSupervisor struct {
	params ConnectionSupervisorParams

	log zerolog.Logger
}

func NewConnectionSupervisor(params ConnectionSupervisorParams) (*ConnectionSupervisor, error) {
	if params.MQTTClient == nil {
		return nil, fmt.Errorf("MQTTClient is nil")
	}
	if params.StatusPublisher == nil {
		return nil, fmt.Errorf("StatusPublisher is nil")
	}
	if params.CommandTopic == "" {
		return nil, fmt.Errorf("CommandTopic is empty")
	}
	if params.Retry.Delay == 0 {
		params.Retry.Delay = DefaultReconnectDelay
	}
	return &ConnectionSupervisor{params: params, log: params.Log}, nil
}

func (s *ConnectionSupervisor) State() ConnectionState {
	if s.params.MQTTClient.IsConnected() {
		return Connected
	}
	return Disconnected
}

// EnsureConnected blocks until the transport is connected. After every
// successful connect it subscribes to the command topic and reports all
// actuators as off.
func (s *ConnectionSupervisor) EnsureConnected(ctx context.Context) error {
	if s.State() == Connected {
		return nil
	}

	return s.params.Retry.Do(ctx, func(attempt int) error {
		s.log.Info().Int("attempt", attempt).Msg("attempting mqtt connection")

		if err := s.params.MQTTClient.Connect(); err != nil {
			return err
		}
		s.onConnected()
		return nil
	}, func(attempt int, err error) {
		s.log.Error().Err(err).
			Int("rc", s.params.MQTTClient.LastErrorCode()).
			Msgf("failed, try again in %s", s.params.Retry.Delay)
	})
}

func (s *ConnectionSupervisor) onConnected() {
	s.log.Info().Msg("connected")

	if err := s.params.MQTTClient.Subscribe(s.params.CommandTopic, 0); err != nil {
		s.log.Error().Err(err).Str("topic", s.params.CommandTopic).Msg("failed to subscribe")
	} else {
		s.log.Info().Str("topic", s.params.CommandTopic).Msg("subscribed to command topic")
	}

	for _, id := range s.params.ActuatorIDs {
		s.params.StatusPublisher.PublishStatus(id, StateOff)
	}
}
