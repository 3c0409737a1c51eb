package application

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/sourcegraph/conc/panics"
)

type Command struct {
	ActuatorID ActuatorID
	State      ActuatorState
}

// CommandTable maps the exact inbound payload to the command it names.
type CommandTable map[string]Command

// NewCommandTable builds the "relay N on" / "relay N off" vocabulary.
func NewCommandTable(ids []ActuatorID) CommandTable {
	table := make(CommandTable, len(ids)*2)
	for _, id := range ids {
		table[fmt.Sprintf("relay %d on", id)] = Command{ActuatorID: id, State: StateOn}
		table[fmt.Sprintf("relay %d off", id)] = Command{ActuatorID: id, State: StateOff}
	}
	return table
}

func (t CommandTable) Lookup(payload string) (Command, bool) {
	cmd, ok := t[payload]
	return cmd, ok
}

type StatusSink interface {
	PublishStatus(id ActuatorID, state ActuatorState)
}

type CommandDispatcherParams struct {
	ActuatorBank    *ActuatorBank
	StatusPublisher StatusSink

	CommandTopic string
	// Commands defaults to the vocabulary of every actuator in ActuatorBank.
	Commands CommandTable

	Log zerolog.Logger
}

type CommandDispatcher struct {
	params CommandDispatcherParams

	log zerolog.Logger
}

func NewCommandDispatcher(params CommandDispatcherParams) (*CommandDispatcher, error) {
	if params.ActuatorBank == nil {
		return nil, fmt.Errorf("ActuatorBank is nil")
	}
	if params.StatusPublisher == nil {
		return nil, fmt.Errorf("StatusPublisher is nil")
	}
	if params.CommandTopic == "" {
		return nil, fmt.Errorf("CommandTopic is empty")
	}
	if params.Commands == nil {
		params.Commands = NewCommandTable(params.ActuatorBank.IDs())
	}
	return &CommandDispatcher{params: params, log: params.Log}, nil
}

// Dispatch applies the command carried by payload. Messages on other topics
// and unknown payloads change nothing.
func (d *CommandDispatcher) Dispatch(topic string, payload []byte) {
	d.log.Debug().Str("topic", topic).Str("payload", string(payload)).Msg("message arrived")

	if topic != d.params.CommandTopic {
		return
	}

	cmd, ok := d.params.Commands.Lookup(string(payload))
	if !ok {
		d.log.Warn().Str("payload", string(payload)).Msg("no command recognized")
		return
	}

	if err := d.params.ActuatorBank.Set(cmd.ActuatorID, cmd.State); err != nil {
		d.log.Error().Err(err).Int("relay_id", int(cmd.ActuatorID)).Msg("failed to switch relay")
		return
	}

	d.params.StatusPublisher.PublishStatus(cmd.ActuatorID, cmd.State)

	d.log.Info().Int("relay_id", int(cmd.ActuatorID)).Stringer("state", cmd.State).Msg("relay switched")
}

// HandleMessage is the MQTTClient.OnMessage callback. A panicking dispatch is
// logged instead of taking down the control loop.
func (d *CommandDispatcher) HandleMessage(msg MQTTMessage) {
	var pc panics.Catcher
	pc.Try(func() {
		d.Dispatch(msg.Topic(), msg.Payload())
	})

	if r := pc.Recovered(); r != nil {
		d.log.Error().Err(r.AsError()).Str("topic", msg.Topic()).Msg("command handler panic recovered")
	}
}
