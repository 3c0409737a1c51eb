package application

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultTelemetryInterval  = 5000 * time.Millisecond
	DefaultLoopInterval       = 50 * time.Millisecond
	DefaultTimeSyncRetryDelay = time.Second
	DefaultReportInterval     = 30 * time.Second
)

type BridgeService interface {
	Run(ctx context.Context) error
}

type BridgeServiceParams struct {
	MQTTClient   MQTTClient
	TimeSync     TimeSync
	Sensor       Sensor
	ActuatorBank *ActuatorBank

	ClientID   string
	DeviceName string
	Topics     Topics

	TelemetryInterval  time.Duration
	LoopInterval       time.Duration
	ReconnectDelay     time.Duration
	TimeSyncRetryDelay time.Duration
	ReportInterval     time.Duration
	PayloadCapacity    int

	// Now and Sleep are replaced in tests.
	Now   func() time.Time
	Sleep func(ctx context.Context, d time.Duration) error

	Log zerolog.Logger
}

func (p *BridgeServiceParams) EnsureDefaults() {
	if p.TelemetryInterval == 0 {
		p.TelemetryInterval = DefaultTelemetryInterval
	}
	if p.LoopInterval == 0 {
		p.LoopInterval = DefaultLoopInterval
	}
	if p.ReconnectDelay == 0 {
		p.ReconnectDelay = DefaultReconnectDelay
	}
	if p.TimeSyncRetryDelay == 0 {
		p.TimeSyncRetryDelay = DefaultTimeSyncRetryDelay
	}
	if p.ReportInterval == 0 {
		p.ReportInterval = DefaultReportInterval
	}
	if p.PayloadCapacity == 0 {
		p.PayloadCapacity = DefaultPayloadCapacity
	}
	if p.Now == nil {
		p.Now = time.Now
	}
	if p.Sleep == nil {
		p.Sleep = SleepContext
	}
}

type bridgeService struct {
	params BridgeServiceParams

	telemetry  *TelemetryReader
	publisher  *StatusPublisher
	dispatcher *CommandDispatcher
	supervisor *ConnectionSupervisor

	lastPublish time.Time
	counter     uint64

	log zerolog.Logger
}

func NewBridgeService(params BridgeServiceParams) (BridgeService, error) {
	return newBridgeService(params)
}

func newBridgeService(params BridgeServiceParams) (*bridgeService, error) {
	if params.MQTTClient == nil {
		return nil, fmt.Errorf("MQTTClient is nil")
	}
	if params.TimeSync == nil {
		return nil, fmt.Errorf("TimeSync is nil")
	}
	if params.ActuatorBank == nil {
		return nil, fmt.Errorf("ActuatorBank is nil")
	}
	params.EnsureDefaults()

	telemetry, err := NewTelemetryReader(params.Sensor)
	if err != nil {
		return nil, err
	}

	publisher, err := NewStatusPublisher(StatusPublisherParams{
		MQTTClient:      params.MQTTClient,
		TimeSync:        params.TimeSync,
		DeviceName:      params.DeviceName,
		Topics:          params.Topics,
		PayloadCapacity: params.PayloadCapacity,
		Log:             params.Log.With().Str("module", "status-publisher").Logger(),
	})
	if err != nil {
		return nil, err
	}

	dispatcher, err := NewCommandDispatcher(CommandDispatcherParams{
		ActuatorBank:    params.ActuatorBank,
		StatusPublisher: publisher,
		CommandTopic:    params.Topics.Command(),
		Log:             params.Log.With().Str("module", "dispatcher").Logger(),
	})
	if err != nil {
		return nil, err
	}

	supervisor, err := NewConnectionSupervisor(ConnectionSupervisorParams{
		MQTTClient:      params.MQTTClient,
		StatusPublisher: publisher,
		CommandTopic:    params.Topics.Command(),
		ActuatorIDs:     params.ActuatorBank.IDs(),
		Retry:           RetryPolicy{Delay: params.ReconnectDelay, Sleep: params.Sleep},
		Log:             params.Log.With().Str("module", "supervisor").Logger(),
	})
	if err != nil {
		return nil, err
	}

	params.MQTTClient.OnMessage(dispatcher.HandleMessage)

	return &bridgeService{
		params:      params,
		telemetry:   telemetry,
		publisher:   publisher,
		dispatcher:  dispatcher,
		supervisor:  supervisor,
		lastPublish: params.Now(),
		log:         params.Log,
	}, nil
}

func (b *bridgeService) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g := errgroup.Group{}

	// control loop
	g.Go(func() error {
		defer cancel()

		b.log.Info().Dur("telemetry_interval", b.params.TelemetryInterval).Msg("control loop started")
		defer b.log.Info().Msg("control loop stopped")

		for {
			if err := b.Tick(ctx); err != nil {
				if ctx.Err() != nil {
					return nil
				}
				return err
			}

			if err := b.params.Sleep(ctx, b.params.LoopInterval); err != nil {
				return nil
			}
		}
	})

	// mqtt publish reporter
	lastStatus := b.params.MQTTClient.Status()
	g.Go(func() error {
		ticker := time.NewTicker(b.params.ReportInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
				newStatus := b.params.MQTTClient.Status()
				b.log.Info().
					Uint64("published", newStatus.MessageCount-lastStatus.MessageCount).
					Bool("is_connected", newStatus.Connected).
					Time("last_time_published", newStatus.LastTimePublished).
					Msg("publish report")
				lastStatus = newStatus
			}
		}
	})

	return g.Wait()
}

// Tick runs one iteration of the control loop.
func (b *bridgeService) Tick(ctx context.Context) error {
	if err := b.syncTime(ctx); err != nil {
		return err
	}

	if err := b.supervisor.EnsureConnected(ctx); err != nil {
		return err
	}

	b.params.MQTTClient.Poll()

	now := b.params.Now()
	if now.Sub(b.lastPublish) >= b.params.TelemetryInterval {
		b.lastPublish = now
		b.publishTelemetry()
	}
	return nil
}

func (b *bridgeService) syncTime(ctx context.Context) error {
	retry := RetryPolicy{Delay: b.params.TimeSyncRetryDelay, Sleep: b.params.Sleep}

	return retry.Do(ctx, func(int) error {
		if err := b.params.TimeSync.Update(); err == nil {
			return nil
		}
		return b.params.TimeSync.ForceUpdate()
	}, func(attempt int, err error) {
		b.log.Warn().Err(err).Int("attempt", attempt).Msg("time sync failed")
	})
}

func (b *bridgeService) publishTelemetry() {
	topic := b.params.Topics.Telemetry()

	if !b.params.MQTTClient.IsConnected() {
		b.log.Warn().Str("topic", topic).Msg("not connected, telemetry skipped")
		return
	}

	reading, err := b.telemetry.Read()
	if err != nil {
		b.log.Error().Err(err).Msg("failed to read sensor")
		return
	}

	record := TelemetryRecord{
		ClientID:    b.params.ClientID,
		DeviceName:  b.params.DeviceName,
		Time:        b.params.TimeSync.Now().Unix(),
		Temperature: reading.Temperature,
		Humidity:    reading.Humidity,
		Pressure:    reading.Pressure,
		Interval:    b.params.TelemetryInterval.Milliseconds(),
		Counter:     b.counter + 1,
	}

	payload, err := Encode(record, b.params.PayloadCapacity)
	if err != nil {
		b.log.Error().Err(err).Msg("failed to encode telemetry")
		return
	}

	if err := b.params.MQTTClient.Publish(topic, 0, false, payload); err != nil {
		b.log.Error().Err(err).Str("topic", topic).Msg("failed to publish telemetry")
		return
	}
	b.counter = record.Counter

	b.log.Info().
		Uint64("counter", record.Counter).
		Float32("temperature", record.Temperature).
		Float32("humidity", record.Humidity).
		Int("pressure", record.Pressure).
		Msg("telemetry published")
}
