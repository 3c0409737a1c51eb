package adapters

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"mqtt-relay-bridge/application"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog"
)

const (
	MQTTDefaultConnectTimeout = 30 * time.Second
	MQTTDefaultPublishTimeout = 5 * time.Second
	MQTTDefaultInboxSize      = 64
	MQTTDefaultQuiesce        = 250 // milliseconds
)

// Connection states reported by LastErrorCode. Positive values are CONNACK
// return codes from the broker.
const (
	MQTTStateConnectionTimeout = -4
	MQTTStateConnectionLost    = -3
	MQTTStateConnectFailed     = -2
	MQTTStateDisconnected      = -1
	MQTTStateConnected         = 0
)

var (
	ErrMQTTNotConnected   = fmt.Errorf("not connected")
	ErrMQTTConnectTimeout = fmt.Errorf("connect timeout")
	ErrMQTTPublishTimeout = fmt.Errorf("publish timeout")
)

type MQTTClientParams struct {
	ClientID string
	Username string
	Password string
	MQTTUrl  string

	ConnectTimeout time.Duration
	PublishTimeout time.Duration
	InboxSize      int

	NewClientFunc func(options *mqtt.ClientOptions) mqtt.Client

	Log zerolog.Logger
}

func (m *MQTTClientParams) EnsureDefaults() {
	if m.ConnectTimeout == 0 {
		m.ConnectTimeout = MQTTDefaultConnectTimeout
	}

	if m.PublishTimeout == 0 {
		m.PublishTimeout = MQTTDefaultPublishTimeout
	}

	if m.InboxSize == 0 {
		m.InboxSize = MQTTDefaultInboxSize
	}

	if m.NewClientFunc == nil {
		m.NewClientFunc = mqtt.NewClient
	}
}

// MQTTClient wraps a paho client. Inbound messages are queued by paho's
// goroutines and handed to the registered handler only from Poll.
type MQTTClient struct {
	params MQTTClientParams

	client mqtt.Client

	connected          uint64
	lastErrorCode      int64
	msgCount           uint64
	msgCountUpdateTime atomic.Pointer[time.Time]

	inbox   chan application.MQTTMessage
	handler func(msg application.MQTTMessage)
	mu      sync.RWMutex

	log zerolog.Logger
}

func NewMQTTClient(params MQTTClientParams) *MQTTClient {
	params.EnsureDefaults()

	m := &MQTTClient{
		params:        params,
		inbox:         make(chan application.MQTTMessage, params.InboxSize),
		lastErrorCode: MQTTStateDisconnected,
		log:           params.Log,
	}
	m.client = m.newMqttClient()

	t := time.Unix(0, 0)
	m.msgCountUpdateTime.Store(&t)

	return m
}

func (m *MQTTClient) Connect() error {
	if atomic.LoadUint64(&m.connected) == 1 {
		return nil
	}

	token := m.client.Connect()
	if !token.WaitTimeout(m.params.ConnectTimeout) {
		atomic.StoreInt64(&m.lastErrorCode, MQTTStateConnectionTimeout)
		return ErrMQTTConnectTimeout
	}

	if err := token.Error(); err != nil {
		code := int64(MQTTStateConnectFailed)
		if ct, ok := token.(*mqtt.ConnectToken); ok && ct.ReturnCode() != 0 {
			code = int64(ct.ReturnCode())
		}
		atomic.StoreInt64(&m.lastErrorCode, code)
		return err
	}

	atomic.StoreInt64(&m.lastErrorCode, MQTTStateConnected)
	atomic.StoreUint64(&m.connected, 1)
	return nil
}

func (m *MQTTClient) Disconnect() {
	m.client.Disconnect(MQTTDefaultQuiesce)
	atomic.StoreUint64(&m.connected, 0)
	atomic.StoreInt64(&m.lastErrorCode, MQTTStateDisconnected)
}

func (m *MQTTClient) IsConnected() bool {
	return atomic.LoadUint64(&m.connected) == 1
}

func (m *MQTTClient) LastErrorCode() int {
	return int(atomic.LoadInt64(&m.lastErrorCode))
}

func (m *MQTTClient) Status() application.MQTTStatus {
	return application.MQTTStatus{
		MessageCount:      atomic.LoadUint64(&m.msgCount),
		LastTimePublished: *m.msgCountUpdateTime.Load(),
		Connected:         m.IsConnected(),
	}
}

func (m *MQTTClient) Publish(topic string, qos byte, retained bool, msg any) error {
	if !m.IsConnected() {
		return ErrMQTTNotConnected
	}

	token := m.client.Publish(topic, qos, retained, msg)
	if !token.WaitTimeout(m.params.PublishTimeout) {
		return ErrMQTTPublishTimeout
	}
	if token.Error() != nil {
		return token.Error()
	}

	t := time.Now()
	m.msgCountUpdateTime.Store(&t)
	atomic.AddUint64(&m.msgCount, 1)
	return nil
}

func (m *MQTTClient) Subscribe(topic string, qos byte) error {
	if !m.IsConnected() {
		return ErrMQTTNotConnected
	}

	token := m.client.Subscribe(topic, qos, m.PublishHandler)
	if token.Wait() && token.Error() != nil {
		return token.Error()
	}
	return nil
}

func (m *MQTTClient) OnMessage(handler func(msg application.MQTTMessage)) {
	m.mu.Lock()
	m.handler = handler
	m.mu.Unlock()
}

func (m *MQTTClient) Poll() int {
	m.mu.RLock()
	handler := m.handler
	m.mu.RUnlock()

	n := 0
	for {
		select {
		case msg := <-m.inbox:
			n++
			if handler != nil {
				handler(msg)
			}
		default:
			return n
		}
	}
}

func (m *MQTTClient) PublishHandler(client mqtt.Client, msg mqtt.Message) {
	select {
	case m.inbox <- msg:
	default:
		m.log.Warn().Str("topic", msg.Topic()).Msg("inbox full, message dropped")
	}
}

func (m *MQTTClient) OnConnect(client mqtt.Client) {
	m.log.Info().Msgf("connected")
	atomic.StoreUint64(&m.connected, 1)
}

func (m *MQTTClient) OnConnectionLost(client mqtt.Client, err error) {
	m.log.Info().Msgf("connect lost: %v", err)
	atomic.StoreUint64(&m.connected, 0)
	atomic.StoreInt64(&m.lastErrorCode, MQTTStateConnectionLost)
}

func (m *MQTTClient) newMqttClient() mqtt.Client {
	opts := mqtt.NewClientOptions()

	opts.AddBroker(m.params.MQTTUrl)
	opts.SetClientID(m.params.ClientID)
	opts.SetUsername(m.params.Username)
	opts.SetPassword(m.params.Password)
	opts.SetCleanSession(true)
	opts.SetConnectTimeout(m.params.ConnectTimeout)

	// reconnects are driven by the connection supervisor
	opts.SetAutoReconnect(false)
	opts.SetConnectRetry(false)

	opts.SetDefaultPublishHandler(m.PublishHandler)
	opts.OnConnect = m.OnConnect
	opts.OnConnectionLost = m.OnConnectionLost

	return m.params.NewClientFunc(opts)
}

var _ application.MQTTClient = &MQTTClient{}
