package application

import (
	"context"
	"fmt"
	"time"

	"github.com/stretchr/testify/mock"
)

type MockMQTTClient struct {
	mock.Mock

	handler func(msg MQTTMessage)
}

func (m *MockMQTTClient) Publish(topic string, qos byte, retained bool, msg any) error {
	return m.Called(topic, qos, retained, msg).Error(0)
}

func (m *MockMQTTClient) Subscribe(topic string, qos byte) error {
	return m.Called(topic, qos).Error(0)
}

func (m *MockMQTTClient) OnMessage(handler func(msg MQTTMessage)) {
	m.handler = handler
}

func (m *MockMQTTClient) Poll() int {
	return m.Called().Int(0)
}

func (m *MockMQTTClient) Connect() error {
	return m.Called().Error(0)
}

func (m *MockMQTTClient) Disconnect() {
	m.Called()
}

func (m *MockMQTTClient) IsConnected() bool {
	return m.Called().Bool(0)
}

func (m *MockMQTTClient) LastErrorCode() int {
	return m.Called().Int(0)
}

func (m *MockMQTTClient) Status() MQTTStatus {
	return m.Called().Get(0).(MQTTStatus)
}

var _ MQTTClient = &MockMQTTClient{}

type published struct {
	topic   string
	payload []byte
}

type testMessage struct {
	topic   string
	payload []byte
}

func (m testMessage) Topic() string   { return m.topic }
func (m testMessage) Payload() []byte { return m.payload }

// fakeMQTTClient behaves like a broker connection that can be dropped.
type fakeMQTTClient struct {
	connected   bool
	connectErrs []error
	connects    int

	published  []published
	subscribed []string
	// violations counts publish or subscribe calls made while disconnected.
	violations int

	handler func(msg MQTTMessage)
	inbox   []MQTTMessage
}

func (f *fakeMQTTClient) Publish(topic string, qos byte, retained bool, msg any) error {
	if !f.connected {
		f.violations++
		return fmt.Errorf("not connected")
	}
	f.published = append(f.published, published{topic: topic, payload: msg.([]byte)})
	return nil
}

func (f *fakeMQTTClient) Subscribe(topic string, qos byte) error {
	if !f.connected {
		f.violations++
		return fmt.Errorf("not connected")
	}
	f.subscribed = append(f.subscribed, topic)
	return nil
}

func (f *fakeMQTTClient) OnMessage(handler func(msg MQTTMessage)) {
	f.handler = handler
}

func (f *fakeMQTTClient) Poll() int {
	inbox := f.inbox
	f.inbox = nil
	for _, msg := range inbox {
		f.handler(msg)
	}
	return len(inbox)
}

func (f *fakeMQTTClient) Connect() error {
	f.connects++
	if len(f.connectErrs) > 0 {
		err := f.connectErrs[0]
		f.connectErrs = f.connectErrs[1:]
		if err != nil {
			return err
		}
	}
	f.connected = true
	return nil
}

func (f *fakeMQTTClient) Disconnect() {
	f.connected = false
}

func (f *fakeMQTTClient) IsConnected() bool {
	return f.connected
}

func (f *fakeMQTTClient) LastErrorCode() int {
	if f.connected {
		return 0
	}
	return -2
}

func (f *fakeMQTTClient) Status() MQTTStatus {
	return MQTTStatus{MessageCount: uint64(len(f.published)), Connected: f.connected}
}

func (f *fakeMQTTClient) deliver(topic, payload string) {
	f.inbox = append(f.inbox, testMessage{topic: topic, payload: []byte(payload)})
}

func (f *fakeMQTTClient) publishedOn(topic string) []published {
	var out []published
	for _, p := range f.published {
		if p.topic == topic {
			out = append(out, p)
		}
	}
	return out
}

var _ MQTTClient = &fakeMQTTClient{}

type fakeTimeSync struct {
	now         time.Time
	updateErrs  []error
	forceErrs   []error
	forceCalls  int
	updateCalls int
}

func (f *fakeTimeSync) Update() error {
	f.updateCalls++
	return pop(&f.updateErrs)
}

func (f *fakeTimeSync) ForceUpdate() error {
	f.forceCalls++
	return pop(&f.forceErrs)
}

func (f *fakeTimeSync) Now() time.Time {
	return f.now
}

func pop(errs *[]error) error {
	if len(*errs) == 0 {
		return nil
	}
	err := (*errs)[0]
	*errs = (*errs)[1:]
	return err
}

type fakeSensor struct {
	temperature float32
	humidity    float32
	pressure    int
	err         error
}

func (f *fakeSensor) Init(address int) error           { return nil }
func (f *fakeSensor) ReadTemperature() (float32, error) { return f.temperature, f.err }
func (f *fakeSensor) ReadHumidity() (float32, error)    { return f.humidity, f.err }
func (f *fakeSensor) ReadPressure() (int, error)        { return f.pressure, f.err }

type fakeLine struct {
	level  Level
	sets   int
	err    error
	closed bool
}

func (f *fakeLine) SetLevel(level Level) error {
	if f.err != nil {
		return f.err
	}
	f.level = level
	f.sets++
	return nil
}

func (f *fakeLine) Close() error {
	f.closed = true
	return nil
}

// newTestBank returns a bank of four actuators with every line driven high.
func newTestBank() (*ActuatorBank, map[ActuatorID]*fakeLine) {
	fakes := map[ActuatorID]*fakeLine{}
	lines := map[ActuatorID]OutputLine{}
	for id := ActuatorID(0); id < 4; id++ {
		fakes[id] = &fakeLine{}
		lines[id] = fakes[id]
	}

	bank, err := NewActuatorBank(lines)
	if err != nil {
		panic(err)
	}
	if err := bank.Reset(); err != nil {
		panic(err)
	}
	return bank, fakes
}

type recordedStatus struct {
	id    ActuatorID
	state ActuatorState
}

type recordingSink struct {
	statuses []recordedStatus
}

func (r *recordingSink) PublishStatus(id ActuatorID, state ActuatorState) {
	r.statuses = append(r.statuses, recordedStatus{id: id, state: state})
}

type recordingSleeper struct {
	sleeps []time.Duration
	// cancelAfter makes the n-th sleep report cancellation.
	cancelAfter int
}

func (r *recordingSleeper) Sleep(ctx context.Context, d time.Duration) error {
	r.sleeps = append(r.sleeps, d)
	if r.cancelAfter > 0 && len(r.sleeps) >= r.cancelAfter {
		return context.Canceled
	}
	return ctx.Err()
}
