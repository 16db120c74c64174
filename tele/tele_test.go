package tele

import (
	"sync"
	"testing"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/stretchr/testify/assert"
	"github.com/temoto/hexpad/hardware/keypad"
	"github.com/temoto/hexpad/internal/cursor"
	"github.com/temoto/hexpad/log2"
	tele_config "github.com/temoto/hexpad/tele/config"
)

type doneToken struct{ mqtt.Token }

func (doneToken) Wait() bool   { return true }
func (doneToken) Error() error { return nil }

type mockPublisher struct {
	mu       sync.Mutex
	topics   []string
	payloads []string
}

func (self *mockPublisher) Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token {
	self.mu.Lock()
	defer self.mu.Unlock()
	self.topics = append(self.topics, topic)
	self.payloads = append(self.payloads, string(payload.([]byte)))
	return doneToken{}
}

func TestKeyPayload(t *testing.T) {
	t.Parallel()

	type Case struct {
		key    keypad.Key
		pos    cursor.Position
		expect string
	}
	cases := []Case{
		{1, cursor.Home, "key:1@80"},
		{10, cursor.Home + 15, "key:A@8f"},
		{15, cursor.Line2Home, "key:F@c0"},
	}
	for _, c := range cases {
		assert.Equal(t, c.expect, string(KeyPayload(c.key, c.pos)))
	}
}

func TestMqttEchoPublish(t *testing.T) {
	t.Parallel()

	pub := &mockPublisher{}
	e := &MqttEcho{
		log:    log2.NewTest(t, log2.LDebug),
		pub:    pub,
		topic:  "test/keys",
		stopCh: make(chan struct{}),
	}
	e.Key(12, cursor.Home+2)
	e.Clear()
	e.Close()

	pub.mu.Lock()
	defer pub.mu.Unlock()
	assert.Equal(t, []string{"test/keys", "test/keys"}, pub.topics)
	assert.Equal(t, []string{"key:C@82", "clear"}, pub.payloads)
}

type fakeClient struct {
	mqtt.Client
	mu          sync.Mutex
	connected   bool
	disconnects int
	onConnect   func()
}

func (self *fakeClient) Connect() mqtt.Token {
	if self.onConnect != nil {
		self.onConnect()
	}
	self.mu.Lock()
	self.connected = true
	self.mu.Unlock()
	return doneToken{}
}

func (self *fakeClient) IsConnected() bool {
	self.mu.Lock()
	defer self.mu.Unlock()
	return self.connected
}

func (self *fakeClient) Disconnect(quiesce uint) {
	self.mu.Lock()
	defer self.mu.Unlock()
	self.connected = false
	self.disconnects++
}

func newTestMqttEcho(t testing.TB, client *fakeClient) *MqttEcho {
	return &MqttEcho{
		log:    log2.NewTest(t, log2.LDebug),
		m:      client,
		mopt:   mqtt.NewClientOptions(),
		pub:    &mockPublisher{},
		topic:  "test/keys",
		stopCh: make(chan struct{}),
	}
}

func TestMqttEchoOnline(t *testing.T) {
	t.Parallel()

	client := &fakeClient{}
	e := newTestMqttEcho(t, client)
	e.online()
	assert.True(t, client.IsConnected())
	e.Close()
	assert.False(t, client.IsConnected())
	assert.Equal(t, 1, client.disconnects)
}

func TestMqttEchoCloseDuringConnect(t *testing.T) {
	t.Parallel()

	client := &fakeClient{}
	e := newTestMqttEcho(t, client)
	client.onConnect = e.Close
	e.online()
	assert.False(t, client.IsConnected())
	assert.Equal(t, 1, client.disconnects)
}

func TestNewMqttEchoValidate(t *testing.T) {
	t.Parallel()

	_, err := NewMqttEcho(log2.NewTest(t, log2.LDebug), tele_config.Config{Enabled: true})
	assert.Error(t, err)
}

func TestNoop(t *testing.T) {
	t.Parallel()

	var e Echoer = Noop{}
	e.Key(0, cursor.Home)
	e.Clear()
	e.Close()
}
