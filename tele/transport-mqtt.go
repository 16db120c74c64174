package tele

import (
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/juju/errors"
	"github.com/temoto/hexpad/hardware/keypad"
	"github.com/temoto/hexpad/helpers"
	"github.com/temoto/hexpad/internal/cursor"
	"github.com/temoto/hexpad/log2"
	tele_config "github.com/temoto/hexpad/tele/config"
)

const (
	defaultNetworkTimeout = 30 * time.Second
	defaultTopic          = "hexpad/keys"
	defaultClientId       = "hexpad"
)

// mqttLogger adapts log2 to paho logger interface
type mqttLogger struct{ l *log2.Log }

func (self mqttLogger) Println(v ...interface{})               { self.l.Debug(v...) }
func (self mqttLogger) Printf(format string, v ...interface{}) { self.l.Debugf(format, v...) }

// publisher is the part of mqtt.Client used by MqttEcho
type publisher interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
}

type MqttEcho struct {
	log    *log2.Log
	m      mqtt.Client
	mopt   *mqtt.ClientOptions
	pub    publisher
	topic  string
	stopCh chan struct{}
}

var _ Echoer = new(MqttEcho)

func NewMqttEcho(log *log2.Log, teleConfig tele_config.Config) (*MqttEcho, error) {
	if teleConfig.MqttBroker == "" {
		return nil, errors.NotValidf("tele mqtt_broker=empty")
	}
	mqttLog := mqttLogger{log.Clone(log2.LDebug)}
	mqtt.CRITICAL = mqttLog
	mqtt.ERROR = mqttLog
	mqtt.WARN = mqttLog
	if teleConfig.MqttLogDebug {
		mqtt.DEBUG = mqttLog
	}

	clientId := teleConfig.ClientId
	if clientId == "" {
		clientId = defaultClientId
	}
	networkTimeout := helpers.IntSecondDefault(teleConfig.NetworkTimeoutSec, defaultNetworkTimeout)
	if networkTimeout < 1*time.Second {
		networkTimeout = 1 * time.Second
	}
	connectTimeout := networkTimeout * 3
	keepaliveTimeout := helpers.IntSecondDefault(teleConfig.KeepaliveSec, networkTimeout/2)

	self := &MqttEcho{
		log:    log,
		topic:  teleConfig.Topic,
		stopCh: make(chan struct{}),
	}
	if self.topic == "" {
		self.topic = defaultTopic
	}
	self.mopt = mqtt.NewClientOptions().
		AddBroker(teleConfig.MqttBroker).
		SetAutoReconnect(true).
		SetCleanSession(true).
		SetClientID(clientId).
		SetConnectTimeout(connectTimeout).
		SetKeepAlive(keepaliveTimeout).
		SetMaxReconnectInterval(connectTimeout).
		SetOrderMatters(true).
		SetPingTimeout(networkTimeout).
		SetWriteTimeout(networkTimeout)
	if teleConfig.MqttPassword != "" {
		self.mopt.SetUsername(clientId).SetPassword(teleConfig.MqttPassword)
	}
	self.m = mqtt.NewClient(self.mopt)
	self.pub = self.m

	go self.online()
	return self, nil
}

func (self *MqttEcho) Key(key keypad.Key, pos cursor.Position) {
	self.publish(KeyPayload(key, pos), "publish key")
}

func (self *MqttEcho) Clear() {
	self.publish(ClearPayload, "publish clear")
}

// Close may race with connect in progress, online() disconnects after it.
func (self *MqttEcho) Close() {
	close(self.stopCh)
	if self.m != nil && self.m.IsConnected() {
		self.disconnect()
	}
}

func (self *MqttEcho) disconnect() {
	self.m.Disconnect(uint(self.mopt.PingTimeout / time.Millisecond))
}

func (self *MqttEcho) publish(payload []byte, tag string) {
	if self.m != nil && !self.m.IsConnected() {
		self.log.Debugf("tele offline, drop payload=%s", payload)
		return
	}
	t := self.pub.Publish(self.topic, 0, false, payload)
	go self.tokenWait(t, tag) //nolint:errcheck
}

func (self *MqttEcho) online() {
	backoff := helpers.Backoff{Min: time.Second, Max: 30 * time.Second, K: 2}
	for self.isRunning() {
		time.Sleep(backoff.DelayBefore())
		self.log.Debugf("tele connect broker=%v", self.mopt.Servers)
		t := self.m.Connect()
		if self.tokenWait(t, "connect") == nil {
			if !self.isRunning() {
				self.log.Debugf("tele closed while connecting")
				self.disconnect()
				return
			}
			self.log.Infof("tele connected topic=%s", self.topic)
			return
		}
		backoff.Failure()
	}
}

func (self *MqttEcho) isRunning() bool {
	select {
	case <-self.stopCh:
		return false
	default:
		return true
	}
}

func (self *MqttEcho) tokenWait(t mqtt.Token, tag string) error {
	if !t.Wait() {
		err := errors.Errorf("%s timeout", tag)
		self.log.Errorf("tele: MQTT %s", err.Error())
		return err
	}
	if err := t.Error(); err != nil {
		err = errors.Annotate(err, tag)
		self.log.Errorf("tele: MQTT %s", err.Error())
		return err
	}
	return nil
}
