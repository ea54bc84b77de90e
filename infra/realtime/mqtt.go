package realtime

import (
	"context"
	"fmt"
	"strings"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	corerealtime "github.com/kilianp07/kmrl-dash/core/realtime"
	"github.com/kilianp07/kmrl-dash/infra/logger"
)

// DefaultTopicPrefix is the topic root events are published under.
const DefaultTopicPrefix = "kmrl/dashboard"

// MQTTConfig configures the MQTT transport. Events arrive on
// <topic_prefix>/<event name> with the JSON payload as message body.
type MQTTConfig struct {
	Broker         string        `json:"broker"`
	ClientID       string        `json:"client_id"`
	Username       string        `json:"username"`
	Password       string        `json:"password"`
	TopicPrefix    string        `json:"topic_prefix"`
	QoS            byte          `json:"qos"`
	ReconnectDelay time.Duration `json:"reconnect_delay"`
}

type pahoClient interface {
	Connect() paho.Token
	Disconnect(quiesce uint)
	Subscribe(topic string, qos byte, callback paho.MessageHandler) paho.Token
}

var newMQTTClient = func(opts *paho.ClientOptions) pahoClient {
	return paho.NewClient(opts)
}

// MQTT subscribes to the event topics of a broker.
type MQTT struct {
	cfg MQTTConfig
	log logger.Logger
}

// NewMQTT validates cfg and builds the transport.
func NewMQTT(cfg MQTTConfig, log logger.Logger) (*MQTT, error) {
	if cfg.Broker == "" {
		return nil, fmt.Errorf("mqtt: broker required")
	}
	if cfg.ClientID == "" {
		cfg.ClientID = "kmrl-dash-" + uuid.NewString()[:8]
	}
	cfg.TopicPrefix = strings.TrimSuffix(cfg.TopicPrefix, "/")
	if cfg.TopicPrefix == "" {
		cfg.TopicPrefix = DefaultTopicPrefix
	}
	if cfg.QoS > 2 {
		return nil, fmt.Errorf("mqtt: qos %d out of range", cfg.QoS)
	}
	if cfg.ReconnectDelay <= 0 {
		cfg.ReconnectDelay = DefaultReconnectDelay
	}
	return &MQTT{cfg: cfg, log: logger.OrNop(log)}, nil
}

// Topic returns the subscription filter.
func (m *MQTT) Topic() string { return m.cfg.TopicPrefix + "/+" }

func (m *MQTT) clientOptions() *paho.ClientOptions {
	opts := paho.NewClientOptions().AddBroker(m.cfg.Broker).SetClientID(m.cfg.ClientID)
	opts.AutoReconnect = true
	opts.ConnectRetry = true
	opts.ConnectRetryInterval = m.cfg.ReconnectDelay
	opts.MaxReconnectInterval = m.cfg.ReconnectDelay
	if m.cfg.Username != "" {
		opts.SetUsername(m.cfg.Username)
	}
	if m.cfg.Password != "" {
		opts.SetPassword(m.cfg.Password)
	}
	return opts
}

// Run implements core/realtime.Channel. Reconnection is left to paho; each
// (re)connection resubscribes and emits Connected.
func (m *MQTT) Run(ctx context.Context, out chan<- corerealtime.Event) error {
	opts := m.clientOptions()
	var cli pahoClient
	opts.OnConnect = func(paho.Client) {
		m.log.Infof("MQTT connected to %s", m.cfg.Broker)
		if token := cli.Subscribe(m.Topic(), m.cfg.QoS, m.onMessage(ctx, out)); token.Wait() && token.Error() != nil {
			m.log.Errorf("subscribe %s: %v", m.Topic(), token.Error())
			return
		}
		corerealtime.Emit(ctx, out, corerealtime.Connected{})
	}
	opts.OnConnectionLost = func(_ paho.Client, err error) {
		m.log.Warnf("MQTT connection lost: %v", err)
		corerealtime.Emit(ctx, out, corerealtime.Disconnected{Reason: err.Error()})
	}
	opts.OnReconnecting = func(paho.Client, *paho.ClientOptions) {
		m.log.Warnf("reconnecting to MQTT broker")
	}
	cli = newMQTTClient(opts)
	token := cli.Connect()
	select {
	case <-ctx.Done():
	case <-token.Done():
		if err := token.Error(); err != nil {
			return fmt.Errorf("mqtt connect: %w", err)
		}
		<-ctx.Done()
	}
	cli.Disconnect(250)
	return nil
}

func (m *MQTT) onMessage(ctx context.Context, out chan<- corerealtime.Event) paho.MessageHandler {
	prefix := m.cfg.TopicPrefix + "/"
	return func(_ paho.Client, msg paho.Message) {
		name := strings.TrimPrefix(msg.Topic(), prefix)
		ev, err := corerealtime.Decode(name, msg.Payload())
		if err != nil {
			m.log.Debugf("mqtt: skipping %s: %v", msg.Topic(), err)
			return
		}
		corerealtime.Emit(ctx, out, ev)
	}
}
