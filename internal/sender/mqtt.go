package sender

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/speedwagon-io/levelmon/internal/config"
	"github.com/speedwagon-io/levelmon/internal/model"
)

const mqttQoS = 1

var ErrNotConnected = errors.New("mqtt client not connected")

// MQTTSender publishes each envelope as a JSON message on a fixed topic.
type MQTTSender struct {
	log     *slog.Logger
	client  mqtt.Client
	topic   string
	timeout time.Duration
}

// ConnectMQTT dials the broker in cfg.URL. The client reconnects on its own
// after the first successful connect.
func ConnectMQTT(cfg *config.UplinkConfig, deviceID string) (mqtt.Client, error) {
	clientID := cfg.ClientID
	if clientID == "" {
		clientID = "levelmon-" + deviceID
	}

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.URL).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetConnectTimeout(cfg.Timeout)
	if cfg.Token != "" {
		opts.SetUsername(deviceID).SetPassword(cfg.Token)
	}

	c := mqtt.NewClient(opts)
	token := c.Connect()
	if !token.WaitTimeout(cfg.Timeout) {
		return nil, fmt.Errorf("mqtt connect to %s timed out", cfg.URL)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("mqtt connect to %s: %w", cfg.URL, err)
	}
	return c, nil
}

func NewMQTTSender(log *slog.Logger, client mqtt.Client, topic string, timeout time.Duration) *MQTTSender {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &MQTTSender{
		log:     log,
		client:  client,
		topic:   topic,
		timeout: timeout,
	}
}

func (s *MQTTSender) Send(ctx context.Context, envelope *model.Envelope) error {
	payload, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("failed to marshal envelope: %w", err)
	}
	return s.publish(ctx, payload)
}

func (s *MQTTSender) SendBatch(ctx context.Context, envelopes []*model.Envelope) error {
	for _, envelope := range envelopes {
		if err := s.Send(ctx, envelope); err != nil {
			return err
		}
	}
	return nil
}

func (s *MQTTSender) publish(ctx context.Context, payload []byte) error {
	if !s.client.IsConnectionOpen() {
		return ErrNotConnected
	}

	token := s.client.Publish(s.topic, mqttQoS, false, payload)

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-token.Done():
	case <-time.After(s.timeout):
		return fmt.Errorf("publish to %s timed out", s.topic)
	}

	if err := token.Error(); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", s.topic, err)
	}
	return nil
}

func (s *MQTTSender) Health(ctx context.Context) error {
	if !s.client.IsConnectionOpen() {
		return ErrNotConnected
	}
	return nil
}

func (s *MQTTSender) Close() error {
	s.client.Disconnect(250)
	return nil
}
