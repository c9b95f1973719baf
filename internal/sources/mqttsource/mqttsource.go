// Package mqttsource adapts an MQTT broker subscription into a reactive
// source stream, following the autopaho connection-manager shape: an
// OnConnectionUp callback re-subscribes on every (re)connect, and
// inbound publishes are decoded and fired one transaction per message.
package mqttsource

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/eclipse/paho.golang/autopaho"
	"github.com/eclipse/paho.golang/paho"

	"github.com/nugget/reactived/internal/reactive"
)

// Message is the decoded unit this source fires: the raw topic plus a
// JSON-decoded payload of type A.
type Message[A any] struct {
	Topic   string
	Payload A
}

// Source subscribes to Topics on Broker and decodes every inbound
// publish as a Message[A]. It implements reactive.Source[Message[A]].
type Source[A any] struct {
	Broker   string
	ClientID string
	Username string
	Password string
	Topics   []string
	QoS      byte
	Logger   *slog.Logger

	cancel context.CancelFunc
	cm     *autopaho.ConnectionManager
	handle reactive.SourceHandle[Message[A]]
}

// New constructs a Source. Pass it to reactive.NewSourceStream to
// obtain the resulting Stream[Message[A]].
func New[A any](broker, clientID string, topics []string) *Source[A] {
	return &Source[A]{
		Broker:   broker,
		ClientID: clientID,
		Topics:   topics,
		QoS:      0,
		Logger:   slog.Default(),
	}
}

// Start implements reactive.Source: it opens the autopaho connection
// manager in the background. Start itself never blocks — connection
// and all subsequent publishes happen off the engine thread, each
// publish opening its own transaction via handle.Fire.
func (s *Source[A]) Start(h reactive.SourceHandle[Message[A]]) {
	s.handle = h
	if s.Logger == nil {
		s.Logger = slog.Default()
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	brokerURL, err := url.Parse(s.Broker)
	if err != nil {
		s.handle.FireError(&reactive.SourceError{Cause: fmt.Errorf("parse broker url: %w", err)})
		return
	}

	pahoCfg := autopaho.ClientConfig{
		ServerUrls:      []*url.URL{brokerURL},
		KeepAlive:       30,
		ConnectUsername: s.Username,
		ConnectPassword: []byte(s.Password),
		OnConnectionUp: func(cm *autopaho.ConnectionManager, _ *paho.Connack) {
			s.Logger.Info("mqttsource connected", "broker", s.Broker)
			subCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			for _, topic := range s.Topics {
				if _, err := cm.Subscribe(subCtx, &paho.Subscribe{
					Subscriptions: []paho.SubscribeOptions{{Topic: topic, QoS: s.QoS}},
				}); err != nil {
					s.Logger.Warn("mqttsource subscribe failed", "topic", topic, "error", err)
				}
			}
		},
		OnConnectError: func(err error) {
			s.Logger.Warn("mqttsource connection error", "error", err)
		},
		ClientConfig: paho.ClientConfig{
			ClientID: s.ClientID,
			OnPublishReceived: []func(autopaho.PublishReceived) (bool, error){
				func(pr autopaho.PublishReceived) (bool, error) {
					s.onPublish(pr.Packet.Topic, pr.Packet.Payload)
					return true, nil
				},
			},
		},
	}

	if brokerURL.Scheme == "mqtts" || brokerURL.Scheme == "ssl" {
		pahoCfg.TlsCfg = &tls.Config{MinVersion: tls.VersionTLS12}
	}

	cm, err := autopaho.NewConnection(ctx, pahoCfg)
	if err != nil {
		s.handle.FireError(&reactive.SourceError{Cause: fmt.Errorf("mqtt connect: %w", err)})
		return
	}
	s.cm = cm
}

func (s *Source[A]) onPublish(topic string, payload []byte) {
	defer func() {
		if r := recover(); r != nil {
			s.handle.FireError(&reactive.SourceError{Cause: fmt.Errorf("mqtt handler panic: %v", r)})
		}
	}()
	var decoded A
	if err := json.Unmarshal(payload, &decoded); err != nil {
		s.handle.FireError(&reactive.SourceError{Cause: fmt.Errorf("decode %s: %w", topic, err)})
		return
	}
	s.handle.Fire(Message[A]{Topic: topic, Payload: decoded})
}

// Stop implements reactive.Source: it cancels the connection manager's
// context, which tears down the MQTT session.
func (s *Source[A]) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.cm = nil
}
