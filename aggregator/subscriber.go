package aggregator

import (
	"fmt"

	"github.com/avast/retry-go"
	mqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"
)

// SubscriptionTopic matches the WML topic of every reservoir, so the
// reservoir set is discovered from incoming topic names instead of being
// configured up front.
const SubscriptionTopic = "+/WML"

// Subscriber consumes reservoir readings from the broker and hands decoded
// Messages to the Aggregator
type Subscriber struct {
	config     MQTTConfig
	aggregator *Aggregator
	metrics    *Metrics
	client     mqtt.Client
	logger     *zap.SugaredLogger
}

// Connect with the configured MQTT broker
func (s *Subscriber) connect() error {
	s.client = mqtt.NewClient(s.config.clientOptions("subscriber"))

	token := s.client.Connect()
	token.Wait()
	if err := token.Error(); err != nil {
		return fmt.Errorf("Subscriber: %v", err)
	}

	s.logger.Infof("Subscriber: connection established (broker: %q)", s.config.BrokerURL())

	return nil
}

// Subscribe connects to the broker and issues the single wildcard
// subscription covering all reservoir WML topics
func (s *Subscriber) Subscribe() error {
	err := s.connect()
	if err != nil {
		return err
	}

	err = retry.Do(
		func() error {
			s.logger.Infof("Subscriber: subscribing (topic: %q)", SubscriptionTopic)

			token := s.client.Subscribe(SubscriptionTopic, s.config.QoS, s.handleMessage)
			token.Wait()
			if err := token.Error(); err != nil {
				s.logger.Errorf("Subscriber: %s", err)

				return fmt.Errorf("Subscriber: failed to subscribe")
			}

			return nil
		},
	)
	if err != nil {
		return err
	}

	s.logger.Info("Subscriber: subscribed")

	return nil
}

// The broker invokes this handler serially for every inbound message. Only
// the O(1) store append happens here; grouping and statistics are deferred
// to the flush step.
func (s *Subscriber) handleMessage(_ mqtt.Client, msg mqtt.Message) {
	m, err := DecodeMessage(msg.Topic(), msg.Payload())
	if err != nil {
		s.logger.Warnf("Subscriber: discarding message (topic: %q): %s", msg.Topic(), err)
		s.metrics.DecodeFailures.Inc()

		return
	}

	s.aggregator.Add(*m)
	s.metrics.MessagesReceived.Inc()
}

// Shutdown the Subscriber
func (s *Subscriber) Shutdown() error {
	s.logger.Info("Subscriber: shutting down")

	if s.client == nil || !s.client.IsConnected() {
		s.logger.Info("Subscriber: shutdown OK")

		return nil
	}

	token := s.client.Unsubscribe(SubscriptionTopic)
	token.Wait()
	if err := token.Error(); err != nil {
		return fmt.Errorf("Subscriber: failed to unsubscribe: %v", err)
	}

	s.client.Disconnect(250)

	s.logger.Info("Subscriber: shutdown OK")

	return nil
}

// NewSubscriber creates a new Subscriber
func NewSubscriber(config MQTTConfig, aggregator *Aggregator, metrics *Metrics, logger *zap.SugaredLogger) *Subscriber {
	return &Subscriber{
		config:     config,
		aggregator: aggregator,
		metrics:    metrics,
		client:     nil,
		logger:     logger,
	}
}
