package aggregator

import (
	"fmt"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
)

// MQTTConfig represents the config of the MQTT broker connection
type MQTTConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	TLS      bool   `yaml:"tls"`
	QoS      byte   `yaml:"qos"`
	Retain   bool   `yaml:"retain"`
}

// BrokerURL returns the broker URL for the configured host and port
func (c *MQTTConfig) BrokerURL() string {
	scheme := "tcp"
	if c.TLS {
		scheme = "ssl"
	}

	port := c.Port
	if port == 0 {
		port = 1883
	}

	return fmt.Sprintf("%s://%s:%d", scheme, c.Host, port)
}

// Client options for the given role ("subscriber" or "publisher"). The
// client ID carries a random suffix so multiple instances do not evict
// each other's sessions on the broker.
func (c *MQTTConfig) clientOptions(role string) *mqtt.ClientOptions {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(c.BrokerURL())
	opts.SetClientID(fmt.Sprintf("wml-%s-%s", role, uuid.NewString()[:8]))

	if c.Username != "" {
		opts.SetUsername(c.Username)
		opts.SetPassword(c.Password)
	}

	return opts
}
