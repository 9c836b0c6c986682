package aggregator

import (
	"fmt"
	"regexp"
)

var reservoirRegex = regexp.MustCompile(`^(\w+)/WML$`)

// Topic represents an MQTT topic
type Topic struct {
	Value string
}

// GetReservoirID returns the reservoir ID from the Topic value
func (t *Topic) GetReservoirID() (string, error) {
	matches := reservoirRegex.FindStringSubmatch(t.Value)

	if matches == nil {
		return "", fmt.Errorf("Topic: '%s' does not match topic regex", t.Value)
	}

	if len(matches) < 2 {
		return "", fmt.Errorf("Topic: reservoir ID not found in topic")
	}

	return matches[1], nil
}

// NewTopic constructs a new Topic
func NewTopic(value string) *Topic {
	return &Topic{
		Value: value,
	}
}
