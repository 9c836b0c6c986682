package aggregator

import (
	"fmt"
	"math"
	"time"

	"github.com/segmentio/encoding/json"
)

// Message represents a single reservoir storage reading
type Message struct {
	ReservoirID string
	Timestamp   time.Time
	StorageTAF  float64
	StorageAF   int64
}

// Units describes the measurement units carried in a Payload
type Units struct {
	WML       string `json:"wml"`
	Alternate string `json:"alternate"`
}

// Payload is the wire format published on the WML topics
type Payload struct {
	ReservoirID string   `json:"reservoir_id"`
	Topic       string   `json:"topic"`
	Timestamp   string   `json:"timestamp"`
	WMLTAF      *float64 `json:"wml_taf"`
	WMLAF       *int64   `json:"wml_af"`
	Units       Units    `json:"units"`
	SourceFile  string   `json:"source_file"`
	MessageType string   `json:"message_type"`
}

// DecodeMessage decodes a raw payload received on the given topic into a
// Message. The reservoir ID is taken from the topic, not from the payload.
func DecodeMessage(topic string, body []byte) (*Message, error) {
	reservoirID, err := NewTopic(topic).GetReservoirID()
	if err != nil {
		return nil, err
	}

	var p Payload
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, fmt.Errorf("Message: %s", err)
	}

	if p.WMLTAF == nil {
		return nil, fmt.Errorf("Message: missing wml_taf")
	}
	if p.WMLAF == nil {
		return nil, fmt.Errorf("Message: missing wml_af")
	}
	if math.IsNaN(*p.WMLTAF) || math.IsInf(*p.WMLTAF, 0) {
		return nil, fmt.Errorf("Message: wml_taf is not finite")
	}

	timestamp, err := time.Parse(time.RFC3339, p.Timestamp)
	if err != nil {
		return nil, fmt.Errorf("Message: invalid timestamp: %s", err)
	}

	return &Message{
		ReservoirID: reservoirID,
		Timestamp:   timestamp,
		StorageTAF:  *p.WMLTAF,
		StorageAF:   *p.WMLAF,
	}, nil
}

// Encode marshals the Payload to its wire representation
func (p *Payload) Encode() ([]byte, error) {
	body, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("Message: %s", err)
	}

	return body, nil
}
