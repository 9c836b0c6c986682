package aggregator

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"
)

// PublisherConfig represents the config of the Publisher
type PublisherConfig struct {
	InputDir string `yaml:"input_dir"`
	// Optional file name → reservoir ID map. When empty, every *.csv in
	// the input directory is published and the ID is derived from the
	// file name.
	Sources map[string]string `yaml:"sources"`
}

// Publisher reads reservoir source CSVs and publishes one Payload per
// reading onto `<RESERVOIR_ID>/WML`
type Publisher struct {
	config   MQTTConfig
	sources  PublisherConfig
	location *time.Location
	metrics  *Metrics
	client   mqtt.Client
	logger   *zap.SugaredLogger
}

type publishSource struct {
	name        string
	reservoirID string
}

// Connect with the configured MQTT broker
func (p *Publisher) Connect() error {
	p.client = mqtt.NewClient(p.config.clientOptions("publisher"))

	token := p.client.Connect()
	token.Wait()
	if err := token.Error(); err != nil {
		return fmt.Errorf("Publisher: %v", err)
	}

	p.logger.Infof("Publisher: connection established (broker: %q)", p.config.BrokerURL())

	return nil
}

// Resolve the source files to publish, in file name order
func (p *Publisher) resolveSources() ([]publishSource, error) {
	var sources []publishSource

	if len(p.sources.Sources) > 0 {
		for name, reservoirID := range p.sources.Sources {
			sources = append(sources, publishSource{name: name, reservoirID: reservoirID})
		}
	} else {
		entries, err := os.ReadDir(p.sources.InputDir)
		if err != nil {
			return nil, fmt.Errorf("Publisher: %s", err)
		}

		for _, entry := range entries {
			if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".csv") {
				continue
			}

			reservoirID, err := DeriveReservoirID(entry.Name())
			if err != nil {
				p.logger.Warnf("Publisher: skipping '%s': %s", entry.Name(), err)

				continue
			}

			sources = append(sources, publishSource{name: entry.Name(), reservoirID: reservoirID})
		}
	}

	sort.Slice(sources, func(i, j int) bool {
		return sources[i].name < sources[j].name
	})

	return sources, nil
}

// Run publishes every reading of every source file. A file that cannot be
// read is skipped with a warning; a publish failure aborts the run.
func (p *Publisher) Run() error {
	sources, err := p.resolveSources()
	if err != nil {
		return err
	}

	for _, source := range sources {
		path := filepath.Join(p.sources.InputDir, source.name)

		readings, err := ReadSourceCSV(path)
		if err != nil {
			p.logger.Warnf("Publisher: skipping '%s': %s", source.name, err)
			p.metrics.SourceFilesSkipped.Inc()

			continue
		}

		topic := source.reservoirID + "/WML"

		for _, reading := range readings {
			if err := p.publish(topic, source, reading); err != nil {
				return err
			}
		}
	}

	return nil
}

func (p *Publisher) publish(topic string, source publishSource, reading SourceReading) error {
	// Midnight local on the reading's date, carrying the zone offset.
	ts := time.Date(
		reading.Date.Year(), reading.Date.Month(), reading.Date.Day(),
		0, 0, 0, 0, p.location,
	)

	taf := reading.TAF
	af := int64(roundPlaces(taf*1000, 0))

	payload := &Payload{
		ReservoirID: source.reservoirID,
		Topic:       topic,
		Timestamp:   ts.Format(time.RFC3339),
		WMLTAF:      &taf,
		WMLAF:       &af,
		Units:       Units{WML: "TAF", Alternate: "AF"},
		SourceFile:  source.name,
		MessageType: "publisher",
	}

	body, err := payload.Encode()
	if err != nil {
		return err
	}

	token := p.client.Publish(topic, p.config.QoS, p.config.Retain, body)
	token.Wait()
	if err := token.Error(); err != nil {
		return fmt.Errorf("Publisher: %v", err)
	}

	p.metrics.MessagesPublished.Inc()
	p.logger.Infof("Publisher: published (topic: %q, timestamp: %s, taf: %v)", topic, payload.Timestamp, taf)

	return nil
}

// Shutdown the Publisher
func (p *Publisher) Shutdown() {
	p.logger.Info("Publisher: shutting down")

	if p.client != nil && p.client.IsConnected() {
		p.client.Disconnect(250)
	}

	p.logger.Info("Publisher: shutdown OK")
}

// NewPublisher creates a new Publisher
func NewPublisher(config MQTTConfig, sources PublisherConfig, location *time.Location, metrics *Metrics, logger *zap.SugaredLogger) *Publisher {
	return &Publisher{
		config:   config,
		sources:  sources,
		location: location,
		metrics:  metrics,
		client:   nil,
		logger:   logger,
	}
}
