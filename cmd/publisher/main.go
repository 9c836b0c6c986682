package main

import (
	"log"
	"os"

	"github.com/raymondelooff/mqtt-reservoir-aggregator/aggregator"
	"go.uber.org/zap"
	"gopkg.in/yaml.v2"
)

func main() {
	if len(os.Args) < 2 {
		log.Fatalf("error: config file location not specified")
	}

	f, err := os.ReadFile(os.Args[1])
	if err != nil {
		log.Fatalf("error: %v", err)
	}

	c := aggregator.Config{}
	err = yaml.Unmarshal(f, &c)
	if err != nil {
		log.Fatalf("error: %v", err)
	}

	location, err := c.Location()
	if err != nil {
		log.Fatalf("error: %v", err)
	}

	// Set up logger
	var logger *zap.Logger
	if c.Env == "dev" {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		log.Fatalf("error: %v", err)
	}
	defer logger.Sync()
	sugar := logger.Sugar()

	metrics := aggregator.NewMetrics()
	if c.MetricsAddr != "" {
		go metrics.Serve(c.MetricsAddr, sugar)
	}

	publisher := aggregator.NewPublisher(c.MQTT, c.Publisher, location, metrics, sugar)

	if err := publisher.Connect(); err != nil {
		sugar.Fatalf("publisher: %s", err)
	}

	if err := publisher.Run(); err != nil {
		sugar.Fatalf("publisher: %s", err)
	}

	publisher.Shutdown()
	sugar.Info("publisher: shutdown OK")
}
