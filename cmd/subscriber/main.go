package main

import (
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"
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

	var flushInterval time.Duration
	if c.FlushInterval != "" {
		flushInterval, err = time.ParseDuration(c.FlushInterval)
		if err != nil {
			log.Fatalf("error: %v", err)
		}
	}

	db, err := aggregator.NewDbConnection(c.MySQL)
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

	// Set up the aggregation pipeline
	agg := aggregator.NewAggregator(location)
	writer := aggregator.NewWriter(c.Writer, db, sugar)
	subscriber := aggregator.NewSubscriber(c.MQTT, agg, metrics, sugar)
	flusher := aggregator.NewFlusher(flushInterval, clockwork.NewRealClock(), agg, writer, metrics, sugar)

	if err := subscriber.Subscribe(); err != nil {
		sugar.Fatalf("subscriber: %s", err)
	}

	flusher.Run()

	var wg sync.WaitGroup
	wg.Add(1)

	go func() {
		exit := make(chan os.Signal, 1)
		signal.Notify(exit, syscall.SIGINT, syscall.SIGTERM)

		<-exit

		sugar.Info("subscriber: shutting down")
		wg.Done()
	}()

	wg.Wait()

	flusher.Stop()

	if err := subscriber.Shutdown(); err != nil {
		sugar.Errorf("subscriber: %s", err)
	}

	sugar.Infof("subscriber: received %d messages", agg.Len())

	// The report is the sole durable output, so a failed final flush is
	// fatal.
	if err := flusher.Flush(); err != nil {
		sugar.Fatalf("subscriber: %s", err)
	}

	sugar.Info("subscriber: shutdown OK")
}
