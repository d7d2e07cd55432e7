package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"

	"github.com/nandanugg/geotrack/config"
	"github.com/nandanugg/geotrack/module/core"
)

func main() {
	_ = godotenv.Load()

	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}

	conn, err := amqp.Dial(cfg.RabbitMQ.URL)
	if err != nil {
		log.Fatal().Err(err).Msg("rabbitmq connect")
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		log.Fatal().Err(err).Msg("rabbitmq channel")
	}
	defer func() { _ = ch.Close() }()

	if err := core.DeclareEvents(ch); err != nil {
		log.Fatal().Err(err).Msg("declare topology")
	}

	for _, queue := range []string{core.PlaceEventQueue, core.AlertQueue} {
		msgs, err := ch.Consume(queue, "", true, false, false, false, nil)
		if err != nil {
			log.Fatal().Err(err).Str("queue", queue).Msg("consume")
		}

		go func(queue string, msgs <-chan amqp.Delivery) {
			for msg := range msgs {
				log.Info().
					Str("queue", queue).
					Str("routing_key", msg.RoutingKey).
					RawJSON("body", msg.Body).
					Msg("event")
			}
		}(queue, msgs)
	}

	log.Info().Str("exchange", core.EventExchange).Msg("consuming place events and geofence alerts")

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	log.Info().Msg("shutting down")
}
