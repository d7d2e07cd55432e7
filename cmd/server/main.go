package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/gin-gonic/gin"
	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"

	"github.com/nandanugg/geotrack/config"
	"github.com/nandanugg/geotrack/module/core"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		bootLog := zerolog.New(os.Stderr)
		bootLog.Fatal().Err(err).Msg("load config")
	}
	log := config.NewLogger(cfg.Log, os.Stdout)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var db *sql.DB
	if cfg.Store.Driver == config.DriverPostgres {
		db, err = config.NewPostgres(ctx, cfg.Postgres)
		if err != nil {
			log.Fatal().Err(err).Msg("postgres")
		}
		defer func() { _ = db.Close() }()

		if cfg.Postgres.Migrate {
			if err := core.Migrate(ctx, db); err != nil {
				log.Fatal().Err(err).Msg("migrate")
			}
		}
	}

	var amqpConn *amqp.Connection
	if cfg.RabbitMQ.Enabled {
		amqpConn, err = config.NewRabbitMQ(cfg.RabbitMQ)
		if err != nil {
			log.Fatal().Err(err).Msg("rabbitmq")
		}
		defer func() { _ = amqpConn.Close() }()
	}

	var mqttClient mqtt.Client
	if cfg.MQTT.Enabled {
		mqttClient, err = config.NewMQTT(cfg.MQTT)
		if err != nil {
			log.Fatal().Err(err).Msg("mqtt")
		}
		defer mqttClient.Disconnect(250)
	}

	var influxClient influxdb2.Client
	if cfg.Influx.Enabled {
		influxClient, err = config.NewInflux(ctx, cfg.Influx)
		if err != nil {
			log.Fatal().Err(err).Msg("influx")
		}
		defer influxClient.Close()
	}

	coreModule, err := core.Build(core.Deps{
		DB:     db,
		AMQP:   amqpConn,
		MQTT:   mqttClient,
		Influx: influxClient,
		Log:    log,
	}, core.Options{
		ResultLimit:    cfg.Validator.ResultLimit,
		CellSizeKm:     cfg.Spatial.CellSizeKm,
		RequestTimeout: cfg.HTTP.RequestTimeout,
		MQTTTopic:      cfg.MQTT.Topic,
		TCPAddr:        cfg.TCP.Addr,
		TCPIdleTimeout: cfg.TCP.IdleTimeout,
		InfluxOrg:      cfg.Influx.Org,
		InfluxBucket:   cfg.Influx.Bucket,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("core module")
	}
	defer func() { _ = coreModule.Close() }()

	if err := coreModule.StartSubscribers(); err != nil {
		log.Fatal().Err(err).Msg("start subscribers")
	}

	if cfg.TCP.Enabled {
		go func() {
			if err := coreModule.ServeTCP(ctx); err != nil {
				log.Error().Err(err).Msg("tcp server")
				stop()
			}
		}()
	}

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(coreModule.Middleware()...)

	health := config.NewHealthChecker(db, amqpConn, mqttClient)
	health.Register(r)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	coreModule.RegisterRoutes(&r.RouterGroup)

	srv := &http.Server{
		Addr:              ":" + cfg.HTTP.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Str("store", cfg.Store.Driver).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("http server")
			stop()
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown")
	}
}
