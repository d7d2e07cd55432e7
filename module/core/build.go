package core

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/gin-gonic/gin"
	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"

	handler "github.com/nandanugg/geotrack/module/core/internal/handler/http"
	"github.com/nandanugg/geotrack/module/core/internal/handler/subscriber"
	"github.com/nandanugg/geotrack/module/core/internal/handler/tcp"
	"github.com/nandanugg/geotrack/module/core/internal/repository/database"
	"github.com/nandanugg/geotrack/module/core/internal/repository/database/memory"
	"github.com/nandanugg/geotrack/module/core/internal/repository/database/postgres"
	"github.com/nandanugg/geotrack/module/core/internal/repository/publisher"
	"github.com/nandanugg/geotrack/module/core/internal/repository/publisher/rabbitmq"
	"github.com/nandanugg/geotrack/module/core/internal/repository/timeseries/influx"
	"github.com/nandanugg/geotrack/module/core/internal/spatial"
	"github.com/nandanugg/geotrack/module/core/service"
)

// Deps are the connections the module runs on. A nil DB selects the
// in-memory store. Nil AMQP, MQTT and Influx disable events, MQTT ingestion
// and the record mirror.
type Deps struct {
	DB     *sql.DB
	AMQP   *amqp.Connection
	MQTT   mqtt.Client
	Influx influxdb2.Client
	Log    zerolog.Logger
}

type Options struct {
	ResultLimit    int
	CellSizeKm     float64
	RequestTimeout time.Duration
	MQTTTopic      string
	TCPAddr        string
	TCPIdleTimeout time.Duration
	InfluxOrg      string
	InfluxBucket   string
}

type Module struct {
	PlaceSvc     *service.PlaceService
	RecordSvc    *service.RecordService
	ValidatorSvc *service.ValidatorService
	GeofenceSvc  *service.GeofenceService

	log            zerolog.Logger
	requestTimeout time.Duration
	placeHandler   *handler.PlaceHandler
	recordHandler  *handler.RecordHandler
	subscriber     *subscriber.RecordSubscriber
	tcpServer      *tcp.Server
	closer         func() error
}

func Build(deps Deps, opts Options) (*Module, error) {
	var (
		placeRepo  database.PlaceRepository
		recordRepo database.RecordRepository
	)
	if deps.DB != nil {
		placeRepo = postgres.NewPlaceRepo(deps.DB)
		recordRepo = postgres.NewRecordRepo(deps.DB)
	} else {
		placeRepo = memory.NewPlaceRepo()
		recordRepo = memory.NewRecordRepo(spatial.NewGridIndex(opts.CellSizeKm))
	}

	var (
		events publisher.EventPublisher = publisher.Noop{}
		closer                          = func() error { return nil }
	)
	if deps.AMQP != nil {
		pub, err := rabbitmq.NewPublisher(deps.AMQP)
		if err != nil {
			return nil, fmt.Errorf("event publisher: %w", err)
		}
		events, closer = pub, pub.Close
	}

	placeSvc := service.NewPlaceService(placeRepo, events, deps.Log)
	geofenceSvc := service.NewGeofenceService(placeRepo, events)
	recordSvc := service.NewRecordService(recordRepo, geofenceSvc, deps.Log)
	if deps.Influx != nil {
		recordSvc.WithSink(influx.NewWriter(deps.Influx, opts.InfluxOrg, opts.InfluxBucket))
	}
	validatorSvc := service.NewValidatorService(placeRepo, recordRepo, opts.ResultLimit)

	m := &Module{
		PlaceSvc:       placeSvc,
		RecordSvc:      recordSvc,
		ValidatorSvc:   validatorSvc,
		GeofenceSvc:    geofenceSvc,
		log:            deps.Log,
		requestTimeout: opts.RequestTimeout,
		placeHandler:   handler.NewPlaceHandler(placeSvc, validatorSvc),
		recordHandler:  handler.NewRecordHandler(recordSvc),
		tcpServer:      tcp.NewServer(opts.TCPAddr, opts.TCPIdleTimeout, recordSvc, deps.Log),
		closer:         closer,
	}
	if deps.MQTT != nil {
		m.subscriber = subscriber.NewRecordSubscriber(deps.MQTT, opts.MQTTTopic, recordSvc, deps.Log)
	}
	return m, nil
}

// Middleware is the chain every route should run behind.
func (m *Module) Middleware() []gin.HandlerFunc {
	return handler.Middleware(m.log, m.requestTimeout)
}

func (m *Module) RegisterRoutes(r *gin.RouterGroup) {
	m.placeHandler.Register(r)
	m.recordHandler.Register(r)
}

func (m *Module) StartSubscribers() error {
	if m.subscriber == nil {
		return nil
	}
	return m.subscriber.Start()
}

// ServeTCP runs the tracker listener until ctx is cancelled.
func (m *Module) ServeTCP(ctx context.Context) error {
	return m.tcpServer.ListenAndServe(ctx)
}

func (m *Module) Close() error {
	return m.closer()
}

// Migrate creates the postgres schema.
func Migrate(ctx context.Context, db *sql.DB) error {
	return postgres.Migrate(ctx, db)
}

// Event routing shared with consumers.
const (
	EventExchange   = rabbitmq.ExchangeName
	PlaceEventQueue = rabbitmq.PlaceQueue
	AlertQueue      = rabbitmq.AlertQueue
)

// DeclareEvents declares the event exchange and queues on ch.
func DeclareEvents(ch *amqp.Channel) error {
	return rabbitmq.Declare(ch)
}
