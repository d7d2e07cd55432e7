package config

import "strings"

var envMappings = map[string]string{
	"http_port":              "http.port",
	"http_request_timeout":   "http.request_timeout",
	"store_driver":           "store.driver",
	"postgres_dsn":           "postgres.dsn",
	"postgres_migrate":       "postgres.migrate",
	"rabbitmq_enabled":       "rabbitmq.enabled",
	"rabbitmq_url":           "rabbitmq.url",
	"mqtt_enabled":           "mqtt.enabled",
	"mqtt_broker":            "mqtt.broker",
	"mqtt_client_id":         "mqtt.client_id",
	"mqtt_topic":             "mqtt.topic",
	"tcp_enabled":            "tcp.enabled",
	"tcp_addr":               "tcp.addr",
	"tcp_idle_timeout":       "tcp.idle_timeout",
	"influx_enabled":         "influx.enabled",
	"influx_url":             "influx.url",
	"influx_token":           "influx.token",
	"influx_org":             "influx.org",
	"influx_bucket":          "influx.bucket",
	"validator_result_limit": "validator.result_limit",
	"spatial_cell_size_km":   "spatial.cell_size_km",
	"log_level":              "log.level",
	"log_format":             "log.format",
}

// envTransform maps HTTP_PORT style variables to config paths. Unknown
// variables map to "" and are ignored.
func envTransform(key string) string {
	return envMappings[strings.ToLower(key)]
}
