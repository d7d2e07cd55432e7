package main

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"strconv"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog"
)

type recordMessage struct {
	IMEI      string  `json:"imei"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Timestamp int64   `json:"timestamp"`
	Angle     float64 `json:"angle"`
	Speed     float64 `json:"speed"`
}

// Reports cluster around place P1.
const (
	targetLon = -3.7
	targetLat = 40.4
)

func randomIMEI() string {
	b := make([]byte, 15)
	b[0] = byte('1' + rand.Intn(9))
	for i := 1; i < len(b); i++ {
		b[i] = byte('0' + rand.Intn(10))
	}
	return string(b)
}

func randomLat() float64 {
	return -90 + rand.Float64()*180
}

func randomLon() float64 {
	return -180 + rand.Float64()*360
}

func main() {
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, "usage: %s <interval_seconds>\n", os.Args[0])
		os.Exit(1)
	}

	intervalSec, err := strconv.Atoi(os.Args[1])
	if err != nil || intervalSec <= 0 {
		fmt.Fprintf(os.Stderr, "error: interval must be a positive integer\n")
		os.Exit(1)
	}

	broker := "tcp://localhost:1883"
	if v := os.Getenv("MQTT_BROKER"); v != "" {
		broker = v
	}

	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID("geotrack-mock-device")

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		log.Fatal().Err(token.Error()).Msg("mqtt connect")
	}
	defer client.Disconnect(250)

	devices := make([]string, 5)
	for i := range devices {
		devices[i] = randomIMEI()
	}

	log.Info().Str("broker", broker).Int("interval_s", intervalSec).Strs("devices", devices).Msg("connected")

	ticker := time.NewTicker(time.Duration(intervalSec) * time.Second)
	defer ticker.Stop()

	for range ticker.C {
		imei := devices[rand.Intn(len(devices))]

		var lat, lon float64
		// 30% of reports land within ~500 m of the target place.
		if rand.Float64() < 0.3 {
			lat = targetLat + (rand.Float64()-0.5)*0.009
			lon = targetLon + (rand.Float64()-0.5)*0.009
		} else {
			lat = randomLat()
			lon = randomLon()
		}

		msg := recordMessage{
			IMEI:      imei,
			Latitude:  lat,
			Longitude: lon,
			Timestamp: time.Now().Unix(),
			Angle:     float64(rand.Intn(360)),
			Speed:     float64(rand.Intn(120)),
		}

		payload, _ := json.Marshal(msg)
		topic := fmt.Sprintf("/devices/%s/records", imei)

		token := client.Publish(topic, 1, false, payload)
		token.Wait()

		log.Info().Str("topic", topic).RawJSON("payload", payload).Msg("published")
	}
}
