// Package mqttpub publishes the latest tank reading of each sensor to an MQTT broker.
package mqttpub

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/golang/glog"

	"github.com/electronjoe/go-mopeka/pkg/mopeka"
)

// Config is the MQTT block of devices.yml.
type Config struct {
	Broker      string `yaml:"Broker"`
	ClientID    string `yaml:"ClientID"`
	TopicPrefix string `yaml:"TopicPrefix"`
	Username    string `yaml:"Username"`
	Password    string `yaml:"Password"`
	QoS         byte   `yaml:"QoS"`
	Retain      bool   `yaml:"Retain"`
}

const (
	defaultClientID    = "mopeka-mon"
	defaultTopicPrefix = "mopeka"
	publishTimeout     = 5 * time.Second
)

// Reading is the JSON document published for each processed advertisement.
type Reading struct {
	Address           string    `json:"address"`
	Name              string    `json:"name,omitempty"`
	Timestamp         time.Time `json:"timestamp"`
	RSSI              int       `json:"rssi"`
	BatteryVoltage    float64   `json:"battery_v"`
	BatteryPercent    float64   `json:"battery_pct"`
	TemperatureC      int       `json:"temperature_c"`
	TemperatureF      float64   `json:"temperature_f"`
	TankLevelMM       int       `json:"tank_level_mm"`
	TankLevelInches   float64   `json:"tank_level_in"`
	QualityStars      uint8     `json:"quality_stars"`
	SyncButtonPressed bool      `json:"sync_button_pressed"`
}

// NewReading snapshots the derived values of a.
func NewReading(name string, a *mopeka.Advertisement, at time.Time) Reading {
	return Reading{
		Address:           a.Address.String(),
		Name:              name,
		Timestamp:         at.UTC(),
		RSSI:              a.RSSI,
		BatteryVoltage:    a.BatteryVoltage(),
		BatteryPercent:    a.BatteryPercent(),
		TemperatureC:      a.TemperatureCelsius(),
		TemperatureF:      a.TemperatureFahrenheit(),
		TankLevelMM:       a.TankLevelMM(),
		TankLevelInches:   a.TankLevelInches(),
		QualityStars:      a.QualityStars,
		SyncButtonPressed: a.SyncButtonPressed,
	}
}

// Topic returns "<prefix>/<address without colons>/reading".
func Topic(prefix, address string) string {
	if prefix == "" {
		prefix = defaultTopicPrefix
	}
	return fmt.Sprintf("%s/%s/reading", strings.TrimSuffix(prefix, "/"), strings.ReplaceAll(address, ":", ""))
}

// Publisher owns a paho client.
type Publisher struct {
	cfg    Config
	client mqtt.Client

	mu        sync.RWMutex
	connected bool
}

func New(cfg Config) *Publisher {
	if cfg.ClientID == "" {
		cfg.ClientID = defaultClientID
	}
	if cfg.TopicPrefix == "" {
		cfg.TopicPrefix = defaultTopicPrefix
	}
	p := &Publisher{cfg: cfg}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.Broker)
	opts.SetClientID(cfg.ClientID)
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}
	opts.SetCleanSession(true)
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(5 * time.Second)
	opts.SetMaxReconnectInterval(60 * time.Second)
	opts.SetKeepAlive(30 * time.Second)
	opts.SetPingTimeout(10 * time.Second)
	opts.SetOnConnectHandler(func(_ mqtt.Client) {
		p.setConnected(true)
		glog.Infof("MQTT connected to %s", cfg.Broker)
	})
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		p.setConnected(false)
		glog.Warningf("MQTT connection to %s lost: %v", cfg.Broker, err)
	})

	p.client = mqtt.NewClient(opts)
	return p
}

// Connect waits for the first connection or ctx.
func (p *Publisher) Connect(ctx context.Context) error {
	token := p.client.Connect()
	const poll = 200 * time.Millisecond
	for {
		if token.WaitTimeout(poll) {
			if err := token.Error(); err != nil {
				return fmt.Errorf("mqtt connect %s: %w", p.cfg.Broker, err)
			}
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
	}
}

func (p *Publisher) setConnected(v bool) {
	p.mu.Lock()
	p.connected = v
	p.mu.Unlock()
}

func (p *Publisher) IsConnected() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.connected
}

// Publish sends r to its sensor topic.
func (p *Publisher) Publish(r Reading) error {
	if !p.IsConnected() {
		return fmt.Errorf("mqtt client not connected")
	}
	payload, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("marshal reading: %w", err)
	}
	topic := Topic(p.cfg.TopicPrefix, r.Address)
	token := p.client.Publish(topic, p.cfg.QoS, p.cfg.Retain, payload)
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("publish %s: timeout", topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish %s: %w", topic, err)
	}
	glog.V(3).Infof("Published reading for %s to %s", r.Address, topic)
	return nil
}

func (p *Publisher) Close() {
	p.client.Disconnect(250)
}
