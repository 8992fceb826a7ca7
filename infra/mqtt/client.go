package mqtt

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/kilianp07/caresched/core/logger"
	"github.com/kilianp07/caresched/internal/retry"
)

const (
	DefaultTopicPrefix = "care/schedule"
	statusOnline       = "online"
	statusOffline      = "offline"
)

// Config defines the connection parameters for the Paho MQTT client.
type Config struct {
	Broker      string      `json:"broker" validate:"required"`
	ClientID    string      `json:"client_id"`
	Username    string      `json:"username"`
	Password    string      `json:"password"`
	TopicPrefix string      `json:"topic_prefix"`
	QoS         byte        `json:"qos" validate:"lte=2"`
	Retain      bool        `json:"retain"`
	UseTLS      bool        `json:"use_tls"`
	ClientCert  string      `json:"client_cert"`
	ClientKey   string      `json:"client_key"`
	CABundle    string      `json:"ca_bundle"`
	MaxRetries  int         `json:"max_retries" validate:"gte=0"`
	BackoffMS   int         `json:"backoff_ms" validate:"gte=0"`
	TLSConfig   *tls.Config `json:"-"`
}

// SetDefaults fills zero values.
func (c *Config) SetDefaults() {
	if c.ClientID == "" {
		c.ClientID = "caresched"
	}
	if c.TopicPrefix == "" {
		c.TopicPrefix = DefaultTopicPrefix
	}
	c.TopicPrefix = strings.TrimSuffix(c.TopicPrefix, "/")
	if c.MaxRetries == 0 {
		c.MaxRetries = 3
	}
	if c.BackoffMS == 0 {
		c.BackoffMS = 100
	}
}

// StatusTopic carries the retained online/offline state of the publisher.
func (c Config) StatusTopic() string { return c.TopicPrefix + "/status" }

type pahoClient interface {
	IsConnected() bool
	Connect() paho.Token
	Disconnect(quiesce uint)
	Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token
}

// PahoPublisher publishes schedules with Eclipse Paho.
type PahoPublisher struct {
	cli     pahoClient
	cfg     Config
	logger  logger.Logger
	backoff time.Duration
}

var newMQTTClient = func(opts *paho.ClientOptions) pahoClient {
	return paho.NewClient(opts)
}

// NewPahoPublisher connects to the broker and announces itself online on
// the status topic. The broker marks it offline through the last will.
func NewPahoPublisher(cfg Config, log logger.Logger) (*PahoPublisher, error) {
	cfg.SetDefaults()
	if cfg.Broker == "" {
		return nil, errors.New("mqtt: broker is required")
	}
	opts, err := NewClientOptions(cfg)
	if err != nil {
		return nil, err
	}
	log = logger.OrNop(log)
	p := &PahoPublisher{cfg: cfg, logger: log, backoff: time.Duration(cfg.BackoffMS) * time.Millisecond}

	opts.OnConnect = func(c paho.Client) {
		log.Infof("MQTT connected")
		if token := c.Publish(cfg.StatusTopic(), cfg.QoS, true, statusOnline); token.Wait() && token.Error() != nil {
			log.Errorf("status publish error: %v", token.Error())
		}
	}
	opts.OnConnectionLost = func(_ paho.Client, err error) {
		log.Errorf("connection lost: %v", err)
	}
	opts.OnReconnecting = func(_ paho.Client, _ *paho.ClientOptions) {
		log.Warnf("reconnecting to MQTT broker")
	}
	c := newMQTTClient(opts)
	if token := c.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("mqtt: connect: %w", token.Error())
	}
	p.cli = c
	return p, nil
}

// NewClientOptions builds mqtt client options from Config.
func NewClientOptions(cfg Config) (*paho.ClientOptions, error) {
	cfg.SetDefaults()
	opts := paho.NewClientOptions().AddBroker(cfg.Broker).SetClientID(cfg.ClientID)
	opts.AutoReconnect = true
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
	}
	if cfg.Password != "" {
		opts.SetPassword(cfg.Password)
	}
	if cfg.UseTLS {
		tlsCfg, err := cfg.LoadTLSConfig()
		if err != nil {
			return nil, err
		}
		opts.SetTLSConfig(tlsCfg)
	}
	opts.SetWill(cfg.StatusTopic(), statusOffline, cfg.QoS, true)
	return opts, nil
}

// LoadTLSConfig loads the TLS configuration from the file paths in the config.
func (c Config) LoadTLSConfig() (*tls.Config, error) {
	if c.TLSConfig != nil {
		return c.TLSConfig, nil
	}
	if c.ClientCert == "" || c.ClientKey == "" || c.CABundle == "" {
		return nil, fmt.Errorf("tls config requires client_cert, client_key and ca_bundle")
	}
	cert, err := tls.LoadX509KeyPair(c.ClientCert, c.ClientKey)
	if err != nil {
		return nil, fmt.Errorf("load cert: %w", err)
	}
	caBytes, err := os.ReadFile(c.CABundle)
	if err != nil {
		return nil, fmt.Errorf("read ca: %w", err)
	}
	pool := x509.NewCertPool()
	pool.AppendCertsFromPEM(caBytes)
	return &tls.Config{Certificates: []tls.Certificate{cert}, RootCAs: pool, MinVersion: tls.VersionTLS12}, nil
}

// Topic returns the topic a message of the given kind is published to.
func (p *PahoPublisher) Topic(kind string) string { return p.cfg.TopicPrefix + "/" + kind }

// Publish sends msg as JSON on the kind's topic, retrying with exponential
// backoff up to MaxRetries extra times.
func (p *PahoPublisher) Publish(ctx context.Context, kind string, msg Message) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("mqtt: encode: %w", err)
	}
	topic := p.Topic(kind)
	attempt := 0
	err = retry.Exponential(ctx, p.cfg.MaxRetries+1, p.backoff, func() error {
		attempt++
		token := p.cli.Publish(topic, p.cfg.QoS, p.cfg.Retain, payload)
		token.Wait()
		if err := token.Error(); err != nil {
			p.logger.Errorf("publish attempt %d failed: %v", attempt, err)
			return err
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("mqtt: publish %s: %w", topic, err)
	}
	p.logger.Debugf("published run %s to %s", msg.RunID, topic)
	return nil
}

// Close announces offline and disconnects.
func (p *PahoPublisher) Close() error {
	if p.cli != nil && p.cli.IsConnected() {
		p.cli.Publish(p.cfg.StatusTopic(), p.cfg.QoS, true, statusOffline).Wait()
		p.cli.Disconnect(250)
	}
	return nil
}
