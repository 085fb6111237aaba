package main

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	pahomqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
	"github.com/shimmeringbee/bridge/actuator"
	gpiobackend "github.com/shimmeringbee/bridge/actuator/gpio"
	mqttbackend "github.com/shimmeringbee/bridge/actuator/mqtt"
	serialbackend "github.com/shimmeringbee/bridge/actuator/serial"
	"github.com/shimmeringbee/bridge/config"
	"github.com/shimmeringbee/bridge/registry"
	"github.com/shimmeringbee/bridge/state"
	"github.com/shimmeringbee/logwrap"
	"github.com/shimmeringbee/zigbee"
	url2 "net/url"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"
)

const (
	DefaultMQTTConnectTimeout    = 10 * time.Second
	DefaultMQTTDisconnectQuiesce = 1500
)

// constructedBackend is an actuator backend plus a description of what drives each endpoint.
type constructedBackend struct {
	Backend     actuator.Backend
	Descriptors [registry.Size]string
	Shutdown    func()
}

func constructBackend(cfg config.BackendConfig, base zigbee.Endpoint, p state.EventPublisher, l logwrap.Logger) (constructedBackend, error) {
	switch bCfg := cfg.Config.(type) {
	case *config.SerialBackend:
		return constructSerialBackend(*bCfg, base, p, subsystemLogger(l, "serial"))
	case *config.GPIOBackend:
		return constructGPIOBackend(*bCfg, base, subsystemLogger(l, "gpio"))
	case *config.MQTTBackend:
		return constructMQTTBackend(*bCfg, base, subsystemLogger(l, "mqtt"))
	default:
		return constructedBackend{}, fmt.Errorf("unknown backend type loaded: %s", cfg.Type)
	}
}

func constructSerialBackend(cfg config.SerialBackend, base zigbee.Endpoint, p state.EventPublisher, l logwrap.Logger) (constructedBackend, error) {
	if len(cfg.Port) == 0 {
		return constructedBackend{}, fmt.Errorf("serial backend requires a port")
	}

	b := serialbackend.New(serialbackend.OpenPort(cfg.Port), l, p)

	cb := constructedBackend{
		Backend: b,
		Shutdown: func() {
			if err := b.Close(); err != nil {
				l.LogWarn(context.Background(), "Failed to close serial port.", logwrap.Err(err))
			}
		},
	}

	for i := range cb.Descriptors {
		cb.Descriptors[i] = fmt.Sprintf("%s CMD:EP%d", cfg.Port, base+zigbee.Endpoint(i))
	}

	return cb, nil
}

func constructGPIOBackend(cfg config.GPIOBackend, base zigbee.Endpoint, l logwrap.Logger) (constructedBackend, error) {
	if len(cfg.Pins) != registry.Size {
		return constructedBackend{}, fmt.Errorf("gpio backend requires %d pins, %d configured", registry.Size, len(cfg.Pins))
	}

	cb := constructedBackend{Shutdown: func() {}}
	names := map[zigbee.Endpoint]string{}

	for i, pin := range cfg.Pins {
		names[base+zigbee.Endpoint(i)] = pin
		cb.Descriptors[i] = pin
	}

	cb.Backend = gpiobackend.NewDeferred(gpiobackend.Host(names), l)
	return cb, nil
}

func constructMQTTBackend(cfg config.MQTTBackend, base zigbee.Endpoint, l logwrap.Logger) (constructedBackend, error) {
	clientOptions, err := mqttClientOptions(cfg, l)
	if err != nil {
		return constructedBackend{}, err
	}

	var lock sync.Mutex
	var client pahomqtt.Client

	connector := func(ctx context.Context) (mqttbackend.Publisher, error) {
		c := pahomqtt.NewClient(clientOptions)

		if err := awaitToken(ctx, c.Connect()); err != nil {
			return nil, err
		}

		l.LogInfo(ctx, "MQTT client successfully connected.", logwrap.Datum("clientId", clientOptions.ClientID), logwrap.Datum("server", cfg.Server))

		lock.Lock()
		client = c
		lock.Unlock()

		return func(ctx context.Context, topic string, payload []byte) error {
			return awaitToken(ctx, c.Publish(topic, cfg.QOS, cfg.Retained, payload))
		}, nil
	}

	b := mqttbackend.New(connector, cfg.TopicFormat, l)

	cb := constructedBackend{
		Backend: b,
		Shutdown: func() {
			lock.Lock()
			defer lock.Unlock()

			if client != nil {
				client.Disconnect(DefaultMQTTDisconnectQuiesce)
			}
		},
	}

	for i := range cb.Descriptors {
		cb.Descriptors[i] = b.Topic(base + zigbee.Endpoint(i))
	}

	return cb, nil
}

func mqttClientOptions(cfg config.MQTTBackend, l logwrap.Logger) (*pahomqtt.ClientOptions, error) {
	clientOptions := pahomqtt.NewClientOptions()
	clientOptions.ClientID = fmt.Sprintf("zigbee-bridge-%s", uuid.New().String())
	clientOptions.SetAutoReconnect(true)
	clientOptions.SetConnectTimeout(DefaultMQTTConnectTimeout)

	if len(cfg.Server) == 0 {
		return nil, fmt.Errorf("mqtt backend requires a server")
	}

	if url, err := url2.Parse(cfg.Server); err != nil {
		return nil, fmt.Errorf("failed to parse MQTT server URL '%s': %w", cfg.Server, err)
	} else {
		clientOptions.Servers = []*url2.URL{url}
	}

	clientOptions.SetConnectionLostHandler(func(client pahomqtt.Client, err error) {
		l.LogWarn(context.Background(), "MQTT client disconnected.", logwrap.Datum("clientId", clientOptions.ClientID), logwrap.Datum("server", cfg.Server), logwrap.Err(err))
	})

	if cfg.Credentials != nil {
		clientOptions.SetUsername(cfg.Credentials.Username)
		clientOptions.SetPassword(cfg.Credentials.Password)
	}

	if cfg.TLS != nil {
		tlsConfig, err := mqttTLSConfig(*cfg.TLS, l)
		if err != nil {
			return nil, err
		}

		clientOptions.SetTLSConfig(tlsConfig)
	}

	return clientOptions, nil
}

func mqttTLSConfig(cfg config.MQTTTLS, l logwrap.Logger) (*tls.Config, error) {
	tlsConfig := &tls.Config{InsecureSkipVerify: cfg.SkipCertificateVerification}

	if cfg.SkipCertificateVerification {
		l.LogWarn(context.Background(), "Set to ignore remote TLS certificate, this is considered insecure.")
	}

	if len(cfg.Cert) > 0 {
		cert, err := tls.LoadX509KeyPair(cfg.Cert, cfg.Key)
		if err != nil {
			return nil, fmt.Errorf("failed to load TLS certificate/key for mqtt: %w", err)
		}

		tlsConfig.Certificates = []tls.Certificate{cert}
	}

	var certPool *x509.CertPool

	if cfg.IgnoreSystemRootCertificates {
		l.LogInfo(context.Background(), "Configured to ignore system root certificates, ensure you are providing your own.")
		certPool = x509.NewCertPool()
	} else {
		var err error

		certPool, err = x509.SystemCertPool()
		if err != nil {
			if runtime.GOOS == "windows" {
				l.LogWarn(context.Background(), "Failed to load system certificate pool for root CAs, you must provide the CA root certificate for your servers trust chain.", logwrap.Err(err))
				certPool = x509.NewCertPool()
			} else {
				return nil, fmt.Errorf("failed to load system certificate pool: %w", err)
			}
		}
	}

	if len(cfg.CACert) > 0 {
		caCerts, err := os.ReadFile(filepath.Clean(cfg.CACert))
		if err != nil {
			return nil, fmt.Errorf("failed to load CA TLS certificates for mqtt: %w", err)
		}

		certPool.AppendCertsFromPEM(caCerts)
	}

	tlsConfig.RootCAs = certPool

	return tlsConfig, nil
}

func awaitToken(ctx context.Context, token pahomqtt.Token) error {
	select {
	case <-token.Done():
		return token.Error()
	case <-ctx.Done():
		return ctx.Err()
	}
}
