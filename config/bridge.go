package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"github.com/shimmeringbee/zigbee"
)

const (
	DefaultBaseEndpoint = zigbee.Endpoint(10)
	DefaultManufacturer = "ESP_CUSTOM"
	DefaultModel        = "ESP_LIGHT"
)

type BridgeConfig struct {
	Backend   BackendConfig
	Stack     StackConfig
	Network   *zigbee.NetworkConfiguration
	Endpoints EndpointsConfig
	HTTP      *HTTPConfig
}

type EndpointsConfig struct {
	Base         zigbee.Endpoint
	Manufacturer string
	Model        string
}

var ErrMissingStanza = errors.New("missing configuration stanza")

// ParseBridge decodes the bridge configuration, endpoint settings not present keep their defaults.
func ParseBridge(data []byte) (BridgeConfig, error) {
	cfg := BridgeConfig{
		Endpoints: EndpointsConfig{
			Base:         DefaultBaseEndpoint,
			Manufacturer: DefaultManufacturer,
			Model:        DefaultModel,
		},
	}

	if err := json.Unmarshal(data, &cfg); err != nil {
		return BridgeConfig{}, err
	}

	switch {
	case cfg.Backend.Config == nil:
		return BridgeConfig{}, fmt.Errorf("%w: Backend", ErrMissingStanza)
	case cfg.Stack.Config == nil:
		return BridgeConfig{}, fmt.Errorf("%w: Stack", ErrMissingStanza)
	case cfg.Network == nil:
		return BridgeConfig{}, fmt.Errorf("%w: Network", ErrMissingStanza)
	}

	return cfg, nil
}
