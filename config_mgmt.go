package main

import (
	"errors"
	"fmt"
	"github.com/shimmeringbee/bridge/config"
	"os"
)

const BridgeConfigurationFile = "bridge.json"

func loadBridgeConfiguration(path string) (config.BridgeConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return config.BridgeConfig{}, fmt.Errorf("no bridge configuration found at '%s'", path)
		}

		return config.BridgeConfig{}, fmt.Errorf("failed to read bridge configuration file '%s': %w", path, err)
	}

	cfg, err := config.ParseBridge(data)
	if err != nil {
		return config.BridgeConfig{}, fmt.Errorf("failed to parse bridge configuration file '%s': %w", path, err)
	}

	return cfg, nil
}
