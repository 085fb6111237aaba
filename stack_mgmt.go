package main

import (
	"fmt"
	"github.com/shimmeringbee/bridge/config"
	"github.com/shimmeringbee/bridge/stack"
	"github.com/shimmeringbee/logwrap"
	"github.com/shimmeringbee/persistence/impl/memory"
	"github.com/shimmeringbee/zigbee"
	"github.com/shimmeringbee/zstack"
	"go.bug.st/serial.v1"
)

const CommissioningRecordFile = "commissioning.json"

func startStack(cfg config.StackConfig, network zigbee.NetworkConfiguration, endpoints config.EndpointsConfig, recordPath string, l logwrap.Logger) (*stack.Node, func(), error) {
	journal, err := stack.OpenFileJournal(recordPath)
	if err != nil {
		return nil, nil, err
	}

	basic := stack.BasicInformation{Manufacturer: endpoints.Manufacturer, Model: endpoints.Model}

	switch sCfg := cfg.Config.(type) {
	case *config.ZStackConfig:
		return startZStack(*sCfg, network, journal, basic, l)
	default:
		return nil, nil, fmt.Errorf("unknown stack type loaded: %s", cfg.Type)
	}
}

// startZStack opens the radio, the radio is initialised later by the node's commissioning.
func startZStack(cfg config.ZStackConfig, network zigbee.NetworkConfiguration, journal stack.Journal, basic stack.BasicInformation, l logwrap.Logger) (*stack.Node, func(), error) {
	port, err := serial.Open(cfg.Port.Name, &serial.Mode{BaudRate: cfg.Port.Baud})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open serial port for zstack '%s': %w", cfg.Port.Name, err)
	}

	z := zstack.New(port, memory.New())
	z.WithLogWrapLogger(subsystemLogger(l, "zstack"))

	n := stack.New(z, network, journal, basic, subsystemLogger(l, "stack"))

	return n, func() {
		z.Stop()
		port.Close()
	}, nil
}
