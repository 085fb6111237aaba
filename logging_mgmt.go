package main

import (
	"context"
	"encoding/json"
	"fmt"
	"github.com/shimmeringbee/bridge/config"
	"github.com/shimmeringbee/logwrap"
	"github.com/shimmeringbee/logwrap/impl/filter"
	"github.com/shimmeringbee/logwrap/impl/golog"
	"github.com/shimmeringbee/logwrap/impl/nest"
	"github.com/shimmeringbee/logwrap/impl/tee"
	"gopkg.in/natefinch/lumberjack.v2"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
)

// Subsystems are the log sources the bridge tags its loggers with, logging configurations may only filter on these.
var Subsystems = []string{"commissioning", "dispatch", "stack", "zstack", "serial", "gpio", "mqtt", "http"}

// DefaultSubsystemLevels caps the verbosity of chatty subsystems unless a configuration names them in SubsystemLevels.
var DefaultSubsystemLevels = map[string]logwrap.LogLevel{
	"zstack": logwrap.Warn,
	"http":   logwrap.Warn,
}

func configureLogging(cfgDir string, logDir string, l logwrap.Logger) (logwrap.Logger, error) {
	logCfg, err := loadLoggingConfigurations(cfgDir, l)
	if err != nil {
		return l, err
	}

	var impls []logwrap.Impl

	for _, cfg := range logCfg {
		logWriter, baseCfg := constructLogWriter(cfg, logDir)
		if logWriter == nil {
			return l, fmt.Errorf("logging configuration '%s' has unsupported type '%s'", cfg.Name, cfg.Type)
		}

		impl, err := constructFilter(baseCfg, golog.Wrap(log.New(logWriter, "", log.LstdFlags)))
		if err != nil {
			return l, fmt.Errorf("failed to construct filter for logging '%s': %w", cfg.Name, err)
		}

		impls = append(impls, impl)

		l.LogInfo(context.Background(), "Constructed logging.", logwrap.Datum("name", cfg.Name), logwrap.Datum("type", cfg.Type))
	}

	if len(impls) == 0 {
		l.LogWarn(context.Background(), "No logging configurations loaded, continuing with stdout/stderr only.")
		return l, nil
	}

	l.LogDebug(context.Background(), "Handing over to new logging configuration.")

	return logwrap.New(tee.Tee(impls...)), nil
}

func loadLoggingConfigurations(cfgDir string, l logwrap.Logger) ([]config.LoggingConfig, error) {
	if err := os.MkdirAll(cfgDir, DefaultDirectoryPermissions); err != nil {
		return nil, fmt.Errorf("failed to ensure logging configuration directory exists: %w", err)
	}

	files, err := os.ReadDir(cfgDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory listing for logging configurations: %w", err)
	}

	var logCfg []config.LoggingConfig

	for _, file := range files {
		if file.IsDir() || !strings.HasSuffix(file.Name(), ".json") {
			continue
		}

		fullPath := filepath.Join(cfgDir, file.Name())
		data, err := os.ReadFile(fullPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read logging configuration file '%s': %w", fullPath, err)
		}

		cfg := config.LoggingConfig{
			Name: strings.TrimSuffix(file.Name(), filepath.Ext(file.Name())),
		}

		if err := json.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse logging configuration file '%s': %w", fullPath, err)
		}

		l.LogInfo(context.Background(), "Loaded logging configuration.", logwrap.Datum("name", cfg.Name), logwrap.Datum("type", cfg.Type))
		logCfg = append(logCfg, cfg)
	}

	return logCfg, nil
}

func constructLogWriter(cfg config.LoggingConfig, logDir string) (io.Writer, config.BaseLogging) {
	switch lCfg := cfg.Config.(type) {
	case *config.StdoutLogging:
		return os.Stderr, lCfg.BaseLogging
	case *config.FileLogging:
		return &lumberjack.Logger{
			Filename:   filepath.Join(logDir, lCfg.Filename),
			MaxSize:    lCfg.Size,
			MaxBackups: lCfg.Count,
			Compress:   lCfg.Compress,
		}, lCfg.BaseLogging
	default:
		return nil, config.BaseLogging{}
	}
}

func parseLogLevel(level string) (logwrap.LogLevel, error) {
	switch level {
	case "panic":
		return logwrap.Panic, nil
	case "fatal":
		return logwrap.Fatal, nil
	case "error":
		return logwrap.Error, nil
	case "warn":
		return logwrap.Warn, nil
	case "", "info":
		return logwrap.Info, nil
	case "debug":
		return logwrap.Debug, nil
	case "trace":
		return logwrap.Trace, nil
	default:
		return logwrap.Info, fmt.Errorf("unknown log level '%s'", level)
	}
}

// constructFilter builds a filter which drops messages more verbose than the level of their subsystem. A subsystem's
// level is taken from SubsystemLevels, then DefaultSubsystemLevels (never more verbose than Level), then Level.
func constructFilter(cfg config.BaseLogging, base logwrap.Impl) (logwrap.Impl, error) {
	level, err := parseLogLevel(cfg.Level)
	if err != nil {
		return base, err
	}

	for _, subsystem := range cfg.Subsystems {
		if !containsString(Subsystems, subsystem) {
			return base, fmt.Errorf("unknown subsystem '%s'", subsystem)
		}
	}

	levels := map[string]logwrap.LogLevel{}

	for subsystem, defaultLevel := range DefaultSubsystemLevels {
		if defaultLevel < level {
			levels[subsystem] = defaultLevel
		} else {
			levels[subsystem] = level
		}
	}

	for subsystem, subsystemLevel := range cfg.SubsystemLevels {
		if !containsString(Subsystems, subsystem) {
			return base, fmt.Errorf("unknown subsystem '%s'", subsystem)
		}

		if levels[subsystem], err = parseLogLevel(subsystemLevel); err != nil {
			return base, fmt.Errorf("subsystem '%s': %w", subsystem, err)
		}
	}

	return filter.Filter(base, func(message logwrap.Message) bool {
		messageLevel, found := levels[message.Source]
		if !found {
			messageLevel = level
		}

		if message.Level > messageLevel {
			return false
		}

		if len(cfg.Subsystems) == 0 {
			return true
		}

		return cfg.NegateSubsystems != containsString(cfg.Subsystems, message.Source)
	}), nil
}

// subsystemLogger nests l with the source tag used by logging configuration filters.
func subsystemLogger(l logwrap.Logger, source string) logwrap.Logger {
	sl := logwrap.New(nest.Wrap(l))
	sl.AddOptionsToLogger(logwrap.Source(source))
	return sl
}
