package main

import (
	"context"
	"flag"
	"fmt"
	"github.com/peterbourgon/ff/v3"
	"github.com/shimmeringbee/logwrap"
	"os"
	"path/filepath"
)

const DefaultDirectoryPermissions = 0700

const LoggingConfigurationDirectory = "logging"

// Directories locate everything the bridge reads and writes, bridge.json and logging live under Config, the
// commissioning record under Data.
type Directories struct {
	Config string
	Data   string
	Log    string
}

func (d Directories) BridgeConfiguration() string {
	return filepath.Join(d.Config, BridgeConfigurationFile)
}

func (d Directories) LoggingConfigurations() string {
	return filepath.Join(d.Config, LoggingConfigurationDirectory)
}

func (d Directories) CommissioningRecord() string {
	return filepath.Join(d.Data, CommissioningRecordFile)
}

func (d Directories) ensure() error {
	for name, dir := range map[string]string{"configuration": d.Config, "data": d.Data, "log": d.Log} {
		if err := os.MkdirAll(dir, DefaultDirectoryPermissions); err != nil {
			return fmt.Errorf("failed to initialise %s directory: %w", name, err)
		}
	}

	return nil
}

func enumerateDirectories(ctx context.Context, l logwrap.Logger) Directories {
	root, err := defaultRoot()
	if err != nil {
		l.LogFatal(ctx, "Failed to construct default directories.", logwrap.Err(err))
	}

	dirs, err := parseDirectories(os.Args[1:], root)
	if err != nil {
		l.LogFatal(ctx, "Failed to parse environment/command line arguments.", logwrap.Err(err))
	}

	if err := dirs.ensure(); err != nil {
		l.LogFatal(ctx, "Failed to initialise directories.", logwrap.Err(err))
	}

	return dirs
}

// parseDirectories reads the directory flags, or their environment equivalents, defaulting each to a child of root.
func parseDirectories(args []string, root string) (Directories, error) {
	fs := flag.NewFlagSet("bridge", flag.ContinueOnError)

	configDirectory := fs.String("config-directory", filepath.Join(root, "config"), "location of bridge.json and logging configurations")
	dataDirectory := fs.String("data-directory", filepath.Join(root, "data"), "location of the commissioning record")
	logDirectory := fs.String("log-directory", filepath.Join(root, "log"), "location of log files")

	if err := ff.Parse(fs, args, ff.WithEnvVarNoPrefix()); err != nil {
		return Directories{}, err
	}

	return Directories{
		Config: *configDirectory,
		Data:   *dataDirectory,
		Log:    *logDirectory,
	}, nil
}

func defaultRoot() (string, error) {
	if configDir, err := os.UserConfigDir(); err != nil {
		return "", err
	} else {
		return filepath.Join(configDir, "shimmeringbee", "bridge"), nil
	}
}
