package main

import (
	"github.com/stretchr/testify/assert"
	"os"
	"path/filepath"
	"testing"
)

func Test_parseDirectories(t *testing.T) {
	t.Run("defaults every directory beneath the root", func(t *testing.T) {
		dirs, err := parseDirectories(nil, "/var/lib/bridge")
		assert.NoError(t, err)

		assert.Equal(t, Directories{
			Config: "/var/lib/bridge/config",
			Data:   "/var/lib/bridge/data",
			Log:    "/var/lib/bridge/log",
		}, dirs)
	})

	t.Run("flags override the defaults", func(t *testing.T) {
		dirs, err := parseDirectories([]string{"--data-directory", "/mnt/bridge"}, "/var/lib/bridge")
		assert.NoError(t, err)

		assert.Equal(t, "/var/lib/bridge/config", dirs.Config)
		assert.Equal(t, "/mnt/bridge", dirs.Data)
	})

	t.Run("environment without prefix overrides the defaults", func(t *testing.T) {
		t.Setenv("LOG_DIRECTORY", "/var/log/bridge")

		dirs, err := parseDirectories(nil, "/var/lib/bridge")
		assert.NoError(t, err)

		assert.Equal(t, "/var/log/bridge", dirs.Log)
	})

	t.Run("errors on an unknown flag", func(t *testing.T) {
		_, err := parseDirectories([]string{"--gateway-directory", "/tmp"}, "/var/lib/bridge")
		assert.Error(t, err)
	})
}

func TestDirectories(t *testing.T) {
	t.Run("locates the bridge files", func(t *testing.T) {
		dirs := Directories{Config: "/etc/bridge", Data: "/var/lib/bridge", Log: "/var/log/bridge"}

		assert.Equal(t, "/etc/bridge/bridge.json", dirs.BridgeConfiguration())
		assert.Equal(t, "/etc/bridge/logging", dirs.LoggingConfigurations())
		assert.Equal(t, "/var/lib/bridge/commissioning.json", dirs.CommissioningRecord())
	})

	t.Run("creates every directory with restricted permissions", func(t *testing.T) {
		root := t.TempDir()
		dirs := Directories{Config: filepath.Join(root, "c"), Data: filepath.Join(root, "d"), Log: filepath.Join(root, "l")}

		assert.NoError(t, dirs.ensure())

		for _, dir := range []string{dirs.Config, dirs.Data, dirs.Log} {
			info, err := os.Stat(dir)
			assert.NoError(t, err)
			assert.True(t, info.IsDir())
			assert.Equal(t, os.FileMode(DefaultDirectoryPermissions), info.Mode().Perm())
		}
	})
}
