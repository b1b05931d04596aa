package conf

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestSaveYAMLConfig(t *testing.T) {
	settings := validSettings()
	settings.Main.Name = "node-7"
	settings.Classifier.CriticalMethods = []string{"UZK", "MFL"}
	configPath := filepath.Join(t.TempDir(), "config.yaml")

	require.NoError(t, SaveYAMLConfig(configPath, settings))

	data, err := os.ReadFile(configPath)
	require.NoError(t, err)

	var loaded Settings
	require.NoError(t, yaml.Unmarshal(data, &loaded))
	assert.Equal(t, "node-7", loaded.Main.Name)
	assert.Equal(t, settings.Classifier.Rules, loaded.Classifier.Rules)
	assert.Equal(t, settings.Classifier.CriticalMethods, loaded.Classifier.CriticalMethods)
	assert.Equal(t, "pipewatch.db", loaded.Output.SQLite.Path)
}

func TestSaveYAMLConfigBadPath(t *testing.T) {
	err := SaveYAMLConfig(filepath.Join(t.TempDir(), "missing", "config.yaml"), validSettings())
	assert.Error(t, err)
}
