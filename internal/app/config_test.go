package app

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseConfString(t *testing.T) {
	require.Equal(t, "{log: {level: trace}}", string(parseConfString("log.level=trace")))
	require.Equal(t, "{bc: {cameras: {garage: bc://192.168.1.10}}}", string(parseConfString("bc.cameras.garage=bc://192.168.1.10")))
	require.Nil(t, parseConfString("neolink.yaml"))
	require.Nil(t, parseConfString("level=trace"))
}

func TestLoadConfig(t *testing.T) {
	defer func(c [][]byte) { configs = c }(configs)
	configs = nil

	initConfig(flagConfig{
		`{bc: {cameras: {garage: "bc://admin@192.168.1.10"}}}`,
		"bc.ping_interval=10s",
		"",
	})

	var cfg struct {
		Mod struct {
			Cameras      map[string]string `yaml:"cameras"`
			PingInterval string            `yaml:"ping_interval"`
		} `yaml:"bc"`
	}

	LoadConfig(&cfg)

	require.Equal(t, "bc://admin@192.168.1.10", cfg.Mod.Cameras["garage"])
	require.Equal(t, "10s", cfg.Mod.PingInterval)
}

func TestPatchConfig(t *testing.T) {
	defer func(s string) { ConfigPath = s }(ConfigPath)

	ConfigPath = ""
	require.NotNil(t, PatchConfig("garage", "bc://192.168.1.10", "bc", "cameras"))

	ConfigPath = filepath.Join(t.TempDir(), "neolink.yaml")
	require.Nil(t, os.WriteFile(ConfigPath, []byte("log:\n  level: debug\n"), 0644))

	require.Nil(t, PatchConfig("garage", "bc://192.168.1.10", "bc", "cameras"))

	b, err := os.ReadFile(ConfigPath)
	require.Nil(t, err)
	require.Equal(t, "log:\n  level: debug\nbc:\n  cameras:\n    garage: bc://192.168.1.10\n", string(b))
}
