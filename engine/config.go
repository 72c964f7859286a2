// Package engine provides the client engine factory and configuration.
package engine

import (
	"os"
	"runtime"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/ndn-go/ndnkit/log"
)

// ClientConfig is the client configuration read from client.yml.
type ClientConfig struct {
	// TransportUri is the forwarder transport, e.g. unix:///run/nfd/nfd.sock,
	// tcp://127.0.0.1:6363 or wss://suns.cs.ucla.edu/ws/.
	TransportUri string `yaml:"transport"`
	// LogLevel is one of trace, debug, info, warn, error.
	LogLevel string `yaml:"log_level"`
}

func defaultClientConfig() ClientConfig {
	transportUri := "unix:///run/nfd/nfd.sock"
	if runtime.GOOS == "darwin" {
		transportUri = "unix:///var/run/nfd/nfd.sock"
	}
	return ClientConfig{TransportUri: transportUri}
}

// GetClientConfig reads the client configuration. Files are read in
// order of increasing priority; the NDN_CLIENT_TRANSPORT environment
// variable overrides all of them.
func GetClientConfig() ClientConfig {
	config := defaultClientConfig()

	configDirs := []string{
		"/etc/ndn",
		"/usr/local/etc/ndn",
		os.Getenv("HOME") + "/.ndn",
	}

	for _, dir := range configDirs {
		filename := dir + "/client.yml"

		content, err := os.ReadFile(filename)
		if err != nil {
			continue
		}

		var fileConf ClientConfig
		if err := yaml.UnmarshalWithOptions(content, &fileConf, yaml.Strict()); err != nil {
			log.Warn(nil, "Skipping malformed client config", "file", filename, "err", err)
			continue
		}

		if fileConf.TransportUri != "" {
			config.TransportUri = fileConf.TransportUri
		}
		if fileConf.LogLevel != "" {
			config.LogLevel = fileConf.LogLevel
		}
	}

	if transportEnv := os.Getenv("NDN_CLIENT_TRANSPORT"); transportEnv != "" {
		config.TransportUri = transportEnv
	}

	if config.LogLevel != "" {
		if level, err := log.ParseLevel(strings.ToUpper(config.LogLevel)); err == nil {
			log.Default().SetLevel(level)
		} else {
			log.Warn(nil, "Invalid log level in client config", "level", config.LogLevel)
		}
	}

	return config
}
