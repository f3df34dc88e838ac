package config

import (
	"flag"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ParseFlags parses command line flags and returns the config file path
func ParseFlags() (configFile string, generateConfig bool, err error) {
	flag.StringVar(&configFile, "config", "", "Path to configuration file")
	flag.BoolVar(&generateConfig, "generate-config", false, "Print an example configuration file and exit")

	help := flag.Bool("help", false, "Show help")

	flag.Parse()

	if *help {
		flag.Usage()
		os.Exit(0)
	}

	if generateConfig {
		return "", true, nil
	}

	return configFile, false, nil
}

// ExampleConfigYAML renders the default configuration as YAML
func ExampleConfigYAML() ([]byte, error) {
	data, err := yaml.Marshal(getDefaultConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to marshal example config: %w", err)
	}
	return data, nil
}

// GenerateExampleConfig prints an example configuration file to stdout
func GenerateExampleConfig() error {
	data, err := ExampleConfigYAML()
	if err != nil {
		return err
	}
	fmt.Println("# Notes API configuration. Every key can be overridden by the")
	fmt.Println("# environment variable named in its env tag, e.g. PORT or DATABASE_URL.")
	fmt.Print(string(data))
	return nil
}
