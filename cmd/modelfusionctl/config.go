package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// fileConfig mirrors the optional YAML configuration file. Every value can
// be overridden by environment variables (MODELFUSION_*) and flags.
type fileConfig struct {
	APIURL    string `yaml:"api_url"`
	Username  string `yaml:"username"`
	APIKey    string `yaml:"api_key"`
	Store     string `yaml:"store"`
	DBPath    string `yaml:"db_path"`
	MaxModels int    `yaml:"max_models"`
}

func loadConfig(path string) (fileConfig, error) {
	var cfg fileConfig
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return fileConfig{}, fmt.Errorf("load config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return fileConfig{}, fmt.Errorf("parse config: %w", err)
		}
	}
	applyEnvOverrides(&cfg)
	return cfg, nil
}

func applyEnvOverrides(cfg *fileConfig) {
	if v := os.Getenv("MODELFUSION_API_URL"); v != "" {
		cfg.APIURL = v
	}
	if v := os.Getenv("MODELFUSION_USERNAME"); v != "" {
		cfg.Username = v
	}
	if v := os.Getenv("MODELFUSION_API_KEY"); v != "" {
		cfg.APIKey = v
	}
	if v := os.Getenv("MODELFUSION_STORE"); v != "" {
		cfg.Store = v
	}
	if v := os.Getenv("MODELFUSION_DB_PATH"); v != "" {
		cfg.DBPath = v
	}
}
