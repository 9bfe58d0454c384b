// Package config reads process configuration from the environment.
package config

import (
	"os"
	"strconv"
	"strings"
)

// Config is the process level configuration. Translation settings live in
// the file named by SettingsPath and are loaded per run.
type Config struct {
	Environment         string
	LogLevel            string
	SettingsPath        string
	ProductsDB          string
	MultilingualEnabled bool
	QueueFunction       string
	APIToken            string
}

// FromEnv reads the configuration using getenv, typically os.Getenv.
func FromEnv(getenv func(string) string) Config {
	c := Config{
		Environment:   getenv("ENVIRONMENT"),
		LogLevel:      getenv("LOG_LEVEL"),
		SettingsPath:  getenv("SETTINGS_PATH"),
		ProductsDB:    getenv("PRODUCTS_DB"),
		QueueFunction: getenv("TRANSLATION_QUEUE_FUNCTION"),
		APIToken:      getenv("API_TOKEN"),
	}
	if c.Environment == "" {
		c.Environment = "dev"
	}
	if c.SettingsPath == "" {
		c.SettingsPath = "settings.yaml"
	}
	if c.ProductsDB == "" {
		c.ProductsDB = "products.db"
	}
	// Inside Lambda the worker queues onto itself unless told otherwise.
	if c.QueueFunction == "" {
		c.QueueFunction = getenv("AWS_LAMBDA_FUNCTION_NAME")
	}
	c.MultilingualEnabled, _ = strconv.ParseBool(strings.TrimSpace(getenv("MULTILINGUAL_ENABLED")))
	return c
}

// Load reads the configuration from the process environment.
func Load() Config {
	return FromEnv(os.Getenv)
}
