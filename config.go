package main

import (
	"sync"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
)

// Config is the process-wide credential bundle. It is read once at startup
// and never mutated afterwards; components that need a key check for it
// themselves and fail with a ConfigurationError naming the key.
type Config struct {
	APIBase           string `env:"ohme_api_base"`
	Username          string `env:"ohme_username"`
	Password          string `env:"ohme_password"`
	FirebaseSDKKey    string `env:"ohme_firebase_sdk_key"`
	FirebaseToken     string `env:"ohme_firebase_token"`
	InstallationToken string `env:"ohme_firebase_installation_token"`
	DeviceToken       string `env:"ohme_firebase_device_token"`
	SchemaFile        string `env:"ohme_schema_file" env-default:"ohme_minimum_schema.json"`
	DebugLog          bool   `env:"ohme_debug" env-default:"false"`
}

var _configInstance *Config
var _configOnce sync.Once

func GetConfig() *Config {
	_configOnce.Do(func() {
		_configInstance = &Config{}
		_configInstance.ReadConfig()
	})
	return _configInstance
}

func (c *Config) ReadConfig() {
	if err := godotenv.Load(); err == nil {
		log.Debug("loaded environment from .env")
	}
	if err := cleanenv.ReadEnv(c); err != nil {
		log.Fatalf("could not read configuration: %s", err.Error())
	}
	if c.DebugLog {
		log.SetLevel(log.DebugLevel)
	}
}
