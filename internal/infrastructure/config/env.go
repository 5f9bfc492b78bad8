package config

import (
	"os"
	"strconv"
)

// envPrefix starts every override variable, e.g. ECONEXT_DEVICE_HOST.
const envPrefix = "ECONEXT_"

// envString and envInt map a variable suffix to the field it overrides.
func envString(cfg *Config) map[string]*string {
	return map[string]*string{
		"DEVICE_HOST":     &cfg.Device.Host,
		"DEVICE_USERNAME": &cfg.Device.Username,
		"DEVICE_PASSWORD": &cfg.Device.Password,
		"DATABASE_PATH":   &cfg.Database.Path,
		"MQTT_HOST":       &cfg.MQTT.Broker.Host,
		"MQTT_USERNAME":   &cfg.MQTT.Auth.Username,
		"MQTT_PASSWORD":   &cfg.MQTT.Auth.Password,
		"API_HOST":        &cfg.API.Host,
		"ENTITIES_FILE":   &cfg.Entities.File,
		"LOG_LEVEL":       &cfg.Logging.Level,
		"LOG_FORMAT":      &cfg.Logging.Format,
	}
}

func envInt(cfg *Config) map[string]*int {
	return map[string]*int{
		"DEVICE_PORT": &cfg.Device.Port,
		"MQTT_PORT":   &cfg.MQTT.Broker.Port,
		"API_PORT":    &cfg.API.Port,
	}
}

// applyEnvOverrides copies every non-empty ECONEXT_* variable into cfg.
// Numeric variables that do not parse are ignored.
func applyEnvOverrides(cfg *Config) {
	for name, field := range envString(cfg) {
		if v := os.Getenv(envPrefix + name); v != "" {
			*field = v
		}
	}
	for name, field := range envInt(cfg) {
		if n, err := strconv.Atoi(os.Getenv(envPrefix + name)); err == nil {
			*field = n
		}
	}
}
