package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate reports every problem at once, joined with errors.Join.
func (c *Config) Validate() error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf(format, args...))
		}
	}

	check(c.Device.Host != "", "device.host is required (or set %sDEVICE_HOST)", envPrefix)
	check(validPort(c.Device.Port), "device.port %d out of range", c.Device.Port)
	check(c.Device.Timeout >= 1, "device.timeout must be at least 1 second")
	check(c.Device.PollInterval >= 1, "device.poll_interval must be at least 1 second")
	switch c.Device.SetParamKey {
	case "", "index", "name":
	default:
		check(false, "device.set_param_key %q must be index or name", c.Device.SetParamKey)
	}

	check(c.Database.Path != "", "database.path is required")
	check(c.MQTT.QoS >= 0 && c.MQTT.QoS <= 2, "mqtt.qos %d must be 0, 1 or 2", c.MQTT.QoS)

	if ha := c.HomeAssistant; ha.Enabled {
		check(ha.DiscoveryPrefix != "", "homeassistant.discovery_prefix is required")
		check(ha.TopicPrefix != "", "homeassistant.topic_prefix is required")
		check(!strings.ContainsAny(ha.TopicPrefix, "+#"), "homeassistant.topic_prefix %q contains an MQTT wildcard", ha.TopicPrefix)
	}

	if c.API.Enabled {
		check(validPort(c.API.Port), "api.port %d out of range", c.API.Port)
	}

	return errors.Join(errs...)
}

func validPort(p int) bool {
	return p >= 1 && p <= 65535
}
