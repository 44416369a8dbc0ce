package config

import (
	"fmt"
)

// validate validates the configuration
func validate(cfg *Config) error {
	ports := map[string]int{
		"hytera.p2p_port":  cfg.Hytera.P2PPort,
		"hytera.rdac_port": cfg.Hytera.RDACPort,
		"hytera.dmr_port":  cfg.Hytera.DMRPort,
	}
	for name, port := range ports {
		if port <= 0 || port > 65535 {
			return fmt.Errorf("%s must be between 1 and 65535", name)
		}
	}

	// The repeater is redirected by port number, so the three endpoints
	// must not collide
	if cfg.Hytera.P2PPort == cfg.Hytera.RDACPort ||
		cfg.Hytera.P2PPort == cfg.Hytera.DMRPort ||
		cfg.Hytera.RDACPort == cfg.Hytera.DMRPort {
		return fmt.Errorf("hytera p2p/rdac/dmr ports must be distinct")
	}

	if cfg.Hytera.RDACStepTimeout < 0 {
		return fmt.Errorf("hytera.rdac_step_timeout must not be negative")
	}

	if cfg.Homebrew.Enabled {
		if cfg.Homebrew.MasterIP == "" {
			return fmt.Errorf("homebrew.master_ip is required when homebrew is enabled")
		}
		if cfg.Homebrew.MasterPort <= 0 || cfg.Homebrew.MasterPort > 65535 {
			return fmt.Errorf("homebrew.master_port must be between 1 and 65535")
		}
		if cfg.Homebrew.Passphrase == "" {
			return fmt.Errorf("homebrew.passphrase is required when homebrew is enabled")
		}
		if cfg.Homebrew.PingInterval <= 0 {
			return fmt.Errorf("homebrew.ping_interval must be positive")
		}
	}

	if cfg.SNMP.Enabled {
		if cfg.SNMP.Community == "" {
			return fmt.Errorf("snmp.community is required when snmp is enabled")
		}
		if cfg.SNMP.Port <= 0 || cfg.SNMP.Port > 65535 {
			return fmt.Errorf("snmp.port must be between 1 and 65535")
		}
	}

	if cfg.Web.Enabled {
		if cfg.Web.Port <= 0 || cfg.Web.Port > 65535 {
			return fmt.Errorf("web.port must be between 1 and 65535")
		}
	}

	if cfg.MQTT.Enabled {
		if cfg.MQTT.Broker == "" {
			return fmt.Errorf("mqtt.broker is required when mqtt is enabled")
		}
	}

	if cfg.Metrics.Enabled && cfg.Metrics.Prometheus.Enabled {
		if cfg.Metrics.Prometheus.Port <= 0 || cfg.Metrics.Prometheus.Port > 65535 {
			return fmt.Errorf("metrics.prometheus.port must be between 1 and 65535")
		}
	}

	return nil
}
