package config

import (
	"log"

	"github.com/spf13/viper"

	"equipment-risk-gateway/internal/alerting"
	"equipment-risk-gateway/internal/auth"
	"equipment-risk-gateway/internal/risk"
)

// Config is the gateway's startup configuration. Thresholds and alert
// settings here are bootstrap values only; after startup the live values
// are owned by their stores and changed through the management API.
type Config struct {
	Server struct {
		DataPort int `mapstructure:"data_port"`
		UIPort   int `mapstructure:"ui_port"`
	} `mapstructure:"server"`
	Auth       auth.Config          `mapstructure:"auth"`
	Thresholds risk.ThresholdPolicy `mapstructure:"thresholds"`
	Alerts     alerting.Settings    `mapstructure:"alerts"`
	SMTP       struct {
		Addr string `mapstructure:"addr"`
		From string `mapstructure:"from"`
	} `mapstructure:"smtp"`
}

// Load reads config.yaml from path, falling back to built-in defaults for
// anything missing. Environment variables override file values.
func Load(path string) (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(path)
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		log.Printf("config: no config file read, using defaults: %v", err)
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults() {
	viper.SetDefault("server.data_port", 8080)
	viper.SetDefault("server.ui_port", 8081)
	viper.SetDefault("auth.jwt_expiration", 60)
	viper.SetDefault("smtp.from", "noreply@equipment-risk-gateway.local")

	defaults := risk.DefaultPolicy()
	viper.SetDefault("thresholds.pressure_warning", defaults.PressureWarning)
	viper.SetDefault("thresholds.pressure_critical", defaults.PressureCritical)
	viper.SetDefault("thresholds.temperature_warning", defaults.TemperatureWarning)
	viper.SetDefault("thresholds.temperature_critical", defaults.TemperatureCritical)
	viper.SetDefault("thresholds.flowrate_min", defaults.FlowrateMin)
	viper.SetDefault("thresholds.flowrate_max", defaults.FlowrateMax)

	alerts := alerting.DefaultSettings()
	viper.SetDefault("alerts.alert_on_critical", alerts.AlertOnCritical)
	viper.SetDefault("alerts.alert_on_warning", alerts.AlertOnWarning)
	viper.SetDefault("alerts.alert_on_maintenance_due", alerts.AlertOnMaintenanceDue)
	viper.SetDefault("alerts.maintenance_reminder_days", alerts.MaintenanceReminderDays)
}
