package trailer

import "fmt"

// Config carries the tenant-tunable dwell and detention parameters, so each
// tenant can set its own contract terms.
type Config struct {
	// DetentionFreeHours is the dwell allowance before detention accrues.
	DetentionFreeHours float64 `json:"detention_free_hours"`
	// DetentionHourlyRate is the charge per hour beyond the allowance.
	DetentionHourlyRate float64 `json:"detention_hourly_rate"`
	// LateAlertMinutes is the delay beyond which a late-arrival alert fires.
	LateAlertMinutes int `json:"late_alert_minutes"`
}

// SetDefaults applies sane defaults.
func (c *Config) SetDefaults() {
	if c.DetentionFreeHours == 0 {
		c.DetentionFreeHours = 2
	}
	if c.DetentionHourlyRate == 0 {
		c.DetentionHourlyRate = 75
	}
	if c.LateAlertMinutes == 0 {
		c.LateAlertMinutes = 30
	}
}

// Validate checks mandatory fields.
func (c Config) Validate() error {
	if c.DetentionFreeHours < 0 || c.DetentionHourlyRate < 0 {
		return fmt.Errorf("detention parameters must not be negative")
	}
	if c.LateAlertMinutes < 0 {
		return fmt.Errorf("late_alert_minutes must not be negative")
	}
	return nil
}
