package conf

import (
	"fmt"
)

// ValidateSettings checks the loaded settings for values the application
// cannot safely run with.
func ValidateSettings(settings *Settings) error {
	if err := validateClassifierSettings(&settings.Classifier); err != nil {
		return err
	}
	if err := validateOutputSettings(settings); err != nil {
		return err
	}
	return nil
}

func validateClassifierSettings(c *ClassifierSettings) error {
	if c.Rules.DepthMedium < 0 || c.Rules.DepthHigh < 0 {
		return fmt.Errorf("classifier depth thresholds must be non-negative, got medium=%f high=%f",
			c.Rules.DepthMedium, c.Rules.DepthHigh)
	}
	if c.Rules.DepthMedium >= c.Rules.DepthHigh {
		return fmt.Errorf("classifier depth threshold medium (%f) must be below high (%f)",
			c.Rules.DepthMedium, c.Rules.DepthHigh)
	}
	if c.Normalization.TemperatureMin >= c.Normalization.TemperatureMax {
		return fmt.Errorf("temperature normalization bounds invalid: min %f >= max %f",
			c.Normalization.TemperatureMin, c.Normalization.TemperatureMax)
	}
	if c.Normalization.HumidityMin >= c.Normalization.HumidityMax {
		return fmt.Errorf("humidity normalization bounds invalid: min %f >= max %f",
			c.Normalization.HumidityMin, c.Normalization.HumidityMax)
	}
	return nil
}

func validateOutputSettings(settings *Settings) error {
	if !settings.Output.SQLite.Enabled && !settings.Output.MySQL.Enabled {
		return fmt.Errorf("no database output enabled, enable either sqlite or mysql")
	}
	if settings.Output.SQLite.Enabled && settings.Output.SQLite.Path == "" {
		return fmt.Errorf("sqlite output enabled but path is empty")
	}
	return nil
}
