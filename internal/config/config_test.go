package config

import (
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
)

func TestFromViperDefaults(t *testing.T) {
	v := viper.New()
	setDefaults(v)

	cfg := fromViper(v)

	assert.Equal(t, 90, cfg.Forecast.TrainingLookbackDays)
	assert.Equal(t, 60, cfg.Forecast.FeatureLookbackDays)
	assert.Equal(t, 14, cfg.Forecast.MinObservations)
	assert.Equal(t, 30, cfg.Forecast.WarmupDays)
	assert.Equal(t, 14, cfg.Forecast.MinTrainingRows)
	assert.False(t, cfg.Forecast.ConfidenceFromFit)
	assert.Equal(t, "filesystem", cfg.ModelStore.Backend)
	assert.False(t, cfg.Cache.Enabled)
	assert.Equal(t, 300, cfg.Cache.ForecastTTLSeconds)
}

func TestFromViperOverrides(t *testing.T) {
	v := viper.New()
	setDefaults(v)
	v.Set("FORECAST_MIN_OBSERVATIONS", 7)
	v.Set("MODEL_STORE_BACKEND", "redis")
	v.Set("CACHE_ENABLED", true)

	cfg := fromViper(v)

	assert.Equal(t, 7, cfg.Forecast.MinObservations)
	assert.Equal(t, "redis", cfg.ModelStore.Backend)
	assert.True(t, cfg.Cache.Enabled)
}
