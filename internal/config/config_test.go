package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Run("Defaults", func(t *testing.T) {
		t.Setenv("DATABASE_URL", "postgres://localhost/wanderly")
		t.Setenv("JWT_SECRET", "secret")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "8080", cfg.Server.Port)
		assert.Equal(t, "LKR", cfg.Booking.DefaultCurrency)
		assert.Equal(t, 5, cfg.Booking.ReferenceMaxAttempts)
		assert.Equal(t, time.Hour, cfg.Payment.PendingExpiry)
		assert.Equal(t, "0 */5 * * * *", cfg.Payment.ExpirySchedule)
		assert.Equal(t, time.UTC, cfg.Location())
	})

	t.Run("Overrides", func(t *testing.T) {
		t.Setenv("DATABASE_URL", "postgres://localhost/wanderly")
		t.Setenv("JWT_SECRET", "secret")
		t.Setenv("DEFAULT_CURRENCY", "npr")
		t.Setenv("BOOKING_REFERENCE_MAX_ATTEMPTS", "8")
		t.Setenv("PAYMENT_PENDING_EXPIRY_MINUTES", "15")
		t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example ,")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "NPR", cfg.Booking.DefaultCurrency)
		assert.Equal(t, 8, cfg.Booking.ReferenceMaxAttempts)
		assert.Equal(t, 15*time.Minute, cfg.Payment.PendingExpiry)
		assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORS.AllowedOrigins)
	})

	t.Run("Invalid Integer Falls Back", func(t *testing.T) {
		t.Setenv("DATABASE_URL", "postgres://localhost/wanderly")
		t.Setenv("JWT_SECRET", "secret")
		t.Setenv("BOOKING_REFERENCE_MAX_ATTEMPTS", "many")

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, 5, cfg.Booking.ReferenceMaxAttempts)
	})
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Server:   ServerConfig{Environment: "development"},
			Database: DatabaseConfig{URL: "postgres://localhost/wanderly"},
			JWT:      JWTConfig{Secret: "secret"},
			Booking:  BookingConfig{DefaultCurrency: "LKR", ReferenceMaxAttempts: 5, Timezone: "UTC"},
		}
	}

	assert.NoError(t, valid().Validate())

	c := valid()
	c.Database.URL = ""
	assert.EqualError(t, c.Validate(), "DATABASE_URL is required")

	c = valid()
	c.Booking.DefaultCurrency = "RUPEE"
	assert.Error(t, c.Validate())

	c = valid()
	c.Booking.Timezone = "Mars/Olympus"
	assert.Error(t, c.Validate())

	c = valid()
	c.Server.Environment = "production"
	assert.EqualError(t, c.Validate(), "PAYMENT_WEBHOOK_SECRET is required in production")

	c.Payment.WebhookSecret = "whsec"
	assert.NoError(t, c.Validate())
}
