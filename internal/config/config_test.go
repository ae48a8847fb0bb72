package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("APP_ENV", "test")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 95.0, cfg.Pricing.DiscountCapPercent)
	assert.Equal(t, "INR", cfg.Pricing.Currency)
	assert.Equal(t, 4, cfg.Pricing.CheckoutGroupConcurrency)
	assert.Equal(t, 24*time.Hour, cfg.Pricing.IdempotencyTTL)
	assert.Equal(t, 2*time.Minute, cfg.Pricing.IdempotencyClaimTTL)
	assert.Equal(t, "Asia/Kolkata", cfg.PricingLocation().String())
	assert.Empty(t, cfg.Kafka.Brokers)
	assert.False(t, cfg.IsDevelopment())
}

func TestLoad_OverridesFromEnvironment(t *testing.T) {
	t.Setenv("DISCOUNT_CAP_PERCENT", "80.5")
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092, kafka-2:9092,")
	t.Setenv("CHECKOUT_GROUP_CONCURRENCY", "8")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 80.5, cfg.Pricing.DiscountCapPercent)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, 8, cfg.Pricing.CheckoutGroupConcurrency)
}

func TestValidate_RejectsBadPricingPolicy(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
		want   string
	}{
		{"cap above 100", func(c *Config) { c.Pricing.DiscountCapPercent = 120 }, "DISCOUNT_CAP_PERCENT"},
		{"negative cap", func(c *Config) { c.Pricing.DiscountCapPercent = -1 }, "DISCOUNT_CAP_PERCENT"},
		{"zero concurrency", func(c *Config) { c.Pricing.CheckoutGroupConcurrency = 0 }, "CHECKOUT_GROUP_CONCURRENCY"},
		{"bad currency", func(c *Config) { c.Pricing.Currency = "RUPEE" }, "CURRENCY"},
		{"claim shorter than a request", func(c *Config) { c.Pricing.IdempotencyClaimTTL = 10 * time.Second }, "CHECKOUT_IDEMPOTENCY_CLAIM_TTL"},
		{"unknown timezone", func(c *Config) { c.Pricing.Timezone = "Mars/Olympus" }, "PRICING_TIMEZONE"},
		{"short secret", func(c *Config) { c.JWT.Secret = "short" }, "JWT_SECRET"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load()
			require.NoError(t, err)

			tt.mutate(cfg)
			err = cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
