// Package config loads process configuration from a yaml file with
// environment overrides, and validates that every configured venue carries
// the credentials it needs.
package config

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"github.com/quantrelay/quantrelay/pkg/errors"
)

// VenueCredentials hold one crypto venue's API keys. Passphrase is only
// meaningful for venues that issue one (OKX).
type VenueCredentials struct {
	Key        string `mapstructure:"key"`
	Secret     string `mapstructure:"secret"`
	Passphrase string `mapstructure:"passphrase"`
}

// BrokerageAccount is one numbered brokerage account slot.
type BrokerageAccount struct {
	Number             int    `mapstructure:"number" validate:"min=1,max=4"`
	AppKey             string `mapstructure:"app_key" validate:"required"`
	AppSecret          string `mapstructure:"app_secret" validate:"required"`
	AccountNumber      string `mapstructure:"account_number" validate:"required"`
	AccountProductCode string `mapstructure:"account_product_code"`
}

// Config is the full process configuration.
type Config struct {
	ListenAddr string `mapstructure:"listen_addr"`
	// Password is the shared secret every order payload must carry.
	Password string `mapstructure:"password" validate:"required"`
	// AllowedIPs extends the built-in webhook egress allowlist.
	AllowedIPs []string `mapstructure:"allowed_ips"`
	// WebhookURL receives order notifications; empty disables them.
	WebhookURL    string `mapstructure:"webhook_url"`
	PolygonAPIKey string `mapstructure:"polygon_api_key"`

	CallTimeout    time.Duration `mapstructure:"call_timeout"`
	TokenStorePath string        `mapstructure:"token_store_path"`

	// PercentBias overrides the per-venue resolution bias, keyed by venue
	// name (lowercase).
	PercentBias map[string]float64 `mapstructure:"percent_bias"`

	// Venues holds crypto venue credentials keyed by venue name (lowercase).
	Venues map[string]VenueCredentials `mapstructure:"venues"`

	// KISAccounts are the brokerage account slots for the stock venues.
	KISAccounts []BrokerageAccount `mapstructure:"kis_accounts" validate:"dive"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Load reads the yaml file at path (optional when empty) and applies
// QR_-prefixed environment overrides, e.g. QR_PASSWORD, QR_LISTEN_ADDR.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix("QR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("listen_addr", ":8000")
	v.SetDefault("call_timeout", 10*time.Second)
	v.SetDefault("token_store_path", "tokens.db")

	// Viper only applies env overrides to keys it already knows about.
	for _, key := range []string{"password", "webhook_url", "polygon_api_key"} {
		v.SetDefault(key, "")
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidParameter, "read config file", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidParameter, "parse config", err)
	}

	for i := range cfg.KISAccounts {
		if cfg.KISAccounts[i].AccountProductCode == "" {
			cfg.KISAccounts[i].AccountProductCode = "01"
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks the config. Credentials are only demanded for venues that
// are actually configured; unconfigured venues simply reject orders at
// runtime.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidParameter, "invalid config", err)
	}

	for name, creds := range c.Venues {
		if creds.Key == "" || creds.Secret == "" {
			return errors.Newf(errors.ErrCodeInvalidParameter,
				"venue %s is configured without key/secret", name)
		}

		if strings.EqualFold(name, "okx") && creds.Passphrase == "" {
			return errors.Newf(errors.ErrCodeInvalidParameter,
				"venue %s requires a passphrase", name)
		}
	}

	seen := make(map[int]bool, len(c.KISAccounts))
	for _, account := range c.KISAccounts {
		if seen[account.Number] {
			return errors.Newf(errors.ErrCodeInvalidParameter,
				"duplicate brokerage account slot %d", account.Number)
		}

		seen[account.Number] = true
	}

	return nil
}

// VenueCreds returns the credentials configured for a venue name
// (case-insensitive).
func (c *Config) VenueCreds(name string) (VenueCredentials, bool) {
	creds, ok := c.Venues[strings.ToLower(name)]

	return creds, ok
}

// KISAccount returns the brokerage account for a slot number.
func (c *Config) KISAccount(number int) (BrokerageAccount, bool) {
	for _, account := range c.KISAccounts {
		if account.Number == number {
			return account, true
		}
	}

	return BrokerageAccount{}, false
}

// BiasFor returns the configured percent bias for a venue, or the fallback.
func (c *Config) BiasFor(name string, fallback float64) float64 {
	if bias, ok := c.PercentBias[strings.ToLower(name)]; ok {
		return bias
	}

	return fallback
}
