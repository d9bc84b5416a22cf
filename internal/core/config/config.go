package config

import (
	"errors"
	"fmt"
	"reflect"
	"time"

	"freight-tracker/internal/core/proxy"

	"github.com/spf13/viper"
)

// AsOfLayout is the layout accepted by AS_OF_DATE.
const AsOfLayout = "2006-01-02"

// AppConfig holds the configuration for the application.
// Tags used:
// - mapstructure: used by viper to unmarshal
// - default: default value to set if missing
// - required: if "true", error if missing
type AppConfig struct {
	// Environment specifies the runtime environment (e.g., development, production).
	Environment string `mapstructure:"APP_ENV" default:"development"`
	// LogLevel defines the logging verbosity (e.g., debug, info, error).
	LogLevel string `mapstructure:"LOG_LEVEL" default:"info"`
	// ServerPort is the port where the server will listen.
	ServerPort int `mapstructure:"SERVER_PORT" default:"8080"`

	// Tracker holds the orchestrator settings.
	Tracker TrackerConfig `mapstructure:",squash"`

	// Browser holds the headless Chromium settings.
	Browser BrowserConfig `mapstructure:",squash"`

	// Cache holds the optional Redis fetch cache settings.
	Cache CacheConfig `mapstructure:",squash"`

	// Proxy holds the upstream proxy used by the browser.
	Proxy ProxyConfig `mapstructure:",squash"`

	// Carriers holds the tracking page of each carrier.
	Carriers CarrierURLs `mapstructure:",squash"`
}

// TrackerConfig controls a tracking run.
type TrackerConfig struct {
	// Workers bounds concurrent adapter calls.
	Workers int `mapstructure:"TRACKER_WORKERS" default:"4" required:"true"`
	// AdapterTimeout is the hard limit for a single carrier lookup.
	AdapterTimeout time.Duration `mapstructure:"ADAPTER_TIMEOUT" default:"60s" required:"true"`
	// AsOfDate pins "today" (YYYY-MM-DD). Empty means the system clock.
	AsOfDate string `mapstructure:"AS_OF_DATE"`
}

// BrowserConfig controls Chromium launches.
type BrowserConfig struct {
	Headless bool `mapstructure:"BROWSER_HEADLESS" default:"true"`
	// BinPath overrides the Chromium binary; empty lets rod download or locate one.
	BinPath string `mapstructure:"BROWSER_BIN"`
}

// CacheConfig controls the Redis read-through cache.
type CacheConfig struct {
	// RedisURL disables caching when empty.
	RedisURL string `mapstructure:"REDIS_URL"`
	// TTL is how long a carrier answer is reused.
	TTL time.Duration `mapstructure:"CACHE_TTL" default:"15m"`
}

// ProxyConfig holds the upstream proxy credentials.
type ProxyConfig struct {
	Enabled  bool   `mapstructure:"PROXY_ENABLED"`
	Host     string `mapstructure:"PROXY_HOST"`
	Port     int    `mapstructure:"PROXY_PORT"`
	Username string `mapstructure:"PROXY_USERNAME"`
	Password string `mapstructure:"PROXY_PASSWORD"`
}

// CarrierURLs holds the public tracking page of each carrier.
type CarrierURLs struct {
	SEFL       string `mapstructure:"SEFL_URL" default:"https://sefl.com/Tracing/index.jsp" required:"true"`
	XPO        string `mapstructure:"XPO_URL" default:"https://ext-web.ltl-xpo.com/public-app/shipments" required:"true"`
	ForwardAir string `mapstructure:"FORWARDAIR_URL" default:"https://www.forwardair.com/tracking" required:"true"`
	RL         string `mapstructure:"RL_URL" default:"https://www2.rlcarriers.com/freight/shipping/shipment-tracing" required:"true"`
	SAIA       string `mapstructure:"SAIA_URL" default:"https://www.saia.com/track" required:"true"`
}

// Settings converts the proxy configuration for adapters.
func (p ProxyConfig) Settings() proxy.Settings {
	return proxy.Settings{
		Enabled:  p.Enabled,
		Hostname: p.Host,
		Port:     p.Port,
		Username: p.Username,
		Password: p.Password,
	}
}

// AsOf returns the pinned as-of date, or ok=false when the system clock should be used.
func (t TrackerConfig) AsOf() (date time.Time, ok bool, err error) {
	if t.AsOfDate == "" {
		return time.Time{}, false, nil
	}
	d, err := time.Parse(AsOfLayout, t.AsOfDate)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("invalid AS_OF_DATE %q: %w", t.AsOfDate, err)
	}
	return d, true, nil
}

// Load loads configuration from .env files and environment variables.
func Load(path string) (*AppConfig, error) {
	v := viper.New()

	v.AutomaticEnv()

	v.AddConfigPath(path)
	v.SetConfigName(".env")
	v.SetConfigType("env")

	if err := v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config AppConfig

	if err := processTags(v, &config); err != nil {
		return nil, err
	}

	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode into struct: %w", err)
	}

	if err := validateRequired(&config); err != nil {
		return nil, err
	}

	if _, _, err := config.Tracker.AsOf(); err != nil {
		return nil, err
	}

	return &config, nil
}

// processTags iterates over the struct fields and sets default values in Viper.
func processTags(v *viper.Viper, config interface{}) error {
	val := reflect.ValueOf(config)
	if val.Kind() == reflect.Ptr {
		val = val.Elem()
	}

	t := val.Type()

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)

		if field.Type.Kind() == reflect.Struct {
			if err := processTags(v, val.Field(i).Addr().Interface()); err != nil {
				return err
			}
			continue
		}

		key := field.Tag.Get("mapstructure")
		defaultValue := field.Tag.Get("default")

		if key != "" {
			if err := v.BindEnv(key); err != nil {
				return fmt.Errorf("bind %s: %w", key, err)
			}
		}

		if key != "" && defaultValue != "" {
			v.SetDefault(key, defaultValue)
		}
	}
	return nil
}

// validateRequired checks if fields marked as required have non-zero values.
func validateRequired(config interface{}) error {
	val := reflect.ValueOf(config)
	if val.Kind() == reflect.Ptr {
		val = val.Elem()
	}

	t := val.Type()

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)

		if field.Type.Kind() == reflect.Struct {
			if err := validateRequired(val.Field(i).Addr().Interface()); err != nil {
				return err
			}
			continue
		}

		if field.Tag.Get("required") == "true" && isZero(val.Field(i)) {
			return fmt.Errorf("missing required configuration: %s", field.Tag.Get("mapstructure"))
		}
	}
	return nil
}

// isZero checks if a reflect.Value is the zero value for its type.
func isZero(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.String:
		return v.String() == ""
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int() == 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return v.Uint() == 0
	case reflect.Float32, reflect.Float64:
		return v.Float() == 0
	case reflect.Bool:
		return !v.Bool()
	case reflect.Slice, reflect.Map:
		return v.Len() == 0
	default:
		return v.IsZero()
	}
}
