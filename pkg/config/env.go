package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Viper keys and the environment variables bound to them, in priority order.
var envBindings = map[string][]string{
	"rpc.url":                 {"PUMP_RPC_URL", "HELIUS_RPC_URL", "RPC_URL"},
	"rpc.network":             {"PUMP_NETWORK"},
	"rpc.commitment":          {"PUMP_COMMITMENT"},
	"rpc.timeout":             {"PUMP_RPC_TIMEOUT"},
	"launch.upload_url":       {"PUMP_UPLOAD_URL"},
	"launch.api_base_url":     {"PUMP_API_BASE_URL", "API_BASE_URL"},
	"launch.launch_path":      {"PUMP_LAUNCH_PATH"},
	"launch.auth_app_id":      {"PUMP_AUTH_APP_ID", "PRIVY_APP_ID"},
	"launch.slippage_bps":     {"PUMP_SLIPPAGE_BPS"},
	"launch.confirm_attempts": {"PUMP_CONFIRM_ATTEMPTS"},
	"launch.confirm_delay":    {"PUMP_CONFIRM_DELAY"},
}

// Load reads optional dotenv files, then resolves configuration from the
// environment on top of Default(). Missing dotenv files are ignored.
func Load(dotenvPaths ...string) (Config, error) {
	for _, p := range dotenvPaths {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", p, err)
		}
	}
	return FromViper(newViper())
}

func newViper() *viper.Viper {
	v := viper.New()
	def := Default()
	v.SetDefault("rpc.url", "")
	v.SetDefault("rpc.network", string(def.RPC.Network))
	v.SetDefault("rpc.commitment", def.RPC.Commitment)
	v.SetDefault("rpc.timeout", def.RPC.Timeout)
	v.SetDefault("launch.upload_url", def.Launch.MetadataUploadURL)
	v.SetDefault("launch.api_base_url", def.Launch.APIBaseURL)
	v.SetDefault("launch.launch_path", def.Launch.LaunchPath)
	v.SetDefault("launch.auth_app_id", "")
	v.SetDefault("launch.slippage_bps", def.Launch.SlippageBps)
	v.SetDefault("launch.confirm_attempts", def.Launch.ConfirmAttempts)
	v.SetDefault("launch.confirm_delay", def.Launch.ConfirmDelay)
	for key, envs := range envBindings {
		_ = v.BindEnv(append([]string{key}, envs...)...)
	}
	return v
}

// FromViper builds a Config from an already populated viper instance.
func FromViper(v *viper.Viper) (Config, error) {
	cfg := Default()

	cfg.RPC.Network = Network(v.GetString("rpc.network"))
	cfg.RPC.RPCURL = v.GetString("rpc.url")
	if cfg.RPC.RPCURL == "" {
		cfg.RPC.RPCURL = DefaultRPCURL(cfg.RPC.Network)
	}
	cfg.RPC.Commitment = v.GetString("rpc.commitment")
	timeout, err := durationSetting(v, "rpc.timeout")
	if err != nil {
		return Config{}, err
	}
	cfg.RPC.Timeout = timeout

	cfg.Launch.MetadataUploadURL = v.GetString("launch.upload_url")
	cfg.Launch.APIBaseURL = v.GetString("launch.api_base_url")
	cfg.Launch.LaunchPath = v.GetString("launch.launch_path")
	cfg.Launch.AuthAppID = v.GetString("launch.auth_app_id")
	cfg.Launch.SlippageBps = v.GetUint64("launch.slippage_bps")
	cfg.Launch.ConfirmAttempts = v.GetInt("launch.confirm_attempts")
	delay, err := durationSetting(v, "launch.confirm_delay")
	if err != nil {
		return Config{}, err
	}
	cfg.Launch.ConfirmDelay = delay

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// durationSetting reads a Go duration string such as "3s" or "250ms".
// Bare numbers are rejected; viper would read them as nanoseconds.
func durationSetting(v *viper.Viper, key string) (time.Duration, error) {
	switch raw := v.Get(key).(type) {
	case time.Duration:
		return raw, nil
	case string:
		d, err := time.ParseDuration(strings.TrimSpace(raw))
		if err != nil {
			return 0, fmt.Errorf("%s: %q is not a duration with a unit (e.g. 3s): %w", key, raw, err)
		}
		return d, nil
	default:
		return v.GetDuration(key), nil
	}
}

// Validate rejects configurations the launch flow cannot run with.
func (c Config) Validate() error {
	if c.RPC.ResolveRPCURL() == "" {
		return fmt.Errorf("rpc url is required for network %q", c.RPC.Network)
	}
	switch c.RPC.Commitment {
	case "processed", "confirmed", "finalized":
	default:
		return fmt.Errorf("unsupported commitment %q", c.RPC.Commitment)
	}
	if c.Launch.SlippageBps > 10_000 {
		return fmt.Errorf("slippage bps must be <= 10000, got %d", c.Launch.SlippageBps)
	}
	if c.Launch.ConfirmAttempts <= 0 {
		return fmt.Errorf("confirm attempts must be positive, got %d", c.Launch.ConfirmAttempts)
	}
	if c.Launch.ConfirmDelay < 0 {
		return fmt.Errorf("confirm delay must not be negative")
	}
	if c.Launch.MetadataUploadURL == "" {
		return fmt.Errorf("metadata upload url is required")
	}
	return nil
}
