package config

import (
	"io"
	"time"

	"github.com/rs/zerolog"

	"github.com/ninja0404/pump-launch-go/pkg/constants"
)

// Network defines the target Solana cluster.
type Network string

const (
	NetworkMainnet Network = "mainnet"
	NetworkTestnet Network = "testnet"
	NetworkDevnet  Network = "devnet"
	NetworkCustom  Network = "custom"
)

// DefaultRPCURL returns the standard RPC endpoint for a known network.
func DefaultRPCURL(network Network) string {
	switch network {
	case NetworkMainnet:
		return "https://api.mainnet-beta.solana.com"
	case NetworkTestnet:
		return "https://api.testnet.solana.com"
	case NetworkDevnet:
		return "https://api.devnet.solana.com"
	default:
		return ""
	}
}

// RetryConfig controls retries of read-only RPC calls. Submissions are never retried.
type RetryConfig struct {
	Enabled        bool
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	Jitter         bool
}

// RateLimitConfig throttles outbound RPC calls.
type RateLimitConfig struct {
	RPS   float64
	Burst int
}

// RPCConfig aggregates runtime settings for RPC usage.
type RPCConfig struct {
	Network    Network
	RPCURL     string
	Commitment string
	Timeout    time.Duration
	Retry      RetryConfig
	RateLimit  RateLimitConfig
	Logger     zerolog.Logger
}

// DefaultRPCConfig yields mainnet defaults with confirmed commitment.
func DefaultRPCConfig() RPCConfig {
	return RPCConfig{
		Network:    NetworkMainnet,
		RPCURL:     DefaultRPCURL(NetworkMainnet),
		Commitment: "confirmed",
		Timeout:    20 * time.Second,
		Retry: RetryConfig{
			Enabled:        true,
			MaxAttempts:    3,
			InitialBackoff: 150 * time.Millisecond,
			MaxBackoff:     2 * time.Second,
			Jitter:         true,
		},
		RateLimit: RateLimitConfig{
			RPS:   8,
			Burst: 16,
		},
		Logger: zerolog.New(io.Discard),
	}
}

// ResolveRPCURL returns RPCURL if set, otherwise falls back to network defaults.
func (c RPCConfig) ResolveRPCURL() string {
	if c.RPCURL != "" {
		return c.RPCURL
	}
	return DefaultRPCURL(c.Network)
}

// LaunchConfig holds the settings of the launch flow itself.
type LaunchConfig struct {
	MetadataUploadURL string
	APIBaseURL        string
	LaunchPath        string
	AuthAppID         string
	InspectorBaseURL  string
	SlippageBps       uint64
	ConfirmAttempts   int
	ConfirmDelay      time.Duration
}

// DefaultLaunchConfig mirrors the pump.fun web flow: 25% slippage, 10 polls spaced 3s apart.
func DefaultLaunchConfig() LaunchConfig {
	return LaunchConfig{
		MetadataUploadURL: constants.DefaultMetadataUploadURL,
		LaunchPath:        constants.DefaultLaunchPath,
		InspectorBaseURL:  constants.DefaultInspectorBaseURL,
		SlippageBps:       constants.DefaultSlippageBps,
		ConfirmAttempts:   constants.DefaultConfirmAttempts,
		ConfirmDelay:      constants.DefaultConfirmDelay,
	}
}

// LaunchEndpoint joins the API base URL and the launch path.
func (c LaunchConfig) LaunchEndpoint() string {
	if c.APIBaseURL == "" {
		return ""
	}
	return c.APIBaseURL + c.LaunchPath
}

// Config is the full runtime configuration.
type Config struct {
	RPC    RPCConfig
	Launch LaunchConfig
}

// Default returns DefaultRPCConfig and DefaultLaunchConfig combined.
func Default() Config {
	return Config{RPC: DefaultRPCConfig(), Launch: DefaultLaunchConfig()}
}
