package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	solanarpc "github.com/gagliardetto/solana-go/rpc"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	sdkconfig "github.com/ninja0404/pump-launch-go/pkg/config"
	"github.com/ninja0404/pump-launch-go/pkg/jito"
	sdkrpc "github.com/ninja0404/pump-launch-go/pkg/rpc"
	"github.com/ninja0404/pump-launch-go/pkg/txbuilder"
	"github.com/ninja0404/pump-launch-go/pkg/wallet"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type globalOpts struct {
	envFile        string
	rpcURL         string
	commitment     string
	creatorPath    string
	creatorKey     string
	signerEndpoint string
	signerAddress  string
	signerToken    string
	skipPreflight  bool
	jitoURL        string
	jitoUUID       string
	retryAttempts  int
	retryBackoffMs int
	rateLimitRPS   float64
	logLevel       string
	timeoutSec     int
}

func newRootCmd() *cobra.Command {
	opts := &globalOpts{}

	root := &cobra.Command{
		Use:           "pumplaunch",
		Short:         "Launch tokens on the pump bonding curve",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&opts.envFile, "env-file", ".env", "dotenv file to load before reading the environment")
	pf.StringVar(&opts.rpcURL, "rpc-url", "", "RPC endpoint (overrides PUMP_RPC_URL)")
	pf.StringVar(&opts.commitment, "commitment", "", "RPC commitment level (overrides PUMP_COMMITMENT)")
	pf.StringVar(&opts.creatorPath, "creator", "", "path to solana-keygen json for the creator")
	pf.StringVar(&opts.creatorKey, "creator-key", "", "base58 creator secret key (prefer --creator)")
	pf.StringVar(&opts.signerEndpoint, "signer-endpoint", "", "custodial signer endpoint for the creator")
	pf.StringVar(&opts.signerAddress, "signer-address", "", "creator address held by the custodial signer")
	pf.StringVar(&opts.signerToken, "signer-token", "", "bearer token for the custodial signer")
	pf.BoolVar(&opts.skipPreflight, "skip-preflight", false, "skip preflight checks")
	pf.StringVar(&opts.jitoURL, "jito-url", "", "send through this jito block engine instead of RPC")
	pf.StringVar(&opts.jitoUUID, "jito-uuid", "", "jito auth uuid")
	pf.IntVar(&opts.retryAttempts, "retry-attempts", 3, "RPC retry attempts for read calls")
	pf.IntVar(&opts.retryBackoffMs, "retry-backoff-ms", 150, "initial backoff in ms")
	pf.Float64Var(&opts.rateLimitRPS, "rate-limit-rps", 8, "rate limit RPS (0 to disable)")
	pf.StringVar(&opts.logLevel, "log-level", "info", "log level (debug|info|warn|error)")
	pf.IntVar(&opts.timeoutSec, "timeout-sec", 20, "RPC timeout seconds")

	root.AddCommand(
		newConfigCmd(opts),
		newQuoteCmd(opts),
		newLaunchCmd(opts),
		newLaunchAPICmd(opts),
		newStatusCmd(opts),
		newBalanceCmd(opts),
		newCreatedCmd(opts),
		newMintKeyCmd(),
	)

	return root
}

func newConfigCmd(opts *globalOpts) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Show the resolved configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, opts)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "network=%s\nrpc=%s\ncommitment=%s\n", cfg.RPC.Network, cfg.RPC.ResolveRPCURL(), cfg.RPC.Commitment)
			fmt.Fprintf(out, "upload_url=%s\nlaunch_endpoint=%s\n", cfg.Launch.MetadataUploadURL, cfg.Launch.LaunchEndpoint())
			fmt.Fprintf(out, "slippage_bps=%d\nconfirm_attempts=%d\nconfirm_delay=%s\n",
				cfg.Launch.SlippageBps, cfg.Launch.ConfirmAttempts, cfg.Launch.ConfirmDelay)
			return nil
		},
	}
}

// loadConfig resolves env and dotenv configuration, then applies flags.
func loadConfig(cmd *cobra.Command, opts *globalOpts) (sdkconfig.Config, error) {
	var paths []string
	if opts.envFile != "" {
		paths = append(paths, opts.envFile)
	}
	cfg, err := sdkconfig.Load(paths...)
	if err != nil {
		return sdkconfig.Config{}, err
	}

	if opts.rpcURL != "" {
		cfg.RPC.RPCURL = opts.rpcURL
	}
	if opts.commitment != "" {
		cfg.RPC.Commitment = opts.commitment
	}
	cfg.RPC.RateLimit.RPS = opts.rateLimitRPS
	if opts.retryAttempts > 0 {
		cfg.RPC.Retry.MaxAttempts = opts.retryAttempts
	}
	if opts.retryBackoffMs > 0 {
		cfg.RPC.Retry.InitialBackoff = time.Duration(opts.retryBackoffMs) * time.Millisecond
	}
	if opts.timeoutSec > 0 {
		cfg.RPC.Timeout = time.Duration(opts.timeoutSec) * time.Second
	}
	cfg.RPC.Logger = zerolog.New(cmd.ErrOrStderr()).With().Timestamp().Logger().Level(parseLogLevel(opts.logLevel))
	return cfg, cfg.Validate()
}

type runtimeDeps struct {
	cfg     sdkconfig.Config
	rpc     *sdkrpc.Client
	builder *txbuilder.Builder
	log     zerolog.Logger
}

func newRuntime(cmd *cobra.Command, opts *globalOpts) (*runtimeDeps, error) {
	cfg, err := loadConfig(cmd, opts)
	if err != nil {
		return nil, err
	}
	client := sdkrpc.NewClient(cfg.RPC)
	builder := txbuilder.NewBuilder(client, solanarpc.CommitmentType(cfg.RPC.Commitment)).
		WithSkipPreflight(opts.skipPreflight)
	if opts.jitoURL != "" {
		builder = builder.WithJito(jito.NewClient(opts.jitoURL, opts.jitoUUID).WithLogger(cfg.RPC.Logger))
	}
	return &runtimeDeps{cfg: cfg, rpc: client, builder: builder, log: cfg.RPC.Logger}, nil
}

// creatorSigner resolves the creator role: a local keypair, or a custodial
// signer when --signer-endpoint is set.
func creatorSigner(deps *runtimeDeps, opts *globalOpts) (wallet.Signer, error) {
	switch {
	case opts.creatorPath != "":
		local, err := wallet.NewLocalFromKeygen(opts.creatorPath)
		if err != nil {
			return nil, err
		}
		return local, nil
	case opts.creatorKey != "":
		local, err := wallet.NewLocalFromBase58(opts.creatorKey)
		if err != nil {
			return nil, err
		}
		return local, nil
	case opts.signerEndpoint != "":
		addr, err := parsePubkey("signer-address", opts.signerAddress)
		if err != nil {
			return nil, err
		}
		custodianOpts := []wallet.HTTPCustodianOption{wallet.WithAppID(deps.cfg.Launch.AuthAppID)}
		if opts.signerToken != "" {
			custodianOpts = append(custodianOpts, wallet.WithBearerToken(opts.signerToken))
		}
		custodian := wallet.NewHTTPCustodian(opts.signerEndpoint, addr, custodianOpts...)
		return wallet.NewCustodialSigner(addr, custodian, wallet.WithCustodialLogger(deps.log)), nil
	default:
		return nil, fmt.Errorf("creator is required (use --creator, --creator-key or --signer-endpoint)")
	}
}

func parseLogLevel(lvl string) zerolog.Level {
	switch strings.ToLower(lvl) {
	case "debug":
		return zerolog.DebugLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}
