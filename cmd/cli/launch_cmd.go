package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ninja0404/pump-launch-go/pkg/confirm"
	"github.com/ninja0404/pump-launch-go/pkg/curve"
	"github.com/ninja0404/pump-launch-go/pkg/launchapi"
	"github.com/ninja0404/pump-launch-go/pkg/launcher"
	"github.com/ninja0404/pump-launch-go/pkg/metadata"
	"github.com/ninja0404/pump-launch-go/pkg/mintkey"
	"github.com/ninja0404/pump-launch-go/pkg/txbuilder"
	"github.com/ninja0404/pump-launch-go/pkg/wallet"
)

type launchFlags struct {
	name, symbol, description string
	imagePath                 string
	twitter, telegram         string
	website                   string
	uri                       string
	buySOL                    string
	slippageBps               uint64
	mintPrefix, mintSuffix    string
	mintTimeout               time.Duration
	cuLimit                   uint32
	cuPrice                   uint64
	jitoTip                   uint64
	onChainReserves           bool
	simulate                  bool
	showMintKey               bool
}

func (f *launchFlags) register(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.StringVar(&f.name, "name", "", "token name (max 32 chars)")
	fl.StringVar(&f.symbol, "symbol", "", "token symbol (max 10 chars)")
	fl.StringVar(&f.description, "description", "", "token description")
	fl.StringVar(&f.imagePath, "image", "", "path to the token image")
	fl.StringVar(&f.twitter, "twitter", "", "twitter link")
	fl.StringVar(&f.telegram, "telegram", "", "telegram link")
	fl.StringVar(&f.website, "website", "", "website link")
	fl.StringVar(&f.buySOL, "buy-sol", "0", "initial buy in SOL (0 = create only)")
	fl.Uint64Var(&f.slippageBps, "slippage-bps", 0, "slippage for the initial buy (0 = configured default)")
	fl.StringVar(&f.mintPrefix, "mint-prefix", "", "vanity prefix for the mint address")
	fl.StringVar(&f.mintSuffix, "mint-suffix", "", "vanity suffix for the mint address")
	fl.DurationVar(&f.mintTimeout, "mint-timeout", 2*time.Minute, "vanity search timeout")
	fl.BoolVar(&f.showMintKey, "show-mint-key", false, "print the generated mint secret key")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("symbol")
}

func (f *launchFlags) request() (launcher.Request, error) {
	buy, err := curve.ParseSOL(f.buySOL)
	if err != nil {
		return launcher.Request{}, fmt.Errorf("buy-sol: %w", err)
	}
	req := launcher.Request{
		Metadata: metadata.TokenMetadata{
			Name:        f.name,
			Symbol:      f.symbol,
			Description: f.description,
			Twitter:     f.twitter,
			Telegram:    f.telegram,
			Website:     f.website,
		},
		MetadataURI:        f.uri,
		BuyLamports:        buy,
		SlippageBps:        f.slippageBps,
		UseOnChainReserves: f.onChainReserves,
		ComputeUnitLimit:   f.cuLimit,
		ComputeUnitPrice:   f.cuPrice,
		JitoTipLamports:    f.jitoTip,
		MintOptions: mintkey.Options{
			Prefix:  f.mintPrefix,
			Suffix:  f.mintSuffix,
			Timeout: f.mintTimeout,
		},
	}
	if f.imagePath != "" {
		img, name, err := readImage(f.imagePath)
		if err != nil {
			return launcher.Request{}, err
		}
		req.Metadata.Image, req.Metadata.ImageName = img, name
	}
	return req, nil
}

func newLauncher(cmd *cobra.Command, deps *runtimeDeps, extra ...launcher.Option) *launcher.Launcher {
	lc := deps.cfg.Launch
	uploader := metadata.NewUploader(lc.MetadataUploadURL, metadata.WithLogger(deps.log))
	opts := []launcher.Option{
		launcher.WithLogger(deps.log),
		launcher.WithSlippageBps(lc.SlippageBps),
		launcher.WithInspectorBase(lc.InspectorBaseURL),
		launcher.WithProgress(func(s launcher.Step, detail string) {
			fmt.Fprintf(cmd.ErrOrStderr(), "[%s] %s\n", s, detail)
		}),
		launcher.WithPipelineOptions(
			confirm.WithMaxAttempts(lc.ConfirmAttempts),
			confirm.WithDelay(lc.ConfirmDelay),
		),
	}
	return launcher.New(uploader, deps.rpc, deps.builder, deps.rpc, append(opts, extra...)...)
}

func newLaunchCmd(opts *globalOpts) *cobra.Command {
	f := &launchFlags{}
	cmd := &cobra.Command{
		Use:   "launch",
		Short: "Upload metadata, create the token and make the initial buy",
		RunE: func(cmd *cobra.Command, args []string) error {
			deps, err := newRuntime(cmd, opts)
			if err != nil {
				return err
			}
			creator, err := creatorSigner(deps, opts)
			if err != nil {
				return err
			}
			req, err := f.request()
			if err != nil {
				return err
			}
			l := newLauncher(cmd, deps)

			if f.simulate {
				return simulateLaunch(cmd, deps, l, creator, req)
			}
			res := l.CreateAndLaunch(cmd.Context(), creator, req)
			return printLaunchResult(cmd, res, f.showMintKey)
		},
	}
	f.register(cmd)
	fl := cmd.Flags()
	fl.StringVar(&f.uri, "uri", "", "use an existing metadata URI instead of uploading")
	fl.Uint32Var(&f.cuLimit, "cu-limit", 0, "compute unit limit (0 = none)")
	fl.Uint64Var(&f.cuPrice, "cu-price", 0, "compute unit price in micro-lamports (0 = none)")
	fl.Uint64Var(&f.jitoTip, "jito-tip", 0, "jito tip in lamports (0 = none)")
	fl.BoolVar(&f.onChainReserves, "on-chain-reserves", false, "quote against the global account's reserves")
	fl.BoolVar(&f.simulate, "simulate", false, "build, sign and simulate without sending")
	return cmd
}

// simulateLaunch runs everything except the upload and the submission.
// A placeholder URI is used when none is given.
func simulateLaunch(cmd *cobra.Command, deps *runtimeDeps, l *launcher.Launcher, creator wallet.Signer, req launcher.Request) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
	defer cancel()

	mint, err := mintkey.Generate(ctx, req.MintOptions)
	if err != nil {
		return err
	}
	uri := req.MetadataURI
	if uri == "" {
		uri = "https://ipfs.io/ipfs/simulation"
	}
	tx, quote, err := l.BuildLaunchTransaction(ctx, creator.PublicKey(), mint.PublicKey, uri, req)
	if err != nil {
		return fmt.Errorf("build tx: %w", err)
	}
	if err := txbuilder.SignTransaction(ctx, tx, creator, mint.Signer()); err != nil {
		return fmt.Errorf("sign tx: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "mint=%s\n", mint.PublicKey)
	if quote != nil {
		printQuote(cmd, *quote)
	}
	res, simErr := deps.builder.Simulate(ctx, tx)
	printSimResult(cmd, res)
	return simErr
}

func newLaunchAPICmd(opts *globalOpts) *cobra.Command {
	f := &launchFlags{}
	cmd := &cobra.Command{
		Use:   "launch-api",
		Short: "Launch through the hosted launch API (server-built transaction)",
		RunE: func(cmd *cobra.Command, args []string) error {
			deps, err := newRuntime(cmd, opts)
			if err != nil {
				return err
			}
			endpoint := deps.cfg.Launch.LaunchEndpoint()
			if endpoint == "" {
				return fmt.Errorf("launch api base url is not configured (PUMP_API_BASE_URL)")
			}
			creator, err := creatorSigner(deps, opts)
			if err != nil {
				return err
			}
			req, err := f.request()
			if err != nil {
				return err
			}
			api := launchapi.NewClient(endpoint, launchapi.WithLogger(deps.log))
			res := newLauncher(cmd, deps, launcher.WithLaunchAPI(api)).LaunchViaAPI(cmd.Context(), creator, req)
			return printLaunchResult(cmd, res, f.showMintKey)
		},
	}
	f.register(cmd)
	return cmd
}
