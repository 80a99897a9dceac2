package main

import (
	"context"
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/spf13/cobra"

	"github.com/ninja0404/pump-launch-go/pkg/curve"
	"github.com/ninja0404/pump-launch-go/pkg/history"
	"github.com/ninja0404/pump-launch-go/pkg/mintkey"
	"github.com/ninja0404/pump-launch-go/pkg/pump"
	"github.com/ninja0404/pump-launch-go/pkg/wallet"
)

func newQuoteCmd(opts *globalOpts) *cobra.Command {
	var (
		buySOL      string
		slippageBps uint64
		onChain     bool
	)
	cmd := &cobra.Command{
		Use:   "quote",
		Short: "Quote the initial buy of a fresh bonding curve",
		RunE: func(cmd *cobra.Command, args []string) error {
			lamports, err := curve.ParseSOL(buySOL)
			if err != nil {
				return err
			}
			c := curve.Default()
			if onChain {
				deps, err := newRuntime(cmd, opts)
				if err != nil {
					return err
				}
				ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
				defer cancel()
				g, err := pump.FetchGlobal(ctx, deps.rpc)
				if err != nil {
					return err
				}
				c = curve.New(g.InitialVirtualTokenReserves, g.InitialVirtualSolReserves)
			}
			q, err := c.ComputeBuy(lamports, slippageBps)
			if err != nil {
				return err
			}
			printQuote(cmd, q)
			fmt.Fprintf(cmd.OutOrStdout(), "price_impact_bps=%d\n", c.PriceImpactBps(q))
			return nil
		},
	}
	cmd.Flags().StringVar(&buySOL, "buy-sol", "", "SOL to spend")
	cmd.Flags().Uint64Var(&slippageBps, "slippage-bps", 2500, "slippage in basis points")
	cmd.Flags().BoolVar(&onChain, "on-chain-reserves", false, "read initial reserves from the global account")
	_ = cmd.MarkFlagRequired("buy-sol")
	return cmd
}

func newStatusCmd(opts *globalOpts) *cobra.Command {
	var searchHistory bool
	cmd := &cobra.Command{
		Use:   "status [signature]",
		Short: "Show the confirmation status of a transaction",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sig, err := solana.SignatureFromBase58(args[0])
			if err != nil {
				return fmt.Errorf("invalid signature: %w", err)
			}
			deps, err := newRuntime(cmd, opts)
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
			defer cancel()
			st, err := deps.rpc.SignatureStatus(ctx, sig, searchHistory)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if st == nil {
				fmt.Fprintln(out, "status=not_found")
				return nil
			}
			fmt.Fprintf(out, "status=%s\nslot=%d\n", st.ConfirmationStatus, st.Slot)
			if st.Err != nil {
				fmt.Fprintf(out, "error=%v\n", st.Err)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&searchHistory, "search-history", true, "search the ledger history, not only recent status cache")
	return cmd
}

func newBalanceCmd(opts *globalOpts) *cobra.Command {
	return &cobra.Command{
		Use:   "balance [address]",
		Short: "Show the SOL balance of an address (default: the creator)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			deps, err := newRuntime(cmd, opts)
			if err != nil {
				return err
			}
			owner, err := addressArg(deps, opts, args)
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
			defer cancel()
			lamports, err := deps.rpc.Balance(ctx, owner)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "address=%s\nbalance=%s SOL\n", owner, curve.SOLFromLamports(lamports))
			return nil
		},
	}
}

func newCreatedCmd(opts *globalOpts) *cobra.Command {
	var limit, scan int
	cmd := &cobra.Command{
		Use:   "created [address]",
		Short: "List tokens launched by an address (default: the creator)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			deps, err := newRuntime(cmd, opts)
			if err != nil {
				return err
			}
			owner, err := addressArg(deps, opts, args)
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
			defer cancel()
			scanner := history.NewScanner(deps.rpc,
				history.WithLimit(limit),
				history.WithScan(scan),
				history.WithLogger(deps.log),
			)
			tokens, err := scanner.CreatedTokens(ctx, owner)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(tokens) == 0 {
				fmt.Fprintln(out, "no tokens found")
				return nil
			}
			for _, t := range tokens {
				when := "-"
				if !t.BlockTime.IsZero() {
					when = t.BlockTime.UTC().Format(time.RFC3339)
				}
				fmt.Fprintf(out, "%s\t%s\t%s\t%s\t%s\n", when, t.Symbol, t.Name, t.Mint, t.URI)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 100, "signatures to list")
	cmd.Flags().IntVar(&scan, "scan", 20, "successful transactions to inspect")
	return cmd
}

func addressArg(deps *runtimeDeps, opts *globalOpts, args []string) (solana.PublicKey, error) {
	if len(args) == 1 {
		return parsePubkey("address", args[0])
	}
	if opts.signerAddress != "" {
		return parsePubkey("signer-address", opts.signerAddress)
	}
	signer, err := creatorSigner(deps, opts)
	if err != nil {
		return solana.PublicKey{}, err
	}
	return signer.PublicKey(), nil
}

func newMintKeyCmd() *cobra.Command {
	var o mintkey.Options
	cmd := &cobra.Command{
		Use:   "mint-key",
		Short: "Generate a mint keypair, optionally with a vanity prefix or suffix",
		RunE: func(cmd *cobra.Command, args []string) error {
			if o.Prefix != "" || o.Suffix != "" {
				fmt.Fprintf(cmd.ErrOrStderr(), "expected attempts: ~%d\n",
					mintkey.EstimateDifficulty(len(o.Prefix), len(o.Suffix)))
			}
			res, err := mintkey.Generate(cmd.Context(), o)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "address=%s\nsecret=%s\nattempts=%d\nelapsed=%s\n",
				res.PublicKey, wallet.EncodeSecretKey(res.PrivateKey), res.Attempts, res.Duration)
			return nil
		},
	}
	cmd.Flags().StringVar(&o.Prefix, "prefix", "", "required address prefix")
	cmd.Flags().StringVar(&o.Suffix, "suffix", "", "required address suffix")
	cmd.Flags().IntVar(&o.Workers, "workers", 0, "worker goroutines (0 = NumCPU)")
	cmd.Flags().DurationVar(&o.Timeout, "timeout", 5*time.Minute, "search timeout")
	cmd.Flags().BoolVar(&o.CaseInsensitive, "case-insensitive", false, "match ignoring case")
	return cmd
}
