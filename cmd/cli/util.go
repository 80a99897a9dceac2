package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gagliardetto/solana-go"
	solanarpc "github.com/gagliardetto/solana-go/rpc"
	"github.com/spf13/cobra"

	"github.com/ninja0404/pump-launch-go/pkg/curve"
	"github.com/ninja0404/pump-launch-go/pkg/launcher"
	"github.com/ninja0404/pump-launch-go/pkg/types"
	"github.com/ninja0404/pump-launch-go/pkg/wallet"
)

func parsePubkey(label, v string) (solana.PublicKey, error) {
	if v == "" {
		return solana.PublicKey{}, fmt.Errorf("%s is required", label)
	}
	return types.ParsePublicKey(label, v)
}

// readImage loads the token image; the file name is kept for the upload form.
func readImage(path string) ([]byte, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("read image: %w", err)
	}
	return data, filepath.Base(path), nil
}

func printQuote(cmd *cobra.Command, q curve.Quote) {
	fmt.Fprintf(cmd.OutOrStdout(), "sol_input=%s SOL\ntoken_out=%s\nmax_sol_cost=%s SOL\nslippage_bps=%d\n",
		curve.SOLFromLamports(q.SolInput), curve.TokensFromBaseUnits(q.TokenOut),
		curve.SOLFromLamports(q.MaxSolCost), q.SlippageBps)
}

func printLaunchResult(cmd *cobra.Command, res launcher.Result, showKey bool) error {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "state=%s\n", res.State)
	if !res.Mint.IsZero() {
		fmt.Fprintf(out, "mint=%s\n", res.Mint)
	}
	if showKey && len(res.MintKey) > 0 {
		fmt.Fprintf(out, "mint_secret=%s\n", wallet.EncodeSecretKey(res.MintKey))
	}
	if res.MetadataURI != "" {
		fmt.Fprintf(out, "metadata_uri=%s\n", res.MetadataURI)
	}
	if !res.Signature.IsZero() {
		fmt.Fprintf(out, "signature=%s\n", res.Signature)
	}
	if res.Quote != nil {
		printQuote(cmd, *res.Quote)
	}
	if res.InspectorURL != "" {
		fmt.Fprintf(out, "inspector=%s\n", res.InspectorURL)
	}
	if !res.Success {
		return fmt.Errorf("launch %s: %s", res.State, res.ErrorDetail)
	}
	return nil
}

func printSimResult(cmd *cobra.Command, res *solanarpc.SimulateTransactionResponse) {
	if res == nil || res.Value == nil {
		fmt.Fprintf(cmd.OutOrStdout(), "no simulation result\n")
		return
	}
	if res.Value.Err != nil {
		fmt.Fprintf(cmd.OutOrStdout(), "simulation error: %v\n", res.Value.Err)
	}
	if res.Value.UnitsConsumed != nil {
		fmt.Fprintf(cmd.OutOrStdout(), "units consumed: %d\n", *res.Value.UnitsConsumed)
	}
	if len(res.Value.Logs) > 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "logs:")
		for _, l := range res.Value.Logs {
			fmt.Fprintf(cmd.OutOrStdout(), "  %s\n", l)
		}
	}
}
