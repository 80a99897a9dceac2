package constants

import (
	"fmt"
	"sort"
	"time"

	"github.com/gagliardetto/solana-go"
)

// Bonding curve starting point used by the pump program for fresh mints.
const (
	InitialVirtualTokenReserves uint64 = 1_073_000_000_000_000
	InitialVirtualSolReserves   uint64 = 30_000_000_000
	TokenDecimals                      = 6
	LamportsPerSOL              uint64 = solana.LAMPORTS_PER_SOL
	BasisPointsDenominator      uint64 = 10_000
)

// Instruction discriminators (sha256("global:<name>")[:8]).
var (
	CreateDiscriminator = [8]byte{24, 30, 200, 40, 5, 28, 7, 119}
	BuyDiscriminator    = [8]byte{102, 6, 61, 18, 1, 218, 235, 234}
)

// Launch defaults.
const (
	DefaultSlippageBps      uint64 = 2500
	DefaultConfirmAttempts         = 10
	DefaultConfirmDelay            = 3 * time.Second
	DefaultMetadataUploadURL       = "https://pump.fun/api/ipfs"
	DefaultInspectorBaseURL        = "https://explorer.solana.com/tx/inspector"
	DefaultLaunchPath              = "/launch"
)

// GlobalFeeRecipientOffset is the byte range of the fee recipient inside the global account.
const (
	GlobalFeeRecipientOffset = 41
	GlobalFeeRecipientEnd    = GlobalFeeRecipientOffset + solana.PublicKeyLength
)

var table = map[string]solana.PublicKey{
	"system_program":           SystemProgramID,
	"token_program":            TokenProgramID,
	"associated_token_program": AssociatedTokenProgramID,
	"rent_sysvar":              SysvarRentProgramID,
	"metadata_program":         MetadataProgramID,
	"pump_program":             PumpProgramID,
	"pump_global":              PumpGlobal,
	"pump_event_authority":     PumpEventAuthority,
}

// Lookup returns a well-known address by name.
func Lookup(name string) (solana.PublicKey, error) {
	pk, ok := table[name]
	if !ok {
		return solana.PublicKey{}, fmt.Errorf("unknown address %q", name)
	}
	return pk, nil
}

// Names lists the keys accepted by Lookup, sorted.
func Names() []string {
	out := make([]string, 0, len(table))
	for k := range table {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
