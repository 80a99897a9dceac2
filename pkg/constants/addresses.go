package constants

import "github.com/gagliardetto/solana-go"

// Well-known program IDs
var (
	// SPL Programs
	SystemProgramID          = solana.SystemProgramID
	TokenProgramID           = solana.TokenProgramID
	AssociatedTokenProgramID = solana.SPLAssociatedTokenAccountProgramID
	SysvarRentProgramID      = solana.SysVarRentPubkey
	MetadataProgramID        = solana.MustPublicKeyFromBase58("metaqbxxUerdq28cj1RbAWkYQm3ybzjb6a8bt518x1s")

	// Pump.fun bonding curve program
	PumpProgramID = solana.MustPublicKeyFromBase58("6EF8rrecthR5Dkzon8Nwu78hRvfCKubJ14M5uBEwF6P")
)

// Mainnet well-known accounts
var (
	// PumpGlobal is the global config PDA of the pump program.
	PumpGlobal = solana.MustPublicKeyFromBase58("4wTV1YmiEkRvAtNtsSGPtUrqRYQMe5SKy2uB4Jjaxnjf")
	// PumpEventAuthority is the __event_authority PDA used for anchor event CPIs.
	PumpEventAuthority = solana.MustPublicKeyFromBase58("Ce6TQqeHC9p8KetsN6JsjHK7UTZk7nasjjnr7XxXp9F1")
)

// PDA seeds
const (
	SeedGlobal         = "global"
	SeedBondingCurve   = "bonding-curve"
	SeedCreatorVault   = "creator-vault"
	SeedMintAuthority  = "mint-authority"
	SeedEventAuthority = "__event_authority"
	SeedMetadata       = "metadata"
)
