// Package pda derives the program-owned addresses used by the pump launch flow.
package pda

import (
	"fmt"

	"github.com/gagliardetto/solana-go"

	"github.com/ninja0404/pump-launch-go/pkg/constants"
)

// Derive finds the canonical program address for seeds under program.
func Derive(seeds [][]byte, program solana.PublicKey) (solana.PublicKey, uint8, error) {
	addr, bump, err := solana.FindProgramAddress(seeds, program)
	if err != nil {
		return solana.PublicKey{}, 0, fmt.Errorf("derive pda: %w", err)
	}
	return addr, bump, nil
}

func derive(program solana.PublicKey, seeds ...[]byte) (solana.PublicKey, error) {
	addr, _, err := Derive(seeds, program)
	return addr, err
}

// MintAuthority is the pump PDA that holds mint authority over every launched token.
func MintAuthority() (solana.PublicKey, error) {
	return derive(constants.PumpProgramID, []byte(constants.SeedMintAuthority))
}

// Global is the pump global config account.
func Global() (solana.PublicKey, error) {
	return derive(constants.PumpProgramID, []byte(constants.SeedGlobal))
}

// EventAuthority signs the program's self-CPI event logs.
func EventAuthority() (solana.PublicKey, error) {
	return derive(constants.PumpProgramID, []byte(constants.SeedEventAuthority))
}

// BondingCurve is the per-mint curve state account.
func BondingCurve(mint solana.PublicKey) (solana.PublicKey, error) {
	return derive(constants.PumpProgramID, []byte(constants.SeedBondingCurve), mint.Bytes())
}

// CreatorVault collects creator fees for the given creator.
func CreatorVault(creator solana.PublicKey) (solana.PublicKey, error) {
	return derive(constants.PumpProgramID, []byte(constants.SeedCreatorVault), creator.Bytes())
}

// Metadata is the metaplex token-metadata account of mint.
func Metadata(mint solana.PublicKey) (solana.PublicKey, error) {
	return derive(
		constants.MetadataProgramID,
		[]byte(constants.SeedMetadata),
		constants.MetadataProgramID.Bytes(),
		mint.Bytes(),
	)
}

// AssociatedTokenAccount returns the SPL token ATA of owner for mint.
func AssociatedTokenAccount(owner, mint solana.PublicKey) (solana.PublicKey, error) {
	return AssociatedTokenAccountWithProgram(owner, mint, constants.TokenProgramID)
}

// AssociatedTokenAccountWithProgram returns the ATA for an explicit token program.
func AssociatedTokenAccountWithProgram(owner, mint, tokenProgram solana.PublicKey) (solana.PublicKey, error) {
	return derive(
		constants.AssociatedTokenProgramID,
		owner.Bytes(),
		tokenProgram.Bytes(),
		mint.Bytes(),
	)
}
