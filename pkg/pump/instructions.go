// Package pump encodes the create and buy instructions of the pump bonding-curve program.
package pump

import (
	"bytes"
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"

	"github.com/ninja0404/pump-launch-go/pkg/constants"
	"github.com/ninja0404/pump-launch-go/pkg/pda"
	"github.com/ninja0404/pump-launch-go/pkg/types"
)

// CreateArgs is the borsh payload of the create instruction.
type CreateArgs struct {
	Name    string           `json:"name"`
	Symbol  string           `json:"symbol"`
	URI     string           `json:"uri"`
	Creator solana.PublicKey `json:"creator"`
}

func (a CreateArgs) MarshalWithEncoder(encoder *bin.Encoder) error {
	if err := encoder.Encode(a.Name); err != nil {
		return err
	}
	if err := encoder.Encode(a.Symbol); err != nil {
		return err
	}
	if err := encoder.Encode(a.URI); err != nil {
		return err
	}
	return encoder.Encode(a.Creator)
}

func (a *CreateArgs) UnmarshalWithDecoder(decoder *bin.Decoder) error {
	if err := decoder.Decode(&a.Name); err != nil {
		return fmt.Errorf("name: %w", err)
	}
	if err := decoder.Decode(&a.Symbol); err != nil {
		return fmt.Errorf("symbol: %w", err)
	}
	if err := decoder.Decode(&a.URI); err != nil {
		return fmt.Errorf("uri: %w", err)
	}
	if err := decoder.Decode(&a.Creator); err != nil {
		return fmt.Errorf("creator: %w", err)
	}
	return nil
}

// BuyArgs is the borsh payload of the buy instruction.
type BuyArgs struct {
	Amount     uint64 `json:"amount"`
	MaxSolCost uint64 `json:"maxSolCost"`
}

func (a BuyArgs) MarshalWithEncoder(encoder *bin.Encoder) error {
	if err := encoder.Encode(a.Amount); err != nil {
		return err
	}
	return encoder.Encode(a.MaxSolCost)
}

func (a *BuyArgs) UnmarshalWithDecoder(decoder *bin.Decoder) error {
	if err := decoder.Decode(&a.Amount); err != nil {
		return fmt.Errorf("amount: %w", err)
	}
	if err := decoder.Decode(&a.MaxSolCost); err != nil {
		return fmt.Errorf("maxSolCost: %w", err)
	}
	return nil
}

// CreateAccounts lists the accounts of the create instruction in ABI order.
type CreateAccounts struct {
	Mint                   solana.PublicKey `json:"mint"`
	MintAuthority          solana.PublicKey `json:"mintAuthority"`
	BondingCurve           solana.PublicKey `json:"bondingCurve"`
	AssociatedBondingCurve solana.PublicKey `json:"associatedBondingCurve"`
	Global                 solana.PublicKey `json:"global"`
	MplTokenMetadata       solana.PublicKey `json:"mplTokenMetadata"`
	Metadata               solana.PublicKey `json:"metadata"`
	User                   solana.PublicKey `json:"user"`
	SystemProgram          solana.PublicKey `json:"systemProgram"`
	TokenProgram           solana.PublicKey `json:"tokenProgram"`
	AssociatedTokenProgram solana.PublicKey `json:"associatedTokenProgram"`
	Rent                   solana.PublicKey `json:"rent"`
	EventAuthority         solana.PublicKey `json:"eventAuthority"`
	Program                solana.PublicKey `json:"program"`
}

// AccountMetas returns the 14 account metas of the create instruction.
func (a CreateAccounts) AccountMetas() solana.AccountMetaSlice {
	return solana.AccountMetaSlice{
		solana.NewAccountMeta(a.Mint, true, true),
		solana.NewAccountMeta(a.MintAuthority, false, false),
		solana.NewAccountMeta(a.BondingCurve, true, false),
		solana.NewAccountMeta(a.AssociatedBondingCurve, true, false),
		solana.NewAccountMeta(a.Global, false, false),
		solana.NewAccountMeta(a.MplTokenMetadata, false, false),
		solana.NewAccountMeta(a.Metadata, true, false),
		solana.NewAccountMeta(a.User, true, true),
		solana.NewAccountMeta(a.SystemProgram, false, false),
		solana.NewAccountMeta(a.TokenProgram, false, false),
		solana.NewAccountMeta(a.AssociatedTokenProgram, false, false),
		solana.NewAccountMeta(a.Rent, false, false),
		solana.NewAccountMeta(a.EventAuthority, false, false),
		solana.NewAccountMeta(a.Program, false, false),
	}
}

// BuyAccounts lists the accounts of the buy instruction in ABI order.
type BuyAccounts struct {
	Global                 solana.PublicKey `json:"global"`
	FeeRecipient           solana.PublicKey `json:"feeRecipient"`
	Mint                   solana.PublicKey `json:"mint"`
	BondingCurve           solana.PublicKey `json:"bondingCurve"`
	AssociatedBondingCurve solana.PublicKey `json:"associatedBondingCurve"`
	AssociatedUser         solana.PublicKey `json:"associatedUser"`
	User                   solana.PublicKey `json:"user"`
	SystemProgram          solana.PublicKey `json:"systemProgram"`
	TokenProgram           solana.PublicKey `json:"tokenProgram"`
	CreatorVault           solana.PublicKey `json:"creatorVault"`
	EventAuthority         solana.PublicKey `json:"eventAuthority"`
	Program                solana.PublicKey `json:"program"`
}

// AccountMetas returns the 12 account metas of the buy instruction.
func (a BuyAccounts) AccountMetas() solana.AccountMetaSlice {
	return solana.AccountMetaSlice{
		solana.NewAccountMeta(a.Global, false, false),
		solana.NewAccountMeta(a.FeeRecipient, true, false),
		solana.NewAccountMeta(a.Mint, false, false),
		solana.NewAccountMeta(a.BondingCurve, true, false),
		solana.NewAccountMeta(a.AssociatedBondingCurve, true, false),
		solana.NewAccountMeta(a.AssociatedUser, true, false),
		solana.NewAccountMeta(a.User, true, true),
		solana.NewAccountMeta(a.SystemProgram, false, false),
		solana.NewAccountMeta(a.TokenProgram, false, false),
		solana.NewAccountMeta(a.CreatorVault, true, false),
		solana.NewAccountMeta(a.EventAuthority, false, false),
		solana.NewAccountMeta(a.Program, false, false),
	}
}

// DeriveCreateAccounts fills every create account from creator and mint.
func DeriveCreateAccounts(creator, mint solana.PublicKey) (CreateAccounts, error) {
	mintAuthority, err := pda.MintAuthority()
	if err != nil {
		return CreateAccounts{}, err
	}
	bondingCurve, err := pda.BondingCurve(mint)
	if err != nil {
		return CreateAccounts{}, err
	}
	associatedBondingCurve, err := pda.AssociatedTokenAccount(bondingCurve, mint)
	if err != nil {
		return CreateAccounts{}, err
	}
	global, err := pda.Global()
	if err != nil {
		return CreateAccounts{}, err
	}
	metadata, err := pda.Metadata(mint)
	if err != nil {
		return CreateAccounts{}, err
	}
	eventAuthority, err := pda.EventAuthority()
	if err != nil {
		return CreateAccounts{}, err
	}
	return CreateAccounts{
		Mint:                   mint,
		MintAuthority:          mintAuthority,
		BondingCurve:           bondingCurve,
		AssociatedBondingCurve: associatedBondingCurve,
		Global:                 global,
		MplTokenMetadata:       constants.MetadataProgramID,
		Metadata:               metadata,
		User:                   creator,
		SystemProgram:          constants.SystemProgramID,
		TokenProgram:           constants.TokenProgramID,
		AssociatedTokenProgram: constants.AssociatedTokenProgramID,
		Rent:                   constants.SysvarRentProgramID,
		EventAuthority:         eventAuthority,
		Program:                constants.PumpProgramID,
	}, nil
}

// DeriveBuyAccounts fills every buy account. creator owns the creator vault;
// for the buy bundled with a launch it is the buyer.
func DeriveBuyAccounts(buyer, creator, mint, feeRecipient solana.PublicKey) (BuyAccounts, error) {
	global, err := pda.Global()
	if err != nil {
		return BuyAccounts{}, err
	}
	bondingCurve, err := pda.BondingCurve(mint)
	if err != nil {
		return BuyAccounts{}, err
	}
	associatedBondingCurve, err := pda.AssociatedTokenAccount(bondingCurve, mint)
	if err != nil {
		return BuyAccounts{}, err
	}
	associatedUser, err := pda.AssociatedTokenAccount(buyer, mint)
	if err != nil {
		return BuyAccounts{}, err
	}
	creatorVault, err := pda.CreatorVault(creator)
	if err != nil {
		return BuyAccounts{}, err
	}
	eventAuthority, err := pda.EventAuthority()
	if err != nil {
		return BuyAccounts{}, err
	}
	return BuyAccounts{
		Global:                 global,
		FeeRecipient:           feeRecipient,
		Mint:                   mint,
		BondingCurve:           bondingCurve,
		AssociatedBondingCurve: associatedBondingCurve,
		AssociatedUser:         associatedUser,
		User:                   buyer,
		SystemProgram:          constants.SystemProgramID,
		TokenProgram:           constants.TokenProgramID,
		CreatorVault:           creatorVault,
		EventAuthority:         eventAuthority,
		Program:                constants.PumpProgramID,
	}, nil
}

// NewCreateInstruction builds a create instruction from explicit accounts.
func NewCreateInstruction(accounts CreateAccounts, args CreateArgs) (solana.Instruction, error) {
	data, err := encodeWithDiscriminator(constants.CreateDiscriminator, args)
	if err != nil {
		return nil, fmt.Errorf("encode create args: %w", err)
	}
	return solana.NewInstruction(constants.PumpProgramID, accounts.AccountMetas(), data), nil
}

// NewBuyInstruction builds a buy instruction from explicit accounts.
func NewBuyInstruction(accounts BuyAccounts, args BuyArgs) (solana.Instruction, error) {
	data, err := encodeWithDiscriminator(constants.BuyDiscriminator, args)
	if err != nil {
		return nil, fmt.Errorf("encode buy args: %w", err)
	}
	return solana.NewInstruction(constants.PumpProgramID, accounts.AccountMetas(), data), nil
}

// EncodeCreate derives the create accounts for a fresh mint and encodes the instruction.
func EncodeCreate(creator, mint solana.PublicKey, name, symbol, uri string) (solana.Instruction, CreateAccounts, error) {
	if err := types.ValidatePublicKeys(map[string]solana.PublicKey{"creator": creator, "mint": mint}); err != nil {
		return nil, CreateAccounts{}, err
	}
	accounts, err := DeriveCreateAccounts(creator, mint)
	if err != nil {
		return nil, CreateAccounts{}, err
	}
	ix, err := NewCreateInstruction(accounts, CreateArgs{Name: name, Symbol: symbol, URI: uri, Creator: creator})
	if err != nil {
		return nil, CreateAccounts{}, err
	}
	return ix, accounts, nil
}

// EncodeBuy derives the buy accounts with buyer as creator and encodes the instruction.
func EncodeBuy(buyer, mint, feeRecipient solana.PublicKey, tokenAmount, maxSolCost uint64) (solana.Instruction, BuyAccounts, error) {
	if err := types.ValidatePublicKeys(map[string]solana.PublicKey{"buyer": buyer, "mint": mint, "feeRecipient": feeRecipient}); err != nil {
		return nil, BuyAccounts{}, err
	}
	if err := types.ValidateBuyParams(tokenAmount, maxSolCost); err != nil {
		return nil, BuyAccounts{}, err
	}
	accounts, err := DeriveBuyAccounts(buyer, buyer, mint, feeRecipient)
	if err != nil {
		return nil, BuyAccounts{}, err
	}
	ix, err := NewBuyInstruction(accounts, BuyArgs{Amount: tokenAmount, MaxSolCost: maxSolCost})
	if err != nil {
		return nil, BuyAccounts{}, err
	}
	return ix, accounts, nil
}

// DecodeCreateArgs parses create instruction data, discriminator included.
func DecodeCreateArgs(data []byte) (CreateArgs, error) {
	var args CreateArgs
	if err := decodeWithDiscriminator(constants.CreateDiscriminator, data, &args); err != nil {
		return CreateArgs{}, err
	}
	return args, nil
}

// DecodeBuyArgs parses buy instruction data, discriminator included.
func DecodeBuyArgs(data []byte) (BuyArgs, error) {
	var args BuyArgs
	if err := decodeWithDiscriminator(constants.BuyDiscriminator, data, &args); err != nil {
		return BuyArgs{}, err
	}
	return args, nil
}

// IsCreate reports whether data starts with the create discriminator.
func IsCreate(data []byte) bool {
	return len(data) >= 8 && bytes.Equal(data[:8], constants.CreateDiscriminator[:])
}

func encodeWithDiscriminator(disc [8]byte, args bin.BinaryMarshaler) ([]byte, error) {
	buf := new(bytes.Buffer)
	buf.Write(disc[:])
	if err := bin.NewBorshEncoder(buf).Encode(args); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decodeWithDiscriminator(disc [8]byte, data []byte, into bin.BinaryUnmarshaler) error {
	if len(data) < 8 {
		return fmt.Errorf("instruction data too short: %d bytes", len(data))
	}
	if !bytes.Equal(data[:8], disc[:]) {
		return fmt.Errorf("%w: %x", types.ErrUnknownDiscriminator, data[:8])
	}
	if err := bin.NewBorshDecoder(data[8:]).Decode(into); err != nil {
		return fmt.Errorf("decode args: %w", err)
	}
	return nil
}
