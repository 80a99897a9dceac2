package pump

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ninja0404/pump-launch-go/pkg/constants"
	"github.com/ninja0404/pump-launch-go/pkg/pda"
	"github.com/ninja0404/pump-launch-go/pkg/types"
)

func anchorDiscriminator(name string) []byte {
	sum := sha256.Sum256([]byte("global:" + name))
	return sum[:8]
}

func TestDiscriminators(t *testing.T) {
	assert.Equal(t, anchorDiscriminator("create"), constants.CreateDiscriminator[:])
	assert.Equal(t, anchorDiscriminator("buy"), constants.BuyDiscriminator[:])
}

func TestEncodeCreateRoundTrip(t *testing.T) {
	creator := solana.NewWallet().PublicKey()
	mint := solana.NewWallet().PublicKey()

	ix, accounts, err := EncodeCreate(creator, mint, "Pump Token ✓", "PUMP", "https://ipfs.io/ipfs/QmHash")
	require.NoError(t, err)
	assert.Equal(t, constants.PumpProgramID, ix.ProgramID())

	data, err := ix.Data()
	require.NoError(t, err)
	assert.Equal(t, constants.CreateDiscriminator[:], data[:8])

	// borsh strings carry a u32 little-endian length prefix
	nameLen := binary.LittleEndian.Uint32(data[8:12])
	assert.Equal(t, uint32(len("Pump Token ✓")), nameLen)
	assert.Equal(t, "Pump Token ✓", string(data[12:12+nameLen]))
	assert.Equal(t, creator.Bytes(), data[len(data)-32:])

	args, err := DecodeCreateArgs(data)
	require.NoError(t, err)
	assert.Equal(t, CreateArgs{Name: "Pump Token ✓", Symbol: "PUMP", URI: "https://ipfs.io/ipfs/QmHash", Creator: creator}, args)

	assert.Equal(t, mint, accounts.Mint)
	assert.Equal(t, creator, accounts.User)
}

func TestCreateAccountLayout(t *testing.T) {
	creator := solana.NewWallet().PublicKey()
	mint := solana.NewWallet().PublicKey()
	ix, accounts, err := EncodeCreate(creator, mint, "n", "s", "u")
	require.NoError(t, err)

	bondingCurve, err := pda.BondingCurve(mint)
	require.NoError(t, err)
	metadata, err := pda.Metadata(mint)
	require.NoError(t, err)

	metas := ix.Accounts()
	require.Len(t, metas, 14)

	want := []struct {
		key      solana.PublicKey
		signer   bool
		writable bool
	}{
		{mint, true, true},
		{accounts.MintAuthority, false, false},
		{bondingCurve, false, true},
		{accounts.AssociatedBondingCurve, false, true},
		{constants.PumpGlobal, false, false},
		{constants.MetadataProgramID, false, false},
		{metadata, false, true},
		{creator, true, true},
		{constants.SystemProgramID, false, false},
		{constants.TokenProgramID, false, false},
		{constants.AssociatedTokenProgramID, false, false},
		{constants.SysvarRentProgramID, false, false},
		{constants.PumpEventAuthority, false, false},
		{constants.PumpProgramID, false, false},
	}
	for i, w := range want {
		assert.Equal(t, w.key, metas[i].PublicKey, "account %d", i)
		assert.Equal(t, w.signer, metas[i].IsSigner, "signer flag %d", i)
		assert.Equal(t, w.writable, metas[i].IsWritable, "writable flag %d", i)
	}
}

func TestEncodeBuyRoundTrip(t *testing.T) {
	buyer := solana.NewWallet().PublicKey()
	mint := solana.NewWallet().PublicKey()
	fee := solana.NewWallet().PublicKey()

	ix, accounts, err := EncodeBuy(buyer, mint, fee, 34_612_903_225_807, 1_250_000_000)
	require.NoError(t, err)

	data, err := ix.Data()
	require.NoError(t, err)
	require.Len(t, data, 24)
	assert.Equal(t, constants.BuyDiscriminator[:], data[:8])
	assert.Equal(t, uint64(34_612_903_225_807), binary.LittleEndian.Uint64(data[8:16]))
	assert.Equal(t, uint64(1_250_000_000), binary.LittleEndian.Uint64(data[16:24]))

	args, err := DecodeBuyArgs(data)
	require.NoError(t, err)
	assert.Equal(t, BuyArgs{Amount: 34_612_903_225_807, MaxSolCost: 1_250_000_000}, args)

	metas := ix.Accounts()
	require.Len(t, metas, 12)
	assert.Equal(t, fee, metas[1].PublicKey)
	assert.True(t, metas[1].IsWritable)
	assert.Equal(t, buyer, metas[6].PublicKey)
	assert.True(t, metas[6].IsSigner)

	vault, err := pda.CreatorVault(buyer)
	require.NoError(t, err)
	assert.Equal(t, vault, accounts.CreatorVault)
	assert.Equal(t, vault, metas[9].PublicKey)

	ata, err := pda.AssociatedTokenAccount(buyer, mint)
	require.NoError(t, err)
	assert.Equal(t, ata, metas[5].PublicKey)
}

func TestEncodeRejectsBadInput(t *testing.T) {
	mint := solana.NewWallet().PublicKey()
	_, _, err := EncodeCreate(solana.PublicKey{}, mint, "n", "s", "u")
	var verr types.ValidationError
	require.ErrorAs(t, err, &verr)

	_, _, err = EncodeBuy(mint, mint, mint, 0, 10)
	require.ErrorAs(t, err, &verr)
}

func TestDecodeWrongDiscriminator(t *testing.T) {
	ix, _, err := EncodeBuy(solana.NewWallet().PublicKey(), solana.NewWallet().PublicKey(), solana.NewWallet().PublicKey(), 1, 1)
	require.NoError(t, err)
	data, err := ix.Data()
	require.NoError(t, err)

	_, err = DecodeCreateArgs(data)
	assert.ErrorIs(t, err, types.ErrUnknownDiscriminator)
	assert.False(t, IsCreate(data))

	_, err = DecodeBuyArgs([]byte{1, 2, 3})
	assert.Error(t, err)
}

func globalFixture(feeRecipient solana.PublicKey) []byte {
	data := make([]byte, 0, globalMinLen+16)
	data = append(data, 0xa7, 0xe8, 0xe8, 0xb1, 0xc8, 0x6c, 0x72, 0x7f)
	data = append(data, 1)
	data = append(data, solana.NewWallet().PublicKey().Bytes()...)
	data = append(data, feeRecipient.Bytes()...)
	for _, v := range []uint64{1_073_000_000_000_000, 30_000_000_000, 793_100_000_000_000, 1_000_000_000_000_000, 95} {
		data = binary.LittleEndian.AppendUint64(data, v)
	}
	return append(data, make([]byte, 16)...)
}

type fakeReader struct {
	data map[solana.PublicKey][]byte
}

func (f fakeReader) AccountData(_ context.Context, pk solana.PublicKey) ([]byte, error) {
	d, ok := f.data[pk]
	if !ok {
		return nil, types.ErrAccountNotFound
	}
	return d, nil
}

func TestGlobalDecoding(t *testing.T) {
	fee := solana.NewWallet().PublicKey()
	data := globalFixture(fee)

	g, err := DecodeGlobal(data)
	require.NoError(t, err)
	assert.True(t, g.Initialized)
	assert.Equal(t, fee, g.FeeRecipient)
	assert.Equal(t, uint64(30_000_000_000), g.InitialVirtualSolReserves)
	assert.Equal(t, uint64(95), g.FeeBasisPoints)

	got, err := FeeRecipientFromGlobal(data)
	require.NoError(t, err)
	assert.Equal(t, fee, got)

	_, err = DecodeGlobal(data[:40])
	assert.Error(t, err)
	_, err = FeeRecipientFromGlobal(data[:60])
	assert.ErrorIs(t, err, types.ErrFeeRecipientNotFound)
}

func TestFetchFeeRecipient(t *testing.T) {
	fee := solana.NewWallet().PublicKey()
	reader := fakeReader{data: map[solana.PublicKey][]byte{constants.PumpGlobal: globalFixture(fee)}}

	got, err := FetchFeeRecipient(context.Background(), reader)
	require.NoError(t, err)
	assert.Equal(t, fee, got)

	_, err = FetchFeeRecipient(context.Background(), fakeReader{})
	assert.True(t, errors.Is(err, types.ErrAccountNotFound))
}

func TestCreateIdempotentATA(t *testing.T) {
	payer := solana.NewWallet().PublicKey()
	mint := solana.NewWallet().PublicKey()

	ix, ata, err := NewCreateIdempotentATAInstruction(payer, payer, mint, solana.PublicKey{})
	require.NoError(t, err)
	want, _, err := solana.FindAssociatedTokenAddress(payer, mint)
	require.NoError(t, err)
	assert.Equal(t, want, ata)
	assert.Equal(t, constants.AssociatedTokenProgramID, ix.ProgramID())

	data, err := ix.Data()
	require.NoError(t, err)
	assert.Equal(t, []byte{1}, data)
	assert.True(t, ix.Accounts()[0].IsSigner)
}
