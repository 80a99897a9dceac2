package txcodec

import (
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleTx(t *testing.T) *solana.Transaction {
	t.Helper()
	payer := solana.NewWallet()
	tx, err := solana.NewTransactionBuilder().
		SetFeePayer(payer.PublicKey()).
		SetRecentBlockHash(solana.Hash{7}).
		AddInstruction(solana.NewInstruction(
			solana.SystemProgramID,
			solana.AccountMetaSlice{solana.NewAccountMeta(payer.PublicKey(), true, true)},
			[]byte{1, 2, 3},
		)).
		Build()
	require.NoError(t, err)
	_, err = tx.Sign(func(pk solana.PublicKey) *solana.PrivateKey {
		if pk.Equals(payer.PublicKey()) {
			return &payer.PrivateKey
		}
		return nil
	})
	require.NoError(t, err)
	return tx
}

func TestEncodeDecode(t *testing.T) {
	tx := sampleTx(t)
	for _, enc := range []Encoding{Base58, Base64} {
		s, err := Encode(tx, enc)
		require.NoError(t, err)

		got, err := Decode(" \n"+s+"\t ", enc)
		require.NoError(t, err)
		assert.Equal(t, tx.Signatures, got.Signatures)

		wantMsg, err := tx.Message.MarshalBinary()
		require.NoError(t, err)
		gotMsg, err := got.Message.MarshalBinary()
		require.NoError(t, err)
		assert.Equal(t, wantMsg, gotMsg)

		auto, detected, err := DecodeAuto(s)
		require.NoError(t, err)
		assert.Equal(t, enc, detected)
		assert.Equal(t, tx.Signatures, auto.Signatures)
	}
}

func TestDecodeErrors(t *testing.T) {
	_, err := Decode("!!!", Base64)
	assert.Error(t, err)
	_, err = Decode("abc", "hex")
	assert.Error(t, err)
	_, _, err = DecodeAuto("not a transaction")
	assert.Error(t, err)
}

func TestStripSpace(t *testing.T) {
	assert.Equal(t, "abc", StripSpace(" a\nb\r\tc "))
}
