package types

import (
	"errors"
	"fmt"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePublicKey(t *testing.T) {
	pk, err := ParsePublicKey("creator", " 6EF8rrecthR5Dkzon8Nwu78hRvfCKubJ14M5uBEwF6P ")
	require.NoError(t, err)
	assert.Equal(t, "6EF8rrecthR5Dkzon8Nwu78hRvfCKubJ14M5uBEwF6P", pk.String())

	for _, bad := range []string{"", "not-a-key", "0OIl"} {
		_, err := ParsePublicKey("creator", bad)
		var addrErr *InvalidAddressError
		require.ErrorAs(t, err, &addrErr, bad)
		assert.Equal(t, "creator", addrErr.Field)
		assert.ErrorIs(t, err, ErrInvalidPublicKey)
	}
}

func TestTypedErrorsUnwrap(t *testing.T) {
	sig := solana.Signature{1}

	failed := fmt.Errorf("launch: %w", &TransactionFailedError{Signature: sig, Err: "custom"})
	assert.ErrorIs(t, failed, ErrTransactionFailed)

	expired := fmt.Errorf("launch: %w", &ConfirmationExpiredError{Signature: sig, Attempts: 10})
	assert.ErrorIs(t, expired, ErrConfirmationTimeout)
	assert.Contains(t, expired.Error(), "10 attempts")

	cause := errors.New("connection reset")
	sub := &SubmissionError{Err: cause}
	assert.ErrorIs(t, sub, cause)

	up := &UploadError{StatusCode: 500, Body: "boom"}
	assert.Contains(t, up.Error(), "status 500")
	assert.Contains(t, up.Error(), "boom")
}

func TestParseSimulationError(t *testing.T) {
	assert.NoError(t, ParseSimulationError(nil, nil))

	errVal := map[string]interface{}{
		"InstructionError": []interface{}{float64(2), map[string]interface{}{"Custom": float64(6002)}},
	}
	err := ParseSimulationError(errVal, []string{"Program log: AnchorError caused by account: bonding_curve. Error Code: TooMuchSolRequired."})
	var progErr *ProgramError
	require.ErrorAs(t, err, &progErr)
	assert.Equal(t, 6002, progErr.Code)
	assert.Contains(t, progErr.Message, "too much SOL")

	err = ParseSimulationError("AccountNotFound", nil)
	var simErr *SimulationError
	require.ErrorAs(t, err, &simErr)
	assert.ErrorIs(t, err, ErrSimulationFailed)
}

func TestValidateTokenFields(t *testing.T) {
	assert.NoError(t, ValidateTokenFields("Pump Token", "PUMP", ""))
	assert.Error(t, ValidateTokenFields("", "PUMP", ""))
	assert.Error(t, ValidateTokenFields("Pump Token", "TOOLONGSYMBOL", ""))
	assert.Error(t, ValidateTokenFields("this name is way longer than thirty two characters", "X", ""))
	assert.NoError(t, ValidateSlippage(10000))
	err := ValidateSlippage(10001)
	var ve ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "slippageBps", ve.Field)
	assert.ErrorIs(t, err, ErrInvalidSlippage)
}

func TestTransactionFailedDecodesPumpCode(t *testing.T) {
	failed := &TransactionFailedError{
		Signature: solana.Signature{2},
		Err:       map[string]interface{}{"InstructionError": []interface{}{float64(1), map[string]interface{}{"Custom": float64(6002)}}},
	}
	assert.ErrorIs(t, failed, ErrTransactionFailed)
	var progErr *ProgramError
	require.ErrorAs(t, failed, &progErr)
	assert.Equal(t, 6002, progErr.Code)
	assert.Contains(t, progErr.Message, "too much SOL")

	plain := &TransactionFailedError{Signature: solana.Signature{2}, Err: "AccountInUse"}
	assert.ErrorIs(t, plain, ErrTransactionFailed)
	assert.False(t, errors.As(plain, &progErr))

	assert.Equal(t, "pump error code 42", ParsePumpError(42).Error())
}
