package pump

import (
	"github.com/gagliardetto/solana-go"

	"github.com/ninja0404/pump-launch-go/pkg/constants"
	"github.com/ninja0404/pump-launch-go/pkg/pda"
)

// createIdempotentTag selects CreateIdempotent in the associated-token program.
const createIdempotentTag = 1

// NewCreateIdempotentATAInstruction creates owner's token account for mint if
// it does not exist yet, paid by payer. Succeeds when the account already exists.
func NewCreateIdempotentATAInstruction(payer, owner, mint, tokenProgram solana.PublicKey) (solana.Instruction, solana.PublicKey, error) {
	if tokenProgram.IsZero() {
		tokenProgram = constants.TokenProgramID
	}
	ata, err := pda.AssociatedTokenAccountWithProgram(owner, mint, tokenProgram)
	if err != nil {
		return nil, solana.PublicKey{}, err
	}
	ix := solana.NewInstruction(
		constants.AssociatedTokenProgramID,
		solana.AccountMetaSlice{
			solana.NewAccountMeta(payer, true, true),
			solana.NewAccountMeta(ata, true, false),
			solana.NewAccountMeta(owner, false, false),
			solana.NewAccountMeta(mint, false, false),
			solana.NewAccountMeta(constants.SystemProgramID, false, false),
			solana.NewAccountMeta(tokenProgram, false, false),
		},
		[]byte{createIdempotentTag},
	)
	return ix, ata, nil
}
