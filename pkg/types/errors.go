package types

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/gagliardetto/solana-go"
)

// Common errors
var (
	// Parameter validation errors
	ErrNilRPC           = errors.New("rpc client is nil")
	ErrNilSigner        = errors.New("signer is nil")
	ErrNilFeePayer      = errors.New("fee payer is nil")
	ErrZeroAmount       = errors.New("amount must be greater than 0")
	ErrInvalidSlippage  = errors.New("slippage bps must be <= 10000")
	ErrInvalidPublicKey = errors.New("invalid public key")
	ErrNoInstructions   = errors.New("requires at least one instruction")

	// Account errors
	ErrAccountNotFound      = errors.New("account not found")
	ErrFeeRecipientNotFound = errors.New("fee recipient not found")

	// Encoding errors
	ErrUnknownDiscriminator = errors.New("unknown instruction discriminator")
	ErrEmptyTransaction     = errors.New("no transaction received")

	// Transaction errors
	ErrTransactionFailed   = errors.New("transaction failed")
	ErrSimulationFailed    = errors.New("simulation failed")
	ErrConfirmationTimeout = errors.New("confirmation timeout")
)

// RPCError wraps RPC failures with operation context.
type RPCError struct {
	Op  string
	Err error
}

func (e RPCError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e RPCError) Unwrap() error {
	return e.Err
}

// ValidationError represents input validation failures.
type ValidationError struct {
	Field   string
	Message string
	// Err optionally ties the failure to one of the sentinel errors.
	Err error
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s - %s", e.Field, e.Message)
}

func (e ValidationError) Unwrap() error {
	return e.Err
}

// NewValidationError creates a new validation error.
func NewValidationError(field, message string) ValidationError {
	return ValidationError{Field: field, Message: message}
}

// UploadError is returned when the metadata store rejects or fails an upload.
type UploadError struct {
	StatusCode int
	Body       string
	Err        error
}

func (e *UploadError) Error() string {
	switch {
	case e.Err != nil && e.StatusCode != 0:
		return fmt.Sprintf("metadata upload failed: status %d: %v: %s", e.StatusCode, e.Err, e.Body)
	case e.Err != nil:
		return fmt.Sprintf("metadata upload failed: %v", e.Err)
	default:
		return fmt.Sprintf("metadata upload failed: status %d: %s", e.StatusCode, e.Body)
	}
}

func (e *UploadError) Unwrap() error {
	return e.Err
}

// InvalidAddressError reports a malformed base58 public key at an input boundary.
type InvalidAddressError struct {
	Field string
	Value string
	Err   error
}

func (e *InvalidAddressError) Error() string {
	return fmt.Sprintf("invalid address for %s %q: %v", e.Field, e.Value, e.Err)
}

func (e *InvalidAddressError) Unwrap() error {
	return ErrInvalidPublicKey
}

// InsufficientInputError means the SOL input buys zero tokens on the curve.
type InsufficientInputError struct {
	SolInput uint64
}

func (e *InsufficientInputError) Error() string {
	return fmt.Sprintf("sol input %d lamports yields no tokens", e.SolInput)
}

// MissingSignerError is returned when a required signer role has no key material.
type MissingSignerError struct {
	PublicKey solana.PublicKey
}

func (e *MissingSignerError) Error() string {
	return fmt.Sprintf("missing signer for %s", e.PublicKey)
}

// SubmissionError wraps a transport failure while sending a transaction.
type SubmissionError struct {
	Err error
}

func (e *SubmissionError) Error() string {
	return fmt.Sprintf("submit transaction: %v", e.Err)
}

func (e *SubmissionError) Unwrap() error {
	return e.Err
}

// StaleCheckpointError reports that the recent blockhash expired before submission.
type StaleCheckpointError struct {
	Blockhash solana.Hash
	Err       error
}

func (e *StaleCheckpointError) Error() string {
	return fmt.Sprintf("blockhash %s expired: %v", e.Blockhash, e.Err)
}

func (e *StaleCheckpointError) Unwrap() error {
	return e.Err
}

// SignerTamperedMessageError is returned when a custodian hands back a
// transaction whose message differs from the one it was asked to sign, or
// whose signature does not verify.
type SignerTamperedMessageError struct {
	Signer solana.PublicKey
	Reason string
}

func (e *SignerTamperedMessageError) Error() string {
	return fmt.Sprintf("signer %s returned a tampered transaction: %s", e.Signer, e.Reason)
}

// TransactionFailedError is a transaction that landed on chain with an error.
type TransactionFailedError struct {
	Signature solana.Signature
	Err       interface{}
}

func (e *TransactionFailedError) Error() string {
	return fmt.Sprintf("transaction %s failed: %v", e.Signature, e.Err)
}

// Unwrap exposes ErrTransactionFailed and, for pump custom error codes, the
// decoded *ProgramError.
func (e *TransactionFailedError) Unwrap() []error {
	if code, ok := customErrorCode(e.Err); ok {
		return []error{ErrTransactionFailed, ParsePumpError(code)}
	}
	return []error{ErrTransactionFailed}
}

// ConfirmationExpiredError is a transaction that was never observed within the poll budget.
type ConfirmationExpiredError struct {
	Signature solana.Signature
	Attempts  int
	Err       error
}

func (e *ConfirmationExpiredError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("transaction %s not confirmed after %d attempts: %v", e.Signature, e.Attempts, e.Err)
	}
	return fmt.Sprintf("transaction %s not confirmed after %d attempts", e.Signature, e.Attempts)
}

func (e *ConfirmationExpiredError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrConfirmationTimeout, e.Err}
	}
	return []error{ErrConfirmationTimeout}
}

// LaunchAPIError is a rejection from the hosted launch API.
type LaunchAPIError struct {
	StatusCode int
	Result     string
	Body       string
}

func (e *LaunchAPIError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("launch api: status %d: %s", e.StatusCode, e.Body)
	}
	return fmt.Sprintf("launch api returned error: %s", e.Result)
}

// ProgramError represents on-chain program execution errors.
type ProgramError struct {
	Program string
	Code    int
	Message string
	Logs    []string
}

func (e ProgramError) Error() string {
	return fmt.Sprintf("program %s error [%d]: %s", e.Program, e.Code, e.Message)
}

// SimulationError contains simulation failure details.
type SimulationError struct {
	Err  interface{}
	Logs []string
}

func (e SimulationError) Error() string {
	return fmt.Sprintf("simulation failed: %v", e.Err)
}

func (e SimulationError) Unwrap() error {
	return ErrSimulationFailed
}

// pumpErrors are the custom error codes of the pump bonding-curve program.
var pumpErrors = map[int]string{
	6000: "the given account is not authorized to execute this instruction",
	6001: "program is already initialized",
	6002: "slippage: too much SOL required to buy the given amount of tokens",
	6003: "slippage: too little SOL received to sell the given amount of tokens",
	6004: "the mint does not match the bonding curve",
	6005: "the bonding curve has completed and liquidity migrated",
	6006: "the bonding curve has not completed",
	6007: "the program is not initialized",
}

// ParsePumpError converts pump program error code to friendly error.
func ParsePumpError(code int) error {
	if msg, ok := pumpErrors[code]; ok {
		return &ProgramError{
			Program: "pump",
			Code:    code,
			Message: msg,
		}
	}
	return fmt.Errorf("pump error code %d", code)
}

// ParseSimulationError extracts error details from simulation result.
func ParseSimulationError(errVal interface{}, logs []string) error {
	if errVal == nil {
		return nil
	}

	if code, ok := customErrorCode(errVal); ok {
		return &ProgramError{
			Program: "pump",
			Code:    code,
			Message: parseErrorCode(code, extractAccountFromLogs(logs)),
			Logs:    logs,
		}
	}
	return &SimulationError{Err: errVal, Logs: logs}
}

// customErrorCode pulls the program code out of a ledger error value shaped
// {"InstructionError": [index, {"Custom": code}]}.
func customErrorCode(errVal interface{}) (int, bool) {
	errMap, ok := errVal.(map[string]interface{})
	if !ok {
		return 0, false
	}
	errSlice, ok := errMap["InstructionError"].([]interface{})
	if !ok || len(errSlice) < 2 {
		return 0, false
	}
	custom, ok := errSlice[1].(map[string]interface{})
	if !ok {
		return 0, false
	}
	switch code := custom["Custom"].(type) {
	case float64:
		return int(code), true
	case int:
		return code, true
	case json.Number:
		n, err := code.Int64()
		return int(n), err == nil
	}
	return 0, false
}

// extractAccountFromLogs extracts the account name from Anchor error logs.
func extractAccountFromLogs(logs []string) string {
	const marker = "caused by account: "
	for _, l := range logs {
		if idx := strings.Index(l, marker); idx >= 0 {
			rest := l[idx+len(marker):]
			if end := strings.Index(rest, "."); end >= 0 {
				return rest[:end]
			}
			return rest
		}
	}
	return ""
}

// parseErrorCode converts error code to human-readable message.
func parseErrorCode(code int, account string) string {
	// Anchor framework errors
	switch code {
	case 3012:
		if account != "" {
			return fmt.Sprintf("account '%s' not initialized (create the account first)", account)
		}
		return "account not initialized"
	case 2023:
		return "token program constraint violated (wrong token program for mint)"
	case 3008:
		return "program ID was not as expected (wrong program)"
	}
	if msg, ok := pumpErrors[code]; ok {
		return msg
	}
	return fmt.Sprintf("error code %d", code)
}
