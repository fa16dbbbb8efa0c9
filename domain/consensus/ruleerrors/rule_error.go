package ruleerrors

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/prismledger/prismd/domain/consensus/model/externalapi"
)

// These constants are used to identify a specific RuleError.
var (
	// ErrInvalidAdversaryRatio indicates that the assumed adversary mining
	// power ratio is not a number inside [0, 1).
	ErrInvalidAdversaryRatio = newRuleError("ErrInvalidAdversaryRatio")

	// ErrInvalidQuantile indicates that the confirmation quantile is
	// negative or not a finite number.
	ErrInvalidQuantile = newRuleError("ErrInvalidQuantile")

	// ErrTooManyVoterChains indicates that more voter tips were given than
	// can be counted with a 16 bit chain number.
	ErrTooManyVoterChains = newRuleError("ErrTooManyVoterChains")

	// ErrNoVoterChains indicates that the network is configured without voter chains.
	ErrNoVoterChains = newRuleError("ErrNoVoterChains")

	// ErrNilVoterTip indicates that one of the given voter tips is nil
	ErrNilVoterTip = newRuleError("ErrNilVoterTip")

	// ErrVoteDepthOverflow indicates that the sum of all vote depths of a
	// level does not fit in 64 bits
	ErrVoteDepthOverflow = newRuleError("ErrVoteDepthOverflow")

	// ErrVoterTipsCountMismatch indicates that the number of voter tips differs
	// from the number of voter chains of the network.
	ErrVoterTipsCountMismatch = newRuleError("ErrVoterTipsCountMismatch")

	// ErrWrongChainNumber indicates that a voter block was added to a chain
	// other than the one it belongs to.
	ErrWrongChainNumber = newRuleError("ErrWrongChainNumber")

	// ErrWrongVoterParent indicates that a voter block does not extend the tip
	// it was added to.
	ErrWrongVoterParent = newRuleError("ErrWrongVoterParent")

	// ErrLedgerOrderWithoutLeader indicates an attempt to set the ledger order
	// of a level whose leader is not confirmed yet.
	ErrLedgerOrderWithoutLeader = newRuleError("ErrLedgerOrderWithoutLeader")

	// ErrLedgerOrderAlreadySet indicates an attempt to change the ledger order
	// of a level after it was set.
	ErrLedgerOrderAlreadySet = newRuleError("ErrLedgerOrderAlreadySet")
)

// RuleError identifies a rule violation. It is used to indicate that
// the caller of the consensus core broke one of its preconditions, or
// attempted to undo a decision that is final. The caller can use
// errors.Is / errors.As to determine if a failure was specifically due
// to a rule violation.
type RuleError struct {
	message string
	inner   error
}

// Error satisfies the error interface and prints human-readable errors.
func (e RuleError) Error() string {
	if e.inner != nil {
		return e.message + ": " + e.inner.Error()
	}
	return e.message
}

// Unwrap satisfies the errors.Unwrap interface
func (e RuleError) Unwrap() error {
	return e.inner
}

// Cause satisfies the github.com/pkg/errors.Cause interface
func (e RuleError) Cause() error {
	return e.inner
}

func newRuleError(message string) RuleError {
	return RuleError{message: message, inner: nil}
}

// ErrLeaderAlreadyConfirmed indicates an attempt to overwrite the confirmed leader of a level
type ErrLeaderAlreadyConfirmed struct {
	Level             uint64
	ConfirmedLeader   *externalapi.DomainHash
	AttemptedOverride *externalapi.DomainHash
}

func (e ErrLeaderAlreadyConfirmed) Error() string {
	return fmt.Sprintf("leader of level %d is already confirmed as %s, cannot replace it with %s",
		e.Level, e.ConfirmedLeader, e.AttemptedOverride)
}

// NewErrLeaderAlreadyConfirmed creates a new ErrLeaderAlreadyConfirmed error wrapped in a RuleError
func NewErrLeaderAlreadyConfirmed(level uint64, confirmedLeader, attemptedOverride *externalapi.DomainHash) error {
	return errors.WithStack(RuleError{
		message: "ErrLeaderAlreadyConfirmed",
		inner:   ErrLeaderAlreadyConfirmed{level, confirmedLeader, attemptedOverride},
	})
}
