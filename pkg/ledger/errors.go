package ledger

import (
	"fmt"

	hedera "github.com/hashgraph/hedera-sdk-go/v2"
	"github.com/hashicorp/go-multierror"
)

// StatusError reports a transaction that reached the ledger but did not
// resolve to SUCCESS, either at precheck or in its receipt.
type StatusError struct {
	Operation     Operation
	Status        hedera.Status
	TransactionID string
}

func (statusErr *StatusError) Error() string {
	if statusErr.TransactionID == "" {
		return fmt.Sprintf("%s failed with status %s", statusErr.Operation, statusErr.Status.String())
	}
	return fmt.Sprintf(
		"%s failed with status %s (transaction %s)",
		statusErr.Operation,
		statusErr.Status.String(),
		statusErr.TransactionID,
	)
}

// NewStatusError builds a StatusError for op.
func NewStatusError(op Operation, status hedera.Status, transactionID string) error {
	return &StatusError{Operation: op, Status: status, TransactionID: transactionID}
}

// ValidationError reports a request rejected before submission.
type ValidationError struct {
	Operation Operation
	Problems  *multierror.Error
}

func (validationErr *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s request: %v", validationErr.Operation, validationErr.Problems.Errors)
}

func (validationErr *ValidationError) Unwrap() error {
	return validationErr.Problems
}

// MissingEntityError reports a SUCCESS receipt that lacks the entity ID the
// operation was supposed to create.
type MissingEntityError struct {
	Operation Operation
	Entity    string
}

func (missingErr *MissingEntityError) Error() string {
	return fmt.Sprintf("%s receipt did not include a %s ID", missingErr.Operation, missingErr.Entity)
}

func NewMissingEntityError(op Operation, entity string) error {
	return &MissingEntityError{Operation: op, Entity: entity}
}

// RequireSuccess returns a StatusError unless the receipt status is SUCCESS.
func RequireSuccess(op Operation, receipt Receipt) error {
	if receipt.Status != hedera.StatusSuccess {
		return NewStatusError(op, receipt.Status, receipt.TransactionID)
	}
	return nil
}

type problems struct {
	op     Operation
	result *multierror.Error
}

func (p *problems) add(format string, args ...any) {
	p.result = multierror.Append(p.result, fmt.Errorf(format, args...))
}

func (p *problems) err() error {
	if p.result == nil {
		return nil
	}
	return &ValidationError{Operation: p.op, Problems: p.result}
}
