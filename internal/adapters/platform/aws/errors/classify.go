package errors

import (
	"fmt"
	"strings"
)

// The provider signals several recoverable conditions only through message
// text. Every such match lives in this file; if AWS rewords a message the
// corresponding predicate stops matching and the raw error surfaces instead.
const (
	codeValidationError = "ValidationError"
	codeAlreadyExists   = "AlreadyExistsException"
	codeParamNotFound   = "ParameterNotFound"

	msgNoUpdates          = "No updates are to be performed."
	msgChangeSetNoChanges = "The submitted information didn't contain changes."
	msgWaiterFailure      = "waiter state transitioned to Failure"
	msgWaiterTimeout      = "exceeded max wait time"
)

// IsStackNotFound reports whether err is the ValidationError that DescribeStacks
// returns for an unknown stack name.
func IsStackNotFound(err error, stackName string) bool {
	if err == nil || ErrorCode(err) != codeValidationError {
		return false
	}
	return strings.Contains(ErrorMessage(err), fmt.Sprintf("Stack with id %s does not exist", stackName))
}

// IsNoUpdates matches the UpdateStack rejection for an unchanged template.
// The message must match exactly.
func IsNoUpdates(err error) bool {
	if err == nil {
		return false
	}
	return ErrorMessage(err) == msgNoUpdates
}

// IsNoChangesReason reports whether a FAILED change set status reason means
// "nothing to change" rather than a real failure.
func IsNoChangesReason(reason string) bool {
	return strings.Contains(reason, msgChangeSetNoChanges) ||
		strings.Contains(reason, "didn't contain changes") ||
		strings.Contains(reason, msgNoUpdates)
}

func IsAlreadyExists(err error) bool {
	return err != nil && ErrorCode(err) == codeAlreadyExists
}

func IsParameterNotFound(err error) bool {
	return err != nil && ErrorCode(err) == codeParamNotFound
}

// IsWaiterFailure matches the SDK waiter error for a terminal failure state.
func IsWaiterFailure(err error) bool {
	return err != nil && strings.Contains(err.Error(), msgWaiterFailure)
}

// IsWaiterTimeout matches the SDK waiter error for an exhausted max wait time.
func IsWaiterTimeout(err error) bool {
	return err != nil && strings.Contains(err.Error(), msgWaiterTimeout)
}
