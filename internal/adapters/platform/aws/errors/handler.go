package errors

import (
	"context"
	stderrs "errors"
	"fmt"
	"slices"
	"strings"

	"github.com/aws/smithy-go"
	"github.com/olusolaa/better-aws/internal/errors"
)

// HandleAWSError maps an SDK error to an application error code.
// resourceType: the AWS resource type (e.g. "CloudFormation stack", "SSM parameter")
// resourceID: the identifier for the resource
func HandleAWSError(resourceType string, resourceID string, err error, ctx context.Context) error {
	if err == nil {
		return errors.New(errors.CodeInternal, fmt.Sprintf("unexpected nil error in AWS error handler for %s", resourceType))
	}

	if ctx.Err() != nil {
		return errors.Wrap(ctx.Err(), errors.CodePlatformAPIError,
			fmt.Sprintf("context canceled during AWS %s API call", resourceType))
	}

	if stderrs.Is(err, context.Canceled) || stderrs.Is(err, context.DeadlineExceeded) {
		return errors.Wrap(err, errors.CodePlatformAPIError,
			fmt.Sprintf("context canceled during AWS %s API call", resourceType))
	}

	errMsg := err.Error()

	if strings.Contains(errMsg, "AuthFailure") ||
		strings.Contains(errMsg, "UnauthorizedOperation") ||
		strings.Contains(errMsg, "AccessDenied") ||
		strings.Contains(errMsg, "ExpiredToken") {
		return errors.Wrap(err, errors.CodePlatformAuthError,
			fmt.Sprintf("AWS authentication error accessing %s %s", resourceType, resourceID))
	}

	if isNotFoundError(err, errMsg) {
		return errors.Wrap(err, errors.CodeResourceNotFound,
			fmt.Sprintf("%s '%s' not found", resourceType, resourceID))
	}

	return errors.Wrap(err, errors.CodePlatformAPIError,
		fmt.Sprintf("failed to access %s '%s'", resourceType, resourceID))
}

func isNotFoundError(err error, errMsg string) bool {
	if strings.Contains(errMsg, "NotFound") ||
		strings.Contains(errMsg, "not found") ||
		strings.Contains(errMsg, "does not exist") {
		return true
	}

	if code := ErrorCode(err); code != "" {
		return isNotFoundErrorCode(code)
	}
	return false
}

var notFoundCodes = []string{
	// SSM
	"ParameterNotFound",
	"ParameterVersionNotFound",

	// Organizations
	"AccountNotFoundException",
	"ChildNotFoundException",
	"OrganizationalUnitNotFoundException",
	"ParentNotFoundException",
	"RootNotFoundException",
	"TargetNotFoundException",

	// CloudFormation
	"ChangeSetNotFound",
	"StackNotFoundException",

	// Generic
	"ResourceNotFoundException",
	"EntityNotFoundException",
	"NotFoundException",
}

func isNotFoundErrorCode(code string) bool {
	return slices.Contains(notFoundCodes, code)
}

// DefaultErrorHandler implements shared.ErrorHandler.
type DefaultErrorHandler struct{}

func (d *DefaultErrorHandler) Handle(service, operation string, err error, ctx context.Context) error {
	return HandleAWSError(service, operation, err, ctx)
}

// ErrorCode extracts the provider error code, or "" when err carries none.
func ErrorCode(err error) string {
	var apiErr smithy.APIError
	if stderrs.As(err, &apiErr) && apiErr != nil {
		return apiErr.ErrorCode()
	}
	var coded interface{ ErrorCode() string }
	if stderrs.As(err, &coded) && coded != nil {
		return coded.ErrorCode()
	}
	return ""
}

// ErrorMessage returns the provider message when available, else err.Error().
func ErrorMessage(err error) string {
	var apiErr smithy.APIError
	if stderrs.As(err, &apiErr) && apiErr != nil {
		return apiErr.ErrorMessage()
	}
	return err.Error()
}
