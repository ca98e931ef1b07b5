package errors

type Code string

const (
	CodeUnknown           Code = "UNKNOWN"
	CodeInternal          Code = "INTERNAL_ERROR"
	CodeConfigValidation  Code = "CONFIG_VALIDATION_ERROR"
	CodeConfigReadError   Code = "CONFIG_READ_ERROR"
	CodeConfigParseError  Code = "CONFIG_PARSE_ERROR"
	CodeConfigNotFound    Code = "CONFIG_NOT_FOUND"
	CodePlatformAPIError  Code = "PLATFORM_API_ERROR"
	CodePlatformAuthError Code = "PLATFORM_AUTH_ERROR"
	CodeResourceNotFound  Code = "RESOURCE_NOT_FOUND"
	CodeNotImplemented    Code = "NOT_IMPLEMENTED"
	CodeTimeout           Code = "TIMEOUT_ERROR"

	// Stack reconciliation
	CodeStackOperationFailed Code = "STACK_OPERATION_FAILED"

	// Organizations tree
	CodeAmbiguousRoot        Code = "AMBIGUOUS_ROOT"
	CodeUnsupportedChildType Code = "UNSUPPORTED_CHILD_TYPE"

	// Polling helpers
	CodePollExhausted Code = "POLL_EXHAUSTED"

	// Stack definition files
	CodeDefinitionReadError  Code = "DEFINITION_READ_ERROR"
	CodeDefinitionParseError Code = "DEFINITION_PARSE_ERROR"
	CodeDefinitionInvalid    Code = "DEFINITION_INVALID"
)

func (c Code) String() string {
	return string(c)
}
