package response

// ErrCode is a typed error code enum for consistent API error identification.
type ErrCode string

const (
	// Authentication
	ErrInvalidCredentials ErrCode = "INVALID_CREDENTIALS"
	ErrEmailTaken         ErrCode = "EMAIL_TAKEN"
	ErrSessionInvalidated ErrCode = "SESSION_INVALIDATED"
	ErrTokenRequired      ErrCode = "TOKEN_REQUIRED"
	ErrTokenInvalid       ErrCode = "TOKEN_INVALID"
	ErrTokenExpired       ErrCode = "TOKEN_EXPIRED"

	// Authorization
	ErrForbidden ErrCode = "FORBIDDEN"

	// Validation
	ErrValidation     ErrCode = "VALIDATION_ERROR"
	ErrInvalidID      ErrCode = "INVALID_ID"
	ErrInvalidPayload ErrCode = "INVALID_PAYLOAD"

	// Resources
	ErrNotFound ErrCode = "NOT_FOUND"

	// Exam and attempt
	ErrExamNotFound     ErrCode = "EXAM_NOT_FOUND"
	ErrNoQuestions      ErrCode = "NO_QUESTIONS"
	ErrAttemptNotFound  ErrCode = "ATTEMPT_NOT_FOUND"
	ErrAttemptSubmitted ErrCode = "ATTEMPT_ALREADY_SUBMITTED"
	ErrAttemptNotDone   ErrCode = "ATTEMPT_NOT_SUBMITTED"

	// Rate limiting
	ErrRateLimitExceeded ErrCode = "RATE_LIMIT_EXCEEDED"

	// Server
	ErrInternal ErrCode = "INTERNAL_ERROR"
)

// GetMessage returns a human-readable message for a given error code.
func GetMessage(code ErrCode) string {
	switch code {
	case ErrInvalidCredentials:
		return "Incorrect email or password."
	case ErrEmailTaken:
		return "An account with this email already exists."
	case ErrSessionInvalidated:
		return "Your session has ended. Please sign in again."
	case ErrTokenRequired:
		return "An authentication token is required."
	case ErrTokenInvalid:
		return "The authentication token is invalid."
	case ErrTokenExpired:
		return "The authentication token has expired."
	case ErrForbidden:
		return "You do not have permission to access this resource."
	case ErrValidation:
		return "Validation failed. Please check your input."
	case ErrInvalidID:
		return "Invalid id format."
	case ErrInvalidPayload:
		return "Invalid request payload."
	case ErrNotFound:
		return "Resource not found."
	case ErrExamNotFound:
		return "Exam not found."
	case ErrNoQuestions:
		return "This exam has no questions."
	case ErrAttemptNotFound:
		return "Attempt not found or no longer active."
	case ErrAttemptSubmitted:
		return "This attempt has already been submitted."
	case ErrAttemptNotDone:
		return "This attempt has not been submitted yet."
	case ErrRateLimitExceeded:
		return "Too many requests. Please try again later."
	case ErrInternal:
		return "An internal server error occurred."
	default:
		return "An unexpected error occurred."
	}
}
