package response

// ErrCode is a typed error code enum for consistent API error identification.
type ErrCode string

const (
	// ─── Authorization token ───────────────────────────────────────────
	ErrTokenRequired ErrCode = "TOKEN_REQUIRED"
	ErrTokenInvalid  ErrCode = "TOKEN_INVALID"
	ErrTokenExpired  ErrCode = "TOKEN_EXPIRED"

	// ─── Validation ────────────────────────────────────────────────────
	ErrValidation     ErrCode = "VALIDATION_ERROR"
	ErrInvalidPayload ErrCode = "INVALID_PAYLOAD"

	// ─── Exam environment ──────────────────────────────────────────────
	ErrExamNotFound        ErrCode = "EXAM_NOT_FOUND"
	ErrPrerequisitesUnmet  ErrCode = "PREREQUISITES_UNMET"
	ErrCooldownActive      ErrCode = "COOLDOWN_ACTIVE"
	ErrAttemptExpired      ErrCode = "ATTEMPT_EXPIRED"
	ErrInvalidAttempt      ErrCode = "INVALID_ATTEMPT"
	ErrGeneratedExamAbsent ErrCode = "GENERATED_EXAM_NOT_FOUND"
	ErrIntegrity           ErrCode = "INTEGRITY_ERROR"
	ErrUnreachable         ErrCode = "UNREACHABLE"

	// ─── Media ─────────────────────────────────────────────────────────
	ErrFileRequired        ErrCode = "FILE_REQUIRED"
	ErrUnsupportedFile     ErrCode = "UNSUPPORTED_FILE_TYPE"
	ErrFileTooLarge        ErrCode = "FILE_TOO_LARGE"
	ErrScreenshotsDisabled ErrCode = "SCREENSHOTS_DISABLED"

	// ─── Rate Limiting ─────────────────────────────────────────────────
	ErrRateLimitExceeded ErrCode = "RATE_LIMIT_EXCEEDED"

	// ─── Server ────────────────────────────────────────────────────────
	ErrInternal ErrCode = "INTERNAL_ERROR"
)

// GetMessage returns a human-readable message for a given error code.
func GetMessage(code ErrCode) string {
	switch code {
	// ─── Authorization token ───────────────────────────────────────────
	case ErrTokenRequired:
		return "Exam environment authorization token is required."
	case ErrTokenInvalid:
		return "Exam environment authorization token is invalid."
	case ErrTokenExpired:
		return "Exam environment authorization token has expired."

	// ─── Validation ────────────────────────────────────────────────────
	case ErrValidation:
		return "Validation failed."
	case ErrInvalidPayload:
		return "Invalid request body."

	// ─── Exam environment ──────────────────────────────────────────────
	case ErrExamNotFound:
		return "Invalid exam id given."
	case ErrPrerequisitesUnmet:
		return "User has not completed prerequisites."
	case ErrCooldownActive:
		return "User has completed exam too recently to retake."
	case ErrAttemptExpired:
		return "Attempt has exceeded submission time."
	case ErrInvalidAttempt:
		return "Attempt does not match the generated exam."
	case ErrGeneratedExamAbsent:
		return "Generated exam not found."
	case ErrIntegrity:
		return "Stored exam data is inconsistent."
	case ErrUnreachable:
		return "Unreachable. User not authenticated."

	// ─── Media ─────────────────────────────────────────────────────────
	case ErrFileRequired:
		return "A screenshot file is required."
	case ErrUnsupportedFile:
		return "Unsupported file type."
	case ErrFileTooLarge:
		return "File is too large."
	case ErrScreenshotsDisabled:
		return "Screenshot uploads are not enabled."

	// ─── Rate Limiting ─────────────────────────────────────────────────
	case ErrRateLimitExceeded:
		return "Too many requests. Please try again later."

	// ─── Server ────────────────────────────────────────────────────────
	case ErrInternal:
		return "An internal server error occurred."

	default:
		return "An unknown error occurred."
	}
}
