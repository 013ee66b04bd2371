package service

import "errors"

// Exam environment errors. Handlers map them onto HTTP statuses.
var (
	// NotFound.
	ErrExamNotFound = errors.New("exam not found")

	// PreconditionFailed.
	ErrPrerequisitesUnmet = errors.New("user has not completed prerequisites")
	ErrCooldownActive     = errors.New("user has completed exam too recently to retake")
	ErrAttemptExpired     = errors.New("attempt has exceeded submission time")

	// Integrity: stored state references something that no longer exists.
	ErrGeneratedExamMissing = errors.New("generated exam not found")

	// Unreachable for a well-behaved client.
	ErrNoAttempt    = errors.New("no exam attempt to update")
	ErrUserNotFound = errors.New("authenticated user not found")

	// Authorization.
	ErrTokenInvalid = errors.New("exam environment authorization token is invalid")
	ErrTokenExpired = errors.New("exam environment authorization token has expired")
)
