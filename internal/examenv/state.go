package examenv

import (
	"time"

	"github.com/stemsi/examenv-backend/internal/model"
)

// AttemptState is the lifecycle state of a user's attempts at one exam.
// It is always derived from the latest attempt's timestamps and never stored.
type AttemptState string

const (
	StateNoAttempt      AttemptState = "NO_ATTEMPT"
	StateInProgress     AttemptState = "IN_PROGRESS"
	StateCooldownLocked AttemptState = "COOLDOWN_LOCKED"
	StateRetakeable     AttemptState = "RETAKEABLE"
)

// CooldownWindow is how long after an attempt's effective submission a new
// attempt is refused.
const CooldownWindow = 24 * time.Hour

// LatestAttempt returns the attempt with the greatest start time, breaking
// ties by epoch. It returns nil for an empty history.
func LatestAttempt(attempts []model.ExamAttempt) *model.ExamAttempt {
	var latest *model.ExamAttempt
	for i := range attempts {
		a := &attempts[i]
		if latest == nil ||
			a.StartTimeInMS > latest.StartTimeInMS ||
			(a.StartTimeInMS == latest.StartTimeInMS && a.Epoch > latest.Epoch) {
			latest = a
		}
	}
	return latest
}

// Deadline is the last instant, in unix milliseconds, at which attempt accepts answers.
func Deadline(attempt *model.ExamAttempt, exam *model.CatalogExam) int64 {
	return attempt.StartTimeInMS + exam.Config.TotalTimeInMS
}

// EffectiveSubmissionTime is the submission time when every question has been
// answered, otherwise the attempt's deadline.
func EffectiveSubmissionTime(attempt *model.ExamAttempt, exam *model.CatalogExam) int64 {
	if attempt.SubmissionTimeInMS != nil {
		return *attempt.SubmissionTimeInMS
	}
	return Deadline(attempt, exam)
}

// IsExpired reports whether now is past the attempt's deadline.
func IsExpired(attempt *model.ExamAttempt, exam *model.CatalogExam, now time.Time) bool {
	return now.UnixMilli() > Deadline(attempt, exam)
}

// Classify derives the state of a user's attempts at exam from the latest one.
//
// An incomplete attempt with time left is InProgress and is resumed as is.
// Otherwise the attempt is CooldownLocked until CooldownWindow has passed
// since its effective submission time, and Retakeable after that.
func Classify(latest *model.ExamAttempt, exam *model.CatalogExam, now time.Time) AttemptState {
	if latest == nil {
		return StateNoAttempt
	}
	if latest.SubmissionTimeInMS == nil && !IsExpired(latest, exam, now) {
		return StateInProgress
	}
	if now.UnixMilli()-EffectiveSubmissionTime(latest, exam) < CooldownWindow.Milliseconds() {
		return StateCooldownLocked
	}
	return StateRetakeable
}

// CooldownEndsAt returns when latest stops blocking a new attempt.
func CooldownEndsAt(latest *model.ExamAttempt, exam *model.CatalogExam) time.Time {
	return time.UnixMilli(EffectiveSubmissionTime(latest, exam)).Add(CooldownWindow)
}
