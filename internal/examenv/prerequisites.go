package examenv

import "github.com/stemsi/examenv-backend/internal/model"

// CheckPrerequisites reports whether every prerequisite of exam is among the
// user's completed challenge ids.
func CheckPrerequisites(exam *model.CatalogExam, completedChallengeIDs []string) bool {
	completed := make(map[string]struct{}, len(completedChallengeIDs))
	for _, id := range completedChallengeIDs {
		completed[id] = struct{}{}
	}
	for _, id := range exam.Prerequisites {
		if _, ok := completed[id]; !ok {
			return false
		}
	}
	return true
}
