package examenv

import (
	"fmt"

	"github.com/jinzhu/copier"
	"github.com/stemsi/examenv-backend/internal/model"
)

// ConstructUserExam renders generated as the app will see it: catalog text
// for every served question and answer, in served order, without answer keys.
func ConstructUserExam(generated *model.GeneratedExam, exam *model.CatalogExam) (*model.UserExam, error) {
	sets := make(map[string]*model.QuestionSet, len(exam.QuestionSets))
	for i := range exam.QuestionSets {
		sets[exam.QuestionSets[i].ID] = &exam.QuestionSets[i]
	}

	userExam := &model.UserExam{
		ID: exam.ID,
		Config: model.UserExamConfig{
			Name:          exam.Config.Name,
			Note:          exam.Config.Note,
			TotalTimeInMS: exam.Config.TotalTimeInMS,
		},
		QuestionSets: make([]model.UserQuestionSet, 0, len(generated.QuestionSets)),
	}

	for _, gset := range generated.QuestionSets {
		set, ok := sets[gset.ID]
		if !ok {
			return nil, fmt.Errorf("%w: question set %q", ErrExamMismatch, gset.ID)
		}
		questions := make(map[string]*model.Question, len(set.Questions))
		for i := range set.Questions {
			questions[set.Questions[i].ID] = &set.Questions[i]
		}

		uset := model.UserQuestionSet{
			ID:        set.ID,
			Type:      set.Type,
			Context:   set.Context,
			Questions: make([]model.UserQuestion, 0, len(gset.Questions)),
		}
		for _, gq := range gset.Questions {
			q, ok := questions[gq.ID]
			if !ok {
				return nil, fmt.Errorf("%w: question %q in set %q", ErrExamMismatch, gq.ID, gset.ID)
			}
			answers := make(map[string]*model.Answer, len(q.Answers))
			for i := range q.Answers {
				answers[q.Answers[i].ID] = &q.Answers[i]
			}

			uq := model.UserQuestion{
				ID:      q.ID,
				Text:    q.Text,
				Answers: make([]model.UserAnswer, 0, len(gq.Answers)),
			}
			for _, id := range gq.Answers {
				a, ok := answers[id]
				if !ok {
					return nil, fmt.Errorf("%w: answer %q in question %q", ErrExamMismatch, id, q.ID)
				}
				var ua model.UserAnswer
				if err := copier.Copy(&ua, a); err != nil {
					return nil, fmt.Errorf("copy answer %q: %w", id, err)
				}
				uq.Answers = append(uq.Answers, ua)
			}
			uset.Questions = append(uset.Questions, uq)
		}
		userExam.QuestionSets = append(userExam.QuestionSets, uset)
	}

	return userExam, nil
}
