package runtime

import (
	"context"

	"github.com/hificopy/formflow/pkg/domain"
	"github.com/hificopy/formflow/pkg/rules"
)

// Score sums the per-answer point contributions of every scoring-enabled question.
// The breakdown omits zero contributions. The model is never mutated.
func (e *Engine) Score(ctx context.Context, questions []domain.Question, answers domain.Answers) domain.Score {
	score := aggregate(questions, answers)
	e.emitScore(ctx, score.Total)
	return score
}

func aggregate(questions []domain.Question, answers domain.Answers) domain.Score {
	score := domain.Score{Breakdown: []domain.ScoreEntry{}}

	for i := range questions {
		q := &questions[i]
		if !q.LeadScoringEnabled || len(q.LeadScoring) == 0 {
			continue
		}
		points := contribution(q, answers[q.ID])
		if points == 0 {
			continue
		}
		score.Total += points
		score.Breakdown = append(score.Breakdown, domain.ScoreEntry{
			QuestionID: q.ID,
			Title:      q.Title,
			Score:      points,
		})
	}
	return score
}

// contribution looks up the points for a single answer; missing keys count as 0.
func contribution(q *domain.Question, answer any) int {
	if answer == nil {
		return 0
	}
	switch v := answer.(type) {
	case []any:
		total := 0
		for _, opt := range v {
			total += q.LeadScoring[rules.Stringify(opt)]
		}
		return total
	case []string:
		total := 0
		for _, opt := range v {
			total += q.LeadScoring[opt]
		}
		return total
	}

	key := rules.Stringify(answer)
	if q.Type == domain.QuestionRating {
		key = RatingKey(key)
	}
	return q.LeadScoring[key]
}

// RatingKey is the synthetic scoring key for a rating answer.
func RatingKey(n string) string {
	return "rating-" + n
}
