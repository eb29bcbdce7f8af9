// Package grading scores submissions against a generated assessment: exact-match
// for tests, model or heuristic scoring for essays.
package grading

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"go.uber.org/zap"

	"kuma/internal/generation"
	"kuma/internal/llm"
	"kuma/internal/models"
)

// ErrEssayRequired is returned when an assessment without discrete answers is
// graded with no essay text.
var ErrEssayRequired = errors.New("essay text is required for this assessment")

// DefaultMaxScore is the essay scale used when the assessment carries no point total.
const DefaultMaxScore = 100

// Payload is one student's work.
type Payload struct {
	StudentName string
	Answers     []string
	EssayText   string
	FileName    string
}

type Engine struct {
	generator *generation.Generator
	logger    *zap.Logger
	now       func() time.Time
}

// NewEngine builds an engine that sends essays through generator. The
// generator's provider may be nil, in which case every essay is scored by the
// heuristic.
func NewEngine(generator *generation.Generator, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		generator: generator,
		logger:    logger.With(zap.String("component", "grading")),
		now:       time.Now,
	}
}

// Grade scores p against a and returns an unsaved Submission.
func (e *Engine) Grade(ctx context.Context, a *models.Assessment, p Payload) (*models.Submission, error) {
	sub := &models.Submission{
		AssessmentID:  a.ID,
		StudentName:   p.StudentName,
		GradedAnswers: []models.GradedAnswer{},
		FileName:      p.FileName,
		GradedBy:      models.GradedAutomated,
		SubmittedAt:   e.now().UTC(),
	}

	if a.ContentKind == models.ContentTest {
		gradeObjective(a, p.Answers, sub)
	} else {
		essay := strings.TrimSpace(p.EssayText)
		if essay == "" {
			return nil, ErrEssayRequired
		}
		e.gradeEssay(ctx, a, essay, sub)
	}

	sub.GradedAt = e.now().UTC()
	return sub, nil
}

// gradeObjective compares answers position by position with the item keys.
// Answers past the last item are ignored.
func gradeObjective(a *models.Assessment, answers []string, sub *models.Submission) {
	correct := 0
	for i, item := range a.Items {
		if i >= len(answers) {
			break
		}
		ga := models.GradedAnswer{ItemID: item.ID, Answer: answers[i]}
		if answers[i] == item.CorrectAnswer {
			ga.IsCorrect = true
			ga.PointsAwarded = item.Points
			correct++
		}
		sub.TotalScore += ga.PointsAwarded
		sub.GradedAnswers = append(sub.GradedAnswers, ga)
	}

	sub.MaxScore = a.TotalPoints
	sub.GradingSource = models.GradingExactMatch
	sub.Feedback = fmt.Sprintf("Сіз %d сұрақтың %d дұрыс жауап бердіңіз.", len(a.Items), correct)
}

func (e *Engine) gradeEssay(ctx context.Context, a *models.Assessment, essay string, sub *models.Submission) {
	grade, source := e.scoreEssay(ctx, a, essay)

	sub.EssayText = essay
	sub.TotalScore = int(math.Round(grade.Score))
	sub.MaxScore = a.TotalPoints
	if sub.MaxScore == 0 {
		sub.MaxScore = DefaultMaxScore
	}
	sub.Feedback = grade.Feedback
	sub.GradingSource = source
	sub.AIAnalysis = &models.Analysis{
		Strengths:   grade.Strengths,
		Weaknesses:  grade.Weaknesses,
		Suggestions: grade.Suggestions,
	}
}

func (e *Engine) scoreEssay(ctx context.Context, a *models.Assessment, essay string) (EssayGrade, models.GradingSource) {
	if e.generator != nil {
		attempt := e.generator.Call(ctx, llm.PurposeGrading, BuildEssayPrompt(a, essay), true)
		err := attempt.Err
		if err == nil {
			grade, perr := ParseEssayGrade(attempt.Text)
			if perr == nil {
				return grade, models.GradingModel
			}
			err = perr
		}
		e.logger.Warn("essay grading call failed, using heuristic",
			zap.String("assessment_id", a.ID), zap.Error(err))
	}
	return HeuristicGrade(essay, a.Topic), models.GradingHeuristic
}
