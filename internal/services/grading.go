package services

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"kuma/internal/grading"
	"kuma/internal/models"
	"kuma/internal/store"
)

// SubmissionInput is one student's work for an assessment. Answers are used
// for tests, EssayText for every other assessment type.
type SubmissionInput struct {
	AssessmentID string   `json:"assessmentId"`
	StudentName  string   `json:"studentName"`
	Answers      []string `json:"answers"`
	EssayText    string   `json:"essayText"`
	FileName     string   `json:"-"`
}

// ResultView is a submission together with the assessment it answers.
type ResultView struct {
	*models.Submission
	Assessment *models.Assessment `json:"assessment"`
}

type GradingService struct {
	store       store.Store
	assessments *AssessmentService
	engine      *grading.Engine
	logger      *zap.Logger
}

func NewGradingService(st store.Store, assessments *AssessmentService, engine *grading.Engine, logger *zap.Logger) *GradingService {
	return &GradingService{
		store:       st,
		assessments: assessments,
		engine:      engine,
		logger:      serviceLogger(logger, "grading"),
	}
}

// Grade scores the input and stores exactly one submission. The assessment
// must belong to ownerID.
func (s *GradingService) Grade(ctx context.Context, ownerID string, in SubmissionInput) (*models.Submission, error) {
	in.StudentName = trimmed(in.StudentName)
	if trimmed(in.AssessmentID) == "" {
		return nil, invalid("assessmentId", "is required")
	}
	if in.StudentName == "" {
		return nil, invalid("studentName", "is required")
	}

	a, err := s.assessments.Get(ctx, ownerID, in.AssessmentID)
	if err != nil {
		return nil, err
	}

	sub, err := s.engine.Grade(ctx, a, grading.Payload{
		StudentName: in.StudentName,
		Answers:     in.Answers,
		EssayText:   in.EssayText,
		FileName:    in.FileName,
	})
	if err != nil {
		if errors.Is(err, grading.ErrEssayRequired) {
			return nil, invalid("essayText", "is required for this assessment")
		}
		return nil, err
	}

	if err := s.store.CreateSubmission(ctx, sub); err != nil {
		s.logger.Error("store submission", zap.String("assessment_id", a.ID), zap.Error(err))
		return nil, &PersistenceError{Op: "create submission", Err: err}
	}
	s.logger.Info("submission graded",
		zap.String("submission_id", sub.ID),
		zap.String("source", string(sub.GradingSource)),
		zap.Int("score", sub.TotalScore),
		zap.Int("max_score", sub.MaxScore))
	return sub, nil
}

// Results lists the submissions for an assessment owned by ownerID, newest first.
func (s *GradingService) Results(ctx context.Context, ownerID, assessmentID string) ([]models.Submission, error) {
	if _, err := s.assessments.Get(ctx, ownerID, assessmentID); err != nil {
		return nil, err
	}
	list, err := s.store.ListSubmissionsByAssessment(ctx, assessmentID)
	if err != nil {
		return nil, &PersistenceError{Op: "list submissions", Err: err}
	}
	return list, nil
}

// Result returns one submission with its assessment.
func (s *GradingService) Result(ctx context.Context, ownerID, submissionID string) (*ResultView, error) {
	sub, err := s.store.GetSubmission(ctx, submissionID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, &PersistenceError{Op: "get submission", Err: err}
	}
	a, err := s.assessments.Get(ctx, ownerID, sub.AssessmentID)
	if err != nil {
		return nil, err
	}
	return &ResultView{Submission: sub, Assessment: a}, nil
}
