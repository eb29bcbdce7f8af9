package services

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"kuma/internal/generation"
	"kuma/internal/models"
	"kuma/internal/store"
)

// GenerationResult is a persisted assessment plus the raw text it was built from.
type GenerationResult struct {
	Assessment *models.Assessment `json:"assessment"`
	RawContent string             `json:"generatedContent"`
}

type AssessmentService struct {
	store     store.Store
	generator *generation.Generator
	logger    *zap.Logger
}

func NewAssessmentService(st store.Store, generator *generation.Generator, logger *zap.Logger) *AssessmentService {
	return &AssessmentService{
		store:     st,
		generator: generator,
		logger:    serviceLogger(logger, "assessment"),
	}
}

// Generate builds and stores a test or descriptor assessment owned by ownerID.
// Model failures never surface here: the generator substitutes demo content.
func (s *AssessmentService) Generate(ctx context.Context, ownerID string, req models.GenerationRequest) (*GenerationResult, error) {
	req = generation.NormalizeRequest(req)
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	if req.ContentKind != models.ContentTest && req.ContentKind != models.ContentDescriptor {
		return nil, invalid("type", "must be 'test' or 'descriptor'")
	}

	out := s.generator.GenerateAssessment(ctx, req)
	a := out.Assessment
	a.OwnerID = ownerID

	if err := s.store.CreateAssessment(ctx, a); err != nil {
		s.logger.Error("store assessment", zap.String("owner_id", ownerID), zap.Error(err))
		return nil, &PersistenceError{Op: "create assessment", Err: err}
	}
	return &GenerationResult{Assessment: a, RawContent: out.RawContent}, nil
}

// Get returns the assessment only when ownerID owns it.
func (s *AssessmentService) Get(ctx context.Context, ownerID, id string) (*models.Assessment, error) {
	a, err := s.store.GetAssessment(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, &PersistenceError{Op: "get assessment", Err: err}
	}
	if a.OwnerID != ownerID {
		return nil, ErrNotFound
	}
	return a, nil
}

func (s *AssessmentService) ListMine(ctx context.Context, ownerID string) ([]models.Assessment, error) {
	list, err := s.store.ListAssessmentsByOwner(ctx, ownerID)
	if err != nil {
		return nil, &PersistenceError{Op: "list assessments", Err: err}
	}
	return list, nil
}

func validateRequest(req models.GenerationRequest) error {
	switch {
	case req.Subject == "":
		return invalid("subject", "is required")
	case req.GradeLevel == "":
		return invalid("grade", "is required")
	case req.Topic == "":
		return invalid("topic", "is required")
	}
	return nil
}

func serviceLogger(logger *zap.Logger, name string) *zap.Logger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return logger.With(zap.String("service", name))
}

func trimmed(s string) string {
	return strings.TrimSpace(s)
}
