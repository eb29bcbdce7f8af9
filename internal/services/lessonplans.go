package services

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"kuma/internal/generation"
	"kuma/internal/models"
	"kuma/internal/store"
)

type LessonPlanResult struct {
	LessonPlan *models.LessonPlan `json:"lessonPlan"`
	RawContent string             `json:"generatedContent"`
}

type LessonPlanService struct {
	store     store.Store
	generator *generation.Generator
	logger    *zap.Logger
}

func NewLessonPlanService(st store.Store, generator *generation.Generator, logger *zap.Logger) *LessonPlanService {
	return &LessonPlanService{
		store:     st,
		generator: generator,
		logger:    serviceLogger(logger, "lesson_plan"),
	}
}

func (s *LessonPlanService) Generate(ctx context.Context, ownerID string, req models.GenerationRequest) (*LessonPlanResult, error) {
	req = generation.NormalizeRequest(req)
	req.ContentKind = models.ContentLessonPlan
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	out := s.generator.GenerateLessonPlan(ctx, req)
	plan := out.LessonPlan
	plan.OwnerID = ownerID

	if err := s.store.CreateLessonPlan(ctx, plan); err != nil {
		s.logger.Error("store lesson plan", zap.String("owner_id", ownerID), zap.Error(err))
		return nil, &PersistenceError{Op: "create lesson plan", Err: err}
	}
	return &LessonPlanResult{LessonPlan: plan, RawContent: out.RawContent}, nil
}

func (s *LessonPlanService) Get(ctx context.Context, ownerID, id string) (*models.LessonPlan, error) {
	plan, err := s.store.GetLessonPlan(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, &PersistenceError{Op: "get lesson plan", Err: err}
	}
	if plan.OwnerID != ownerID {
		return nil, ErrNotFound
	}
	return plan, nil
}

func (s *LessonPlanService) ListMine(ctx context.Context, ownerID string) ([]models.LessonPlan, error) {
	list, err := s.store.ListLessonPlansByOwner(ctx, ownerID)
	if err != nil {
		return nil, &PersistenceError{Op: "list lesson plans", Err: err}
	}
	return list, nil
}
