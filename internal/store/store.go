// Package store persists users, generated artifacts, submissions and model
// call audit records. Two backends implement Store: SQLite (default) and MongoDB.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"kuma/internal/models"
)

var (
	// ErrNotFound is returned when a record with the given key does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when a unique key (user email) already exists.
	ErrDuplicate = errors.New("duplicate record")
)

// Store is a keyed document store. Create methods assign an identifier and a
// UTC timestamp when the record does not carry them yet. List methods return
// records ordered by creation time, newest first.
type Store interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)

	CreateAssessment(ctx context.Context, a *models.Assessment) error
	GetAssessment(ctx context.Context, id string) (*models.Assessment, error)
	ListAssessmentsByOwner(ctx context.Context, ownerID string) ([]models.Assessment, error)

	CreateLessonPlan(ctx context.Context, p *models.LessonPlan) error
	GetLessonPlan(ctx context.Context, id string) (*models.LessonPlan, error)
	ListLessonPlansByOwner(ctx context.Context, ownerID string) ([]models.LessonPlan, error)

	CreateSubmission(ctx context.Context, s *models.Submission) error
	GetSubmission(ctx context.Context, id string) (*models.Submission, error)
	ListSubmissionsByAssessment(ctx context.Context, assessmentID string) ([]models.Submission, error)

	RecordLLMCall(ctx context.Context, call *models.LLMCall) error

	Close(ctx context.Context) error
}

func stamp(id *string, at *time.Time) {
	if *id == "" {
		*id = uuid.NewString()
	}
	if at.IsZero() {
		*at = time.Now().UTC()
	}
}

// The normalize helpers replace nil lists with empty ones so every backend
// returns [] rather than null.

func normalizeAssessment(a *models.Assessment) {
	if a.Items == nil {
		a.Items = []models.AssessmentItem{}
	}
	if a.Tasks == nil {
		a.Tasks = []models.DescriptorTask{}
	}
	for i := range a.Tasks {
		if a.Tasks[i].Descriptors == nil {
			a.Tasks[i].Descriptors = []string{}
		}
	}
	if a.Descriptors == nil {
		a.Descriptors = []string{}
	}
}

func normalizeLessonPlan(p *models.LessonPlan) {
	if p.Objectives == nil {
		p.Objectives = []string{}
	}
}

func normalizeSubmission(sub *models.Submission) {
	if sub.GradedAnswers == nil {
		sub.GradedAnswers = []models.GradedAnswer{}
	}
	if a := sub.AIAnalysis; a != nil {
		if a.Strengths == nil {
			a.Strengths = []string{}
		}
		if a.Weaknesses == nil {
			a.Weaknesses = []string{}
		}
		if a.Suggestions == nil {
			a.Suggestions = []string{}
		}
	}
}
