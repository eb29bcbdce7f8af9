package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"kuma/internal/models"
)

const (
	usersCollection       = "users"
	assessmentsCollection = "assessments"
	lessonPlansCollection = "lesson_plans"
	submissionsCollection = "submissions"
	llmCallsCollection    = "llm_calls"
)

type MongoStore struct {
	client *mongo.Client
	db     *mongo.Database
}

// OpenMongo connects to uri, pings the server and ensures indexes.
func OpenMongo(ctx context.Context, uri, database string) (*MongoStore, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	s := &MongoStore{client: client, db: client.Database(database)}
	if err := s.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return s, nil
}

func (s *MongoStore) ensureIndexes(ctx context.Context) error {
	indexes := map[string][]mongo.IndexModel{
		usersCollection: {{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true),
		}},
		assessmentsCollection: {{Keys: bson.D{{Key: "owner_id", Value: 1}, {Key: "created_at", Value: -1}}}},
		lessonPlansCollection: {{Keys: bson.D{{Key: "owner_id", Value: 1}, {Key: "created_at", Value: -1}}}},
		submissionsCollection: {{Keys: bson.D{{Key: "assessment_id", Value: 1}, {Key: "submitted_at", Value: -1}}}},
	}
	for name, idx := range indexes {
		if _, err := s.db.Collection(name).Indexes().CreateMany(ctx, idx); err != nil {
			return fmt.Errorf("create %s indexes: %w", name, err)
		}
	}
	return nil
}

func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func (s *MongoStore) CreateUser(ctx context.Context, u *models.User) error {
	stamp(&u.ID, &u.CreatedAt)
	if u.Role == "" {
		u.Role = "teacher"
	}
	if _, err := s.db.Collection(usersCollection).InsertOne(ctx, u); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (s *MongoStore) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	var u models.User
	if err := s.findOne(ctx, usersCollection, bson.M{"_id": id}, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *MongoStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	if err := s.findOne(ctx, usersCollection, bson.M{"email": email}, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *MongoStore) CreateAssessment(ctx context.Context, a *models.Assessment) error {
	stamp(&a.ID, &a.CreatedAt)
	normalizeAssessment(a)
	if _, err := s.db.Collection(assessmentsCollection).InsertOne(ctx, a); err != nil {
		return fmt.Errorf("insert assessment: %w", err)
	}
	return nil
}

func (s *MongoStore) GetAssessment(ctx context.Context, id string) (*models.Assessment, error) {
	var a models.Assessment
	if err := s.findOne(ctx, assessmentsCollection, bson.M{"_id": id}, &a); err != nil {
		return nil, err
	}
	normalizeAssessment(&a)
	return &a, nil
}

func (s *MongoStore) ListAssessmentsByOwner(ctx context.Context, ownerID string) ([]models.Assessment, error) {
	out := []models.Assessment{}
	err := s.findMany(ctx, assessmentsCollection, bson.M{"owner_id": ownerID}, "created_at", &out)
	for i := range out {
		normalizeAssessment(&out[i])
	}
	return out, err
}

func (s *MongoStore) CreateLessonPlan(ctx context.Context, p *models.LessonPlan) error {
	stamp(&p.ID, &p.CreatedAt)
	normalizeLessonPlan(p)
	if _, err := s.db.Collection(lessonPlansCollection).InsertOne(ctx, p); err != nil {
		return fmt.Errorf("insert lesson plan: %w", err)
	}
	return nil
}

func (s *MongoStore) GetLessonPlan(ctx context.Context, id string) (*models.LessonPlan, error) {
	var p models.LessonPlan
	if err := s.findOne(ctx, lessonPlansCollection, bson.M{"_id": id}, &p); err != nil {
		return nil, err
	}
	normalizeLessonPlan(&p)
	return &p, nil
}

func (s *MongoStore) ListLessonPlansByOwner(ctx context.Context, ownerID string) ([]models.LessonPlan, error) {
	out := []models.LessonPlan{}
	err := s.findMany(ctx, lessonPlansCollection, bson.M{"owner_id": ownerID}, "created_at", &out)
	for i := range out {
		normalizeLessonPlan(&out[i])
	}
	return out, err
}

func (s *MongoStore) CreateSubmission(ctx context.Context, sub *models.Submission) error {
	stamp(&sub.ID, &sub.SubmittedAt)
	if sub.GradedAt.IsZero() {
		sub.GradedAt = sub.SubmittedAt
	}
	normalizeSubmission(sub)
	if _, err := s.db.Collection(submissionsCollection).InsertOne(ctx, sub); err != nil {
		return fmt.Errorf("insert submission: %w", err)
	}
	return nil
}

func (s *MongoStore) GetSubmission(ctx context.Context, id string) (*models.Submission, error) {
	var sub models.Submission
	if err := s.findOne(ctx, submissionsCollection, bson.M{"_id": id}, &sub); err != nil {
		return nil, err
	}
	normalizeSubmission(&sub)
	return &sub, nil
}

func (s *MongoStore) ListSubmissionsByAssessment(ctx context.Context, assessmentID string) ([]models.Submission, error) {
	out := []models.Submission{}
	err := s.findMany(ctx, submissionsCollection, bson.M{"assessment_id": assessmentID}, "submitted_at", &out)
	for i := range out {
		normalizeSubmission(&out[i])
	}
	return out, err
}

func (s *MongoStore) RecordLLMCall(ctx context.Context, call *models.LLMCall) error {
	stamp(&call.ID, &call.CreatedAt)
	if _, err := s.db.Collection(llmCallsCollection).InsertOne(ctx, call); err != nil {
		return fmt.Errorf("insert llm call: %w", err)
	}
	return nil
}

func (s *MongoStore) findOne(ctx context.Context, collection string, filter bson.M, dst any) error {
	err := s.db.Collection(collection).FindOne(ctx, filter).Decode(dst)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return ErrNotFound
		}
		return fmt.Errorf("find %s: %w", collection, err)
	}
	return nil
}

func (s *MongoStore) findMany(ctx context.Context, collection string, filter bson.M, sortField string, dst any) error {
	opts := options.Find().SetSort(bson.D{{Key: sortField, Value: -1}})
	cur, err := s.db.Collection(collection).Find(ctx, filter, opts)
	if err != nil {
		return fmt.Errorf("find %s: %w", collection, err)
	}
	if err := cur.All(ctx, dst); err != nil {
		return fmt.Errorf("decode %s: %w", collection, err)
	}
	return nil
}
