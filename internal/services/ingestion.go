package services

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"kuma/internal/models"
)

// ProgressCallback is called while an essay file is processed.
type ProgressCallback func(step, message string, current, total int)

// EssayUpload is one uploaded essay file.
type EssayUpload struct {
	AssessmentID string
	StudentName  string
	FileName     string
	Body         io.Reader
}

// IngestionService turns uploaded essay files into graded submissions:
// store the file, read its text, grade it.
type IngestionService struct {
	documents *DocumentService
	grading   *GradingService
	logger    *zap.Logger
}

func NewIngestionService(documents *DocumentService, grading *GradingService, logger *zap.Logger) *IngestionService {
	return &IngestionService{
		documents: documents,
		grading:   grading,
		logger:    serviceLogger(logger, "ingestion"),
	}
}

func (s *IngestionService) GradeEssayFile(ctx context.Context, ownerID string, up EssayUpload) (*models.Submission, error) {
	return s.GradeEssayFileWithProgress(ctx, ownerID, up, nil)
}

func (s *IngestionService) GradeEssayFileWithProgress(ctx context.Context, ownerID string, up EssayUpload, progress ProgressCallback) (*models.Submission, error) {
	report := func(step, message string, current int) {
		if progress != nil {
			progress(step, message, current, 100)
		}
	}

	// check access before touching the disk
	a, err := s.grading.assessments.Get(ctx, ownerID, up.AssessmentID)
	if err != nil {
		return nil, err
	}
	if a.ContentKind == models.ContentTest {
		return nil, invalid("assessmentId", "test assessments are graded from answers, not files")
	}

	report("upload", "Saving file", 0)
	stored, err := s.documents.Save(up.FileName, up.Body)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := os.Remove(stored.StoredPath); err != nil {
			s.logger.Warn("remove upload", zap.String("path", stored.StoredPath), zap.Error(err))
		}
	}()

	report("extract", "Reading essay text", 20)
	text, err := s.documents.ReadText(stored)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", up.FileName, err)
	}

	studentName := trimmed(up.StudentName)
	if studentName == "" {
		studentName = StudentNameFromFile(up.FileName)
	}

	report("grade", "Grading essay", 40)
	sub, err := s.grading.Grade(ctx, ownerID, SubmissionInput{
		AssessmentID: up.AssessmentID,
		StudentName:  studentName,
		EssayText:    text,
		FileName:     up.FileName,
	})
	if err != nil {
		return nil, err
	}

	report("complete", "Processing complete", 100)
	return sub, nil
}

// StudentNameFromFile derives a student name from an upload name such as
// "Айгерім_Сапарова.pdf".
func StudentNameFromFile(name string) string {
	base := strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
	base = strings.NewReplacer("_", " ", "-", " ").Replace(base)
	return strings.Join(strings.Fields(base), " ")
}
