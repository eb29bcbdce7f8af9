package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"kuma/internal/logging"
	"kuma/internal/models"
	"kuma/internal/services"
)

const (
	maxMultipartMemory = 8 << 20 // 8 MB
	maxJSONBody        = 1 << 20
)

// Services bundles the application services the HTTP layer calls.
type Services struct {
	Auth        *services.AuthService
	Assessments *services.AssessmentService
	LessonPlans *services.LessonPlanService
	Grading     *services.GradingService
	Ingestion   *services.IngestionService
}

type Server struct {
	router      chi.Router
	auth        *services.AuthService
	assessments *services.AssessmentService
	lessonPlans *services.LessonPlanService
	grading     *services.GradingService
	ingestion   *services.IngestionService
	jobs        *JobManager
	running     sync.WaitGroup
	logger      *zap.Logger
}

func NewServer(svc Services, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		router:      chi.NewRouter(),
		auth:        svc.Auth,
		assessments: svc.Assessments,
		lessonPlans: svc.LessonPlans,
		grading:     svc.Grading,
		ingestion:   svc.Ingestion,
		jobs:        NewJobManager(),
		logger:      logger.With(zap.String("component", "http")),
	}
	s.routes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}

// WaitForJobs blocks until background grading jobs finish or ctx ends.
func (s *Server) WaitForJobs(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.running.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Server) routes() {
	r := s.router
	r.Use(requestLogger(s.logger))
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		methodNotAllowed(w)
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Post("/auth/register", s.handleRegister)
		r.Post("/auth/login", s.handleLogin)

		r.Group(func(r chi.Router) {
			r.Use(s.requireAuth)

			r.Post("/assessment/generate", s.handleGenerateAssessment)
			r.Get("/assessment/my-assessments", s.handleListAssessments)
			r.Get("/assessment/{id}", s.handleGetAssessment)

			r.Post("/lesson-plan/generate", s.handleGenerateLessonPlan)
			r.Get("/lesson-plan/my-plans", s.handleListLessonPlans)
			r.Get("/lesson-plan/{id}", s.handleGetLessonPlan)

			r.Post("/grading/check", s.handleCheck)
			r.Post("/grading/check-file", s.handleCheckFile)
			r.Post("/grading/jobs", s.handleCreateGradingJob)
			r.Get("/grading/jobs/{id}", s.handleJobStatus)
			r.Get("/grading/results/{assessmentId}", s.handleResults)
			r.Get("/grading/result/{id}", s.handleResult)
		})
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var payload services.RegisterInput
	if !decodeJSON(w, r, &payload) {
		return
	}
	res, err := s.auth.Register(r.Context(), payload)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var payload loginRequest
	if !decodeJSON(w, r, &payload) {
		return
	}
	res, err := s.auth.Login(r.Context(), payload.Email, payload.Password)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleGenerateAssessment(w http.ResponseWriter, r *http.Request) {
	var req models.GenerationRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	res, err := s.assessments.Generate(r.Context(), userID(r), req)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

func (s *Server) handleListAssessments(w http.ResponseWriter, r *http.Request) {
	list, err := s.assessments.ListMine(r.Context(), userID(r))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleGetAssessment(w http.ResponseWriter, r *http.Request) {
	a, err := s.assessments.Get(r.Context(), userID(r), chi.URLParam(r, "id"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (s *Server) handleGenerateLessonPlan(w http.ResponseWriter, r *http.Request) {
	var req models.GenerationRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	res, err := s.lessonPlans.Generate(r.Context(), userID(r), req)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

func (s *Server) handleListLessonPlans(w http.ResponseWriter, r *http.Request) {
	list, err := s.lessonPlans.ListMine(r.Context(), userID(r))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleGetLessonPlan(w http.ResponseWriter, r *http.Request) {
	plan, err := s.lessonPlans.Get(r.Context(), userID(r), chi.URLParam(r, "id"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, plan)
}

// answerItem accepts the {"answer": "B"} objects older clients send.
type answerItem string

func (a *answerItem) UnmarshalJSON(b []byte) error {
	var plain string
	if err := json.Unmarshal(b, &plain); err == nil {
		*a = answerItem(plain)
		return nil
	}
	var obj struct {
		Answer string `json:"answer"`
	}
	if err := json.Unmarshal(b, &obj); err != nil {
		return fmt.Errorf("answer must be a string or {\"answer\": string}")
	}
	*a = answerItem(obj.Answer)
	return nil
}

type checkRequest struct {
	AssessmentID string       `json:"assessmentId"`
	StudentName  string       `json:"studentName"`
	Answers      []answerItem `json:"answers"`
	EssayText    string       `json:"essayText"`
}

func (s *Server) handleCheck(w http.ResponseWriter, r *http.Request) {
	var payload checkRequest
	if !decodeJSON(w, r, &payload) {
		return
	}
	answers := make([]string, len(payload.Answers))
	for i, a := range payload.Answers {
		answers[i] = string(a)
	}

	sub, err := s.grading.Grade(r.Context(), userID(r), services.SubmissionInput{
		AssessmentID: payload.AssessmentID,
		StudentName:  payload.StudentName,
		Answers:      answers,
		EssayText:    payload.EssayText,
	})
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"submission": sub})
}

func (s *Server) handleCheckFile(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	if form := r.MultipartForm; form != nil {
		defer form.RemoveAll()
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close()

	sub, err := s.ingestion.GradeEssayFile(r.Context(), userID(r), services.EssayUpload{
		AssessmentID: r.FormValue("assessmentId"),
		StudentName:  r.FormValue("studentName"),
		FileName:     header.Filename,
		Body:         file,
	})
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"submission": sub})
}

func (s *Server) handleCreateGradingJob(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	form := r.MultipartForm
	if form == nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	ownerID := userID(r)
	assessmentID := strings.TrimSpace(r.FormValue("assessmentId"))
	if assessmentID == "" {
		form.RemoveAll()
		writeError(w, http.StatusBadRequest, "assessmentId: is required")
		return
	}
	if _, err := s.assessments.Get(r.Context(), ownerID, assessmentID); err != nil {
		form.RemoveAll()
		s.writeServiceError(w, r, err)
		return
	}

	files := form.File["files"]
	if len(files) == 0 {
		form.RemoveAll()
		writeError(w, http.StatusBadRequest, "no files uploaded")
		return
	}

	fileNames := make([]string, len(files))
	for i, file := range files {
		fileNames[i] = file.Filename
	}
	studentNames := form.Value["studentNames"]

	fileHeaders := append([]*multipart.FileHeader(nil), files...)
	jobID, snapshot := s.jobs.CreateJob(ownerID, assessmentID, fileNames)

	s.running.Add(1)
	go func() {
		defer s.running.Done()
		s.runGradingJob(context.WithoutCancel(r.Context()), jobID, ownerID, assessmentID, fileHeaders, studentNames, form)
	}()

	writeJSON(w, http.StatusAccepted, snapshot)
}

func (s *Server) handleJobStatus(w http.ResponseWriter, r *http.Request) {
	job, ok := s.jobs.GetJob(chi.URLParam(r, "id"), userID(r))
	if !ok {
		writeError(w, http.StatusNotFound, "job not found")
		return
	}
	writeJSON(w, http.StatusOK, job)
}

func (s *Server) runGradingJob(ctx context.Context, jobID, ownerID, assessmentID string, files []*multipart.FileHeader, studentNames []string, form *multipart.Form) {
	defer func() {
		if form != nil {
			_ = form.RemoveAll()
		}
	}()

	logger := logging.FromContext(ctx).With(zap.String("job_id", jobID))
	s.jobs.MarkProcessing(jobID)
	for idx, file := range files {
		s.jobs.MarkFileStarted(jobID, idx)
		progress := func(step, message string, current, total int) {
			s.jobs.UpdateFileProgress(jobID, idx, step, message, current, total)
		}

		studentName := ""
		if idx < len(studentNames) {
			studentName = studentNames[idx]
		}
		result, err := s.gradeFile(ctx, ownerID, assessmentID, file, studentName, progress)
		if err != nil {
			logger.Warn("essay file failed", zap.String("file", file.Filename), zap.Error(err))
			s.jobs.MarkFileError(jobID, idx, publicMessage(err), result)
			continue
		}
		s.jobs.MarkFileComplete(jobID, idx, result)
	}
	s.jobs.MarkCompleted(jobID)
	logger.Info("grading job finished", zap.Int("files", len(files)))
}

func (s *Server) gradeFile(ctx context.Context, ownerID, assessmentID string, file *multipart.FileHeader, studentName string, progress services.ProgressCallback) (EssayResult, error) {
	result := EssayResult{Name: file.Filename, Status: FileStatusError}

	src, err := file.Open()
	if err != nil {
		return result, fmt.Errorf("open file %s: %w", file.Filename, err)
	}
	defer src.Close()

	sub, err := s.ingestion.GradeEssayFileWithProgress(ctx, ownerID, services.EssayUpload{
		AssessmentID: assessmentID,
		StudentName:  studentName,
		FileName:     file.Filename,
		Body:         src,
	}, progress)
	if err != nil {
		return result, err
	}

	result.StudentName = sub.StudentName
	result.SubmissionID = sub.ID
	result.TotalScore = sub.TotalScore
	result.MaxScore = sub.MaxScore
	result.GradingSource = string(sub.GradingSource)
	return result, nil
}

func (s *Server) handleResults(w http.ResponseWriter, r *http.Request) {
	list, err := s.grading.Results(r.Context(), userID(r), chi.URLParam(r, "assessmentId"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleResult(w http.ResponseWriter, r *http.Request) {
	view, err := s.grading.Result(r.Context(), userID(r), chi.URLParam(r, "id"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return false
	}
	return true
}

// writeServiceError maps service errors to status codes. Unknown errors are
// logged and reported as 500 without detail.
func (s *Server) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		logging.FromContext(r.Context()).Error("request failed",
			zap.String("path", r.URL.Path), zap.Error(err))
	}
	writeError(w, status, publicMessage(err))
}

func statusFor(err error) int {
	var verr *services.ValidationError
	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, services.ErrInvalidCredentials), errors.Is(err, services.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, services.ErrEmailTaken):
		return http.StatusConflict
	case errors.Is(err, services.ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge
	default:
		return http.StatusInternalServerError
	}
}

func publicMessage(err error) string {
	if statusFor(err) == http.StatusInternalServerError {
		return "internal server error"
	}
	var verr *services.ValidationError
	if errors.As(err, &verr) {
		return verr.Error()
	}
	return err.Error()
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func methodNotAllowed(w http.ResponseWriter, allowed ...string) {
	if len(allowed) > 0 {
		w.Header().Set("Allow", strings.Join(allowed, ", "))
	}
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
}
