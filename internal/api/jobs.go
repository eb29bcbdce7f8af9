package api

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	JobStatusPending    = "pending"
	JobStatusProcessing = "processing"
	JobStatusComplete   = "complete"

	FileStatusPending    = "pending"
	FileStatusProcessing = "processing"
	FileStatusComplete   = "complete"
	FileStatusError      = "error"
)

// GradingJob tracks a batch of essay files graded in the background.
type GradingJob struct {
	ID           string         `json:"jobId"`
	OwnerID      string         `json:"-"`
	AssessmentID string         `json:"assessmentId"`
	Status       string         `json:"status"`
	CreatedAt    time.Time      `json:"createdAt"`
	UpdatedAt    time.Time      `json:"updatedAt"`
	Files        []FileProgress `json:"files"`
	Results      []EssayResult  `json:"results,omitempty"`
}

// FileProgress is the per-file state the client polls.
type FileProgress struct {
	Index   int          `json:"index"`
	Name    string       `json:"name"`
	Status  string       `json:"status"`
	Step    string       `json:"step,omitempty"`
	Message string       `json:"message,omitempty"`
	Current int          `json:"current"`
	Total   int          `json:"total"`
	Percent int          `json:"percent"`
	Result  *EssayResult `json:"result,omitempty"`
	Error   string       `json:"error,omitempty"`
}

// EssayResult summarizes one graded file.
type EssayResult struct {
	Name          string `json:"name"`
	StudentName   string `json:"studentName,omitempty"`
	SubmissionID  string `json:"submissionId,omitempty"`
	TotalScore    int    `json:"totalScore"`
	MaxScore      int    `json:"maxScore"`
	GradingSource string `json:"gradingSource,omitempty"`
	Status        string `json:"status"`
	Message       string `json:"message,omitempty"`
}

type JobManager struct {
	mu   sync.RWMutex
	jobs map[string]*GradingJob
}

func NewJobManager() *JobManager {
	return &JobManager{
		jobs: make(map[string]*GradingJob),
	}
}

func (m *JobManager) CreateJob(ownerID, assessmentID string, fileNames []string) (string, *GradingJob) {
	files := make([]FileProgress, len(fileNames))
	for i, name := range fileNames {
		files[i] = FileProgress{
			Index:  i,
			Name:   name,
			Status: FileStatusPending,
		}
	}
	now := time.Now().UTC()
	job := &GradingJob{
		ID:           uuid.NewString(),
		OwnerID:      ownerID,
		AssessmentID: assessmentID,
		Status:       JobStatusPending,
		CreatedAt:    now,
		UpdatedAt:    now,
		Files:        files,
	}

	m.mu.Lock()
	m.jobs[job.ID] = job
	m.mu.Unlock()

	return job.ID, job.clone()
}

// GetJob returns a snapshot of the job when ownerID started it.
func (m *JobManager) GetJob(id, ownerID string) (*GradingJob, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	job, ok := m.jobs[id]
	if !ok || job.OwnerID != ownerID {
		return nil, false
	}
	return job.clone(), true
}

func (m *JobManager) MarkProcessing(id string) {
	m.withJob(id, func(job *GradingJob) {
		job.Status = JobStatusProcessing
	})
}

func (m *JobManager) MarkCompleted(id string) {
	m.withJob(id, func(job *GradingJob) {
		job.Status = JobStatusComplete
	})
}

func (m *JobManager) MarkFileStarted(id string, index int) {
	m.withJob(id, func(job *GradingJob) {
		if file := job.file(index); file != nil {
			file.Status = FileStatusProcessing
			file.Step = ""
			file.Message = "Starting"
			file.Current = 0
			file.Total = 100
			file.Percent = 0
			file.Error = ""
		}
	})
}

func (m *JobManager) UpdateFileProgress(id string, index int, step, message string, current, total int) {
	m.withJob(id, func(job *GradingJob) {
		if file := job.file(index); file != nil {
			file.Status = FileStatusProcessing
			file.Step = step
			file.Message = message
			file.Current = current
			file.Total = total
			file.Percent = percent(current, total)
		}
	})
}

func (m *JobManager) MarkFileComplete(id string, index int, result EssayResult) {
	m.withJob(id, func(job *GradingJob) {
		result.Status = FileStatusComplete
		if file := job.file(index); file != nil {
			file.Status = FileStatusComplete
			file.Step = "complete"
			file.Message = "Graded"
			file.Current = 100
			file.Total = 100
			file.Percent = 100
			file.Result = &result
			file.Error = ""
		}
		job.Results = append(job.Results, result)
	})
}

func (m *JobManager) MarkFileError(id string, index int, message string, result EssayResult) {
	msg := strings.TrimSpace(message)
	if msg == "" {
		msg = "processing error"
	}
	m.withJob(id, func(job *GradingJob) {
		result.Status = FileStatusError
		if result.Message == "" {
			result.Message = msg
		}
		if file := job.file(index); file != nil {
			file.Status = FileStatusError
			file.Step = "error"
			file.Message = msg
			file.Error = msg
			file.Current = 100
			file.Total = 100
			file.Percent = 100
			file.Result = &result
		}
		job.Results = append(job.Results, result)
	})
}

func (m *JobManager) withJob(id string, fn func(job *GradingJob)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	job, ok := m.jobs[id]
	if !ok {
		return
	}
	fn(job)
	job.UpdatedAt = time.Now().UTC()
}

func (job *GradingJob) file(index int) *FileProgress {
	if index < 0 || index >= len(job.Files) {
		return nil
	}
	return &job.Files[index]
}

func (job *GradingJob) clone() *GradingJob {
	if job == nil {
		return nil
	}
	cp := *job
	cp.Files = make([]FileProgress, len(job.Files))
	for i, file := range job.Files {
		cp.Files[i] = file
		if file.Result != nil {
			res := *file.Result
			cp.Files[i].Result = &res
		}
	}
	cp.Results = append([]EssayResult(nil), job.Results...)
	return &cp
}

func percent(current, total int) int {
	if total <= 0 {
		return max(0, min(current, 100))
	}
	if current <= 0 {
		return 0
	}
	if current >= total {
		return 100
	}
	return int((float64(current) / float64(total)) * 100)
}
