package models

import "time"

type ContentKind string

const (
	ContentTest       ContentKind = "test"
	ContentDescriptor ContentKind = "descriptor"
	ContentLessonPlan ContentKind = "lessonPlan"
)

type ItemKind string

const (
	ItemMultipleChoice ItemKind = "multiple-choice"
	ItemOpen           ItemKind = "open"
)

// CognitiveLevel is a Bloom taxonomy tier, L1 (remember) through L6 (create).
type CognitiveLevel string

const (
	LevelL1 CognitiveLevel = "L1"
	LevelL2 CognitiveLevel = "L2"
	LevelL3 CognitiveLevel = "L3"
	LevelL4 CognitiveLevel = "L4"
	LevelL5 CognitiveLevel = "L5"
	LevelL6 CognitiveLevel = "L6"
)

// CognitiveLevels lists the tiers in ascending order.
var CognitiveLevels = []CognitiveLevel{LevelL1, LevelL2, LevelL3, LevelL4, LevelL5, LevelL6}

func (l CognitiveLevel) Valid() bool {
	for _, lvl := range CognitiveLevels {
		if l == lvl {
			return true
		}
	}
	return false
}

type TaskLevel string

const (
	TaskLow    TaskLevel = "low"
	TaskMedium TaskLevel = "medium"
	TaskHigh   TaskLevel = "high"
)

func (l TaskLevel) Valid() bool {
	return l == TaskLow || l == TaskMedium || l == TaskHigh
}

// Source records whether an artifact came from the model or the demo generator.
type Source string

const (
	SourceModel    Source = "model"
	SourceFallback Source = "fallback"
)

type GradedBy string

const (
	GradedAutomated GradedBy = "automated"
	GradedHuman     GradedBy = "human"
	GradedHybrid    GradedBy = "hybrid"
)

type GradingSource string

const (
	GradingExactMatch GradingSource = "exact-match"
	GradingModel      GradingSource = "model"
	GradingHeuristic  GradingSource = "heuristic"
)

type User struct {
	ID           string    `json:"id" bson:"_id"`
	Name         string    `json:"name" bson:"name"`
	Email        string    `json:"email" bson:"email"`
	PasswordHash string    `json:"-" bson:"password_hash"`
	Subject      string    `json:"subject,omitempty" bson:"subject,omitempty"`
	School       string    `json:"school,omitempty" bson:"school,omitempty"`
	Role         string    `json:"role" bson:"role"`
	CreatedAt    time.Time `json:"createdAt" bson:"created_at"`
}

// GenerationRequest carries the user-supplied parameters for one generation call.
// JSON names follow the public API.
type GenerationRequest struct {
	Subject         string      `json:"subject"`
	GradeLevel      string      `json:"grade"`
	Topic           string      `json:"topic"`
	ContentKind     ContentKind `json:"type"`
	ItemCount       int         `json:"questionCount"`
	Objectives      []string    `json:"learningObjectives"`
	DurationMinutes int         `json:"duration"`
}

type AssessmentItem struct {
	ID             string         `json:"id" bson:"id"`
	Prompt         string         `json:"question" bson:"prompt"`
	Kind           ItemKind       `json:"type" bson:"kind"`
	Options        []string       `json:"options,omitempty" bson:"options,omitempty"`
	CorrectAnswer  string         `json:"correctAnswer" bson:"correct_answer"`
	CognitiveLevel CognitiveLevel `json:"bloomLevel" bson:"cognitive_level"`
	Points         int            `json:"points" bson:"points"`
}

type DescriptorTask struct {
	ID          string    `json:"id" bson:"id"`
	Task        string    `json:"task" bson:"task"`
	Level       TaskLevel `json:"level" bson:"level"`
	Descriptors []string  `json:"descriptors" bson:"descriptors"`
	Points      int       `json:"points" bson:"points"`
}

type Assessment struct {
	ID          string           `json:"id" bson:"_id"`
	OwnerID     string           `json:"userId" bson:"owner_id"`
	Subject     string           `json:"subject" bson:"subject"`
	GradeLevel  string           `json:"grade" bson:"grade_level"`
	Topic       string           `json:"topic" bson:"topic"`
	ContentKind ContentKind      `json:"type" bson:"content_kind"`
	Items       []AssessmentItem `json:"questions" bson:"items"`
	Tasks       []DescriptorTask `json:"tasks" bson:"tasks"`
	Descriptors []string         `json:"descriptors" bson:"descriptors"`
	Criteria    string           `json:"criteria" bson:"criteria"`
	TotalPoints int              `json:"totalPoints" bson:"total_points"`
	Source      Source           `json:"source" bson:"source"`
	CreatedAt   time.Time        `json:"createdAt" bson:"created_at"`
}

type LessonPlan struct {
	ID              string    `json:"id" bson:"_id"`
	OwnerID         string    `json:"userId" bson:"owner_id"`
	Subject         string    `json:"subject" bson:"subject"`
	GradeLevel      string    `json:"grade" bson:"grade_level"`
	Topic           string    `json:"topic" bson:"topic"`
	Objectives      []string  `json:"learningObjectives" bson:"objectives"`
	DurationMinutes int       `json:"duration" bson:"duration_minutes"`
	Introduction    string    `json:"introduction" bson:"introduction"`
	Goals           string    `json:"lessonGoals" bson:"goals"`
	Methods         string    `json:"methods" bson:"methods"`
	MainBody        string    `json:"mainPart" bson:"main_body"`
	AssessmentNote  string    `json:"assessment" bson:"assessment_note"`
	Reflection      string    `json:"reflection" bson:"reflection"`
	Homework        string    `json:"homework" bson:"homework"`
	Source          Source    `json:"source" bson:"source"`
	CreatedAt       time.Time `json:"createdAt" bson:"created_at"`
}

type GradedAnswer struct {
	ItemID        string `json:"questionId" bson:"item_id"`
	Answer        string `json:"answer" bson:"answer"`
	IsCorrect     bool   `json:"isCorrect" bson:"is_correct"`
	PointsAwarded int    `json:"points" bson:"points_awarded"`
}

type Analysis struct {
	Strengths   []string `json:"strengths" bson:"strengths"`
	Weaknesses  []string `json:"weaknesses" bson:"weaknesses"`
	Suggestions []string `json:"suggestions" bson:"suggestions"`
}

// Submission is one graded piece of student work. For test assessments
// TotalScore and MaxScore are both in item points. For essays TotalScore is
// the 0-100 rubric score while MaxScore is the assessment's TotalPoints
// (100 when unset), so a descriptor essay can read 95 of 15.
type Submission struct {
	ID            string         `json:"id" bson:"_id"`
	AssessmentID  string         `json:"assessmentId" bson:"assessment_id"`
	StudentName   string         `json:"studentName" bson:"student_name"`
	GradedAnswers []GradedAnswer `json:"answers" bson:"graded_answers"`
	EssayText     string         `json:"essayText,omitempty" bson:"essay_text,omitempty"`
	FileName      string         `json:"fileName,omitempty" bson:"file_name,omitempty"`
	TotalScore    int            `json:"totalScore" bson:"total_score"`
	MaxScore      int            `json:"maxScore" bson:"max_score"`
	Feedback      string         `json:"feedback" bson:"feedback"`
	AIAnalysis    *Analysis      `json:"aiAnalysis,omitempty" bson:"ai_analysis,omitempty"`
	GradedBy      GradedBy       `json:"gradedBy" bson:"graded_by"`
	GradingSource GradingSource  `json:"gradingSource" bson:"grading_source"`
	SubmittedAt   time.Time      `json:"submittedAt" bson:"submitted_at"`
	GradedAt      time.Time      `json:"gradedAt" bson:"graded_at"`
}

// LLMCall is an audit record of one model request.
type LLMCall struct {
	ID           string    `json:"id" bson:"_id"`
	Purpose      string    `json:"purpose" bson:"purpose"`
	Model        string    `json:"model" bson:"model"`
	LatencyMs    int64     `json:"latencyMs" bson:"latency_ms"`
	Success      bool      `json:"success" bson:"success"`
	InputTokens  int       `json:"inputTokens" bson:"input_tokens"`
	OutputTokens int       `json:"outputTokens" bson:"output_tokens"`
	Error        string    `json:"error,omitempty" bson:"error,omitempty"`
	CreatedAt    time.Time `json:"createdAt" bson:"created_at"`
}
