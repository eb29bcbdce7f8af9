package generation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"kuma/internal/llm"
	"kuma/internal/logging"
	"kuma/internal/models"
)

// Attempt is the outcome of the single model call made for a request: either
// the reply text or the reason the call failed.
type Attempt struct {
	Text string
	Err  error
}

func (a Attempt) Failed() bool {
	return a.Err != nil
}

// AssessmentOutcome is what SelectAssessment settled on. Reason is nil when the
// model reply was used and otherwise explains why demo content replaced it.
type AssessmentOutcome struct {
	Assessment *models.Assessment
	RawContent string
	Reason     error
}

type LessonPlanOutcome struct {
	LessonPlan *models.LessonPlan
	RawContent string
	Reason     error
}

// Generator runs the prompt, call, parse and fallback steps for one request.
// A nil provider is valid: every call then fails over to demo content.
type Generator struct {
	provider llm.Provider
	timeout  time.Duration
	logger   *zap.Logger
}

func NewGenerator(provider llm.Provider, timeout time.Duration, logger *zap.Logger) *Generator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Generator{
		provider: provider,
		timeout:  timeout,
		logger:   logger.With(zap.String("component", "generator")),
	}
}

// Call makes exactly one model request. It never returns an error; failures,
// including the timeout, are carried in the Attempt.
func (g *Generator) Call(ctx context.Context, purpose, prompt string, jsonMode bool) Attempt {
	if g.provider == nil {
		return Attempt{Err: llm.ErrNotConfigured}
	}

	ctx = llm.WithPurpose(ctx, purpose)
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	resp, err := g.provider.Generate(ctx, llm.Request{
		System: systemPrompt,
		Prompt: prompt,
		JSON:   jsonMode,
	})
	if err != nil {
		return Attempt{Err: err}
	}
	return Attempt{Text: resp.Text}
}

// GenerateAssessment produces an unsaved assessment for a normalized request.
func (g *Generator) GenerateAssessment(ctx context.Context, req models.GenerationRequest) AssessmentOutcome {
	attempt := g.Call(ctx, llm.PurposeAssessment, BuildAssessmentPrompt(req), true)
	out := SelectAssessment(req, attempt)
	g.logOutcome(ctx, "assessment", out.Reason,
		zap.String("type", string(req.ContentKind)),
		zap.Int("total_points", out.Assessment.TotalPoints))
	return out
}

// GenerateLessonPlan produces an unsaved lesson plan for a normalized request.
func (g *Generator) GenerateLessonPlan(ctx context.Context, req models.GenerationRequest) LessonPlanOutcome {
	attempt := g.Call(ctx, llm.PurposeLessonPlan, BuildLessonPlanPrompt(req), false)
	out := SelectLessonPlan(req, attempt)
	g.logOutcome(ctx, "lesson plan", out.Reason, zap.Int("duration", req.DurationMinutes))
	return out
}

func (g *Generator) logOutcome(ctx context.Context, what string, reason error, fields ...zap.Field) {
	logger := g.logger
	if id, ok := logging.TraceID(ctx); ok {
		logger = logger.With(zap.String("trace_id", id))
	}
	if reason == nil {
		logger.Info(what+" generated by model", fields...)
		return
	}
	fields = append(fields, zap.Error(reason), zap.Bool("not_configured", errors.Is(reason, llm.ErrNotConfigured)))
	logger.Warn("model call failed, using demo content for "+what, fields...)
}

// SelectAssessment picks the model reply when it parses, else demo content.
func SelectAssessment(req models.GenerationRequest, attempt Attempt) AssessmentOutcome {
	reason := attempt.Err
	if reason == nil {
		content, err := ParseAssessment(req, attempt.Text)
		if err == nil {
			return AssessmentOutcome{
				Assessment: BuildAssessment(req, content, models.SourceModel),
				RawContent: attempt.Text,
			}
		}
		reason = err
	}

	content, raw := DemoAssessment(req)
	return AssessmentOutcome{
		Assessment: BuildAssessment(req, content, models.SourceFallback),
		RawContent: raw,
		Reason:     reason,
	}
}

// SelectLessonPlan picks the model reply when at least one section heading is
// found in it, else the demo plan.
func SelectLessonPlan(req models.GenerationRequest, attempt Attempt) LessonPlanOutcome {
	reason := attempt.Err
	if reason == nil {
		sections, err := ParseSections(attempt.Text)
		if err == nil {
			return LessonPlanOutcome{
				LessonPlan: BuildLessonPlan(req, sections, models.SourceModel),
				RawContent: attempt.Text,
			}
		}
		reason = err
	}

	raw := DemoLessonPlanText(req)
	sections, err := ParseSections(raw)
	if err != nil {
		panic(fmt.Sprintf("demo lesson plan does not parse: %v", err))
	}
	return LessonPlanOutcome{
		LessonPlan: BuildLessonPlan(req, sections, models.SourceFallback),
		RawContent: raw,
		Reason:     reason,
	}
}

// BuildLessonPlan turns parsed sections into an unsaved LessonPlan.
func BuildLessonPlan(req models.GenerationRequest, s Sections, source models.Source) *models.LessonPlan {
	objectives := req.Objectives
	if objectives == nil {
		objectives = []string{}
	}
	return &models.LessonPlan{
		Subject:         req.Subject,
		GradeLevel:      req.GradeLevel,
		Topic:           req.Topic,
		Objectives:      objectives,
		DurationMinutes: req.DurationMinutes,
		Introduction:    s.Introduction,
		Goals:           s.Goals,
		Methods:         s.Methods,
		MainBody:        s.MainBody,
		AssessmentNote:  s.Assessment,
		Reflection:      s.Reflection,
		Homework:        s.Homework,
		Source:          source,
	}
}

func mustIndent(v any) string {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		panic(err)
	}
	return string(b)
}
