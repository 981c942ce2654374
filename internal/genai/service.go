package genai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/interview-iq/backend/internal/storage/models"
	"github.com/interview-iq/backend/pkg/logger"
)

// Temperatures per operation. Profile generation favors determinism,
// question generation favors variety, the documents sit in between.
const (
	profileTemperature   = 0.2
	questionsTemperature = 0.8
	briefTemperature     = 0.5
	packetTemperature    = 0.6
)

const DefaultQuestionCount = 10

// Service runs the four chained generation operations. A transport
// failure from the completer is returned as an error; a malformed or
// schema-violating response degrades to a fallback artifact instead.
type Service struct {
	completer Completer
}

func NewService(completer Completer) *Service {
	return &Service{completer: completer}
}

// Result carries a generated artifact plus whether it came from the
// fallback path.
type Result[T any] struct {
	Artifact T
	Degraded bool
}

func (s *Service) GenerateProfile(
	ctx context.Context,
	companyName string,
	scraped *models.ScrapeSummary,
	documents []models.ParsedDocument,
	analysis *models.AnalysisResults,
) (Result[map[string]any], error) {
	var b strings.Builder
	fmt.Fprintf(&b, "Company name: %s\n\n", companyName)
	appendJSONSection(&b, "Scraped web data", scraped)
	appendJSONSection(&b, "Uploaded document extracts", documents)
	appendJSONSection(&b, "Language analysis (entities, key phrases, sentiment)", analysis)

	raw, err := s.completer.Complete(ctx, CompletionRequest{
		System:      profileSystemPrompt,
		User:        b.String(),
		Temperature: profileTemperature,
	})
	if err != nil {
		return Result[map[string]any]{}, err
	}

	profile, perr := AsObject(raw)
	if perr == nil {
		perr = validateShape(profileSchema, profile)
	}
	if perr != nil {
		logger.Warn("Profile generation degraded to fallback", zap.Error(perr))
		return Result[map[string]any]{Artifact: fallbackProfile(companyName, scraped), Degraded: true}, nil
	}
	return Result[map[string]any]{Artifact: profile}, nil
}

func (s *Service) GenerateQuestions(
	ctx context.Context,
	profile map[string]any,
	analysis *models.AnalysisResults,
	count int,
) (Result[[]models.Question], error) {
	if count <= 0 {
		count = DefaultQuestionCount
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Generate %d questions.\n\n", count)
	appendJSONSection(&b, "Company profile", profile)
	appendJSONSection(&b, "Language analysis", analysis)

	raw, err := s.completer.Complete(ctx, CompletionRequest{
		System:      questionsSystemPrompt,
		User:        b.String(),
		Temperature: questionsTemperature,
	})
	if err != nil {
		return Result[[]models.Question]{}, err
	}

	companyName, _ := profile["name"].(string)

	var payload struct {
		Questions []models.Question `json:"questions"`
	}
	perr := AsInto(raw, &payload)
	if perr == nil {
		perr = validateShape(questionsSchema, payload)
	}
	if perr == nil && len(payload.Questions) == 0 {
		perr = fmt.Errorf("model returned zero questions")
	}
	if perr != nil {
		logger.Warn("Question generation degraded to fallback", zap.Error(perr))
		return Result[[]models.Question]{Artifact: fallbackQuestions(companyName), Degraded: true}, nil
	}
	return Result[[]models.Question]{Artifact: payload.Questions}, nil
}

func (s *Service) GenerateBrief(
	ctx context.Context,
	profile map[string]any,
	questions []models.Question,
	analysis *models.AnalysisResults,
) (Result[map[string]any], error) {
	var b strings.Builder
	appendJSONSection(&b, "Company profile", profile)
	appendJSONSection(&b, "Prepared questions", questions)
	appendJSONSection(&b, "Language analysis", analysis)

	raw, err := s.completer.Complete(ctx, CompletionRequest{
		System:      briefSystemPrompt,
		User:        b.String(),
		Temperature: briefTemperature,
	})
	if err != nil {
		return Result[map[string]any]{}, err
	}

	brief, perr := AsObject(raw)
	if perr == nil {
		perr = validateShape(briefSchema, brief)
	}
	if perr != nil {
		logger.Warn("Brief generation degraded to fallback", zap.Error(perr))
		return Result[map[string]any]{Artifact: fallbackBrief(profile, questions), Degraded: true}, nil
	}
	return Result[map[string]any]{Artifact: brief}, nil
}

// GenerateIntervieweePacket reduces questions to the simplified
// projection before prompting so rationale and follow-ups never reach
// the interviewee.
func (s *Service) GenerateIntervieweePacket(
	ctx context.Context,
	profile map[string]any,
	questions []models.Question,
) (Result[map[string]any], error) {
	refs := make([]models.QuestionRef, 0, len(questions))
	for _, q := range questions {
		refs = append(refs, q.Ref())
	}

	var b strings.Builder
	appendJSONSection(&b, "Company profile", profile)
	appendJSONSection(&b, "Question menu", refs)

	raw, err := s.completer.Complete(ctx, CompletionRequest{
		System:      packetSystemPrompt,
		User:        b.String(),
		Temperature: packetTemperature,
	})
	if err != nil {
		return Result[map[string]any]{}, err
	}

	packet, perr := AsObject(raw)
	if perr == nil {
		perr = validateShape(packetSchema, packet)
	}
	if perr != nil {
		logger.Warn("Packet generation degraded to fallback", zap.Error(perr))
		return Result[map[string]any]{Artifact: fallbackPacket(profile, refs), Degraded: true}, nil
	}
	return Result[map[string]any]{Artifact: packet}, nil
}

// appendJSONSection writes a titled JSON block, skipping nil or
// unmarshalable values so absent upstream stages leave no section.
func appendJSONSection(b *strings.Builder, title string, v any) {
	if v == nil {
		return
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil || string(data) == "null" {
		return
	}
	fmt.Fprintf(b, "## %s\n%s\n\n", title, data)
}
