package moderation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"scribe/internal/middleware"
	"scribe/internal/models"
	"scribe/internal/observability"

	"github.com/sashabaranov/go-openai"
)

// Submission is what an author is about to publish.
type Submission struct {
	Title       string
	Description string
	Content     string
}

// PartVerdict is the classifier's ruling on one part of a submission.
type PartVerdict struct {
	Part        string   `json:"part"`
	Flagged     bool     `json:"flagged"`
	Reasons     []string `json:"reasons"`
	Intent      string   `json:"intent"`
	FlaggedText []string `json:"flagged_text"`
}

// Verdict is the combined ruling. Safe is true when no part is flagged.
type Verdict struct {
	Safe   bool          `json:"safe"`
	Reason string        `json:"reason,omitempty"`
	Parts  []PartVerdict `json:"result,omitempty"`
}

// Classifier reviews a submission. Implementations return an
// EXTERNAL_SERVICE_ERROR when the backing service cannot answer.
type Classifier interface {
	Classify(ctx context.Context, s Submission) (*Verdict, error)
}

const systemPrompt = `You review blog submissions for a content platform.
Judge the title, description and content separately.
Flag praise of or calls to violence or terrorism, instructions for crimes or harassment,
sexual harassment, explicit pornography, encouragement of self-harm, and hate speech
against protected groups. Do not flag neutral news, academic discussion or clinical
education. Use intent "unclear" when intent is ambiguous.
Answer with a JSON array of exactly three objects in the order title, description, content:
{"part":"title|description|content","flagged":bool,"reasons":[...],"intent":"report|praise|instruction|unclear","flagged_text":[...]}
Output JSON only.`

// OpenAIClassifier calls an OpenAI-compatible chat completion endpoint.
type OpenAIClassifier struct {
	client *openai.Client
	model  string
}

// NewOpenAIClassifier builds a classifier. baseURL may point at any
// OpenAI-compatible gateway; empty keeps the public endpoint.
func NewOpenAIClassifier(apiKey, model, baseURL string) *OpenAIClassifier {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if model == "" {
		model = openai.GPT4oMini
	}
	return &OpenAIClassifier{client: openai.NewClientWithConfig(cfg), model: model}
}

func (c *OpenAIClassifier) Classify(ctx context.Context, s Submission) (*Verdict, error) {
	body := ExtractText(s.Content)
	if strings.TrimSpace(s.Title) == "" || strings.TrimSpace(s.Description) == "" || strings.TrimSpace(body) == "" {
		return &Verdict{Safe: true, Reason: "Empty content"}, nil
	}

	span, ctx := observability.NewSpan(ctx, "moderation.classify")
	defer span.End()

	prompt := fmt.Sprintf("Title: \"\"\"%s\"\"\"\nDescription: \"\"\"%s\"\"\"\nContent: \"\"\"%s\"\"\"", s.Title, s.Description, body)
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: 0,
	})
	if err != nil {
		span.SetError(err)
		observability.ClassifierRequests.WithLabelValues("error").Inc()
		middleware.Logger.ErrorContext(ctx, "classifier call failed", slog.String("error", err.Error()))
		return nil, models.NewExternalServiceError("classifier", err)
	}
	if len(resp.Choices) == 0 {
		observability.ClassifierRequests.WithLabelValues("error").Inc()
		return nil, models.NewExternalServiceError("classifier", errors.New("no choices returned"))
	}

	v, err := ParseVerdict(resp.Choices[0].Message.Content)
	if err != nil {
		observability.ClassifierRequests.WithLabelValues("malformed").Inc()
		return nil, models.NewExternalServiceError("classifier", err)
	}
	if v.Safe {
		observability.ClassifierRequests.WithLabelValues("safe").Inc()
	} else {
		observability.ClassifierRequests.WithLabelValues("flagged").Inc()
	}
	return v, nil
}

// ParseVerdict decodes the model output, tolerating a fenced code block
// around the JSON array.
func ParseVerdict(raw string) (*Verdict, error) {
	s := strings.TrimSpace(raw)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
		s = strings.TrimSpace(s)
	}

	var parts []PartVerdict
	if err := json.Unmarshal([]byte(s), &parts); err != nil {
		return nil, fmt.Errorf("decode verdict: %w", err)
	}
	if len(parts) == 0 {
		return nil, errors.New("empty verdict")
	}

	v := &Verdict{Safe: true, Parts: parts}
	for _, p := range parts {
		if p.Flagged {
			v.Safe = false
			v.Reason = "flagged " + p.Part
			break
		}
	}
	return v, nil
}
