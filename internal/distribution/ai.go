package distribution

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"group-task-tracker/internal/entities"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// DefaultAITimeout bounds a single chat-completion call.
const DefaultAITimeout = 30 * time.Second

// ChatCompleter is the subset of the OpenAI client used by AIEngine.
type ChatCompleter interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// AIObserver receives the outcome and latency of each model call.
type AIObserver interface {
	ObserveAIRequest(outcome string, elapsed time.Duration)
}

type nopObserver struct{}

func (nopObserver) ObserveAIRequest(string, time.Duration) {}

// AIConfig tunes the chat-completion request.
type AIConfig struct {
	Model       string
	Temperature float32
	MaxTokens   int
	Timeout     time.Duration
}

// AIEngine asks a language model for assignments with confidence and rationale.
type AIEngine struct {
	client   ChatCompleter
	cfg      AIConfig
	log      *zap.SugaredLogger
	observer AIObserver
}

var _ Proposer = (*AIEngine)(nil)

// NewOpenAIClient builds a chat-completion client; baseURL may be empty for the public API.
func NewOpenAIClient(apiKey, baseURL string, timeout time.Duration) *openai.Client {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	cfg.HTTPClient = &http.Client{Timeout: timeout}
	return openai.NewClientWithConfig(cfg)
}

// NewAIEngine constructs an AIEngine. observer may be nil.
func NewAIEngine(client ChatCompleter, cfg AIConfig, log *zap.SugaredLogger, observer AIObserver) *AIEngine {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultAITimeout
	}
	if observer == nil {
		observer = nopObserver{}
	}
	return &AIEngine{
		client:   client,
		cfg:      cfg,
		log:      log.Named("distribution.ai"),
		observer: observer,
	}
}

// Method implements Proposer.
func (e *AIEngine) Method() entities.DistributionMethod {
	return entities.MethodAI
}

// Propose sends members and tasks to the model and validates its answer. Any
// transport, status or parse failure is returned wrapped in ErrAIDistribution;
// there is no retry.
func (e *AIEngine) Propose(ctx context.Context, in Input) ([]entities.AssignmentRecord, error) {
	if len(in.Members) == 0 {
		return nil, entities.ErrNoMembers
	}
	if len(in.Tasks) == 0 {
		return []entities.AssignmentRecord{}, nil
	}

	messages, err := buildMessages(in)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", entities.ErrAIDistribution, err)
	}

	callCtx, cancel := context.WithTimeout(ctx, e.cfg.Timeout)
	defer cancel()

	start := time.Now()
	resp, err := e.client.CreateChatCompletion(callCtx, openai.ChatCompletionRequest{
		Model:       e.cfg.Model,
		Messages:    messages,
		Temperature: e.cfg.Temperature,
		MaxTokens:   e.cfg.MaxTokens,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	elapsed := time.Since(start)
	if err != nil {
		e.observer.ObserveAIRequest("error", elapsed)
		e.log.Warnw("chat completion failed", "error", err, "elapsed_ms", elapsed.Milliseconds())
		return nil, e.describeCallError(callCtx, err)
	}
	if len(resp.Choices) == 0 {
		e.observer.ObserveAIRequest("empty", elapsed)
		return nil, fmt.Errorf("%w: model returned no choices", entities.ErrAIDistribution)
	}

	parsed, err := parseModelResponse(resp.Choices[0].Message.Content)
	if err != nil {
		e.observer.ObserveAIRequest("malformed", elapsed)
		return nil, fmt.Errorf("%w: %v", entities.ErrAIDistribution, err)
	}

	records, err := e.toRecords(in, parsed)
	if err != nil {
		e.observer.ObserveAIRequest("invalid", elapsed)
		return nil, err
	}

	e.observer.ObserveAIRequest("ok", elapsed)
	e.log.Infow("ai distribution proposed", "tasks", len(records), "elapsed_ms", elapsed.Milliseconds())
	return records, nil
}

func (e *AIEngine) describeCallError(callCtx context.Context, err error) error {
	if errors.Is(callCtx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: request timed out after %s", entities.ErrAIDistribution, e.cfg.Timeout)
	}
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("%w: api status %d: %s", entities.ErrAIDistribution, apiErr.HTTPStatusCode, apiErr.Message)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return fmt.Errorf("%w: api status %d: %v", entities.ErrAIDistribution, reqErr.HTTPStatusCode, reqErr.Err)
	}
	return fmt.Errorf("%w: %v", entities.ErrAIDistribution, err)
}

// toRecords maps the model answer onto the input tasks, in input order.
func (e *AIEngine) toRecords(in Input, parsed modelResponse) ([]entities.AssignmentRecord, error) {
	members := make(map[string]entities.Member, len(in.Members))
	for _, m := range in.Members {
		members[m.Member.UserID] = m.Member
	}
	tasks := make(map[string]struct{}, len(in.Tasks))
	for _, t := range in.Tasks {
		tasks[t.ID] = struct{}{}
	}

	byTask := make(map[string]modelAssignment, len(parsed.Assignments))
	for _, a := range parsed.Assignments {
		if _, ok := tasks[a.TaskID]; !ok {
			return nil, fmt.Errorf("%w: model referenced unknown task %q", entities.ErrAIDistribution, a.TaskID)
		}
		if _, dup := byTask[a.TaskID]; dup {
			return nil, fmt.Errorf("%w: model assigned task %q more than once", entities.ErrAIDistribution, a.TaskID)
		}
		if _, ok := members[a.AssignedUserID]; !ok {
			return nil, fmt.Errorf("%w: model assigned task %q to unknown member %q", entities.ErrAIDistribution, a.TaskID, a.AssignedUserID)
		}
		byTask[a.TaskID] = a
	}

	records := make([]entities.AssignmentRecord, 0, len(in.Tasks))
	for _, t := range in.Tasks {
		a, ok := byTask[t.ID]
		if !ok {
			return nil, fmt.Errorf("%w: model did not assign task %q", entities.ErrAIDistribution, t.ID)
		}
		m := members[a.AssignedUserID]
		records = append(records, entities.AssignmentRecord{
			TaskID:           t.ID,
			TaskName:         t.Name,
			AssignedUserID:   m.UserID,
			AssignedUserName: m.DisplayName,
			Confidence:       clamp01(a.Confidence),
			Rationale:        a.Rationale,
		})
	}
	return records, nil
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
