package distribution

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"group-task-tracker/internal/entities"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeCompleter struct {
	content string
	err     error
	delay   time.Duration
	lastReq openai.ChatCompletionRequest
}

func (f *fakeCompleter) CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	f.lastReq = req
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return openai.ChatCompletionResponse{}, ctx.Err()
		}
	}
	if f.err != nil {
		return openai.ChatCompletionResponse{}, f.err
	}
	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{{Message: openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: f.content}}},
	}, nil
}

type recordingObserver struct {
	mu       sync.Mutex
	outcomes []string
}

func (r *recordingObserver) ObserveAIRequest(outcome string, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outcomes = append(r.outcomes, outcome)
}

func aiInput() Input {
	return Input{
		Members: []MemberLoad{load("a", "Ann", 0, 6), load("b", "Bob", time.Hour, 0)},
		Tasks:   []entities.Task{newTask("t1", 5), newTask("t2", 2)},
	}
}

func newEngine(c ChatCompleter, obs AIObserver) *AIEngine {
	return NewAIEngine(c, AIConfig{Model: "gpt-4o-mini", Temperature: 0.3, MaxTokens: 500, Timeout: time.Second}, zap.NewNop().Sugar(), obs)
}

func TestAIEngineParsesAssignments(t *testing.T) {
	fc := &fakeCompleter{content: `{"assignments":[
		{"taskId":"t2","assignedUserId":"a","confidence":0.7,"rationale":"Ann already has load, give her the small one"},
		{"taskId":"t1","assignedUserId":"b","confidence":1.4,"rationale":"Bob is free"}]}`}
	obs := &recordingObserver{}

	records, err := newEngine(fc, obs).Propose(context.Background(), aiInput())
	require.NoError(t, err)
	require.Len(t, records, 2)

	require.Equal(t, "t1", records[0].TaskID)
	require.Equal(t, "b", records[0].AssignedUserID)
	require.Equal(t, "Bob", records[0].AssignedUserName)
	require.Equal(t, 1.0, records[0].Confidence)
	require.Equal(t, "Bob is free", records[0].Rationale)

	require.Equal(t, "t2", records[1].TaskID)
	require.Equal(t, 0.7, records[1].Confidence)

	require.Equal(t, "gpt-4o-mini", fc.lastReq.Model)
	require.Equal(t, 500, fc.lastReq.MaxTokens)
	require.NotNil(t, fc.lastReq.ResponseFormat)
	require.Equal(t, openai.ChatCompletionResponseFormatTypeJSONObject, fc.lastReq.ResponseFormat.Type)
	require.Len(t, fc.lastReq.Messages, 2)
	require.Contains(t, fc.lastReq.Messages[1].Content, `"currentDifficulty":6`)
	require.Equal(t, []string{"ok"}, obs.outcomes)
}

func TestAIEngineAcceptsFencedJSON(t *testing.T) {
	fc := &fakeCompleter{content: "```json\n{\"assignments\":[{\"taskId\":\"t1\",\"assignedUserId\":\"a\",\"confidence\":0.5},{\"taskId\":\"t2\",\"assignedUserId\":\"b\",\"confidence\":0.5}]}\n```"}
	records, err := newEngine(fc, nil).Propose(context.Background(), aiInput())
	require.NoError(t, err)
	require.Len(t, records, 2)
}

func TestAIEngineFailures(t *testing.T) {
	tests := []struct {
		name    string
		content string
		err     error
		msg     string
	}{
		{name: "malformed", content: `not json`, msg: "malformed model response"},
		{name: "missing task", content: `{"assignments":[{"taskId":"t1","assignedUserId":"a","confidence":0.5}]}`, msg: `did not assign task "t2"`},
		{name: "unknown member", content: `{"assignments":[{"taskId":"t1","assignedUserId":"x","confidence":0.5},{"taskId":"t2","assignedUserId":"a","confidence":0.5}]}`, msg: `unknown member "x"`},
		{name: "unknown task", content: `{"assignments":[{"taskId":"t9","assignedUserId":"a","confidence":0.5}]}`, msg: `unknown task "t9"`},
		{name: "duplicate", content: `{"assignments":[{"taskId":"t1","assignedUserId":"a"},{"taskId":"t1","assignedUserId":"b"}]}`, msg: "more than once"},
		{name: "transport", err: io.ErrUnexpectedEOF, msg: "unexpected EOF"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			fc := &fakeCompleter{content: tt.content, err: tt.err}
			_, err := newEngine(fc, nil).Propose(context.Background(), aiInput())
			require.ErrorIs(t, err, entities.ErrAIDistribution)
			require.Contains(t, err.Error(), tt.msg)
		})
	}
}

func TestAIEngineTimeout(t *testing.T) {
	fc := &fakeCompleter{delay: time.Second}
	e := NewAIEngine(fc, AIConfig{Model: "m", Timeout: 20 * time.Millisecond}, zap.NewNop().Sugar(), nil)

	_, err := e.Propose(context.Background(), aiInput())
	require.ErrorIs(t, err, entities.ErrAIDistribution)
	require.Contains(t, err.Error(), "timed out")
}

func TestAIEngineEdgeCases(t *testing.T) {
	e := newEngine(&fakeCompleter{}, nil)

	_, err := e.Propose(context.Background(), Input{Tasks: []entities.Task{newTask("t1", 1)}})
	require.ErrorIs(t, err, entities.ErrNoMembers)

	records, err := e.Propose(context.Background(), Input{Members: []MemberLoad{load("a", "Ann", 0, 0)}})
	require.NoError(t, err)
	require.Empty(t, records)
}

func TestAIEngineAgainstHTTPServer(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		require.True(t, strings.HasSuffix(r.URL.Path, "/chat/completions"))

		var req openai.ChatCompletionRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, "test-model", req.Model)

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":      "chatcmpl-1",
			"object":  "chat.completion",
			"created": 1,
			"model":   "test-model",
			"choices": []map[string]any{{
				"index":         0,
				"finish_reason": "stop",
				"message": map[string]any{
					"role":    "assistant",
					"content": `{"assignments":[{"taskId":"t1","assignedUserId":"b","confidence":0.9,"rationale":"free"},{"taskId":"t2","assignedUserId":"a","confidence":0.6,"rationale":"small"}]}`,
				},
			}},
		})
	}))
	defer srv.Close()

	client := NewOpenAIClient("secret", srv.URL+"/v1", 5*time.Second)
	e := NewAIEngine(client, AIConfig{Model: "test-model", MaxTokens: 100}, zap.NewNop().Sugar(), nil)

	records, err := e.Propose(context.Background(), aiInput())
	require.NoError(t, err)
	require.Len(t, records, 2)
	require.Equal(t, "Bearer secret", gotAuth)
	require.Equal(t, "b", records[0].AssignedUserID)
}

func TestAIEngineHTTPErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"error":{"message":"overloaded","type":"server_error"}}`))
	}))
	defer srv.Close()

	client := NewOpenAIClient("secret", srv.URL+"/v1", 5*time.Second)
	e := NewAIEngine(client, AIConfig{Model: "test-model"}, zap.NewNop().Sugar(), nil)

	_, err := e.Propose(context.Background(), aiInput())
	require.ErrorIs(t, err, entities.ErrAIDistribution)
	require.Contains(t, err.Error(), "503")
}
