package distribution

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"
)

const systemPrompt = `You distribute household tasks between group members.
Balance the total difficulty per member as evenly as possible, taking each member's current workload into account.
Every task must be assigned to exactly one member from the provided list.
Answer with a JSON object only, in this exact shape:
{"assignments":[{"taskId":"<task id>","assignedUserId":"<member user id>","confidence":<number between 0 and 1>,"rationale":"<one sentence>"}]}`

type promptMember struct {
	UserID            string `json:"userId"`
	Name              string `json:"name"`
	CurrentTaskCount  int    `json:"currentTaskCount"`
	CurrentDifficulty int    `json:"currentDifficulty"`
}

type promptTask struct {
	TaskID     string `json:"taskId"`
	Name       string `json:"name"`
	Difficulty int    `json:"difficulty"`
	DueDate    string `json:"dueDate"`
}

type promptPayload struct {
	Members []promptMember `json:"members"`
	Tasks   []promptTask   `json:"tasks"`
}

type modelAssignment struct {
	TaskID         string  `json:"taskId"`
	AssignedUserID string  `json:"assignedUserId"`
	Confidence     float64 `json:"confidence"`
	Rationale      string  `json:"rationale"`
}

type modelResponse struct {
	Assignments []modelAssignment `json:"assignments"`
}

func buildMessages(in Input) ([]openai.ChatCompletionMessage, error) {
	payload := promptPayload{
		Members: make([]promptMember, 0, len(in.Members)),
		Tasks:   make([]promptTask, 0, len(in.Tasks)),
	}
	for _, m := range sortedMembers(in.Members) {
		payload.Members = append(payload.Members, promptMember{
			UserID:            m.Member.UserID,
			Name:              m.Member.DisplayName,
			CurrentTaskCount:  m.TaskCount,
			CurrentDifficulty: m.TotalDifficulty,
		})
	}
	for _, t := range in.Tasks {
		payload.Tasks = append(payload.Tasks, promptTask{
			TaskID:     t.ID,
			Name:       t.Name,
			Difficulty: t.Difficulty,
			DueDate:    t.DueDate.UTC().Format("2006-01-02"),
		})
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal prompt: %w", err)
	}

	return []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
		{Role: openai.ChatMessageRoleUser, Content: string(body)},
	}, nil
}

func parseModelResponse(content string) (modelResponse, error) {
	var res modelResponse
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	if err := json.Unmarshal([]byte(strings.TrimSpace(content)), &res); err != nil {
		return res, fmt.Errorf("malformed model response: %w", err)
	}
	return res, nil
}
