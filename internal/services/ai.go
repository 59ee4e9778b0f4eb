package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
)

// AIService drafts tasks out of free-form text using the OpenAI API.
type AIService struct {
	client *openai.Client
}

// DraftTask is one task proposed by the model. It is not persisted until the
// caller inserts it through the normal task-create path.
type DraftTask struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Priority    string     `json:"priority"`
	DueDate     *time.Time `json:"due_date"`
}

func NewAIService(apiKey string) *AIService {
	if apiKey == "" {
		return &AIService{}
	}
	return &AIService{client: openai.NewClient(apiKey)}
}

// Enabled reports whether an API key was configured.
func (s *AIService) Enabled() bool {
	return s != nil && s.client != nil
}

// DraftTasksFromText asks the model to extract actionable tasks from text.
func (s *AIService) DraftTasksFromText(ctx context.Context, text string) ([]DraftTask, error) {
	if s.client == nil {
		return nil, fmt.Errorf("OpenAI client not initialized")
	}

	currentTime := time.Now().Format("2006-01-02 15:04:05")
	prompt := fmt.Sprintf(`You are a task extraction assistant. Extract concrete, actionable tasks from the text below.

Current time: %s

Text:
%s

Return a JSON array of the extracted tasks in this exact shape:
[
  {
    "title": "short task title",
    "description": "detailed task description",
    "priority": "one of LOW, MEDIUM, HIGH, URGENT",
    "due_date": "deadline as ISO8601 (e.g. 2026-09-28T23:59:59Z), or null when no deadline is stated"
  }
]

Rules:
- Return an empty array [] when the text contains no tasks
- Convert relative deadlines ("tomorrow", "next week") into concrete timestamps
- due_date must be an ISO8601 string or null
- Return only the JSON, no prose`, currentTime, text)

	resp, err := s.client.CreateChatCompletion(
		ctx,
		openai.ChatCompletionRequest{
			Model: openai.GPT4o,
			Messages: []openai.ChatCompletionMessage{
				{
					Role:    openai.ChatMessageRoleUser,
					Content: prompt,
				},
			},
			Temperature: 0.3,
		},
	)
	if err != nil {
		return nil, fmt.Errorf("OpenAI API error: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no response from OpenAI")
	}

	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")

	var tasks []DraftTask
	if err := json.Unmarshal([]byte(content), &tasks); err != nil {
		return nil, fmt.Errorf("failed to parse AI response: %w (response: %s)", err, content)
	}

	return tasks, nil
}
