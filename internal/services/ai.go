package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
)

type AIService struct {
	client *openai.Client
}

type GeneratedTask struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Emoji       string     `json:"emoji"`
	Recurrence  string     `json:"recurrence"`
	DueDate     *time.Time `json:"due_date"`
}

func NewAIService(apiKey string) *AIService {
	return &AIService{
		client: openai.NewClient(apiKey),
	}
}

// GenerateTasksFromText extracts household tasks from free text using OpenAI GPT
func (s *AIService) GenerateTasksFromText(ctx context.Context, text string) ([]GeneratedTask, error) {
	if s.client == nil {
		return nil, fmt.Errorf("OpenAI client not initialized")
	}

	currentTime := time.Now().UTC().Format(time.RFC3339)
	prompt := fmt.Sprintf(`You help a family organise their household. Extract the concrete chores and tasks from the text below.

Current time: %s

Text:
%s

Answer with a JSON array of tasks in this shape:
[
  {
    "title": "short task title",
    "description": "details, or an empty string",
    "emoji": "one emoji that fits the task",
    "recurrence": "NONE, DAILY, WEEKLY or MONTHLY",
    "due_date": "deadline in ISO8601 (e.g. 2025-10-28T18:00:00Z), or null when none is given"
  }
]

Rules:
- Return an empty array [] when there is no task
- Turn relative deadlines ("tomorrow", "next week") into concrete timestamps
- Use a recurrence other than NONE only when the text says the task repeats
- Return JSON only, without any explanation`, currentTime, text)

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
	content = strings.TrimSuffix(strings.TrimPrefix(content, "```"), "```")

	var tasks []GeneratedTask
	if err := json.Unmarshal([]byte(content), &tasks); err != nil {
		return nil, fmt.Errorf("failed to parse AI response: %w (response: %s)", err, content)
	}

	return tasks, nil
}
