package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/sashabaranov/go-openai"
	"github.com/yukikurage/shared-calendar-api/internal/constants"
	"github.com/yukikurage/shared-calendar-api/internal/models"
)

var (
	ErrAIServiceNotConfigured = errors.New("AI service not configured")
	ErrTextRequired           = errors.New("text is required")
)

type SuggestService struct {
	client *openai.Client
}

type SuggestedTask struct {
	Title    string          `json:"title"`
	Date     *time.Time      `json:"date"`
	Priority models.Priority `json:"priority"`
}

func NewSuggestService(apiKey string) *SuggestService {
	if apiKey == "" {
		return &SuggestService{}
	}
	return &SuggestService{
		client: openai.NewClient(apiKey),
	}
}

// Configured reports whether an API key was provided at construction.
func (s *SuggestService) Configured() bool {
	return s.client != nil
}

// SuggestTasksFromText analyzes free-form text and extracts shared
// to-do entries using OpenAI GPT
func (s *SuggestService) SuggestTasksFromText(ctx context.Context, text string) ([]SuggestedTask, error) {
	if s.client == nil {
		return nil, ErrAIServiceNotConfigured
	}
	if text == "" {
		return nil, ErrTextRequired
	}

	currentTime := time.Now().Format("2006-01-02 15:04:05")
	prompt := fmt.Sprintf(`あなたは家庭やチームの共有ToDoリストのアシスタントです。以下のテキストから具体的なタスクを抽出してください。

現在時刻: %s

テキスト:
%s

以下のJSON形式で、抽出したタスクの配列を返してください:
[
  {
    "title": "タスクのタイトル（簡潔に）",
    "date": "予定日（ISO8601形式、例: 2026-08-29T00:00:00Z）。日付が読み取れない場合はnull",
    "priority": "high / medium / low のいずれか。判断できない場合は medium"
  }
]

注意事項:
- タスクが1つもない場合は空の配列 [] を返してください
- 日付は相対的な表現（「明日」「来週」など）を具体的な日付に変換してください
- dateは必ずISO8601形式の文字列、またはnullにしてください
- JSONのみを返し、説明文は含めないでください`, currentTime, text)

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

	content := resp.Choices[0].Message.Content

	var tasks []SuggestedTask
	if err := json.Unmarshal([]byte(content), &tasks); err != nil {
		return nil, fmt.Errorf("failed to parse AI response: %w (response: %s)", err, content)
	}

	for i := range tasks {
		if !tasks[i].Priority.Valid() {
			tasks[i].Priority = models.PriorityMedium
		}
	}

	if len(tasks) > constants.MaxAISuggestedTasks {
		tasks = tasks[:constants.MaxAISuggestedTasks]
	}

	return tasks, nil
}
