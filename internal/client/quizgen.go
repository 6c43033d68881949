package client

import (
	"context"
	"learnpath_backend/internal/config"
	"net/http"
)

// QuizSource 出题依据：资源及其正文片段
type QuizSource struct {
	ResourceID string `json:"resource_id"`
	Title      string `json:"title"`
	Snippet    string `json:"snippet,omitempty"`
}

// GeneratedQuestion 生成服务返回的单道题目，CorrectIndex 只在服务端流转
type GeneratedQuestion struct {
	Text             string   `json:"text"`
	Options          []string `json:"options"`
	CorrectIndex     int      `json:"correct_index"`
	Explanation      string   `json:"explanation"`
	SourceResourceID string   `json:"source_resource_id"`
	Citation         string   `json:"citation"`
}

type QuizGenClient struct {
	sc *ServiceClient
}

func NewQuizGenClient(cfg config.ServiceEndpoint) *QuizGenClient {
	return &QuizGenClient{sc: New("quiz_gen", cfg)}
}

type generateRequest struct {
	Sources      []QuizSource `json:"sources"`
	NumQuestions int          `json:"num_questions"`
	Difficulty   string       `json:"difficulty,omitempty"`
}

type generateResponse struct {
	Questions []GeneratedQuestion `json:"questions"`
}

// Generate 出题调用有副作用，失败不重试
func (c *QuizGenClient) Generate(ctx context.Context, sources []QuizSource, numQuestions int, difficulty string) ([]GeneratedQuestion, error) {
	var resp generateResponse
	err := c.sc.Invoke(ctx, http.MethodPost, "/generate", generateRequest{
		Sources:      sources,
		NumQuestions: numQuestions,
		Difficulty:   difficulty,
	}, &resp)
	if err != nil {
		return nil, err
	}
	return resp.Questions, nil
}
