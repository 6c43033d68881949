package client

import (
	"context"
	"learnpath_backend/internal/config"
	"net/http"
)

// RetrievalResult 语义检索服务返回的候选资源
type RetrievalResult struct {
	ResourceID  string   `json:"resource_id"`
	Title       string   `json:"title"`
	URL         string   `json:"url"`
	DurationMin int      `json:"duration_min"`
	Level       *int     `json:"level,omitempty"`
	Skills      []string `json:"skills"`
	Score       float64  `json:"score"`
}

type RetrievalClient struct {
	sc *ServiceClient
}

func NewRetrievalClient(cfg config.ServiceEndpoint) *RetrievalClient {
	return &RetrievalClient{sc: New("retrieval", cfg)}
}

type searchRequest struct {
	Query string `json:"query"`
	TopK  int    `json:"top_k"`
}

type searchResponse struct {
	Results []RetrievalResult `json:"results"`
}

// Search 只读检索，允许瞬时失败重试一次
func (c *RetrievalClient) Search(ctx context.Context, query string, topK int) ([]RetrievalResult, error) {
	var resp searchResponse
	err := c.sc.Invoke(ctx, http.MethodPost, "/search", searchRequest{Query: query, TopK: topK}, &resp, Idempotent())
	if err != nil {
		return nil, err
	}
	return resp.Results, nil
}
