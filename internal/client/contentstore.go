package client

import (
	"context"
	"learnpath_backend/internal/config"
	"net/http"
)

type ContentStoreClient struct {
	sc *ServiceClient
}

func NewContentStoreClient(cfg config.ServiceEndpoint) *ContentStoreClient {
	return &ContentStoreClient{sc: New("content_store", cfg)}
}

type snippetResponse struct {
	ResourceID string `json:"resource_id"`
	Snippet    string `json:"snippet"`
}

// GetCitationSnippet 取回资源正文片段，用于出题引文
func (c *ContentStoreClient) GetCitationSnippet(ctx context.Context, resourceID string) (string, error) {
	var resp snippetResponse
	err := c.sc.Invoke(ctx, http.MethodGet, "/resources/"+resourceID+"/snippet", nil, &resp, Idempotent())
	if err != nil {
		return "", err
	}
	return resp.Snippet, nil
}
