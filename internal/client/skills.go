package client

import (
	"context"
	"learnpath_backend/internal/config"
	"net/http"
)

type SkillsClient struct {
	sc *ServiceClient
}

func NewSkillsClient(cfg config.ServiceEndpoint) *SkillsClient {
	return &SkillsClient{sc: New("skills", cfg)}
}

type prerequisitesRequest struct {
	Goal string `json:"goal"`
}

type prerequisitesResponse struct {
	Skills []string `json:"skills"`
}

// Prerequisites 推断学习目标的先修技能集合
func (c *SkillsClient) Prerequisites(ctx context.Context, goal string) ([]string, error) {
	var resp prerequisitesResponse
	err := c.sc.Invoke(ctx, http.MethodPost, "/prerequisites", prerequisitesRequest{Goal: goal}, &resp, Idempotent())
	if err != nil {
		return nil, err
	}
	return resp.Skills, nil
}
