package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"learnpath_backend/internal/client"
	"learnpath_backend/internal/config"
	"learnpath_backend/internal/model"
	"learnpath_backend/internal/repository"
	"learnpath_backend/internal/util"
	"learnpath_backend/pkg/logger"
	"learnpath_backend/pkg/monitoring"
	"learnpath_backend/pkg/tracing"
	"strings"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

// RetrievalSearcher 语义检索协作方
type RetrievalSearcher interface {
	Search(ctx context.Context, query string, topK int) ([]client.RetrievalResult, error)
}

// PrereqResolver 技能先修协作方
type PrereqResolver interface {
	Prerequisites(ctx context.Context, goal string) ([]string, error)
}

// QuizCreator 可选的测验生成入口，失败只降级不致命
type QuizCreator interface {
	Generate(ctx context.Context, req GenerateQuizRequest) (*QuizView, error)
}

// maxRetrievalWorkers 检索扇出的并发上限，避免压垮下游
const maxRetrievalWorkers = 8

type PlanService struct {
	Repo      *repository.LearningPathRepository
	Retrieval RetrievalSearcher
	Skills    PrereqResolver
	Quiz      QuizCreator
	rdb       *redis.Client
	cfg       config.PlanConfig
}

func NewPlanService(
	repo *repository.LearningPathRepository,
	retrieval RetrievalSearcher,
	skills PrereqResolver,
	quiz QuizCreator,
	rdb *redis.Client,
	cfg config.PlanConfig,
) *PlanService {
	return &PlanService{
		Repo:      repo,
		Retrieval: retrieval,
		Skills:    skills,
		Quiz:      quiz,
		rdb:       rdb,
		cfg:       cfg,
	}
}

type CreatePlanRequest struct {
	Goal            string            `json:"goal"`
	CurrentSkills   []string          `json:"current_skills"`
	TimeBudgetHours float64           `json:"time_budget_hours"`
	HoursPerWeek    float64           `json:"hours_per_week"`
	UserID          string            `json:"user_id"`
	Prerequisites   []string          `json:"prerequisites"` // 可选：内联先修集合，提供时跳过外部解析
	Preferences     map[string]string `json:"preferences"`
	WithQuiz        bool              `json:"with_quiz"`
	QuizQuestions   int               `json:"quiz_questions"`
	QuizDifficulty  string            `json:"quiz_difficulty"`
}

// PlanResponse 规划结果。Warnings 非空表示降级成功而非失败，
// 序列化时只走响应信封，不重复出现在 data 里
type PlanResponse struct {
	Path     *model.LearningPath `json:"path"`
	Quiz     *QuizView           `json:"quiz"`
	Warnings []string            `json:"-"`
}

// PlanPreferences 偏好映射的类型化形式。
// 只识别枚举内的键；未识别的键原样保留在路径上，绝不报错
type PlanPreferences struct {
	MaxLevel   *int              // max_level: 丢弃高于该难度序数的资源
	FocusSkill string            // focus_skill: 提升带该技能标签资源的评分
	Unknown    map[string]string // 保留但不解释
}

const focusSkillBoost = 0.1

func parsePreferences(raw map[string]string) PlanPreferences {
	prefs := PlanPreferences{Unknown: make(map[string]string)}
	for k, v := range raw {
		switch k {
		case "max_level":
			var lvl int
			if _, err := fmt.Sscanf(v, "%d", &lvl); err == nil && lvl > 0 {
				prefs.MaxLevel = &lvl
			}
		case "focus_skill":
			prefs.FocusSkill = strings.TrimSpace(v)
		default:
			prefs.Unknown[k] = v
		}
	}
	return prefs
}

// CreatePlan 规划主流程：校验 → 解析技能缺口 → 并发检索 → 预算分配 → 组装 →
// 可选测验 → 落库。检索和测验失败都只降级，不中断请求
func (s *PlanService) CreatePlan(ctx context.Context, req CreatePlanRequest) (*PlanResponse, error) {
	goal := strings.TrimSpace(req.Goal)
	if goal == "" {
		return nil, util.NewAppError(util.KindInvalidRequest, "学习目标不能为空")
	}
	if req.TimeBudgetHours < 1 {
		return nil, util.NewAppError(util.KindInvalidRequest, "总学时预算至少为 1 小时")
	}
	if req.HoursPerWeek < 1 {
		return nil, util.NewAppError(util.KindInvalidRequest, "每周学时至少为 1 小时")
	}

	var warnings []string
	prefs := parsePreferences(req.Preferences)

	// 技能缺口：请求内联的先修集合优先，否则询问外部技能服务
	gaps, warn := s.resolveSkillGaps(ctx, goal, req.Prerequisites, req.CurrentSkills)
	if warn != "" {
		warnings = append(warnings, warn)
	}

	topics := buildTopics(goal, gaps)

	candidates, retrievalWarns := s.retrieve(ctx, topics, prefs)
	warnings = append(warnings, retrievalWarns...)

	_, span := tracing.Tracer.Start(ctx, "plan.allocate")
	alloc := AllocateBudget(candidates, topics, req.TimeBudgetHours)
	span.End()

	path := s.assemble(goal, req, gaps, prefs, alloc, warnings)

	if err := s.Repo.Create(path); err != nil {
		return nil, util.WrapAppError(util.KindServiceUnavailable, "路径存储暂不可用，请稍后重试", err)
	}

	resp := &PlanResponse{Path: path, Warnings: warnings}

	// 可选测验：失败吸收为警告，响应携带 quiz=null
	if req.WithQuiz && s.Quiz != nil {
		quiz, err := s.Quiz.Generate(ctx, GenerateQuizRequest{
			ResourceIDs:  collectResourceIDs(path),
			NumQuestions: req.QuizQuestions,
			Difficulty:   req.QuizDifficulty,
		})
		if err != nil {
			logger.Log.Warn("optional quiz generation failed",
				zap.String("path_id", path.ID), zap.Error(err))
			resp.Warnings = append(resp.Warnings, "测验生成失败，本次响应不含测验")
		} else {
			resp.Quiz = quiz
		}
	}

	if len(resp.Warnings) > 0 {
		monitoring.PlanCounter.WithLabelValues("partial").Inc()
	} else {
		monitoring.PlanCounter.WithLabelValues("ok").Inc()
	}

	s.cachePath(ctx, path)
	return resp, nil
}

// resolveSkillGaps 比对已有技能和先修集合，返回未满足的缺口
func (s *PlanService) resolveSkillGaps(ctx context.Context, goal string, inline, current []string) ([]string, string) {
	prereqs := inline
	if len(prereqs) == 0 && s.Skills != nil {
		resolved, err := s.Skills.Prerequisites(ctx, goal)
		if err != nil {
			logger.Log.Warn("prerequisite resolution failed, assuming no gaps", zap.Error(err))
			return nil, "先修技能解析失败，按无缺口处理"
		}
		prereqs = resolved
	}

	have := make(map[string]bool, len(current))
	for _, skill := range current {
		have[strings.ToLower(strings.TrimSpace(skill))] = true
	}

	var gaps []string
	seen := make(map[string]bool)
	for _, p := range prereqs {
		norm := strings.ToLower(strings.TrimSpace(p))
		if norm == "" || have[norm] || seen[norm] {
			continue
		}
		seen[norm] = true
		gaps = append(gaps, strings.TrimSpace(p))
	}
	return gaps, ""
}

// buildTopics 技能缺口的补强主题排在最前（order 0 起），学习目标主题收尾
func buildTopics(goal string, gaps []string) []Topic {
	topics := make([]Topic, 0, len(gaps)+1)
	for _, gap := range gaps {
		topics = append(topics, Topic{
			Query:       gap,
			Title:       fmt.Sprintf("先修补强：%s", gap),
			Description: fmt.Sprintf("该主题覆盖目标所需但尚未掌握的技能「%s」", gap),
			Remediation: true,
		})
	}
	topics = append(topics, Topic{
		Query:       goal,
		Title:       goal,
		Description: fmt.Sprintf("围绕学习目标「%s」的核心资源", goal),
	})
	return topics
}

// retrieve 对每个主题并发发起检索，受并发上限约束；
// 单路失败只缩小该主题的候选集，全部失败也不中断规划
func (s *PlanService) retrieve(ctx context.Context, topics []Topic, prefs PlanPreferences) ([]Candidate, []string) {
	ctx, span := tracing.Tracer.Start(ctx, "plan.retrieve")
	defer span.End()

	if s.Retrieval == nil {
		return nil, []string{"未配置检索服务，生成最小化路径"}
	}

	limit := len(topics)
	if s.cfg.MaxConcurrency > 0 && limit > s.cfg.MaxConcurrency {
		limit = s.cfg.MaxConcurrency
	}
	if limit > maxRetrievalWorkers {
		limit = maxRetrievalWorkers
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	var mu sync.Mutex
	var candidates []Candidate
	var warnings []string
	failed := 0

	for _, t := range topics {
		t := t
		g.Go(func() error {
			results, err := s.Retrieval.Search(gctx, t.Query, s.cfg.RetrievalTopK)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failed++
				warnings = append(warnings, fmt.Sprintf("主题「%s」检索失败，该部分候选缺失", t.Query))
				logger.Log.Warn("retrieval sub-call failed",
					zap.String("topic", t.Query), zap.Error(err))
				return nil // 单路失败不终止其他子调用
			}
			for _, r := range results {
				candidates = append(candidates, Candidate{Topic: t.Query, Resource: applyPreferences(r, prefs)})
			}
			return nil
		})
	}
	g.Wait()

	if failed == len(topics) && len(topics) > 0 {
		warnings = append(warnings, "检索服务整体不可用，已降级为最小化路径")
	}

	return filterByLevel(candidates, prefs), warnings
}

// applyPreferences 执行已识别偏好中的评分调整
func applyPreferences(r client.RetrievalResult, prefs PlanPreferences) client.RetrievalResult {
	if prefs.FocusSkill == "" {
		return r
	}
	for _, skill := range r.Skills {
		if strings.EqualFold(skill, prefs.FocusSkill) {
			r.Score += focusSkillBoost
			break
		}
	}
	return r
}

func filterByLevel(candidates []Candidate, prefs PlanPreferences) []Candidate {
	if prefs.MaxLevel == nil {
		return candidates
	}
	out := candidates[:0]
	for _, c := range candidates {
		if c.Resource.Level != nil && *c.Resource.Level > *prefs.MaxLevel {
			continue
		}
		out = append(out, c)
	}
	return out
}

// assemble 组装最终路径：连续编号、周数估算、决策说明
func (s *PlanService) assemble(goal string, req CreatePlanRequest, gaps []string, prefs PlanPreferences, alloc Allocation, warnings []string) *model.LearningPath {
	path := &model.LearningPath{
		UserID:           req.UserID,
		Goal:             goal,
		TotalHours:       req.TimeBudgetHours,
		HoursPerWeek:     req.HoursPerWeek,
		EstimatedWeeks:   EstimateWeeks(req.TimeBudgetHours, req.HoursPerWeek),
		PrerequisitesMet: len(gaps) == 0,
		Preferences:      req.Preferences,
		Milestones:       alloc.Milestones,
	}

	var lines []string
	lines = append(lines, fmt.Sprintf("围绕目标「%s」规划 %d 个里程碑，总预算 %.0f 小时、每周 %.0f 小时，预计 %d 周完成",
		goal, len(alloc.Milestones), req.TimeBudgetHours, req.HoursPerWeek, path.EstimatedWeeks))
	if len(gaps) > 0 {
		lines = append(lines, fmt.Sprintf("检测到未满足的先修技能：%s，已在路径最前插入补强里程碑", strings.Join(gaps, "、")))
	}
	if prefs.MaxLevel != nil {
		lines = append(lines, fmt.Sprintf("按偏好过滤了难度高于 %d 的资源", *prefs.MaxLevel))
	}
	if prefs.FocusSkill != "" {
		lines = append(lines, fmt.Sprintf("按偏好提升了技能「%s」相关资源的优先级", prefs.FocusSkill))
	}
	lines = append(lines, alloc.Notes...)
	lines = append(lines, alloc.Dropped...)
	lines = append(lines, warnings...)
	path.Reasoning = strings.Join(lines, "\n")

	return path
}

func collectResourceIDs(path *model.LearningPath) []string {
	var ids []string
	for _, m := range path.Milestones {
		for _, r := range m.Resources {
			ids = append(ids, r.ResourceID)
		}
	}
	return ids
}

// GetPlan 读路径，redis 作为读穿缓存
func (s *PlanService) GetPlan(ctx context.Context, id string) (*model.LearningPath, error) {
	if s.rdb != nil {
		if raw, err := s.rdb.Get(ctx, planCacheKey(id)).Result(); err == nil {
			var p model.LearningPath
			if err := json.Unmarshal([]byte(raw), &p); err == nil {
				return &p, nil
			}
		}
	}

	path, err := s.Repo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrPlanNotFound
		}
		return nil, util.WrapAppError(util.KindInternal, "读取学习路径失败", err)
	}

	s.cachePath(ctx, path)
	return path, nil
}

type ReplanRequest struct {
	CompletedLessons []string `json:"completed_lessons"`
	Feedback         string   `json:"feedback"`
}

// Replan 以已完成课时为输入重新执行分配与组装。
// 已完成的资源从候选池中剔除，其余资源按原检索评分重新分组编号
func (s *PlanService) Replan(ctx context.Context, id string, req ReplanRequest) (*model.LearningPath, error) {
	path, err := s.Repo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrPlanNotFound
		}
		return nil, util.WrapAppError(util.KindInternal, "读取学习路径失败", err)
	}

	completed := make(map[string]bool, len(req.CompletedLessons))
	for _, rid := range req.CompletedLessons {
		completed[rid] = true
	}

	// 以现有里程碑为主题重建候选池，剔除已完成资源。
	// 分组键用里程碑ID而不是标题，同名里程碑不会被合并
	var topics []Topic
	var candidates []Candidate
	completedCount := 0
	for _, m := range path.Milestones {
		topics = append(topics, Topic{
			Query:       m.ID,
			Title:       m.Title,
			Description: m.Description,
			Remediation: false,
		})
		for _, r := range m.Resources {
			if completed[r.ResourceID] {
				completedCount++
				continue
			}
			candidates = append(candidates, Candidate{
				Topic: m.ID,
				Resource: client.RetrievalResult{
					ResourceID:  r.ResourceID,
					Title:       r.Title,
					URL:         r.URL,
					DurationMin: r.DurationMin,
					Level:       r.Level,
					Skills:      r.Skills,
					Score:       r.Score,
				},
			})
		}
	}

	alloc := AllocateBudget(candidates, topics, path.TotalHours)

	var lines []string
	lines = append(lines, path.Reasoning)
	lines = append(lines, fmt.Sprintf("重规划：剔除 %d 个已完成资源，重排为 %d 个里程碑", completedCount, len(alloc.Milestones)))
	if fb := strings.TrimSpace(req.Feedback); fb != "" {
		lines = append(lines, fmt.Sprintf("学员反馈：%s", fb))
	}
	lines = append(lines, alloc.Notes...)
	lines = append(lines, alloc.Dropped...)

	path.Milestones = alloc.Milestones
	for i := range path.Milestones {
		path.Milestones[i].PathID = path.ID
	}
	path.Reasoning = strings.Join(lines, "\n")
	path.EstimatedWeeks = EstimateWeeks(path.TotalHours, path.HoursPerWeek)

	if err := s.Repo.ReplaceMilestones(path); err != nil {
		return nil, util.WrapAppError(util.KindServiceUnavailable, "路径存储暂不可用，请稍后重试", err)
	}

	s.invalidateCache(ctx, path.ID)
	return path, nil
}

func (s *PlanService) ListUserPlans(userID string, page, limit int) ([]model.LearningPath, int64, error) {
	return s.Repo.ListByUser(userID, page, limit)
}

func planCacheKey(id string) string {
	return "learnpath:path:" + id
}

func (s *PlanService) cachePath(ctx context.Context, path *model.LearningPath) {
	if s.rdb == nil {
		return
	}
	raw, err := json.Marshal(path)
	if err != nil {
		return
	}
	ttl := time.Duration(s.cfg.CacheTTLMinutes) * time.Minute
	if err := s.rdb.Set(ctx, planCacheKey(path.ID), raw, ttl).Err(); err != nil {
		logger.Log.Warn("path cache write failed", zap.String("path_id", path.ID), zap.Error(err))
	}
}

func (s *PlanService) invalidateCache(ctx context.Context, id string) {
	if s.rdb == nil {
		return
	}
	if err := s.rdb.Del(ctx, planCacheKey(id)).Err(); err != nil {
		logger.Log.Warn("path cache invalidation failed", zap.String("path_id", id), zap.Error(err))
	}
}
