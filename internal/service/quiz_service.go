package service

import (
	"context"
	"errors"
	"fmt"
	"learnpath_backend/internal/client"
	"learnpath_backend/internal/config"
	"learnpath_backend/internal/model"
	"learnpath_backend/internal/repository"
	"learnpath_backend/internal/util"
	"learnpath_backend/pkg/logger"
	"learnpath_backend/pkg/monitoring"
	"sort"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// SnippetProvider 内容库协作方：取回资源正文片段
type SnippetProvider interface {
	GetCitationSnippet(ctx context.Context, resourceID string) (string, error)
}

// QuestionGenerator 出题协作方
type QuestionGenerator interface {
	Generate(ctx context.Context, sources []client.QuizSource, numQuestions int, difficulty string) ([]client.GeneratedQuestion, error)
}

type QuizService struct {
	Repo    *repository.QuizRepository
	Gen     QuestionGenerator
	Content SnippetProvider
	cfg     config.QuizConfig
}

func NewQuizService(repo *repository.QuizRepository, gen QuestionGenerator, content SnippetProvider, cfg config.QuizConfig) *QuizService {
	return &QuizService{Repo: repo, Gen: gen, Content: content, cfg: cfg}
}

type GenerateQuizRequest struct {
	ResourceIDs  []string `json:"resource_ids" binding:"required"`
	NumQuestions int      `json:"num_questions"`
	Difficulty   string   `json:"difficulty"`
}

// QuizView 面向客户端的测验视图。
// 正确性标记和解析在结构上不存在，序列化层不可能泄露判分信息
type QuizView struct {
	ID             string             `json:"id"`
	Title          string             `json:"title,omitempty"`
	TotalQuestions int                `json:"totalQuestions"`
	CreatedAt      time.Time          `json:"createdAt"`
	Questions      []QuizQuestionView `json:"questions"`
	Notes          []string           `json:"notes,omitempty"`
}

type QuizQuestionView struct {
	ID               string           `json:"id"`
	Text             string           `json:"text"`
	SourceResourceID string           `json:"sourceResourceId"`
	Options          []QuizOptionView `json:"options"`
}

type QuizOptionView struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// Generate 生成测验并原子化落库答案键。
// 资源不足时采取缩减策略：题目数降到 每资源上限×资源数，并在响应中说明；
// 只有资源集合为空才返回 InsufficientSource
func (s *QuizService) Generate(ctx context.Context, req GenerateQuizRequest) (*QuizView, error) {
	ids := distinctSorted(req.ResourceIDs)
	if len(ids) == 0 {
		return nil, util.NewAppError(util.KindInsufficientSource, "资源列表为空，无法生成测验")
	}

	numQuestions := req.NumQuestions
	if numQuestions <= 0 {
		numQuestions = s.cfg.DefaultQuestions
	}

	var notes []string
	maxQuestions := s.cfg.PerResourceCap * len(ids)
	if numQuestions > maxQuestions {
		notes = append(notes, fmt.Sprintf("资源数量不足，题目数由 %d 缩减为 %d（每资源至多 %d 题）",
			numQuestions, maxQuestions, s.cfg.PerResourceCap))
		numQuestions = maxQuestions
	}

	// 逐资源取引文片段，失败降级为空片段而不是中断生成
	sources := make([]client.QuizSource, 0, len(ids))
	for _, id := range ids {
		snippet, err := s.Content.GetCitationSnippet(ctx, id)
		if err != nil {
			logger.Log.Warn("citation snippet fetch failed, generating without grounding text",
				zap.String("resource_id", id), zap.Error(err))
			snippet = ""
		}
		sources = append(sources, client.QuizSource{ResourceID: id, Title: id, Snippet: snippet})
	}

	generated, err := s.Gen.Generate(ctx, sources, numQuestions, req.Difficulty)
	if err != nil {
		return nil, util.WrapAppError(util.KindServiceUnavailable, "出题服务不可用", err)
	}

	idSet := make(map[string]bool, len(ids))
	for _, id := range ids {
		idSet[id] = true
	}

	quiz := &model.Quiz{}
	quiz.ID = model.GenerateUUID()
	key := &model.AnswerKey{Entries: make(map[string]string)}

	perSource := make(map[string]int, len(ids))
	for _, g := range generated {
		if len(quiz.Questions) >= numQuestions {
			break
		}
		// 题目必须引用请求内的资源，且恰好一个合法正确项
		if !idSet[g.SourceResourceID] || len(g.Options) < 2 ||
			g.CorrectIndex < 0 || g.CorrectIndex >= len(g.Options) {
			logger.Log.Warn("discarding malformed generated question",
				zap.String("source_resource_id", g.SourceResourceID))
			continue
		}
		// 每资源上限同样约束单个资源的出题数，避免题目集中在一份资料上
		if perSource[g.SourceResourceID] >= s.cfg.PerResourceCap {
			logger.Log.Warn("discarding question over per-resource cap",
				zap.String("source_resource_id", g.SourceResourceID))
			continue
		}
		perSource[g.SourceResourceID]++

		q := model.QuizQuestion{
			Text:             g.Text,
			Explanation:      g.Explanation,
			SourceResourceID: g.SourceResourceID,
			Citation:         g.Citation,
			Order:            len(quiz.Questions),
		}
		q.ID = model.GenerateUUID()

		for i, text := range g.Options {
			opt := model.QuizOption{
				Text:      text,
				Order:     i,
				IsCorrect: i == g.CorrectIndex,
			}
			opt.ID = model.GenerateUUID()
			if opt.IsCorrect {
				key.Entries[q.ID] = opt.ID
			}
			q.Options = append(q.Options, opt)
		}
		quiz.Questions = append(quiz.Questions, q)
	}

	if len(quiz.Questions) == 0 {
		return nil, util.NewAppError(util.KindInsufficientSource, "生成服务未能基于所给资源产出有效题目")
	}
	if len(quiz.Questions) < numQuestions {
		notes = append(notes, fmt.Sprintf("有效题目不足，实际生成 %d 题", len(quiz.Questions)))
	}
	quiz.TotalQuestions = len(quiz.Questions)

	if err := s.Repo.CreateWithKey(quiz, key); err != nil {
		return nil, util.WrapAppError(util.KindInternal, "测验落库失败", err)
	}

	view := sanitizeQuiz(quiz)
	view.Notes = notes
	return view, nil
}

// sanitizeQuiz 转换为客户端视图，剥离一切判分相关字段
func sanitizeQuiz(quiz *model.Quiz) *QuizView {
	view := &QuizView{
		ID:             quiz.ID,
		Title:          quiz.Title,
		TotalQuestions: quiz.TotalQuestions,
		CreatedAt:      quiz.CreatedAt,
	}
	for _, q := range quiz.Questions {
		qv := QuizQuestionView{
			ID:               q.ID,
			Text:             q.Text,
			SourceResourceID: q.SourceResourceID,
		}
		for _, o := range q.Options {
			qv.Options = append(qv.Options, QuizOptionView{ID: o.ID, Text: o.Text})
		}
		view.Questions = append(view.Questions, qv)
	}
	return view
}

type SubmitQuizRequest struct {
	QuizID  string       `json:"quiz_id" binding:"required"`
	Answers []AnswerPair `json:"answers"`
}

type AnswerPair struct {
	QuestionID       string `json:"question_id"`
	SelectedOptionID string `json:"selected_option_id"`
}

// QuizResult 判分结果，解析、引文与正确选项只在这里返回
type QuizResult struct {
	QuizID    string           `json:"quizId"`
	Correct   int              `json:"correct"`
	Total     int              `json:"total"`
	Questions []QuestionResult `json:"questions"`
}

type QuestionResult struct {
	QuestionID       string `json:"questionId"`
	Correct          bool   `json:"correct"`
	SelectedOptionID string `json:"selectedOptionId,omitempty"`
	CorrectOptionID  string `json:"correctOptionId"`
	Explanation      string `json:"explanation"`
	Citation         string `json:"citation"`
}

// Submit 依据不可变答案键重新判分，同一提交重复判分结果恒等。
// 未作答的题按答错计，引用不存在题目的作答条目直接忽略
func (s *QuizService) Submit(ctx context.Context, req SubmitQuizRequest) (*QuizResult, error) {
	quiz, err := s.Repo.FindByID(req.QuizID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrQuizNotFound
		}
		return nil, util.WrapAppError(util.KindInternal, "读取测验失败", err)
	}

	key, err := s.Repo.FindAnswerKey(req.QuizID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrQuizNotFound
		}
		return nil, util.WrapAppError(util.KindInternal, "读取答案键失败", err)
	}

	selected := make(map[string]string, len(req.Answers))
	for _, a := range req.Answers {
		selected[a.QuestionID] = a.SelectedOptionID
	}

	result := &QuizResult{
		QuizID: quiz.ID,
		Total:  quiz.TotalQuestions,
	}

	for _, q := range quiz.Questions {
		correctID := key.Entries[q.ID]
		sel, answered := selected[q.ID]
		correct := answered && sel == correctID
		if correct {
			result.Correct++
		}
		result.Questions = append(result.Questions, QuestionResult{
			QuestionID:       q.ID,
			Correct:          correct,
			SelectedOptionID: sel,
			CorrectOptionID:  correctID,
			Explanation:      q.Explanation,
			Citation:         q.Citation,
		})
	}

	// 判分历史追加失败不影响本次结果
	rec := &model.QuizGradeRecord{QuizID: quiz.ID, Correct: result.Correct, Total: result.Total}
	if err := s.Repo.AppendGradeRecord(rec); err != nil {
		logger.Log.Warn("failed to append grade record", zap.String("quiz_id", quiz.ID), zap.Error(err))
	}

	monitoring.QuizGradeCounter.Inc()
	return result, nil
}

func distinctSorted(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	var out []string
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
