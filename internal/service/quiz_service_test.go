package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"learnpath_backend/internal/client"
	"learnpath_backend/internal/config"
	"learnpath_backend/internal/repository"
	"learnpath_backend/internal/util"
	"learnpath_backend/pkg/database"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.ReplaceAll(t.Name(), "/", "_")
	db, err := gorm.Open(sqlite.Open("file:"+name+"?mode=memory&cache=shared"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	return db
}

type fakeSnippets struct {
	snippets map[string]string
	err      error
	calls    []string
}

func (f *fakeSnippets) GetCitationSnippet(_ context.Context, resourceID string) (string, error) {
	f.calls = append(f.calls, resourceID)
	if f.err != nil {
		return "", f.err
	}
	return f.snippets[resourceID], nil
}

type fakeGenerator struct {
	questions []client.GeneratedQuestion
	err       error
	gotNum    int
}

func (f *fakeGenerator) Generate(_ context.Context, _ []client.QuizSource, numQuestions int, _ string) ([]client.GeneratedQuestion, error) {
	f.gotNum = numQuestions
	if f.err != nil {
		return nil, f.err
	}
	if len(f.questions) > numQuestions {
		return f.questions[:numQuestions], nil
	}
	return f.questions, nil
}

func genQuestion(source string, correctIdx int) client.GeneratedQuestion {
	return client.GeneratedQuestion{
		Text:             "关于 " + source + " 的问题",
		Options:          []string{"选项A", "选项B", "选项C", "选项D"},
		CorrectIndex:     correctIdx,
		Explanation:      "解析：正确选项见资料原文",
		SourceResourceID: source,
		Citation:         "引文片段来自 " + source,
	}
}

func quizCfg() config.QuizConfig {
	return config.QuizConfig{DefaultQuestions: 5, PerResourceCap: 2}
}

func newQuizService(t *testing.T, gen QuestionGenerator, content SnippetProvider) (*QuizService, *repository.QuizRepository) {
	repo := repository.NewQuizRepository(testDB(t))
	return NewQuizService(repo, gen, content, quizCfg()), repo
}

func TestQuizGenerate_EmptyResourceSet(t *testing.T) {
	svc, _ := newQuizService(t, &fakeGenerator{}, &fakeSnippets{})

	_, err := svc.Generate(context.Background(), GenerateQuizRequest{ResourceIDs: nil})

	require.Error(t, err)
	assert.Equal(t, util.KindInsufficientSource, util.KindOf(err))
}

func TestQuizGenerate_ScalesDownForFewResources(t *testing.T) {
	gen := &fakeGenerator{questions: []client.GeneratedQuestion{
		genQuestion("r1", 0),
		genQuestion("r1", 1),
		genQuestion("r2", 2),
		genQuestion("r2", 3),
	}}
	svc, _ := newQuizService(t, gen, &fakeSnippets{snippets: map[string]string{}})

	// 2 个资源、每资源上限 2 题，请求 10 题必须缩减为 4 题
	view, err := svc.Generate(context.Background(), GenerateQuizRequest{
		ResourceIDs:  []string{"r1", "r2"},
		NumQuestions: 10,
	})

	require.NoError(t, err)
	assert.Equal(t, 4, gen.gotNum)
	assert.Equal(t, 4, view.TotalQuestions)
	require.NotEmpty(t, view.Notes)
	assert.Contains(t, view.Notes[0], "缩减")
}

func TestQuizGenerate_ViewNeverLeaksAnswers(t *testing.T) {
	gen := &fakeGenerator{questions: []client.GeneratedQuestion{
		genQuestion("r1", 2),
	}}
	svc, _ := newQuizService(t, gen, &fakeSnippets{})

	view, err := svc.Generate(context.Background(), GenerateQuizRequest{ResourceIDs: []string{"r1"}})
	require.NoError(t, err)

	raw, err := json.Marshal(view)
	require.NoError(t, err)

	serialized := strings.ToLower(string(raw))
	assert.NotContains(t, serialized, "correct")
	assert.NotContains(t, serialized, "explanation")
	assert.NotContains(t, serialized, "citation")
	assert.NotContains(t, serialized, "解析")
	assert.NotContains(t, serialized, "引文")
}

func TestQuizGenerate_SnippetFailureDegrades(t *testing.T) {
	gen := &fakeGenerator{questions: []client.GeneratedQuestion{genQuestion("r1", 0)}}
	content := &fakeSnippets{err: errors.New("content store down")}
	svc, _ := newQuizService(t, gen, content)

	view, err := svc.Generate(context.Background(), GenerateQuizRequest{ResourceIDs: []string{"r1"}})

	require.NoError(t, err)
	assert.Equal(t, 1, view.TotalQuestions)
}

func TestQuizGenerate_GeneratorFailureIsUnavailable(t *testing.T) {
	gen := &fakeGenerator{err: errors.New("llm timeout")}
	svc, _ := newQuizService(t, gen, &fakeSnippets{})

	_, err := svc.Generate(context.Background(), GenerateQuizRequest{ResourceIDs: []string{"r1"}})

	require.Error(t, err)
	assert.Equal(t, util.KindServiceUnavailable, util.KindOf(err))
}

func TestQuizGenerate_DiscardsMalformedQuestions(t *testing.T) {
	gen := &fakeGenerator{questions: []client.GeneratedQuestion{
		genQuestion("r1", 0),
		genQuestion("unknown-resource", 0), // 引用了请求外的资源
		{Text: "坏题", Options: []string{"唯一选项"}, CorrectIndex: 0, SourceResourceID: "r1"},
		{Text: "坏索引", Options: []string{"A", "B"}, CorrectIndex: 5, SourceResourceID: "r1"},
	}}
	svc, _ := newQuizService(t, gen, &fakeSnippets{})

	view, err := svc.Generate(context.Background(), GenerateQuizRequest{
		ResourceIDs:  []string{"r1"},
		NumQuestions: 4,
	})

	require.NoError(t, err)
	assert.Equal(t, 1, view.TotalQuestions)
	require.NotEmpty(t, view.Notes)
}

func TestQuizGenerate_CapBindsPerResource(t *testing.T) {
	// 生成服务把题目全部押在 r1 上，每资源上限 2 必须逐资源生效
	gen := &fakeGenerator{questions: []client.GeneratedQuestion{
		genQuestion("r1", 0),
		genQuestion("r2", 0),
		genQuestion("r1", 1),
		genQuestion("r1", 2),
	}}
	svc, _ := newQuizService(t, gen, &fakeSnippets{})

	view, err := svc.Generate(context.Background(), GenerateQuizRequest{
		ResourceIDs:  []string{"r1", "r2"},
		NumQuestions: 4,
	})

	require.NoError(t, err)
	assert.Equal(t, 3, view.TotalQuestions)

	bySource := make(map[string]int)
	for _, q := range view.Questions {
		bySource[q.SourceResourceID]++
	}
	assert.Equal(t, 2, bySource["r1"])
	assert.Equal(t, 1, bySource["r2"])
}

func TestQuizSubmit_GradesAgainstStoredKey(t *testing.T) {
	gen := &fakeGenerator{questions: []client.GeneratedQuestion{
		genQuestion("r1", 1),
		genQuestion("r1", 3),
	}}
	svc, _ := newQuizService(t, gen, &fakeSnippets{})

	view, err := svc.Generate(context.Background(), GenerateQuizRequest{
		ResourceIDs:  []string{"r1"},
		NumQuestions: 2,
	})
	require.NoError(t, err)
	require.Len(t, view.Questions, 2)

	// 第一题答对，第二题答错
	req := SubmitQuizRequest{
		QuizID: view.ID,
		Answers: []AnswerPair{
			{QuestionID: view.Questions[0].ID, SelectedOptionID: view.Questions[0].Options[1].ID},
			{QuestionID: view.Questions[1].ID, SelectedOptionID: view.Questions[1].Options[0].ID},
		},
	}

	result, err := svc.Submit(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, 1, result.Correct)
	assert.Equal(t, 2, result.Total)
	assert.True(t, result.Questions[0].Correct)
	assert.False(t, result.Questions[1].Correct)
	assert.NotEmpty(t, result.Questions[0].Explanation)
	assert.NotEmpty(t, result.Questions[0].Citation)
	assert.Equal(t, view.Questions[1].Options[3].ID, result.Questions[1].CorrectOptionID)
}

func TestQuizSubmit_Idempotent(t *testing.T) {
	gen := &fakeGenerator{questions: []client.GeneratedQuestion{genQuestion("r1", 0)}}
	svc, _ := newQuizService(t, gen, &fakeSnippets{})

	view, err := svc.Generate(context.Background(), GenerateQuizRequest{ResourceIDs: []string{"r1"}})
	require.NoError(t, err)

	req := SubmitQuizRequest{
		QuizID: view.ID,
		Answers: []AnswerPair{
			{QuestionID: view.Questions[0].ID, SelectedOptionID: view.Questions[0].Options[0].ID},
		},
	}

	first, err := svc.Submit(context.Background(), req)
	require.NoError(t, err)
	second, err := svc.Submit(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, first.Correct, second.Correct)
	assert.Equal(t, first.Questions, second.Questions)
}

func TestQuizSubmit_UnansweredCountsWrong(t *testing.T) {
	gen := &fakeGenerator{questions: []client.GeneratedQuestion{
		genQuestion("r1", 0),
		genQuestion("r1", 1),
	}}
	svc, _ := newQuizService(t, gen, &fakeSnippets{})

	view, err := svc.Generate(context.Background(), GenerateQuizRequest{
		ResourceIDs:  []string{"r1"},
		NumQuestions: 2,
	})
	require.NoError(t, err)

	// 只答第一题，并附带一个指向不存在题目的作答条目
	req := SubmitQuizRequest{
		QuizID: view.ID,
		Answers: []AnswerPair{
			{QuestionID: view.Questions[0].ID, SelectedOptionID: view.Questions[0].Options[0].ID},
			{QuestionID: "no-such-question", SelectedOptionID: "whatever"},
		},
	}

	result, err := svc.Submit(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, 2, result.Total)
	assert.Len(t, result.Questions, 2)
	assert.False(t, result.Questions[1].Correct)
}

func TestQuizSubmit_NotFound(t *testing.T) {
	svc, _ := newQuizService(t, &fakeGenerator{}, &fakeSnippets{})

	_, err := svc.Submit(context.Background(), SubmitQuizRequest{QuizID: "missing"})

	require.Error(t, err)
	assert.Equal(t, util.KindNotFound, util.KindOf(err))
}
