package repository

import (
	"strings"
	"testing"

	"learnpath_backend/internal/model"
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

func sampleQuiz() (*model.Quiz, *model.AnswerKey) {
	quiz := &model.Quiz{TotalQuestions: 1}
	quiz.ID = model.GenerateUUID()

	q := model.QuizQuestion{
		Text:             "SELECT 语句的作用是什么？",
		Explanation:      "SELECT 用于从表中查询数据",
		SourceResourceID: "r1",
		Citation:         "引文：SELECT 从一个或多个表中检索行",
		Order:            0,
	}
	q.ID = model.GenerateUUID()

	correct := model.QuizOption{Text: "查询数据", Order: 0, IsCorrect: true}
	correct.ID = model.GenerateUUID()
	wrong := model.QuizOption{Text: "删除数据", Order: 1}
	wrong.ID = model.GenerateUUID()
	q.Options = []model.QuizOption{correct, wrong}
	quiz.Questions = []model.QuizQuestion{q}

	key := &model.AnswerKey{Entries: map[string]string{q.ID: correct.ID}}
	return quiz, key
}

func TestCreateWithKey_RoundTrip(t *testing.T) {
	repo := NewQuizRepository(testDB(t))
	quiz, key := sampleQuiz()

	require.NoError(t, repo.CreateWithKey(quiz, key))

	got, err := repo.FindByID(quiz.ID)
	require.NoError(t, err)
	require.Len(t, got.Questions, 1)
	require.Len(t, got.Questions[0].Options, 2)
	assert.Equal(t, "查询数据", got.Questions[0].Options[0].Text)

	gotKey, err := repo.FindAnswerKey(quiz.ID)
	require.NoError(t, err)
	assert.Equal(t, key.Entries, gotKey.Entries)
}

func TestCreateWithKey_DuplicateKeyRollsBack(t *testing.T) {
	repo := NewQuizRepository(testDB(t))
	quiz, key := sampleQuiz()
	require.NoError(t, repo.CreateWithKey(quiz, key))

	// 第二个测验带相同的答案键主键，事务必须整体回滚
	other, otherKey := sampleQuiz()
	otherKey.QuizID = quiz.ID
	err := repo.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(other).Error; err != nil {
			return err
		}
		return tx.Create(otherKey).Error
	})
	require.Error(t, err)

	_, err = repo.FindByID(other.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestFindAnswerKey_SurvivesReread(t *testing.T) {
	repo := NewQuizRepository(testDB(t))
	quiz, key := sampleQuiz()
	require.NoError(t, repo.CreateWithKey(quiz, key))

	first, err := repo.FindAnswerKey(quiz.ID)
	require.NoError(t, err)
	second, err := repo.FindAnswerKey(quiz.ID)
	require.NoError(t, err)

	assert.Equal(t, first.Entries, second.Entries)
}

func TestAppendGradeRecord(t *testing.T) {
	repo := NewQuizRepository(testDB(t))
	quiz, key := sampleQuiz()
	require.NoError(t, repo.CreateWithKey(quiz, key))

	require.NoError(t, repo.AppendGradeRecord(&model.QuizGradeRecord{QuizID: quiz.ID, Correct: 1, Total: 1}))
	require.NoError(t, repo.AppendGradeRecord(&model.QuizGradeRecord{QuizID: quiz.ID, Correct: 0, Total: 1}))

	var count int64
	require.NoError(t, repo.DB.Model(&model.QuizGradeRecord{}).Where("quiz_id = ?", quiz.ID).Count(&count).Error)
	assert.Equal(t, int64(2), count)
}
