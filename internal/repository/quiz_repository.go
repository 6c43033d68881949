package repository

import (
	"learnpath_backend/internal/model"

	"gorm.io/gorm"
)

type QuizRepository struct {
	DB *gorm.DB
}

func NewQuizRepository(db *gorm.DB) *QuizRepository {
	return &QuizRepository{DB: db}
}

// CreateWithKey 测验与答案键在同一事务内创建。
// 答案键以测验ID为主键，重复创建会因主键冲突回滚，天然满足create-if-absent
func (r *QuizRepository) CreateWithKey(quiz *model.Quiz, key *model.AnswerKey) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(quiz).Error; err != nil {
			return err
		}
		key.QuizID = quiz.ID
		return tx.Create(key).Error
	})
}

func (r *QuizRepository) FindByID(id string) (*model.Quiz, error) {
	var q model.Quiz
	err := r.DB.
		Preload("Questions", func(db *gorm.DB) *gorm.DB {
			return db.Order("quiz_questions.display_order asc")
		}).
		Preload("Questions.Options", func(db *gorm.DB) *gorm.DB {
			return db.Order("quiz_options.display_order asc")
		}).
		Where("id = ?", id).First(&q).Error
	if err != nil {
		return nil, err
	}
	return &q, nil
}

func (r *QuizRepository) FindAnswerKey(quizID string) (*model.AnswerKey, error) {
	var k model.AnswerKey
	err := r.DB.Where("quiz_id = ?", quizID).First(&k).Error
	if err != nil {
		return nil, err
	}
	return &k, nil
}

func (r *QuizRepository) AppendGradeRecord(rec *model.QuizGradeRecord) error {
	return r.DB.Create(rec).Error
}
