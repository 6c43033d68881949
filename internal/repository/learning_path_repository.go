package repository

import (
	"learnpath_backend/internal/model"

	"gorm.io/gorm"
)

type LearningPathRepository struct {
	DB *gorm.DB
}

func NewLearningPathRepository(db *gorm.DB) *LearningPathRepository {
	return &LearningPathRepository{DB: db}
}

func (r *LearningPathRepository) Create(path *model.LearningPath) error {
	return r.DB.Create(path).Error
}

func (r *LearningPathRepository) FindByID(id string) (*model.LearningPath, error) {
	var p model.LearningPath
	err := r.DB.
		Preload("Milestones", func(db *gorm.DB) *gorm.DB {
			return db.Order("milestones.display_order asc")
		}).
		Preload("Milestones.Resources", func(db *gorm.DB) *gorm.DB {
			return db.Order("resource_items.display_order asc")
		}).
		Where("id = ?", id).First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// ReplaceMilestones 重规划时整体替换里程碑及其资源，与路径字段更新同事务
func (r *LearningPathRepository) ReplaceMilestones(path *model.LearningPath) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		var milestoneIDs []string
		if err := tx.Model(&model.Milestone{}).
			Where("path_id = ?", path.ID).
			Pluck("id", &milestoneIDs).Error; err != nil {
			return err
		}
		if len(milestoneIDs) > 0 {
			if err := tx.Unscoped().Where("milestone_id IN ?", milestoneIDs).
				Delete(&model.ResourceItem{}).Error; err != nil {
				return err
			}
			if err := tx.Unscoped().Where("path_id = ?", path.ID).
				Delete(&model.Milestone{}).Error; err != nil {
				return err
			}
		}
		return tx.Session(&gorm.Session{FullSaveAssociations: true}).Save(path).Error
	})
}

func (r *LearningPathRepository) ListByUser(userID string, page, limit int) ([]model.LearningPath, int64, error) {
	var ps []model.LearningPath
	var total int64
	query := r.DB.Model(&model.LearningPath{}).Where("user_id = ?", userID)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	offset := (page - 1) * limit
	err := query.Order("created_at desc").Offset(offset).Limit(limit).Find(&ps).Error
	return ps, total, err
}
