package model

// LearningPath 一次规划请求产出的完整学习路径
// swagger:model LearningPath
type LearningPath struct {
	UUIDBase
	UserID           string            `gorm:"index;size:64" json:"userId,omitempty"`
	Goal             string            `gorm:"type:text;not null" json:"goal"`
	TotalHours       float64           `gorm:"not null" json:"totalHours"`
	HoursPerWeek     float64           `gorm:"not null" json:"hoursPerWeek"`
	EstimatedWeeks   int               `json:"estimatedWeeks"`
	PrerequisitesMet bool              `gorm:"default:true" json:"prerequisitesMet"`
	Reasoning        string            `gorm:"type:text" json:"reasoning"`
	Preferences      map[string]string `gorm:"serializer:json" json:"preferences,omitempty"`
	Milestones       []Milestone       `gorm:"foreignKey:PathID" json:"milestones"`
}

func (LearningPath) TableName() string {
	return "learning_paths"
}

// Milestone 学习路径中的一个阶段
// 不变量：同一路径下 Order 从0开始连续且唯一
// swagger:model Milestone
type Milestone struct {
	UUIDBase
	PathID         string         `gorm:"index;type:varchar(36)" json:"-"`
	Title          string         `gorm:"size:255;not null" json:"title"`
	Description    string         `gorm:"type:text" json:"description"`
	EstimatedHours float64        `json:"estimatedHours"`
	SkillsGained   []string       `gorm:"serializer:json" json:"skillsGained"`
	Order          int            `gorm:"column:display_order;default:0" json:"order"`
	Resources      []ResourceItem `gorm:"foreignKey:MilestoneID" json:"resources"`
}

func (Milestone) TableName() string {
	return "milestones"
}

// ResourceItem 引用外部资料目录条目的学习资源
// 不变量：同一里程碑下 Order 从0开始连续且唯一；同一路径中 ResourceID 不重复
// swagger:model ResourceItem
type ResourceItem struct {
	UUIDBase
	MilestoneID string   `gorm:"index;type:varchar(36)" json:"-"`
	ResourceID  string   `gorm:"index;size:64;not null" json:"resourceId"`
	Title       string   `gorm:"size:255;not null" json:"title"`
	URL         string   `gorm:"size:512" json:"url"`
	DurationMin int      `gorm:"default:0" json:"durationMin"`
	Level       *int     `json:"level,omitempty"`
	Skills      []string `gorm:"serializer:json" json:"skills"`
	WhyIncluded string   `gorm:"type:text" json:"whyIncluded"`
	Order       int      `gorm:"column:display_order;default:0" json:"order"`
	Score       float64  `gorm:"default:0" json:"-"` // 检索打分，仅服务端用于重排
}

func (ResourceItem) TableName() string {
	return "resource_items"
}
