package model

import "time"

// Quiz 一次生成调用产出的测验，生成后除判分历史外不可变
// swagger:model Quiz
type Quiz struct {
	UUIDBase
	Title          string         `gorm:"size:255" json:"title,omitempty"`
	TotalQuestions int            `gorm:"not null" json:"totalQuestions"`
	Questions      []QuizQuestion `gorm:"foreignKey:QuizID" json:"questions"`
}

func (Quiz) TableName() string {
	return "quizzes"
}

// QuizQuestion 测验题目，引用生成所依据的资源并附带引文
type QuizQuestion struct {
	UUIDBase
	QuizID           string       `gorm:"index;type:varchar(36)" json:"-"`
	Text             string       `gorm:"type:text;not null" json:"text"`
	Explanation      string       `gorm:"type:text" json:"explanation"`
	SourceResourceID string       `gorm:"size:64;not null" json:"sourceResourceId"`
	Citation         string       `gorm:"type:text" json:"citation"`
	Order            int          `gorm:"column:display_order;default:0" json:"order"`
	Options          []QuizOption `gorm:"foreignKey:QuestionID" json:"options"`
}

func (QuizQuestion) TableName() string {
	return "quiz_questions"
}

// QuizOption 选项。IsCorrect 只存在于服务端表示，任何生成接口响应都不携带
type QuizOption struct {
	UUIDBase
	QuestionID string `gorm:"index;type:varchar(36)" json:"-"`
	Text       string `gorm:"type:text;not null" json:"text"`
	Order      int    `gorm:"column:display_order;default:0" json:"order"`
	IsCorrect  bool   `gorm:"default:false" json:"-"`
}

func (QuizOption) TableName() string {
	return "quiz_options"
}

// AnswerKey 服务端私有答案键，与测验同事务创建，之后只读
type AnswerKey struct {
	QuizID    string            `gorm:"primaryKey;type:varchar(36)" json:"-"`
	Entries   map[string]string `gorm:"serializer:json" json:"-"` // question id -> correct option id
	CreatedAt time.Time         `json:"-"`
}

func (AnswerKey) TableName() string {
	return "answer_keys"
}

// QuizGradeRecord 判分历史，测验本体之外唯一允许追加的数据
type QuizGradeRecord struct {
	UUIDBase
	QuizID  string `gorm:"index;type:varchar(36)" json:"quizId"`
	Correct int    `json:"correct"`
	Total   int    `json:"total"`
}

func (QuizGradeRecord) TableName() string {
	return "quiz_grade_records"
}
