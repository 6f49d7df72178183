package models

import "time"

const SessionTypeAI = "ai"

// CounselSession is the session-registry row. Registration creates it;
// this core writes back only Content (summary) and Deleted (soft delete).
// Rows are never physically removed.
type CounselSession struct {
	ID          int64      `json:"session_id" gorm:"primaryKey;autoIncrement"`
	MemberEmail string     `json:"member_email" gorm:"type:varchar(255);not null;index"`
	Type        string     `json:"type" gorm:"type:varchar(50);not null;default:ai"`
	Status      string     `json:"status" gorm:"type:varchar(50);not null;default:scheduled"`
	Title       string     `json:"title" gorm:"type:varchar(255)"`
	Content     string     `json:"content" gorm:"type:text"`
	StartAt     *time.Time `json:"start_at"`
	EndAt       *time.Time `json:"end_at"`
	Deleted     bool       `json:"deleted" gorm:"not null;default:false"`
	CreatedAt   time.Time  `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt   time.Time  `json:"updated_at" gorm:"autoUpdateTime"`
}

func (CounselSession) TableName() string {
	return "counsel_sessions"
}
