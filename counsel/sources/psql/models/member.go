package models

// Member rows are owned by the external registration service; this core
// only verifies that an identity exists.
type Member struct {
	ID    int     `json:"id" gorm:"primaryKey;autoIncrement"`
	Email string  `json:"email" gorm:"type:varchar(255);not null;uniqueIndex"`
	Name  *string `json:"name,omitempty" gorm:"type:varchar(255)"`
}

func (Member) TableName() string {
	return "members"
}
