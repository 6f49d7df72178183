package dao

import (
	"context"

	"counsel/counsel/sources/psql/models"

	"gorm.io/gorm"
)

type MemberDAO struct {
	DB *gorm.DB
}

func NewMemberDAO(db *gorm.DB) *MemberDAO {
	return &MemberDAO{DB: db}
}

// ExistsByEmail verifies an identity against the member registry.
func (dao *MemberDAO) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var count int64
	err := withRetry(ctx, func() error {
		return dao.DB.WithContext(ctx).
			Model(&models.Member{}).
			Where("email = ?", email).
			Count(&count).Error
	})
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
