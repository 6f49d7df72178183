package dao

import (
	"context"
	"errors"

	"counsel/counsel/sources/psql/models"
	"counsel/counsel/utils/apperrors"

	"gorm.io/gorm"
)

type SessionDAO struct {
	DB *gorm.DB
}

func NewSessionDAO(db *gorm.DB) *SessionDAO {
	return &SessionDAO{DB: db}
}

// GetByID returns the session row including soft-deleted ones; callers
// decide whether a deleted session is acceptable for their operation.
func (dao *SessionDAO) GetByID(ctx context.Context, id int64) (*models.CounselSession, error) {
	var s models.CounselSession
	err := withRetry(ctx, func() error {
		return dao.DB.WithContext(ctx).First(&s, id).Error
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.New(apperrors.KindNotFound, "session not found")
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// ListAIByMember lists the member's AI counseling sessions, most recent
// first, excluding soft-deleted ones.
func (dao *SessionDAO) ListAIByMember(ctx context.Context, memberEmail string) ([]models.CounselSession, error) {
	var sessions []models.CounselSession
	err := withRetry(ctx, func() error {
		return dao.DB.WithContext(ctx).
			Where("member_email = ? AND type = ? AND deleted = ?", memberEmail, models.SessionTypeAI, false).
			Order("created_at DESC").
			Find(&sessions).Error
	})
	if err != nil {
		return nil, err
	}
	return sessions, nil
}

// UpdateContent writes the summary text back into the registry row.
func (dao *SessionDAO) UpdateContent(ctx context.Context, id int64, content string) error {
	var res *gorm.DB
	err := withRetry(ctx, func() error {
		res = dao.DB.WithContext(ctx).
			Model(&models.CounselSession{}).
			Where("id = ?", id).
			Update("content", content)
		return res.Error
	})
	if err != nil {
		return err
	}
	if res.RowsAffected == 0 {
		return apperrors.New(apperrors.KindNotFound, "session not found")
	}
	return nil
}

// SoftDelete flags the session deleted. Repeating it is a no-op; the
// transcript row is never touched.
func (dao *SessionDAO) SoftDelete(ctx context.Context, id int64) error {
	return withRetry(ctx, func() error {
		return dao.DB.WithContext(ctx).
			Model(&models.CounselSession{}).
			Where("id = ?", id).
			Update("deleted", true).Error
	})
}
