package dao

import (
	"context"
	"errors"

	"counsel/counsel/sources/psql/models"
	"counsel/counsel/utils/apperrors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TranscriptDAO owns the transcripts table: one row per
// (session_id, member_email), append-only turn log, optional summary.
type TranscriptDAO struct {
	DB *gorm.DB
}

func NewTranscriptDAO(db *gorm.DB) *TranscriptDAO {
	return &TranscriptDAO{DB: db}
}

// maxAppendRetries bounds the optimistic read-modify-write loop; losing
// the version race more often than this means the pair is contended
// beyond what a chat UI produces.
const maxAppendRetries = 5

func (dao *TranscriptDAO) Get(ctx context.Context, sessionID int64, memberEmail string) (*models.Transcript, error) {
	var t models.Transcript
	err := withRetry(ctx, func() error {
		return dao.DB.WithContext(ctx).
			Where("session_id = ? AND member_email = ?", sessionID, memberEmail).
			First(&t).Error
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.New(apperrors.KindNotFound, "transcript not found")
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// GetOrCreate returns the pair's transcript, creating an empty one on
// first use. Racing creators both end up observing the single surviving
// row: the insert is ON CONFLICT DO NOTHING on the pair index and the
// result is always re-read.
func (dao *TranscriptDAO) GetOrCreate(ctx context.Context, sessionID int64, memberEmail string) (*models.Transcript, error) {
	t := models.Transcript{
		SessionID:   sessionID,
		MemberEmail: memberEmail,
		MsgData:     models.TurnLog{Content: []models.Turn{}},
	}
	err := withRetry(ctx, func() error {
		return dao.DB.WithContext(ctx).
			Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "session_id"}, {Name: "member_email"}},
				DoNothing: true,
			}).
			Create(&t).Error
	})
	if err != nil {
		return nil, err
	}
	return dao.Get(ctx, sessionID, memberEmail)
}

// AppendTurns appends turns in order, atomically with respect to
// concurrent appends on the same pair. Versioned update: the write only
// lands if nobody else advanced the row since our read, otherwise we
// reload and try again.
func (dao *TranscriptDAO) AppendTurns(ctx context.Context, sessionID int64, memberEmail string, turns []models.Turn) (*models.Transcript, error) {
	if len(turns) == 0 {
		return dao.Get(ctx, sessionID, memberEmail)
	}
	for attempt := 0; attempt < maxAppendRetries; attempt++ {
		t, err := dao.Get(ctx, sessionID, memberEmail)
		if err != nil {
			return nil, err
		}
		log := models.TurnLog{Content: make([]models.Turn, 0, len(t.MsgData.Content)+len(turns))}
		log.Content = append(log.Content, t.MsgData.Content...)
		log.Content = append(log.Content, turns...)

		var res *gorm.DB
		err = withRetry(ctx, func() error {
			res = dao.DB.WithContext(ctx).
				Model(&models.Transcript{}).
				Where("id = ? AND version = ?", t.ID, t.Version).
				Updates(map[string]interface{}{
					"msg_data": log,
					"version":  t.Version + 1,
				})
			return res.Error
		})
		if err != nil {
			return nil, err
		}
		if res.RowsAffected == 1 {
			t.MsgData = log
			t.Version++
			return t, nil
		}
		// lost the version race; reload and retry
	}
	return nil, apperrors.New(apperrors.KindUnavailable, "transcript is busy, retry the request")
}

// SetSummary overwrites the summary field only; the turn log is not
// touched.
func (dao *TranscriptDAO) SetSummary(ctx context.Context, sessionID int64, memberEmail, summary string) error {
	var res *gorm.DB
	err := withRetry(ctx, func() error {
		res = dao.DB.WithContext(ctx).
			Model(&models.Transcript{}).
			Where("session_id = ? AND member_email = ?", sessionID, memberEmail).
			Update("summary", summary)
		return res.Error
	})
	if err != nil {
		return err
	}
	if res.RowsAffected == 0 {
		return apperrors.New(apperrors.KindNotFound, "transcript not found")
	}
	return nil
}
