package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	SpeakerUser = "user"
	SpeakerAI   = "ai"

	// TurnTypeChat is the only turn type today; the tag is stored so
	// non-text turns can be added without a migration.
	TurnTypeChat = "chat"
)

// Turn is one speaker's message. Immutable once appended.
type Turn struct {
	Speaker   string `json:"speaker"`
	Text      string `json:"text"`
	Type      string `json:"type"`
	Timestamp int64  `json:"timestamp"` // unix milliseconds
}

func NewTurn(speaker, text string) Turn {
	return Turn{
		Speaker:   speaker,
		Text:      text,
		Type:      TurnTypeChat,
		Timestamp: time.Now().UnixMilli(),
	}
}

// TurnLog is the jsonb turn container. It always marshals to a
// well-formed object with a content array, never null.
type TurnLog struct {
	Content []Turn `json:"content"`
}

func (l TurnLog) Value() (driver.Value, error) {
	if l.Content == nil {
		l.Content = []Turn{}
	}
	return json.Marshal(l)
}

func (l *TurnLog) Scan(value interface{}) error {
	if value == nil {
		l.Content = []Turn{}
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported turn log column type %T", value)
	}
	if err := json.Unmarshal(data, l); err != nil {
		return err
	}
	if l.Content == nil {
		l.Content = []Turn{}
	}
	return nil
}

// Transcript is the one-row-per-(session, member) message log. The
// composite unique index is the mutual-exclusion point for appends.
type Transcript struct {
	ID          uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	SessionID   int64     `json:"session_id" gorm:"not null;uniqueIndex:idx_transcripts_pair"`
	MemberEmail string    `json:"member_email" gorm:"type:varchar(255);not null;uniqueIndex:idx_transcripts_pair"`
	MsgData     TurnLog   `json:"msg_data" gorm:"type:jsonb;not null"`
	Summary     *string   `json:"summary" gorm:"type:text"`
	Version     int64     `json:"-" gorm:"not null;default:0"`
	CreatedAt   time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt   time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

func (Transcript) TableName() string {
	return "transcripts"
}

func (t *Transcript) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}
