// Package snapshot saves and restores the in-memory stores through GORM so an
// inbox survives a restart.
package snapshot

import (
	"context"
	"fmt"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/replyflow/inbox/internal/model"
)

// Supported drivers.
const (
	DriverSQLite = "sqlite"
	DriverMySQL  = "mysql"
)

// ConversationRow is the stored form of a conversation.
type ConversationRow struct {
	ID              int    `gorm:"primaryKey;autoIncrement:false"`
	CustomerName    string `gorm:"size:256;not null"`
	Platform        string `gorm:"size:32;index"`
	Status          string `gorm:"size:16;index"`
	Priority        int
	UnreadCount     int
	LastMessageTime *time.Time
	Messages        []MessageRow `gorm:"foreignKey:ConversationID;constraint:OnDelete:CASCADE"`
}

// TableName overrides the GORM default.
func (ConversationRow) TableName() string { return "conversations" }

// MessageRow is the stored form of one message in a thread.
type MessageRow struct {
	ConversationID int    `gorm:"primaryKey;autoIncrement:false"`
	ID             int    `gorm:"primaryKey;autoIncrement:false"`
	Position       int    `gorm:"not null"`
	Sender         string `gorm:"size:128"`
	Content        string `gorm:"type:text"`
	Sentiment      string `gorm:"size:16"`
	IsAISuggestion bool
	Timestamp      time.Time
}

// TableName overrides the GORM default.
func (MessageRow) TableName() string { return "messages" }

// TemplateRow is the stored form of a template.
type TemplateRow struct {
	ID        int      `gorm:"primaryKey;autoIncrement:false"`
	Title     string   `gorm:"size:256;not null"`
	Content   string   `gorm:"type:text"`
	Category  string   `gorm:"size:64;index"`
	Variables []string `gorm:"serializer:json"`
}

// TableName overrides the GORM default.
func (TemplateRow) TableName() string { return "templates" }

// Store reads and writes snapshots.
type Store struct {
	db *gorm.DB
}

// Open connects to the snapshot database and migrates the schema.
func Open(driver, dsn string) (*Store, error) {
	var dialector gorm.Dialector
	switch driver {
	case DriverSQLite, "":
		dialector = sqlite.Open(dsn)
	case DriverMySQL:
		dialector = mysql.Open(dsn)
	default:
		return nil, fmt.Errorf("snapshot: unknown driver %q", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("snapshot: connect %s: %w", driver, err)
	}
	return New(db)
}

// New wraps an existing connection and migrates the schema.
func New(db *gorm.DB) (*Store, error) {
	if err := db.AutoMigrate(&ConversationRow{}, &MessageRow{}, &TemplateRow{}); err != nil {
		return nil, fmt.Errorf("snapshot: migrate: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Save replaces the stored snapshot with the given records.
func (s *Store) Save(ctx context.Context, conversations []model.Conversation, templates []model.Template) error {
	convRows := make([]ConversationRow, 0, len(conversations))
	for _, c := range conversations {
		convRows = append(convRows, conversationRow(c))
	}
	tmplRows := make([]TemplateRow, 0, len(templates))
	for _, t := range templates {
		tmplRows = append(tmplRows, templateRow(t))
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, table := range []any{&MessageRow{}, &ConversationRow{}, &TemplateRow{}} {
			if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(table).Error; err != nil {
				return err
			}
		}
		if len(convRows) > 0 {
			if err := tx.Create(&convRows).Error; err != nil {
				return err
			}
		}
		if len(tmplRows) > 0 {
			if err := tx.Create(&tmplRows).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("snapshot: save: %w", err)
	}
	return nil
}

// Load returns the stored snapshot in ID order. An empty database yields
// empty slices.
func (s *Store) Load(ctx context.Context) ([]model.Conversation, []model.Template, error) {
	var convRows []ConversationRow
	err := s.db.WithContext(ctx).
		Preload("Messages", func(db *gorm.DB) *gorm.DB { return db.Order("position") }).
		Order("id").
		Find(&convRows).Error
	if err != nil {
		return nil, nil, fmt.Errorf("snapshot: load conversations: %w", err)
	}

	var tmplRows []TemplateRow
	if err := s.db.WithContext(ctx).Order("id").Find(&tmplRows).Error; err != nil {
		return nil, nil, fmt.Errorf("snapshot: load templates: %w", err)
	}

	conversations := make([]model.Conversation, 0, len(convRows))
	for _, r := range convRows {
		conversations = append(conversations, r.toModel())
	}
	templates := make([]model.Template, 0, len(tmplRows))
	for _, r := range tmplRows {
		templates = append(templates, r.toModel())
	}
	return conversations, templates, nil
}

// Empty reports whether no conversations or templates have been saved yet.
func (s *Store) Empty(ctx context.Context) (bool, error) {
	var convs, tmpls int64
	if err := s.db.WithContext(ctx).Model(&ConversationRow{}).Count(&convs).Error; err != nil {
		return false, fmt.Errorf("snapshot: count conversations: %w", err)
	}
	if err := s.db.WithContext(ctx).Model(&TemplateRow{}).Count(&tmpls).Error; err != nil {
		return false, fmt.Errorf("snapshot: count templates: %w", err)
	}
	return convs == 0 && tmpls == 0, nil
}

func conversationRow(c model.Conversation) ConversationRow {
	row := ConversationRow{
		ID:              c.ID,
		CustomerName:    c.CustomerName,
		Platform:        string(c.Platform),
		Status:          string(c.Status),
		Priority:        int(c.Priority),
		UnreadCount:     c.UnreadCount,
		LastMessageTime: c.LastMessageTime,
	}
	for i, m := range c.Messages {
		row.Messages = append(row.Messages, MessageRow{
			ConversationID: c.ID,
			ID:             m.ID,
			Position:       i,
			Sender:         m.Sender,
			Content:        m.Content,
			Sentiment:      string(m.Sentiment),
			IsAISuggestion: m.IsAISuggestion,
			Timestamp:      m.Timestamp,
		})
	}
	return row
}

func (r ConversationRow) toModel() model.Conversation {
	c := model.Conversation{
		ID:              r.ID,
		CustomerName:    r.CustomerName,
		Platform:        model.Platform(r.Platform),
		Status:          model.Status(r.Status),
		Priority:        model.Priority(r.Priority),
		UnreadCount:     r.UnreadCount,
		LastMessageTime: r.LastMessageTime,
	}
	for _, m := range r.Messages {
		c.Messages = append(c.Messages, model.Message{
			ID:             m.ID,
			Sender:         m.Sender,
			Content:        m.Content,
			Sentiment:      model.Sentiment(m.Sentiment),
			IsAISuggestion: m.IsAISuggestion,
			Timestamp:      m.Timestamp,
		})
	}
	return c
}

func templateRow(t model.Template) TemplateRow {
	return TemplateRow{
		ID:        t.ID,
		Title:     t.Title,
		Content:   t.Content,
		Category:  string(t.Category),
		Variables: t.Variables,
	}
}

func (r TemplateRow) toModel() model.Template {
	return model.Template{
		ID:        r.ID,
		Title:     r.Title,
		Content:   r.Content,
		Category:  model.Category(r.Category),
		Variables: r.Variables,
	}
}
