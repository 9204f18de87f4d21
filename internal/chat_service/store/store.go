// Package store persists users, chat history, and support tickets in the
// relational database.
package store

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"smartchat/internal/models"
)

// Store wraps the shared gorm handle.
type Store struct {
	DB *gorm.DB
}

// New creates a Store.
func New(db *gorm.DB) *Store {
	return &Store{DB: db}
}

// Migrate creates or updates the backing tables.
func (s *Store) Migrate() error {
	return s.DB.AutoMigrate(&models.User{}, &models.ChatMessage{}, &models.SupportTicket{})
}

// CreateOrGetUser returns the user with the given email, creating it when
// missing and touching last_active when it already exists.
func (s *Store) CreateOrGetUser(ctx context.Context, name, email string) (*models.User, error) {
	var user models.User
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("email = ?", email).First(&user).Error
		if err == nil {
			user.LastActive = time.Now().UTC()
			return tx.Model(&user).Update("last_active", user.LastActive).Error
		}
		if err != gorm.ErrRecordNotFound {
			return err
		}
		user = models.User{Name: name, Email: email, LastActive: time.Now().UTC()}
		return tx.Create(&user).Error
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create or fetch user: %w", err)
	}
	return &user, nil
}

// GetUser returns a user by id.
func (s *Store) GetUser(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := s.DB.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// SaveExchange records one resolved question/answer pair and touches the
// user's last_active timestamp.
func (s *Store) SaveExchange(ctx context.Context, userID uint, question, answer string, source models.AnswerSource) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		msg := models.ChatMessage{
			UserID:   userID,
			Question: question,
			Answer:   answer,
			Source:   source,
		}
		if err := tx.Create(&msg).Error; err != nil {
			return fmt.Errorf("failed to save chat message: %w", err)
		}
		return tx.Model(&models.User{}).
			Where("id = ?", userID).
			Update("last_active", time.Now().UTC()).Error
	})
}

// UserHistory returns the user's most recent exchanges, newest first.
func (s *Store) UserHistory(ctx context.Context, userID uint, limit int) ([]models.ChatMessage, error) {
	var messages []models.ChatMessage
	err := s.DB.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("timestamp DESC").
		Limit(limit).
		Find(&messages).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load user history: %w", err)
	}
	return messages, nil
}

// Lead is a user together with how many questions they asked.
type Lead struct {
	models.User
	MessageCount int64 `json:"message_count"`
}

// Leads returns every registered user with their message counts.
func (s *Store) Leads(ctx context.Context) ([]Lead, error) {
	var users []models.User
	if err := s.DB.WithContext(ctx).Find(&users).Error; err != nil {
		return nil, fmt.Errorf("failed to load users: %w", err)
	}

	leads := make([]Lead, 0, len(users))
	for _, user := range users {
		var count int64
		if err := s.DB.WithContext(ctx).
			Model(&models.ChatMessage{}).
			Where("user_id = ?", user.ID).
			Count(&count).Error; err != nil {
			return nil, fmt.Errorf("failed to count messages for user %d: %w", user.ID, err)
		}
		leads = append(leads, Lead{User: user, MessageCount: count})
	}
	return leads, nil
}

// QuestionCount is one distinct question with its ask count.
type QuestionCount struct {
	Question string `json:"question"`
	Count    int64  `json:"count"`
}

// Analytics is the admin dashboard summary.
type Analytics struct {
	TotalUsers     int64                `json:"total_users"`
	TotalMessages  int64                `json:"total_messages"`
	TopQuestions   []QuestionCount      `json:"top_questions"`
	RecentActivity []models.ChatMessage `json:"recent_activity"`
}

// GetAnalytics computes totals, the ten most asked questions, and the ten
// most recent exchanges.
func (s *Store) GetAnalytics(ctx context.Context) (*Analytics, error) {
	a := &Analytics{}

	if err := s.DB.WithContext(ctx).Model(&models.User{}).Count(&a.TotalUsers).Error; err != nil {
		return nil, fmt.Errorf("failed to count users: %w", err)
	}
	if err := s.DB.WithContext(ctx).Model(&models.ChatMessage{}).Count(&a.TotalMessages).Error; err != nil {
		return nil, fmt.Errorf("failed to count messages: %w", err)
	}

	err := s.DB.WithContext(ctx).
		Model(&models.ChatMessage{}).
		Select("question, COUNT(question) AS count").
		Group("question").
		Order("count DESC").
		Limit(10).
		Scan(&a.TopQuestions).Error
	if err != nil {
		return nil, fmt.Errorf("failed to compute top questions: %w", err)
	}

	err = s.DB.WithContext(ctx).
		Order("timestamp DESC").
		Limit(10).
		Find(&a.RecentActivity).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load recent activity: %w", err)
	}
	return a, nil
}

// CreateTicket opens a support ticket for the given user.
func (s *Store) CreateTicket(ctx context.Context, userID uint, subject, message string) (*models.SupportTicket, error) {
	ticket := models.SupportTicket{
		UserID:  userID,
		Subject: subject,
		Message: message,
		Status:  models.TicketOpen,
	}
	if err := s.DB.WithContext(ctx).Create(&ticket).Error; err != nil {
		return nil, fmt.Errorf("failed to create support ticket: %w", err)
	}
	return &ticket, nil
}
