package models

import "time"

// AnswerSource tags where a chat answer came from.
type AnswerSource string

const (
	SourceStatic    AnswerSource = "static"    // curated question table
	SourceGenerated AnswerSource = "generated" // grounded LLM completion
)

// TicketStatus is the lifecycle state of a support ticket.
type TicketStatus string

const (
	TicketOpen   TicketStatus = "open"
	TicketClosed TicketStatus = "closed"
)

// User is a registered chat visitor. Every user doubles as a sales lead.
type User struct {
	ID         uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Name       string    `gorm:"size:255;not null" json:"name"`
	Email      string    `gorm:"size:255;uniqueIndex;not null" json:"email"`
	CreatedAt  time.Time `json:"created_at"`
	LastActive time.Time `json:"last_active"`

	Messages []ChatMessage `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}

// ChatMessage is one resolved question/answer exchange.
type ChatMessage struct {
	ID        uint         `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    uint         `gorm:"index;not null" json:"user_id"`
	Question  string       `gorm:"type:text;not null" json:"question"`
	Answer    string       `gorm:"type:text;not null" json:"answer"`
	Source    AnswerSource `gorm:"size:50" json:"source"`
	Timestamp time.Time    `gorm:"autoCreateTime;index" json:"timestamp"`
}

// SupportTicket is an escalation raised by a user for human follow-up.
type SupportTicket struct {
	ID        uint         `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    uint         `gorm:"index;not null" json:"user_id"`
	Subject   string       `gorm:"size:255;not null" json:"subject"`
	Message   string       `gorm:"type:text;not null" json:"message"`
	Status    TicketStatus `gorm:"size:20;default:'open'" json:"status"`
	CreatedAt time.Time    `json:"created_at"`
}
