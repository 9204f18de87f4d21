package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"smartchat/internal/chat_service/service"
	"smartchat/internal/chat_service/store"
	"smartchat/internal/email"
	"smartchat/internal/llm"
	"smartchat/internal/models"
	"smartchat/pkg/logger"
)

// Handler bundles the collaborators behind every API endpoint.
type Handler struct {
	resolver    *service.Resolver
	store       *store.Store
	mailer      *email.Sender
	serviceName string
	refreshMax  int
}

// NewHandler creates a Handler.
func NewHandler(resolver *service.Resolver, st *store.Store, mailer *email.Sender, serviceName string, refreshMaxPages int) *Handler {
	return &Handler{
		resolver:    resolver,
		store:       st,
		mailer:      mailer,
		serviceName: serviceName,
		refreshMax:  refreshMaxPages,
	}
}

// requestLogger builds a logger with a fresh trace id for one request.
func (h *Handler) requestLogger(userID string) *logger.Logger {
	return logger.New(h.serviceName, uuid.NewString(), userID)
}

// requireStore rejects persistence endpoints when no relational store is
// configured.
func (h *Handler) requireStore(c *gin.Context) bool {
	if h.store == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"success": false, "error": "user persistence is not configured"})
		return false
	}
	return true
}

// ChatRequest is the body of POST /api/chat.
type ChatRequest struct {
	Message string `json:"message" binding:"required"`
	UserID  uint   `json:"user_id"`
}

// Chat resolves one user message through the full pipeline.
func (h *Handler) Chat(c *gin.Context) {
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "message is required"})
		return
	}

	log := h.requestLogger(strconv.FormatUint(uint64(req.UserID), 10))
	result, err := h.resolver.Resolve(c.Request.Context(), req.Message, req.UserID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEmptyMessage):
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "message is required"})
		case errors.Is(err, llm.ErrCompletion):
			log.WithError(err).Error("Completion service failed")
			c.JSON(http.StatusBadGateway, gin.H{"success": false, "error": "answer generation is temporarily unavailable"})
		default:
			log.WithError(err).Error("Chat resolution failed")
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "internal error"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"response": result.Answer,
		"source":   result.Source,
		"escalate": result.Escalate,
		"metadata": gin.H{
			"num_sources": len(result.Sources),
			"sources":     result.Sources,
		},
	})
}

// Questions lists the curated question table.
func (h *Handler) Questions(c *gin.Context) {
	entries := h.resolver.Questions()
	questions := make([]gin.H, 0, len(entries))
	for _, e := range entries {
		questions = append(questions, gin.H{"id": e.ID, "question": e.Question, "category": e.Category})
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "questions": questions})
}

// RegisterRequest is the body of POST /api/user/register.
type RegisterRequest struct {
	Name  string `json:"name" binding:"required"`
	Email string `json:"email" binding:"required,email"`
}

// RegisterUser creates a user or touches an existing one, returning the
// user's recent questions.
func (h *Handler) RegisterUser(c *gin.Context) {
	if !h.requireStore(c) {
		return
	}
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "name and email are required"})
		return
	}

	user, err := h.store.CreateOrGetUser(c.Request.Context(), req.Name, req.Email)
	if err != nil {
		h.requestLogger("").WithError(err).Error("User registration failed")
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "internal error"})
		return
	}

	history, err := h.store.UserHistory(c.Request.Context(), user.ID, 5)
	if err != nil {
		history = nil
	}

	c.JSON(http.StatusOK, gin.H{
		"success":          true,
		"user_id":          user.ID,
		"name":             user.Name,
		"email":            user.Email,
		"recent_questions": history,
	})
}

// UserHistory returns a user's recent exchanges, newest first.
func (h *Handler) UserHistory(c *gin.Context) {
	if !h.requireStore(c) {
		return
	}
	userID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid user id"})
		return
	}

	history, err := h.store.UserHistory(c.Request.Context(), uint(userID), 10)
	if err != nil {
		h.requestLogger(c.Param("id")).WithError(err).Error("Failed to load user history")
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "history": history})
}

// Scrape triggers a manual crawl-and-ingest refresh.
func (h *Handler) Scrape(c *gin.Context) {
	pages, chunks, err := h.resolver.ForceRefresh(c.Request.Context(), h.refreshMax)
	if err != nil {
		h.requestLogger("").WithError(err).Error("Manual refresh failed")
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": fmt.Sprintf("Scraped %d pages, added %d chunks to the content index", pages, chunks),
	})
}

// Stats reports index and question-table sizes.
func (h *Handler) Stats(c *gin.Context) {
	count, err := h.resolver.IndexSize(c.Request.Context())
	if err != nil {
		h.requestLogger("").WithError(err).Error("Failed to read index size")
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"stats": gin.H{
			"total_chunks":         count,
			"predefined_questions": h.resolver.QuestionCount(),
		},
	})
}

// Leads lists registered users with message counts for the admin dashboard.
func (h *Handler) Leads(c *gin.Context) {
	if !h.requireStore(c) {
		return
	}
	leads, err := h.store.Leads(c.Request.Context())
	if err != nil {
		h.requestLogger("").WithError(err).Error("Failed to load leads")
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "leads": leads})
}

// AdminStats returns the analytics summary for the admin dashboard.
func (h *Handler) AdminStats(c *gin.Context) {
	if !h.requireStore(c) {
		return
	}
	analytics, err := h.store.GetAnalytics(c.Request.Context())
	if err != nil {
		h.requestLogger("").WithError(err).Error("Failed to compute analytics")
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "stats": analytics})
}

// TicketRequest is the body of POST /api/tickets.
type TicketRequest struct {
	UserID  uint   `json:"user_id" binding:"required"`
	Subject string `json:"subject" binding:"required"`
	Message string `json:"message" binding:"required"`
}

// CreateTicket opens a support ticket and notifies the support inbox best
// effort.
func (h *Handler) CreateTicket(c *gin.Context) {
	if !h.requireStore(c) {
		return
	}
	var req TicketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "user_id, subject and message are required"})
		return
	}

	log := h.requestLogger(strconv.FormatUint(uint64(req.UserID), 10))
	user, err := h.store.GetUser(c.Request.Context(), req.UserID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "user not found"})
		return
	}

	ticket, err := h.store.CreateTicket(c.Request.Context(), req.UserID, req.Subject, req.Message)
	if err != nil {
		log.WithError(err).Error("Failed to create support ticket")
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "internal error"})
		return
	}

	emailSent := false
	if h.mailer != nil && h.mailer.Enabled() {
		if err := h.mailer.SendTicketNotification(user.Name, user.Email, req.Subject, req.Message, ticket.ID); err != nil {
			log.WithError(err).Warn("Ticket notification email failed")
		} else {
			emailSent = true
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"ticket_id":  ticket.ID,
		"status":     models.TicketOpen,
		"email_sent": emailSent,
	})
}

// Health is the liveness probe.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}
