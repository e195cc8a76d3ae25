package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/tradegatehq/tradegate/internal/feed"
	"github.com/tradegatehq/tradegate/internal/services"
	"github.com/tradegatehq/tradegate/pkg/response"
)

// ContactHandler exposes contact form endpoints.
type ContactHandler struct {
	contacts *services.ContactService
}

// NewContactHandler constructs a ContactHandler.
func NewContactHandler(db *gorm.DB, bus *feed.Bus) (*ContactHandler, error) {
	contacts, err := services.NewContactService(db, bus)
	if err != nil {
		return nil, err
	}
	return &ContactHandler{contacts: contacts}, nil
}

type createContactRequest struct {
	Name    string `json:"name" validate:"required,min=1,max=255"`
	Email   string `json:"email" validate:"required,email"`
	Subject string `json:"subject" validate:"max=255"`
	Message string `json:"message" validate:"required,min=1,max=8000"`
}

// Create submits a contact message. Public endpoint.
func (h *ContactHandler) Create(c *gin.Context) {
	var req createContactRequest
	if !bindAndValidate(c, &req) {
		return
	}

	submission, err := h.contacts.Create(requestContext(c), services.CreateContactInput{
		Name:    req.Name,
		Email:   req.Email,
		Subject: req.Subject,
		Message: req.Message,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusCreated, submission)
}

// ListAll returns every submission. Admin only.
func (h *ContactHandler) ListAll(c *gin.Context) {
	submissions, err := h.contacts.ListAll(requestContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, submissions)
}

// Review applies an admin status change and notes. Admin only.
func (h *ContactHandler) Review(c *gin.Context) {
	var req reviewRequest
	if !bindAndValidate(c, &req) {
		return
	}

	submission, err := h.contacts.Review(requestContext(c), strings.TrimSpace(c.Param("id")), services.ReviewInput{
		Status:     req.Status,
		AdminNotes: req.AdminNotes,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, submission)
}

// Delete removes a submission. Admin only.
func (h *ContactHandler) Delete(c *gin.Context) {
	if err := h.contacts.Delete(requestContext(c), strings.TrimSpace(c.Param("id"))); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"deleted": true})
}
