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

// ApplicationHandler exposes careers page endpoints.
type ApplicationHandler struct {
	applications *services.ApplicationService
}

// NewApplicationHandler constructs an ApplicationHandler.
func NewApplicationHandler(db *gorm.DB, bus *feed.Bus) (*ApplicationHandler, error) {
	applications, err := services.NewApplicationService(db, bus)
	if err != nil {
		return nil, err
	}
	return &ApplicationHandler{applications: applications}, nil
}

type createApplicationRequest struct {
	Name        string `json:"name" validate:"required,min=1,max=255"`
	Email       string `json:"email" validate:"required,email"`
	Position    string `json:"position" validate:"required,min=1,max=255"`
	ResumeURL   string `json:"resume_url" validate:"omitempty,url,max=2048"`
	CoverLetter string `json:"cover_letter" validate:"max=8000"`
}

// Create submits a job application. Public endpoint.
func (h *ApplicationHandler) Create(c *gin.Context) {
	var req createApplicationRequest
	if !bindAndValidate(c, &req) {
		return
	}

	application, err := h.applications.Create(requestContext(c), services.CreateApplicationInput{
		Name:        req.Name,
		Email:       req.Email,
		Position:    req.Position,
		ResumeURL:   req.ResumeURL,
		CoverLetter: req.CoverLetter,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusCreated, application)
}

// ListAll returns every application. Admin only.
func (h *ApplicationHandler) ListAll(c *gin.Context) {
	applications, err := h.applications.ListAll(requestContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, applications)
}

// Review applies an admin status change and notes. Admin only.
func (h *ApplicationHandler) Review(c *gin.Context) {
	var req reviewRequest
	if !bindAndValidate(c, &req) {
		return
	}

	application, err := h.applications.Review(requestContext(c), strings.TrimSpace(c.Param("id")), services.ReviewInput{
		Status:     req.Status,
		AdminNotes: req.AdminNotes,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, application)
}

// Delete removes an application. Admin only.
func (h *ApplicationHandler) Delete(c *gin.Context) {
	if err := h.applications.Delete(requestContext(c), strings.TrimSpace(c.Param("id"))); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"deleted": true})
}
