package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/tradegatehq/tradegate/internal/feed"
	"github.com/tradegatehq/tradegate/internal/services"
	"github.com/tradegatehq/tradegate/pkg/errors"
	"github.com/tradegatehq/tradegate/pkg/response"
)

// CatalogHandler exposes catalogue request endpoints. Creation is reachable
// both anonymously and with a session.
type CatalogHandler struct {
	catalog *services.CatalogService
}

// NewCatalogHandler constructs a CatalogHandler.
func NewCatalogHandler(db *gorm.DB, bus *feed.Bus) (*CatalogHandler, error) {
	catalog, err := services.NewCatalogService(db, bus)
	if err != nil {
		return nil, err
	}
	return &CatalogHandler{catalog: catalog}, nil
}

type createCatalogRequest struct {
	Company string `json:"company" validate:"required,min=1,max=255"`
	Email   string `json:"email" validate:"required,email"`
	Message string `json:"message" validate:"max=4000"`
}

// Create submits a catalogue request. The owner reference is attached only
// when the caller carries a session.
func (h *CatalogHandler) Create(c *gin.Context) {
	var req createCatalogRequest
	if !bindAndValidate(c, &req) {
		return
	}

	request, err := h.catalog.Create(requestContext(c), services.CreateCatalogRequestInput{
		UserID:  currentUserID(c),
		Company: req.Company,
		Email:   req.Email,
		Message: req.Message,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusCreated, request)
}

// ListMine returns the authenticated user's catalogue requests.
func (h *CatalogHandler) ListMine(c *gin.Context) {
	userID := currentUserID(c)
	if userID == "" {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	requests, err := h.catalog.ListForUser(requestContext(c), userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, requests)
}

// ListAll returns every catalogue request. Admin only.
func (h *CatalogHandler) ListAll(c *gin.Context) {
	requests, err := h.catalog.ListAll(requestContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, requests)
}

type reviewRequest struct {
	Status     *string `json:"status" validate:"omitempty,min=1,max=64"`
	AdminNotes *string `json:"admin_notes" validate:"omitempty,max=4000"`
}

// Review applies an admin status change and notes. Admin only.
func (h *CatalogHandler) Review(c *gin.Context) {
	var req reviewRequest
	if !bindAndValidate(c, &req) {
		return
	}

	request, err := h.catalog.Review(requestContext(c), strings.TrimSpace(c.Param("id")), services.ReviewInput{
		Status:     req.Status,
		AdminNotes: req.AdminNotes,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, request)
}

// Delete removes a catalogue request. Admin only.
func (h *CatalogHandler) Delete(c *gin.Context) {
	if err := h.catalog.Delete(requestContext(c), strings.TrimSpace(c.Param("id"))); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"deleted": true})
}
