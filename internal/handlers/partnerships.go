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

// PartnershipHandler exposes partnership proposal endpoints.
type PartnershipHandler struct {
	partnerships *services.PartnershipService
}

// NewPartnershipHandler constructs a PartnershipHandler.
func NewPartnershipHandler(db *gorm.DB, bus *feed.Bus) (*PartnershipHandler, error) {
	partnerships, err := services.NewPartnershipService(db, bus)
	if err != nil {
		return nil, err
	}
	return &PartnershipHandler{partnerships: partnerships}, nil
}

type createPartnershipRequest struct {
	Company  string `json:"company" validate:"required,min=1,max=255"`
	Email    string `json:"email" validate:"required,email"`
	Website  string `json:"website" validate:"omitempty,url,max=2048"`
	Proposal string `json:"proposal" validate:"required,min=1,max=8000"`
}

// Create submits a partnership proposal. Public endpoint.
func (h *PartnershipHandler) Create(c *gin.Context) {
	var req createPartnershipRequest
	if !bindAndValidate(c, &req) {
		return
	}

	partnership, err := h.partnerships.Create(requestContext(c), services.CreatePartnershipInput{
		Company:  req.Company,
		Email:    req.Email,
		Website:  req.Website,
		Proposal: req.Proposal,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusCreated, partnership)
}

// ListAll returns every proposal. Admin only.
func (h *PartnershipHandler) ListAll(c *gin.Context) {
	partnerships, err := h.partnerships.ListAll(requestContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, partnerships)
}

// Review applies an admin status change and notes. Admin only.
func (h *PartnershipHandler) Review(c *gin.Context) {
	var req reviewRequest
	if !bindAndValidate(c, &req) {
		return
	}

	partnership, err := h.partnerships.Review(requestContext(c), strings.TrimSpace(c.Param("id")), services.ReviewInput{
		Status:     req.Status,
		AdminNotes: req.AdminNotes,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, partnership)
}

// Delete removes a proposal. Admin only.
func (h *PartnershipHandler) Delete(c *gin.Context) {
	if err := h.partnerships.Delete(requestContext(c), strings.TrimSpace(c.Param("id"))); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"deleted": true})
}
