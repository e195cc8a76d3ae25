package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/tradegatehq/tradegate/internal/feed"
	"github.com/tradegatehq/tradegate/internal/middleware"
	"github.com/tradegatehq/tradegate/internal/services"
	"github.com/tradegatehq/tradegate/pkg/errors"
	"github.com/tradegatehq/tradegate/pkg/response"
)

// QuoteHandler exposes quote request endpoints for clients and back office.
type QuoteHandler struct {
	quotes *services.QuoteService
}

// NewQuoteHandler constructs a QuoteHandler.
func NewQuoteHandler(db *gorm.DB, bus *feed.Bus) (*QuoteHandler, error) {
	quotes, err := services.NewQuoteService(db, bus)
	if err != nil {
		return nil, err
	}
	return &QuoteHandler{quotes: quotes}, nil
}

type createQuoteRequest struct {
	ProductID   string `json:"product_id" validate:"omitempty,uuid4"`
	ProductName string `json:"product_name" validate:"required,min=1,max=255"`
	Quantity    int    `json:"quantity" validate:"omitempty,min=1"`
	Message     string `json:"message" validate:"max=4000"`
}

// Create submits a new quote request for the authenticated user.
func (h *QuoteHandler) Create(c *gin.Context) {
	userID := currentUserID(c)
	if userID == "" {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	var req createQuoteRequest
	if !bindAndValidate(c, &req) {
		return
	}

	quote, err := h.quotes.Create(requestContext(c), services.CreateQuoteInput{
		UserID:      userID,
		ProductID:   req.ProductID,
		ProductName: req.ProductName,
		Quantity:    req.Quantity,
		Message:     req.Message,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusCreated, quote)
}

// ListMine returns the authenticated user's quote requests.
func (h *QuoteHandler) ListMine(c *gin.Context) {
	userID := currentUserID(c)
	if userID == "" {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	quotes, err := h.quotes.ListForUser(requestContext(c), userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, quotes)
}

// Get returns one quote request. Users see only their own; admins see all.
func (h *QuoteHandler) Get(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	quote, err := h.quotes.GetByID(requestContext(c), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	if !c.GetBool(middleware.CtxIsAdminKey) && quote.UserID != currentUserID(c) {
		response.Error(c, errors.ErrNotFound)
		return
	}

	response.Success(c, http.StatusOK, quote)
}

// ListAll returns every quote request. Admin only.
func (h *QuoteHandler) ListAll(c *gin.Context) {
	quotes, err := h.quotes.ListAll(requestContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, quotes)
}

type respondQuoteRequest struct {
	Status        *string `json:"status" validate:"omitempty,min=1,max=64"`
	AdminResponse *string `json:"admin_response" validate:"omitempty,max=4000"`
}

// Respond applies an admin status change and written response.
func (h *QuoteHandler) Respond(c *gin.Context) {
	var req respondQuoteRequest
	if !bindAndValidate(c, &req) {
		return
	}

	quote, err := h.quotes.Respond(requestContext(c), strings.TrimSpace(c.Param("id")), services.RespondQuoteInput{
		Status:        req.Status,
		AdminResponse: req.AdminResponse,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, quote)
}

// Delete removes a quote request. Admin only.
func (h *QuoteHandler) Delete(c *gin.Context) {
	if err := h.quotes.Delete(requestContext(c), strings.TrimSpace(c.Param("id"))); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"deleted": true})
}
