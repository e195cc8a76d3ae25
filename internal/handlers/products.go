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

// ProductHandler exposes catalog browsing and admin catalog management.
type ProductHandler struct {
	products *services.ProductService
}

// NewProductHandler constructs a ProductHandler.
func NewProductHandler(db *gorm.DB, bus *feed.Bus) (*ProductHandler, error) {
	products, err := services.NewProductService(db, bus)
	if err != nil {
		return nil, err
	}
	return &ProductHandler{products: products}, nil
}

// List returns catalog items, filterable by category, status and search term.
func (h *ProductHandler) List(c *gin.Context) {
	products, err := h.products.List(requestContext(c), services.ListProductsInput{
		Category: c.Query("category"),
		Status:   c.Query("status"),
		Search:   c.Query("q"),
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, products)
}

// Get returns one catalog item.
func (h *ProductHandler) Get(c *gin.Context) {
	product, err := h.products.GetByID(requestContext(c), strings.TrimSpace(c.Param("id")))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, product)
}

type createProductRequest struct {
	Name        string         `json:"name" validate:"required,min=1,max=255"`
	Description string         `json:"description" validate:"max=8000"`
	Category    string         `json:"category" validate:"max=255"`
	Specs       map[string]any `json:"specs"`
	ImageURL    string         `json:"image_url" validate:"omitempty,url,max=2048"`
	Status      string         `json:"status" validate:"omitempty,min=1,max=64"`
}

// Create adds a catalog item. Admin only.
func (h *ProductHandler) Create(c *gin.Context) {
	var req createProductRequest
	if !bindAndValidate(c, &req) {
		return
	}

	product, err := h.products.Create(requestContext(c), services.CreateProductInput{
		Name:        req.Name,
		Description: req.Description,
		Category:    req.Category,
		Specs:       req.Specs,
		ImageURL:    req.ImageURL,
		Status:      req.Status,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusCreated, product)
}

type updateProductRequest struct {
	Name        *string        `json:"name" validate:"omitempty,min=1,max=255"`
	Description *string        `json:"description" validate:"omitempty,max=8000"`
	Category    *string        `json:"category" validate:"omitempty,max=255"`
	Specs       map[string]any `json:"specs"`
	ImageURL    *string        `json:"image_url" validate:"omitempty,url,max=2048"`
	Status      *string        `json:"status" validate:"omitempty,min=1,max=64"`
}

// Update applies partial changes to a catalog item. Admin only.
func (h *ProductHandler) Update(c *gin.Context) {
	var req updateProductRequest
	if !bindAndValidate(c, &req) {
		return
	}

	product, err := h.products.Update(requestContext(c), strings.TrimSpace(c.Param("id")), services.UpdateProductInput{
		Name:        req.Name,
		Description: req.Description,
		Category:    req.Category,
		Specs:       req.Specs,
		ImageURL:    req.ImageURL,
		Status:      req.Status,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, product)
}

// Delete removes a catalog item. Admin only.
func (h *ProductHandler) Delete(c *gin.Context) {
	if err := h.products.Delete(requestContext(c), strings.TrimSpace(c.Param("id"))); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"deleted": true})
}
