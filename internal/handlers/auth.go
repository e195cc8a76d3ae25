package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	iauth "github.com/tradegatehq/tradegate/internal/auth"
	"github.com/tradegatehq/tradegate/internal/services"
	"github.com/tradegatehq/tradegate/pkg/errors"
	"github.com/tradegatehq/tradegate/pkg/response"
)

// AuthHandler exposes registration, login and profile endpoints.
type AuthHandler struct {
	users *services.UserService
	jwt   *iauth.JWTService
}

// NewAuthHandler constructs an AuthHandler.
func NewAuthHandler(db *gorm.DB, jwt *iauth.JWTService) (*AuthHandler, error) {
	users, err := services.NewUserService(db)
	if err != nil {
		return nil, err
	}
	return &AuthHandler{users: users, jwt: jwt}, nil
}

type registerRequest struct {
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required,min=8"`
	Name        string `json:"name" validate:"required,min=1,max=255"`
	Company     string `json:"company" validate:"max=255"`
	Phone       string `json:"phone" validate:"max=64"`
	AccountType string `json:"account_type" validate:"omitempty,oneof=client manufacturer"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type sessionResponse struct {
	Token string            `json:"token"`
	User  *services.UserDTO `json:"user"`
}

// Register creates an account and returns a signed session token.
func (h *AuthHandler) Register(c *gin.Context) {
	var req registerRequest
	if !bindAndValidate(c, &req) {
		return
	}

	user, err := h.users.Register(requestContext(c), services.RegisterInput{
		Email:       req.Email,
		Password:    req.Password,
		Name:        req.Name,
		Company:     req.Company,
		Phone:       req.Phone,
		AccountType: req.AccountType,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	token, err := h.issueToken(user)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusCreated, sessionResponse{Token: token, User: user})
}

// Login verifies credentials and returns a signed session token.
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if !bindAndValidate(c, &req) {
		return
	}

	user, err := h.users.Authenticate(requestContext(c), req.Email, req.Password)
	if err != nil {
		response.Error(c, err)
		return
	}

	token, err := h.issueToken(user)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, sessionResponse{Token: token, User: user})
}

// Me returns the authenticated user's profile.
func (h *AuthHandler) Me(c *gin.Context) {
	userID := currentUserID(c)
	if userID == "" {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	user, err := h.users.GetByID(requestContext(c), userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, user)
}

type updateProfileRequest struct {
	Name    *string `json:"name" validate:"omitempty,min=1,max=255"`
	Company *string `json:"company" validate:"omitempty,max=255"`
	Phone   *string `json:"phone" validate:"omitempty,max=64"`
}

// UpdateProfile applies partial profile changes for the authenticated user.
func (h *AuthHandler) UpdateProfile(c *gin.Context) {
	userID := currentUserID(c)
	if userID == "" {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	var req updateProfileRequest
	if !bindAndValidate(c, &req) {
		return
	}

	user, err := h.users.UpdateProfile(requestContext(c), userID, services.UpdateProfileInput{
		Name:    req.Name,
		Company: req.Company,
		Phone:   req.Phone,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, user)
}

func (h *AuthHandler) issueToken(user *services.UserDTO) (string, error) {
	return h.jwt.GenerateAccessToken(iauth.AccessTokenInput{
		UserID:  user.ID,
		Email:   user.Email,
		IsAdmin: user.IsAdmin,
	})
}
