package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tradegatehq/tradegate/internal/mailer"
	"github.com/tradegatehq/tradegate/pkg/errors"
	"github.com/tradegatehq/tradegate/pkg/response"
)

// EmailHandler forwards form submissions to the office inbox.
type EmailHandler struct {
	dispatcher *mailer.Dispatcher
}

// NewEmailHandler constructs an EmailHandler. A nil dispatcher disables the
// endpoint, which responds 404 in that case.
func NewEmailHandler(dispatcher *mailer.Dispatcher) *EmailHandler {
	return &EmailHandler{dispatcher: dispatcher}
}

type dispatchRequest struct {
	Type    string            `json:"type" validate:"required,oneof=quote catalog contact application partnership"`
	ReplyTo string            `json:"reply_to" validate:"omitempty,email"`
	Fields  map[string]string `json:"fields" validate:"required,min=1"`
}

// Dispatch sends one submission email and returns the generated message id.
func (h *EmailHandler) Dispatch(c *gin.Context) {
	if h.dispatcher == nil {
		response.Error(c, errors.ErrNotFound)
		return
	}

	var req dispatchRequest
	if !bindAndValidate(c, &req) {
		return
	}

	id, err := h.dispatcher.Dispatch(requestContext(c), mailer.DispatchInput{
		Kind:    req.Type,
		ReplyTo: req.ReplyTo,
		Fields:  req.Fields,
	})
	if err != nil {
		response.Error(c, errors.Wrap(err, "email dispatch failed"))
		return
	}

	response.Success(c, http.StatusOK, gin.H{"message_id": id})
}
