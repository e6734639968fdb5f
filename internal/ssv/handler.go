package ssv

import (
	"errors"
	"net/http"

	"adgate/internal/api"
	"adgate/internal/logger"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type callbackRequest struct {
	UserID        int    `form:"user_id" binding:"required"`
	TransactionID string `form:"ad_network_transaction_id" binding:"required"`
	RewardAmount  int64  `form:"reward_amount" binding:"required,gt=0"`
	RewardItem    string `form:"reward_item" binding:"required,oneof=token retry"`
	Provider      string `form:"provider" binding:"required"`
	Signature     string `form:"signature" binding:"required"`
	KeyID         int64  `form:"key_id" binding:"required"`
}

// HandleCallback godoc
// @Summary      Ad completion callback
// @Description  Webhook endpoint for provider server-side verification callbacks. Returns 200 for both first deliveries and duplicates; providers deliver at least once.
// @Tags         ssv
// @Produce      json
// @Param        user_id                    query  int     true  "User id"
// @Param        ad_network_transaction_id  query  string  true  "Provider transaction id"
// @Param        reward_amount              query  int     true  "Reward amount"
// @Param        reward_item                query  string  true  "token or retry"
// @Param        provider                   query  string  true  "Provider name"
// @Param        signature                  query  string  true  "Payload signature"
// @Param        key_id                     query  int     true  "Signing key id"
// @Success      200  {object}  api.CallbackResponse
// @Failure      400  {object}  api.ErrorResponse
// @Failure      401  {object}  api.ErrorResponse
// @Failure      503  {object}  api.ErrorResponse
// @Router       /ssv/callback [get]
func (h *Handler) HandleCallback(c *gin.Context) {
	var req callbackRequest
	var err error
	if c.Request.Method == http.MethodGet {
		err = c.ShouldBindQuery(&req)
	} else {
		err = c.ShouldBind(&req)
	}
	if err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
		return
	}

	cb := Callback{
		Payload: Payload{
			UserID:        req.UserID,
			TransactionID: req.TransactionID,
			RewardItem:    req.RewardItem,
			RewardAmount:  req.RewardAmount,
			Provider:      req.Provider,
		},
		Signature: req.Signature,
		KeyID:     req.KeyID,
	}

	status, err := h.service.HandleCompletion(c.Request.Context(), cb)
	if err != nil {
		if errors.Is(err, ErrInvalidSignature) {
			c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "invalid_signature"})
			return
		}
		// Transient: non-2xx tells the provider to redeliver, which the
		// transaction_id constraint makes safe.
		logger.Errorf("Callback processing failed for tx %s: %v", req.TransactionID, err)
		c.JSON(http.StatusServiceUnavailable, api.ErrorResponse{Error: "temporarily unavailable"})
		return
	}

	c.JSON(http.StatusOK, api.CallbackResponse{Status: string(status)})
}
