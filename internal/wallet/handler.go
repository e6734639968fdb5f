package wallet

import (
	"errors"
	"net/http"

	"adgate/internal/api"
	"adgate/internal/auth"
	"adgate/internal/logger"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
)

type Handler struct {
	repo Repository
}

func NewHandler(db *sqlx.DB) *Handler {
	return &Handler{repo: NewRepository(db)}
}

// GetBalance godoc
// @Summary      Get wallet balance
// @Description  Returns the authenticated user's balance and lifetime earned total.
// @Tags         wallet
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  api.BalanceResponse
// @Failure      401  {object}  api.ErrorResponse
// @Failure      500  {object}  api.ErrorResponse
// @Router       /wallet [get]
func (h *Handler) GetBalance(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "User not authenticated"})
		return
	}

	w, err := h.repo.GetByUserID(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, ErrWalletNotFound) {
			// No credits yet reads as an empty wallet, not an error.
			c.JSON(http.StatusOK, api.BalanceResponse{UserID: userID})
			return
		}
		logger.Errorf("Failed to fetch wallet for user %d: %v", userID, err)
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Failed to fetch wallet"})
		return
	}

	c.JSON(http.StatusOK, api.BalanceResponse{
		UserID:      w.UserID,
		Balance:     w.Balance,
		TotalEarned: w.TotalEarned,
	})
}
