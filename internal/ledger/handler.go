package ledger

import (
	"net/http"
	"time"

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

// GetHistory godoc
// @Summary      Recent reward history
// @Description  Returns the authenticated user's accepted reward events from the last 24 hours.
// @Tags         rewards
// @Security     BearerAuth
// @Produce      json
// @Success      200  {array}   Entry
// @Failure      401  {object}  api.ErrorResponse
// @Failure      500  {object}  api.ErrorResponse
// @Router       /rewards/history [get]
func (h *Handler) GetHistory(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "User not authenticated"})
		return
	}

	since := time.Now().Add(-24 * time.Hour)
	entries, err := h.repo.RecentByUser(c.Request.Context(), userID, since)
	if err != nil {
		logger.Errorf("Failed to fetch reward history for user %d: %v", userID, err)
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Failed to fetch reward history"})
		return
	}

	if entries == nil {
		entries = []Entry{}
	}
	c.JSON(http.StatusOK, entries)
}
