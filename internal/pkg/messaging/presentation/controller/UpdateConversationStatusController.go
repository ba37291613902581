package controller

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Slim-LARIBI/whatsapp-project/internal/pkg/messaging/application/usecase"
	messaging "github.com/Slim-LARIBI/whatsapp-project/internal/pkg/messaging/domain"
)

// UpdateConversationStatusController transitions a conversation's status.
type UpdateConversationStatusController struct {
	uc *usecase.UpdateConversationStatusUseCase
}

func NewUpdateConversationStatusController(uc *usecase.UpdateConversationStatusUseCase) *UpdateConversationStatusController {
	return &UpdateConversationStatusController{uc: uc}
}

type updateStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

func (ctl *UpdateConversationStatusController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		tenantID := c.GetHeader("X-Tenant-ID")
		if tenantID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "tenant header is required"})
			return
		}

		var req updateStatusRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "status is required"})
			return
		}

		err := ctl.uc.Execute(c.Request.Context(), usecase.UpdateConversationStatusInput{
			TenantID:       tenantID,
			ConversationID: c.Param("conversationId"),
			Status:         messaging.ConversationStatus(req.Status),
		})
		switch {
		case err == nil:
			c.JSON(http.StatusOK, gin.H{"ok": true})
		case errors.Is(err, messaging.ErrConversationNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "conversation not found"})
		case errors.Is(err, usecase.ErrPersistence):
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		default:
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		}
	}
}
