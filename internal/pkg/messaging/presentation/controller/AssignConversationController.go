package controller

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Slim-LARIBI/whatsapp-project/internal/pkg/messaging/application/usecase"
	messaging "github.com/Slim-LARIBI/whatsapp-project/internal/pkg/messaging/domain"
)

// AssignConversationController assigns or unassigns a conversation.
type AssignConversationController struct {
	uc *usecase.AssignConversationUseCase
}

func NewAssignConversationController(uc *usecase.AssignConversationUseCase) *AssignConversationController {
	return &AssignConversationController{uc: uc}
}

type assignRequest struct {
	AgentID *string `json:"agent_id"` // null clears the assignment
}

func (ctl *AssignConversationController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		tenantID := c.GetHeader("X-Tenant-ID")
		if tenantID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "tenant header is required"})
			return
		}

		var req assignRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
			return
		}

		err := ctl.uc.Execute(c.Request.Context(), usecase.AssignConversationInput{
			TenantID:       tenantID,
			ConversationID: c.Param("conversationId"),
			AgentID:        req.AgentID,
		})
		switch {
		case err == nil:
			c.JSON(http.StatusOK, gin.H{"ok": true})
		case errors.Is(err, messaging.ErrConversationNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "conversation not found"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		}
	}
}
