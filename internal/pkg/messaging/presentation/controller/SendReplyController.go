package controller

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Slim-LARIBI/whatsapp-project/internal/pkg/messaging/application/task"
	"github.com/Slim-LARIBI/whatsapp-project/internal/pkg/messaging/application/usecase"
	messaging "github.com/Slim-LARIBI/whatsapp-project/internal/pkg/messaging/domain"
	"github.com/Slim-LARIBI/whatsapp-project/internal/pkg/messaging/transport"
)

// SendReplyController handles an agent reply into a conversation. Rejections
// are specific: the agent is told the difference between an expired window, a
// missing conversation and an infrastructure failure.
type SendReplyController struct {
	uc *usecase.SendAgentReplyUseCase
}

func NewSendReplyController(uc *usecase.SendAgentReplyUseCase) *SendReplyController {
	return &SendReplyController{uc: uc}
}

type sendReplyRequest struct {
	Body     string `json:"body"`
	Template *struct {
		Name       string                        `json:"name"`
		Language   string                        `json:"language"`
		Components []transport.TemplateComponent `json:"components,omitempty"`
	} `json:"template,omitempty"`
}

func (ctl *SendReplyController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		tenantID := c.GetHeader("X-Tenant-ID")
		agentID := c.GetHeader("X-Agent-ID")
		if tenantID == "" || agentID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "tenant and agent headers are required"})
			return
		}

		var req sendReplyRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
			return
		}

		in := usecase.SendAgentReplyInput{
			TenantID:       tenantID,
			ConversationID: c.Param("conversationId"),
			AgentID:        agentID,
			Body:           req.Body,
		}
		if req.Template != nil {
			in.Template = &task.TemplateRef{
				Name:       req.Template.Name,
				Language:   req.Template.Language,
				Components: req.Template.Components,
			}
		}

		out, err := ctl.uc.Execute(c.Request.Context(), in)
		switch {
		case err == nil:
			c.JSON(http.StatusAccepted, gin.H{"ok": true, "messageId": out.MessageID})
		case errors.Is(err, messaging.ErrWindowExpired):
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"error": "24h window expired, use a template message",
				"code":  "window_expired",
			})
		case errors.Is(err, messaging.ErrConversationNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "conversation not found"})
		case errors.Is(err, messaging.ErrEmptyBody):
			c.JSON(http.StatusBadRequest, gin.H{"error": "body is required"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		}
	}
}
