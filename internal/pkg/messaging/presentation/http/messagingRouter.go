package http

import (
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/Slim-LARIBI/whatsapp-project/internal/infrastructure/realtime"
	"github.com/Slim-LARIBI/whatsapp-project/internal/pkg/messaging/application/usecase"
	"github.com/Slim-LARIBI/whatsapp-project/internal/pkg/messaging/presentation/controller"
)

// Deps carries everything the messaging endpoints need. Controllers are
// constructed here and bound directly to routes.
type Deps struct {
	ProcessWebhook *usecase.ProcessWebhookUseCase
	SendReply      *usecase.SendAgentReplyUseCase
	Assign         *usecase.AssignConversationUseCase
	UpdateStatus   *usecase.UpdateConversationStatusUseCase
	Hub            *realtime.Hub

	VerifyToken string
	AppSecret   string
	Log         *logrus.Logger
}

// RegisterRoutes mounts the messaging HTTP surface under the given group.
func RegisterRoutes(g *gin.RouterGroup, d Deps) {
	webhookCtl := controller.NewWebhookController(d.ProcessWebhook, d.VerifyToken, d.AppSecret, d.Log)
	replyCtl := controller.NewSendReplyController(d.SendReply)
	assignCtl := controller.NewAssignConversationController(d.Assign)
	statusCtl := controller.NewUpdateConversationStatusController(d.UpdateStatus)
	socketCtl := controller.NewInboxSocketController(d.Hub)

	// GET  /api/v1/webhooks/whatsapp -> provider endpoint verification
	// POST /api/v1/webhooks/whatsapp -> signed event delivery
	g.GET("/webhooks/whatsapp", webhookCtl.HandleVerify())
	g.POST("/webhooks/whatsapp", webhookCtl.HandleReceive())

	// POST  /api/v1/conversations/:conversationId/messages -> agent reply
	// PATCH /api/v1/conversations/:conversationId/assignee -> assign / unassign
	// PATCH /api/v1/conversations/:conversationId/status   -> lifecycle change
	g.POST("/conversations/:conversationId/messages", replyCtl.Handle())
	g.PATCH("/conversations/:conversationId/assignee", assignCtl.Handle())
	g.PATCH("/conversations/:conversationId/status", statusCtl.Handle())

	// GET /api/v1/inbox/ws -> websocket endpoint for realtime inbox events
	g.GET("/inbox/ws", socketCtl.Handle())
}
