package controller

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/Slim-LARIBI/whatsapp-project/internal/pkg/messaging/application/usecase"
	messaging "github.com/Slim-LARIBI/whatsapp-project/internal/pkg/messaging/domain"
)

// WebhookController terminates the provider's webhook: the GET verification
// challenge and the POST event feed. The provider expects a fast 200, so the
// POST handler acknowledges right after signature check and parse, and the
// pipeline runs in a detached goroutine.
type WebhookController struct {
	uc          *usecase.ProcessWebhookUseCase
	verifyToken string
	appSecret   string
	log         *logrus.Logger

	processTimeout time.Duration
}

func NewWebhookController(uc *usecase.ProcessWebhookUseCase, verifyToken, appSecret string, log *logrus.Logger) *WebhookController {
	return &WebhookController{
		uc:             uc,
		verifyToken:    verifyToken,
		appSecret:      appSecret,
		log:            log,
		processTimeout: 60 * time.Second,
	}
}

// HandleVerify answers the provider's challenge-response subscription check.
func (ctl *WebhookController) HandleVerify() gin.HandlerFunc {
	return func(c *gin.Context) {
		mode := c.Query("hub.mode")
		token := c.Query("hub.verify_token")
		challenge := c.Query("hub.challenge")

		if mode == "subscribe" && token != "" && token == ctl.verifyToken {
			c.String(http.StatusOK, challenge)
			return
		}
		ctl.log.Warn("webhook verification failed")
		c.String(http.StatusForbidden, "Forbidden")
	}
}

// HandleReceive authenticates and acknowledges an event batch, then processes
// it asynchronously. Downstream failures never change the response: the
// provider treats anything but a timely 200 as a redelivery trigger.
func (ctl *WebhookController) HandleReceive() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, err := io.ReadAll(c.Request.Body)
		if err != nil {
			c.String(http.StatusBadRequest, "Bad Request")
			return
		}

		if !ctl.verifySignature(raw, c.GetHeader("X-Hub-Signature-256")) {
			ctl.log.Warn("invalid webhook signature")
			c.String(http.StatusUnauthorized, "Invalid signature")
			return
		}

		var payload messaging.WebhookPayload
		if err := json.Unmarshal(raw, &payload); err != nil {
			c.String(http.StatusBadRequest, "Bad Request")
			return
		}

		c.String(http.StatusOK, "OK")

		// Detached from the request context: the response is already on the
		// wire and processing must not die with the connection.
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), ctl.processTimeout)
			defer cancel()
			ctl.uc.Execute(ctx, &payload)
		}()
	}
}

// verifySignature checks the HMAC-SHA-256 of the raw body against the
// X-Hub-Signature-256 header in constant time. An unset app secret skips
// verification (dev convenience, logged once at startup by main).
func (ctl *WebhookController) verifySignature(raw []byte, header string) bool {
	if ctl.appSecret == "" {
		return true
	}
	if header == "" {
		return false
	}

	mac := hmac.New(sha256.New, []byte(ctl.appSecret))
	mac.Write(raw)
	expected := "sha256=" + hex.EncodeToString(mac.Sum(nil))

	return hmac.Equal([]byte(header), []byte(expected))
}
