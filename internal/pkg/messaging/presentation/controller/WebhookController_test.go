package controller

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/Slim-LARIBI/whatsapp-project/internal/pkg/messaging/application/usecase"
)

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func webhookRouter(verifyToken, appSecret string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	// The event payload used below short-circuits before touching any
	// collaborator, so the pipeline can stay unwired here.
	uc := &usecase.ProcessWebhookUseCase{Log: quietLogger()}
	ctl := NewWebhookController(uc, verifyToken, appSecret, quietLogger())

	r := gin.New()
	r.GET("/webhooks/whatsapp", ctl.HandleVerify())
	r.POST("/webhooks/whatsapp", ctl.HandleReceive())
	return r
}

func sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

func TestWebhookVerify_EchoesChallenge(t *testing.T) {
	r := webhookRouter("my-verify-token", "")

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet,
		"/webhooks/whatsapp?hub.mode=subscribe&hub.verify_token=my-verify-token&hub.challenge=1158201444", nil)
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "1158201444", w.Body.String())
}

func TestWebhookVerify_RejectsWrongToken(t *testing.T) {
	r := webhookRouter("my-verify-token", "")

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet,
		"/webhooks/whatsapp?hub.mode=subscribe&hub.verify_token=guess&hub.challenge=1158201444", nil)
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusForbidden, w.Code)
}

func TestWebhookReceive_RejectsBadSignature(t *testing.T) {
	r := webhookRouter("", "app-secret")
	body := `{"object":"page"}`

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/webhooks/whatsapp", strings.NewReader(body))
	req.Header.Set("X-Hub-Signature-256", "sha256=deadbeef")
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestWebhookReceive_RejectsMissingSignature(t *testing.T) {
	r := webhookRouter("", "app-secret")

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/webhooks/whatsapp", strings.NewReader(`{"object":"page"}`))
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestWebhookReceive_AcceptsValidSignature(t *testing.T) {
	r := webhookRouter("", "app-secret")
	body := `{"object":"page"}`

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/webhooks/whatsapp", strings.NewReader(body))
	req.Header.Set("X-Hub-Signature-256", sign("app-secret", []byte(body)))
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "OK", w.Body.String())
}

func TestWebhookReceive_EmptySecretSkipsVerification(t *testing.T) {
	r := webhookRouter("", "")

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/webhooks/whatsapp", strings.NewReader(`{"object":"page"}`))
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
}

func TestWebhookReceive_RejectsMalformedJSON(t *testing.T) {
	r := webhookRouter("", "")

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/webhooks/whatsapp", strings.NewReader("{nope"))
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)
}
