package telegram

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"leadintake_backend/internal/transport"
	"leadintake_backend/platform/logger"
)

const secretTokenHeader = "X-Telegram-Bot-Api-Secret-Token"

// WebhookServer receives Bot API updates over HTTPS instead of polling.
// Updates funnel into the same event channel the poller would use, so the
// engine's serial dispatch is preserved regardless of transport mode.
type WebhookServer struct {
	client *Client
	secret string
	addr   string
	out    chan<- transport.Event
	log    *logger.Logger
}

// NewWebhookServer creates the webhook receiver.
func NewWebhookServer(client *Client, addr, secret string, out chan<- transport.Event, log *logger.Logger) *WebhookServer {
	return &WebhookServer{
		client: client,
		secret: secret,
		addr:   addr,
		out:    out,
		log:    log,
	}
}

// Run serves the webhook endpoint until the context ends.
func (s *WebhookServer) Run(ctx context.Context) error {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.POST("/telegram/webhook", s.handleUpdate)

	srv := &http.Server{
		Addr:              s.addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	s.log.Info("webhook server listening", "addr", s.addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *WebhookServer) handleUpdate(c *gin.Context) {
	if c.GetHeader(secretTokenHeader) != s.secret {
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	var update Update
	if err := c.ShouldBindJSON(&update); err != nil {
		c.AbortWithStatus(http.StatusBadRequest)
		return
	}

	event, ok, err := s.client.EventFromUpdate(c.Request.Context(), update)
	if err != nil {
		s.log.Warn("failed to convert webhook update", "update_id", update.UpdateID, "error", err)
		// Acknowledge anyway; Telegram retries otherwise and the update
		// would still fail the same way.
		c.Status(http.StatusOK)
		return
	}
	if ok {
		select {
		case s.out <- event:
		case <-c.Request.Context().Done():
		}
	}
	c.Status(http.StatusOK)
}
