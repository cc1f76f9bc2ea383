package whatsapp

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/packhouse/internal/config"
	"github.com/mamadbah2/packhouse/internal/domain/models"
	client "github.com/mamadbah2/packhouse/pkg/clients/whatsapp"
)

// ErrNoManager is returned when no manager number is configured.
var ErrNoManager = errors.New("whatsapp manager number is not configured")

// Notifier pushes text notifications out over WhatsApp.
type Notifier interface {
	SendOutbound(ctx context.Context, req models.OutboundMessageRequest) error
	NotifyManager(ctx context.Context, message string) error
}

// MetaWhatsAppService is the production Notifier backed by the WhatsApp Cloud API.
type MetaWhatsAppService struct {
	cfg    config.WhatsAppConfig
	client client.Client
	logger *zap.Logger
}

// NewMetaWhatsAppService wires a new service instance.
func NewMetaWhatsAppService(cfg config.WhatsAppConfig, client client.Client, logger *zap.Logger) *MetaWhatsAppService {
	svc := &MetaWhatsAppService{
		cfg:    cfg,
		client: client,
		logger: logger,
	}
	if svc.logger == nil {
		svc.logger = zap.NewNop()
	}
	return svc
}

// SendOutbound sends one text message.
func (s *MetaWhatsAppService) SendOutbound(ctx context.Context, req models.OutboundMessageRequest) error {
	ctxWithTimeout, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	resp, err := s.client.SendTextMessage(ctxWithTimeout, client.SendTextMessageRequest{
		To:         req.To,
		Body:       req.Message,
		PreviewURL: req.PreviewURL,
	})
	if err != nil {
		return err
	}

	if len(resp.Messages) > 0 {
		s.logger.Debug("whatsapp message accepted", zap.String("message_id", resp.Messages[0].ID))
	}
	return nil
}

// NotifyManager sends a message to the configured manager number.
func (s *MetaWhatsAppService) NotifyManager(ctx context.Context, message string) error {
	if s.cfg.ManagerID == "" {
		return ErrNoManager
	}
	return s.SendOutbound(ctx, models.OutboundMessageRequest{To: s.cfg.ManagerID, Message: message})
}
