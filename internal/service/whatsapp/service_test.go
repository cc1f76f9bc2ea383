package whatsapp

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/packhouse/internal/config"
	client "github.com/mamadbah2/packhouse/pkg/clients/whatsapp"
)

type fakeClient struct {
	sent []client.SendTextMessageRequest
}

func (f *fakeClient) SendTextMessage(_ context.Context, req client.SendTextMessageRequest) (*client.SendTextMessageResponse, error) {
	f.sent = append(f.sent, req)
	return &client.SendTextMessageResponse{}, nil
}

func TestNotifyManager(t *testing.T) {
	fc := &fakeClient{}
	svc := NewMetaWhatsAppService(config.WhatsAppConfig{ManagerID: "5214521111111"}, fc, nil)

	require.NoError(t, svc.NotifyManager(context.Background(), "Resumen semanal"))
	require.Len(t, fc.sent, 1)
	assert.Equal(t, "5214521111111", fc.sent[0].To)
	assert.Equal(t, "Resumen semanal", fc.sent[0].Body)

	unconfigured := NewMetaWhatsAppService(config.WhatsAppConfig{}, fc, nil)
	assert.ErrorIs(t, unconfigured.NotifyManager(context.Background(), "x"), ErrNoManager)
	assert.Len(t, fc.sent, 1)
}
