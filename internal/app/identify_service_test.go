package app

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ecotrace/internal/identify"
)

type stubGateway struct {
	guide identify.DeviceGuide
	err   error

	gotImage []byte
	gotMIME  string
	called   bool
}

func (s *stubGateway) Identify(ctx context.Context, imageData []byte, mimeType string) (identify.DeviceGuide, error) {
	s.called = true
	s.gotImage = imageData
	s.gotMIME = mimeType
	return s.guide, s.err
}

func TestIdentifyService_DelegatesToGateway(t *testing.T) {
	gateway := &stubGateway{guide: identify.DeviceGuide{DeviceName: "Laptop", DeviceCO2: 300}}
	service := NewIdentifyService(gateway, 1<<20)

	guide, err := service.Identify(context.Background(), []byte("image-bytes"), "image/jpeg")

	require.NoError(t, err)
	assert.Equal(t, "Laptop", guide.DeviceName)
	assert.True(t, gateway.called)
	assert.Equal(t, []byte("image-bytes"), gateway.gotImage)
	assert.Equal(t, "image/jpeg", gateway.gotMIME)
}

func TestIdentifyService_RejectsEmptyImage(t *testing.T) {
	gateway := &stubGateway{}
	service := NewIdentifyService(gateway, 1<<20)

	_, err := service.Identify(context.Background(), nil, "image/jpeg")

	assert.ErrorIs(t, err, identify.ErrBadRequest)
	assert.False(t, gateway.called)
}

func TestIdentifyService_RejectsOversizedImage(t *testing.T) {
	gateway := &stubGateway{}
	service := NewIdentifyService(gateway, 16)

	_, err := service.Identify(context.Background(), bytes.Repeat([]byte("x"), 17), "image/jpeg")

	assert.ErrorIs(t, err, identify.ErrBadRequest)
	assert.False(t, gateway.called)
}

func TestIdentifyService_RejectsNonImageMIME(t *testing.T) {
	gateway := &stubGateway{}
	service := NewIdentifyService(gateway, 1<<20)

	_, err := service.Identify(context.Background(), []byte("data"), "text/html")

	assert.ErrorIs(t, err, identify.ErrInvalidImageFormat)
	assert.False(t, gateway.called)
}
