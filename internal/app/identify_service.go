package app

import (
	"context"
	"fmt"
	"strings"

	"ecotrace/internal/identify"
)

// IdentifyService gates uploads and hands them to whichever classifier
// backend was selected at startup.
type IdentifyService struct {
	gateway      identify.ClassifierGateway
	maxImageSize int64
}

func NewIdentifyService(gateway identify.ClassifierGateway, maxImageSize int64) *IdentifyService {
	if maxImageSize <= 0 {
		maxImageSize = 5 << 20
	}
	return &IdentifyService{
		gateway:      gateway,
		maxImageSize: maxImageSize,
	}
}

func (s *IdentifyService) MaxImageSize() int64 {
	return s.maxImageSize
}

func (s *IdentifyService) Identify(ctx context.Context, imageData []byte, mimeType string) (identify.DeviceGuide, error) {
	if len(imageData) == 0 {
		return identify.DeviceGuide{}, fmt.Errorf("%w: empty image", identify.ErrBadRequest)
	}
	if int64(len(imageData)) > s.maxImageSize {
		return identify.DeviceGuide{}, fmt.Errorf("%w: image exceeds %d bytes", identify.ErrBadRequest, s.maxImageSize)
	}
	if !strings.HasPrefix(mimeType, "image/") {
		return identify.DeviceGuide{}, fmt.Errorf("%w: %s", identify.ErrInvalidImageFormat, mimeType)
	}

	return s.gateway.Identify(ctx, imageData, mimeType)
}
