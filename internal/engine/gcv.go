package engine

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"
	"google.golang.org/api/option"
	vision "google.golang.org/api/vision/v1"

	"github.com/papersnap/ocr-worker/internal/config"
	apperrors "github.com/papersnap/ocr-worker/internal/errors"
	"github.com/papersnap/ocr-worker/internal/normalize"
)

// GCVInvoker is the cloud-SDK variant: a structured document-text-detection call
// against Google Cloud Vision. The probe has already verified the credentials
// file exists; any reported service error fails closed.
type GCVInvoker struct {
	cfg    config.GCVConfig
	logger *zap.Logger

	mu      sync.Mutex
	service *vision.Service
}

func NewGCVInvoker(cfg config.GCVConfig, logger *zap.Logger) *GCVInvoker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GCVInvoker{cfg: cfg, logger: logger}
}

func (g *GCVInvoker) Invoke(ctx context.Context, filePath string) (*Result, error) {
	svc, err := g.serviceFor(ctx)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrInvocationFailed.Code, "vision client init failed")
	}

	content, err := os.ReadFile(filePath)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrInvocationFailed.Code, "read input file")
	}

	req := &vision.BatchAnnotateImagesRequest{
		Requests: []*vision.AnnotateImageRequest{{
			Image:    &vision.Image{Content: base64.StdEncoding.EncodeToString(content)},
			Features: []*vision.Feature{{Type: "DOCUMENT_TEXT_DETECTION"}},
		}},
	}

	resp, err := svc.Images.Annotate(req).Context(ctx).Do()
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrInvocationFailed.Code, "vision annotate call failed")
	}
	if len(resp.Responses) == 0 {
		return nil, nil
	}

	annotated := resp.Responses[0]
	if annotated.Error != nil {
		return nil, apperrors.Wrap(fmt.Errorf("vision service error: %s", annotated.Error.Message),
			apperrors.ErrInvocationFailed.Code, "vision annotate rejected")
	}
	if annotated.FullTextAnnotation == nil {
		return nil, nil
	}

	text := normalize.ExtractText(annotated.FullTextAnnotation.Text)
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}

	meta := map[string]any{}
	if locale := bestLocale(annotated.FullTextAnnotation); locale != "" {
		meta["locale"] = locale
	}
	meta["pages"] = len(annotated.FullTextAnnotation.Pages)

	return newResult(GCV, text, meta), nil
}

// serviceFor lazily builds the Vision service so startup does not require
// credentials for a disabled engine.
func (g *GCVInvoker) serviceFor(ctx context.Context) (*vision.Service, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.service != nil {
		return g.service, nil
	}

	svc, err := vision.NewService(context.WithoutCancel(ctx),
		option.WithCredentialsFile(g.cfg.CredentialsFile))
	if err != nil {
		return nil, err
	}
	g.service = svc
	return svc, nil
}

// bestLocale returns the highest-ranked detected language of the first page.
func bestLocale(annotation *vision.TextAnnotation) string {
	if len(annotation.Pages) == 0 {
		return ""
	}
	page := annotation.Pages[0]
	if page.Property == nil || len(page.Property.DetectedLanguages) == 0 {
		return ""
	}
	return page.Property.DetectedLanguages[0].LanguageCode
}
