package engine

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/otiai10/gosseract/v2"
	"golang.org/x/time/rate"

	"github.com/papersnap/ocr-worker/internal/config"
)

// TesseractProbe checks for a usable tesseract installation: the native library
// must report trained languages, or the CLI must be on PATH for the fallback.
type TesseractProbe struct {
	Binary string
}

func (p *TesseractProbe) Probe(_ context.Context) (bool, string) {
	langs, err := gosseract.GetAvailableLanguages()
	if err == nil && len(langs) > 0 {
		return true, ""
	}

	binary := p.Binary
	if binary == "" {
		binary = "tesseract"
	}
	if _, lookErr := exec.LookPath(binary); lookErr == nil {
		return true, ""
	}

	if err != nil {
		return false, fmt.Sprintf("tesseract unusable: %v", err)
	}
	return false, "no tesseract languages installed and no CLI on PATH"
}

// SuryaProbe checks that the surya CLI is on PATH.
type SuryaProbe struct {
	Binary string
}

func (p *SuryaProbe) Probe(_ context.Context) (bool, string) {
	binary := p.Binary
	if binary == "" {
		binary = "surya-ocr"
	}
	if _, err := exec.LookPath(binary); err != nil {
		return false, fmt.Sprintf("%s not found on PATH", binary)
	}
	return true, ""
}

// GCVProbe checks that a credentials file has been configured and exists. The
// Vision API itself is not called; auth failures surface at invocation time.
type GCVProbe struct {
	CredentialsFile string
}

func (p *GCVProbe) Probe(_ context.Context) (bool, string) {
	if p.CredentialsFile == "" {
		return false, "GOOGLE_APPLICATION_CREDENTIALS not set or file missing"
	}
	if _, err := os.Stat(p.CredentialsFile); err != nil {
		return false, "GOOGLE_APPLICATION_CREDENTIALS not set or file missing"
	}
	return true, ""
}

// DeepSeekProbe hits the remote service's health endpoint. Probes are
// rate-limited so registry refreshes on every request do not hammer the remote;
// between allowed probes the last observed state is reported.
type DeepSeekProbe struct {
	url     string
	client  *http.Client
	limiter *rate.Limiter

	mu         sync.Mutex
	lastOK     bool
	lastReason string
	probed     bool
}

func NewDeepSeekProbe(cfg config.DeepSeekConfig) *DeepSeekProbe {
	timeout := time.Duration(cfg.HealthTimeout) * time.Second
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &DeepSeekProbe{
		url:     cfg.URL,
		client:  &http.Client{Timeout: timeout},
		limiter: rate.NewLimiter(rate.Every(5*time.Second), 1),
	}
}

func (p *DeepSeekProbe) Probe(ctx context.Context) (bool, string) {
	if p.url == "" {
		return false, "DEEPSEEK_OCR_URL not configured"
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	// Allow must run first so every fresh check spends a token; otherwise the
	// first check leaves the burst token for the next caller in the window.
	if !p.limiter.Allow() && p.probed {
		return p.lastOK, p.lastReason
	}

	ok, reason := p.check(ctx)
	p.lastOK, p.lastReason, p.probed = ok, reason, true
	return ok, reason
}

func (p *DeepSeekProbe) check(ctx context.Context) (bool, string) {
	healthURL := strings.TrimRight(p.url, "/") + "/health"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, healthURL, http.NoBody)
	if err != nil {
		return false, fmt.Sprintf("health probe failed: %v", err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return false, fmt.Sprintf("health probe failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return false, fmt.Sprintf("health check failed (%d)", resp.StatusCode)
	}
	return true, ""
}

// DefaultProbes wires the standard probe set for the configured engines.
func DefaultProbes(cfg config.EnginesConfig) map[string]Probe {
	return map[string]Probe{
		Tesseract: &TesseractProbe{Binary: cfg.Tesseract.Binary},
		Surya:     &SuryaProbe{Binary: cfg.Surya.Binary},
		GCV:       &GCVProbe{CredentialsFile: cfg.GCV.CredentialsFile},
		DeepSeek:  NewDeepSeekProbe(cfg.DeepSeek),
	}
}
