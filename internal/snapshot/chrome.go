package snapshot

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/useflyyer/studio/internal/observability"
	"github.com/useflyyer/studio/internal/preview"
)

const defaultTimeout = 30 * time.Second

// Options configures the headless browser.
type Options struct {
	ExecPath string
	Timeout  time.Duration
	Logger   *zap.Logger
}

// Chrome captures frames with a headless Chrome instance shared across captures.
type Chrome struct {
	allocCancel   context.CancelFunc
	browser       context.Context
	browserCancel context.CancelFunc
	timeout       time.Duration
	logger        *zap.Logger
}

// NewChrome starts the browser allocator. The browser process itself is
// launched lazily on the first capture.
func NewChrome(opts Options) *Chrome {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("hide-scrollbars", true),
		chromedp.Flag("mute-audio", true),
		chromedp.Flag("no-first-run", true),
		chromedp.Flag("no-default-browser-check", true),
		chromedp.Flag("disable-background-networking", true),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("disable-sync", true),
	)
	if path := strings.TrimSpace(opts.ExecPath); path != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(path))
	}
	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), allocOpts...)

	adapter := observability.NewPrintfAdapter(logger.Named("chromedp"))
	browser, browserCancel := chromedp.NewContext(allocCtx,
		chromedp.WithLogf(adapter.Printf),
		chromedp.WithErrorf(adapter.Errorf),
	)

	return &Chrome{
		allocCancel:   allocCancel,
		browser:       browser,
		browserCancel: browserCancel,
		timeout:       timeout,
		logger:        logger,
	}
}

// Close shuts the browser down.
func (c *Chrome) Close() {
	if c.browserCancel != nil {
		c.browserCancel()
	}
	if c.allocCancel != nil {
		c.allocCancel()
	}
}

// Capture opens the frame URL in a new tab sized to the frame and returns a PNG
// of the viewport.
func (c *Chrome) Capture(ctx context.Context, frame preview.Frame) ([]byte, error) {
	if frame.URL == nil {
		return nil, fmt.Errorf("capture %s: empty url", frame.Mode)
	}
	if frame.Width <= 0 || frame.Height <= 0 {
		return nil, fmt.Errorf("capture %s: invalid size %dx%d", frame.Mode, frame.Width, frame.Height)
	}

	// The first Run on the browser context starts Chrome; tabs derive from it.
	if err := chromedp.Run(c.browser); err != nil {
		return nil, fmt.Errorf("start browser: %w", err)
	}

	tabCtx, cancelTab := chromedp.NewContext(c.browser)
	defer cancelTab()

	var cancel context.CancelFunc
	tabCtx, cancel = context.WithTimeout(tabCtx, c.timeout)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	target := frame.URL.String()
	start := time.Now()
	var buf []byte
	err := chromedp.Run(tabCtx,
		chromedp.ActionFunc(func(ctx context.Context) error {
			return emulation.SetDeviceMetricsOverride(int64(frame.Width), int64(frame.Height), 1, false).Do(ctx)
		}),
		chromedp.Navigate(target),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.CaptureScreenshot(&buf),
	)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("capture %s: %w", target, err)
	}
	c.logger.Debug("frame captured",
		zap.String("mode", string(frame.Mode)),
		zap.String("url", target),
		zap.Duration("latency", time.Since(start)),
		zap.Int("bytes", len(buf)),
	)
	return buf, nil
}
