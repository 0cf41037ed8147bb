package browser

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"

	"github.com/brokerops/statement-collector/internal/fetch"
	"github.com/brokerops/statement-collector/internal/llm"
)

// Config configures the Chrome session provider.
type Config struct {
	Headless bool
	Verbose  bool
	// ActionDelay is the settle time after each UI action. Carrier portals
	// are heavy on client-side rendering.
	ActionDelay time.Duration
}

// DefaultConfig returns the provider defaults.
func DefaultConfig() Config {
	return Config{Headless: true, ActionDelay: 2 * time.Second}
}

// ChromeProvider creates chromedp-backed sessions with Gemini resolving the
// natural-language primitives.
type ChromeProvider struct {
	llm llm.Client
	cfg Config
}

// NewChromeProvider returns a Provider backed by a local Chrome/Chromium.
func NewChromeProvider(llmClient llm.Client, cfg Config) *ChromeProvider {
	if cfg.ActionDelay == 0 {
		cfg.ActionDelay = 2 * time.Second
	}
	return &ChromeProvider{llm: llmClient, cfg: cfg}
}

// pdfCapture is one intercepted PDF response.
type pdfCapture struct {
	data     []byte
	filename string
}

type chromeSession struct {
	tabCtx  context.Context
	cancels []context.CancelFunc
	llm     llm.Client
	cfg     Config
	pdfCh   chan pdfCapture
}

// Acquire starts a browser tab with network interception enabled. The tab's
// context descends from ctx, so job cancellation tears the session down.
func (p *ChromeProvider) Acquire(ctx context.Context) (Session, error) {
	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx,
		append(chromedp.DefaultExecAllocatorOptions[:],
			chromedp.Flag("headless", p.cfg.Headless),
			chromedp.Flag("disable-gpu", true),
			chromedp.Flag("no-sandbox", true),
			chromedp.Flag("disable-dev-shm-usage", true),
		)...,
	)

	tabCtx, tabCancel := chromedp.NewContext(allocCtx)

	s := &chromeSession{
		tabCtx:  tabCtx,
		cancels: []context.CancelFunc{tabCancel, allocCancel},
		llm:     p.llm,
		cfg:     p.cfg,
		pdfCh:   make(chan pdfCapture, 4),
	}

	// Starting the browser and enabling network events must succeed before
	// the session is handed out.
	if err := chromedp.Run(tabCtx, network.Enable()); err != nil {
		s.closeContexts()
		return nil, fmt.Errorf("failed to start browser session: %w", err)
	}

	s.listenForPDFs()
	return s, nil
}

// listenForPDFs delivers intercepted PDF responses over the session channel
// rather than through shared mutable state, so waits stay reentrant.
func (s *chromeSession) listenForPDFs() {
	chromedp.ListenTarget(s.tabCtx, func(ev interface{}) {
		resp, ok := ev.(*network.EventResponseReceived)
		if !ok {
			return
		}
		if !isPDFResponse(resp.Response.MimeType, resp.Response.URL) {
			return
		}

		requestID := resp.RequestID
		respURL := resp.Response.URL
		go func() {
			var data []byte
			err := chromedp.Run(s.tabCtx, chromedp.ActionFunc(func(cctx context.Context) error {
				body, err := network.GetResponseBody(requestID).Do(cctx)
				data = body
				return err
			}))
			if err != nil {
				log.Printf("[browser] failed to read PDF response body for %s: %v", respURL, err)
				return
			}
			capture := pdfCapture{data: data, filename: fetch.FilenameFromURL(respURL, "statement.pdf")}
			select {
			case s.pdfCh <- capture:
			default:
				log.Printf("[browser] dropping PDF capture for %s: no waiter", respURL)
			}
		}()
	})
}

func isPDFResponse(mimeType, urlStr string) bool {
	if strings.EqualFold(mimeType, "application/pdf") {
		return true
	}
	trimmed := urlStr
	if i := strings.IndexAny(trimmed, "?#"); i >= 0 {
		trimmed = trimmed[:i]
	}
	return strings.HasSuffix(strings.ToLower(trimmed), ".pdf")
}

func (s *chromeSession) Goto(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.cfg.Verbose {
		log.Printf("[browser] goto %s", url)
	}
	err := chromedp.Run(s.tabCtx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body"),
		chromedp.Sleep(s.cfg.ActionDelay),
	)
	if err != nil {
		return fmt.Errorf("navigation to %s failed: %w", url, err)
	}
	return nil
}

func (s *chromeSession) Act(ctx context.Context, instruction string) error {
	cands, err := s.snapshotCandidates()
	if err != nil {
		return err
	}
	if len(cands) == 0 {
		return fmt.Errorf("no interactive elements on page for instruction %q", instruction)
	}

	raw, err := s.llm.GenerateJSON(ctx, BuildActionPrompt(instruction, cands))
	if err != nil {
		return fmt.Errorf("failed to resolve action %q: %w", instruction, err)
	}
	if err := ValidateAgainstSchema(raw, ActionSchema); err != nil {
		return fmt.Errorf("action %q: %w", instruction, err)
	}

	var action resolvedAction
	if err := json.Unmarshal([]byte(raw), &action); err != nil {
		return fmt.Errorf("failed to parse resolved action: %w", err)
	}
	if s.cfg.Verbose {
		log.Printf("[browser] act %q -> %s %s", instruction, action.Action, action.Selector)
	}

	var task chromedp.Action
	switch action.Action {
	case "click":
		task = chromedp.Click(action.Selector, chromedp.NodeVisible)
	case "type":
		task = chromedp.SendKeys(action.Selector, action.Value, chromedp.NodeVisible)
	case "select":
		task = chromedp.SetValue(action.Selector, action.Value)
	default:
		return fmt.Errorf("unsupported action %q for instruction %q", action.Action, instruction)
	}

	err = chromedp.Run(s.tabCtx, task, chromedp.Sleep(s.cfg.ActionDelay))
	if err != nil {
		return fmt.Errorf("action %q failed on %s: %w", instruction, action.Selector, err)
	}
	return nil
}

func (s *chromeSession) Extract(ctx context.Context, instruction, schema string, out any) error {
	var html string
	if err := chromedp.Run(s.tabCtx, chromedp.OuterHTML("html", &html)); err != nil {
		return fmt.Errorf("failed to read page HTML: %w", err)
	}

	text, err := PageText(html)
	if err != nil {
		return err
	}

	raw, err := s.llm.GenerateJSON(ctx, BuildExtractionPrompt(instruction, schema, text))
	if err != nil {
		return fmt.Errorf("extraction %q failed: %w", instruction, err)
	}
	if err := ValidateAgainstSchema(raw, schema); err != nil {
		return fmt.Errorf("extraction %q: %w", instruction, err)
	}

	if err := json.Unmarshal([]byte(raw), out); err != nil {
		return fmt.Errorf("failed to parse extracted data: %w", err)
	}
	return nil
}

func (s *chromeSession) Observe(ctx context.Context, instruction string) ([]Candidate, error) {
	cands, err := s.snapshotCandidates()
	if err != nil {
		return nil, err
	}
	if len(cands) == 0 {
		return nil, nil
	}

	raw, err := s.llm.GenerateJSON(ctx, BuildObservePrompt(instruction, cands))
	if err != nil {
		return nil, fmt.Errorf("observe %q failed: %w", instruction, err)
	}
	if err := ValidateAgainstSchema(raw, ObserveSchema); err != nil {
		return nil, fmt.Errorf("observe %q: %w", instruction, err)
	}

	var picked struct {
		Selectors []string `json:"selectors"`
	}
	if err := json.Unmarshal([]byte(raw), &picked); err != nil {
		return nil, fmt.Errorf("failed to parse observed selectors: %w", err)
	}

	bySelector := make(map[string]Candidate, len(cands))
	for _, c := range cands {
		bySelector[c.Selector] = c
	}

	var matched []Candidate
	for _, sel := range picked.Selectors {
		if c, ok := bySelector[sel]; ok {
			matched = append(matched, c)
		}
	}
	return matched, nil
}

func (s *chromeSession) WaitForPDF(ctx context.Context, timeout time.Duration) ([]byte, string, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case capture := <-s.pdfCh:
		return capture.data, capture.filename, nil
	case <-timer.C:
		return nil, "", fmt.Errorf("timed out after %s waiting for PDF response", timeout)
	case <-ctx.Done():
		return nil, "", ctx.Err()
	}
}

func (s *chromeSession) DownloadURL(ctx context.Context, url string) ([]byte, error) {
	var cookies []*network.Cookie
	err := chromedp.Run(s.tabCtx, chromedp.ActionFunc(func(cctx context.Context) error {
		cs, err := network.GetCookies().WithURLs([]string{url}).Do(cctx)
		cookies = cs
		return err
	}))
	if err != nil {
		return nil, fmt.Errorf("failed to read session cookies: %w", err)
	}

	opts := fetch.DefaultOptions()
	if len(cookies) > 0 {
		var pairs []string
		for _, c := range cookies {
			pairs = append(pairs, c.Name+"="+c.Value)
		}
		opts.Headers = map[string]string{"Cookie": strings.Join(pairs, "; ")}
	}

	return fetch.Download(ctx, url, opts)
}

func (s *chromeSession) Close() error {
	s.closeContexts()
	return nil
}

func (s *chromeSession) closeContexts() {
	for _, cancel := range s.cancels {
		cancel()
	}
}

func (s *chromeSession) snapshotCandidates() ([]Candidate, error) {
	var html string
	if err := chromedp.Run(s.tabCtx, chromedp.OuterHTML("html", &html)); err != nil {
		return nil, fmt.Errorf("failed to read page HTML: %w", err)
	}
	return Candidates(html)
}
