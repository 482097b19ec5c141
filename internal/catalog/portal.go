package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/chromedp/chromedp/kb"
)

// Volatile portal selectors. These track the DAM's web UI and change when
// the portal is redeployed.
const (
	searchInputSelector = "#search-search-box-text-tokenfield"
	gridItemSelector    = "div.MuiCard-root.selectable-content-hub-item"
)

// maxTilesPerSearch caps how many result tiles are read per search.
// Portal relevance decays fast past the first page of results.
const maxTilesPerSearch = 10

// PortalConfig configures the browser-driven asset source.
type PortalConfig struct {
	BaseURL        string
	Executable     string
	UserDataDir    string
	Headless       bool
	SearchTimeout  time.Duration
	ResultsTimeout time.Duration
}

// Portal discovers candidate assets by driving the DAM portal's search UI
// in a single browser session. It is stateful and must not be shared
// across concurrent workers; run it with the sequential orchestrator
// shape only.
type Portal struct {
	cfg         PortalConfig
	browserCtx  context.Context
	cancelAlloc context.CancelFunc
	cancelCtx   context.CancelFunc
}

// NewPortal creates a portal source. Call Open before Assets.
func NewPortal(cfg PortalConfig) *Portal {
	if cfg.SearchTimeout <= 0 {
		cfg.SearchTimeout = 30 * time.Second
	}
	if cfg.ResultsTimeout <= 0 {
		cfg.ResultsTimeout = 20 * time.Second
	}
	return &Portal{cfg: cfg}
}

// Open launches the browser session and navigates to the portal. A
// failure here is orchestration-fatal: without a session no item can be
// processed.
func (p *Portal) Open(ctx context.Context) error {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", p.cfg.Headless),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
	)
	if p.cfg.Executable != "" {
		opts = append(opts, chromedp.ExecPath(p.cfg.Executable))
	}
	if p.cfg.UserDataDir != "" {
		opts = append(opts, chromedp.UserDataDir(p.cfg.UserDataDir))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	browserCtx, cancelCtx := chromedp.NewContext(allocCtx)
	p.browserCtx = browserCtx
	p.cancelAlloc = cancelAlloc
	p.cancelCtx = cancelCtx

	navCtx, cancel := context.WithTimeout(browserCtx, p.cfg.SearchTimeout)
	defer cancel()
	if err := chromedp.Run(navCtx, chromedp.Navigate(p.cfg.BaseURL)); err != nil {
		p.Close()
		return fmt.Errorf("failed to open portal session: %w", err)
	}
	slog.Info("Portal session established", "url", p.cfg.BaseURL)
	return nil
}

// Close tears down the browser session. Safe to call after a failed Open.
func (p *Portal) Close() {
	if p.cancelCtx != nil {
		p.cancelCtx()
	}
	if p.cancelAlloc != nil {
		p.cancelAlloc()
	}
}

// Assets runs one portal search per slot keyword and maps visible result
// tiles to candidate assets. A search that times out or finds nothing
// contributes an empty slot rather than failing the product.
func (p *Portal) Assets(ctx context.Context, bmn string, slots []string) (map[string][]Asset, error) {
	if p.browserCtx == nil {
		return nil, fmt.Errorf("portal session not open")
	}

	grouped := make(map[string][]Asset)
	for _, keyword := range slots {
		// Cooperative cancellation between slot searches.
		if err := ctx.Err(); err != nil {
			return grouped, err
		}

		tiles, err := p.search(bmn, keyword)
		if err != nil {
			slog.Warn("Portal search found no results", "bmn", bmn, "slot", keyword, "error", err)
			continue
		}

		for _, t := range tiles {
			if !IsImageTitle(t.Title) || t.URL == "" {
				continue
			}
			grouped[keyword] = append(grouped[keyword], Asset{
				Title:    strings.TrimSpace(t.Title),
				Language: ClassifyTitle(t.Title),
				Slot:     keyword,
				State:    StateCurrent,
				URL:      t.URL,
			})
		}
	}

	if len(grouped) == 0 {
		return nil, ErrNotFound
	}
	return grouped, nil
}

type tile struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

// search drives one query through the portal search box and reads the
// result grid. Every wait is bounded; a broken page surfaces as a timeout
// error, never a hang.
func (p *Portal) search(bmn, keyword string) ([]tile, error) {
	query := fmt.Sprintf("%s %s", bmn, keyword)
	slog.Debug("Searching portal", "query", query)

	tctx, cancel := context.WithTimeout(p.browserCtx, p.cfg.SearchTimeout)
	defer cancel()

	if err := chromedp.Run(tctx,
		chromedp.WaitVisible(searchInputSelector, chromedp.ByQuery),
		chromedp.SetValue(searchInputSelector, query, chromedp.ByQuery),
		chromedp.SendKeys(searchInputSelector, kb.Enter, chromedp.ByQuery),
	); err != nil {
		return nil, fmt.Errorf("search submit failed: %w", err)
	}

	rctx, cancelResults := context.WithTimeout(p.browserCtx, p.cfg.ResultsTimeout)
	defer cancelResults()

	var tiles []tile
	extract := fmt.Sprintf(`Array.from(document.querySelectorAll(%q)).slice(0, %d).map(function(el) {
		var img = el.querySelector('img');
		return { title: el.innerText.trim(), url: img ? (img.dataset.fullsize || img.src) : '' };
	})`, gridItemSelector, maxTilesPerSearch)

	if err := chromedp.Run(rctx,
		chromedp.WaitVisible(gridItemSelector, chromedp.ByQuery),
		// The grid renders incrementally; let it settle before reading tiles.
		chromedp.Sleep(500*time.Millisecond),
		chromedp.Evaluate(extract, &tiles),
	); err != nil {
		return nil, fmt.Errorf("no results for %q: %w", query, err)
	}

	return tiles, nil
}
