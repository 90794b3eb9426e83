package printing

import (
	"context"
	"errors"
	"fmt"
	"html"
	"regexp"
	"strings"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/rental/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

const (
	defaultRenderTimeout = 30 * time.Second
	mmPerInch            = 25.4
	// room for a page-number footer
	minFooterMarginMM = 10
)

var _ PDFRenderer = (*ChromedpRenderer)(nil)

// ChromedpRenderer prints HTML to PDF in headless Chrome. Each Render opens
// a fresh tab on a shared allocator.
type ChromedpRenderer struct {
	alloc   context.Context
	release context.CancelFunc
	timeout time.Duration
	log     *zap.Logger
}

// NewChromedpRenderer starts nothing; a local Chrome is launched on the first
// Render, or printing.remote_url is dialed instead.
func NewChromedpRenderer(cfg config.PrintingConfig, log *zap.Logger) *ChromedpRenderer {
	if log == nil {
		log = zap.NewNop()
	}
	r := &ChromedpRenderer{
		timeout: cfg.RenderTimeout,
		log:     log.Named("printing"),
	}
	if r.timeout <= 0 {
		r.timeout = defaultRenderTimeout
	}

	if cfg.RemoteURL != "" {
		r.alloc, r.release = chromedp.NewRemoteAllocator(context.Background(), cfg.RemoteURL)
		return r
	}
	opts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	opts = append(opts,
		chromedp.DisableGPU,
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("font-render-hinting", "none"),
	)
	if cfg.NoSandbox {
		opts = append(opts, chromedp.NoSandbox)
	}
	if cfg.ChromePath != "" {
		opts = append(opts, chromedp.ExecPath(cfg.ChromePath))
	}
	r.alloc, r.release = chromedp.NewExecAllocator(context.Background(), opts...)
	return r
}

func (r *ChromedpRenderer) Render(ctx context.Context, req *RenderRequest) (*RenderResult, error) {
	if req == nil || strings.TrimSpace(req.HTML) == "" {
		return nil, NewRenderError(ErrCodeInvalidHTML, "nothing to render", nil)
	}
	timeout := req.Timeout
	if timeout <= 0 {
		timeout = r.timeout
	}
	started := time.Now()

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	tab, closeTab := chromedp.NewContext(r.alloc, chromedp.WithLogf(r.log.Sugar().Debugf))
	defer closeTab()
	defer context.AfterFunc(ctx, closeTab)()

	document := wrapDocument(req)
	params := pdfParams(req)

	var pdf []byte
	err := chromedp.Run(tab,
		chromedp.Navigate("about:blank"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			tree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return err
			}
			return page.SetDocumentContent(tree.Frame.ID, document).Do(ctx)
		}),
		chromedp.ActionFunc(func(ctx context.Context) (err error) {
			pdf, _, err = params.Do(ctx)
			return err
		}),
	)
	switch {
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		return nil, NewRenderError(ErrCodeRenderTimeout, fmt.Sprintf("rendering exceeded %s", timeout), err)
	case errors.Is(ctx.Err(), context.Canceled):
		return nil, NewRenderError(ErrCodeRenderTimeout, "rendering cancelled", err)
	case err != nil:
		r.log.Error("Chrome print failed", zap.Error(err))
		return nil, NewRenderError(ErrCodeRenderFailed, "chrome print failed", err)
	case len(pdf) == 0:
		return nil, NewRenderError(ErrCodeRenderFailed, "chrome returned an empty PDF", nil)
	}

	res := &RenderResult{PDFData: pdf, PageCount: countPages(pdf), RenderDuration: time.Since(started)}
	r.log.Info("PDF rendered",
		zap.String("title", req.Title),
		zap.Int("bytes", len(pdf)),
		zap.Int("pages", res.PageCount),
		zap.Duration("took", res.RenderDuration),
	)
	return res, nil
}

// Close stops a locally launched Chrome
func (r *ChromedpRenderer) Close() error {
	if r.release != nil {
		r.release()
	}
	return nil
}

// pdfParams prints on A4 with the request margins, widening the bottom
// margin when a footer is requested
func pdfParams(req *RenderRequest) *page.PrintToPDFParams {
	m := req.Margins
	if m == (Margins{}) {
		m = DefaultMargins()
	}
	p := page.PrintToPDF().
		WithPrintBackground(true).
		WithPreferCSSPageSize(false).
		WithPaperWidth(PaperWidthMM / mmPerInch).
		WithPaperHeight(PaperHeightMM / mmPerInch).
		WithMarginTop(m.Top / mmPerInch).
		WithMarginRight(m.Right / mmPerInch).
		WithMarginBottom(m.Bottom / mmPerInch).
		WithMarginLeft(m.Left / mmPerInch)
	if req.FooterHTML != "" {
		p = p.WithDisplayHeaderFooter(true).
			WithHeaderTemplate("<span></span>").
			WithFooterTemplate(`<div style="font-size:8px;width:100%;text-align:center;">` + req.FooterHTML + `</div>`).
			WithMarginBottom(max(m.Bottom, minFooterMarginMM) / mmPerInch)
	}
	return p
}

var fullDocument = regexp.MustCompile(`(?i)^\s*(<!doctype|<html)`)

// wrapDocument gives a fragment a charset and title; full documents pass
// through untouched
func wrapDocument(req *RenderRequest) string {
	body := strings.TrimSpace(req.HTML)
	if fullDocument.MatchString(body) {
		return body
	}
	title := ""
	if req.Title != "" {
		title = "<title>" + html.EscapeString(req.Title) + "</title>"
	}
	return `<!DOCTYPE html><html><head><meta charset="UTF-8">` + title + "</head><body>" + body + "</body></html>"
}

var pageObject = regexp.MustCompile(`/Type\s*/Page\b`)

// countPages counts page objects, never less than one
func countPages(pdf []byte) int {
	return max(len(pageObject.FindAllIndex(pdf, -1)), 1)
}
