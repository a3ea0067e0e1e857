// Package pdf renders billing statements to PDF through a headless
// Chrome instance driven over the DevTools protocol.
package pdf

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"

	"github.com/soadesk/billing_backoffice/internal/apperrors"
	"github.com/soadesk/billing_backoffice/internal/core/domain"
	portssvc "github.com/soadesk/billing_backoffice/internal/core/ports/services"
	"github.com/soadesk/billing_backoffice/internal/middleware"
)

const (
	defaultChromeTimeout = 30 * time.Second

	// A4 in inches, margins in inches (15mm top/bottom, 12mm sides).
	paperWidthIn   = 210.0 / 25.4
	paperHeightIn  = 297.0 / 25.4
	marginTopIn    = 15.0 / 25.4
	marginBottomIn = 15.0 / 25.4
	marginSideIn   = 12.0 / 25.4
)

// Config contains configuration for the statement renderer.
type Config struct {
	// MediaRoot is the directory artifacts are written beneath.
	MediaRoot string
	// RemoteURL points at a remote Chrome instance. Empty launches a
	// local headless browser.
	RemoteURL string
	// NoSandbox runs Chrome without sandbox (required for Docker/root).
	NoSandbox bool
	// Timeout bounds a single render. Zero means the default.
	Timeout time.Duration
}

// Renderer implements portssvc.StatementRenderer on chromedp.
type Renderer struct {
	cfg         Config
	tmpl        *template.Template
	allocCtx    context.Context
	allocCancel context.CancelFunc
}

// NewRenderer creates the renderer and its Chrome allocator context.
// Close must be called on shutdown.
func NewRenderer(cfg Config) (*Renderer, error) {
	if cfg.Timeout == 0 {
		cfg.Timeout = defaultChromeTimeout
	}

	tmpl, err := template.New("statement").Parse(statementTemplate)
	if err != nil {
		return nil, fmt.Errorf("failed to parse statement template: %w", err)
	}

	r := &Renderer{cfg: cfg, tmpl: tmpl}
	if cfg.RemoteURL != "" {
		r.allocCtx, r.allocCancel = chromedp.NewRemoteAllocator(context.Background(), cfg.RemoteURL)
	} else {
		opts := append(chromedp.DefaultExecAllocatorOptions[:],
			chromedp.Flag("headless", true),
			chromedp.Flag("disable-gpu", true),
			chromedp.Flag("no-first-run", true),
			chromedp.Flag("disable-extensions", true),
			chromedp.Flag("disable-dev-shm-usage", true),
			chromedp.Flag("font-render-hinting", "none"),
		)
		if cfg.NoSandbox {
			opts = append(opts, chromedp.Flag("no-sandbox", true))
		}
		r.allocCtx, r.allocCancel = chromedp.NewExecAllocator(context.Background(), opts...)
	}
	return r, nil
}

var _ portssvc.StatementRenderer = (*Renderer)(nil)

// Close releases the Chrome allocator.
func (r *Renderer) Close() {
	if r.allocCancel != nil {
		r.allocCancel()
	}
}

// artifactName derives the file name: the statement number once
// issued, a draft-prefixed ID before that.
func artifactName(statement domain.BillingStatement) string {
	if statement.Number != "" {
		return statement.Number + ".pdf"
	}
	return "draft-" + statement.StatementID + ".pdf"
}

// RenderStatement renders the statement to <mediaRoot>/pdf/statements/
// and returns the path relative to the media root. An existing
// artifact is reused unless force is set.
func (r *Renderer) RenderStatement(ctx context.Context, statement domain.BillingStatement, client domain.Client, engagement domain.Engagement, items []domain.BillingItem, force bool) (string, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	relPath := filepath.Join("pdf", "statements", artifactName(statement))
	absPath := filepath.Join(r.cfg.MediaRoot, relPath)

	if !force {
		if _, err := os.Stat(absPath); err == nil {
			return relPath, nil
		}
	}

	html, err := r.buildHTML(statement, client, engagement, items)
	if err != nil {
		return "", err
	}

	pdfData, err := r.printToPDF(ctx, html)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(filepath.Dir(absPath), 0o755); err != nil {
		return "", apperrors.NewAppError(500, "failed to create artifact directory", err)
	}
	if err := os.WriteFile(absPath, pdfData, 0o644); err != nil {
		return "", apperrors.NewAppError(500, "failed to write artifact "+relPath, err)
	}

	logger.Info("Statement PDF rendered", "path", relPath, "bytes", len(pdfData))
	return relPath, nil
}

func (r *Renderer) printToPDF(ctx context.Context, html string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.Timeout)
	defer cancel()

	browserCtx, browserCancel := chromedp.NewContext(r.allocCtx)
	defer browserCancel()

	// Inherit the request deadline while keeping the browser lineage.
	go func() {
		select {
		case <-ctx.Done():
			browserCancel()
		case <-browserCtx.Done():
		}
	}()

	var pdfData []byte
	err := chromedp.Run(browserCtx,
		chromedp.Navigate("about:blank"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			frameTree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return err
			}
			return page.SetDocumentContent(frameTree.Frame.ID, html).Do(ctx)
		}),
		chromedp.ActionFunc(func(ctx context.Context) error {
			data, _, err := page.PrintToPDF().
				WithPrintBackground(true).
				WithPaperWidth(paperWidthIn).
				WithPaperHeight(paperHeightIn).
				WithMarginTop(marginTopIn).
				WithMarginBottom(marginBottomIn).
				WithMarginLeft(marginSideIn).
				WithMarginRight(marginSideIn).
				Do(ctx)
			if err != nil {
				return err
			}
			pdfData = data
			return nil
		}),
	)
	if err != nil {
		return nil, apperrors.NewAppError(500, "chromedp rendering failed", err)
	}
	if len(pdfData) == 0 {
		return nil, apperrors.NewAppError(500, "generated PDF is empty", nil)
	}
	return pdfData, nil
}

type templateData struct {
	Statement  domain.BillingStatement
	Client     domain.Client
	Engagement domain.Engagement
	Items      []domain.BillingItem
	IssueDate  string
	DueDate    string
	Title      string
}

func (r *Renderer) buildHTML(statement domain.BillingStatement, client domain.Client, engagement domain.Engagement, items []domain.BillingItem) (string, error) {
	data := templateData{
		Statement:  statement,
		Client:     client,
		Engagement: engagement,
		Items:      items,
		Title:      "STATEMENT OF ACCOUNT",
	}
	if statement.Number == "" {
		data.Title = "STATEMENT OF ACCOUNT (DRAFT)"
	}
	if statement.IssueDate != nil {
		data.IssueDate = statement.IssueDate.Format("January 2, 2006")
	}
	if statement.DueDate != nil {
		data.DueDate = statement.DueDate.Format("January 2, 2006")
	}

	var buf bytes.Buffer
	if err := r.tmpl.Execute(&buf, data); err != nil {
		return "", apperrors.NewAppError(500, "failed to render statement template", err)
	}
	return buf.String(), nil
}

const statementTemplate = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<style>
  body { font-family: "Helvetica Neue", Arial, sans-serif; font-size: 12px; color: #1a1a1a; }
  h1 { font-size: 16px; letter-spacing: 1px; margin-bottom: 2px; }
  .meta { margin: 12px 0; }
  .meta td { padding: 2px 16px 2px 0; }
  table.items { border-collapse: collapse; width: 100%; margin-top: 16px; }
  table.items th, table.items td { border: 1px solid #999; padding: 6px 8px; }
  table.items th { background: #f0f0f0; text-align: left; }
  td.num { text-align: right; }
  .totals { margin-top: 12px; float: right; }
  .totals td { padding: 3px 12px; }
  .totals .label { text-align: right; font-weight: bold; }
  .note { margin-top: 8px; color: #444; white-space: pre-line; }
</style>
</head>
<body>
  <h1>{{.Title}}</h1>
  {{if .Statement.Number}}<div>No. {{.Statement.Number}}</div>{{end}}
  {{if .Client.HeaderNote}}<div class="note">{{.Client.HeaderNote}}</div>{{end}}
  <table class="meta">
    <tr><td>Client</td><td>{{.Client.Name}}</td></tr>
    {{if .Client.BillingAddress}}<tr><td>Address</td><td>{{.Client.BillingAddress}}</td></tr>{{end}}
    {{if .Client.TIN}}<tr><td>TIN</td><td>{{.Client.TIN}}</td></tr>{{end}}
    <tr><td>Engagement</td><td>{{.Engagement.Title}}</td></tr>
    <tr><td>Period</td><td>{{.Statement.Period}}</td></tr>
    {{if .IssueDate}}<tr><td>Issue date</td><td>{{.IssueDate}}</td></tr>{{end}}
    {{if .DueDate}}<tr><td>Due date</td><td>{{.DueDate}}</td></tr>{{end}}
  </table>
  <table class="items">
    <tr><th>Description</th><th>Qty</th><th>Unit</th><th>Unit price</th><th>Amount</th></tr>
    {{range .Items}}
    <tr>
      <td>{{.Description}}</td>
      <td class="num">{{.Qty}}</td>
      <td>{{.Unit}}</td>
      <td class="num">{{.UnitPrice}}</td>
      <td class="num">{{.LineTotal}}</td>
    </tr>
    {{end}}
  </table>
  <table class="totals">
    <tr><td class="label">Subtotal ({{.Statement.Currency}})</td><td class="num">{{.Statement.SubTotal}}</td></tr>
    <tr><td class="label">Paid to date</td><td class="num">{{.Statement.PaidToDate}}</td></tr>
    <tr><td class="label">Balance due</td><td class="num">{{.Statement.Balance}}</td></tr>
  </table>
  {{if .Statement.Notes}}<div style="clear: both"></div><div class="note">{{.Statement.Notes}}</div>{{end}}
</body>
</html>`
