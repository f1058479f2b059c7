// Package ui renders riffs and banners for the terminal.
package ui

import (
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/truncate"
	"github.com/muesli/reflow/wordwrap"
	"golang.org/x/term"

	"github.com/thedittmer/daily-riff/internal/config"
	"github.com/thedittmer/daily-riff/internal/drive"
	"github.com/thedittmer/daily-riff/internal/models"
)

const defaultWidth = 80

// Options control how a Printer lays out output.
type Options struct {
	AccentColor string
	DateFormat  string
	Compact     bool
}

// Printer writes styled output. Styling is dropped when w is not a terminal.
type Printer struct {
	w          io.Writer
	styles     Styles
	styled     bool
	width      int
	dateFormat string
	compact    bool
}

// NewPrinter inspects w to decide on styling and width.
func NewPrinter(w io.Writer, opts Options) *Printer {
	p := &Printer{
		w:          w,
		styles:     NewStyles(opts.AccentColor),
		width:      defaultWidth,
		dateFormat: opts.DateFormat,
		compact:    opts.Compact,
	}
	if p.dateFormat == "" {
		p.dateFormat = "2006-01-02 15:04"
	}

	if f, ok := w.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		p.styled = true
		if width, _, err := term.GetSize(int(f.Fd())); err == nil && width > 20 {
			p.width = width
		}
	}

	return p
}

func (p *Printer) render(style lipgloss.Style, s string) string {
	if !p.styled {
		return s
	}
	return style.Render(s)
}

func (p *Printer) println(s string) {
	fmt.Fprintln(p.w, s)
}

// Header prints a section heading.
func (p *Printer) Header(title string) {
	if p.styled {
		p.println(p.styles.Header.Render(title))
		return
	}
	p.println("== " + title + " ==")
}

// Success prints a success banner.
func (p *Printer) Success(msg string) {
	p.println(p.render(p.styles.Success, "✓ "+msg))
}

// Error prints an error banner.
func (p *Printer) Error(msg string) {
	p.println(p.render(p.styles.Error, "✗ "+msg))
}

// Warn prints a warning line.
func (p *Printer) Warn(msg string) {
	p.println(p.render(p.styles.Warning, "! "+msg))
}

// Info prints a dim status line.
func (p *Printer) Info(msg string) {
	p.println(p.render(p.styles.Dim, msg))
}

// Generation prints every generated riff followed by the shared sources.
func (p *Printer) Generation(gen *models.Generation) {
	for i, a := range gen.Articles {
		p.Article(i+1, a)
	}
	p.Sources(gen.Citations)
}

// Article prints one riff as a numbered card.
func (p *Printer) Article(n int, a models.Article) {
	var b strings.Builder
	b.WriteString(p.render(p.styles.Title, fmt.Sprintf("%d. %s", n, a.Title)))
	if !p.compact {
		b.WriteString("\n\n")
		b.WriteString(p.render(p.styles.Text, wordwrap.String(a.Content, p.width-6)))
	}

	if p.styled {
		p.println(p.styles.Card.Width(p.width - 2).Render(b.String()))
		return
	}
	p.println(b.String())
	p.println("")
}

// Sources prints citation links by hostname.
func (p *Printer) Sources(citations []string) {
	if len(citations) == 0 {
		return
	}

	p.println(p.render(p.styles.Key, "Sources"))
	for _, c := range citations {
		p.println(fmt.Sprintf("  %s %s", p.render(p.styles.Source, Hostname(c)), p.render(p.styles.Link, c)))
	}
}

// SavedList prints saved riffs, one per line.
func (p *Printer) SavedList(posts []models.SavedArticle) {
	if len(posts) == 0 {
		p.Info("No saved riffs yet.")
		return
	}

	for _, post := range posts {
		created := time.UnixMilli(post.CreatedAt).Format(p.dateFormat)
		p.println(fmt.Sprintf("%s  %s  %s",
			p.render(p.styles.Dim, post.ID),
			p.render(p.styles.Date, created),
			p.render(p.styles.Title, post.Title),
		))
		if !p.compact {
			p.println("    " + p.render(p.styles.Dim, excerpt(post.Content, p.width-8)))
		}
	}
}

// SavedArticle prints one saved riff in full.
func (p *Printer) SavedArticle(post models.SavedArticle) {
	p.println(p.render(p.styles.Date, time.UnixMilli(post.CreatedAt).Format(p.dateFormat)))
	p.Article(1, post.Article)
	p.Sources(post.SearchAttribution)
}

// Topics prints feed headlines as numbered topic suggestions.
func (p *Printer) Topics(items []models.FeedItem) {
	if len(items) == 0 {
		p.Info("No topics found. Check feeds.txt.")
		return
	}

	for i, item := range items {
		line := fmt.Sprintf("%2d. %s", i+1, p.render(p.styles.Title, item.Title))
		if item.FeedSource != "" {
			line += "  " + p.render(p.styles.Source, item.FeedSource)
		}
		if !item.Published.IsZero() {
			line += "  " + p.render(p.styles.Date, item.Published.Format(p.dateFormat))
		}
		p.println(line)
	}
}

// Settings prints the settings with secrets redacted.
func (p *Printer) Settings(s config.Settings, path string) {
	row := func(k, v string) {
		if v == "" {
			v = p.render(p.styles.Dim, "(not set)")
		}
		p.println(fmt.Sprintf("  %-22s %s", p.render(p.styles.Key, k), v))
	}

	row("Gemini API key", config.Mask(s.APIKey))
	row("Model", s.Model.DisplayName())
	row("Google Client ID", s.ClientID)
	row("Google Client secret", config.Mask(s.ClientSecret))
	sheet := ""
	if s.SheetID != "" {
		sheet = drive.SpreadsheetURL(s.SheetID)
	}
	row("Export index sheet", sheet)
	p.Info("Stored in " + path)
}

// Hostname returns the host of a citation without a leading "www.".
func Hostname(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Hostname() == "" {
		return raw
	}
	return strings.TrimPrefix(u.Hostname(), "www.")
}

// excerpt returns the first line of content cut to width terminal cells.
func excerpt(content string, width int) string {
	line, _, _ := strings.Cut(strings.TrimSpace(content), "\n")
	if width <= 1 {
		return line
	}
	return truncate.StringWithTail(line, uint(width), "…")
}
