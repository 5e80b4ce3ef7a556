// Package extract reads content items out of a rendered page.
package extract

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/entrhq/headlines/pkg/types"
)

// DefaultMaxItems is how many items a session extracts by default.
const DefaultMaxItems = 5

// Selectors locate items and their fields. Field selectors are evaluated
// inside each item.
type Selectors struct {
	Item        string `yaml:"item" json:"item"`
	Title       string `yaml:"title" json:"title"`
	Description string `yaml:"description" json:"description"`
	Image       string `yaml:"image" json:"image"`
}

// DefaultSelectors match the opinion section layout of elpais.com.
func DefaultSelectors() Selectors {
	return Selectors{
		Item:        "article.c",
		Title:       "h2.c_t a, h2.c_t-i a",
		Description: ".c_d",
		Image:       "img",
	}
}

// Validate reports missing required selectors.
func (s Selectors) Validate() error {
	if strings.TrimSpace(s.Item) == "" {
		return fmt.Errorf("item selector is required")
	}
	if strings.TrimSpace(s.Title) == "" {
		return fmt.Errorf("title selector is required")
	}
	return nil
}

// Source is what the extractor reads from. browser.Page satisfies it.
type Source interface {
	Content(ctx context.Context) (string, error)
	URL() string
}

// Extractor turns a page into at most max items.
type Extractor interface {
	Extract(ctx context.Context, src Source, max int) ([]types.RawItem, error)
}

// HTMLExtractor extracts items from page HTML with CSS selectors.
type HTMLExtractor struct {
	selectors Selectors
}

// NewHTMLExtractor creates an extractor. Empty selector fields take the
// defaults.
func NewHTMLExtractor(selectors Selectors) *HTMLExtractor {
	def := DefaultSelectors()
	if selectors.Item == "" {
		selectors.Item = def.Item
	}
	if selectors.Title == "" {
		selectors.Title = def.Title
	}
	if selectors.Description == "" {
		selectors.Description = def.Description
	}
	if selectors.Image == "" {
		selectors.Image = def.Image
	}
	return &HTMLExtractor{selectors: selectors}
}

// Selectors returns the effective selectors.
func (e *HTMLExtractor) Selectors() Selectors {
	return e.selectors
}

// Extract implements Extractor.
func (e *HTMLExtractor) Extract(ctx context.Context, src Source, max int) ([]types.RawItem, error) {
	content, err := src.Content(ctx)
	if err != nil {
		return nil, err
	}
	return e.ExtractHTML(content, src.URL(), max)
}

// ExtractHTML parses raw page HTML. Items without a title are skipped and
// do not count towards max. Relative links and image URLs are resolved
// against baseURL when it is absolute. A page without matches yields an
// empty slice.
func (e *HTMLExtractor) ExtractHTML(rawHTML, baseURL string, max int) ([]types.RawItem, error) {
	if max <= 0 {
		max = DefaultMaxItems
	}

	root, err := html.Parse(strings.NewReader(rawHTML))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}
	doc := goquery.NewDocumentFromNode(root)

	var base *url.URL
	if u, err := url.Parse(baseURL); err == nil && u.IsAbs() {
		base = u
	}

	items := make([]types.RawItem, 0, max)
	doc.Find(e.selectors.Item).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		item, ok := e.item(s, base)
		if ok {
			items = append(items, item)
		}
		return len(items) < max
	})

	return items, nil
}

func (e *HTMLExtractor) item(s *goquery.Selection, base *url.URL) (types.RawItem, bool) {
	titleSel := s.Find(e.selectors.Title).First()
	title := collapse(titleSel.Text())
	if title == "" {
		return types.RawItem{}, false
	}

	item := types.RawItem{
		Title:       title,
		Description: collapse(s.Find(e.selectors.Description).First().Text()),
	}

	if href, ok := titleSel.Attr("href"); ok {
		item.Link = resolve(base, href)
	}

	img := s.Find(e.selectors.Image).First()
	if img.Length() > 0 {
		item.ImageURL = resolve(base, imageSource(img))
	}

	return item, true
}

// imageSource prefers src, then lazy-loading attributes, then the first
// srcset candidate. Inline data URIs are ignored.
func imageSource(img *goquery.Selection) string {
	for _, attr := range []string{"src", "data-src"} {
		if v, ok := img.Attr(attr); ok {
			v = strings.TrimSpace(v)
			if v != "" && !strings.HasPrefix(v, "data:") {
				return v
			}
		}
	}
	if srcset, ok := img.Attr("srcset"); ok {
		first := strings.TrimSpace(strings.Split(srcset, ",")[0])
		if fields := strings.Fields(first); len(fields) > 0 && !strings.HasPrefix(fields[0], "data:") {
			return fields[0]
		}
	}
	return ""
}

func resolve(base *url.URL, ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" || base == nil {
		return ref
	}
	u, err := base.Parse(ref)
	if err != nil {
		return ref
	}
	return u.String()
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
