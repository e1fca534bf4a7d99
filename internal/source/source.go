/*
Package source fetches the stable's race pages and extracts the text of every table row.
*/
package source

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"golang.org/x/net/html"

	"github.com/shanehull/racealert/internal/types"
	"github.com/shanehull/racealert/internal/watch"
)

const (
	DefaultUpcomingURL    = "https://eclipsetbpartners.com/stable/upcoming-races/upcoming"
	DefaultEntriesURL     = "https://eclipsetbpartners.com/stable/upcoming-races/entries"
	DefaultRequestTimeout = 10 * time.Second

	pageParam     = "page"
	cellSeparator = " | "
)

// ErrUnexpectedStatus is returned for any non-200 response.
var ErrUnexpectedStatus = errors.New("unexpected status code")

// Client fetches pages with a fixed per-request timeout.
type Client struct {
	http *resty.Client
}

func NewClient(timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}
	return &Client{
		http: resty.New().SetTimeout(timeout),
	}
}

// FetchRows issues a single GET for pageURL and returns the rows of the document.
func (c *Client) FetchRows(ctx context.Context, pageURL string) ([]types.Row, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		Get(pageURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch URL %s: %w", pageURL, err)
	}

	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("%w %d from %s", ErrUnexpectedStatus, resp.StatusCode(), pageURL)
	}

	rows, err := ParseRows(bytes.NewReader(resp.Body()))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML from %s: %w", pageURL, err)
	}
	return rows, nil
}

// ParseRows returns every <tr> of the document in order. Header rows are kept: a tracked
// name never appears in them, so they cannot match.
func ParseRows(r io.Reader) ([]types.Row, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, err
	}

	var rows []types.Row
	doc.Find("tr").Each(func(_ int, tr *goquery.Selection) {
		for _, n := range tr.Nodes {
			raw := RowText(n)
			if raw == "" {
				continue
			}
			rows = append(rows, watch.NewRow(raw))
		}
	})
	return rows, nil
}

// RowText joins the trimmed text nodes under n with " | " so cell boundaries survive
// whitespace collapsing.
func RowText(n *html.Node) string {
	var parts []string
	var walk func(*html.Node)

	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			text := strings.Join(strings.Fields(n.Data), " ")
			if text != "" {
				parts = append(parts, text)
			}
			return
		}
		if n.Type == html.ElementNode && (n.Data == "script" || n.Data == "style") {
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)

	return strings.Join(parts, cellSeparator)
}

// PageURL returns the URL of a paginated page. Page 1 is the base URL itself.
func PageURL(base string, page int) string {
	if page <= 1 {
		return base
	}
	u, err := url.Parse(base)
	if err != nil {
		sep := "?"
		if strings.Contains(base, "?") {
			sep = "&"
		}
		return base + sep + pageParam + "=" + strconv.Itoa(page)
	}
	q := u.Query()
	q.Set(pageParam, strconv.Itoa(page))
	u.RawQuery = q.Encode()
	return u.String()
}
