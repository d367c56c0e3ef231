package feeds

import (
	"bytes"
	"context"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	apperrors "btc-timing-bot/internal/errors"
	"btc-timing-bot/internal/models"
)

// DefaultNewsLimit caps the number of headlines per cycle.
const DefaultNewsLimit = 20

var pubDateLayouts = []string{
	time.RFC1123Z,
	time.RFC1123,
	"Mon, 2 Jan 2006 15:04:05 -0700",
	"Mon, 2 Jan 2006 15:04:05 MST",
	time.RFC3339,
}

// RSSNews collects headlines from RSS and Atom feeds.
type RSSNews struct {
	client *Client
	urls   []string
	limit  int
}

// NewRSSNews creates a news feed over urls.
func NewRSSNews(client *Client, urls []string, limit int) *RSSNews {
	if limit <= 0 {
		limit = DefaultNewsLimit
	}
	return &RSSNews{client: client, urls: urls, limit: limit}
}

// News returns the newest headlines across all feeds, deduplicated by
// title. It fails only when every feed fails.
func (n *RSSNews) News(ctx context.Context) ([]models.NewsItem, error) {
	var (
		items   []models.NewsItem
		lastErr error
		ok      int
	)
	for _, u := range n.urls {
		feedItems, err := n.fetch(ctx, u)
		if err != nil {
			n.client.logger.Warn().Err(err).Str("url", u).Msg("News feed failed")
			lastErr = err
			continue
		}
		ok++
		items = append(items, feedItems...)
	}
	if ok == 0 && lastErr != nil {
		return nil, lastErr
	}

	items = dedupeByTitle(items)
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].PublishedAt.After(items[j].PublishedAt)
	})
	if len(items) > n.limit {
		items = items[:n.limit]
	}
	return items, nil
}

func (n *RSSNews) fetch(ctx context.Context, feedURL string) ([]models.NewsItem, error) {
	host := feedHost(feedURL)
	body, err := n.client.get(ctx, "news:"+host, "news", feedURL, "application/rss+xml, application/atom+xml, text/xml")
	if err != nil {
		return nil, err
	}
	items, err := ParseFeed(body, host)
	if err != nil {
		return nil, apperrors.NewDataError("news", host, "parsing feed", err)
	}
	return items, nil
}

// ParseFeed extracts headlines from an RSS or Atom document. fallbackSource
// names items when the feed has no channel title.
func ParseFeed(body []byte, fallbackSource string) ([]models.NewsItem, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	source := cleanText(doc.Find("channel > title").First().Text())
	if source == "" {
		source = cleanText(doc.Find("feed > title").First().Text())
	}
	if source == "" {
		source = fallbackSource
	}

	var items []models.NewsItem
	doc.Find("item, entry").Each(func(_ int, s *goquery.Selection) {
		title := cleanText(s.Find("title").First().Text())
		if title == "" {
			return
		}
		items = append(items, models.NewsItem{
			Title:       title,
			Source:      source,
			URL:         itemLink(s),
			PublishedAt: itemDate(s),
		})
	})
	return items, nil
}

// itemLink reads the Atom href or the RSS link. The HTML parser treats
// <link> as void, so the RSS URL ends up in the following text node.
func itemLink(s *goquery.Selection) string {
	link := s.Find("link").First()
	if href, ok := link.Attr("href"); ok && href != "" {
		return href
	}
	if node := link.Get(0); node != nil && node.NextSibling != nil && node.NextSibling.Type == html.TextNode {
		if text := strings.TrimSpace(node.NextSibling.Data); text != "" {
			return text
		}
	}
	return cleanText(s.Find("guid").First().Text())
}

func itemDate(s *goquery.Selection) time.Time {
	raw := cleanText(s.Find("pubdate, published, updated").First().Text())
	for _, layout := range pubDateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}

// cleanText trims whitespace and CDATA markers.
func cleanText(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "<![CDATA[")
	s = strings.TrimSuffix(s, "]]>")
	return strings.TrimSpace(s)
}

func dedupeByTitle(items []models.NewsItem) []models.NewsItem {
	seen := make(map[string]bool, len(items))
	out := items[:0]
	for _, item := range items {
		key := strings.ToLower(item.Title)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, item)
	}
	return out
}

func feedHost(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return raw
	}
	return strings.TrimPrefix(u.Host, "www.")
}
