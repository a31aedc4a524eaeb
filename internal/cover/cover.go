package cover

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/campusbooks/marketplace/internal/logging"
)

// DefaultMinBytes is the smallest body a candidate may have before it
// is considered a broken or placeholder image.
const DefaultMinBytes = 800

var bannedWords = []string{
	"cactus", "succulent", "plant", "plants", "desert",
	"flower", "flowers", "vase", "pot", "potted", "tree", "trees",
}

var trustedHosts = []string{
	"books.google", "gstatic", "googleusercontent",
	"amazon.com", "ssl-images-amazon.com", "images-na.ssl-images-amazon.com",
	"m.media-amazon.com",
}

var (
	imageExt   = regexp.MustCompile(`(?i)\.(jpe?g|png|webp|gif)$`)
	rangeTotal = regexp.MustCompile(`/(\d+)$`)
)

// Resolver probes candidate cover URLs from external sources in
// priority order. The zero value works with http.DefaultClient.
type Resolver struct {
	Client         *http.Client
	GoogleBooksKey string
	GoogleBooksURL string
	MinBytes       int
}

type Result struct {
	Image   string
	ISBN    string
	Authors string
}

func (r *Resolver) client() *http.Client {
	if r.Client != nil {
		return r.Client
	}
	return &http.Client{Timeout: 10 * time.Second}
}

func (r *Resolver) minBytes() int {
	if r.MinBytes > 0 {
		return r.MinBytes
	}
	return DefaultMinBytes
}

// IsLikelyImage is a cheap pre-filter applied before any network call.
func IsLikelyImage(raw string) bool {
	if !strings.HasPrefix(raw, "http") {
		return false
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return false
	}
	if imageExt.MatchString(parsed.Path) {
		return true
	}
	host := parsed.Host
	if strings.Contains(host, "gstatic") ||
		strings.Contains(host, "googleusercontent") ||
		strings.Contains(host, "books.google") {
		return true
	}
	q := parsed.RawQuery
	return strings.Contains(q, "img=") || strings.Contains(q, "zoom=")
}

// Sanitize rejects URLs that are clearly not a cover of this title:
// banned stock-photo words, and untrusted hosts with no title term.
func Sanitize(raw, title string) string {
	if !IsLikelyImage(raw) {
		return ""
	}
	lower := strings.ToLower(raw)
	for _, word := range bannedWords {
		if strings.Contains(lower, word) {
			return ""
		}
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	host := parsed.Host

	trusted := false
	for _, h := range trustedHosts {
		if strings.Contains(host, h) {
			trusted = true
			break
		}
	}

	titleMatches := false
	for _, term := range strings.Fields(strings.ToLower(title)) {
		if strings.Contains(lower, term) {
			titleMatches = true
			break
		}
	}

	if !trusted && !titleMatches {
		return ""
	}
	return raw
}

// BuildFallback returns a generated placeholder cover.
func BuildFallback(title, edition string) string {
	text := strings.TrimSpace(title + " " + edition)
	if text == "" {
		text = "Cover unavailable"
	}
	return "https://placehold.co/600x800/0ea5e9/ffffff?text=" + url.QueryEscape(text)
}

// Pick returns the first non-empty candidate.
func Pick(candidates ...string) string {
	for _, c := range candidates {
		if c != "" {
			return c
		}
	}
	return ""
}

func parseRangeTotal(header string) int {
	m := rangeTotal.FindStringSubmatch(header)
	if len(m) < 2 {
		return 0
	}
	n, _ := strconv.Atoi(m[1])
	return n
}

type headerInfo struct {
	imageType  bool
	length     int
	rangeTotal int
}

func readHeaders(res *http.Response) headerInfo {
	typ := strings.ToLower(res.Header.Get("Content-Type"))
	length, _ := strconv.Atoi(res.Header.Get("Content-Length"))
	return headerInfo{
		imageType:  strings.Contains(typ, "image"),
		length:     length,
		rangeTotal: parseRangeTotal(res.Header.Get("Content-Range")),
	}
}

// Validate confirms over HTTP that the URL serves a real image of at
// least minBytes: HEAD first, then a ranged GET counting streamed bytes
// when the headers cannot size the body. Returns the URL on success,
// empty string otherwise.
func (r *Resolver) Validate(ctx context.Context, raw string) string {
	if !IsLikelyImage(raw) {
		return ""
	}
	min := r.minBytes()

	if req, err := http.NewRequestWithContext(ctx, http.MethodHead, raw, nil); err == nil {
		if res, err := r.client().Do(req); err == nil {
			h := readHeaders(res)
			res.Body.Close()
			if res.StatusCode < 300 && h.imageType {
				if h.length >= min || h.rangeTotal >= min {
					return raw
				}
				if h.length == 0 && h.rangeTotal == 0 {
					// cannot size it from HEAD, accept
					return raw
				}
			}
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, raw, nil)
	if err != nil {
		return ""
	}
	req.Header.Set("Range", "bytes=0-2047")
	res, err := r.client().Do(req)
	if err != nil {
		return ""
	}
	defer res.Body.Close()

	if res.StatusCode >= 300 {
		return ""
	}
	h := readHeaders(res)
	if !h.imageType {
		return ""
	}
	if h.length >= min || h.rangeTotal >= min {
		return raw
	}
	if (h.length > 0 && h.length < min) || (h.rangeTotal > 0 && h.rangeTotal < min) {
		return ""
	}

	read, _ := io.Copy(io.Discard, io.LimitReader(res.Body, int64(min)))
	if int(read) >= min {
		return raw
	}
	return ""
}

// AmazonByISBN probes the well-known Amazon cover URL patterns.
func (r *Resolver) AmazonByISBN(ctx context.Context, isbn string) string {
	if isbn == "" {
		return ""
	}
	patterns := []string{
		fmt.Sprintf("https://images-na.ssl-images-amazon.com/images/P/%s.01._SL1200_.jpg", isbn),
		fmt.Sprintf("https://images-na.ssl-images-amazon.com/images/P/%s.01._SX500_.jpg", isbn),
		fmt.Sprintf("https://m.media-amazon.com/images/P/%s.01._SL1200_.jpg", isbn),
		fmt.Sprintf("https://m.media-amazon.com/images/P/%s.01._SX500_.jpg", isbn),
	}
	for _, u := range patterns {
		if ok := r.Validate(ctx, u); ok != "" {
			return ok
		}
	}
	return ""
}

// OpenLibraryByISBN checks the Open Library cover endpoint.
func (r *Resolver) OpenLibraryByISBN(ctx context.Context, isbn string) string {
	if isbn == "" {
		return ""
	}
	u := fmt.Sprintf("https://covers.openlibrary.org/b/isbn/%s-L.jpg", isbn)
	return r.Validate(ctx, u)
}

// Resolve runs the full candidate pipeline: Amazon by ISBN, Google
// Books, Open Library, the model-provided URL, then the placeholder.
func (r *Resolver) Resolve(ctx context.Context, title, edition, authors, aiImage, aiISBN string) Result {
	log := logging.FromContext(ctx)

	amazonImage := r.AmazonByISBN(ctx, aiISBN)

	google, err := r.GoogleBooks(ctx, title, edition, authors, aiISBN)
	if err != nil {
		log.Warn("cover: google books lookup failed", "title", title, "error", err)
	}

	derivedISBN := Pick(aiISBN, google.ISBN)
	openLibraryImage := r.OpenLibraryByISBN(ctx, derivedISBN)
	sanitizedAI := Sanitize(aiImage, title)

	return Result{
		Image: Pick(
			amazonImage,
			google.Image,
			openLibraryImage,
			sanitizedAI,
			BuildFallback(title, edition),
		),
		ISBN:    derivedISBN,
		Authors: Pick(authors, google.Authors),
	}
}
