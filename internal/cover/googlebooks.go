package cover

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"
)

const googleBooksURL = "https://www.googleapis.com/books/v1/volumes"

var isbn13Type = regexp.MustCompile(`(?i)isbn[_\s]*13`)

type volumesResponse struct {
	Items []struct {
		VolumeInfo struct {
			Authors    []string `json:"authors"`
			ImageLinks struct {
				Large          string `json:"large"`
				Medium         string `json:"medium"`
				Thumbnail      string `json:"thumbnail"`
				SmallThumbnail string `json:"smallThumbnail"`
			} `json:"imageLinks"`
			IndustryIdentifiers []struct {
				Type       string `json:"type"`
				Identifier string `json:"identifier"`
			} `json:"industryIdentifiers"`
		} `json:"volumeInfo"`
	} `json:"items"`
}

// GoogleBooks looks up a volume by title/edition (plus ISBN when known)
// and returns the first sanitized cover candidate with its identifiers.
// Without an API key the lookup is skipped.
func (r *Resolver) GoogleBooks(ctx context.Context, title, edition, authors, isbn string) (Result, error) {
	if r.GoogleBooksKey == "" {
		return Result{}, nil
	}

	base := r.GoogleBooksURL
	if base == "" {
		base = googleBooksURL
	}

	query := strings.TrimSpace(fmt.Sprintf("%s %s %s", title, edition, authors))
	if isbn != "" {
		query += " isbn:" + isbn
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("maxResults", "5")
	params.Set("printType", "books")
	params.Set("projection", "lite")
	params.Set("key", r.GoogleBooksKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base+"?"+params.Encode(), nil)
	if err != nil {
		return Result{}, err
	}
	res, err := r.client().Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("google books: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return Result{}, fmt.Errorf("google books: status %d", res.StatusCode)
	}

	var data volumesResponse
	if err := json.NewDecoder(res.Body).Decode(&data); err != nil {
		return Result{}, fmt.Errorf("google books: decode: %w", err)
	}

	for _, item := range data.Items {
		links := item.VolumeInfo.ImageLinks
		candidates := []string{links.Large, links.Medium, links.Thumbnail, links.SmallThumbnail}

		for _, candidate := range candidates {
			if candidate == "" {
				continue
			}
			clean := Sanitize(strings.Replace(candidate, "http://", "https://", 1), title)
			if clean == "" {
				continue
			}

			var isbn13, anyISBN string
			for _, ident := range item.VolumeInfo.IndustryIdentifiers {
				normalized := normalizeISBN(ident.Identifier)
				if normalized == "" {
					continue
				}
				if isbn13Type.MatchString(ident.Type) && isbn13 == "" {
					isbn13 = normalized
				}
				if anyISBN == "" {
					anyISBN = normalized
				}
			}

			return Result{
				Image:   clean,
				ISBN:    Pick(isbn13, anyISBN),
				Authors: strings.Join(item.VolumeInfo.Authors, ", "),
			}, nil
		}
	}

	return Result{}, nil
}

var isbnStrip = regexp.MustCompile(`[^0-9Xx]`)

func normalizeISBN(value string) string {
	digits := isbnStrip.ReplaceAllString(value, "")
	if len(digits) == 10 || len(digits) == 13 {
		return strings.ToUpper(digits)
	}
	return ""
}
