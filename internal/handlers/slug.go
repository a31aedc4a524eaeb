package handlers

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/campusbooks/marketplace/internal/models"
)

var (
	slugStrip = regexp.MustCompile(`[^a-z0-9]+`)
	slugTrim  = regexp.MustCompile(`^-+|-+$`)
	specSplit = regexp.MustCompile(`\r?\n|,`)
)

// Slugify lowercases a listing name into its public product id.
func Slugify(text string) string {
	s := strings.ToLower(strings.TrimSpace(text))
	s = slugStrip.ReplaceAllString(s, "-")
	s = slugTrim.ReplaceAllString(s, "")
	if s == "" {
		s = fmt.Sprintf("book-%d", time.Now().UnixMilli())
	}
	return s
}

// ParseSpecs splits a free-text specs field on newlines and commas.
func ParseSpecs(value string) []string {
	parts := specSplit.Split(value, -1)
	specs := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			specs = append(specs, p)
		}
	}
	return specs
}

// uniqueSlugForName appends a counter until the slug is free.
func uniqueSlugForName(db *gorm.DB, name string) (string, error) {
	base := Slugify(name)
	slug := base
	for counter := 1; ; counter++ {
		var count int64
		if err := db.Model(&models.Product{}).Where("slug = ?", slug).Count(&count).Error; err != nil {
			return "", err
		}
		if count == 0 {
			return slug, nil
		}
		slug = fmt.Sprintf("%s-%d", base, counter)
	}
}
