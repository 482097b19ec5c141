package catalog

import (
	"context"
	"strings"
)

// AssetState is the lifecycle state the DAM reports for an asset.
type AssetState string

const (
	StateCurrent    AssetState = "Current"
	StateRestricted AssetState = "Restricted"
)

// Language is the resolved language bucket for an asset. An asset tagged
// with both English and French-Canadian is Multilingual.
type Language string

const (
	English      Language = "English"
	French       Language = "French"
	Multilingual Language = "Multilingual"
)

// Code returns the short language token used in retailer filenames.
func (l Language) Code() string {
	switch l {
	case English:
		return "en"
	case French:
		return "fr"
	default:
		return "ml"
	}
}

// Asset is one downloadable image instance discovered for a product.
type Asset struct {
	Title        string
	Language     Language
	Slot         string
	State        AssetState
	Priority     int
	Restrictions []string
	URL          string
}

// Source abstracts where candidate assets for a product come from.
// Implementations return assets grouped by slot keyword and must honor
// ctx cancellation between slots.
type Source interface {
	Assets(ctx context.Context, bmn string, slots []string) (map[string][]Asset, error)
}

// ClassifyTitle maps a display title to a language bucket by substring.
// The heuristic matches the DAM portal's naming convention (_fr / _en
// suffixes in filenames) and is kept here so the selector never sees raw
// titles.
func ClassifyTitle(title string) Language {
	lower := strings.ToLower(title)
	if strings.Contains(lower, "_fr") {
		return French
	}
	if strings.Contains(lower, "_en") {
		return English
	}
	return Multilingual
}

// ClassifyLanguages maps the DAM's language list to a bucket. The DAM
// tags assets "English" and/or "French-Canadian"; both present means a
// single bilingual asset.
func ClassifyLanguages(languages []string) Language {
	var en, fr bool
	for _, l := range languages {
		switch {
		case strings.EqualFold(l, "English"):
			en = true
		case strings.EqualFold(l, "French-Canadian") || strings.EqualFold(l, "French"):
			fr = true
		}
	}
	switch {
	case en && fr:
		return Multilingual
	case fr:
		return French
	default:
		return English
	}
}

// IsImageTitle reports whether a portal tile title names an image file.
func IsImageTitle(title string) bool {
	lower := strings.ToLower(strings.TrimSpace(title))
	return strings.HasSuffix(lower, ".tif") ||
		strings.HasSuffix(lower, ".jpg") ||
		strings.HasSuffix(lower, ".png")
}
