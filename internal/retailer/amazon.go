package retailer

import (
	"fmt"

	"github.com/ecomm-asset-tools/syndicator/internal/catalog"
	"github.com/ecomm-asset-tools/syndicator/internal/identifiers"
)

// Amazon builds a gallery carousel per listing. Candidates carry a
// numeric carousel priority instead of a language, one GTIN fans out to
// every ASIN it maps to, and filenames follow the marketplace's
// MAIN/PTnn convention.
type Amazon struct {
	root string

	// marketplace maps a GTIN to the ASINs it is listed under.
	marketplace map[string][]string
}

func NewAmazon(root string, marketplace map[string][]string) *Amazon {
	return &Amazon{root: root, marketplace: marketplace}
}

func (a *Amazon) Name() string { return "Amazon" }
func (a *Amazon) Root() string { return a.root }

func (a *Amazon) Slots() []Slot {
	return []Slot{
		{Label: "Carousel", Keyword: "Carousel"},
		{Label: "Nutrition", Keyword: "Nutrition"},
	}
}

func (a *Amazon) RequiredColumns() []string {
	return []string{identifiers.ColumnGTIN}
}

func (a *Amazon) SaveID(rec identifiers.Record) string {
	return rec.GTIN
}

// Plan keeps the carousel ordered by priority, then appends the nutrition
// panel at the first free carousel position.
func (a *Amazon) Plan(grouped map[string][]catalog.Asset) []Planned {
	carousel := SelectCarousel(a.Name(), grouped["Carousel"])

	var plan []Planned
	for _, sel := range carousel {
		plan = append(plan, Planned{SlotLabel: "Carousel", Selection: sel})
	}

	if nutrition := SelectSingleBest(grouped["Nutrition"]); len(nutrition) > 0 {
		sel := nutrition[0]
		sel.Sequence = NextSequence(carousel)
		sel.LangCode = ""
		plan = append(plan, Planned{SlotLabel: "Nutrition", Selection: sel})
	}

	return plan
}

// Paths fans one selection out to every ASIN mapped for the GTIN. An
// unmapped GTIN yields no paths and the item is skipped for Amazon.
func (a *Amazon) Paths(saveID string, p Planned) []string {
	asins := a.marketplace[saveID]
	paths := make([]string, 0, len(asins))
	for _, asin := range asins {
		paths = append(paths, amazonFilename(asin, p.Sequence))
	}
	return paths
}

// amazonFilename follows the marketplace image naming requirement:
// position 1 is the MAIN image, later positions are PT01, PT02, ...
// zero-padded to two digits.
func amazonFilename(asin string, sequence int) string {
	if sequence <= 1 {
		return fmt.Sprintf("%s.MAIN.jpg", asin)
	}
	return fmt.Sprintf("%s.PT%02d.jpg", asin, sequence-1)
}
