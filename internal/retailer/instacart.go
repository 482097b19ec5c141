package retailer

import (
	"fmt"

	"github.com/ecomm-asset-tools/syndicator/internal/catalog"
	"github.com/ecomm-asset-tools/syndicator/internal/identifiers"
)

// Instacart takes exactly one file per slot, keyed by GTIN, with no
// language token in the filename.
type Instacart struct {
	root string
}

func NewInstacart(root string) *Instacart {
	return &Instacart{root: root}
}

func (i *Instacart) Name() string { return "Instacart" }
func (i *Instacart) Root() string { return i.root }

func (i *Instacart) Slots() []Slot {
	return []Slot{
		{Label: "Mobile Hero", Keyword: "Mobile Hero"},
		{Label: "Left Front - 3D", Keyword: "Left Front - 3D"},
		{Label: "Right Front - 3D", Keyword: "Right Front - 3D"},
		{Label: "Ingredients", Keyword: "Ingredients"},
		{Label: "Nutrition", Keyword: "Nutrition"},
	}
}

func (i *Instacart) RequiredColumns() []string {
	return []string{identifiers.ColumnGTIN}
}

func (i *Instacart) SaveID(rec identifiers.Record) string {
	return rec.GTIN
}

func (i *Instacart) Plan(grouped map[string][]catalog.Asset) []Planned {
	var plan []Planned
	for _, slot := range i.Slots() {
		for _, sel := range SelectSingleBest(grouped[slot.Keyword]) {
			plan = append(plan, Planned{SlotLabel: slot.Label, Selection: sel})
		}
	}
	return plan
}

func (i *Instacart) Paths(saveID string, p Planned) []string {
	return []string{instacartFilename(saveID, p.SlotLabel)}
}

func instacartFilename(gtin, slotLabel string) string {
	suffixes := map[string]string{
		"Mobile Hero":      "main",
		"Left Front - 3D":  "sideleft",
		"Right Front - 3D": "sideright",
		"Ingredients":      "ing",
		"Nutrition":        "nut",
	}
	suffix, ok := suffixes[slotLabel]
	if !ok {
		suffix = "na"
	}
	return fmt.Sprintf("%s-%s.jpg", gtin, suffix)
}
