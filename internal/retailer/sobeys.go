package retailer

import (
	"fmt"

	"github.com/ecomm-asset-tools/syndicator/internal/catalog"
	"github.com/ecomm-asset-tools/syndicator/internal/identifiers"
)

// Sobeys ingests one file per language per slot, keyed by Article ID.
type Sobeys struct {
	root string
}

func NewSobeys(root string) *Sobeys {
	return &Sobeys{root: root}
}

func (s *Sobeys) Name() string { return "Sobeys" }
func (s *Sobeys) Root() string { return s.root }

func (s *Sobeys) Slots() []Slot {
	return []Slot{
		{Label: "Mobile Hero", Keyword: "Mobile Hero"},
		{Label: "Front - 3D", Keyword: "Front - 3D"},
		{Label: "Ingredients", Keyword: "Ingredients"},
		{Label: "Nutrition", Keyword: "Nutrition"},
	}
}

func (s *Sobeys) RequiredColumns() []string {
	return []string{identifiers.ColumnArticleID}
}

func (s *Sobeys) SaveID(rec identifiers.Record) string {
	return rec.ArticleID
}

func (s *Sobeys) Plan(grouped map[string][]catalog.Asset) []Planned {
	var plan []Planned
	for _, slot := range s.Slots() {
		for _, sel := range SelectDualLanguage(slot.Label, grouped[slot.Keyword]) {
			plan = append(plan, Planned{SlotLabel: slot.Label, Selection: sel})
		}
	}
	return plan
}

func (s *Sobeys) Paths(saveID string, p Planned) []string {
	return []string{sobeysFilename(saveID, p.LangCode, p.SlotLabel)}
}

// sobeysFilename builds Sobeys' fixed naming grammar. Token order and
// separators are validated by the retailer's ingestion pipeline; do not
// reorder.
func sobeysFilename(articleID, langCode, slotLabel string) string {
	codes := map[string]string{
		"Mobile Hero": "left",
		"Front - 3D":  "front",
		"Ingredients": "ing",
		"Nutrition":   "nfp",
	}
	code, ok := codes[slotLabel]
	if !ok {
		code = "na"
	}

	switch slotLabel {
	case "Mobile Hero":
		return fmt.Sprintf("%s_EA_%s_na_%s_na.jpg", articleID, langCode, code)
	case "Front - 3D":
		return fmt.Sprintf("%s_EA_%s_primary_%s_na.jpg", articleID, langCode, code)
	default:
		return fmt.Sprintf("%s_EA_%s_na_na_%s.jpg", articleID, langCode, code)
	}
}
