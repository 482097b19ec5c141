// Package retailer holds the closed set of retailer rules: which asset
// slots each retailer wants, how assets are selected for a slot, and the
// exact filename grammar the retailer's ingestion pipeline validates.
package retailer

import (
	"fmt"
	"strings"

	"github.com/ecomm-asset-tools/syndicator/internal/catalog"
	"github.com/ecomm-asset-tools/syndicator/internal/identifiers"
)

// Slot is one named kind of picture a retailer wants. Label is the
// retailer-facing name used in filename resolution; Keyword is the term
// used to find candidates in the asset source.
type Slot struct {
	Label   string
	Keyword string
}

// Selection is one asset chosen for download, with its resolved language
// code (dual-language retailers) or carousel sequence (Amazon).
type Selection struct {
	Asset    catalog.Asset
	LangCode string
	Sequence int
}

// Planned is a selection bound to the slot it was made for.
type Planned struct {
	SlotLabel string
	Selection
}

// Rule is the per-retailer strategy. Implementations are immutable and
// their Plan methods are pure: same grouped candidates, same plan.
type Rule interface {
	Name() string
	Slots() []Slot

	// RequiredColumns names the identifier columns this retailer needs
	// beyond BMN.
	RequiredColumns() []string

	// SaveID returns the destination identifier for a record, or "" when
	// the record cannot be processed for this retailer.
	SaveID(rec identifiers.Record) string

	// Root is the destination directory for this retailer's files.
	Root() string

	// Plan decides which of the grouped candidate assets to download.
	Plan(grouped map[string][]catalog.Asset) []Planned

	// Paths resolves one planned selection to its destination filenames,
	// relative to Root. More than one path means marketplace-ID fan-out:
	// the executor fetches the source bytes once and writes every path.
	Paths(saveID string, p Planned) []string
}

// Both selects every registered retailer.
const Both = "Both"

// Registry is the closed, ordered rule set loaded once at process start.
type Registry struct {
	order []Rule
	byKey map[string]Rule
}

func NewRegistry(rules ...Rule) *Registry {
	r := &Registry{byKey: make(map[string]Rule, len(rules))}
	for _, rule := range rules {
		r.order = append(r.order, rule)
		r.byKey[strings.ToLower(rule.Name())] = rule
	}
	return r
}

// For resolves a retailer selection to the rules to run. "Both" means
// every registered retailer, in registration order.
func (r *Registry) For(selection string) ([]Rule, error) {
	if strings.EqualFold(selection, Both) {
		return r.order, nil
	}
	rule, ok := r.byKey[strings.ToLower(selection)]
	if !ok {
		return nil, fmt.Errorf("unknown retailer: %q", selection)
	}
	return []Rule{rule}, nil
}

// RequiredColumns is the union of the required identifier columns across
// a set of rules, in first-seen order.
func RequiredColumns(rules []Rule) []string {
	var cols []string
	seen := make(map[string]bool)
	for _, rule := range rules {
		for _, c := range rule.RequiredColumns() {
			if !seen[c] {
				seen[c] = true
				cols = append(cols, c)
			}
		}
	}
	return cols
}
