package retailer

import (
	"sort"

	"github.com/ecomm-asset-tools/syndicator/internal/catalog"
)

// SlotMobileHero is the hero slot label shared by the dual-language
// retailers. Hero imagery is locale-specific creative, so it gets its own
// selection rule.
const SlotMobileHero = "Mobile Hero"

// SelectDualLanguage picks assets for a retailer that serves English and
// French shoppers separately. For the hero slot, English and French are
// downloaded individually when present and a bilingual asset never
// substitutes. For every other slot a single bilingual asset wins;
// English and/or French are the fallback.
func SelectDualLanguage(slotLabel string, candidates []catalog.Asset) []Selection {
	en, fr, ml := partition(candidates)

	var picks []catalog.Asset
	if slotLabel == SlotMobileHero {
		if en != nil {
			picks = append(picks, *en)
		}
		if fr != nil {
			picks = append(picks, *fr)
		}
	} else {
		switch {
		case ml != nil:
			picks = append(picks, *ml)
		default:
			if en != nil {
				picks = append(picks, *en)
			}
			if fr != nil {
				picks = append(picks, *fr)
			}
		}
	}

	selections := make([]Selection, 0, len(picks))
	for _, a := range picks {
		selections = append(selections, Selection{Asset: a, LangCode: a.Language.Code()})
	}
	return selections
}

// SelectSingleBest picks exactly one asset: pure English, else
// bilingual, else nothing. French alone is never chosen — that asymmetry
// is a retailer content requirement, not an oversight.
func SelectSingleBest(candidates []catalog.Asset) []Selection {
	en, _, ml := partition(candidates)

	switch {
	case en != nil:
		return []Selection{{Asset: *en, LangCode: en.Language.Code()}}
	case ml != nil:
		return []Selection{{Asset: *ml, LangCode: ml.Language.Code()}}
	default:
		return nil
	}
}

// SelectCarousel picks gallery assets by carousel priority: at most one
// candidate per priority value (first seen wins), ordered ascending.
// Candidates carrying retailer restrictions that do not include the given
// retailer are disqualified outright.
func SelectCarousel(retailerName string, candidates []catalog.Asset) []Selection {
	seen := make(map[int]bool)
	var selections []Selection
	for _, a := range candidates {
		if restrictedFor(retailerName, a.Restrictions) {
			continue
		}
		if seen[a.Priority] {
			continue
		}
		seen[a.Priority] = true
		selections = append(selections, Selection{Asset: a, Sequence: a.Priority})
	}

	sort.SliceStable(selections, func(i, j int) bool {
		return selections[i].Sequence < selections[j].Sequence
	})
	return selections
}

// NextSequence returns the first free carousel position after the given
// selections: max sequence + 1, or 1 when nothing was selected.
func NextSequence(selections []Selection) int {
	next := 1
	for _, s := range selections {
		if s.Sequence >= next {
			next = s.Sequence + 1
		}
	}
	return next
}

// partition splits candidates into exclusive English, French and
// bilingual buckets, keeping the first candidate of each. An asset
// classified Multilingual is never counted as English or French.
func partition(candidates []catalog.Asset) (en, fr, ml *catalog.Asset) {
	for i := range candidates {
		a := candidates[i]
		switch a.Language {
		case catalog.English:
			if en == nil {
				en = &a
			}
		case catalog.French:
			if fr == nil {
				fr = &a
			}
		case catalog.Multilingual:
			if ml == nil {
				ml = &a
			}
		}
	}
	return en, fr, ml
}

// restrictedFor reports whether a restriction list disqualifies an asset
// for the named retailer: any restriction tags present that do not
// include the retailer mean the asset is off limits.
func restrictedFor(retailerName string, restrictions []string) bool {
	if len(restrictions) == 0 {
		return false
	}
	for _, r := range restrictions {
		if r == retailerName {
			return false
		}
	}
	return true
}
