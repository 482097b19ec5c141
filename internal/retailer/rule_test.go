package retailer

import (
	"reflect"
	"testing"

	"github.com/ecomm-asset-tools/syndicator/internal/catalog"
	"github.com/ecomm-asset-tools/syndicator/internal/identifiers"
)

func TestSobeysFilenames(t *testing.T) {
	tests := []struct {
		slot     string
		lang     string
		expected string
	}{
		{"Mobile Hero", "en", "A1_EA_en_na_left_na.jpg"},
		{"Mobile Hero", "fr", "A1_EA_fr_na_left_na.jpg"},
		{"Front - 3D", "ml", "A1_EA_ml_primary_front_na.jpg"},
		{"Ingredients", "ml", "A1_EA_ml_na_na_ing.jpg"},
		{"Nutrition", "en", "A1_EA_en_na_na_nfp.jpg"},
		{"Mystery Slot", "en", "A1_EA_en_na_na_na.jpg"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			if got := sobeysFilename("A1", tt.lang, tt.slot); got != tt.expected {
				t.Errorf("sobeysFilename(%q, %q) = %q, want %q", tt.lang, tt.slot, got, tt.expected)
			}
		})
	}
}

func TestInstacartFilenames(t *testing.T) {
	tests := []struct {
		slot     string
		expected string
	}{
		{"Mobile Hero", "777-main.jpg"},
		{"Left Front - 3D", "777-sideleft.jpg"},
		{"Right Front - 3D", "777-sideright.jpg"},
		{"Ingredients", "777-ing.jpg"},
		{"Nutrition", "777-nut.jpg"},
		{"Mystery Slot", "777-na.jpg"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			if got := instacartFilename("777", tt.slot); got != tt.expected {
				t.Errorf("instacartFilename(%q) = %q, want %q", tt.slot, got, tt.expected)
			}
		})
	}
}

func TestAmazonFilenames(t *testing.T) {
	tests := []struct {
		sequence int
		expected string
	}{
		{1, "B0TEST.MAIN.jpg"},
		{2, "B0TEST.PT01.jpg"},
		{3, "B0TEST.PT02.jpg"},
		{11, "B0TEST.PT10.jpg"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			if got := amazonFilename("B0TEST", tt.sequence); got != tt.expected {
				t.Errorf("amazonFilename(%d) = %q, want %q", tt.sequence, got, tt.expected)
			}
		})
	}
}

func TestAmazonFanOut(t *testing.T) {
	amazon := NewAmazon("/downloads/amazon", map[string][]string{
		"777": {"B0AAA", "B0BBB", "B0CCC"},
	})

	p := Planned{SlotLabel: "Carousel", Selection: Selection{Sequence: 1}}
	paths := amazon.Paths("777", p)

	expected := []string{"B0AAA.MAIN.jpg", "B0BBB.MAIN.jpg", "B0CCC.MAIN.jpg"}
	if !reflect.DeepEqual(paths, expected) {
		t.Errorf("Expected fan-out %v, got %v", expected, paths)
	}

	if got := amazon.Paths("unmapped", p); len(got) != 0 {
		t.Errorf("An unmapped GTIN must yield no destination paths, got %v", got)
	}
}

func TestAmazonPlanAppendsNutritionAfterCarousel(t *testing.T) {
	amazon := NewAmazon("/downloads/amazon", nil)

	grouped := map[string][]catalog.Asset{
		"Carousel": {
			{Title: "c1.jpg", Priority: 1},
			{Title: "c1b.jpg", Priority: 1},
			{Title: "c3.jpg", Priority: 3},
			{Title: "c2.jpg", Priority: 2},
		},
		"Nutrition": {
			{Title: "nfp_en.jpg", Language: catalog.English},
		},
	}

	plan := amazon.Plan(grouped)
	if len(plan) != 4 {
		t.Fatalf("Expected 3 carousel picks + 1 nutrition, got %d", len(plan))
	}

	last := plan[len(plan)-1]
	if last.SlotLabel != "Nutrition" || last.Sequence != 4 {
		t.Errorf("Nutrition must take the next free sequence (4), got slot=%s seq=%d", last.SlotLabel, last.Sequence)
	}
}

func TestRegistryFor(t *testing.T) {
	registry := NewRegistry(
		NewSobeys("/d/sobeys"),
		NewInstacart("/d/instacart"),
		NewAmazon("/d/amazon", nil),
	)

	rules, err := registry.For("sobeys")
	if err != nil || len(rules) != 1 || rules[0].Name() != "Sobeys" {
		t.Errorf("Expected the Sobeys rule, got %v (err %v)", rules, err)
	}

	rules, err = registry.For(Both)
	if err != nil || len(rules) != 3 {
		t.Errorf("Expected all rules for Both, got %d (err %v)", len(rules), err)
	}

	if _, err := registry.For("Walmart"); err == nil {
		t.Error("Expected an error for an unknown retailer")
	}
}

func TestRequiredColumnsUnion(t *testing.T) {
	rules := []Rule{NewSobeys(""), NewInstacart(""), NewAmazon("", nil)}
	cols := RequiredColumns(rules)
	expected := []string{identifiers.ColumnArticleID, identifiers.ColumnGTIN}
	if !reflect.DeepEqual(cols, expected) {
		t.Errorf("Expected %v, got %v", expected, cols)
	}
}

func TestSobeysPlan(t *testing.T) {
	sobeys := NewSobeys("/d/sobeys")
	grouped := map[string][]catalog.Asset{
		"Mobile Hero": {
			{Title: "x_en.jpg", Language: catalog.English},
			{Title: "y_fr.jpg", Language: catalog.French},
		},
		"Nutrition": {
			{Title: "nfp.jpg", Language: catalog.Multilingual},
		},
	}

	plan := sobeys.Plan(grouped)
	if len(plan) != 3 {
		t.Fatalf("Expected 2 hero + 1 nutrition selections, got %d", len(plan))
	}

	var files []string
	for _, p := range plan {
		files = append(files, sobeys.Paths("A1", p)...)
	}
	expected := []string{
		"A1_EA_en_na_left_na.jpg",
		"A1_EA_fr_na_left_na.jpg",
		"A1_EA_ml_na_na_nfp.jpg",
	}
	if !reflect.DeepEqual(files, expected) {
		t.Errorf("Expected %v, got %v", expected, files)
	}
}
