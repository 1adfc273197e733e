package normalize

import (
	"testing"

	"github.com/gearloft/bulklister/internal/models"
)

func TestCleanText(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "hedged alternative",
			input:    "maybe Carbon or Aluminium",
			expected: "Carbon/Aluminium",
		},
		{
			name:     "unknown blanks out",
			input:    "unknown",
			expected: "",
		},
		{
			name:     "unknown inside phrase blanks out",
			input:    "Unknown brand",
			expected: "",
		},
		{
			name:     "n/a blanks out",
			input:    "N/A",
			expected: "",
		},
		{
			name:     "any blanks out",
			input:    "any",
			expected: "",
		},
		{
			name:     "various blanks out",
			input:    "various sizes",
			expected: "",
		},
		{
			name:     "trailing ish stripped",
			input:    "2019-ish",
			expected: "2019",
		},
		{
			name:     "trailing or so stripped",
			input:    "about 54cm or so",
			expected: "54cm",
		},
		{
			name:     "approximately stripped",
			input:    "approximately 56cm",
			expected: "56cm",
		},
		{
			name:     "title cases multi word",
			input:    "full carbon frame",
			expected: "Full Carbon Frame",
		},
		{
			name:     "hyphen compound cased per segment",
			input:    "full-suspension",
			expected: "Full-Suspension",
		},
		{
			name:     "existing upper casing preserved",
			input:    "SRAM red",
			expected: "SRAM Red",
		},
		{
			name:     "whitespace collapsed",
			input:    "  shimano   105  ",
			expected: "Shimano 105",
		},
		{
			name:     "empty stays empty",
			input:    "",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CleanText(tt.input); got != tt.expected {
				t.Errorf("CleanText(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestFirstOption(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"Carbon/Aluminium", "Carbon"},
		{"700c, 650b", "700c"},
		{"Steel", "Steel"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := FirstOption(tt.input); got != tt.expected {
			t.Errorf("FirstOption(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestEstimatedPrice(t *testing.T) {
	tests := []struct {
		name     string
		est      *models.PriceEstimate
		expected int
	}{
		{"midpoint rounded", &models.PriceEstimate{Min: 100, Max: 151}, 126},
		{"exact midpoint", &models.PriceEstimate{Min: 200, Max: 300}, 250},
		{"nil estimate", nil, 0},
		{"negative clamps to zero", &models.PriceEstimate{Min: -20, Max: -10}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := EstimatedPrice(tt.est); got != tt.expected {
				t.Errorf("EstimatedPrice = %d, want %d", got, tt.expected)
			}
		})
	}
}

func TestBuildTitle(t *testing.T) {
	tests := []struct {
		name          string
		brand, model  string
		year          string
		suggestedName string
		expected      string
	}{
		{"full identity", "Canyon", "Ultimate CF SL", "2021", "Road Bike", "Canyon Ultimate CF SL 2021"},
		{"missing year", "Canyon", "Ultimate", "", "Road Bike", "Canyon Ultimate"},
		{"falls back to suggested name", "", "", "", "road bike", "Road Bike"},
		{"nothing at all", "", "", "", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := BuildTitle(tt.brand, tt.model, tt.year, tt.suggestedName)
			if got != tt.expected {
				t.Errorf("BuildTitle = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestFormData(t *testing.T) {
	ai := &models.AIListingData{
		Brand:         "canyon",
		Model:         "ultimate cf sl",
		Year:          "2021",
		ItemType:      "road bike",
		Material:      "maybe Carbon or Aluminium",
		WheelSize:     "700c or 650b",
		Groupset:      "shimano 105",
		Condition:     "good",
		PriceEstimate: &models.PriceEstimate{Min: 900, Max: 1100},
	}

	form := FormData(ai, "Product 1")

	if form.Title != "Canyon Ultimate Cf Sl 2021" {
		t.Errorf("unexpected title: %q", form.Title)
	}
	if form.Material != "Carbon" {
		t.Errorf("material should take first option, got %q", form.Material)
	}
	if form.WheelSize != "700c" {
		t.Errorf("wheel size should take first option, got %q", form.WheelSize)
	}
	if form.Groupset != "Shimano 105" {
		t.Errorf("unexpected groupset: %q", form.Groupset)
	}
	if form.Price != 1000 {
		t.Errorf("expected midpoint price 1000, got %d", form.Price)
	}
}

func TestFormDataNilAnalysis(t *testing.T) {
	form := FormData(nil, "Product 2")

	if form.Title != "Product 2" {
		t.Errorf("expected suggested name title, got %q", form.Title)
	}
	if form.Brand != "" || form.Model != "" || form.Price != 0 {
		t.Error("nil analysis should yield an empty form requiring manual entry")
	}
}
