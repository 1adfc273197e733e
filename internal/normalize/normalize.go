// Package normalize maps raw analysis output onto the canonical listing
// form. It is pure text transformation with no I/O so it can be tested in
// isolation.
package normalize

import (
	"math"
	"strings"
	"unicode"

	"github.com/gearloft/bulklister/internal/models"
)

// uncertainMarkers blank out any field the model hedged on rather than
// surfacing a fabricated fact.
var uncertainMarkers = []string{"unknown", "n/a", "unclear", "various"}

// leadingHedges are qualifiers stripped from the front of a value.
var leadingHedges = []string{
	"maybe", "approximately", "approx.", "approx", "about",
	"probably", "possibly", "likely", "around", "roughly",
}

// trailingHedges are qualifiers stripped from the end of a value.
var trailingHedges = []string{"-ish", "or so"}

// FormData builds ProductFormData from one group's raw analysis result.
// A nil result yields an empty form seeded only with the group's suggested
// name, leaving everything to manual entry.
func FormData(ai *models.AIListingData, suggestedName string) models.ProductFormData {
	if ai == nil {
		return models.ProductFormData{Title: CleanText(suggestedName)}
	}

	form := models.ProductFormData{
		Brand:            CleanText(ai.Brand),
		Model:            CleanText(ai.Model),
		Year:             CleanText(ai.Year),
		ItemType:         CleanText(ai.ItemType),
		FrameSize:        CleanText(ai.FrameSize),
		Groupset:         CleanText(ai.Groupset),
		WheelSize:        FirstOption(CleanText(ai.WheelSize)),
		Compatibility:    CleanText(ai.Compatibility),
		Material:         FirstOption(CleanText(ai.Material)),
		ApparelSize:      CleanText(ai.ApparelSize),
		ApparelFit:       CleanText(ai.ApparelFit),
		Condition:        CleanText(ai.Condition),
		ConditionDetails: strings.TrimSpace(ai.ConditionDetails),
		Price:            EstimatedPrice(ai.PriceEstimate),
	}

	form.Title = BuildTitle(form.Brand, form.Model, form.Year, suggestedName)
	return form
}

// BuildTitle joins brand, model, and year when any are present, otherwise
// falls back to the group's suggested name.
func BuildTitle(brand, model, year, suggestedName string) string {
	parts := make([]string, 0, 3)
	for _, p := range []string{brand, model, year} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) == 0 {
		return CleanText(suggestedName)
	}
	return strings.Join(parts, " ")
}

// CleanText normalizes one raw attribute value: uncertain values go to
// empty, hedging qualifiers are stripped, "X or Y" becomes "X/Y", and
// multi-word values are title-cased per hyphen/slash segment.
func CleanText(s string) string {
	s = strings.TrimSpace(s)
	if s == "" || IsUncertain(s) {
		return ""
	}

	lower := strings.ToLower(s)
	for _, hedge := range leadingHedges {
		if strings.HasPrefix(lower, hedge+" ") {
			s = strings.TrimSpace(s[len(hedge):])
			lower = strings.ToLower(s)
		}
	}
	for _, hedge := range trailingHedges {
		if strings.HasSuffix(lower, hedge) {
			s = strings.TrimSpace(s[:len(s)-len(hedge)])
			lower = strings.ToLower(s)
		}
	}
	if s == "" {
		return ""
	}

	s = strings.Join(strings.Fields(s), " ")
	s = strings.ReplaceAll(s, " or ", "/")

	return titleCase(s)
}

// IsUncertain reports whether a raw value is an unknown/uncertain marker
// rather than a usable fact.
func IsUncertain(s string) bool {
	lower := strings.ToLower(strings.TrimSpace(s))
	if lower == "any" {
		return true
	}
	for _, marker := range uncertainMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

// FirstOption reduces a value listing alternatives to its first one, for
// single-valued constrained fields like material and wheel size.
func FirstOption(s string) string {
	for _, sep := range []string{"/", ","} {
		if idx := strings.Index(s, sep); idx != -1 {
			s = s[:idx]
		}
	}
	return strings.TrimSpace(s)
}

// EstimatedPrice returns the midpoint of the service's estimate range,
// rounded to the nearest whole currency unit. No estimate means 0, which
// forces explicit user entry before the product can validate.
func EstimatedPrice(est *models.PriceEstimate) int {
	if est == nil {
		return 0
	}
	mid := (est.Min + est.Max) / 2
	if mid < 0 {
		return 0
	}
	return int(math.Round(mid))
}

// titleCase capitalizes the first letter of every word, treating hyphen
// and slash joined compounds per segment and leaving the rest of each
// segment's casing alone (so "SRAM" and "105" survive).
func titleCase(s string) string {
	words := strings.Fields(s)
	for i, word := range words {
		words[i] = capitalizeSegments(capitalizeSegments(word, "-"), "/")
	}
	return strings.Join(words, " ")
}

func capitalizeSegments(word, sep string) string {
	segments := strings.Split(word, sep)
	for i, seg := range segments {
		if seg == "" {
			continue
		}
		runes := []rune(seg)
		runes[0] = unicode.ToUpper(runes[0])
		segments[i] = string(runes)
	}
	return strings.Join(segments, sep)
}
