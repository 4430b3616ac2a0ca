package heuristics

import (
	"fmt"
	"math"
	"strings"
	"unicode/utf8"

	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/shopspring/decimal"
)

const (
	placeholderText      = "lorem ipsum"
	minDescriptionLength = 50
	defaultRangeKey      = "default"
)

// CounterfeitKeywords is scanned in order; the order is kept in the finding message.
var CounterfeitKeywords = []string{
	"replica", "fake", "copy", "imitation", "knockoff", "counterfeit",
	"unauthorized", "unlicensed", "bootleg", "pirated", "duplicate",
	"reproduction", "faux", "knock-off", "knock off", "repro",
	"aftermarket", "compatible", "alternative", "substitute", "test",
	"asdf", "lorem ipsum", "example",
}

// SuspiciousBrandWords trigger the brand blacklist check.
var SuspiciousBrandWords = []string{"fake", "replica", "copy", "imitation", "knockoff", "counterfeit"}

type PriceRange struct {
	Key string
	Min decimal.Decimal
	Max decimal.Decimal
}

// PriceRanges is matched first-to-last. A key matches when its first comma
// segment is a substring of the lowercased category.
var PriceRanges = []PriceRange{
	{Key: "electronics", Min: decimal.NewFromInt(10), Max: decimal.NewFromInt(5000)},
	{Key: "clothing, shoes & jewelry", Min: decimal.NewFromInt(5), Max: decimal.NewFromInt(2500)},
	{Key: "automotive", Min: decimal.NewFromInt(10), Max: decimal.NewFromInt(10000)},
	{Key: "home & kitchen", Min: decimal.NewFromInt(5), Max: decimal.NewFromInt(3000)},
	{Key: "office products", Min: decimal.NewFromInt(1), Max: decimal.NewFromInt(1000)},
	{Key: "beauty & personal care", Min: decimal.NewFromInt(2), Max: decimal.NewFromInt(500)},
	{Key: "health & household", Min: decimal.NewFromInt(2), Max: decimal.NewFromInt(800)},
}

var DefaultPriceRange = PriceRange{Key: defaultRangeKey, Min: decimal.NewFromInt(1), Max: decimal.NewFromInt(20000)}

// CategoryKeywords lists words expected in a listing for each price-range key.
var CategoryKeywords = map[string][]string{
	"electronics":               {"electronic", "phone", "tv", "camera", "computer", "headphone", "cable", "charger", "laptop", "tablet"},
	"clothing, shoes & jewelry": {"shirt", "pant", "shoe", "dress", "jewelry", "watch", "hat", "sock", "boot", "sandal", "jeans", "coat", "nike", "adidas"},
	"automotive":                {"car", "tire", "motor", "engine", "wheel", "vehicle", "oil", "filter", "brake"},
	"home & kitchen":            {"kitchen", "furniture", "decor", "towel", "pan", "knife", "blender", "sofa", "lamp"},
	"office products":           {"pen", "paper", "desk", "chair", "printer", "stapler", "ink", "toner"},
	"beauty & personal care":    {"lotion", "shampoo", "makeup", "lipstick", "cream", "perfume", "mascara"},
	"health & household":        {"vitamins", "medicine", "cleaner", "soap", "tissue", "supplement"},
}

// ScanKeywords returns every counterfeit keyword contained in text, case-insensitively.
func ScanKeywords(text string) []string {
	lower := strings.ToLower(text)
	var matches []string
	for _, kw := range CounterfeitKeywords {
		if strings.Contains(lower, kw) {
			matches = append(matches, kw)
		}
	}
	return matches
}

// CheckKeywords produces one critical text finding listing all matched keywords.
func CheckKeywords(text string) (*Finding, []string) {
	matches := ScanKeywords(text)
	if len(matches) == 0 {
		return nil, nil
	}
	return &Finding{
		Type:     TypeText,
		Severity: SeverityCritical,
		Message:  "Counterfeit keywords detected: " + strings.Join(matches, ", "),
	}, matches
}

// MatchPriceRange picks the first range whose key prefix occurs in category,
// falling back to DefaultPriceRange.
func MatchPriceRange(category string) PriceRange {
	lower := strings.ToLower(category)
	for _, r := range PriceRanges {
		segment := strings.SplitN(r.Key, ",", 2)[0]
		if strings.Contains(lower, segment) {
			return r
		}
	}
	return DefaultPriceRange
}

func CheckPrice(price decimal.Decimal, category string) *Finding {
	r := MatchPriceRange(category)
	if !price.LessThan(r.Min) && !price.GreaterThan(r.Max) {
		return nil
	}

	severity := SeverityHigh
	if price.GreaterThan(r.Max) {
		severity = SeverityCritical
	}

	var msg string
	if r.Key == defaultRangeKey {
		msg = fmt.Sprintf("Suspicious price: $%s. The price is significantly outside the typical range for products.", price.String())
	} else {
		msg = fmt.Sprintf("Suspicious price: $%s. Expected range for '%s' is $%s-$%s.", price.String(), r.Key, r.Min.String(), r.Max.String())
	}
	return &Finding{Type: TypePricing, Severity: severity, Message: msg}
}

// CheckCategoryRelevance passes when the matched category has no keyword set or
// any of its keywords appears in the title or description.
func CheckCategoryRelevance(category, title, description string) *Finding {
	r := MatchPriceRange(category)
	keywords := CategoryKeywords[r.Key]
	if len(keywords) == 0 {
		return nil
	}
	haystack := strings.ToLower(title) + " " + strings.ToLower(description)
	for _, kw := range keywords {
		if strings.Contains(haystack, kw) {
			return nil
		}
	}
	return &Finding{
		Type:     TypeCategory,
		Severity: SeverityHigh,
		Message:  fmt.Sprintf("Product seems irrelevant for its category '%s'. This is a common indicator of a fraudulent or low-quality listing.", category),
	}
}

func CheckBrand(brand string) *Finding {
	if !IsSuspiciousBrand(brand) {
		return nil
	}
	return &Finding{
		Type:     TypeBrand,
		Severity: SeverityCritical,
		Message:  "Suspicious brand name: " + brand,
	}
}

func IsSuspiciousBrand(brand string) bool {
	lower := strings.ToLower(brand)
	for _, w := range SuspiciousBrandWords {
		if strings.Contains(lower, w) {
			return true
		}
	}
	return false
}

// CheckDescription flags descriptions shorter than 50 characters unless they
// are placeholder text, which is reported by the text indicators instead.
func CheckDescription(description string) *Finding {
	if utf8.RuneCountInString(description) >= minDescriptionLength {
		return nil
	}
	if strings.Contains(strings.ToLower(description), placeholderText) {
		return nil
	}
	return &Finding{
		Type:     TypeDescription,
		Severity: SeverityMedium,
		Message:  "Description too short - suspicious",
	}
}

// TextIndicators returns secondary text signals. Keyword hits are not repeated
// here so that the keyword penalty stays single.
func TextIndicators(brand, title, text string) []string {
	brandLower := strings.ToLower(brand)
	textLower := strings.ToLower(text)

	var out []string
	if !strings.Contains(strings.ToLower(title), brandLower) && !strings.Contains(textLower, brandLower) {
		out = append(out, "Brand name not mentioned in title or description.")
	}
	if strings.Contains(textLower, placeholderText) {
		out = append(out, "Placeholder text (Lorem Ipsum) found.")
	}
	return out
}

// Lookalike returns the known brand that brand is a near miss of, if any. An
// exact (case-insensitive) match is not a look-alike.
func Lookalike(brand string, known []string) (string, bool) {
	lower := strings.ToLower(strings.TrimSpace(brand))
	if lower == "" {
		return "", false
	}

	var thresh int
	switch l := utf8.RuneCountInString(lower); {
	case l <= 4:
		thresh = 1
	case l <= 8:
		thresh = 2
	default:
		thresh = int(math.Ceil(float64(l) * 0.15))
	}

	best, bestDist := "", thresh+1
	for _, k := range known {
		kl := strings.ToLower(k)
		if kl == lower {
			return "", false
		}
		if d := fuzzy.LevenshteinDistance(lower, kl); d <= thresh && d < bestDist {
			best, bestDist = k, d
		}
	}
	return best, best != ""
}
