package providers

import (
	"encoding/json"
	"fmt"
	"os"
	"slices"
	"sort"
	"strings"
)

// BrandReferences maps a lowercased brand name to the feature vector of a
// known genuine product image.
type BrandReferences struct {
	features map[string][]float64
	names    []string
}

func NewBrandReferences(features map[string][]float64) *BrandReferences {
	refs := &BrandReferences{features: make(map[string][]float64, len(features))}
	for name, vec := range features {
		name = strings.TrimSpace(name)
		refs.features[strings.ToLower(name)] = vec
		refs.names = append(refs.names, name)
	}
	sort.Strings(refs.names)
	return refs
}

// LoadBrandReferences reads a JSON object of brand -> feature vector. An empty
// path yields an empty registry.
func LoadBrandReferences(path string) (*BrandReferences, error) {
	if path == "" {
		return NewBrandReferences(nil), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read brand references: %w", err)
	}
	var raw map[string][]float64
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse brand references: %w", err)
	}
	return NewBrandReferences(raw), nil
}

func (r *BrandReferences) Lookup(brand string) ([]float64, bool) {
	if r == nil {
		return nil, false
	}
	vec, ok := r.features[strings.ToLower(strings.TrimSpace(brand))]
	return vec, ok
}

// Names returns the registered brands as written, in sorted order.
func (r *BrandReferences) Names() []string {
	if r == nil {
		return nil
	}
	return slices.Clone(r.names)
}
