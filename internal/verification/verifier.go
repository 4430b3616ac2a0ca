package verification

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ahmetcoskunkizilkaya/trustsafety-backend/internal/flags"
	"github.com/ahmetcoskunkizilkaya/trustsafety-backend/internal/providers"
)

const authenticAbove = 0.75

var errNoInspector = errors.New("inspector not configured")

type FlagCreator interface {
	Create(ctx context.Context, nf flags.NewFlag) (flags.Flag, error)
}

type Step struct {
	Step    string `json:"step"`
	Status  string `json:"status"`
	Details string `json:"details"`
}

type Result struct {
	OrderID          string      `json:"order_id"`
	ProductName      string      `json:"product_name"`
	Timestamp        time.Time   `json:"timestamp"`
	BarcodeFound     bool        `json:"barcode_found"`
	BarcodeMatch     bool        `json:"barcode_match"`
	VisualSimilarity float64     `json:"visual_similarity"`
	ColorMatch       float64     `json:"color_match"`
	TextureScore     float64     `json:"texture_score"`
	LogoDetected     bool        `json:"logo_detection"`
	MaterialQuality  string      `json:"material_quality"`
	SecurityFeatures []string    `json:"security_features"`
	Steps            []Step      `json:"verification_steps"`
	OverallScore     float64     `json:"overall_score"`
	IsAuthentic      bool        `json:"is_authentic"`
	Flag             *flags.Flag `json:"flag,omitempty"`
}

type Verifier struct {
	catalog   Catalog
	inspector providers.Inspector
	flags     FlagCreator
	timeout   time.Duration
	now       func() time.Time
}

func NewVerifier(catalog Catalog, inspector providers.Inspector, fc FlagCreator, timeout time.Duration) *Verifier {
	if catalog == nil {
		catalog = DefaultCatalog()
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Verifier{catalog: catalog, inspector: inspector, flags: fc, timeout: timeout, now: time.Now}
}

// Verify inspects the photo for the order. A barcode decides alone; otherwise
// the six inspection signals are averaged. A counterfeit verdict creates one
// critical flag. Inspection failures are returned and create nothing.
func (v *Verifier) Verify(ctx context.Context, orderID string, image []byte, filename string) (Result, error) {
	product, err := v.catalog.Lookup(orderID)
	if err != nil {
		return Result{}, err
	}
	if len(image) == 0 {
		return Result{}, ErrNoImage
	}
	if v.inspector == nil {
		return Result{}, &providers.ProviderError{Provider: "inspector", Op: "inspect", Err: errNoInspector}
	}

	cctx, cancel := context.WithTimeout(ctx, v.timeout)
	insp, err := v.inspector.Inspect(cctx, image, orderID)
	cancel()
	if err != nil {
		return Result{}, fmt.Errorf("inspect order photo: %w", err)
	}

	res := Evaluate(product, insp)
	res.Timestamp = v.now().UTC()
	slog.Info("order photo verified",
		"order_id", orderID,
		"barcode_found", res.BarcodeFound,
		"overall_score", res.OverallScore,
		"authentic", res.IsAuthentic,
	)

	if !res.IsAuthentic && v.flags != nil {
		res.Flag = v.flag(ctx, res, filename)
	}
	return res, nil
}

// Evaluate scores an inspection against the catalog product.
func Evaluate(product Product, insp providers.Inspection) Result {
	res := Result{
		OrderID:          product.OrderID,
		ProductName:      product.Name,
		SecurityFeatures: []string{},
		Steps:            []Step{},
	}

	if insp.Barcode != "" {
		match := insp.Barcode == product.Barcode
		res.BarcodeFound = true
		res.BarcodeMatch = match
		res.MaterialQuality = "Unknown"
		details := "Barcode did not match with product database"
		if match {
			details = "Barcode matched with product database"
			res.OverallScore = 1
		}
		res.Steps = append(res.Steps, Step{Step: "Barcode Verification", Status: passFail(match), Details: details})
		res.IsAuthentic = match
		return res
	}

	res.VisualSimilarity = insp.VisualSimilarity
	res.ColorMatch = insp.ColorMatch
	res.TextureScore = insp.TextureScore
	res.LogoDetected = insp.LogoDetected
	res.MaterialQuality = insp.MaterialQuality
	if res.MaterialQuality == "" {
		res.MaterialQuality = "Unknown"
	}
	if insp.SecurityFeatures != nil {
		res.SecurityFeatures = insp.SecurityFeatures
	}

	logoDetails := "Could not verify brand logo"
	if res.LogoDetected {
		logoDetails = "Brand logo detected and verified"
	}
	res.Steps = append(res.Steps,
		Step{"Visual Similarity", passFail(res.VisualSimilarity > 0.75), fmt.Sprintf("Image matches %.1f%% with genuine product", res.VisualSimilarity*100)},
		Step{"Color Analysis", passFail(res.ColorMatch > 0.7), fmt.Sprintf("Color signature match: %.1f%%", res.ColorMatch*100)},
		Step{"Texture Analysis", passFail(res.TextureScore > 0.8), fmt.Sprintf("Texture pattern match: %.1f%%", res.TextureScore*100)},
		Step{"Material Quality", passWarn(res.MaterialQuality == "High"), "Material quality assessment: " + res.MaterialQuality},
		Step{"Logo Detection", passFail(res.LogoDetected), logoDetails},
		Step{"Security Features", passWarn(len(res.SecurityFeatures) > 0), fmt.Sprintf("Found %d security features", len(res.SecurityFeatures))},
	)

	scores := []float64{
		res.VisualSimilarity,
		res.TextureScore,
		res.ColorMatch,
		boolScore(res.LogoDetected, 0),
		boolScore(res.MaterialQuality == "High", 0.5),
		boolScore(len(res.SecurityFeatures) > 0, 0.5),
	}
	var sum float64
	for _, s := range scores {
		sum += s
	}
	res.OverallScore = sum / float64(len(scores))
	res.IsAuthentic = res.OverallScore > authenticAbove
	return res
}

func (v *Verifier) flag(ctx context.Context, res Result, filename string) *flags.Flag {
	f, err := v.flags.Create(ctx, flags.NewFlag{
		Title:        "Counterfeit Product Detected",
		Severity:     flags.SeverityCritical,
		RiskCategory: "Counterfeit",
		Category:     "Product",
		Evidence: []flags.EvidenceItem{
			{Type: "Visual", Detail: fmt.Sprintf("Visual Similarity: %v", res.VisualSimilarity)},
			{Type: "Color", Detail: fmt.Sprintf("Color Match: %v", res.ColorMatch)},
			{Type: "Texture", Detail: fmt.Sprintf("Texture Score: %v", res.TextureScore)},
			{Type: "Logo", Detail: fmt.Sprintf("Logo Detection: %t", res.LogoDetected)},
			{Type: "Security", Detail: fmt.Sprintf("Security Features: %v", res.SecurityFeatures)},
		},
		AISummary: "AI flagged this product as counterfeit during verification.",
		OriginPayload: map[string]any{
			"order_id":       res.OrderID,
			"product_id":     res.OrderID,
			"product_name":   res.ProductName,
			"image_filename": filename,
			"overall_score":  res.OverallScore,
			"barcode_found":  res.BarcodeFound,
		},
	})
	if err != nil {
		slog.Error("failed to create verification flag", "order_id", res.OrderID, "error", err)
		return nil
	}
	return &f
}

func passFail(ok bool) string {
	if ok {
		return "success"
	}
	return "failure"
}

func passWarn(ok bool) string {
	if ok {
		return "success"
	}
	return "warning"
}

func boolScore(ok bool, otherwise float64) float64 {
	if ok {
		return 1
	}
	return otherwise
}
