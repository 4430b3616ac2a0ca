package risk

import (
	"context"
	"errors"
	"math"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ahmetcoskunkizilkaya/trustsafety-backend/internal/flags"
	"github.com/ahmetcoskunkizilkaya/trustsafety-backend/internal/heuristics"
	"github.com/ahmetcoskunkizilkaya/trustsafety-backend/internal/providers"
	"github.com/shopspring/decimal"
)

const cleanDescription = "Acme eight piece kitchen knife set with forged blades and a solid oak block."

func cleanSubmission() Submission {
	return Submission{
		Brand:        "Acme",
		Title:        "Acme kitchen knife set",
		Description:  cleanDescription,
		BulletPoints: []string{"Dishwasher safe", "Oak block included"},
		Price:        decimal.NewFromInt(50),
		Category:     "Home & Kitchen",
	}
}

func genuineVisual() VisualOutcome {
	return ScoredVisual(providers.VisualResult{AuthenticityScore: 0.95, Label: "Genuine"})
}

func approx(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func countType(fs []heuristics.Finding, typ heuristics.FindingType) int {
	n := 0
	for _, f := range fs {
		if f.Type == typ {
			n++
		}
	}
	return n
}

func TestLevelFor(t *testing.T) {
	tests := []struct {
		score float64
		want  Level
	}{
		{0, LevelLow},
		{0.39, LevelLow},
		{0.40, LevelMedium},
		{0.59, LevelMedium},
		{0.60, LevelHigh},
		{0.79, LevelHigh},
		{0.80, LevelCritical},
		{2.7, LevelCritical},
	}
	for _, tt := range tests {
		if got := LevelFor(tt.score); got != tt.want {
			t.Errorf("LevelFor(%v) = %s, want %s", tt.score, got, tt.want)
		}
	}

	prev := 0
	for s := 0.0; s < 2; s += 0.01 {
		r := LevelFor(s).Rank()
		if r < prev {
			t.Fatalf("level decreased at %v", s)
		}
		prev = r
	}
}

func TestAssessCleanListing(t *testing.T) {
	a := Assess(cleanSubmission(), genuineVisual(), UnavailableText())
	if a.RiskScore != 0 || a.RiskLevel != LevelLow {
		t.Fatalf("score=%v level=%s findings=%+v", a.RiskScore, a.RiskLevel, a.Findings)
	}
	if len(a.Findings) != 0 || len(a.Recommendations) != 0 {
		t.Fatalf("findings=%+v recs=%v", a.Findings, a.Recommendations)
	}
	v := a.ProviderOutputs["visual"].(map[string]any)
	if v["similarity_check"] != "not_applicable" || v["ml_model_used"] != true {
		t.Fatalf("visual outputs = %v", v)
	}
}

func TestAssessPriceAddsExactWeight(t *testing.T) {
	base := Assess(cleanSubmission(), genuineVisual(), UnavailableText())

	tests := []struct {
		name     string
		price    int64
		severity heuristics.Severity
	}{
		{"above max", 9000, heuristics.SeverityCritical},
		{"below min", 1, heuristics.SeverityHigh},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sub := cleanSubmission()
			sub.Price = decimal.NewFromInt(tt.price)
			a := Assess(sub, genuineVisual(), UnavailableText())
			if !approx(a.RiskScore-base.RiskScore, WeightPriceAnomaly) {
				t.Fatalf("delta = %v", a.RiskScore-base.RiskScore)
			}
			if len(a.Findings) != 1 || a.Findings[0].Type != heuristics.TypePricing || a.Findings[0].Severity != tt.severity {
				t.Fatalf("findings = %+v", a.Findings)
			}
			if a.Recommendations[0] != "Verify pricing accuracy - suspicious price" {
				t.Fatalf("recs = %v", a.Recommendations)
			}
		})
	}
}

func TestAssessKeywordPenaltyAppliedOnce(t *testing.T) {
	for _, extra := range []string{" replica", " replica knockoff bootleg pirated"} {
		sub := cleanSubmission()
		sub.Description = cleanDescription + extra
		a := Assess(sub, genuineVisual(), UnavailableText())
		if !approx(a.RiskScore, WeightKeywords) {
			t.Fatalf("%q: score = %v", extra, a.RiskScore)
		}
		if n := countType(a.Findings, heuristics.TypeText); n != 1 {
			t.Fatalf("%q: text findings = %d", extra, n)
		}
		if a.Findings[0].Severity != heuristics.SeverityCritical {
			t.Fatalf("severity = %s", a.Findings[0].Severity)
		}
	}
}

func TestAssessIsDeterministic(t *testing.T) {
	sub := cleanSubmission()
	sub.Brand = "Replica Co"
	sub.Price = decimal.NewFromInt(2)
	text := ScoredText(providers.TextResult{Label: "LABEL_1", Confidence: 0.9})
	a := Assess(sub, NeutralVisual(errors.New("down")), text)
	b := Assess(sub, NeutralVisual(errors.New("down")), text)
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("assessments differ:\n%+v\n%+v", a, b)
	}
}

func TestAssessProviderFallbacks(t *testing.T) {
	tests := []struct {
		name   string
		visual VisualOutcome
		text   TextOutcome
		want   float64
	}{
		{"visual failure", NeutralVisual(errors.New("timeout")), UnavailableText(), WeightVisualFailure},
		{"missing image", MissingVisual(), UnavailableText(), WeightMissingImage},
		{"text failure", genuineVisual(), NeutralText(errors.New("500")), WeightTextFailure},
		{"suspicious text", genuineVisual(), ScoredText(providers.TextResult{Label: "LABEL_1", Confidence: 0.8}), WeightTextIndicator},
		{"confident genuine text", genuineVisual(), ScoredText(providers.TextResult{Label: "LABEL_0", Confidence: 0.99}), 0},
		{"fake label", ScoredVisual(providers.VisualResult{AuthenticityScore: 0.2}), UnavailableText(), WeightCounterfeitLabel + WeightLowAuthenticity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := Assess(cleanSubmission(), tt.visual, tt.text)
			if !approx(a.RiskScore, tt.want) {
				t.Fatalf("score = %v, want %v (findings %+v)", a.RiskScore, tt.want, a.Findings)
			}
			if tt.want > 0 && len(a.Findings) == 0 {
				t.Fatal("a degraded or suspicious signal must be recorded")
			}
		})
	}
}

func TestScoredVisualDerivesLabel(t *testing.T) {
	if got := ScoredVisual(providers.VisualResult{AuthenticityScore: 0.9}).Label; got != "Genuine" {
		t.Fatalf("label = %q", got)
	}
	if got := ScoredVisual(providers.VisualResult{AuthenticityScore: 0.89}).Label; got != "Fake" {
		t.Fatalf("label = %q", got)
	}
}

type fakeVisual struct {
	res   providers.VisualResult
	err   error
	delay time.Duration
}

func (f fakeVisual) ScoreImage(ctx context.Context, _ []byte, _, _ int) (providers.VisualResult, error) {
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return providers.VisualResult{}, ctx.Err()
		}
	}
	return f.res, f.err
}

type fakeText struct {
	res providers.TextResult
	err error
}

func (f fakeText) ScoreText(context.Context, string) (providers.TextResult, error) { return f.res, f.err }

type fakeFeatures []float64

func (f fakeFeatures) ExtractFeatures(context.Context, []byte) ([]float64, error) { return f, nil }

type recordingFlags struct {
	mu    sync.Mutex
	calls []flags.NewFlag
	err   error
}

func (r *recordingFlags) Create(_ context.Context, nf flags.NewFlag) (flags.Flag, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, nf)
	if r.err != nil {
		return flags.Flag{}, r.err
	}
	return flags.Flag{Title: nf.Title, Severity: nf.Severity, Evidence: nf.Evidence}, nil
}

var image = []byte("image-bytes")

func TestEngineCreatesOneFlagForRiskyListing(t *testing.T) {
	rec := &recordingFlags{}
	e := NewEngine(EngineConfig{
		Visual: fakeVisual{res: providers.VisualResult{AuthenticityScore: 0.95, Label: "Genuine"}},
		Flags:  rec,
	})

	sub := cleanSubmission()
	sub.Brand = "Replica Co"
	sub.Title = "Replica Co kitchen knife set"
	ev := e.Evaluate(context.Background(), sub, image, map[string]any{"product_id": "p-1"})

	if ev.RiskLevel != LevelCritical {
		t.Fatalf("level = %s score = %v", ev.RiskLevel, ev.RiskScore)
	}
	if len(rec.calls) != 1 || ev.Flag == nil {
		t.Fatalf("flag calls = %d", len(rec.calls))
	}
	nf := rec.calls[0]
	if nf.Title != "High Risk Product Listing - Replica Co" || nf.Severity != flags.SeverityCritical {
		t.Fatalf("flag = %+v", nf)
	}
	if len(nf.Evidence) != len(ev.Findings) || len(nf.Evidence) == 0 {
		t.Fatalf("evidence = %+v", nf.Evidence)
	}
	if nf.OriginPayload["product_id"] != "p-1" {
		t.Fatalf("origin = %v", nf.OriginPayload)
	}
	if !strings.HasPrefix(nf.AISummary, "AI detected 2 suspicious indicators") {
		t.Fatalf("summary = %q", nf.AISummary)
	}
}

func TestEngineNoFlagForLowRisk(t *testing.T) {
	rec := &recordingFlags{}
	e := NewEngine(EngineConfig{
		Visual: fakeVisual{res: providers.VisualResult{AuthenticityScore: 0.95, Label: "Genuine"}},
		Flags:  rec,
	})
	ev := e.Evaluate(context.Background(), cleanSubmission(), image, nil)
	if ev.RiskLevel != LevelLow || ev.Flag != nil || len(rec.calls) != 0 {
		t.Fatalf("level=%s flag=%v calls=%d", ev.RiskLevel, ev.Flag, len(rec.calls))
	}
}

func TestEngineProviderTimeoutFallsBack(t *testing.T) {
	e := NewEngine(EngineConfig{
		Visual:  fakeVisual{res: providers.VisualResult{AuthenticityScore: 0.95}, delay: time.Second},
		Text:    fakeText{err: errors.New("connection refused")},
		Timeout: 20 * time.Millisecond,
	})

	start := time.Now()
	ev := e.Evaluate(context.Background(), cleanSubmission(), image, nil)
	if time.Since(start) > 500*time.Millisecond {
		t.Fatal("provider timeout not applied")
	}
	if !approx(ev.RiskScore, WeightVisualFailure+WeightTextFailure) {
		t.Fatalf("score = %v findings = %+v", ev.RiskScore, ev.Findings)
	}
	v := ev.ProviderOutputs["visual"].(map[string]any)
	if v["status"] != string(VisualFailed) || v["authenticity_score"] != 0.5 {
		t.Fatalf("visual = %v", v)
	}
}

func TestEngineRejectsOutOfRangeScores(t *testing.T) {
	e := NewEngine(EngineConfig{
		Visual: fakeVisual{res: providers.VisualResult{AuthenticityScore: 1.5}},
		Text:   fakeText{res: providers.TextResult{Label: "LABEL_1", Confidence: math.NaN()}},
	})
	ev := e.Evaluate(context.Background(), cleanSubmission(), image, nil)
	if !approx(ev.RiskScore, WeightVisualFailure+WeightTextFailure) {
		t.Fatalf("score = %v", ev.RiskScore)
	}
}

func TestEngineMissingImage(t *testing.T) {
	e := NewEngine(EngineConfig{Visual: fakeVisual{res: providers.VisualResult{AuthenticityScore: 0.95}}})
	ev := e.Evaluate(context.Background(), cleanSubmission(), nil, nil)
	if !approx(ev.RiskScore, WeightMissingImage) {
		t.Fatalf("score = %v", ev.RiskScore)
	}
}

func TestEngineBrandSimilarityOverride(t *testing.T) {
	e := NewEngine(EngineConfig{
		Visual:   fakeVisual{res: providers.VisualResult{AuthenticityScore: 0.95, Label: "Genuine"}},
		Features: fakeFeatures{0, 1},
		Brands:   providers.NewBrandReferences(map[string][]float64{"acme": {1, 0}}),
	})
	ev := e.Evaluate(context.Background(), cleanSubmission(), image, nil)

	v := ev.ProviderOutputs["visual"].(map[string]any)
	if v["predicted_label"] != "Fake" || v["authenticity_score"] != 0.05 {
		t.Fatalf("visual = %v", v)
	}
	if !strings.Contains(v["similarity_check"].(string), "below") {
		t.Fatalf("similarity_check = %v", v["similarity_check"])
	}
	if ev.RiskLevel != LevelCritical {
		t.Fatalf("level = %s", ev.RiskLevel)
	}
}

func TestEngineBrandSimilarityMatch(t *testing.T) {
	e := NewEngine(EngineConfig{
		Visual:   fakeVisual{res: providers.VisualResult{AuthenticityScore: 0.95, Label: "Genuine"}},
		Features: fakeFeatures{1, 0.1},
		Brands:   providers.NewBrandReferences(map[string][]float64{"acme": {1, 0}}),
	})
	ev := e.Evaluate(context.Background(), cleanSubmission(), image, nil)
	if ev.RiskScore != 0 {
		t.Fatalf("score = %v", ev.RiskScore)
	}
	if len(ev.Recommendations) != 1 || !strings.HasPrefix(ev.Recommendations[0], "Brand similarity check: similarity") {
		t.Fatalf("recs = %v", ev.Recommendations)
	}
}

func TestEngineLookalikeRecommendation(t *testing.T) {
	e := NewEngine(EngineConfig{
		Visual: fakeVisual{res: providers.VisualResult{AuthenticityScore: 0.95, Label: "Genuine"}},
		Brands: providers.NewBrandReferences(map[string][]float64{"Nike": {1}}),
	})
	sub := cleanSubmission()
	sub.Brand = "Nikke"
	sub.Title = "Nikke kitchen knife set"
	ev := e.Evaluate(context.Background(), sub, image, nil)

	last := ev.Recommendations[len(ev.Recommendations)-1]
	if last != "Brand name closely resembles 'Nike' - confirm brand authorization" {
		t.Fatalf("recs = %v", ev.Recommendations)
	}
	if ev.ProviderOutputs["brand_lookalike"] != "Nike" {
		t.Fatalf("outputs = %v", ev.ProviderOutputs)
	}
}

func TestEngineFlagFailureStillReturnsAssessment(t *testing.T) {
	rec := &recordingFlags{err: errors.New("db down")}
	e := NewEngine(EngineConfig{Flags: rec})
	sub := cleanSubmission()
	sub.Brand = "Fake Brand"
	ev := e.Evaluate(context.Background(), sub, nil, nil)
	if ev.Flag != nil || len(rec.calls) != 1 {
		t.Fatalf("flag = %v calls = %d", ev.Flag, len(rec.calls))
	}
	if !ev.RiskLevel.Flagged() {
		t.Fatalf("level = %s", ev.RiskLevel)
	}
}

func TestMonitorStep(t *testing.T) {
	two := decimal.NewFromInt(2)
	e := NewEngine(EngineConfig{
		Text:   fakeText{res: providers.TextResult{Label: "LABEL_1", Confidence: 0.9}},
		Visual: fakeVisual{res: providers.VisualResult{AuthenticityScore: 0.5}},
	})
	failing := NewEngine(EngineConfig{Visual: fakeVisual{err: errors.New("model offline")}})

	tests := []struct {
		name   string
		engine *Engine
		in     StepInput
		score  float64
		rec    string
	}{
		{"identity keyword and text", e, StepInput{StepNumber: 1, Brand: "Replica Watches", Title: "watch"}, 1.0, "CRITICAL: High risk detected - manual review required"},
		{"identity title only", e, StepInput{StepNumber: 1, Title: "replica"}, 1.0, "CRITICAL: High risk detected - manual review required"},
		{"identity title keyword without text model", failing, StepInput{StepNumber: 1, Title: "Replica handbag"}, 0.6, "Medium risk detected - review recommended"},
		{"identity empty", e, StepInput{StepNumber: 1, Brand: " "}, 0, ""},
		{"manufacturer", e, StepInput{StepNumber: 2, Manufacturer: "Knockoff Factory"}, 0.3, ""},
		{"low price", e, StepInput{StepNumber: 3, Price: &two}, 0.4, ""},
		{"image low score", e, StepInput{StepNumber: 6, Image: image}, 0.5, "Medium risk detected - review recommended"},
		{"image failure", failing, StepInput{StepNumber: 6, Image: image}, 0.2, ""},
		{"other step", e, StepInput{StepNumber: 5}, 0, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := tt.engine.MonitorStep(context.Background(), tt.in)
			if !approx(res.RiskScore, tt.score) {
				t.Fatalf("score = %v warnings = %v", res.RiskScore, res.Warnings)
			}
			if tt.rec == "" && len(res.Recommendations) != 0 {
				t.Fatalf("recs = %v", res.Recommendations)
			}
			if tt.rec != "" && (len(res.Recommendations) != 1 || res.Recommendations[0] != tt.rec) {
				t.Fatalf("recs = %v", res.Recommendations)
			}
		})
	}
}
