package providers

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"image"
	"image/color"
	"image/png"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/disintegration/imaging"
)

func samplePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func TestCosine(t *testing.T) {
	got, err := Cosine{}.Similarity([]float64{1, 0}, []float64{1, 0})
	if err != nil || got != 1 {
		t.Fatalf("identical vectors: %v %v", got, err)
	}
	got, err = Cosine{}.Similarity([]float64{1, 0}, []float64{0, 1})
	if err != nil || math.Abs(got) > 1e-12 {
		t.Fatalf("orthogonal vectors: %v %v", got, err)
	}
	if _, err := (Cosine{}).Similarity([]float64{1}, []float64{1, 2}); !errors.Is(err, ErrDimensionMismatch) {
		t.Fatalf("expected dimension error, got %v", err)
	}
	if _, err := (Cosine{}).Similarity([]float64{0, 0}, []float64{1, 2}); !errors.Is(err, ErrZeroVector) {
		t.Fatalf("expected zero vector error, got %v", err)
	}
}

func TestDecodeImagePayload(t *testing.T) {
	raw := []byte("hello")
	enc := base64.StdEncoding.EncodeToString(raw)

	for _, payload := range []string{enc, "data:image/png;base64," + enc} {
		got, err := DecodeImagePayload(payload)
		if err != nil || string(got) != "hello" {
			t.Fatalf("DecodeImagePayload(%q) = %q, %v", payload, got, err)
		}
	}
	if _, err := DecodeImagePayload(""); !errors.Is(err, ErrEmptyImage) {
		t.Fatalf("expected ErrEmptyImage, got %v", err)
	}
	if _, err := DecodeImagePayload("%%%"); err == nil {
		t.Fatal("expected error for invalid base64")
	}
}

func TestNormalizeImage(t *testing.T) {
	out, err := NormalizeImage(samplePNG(t, 40, 20), 16, 16)
	if err != nil {
		t.Fatalf("NormalizeImage: %v", err)
	}
	img, err := imaging.Decode(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("decode output: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 16 || b.Dy() != 16 {
		t.Fatalf("size = %dx%d", b.Dx(), b.Dy())
	}
	if _, err := NormalizeImage([]byte("not an image"), 16, 16); err == nil {
		t.Fatal("expected decode error")
	}
}

func TestInferenceClientScoreImage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/visual" {
			http.NotFound(w, r)
			return
		}
		var req imageRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		data, _ := base64.StdEncoding.DecodeString(req.Image)
		img, err := imaging.Decode(bytes.NewReader(data))
		if err != nil || img.Bounds().Dx() != 8 || img.Bounds().Dy() != 8 {
			http.Error(w, "bad image", http.StatusBadRequest)
			return
		}
		_ = json.NewEncoder(w).Encode(VisualResult{AuthenticityScore: 0.93, Label: "Genuine"})
	}))
	defer srv.Close()

	c := NewInferenceClient(srv.URL, time.Second)
	got, err := c.ScoreImage(context.Background(), samplePNG(t, 30, 30), 8, 8)
	if err != nil {
		t.Fatalf("ScoreImage: %v", err)
	}
	if got.AuthenticityScore != 0.93 || got.Label != "Genuine" {
		t.Fatalf("got %+v", got)
	}
}

func TestInferenceClientNon2xxIsProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := NewInferenceClient(srv.URL, time.Second)
	_, err := c.ScoreText(context.Background(), "anything")
	var pe *ProviderError
	if !errors.As(err, &pe) {
		t.Fatalf("expected ProviderError, got %v", err)
	}
	if pe.Provider != "inference" || pe.Op != "text" {
		t.Fatalf("unexpected error fields %+v", pe)
	}
}

func TestInferenceClientHonoursContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	c := NewInferenceClient(srv.URL, 5*time.Second)
	if _, err := c.ScoreSentiment(ctx, "great"); err == nil {
		t.Fatal("expected timeout error")
	}
}

func TestBrandReferences(t *testing.T) {
	refs := NewBrandReferences(map[string][]float64{" Nike ": {1, 2}, "adidas": {3}})
	if _, ok := refs.Lookup("NIKE"); !ok {
		t.Fatal("lookup should be case-insensitive")
	}
	if names := refs.Names(); len(names) != 2 || names[0] != "Nike" || names[1] != "adidas" {
		t.Fatalf("names = %v", names)
	}
	var nilRefs *BrandReferences
	if _, ok := nilRefs.Lookup("nike"); ok {
		t.Fatal("nil registry should be empty")
	}
}
