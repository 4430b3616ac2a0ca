package flags

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []Event
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, e Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return p.err
}

func (p *recordingPublisher) Close() error { return nil }

type failingSummarizer struct{ calls int32 }

func (s *failingSummarizer) Summarize(context.Context, Flag) (string, error) {
	atomic.AddInt32(&s.calls, 1)
	return "", errors.New("boom")
}

type fixedSummarizer string

func (s fixedSummarizer) Summarize(context.Context, Flag) (string, error) { return string(s), nil }

func newFlag(title string) NewFlag {
	return NewFlag{
		Title:        title,
		Severity:     SeverityHigh,
		RiskCategory: "Counterfeit",
		Category:     "Product Listing",
		Evidence:     []EvidenceItem{{Type: "text", Detail: "keywords"}},
		AISummary:    "summary",
	}
}

func TestStoreCreateGetList(t *testing.T) {
	ctx := context.Background()
	pub := &recordingPublisher{}
	s := NewStore(NewMemoryRepository(), nil, pub)

	first, err := s.Create(ctx, newFlag("first"))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	second, err := s.Create(ctx, newFlag("second"))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if first.ID == second.ID {
		t.Fatal("ids must be unique")
	}
	if first.Status != StatusOpen {
		t.Fatalf("status = %q", first.Status)
	}

	got, err := s.Get(ctx, second.ID.String())
	if err != nil || got.Title != "second" {
		t.Fatalf("Get: %+v %v", got, err)
	}

	list, err := s.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 2 || list[0].Title != "first" || list[1].Title != "second" {
		t.Fatalf("list order wrong: %+v", list)
	}
	if len(pub.events) != 2 || pub.events[0].FlagID != first.ID.String() {
		t.Fatalf("events = %+v", pub.events)
	}
}

func TestStoreGetNotFound(t *testing.T) {
	s := NewStore(NewMemoryRepository(), nil, nil)
	for _, id := range []string{"", "not-a-uuid", "7d444840-9dc0-11d1-b245-5ffdce74fad2"} {
		if _, err := s.Get(context.Background(), id); !errors.Is(err, ErrFlagNotFound) {
			t.Fatalf("Get(%q) err = %v, want ErrFlagNotFound", id, err)
		}
	}
}

func TestStoreCreateSurvivesPublishFailure(t *testing.T) {
	s := NewStore(NewMemoryRepository(), nil, &recordingPublisher{err: errors.New("broker down")})
	if _, err := s.Create(context.Background(), newFlag("x")); err != nil {
		t.Fatalf("publish failure must not fail create: %v", err)
	}
}

func TestListIsStableSnapshot(t *testing.T) {
	ctx := context.Background()
	s := NewStore(NewMemoryRepository(), nil, nil)
	if _, err := s.Create(ctx, newFlag("a")); err != nil {
		t.Fatal(err)
	}
	before, _ := s.List(ctx)
	if _, err := s.Create(ctx, newFlag("b")); err != nil {
		t.Fatal(err)
	}
	if len(before) != 1 {
		t.Fatalf("earlier view changed: %d", len(before))
	}
	after, _ := s.List(ctx)
	if len(after) != 2 {
		t.Fatalf("len = %d", len(after))
	}
}

func TestConcurrentCreate(t *testing.T) {
	ctx := context.Background()
	s := NewStore(NewMemoryRepository(), nil, nil)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = s.Create(ctx, newFlag("c"))
			_, _ = s.List(ctx)
		}()
	}
	wg.Wait()

	list, _ := s.List(ctx)
	if len(list) != 50 {
		t.Fatalf("len = %d", len(list))
	}
	seen := map[string]bool{}
	for _, f := range list {
		if seen[f.ID.String()] {
			t.Fatalf("duplicate id %s", f.ID)
		}
		seen[f.ID.String()] = true
	}
}

func TestEnrichFallsBackToTemplate(t *testing.T) {
	ctx := context.Background()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	chat := NewChatSummarizer(srv.URL, []string{"k1"}, []string{"m1", "m2"}, time.Second)
	failing := &failingSummarizer{}
	s := NewStore(NewMemoryRepository(), NewEnricher(chat, failing), nil)

	f, err := s.Create(ctx, newFlag("High Risk Product Listing - Acme"))
	if err != nil {
		t.Fatal(err)
	}
	got, err := s.Enrich(ctx, f.ID.String())
	if err != nil {
		t.Fatalf("Enrich: %v", err)
	}
	if got.AIAnalysis == "" {
		t.Fatal("enrichment must never be empty")
	}
	if !strings.Contains(got.AIAnalysis, "Product Authenticity Violation Report") {
		t.Fatalf("expected product template, got %q", got.AIAnalysis)
	}
	if n := atomic.LoadInt32(&failing.calls); n != 1 {
		t.Fatalf("second summarizer calls = %d", n)
	}

	stored, _ := s.Get(ctx, f.ID.String())
	if stored.AIAnalysis != got.AIAnalysis {
		t.Fatal("analysis was not saved")
	}
}

func TestEnrichUsesFirstSuccess(t *testing.T) {
	ctx := context.Background()
	s := NewStore(NewMemoryRepository(), NewEnricher(&failingSummarizer{}, fixedSummarizer("model report")), nil)
	f, _ := s.Create(ctx, newFlag("x"))
	got, err := s.Enrich(ctx, f.ID.String())
	if err != nil || got.AIAnalysis != "model report" {
		t.Fatalf("got %q, %v", got.AIAnalysis, err)
	}
}

func TestEnrichUnknownFlag(t *testing.T) {
	s := NewStore(NewMemoryRepository(), nil, nil)
	if _, err := s.Enrich(context.Background(), "7d444840-9dc0-11d1-b245-5ffdce74fad2"); !errors.Is(err, ErrFlagNotFound) {
		t.Fatalf("err = %v", err)
	}
}

func TestChatSummarizerKeyAndModelFallback(t *testing.T) {
	var mu sync.Mutex
	var seen []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth := r.Header.Get("Authorization")
		mu.Lock()
		seen = append(seen, auth)
		n := len(seen)
		mu.Unlock()
		switch auth {
		case "Bearer bad":
			w.WriteHeader(http.StatusUnauthorized)
		default:
			if n < 3 {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"## Executive Summary\nok"}}]}`))
		}
	}))
	defer srv.Close()

	s := NewChatSummarizer(srv.URL, []string{"bad", "good"}, []string{"m1", "m2", "m3"}, time.Second)
	text, err := s.Summarize(context.Background(), Flag{Title: "t"})
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	if !strings.Contains(text, "Executive Summary") {
		t.Fatalf("text = %q", text)
	}
	// bad key stops after its first 401, good key fails m1 then succeeds on m2.
	mu.Lock()
	defer mu.Unlock()
	if len(seen) != 3 || seen[0] != "Bearer bad" || seen[1] != "Bearer good" {
		t.Fatalf("attempts = %v", seen)
	}
}

func TestChatSummarizerTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	s := NewChatSummarizer(srv.URL, []string{"k"}, []string{"m1", "m2"}, 50*time.Millisecond)
	start := time.Now()
	if _, err := s.Summarize(context.Background(), Flag{}); err == nil {
		t.Fatal("expected error")
	}
	if time.Since(start) > 1500*time.Millisecond {
		t.Fatal("attempts were not bounded by the per-attempt timeout")
	}
}

func TestChatSummarizerWithoutKeysFails(t *testing.T) {
	s := NewChatSummarizer("http://127.0.0.1:0", nil, []string{"m"}, time.Second)
	if _, err := s.Summarize(context.Background(), Flag{}); err == nil {
		t.Fatal("expected error without keys")
	}
}
