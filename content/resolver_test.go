package content

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

	"github.com/nodespeak/nodespeak/models"
)

type gateway struct {
	hits   atomic.Int32
	mu     sync.Mutex
	status int
	body   string
	delay  time.Duration
	srv    *httptest.Server
}

func newGateway(t *testing.T, status int, body string, delay time.Duration) *gateway {
	g := &gateway{status: status, body: body, delay: delay}
	g.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		g.hits.Add(1)
		if g.delay > 0 {
			select {
			case <-time.After(g.delay):
			case <-r.Context().Done():
				return
			}
		}
		g.mu.Lock()
		status, body := g.status, g.body
		g.mu.Unlock()
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(g.srv.Close)
	return g
}

func (g *gateway) prefix() string { return g.srv.URL + "/ipfs" }

func (g *gateway) set(status int, body string) {
	g.mu.Lock()
	g.status, g.body = status, body
	g.mu.Unlock()
}

func TestFetchCachesSuccess(t *testing.T) {
	primary := newGateway(t, http.StatusOK, `{"name":"Go","description":"gophers"}`, 0)
	r := NewResolver(ResolverConfig{Gateways: []string{primary.prefix()}, Timeout: time.Second}, nil, nil, nil)
	ctx := context.Background()

	var meta models.CommunityMetadata
	if err := r.ResolveJSON(ctx, "cid-a", &meta); err != nil {
		t.Fatalf("first resolve: %v", err)
	}
	if err := r.ResolveJSON(ctx, "cid-a", &meta); err != nil {
		t.Fatalf("second resolve: %v", err)
	}
	if meta.Name != "Go" {
		t.Errorf("Name = %q", meta.Name)
	}
	if n := primary.hits.Load(); n != 1 {
		t.Errorf("gateway hits = %d, want 1", n)
	}
	if r.Cache().Len() != 1 {
		t.Errorf("cache len = %d", r.Cache().Len())
	}
}

func TestFetchFallsBackToBackupGateway(t *testing.T) {
	primary := newGateway(t, http.StatusBadGateway, "down", 0)
	backup := newGateway(t, http.StatusOK, "<p>body</p>", 0)
	r := NewResolver(ResolverConfig{Gateways: []string{primary.prefix(), backup.prefix()}, Timeout: time.Second}, nil, nil, nil)

	text, err := r.ResolveText(context.Background(), "cid-b")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if text != "<p>body</p>" {
		t.Errorf("text = %q", text)
	}
	if primary.hits.Load() != 1 || backup.hits.Load() != 1 {
		t.Errorf("hits primary=%d backup=%d", primary.hits.Load(), backup.hits.Load())
	}
}

func TestFetchTimeoutMovesOn(t *testing.T) {
	slow := newGateway(t, http.StatusOK, "late", 2*time.Second)
	backup := newGateway(t, http.StatusOK, "fast", 0)
	r := NewResolver(ResolverConfig{Gateways: []string{slow.prefix(), backup.prefix()}, Timeout: 50 * time.Millisecond}, nil, nil, nil)

	text, err := r.ResolveText(context.Background(), "cid-c")
	if err != nil || text != "fast" {
		t.Fatalf("resolve = %q, %v", text, err)
	}
}

func TestFetchExhaustedIsNotCached(t *testing.T) {
	primary := newGateway(t, http.StatusNotFound, "", 0)
	backup := newGateway(t, http.StatusInternalServerError, "", 0)
	r := NewResolver(ResolverConfig{Gateways: []string{primary.prefix(), backup.prefix()}, Timeout: time.Second}, nil, nil, nil)
	ctx := context.Background()

	if _, err := r.Fetch(ctx, "cid-d"); !errors.Is(err, ErrContentUnavailable) {
		t.Fatalf("err = %v, want ErrContentUnavailable", err)
	}
	if r.Cache().Len() != 0 {
		t.Fatal("failure must not be cached")
	}

	backup.set(http.StatusOK, "recovered")
	text, err := r.ResolveText(ctx, "cid-d")
	if err != nil || text != "recovered" {
		t.Fatalf("retry = %q, %v", text, err)
	}
}

func TestFetchEmptyCID(t *testing.T) {
	primary := newGateway(t, http.StatusOK, "x", 0)
	r := NewResolver(ResolverConfig{Gateways: []string{primary.prefix()}}, nil, nil, nil)
	if _, err := r.Fetch(context.Background(), "  "); !errors.Is(err, ErrContentUnavailable) {
		t.Fatalf("err = %v", err)
	}
	if primary.hits.Load() != 0 {
		t.Error("empty cid must not touch the network")
	}
}

func TestConcurrentFetchSharesRequest(t *testing.T) {
	primary := newGateway(t, http.StatusOK, "shared", 50*time.Millisecond)
	r := NewResolver(ResolverConfig{Gateways: []string{primary.prefix()}, Timeout: time.Second}, nil, nil, nil)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := r.Fetch(context.Background(), "cid-e"); err != nil {
				t.Errorf("fetch: %v", err)
			}
		}()
	}
	wg.Wait()
	if n := primary.hits.Load(); n != 1 {
		t.Errorf("gateway hits = %d, want 1", n)
	}
}

func TestCancelledCallerDoesNotFailSharedFetch(t *testing.T) {
	primary := newGateway(t, http.StatusOK, "shared", 200*time.Millisecond)
	r := NewResolver(ResolverConfig{Gateways: []string{primary.prefix()}, Timeout: time.Second}, nil, nil, nil)

	ctxA, cancelA := context.WithCancel(context.Background())
	defer cancelA()
	errA := make(chan error, 1)
	go func() {
		_, err := r.Fetch(ctxA, "cid-h")
		errA <- err
	}()
	deadline := time.Now().Add(time.Second)
	for primary.hits.Load() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("first fetch never reached the gateway")
		}
		time.Sleep(5 * time.Millisecond)
	}

	type result struct {
		data []byte
		err  error
	}
	resB := make(chan result, 1)
	go func() {
		data, err := r.Fetch(context.Background(), "cid-h")
		resB <- result{data, err}
	}()
	time.Sleep(50 * time.Millisecond)
	cancelA()

	if err := <-errA; !errors.Is(err, context.Canceled) || !errors.Is(err, ErrContentUnavailable) {
		t.Errorf("cancelled caller err = %v", err)
	}
	b := <-resB
	if b.err != nil || string(b.data) != "shared" {
		t.Fatalf("other caller = %q, %v", b.data, b.err)
	}
	if n := primary.hits.Load(); n != 1 {
		t.Errorf("gateway hits = %d, want 1", n)
	}
	if r.Cache().Len() != 1 {
		t.Error("shared fetch should still be cached")
	}
}

func TestOversizedBodyIsRejected(t *testing.T) {
	primary := newGateway(t, http.StatusOK, strings.Repeat("x", 26), 0)
	r := NewResolver(ResolverConfig{Gateways: []string{primary.prefix()}, Timeout: time.Second, MaxBytes: 16}, nil, nil, nil)
	ctx := context.Background()

	_, err := r.Fetch(ctx, "cid-i")
	if !errors.Is(err, ErrContentUnavailable) || !strings.Contains(err.Error(), "exceeds 16 bytes") {
		t.Fatalf("err = %v, want size limit failure", err)
	}
	if r.Cache().Len() != 0 {
		t.Fatal("truncated content must not be cached")
	}

	primary.set(http.StatusOK, strings.Repeat("x", 16))
	data, err := r.Fetch(ctx, "cid-i")
	if err != nil || len(data) != 16 {
		t.Fatalf("at the limit = %d bytes, %v", len(data), err)
	}
}

type memStore struct {
	mu   sync.Mutex
	data map[string][]byte
}

func (m *memStore) Get(_ context.Context, cid string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.data[cid]
	return d, ok, nil
}

func (m *memStore) Set(_ context.Context, cid string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[cid] = data
	return nil
}

func TestSecondTierBackfillsMemory(t *testing.T) {
	primary := newGateway(t, http.StatusOK, "network", 0)
	store := &memStore{data: map[string][]byte{"cid-f": []byte("stored")}}
	r := NewResolver(ResolverConfig{Gateways: []string{primary.prefix()}}, NewCache(store, nil), nil, nil)

	text, err := r.ResolveText(context.Background(), "cid-f")
	if err != nil || text != "stored" {
		t.Fatalf("resolve = %q, %v", text, err)
	}
	if primary.hits.Load() != 0 {
		t.Error("store hit must not touch the network")
	}
	if r.Cache().Len() != 1 {
		t.Error("store hit should back-fill memory")
	}

	if _, err := r.Fetch(context.Background(), "cid-g"); err != nil {
		t.Fatal(err)
	}
	if _, ok := store.data["cid-g"]; !ok {
		t.Error("network fetch should be written through to the store")
	}
}

func TestGatewayURLs(t *testing.T) {
	r := NewResolver(ResolverConfig{Gateways: []string{"https://a.example/ipfs", "https://b.example/ipfs/"}}, nil, nil, nil)
	if got := r.GatewayURL("Qm1"); got != "https://a.example/ipfs/Qm1" {
		t.Errorf("GatewayURL = %q", got)
	}
	if got := r.ImageURL("Qm2"); !strings.HasPrefix(got, "https://a.example/ipfs/") {
		t.Errorf("ImageURL = %q, want primary gateway by default", got)
	}
	if r.ImageURL("") != "" {
		t.Error("no image cid should give no url")
	}
}
