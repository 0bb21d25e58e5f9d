package content

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// ErrContentUnavailable means every gateway failed for a CID, or the CID was empty.
var ErrContentUnavailable = errors.New("content unavailable")

const maxContentBytes = 16 << 20

// ResolverConfig lists gateways in fallback order, primary first.
type ResolverConfig struct {
	Gateways     []string
	ImageGateway string
	Timeout      time.Duration
	// MaxBytes caps one response body; zero means 16 MiB.
	MaxBytes int64
}

// Resolver fetches content by CID through IPFS gateways, cache first.
type Resolver struct {
	gateways     []string
	imageGateway string
	timeout      time.Duration
	maxBytes     int64
	client       *http.Client
	cache        *Cache
	group        singleflight.Group
	log          *zap.Logger
}

// NewResolver builds a resolver around an injected cache.
func NewResolver(cfg ResolverConfig, cache *Cache, client *http.Client, log *zap.Logger) *Resolver {
	if log == nil {
		log = zap.NewNop()
	}
	if client == nil {
		client = &http.Client{}
	}
	if cache == nil {
		cache = NewCache(nil, log)
	}
	gateways := make([]string, 0, len(cfg.Gateways))
	for _, g := range cfg.Gateways {
		if g = strings.TrimSpace(g); g != "" {
			gateways = append(gateways, withSlash(g))
		}
	}
	image := withSlash(cfg.ImageGateway)
	if cfg.ImageGateway == "" && len(gateways) > 0 {
		image = gateways[0]
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	maxBytes := cfg.MaxBytes
	if maxBytes <= 0 {
		maxBytes = maxContentBytes
	}
	return &Resolver{
		gateways:     gateways,
		imageGateway: image,
		timeout:      timeout,
		maxBytes:     maxBytes,
		client:       client,
		cache:        cache,
		log:          log,
	}
}

// Cache exposes the resolver's cache.
func (r *Resolver) Cache() *Cache { return r.cache }

// Gateways returns the configured gateway prefixes in fallback order.
func (r *Resolver) Gateways() []string { return append([]string(nil), r.gateways...) }

// GatewayURL is the primary gateway URL for cid.
func (r *Resolver) GatewayURL(cid string) string {
	if cid == "" || len(r.gateways) == 0 {
		return ""
	}
	return r.gateways[0] + cid
}

// ImageURL is the image gateway URL for cid, empty when there is no image.
func (r *Resolver) ImageURL(cid string) string {
	if cid == "" || r.imageGateway == "" {
		return ""
	}
	return r.imageGateway + cid
}

// Fetch returns the raw bytes for cid. Only successful fetches are cached.
// Concurrent callers share one fetch; each stops waiting when its own ctx ends.
func (r *Resolver) Fetch(ctx context.Context, cid string) ([]byte, error) {
	cid = strings.TrimSpace(cid)
	if cid == "" {
		return nil, fmt.Errorf("%w: empty cid", ErrContentUnavailable)
	}
	if data, ok := r.cache.Get(ctx, cid); ok {
		return data, nil
	}

	// The shared fetch must not inherit the cancellation of whichever caller started it.
	shared := context.WithoutCancel(ctx)
	ch := r.group.DoChan(cid, func() (interface{}, error) {
		if data, ok := r.cache.Get(shared, cid); ok {
			return data, nil
		}
		return r.fetchFromGateways(shared, cid)
	})
	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]byte), nil
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %s: %w", ErrContentUnavailable, cid, ctx.Err())
	}
}

func (r *Resolver) fetchFromGateways(ctx context.Context, cid string) ([]byte, error) {
	var errs []error
	for _, gateway := range r.gateways {
		data, err := r.fetchOne(ctx, gateway+cid)
		if err == nil {
			r.cache.Put(ctx, cid, data)
			return data, nil
		}
		r.log.Debug("gateway fetch failed", zap.String("gateway", gateway), zap.String("cid", cid), zap.Error(err))
		errs = append(errs, err)
		if ctx.Err() != nil {
			break
		}
	}
	if len(errs) == 0 {
		errs = append(errs, errors.New("no gateways configured"))
	}
	return nil, fmt.Errorf("%w: %s: %w", ErrContentUnavailable, cid, errors.Join(errs...))
}

func (r *Resolver) fetchOne(ctx context.Context, url string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := r.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%s: status %d", url, resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, r.maxBytes+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > r.maxBytes {
		return nil, fmt.Errorf("%s: body exceeds %d bytes", url, r.maxBytes)
	}
	return data, nil
}

// ResolveText returns cid's content as text.
func (r *Resolver) ResolveText(ctx context.Context, cid string) (string, error) {
	data, err := r.Fetch(ctx, cid)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// ResolveJSON decodes cid's content into v.
func (r *Resolver) ResolveJSON(ctx context.Context, cid string, v interface{}) error {
	data, err := r.Fetch(ctx, cid)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode %s: %w", cid, err)
	}
	return nil
}

func withSlash(s string) string {
	s = strings.TrimSpace(s)
	if s == "" || strings.HasSuffix(s, "/") {
		return s
	}
	return s + "/"
}
