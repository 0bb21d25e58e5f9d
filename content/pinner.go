package content

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/nodespeak/nodespeak/models"
)

var ErrPinningNotConfigured = errors.New("pinning credentials not configured")

const maxPinBytes = 32 << 20

// PinnerConfig carries Pinata credentials: either a JWT or an API key pair.
type PinnerConfig struct {
	Endpoint  string
	JWT       string
	APIKey    string
	SecretKey string
}

func (c PinnerConfig) configured() bool {
	return c.JWT != "" || (c.APIKey != "" && c.SecretKey != "")
}

// PinLog records pins made by the node.
type PinLog interface {
	Record(ctx context.Context, rec *models.PinRecord) error
}

// NopPinLog discards pin records.
type NopPinLog struct{}

func (NopPinLog) Record(context.Context, *models.PinRecord) error { return nil }

// GormPinLog stores pin records in the node database.
type GormPinLog struct {
	db *gorm.DB
}

func NewGormPinLog(db *gorm.DB) *GormPinLog { return &GormPinLog{db: db} }

func (l *GormPinLog) Record(ctx context.Context, rec *models.PinRecord) error {
	return l.db.WithContext(ctx).Create(rec).Error
}

type pinResponse struct {
	IpfsHash  string `json:"IpfsHash"`
	PinSize   int64  `json:"PinSize"`
	Timestamp string `json:"Timestamp"`
}

// Pinner uploads content to Pinata's pinFileToIPFS endpoint.
type Pinner struct {
	cfg    PinnerConfig
	client *http.Client
	cache  *Cache
	pins   PinLog
	log    *zap.Logger
}

// NewPinner builds a pinner. Pinned bytes are put into cache so the node can
// read them back before gateways have propagated the CID.
func NewPinner(cfg PinnerConfig, client *http.Client, cache *Cache, pins PinLog, log *zap.Logger) *Pinner {
	if client == nil {
		client = &http.Client{}
	}
	if pins == nil {
		pins = NopPinLog{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Pinner{cfg: cfg, client: client, cache: cache, pins: pins, log: log}
}

// Configured reports whether credentials are present.
func (p *Pinner) Configured() bool { return p.cfg.configured() }

// PinFile uploads r under name and returns its CID.
func (p *Pinner) PinFile(ctx context.Context, name, kind string, r io.Reader) (string, error) {
	if !p.cfg.configured() {
		return "", ErrPinningNotConfigured
	}
	data, err := io.ReadAll(io.LimitReader(r, maxPinBytes+1))
	if err != nil {
		return "", fmt.Errorf("read %s: %w", name, err)
	}
	if len(data) > maxPinBytes {
		return "", fmt.Errorf("pin %s: file exceeds %d bytes", name, maxPinBytes)
	}

	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	fw, err := mw.CreateFormFile("file", name)
	if err != nil {
		return "", err
	}
	if _, err := fw.Write(data); err != nil {
		return "", err
	}
	meta, _ := json.Marshal(map[string]string{"name": name})
	if err := mw.WriteField("pinataMetadata", string(meta)); err != nil {
		return "", err
	}
	if err := mw.Close(); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.cfg.Endpoint, body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if p.cfg.JWT != "" {
		req.Header.Set("Authorization", "Bearer "+p.cfg.JWT)
	} else {
		req.Header.Set("pinata_api_key", p.cfg.APIKey)
		req.Header.Set("pinata_secret_api_key", p.cfg.SecretKey)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("pin %s: %w", name, err)
	}
	defer resp.Body.Close()
	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("pin %s: status %d: %s", name, resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	var out pinResponse
	if err := json.Unmarshal(respBody, &out); err != nil {
		return "", fmt.Errorf("pin %s: decode response: %w", name, err)
	}
	if out.IpfsHash == "" {
		return "", fmt.Errorf("pin %s: response carried no IpfsHash", name)
	}

	if p.cache != nil {
		p.cache.Put(ctx, out.IpfsHash, data)
	}
	size := out.PinSize
	if size == 0 {
		size = int64(len(data))
	}
	if err := p.pins.Record(ctx, &models.PinRecord{CID: out.IpfsHash, Name: name, Size: size, Kind: kind}); err != nil {
		p.log.Warn("record pin failed", zap.String("cid", out.IpfsHash), zap.Error(err))
	}
	p.log.Info("content pinned", zap.String("cid", out.IpfsHash), zap.String("name", name), zap.String("kind", kind))
	return out.IpfsHash, nil
}

// PinText pins a text or HTML body.
func (p *Pinner) PinText(ctx context.Context, name, text string) (string, error) {
	return p.PinFile(ctx, name, models.PinText, strings.NewReader(text))
}

// PinJSON pins v encoded as JSON.
func (p *Pinner) PinJSON(ctx context.Context, name string, v interface{}) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("encode %s: %w", name, err)
	}
	return p.PinFile(ctx, name, models.PinJSON, bytes.NewReader(data))
}
