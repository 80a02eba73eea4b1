package mw

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// IPBlocklist blocks requests from listed IPs and CIDR ranges. The list
// lives in object storage as a JSON array of strings and is refreshed
// lazily with etag caching. Unavailable storage fails open.
type IPBlocklist struct {
	s3Client *s3.Client
	bucket   string
	key      string

	mu           sync.RWMutex
	blocked      map[string]bool
	blockedCIDRs []*net.IPNet
	etag         string
	lastCheck    time.Time
	lastError    time.Time
	initialized  bool

	cacheTTL     time.Duration
	errorBackoff time.Duration
	logger       *slog.Logger
}

// BlocklistConfig holds configuration for the IP blocklist.
type BlocklistConfig struct {
	S3Client     *s3.Client
	Bucket       string
	Key          string
	CacheTTL     time.Duration // Refresh interval (default: 5 min)
	ErrorBackoff time.Duration // Wait after a fetch error (default: 1 min)
	Logger       *slog.Logger
}

// NewIPBlocklist creates the blocklist middleware. The list is loaded on
// first request, not at construction.
func NewIPBlocklist(cfg BlocklistConfig) *IPBlocklist {
	if cfg.CacheTTL == 0 {
		cfg.CacheTTL = 5 * time.Minute
	}
	if cfg.ErrorBackoff == 0 {
		cfg.ErrorBackoff = time.Minute
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	return &IPBlocklist{
		s3Client:     cfg.S3Client,
		bucket:       cfg.Bucket,
		key:          cfg.Key,
		blocked:      make(map[string]bool),
		cacheTTL:     cfg.CacheTTL,
		errorBackoff: cfg.ErrorBackoff,
		logger:       cfg.Logger,
	}
}

// Middleware returns the HTTP middleware handler.
func (b *IPBlocklist) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if b.s3Client == nil {
				next.ServeHTTP(w, r)
				return
			}

			b.maybeRefresh(r.Context())

			clientIP := extractIP(r)
			if b.isBlocked(clientIP) {
				b.logger.Warn("blocked request from blocklisted IP",
					"ip", clientIP,
					"path", r.URL.Path,
				)
				http.Error(w, "Forbidden", http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// maybeRefresh kicks a background refresh when the cache is stale and
// the error backoff has elapsed. Never blocks the request path.
func (b *IPBlocklist) maybeRefresh(ctx context.Context) {
	b.mu.RLock()
	stale := !b.initialized || time.Since(b.lastCheck) > b.cacheTTL
	backingOff := !b.lastError.IsZero() && time.Since(b.lastError) < b.errorBackoff
	b.mu.RUnlock()

	if stale && !backingOff {
		go b.refresh(ctx)
	}
}

func (b *IPBlocklist) refresh(ctx context.Context) {
	b.mu.Lock()
	if b.initialized && time.Since(b.lastCheck) < b.cacheTTL {
		b.mu.Unlock()
		return
	}
	currentEtag := b.etag
	b.mu.Unlock()

	input := &s3.GetObjectInput{Bucket: &b.bucket, Key: &b.key}
	if currentEtag != "" {
		input.IfNoneMatch = &currentEtag
	}

	resp, err := b.s3Client.GetObject(ctx, input)
	if err != nil {
		var noKey *types.NoSuchKey
		if errors.As(err, &noKey) {
			// No blocklist uploaded yet; check again after the backoff
			b.markChecked(true)
			return
		}
		var notModified interface{ ErrorCode() string }
		if errors.As(err, &notModified) && notModified.ErrorCode() == "NotModified" {
			b.markChecked(false)
			return
		}

		b.markChecked(true)
		b.logger.Error("failed to fetch IP blocklist",
			"error", err,
			"bucket", b.bucket,
			"key", b.key,
		)
		return
	}
	defer func() { _ = resp.Body.Close() }()

	blocked, cidrs, err := parseBlocklist(resp.Body, b.logger)
	if err != nil {
		b.markChecked(true)
		b.logger.Error("failed to parse IP blocklist", "error", err)
		return
	}

	b.mu.Lock()
	b.blocked = blocked
	b.blockedCIDRs = cidrs
	b.initialized = true
	b.lastCheck = time.Now()
	b.lastError = time.Time{}
	if resp.ETag != nil {
		b.etag = *resp.ETag
	}
	b.mu.Unlock()

	b.logger.Info("IP blocklist refreshed",
		"exact_ips", len(blocked),
		"cidr_ranges", len(cidrs),
	)
}

func (b *IPBlocklist) markChecked(errored bool) {
	b.mu.Lock()
	b.initialized = true
	b.lastCheck = time.Now()
	if errored {
		b.lastError = time.Now()
	}
	b.mu.Unlock()
}

// parseBlocklist reads a JSON array of IPs and CIDR ranges. Invalid
// entries are logged and skipped, never fatal.
func parseBlocklist(r io.Reader, logger *slog.Logger) (map[string]bool, []*net.IPNet, error) {
	var entries []string
	if err := json.NewDecoder(r).Decode(&entries); err != nil {
		return nil, nil, err
	}

	blocked := make(map[string]bool)
	var cidrs []*net.IPNet

	for _, entry := range entries {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}

		if strings.Contains(entry, "/") {
			_, ipNet, err := net.ParseCIDR(entry)
			if err != nil {
				logger.Warn("invalid CIDR in blocklist", "entry", entry, "error", err)
				continue
			}
			cidrs = append(cidrs, ipNet)
			continue
		}

		if ip := net.ParseIP(entry); ip != nil {
			blocked[ip.String()] = true
		} else {
			logger.Warn("invalid IP in blocklist", "entry", entry)
		}
	}

	return blocked, cidrs, nil
}

func (b *IPBlocklist) isBlocked(ipStr string) bool {
	ip := net.ParseIP(ipStr)
	if ip == nil {
		return false
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.blocked[ip.String()] {
		return true
	}
	for _, cidr := range b.blockedCIDRs {
		if cidr.Contains(ip) {
			return true
		}
	}
	return false
}

// extractIP gets the client IP from the request. chi's RealIP middleware
// has already rewritten RemoteAddr when behind a proxy.
func extractIP(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}
