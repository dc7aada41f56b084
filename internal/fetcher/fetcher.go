// Package fetcher downloads and decodes remote images for card rendering.
package fetcher

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"time"

	"github.com/HugoSmits86/nativewebp"
	"github.com/cenkalti/backoff/v4"
	"github.com/redqct/redqct/pkg/utils"
	"github.com/sourcegraph/conc/pool"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/image/webp"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"
)

var (
	// ErrUnexpectedStatus is returned when the remote host answers with a non-200 status.
	ErrUnexpectedStatus = errors.New("unexpected response status")
	// ErrUnsupportedFormat is returned when a payload is not a decodable image.
	ErrUnsupportedFormat = errors.New("unsupported image format")
	// ErrTooLarge is returned when a payload exceeds the configured size cap.
	ErrTooLarge = errors.New("image exceeds size limit")
)

// Request is one URL to fetch, tagged with the role its image plays.
type Request struct {
	Tag string
	URL string
}

// Cache stores raw image bytes by URL.
type Cache interface {
	Get(ctx context.Context, url string) ([]byte, bool, error)
	Set(ctx context.Context, url string, data []byte) error
}

// Options tunes the fetcher.
type Options struct {
	Timeout           time.Duration
	MaxBytes          int64
	RequestsPerSecond float64
	Burst             int
	Concurrency       int
	Retry             utils.RetryOptions
}

// DefaultOptions returns options suitable for avatar and rich-presence art.
func DefaultOptions() Options {
	return Options{
		Timeout:           10 * time.Second,
		MaxBytes:          8 << 20,
		RequestsPerSecond: 20,
		Burst:             10,
		Concurrency:       8,
		Retry:             utils.GetFetchRetryOptions(),
	}
}

// Fetcher downloads images concurrently with rate limiting, retries and an
// optional byte cache. Concurrent requests for the same URL share one download.
type Fetcher struct {
	client  *http.Client
	cache   Cache
	limiter *rate.Limiter
	group   singleflight.Group
	opts    Options
	logger  *zap.Logger
	tracer  trace.Tracer
}

// New creates a Fetcher. cache may be nil.
func New(client *http.Client, cache Cache, opts Options, logger *zap.Logger) *Fetcher {
	if client == nil {
		client = &http.Client{}
	}

	limit := rate.Inf
	if opts.RequestsPerSecond > 0 {
		limit = rate.Limit(opts.RequestsPerSecond)
	}

	return &Fetcher{
		client:  client,
		cache:   cache,
		limiter: rate.NewLimiter(limit, max(opts.Burst, 1)),
		opts:    opts,
		logger:  logger.Named("fetcher"),
		tracer:  otel.Tracer("fetcher"),
	}
}

type tagged struct {
	tag string
	img image.Image
}

// FetchAll downloads every request concurrently and returns the decoded images
// keyed by tag. Any failure cancels the rest and fails the whole batch.
func (f *Fetcher) FetchAll(ctx context.Context, reqs []Request) (map[string]image.Image, error) {
	ctx, span := f.tracer.Start(ctx, "fetcher.FetchAll", trace.WithAttributes(attribute.Int("requests", len(reqs))))
	defer span.End()

	p := pool.NewWithResults[tagged]().
		WithContext(ctx).
		WithCancelOnError().
		WithFirstError().
		WithMaxGoroutines(max(f.opts.Concurrency, 1))

	for _, req := range reqs {
		p.Go(func(ctx context.Context) (tagged, error) {
			img, err := f.Fetch(ctx, req.URL)
			if err != nil {
				return tagged{}, fmt.Errorf("failed to fetch %s: %w", req.Tag, err)
			}
			return tagged{tag: req.Tag, img: img}, nil
		})
	}

	results, err := p.Wait()
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	images := make(map[string]image.Image, len(results))
	for _, r := range results {
		images[r.tag] = r.img
	}

	return images, nil
}

// Fetch downloads and decodes a single image.
func (f *Fetcher) Fetch(ctx context.Context, url string) (image.Image, error) {
	data, err := f.bytes(ctx, url)
	if err != nil {
		return nil, err
	}
	return Decode(data)
}

// bytes returns the raw payload for url from the cache or the network.
func (f *Fetcher) bytes(ctx context.Context, url string) ([]byte, error) {
	if f.cache != nil {
		data, ok, err := f.cache.Get(ctx, url)
		if err != nil {
			f.logger.Warn("Failed to read asset cache", zap.String("url", url), zap.Error(err))
		} else if ok {
			return data, nil
		}
	}

	// The shared download runs detached from any one caller. Each caller stops
	// waiting when its own ctx ends.
	shared := context.WithoutCancel(ctx)
	ch := f.group.DoChan(url, func() (any, error) {
		return utils.WithRetry(shared, func() ([]byte, error) {
			return f.download(shared, url)
		}, f.opts.Retry)
	})

	var res singleflight.Result
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res = <-ch:
	}
	if res.Err != nil {
		return nil, res.Err
	}

	data := res.Val.([]byte)

	if f.cache != nil {
		if err := f.cache.Set(ctx, url, data); err != nil {
			f.logger.Warn("Failed to write asset cache", zap.String("url", url), zap.Error(err))
		}
	}

	return data, nil
}

// download performs one GET attempt. Client errors are permanent, server errors
// and transport failures are retried.
func (f *Fetcher) download(ctx context.Context, url string) ([]byte, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return nil, backoff.Permanent(err)
	}

	if f.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.opts.Timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, backoff.Permanent(fmt.Errorf("failed to build request: %w", err))
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode)
		if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
			return nil, err
		}
		return nil, backoff.Permanent(err)
	}

	limit := f.opts.MaxBytes
	if limit <= 0 {
		limit = DefaultOptions().MaxBytes
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return nil, err
	}

	if int64(len(data)) > limit {
		return nil, backoff.Permanent(fmt.Errorf("%w: more than %d bytes", ErrTooLarge, limit))
	}

	f.logger.Debug("Downloaded asset", zap.String("url", url), zap.Int("bytes", len(data)))
	return data, nil
}

// Decode decodes PNG, JPEG, GIF and WebP payloads.
func Decode(data []byte) (image.Image, error) {
	if http.DetectContentType(data) == "image/webp" {
		img, err := nativewebp.Decode(bytes.NewReader(data))
		if err == nil {
			return img, nil
		}

		// Lossy payloads are not handled by the native decoder.
		img, err = webp.Decode(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrUnsupportedFormat, err)
		}
		return img, nil
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnsupportedFormat, err)
	}
	return img, nil
}
