package images

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/zarko379/iMangarr-ng/internal/domain"
)

const (
	// maxCoverSize limits download size to prevent memory exhaustion.
	maxCoverSize = 10 * 1024 * 1024

	defaultDownloadTimeout = 30 * time.Second
	defaultQueueSize       = 64
	defaultWorkers         = 2
)

var (
	// ErrTooLarge is returned for covers over the download limit.
	ErrTooLarge = errors.New("cover exceeds size limit")
	// ErrHostNotAllowed is returned for cover URLs outside the allowed hosts.
	ErrHostNotAllowed = errors.New("cover host not allowed")
)

// FetcherOptions configures a Fetcher.
type FetcherOptions struct {
	Workers   int
	QueueSize int
	Timeout   time.Duration
	Client    *http.Client
	// AllowURL decides which URLs may be downloaded, including redirect
	// targets. Defaults to domain.IsCatalogCoverURL.
	AllowURL func(string) bool
}

type job struct {
	id  domain.MangaID
	url string
}

// Fetcher downloads covers in the background and stores the processed JPEG
// and its BlurHash. Failures are logged and never surface to the caller.
type Fetcher struct {
	storage   *Storage
	processor *Processor
	client    *http.Client
	allow     func(string) bool
	timeout   time.Duration
	workers   int
	logger    *slog.Logger

	mu     sync.Mutex
	closed bool
	queue  chan job
	wg     sync.WaitGroup
}

// NewFetcher creates a fetcher. Call Start to run the workers.
func NewFetcher(storage *Storage, processor *Processor, opts FetcherOptions, logger *slog.Logger) *Fetcher {
	if opts.Workers <= 0 {
		opts.Workers = defaultWorkers
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = defaultQueueSize
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultDownloadTimeout
	}
	if opts.AllowURL == nil {
		opts.AllowURL = domain.IsCatalogCoverURL
	}
	if opts.Client == nil {
		opts.Client = &http.Client{Timeout: opts.Timeout}
	}
	client := *opts.Client
	allow := opts.AllowURL
	client.CheckRedirect = func(req *http.Request, via []*http.Request) error {
		if len(via) >= 5 {
			return errors.New("too many redirects")
		}
		if !allow(req.URL.String()) {
			return fmt.Errorf("redirect to %s: %w", req.URL.Host, ErrHostNotAllowed)
		}
		return nil
	}

	return &Fetcher{
		storage:   storage,
		processor: processor,
		client:    &client,
		allow:     allow,
		timeout:   opts.Timeout,
		workers:   opts.Workers,
		logger:    logger,
		queue:     make(chan job, opts.QueueSize),
	}
}

// Start launches the workers. They exit when Stop is called.
func (f *Fetcher) Start(ctx context.Context) {
	for range f.workers {
		f.wg.Go(func() {
			for j := range f.queue {
				if err := f.Fetch(ctx, j.id, j.url); err != nil {
					f.logger.Warn("failed to cache cover",
						slog.String("manga_id", j.id.String()),
						slog.String("url", j.url),
						slog.String("error", err.Error()))
				}
			}
		})
	}
}

// Enqueue schedules a download. A full queue or a stopped fetcher drops the job.
func (f *Fetcher) Enqueue(id domain.MangaID, coverURL string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return
	}

	select {
	case f.queue <- job{id: id, url: coverURL}:
	default:
		f.logger.Warn("cover queue full, dropping download", slog.String("manga_id", id.String()))
	}
}

// Stop drains the queue and waits for the workers.
func (f *Fetcher) Stop() {
	f.mu.Lock()
	if !f.closed {
		f.closed = true
		close(f.queue)
	}
	f.mu.Unlock()

	f.wg.Wait()
}

// Fetch downloads, processes and stores one cover.
func (f *Fetcher) Fetch(ctx context.Context, id domain.MangaID, rawURL string) error {
	if rawURL == "" {
		return errors.New("empty cover URL")
	}
	if !f.allow(rawURL) {
		host := rawURL
		if u, err := url.Parse(rawURL); err == nil {
			host = u.Host
		}
		return fmt.Errorf("%s: %w", host, ErrHostNotAllowed)
	}

	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return fmt.Errorf("download: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download failed: status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxCoverSize+1))
	if err != nil {
		return fmt.Errorf("read data: %w", err)
	}
	if len(data) > maxCoverSize {
		return ErrTooLarge
	}

	processed, err := f.processor.Process(data)
	if err != nil {
		return err
	}

	key := id.String()
	if err := f.storage.Save(key, processed.JPEG); err != nil {
		return fmt.Errorf("store: %w", err)
	}
	if err := f.storage.SaveBlurHash(key, processed.BlurHash); err != nil {
		f.logger.Warn("failed to store blurhash", slog.String("manga_id", key), slog.String("error", err.Error()))
	}

	f.logger.Info("cached cover",
		slog.String("manga_id", key),
		slog.Int("width", processed.Width),
		slog.Int("height", processed.Height),
		slog.Int("size", len(processed.JPEG)))
	return nil
}
