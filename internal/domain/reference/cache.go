// Package reference downloads and caches "normal" reference images per exam
// type. Failures degrade to fewer references and never fail the caller.
package reference

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"exam-analyzer-go/internal/domain/eventbus"
	"exam-analyzer-go/internal/domain/exam"
	"exam-analyzer-go/internal/domain/reference/manifest"
	"exam-analyzer-go/internal/utils"
)

// MIMEType is reported for every cached reference regardless of content.
const MIMEType = "image/jpeg"

const (
	DefaultUserAgent = "MedicalExamAnalyzer/1.0"
	DefaultTimeout   = 15 * time.Second
)

// Image is a reference image ready to be attached to a model request.
type Image struct {
	Data     []byte
	MIMEType string
	Path     string
}

// SlotResult is the outcome for one reference URL. Exactly one of Path and
// Err is set.
type SlotResult struct {
	Index  int
	URL    string
	Path   string
	Cached bool
	Err    error
}

func (r SlotResult) OK() bool {
	return r.Err == nil
}

type Options struct {
	Dir       string
	UserAgent string
	Timeout   time.Duration
	// MaxPerExam caps the URLs consulted per exam type; 0 disables references.
	MaxPerExam int
	HTTPClient *http.Client
	Manifest   manifest.Store
	Events     eventbus.Publisher
	Logger     *utils.Logger
}

// Cache resolves reference images for exam types from a local directory,
// downloading missing files on demand.
type Cache struct {
	dir       string
	catalog   *exam.Catalog
	client    *http.Client
	userAgent string
	limit     int
	manifest  manifest.Store
	events    eventbus.Publisher
	logger    *utils.Logger
}

func NewCache(catalog *exam.Catalog, opts Options) (*Cache, error) {
	if catalog == nil {
		return nil, errors.New("reference cache requires a catalog")
	}
	if opts.Dir == "" {
		return nil, errors.New("reference cache requires a directory")
	}
	if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("create reference dir: %w", err)
	}

	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: opts.Timeout}
	}
	limit := opts.MaxPerExam
	if limit < 0 || limit > exam.MaxReferences {
		limit = exam.MaxReferences
	}

	return &Cache{
		dir:       opts.Dir,
		catalog:   catalog,
		client:    client,
		userAgent: opts.UserAgent,
		limit:     limit,
		manifest:  opts.Manifest,
		events:    opts.Events,
		logger:    opts.Logger,
	}, nil
}

func (c *Cache) Dir() string {
	return c.dir
}

// PathFor returns the cache file of the index-th reference of t.
func (c *Cache) PathFor(t exam.Type, index int) string {
	return filepath.Join(c.dir, fmt.Sprintf("%s_normal_%d.jpg", t, index))
}

// Ensure makes sure every consulted reference of t is on disk, downloading
// the missing ones once each. Unknown types use the General URL list but
// keep their own file names.
func (c *Cache) Ensure(ctx context.Context, t exam.Type) []SlotResult {
	urls := c.catalog.References(t)
	if len(urls) > c.limit {
		urls = urls[:c.limit]
	}

	results := make([]SlotResult, 0, len(urls))
	for i, url := range urls {
		res := c.ensureSlot(ctx, t, i, url)
		if res.Err != nil {
			c.logger.WarnTag("REF", "reference %s #%d unavailable: %v", t, i, res.Err)
		}
		results = append(results, res)
	}
	return results
}

// References returns the available reference images for t, at most
// exam.MaxReferences of them, in catalog order.
func (c *Cache) References(ctx context.Context, t exam.Type) []Image {
	images := make([]Image, 0, exam.MaxReferences)
	for _, slot := range c.Ensure(ctx, t) {
		if !slot.OK() {
			continue
		}
		data, err := os.ReadFile(slot.Path)
		if err != nil {
			c.logger.WarnTag("REF", "read reference %s: %v", slot.Path, err)
			continue
		}
		images = append(images, Image{Data: data, MIMEType: MIMEType, Path: slot.Path})
	}
	return images
}

func (c *Cache) ensureSlot(ctx context.Context, t exam.Type, index int, url string) SlotResult {
	res := SlotResult{Index: index, URL: url}
	path := c.PathFor(t, index)
	event := eventbus.ReferenceEventData{ExamType: string(t), Index: index, URL: url}

	if _, err := os.Stat(path); err == nil {
		res.Path = path
		res.Cached = true
		c.publish(eventbus.EventReferenceCached, event)
		return res
	}

	started := time.Now()
	dl, err := c.download(ctx, url)
	if err == nil {
		err = writeFileAtomic(path, dl.body)
	}
	event.Duration = time.Since(started)
	if err != nil {
		res.Err = err
		event.Error = err.Error()
		c.publish(eventbus.EventReferenceFailed, event)
		return res
	}

	res.Path = path
	event.Path = path
	event.Bytes = int64(len(dl.body))
	c.publish(eventbus.EventReferenceDownloaded, event)
	c.record(ctx, t, index, url, path, dl)
	return res
}

func (c *Cache) publish(topic string, event eventbus.ReferenceEventData) {
	if c.events != nil {
		c.events.Publish(topic, event)
	}
}

// record writes the manifest entry; failures are logged only.
func (c *Cache) record(ctx context.Context, t exam.Type, index int, url, path string, dl *fetched) {
	if c.manifest == nil {
		return
	}
	rec := manifest.Record{
		ExamType:  string(t),
		Index:     index,
		URL:       url,
		Path:      path,
		Size:      int64(len(dl.body)),
		SHA256:    dl.sha256,
		Headers:   dl.headers,
		FetchedAt: time.Now().UTC(),
	}
	if err := c.manifest.Record(ctx, rec); err != nil {
		c.logger.WarnTag("STORE", "record manifest for %s #%d: %v", t, index, err)
	}
}

// writeFileAtomic replaces path with data via a temp file in the same dir.
func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close %s: %w", path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("rename %s: %w", path, err)
	}
	return nil
}
