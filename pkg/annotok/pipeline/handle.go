package pipeline

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"github.com/cognicore/annotok/pkg/annotok/annotate"
	"github.com/cognicore/annotok/pkg/annotok/internalerr"
)

// Handle owns the annotation service for one factory. The service is built at
// most once, on Preload or on first Get, and then shared by every caller.
// Failed builds are not remembered; the next Get tries again.
type Handle struct {
	id       string
	settings annotate.Settings
	build    annotate.Builder
	logger   *zap.Logger

	svc atomic.Pointer[serviceBox]
	mu  sync.Mutex

	builds atomic.Int64
}

type serviceBox struct {
	annotate.Annotator
}

// NewHandle creates a handle without building the service.
func NewHandle(settings annotate.Settings, build annotate.Builder, logger *zap.Logger) *Handle {
	if logger == nil {
		logger = zap.NewNop()
	}
	id := ulid.Make().String()
	return &Handle{
		id:       id,
		settings: settings,
		build:    build,
		logger:   logger.With(zap.String("handle", id)),
	}
}

// New resolves opts, creates a handle and builds the service right away when
// opts.Preload is set. A build failure here is returned to the caller.
func New(ctx context.Context, opts Options, build annotate.Builder, logger *zap.Logger) (*Handle, error) {
	if build == nil {
		return nil, fmt.Errorf("%w: nil annotator builder", internalerr.ErrInvalidConfig)
	}
	settings, err := BuildSettings(opts)
	if err != nil {
		return nil, err
	}
	h := NewHandle(settings, build, logger)
	if opts.Preload {
		if err := h.Preload(ctx); err != nil {
			return nil, err
		}
	}
	return h, nil
}

// ID identifies the handle in logs.
func (h *Handle) ID() string { return h.id }

// Settings returns the resolved settings.
func (h *Handle) Settings() annotate.Settings { return h.settings }

// Built reports whether the service has been constructed.
func (h *Handle) Built() bool { return h.svc.Load() != nil }

// Builds returns how many times the builder has succeeded. It is at most one.
func (h *Handle) Builds() int64 { return h.builds.Load() }

// Preload builds the service if it has not been built yet.
func (h *Handle) Preload(ctx context.Context) error {
	_, err := h.Get(ctx)
	return err
}

// Get returns the shared service, building it on first use.
func (h *Handle) Get(ctx context.Context) (annotate.Annotator, error) {
	if box := h.svc.Load(); box != nil {
		return box.Annotator, nil
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if box := h.svc.Load(); box != nil {
		return box.Annotator, nil
	}

	start := time.Now()
	h.logger.Info("building annotation pipeline",
		zap.Strings("annotators", h.settings.Annotators),
		zap.String("lang", h.settings.Language),
		zap.String("pos_model", h.settings.POSModel))

	svc, err := h.build(ctx, h.settings)
	if err == nil && svc == nil {
		err = fmt.Errorf("builder returned no annotator")
	}
	if err != nil {
		h.logger.Error("annotation pipeline build failed", zap.Error(err))
		return nil, fmt.Errorf("%w: %w", internalerr.ErrResourceLoad, err)
	}

	h.svc.Store(&serviceBox{svc})
	h.builds.Add(1)
	h.logger.Info("annotation pipeline ready", zap.Duration("elapsed", time.Since(start)))
	return svc, nil
}
