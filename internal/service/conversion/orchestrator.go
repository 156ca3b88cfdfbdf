package conversion

import (
	"context"
	"errors"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"convertly/internal/config"
	"convertly/internal/domain"
	"convertly/internal/domain/models"
	"convertly/internal/domain/services"
	"convertly/internal/preview"
)

// State is the orchestrator's lifecycle state.
type State int

const (
	StateIdle State = iota
	StateConverting
	StateSucceeded
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConverting:
		return "converting"
	case StateSucceeded:
		return "succeeded"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

const (
	// progressCeiling is where synthetic progress stalls until the real
	// conversion settles. Completion jumps to 100; failure resets to 0.
	progressCeiling = 88

	defaultTickInterval = 200 * time.Millisecond
)

// Orchestrator wraps the dispatcher with quota and size pre-flight checks,
// synthetic progress reporting, and preview-resource lifecycle. One
// conversion runs at a time per instance; a second Convert while one is in
// flight is rejected, never serialized against live state.
//
// The progress value is cosmetic: it rises via randomized increments on a
// tick interval and never decreases while converting. The ticker goroutine
// is always cancelled and joined before the conversion settles, so no
// timer mutates state after teardown.
type Orchestrator struct {
	dispatcher services.Dispatcher
	identity   services.Identity
	previews   *preview.Store
	logger     *slog.Logger

	tickInterval time.Duration

	mu         sync.Mutex
	state      State
	progress   int
	handle     *preview.Handle
	onProgress func(int)
}

// NewOrchestrator creates an orchestrator. The identity collaborator and
// preview store may be nil for library use without accounts or previews;
// quota checks and usage increments are then skipped.
func NewOrchestrator(dispatcher services.Dispatcher, identity services.Identity, previews *preview.Store, logger *slog.Logger) *Orchestrator {
	return &Orchestrator{
		dispatcher:   dispatcher,
		identity:     identity,
		previews:     previews,
		logger:       logger,
		tickInterval: defaultTickInterval,
	}
}

// SetProgressCallback registers a callback invoked with each new progress
// value. Values are monotonic while converting.
func (o *Orchestrator) SetProgressCallback(fn func(int)) {
	o.mu.Lock()
	o.onProgress = fn
	o.mu.Unlock()
}

// SetTickInterval overrides the synthetic progress tick interval.
func (o *Orchestrator) SetTickInterval(d time.Duration) {
	if d > 0 {
		o.mu.Lock()
		o.tickInterval = d
		o.mu.Unlock()
	}
}

// State returns the current lifecycle state.
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// Progress returns the current progress value, 0-100.
func (o *Orchestrator) Progress() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.progress
}

// Convert runs one conversion attempt. Every failure in the conversion
// taxonomy is returned as a typed error alongside a non-nil result with
// Success=false; nothing panics through to the caller. A failed attempt
// leaves usage counters untouched.
func (o *Orchestrator) Convert(ctx context.Context, req *models.ConversionRequest) (*models.ConversionResult, error) {
	o.mu.Lock()
	if o.state == StateConverting {
		o.mu.Unlock()
		return failedResult(domain.ErrConversionInFlight), domain.ErrConversionInFlight
	}
	// A new conversion supersedes the previous preview.
	o.releaseHandleLocked()
	o.state = StateConverting
	o.progress = 0
	o.mu.Unlock()

	if err := o.preflight(ctx, req); err != nil {
		return o.settleFailure(err)
	}

	user := o.currentUser(ctx)

	if err := o.checkQuota(user); err != nil {
		return o.settleFailure(err)
	}
	if err := o.checkSize(user, req); err != nil {
		return o.settleFailure(err)
	}

	// The ticker races the conversion; cancel-and-join before settling so
	// it can never mutate state afterwards.
	tickCtx, cancelTicker := context.WithCancel(context.Background())
	var tickerDone sync.WaitGroup
	tickerDone.Add(1)
	o.mu.Lock()
	interval := o.tickInterval
	o.mu.Unlock()
	go o.runTicker(tickCtx, &tickerDone, interval)

	convResult, convErr := o.dispatch(ctx, req)

	cancelTicker()
	tickerDone.Wait()

	if convErr != nil {
		return o.settleFailure(convErr)
	}
	return o.settleSuccess(ctx, user, convResult), nil
}

// Reset returns the orchestrator to idle and releases any preview handle
// it still owns. It is a no-op while a conversion is in flight.
func (o *Orchestrator) Reset() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.state == StateConverting {
		return
	}
	o.releaseHandleLocked()
	o.state = StateIdle
	o.progress = 0
}

// DetachPreview transfers ownership of the current preview handle to the
// caller, who becomes responsible for its single release. Returns nil if
// there is nothing to detach.
func (o *Orchestrator) DetachPreview() *preview.Handle {
	o.mu.Lock()
	defer o.mu.Unlock()
	h := o.handle
	o.handle = nil
	return h
}

func (o *Orchestrator) preflight(ctx context.Context, req *models.ConversionRequest) error {
	switch {
	case req == nil || len(req.SourceBytes) == 0:
		return &domain.MissingInputError{Message: "no source file selected"}
	case req.TargetFormatID == "":
		return &domain.MissingInputError{Message: "no target format selected"}
	}
	return nil
}

// currentUser resolves the session user. Unauthenticated callers convert
// under free-tier limits and are never counted against a quota.
func (o *Orchestrator) currentUser(ctx context.Context) *models.User {
	if o.identity == nil {
		return nil
	}
	user, err := o.identity.CurrentUser(ctx)
	if err != nil {
		if !errors.Is(err, domain.ErrUnauthorized) {
			o.logger.Warn("identity lookup failed", "error", err)
		}
		return nil
	}
	return user
}

func (o *Orchestrator) checkQuota(user *models.User) error {
	if user == nil || o.identity == nil {
		return nil
	}
	if !o.identity.HasQuota(user) {
		return &domain.QuotaExceededError{
			Used:  user.ConversionsUsed,
			Limit: config.MaxFreeConversions,
		}
	}
	return nil
}

func (o *Orchestrator) checkSize(user *models.User, req *models.ConversionRequest) error {
	limit := int64(config.FreeTierMaxFileBytes)
	if user != nil && user.IsPremium() {
		limit = config.PremiumTierMaxFileBytes
	}
	if size := int64(len(req.SourceBytes)); size > limit {
		return &domain.FileTooLargeError{Size: size, Limit: limit}
	}
	return nil
}

// dispatch shields the caller from converter panics; a panicking converter
// settles as a RenderError instead of unwinding into the caller.
func (o *Orchestrator) dispatch(ctx context.Context, req *models.ConversionRequest) (result *services.ConverterResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			o.logger.Error("converter panicked", "panic", r)
			result = nil
			err = &domain.RenderError{}
		}
	}()
	return o.dispatcher.Dispatch(ctx, req)
}

func (o *Orchestrator) runTicker(ctx context.Context, done *sync.WaitGroup, interval time.Duration) {
	defer done.Done()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			o.mu.Lock()
			if o.state != StateConverting {
				o.mu.Unlock()
				return
			}
			next := o.progress + 3 + rand.IntN(10)
			if next > progressCeiling {
				next = progressCeiling
			}
			changed := next > o.progress
			if changed {
				o.progress = next
			}
			cb := o.onProgress
			o.mu.Unlock()

			if changed && cb != nil {
				cb(next)
			}
		}
	}
}

func (o *Orchestrator) settleSuccess(ctx context.Context, user *models.User, conv *services.ConverterResult) *models.ConversionResult {
	var handle *preview.Handle
	if o.previews != nil {
		handle = o.previews.Put(conv.File.Bytes, conv.File.Filename, conv.File.MIMEType)
	}

	o.mu.Lock()
	o.state = StateSucceeded
	o.progress = 100
	o.handle = handle
	cb := o.onProgress
	o.mu.Unlock()

	if cb != nil {
		cb(100)
	}

	result := &models.ConversionResult{
		Success:    true,
		Output:     &conv.File,
		Advisories: conv.Advisories,
		Is3D:       conv.Is3D,
	}
	if handle != nil {
		result.PreviewID = handle.ID()
	}

	// Exactly one increment per successful conversion of an authenticated
	// user. A failing collaborator never rolls back the delivered result.
	if user != nil && o.identity != nil {
		if err := o.identity.IncrementUsage(ctx, user.ID); err != nil {
			o.logger.Warn("usage increment failed",
				"user_id", user.ID,
				"error", err,
			)
		}
	}

	return result
}

func (o *Orchestrator) settleFailure(err error) (*models.ConversionResult, error) {
	o.mu.Lock()
	o.state = StateFailed
	o.progress = 0
	o.mu.Unlock()

	o.logger.Info("conversion failed", "error", err)
	return failedResult(err), err
}

func (o *Orchestrator) releaseHandleLocked() {
	if o.handle != nil {
		o.handle.Release()
		o.handle = nil
	}
}

func failedResult(err error) *models.ConversionResult {
	return &models.ConversionResult{
		Success:      false,
		ErrorMessage: err.Error(),
	}
}
