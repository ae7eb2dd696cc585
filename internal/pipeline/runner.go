package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"batterylog/internal/extract"
	"batterylog/internal/footer"
	"batterylog/internal/logging"
	"batterylog/internal/services"
	"batterylog/internal/tracev3"
	"batterylog/internal/unifiedlog"
	"batterylog/internal/walker"
)

// Result summarizes a run.
type Result struct {
	RunID    string
	Source   string
	Value    string
	Found    bool
	Message  string
	Category walker.Category
	// Path is the trace file the value came from.
	Path         string
	Anchor       footer.Anchor
	FilesVisited int
	FilesSkipped int
	// Deferred counts entries held back for missing oversize data. They are
	// never reprocessed.
	Deferred int
	State    State
	Trail    []State
	Elapsed  time.Duration
}

// Option configures a Runner.
type Option func(*Runner)

// WithDecoder replaces the tracev3 decoder.
func WithDecoder(d Decoder) Option {
	return func(r *Runner) { r.decoder = d }
}

// WithReconstructor replaces the log entry builder.
func WithReconstructor(rc Reconstructor) Option {
	return func(r *Runner) { r.reconstructor = rc }
}

// WithStrict switches extraction to first-entry-only mode.
func WithStrict(strict bool) Option {
	return func(r *Runner) { r.extractor.Strict = strict }
}

// WithLogger sets the base logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) { r.logger = logger }
}

// Runner drives one extraction against a Source.
type Runner struct {
	source        Source
	decoder       Decoder
	reconstructor Reconstructor
	extractor     extract.Extractor
	logger        *slog.Logger
	now           func() time.Time
}

// New constructs a Runner using the default decoder and reconstructor.
func New(source Source, opts ...Option) *Runner {
	r := &Runner{
		source:        source,
		decoder:       defaultDecoder,
		reconstructor: defaultReconstructor,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = logging.NewComponentLogger(r.logger, "pipeline")
	return r
}

type run struct {
	*Runner
	ctx    context.Context
	logger *slog.Logger
	meta   *unifiedlog.Metadata
	result Result

	category walker.Category
	entered  bool
	carry    []tracev3.Oversize
}

// Run executes the state machine. A nil error with Result.Found false means
// the store holds no battery health value.
func (r *Runner) Run(ctx context.Context) (Result, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	started := r.now()
	runID := uuid.NewString()
	ctx = services.WithRunID(ctx, runID)

	st := &run{Runner: r, ctx: ctx, logger: logging.WithContext(ctx, r.logger)}
	st.result.RunID = runID
	st.result.Source = r.source.Name()
	st.transition(StateInit)

	err := st.execute()
	st.result.Elapsed = r.now().Sub(started)
	st.logger.Debug("extraction finished",
		logging.String("state", st.result.State.String()),
		logging.Bool("found", st.result.Found),
		logging.Int("files_visited", st.result.FilesVisited),
		logging.Int("files_skipped", st.result.FilesSkipped),
		logging.Int("deferred", st.result.Deferred),
		logging.Duration("elapsed", st.result.Elapsed),
	)
	return st.result, err
}

func (st *run) execute() error {
	st.transition(StateCollectMetadata)
	meta, err := st.source.Metadata()
	if err != nil {
		return services.Wrap(services.ErrFatalMetadata, StateCollectMetadata.String(), "collect", st.source.Name(), err)
	}
	st.meta = meta
	st.result.Anchor = footer.Scan(meta.Strings)
	st.logger.Debug("metadata collected",
		logging.Int("string_tables", len(meta.Strings)),
		logging.Int("shared_strings", len(meta.SharedStrings)),
		logging.Int("boots", len(meta.Boots)),
		logging.AnchorOffset(st.result.Anchor.Offset),
		logging.Int("anchor_matches", st.result.Anchor.Matches),
	)

	for candidate, err := range st.source.Candidates() {
		if cerr := st.ctx.Err(); cerr != nil {
			return cerr
		}
		st.enter(candidate.Category)
		if err != nil {
			logging.WarnWithContext(st.categoryLogger(), "trace category listing failed", "category_list_failed",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check read permissions on the log store"),
			)
			continue
		}
		found, err := st.tryCandidate(candidate)
		if err != nil {
			return err
		}
		if found {
			st.transition(StateDone)
			return nil
		}
	}
	if err := st.ctx.Err(); err != nil {
		return err
	}
	st.transition(StateNoResult)
	return nil
}

// enter switches categories, resetting the oversize carry.
func (st *run) enter(category walker.Category) {
	if st.entered && category == st.category {
		return
	}
	st.entered = true
	st.category = category
	st.carry = nil
	st.ctx = services.WithCategory(st.ctx, category.String())
	st.transition(stateFor(category))
}

func (st *run) tryCandidate(c walker.Candidate) (bool, error) {
	logger := st.categoryLogger().With(logging.Path(c.Path))
	st.result.FilesVisited++

	anchor := st.result.Anchor.Offset
	raw, err := st.decoder.Decode(c.Path, anchor)
	if err != nil {
		if c.Category == walker.Live {
			return false, services.Wrap(services.ErrFatalTrace, st.result.State.String(), "decode", c.Path, err)
		}
		st.result.FilesSkipped++
		logger.Debug("trace file skipped",
			logging.Error(services.Wrap(services.ErrRecoverableFile, st.result.State.String(), "decode", c.Path, err)),
		)
		return false, nil
	}

	raw.Oversize = append(raw.Oversize, st.carry...)
	entries, deferred := st.reconstructor.Reconstruct(raw, st.meta, true, anchor)
	st.carry = raw.Oversize
	st.result.Deferred += len(deferred)

	logger.Debug("trace file reconstructed",
		logging.Int("records", raw.RecordCount()),
		logging.Int("entries", len(entries)),
		logging.Int("deferred", len(deferred)),
		logging.Int("oversize_carry", len(st.carry)),
	)

	match, ok, err := st.extractor.Extract(entries)
	if err != nil {
		return false, services.Wrap(services.ErrExtractionMismatch, st.result.State.String(), "extract", c.Path, err)
	}
	if !ok {
		return false, nil
	}
	st.result.Found = true
	st.result.Value = match.Value
	st.result.Message = match.Message
	st.result.Category = c.Category
	st.result.Path = c.Path
	logger.Info("battery health value found",
		logging.String("value", match.Value),
		logging.String(logging.FieldEventType, "value_found"),
	)
	return true, nil
}

func (st *run) transition(next State) {
	st.result.State = next
	st.result.Trail = append(st.result.Trail, next)
	st.ctx = services.WithStage(st.ctx, next.String())
}

func (st *run) categoryLogger() *slog.Logger {
	return logging.WithContext(st.ctx, st.Runner.logger)
}

func stateFor(category walker.Category) State {
	switch category {
	case walker.Special:
		return StateTrySpecial
	case walker.Persist:
		return StateTryPersist
	}
	return StateTryLive
}
