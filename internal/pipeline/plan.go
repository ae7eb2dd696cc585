package pipeline

import (
	"context"

	"batterylog/internal/footer"
	"batterylog/internal/logging"
	"batterylog/internal/services"
	"batterylog/internal/walker"
)

// Plan is the search a Run would perform, without decoding any trace file.
type Plan struct {
	Source     string
	Anchor     footer.Anchor
	Candidates []walker.Candidate
	// ListErrors holds category listing failures; the run skips those
	// categories.
	ListErrors []error
}

// Plan collects metadata and lists every candidate in search order.
func (r *Runner) Plan(ctx context.Context) (Plan, error) {
	plan := Plan{Source: r.source.Name()}
	meta, err := r.source.Metadata()
	if err != nil {
		return plan, services.Wrap(services.ErrFatalMetadata, StateCollectMetadata.String(), "collect", r.source.Name(), err)
	}
	plan.Anchor = footer.Scan(meta.Strings)

	for candidate, err := range r.source.Candidates() {
		if cerr := ctx.Err(); cerr != nil {
			return plan, cerr
		}
		if err != nil {
			plan.ListErrors = append(plan.ListErrors, err)
			continue
		}
		plan.Candidates = append(plan.Candidates, candidate)
	}
	r.logger.Debug("plan built",
		logging.AnchorOffset(plan.Anchor.Offset),
		logging.Int("candidates", len(plan.Candidates)),
		logging.Int("list_errors", len(plan.ListErrors)),
	)
	return plan, nil
}
