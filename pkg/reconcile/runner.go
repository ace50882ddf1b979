package reconcile

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/heinrichb/stocksync/pkg/product"
)

// Runner drives one sync run over a parsed feed.
type Runner struct {
	catalog             Catalog
	reconciler          *Reconciler
	logger              *zap.Logger
	createOnLookupError bool
	now                 func() time.Time
}

// Option configures a Runner.
type Option func(*Runner)

// WithLogger sets the logger used by the runner and its reconciler.
func WithLogger(logger *zap.Logger) Option {
	return func(r *Runner) {
		r.logger = logger
	}
}

// WithCreateOnLookupError treats a failed catalog lookup as "not found", so the
// group goes down the create path instead of failing.
func WithCreateOnLookupError(enabled bool) Option {
	return func(r *Runner) {
		r.createOnLookupError = enabled
	}
}

// WithCreateMissingVariants makes the reconciler create in-stock variants the
// catalog product does not have yet.
func WithCreateMissingVariants(enabled bool) Option {
	return func(r *Runner) {
		r.reconciler.createMissingVariants = enabled
	}
}

// NewRunner creates a Runner backed by the given catalog.
func NewRunner(c Catalog, opts ...Option) *Runner {
	r := &Runner{
		catalog:    c,
		reconciler: &Reconciler{catalog: c},
		logger:     zap.NewNop(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.reconciler.logger = r.logger
	return r
}

/*
Run processes groups one at a time, in order.

Each group is looked up by name. Found products get their variants reconciled
against the full variant list; new products are created with their in-stock
variants, or skipped when none have stock. A failure in one group is recorded
in its ItemResult and the run moves on. Cancelling ctx stops the run before
the next group; the groups not reached are absent from the summary.
*/
func (r *Runner) Run(ctx context.Context, groups []product.Group) *Summary {
	summary := &Summary{StartedAt: r.now(), Items: make([]ItemResult, 0, len(groups))}
	r.logger.Info("Starting inventory update process...", zap.Int("groups", len(groups)))

	for _, g := range groups {
		if err := ctx.Err(); err != nil {
			r.logger.Warn("Inventory update interrupted", zap.Error(err))
			break
		}

		result := r.processGroup(ctx, g)
		if result.Outcome == OutcomeFailed {
			r.logger.Error(fmt.Sprintf("Error processing product '%s'", g.Name), zap.Error(result.Err))
		}
		summary.Items = append(summary.Items, result)
	}

	summary.FinishedAt = r.now()
	r.logger.Info("Inventory update process completed.",
		zap.Int("created", summary.Count(OutcomeCreated)),
		zap.Int("updated", summary.Count(OutcomeUpdated)),
		zap.Int("skipped", summary.Count(OutcomeSkipped)),
		zap.Int("failed", summary.Count(OutcomeFailed)),
		zap.Duration("duration", summary.Duration()),
	)
	return summary
}

// processGroup routes one group to create, reconcile or skip. A panic is
// turned into a failed result so it cannot end the run.
func (r *Runner) processGroup(ctx context.Context, g product.Group) (result ItemResult) {
	result = ItemResult{Name: g.Name}
	defer func() {
		if p := recover(); p != nil {
			result.Outcome = OutcomeFailed
			result.Err = fmt.Errorf("panic: %v", p)
			result.Reason = result.Err.Error()
		}
	}()

	fail := func(err error) ItemResult {
		result.Outcome = OutcomeFailed
		result.Err = err
		result.Reason = err.Error()
		return result
	}

	detail, err := r.catalog.FindProductByName(ctx, g.Name)
	if err != nil {
		if !r.createOnLookupError {
			return fail(fmt.Errorf("lookup failed, not creating: %w", err))
		}
		r.logger.Warn("Unexpected error getting product ID, treating as not found",
			zap.String("name", g.Name),
			zap.Error(err),
		)
		detail = nil
	}

	if detail != nil {
		result.ProductID = detail.ProductID
		report, err := r.reconciler.Reconcile(ctx, detail.ProductID, g.Variants)
		result.Variants = report
		if err != nil {
			return fail(err)
		}
		result.Outcome = OutcomeUpdated
		return result
	}

	inStock := product.InStock(g.Variants)
	if len(inStock) == 0 {
		r.logger.Info(fmt.Sprintf("Product '%s' has no stock. It will not be created.", g.Name))
		result.Outcome = OutcomeSkipped
		result.Reason = "no stock, not created"
		return result
	}

	created, err := r.catalog.CreateProduct(ctx, g.WithVariants(inStock))
	if err != nil {
		return fail(fmt.Errorf("error creating product %s: %w", g.SKU, err))
	}
	result.ProductID = created.ID
	result.Variants.Created = len(inStock)
	result.Outcome = OutcomeCreated
	return result
}
