package translate

import (
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/roach88/expandql/internal/expr"
	"github.com/roach88/expandql/internal/queryopts"
	"github.com/roach88/expandql/internal/typeinfo"
)

// IDGenerator produces translation IDs.
type IDGenerator interface {
	Generate() string
}

// UUIDv7Generator generates time-sortable UUIDv7 translation IDs.
//
// Thread-safety: UUIDv7Generator is stateless and safe for concurrent use.
type UUIDv7Generator struct{}

// Generate creates a new UUIDv7 and returns it as a hyphenated string.
//
// Panics if UUID generation fails (should never happen in practice).
func (UUIDv7Generator) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}

// Translator composes the path, order, filter, expansion and projection
// compilers into a Plan for one set of query options.
//
// A Translator holds only immutable configuration and is safe for
// concurrent use.
type Translator struct {
	logger    *slog.Logger
	ids       IDGenerator
	paramName string
	nested    bool
}

// Option configures a Translator.
type Option func(*Translator)

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(t *Translator) {
		t.logger = l
	}
}

// WithIDGenerator sets the translation ID source. Default: UUIDv7Generator.
func WithIDGenerator(g IDGenerator) Option {
	return func(t *Translator) {
		t.ids = g
	}
}

// WithParameterName sets the root parameter name of projection selectors.
// Default: DefaultParameterName.
func WithParameterName(name string) Option {
	return func(t *Translator) {
		t.paramName = name
	}
}

// WithNestedOptions applies per-expansion filter, ordering and paging
// inside projections. Default: off; nested options are only recorded in
// the forest.
func WithNestedOptions(enabled bool) Option {
	return func(t *Translator) {
		t.nested = enabled
	}
}

// New creates a Translator.
func New(opts ...Option) *Translator {
	t := &Translator{
		logger:    slog.Default(),
		ids:       UUIDv7Generator{},
		paramName: DefaultParameterName,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Plan is the translation of one set of query options: every expression a
// provider needs, plus the intermediate descriptors they were built from.
type Plan struct {
	// ID identifies this translation in logs and output.
	ID string

	// Root is the element type of the queried sequence.
	Root typeinfo.TypeDescriptor

	// Filter is root -> bool, nil without a filter clause.
	Filter *expr.Lambda

	// Steps and Page are the root-level ordering and paging.
	Steps []OrderStep
	Page  PageBounds

	// Query is q => q.OrderBy(...)...Skip(...).Take(...), nil when there is
	// neither ordering nor a take bound.
	Query *expr.Lambda

	// Count is q => q.LongCount(filter).
	Count *expr.Lambda

	// Selects are the root-level select names.
	Selects []string

	// Forest is the expansion forest the selectors were compiled from.
	Forest ExpansionForest

	// Selectors are the root -> object projection selectors.
	Selectors []*expr.Lambda

	// Includes are the dotted navigation paths to load.
	Includes []string
}

// Translate compiles opts against root. A nil opts is treated as empty.
//
// Translation either succeeds completely or returns the first error;
// there are no partial plans.
func (t *Translator) Translate(opts *queryopts.QueryOptions, root typeinfo.TypeDescriptor) (*Plan, error) {
	if root == nil {
		return nil, &MalformedChainError{Reason: "nil root type"}
	}
	if opts == nil {
		opts = &queryopts.QueryOptions{}
	}

	plan := &Plan{ID: t.ids.Generate(), Root: root}
	log := t.logger.With("translation_id", plan.ID, "root", root.Name())

	filter, err := FilterExpression(opts.Filter, root)
	if err != nil {
		return nil, fmt.Errorf("filter: %w", err)
	}
	plan.Filter = filter
	if filter != nil {
		log.Debug("filter compiled", "predicate", filter.String())
	}
	plan.Count = CountExpression(root, filter)

	steps, err := OrderSteps(opts.OrderBy)
	if err != nil {
		return nil, fmt.Errorf("orderby: %w", err)
	}
	plan.Steps = steps
	plan.Page = PageBounds{Skip: opts.Skip, Take: opts.Top}

	query, err := QueryableLambda(root, steps, plan.Page)
	if err != nil {
		return nil, fmt.Errorf("orderby: %w", err)
	}
	plan.Query = query
	if query != nil {
		log.Debug("order chain built", "steps", len(steps), "query", query.String())
	}

	forest, err := BuildExpansions(opts.SelectExpand, root)
	if err != nil {
		return nil, fmt.Errorf("expand: %w", err)
	}
	plan.Forest = forest
	plan.Selects = Selects(opts.SelectExpand)
	plan.Includes = Includes(opts.SelectExpand)

	projection := ProjectionOptions{ParameterName: t.paramName, ApplyNestedOptions: t.nested}
	selectors, err := projection.Build(root, plan.Selects, forest)
	if err != nil {
		return nil, fmt.Errorf("select: %w", err)
	}
	plan.Selectors = selectors
	log.Debug("projection compiled",
		"branches", len(forest),
		"selectors", len(selectors),
	)

	return plan, nil
}

// Pipeline composes filter, then ordering and paging, into one
// q => ... lambda over a queryable of the root type. It returns nil when
// the plan neither filters nor orders nor pages.
func (p *Plan) Pipeline() (*expr.Lambda, error) {
	q := expr.Param("q", typeinfo.Sequence(p.Root, true))

	var body expr.Expr = q
	if p.Filter != nil {
		body = expr.WhereCall(body, p.Filter)
	}
	chain, err := BuildOrderChain(body, p.Steps, p.Page)
	if err != nil {
		return nil, err
	}
	if chain != nil {
		body = chain
	}

	if body == expr.Expr(q) {
		return nil, nil
	}
	return expr.NewLambda(q, body), nil
}
