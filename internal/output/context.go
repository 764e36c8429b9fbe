package output

import "context"

// ctxKey names one printer setting carried in a context.
type ctxKey int

const (
	formatKey ctxKey = iota
	queryKey
	yesKey
	limitKey
	sortFieldKey
	sortDescKey
	quietKey
)

func value[T any](ctx context.Context, key ctxKey) (T, bool) {
	v, ok := ctx.Value(key).(T)
	return v, ok
}

// WithFormat returns a new context with the output format attached.
func WithFormat(ctx context.Context, format Format) context.Context {
	return context.WithValue(ctx, formatKey, format)
}

// FormatFromContext retrieves the output format, FormatText when unset.
func FormatFromContext(ctx context.Context) Format {
	if f, ok := value[Format](ctx, formatKey); ok {
		return f
	}
	return FormatText
}

// WithQuery adds a jq query string to context.
func WithQuery(ctx context.Context, query string) context.Context {
	return context.WithValue(ctx, queryKey, query)
}

// QueryFromContext retrieves the jq query from context.
func QueryFromContext(ctx context.Context) string {
	q, _ := value[string](ctx, queryKey)
	return q
}

// WithYes records --yes so destructive commands skip confirmation.
func WithYes(ctx context.Context, yes bool) context.Context {
	return context.WithValue(ctx, yesKey, yes)
}

// YesFromContext returns true if --yes flag is set.
func YesFromContext(ctx context.Context) bool {
	y, _ := value[bool](ctx, yesKey)
	return y
}

// WithLimit sets the --result-limit value in context.
func WithLimit(ctx context.Context, limit int) context.Context {
	return context.WithValue(ctx, limitKey, limit)
}

// LimitFromContext returns the result limit (0 = unlimited).
func LimitFromContext(ctx context.Context) int {
	l, _ := value[int](ctx, limitKey)
	return l
}

// WithSort sets sort field and direction in context.
func WithSort(ctx context.Context, field string, desc bool) context.Context {
	ctx = context.WithValue(ctx, sortFieldKey, field)
	return context.WithValue(ctx, sortDescKey, desc)
}

// SortFromContext returns sort field and direction.
func SortFromContext(ctx context.Context) (field string, desc bool) {
	field, _ = value[string](ctx, sortFieldKey)
	desc, _ = value[bool](ctx, sortDescKey)
	return field, desc
}

// WithQuiet sets the --quiet flag in context.
func WithQuiet(ctx context.Context, quiet bool) context.Context {
	return context.WithValue(ctx, quietKey, quiet)
}

// QuietFromContext returns true if --quiet flag is set.
func QuietFromContext(ctx context.Context) bool {
	q, _ := value[bool](ctx, quietKey)
	return q
}
