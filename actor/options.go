package actor

// Option configures a Framework at construction time using the
// functional-options convention.
type Option func(*frameworkOptions)

type frameworkOptions struct {
	threadCount uint32
	name        string
	runtime     *Runtime
}

func defaultFrameworkOptions() frameworkOptions {
	return frameworkOptions{threadCount: 16}
}

// WithThreadCount sets the framework's initial worker thread count
// (default 16).
func WithThreadCount(n uint32) Option {
	return func(o *frameworkOptions) { o.threadCount = n }
}

// WithName sets the framework's registered name explicitly, skipping
// name synthesis.
func WithName(name string) Option {
	return func(o *frameworkOptions) { o.name = name }
}

// WithRuntime registers the framework against rt instead of the
// package DefaultRuntime.
func WithRuntime(rt *Runtime) Option {
	return func(o *frameworkOptions) { o.runtime = rt }
}
