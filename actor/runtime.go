package actor

import (
	"github.com/markintheabyss/actorframe/internal/directory"
)

// Runtime owns the process-scoped framework and receiver directories
// that back cross-framework and receiver delivery. It is an explicit
// object rather than package-global mutable state, so a process can
// isolate multiple independent actor populations if it needs to, while
// still supporting a single implicit default for the common case.
type Runtime struct {
	frameworks *directory.Directory[*Framework]
	receivers  *directory.Directory[*Receiver]
}

// NewRuntime returns a fresh, independent Runtime. Most programs only
// need one; use DefaultRuntime unless isolating multiple independent
// actor populations in the same process.
func NewRuntime() *Runtime {
	return &Runtime{
		frameworks: directory.New[*Framework](),
		receivers:  directory.New[*Receiver](),
	}
}

var defaultRuntime = NewRuntime()

// DefaultRuntime returns the package-level shared Runtime used when a
// Framework or Receiver is constructed without an explicit WithRuntime
// option.
func DefaultRuntime() *Runtime { return defaultRuntime }
