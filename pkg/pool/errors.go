package pool

import "github.com/Yortw/PoolSharp/pkg/poolerrors"

// Sentinel errors returned by pool operations. They are structured
// poolerrors values, so both errors.Is against these sentinels and
// poolerrors.IsType against the underlying category work.
var (
	// ErrClosed is returned by Get, Fill and Prewarm after Close. Put is
	// exempt: on a closed pool it disposes its argument and returns nil.
	ErrClosed = poolerrors.New(poolerrors.ErrorTypeDisposed, "pool has been closed")

	// ErrNilValue is returned by Put when the value is nil.
	ErrNilValue = poolerrors.New(poolerrors.ErrorTypeValidation, "value must not be nil")

	// ErrDuplicate is returned by Put in strict mode when the value already
	// sits in the idle store. The underlying check is best-effort under
	// concurrency; treat this as a diagnostic aid, not a guarantee.
	ErrDuplicate = poolerrors.New(poolerrors.ErrorTypeConflict, "value is already idle in the pool")
)

// reinitError wraps a failure raised by a user-supplied reinitializer.
func reinitError(cause error) error {
	return poolerrors.Wrap(cause, poolerrors.ErrorTypeReinitialize, "reinitialize failed")
}
