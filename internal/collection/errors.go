package collection

import "fmt"

// BadRequestError reports a validation failure: an empty update, a zero
// limit, order-by without a range index, or order-by combined with an ID
// offset. Client fault.
type BadRequestError struct {
	Message string
}

func (e *BadRequestError) Error() string { return e.Message }

func badRequest(format string, args ...any) error {
	return &BadRequestError{Message: fmt.Sprintf(format, args...)}
}

// NotFoundError reports an unknown shard ID, e.g. from UpdateFromPeer when
// the target shard doesn't exist or holds no local copy under Weak
// ordering.
type NotFoundError struct {
	Message string
}

func (e *NotFoundError) Error() string { return e.Message }

func notFound(format string, args ...any) error {
	return &NotFoundError{Message: fmt.Sprintf(format, args...)}
}

// ServiceError is the fall-through for unexpected internal conditions.
type ServiceError struct {
	Message string
	Cause   error
}

func (e *ServiceError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *ServiceError) Unwrap() error { return e.Cause }

func serviceError(format string, args ...any) error {
	return &ServiceError{Message: fmt.Sprintf(format, args...)}
}

// InconsistentShardFailureError reports 0 < shards_failed < shards_total on
// a client write: some shards applied the update, some did not. The
// caller's retry policy must treat this differently from a uniform
// failure, since a partial batch needs idempotent replay rather than a
// straight retry.
type InconsistentShardFailureError struct {
	ShardsTotal  int
	ShardsFailed int
	FirstErr     error
}

func (e *InconsistentShardFailureError) Error() string {
	return fmt.Sprintf("inconsistent shard failure: %d of %d shards failed, first error: %v",
		e.ShardsFailed, e.ShardsTotal, e.FirstErr)
}

// Unwrap exposes the first failing shard's error so that error
// classification (client vs. server) is inherited from it, per spec.
func (e *InconsistentShardFailureError) Unwrap() error { return e.FirstErr }

// IsClientFault reports whether err should be surfaced to the caller as a
// client error (4xx-equivalent) rather than a server error. An
// InconsistentShardFailureError inherits the classification of its
// first failing shard.
func IsClientFault(err error) bool {
	switch e := err.(type) {
	case *BadRequestError:
		return true
	case *NotFoundError:
		return true
	case *InconsistentShardFailureError:
		return IsClientFault(e.FirstErr)
	case *ServiceError:
		return false
	default:
		return false
	}
}
