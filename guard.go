package apikit

import (
	"iter"
	"net/http"
)

// guardLimit is the ceiling MultipartGuard stores in the request context.
type guardLimit int64

// MultipartGuard returns middleware that installs a field-size guard on
// multipart requests. Requests with any other content type pass through
// untouched and are left to the route's own constraints.
//
// Parts observes the guard: the first field truncated at the ceiling stops
// iteration, the rest of the body is drained and a 413 *MultipartError naming
// the field is yielded.
func MultipartGuard(ceiling int64) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !IsMultipart(r) {
				next.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, SetValue(r, guardLimit(ceiling)))
		})
	}
}

// guardCeiling returns the ceiling installed by MultipartGuard, if any.
func guardCeiling(r *http.Request) (int64, bool) {
	c, ok := GetValue[guardLimit](r.Context())
	return int64(c), ok
}

// GuardParts wraps the reader's sequence so that a truncated field part
// terminates it. Before the failure is yielded every remaining part is
// consumed, so nothing is left unread on the connection.
func GuardParts(pr *PartReader) iter.Seq2[*Part, error] {
	return func(yield func(*Part, error) bool) {
		for part, err := range pr.All() {
			if err != nil {
				//nolint:errcheck,gosec // the limit error takes precedence
				pr.Drain()
				yield(nil, err)
				return
			}
			if part.Kind == PartField && part.Truncated {
				if err := pr.Drain(); err != nil {
					yield(nil, err)
					return
				}
				yield(nil, fieldTooLarge(part.Name, pr.limits.FieldSize))
				return
			}
			if !yield(part, nil) {
				return
			}
		}
	}
}

// Parts iterates over the parts of a multipart request. When MultipartGuard
// is installed for the request the sequence is guarded, and a zero
// limits.FieldSize defaults to the guard's ceiling.
func Parts(r *http.Request, limits MultipartLimits) iter.Seq2[*Part, error] {
	_, seq, err := openParts(r, limits)
	if err != nil {
		return func(yield func(*Part, error) bool) { yield(nil, err) }
	}
	return seq
}

func openParts(r *http.Request, limits MultipartLimits) (*PartReader, iter.Seq2[*Part, error], error) {
	ceiling, guarded := guardCeiling(r)
	if guarded && limits.FieldSize == 0 {
		limits.FieldSize = ceiling
	}

	pr, err := NewPartReader(r, limits)
	if err != nil {
		return nil, nil, err
	}
	if guarded {
		return pr, GuardParts(pr), nil
	}
	return pr, pr.All(), nil
}
