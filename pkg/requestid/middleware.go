package requestid

import (
	"net/http"
	"regexp"

	"github.com/segmentio/ksuid"
)

const (
	Header      = "X-Request-ID"
	maxIDLength = 128
)

var validIDRegex = regexp.MustCompile("^[a-zA-Z0-9_-]+$")

// Option configures the middleware returned by New.
type Option func(*options)

type options struct {
	header  string
	trusted bool
	gen     func() string
}

// WithHeader changes the header used to read and echo the id.
func WithHeader(name string) Option {
	return func(o *options) {
		if name != "" {
			o.header = name
		}
	}
}

// WithTrustIncoming controls whether a valid client-supplied id is reused.
// It is on by default; turn it off for edge deployments where clients are
// not trusted to pick correlation ids.
func WithTrustIncoming(trust bool) Option {
	return func(o *options) { o.trusted = trust }
}

// WithGenerator replaces the id generator (KSUID by default).
func WithGenerator(gen func() string) Option {
	return func(o *options) {
		if gen != nil {
			o.gen = gen
		}
	}
}

// New returns a middleware that stores a request id in the request context
// and echoes it in the response header.
func New(opts ...Option) func(http.Handler) http.Handler {
	o := options{
		header:  Header,
		trusted: true,
		gen:     func() string { return ksuid.New().String() },
	}
	for _, opt := range opts {
		opt(&o)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := ""
			if o.trusted {
				id = r.Header.Get(o.header)
			}
			if !isValidRequestID(id) {
				id = o.gen()
			}
			w.Header().Set(o.header, id)
			next.ServeHTTP(w, r.WithContext(WithContext(r.Context(), id)))
		})
	}
}

// Middleware is New with default options.
func Middleware(next http.Handler) http.Handler {
	return New()(next)
}

func isValidRequestID(id string) bool {
	if len(id) == 0 || len(id) > maxIDLength {
		return false
	}
	return validIDRegex.MatchString(id)
}
