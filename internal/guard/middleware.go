// internal/guard/middleware.go
//
// Chi middleware that enforces Decide on the matcher set.

package guard

import (
	"net/http"

	"github.com/yanizio/gatehouse/internal/authapi"
	"github.com/yanizio/gatehouse/internal/logger"
	"github.com/yanizio/gatehouse/internal/metrics"
	"github.com/yanizio/gatehouse/internal/session"
)

// Middleware looks up the session for guarded paths, stores it in the
// request context, and executes the decision.  A failed lookup is logged
// and treated as no session.
//
// Safe methods are redirected with 307 so the browser repeats the GET.
// Other methods get 303, which the browser follows with a GET.
func Middleware(lookup session.Lookup) func(http.Handler) http.Handler {
	if lookup == nil {
		panic("guard.Middleware: lookup must not be nil")
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			path := r.URL.Path
			if !Guarded(path) {
				next.ServeHTTP(w, r)
				return
			}

			sess, err := lookup.GetSession(r.Context(), authapi.RequestHeaders(r))
			if err != nil {
				logger.FromContext(r.Context()).Warnw("session lookup failed",
					"path", path, "err", err)
				sess = nil
			}

			act := Decide(path, sess != nil)
			metrics.GuardDecisions.WithLabelValues(path, act.Kind.String()).Inc()

			if act.Kind == Redirect {
				code := http.StatusTemporaryRedirect
				if r.Method != http.MethodGet && r.Method != http.MethodHead {
					code = http.StatusSeeOther
				}
				http.Redirect(w, r, act.URL, code)
				return
			}

			next.ServeHTTP(w, r.WithContext(session.WithSession(r.Context(), sess)))
		})
	}
}
