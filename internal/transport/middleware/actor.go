package middleware

import (
	"encoding/json"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/heartmarshall/clinic-consent/pkg/ctxutil"
)

// ActorHeader carries the staff identity recorded in the audit trail.
const ActorHeader = "X-Actor-Id"

const maxActorLen = 100

// RequireActor copies the X-Actor-Id header into the context and rejects
// requests without one. The header is an audit identity, not a credential.
func RequireActor(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor := strings.TrimSpace(r.Header.Get(ActorHeader))
		if actor == "" || utf8.RuneCountInString(actor) > maxActorLen {
			writeJSONError(w, http.StatusUnauthorized, "missing or invalid "+ActorHeader+" header")
			return
		}
		next.ServeHTTP(w, r.WithContext(ctxutil.WithActor(r.Context(), actor)))
	})
}

// writeJSONError writes the same {"error": ...} body as the REST handlers.
func writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
