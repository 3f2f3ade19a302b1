package server

import "net/http"

// authMiddleware guards the management endpoints with the server token,
// accepted either as an X-API-Token header or a token query parameter.
// Real deployments put JWT or API-key auth in front of this server; the
// built-in token is the self-hosted default.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := r.Header.Get("X-API-Token")
		if token == "" {
			token = r.URL.Query().Get("token")
		}
		if token != s.token {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}
