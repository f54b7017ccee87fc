package middleware

import (
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
	"p9e.in/apex/config"
)

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// RequestLogger emits one structured log line per request with the acting
// user when a token is present.
func RequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		fields := logrus.Fields{
			"method":   r.Method,
			"path":     r.URL.Path,
			"status":   rec.status,
			"duration": time.Since(start).String(),
		}
		if claims := GetClaims(r); claims != nil {
			fields["user_id"] = claims.UserID
			fields["role"] = claims.Role
		}
		config.GetLogger().WithFields(fields).Info("request")
	})
}
