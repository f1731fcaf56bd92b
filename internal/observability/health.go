package observability

import (
	"encoding/json"
	"net/http"
)

const healthStatusOK = "ok"

// HealthHandler returns an [http.Handler] for liveness checks at /healthz.
// It always answers 200 with {"status":"ok"}.
func HealthHandler() http.Handler {
	return http.HandlerFunc(func(rw http.ResponseWriter, _ *http.Request) {
		rw.Header().Set("Content-Type", "application/json")
		rw.WriteHeader(http.StatusOK)

		data, err := json.Marshal(map[string]string{"status": healthStatusOK})
		if err != nil {
			return
		}

		_, _ = rw.Write(data)
	})
}
