package handlers

import (
	"net/http"
	"strconv"
)

var liveBody = []byte("OK")

// HandleHealth is the liveness check: 200 "OK" (no body for HEAD), marked as not cacheable.
func HandleHealth(w http.ResponseWriter, r *http.Request) {
	h := w.Header()
	h.Set("Content-Type", "text/plain; charset=utf-8")
	h.Set("Content-Length", strconv.Itoa(len(liveBody)))
	h.Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)

	if r.Method != http.MethodHead {
		_, _ = w.Write(liveBody)
	}
}
