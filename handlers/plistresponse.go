package handlers

import (
	"net/http"

	"airplayhls/internal/aplist"
)

const plistContentType = "text/x-apple-plist+xml"

// writePlist encodes v as an XML plist and writes it with the
// Content-Type spec.md §4.F requires for plist responses.
func writePlist(w http.ResponseWriter, status int, v interface{}) {
	body, err := aplist.EncodeXML(v)
	if err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", plistContentType)
	w.WriteHeader(status)
	w.Write(body)
}

// writeEmpty responds with an empty body and the given status, the
// rejection shape spec.md §4.F names for unsupported setProperty keys.
func writeEmpty(w http.ResponseWriter, status int) {
	w.Header().Set("Content-Length", "0")
	w.WriteHeader(status)
}
