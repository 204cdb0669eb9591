package http

import (
	"io"
	"net/http"
)

// newEchoMux is a tiny fixture server shared by the client tests.
func newEchoMux() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/json", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"ok":true}`))
	})
	mux.HandleFunc("/text", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.Write([]byte("hello"))
	})
	mux.HandleFunc("/echo-header", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Echo", r.Header.Get("X-Test"))
		for _, v := range r.Header.Values("X-Test") {
			w.Header().Add("X-Echo-All", v)
		}
		w.WriteHeader(http.StatusOK)
		io.Copy(w, r.Body)
	})
	return mux
}
