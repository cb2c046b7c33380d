package api

import (
	"errors"
	"io/fs"
	"net/http"
	"strings"
)

// staticFiles is the complete set of files the client may fetch.
var staticFiles = map[string]string{
	"index.html": "text/html; charset=utf-8",
	"style.css":  "text/css; charset=utf-8",
	"app.js":     "application/javascript; charset=utf-8",
}

// staticName maps a request path to an allow-listed file name.
func staticName(urlPath string) (string, bool) {
	if urlPath == "/" {
		return "index.html", true
	}
	name := strings.TrimPrefix(urlPath, "/")
	_, ok := staticFiles[name]
	return name, ok
}

func (s *HTTPServer) handleStatic(w http.ResponseWriter, r *http.Request) {
	name, ok := staticName(r.URL.Path)
	if !ok || s.assets == nil {
		handleNotFound(w, r)
		return
	}

	info, err := fs.Stat(s.assets, name)
	if err != nil || info.IsDir() {
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			s.logger.Error().Err(err).Str("file", name).Msg("stat static file")
		}
		handleNotFound(w, r)
		return
	}

	data, err := fs.ReadFile(s.assets, name)
	if err != nil {
		s.logger.Error().Err(err).Str("file", name).Msg("read static file")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", staticFiles[name])
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
