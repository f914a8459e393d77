package serve

import (
	"bytes"
	"errors"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"path"
	"strings"

	"github.com/gorilla/mux"

	"github.com/hupe1980/decktools/internal/reload"
)

// Handler returns the HTTP handler: the reload websocket, the reload
// client script, and the root directory served read-only. Every response
// forbids caching.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	r.Use(noCache)

	r.HandleFunc(reload.SocketPath, s.hub.HandleWebSocket)
	r.HandleFunc(reload.ScriptPath, serveScript).Methods(http.MethodGet, http.MethodHead)
	r.PathPrefix("/").Handler(&staticHandler{
		root:   http.Dir(s.opts.Root),
		files:  http.FileServer(http.Dir(s.opts.Root)),
		logger: s.opts.Logger,
	}).Methods(http.MethodGet, http.MethodHead)

	return r
}

// noCache makes clients fetch fresh bytes on every reload.
func noCache(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Cache-Control", "no-cache, no-store, must-revalidate")
		h.Set("Pragma", "no-cache")
		h.Set("Expires", "0")

		next.ServeHTTP(w, r)
	})
}

func serveScript(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/javascript; charset=utf-8")
	_, _ = io.WriteString(w, reload.ClientScript)
}

// staticHandler serves files below root. HTML documents get the reload
// client script injected; everything else is passed to the file server.
type staticHandler struct {
	root   http.FileSystem
	files  http.Handler
	logger *slog.Logger
}

func (h *staticHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	name := path.Clean("/" + r.URL.Path)
	if strings.HasSuffix(r.URL.Path, "/") {
		name = path.Join(name, "index.html")
	}

	if !isHTML(name) {
		h.files.ServeHTTP(w, r)
		return
	}

	f, err := h.root.Open(name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) && strings.HasSuffix(r.URL.Path, "/") {
			// No index page: fall back to the directory listing.
			h.files.ServeHTTP(w, r)
			return
		}

		http.NotFound(w, r)

		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil || info.IsDir() {
		http.NotFound(w, r)
		return
	}

	page, err := io.ReadAll(f)
	if err != nil {
		h.logger.Error("reading page", slog.String("path", name), slog.String("error", err.Error()))
		http.Error(w, "internal server error", http.StatusInternalServerError)

		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	http.ServeContent(w, r, name, info.ModTime(), bytes.NewReader(reload.InjectScript(page)))
}

func isHTML(name string) bool {
	ext := strings.ToLower(path.Ext(name))
	return ext == ".html" || ext == ".htm"
}
