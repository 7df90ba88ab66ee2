package rest

import (
	"net/http"
	"strconv"

	"github.com/cockroachdb/errors"
	"github.com/gorilla/mux"

	"github.com/fortuna/rinkscout/internal/export"
)

// WithExports serves the JSON and CSV files written to dir by sweeps.
func (h *Handler) WithExports(dir string) *Handler {
	h.exports = dir
	return h
}

func (h *Handler) GetLatestData(w http.ResponseWriter, r *http.Request) {
	if h.exports == "" {
		respondError(w, http.StatusServiceUnavailable, "Exports not configured", nil)
		return
	}
	data, err := export.ReadLatest(h.exports)
	if errors.Is(err, export.ErrNoExport) {
		respondError(w, http.StatusNotFound, "No data available yet", nil)
		return
	}
	if err != nil {
		h.log.Error("read latest export failed", "err", err)
		respondError(w, http.StatusInternalServerError, "Failed to read latest data", err)
		return
	}
	respondJSON(w, http.StatusOK, data)
}

func (h *Handler) GetDataInfo(w http.ResponseWriter, r *http.Request) {
	if h.exports == "" {
		respondError(w, http.StatusServiceUnavailable, "Exports not configured", nil)
		return
	}
	files, err := export.ListFiles(h.exports)
	if err != nil {
		h.log.Error("list exports failed", "err", err)
		respondError(w, http.StatusInternalServerError, "Failed to list data files", err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"files": files, "total_files": len(files)})
}

func (h *Handler) DownloadFile(w http.ResponseWriter, r *http.Request) {
	if h.exports == "" {
		respondError(w, http.StatusServiceUnavailable, "Exports not configured", nil)
		return
	}
	name := mux.Vars(r)["filename"]
	path, err := export.Resolve(h.exports, name)
	if err != nil {
		respondError(w, http.StatusNotFound, "File not found", nil)
		return
	}
	w.Header().Set("Content-Disposition", "attachment; filename="+strconv.Quote(name))
	http.ServeFile(w, r, path)
}
