package export

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/maheswari8074/3d-transformations/internal/session"
	"github.com/maheswari8074/3d-transformations/internal/transform"
	"github.com/maheswari8074/3d-transformations/internal/typeid"
)

// PointSource returns the current transformed points of a session.
type PointSource func(ctx context.Context, sessionID string) (transform.Fixture, error)

type Handler struct {
	points  PointSource
	tempDir string // parent for per-export directories; "" uses os.TempDir
}

func NewHandler(points PointSource, tempDir string) *Handler {
	return &Handler{points: points, tempDir: tempDir}
}

func (h *Handler) ExportSTL(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["sessionId"]

	points, err := h.points(r.Context(), sessionID)
	if errors.Is(err, session.ErrNotFound) {
		http.Error(w, "session not found", http.StatusNotFound)
		return
	}
	if err != nil {
		slog.Error("load session points", "error", err, "session", sessionID)
		http.Error(w, "session unavailable", http.StatusInternalServerError)
		return
	}

	dir, err := os.MkdirTemp(h.tempDir, "xform-export-*")
	if err != nil {
		slog.Error("create temp dir", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	defer os.RemoveAll(dir)

	exportID := typeid.NewExportID()
	outPath := filepath.Join(dir, exportID+".stl")
	if err := WriteSTL(outPath, points); err != nil {
		slog.Error("write stl", "error", err, "session", sessionID)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	outFile, err := os.Open(outPath)
	if err != nil {
		slog.Error("open output file", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	defer outFile.Close()

	stat, err := outFile.Stat()
	if err != nil {
		slog.Error("stat output file", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "model/stl")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.stl"`, sessionID))
	w.Header().Set("Content-Length", strconv.FormatInt(stat.Size(), 10))
	io.Copy(w, outFile)

	slog.Info("export complete", "session", sessionID, "export", exportID, "size", stat.Size())
}
