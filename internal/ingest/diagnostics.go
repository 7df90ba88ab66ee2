package ingest

import (
	"context"
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"

	"github.com/fortuna/rinkscout/internal/page"
)

// captureDiagnostics saves a screenshot and the page source as <name>.png and
// <name>.html. Failures are logged only.
func (b *base) captureDiagnostics(ctx context.Context, name string) {
	dir := b.cfg.DiagnosticsDir
	if dir == "" {
		return
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		b.log.Warn("cannot create diagnostics dir", "dir", dir, "err", err)
		return
	}

	shot := filepath.Join(dir, name+".png")
	switch err := b.driver.Screenshot(ctx, shot); {
	case errors.Is(err, page.ErrUnsupported):
		b.log.Debug("driver cannot take screenshots")
	case err != nil:
		b.log.Warn("screenshot failed", "path", shot, "err", err)
	default:
		b.log.Info("screenshot saved", "path", shot)
	}

	source, err := b.driver.PageSource(ctx)
	if err != nil {
		b.log.Warn("page source unavailable", "err", err)
		return
	}
	htmlPath := filepath.Join(dir, name+".html")
	if err := os.WriteFile(htmlPath, []byte(source), 0o644); err != nil {
		b.log.Warn("writing page source failed", "path", htmlPath, "err", err)
		return
	}
	b.log.Info("page source saved", "path", htmlPath)
}
