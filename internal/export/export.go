package export

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"prop-strategy-builder/internal/interfaces"
	"prop-strategy-builder/internal/types"
)

const ReadmeName = "README.txt"

var ErrNoBaseName = errors.New("artifact has no base name")

// ProjectExporter writes one folder per strategy under Dir:
//
//	<Dir>/<Base>/<Base>.mq5
//	<Dir>/<Base>/<Base>.set
//	<Dir>/<Base>/README.txt
//
// An existing folder of the same name is replaced.
type ProjectExporter struct {
	Dir string
}

var _ interfaces.Exporter = (*ProjectExporter)(nil)

func New(dir string) *ProjectExporter {
	return &ProjectExporter{Dir: dir}
}

// Files lists the paths Export writes for a base name, in write order.
func (e *ProjectExporter) Files(base string) []string {
	folder := filepath.Join(e.Dir, base)
	return []string{
		filepath.Join(folder, base+".mq5"),
		filepath.Join(folder, base+".set"),
		filepath.Join(folder, ReadmeName),
	}
}

// Export stages the three documents in a hidden sibling directory and renames
// it into place, so readers never see a half-written project.
func (e *ProjectExporter) Export(ctx context.Context, art *types.Artifact) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if art == nil || art.BaseName == "" {
		return nil, ErrNoBaseName
	}
	base := art.BaseName

	if err := os.MkdirAll(e.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	staging, err := os.MkdirTemp(e.Dir, "."+base+".tmp-")
	if err != nil {
		return nil, fmt.Errorf("failed to create staging directory: %w", err)
	}
	defer os.RemoveAll(staging)

	contents := map[string]string{
		base + ".mq5": art.Source,
		base + ".set": art.Parameters,
		ReadmeName:    art.Summary,
	}
	for name, body := range contents {
		if err := os.WriteFile(filepath.Join(staging, name), []byte(body), 0o644); err != nil {
			return nil, fmt.Errorf("failed to write %s: %w", name, err)
		}
	}
	if err := os.Chmod(staging, 0o755); err != nil {
		return nil, fmt.Errorf("failed to set permissions: %w", err)
	}

	target := filepath.Join(e.Dir, base)
	var backup string
	if _, err := os.Stat(target); err == nil {
		backup = staging + ".old"
		if err := os.Rename(target, backup); err != nil {
			return nil, fmt.Errorf("failed to move previous export aside: %w", err)
		}
	}
	if err := os.Rename(staging, target); err != nil {
		if backup != "" {
			_ = os.Rename(backup, target)
		}
		return nil, fmt.Errorf("failed to move export into place: %w", err)
	}
	if backup != "" {
		_ = os.RemoveAll(backup)
	}

	return e.Files(base), nil
}
