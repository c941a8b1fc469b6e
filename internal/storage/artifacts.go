// Package storage implements the filesystem-backed artifact store:
// per-run directories holding stage logs, archived build outputs, and
// the run metadata record.
package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"conveyor/internal/collab"
	"conveyor/pkg/utils"
)

// MetadataFileName is the run record written into every artifact
// directory.
const MetadataFileName = "run-metadata.txt"

// FileStore is a local-filesystem ArtifactStore. Archived file paths
// are resolved relative to Workspace.
type FileStore struct {
	Workspace string
}

// NewFileStore returns a FileStore archiving out of workspace.
func NewFileStore(workspace string) *FileStore {
	return &FileStore{Workspace: workspace}
}

// SaveStageLog writes captured stage output to <dir>/<stage>.log,
// sanitizing the stage name for use as a filename.
func (s *FileStore) SaveStageLog(dir, stage, output string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}

	path := filepath.Join(dir, sanitize(stage)+".log")
	if err := os.WriteFile(path, []byte(output), 0o644); err != nil {
		return "", err
	}
	return path, nil
}

// Archive copies files into dir, records their SHA-256 checksums, and
// writes the metadata record. A missing source file is an
// ArchiveError: archiving is required for traceability, so callers
// treat it as fatal. Calling Archive with no files writes only the
// metadata record.
func (s *FileStore) Archive(ctx context.Context, dir string, files []string, meta collab.RunMetadata) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("cannot create artifact directory: %w", err)
	}

	meta.Checksums = make(map[string]string, len(files))
	for _, rel := range files {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		src := filepath.Join(s.Workspace, rel)
		if _, err := os.Stat(src); err != nil {
			return "", &collab.ArchiveError{Path: src, Reason: "source file absent"}
		}

		dst := filepath.Join(dir, filepath.Base(rel))
		if err := copyFile(src, dst); err != nil {
			return "", &collab.ArchiveError{Path: src, Reason: err.Error()}
		}

		sum, err := utils.HashFile(dst)
		if err != nil {
			return "", &collab.ArchiveError{Path: dst, Reason: err.Error()}
		}
		meta.Checksums[filepath.Base(rel)] = sum
	}

	if err := s.writeMetadata(dir, meta); err != nil {
		return "", err
	}
	return dir, nil
}

// writeMetadata persists the run record as key/value text. The six
// identity fields always come first, followed by one checksum line per
// archived file.
func (s *FileStore) writeMetadata(dir string, meta collab.RunMetadata) error {
	var sb strings.Builder
	fmt.Fprintf(&sb, "job_name=%s\n", meta.JobName)
	fmt.Fprintf(&sb, "run_number=%d\n", meta.RunNumber)
	fmt.Fprintf(&sb, "version=%s\n", meta.Version)
	fmt.Fprintf(&sb, "revision=%s\n", meta.Revision)
	fmt.Fprintf(&sb, "branch=%s\n", meta.Branch)
	fmt.Fprintf(&sb, "image_ref=%s\n", meta.ImageRef)

	names := make([]string, 0, len(meta.Checksums))
	for name := range meta.Checksums {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(&sb, "sha256_%s=%s\n", sanitize(name), meta.Checksums[name])
	}

	path := filepath.Join(dir, MetadataFileName)
	if err := os.WriteFile(path, []byte(sb.String()), 0o644); err != nil {
		// The metadata record is required for traceability; its loss is
		// an archive failure like any other.
		return &collab.ArchiveError{Path: path, Reason: err.Error()}
	}
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Close()
}

// sanitize strips characters unsafe in filenames from stage and file
// names.
func sanitize(name string) string {
	var sb strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z',
			r >= '0' && r <= '9', r == '-', r == '_', r == '.':
			sb.WriteRune(r)
		case r == ' ':
			sb.WriteRune('-')
		}
	}
	if sb.Len() == 0 {
		return "stage"
	}
	return sb.String()
}
