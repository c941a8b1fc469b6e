package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"conveyor/internal/collab"
)

func testMetadata() collab.RunMetadata {
	return collab.RunMetadata{
		JobName:   "spring-petclinic-pipeline",
		RunNumber: 42,
		Version:   "42-abc123",
		Revision:  "abc123",
		Branch:    "main",
		ImageRef:  "spring-petclinic:42-abc123",
	}
}

func TestArchiveCopiesFilesAndWritesMetadata(t *testing.T) {
	workspace := t.TempDir()
	if err := os.MkdirAll(filepath.Join(workspace, "target"), 0o755); err != nil {
		t.Fatal(err)
	}
	jar := filepath.Join("target", "app.jar")
	if err := os.WriteFile(filepath.Join(workspace, jar), []byte("jar bytes"), 0o644); err != nil {
		t.Fatal(err)
	}

	store := NewFileStore(workspace)
	dir := filepath.Join(t.TempDir(), "42")

	location, err := store.Archive(context.Background(), dir, []string{jar}, testMetadata())
	if err != nil {
		t.Fatalf("Archive() error = %v", err)
	}
	if location != dir {
		t.Errorf("location = %q, want %q", location, dir)
	}

	copied, err := os.ReadFile(filepath.Join(dir, "app.jar"))
	if err != nil {
		t.Fatalf("archived file missing: %v", err)
	}
	if string(copied) != "jar bytes" {
		t.Errorf("archived content = %q", copied)
	}

	meta, err := os.ReadFile(filepath.Join(dir, MetadataFileName))
	if err != nil {
		t.Fatalf("metadata file missing: %v", err)
	}
	text := string(meta)
	for _, line := range []string{
		"job_name=spring-petclinic-pipeline",
		"run_number=42",
		"version=42-abc123",
		"revision=abc123",
		"branch=main",
		"image_ref=spring-petclinic:42-abc123",
		"sha256_app.jar=",
	} {
		if !strings.Contains(text, line) {
			t.Errorf("metadata missing %q:\n%s", line, text)
		}
	}
}

func TestArchiveMissingSourceIsArchiveError(t *testing.T) {
	store := NewFileStore(t.TempDir())

	_, err := store.Archive(context.Background(), t.TempDir(), []string{"target/nope.jar"}, testMetadata())

	var archiveErr *collab.ArchiveError
	if !errors.As(err, &archiveErr) {
		t.Fatalf("Archive() error = %v, want ArchiveError", err)
	}
	if !strings.Contains(archiveErr.Error(), "absent") {
		t.Errorf("error = %q, want mention of absent source", archiveErr)
	}
}

func TestArchiveWithoutFilesWritesOnlyMetadata(t *testing.T) {
	store := NewFileStore(t.TempDir())
	dir := t.TempDir()

	if _, err := store.Archive(context.Background(), dir, nil, testMetadata()); err != nil {
		t.Fatalf("Archive() error = %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Name() != MetadataFileName {
		t.Errorf("entries = %v, want only the metadata record", entries)
	}
}

func TestArchiveMetadataWriteFailureIsArchiveError(t *testing.T) {
	store := NewFileStore(t.TempDir())
	dir := t.TempDir()

	// A directory squatting on the metadata filename makes the record
	// unwritable regardless of permissions.
	if err := os.MkdirAll(filepath.Join(dir, MetadataFileName), 0o755); err != nil {
		t.Fatal(err)
	}

	_, err := store.Archive(context.Background(), dir, nil, testMetadata())

	var archiveErr *collab.ArchiveError
	if !errors.As(err, &archiveErr) {
		t.Fatalf("Archive() error = %v, want ArchiveError for a failed metadata write", err)
	}
	if archiveErr.Path != filepath.Join(dir, MetadataFileName) {
		t.Errorf("Path = %q, want the metadata record path", archiveErr.Path)
	}
}

func TestSaveStageLogSanitizesName(t *testing.T) {
	store := NewFileStore(t.TempDir())
	dir := t.TempDir()

	path, err := store.SaveStageLog(dir, "Unit Tests", "all green\n")
	if err != nil {
		t.Fatalf("SaveStageLog() error = %v", err)
	}
	if filepath.Base(path) != "Unit-Tests.log" {
		t.Errorf("log file = %q, want Unit-Tests.log", filepath.Base(path))
	}

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(content) != "all green\n" {
		t.Errorf("log content = %q", content)
	}
}

func TestSanitize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Build", "Build"},
		{"Unit Tests", "Unit-Tests"},
		{"weird/../name!", "weird..name"},
		{"///", "stage"},
	}
	for _, tt := range tests {
		if got := sanitize(tt.in); got != tt.want {
			t.Errorf("sanitize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
