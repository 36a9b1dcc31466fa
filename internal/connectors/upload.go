package connectors

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	minioclient "github.com/maraichr/coursesync/internal/store/minio"
)

const (
	maxEntrySize     = 100 << 20 // per extracted file
	courseInfoMarker = "infoCourse.json"
)

// UploadConnector stores course archives in MinIO and unpacks them into a
// course directory.
type UploadConnector struct {
	minio *minioclient.Client
}

func NewUploadConnector(minio *minioclient.Client) *UploadConnector {
	return &UploadConnector{minio: minio}
}

// Upload streams the archive to object storage.
func (u *UploadConnector) Upload(ctx context.Context, objectName string, reader io.Reader, size int64) error {
	return u.minio.UploadFile(ctx, objectName, reader, size)
}

// Extract downloads the archive and replaces destDir with its contents.
func (u *UploadConnector) Extract(ctx context.Context, objectName, destDir string) error {
	reader, err := u.minio.DownloadFile(ctx, objectName)
	if err != nil {
		return fmt.Errorf("download zip: %w", err)
	}
	defer reader.Close()

	tmpFile, err := os.CreateTemp("", "coursesync-upload-*.zip")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmpFile.Name())
	defer tmpFile.Close()

	if _, err := io.Copy(tmpFile, reader); err != nil {
		return fmt.Errorf("copy to temp: %w", err)
	}
	tmpFile.Close()

	return ExtractArchive(tmpFile.Name(), destDir)
}

// ExtractArchive unpacks the zip at archivePath and swaps it in as destDir.
// An archive whose only top-level entry is a directory holding
// infoCourse.json is unwrapped.
func ExtractArchive(archivePath, destDir string) error {
	if err := os.MkdirAll(filepath.Dir(destDir), 0o755); err != nil {
		return fmt.Errorf("create parent dir: %w", err)
	}
	staging, err := os.MkdirTemp(filepath.Dir(destDir), ".upload-*")
	if err != nil {
		return fmt.Errorf("create staging dir: %w", err)
	}
	defer os.RemoveAll(staging)

	if err := unzip(archivePath, staging); err != nil {
		return err
	}

	root, err := courseRoot(staging)
	if err != nil {
		return err
	}
	if err := os.RemoveAll(destDir); err != nil {
		return fmt.Errorf("remove previous course dir: %w", err)
	}
	if err := os.Rename(root, destDir); err != nil {
		return fmt.Errorf("move course into place: %w", err)
	}
	return nil
}

func unzip(archivePath, destDir string) error {
	zr, err := zip.OpenReader(archivePath)
	if err != nil {
		return fmt.Errorf("open zip: %w", err)
	}
	defer zr.Close()

	for _, f := range zr.File {
		target := filepath.Join(destDir, f.Name)

		// zip slip
		if !strings.HasPrefix(filepath.Clean(target), filepath.Clean(destDir)+string(os.PathSeparator)) {
			return fmt.Errorf("invalid zip entry: %s", f.Name)
		}

		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0o755); err != nil {
				return fmt.Errorf("mkdir: %w", err)
			}
			continue
		}
		if err := extractFile(f, target); err != nil {
			return err
		}
	}
	return nil
}

func extractFile(f *zip.File, target string) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("mkdir: %w", err)
	}

	rc, err := f.Open()
	if err != nil {
		return fmt.Errorf("open zip entry: %w", err)
	}
	defer rc.Close()

	out, err := os.Create(target)
	if err != nil {
		return fmt.Errorf("create file: %w", err)
	}
	defer out.Close()

	if _, err := io.Copy(out, io.LimitReader(rc, maxEntrySize)); err != nil {
		return fmt.Errorf("extract file: %w", err)
	}
	return nil
}

// courseRoot finds the directory holding infoCourse.json: dir itself or its
// single top-level subdirectory.
func courseRoot(dir string) (string, error) {
	if _, err := os.Stat(filepath.Join(dir, courseInfoMarker)); err == nil {
		return dir, nil
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("read extracted archive: %w", err)
	}
	if len(entries) == 1 && entries[0].IsDir() {
		inner := filepath.Join(dir, entries[0].Name())
		if _, err := os.Stat(filepath.Join(inner, courseInfoMarker)); err == nil {
			return inner, nil
		} else if !errors.Is(err, fs.ErrNotExist) {
			return "", err
		}
	}
	return "", fmt.Errorf("archive has no %s at its root", courseInfoMarker)
}
