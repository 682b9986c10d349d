// Package packager writes the downloadable artifacts of a finished job:
// product.json and result.zip.
package packager

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/use-agent/shopsnap/imageproc"
	"github.com/use-agent/shopsnap/models"
)

// File names inside a job directory and the archive.
const (
	ProductFile  = "product.json"
	SnapshotFile = "page.md"
	ArchiveFile  = "result.zip"
)

// Package writes product.json and result.zip into jobDir. The archive
// holds product.json, page.md when snapshot is non-empty, and every file
// of jobDir/images under images/ in name order.
func Package(result *models.ProductResult, jobDir, snapshot string) error {
	data, err := marshalProduct(result)
	if err != nil {
		return models.NewScrapeError(models.ErrCodePackaging, "failed to encode product", err)
	}
	if err := os.WriteFile(filepath.Join(jobDir, ProductFile), data, 0o644); err != nil {
		return models.NewScrapeError(models.ErrCodePackaging, "failed to write product.json", err)
	}
	if snapshot != "" {
		if err := os.WriteFile(filepath.Join(jobDir, SnapshotFile), []byte(snapshot), 0o644); err != nil {
			return models.NewScrapeError(models.ErrCodePackaging, "failed to write page snapshot", err)
		}
	}

	if err := writeArchive(jobDir, data, snapshot); err != nil {
		return models.NewScrapeError(models.ErrCodePackaging, "failed to write result.zip", err)
	}
	return nil
}

// marshalProduct renders the result with two-space indentation and
// without escaping <, > and & so descriptions stay readable.
func marshalProduct(result *models.ProductResult) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(result); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeArchive(jobDir string, product []byte, snapshot string) (err error) {
	f, err := os.Create(filepath.Join(jobDir, ArchiveFile))
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	zw := zip.NewWriter(f)
	if err := addBytes(zw, ProductFile, product); err != nil {
		return err
	}
	if snapshot != "" {
		if err := addBytes(zw, SnapshotFile, []byte(snapshot)); err != nil {
			return err
		}
	}

	names, err := imageNames(filepath.Join(jobDir, imageproc.ImagesDir))
	if err != nil {
		return err
	}
	for _, name := range names {
		if err := addFile(zw, imageproc.ImagesDir+"/"+name, filepath.Join(jobDir, imageproc.ImagesDir, name)); err != nil {
			return err
		}
	}
	return zw.Close()
}

// imageNames lists regular files in dir, sorted. A missing dir is empty.
func imageNames(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if e.Type().IsRegular() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

func addBytes(zw *zip.Writer, name string, data []byte) error {
	w, err := zw.CreateHeader(&zip.FileHeader{Name: name, Method: zip.Deflate})
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

func addFile(zw *zip.Writer, name, path string) error {
	src, err := os.Open(path)
	if err != nil {
		return err
	}
	defer src.Close()

	w, err := zw.CreateHeader(&zip.FileHeader{Name: name, Method: zip.Deflate})
	if err != nil {
		return err
	}
	if _, err := io.Copy(w, src); err != nil {
		return fmt.Errorf("copy %s: %w", name, err)
	}
	return nil
}
