package packager

import (
	"archive/zip"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/use-agent/shopsnap/models"
)

func readZip(t *testing.T, path string) (names []string, files map[string]string) {
	t.Helper()
	zr, err := zip.OpenReader(path)
	require.NoError(t, err)
	defer zr.Close()

	files = make(map[string]string)
	for _, f := range zr.File {
		assert.Equal(t, zip.Deflate, f.Method)
		rc, err := f.Open()
		require.NoError(t, err)
		b, err := io.ReadAll(rc)
		rc.Close()
		require.NoError(t, err)
		names = append(names, f.Name)
		files[f.Name] = string(b)
	}
	return names, files
}

func TestPackage(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	images := filepath.Join(dir, "images")
	require.NoError(t, os.MkdirAll(images, 0o755))
	for _, name := range []string{"M_03.jpg", "M_01.jpg", "M_02.jpg"} {
		require.NoError(t, os.WriteFile(filepath.Join(images, name), []byte(name), 0o644))
	}

	result := &models.ProductResult{
		ProductName:   "Café <Deluxe> & Co",
		ProductModel:  "M",
		MainImages:    []string{"M_01.jpg", "M_03.jpg"},
		GalleryImages: []string{"M_02.jpg"},
		Summary:       "s",
		Description:   "d",
		SourceURL:     "https://shop.example.com/p?a=1&b=2",
	}
	require.NoError(t, Package(result, dir, "# Café\n"))

	raw, err := os.ReadFile(filepath.Join(dir, ProductFile))
	require.NoError(t, err)
	text := string(raw)
	assert.Contains(t, text, `  "product_name": "Café <Deluxe> & Co"`)
	assert.Contains(t, text, `"source_url": "https://shop.example.com/p?a=1&b=2"`)

	var back models.ProductResult
	require.NoError(t, json.Unmarshal(raw, &back))
	assert.Equal(t, *result, back)

	names, files := readZip(t, filepath.Join(dir, ArchiveFile))
	assert.Equal(t, []string{"product.json", "page.md", "images/M_01.jpg", "images/M_02.jpg", "images/M_03.jpg"}, names)
	assert.Equal(t, text, files["product.json"])
	assert.Equal(t, "# Café\n", files["page.md"])
	assert.Equal(t, "M_02.jpg", files["images/M_02.jpg"])
	assert.FileExists(t, filepath.Join(dir, SnapshotFile))
}

func TestPackage_NoImagesNoSnapshot(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	result := &models.ProductResult{ProductModel: "product", MainImages: []string{}, GalleryImages: []string{}}
	require.NoError(t, Package(result, dir, ""))

	names, files := readZip(t, filepath.Join(dir, ArchiveFile))
	assert.Equal(t, []string{"product.json"}, names)
	assert.True(t, strings.Contains(files["product.json"], `"main_images": []`))
	assert.NoFileExists(t, filepath.Join(dir, SnapshotFile))
}

func TestPackage_MissingDir(t *testing.T) {
	t.Parallel()

	err := Package(&models.ProductResult{}, filepath.Join(t.TempDir(), "nope"), "")
	var se *models.ScrapeError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, models.ErrCodePackaging, se.Code)
}
