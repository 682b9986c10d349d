package imageproc

import (
	"bytes"
	"context"
	"encoding/binary"
	"hash/crc32"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/use-agent/shopsnap/models"
)

var (
	white = color.NRGBA{255, 255, 255, 255}
	navy  = color.NRGBA{30, 60, 120, 255}
)

func solid(w, h int, c color.Color) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.NewUniform(c), image.Point{}, draw.Src)
	return img
}

// productShot is a dark square centered on a white canvas.
func productShot(w, h int) *image.NRGBA {
	img := solid(w, h, white)
	inner := image.Rect(w/4, h/4, 3*w/4, 3*h/4)
	draw.Draw(img, inner, image.NewUniform(navy), image.Point{}, draw.Src)
	return img
}

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func encodeJPEGBytes(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, &jpeg.Options{Quality: 95}))
	return buf.Bytes()
}

type asset struct {
	status      int
	contentType string
	body        []byte
}

func imageServer(t *testing.T, assets map[string]asset) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		a, ok := assets[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", a.contentType)
		w.WriteHeader(a.status)
		_, _ = w.Write(a.body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func decodeFile(t *testing.T, path string) image.Config {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	cfg, format, err := image.DecodeConfig(f)
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)
	return cfg
}

func TestProcess(t *testing.T) {
	t.Parallel()

	// Fully transparent but white underneath: alpha is dropped, so main.
	ghost := image.NewNRGBA(image.Rect(0, 0, 400, 400))
	for i := 0; i < len(ghost.Pix); i += 4 {
		ghost.Pix[i], ghost.Pix[i+1], ghost.Pix[i+2], ghost.Pix[i+3] = 255, 255, 255, 0
	}

	srv := imageServer(t, map[string]asset{
		"/shot.png":  {200, "image/png", encodePNG(t, productShot(1000, 600))},
		"/page":      {200, "text/html; charset=utf-8", []byte("<html></html>")},
		"/wide.jpg":  {200, "image/jpeg", encodeJPEGBytes(t, solid(2560, 1441, navy))},
		"/tiny.png":  {200, "image/png", encodePNG(t, solid(150, 400, navy))},
		"/gone.jpg":  {http.StatusGone, "image/jpeg", nil},
		"/broken":    {200, "image/png", []byte("not really a png")},
		"/small.jpg": {200, "IMAGE/JPEG", encodeJPEGBytes(t, solid(640, 480, navy))},
		"/ghost.png": {200, "image/png", encodePNG(t, ghost)},
	})

	extract := &models.RawPageExtract{
		ProductName:  "Router",
		ProductModel: "RT-AX88U",
		Summary:      "s",
		Description:  "d",
		SourceURL:    "https://shop.example.com/p/rt-ax88u",
		ImageURLs: []string{
			srv.URL + "/shot.png",
			srv.URL + "/page",
			srv.URL + "/wide.jpg",
			srv.URL + "/tiny.png",
			srv.URL + "/gone.jpg",
			srv.URL + "/broken",
			srv.URL + "/missing.jpg",
			srv.URL + "/small.jpg",
			srv.URL + "/ghost.png",
		},
	}

	for _, conc := range []int{1, 4} {
		dir := t.TempDir()
		p := New(WithHTTPClient(srv.Client()), WithConcurrency(conc))

		got, err := p.Process(context.Background(), extract, dir, "")
		require.NoError(t, err)

		assert.Equal(t, "RT-AX88U", got.ProductModel)
		assert.Equal(t, "Router", got.ProductName)
		assert.Equal(t, extract.SourceURL, got.SourceURL)
		assert.Equal(t, []string{"RT-AX88U_01.jpg", "RT-AX88U_04.jpg"}, got.MainImages, "concurrency %d", conc)
		assert.Equal(t, []string{"RT-AX88U_02.jpg", "RT-AX88U_03.jpg"}, got.GalleryImages, "concurrency %d", conc)

		images := filepath.Join(dir, ImagesDir)
		main := decodeFile(t, filepath.Join(images, "RT-AX88U_01.jpg"))
		assert.Equal(t, 800, main.Width)
		assert.Equal(t, 800, main.Height)

		wide := decodeFile(t, filepath.Join(images, "RT-AX88U_02.jpg"))
		assert.Equal(t, 1280, wide.Width)
		assert.Equal(t, 720, wide.Height)

		small := decodeFile(t, filepath.Join(images, "RT-AX88U_03.jpg"))
		assert.Equal(t, 640, small.Width)
		assert.Equal(t, 480, small.Height)

		entries, err := os.ReadDir(images)
		require.NoError(t, err)
		assert.Len(t, entries, 4)
	}
}

func TestProcess_ModelOverrideAndSanitize(t *testing.T) {
	t.Parallel()

	srv := imageServer(t, map[string]asset{
		"/a.png": {200, "image/png", encodePNG(t, productShot(300, 300))},
	})
	extract := &models.RawPageExtract{
		ProductModel: "IGNORED-1",
		ImageURLs:    []string{srv.URL + "/a.png"},
	}

	got, err := New(WithHTTPClient(srv.Client())).Process(context.Background(), extract, t.TempDir(), "RT AX/88U")
	require.NoError(t, err)
	assert.Equal(t, "RT AX/88U", got.ProductModel)
	assert.Equal(t, []string{"RT_AX_88U_01.jpg"}, got.MainImages)
	assert.Empty(t, got.GalleryImages)
}

func TestProcess_NoCandidates(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	got, err := New().Process(context.Background(), &models.RawPageExtract{}, dir, "")
	require.NoError(t, err)
	assert.Equal(t, "product", got.ProductModel)
	assert.NotNil(t, got.MainImages)
	assert.NotNil(t, got.GalleryImages)
	assert.DirExists(t, filepath.Join(dir, ImagesDir))
}

func TestProcess_MaxBytes(t *testing.T) {
	t.Parallel()

	body := encodePNG(t, productShot(400, 400))
	srv := imageServer(t, map[string]asset{"/big.png": {200, "image/png", body}})
	p := New(WithHTTPClient(srv.Client()), WithMaxBytes(int64(len(body)-1)))

	_, err := p.fetch(context.Background(), srv.URL+"/big.png", "")
	require.ErrorIs(t, err, ErrFetch)

	got, err := p.Process(context.Background(), &models.RawPageExtract{ImageURLs: []string{srv.URL + "/big.png"}}, t.TempDir(), "m")
	require.NoError(t, err)
	assert.Empty(t, got.MainImages)
}

func TestFetch_Errors(t *testing.T) {
	t.Parallel()

	var (
		mu                    sync.Mutex
		gotReferer, gotAccept string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		gotReferer, gotAccept = r.Header.Get("Referer"), r.Header.Get("Accept")
		mu.Unlock()
		switch r.URL.Path {
		case "/html":
			w.Header().Set("Content-Type", "text/html")
		case "/redirect":
			http.Redirect(w, r, "/img", http.StatusFound)
			return
		case "/img":
			w.Header().Set("Content-Type", "image/webp")
		default:
			w.WriteHeader(http.StatusInternalServerError)
		}
	}))
	t.Cleanup(srv.Close)

	p := New(WithHTTPClient(srv.Client()))
	ctx := context.Background()

	_, err := p.fetch(ctx, srv.URL+"/html", "")
	assert.ErrorIs(t, err, ErrNotImage)

	_, err = p.fetch(ctx, srv.URL+"/boom", "")
	assert.ErrorIs(t, err, ErrFetch)

	_, err = p.fetch(ctx, srv.URL+"/redirect", "https://shop.example.com/p/1")
	assert.NoError(t, err)
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, "https://shop.example.com/p/1", gotReferer)
	assert.Contains(t, gotAccept, "image/")
}

func TestDecode(t *testing.T) {
	t.Parallel()

	_, err := decode([]byte("garbage"))
	assert.ErrorIs(t, err, ErrDecode)

	_, err = decode(encodePNG(t, solid(199, 800, white)))
	assert.ErrorIs(t, err, ErrTooSmall)

	img, err := decode(encodePNG(t, solid(200, 200, white)))
	require.NoError(t, err)
	assert.Equal(t, 200, img.Bounds().Dx())
}

// pngHeader returns a PNG with a valid IHDR for w x h RGBA and no pixel data.
func pngHeader(w, h uint32) []byte {
	var buf bytes.Buffer
	buf.WriteString("\x89PNG\r\n\x1a\n")
	chunk := func(typ string, data []byte) {
		_ = binary.Write(&buf, binary.BigEndian, uint32(len(data)))
		crc := crc32.NewIEEE()
		crc.Write([]byte(typ))
		crc.Write(data)
		buf.WriteString(typ)
		buf.Write(data)
		_ = binary.Write(&buf, binary.BigEndian, crc.Sum32())
	}
	ihdr := make([]byte, 13)
	binary.BigEndian.PutUint32(ihdr[0:], w)
	binary.BigEndian.PutUint32(ihdr[4:], h)
	ihdr[8] = 8 // bit depth
	ihdr[9] = 6 // truecolor with alpha
	chunk("IHDR", ihdr)
	chunk("IDAT", nil)
	chunk("IEND", nil)
	return buf.Bytes()
}

func TestDecode_OversizedHeader(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		data []byte
		want error
	}{
		{"20000 square", pngHeader(20000, 20000), ErrTooLarge},
		{"just over the pixel budget", pngHeader(9460, 9460), ErrTooLarge},
		{"tiny header", pngHeader(100, 100), ErrTooSmall},
		{"within budget but no pixels", pngHeader(400, 400), ErrDecode},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := decode(tt.data)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestProcess_SkipsOversizedHeader(t *testing.T) {
	t.Parallel()

	srv := imageServer(t, map[string]asset{
		"/bomb.png": {200, "image/png", pngHeader(40000, 40000)},
		"/ok.png":   {200, "image/png", encodePNG(t, solid(400, 400, navy))},
	})
	extract := &models.RawPageExtract{
		ProductModel: "X1",
		ImageURLs:    []string{srv.URL + "/bomb.png", srv.URL + "/ok.png"},
	}

	got, err := New(WithHTTPClient(srv.Client()), WithConcurrency(2)).Process(context.Background(), extract, t.TempDir(), "")
	require.NoError(t, err)
	assert.Empty(t, got.MainImages)
	assert.Equal(t, []string{"X1_01.jpg"}, got.GalleryImages)
}

func TestClassify(t *testing.T) {
	t.Parallel()

	cornerOnly := solid(100, 100, white)
	cornerOnly.SetNRGBA(99, 0, navy)

	rightEdge := solid(100, 100, white)
	for y := 0; y < 100; y++ {
		rightEdge.SetNRGBA(99, y, navy)
	}

	tests := []struct {
		name string
		img  *image.NRGBA
		want Class
	}{
		{"white", solid(300, 300, white), ClassMain},
		{"light gray", solid(300, 300, color.NRGBA{230, 230, 228, 255}), ClassMain},
		{"product on white", productShot(500, 400), ClassMain},
		{"channel at 200 is not neutral", solid(300, 300, color.NRGBA{200, 255, 255, 255}), ClassGallery},
		{"tinted", solid(300, 300, color.NRGBA{250, 235, 215, 255}), ClassGallery},
		{"dark", solid(300, 300, navy), ClassGallery},
		{"one dark corner", cornerOnly, ClassMain},
		{"dark right edge", rightEdge, ClassGallery},
		{"too small to sample", solid(2, 2, white), ClassGallery},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, Classify(tt.img))
		})
	}
}

func TestTransform(t *testing.T) {
	t.Parallel()

	// Navy side bands outside the centered 600px square must be cropped away.
	banded := solid(1000, 600, white)
	draw.Draw(banded, image.Rect(0, 0, 200, 600), image.NewUniform(navy), image.Point{}, draw.Src)
	draw.Draw(banded, image.Rect(800, 0, 1000, 600), image.NewUniform(navy), image.Point{}, draw.Src)

	main := transform(banded, ClassMain)
	assert.Equal(t, image.Rect(0, 0, 800, 800), main.Bounds())
	for _, x := range []int{0, 799} {
		for _, y := range []int{0, 400, 799} {
			c := main.NRGBAAt(x, y)
			assert.GreaterOrEqual(t, c.B, uint8(250), "pixel (%d,%d) = %v", x, y, c)
			assert.GreaterOrEqual(t, c.R, uint8(250), "pixel (%d,%d) = %v", x, y, c)
		}
	}

	tall := solid(600, 1000, white)
	draw.Draw(tall, image.Rect(0, 0, 600, 200), image.NewUniform(navy), image.Point{}, draw.Src)
	draw.Draw(tall, image.Rect(0, 800, 600, 1000), image.NewUniform(navy), image.Point{}, draw.Src)
	tallOut := transform(tall, ClassMain)
	assert.GreaterOrEqual(t, tallOut.NRGBAAt(400, 0).R, uint8(250))
	assert.GreaterOrEqual(t, tallOut.NRGBAAt(400, 799).R, uint8(250))

	narrow := solid(1280, 300, navy)
	assert.Same(t, narrow, transform(narrow, ClassGallery))

	wide := transform(solid(2000, 1001, navy), ClassGallery)
	assert.Equal(t, 1280, wide.Bounds().Dx())
	assert.Equal(t, 640, wide.Bounds().Dy())
}

func TestToRGB(t *testing.T) {
	t.Parallel()

	src := image.NewRGBA(image.Rect(10, 10, 12, 12))
	src.Set(10, 10, color.NRGBA{200, 100, 50, 128})
	out := toRGB(src)

	assert.Equal(t, image.Rect(0, 0, 2, 2), out.Bounds())
	c := out.NRGBAAt(0, 0)
	assert.Equal(t, uint8(255), c.A)
	assert.InDelta(t, 200, int(c.R), 2)
	assert.InDelta(t, 100, int(c.G), 2)
	assert.InDelta(t, 50, int(c.B), 2)
}

func TestFileName(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "RT-AX88U_01.jpg", FileName("RT-AX88U", 1))
	assert.Equal(t, "a_b_c_12.jpg", FileName("a b.c", 12))
	assert.Equal(t, "Ünï_cödé_100.jpg", FileName("Ünï cödé", 100))
	assert.Equal(t, "model_x_", SanitizeModel("model_x?"))
}
