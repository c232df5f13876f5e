package images

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zarko379/iMangarr-ng/internal/domain"
	"github.com/zarko379/iMangarr-ng/internal/logger"
)

func pngCover(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			img.Set(x, y, color.NRGBA{R: uint8(x % 256), G: uint8(y % 256), B: 120, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestStorage(t *testing.T) {
	s, err := NewStorage(t.TempDir())
	require.NoError(t, err)

	assert.False(t, s.Exists("30002"))
	_, err = s.Get("30002")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Save("30002", []byte("jpeg bytes")))
	assert.True(t, s.Exists("30002"))

	data, err := s.Get("30002")
	require.NoError(t, err)
	assert.Equal(t, []byte("jpeg bytes"), data)

	hash, err := s.Hash("30002")
	require.NoError(t, err)
	assert.Len(t, hash, 64)

	assert.Empty(t, s.BlurHash("30002"))
	require.NoError(t, s.SaveBlurHash("30002", "LEHV6nWB2yk8"))
	assert.Equal(t, "LEHV6nWB2yk8", s.BlurHash("30002"))
}

func TestStorage_RejectsUnsafeIDs(t *testing.T) {
	s, err := NewStorage(t.TempDir())
	require.NoError(t, err)

	for _, id := range []string{"", "..", "../etc/passwd", `a\b`} {
		assert.Error(t, s.Save(id, []byte("x")), id)
		assert.False(t, s.Exists(id), id)
	}

	_, err = NewStorage("")
	assert.Error(t, err)
}

func TestProcessor_DownscalesWideCovers(t *testing.T) {
	p := NewProcessor(100)

	out, err := p.Process(pngCover(t, 400, 600))
	require.NoError(t, err)

	assert.Equal(t, 100, out.Width)
	assert.Equal(t, 150, out.Height)
	assert.NotEmpty(t, out.BlurHash)

	decoded, err := jpeg.Decode(bytes.NewReader(out.JPEG))
	require.NoError(t, err)
	assert.Equal(t, 100, decoded.Bounds().Dx())
}

func TestProcessor_KeepsSmallCovers(t *testing.T) {
	out, err := NewProcessor(0).Process(pngCover(t, 200, 300))
	require.NoError(t, err)

	assert.Equal(t, 200, out.Width)
	assert.Equal(t, 300, out.Height)
}

func TestProcessor_RejectsGarbage(t *testing.T) {
	_, err := NewProcessor(100).Process([]byte("<html>not an image</html>"))
	assert.Error(t, err)
}

func TestComputeBlurHash_Stable(t *testing.T) {
	img, err := png.Decode(bytes.NewReader(pngCover(t, 300, 450)))
	require.NoError(t, err)

	a, err := ComputeBlurHash(img)
	require.NoError(t, err)
	b, err := ComputeBlurHash(img)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func newFetcher(t *testing.T) (*Fetcher, *Storage) {
	t.Helper()
	s, err := NewStorage(t.TempDir())
	require.NoError(t, err)
	opts := FetcherOptions{Timeout: 2 * time.Second, AllowURL: func(string) bool { return true }}
	return NewFetcher(s, NewProcessor(120), opts, logger.Discard()), s
}

func TestFetcher_RefusesForeignHosts(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		_, _ = w.Write(pngCover(t, 10, 15))
	}))
	defer server.Close()

	s, err := NewStorage(t.TempDir())
	require.NoError(t, err)
	f := NewFetcher(s, NewProcessor(120), FetcherOptions{Timeout: 2 * time.Second}, logger.Discard())

	for _, raw := range []string{
		server.URL + "/cover.png",
		"http://169.254.169.254/latest/meta-data/",
		"https://img.example/cover.jpg",
	} {
		err := f.Fetch(context.Background(), 9, raw)
		assert.ErrorIs(t, err, ErrHostNotAllowed, raw)
	}

	f.Start(context.Background())
	f.Enqueue(10, server.URL+"/cover.png")
	f.Stop()

	assert.Zero(t, hits.Load())
	assert.False(t, s.Exists("9"))
	assert.False(t, s.Exists("10"))
}

func TestFetcher_RefusesRedirectToForeignHost(t *testing.T) {
	var internalHits atomic.Int32
	internal := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		internalHits.Add(1)
		_, _ = w.Write(pngCover(t, 10, 15))
	}))
	defer internal.Close()

	public := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, internal.URL+"/secret", http.StatusFound)
	}))
	defer public.Close()

	s, err := NewStorage(t.TempDir())
	require.NoError(t, err)
	opts := FetcherOptions{
		Timeout:  2 * time.Second,
		AllowURL: func(raw string) bool { return strings.HasPrefix(raw, public.URL+"/") },
	}
	f := NewFetcher(s, NewProcessor(120), opts, logger.Discard())

	err = f.Fetch(context.Background(), 11, public.URL+"/cover.png")
	assert.ErrorIs(t, err, ErrHostNotAllowed)
	assert.Zero(t, internalHits.Load())
	assert.False(t, s.Exists("11"))
}

func TestFetcher_Fetch(t *testing.T) {
	cover := pngCover(t, 240, 360)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/cover.png" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(cover)
	}))
	defer server.Close()

	f, s := newFetcher(t)

	require.NoError(t, f.Fetch(context.Background(), 30002, server.URL+"/cover.png"))
	assert.True(t, s.Exists("30002"))
	assert.NotEmpty(t, s.BlurHash("30002"))

	info, err := os.Stat(filepath.Join(s.Dir(), "30002.jpg"))
	require.NoError(t, err)
	assert.Positive(t, info.Size())

	err = f.Fetch(context.Background(), 1, server.URL+"/missing.png")
	assert.ErrorContains(t, err, "status 404")
	assert.False(t, s.Exists("1"))

	assert.Error(t, f.Fetch(context.Background(), 2, ""))
}

func TestFetcher_QueueProcessesAndStops(t *testing.T) {
	cover := pngCover(t, 50, 75)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write(cover)
	}))
	defer server.Close()

	f, s := newFetcher(t)
	f.Start(context.Background())

	for _, id := range []domain.MangaID{1, 2, 3} {
		f.Enqueue(id, server.URL)
	}
	f.Stop()

	for _, id := range []string{"1", "2", "3"} {
		assert.True(t, s.Exists(id), id)
	}

	// Enqueue after Stop is dropped rather than panicking.
	f.Enqueue(4, server.URL)
	f.Stop()
	assert.False(t, s.Exists("4"))
}
