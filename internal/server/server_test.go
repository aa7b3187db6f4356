package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shouni/go-poster-kit/pkg/asset"
	"github.com/shouni/go-poster-kit/pkg/domain"
	"github.com/shouni/go-poster-kit/pkg/publisher"
	"github.com/shouni/go-poster-kit/pkg/session"
	"github.com/shouni/go-poster-kit/pkg/store"
	"github.com/shouni/go-poster-kit/pkg/surface"

	imagedom "github.com/shouni/gemini-image-kit/pkg/domain"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEditor struct {
	err     error
	started chan struct{}
	release chan struct{}
}

func (f *fakeEditor) EditImage(ctx context.Context, src, instruction string) (*imagedom.ImageResponse, error) {
	if f.started != nil {
		close(f.started)
	}
	if f.release != nil {
		<-f.release
	}
	if f.err != nil {
		return nil, f.err
	}
	return &imagedom.ImageResponse{Data: []byte("edited"), MimeType: "image/png"}, nil
}

func pngBytes(t *testing.T, w, h int, c color.NRGBA) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = c.R, c.G, c.B, c.A
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func photo(t *testing.T) domain.Layer {
	return domain.Layer{
		ID: "photo", Type: domain.LayerTypeImage, X: 50, Y: 50, Scale: 1, ZIndex: 2, IsVisible: true,
		Image: &domain.ImageStyle{
			Src:     asset.EncodeDataURI("image/png", pngBytes(t, 100, 100, color.NRGBA{R: 200, A: 255})),
			Opacity: 1,
			Mask:    domain.MaskNone,
		},
	}
}

func newTestServer(t *testing.T, ed *fakeEditor, opts ...store.Option) http.Handler {
	t.Helper()
	fonts, err := surface.NewFontRegistry()
	require.NoError(t, err)
	decoder := asset.NewDecoder(time.Minute)
	surf, err := surface.New(fonts, decoder)
	require.NoError(t, err)

	var sess *session.Session
	if ed != nil {
		sess, err = session.New(store.New(opts...), surf, decoder, ed)
	} else {
		sess, err = session.New(store.New(opts...), surf, decoder, nil)
	}
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go sess.Run(ctx)

	exporter, err := publisher.NewExporter(surf, fonts, publisher.NewLocalWriter(), publisher.Options{OutputDir: t.TempDir()})
	require.NoError(t, err)
	srv, err := New(sess, exporter)
	require.NoError(t, err)
	return srv.Routes()
}

func do(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var r *http.Request
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		r = httptest.NewRequest(method, path, bytes.NewReader(b))
		r.Header.Set("Content-Type", "application/json")
	} else {
		r = httptest.NewRequest(method, path, nil)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	return w
}

func upload(t *testing.T, h http.Handler, method, path string, data []byte) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "photo.png")
	require.NoError(t, err)
	_, err = fw.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	r := httptest.NewRequest(method, path, &buf)
	r.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	return w
}

func getScene(t *testing.T, h http.Handler) domain.Scene {
	t.Helper()
	w := do(t, h, http.MethodGet, "/api/scene", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var sc domain.Scene
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &sc))
	return sc
}

func TestServer_SceneAndLayers(t *testing.T) {
	h := newTestServer(t, nil)

	sc := getScene(t, h)
	assert.Equal(t, 600, sc.Width)
	assert.Equal(t, 900, sc.Height)
	assert.Len(t, sc.Layers, 7)

	w := do(t, h, http.MethodPost, "/api/layers/text", nil)
	require.Equal(t, http.StatusCreated, w.Code)
	var created idResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.NotEmpty(t, created.ID)

	sc = getScene(t, h)
	assert.Len(t, sc.Layers, 8)
	assert.Equal(t, created.ID, sc.SelectedLayerID)

	w = do(t, h, http.MethodPatch, "/api/layers/"+created.ID, map[string]any{"x": 12.5, "fontWeight": "heavy"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"updated":true}`, w.Body.String())
	l, ok := getScene(t, h).Layer(created.ID)
	require.True(t, ok)
	assert.Equal(t, 12.5, l.X)
	assert.Equal(t, domain.FontWeightHeavy, l.Text.FontWeight)

	w = do(t, h, http.MethodPatch, "/api/layers/missing", map[string]any{"x": 1})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"updated":false}`, w.Body.String())

	w = do(t, h, http.MethodPatch, "/api/layers/"+created.ID, map[string]any{"mask": "star"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, h, http.MethodDelete, "/api/layers/missing", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"deleted":false}`, w.Body.String())

	w = do(t, h, http.MethodDelete, "/api/layers/"+created.ID, nil)
	assert.JSONEq(t, `{"deleted":true}`, w.Body.String())
	sc = getScene(t, h)
	assert.Len(t, sc.Layers, 7)
	assert.Empty(t, sc.SelectedLayerID)
}

func TestServer_UploadAndBackground(t *testing.T) {
	h := newTestServer(t, nil, store.WithLayers(nil))

	w := upload(t, h, http.MethodPost, "/api/layers/image", pngBytes(t, 8, 8, color.NRGBA{G: 255, A: 255}))
	require.Equal(t, http.StatusCreated, w.Code)
	sc := getScene(t, h)
	require.Len(t, sc.Layers, 1)
	assert.Equal(t, domain.LayerTypeImage, sc.Layers[0].Type)
	assert.True(t, strings.HasPrefix(sc.Layers[0].Image.Src, "data:image/png;base64,"))

	w = upload(t, h, http.MethodPost, "/api/layers/image", []byte("not an image at all"))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, h, http.MethodPut, "/api/background", map[string]string{"value": "linear-gradient(to bottom, #111, #222)"})
	require.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "linear-gradient(to bottom, #111, #222)", getScene(t, h).Background)

	w = upload(t, h, http.MethodPut, "/api/background", pngBytes(t, 4, 4, color.NRGBA{B: 255, A: 255}))
	require.Equal(t, http.StatusNoContent, w.Code)
	assert.True(t, domain.IsImageBackground(getScene(t, h).Background))

	w = do(t, h, http.MethodPut, "/api/background", map[string]string{"value": " "})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestServer_AIEdit(t *testing.T) {
	t.Run("エラーの対応付けなのだ", func(t *testing.T) {
		noEditor := newTestServer(t, nil, store.WithLayers([]domain.Layer{photo(t)}))
		w := do(t, noEditor, http.MethodPost, "/api/layers/photo/ai-edit", aiEditRequest{Instruction: "x"})
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)

		failing := newTestServer(t, &fakeEditor{err: errors.New("AI returned text instead of image: no")}, store.WithLayers([]domain.Layer{photo(t)}))
		w = do(t, failing, http.MethodPost, "/api/layers/missing/ai-edit", aiEditRequest{Instruction: "x"})
		assert.Equal(t, http.StatusNotFound, w.Code)

		w = do(t, failing, http.MethodPost, "/api/layers/photo/ai-edit", aiEditRequest{Instruction: " "})
		assert.Equal(t, http.StatusBadRequest, w.Code)

		w = do(t, failing, http.MethodPost, "/api/layers/photo/ai-edit", aiEditRequest{Instruction: "retro-filter"})
		assert.Equal(t, http.StatusBadGateway, w.Code)
		assert.JSONEq(t, `{"error":"AI returned text instead of image: no"}`, w.Body.String())
		assert.False(t, getScene(t, failing).IsBusy)
	})

	t.Run("編集中は再編集と削除を拒否する", func(t *testing.T) {
		ed := &fakeEditor{started: make(chan struct{}), release: make(chan struct{})}
		h := newTestServer(t, ed, store.WithLayers([]domain.Layer{photo(t)}))

		done := make(chan *httptest.ResponseRecorder, 1)
		go func() {
			done <- do(t, h, http.MethodPost, "/api/layers/photo/ai-edit", aiEditRequest{Instruction: "make it gold"})
		}()
		<-ed.started

		w := do(t, h, http.MethodPost, "/api/layers/photo/ai-edit", aiEditRequest{Instruction: "again"})
		assert.Equal(t, http.StatusConflict, w.Code)
		w = do(t, h, http.MethodDelete, "/api/layers/photo", nil)
		assert.Equal(t, http.StatusConflict, w.Code)

		close(ed.release)
		first := <-done
		require.Equal(t, http.StatusOK, first.Code)
		var res session.EditResult
		require.NoError(t, json.Unmarshal(first.Body.Bytes(), &res))
		assert.True(t, res.Applied)

		l, ok := getScene(t, h).Layer("photo")
		require.True(t, ok)
		assert.Equal(t, asset.EncodeDataURI("image/png", []byte("edited")), l.Image.Src)

		w = do(t, h, http.MethodDelete, "/api/layers/photo", nil)
		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestServer_PresetsAndTextPreset(t *testing.T) {
	h := newTestServer(t, nil)

	w := do(t, h, http.MethodGet, "/api/presets", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var p presetsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &p))
	assert.Len(t, p.Fonts, 18)
	assert.Len(t, p.TextPresets, 12)
	assert.Len(t, p.Masks, 9)
	assert.NotEmpty(t, p.EditPresets)

	w = do(t, h, http.MethodPost, "/api/layers/1/text-preset", textPresetRequest{Name: domain.TextPresets[4].Name})
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"applied":true}`, w.Body.String())
	l, _ := getScene(t, h).Layer("1")
	assert.True(t, l.Text.IsGradient)

	w = do(t, h, http.MethodPost, "/api/layers/1/text-preset", textPresetRequest{Name: "nope"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestServer_ChromaKey(t *testing.T) {
	black := photo(t)
	black.Image.Src = asset.EncodeDataURI("image/png", pngBytes(t, 4, 4, color.NRGBA{A: 255}))
	h := newTestServer(t, nil, store.WithLayers([]domain.Layer{black}))

	w := do(t, h, http.MethodPost, "/api/layers/photo/chroma-key", chromaKeyRequest{Target: "black"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"applied":true}`, w.Body.String())

	w = do(t, h, http.MethodPost, "/api/layers/photo/chroma-key", chromaKeyRequest{Target: "green"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = do(t, h, http.MethodPost, "/api/layers/missing/chroma-key", chromaKeyRequest{})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestServer_Pointer(t *testing.T) {
	h := newTestServer(t, nil, store.WithLayers([]domain.Layer{photo(t)}), store.WithBackground("#000000"))

	steps := []struct {
		kind   string
		x, y   float64
		target string
	}{
		{"down", 300, 450, "layer"},
		{"move", 360, 540, "layer"},
		{"up", 360, 540, "layer"},
		{"click", 360, 540, "layer"},
	}
	var last pointerResponse
	for _, s := range steps {
		w := do(t, h, http.MethodPost, "/api/pointer", map[string]any{"kind": s.kind, "x": s.x, "y": s.y})
		require.Equal(t, http.StatusOK, w.Code, s.kind)
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &last))
		assert.Equal(t, s.target, last.Target, s.kind)
	}
	assert.Equal(t, "photo", last.SelectedLayerID)
	require.NotNil(t, last.X)
	assert.InDelta(t, 60, *last.X, 1e-9)
	assert.InDelta(t, 60, *last.Y, 1e-9)

	w := do(t, h, http.MethodPost, "/api/pointer", map[string]any{"kind": "hover"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestServer_PointerWebSocket(t *testing.T) {
	h := newTestServer(t, nil, store.WithLayers([]domain.Layer{photo(t)}))
	ts := httptest.NewServer(h)
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/pointer/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteJSON(map[string]any{"kind": "down", "x": 300, "y": 450}))
	var resp pointerResponse
	require.NoError(t, conn.ReadJSON(&resp))
	assert.Equal(t, "layer", resp.Target)
	assert.Equal(t, "photo", resp.SelectedLayerID)

	require.NoError(t, conn.WriteJSON(map[string]any{"kind": "wiggle"}))
	var errResp errorResponse
	require.NoError(t, conn.ReadJSON(&errResp))
	assert.NotEmpty(t, errResp.Error)
}

func TestServer_PreviewAndExport(t *testing.T) {
	h := newTestServer(t, nil, store.WithLayers([]domain.Layer{photo(t)}), store.WithBackground("#000000"))
	do(t, h, http.MethodPut, "/api/selection", selectRequest{ID: "photo"})

	w := do(t, h, http.MethodGet, "/api/preview.png?ratio=0.5", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
	img, err := png.Decode(bytes.NewReader(w.Body.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, 300, img.Bounds().Dx())

	w = do(t, h, http.MethodGet, "/api/preview.png?ratio=abc", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, h, http.MethodPost, "/api/export/png", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), fmt.Sprintf("HonorBoard-%d.png", time.Now().Year()))
	assert.NotEmpty(t, w.Header().Get("X-Export-Id"))
	img, err = png.Decode(bytes.NewReader(w.Body.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, 1200, img.Bounds().Dx())
	assert.Empty(t, getScene(t, h).SelectedLayerID)

	w = do(t, h, http.MethodPost, "/api/export/gif", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
