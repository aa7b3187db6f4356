package server

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/shouni/go-poster-kit/internal/prompt"
	"github.com/shouni/go-poster-kit/internal/runner"
	"github.com/shouni/go-poster-kit/pkg/asset"
	"github.com/shouni/go-poster-kit/pkg/domain"
	"github.com/shouni/go-poster-kit/pkg/publisher"
	"github.com/shouni/go-poster-kit/pkg/session"
	"github.com/shouni/go-poster-kit/pkg/transform"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/render"
	"github.com/gorilla/websocket"
)

const (
	maxPreviewRatio = 4.0
	maxJSONBytes    = 1 << 20
)

// Server はセッションを HTTP で操作するための API サーバーなのだ。
type Server struct {
	sess       *session.Session
	exporter   *publisher.Exporter
	editRunner runner.ImageRunner
	upgrader   websocket.Upgrader
}

// New は Server を生成するのだ。
func New(sess *session.Session, exporter *publisher.Exporter) (*Server, error) {
	if sess == nil || exporter == nil {
		return nil, fmt.Errorf("Session と Exporter は必須なのだ")
	}
	return &Server{
		sess:       sess,
		exporter:   exporter,
		editRunner: runner.NewEditImageRunner(sess),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}, nil
}

// Routes はルーティング済みのハンドラーを返すのだ。
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"https://*", "http://*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "Content-Length"},
		ExposedHeaders: []string{"Content-Disposition", "X-Export-Id"},
		MaxAge:         300,
	}))

	r.Route("/api", func(r chi.Router) {
		r.Get("/scene", s.handleScene)
		r.Get("/presets", s.handlePresets)
		r.Put("/background", s.handleBackground)
		r.Put("/selection", s.handleSelect)
		r.Post("/pointer", s.handlePointer)
		r.Get("/pointer/ws", s.handlePointerWS)
		r.Get("/preview.png", s.handlePreview)
		r.Post("/export/{format}", s.handleExport)

		r.Route("/layers", func(r chi.Router) {
			r.Post("/text", s.handleAddText)
			r.Post("/image", s.handleUploadImage)
			r.Route("/{id}", func(r chi.Router) {
				r.Patch("/", s.handleUpdate)
				r.Delete("/", s.handleDelete)
				r.Post("/text-preset", s.handleTextPreset)
				r.Post("/ai-edit", s.handleAIEdit)
				r.Post("/chroma-key", s.handleChromaKey)
			})
		})
	})
	return r
}

type errorResponse struct {
	Error string `json:"error"`
}

func renderError(w http.ResponseWriter, r *http.Request, status int, err error) {
	if status >= http.StatusInternalServerError {
		slog.ErrorContext(r.Context(), "リクエストの処理に失敗したのだ",
			"path", r.URL.Path, "request_id", middleware.GetReqID(r.Context()), "error", err)
	}
	render.Status(r, status)
	render.JSON(w, r, errorResponse{Error: err.Error()})
}

// statusFor はセッションのエラーを HTTP ステータスに対応付けるのだ。
func statusFor(err error) int {
	switch {
	case errors.Is(err, session.ErrLayerNotFound):
		return http.StatusNotFound
	case errors.Is(err, session.ErrBusy):
		return http.StatusConflict
	case errors.Is(err, session.ErrEditorUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, session.ErrNoImageSelected),
		errors.Is(err, session.ErrUnknownPreset),
		errors.Is(err, domain.ErrInvalidLayer),
		errors.Is(err, asset.ErrNotImage),
		errors.Is(err, asset.ErrInvalidDataURI),
		errors.Is(err, publisher.ErrUnknownFormat):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	if err := render.DecodeJSON(http.MaxBytesReader(w, r.Body, maxJSONBytes), v); err != nil {
		return fmt.Errorf("JSON を解釈できないのだ: %w", err)
	}
	return nil
}

func (s *Server) handleScene(w http.ResponseWriter, r *http.Request) {
	scene, err := s.sess.Snapshot(r.Context())
	if err != nil {
		renderError(w, r, http.StatusInternalServerError, err)
		return
	}
	render.JSON(w, r, scene)
}

type presetsResponse struct {
	Fonts       []domain.FontPreset `json:"fonts"`
	TextPresets []domain.TextPreset `json:"textPresets"`
	Masks       []domain.MaskPreset `json:"masks"`
	EditPresets []string            `json:"editPresets"`
}

func (s *Server) handlePresets(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, presetsResponse{
		Fonts:       domain.Fonts,
		TextPresets: domain.TextPresets,
		Masks:       domain.MaskPresets,
		EditPresets: prompt.PresetNames(),
	})
}

type idResponse struct {
	ID string `json:"id"`
}

func (s *Server) handleAddText(w http.ResponseWriter, r *http.Request) {
	id, err := s.sess.AddText(r.Context())
	if err != nil {
		renderError(w, r, http.StatusInternalServerError, err)
		return
	}
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, idResponse{ID: id})
}

func (s *Server) handleUploadImage(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, asset.MaxUploadBytes+1<<20)
	file, _, err := r.FormFile("file")
	if err != nil {
		renderError(w, r, http.StatusBadRequest, fmt.Errorf("file フィールドが読めないのだ: %w", err))
		return
	}
	defer file.Close()

	id, err := s.sess.UploadImage(r.Context(), file)
	if err != nil {
		renderError(w, r, statusFor(err), err)
		return
	}
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, idResponse{ID: id})
}

type backgroundRequest struct {
	Value string `json:"value"`
}

func (s *Server) handleBackground(w http.ResponseWriter, r *http.Request) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		r.Body = http.MaxBytesReader(w, r.Body, asset.MaxUploadBytes+1<<20)
		file, _, err := r.FormFile("file")
		if err != nil {
			renderError(w, r, http.StatusBadRequest, fmt.Errorf("file フィールドが読めないのだ: %w", err))
			return
		}
		defer file.Close()
		if err := s.sess.UploadBackground(r.Context(), file); err != nil {
			renderError(w, r, statusFor(err), err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
		return
	}

	var req backgroundRequest
	if err := decodeJSON(w, r, &req); err != nil {
		renderError(w, r, http.StatusBadRequest, err)
		return
	}
	if strings.TrimSpace(req.Value) == "" {
		renderError(w, r, http.StatusBadRequest, errors.New("value が空なのだ"))
		return
	}
	if err := s.sess.SetBackground(r.Context(), req.Value); err != nil {
		renderError(w, r, http.StatusInternalServerError, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type updateResponse struct {
	Updated bool `json:"updated"`
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	var patch domain.LayerPatch
	if err := decodeJSON(w, r, &patch); err != nil {
		renderError(w, r, http.StatusBadRequest, err)
		return
	}
	if patch.FontWeight != nil {
		fw, err := domain.ParseFontWeight(string(*patch.FontWeight))
		if err != nil {
			renderError(w, r, http.StatusBadRequest, err)
			return
		}
		patch.FontWeight = &fw
	}
	if patch.Mask != nil && !patch.Mask.Valid() {
		renderError(w, r, http.StatusBadRequest, fmt.Errorf("%w: 未対応のマスクなのだ: %q", domain.ErrInvalidLayer, *patch.Mask))
		return
	}
	ok, err := s.sess.Update(r.Context(), chi.URLParam(r, "id"), patch)
	if err != nil {
		renderError(w, r, statusFor(err), err)
		return
	}
	render.JSON(w, r, updateResponse{Updated: ok})
}

type deleteResponse struct {
	Deleted bool `json:"deleted"`
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	ok, err := s.sess.Delete(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		renderError(w, r, statusFor(err), err)
		return
	}
	render.JSON(w, r, deleteResponse{Deleted: ok})
}

type selectRequest struct {
	ID string `json:"id"`
}

func (s *Server) handleSelect(w http.ResponseWriter, r *http.Request) {
	var req selectRequest
	if err := decodeJSON(w, r, &req); err != nil {
		renderError(w, r, http.StatusBadRequest, err)
		return
	}
	if err := s.sess.Select(r.Context(), req.ID); err != nil {
		renderError(w, r, http.StatusInternalServerError, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type textPresetRequest struct {
	Name string `json:"name"`
}

type appliedResponse struct {
	Applied bool `json:"applied"`
}

func (s *Server) handleTextPreset(w http.ResponseWriter, r *http.Request) {
	var req textPresetRequest
	if err := decodeJSON(w, r, &req); err != nil {
		renderError(w, r, http.StatusBadRequest, err)
		return
	}
	ok, err := s.sess.ApplyTextPreset(r.Context(), chi.URLParam(r, "id"), req.Name)
	if err != nil {
		renderError(w, r, statusFor(err), err)
		return
	}
	render.JSON(w, r, appliedResponse{Applied: ok})
}

type aiEditRequest struct {
	Instruction string `json:"instruction"`
}

func (s *Server) handleAIEdit(w http.ResponseWriter, r *http.Request) {
	var req aiEditRequest
	if err := decodeJSON(w, r, &req); err != nil {
		renderError(w, r, http.StatusBadRequest, err)
		return
	}
	if strings.TrimSpace(req.Instruction) == "" {
		renderError(w, r, http.StatusBadRequest, errors.New("instruction が空なのだ"))
		return
	}
	res, err := s.editRunner.Run(r.Context(), chi.URLParam(r, "id"), req.Instruction)
	if err != nil {
		status := statusFor(err)
		if status == http.StatusInternalServerError {
			// 協調者の失敗はメッセージをそのまま返すのだ
			status = http.StatusBadGateway
		}
		renderError(w, r, status, err)
		return
	}
	render.JSON(w, r, res)
}

type chromaKeyRequest struct {
	Target    string `json:"target"`
	Tolerance *int   `json:"tolerance"`
}

func (s *Server) handleChromaKey(w http.ResponseWriter, r *http.Request) {
	var req chromaKeyRequest
	if err := decodeJSON(w, r, &req); err != nil {
		renderError(w, r, http.StatusBadRequest, err)
		return
	}
	target, err := asset.ParseChromaTarget(req.Target)
	if err != nil {
		renderError(w, r, http.StatusBadRequest, err)
		return
	}
	tolerance := asset.DefaultChromaTolerance
	if req.Tolerance != nil {
		tolerance = *req.Tolerance
	}
	ok, err := s.sess.RemoveBackgroundColor(r.Context(), chi.URLParam(r, "id"), target, tolerance)
	if err != nil {
		renderError(w, r, statusFor(err), err)
		return
	}
	render.JSON(w, r, appliedResponse{Applied: ok})
}

func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	ratio := 1.0
	if v := r.URL.Query().Get("ratio"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || f <= 0 || f > maxPreviewRatio {
			renderError(w, r, http.StatusBadRequest, fmt.Errorf("ratio は 0 より大きく %v 以下なのだ: %q", maxPreviewRatio, v))
			return
		}
		ratio = f
	}
	img, err := s.sess.Preview(r.Context(), ratio)
	if err != nil {
		renderError(w, r, http.StatusInternalServerError, err)
		return
	}
	var buf bytes.Buffer
	if err := publisher.EncodePNG(&buf, img); err != nil {
		renderError(w, r, http.StatusInternalServerError, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	w.Write(buf.Bytes())
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	f, err := publisher.ParseFormat(chi.URLParam(r, "format"))
	if err != nil {
		renderError(w, r, http.StatusBadRequest, err)
		return
	}
	c, err := s.exporter.Capture(r.Context(), s.sess, f)
	if err != nil {
		renderError(w, r, http.StatusInternalServerError, err)
		return
	}
	w.Header().Set("Content-Type", c.ContentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": c.FileName}))
	w.Header().Set("X-Export-Id", c.ID)
	w.Header().Set("Content-Length", strconv.Itoa(len(c.Data)))
	w.Write(c.Data)
}

type pointerResponse struct {
	Target          string   `json:"target"`
	SelectedLayerID string   `json:"selectedLayerId"`
	X               *float64 `json:"x,omitempty"`
	Y               *float64 `json:"y,omitempty"`
}

func targetName(t transform.Target) string {
	switch t {
	case transform.TargetLayer:
		return "layer"
	case transform.TargetBackground:
		return "background"
	}
	return "none"
}

func (s *Server) pointer(r *http.Request, ev transform.Event) (pointerResponse, error) {
	target, err := s.sess.Pointer(r.Context(), ev)
	if err != nil {
		return pointerResponse{}, err
	}
	scene, err := s.sess.Snapshot(r.Context())
	if err != nil {
		return pointerResponse{}, err
	}
	resp := pointerResponse{Target: targetName(target)}
	if l, ok := scene.Selected(); ok {
		resp.SelectedLayerID = l.ID
		resp.X, resp.Y = &l.X, &l.Y
	}
	return resp, nil
}

func (s *Server) handlePointer(w http.ResponseWriter, r *http.Request) {
	var ev transform.Event
	if err := decodeJSON(w, r, &ev); err != nil {
		renderError(w, r, http.StatusBadRequest, err)
		return
	}
	if err := ev.Validate(); err != nil {
		renderError(w, r, http.StatusBadRequest, err)
		return
	}
	resp, err := s.pointer(r, ev)
	if err != nil {
		renderError(w, r, http.StatusInternalServerError, err)
		return
	}
	render.JSON(w, r, resp)
}

// handlePointerWS はポインタイベントを WebSocket で受け取り、1イベントごとに結果を返すのだ。
func (s *Server) handlePointerWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.WarnContext(r.Context(), "WebSocket へのアップグレードに失敗したのだ", "error", err)
		return
	}
	defer conn.Close()
	conn.SetReadLimit(maxJSONBytes)

	for {
		var ev transform.Event
		if err := conn.ReadJSON(&ev); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				slog.DebugContext(r.Context(), "WebSocket の受信を終了するのだ", "error", err)
			}
			return
		}
		if err := ev.Validate(); err != nil {
			if err := conn.WriteJSON(errorResponse{Error: err.Error()}); err != nil {
				return
			}
			continue
		}
		resp, err := s.pointer(r, ev)
		if err != nil {
			conn.WriteJSON(errorResponse{Error: err.Error()})
			return
		}
		if err := conn.WriteJSON(resp); err != nil {
			return
		}
	}
}
