// Package exam serves the upload form and the JSON API in front of the
// analysis service.
package exam

import (
	"context"
	"embed"
	"errors"
	"html/template"
	"net/http"
	"os"
	"strings"

	"github.com/gin-gonic/gin"

	"exam-analyzer-go/internal/app/services"
	domainexam "exam-analyzer-go/internal/domain/exam"
	domainimage "exam-analyzer-go/internal/domain/image"
	"exam-analyzer-go/internal/domain/prompt"
	"exam-analyzer-go/internal/domain/reference"
	"exam-analyzer-go/internal/domain/reference/manifest"
	"exam-analyzer-go/internal/platform/config"
	platformerrors "exam-analyzer-go/internal/platform/errors"
	"exam-analyzer-go/internal/platform/metrics"
	httptransport "exam-analyzer-go/internal/transport/http"
	"exam-analyzer-go/internal/utils"
)

//go:embed templates/*.html
var templatesFS embed.FS

const formField = "exam_image"

// Analyzer is the part of the analysis service the handlers call.
type Analyzer interface {
	AnalyzeExam(ctx context.Context, path, credential, description, model string) (*services.AnalysisResult, error)
}

// CacheStatus reports on the reference cache directory.
type CacheStatus interface {
	Status() (reference.Status, error)
}

type Options struct {
	Config   *config.Config
	Analyzer Analyzer
	// Cache and Manifest are optional; health and listing degrade without them.
	Cache    CacheStatus
	Manifest manifest.Store
	Logger   *utils.Logger
}

// Service is the HTTP transport of the exam analyzer.
type Service struct {
	cfg        *config.Config
	analyzer   Analyzer
	cache      CacheStatus
	manifest   manifest.Store
	pipeline   *domainimage.Pipeline
	extensions extensionSet
	templates  *template.Template
	logger     *utils.Logger
}

func NewService(opts Options) (*Service, error) {
	if opts.Config == nil {
		return nil, platformerrors.New(platformerrors.KindConfig, "exam.new", "config is required")
	}
	if opts.Analyzer == nil {
		return nil, platformerrors.New(platformerrors.KindConfig, "exam.new", "analyzer is required")
	}

	tmpl, err := template.ParseFS(templatesFS, "templates/*.html")
	if err != nil {
		return nil, platformerrors.Wrap(platformerrors.KindTransport, "exam.new", "parse templates", err)
	}

	return &Service{
		cfg:      opts.Config,
		analyzer: opts.Analyzer,
		cache:    opts.Cache,
		manifest: opts.Manifest,
		pipeline: domainimage.NewPipeline(domainimage.Options{
			MaxSize: opts.Config.Upload.MaxSize,
			Logger:  opts.Logger,
		}),
		extensions: newExtensionSet(opts.Config.Upload.AllowedExtensions),
		templates:  tmpl,
		logger:     opts.Logger,
	}, nil
}

// Register mounts the form routes on the engine and the JSON routes under
// router.API.
func (s *Service) Register(router *httptransport.Router) {
	session := SessionMiddleware(s.cfg.Server.SessionSecret)
	router.Engine.SetHTMLTemplate(s.templates)
	router.Engine.GET("/", session, s.handleIndex)
	router.Engine.POST("/analyze", session, s.handleAnalyzeForm)

	router.API.POST("/analyze", s.handleAnalyzeAPI)
	router.API.GET("/health", s.handleHealth)
	router.API.GET("/references", s.handleReferences)

	s.logger.InfoTag("HTTP", "exam routes registered")
}

func (s *Service) handleIndex(c *gin.Context) {
	c.HTML(http.StatusOK, "index.html", gin.H{
		"Flashes":    popFlashes(c, s.logger),
		"Extensions": s.extensions.String(),
		"MaxSizeMB":  s.cfg.Upload.MaxSize / (1024 * 1024),
	})
}

func (s *Service) redirectWithFlash(c *gin.Context, message string) {
	addFlash(c, s.logger, message)
	c.Redirect(http.StatusSeeOther, "/")
}

// handleAnalyzeForm renders the report or redirects back with a message.
func (s *Service) handleAnalyzeForm(c *gin.Context) {
	credential := s.cfg.Model.Credential()
	if credential == "" {
		s.redirectWithFlash(c, "Erro: GEMINI_API_KEY não configurada. Defina a variável de ambiente e reinicie o serviço.")
		return
	}

	upload, reason := s.readUpload(c)
	if upload == nil {
		s.redirectWithFlash(c, reason.formMessage(s.extensions))
		return
	}
	description := strings.TrimSpace(c.PostForm("description"))

	path, err := saveUpload(s.cfg.Upload.Dir, upload.name, upload.data)
	if err != nil {
		s.logger.ErrorTag("HTTP", "save upload: %v", err)
		s.redirectWithFlash(c, "Erro ao salvar o arquivo enviado.")
		return
	}
	defer s.removeUpload(path)

	result, err := s.analyzer.AnalyzeExam(c.Request.Context(), path, credential, description, s.cfg.Model.Name)
	if err != nil {
		s.logger.ErrorTag("HTTP", "analysis failed (%s): %v", ClassifyFailure(err), err)
		s.redirectWithFlash(c, FailureMessage(err))
		return
	}

	c.HTML(http.StatusOK, "result.html", gin.H{
		"Analysis":        result.Analysis,
		"ExamType":        prompt.DisplayName(domainexam.Type(result.ExamType)),
		"ReferencesUsed":  result.ReferencesUsed,
		"ModelUsed":       result.ModelUsed,
		"ImageFilename":   upload.name,
		"UserDescription": description,
	})
}

// handleAnalyzeAPI analyses an uploaded exam image.
// @Summary Analyse an exam image
// @Description Classifies the exam, attaches normal reference images and returns the model report.
// @Tags Exam
// @Accept multipart/form-data
// @Produce json
// @Param X-API-Key header string false "Model credential; falls back to the configured key"
// @Param exam_image formData file true "Exam image"
// @Param description formData string false "Clinical context"
// @Success 200 {object} services.AnalysisResult
// @Failure 400 {object} errorResponse
// @Failure 401 {object} errorResponse
// @Failure 500 {object} errorResponse
// @Router /api/analyze [post]
func (s *Service) handleAnalyzeAPI(c *gin.Context) {
	credential := c.GetHeader("X-API-Key")
	if credential == "" {
		credential = s.cfg.Model.Credential()
	}
	if credential == "" {
		c.JSON(http.StatusUnauthorized, errorResponse{Error: "API key não fornecida"})
		return
	}

	upload, reason := s.readUpload(c)
	if upload == nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: reason.apiMessage()})
		return
	}

	path, err := saveUpload(s.cfg.Upload.Dir, upload.name, upload.data)
	if err != nil {
		s.logger.ErrorTag("HTTP", "save upload: %v", err)
		c.JSON(http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}
	defer s.removeUpload(path)

	result, err := s.analyzer.AnalyzeExam(c.Request.Context(), path, credential, c.PostForm("description"), s.cfg.Model.Name)
	if err != nil {
		s.logger.ErrorTag("HTTP", "api analysis failed (%s): %v", ClassifyFailure(err), err)
		c.JSON(http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, result)
}

type errorResponse struct {
	Error   string `json:"error"`
	Success bool   `json:"success"`
}

type upload struct {
	name string
	data []byte
}

// rejection is why an upload was refused. It doubles as the metrics label.
type rejection string

const (
	rejectMissing    rejection = "missing"
	rejectEmpty      rejection = "empty"
	rejectExtension  rejection = "extension"
	rejectTooLarge   rejection = "too_large"
	rejectUnsafe     rejection = "unsafe"
	rejectUnreadable rejection = "unreadable"
)

func (r rejection) formMessage(exts extensionSet) string {
	switch r {
	case rejectMissing:
		return "Nenhuma imagem enviada."
	case rejectEmpty:
		return "Nenhum arquivo selecionado."
	case rejectExtension:
		return "Formato de arquivo não suportado. Use: " + exts.String()
	case rejectTooLarge:
		return "Arquivo excede o tamanho máximo permitido."
	case rejectUnsafe:
		return "O arquivo enviado não é uma imagem válida."
	default:
		return "Não foi possível ler o arquivo enviado."
	}
}

// apiMessage follows the JSON API wording, which folds an empty selection
// into the unsupported-format error.
func (r rejection) apiMessage() string {
	switch r {
	case rejectMissing:
		return "Nenhuma imagem enviada"
	case rejectEmpty, rejectExtension:
		return "Formato de arquivo não suportado"
	case rejectTooLarge:
		return "Arquivo excede o tamanho máximo permitido"
	case rejectUnsafe:
		return "O arquivo enviado não é uma imagem válida"
	default:
		return "Não foi possível ler o arquivo enviado"
	}
}

// bodyLimit caps the whole request so an oversized upload is refused
// while streaming rather than after it has been spooled.
func (s *Service) bodyLimit() int64 {
	if s.cfg.Upload.MaxSize <= 0 {
		return 0
	}
	return s.cfg.Upload.MaxSize + 1<<20
}

func reject(r rejection) (*upload, rejection) {
	metrics.UploadsRejectedTotal.WithLabelValues(string(r)).Inc()
	return nil, r
}

// readUpload returns the uploaded file or the reason it was refused.
func (s *Service) readUpload(c *gin.Context) (*upload, rejection) {
	if limit := s.bodyLimit(); limit > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
	}

	file, header, err := c.Request.FormFile(formField)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.logger.WarnTag("HTTP", "upload body exceeds %d bytes", tooLarge.Limit)
			return reject(rejectTooLarge)
		}
		// A file input submitted without a selection arrives as a plain value.
		if c.Request.MultipartForm != nil {
			if _, ok := c.Request.MultipartForm.Value[formField]; ok {
				return reject(rejectEmpty)
			}
		}
		return reject(rejectMissing)
	}
	defer file.Close()

	if header.Filename == "" {
		return reject(rejectEmpty)
	}
	if !s.extensions.Allows(header.Filename) {
		return reject(rejectExtension)
	}

	out, err := s.pipeline.Process(c.Request.Context(), domainimage.Input{
		Reader:         file,
		DeclaredFormat: Extension(header.Filename),
		Source:         "upload",
	})
	if err != nil {
		switch {
		case errors.Is(err, domainimage.ErrTooLarge):
			return reject(rejectTooLarge)
		case errors.Is(err, domainimage.ErrUnsafeContent):
			s.logger.WarnTag("HTTP", "refused upload %s: %v", header.Filename, err)
			return reject(rejectUnsafe)
		}
		s.logger.WarnTag("HTTP", "read upload %s: %v", header.Filename, err)
		return reject(rejectUnreadable)
	}

	insp := out.Inspection
	s.logger.DebugTag("HTTP", "upload %s: %d bytes, sniffed %s, decodable=%t format=%s %dx%d",
		header.Filename, insp.FileSize, insp.SniffedMIME, insp.Decodable, insp.Format, insp.Width, insp.Height)
	return &upload{name: header.Filename, data: out.Bytes}, ""
}

func (s *Service) removeUpload(path string) {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		s.logger.WarnTag("HTTP", "remove upload %s: %v", path, err)
	}
}
