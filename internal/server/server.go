// Package server exposes the analyser as an upload-and-view web surface.
package server

import (
	"embed"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/botscope/botscope/internal/analyzer"
	"github.com/botscope/botscope/internal/presentation/render"
	"github.com/botscope/botscope/internal/util"
)

//go:embed all:web
var webFS embed.FS

// Server holds the Gin engine for the upload-and-view surface.
type Server struct {
	engine *gin.Engine
	port   string
}

// New creates the web server. The surface is strictly request/response:
// upload an export, get a Markdown report back.
func New(port string) *Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())

	// Disable automatic redirects that cause 301 issues.
	engine.RedirectTrailingSlash = false
	engine.RedirectFixedPath = false

	s := &Server{
		engine: engine,
		port:   port,
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	webContent, _ := fs.Sub(webFS, "web")

	s.engine.GET("/", func(c *gin.Context) {
		data, err := fs.ReadFile(webContent, "index.html")
		if err != nil {
			c.String(http.StatusNotFound, "file not found: index.html")
			return
		}
		c.Data(http.StatusOK, "text/html; charset=utf-8", data)
	})

	s.engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	s.engine.POST("/analyse", s.handleAnalyse)
	s.engine.POST("/transcript", s.handleTranscript)
}

// handleAnalyse accepts a botContent.yml plus dialog.json upload and
// responds with the rendered Markdown report.
func (s *Server) handleAnalyse(c *gin.Context) {
	botContent, err := c.FormFile("botContent")
	if err != nil {
		c.String(http.StatusBadRequest, "missing botContent upload: %v", err)
		return
	}
	dialog, err := c.FormFile("dialog")
	if err != nil {
		c.String(http.StatusBadRequest, "missing dialog upload: %v", err)
		return
	}

	folder, err := os.MkdirTemp("", "botscope-upload-*")
	if err != nil {
		c.String(http.StatusInternalServerError, "failed to stage upload: %v", err)
		return
	}
	defer os.RemoveAll(folder)

	if err := c.SaveUploadedFile(botContent, filepath.Join(folder, "botContent.yml")); err != nil {
		c.String(http.StatusInternalServerError, "failed to stage upload: %v", err)
		return
	}
	if err := c.SaveUploadedFile(dialog, filepath.Join(folder, "dialog.json")); err != nil {
		c.String(http.StatusInternalServerError, "failed to stage upload: %v", err)
		return
	}

	profile, tl, err := analyzer.AnalyzeFolder(folder)
	if err != nil {
		c.String(http.StatusUnprocessableEntity, "analysis failed: %v", err)
		return
	}

	util.LogInfo(fmt.Sprintf("Analysed upload for bot %q", profile.DisplayName))
	c.Data(http.StatusOK, "text/markdown; charset=utf-8", []byte(render.Report(profile, tl)))
}

// handleTranscript accepts a single transcript JSON upload.
func (s *Server) handleTranscript(c *gin.Context) {
	upload, err := c.FormFile("transcript")
	if err != nil {
		c.String(http.StatusBadRequest, "missing transcript upload: %v", err)
		return
	}

	folder, err := os.MkdirTemp("", "botscope-upload-*")
	if err != nil {
		c.String(http.StatusInternalServerError, "failed to stage upload: %v", err)
		return
	}
	defer os.RemoveAll(folder)

	staged := filepath.Join(folder, filepath.Base(upload.Filename))
	if err := c.SaveUploadedFile(upload, staged); err != nil {
		c.String(http.StatusInternalServerError, "failed to stage upload: %v", err)
		return
	}

	tl, metadata, err := analyzer.AnalyzeTranscript(staged)
	if err != nil {
		c.String(http.StatusUnprocessableEntity, "analysis failed: %v", err)
		return
	}

	title := strings.TrimSuffix(filepath.Base(upload.Filename), filepath.Ext(upload.Filename))
	c.Data(http.StatusOK, "text/markdown; charset=utf-8", []byte(render.TranscriptReport(title, tl, metadata)))
}

// Start runs the server. Blocks until the server is stopped.
func (s *Server) Start() error {
	util.LogInfo("Serving on :" + s.port)
	return s.engine.Run(":" + s.port)
}

// Handler exposes the underlying HTTP handler for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}
