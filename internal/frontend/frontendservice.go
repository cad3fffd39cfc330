package frontend

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/jo-hoe/gosketch/internal/common"
	"github.com/jo-hoe/gosketch/internal/core"
	"github.com/jo-hoe/gosketch/internal/sketch"
	"github.com/labstack/echo/v4"
)

const (
	MainPageName = "index.html"
	mimePNG      = "image/png"
)

type FrontendService struct {
	coreService *core.CoreService
}

type modeOption struct {
	ID    string
	Label string
}

type indexData struct {
	Modes    []modeOption
	Selected string
}

type resultData struct {
	ID        string
	ModeLabel string
	Width     int
	Height    int
	Filename  string
}

type errorData struct {
	Message string
}

func NewFrontendService(coreService *core.CoreService) *FrontendService {
	return &FrontendService{
		coreService: coreService,
	}
}

// rootRedirectHandler redirects root path to index.html
func (service *FrontendService) rootRedirectHandler(ctx echo.Context) error {
	return ctx.Redirect(http.StatusMovedPermanently, "/"+MainPageName)
}

func (service *FrontendService) SetRoutes(e *echo.Echo) {
	e.Renderer = newTemplate()

	e.GET("/", service.rootRedirectHandler)
	e.GET("/"+MainPageName, service.indexHandler)
	e.POST("/htmx/sketch", service.htmxSketchHandler)
	e.GET("/htmx/result/:id/:which", service.htmxResultHandler)
	e.GET("/download/:id", service.downloadHandler)

	e.GET("/icon.svg", service.iconHandler)
	e.GET("/icon.png", service.iconPNGHandler)
}

func (service *FrontendService) indexHandler(ctx echo.Context) error {
	modes := service.coreService.Modes()
	data := indexData{Modes: make([]modeOption, 0, len(modes))}
	for _, mode := range modes {
		data.Modes = append(data.Modes, modeOption{ID: mode.String(), Label: mode.Label()})
	}
	if len(modes) > 0 {
		data.Selected = modes[0].String()
	}
	return ctx.Render(http.StatusOK, MainPageName, data)
}

func (service *FrontendService) htmxSketchHandler(ctx echo.Context) error {
	mode, err := sketch.ParseMode(ctx.FormValue("mode"))
	if err != nil {
		return service.renderError(ctx, err)
	}

	file, err := ctx.FormFile("image")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return ctx.Render(http.StatusOK, "idle.html", nil)
		}
		slog.Error("htmxSketchHandler: failed to get uploaded file",
			"status", http.StatusBadRequest, "error", err)
		return ctx.Render(http.StatusBadRequest, "error.html", errorData{Message: "Failed to get uploaded file"})
	}

	src, err := file.Open()
	if err != nil {
		slog.Error("htmxSketchHandler: failed to open uploaded file",
			"status", http.StatusInternalServerError, "error", err, "filename", file.Filename)
		return ctx.Render(http.StatusInternalServerError, "error.html", errorData{Message: "Failed to open uploaded file"})
	}
	defer func() {
		if cerr := src.Close(); cerr != nil {
			slog.Error("htmxSketchHandler: failed to close uploaded file reader", "error", cerr, "filename", file.Filename)
		}
	}()

	data, err := io.ReadAll(src)
	if err != nil {
		slog.Error("htmxSketchHandler: failed to read uploaded file",
			"status", http.StatusInternalServerError, "error", err, "filename", file.Filename)
		return ctx.Render(http.StatusInternalServerError, "error.html", errorData{Message: "Failed to read uploaded file"})
	}

	result, err := service.coreService.Convert(ctx.Request().Context(), core.ConvertRequest{
		Filename: file.Filename,
		Data:     data,
		Mode:     mode,
	})
	if errors.Is(err, core.ErrNoImage) {
		return ctx.Render(http.StatusOK, "idle.html", nil)
	}
	if err != nil {
		return service.renderError(ctx, err)
	}

	service.setNoCache(ctx)
	return ctx.Render(http.StatusOK, "result.html", resultData{
		ID:        result.ID,
		ModeLabel: result.Mode.Label(),
		Width:     result.Width,
		Height:    result.Height,
		Filename:  service.coreService.DownloadFilename(),
	})
}

func (service *FrontendService) htmxResultHandler(ctx echo.Context) error {
	id := ctx.Param("id")
	which, err := core.ParseResultImage(ctx.Param("which"))
	if err != nil {
		slog.Warn("htmxResultHandler: unknown image", "status", http.StatusNotFound, "which", ctx.Param("which"))
		return ctx.String(http.StatusNotFound, "Image not available")
	}

	preview, err := service.coreService.Preview(ctx.Request().Context(), id, which)
	if err != nil {
		status := common.StatusForError(err)
		slog.Warn("htmxResultHandler: preview not available",
			"status", status, "result_id", id, "which", which, "error", err)
		return ctx.String(status, "Image not available")
	}

	service.setNoCache(ctx)
	return ctx.Blob(http.StatusOK, mimePNG, preview)
}

func (service *FrontendService) downloadHandler(ctx echo.Context) error {
	id := ctx.Param("id")
	result, err := service.coreService.GetResult(ctx.Request().Context(), id)
	if err != nil {
		status := common.StatusForError(err)
		slog.Warn("downloadHandler: sketch not available", "status", status, "result_id", id, "error", err)
		return ctx.String(status, common.MessageForError(err))
	}

	service.setNoCache(ctx)
	ctx.Response().Header().Set(echo.HeaderContentDisposition,
		fmt.Sprintf("attachment; filename=%q", service.coreService.DownloadFilename()))
	return ctx.Blob(http.StatusOK, mimePNG, result.Sketch)
}

func (service *FrontendService) renderError(ctx echo.Context, err error) error {
	status := common.StatusForError(err)
	if status >= http.StatusInternalServerError {
		slog.Error("htmxSketchHandler: failed to create sketch", "status", status, "error", err)
	} else {
		slog.Warn("htmxSketchHandler: upload rejected", "status", status, "error", err)
	}
	return ctx.Render(status, "error.html", errorData{Message: common.MessageForError(err)})
}

func (service *FrontendService) setNoCache(ctx echo.Context) {
	ctx.Response().Header().Set("Cache-Control", "no-store, no-cache, must-revalidate, max-age=0")
	ctx.Response().Header().Set("Pragma", "no-cache")
	ctx.Response().Header().Set("Expires", "0")
}

func (service *FrontendService) iconHandler(ctx echo.Context) error {
	data, err := assetsFS.ReadFile("views/icon.svg")
	if err != nil {
		slog.Error("iconHandler: failed to read icon.svg", "status", http.StatusInternalServerError, "error", err)
		return ctx.String(http.StatusInternalServerError, "Failed to load icon")
	}
	// Cache for 7 days
	ctx.Response().Header().Set("Cache-Control", "public, max-age=604800, immutable")
	return ctx.Blob(http.StatusOK, "image/svg+xml", data)
}

func (service *FrontendService) iconPNGHandler(ctx echo.Context) error {
	data, err := iconAsPNG()
	if err != nil {
		slog.Error("iconPNGHandler: failed to render icon", "status", http.StatusInternalServerError, "error", err)
		return ctx.String(http.StatusInternalServerError, "Failed to load icon")
	}
	ctx.Response().Header().Set("Cache-Control", "public, max-age=604800, immutable")
	return ctx.Blob(http.StatusOK, mimePNG, data)
}
