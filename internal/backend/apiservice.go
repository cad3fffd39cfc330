package backend

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

const mimePNG = "image/png"

type APIService struct {
	coreService *core.CoreService
}

// SketchRequest carries the mode of a POST /api/sketch call; the image is
// read separately from the multipart "image" field.
type SketchRequest struct {
	Mode string `form:"mode" query:"mode" validate:"required,oneof=pencil blackwhite"`
}

type ModeResponse struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

func NewAPIService(coreService *core.CoreService) *APIService {
	return &APIService{
		coreService: coreService,
	}
}

func (s *APIService) SetRoutes(e *echo.Echo) {
	e.GET("/probe", s.probeHandler)
	e.GET("/api/modes", s.modesHandler)
	e.POST("/api/sketch", s.sketchHandler)
}

func (s *APIService) probeHandler(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "ok")
}

func (s *APIService) modesHandler(ctx echo.Context) error {
	modes := s.coreService.Modes()
	response := make([]ModeResponse, 0, len(modes))
	for _, mode := range modes {
		response = append(response, ModeResponse{ID: mode.String(), Label: mode.Label()})
	}
	return ctx.JSON(http.StatusOK, response)
}

func (s *APIService) sketchHandler(ctx echo.Context) error {
	var request SketchRequest
	if err := ctx.Bind(&request); err != nil {
		return err
	}
	if request.Mode == "" {
		request.Mode = ctx.QueryParam("mode")
	}
	if err := ctx.Validate(&request); err != nil {
		return err
	}
	mode, err := sketch.ParseMode(request.Mode)
	if err != nil {
		return s.errorResponse(ctx, err)
	}

	file, err := ctx.FormFile("image")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return s.errorResponse(ctx, core.ErrNoImage)
		}
		slog.Error("sketchHandler: failed to get uploaded file", "status", http.StatusBadRequest, "error", err)
		return ctx.JSON(http.StatusBadRequest, ErrorResponse{Error: "Failed to get uploaded file"})
	}

	src, err := file.Open()
	if err != nil {
		slog.Error("sketchHandler: failed to open uploaded file", "error", err, "filename", file.Filename)
		return ctx.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to open uploaded file"})
	}
	defer func() {
		if cerr := src.Close(); cerr != nil {
			slog.Error("sketchHandler: failed to close uploaded file reader", "error", cerr, "filename", file.Filename)
		}
	}()

	data, err := io.ReadAll(src)
	if err != nil {
		slog.Error("sketchHandler: failed to read uploaded file", "error", err, "filename", file.Filename)
		return ctx.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to read uploaded file"})
	}

	result, err := s.coreService.Convert(ctx.Request().Context(), core.ConvertRequest{
		Filename: file.Filename,
		Data:     data,
		Mode:     mode,
	})
	if err != nil {
		return s.errorResponse(ctx, err)
	}

	ctx.Response().Header().Set("X-Sketch-Id", result.ID)
	ctx.Response().Header().Set(echo.HeaderContentDisposition,
		fmt.Sprintf("attachment; filename=%q", s.coreService.DownloadFilename()))
	return ctx.Blob(http.StatusOK, mimePNG, result.Sketch)
}

func (s *APIService) errorResponse(ctx echo.Context, err error) error {
	status := common.StatusForError(err)
	if status >= http.StatusInternalServerError {
		slog.Error("sketchHandler: conversion failed", "status", status, "error", err)
	} else {
		slog.Warn("sketchHandler: request rejected", "status", status, "error", err)
	}
	return ctx.JSON(status, ErrorResponse{Error: common.MessageForError(err)})
}
