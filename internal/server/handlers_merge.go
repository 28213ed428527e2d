package server

import (
	"errors"
	"log/slog"
	"mime/multipart"
	"path/filepath"
	"strings"

	"github.com/labstack/echo/v4"
	apperrors "github.com/pscheid92/pdfpress/internal/errors"
	"github.com/pscheid92/pdfpress/internal/ghostscript"
	"github.com/pscheid92/pdfpress/internal/merge"
	"github.com/pscheid92/pdfpress/internal/workspace"
)

const outputFilename = "merged.pdf"

func (s *Server) handleMerge(c echo.Context) error {
	form, err := c.MultipartForm()
	if err != nil {
		return apperrors.ValidationError("request must be multipart/form-data")
	}

	files := form.File["files"]
	if len(files) == 0 {
		return apperrors.ValidationError("no files uploaded")
	}
	if len(files) > s.config.MaxFiles {
		return apperrors.ValidationError("too many files").
			WithField("max_files", s.config.MaxFiles).
			WithField("got", len(files))
	}

	compression, err := merge.ParseCompression(formValueDefault(c, "compress", string(merge.CompressionNone)))
	if err != nil {
		return apperrors.ValidationError(err.Error())
	}

	// Quality only matters for Ghostscript compression and is ignored
	// otherwise, bogus values included.
	var quality ghostscript.Quality
	if compression == merge.CompressionGhostscript {
		quality, err = ghostscript.ParseQuality(formValueDefault(c, "quality", string(ghostscript.QualityEbook)))
		if err != nil {
			return apperrors.ValidationError(err.Error())
		}
	}

	password := c.FormValue("password")

	for _, fh := range files {
		if !strings.EqualFold(filepath.Ext(fh.Filename), ".pdf") {
			return apperrors.ValidationError("only PDF files are allowed").
				WithField("filename", fh.Filename)
		}
	}

	ws, err := workspace.New(s.config.WorkDir)
	if err != nil {
		return apperrors.InternalError("failed to create workspace", err)
	}
	// The response is fully written before the handler returns, so the
	// workspace can go as soon as we do.
	defer func() {
		if err := ws.Cleanup(); err != nil {
			slog.WarnContext(c.Request().Context(), "Failed to clean up workspace", "job_id", ws.ID.String(), "error", err)
		}
	}()

	for _, fh := range files {
		if err := saveUpload(ws, fh); err != nil {
			if errors.Is(err, workspace.ErrBadFilename) {
				return apperrors.ValidationError("invalid filename").WithField("filename", fh.Filename)
			}
			return apperrors.InternalError("failed to store upload", err).WithField("filename", fh.Filename)
		}
	}

	result, err := s.merger.Merge(c.Request().Context(), merge.Request{
		Workspace:   ws,
		Compression: compression,
		Quality:     quality,
		Password:    password,
	})
	if err != nil {
		if errors.Is(err, merge.ErrNoInput) {
			return apperrors.ValidationError("no valid PDF files in the uploaded files")
		}
		if errors.Is(err, merge.ErrInvalidInput) {
			return apperrors.ValidationError(err.Error())
		}
		return apperrors.InternalError("failed to merge PDFs", err).
			WithField("job_id", ws.ID.String())
	}

	slog.InfoContext(c.Request().Context(), "Merge completed",
		"job_id", result.JobID.String(),
		"files", result.InputFiles,
		"compression", result.Compression,
		"ghostscript_used", result.GhostscriptUsed,
		"output_bytes", result.OutputBytes,
	)

	return c.Attachment(result.OutputPath, outputFilename)
}

func saveUpload(ws *workspace.Workspace, fh *multipart.FileHeader) error {
	src, err := fh.Open()
	if err != nil {
		return err
	}
	defer src.Close()

	_, err = ws.SaveUpload(fh.Filename, src)
	return err
}

func formValueDefault(c echo.Context, name, fallback string) string {
	if v := c.FormValue(name); v != "" {
		return v
	}
	return fallback
}
