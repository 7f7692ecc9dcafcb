// Package ocrpdf is the OCR fallback engine for scanned PDFs: page
// rasters are pulled out of the document, upscaled and cleaned, then run
// through optical character recognition one page at a time.
package ocrpdf

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"io"
	"log/slog"
	"sort"
	"strings"
	"time"

	_ "image/jpeg"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	_ "golang.org/x/image/tiff"

	"github.com/Jaks-Tech/thexposiguide-app-sub000/internal/core"
	"github.com/Jaks-Tech/thexposiguide-app-sub000/internal/core/extract"
	"github.com/Jaks-Tech/thexposiguide-app-sub000/internal/metrics"
)

var _ extract.PageOCR = (*Engine)(nil)

// Engine recognizes text in scanned PDFs. Pages are processed
// sequentially: OCR dominates ingestion cost and parallel page decoding
// would balloon memory on large documents.
type Engine struct {
	ocr    core.OCRProvider
	lang   string
	scale  int     // raster upscale factor; higher buys OCR accuracy with compute time
	crop   float64 // bottom fraction cropped to drop scanner watermark bands
	logger *slog.Logger

	// collect yields page rasters in page order. Seam for tests; the
	// default is the pdfcpu-backed collectPageRasters.
	collect func(data []byte) ([]pageRaster, error)
}

func NewEngine(ocr core.OCRProvider, lang string, scale int) *Engine {
	if scale < 1 {
		scale = 1
	}
	e := &Engine{
		ocr:    ocr,
		lang:   lang,
		scale:  scale,
		crop:   0.08,
		logger: slog.With("component", "ocrpdf"),
	}
	e.collect = e.collectPageRasters
	return e
}

type pageRaster struct {
	pageNr int
	data   []byte
}

// RecognizePDF produces best-effort plain text for raw PDF bytes, page
// texts joined with a newline in page order. If OCR over every page
// yields zero text it returns extract.ErrNoReadableText so callers can
// tell "ran and found nothing" from "never ran".
func (e *Engine) RecognizePDF(ctx context.Context, data []byte) (string, error) {
	rasters, err := e.collect(data)
	if err != nil {
		return "", err
	}
	if len(rasters) == 0 {
		return "", extract.ErrNoReadableText
	}

	var pages []string
	for _, raster := range rasters {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		start := time.Now()
		text, err := e.recognizePage(ctx, raster)
		metrics.ObserveStage("ocr_page", time.Since(start))
		if err != nil {
			e.logger.Warn("page ocr failed", "page", raster.pageNr, "error", err)
			continue
		}
		if text != "" {
			pages = append(pages, text)
		}
	}

	text := strings.Join(pages, "\n")
	if strings.TrimSpace(text) == "" {
		return "", extract.ErrNoReadableText
	}
	return text, nil
}

// collectPageRasters extracts the embedded page images in page order.
// Scanned PDFs carry one full-page raster per page; pages without any
// raster are skipped.
func (e *Engine) collectPageRasters(data []byte) ([]pageRaster, error) {
	conf := model.NewDefaultConfiguration()

	pageImages, err := api.ExtractImagesRaw(bytes.NewReader(data), nil, conf)
	if err != nil {
		return nil, fmt.Errorf("extract page images: %w", err)
	}

	var rasters []pageRaster
	for _, byObj := range pageImages {
		objNrs := make([]int, 0, len(byObj))
		for objNr := range byObj {
			objNrs = append(objNrs, objNr)
		}
		sort.Ints(objNrs)

		for _, objNr := range objNrs {
			img := byObj[objNr]
			raw, err := io.ReadAll(img)
			if err != nil {
				e.logger.Warn("reading page image failed", "page", img.PageNr, "obj", objNr, "error", err)
				continue
			}
			rasters = append(rasters, pageRaster{pageNr: img.PageNr, data: raw})
		}
	}

	sort.SliceStable(rasters, func(i, j int) bool { return rasters[i].pageNr < rasters[j].pageNr })
	return rasters, nil
}

func (e *Engine) recognizePage(ctx context.Context, raster pageRaster) (string, error) {
	src, _, err := image.Decode(bytes.NewReader(raster.data))
	if err != nil {
		return "", fmt.Errorf("decode page raster: %w", err)
	}

	processed := Preprocess(src, e.scale, e.crop)

	var buf bytes.Buffer
	if err := png.Encode(&buf, processed); err != nil {
		return "", fmt.Errorf("encode processed raster: %w", err)
	}

	return e.ocr.Recognize(ctx, buf.Bytes(), e.lang)
}
