package api

import (
	"errors"        // Error matching
	"fmt"           // Header formatting
	"net/http"      // HTTP status codes
	"os"            // File checks
	"path/filepath" // Document paths
	"time"          // Download stamps

	"quotation_system/internal/history"    // History log
	"quotation_system/internal/middleware" // Session context helpers

	"github.com/gin-gonic/gin"    // Gin web framework
	"github.com/sirupsen/logrus"  // Structured logging
	"github.com/xuri/excelize/v2" // Spreadsheet export
)

// HistoryPageHandler lists the user's quotations, most recent first
func HistoryPageHandler(hist history.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := middleware.UserID(c)
		records, err := hist.ListForUser(c.Request.Context(), userID)
		if err != nil {
			logrus.WithFields(logrus.Fields{"user_id": userID, "error": err}).Error("Failed to list history")
			renderError(c, http.StatusInternalServerError, "Could not load your quotations.")
			return
		}
		c.HTML(http.StatusOK, "history.html", gin.H{"Username": middleware.Username(c), "Records": records})
	}
}

// DeleteHistoryHandler deletes a quotation and its document
func DeleteHistoryHandler(hist history.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := middleware.UserID(c)
		index, ok := indexParam(c)
		if !ok {
			c.Redirect(http.StatusSeeOther, "/history")
			return
		}
		rec, err := hist.DeleteAt(c.Request.Context(), userID, index)
		switch {
		case errors.Is(err, history.ErrNotFound):
		case err != nil:
			logrus.WithFields(logrus.Fields{"user_id": userID, "index": index, "error": err}).Error("Failed to delete quotation")
		default:
			logrus.WithFields(logrus.Fields{"user_id": userID, "file": rec.File}).Info("Quotation deleted")
		}
		c.Redirect(http.StatusSeeOther, "/history")
	}
}

// DownloadHandler streams one of the user's documents. ?inline=1 displays it
// in the browser and does not count as a download.
func DownloadHandler(hist history.Store, outputDir string, now func() time.Time) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := middleware.UserID(c)
		name := c.Param("name")
		notFound := func() {
			c.JSON(http.StatusNotFound, gin.H{"error": "File not found"})
		}
		if name == "" || filepath.Base(name) != name || name == "." || name == ".." {
			notFound()
			return
		}

		ctx := c.Request.Context()
		if _, err := hist.FindByFile(ctx, userID, name); err != nil {
			if !errors.Is(err, history.ErrNotFound) {
				logrus.WithFields(logrus.Fields{"user_id": userID, "file": name, "error": err}).Error("Failed to look up document")
			}
			notFound()
			return
		}
		path := filepath.Join(outputDir, name)
		if info, err := os.Stat(path); err != nil || info.IsDir() {
			notFound()
			return
		}

		if c.Query("inline") == "1" {
			c.Header("Content-Disposition", fmt.Sprintf("inline; filename=%q", name))
			c.File(path)
			return
		}
		if err := hist.MarkDownloaded(ctx, name, now()); err != nil {
			logrus.WithFields(logrus.Fields{"user_id": userID, "file": name, "error": err}).Error("Failed to stamp download")
		}
		logrus.WithFields(logrus.Fields{"user_id": userID, "file": name}).Info("Quotation downloaded")
		c.FileAttachment(path, name)
	}
}

// exportColumns are the spreadsheet headers, in order
var exportColumns = []struct {
	title string
	width float64
}{
	{"No", 6},
	{"Quotation No", 18},
	{"Customer", 30},
	{"Date", 12},
	{"Total (Rs.)", 16},
	{"Last Downloaded", 18},
	{"File", 60},
}

// ExportHistoryHandler returns the user's history as an .xlsx workbook
func ExportHistoryHandler(hist history.Store, now func() time.Time) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := middleware.UserID(c)
		records, err := hist.ListForUser(c.Request.Context(), userID)
		if err != nil {
			logrus.WithFields(logrus.Fields{"user_id": userID, "error": err}).Error("Failed to list history")
			renderError(c, http.StatusInternalServerError, "Could not load your quotations.")
			return
		}

		f, err := historyWorkbook(records)
		if err != nil {
			logrus.WithFields(logrus.Fields{"user_id": userID, "error": err}).Error("Failed to build history workbook")
			renderError(c, http.StatusInternalServerError, "Could not export your quotations.")
			return
		}
		defer func() {
			if err := f.Close(); err != nil {
				logrus.WithField("error", err).Warn("Failed to close workbook")
			}
		}()

		filename := fmt.Sprintf("quotation_history_%s.xlsx", now().Format("02-01-2006"))
		c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		c.Header("Content-Disposition", "attachment; filename="+filename)
		c.Status(http.StatusOK)
		if err := f.Write(c.Writer); err != nil {
			logrus.WithFields(logrus.Fields{"user_id": userID, "error": err}).Error("Failed to write history workbook")
		}
	}
}

const historySheet = "History"

// historyWorkbook lays out records one per row under a bold header
func historyWorkbook(records []history.Record) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", historySheet); err != nil {
		f.Close()
		return nil, err
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"0B5394"}, Pattern: 1},
	})
	if err != nil {
		f.Close()
		return nil, err
	}
	totalStyle, err := f.NewStyle(&excelize.Style{NumFmt: 4}) // #,##0.00
	if err != nil {
		f.Close()
		return nil, err
	}

	for i, col := range exportColumns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(historySheet, cell, col.title)
		name, _ := excelize.ColumnNumberToName(i + 1)
		f.SetColWidth(historySheet, name, name, col.width)
	}
	last, _ := excelize.CoordinatesToCellName(len(exportColumns), 1)
	f.SetCellStyle(historySheet, "A1", last, headerStyle)

	for i, r := range records {
		row := i + 2
		values := []any{i + 1, r.QuotationNo, r.CustomerName, r.Date, r.Total, r.LastDownloaded, r.File}
		for j, v := range values {
			cell, _ := excelize.CoordinatesToCellName(j+1, row)
			f.SetCellValue(historySheet, cell, v)
		}
		cell, _ := excelize.CoordinatesToCellName(5, row)
		f.SetCellStyle(historySheet, cell, cell, totalStyle)
	}
	return f, nil
}
