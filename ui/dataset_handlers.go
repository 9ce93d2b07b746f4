package ui

import (
	"errors"
	"net/http"
	"path/filepath"
	"strings"

	"granttrack/adapters/excel"
	"granttrack/domain/proposal"

	"github.com/gin-gonic/gin"
)

// datasetSummary is a dataset without its rows
type datasetSummary struct {
	*proposal.Dataset
	Rows     []proposal.Row `json:"rows,omitempty"`
	RowCount int            `json:"row_count"`
}

func summarize(ds *proposal.Dataset) datasetSummary {
	return datasetSummary{Dataset: ds, RowCount: len(ds.Rows)}
}

func (s *Server) handleListDatasets(c *gin.Context) {
	list, err := s.tracker.ListDatasets(c.Request.Context())
	if err != nil {
		s.respondError(c, err)
		return
	}
	out := make([]datasetSummary, 0, len(list))
	for _, ds := range list {
		out = append(out, summarize(ds))
	}
	c.JSON(http.StatusOK, gin.H{"datasets": out})
}

// readUpload reads the multipart "file" (xlsx or csv) into an unsaved dataset.
// It writes the error response itself and reports false on failure.
func (s *Server) readUpload(c *gin.Context) (*proposal.Dataset, bool) {
	header, err := c.FormFile("file")
	if err != nil {
		s.badRequest(c, errors.New("multipart field \"file\" is required"))
		return nil, false
	}
	file, err := header.Open()
	if err != nil {
		s.badRequest(c, err)
		return nil, false
	}
	defer file.Close()

	name := strings.TrimSpace(c.PostForm("name"))
	if name == "" {
		name = strings.TrimSuffix(header.Filename, filepath.Ext(header.Filename))
	}
	cfg := excel.DefaultReaderConfig()
	cfg.Sheet = c.PostForm("sheet")

	ds, err := excel.ReadDatasetFrom(file, excel.DetectFileType(header.Filename), name, cfg)
	if err != nil {
		s.badRequest(c, err)
		return nil, false
	}
	return ds, true
}

func (s *Server) handleUploadDataset(c *gin.Context) {
	ds, ok := s.readUpload(c)
	if !ok {
		return
	}
	res, err := s.tracker.ImportDataset(c.Request.Context(), ds)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"dataset":   summarize(res.Dataset),
		"inference": res.Inference,
		"ambiguous": res.Inference.Ambiguous(),
	})
}

// handleReplaceData swaps an existing dataset's rows for a re-uploaded file
func (s *Server) handleReplaceData(c *gin.Context) {
	id, ok := s.datasetID(c)
	if !ok {
		return
	}
	upload, ok := s.readUpload(c)
	if !ok {
		return
	}
	res, err := s.tracker.ReplaceData(c.Request.Context(), id, upload)
	if err != nil {
		s.respondError(c, err)
		return
	}
	resp := gin.H{
		"dataset":    summarize(res.Dataset),
		"reinferred": res.Reinferred,
	}
	if res.Inference != nil {
		resp["inference"] = res.Inference
		resp["ambiguous"] = res.Inference.Ambiguous()
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleGetDataset(c *gin.Context) {
	id, ok := s.datasetID(c)
	if !ok {
		return
	}
	ds, err := s.tracker.GetDataset(c.Request.Context(), id)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, ds)
}

func (s *Server) handleDeleteDataset(c *gin.Context) {
	id, ok := s.datasetID(c)
	if !ok {
		return
	}
	if err := s.tracker.DeleteDataset(c.Request.Context(), id); err != nil {
		s.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) handleInferMatchColumn(c *gin.Context) {
	id, ok := s.datasetID(c)
	if !ok {
		return
	}
	inf, err := s.tracker.InferMatchColumn(c.Request.Context(), id)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"inference": inf, "ambiguous": inf.Ambiguous()})
}

func (s *Server) handleSetMatchColumn(c *gin.Context) {
	id, ok := s.datasetID(c)
	if !ok {
		return
	}
	var req struct {
		Column  string `json:"column" binding:"required"`
		Confirm bool   `json:"confirm"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		s.badRequest(c, err)
		return
	}
	ds, err := s.tracker.SetMatchColumn(c.Request.Context(), id, req.Column, req.Confirm)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, summarize(ds))
}

func (s *Server) handleSetColumnLocked(c *gin.Context) {
	id, ok := s.datasetID(c)
	if !ok {
		return
	}
	var req struct {
		Locked  bool `json:"locked"`
		Confirm bool `json:"confirm"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		s.badRequest(c, err)
		return
	}
	ds, err := s.tracker.SetColumnLocked(c.Request.Context(), id, req.Locked, req.Confirm)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, summarize(ds))
}

func (s *Server) handleSetCodeColumn(c *gin.Context) {
	id, ok := s.datasetID(c)
	if !ok {
		return
	}
	var req struct {
		Column string `json:"column"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		s.badRequest(c, err)
		return
	}
	ds, err := s.tracker.SetCodeColumn(c.Request.Context(), id, req.Column)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, summarize(ds))
}
