package ui

import (
	"bytes"
	"fmt"
	"net/http"
	"strings"

	"granttrack/adapters/excel"
	"granttrack/domain/proposal"

	"github.com/gin-gonic/gin"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

func (s *Server) handleApprovedList(c *gin.Context) {
	id, ok := s.datasetID(c)
	if !ok {
		return
	}
	list, err := s.tracker.ApprovedList(c.Request.Context(), id)
	if err != nil {
		s.respondError(c, err)
		return
	}
	if list == nil {
		list = proposal.ApprovedList{}
	}
	c.JSON(http.StatusOK, gin.H{"approved": list})
}

// handleExportApproved streams the approved list as a workbook
func (s *Server) handleExportApproved(c *gin.Context) {
	id, ok := s.datasetID(c)
	if !ok {
		return
	}
	ds, err := s.tracker.GetDataset(c.Request.Context(), id)
	if err != nil {
		s.respondError(c, err)
		return
	}
	list, err := s.tracker.ApprovedList(c.Request.Context(), id)
	if err != nil {
		s.respondError(c, err)
		return
	}

	var buf bytes.Buffer
	if err := excel.WriteApproved(&buf, list); err != nil {
		s.respondError(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", exportName(ds.Name)))
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

func exportName(dataset string) string {
	name := strings.Map(func(r rune) rune {
		if r == '/' || r == '\\' || r == '"' {
			return '-'
		}
		return r
	}, strings.TrimSpace(dataset))
	if name == "" {
		name = "dataset"
	}
	return name + " approved.xlsx"
}
