package ui

import (
	"net/http"

	"granttrack/app"
	"granttrack/domain/core"
	"granttrack/domain/proposal"

	"github.com/gin-gonic/gin"
)

// boardEntryView adds the rendered note to a board entry
type boardEntryView struct {
	app.BoardEntry
	NoteHTML string `json:"note_html,omitempty"`
}

func (s *Server) handleBoard(c *gin.Context) {
	id, ok := s.datasetID(c)
	if !ok {
		return
	}
	board, err := s.tracker.Board(c.Request.Context(), id)
	if err != nil {
		s.respondError(c, err)
		return
	}
	entries := make([]boardEntryView, 0, len(board.Entries))
	for _, e := range board.Entries {
		entries = append(entries, boardEntryView{BoardEntry: e, NoteHTML: noteHTML(e.Note)})
	}
	c.JSON(http.StatusOK, gin.H{
		"dataset_id":   board.DatasetID,
		"dataset_name": board.DatasetName,
		"match_column": board.MatchColumn,
		"entries":      entries,
		"tally":        board.Tally,
	})
}

func (s *Server) handleBalance(c *gin.Context) {
	id, ok := s.datasetID(c)
	if !ok {
		return
	}
	var in app.BalanceInput
	if !s.bind(c, &in) {
		return
	}
	res, err := s.tracker.RunAssignmentBalancer(c.Request.Context(), id, in)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (s *Server) handleAssignments(c *gin.Context) {
	id, ok := s.datasetID(c)
	if !ok {
		return
	}
	assigned, err := s.tracker.Assignments(c.Request.Context(), id)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"assignments": assigned})
}

func (s *Server) handleUpdateProposal(c *gin.Context) {
	id, ok := s.datasetID(c)
	if !ok {
		return
	}
	var patch proposal.MetaPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		s.badRequest(c, err)
		return
	}
	identity := c.Param("identity")
	meta, err := s.tracker.UpdateProposalField(c.Request.Context(), id, identity, patch)
	if err != nil {
		s.respondError(c, err)
		return
	}
	note := meta.Note(identity)
	c.JSON(http.StatusOK, gin.H{
		"identity":       proposal.Identity(identity),
		"given_amount":   meta.Given(identity),
		"funding_status": meta.Funding(identity),
		"due_date":       meta.DueDate(identity),
		"note":           note,
		"note_html":      noteHTML(note),
	})
}

func (s *Server) handleToggleApproval(c *gin.Context) {
	id, ok := s.datasetID(c)
	if !ok {
		return
	}
	res, err := s.tracker.ToggleApproval(c.Request.Context(), id, c.Param("identity"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (s *Server) handleExtractCode(c *gin.Context) {
	id, ok := s.datasetID(c)
	if !ok {
		return
	}
	res, err := s.tracker.ExtractCode(c.Request.Context(), id, c.Param("identity"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (s *Server) handleCrossCycleMatches(c *gin.Context) {
	id, ok := s.datasetID(c)
	if !ok {
		return
	}
	res, err := s.tracker.FindCrossCycleMatches(c.Request.Context(), id, c.Param("identity"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (s *Server) handleListSubmissions(c *gin.Context) {
	id, ok := s.datasetID(c)
	if !ok {
		return
	}
	subs, err := s.tracker.ListSubmissions(c.Request.Context(), id)
	if err != nil {
		s.respondError(c, err)
		return
	}
	if subs == nil {
		subs = []proposal.Submission{}
	}
	c.JSON(http.StatusOK, gin.H{"submissions": subs})
}

func (s *Server) handleCreateSubmission(c *gin.Context) {
	id, ok := s.datasetID(c)
	if !ok {
		return
	}
	var in app.SubmissionInput
	if !s.bind(c, &in) {
		return
	}
	sub, err := s.tracker.CreateSubmission(c.Request.Context(), id, in)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, sub)
}

func (s *Server) handleReplaceSubmission(c *gin.Context) {
	id, ok := s.datasetID(c)
	if !ok {
		return
	}
	subID, err := core.ParseSubmissionID(c.Param("sid"))
	if err != nil {
		s.badRequest(c, err)
		return
	}
	var in app.SubmissionInput
	if !s.bind(c, &in) {
		return
	}
	sub, err := s.tracker.ReplaceSubmission(c.Request.Context(), id, subID, in)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, sub)
}

func (s *Server) handleDeleteSubmission(c *gin.Context) {
	id, ok := s.datasetID(c)
	if !ok {
		return
	}
	subID, err := core.ParseSubmissionID(c.Param("sid"))
	if err != nil {
		s.badRequest(c, err)
		return
	}
	if err := s.tracker.DeleteSubmission(c.Request.Context(), id, subID); err != nil {
		s.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
