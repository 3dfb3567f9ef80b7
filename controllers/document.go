package controllers

import (
	"fmt"
	"net/http"
	"path/filepath"
	"strings"

	"ethics-review-api/services"

	"github.com/gin-gonic/gin"
)

// UploadDocument attaches a PDF to a draft or revision.
func (h *Handler) UploadDocument(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	// Get uploaded file
	file, err := c.FormFile("file")
	if err != nil {
		badRequest(c, "No file uploaded")
		return
	}

	contentType := file.Header.Get("Content-Type")
	if contentType == "" && strings.EqualFold(filepath.Ext(file.Filename), ".pdf") {
		contentType = "application/pdf"
	}

	src, err := file.Open()
	if err != nil {
		respondError(c, fmt.Errorf("failed to open upload: %w", err))
		return
	}
	defer src.Close()

	proposal, err := h.workflow.AttachDocument(c.Request.Context(), c.Param("id"), actor, services.DocumentUpload{
		FileName:    filepath.Base(file.Filename),
		ContentType: contentType,
		Body:        src,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success":  true,
		"document": proposal.Documents[len(proposal.Documents)-1],
		"proposal": proposal,
	})
}

// DownloadDocument streams a stored document to a reader of the proposal.
func (h *Handler) DownloadDocument(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	doc, body, err := h.workflow.OpenDocument(c.Request.Context(), c.Param("id"), c.Param("document_id"), actor)
	if err != nil {
		respondError(c, err)
		return
	}
	defer body.Close()

	c.DataFromReader(http.StatusOK, doc.Size, doc.ContentType, body, map[string]string{
		"Content-Disposition":       fmt.Sprintf("attachment; filename=\"%s\"", strings.ReplaceAll(doc.FileName, "\"", "")),
		"Content-Transfer-Encoding": "binary",
	})
}
