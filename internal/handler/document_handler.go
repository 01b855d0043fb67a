package handler

import (
	"fmt"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/docuvault/docuvault/internal/pkg/errcode"
	"github.com/docuvault/docuvault/internal/pkg/response"
	"github.com/docuvault/docuvault/internal/service"
)

type DocumentHandler struct {
	documents *service.DocumentService
}

func NewDocumentHandler(documents *service.DocumentService) *DocumentHandler {
	return &DocumentHandler{documents: documents}
}

func splitTags(raw string) []string {
	parts := strings.Split(raw, ",")
	names := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			names = append(names, trimmed)
		}
	}
	return names
}

func openUpload(header *multipart.FileHeader) (service.FileInput, func(), error) {
	file, err := header.Open()
	if err != nil {
		return service.FileInput{}, nil, err
	}
	mimeType := header.Header.Get("Content-Type")
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}
	input := service.FileInput{
		Content:  file,
		Size:     header.Size,
		MimeType: mimeType,
	}
	return input, func() { _ = file.Close() }, nil
}

func (h *DocumentHandler) Create(c *gin.Context) {
	header, err := c.FormFile("file")
	if err != nil {
		response.Error(c, errcode.ErrInvalidFile, "file required")
		return
	}
	input, closeFile, err := openUpload(header)
	if err != nil {
		response.Error(c, errcode.ErrInvalidFile, "unreadable file")
		return
	}
	defer closeFile()
	doc, err := h.documents.Create(c.Request.Context(), getUserID(c), service.DocumentCreateInput{
		Title:       c.PostForm("title"),
		Description: c.PostForm("description"),
		TagNames:    splitTags(c.PostForm("tags")),
		File:        input,
	})
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, doc)
}

func (h *DocumentHandler) List(c *gin.Context) {
	limit, offset := parsePage(c)
	var ownerID *string
	if !getIsSuperuser(c) {
		uid := getUserID(c)
		ownerID = &uid
	} else if value := c.Query("owner_id"); value != "" {
		ownerID = &value
	}
	docs, err := h.documents.List(c.Request.Context(), ownerID, limit, offset)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, docs)
}

func (h *DocumentHandler) Get(c *gin.Context) {
	docID := c.Param("id")
	if err := checkDocumentAccess(c, h.documents, docID); err != nil {
		handleError(c, err)
		return
	}
	doc, err := h.documents.Get(c.Request.Context(), docID)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, doc)
}

// Update takes multipart form data so metadata edits and content uploads
// share one endpoint. Absent fields stay untouched; a present-but-empty tags
// field clears the tag set.
func (h *DocumentHandler) Update(c *gin.Context) {
	docID := c.Param("id")
	if err := checkDocumentAccess(c, h.documents, docID); err != nil {
		handleError(c, err)
		return
	}
	var input service.DocumentUpdateInput
	if value, ok := c.GetPostForm("title"); ok {
		input.Title = &value
	}
	if value, ok := c.GetPostForm("description"); ok {
		input.Description = &value
	}
	if value, ok := c.GetPostForm("tags"); ok {
		names := splitTags(value)
		input.TagNames = &names
	}
	if header, err := c.FormFile("file"); err == nil {
		fileInput, closeFile, err := openUpload(header)
		if err != nil {
			response.Error(c, errcode.ErrInvalidFile, "unreadable file")
			return
		}
		defer closeFile()
		input.File = &fileInput
	}
	doc, err := h.documents.Update(c.Request.Context(), docID, input)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, doc)
}

func (h *DocumentHandler) Delete(c *gin.Context) {
	docID := c.Param("id")
	if err := checkDocumentAccess(c, h.documents, docID); err != nil {
		handleError(c, err)
		return
	}
	if err := h.documents.Delete(c.Request.Context(), docID); err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"ok": true})
}

func (h *DocumentHandler) Download(c *gin.Context) {
	docID := c.Param("id")
	if err := checkDocumentAccess(c, h.documents, docID); err != nil {
		handleError(c, err)
		return
	}
	var versionNumber *int
	if value := c.Query("version"); value != "" {
		parsed, err := parseVersionNumber(value)
		if err != nil {
			response.Error(c, errcode.ErrInvalid, "invalid version")
			return
		}
		versionNumber = &parsed
	}
	reader, doc, err := h.documents.Download(c.Request.Context(), docID, versionNumber)
	if err != nil {
		handleError(c, err)
		return
	}
	defer func() { _ = reader.Close() }()
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", doc.Title))
	c.DataFromReader(http.StatusOK, -1, doc.MimeType, reader, nil)
}
