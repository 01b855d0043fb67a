package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	appErr "github.com/docuvault/docuvault/internal/pkg/errors"
	"github.com/docuvault/docuvault/internal/pkg/response"
	"github.com/docuvault/docuvault/internal/service"
)

type VersionHandler struct {
	documents *service.DocumentService
}

func NewVersionHandler(documents *service.DocumentService) *VersionHandler {
	return &VersionHandler{documents: documents}
}

func parseVersionNumber(value string) (int, error) {
	parsed, err := strconv.Atoi(value)
	if err != nil || parsed < 1 {
		return 0, appErr.ErrInvalid
	}
	return parsed, nil
}

func (h *VersionHandler) List(c *gin.Context) {
	docID := c.Param("id")
	if err := checkDocumentAccess(c, h.documents, docID); err != nil {
		handleError(c, err)
		return
	}
	versions, err := h.documents.ListVersions(c.Request.Context(), docID)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, versions)
}

func (h *VersionHandler) Get(c *gin.Context) {
	docID := c.Param("id")
	if err := checkDocumentAccess(c, h.documents, docID); err != nil {
		handleError(c, err)
		return
	}
	versionNumber, err := parseVersionNumber(c.Param("version"))
	if err != nil {
		handleError(c, err)
		return
	}
	version, err := h.documents.GetVersion(c.Request.Context(), docID, versionNumber)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, version)
}
