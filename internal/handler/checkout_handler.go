package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/docuvault/docuvault/internal/pkg/errcode"
	"github.com/docuvault/docuvault/internal/pkg/response"
	"github.com/docuvault/docuvault/internal/service"
)

type CheckoutHandler struct {
	documents *service.DocumentService
}

func NewCheckoutHandler(documents *service.DocumentService) *CheckoutHandler {
	return &CheckoutHandler{documents: documents}
}

type checkoutRequest struct {
	Comments string `json:"comments"`
}

func (h *CheckoutHandler) Checkout(c *gin.Context) {
	docID := c.Param("id")
	if err := checkDocumentAccess(c, h.documents, docID); err != nil {
		handleError(c, err)
		return
	}
	var req checkoutRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, errcode.ErrInvalid, "invalid request")
			return
		}
	}
	doc, err := h.documents.Checkout(c.Request.Context(), docID, getUserID(c), req.Comments)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, doc)
}

// Checkin accepts multipart form data: optional comments field and optional
// replacement file. With a file the document gains a new version; without one
// only the lock is released.
func (h *CheckoutHandler) Checkin(c *gin.Context) {
	docID := c.Param("id")
	if err := checkDocumentAccess(c, h.documents, docID); err != nil {
		handleError(c, err)
		return
	}
	comments := c.PostForm("comments")
	var file *service.FileInput
	if header, err := c.FormFile("file"); err == nil {
		fileInput, closeFile, err := openUpload(header)
		if err != nil {
			response.Error(c, errcode.ErrInvalidFile, "unreadable file")
			return
		}
		defer closeFile()
		file = &fileInput
	}
	doc, err := h.documents.Checkin(c.Request.Context(), docID, getUserID(c), comments, file)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, doc)
}

func (h *CheckoutHandler) Status(c *gin.Context) {
	docID := c.Param("id")
	if err := checkDocumentAccess(c, h.documents, docID); err != nil {
		handleError(c, err)
		return
	}
	checkout, err := h.documents.CurrentCheckout(c.Request.Context(), docID)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"checked_out": checkout != nil, "checkout": checkout})
}

func (h *CheckoutHandler) Activities(c *gin.Context) {
	docID := c.Param("id")
	if err := checkDocumentAccess(c, h.documents, docID); err != nil {
		handleError(c, err)
		return
	}
	activities, err := h.documents.Activities(c.Request.Context(), docID)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, activities)
}
