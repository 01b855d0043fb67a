package handler

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/docuvault/docuvault/internal/middleware"
	"github.com/docuvault/docuvault/internal/pkg/errcode"
	appErr "github.com/docuvault/docuvault/internal/pkg/errors"
	"github.com/docuvault/docuvault/internal/pkg/response"
	"github.com/docuvault/docuvault/internal/service"
)

func getUserID(c *gin.Context) string {
	value, _ := c.Get(middleware.ContextUserIDKey)
	userID, _ := value.(string)
	return userID
}

func getIsSuperuser(c *gin.Context) bool {
	value, _ := c.Get(middleware.ContextSuperuserKey)
	isSuper, _ := value.(bool)
	return isSuper
}

// checkDocumentAccess gates by ownership; superusers pass everything. The
// engine performs no authorization of its own, so every document route goes
// through here.
func checkDocumentAccess(c *gin.Context, documents *service.DocumentService, docID string) error {
	if getIsSuperuser(c) {
		return nil
	}
	doc, err := documents.Get(c.Request.Context(), docID)
	if err != nil {
		return err
	}
	if doc.OwnerID != getUserID(c) {
		return appErr.ErrForbidden
	}
	return nil
}

// handleError maps service errors to wire codes. Conflict reasons travel to
// the client verbatim; everything else gets a generic message so internals
// never leak.
func handleError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	logutil.GetLogger(c.Request.Context()).Error("request failed",
		zap.String("method", c.Request.Method),
		zap.String("path", c.Request.URL.Path),
		zap.String("user_id", getUserID(c)),
		zap.Error(err),
	)
	var conflictErr *appErr.ConflictError
	switch {
	case errors.As(err, &conflictErr):
		response.Error(c, errcode.ErrConflict, conflictErr.Reason)
	case errors.Is(err, appErr.ErrUnauthorized):
		response.Error(c, errcode.ErrUnauthorized, "unauthorized")
	case errors.Is(err, appErr.ErrForbidden):
		response.Error(c, errcode.ErrForbidden, "forbidden")
	case errors.Is(err, appErr.ErrNotFound):
		response.Error(c, errcode.ErrNotFound, "not found")
	case errors.Is(err, appErr.ErrInvalid):
		response.Error(c, errcode.ErrInvalid, "invalid request")
	case errors.Is(err, appErr.ErrConflict):
		response.Error(c, errcode.ErrConflict, "conflict")
	case appErr.IsStorage(err):
		response.Error(c, errcode.ErrStorageFailed, "storage failed")
	default:
		response.Error(c, errcode.ErrInternal, "internal error")
	}
}
