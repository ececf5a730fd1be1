package handlers

import (
	"errors"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/GS-Pro2025/movewise/internal/domain/model"
	"github.com/GS-Pro2025/movewise/internal/usecase"
)

const evidenceField = "evidence"

// OrderHandler manages order-related endpoints that need no flow.
type OrderHandler struct {
	facade    OrderFacade
	uploadDir string
}

// NewOrderHandler constructs OrderHandler. Uploaded evidence is staged in uploadDir.
func NewOrderHandler(facade OrderFacade, uploadDir string) *OrderHandler {
	if uploadDir == "" {
		uploadDir = os.TempDir()
	}
	return &OrderHandler{facade: facade, uploadDir: uploadDir}
}

// Complete handles POST /api/orders/:key/complete. Evidence is an optional
// multipart file field.
func (h *OrderHandler) Complete(c *gin.Context) {
	session, ok := requireSession(c)
	if !ok {
		return
	}

	evidence, cleanup, err := h.stageEvidence(c)
	if err != nil {
		c.Status(http.StatusBadRequest)
		return
	}
	defer cleanup()

	notices := &usecase.Notices{}
	if err := h.facade.CompleteOrder(c.Request.Context(), session, c.Param("key"), evidence, notices); err != nil {
		respondError(c, err, nil, notices)
		return
	}
	respond(c, http.StatusOK, nil, notices)
}

func (h *OrderHandler) stageEvidence(c *gin.Context) (*model.Image, func(), error) {
	noop := func() {}
	if !strings.HasPrefix(c.ContentType(), "multipart/") {
		return nil, noop, nil
	}
	header, err := c.FormFile(evidenceField)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, noop, nil
	}
	if err != nil {
		return nil, noop, err
	}

	path, err := h.save(c, header)
	if err != nil {
		return nil, noop, err
	}
	img := &model.Image{
		URI:      path,
		Name:     filepath.Base(header.Filename),
		Type:     header.Header.Get("Content-Type"),
		FileSize: header.Size,
	}
	return img, func() { _ = os.Remove(path) }, nil
}

func (h *OrderHandler) save(c *gin.Context, header *multipart.FileHeader) (string, error) {
	f, err := os.CreateTemp(h.uploadDir, "evidence-*"+filepath.Ext(header.Filename))
	if err != nil {
		return "", err
	}
	path := f.Name()
	_ = f.Close()

	if err := c.SaveUploadedFile(header, path); err != nil {
		_ = os.Remove(path)
		return "", err
	}
	return path, nil
}

// Delete handles DELETE /api/orders/:key?variant=.
func (h *OrderHandler) Delete(c *gin.Context) {
	session, ok := requireSession(c)
	if !ok {
		return
	}
	variant, ok := parseVariant(c.Query("variant"))
	if !ok {
		c.Status(http.StatusBadRequest)
		return
	}

	notices := &usecase.Notices{}
	if err := h.facade.DeleteOrder(c.Request.Context(), session, c.Param("key"), variant, notices); err != nil {
		respondError(c, err, nil, notices)
		return
	}
	respond(c, http.StatusOK, nil, notices)
}

// Assignments handles GET /api/orders/:key/assignments.
func (h *OrderHandler) Assignments(c *gin.Context) {
	items, err := h.facade.Assignments(c.Request.Context(), c.Param("key"))
	if err != nil {
		respondError(c, err, nil, nil)
		return
	}
	if len(items) == 0 {
		c.Status(http.StatusNoContent)
		return
	}
	respond(c, http.StatusOK, toAssignmentResponses(items), nil)
}

// DeleteAssignment handles DELETE /api/assignments/:id.
func (h *OrderHandler) DeleteAssignment(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.Status(http.StatusBadRequest)
		return
	}
	notices := &usecase.Notices{}
	if err := h.facade.DeleteAssignment(c.Request.Context(), id, notices); err != nil {
		respondError(c, err, nil, notices)
		return
	}
	respond(c, http.StatusOK, nil, notices)
}
