package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/opencampus/sims-api/internal/service"
	appErrors "github.com/opencampus/sims-api/pkg/errors"
	"github.com/opencampus/sims-api/pkg/response"
)

// DocumentHandler exposes upload, review and version endpoints.
type DocumentHandler struct {
	documents *service.DocumentService
}

// NewDocumentHandler creates a new handler.
func NewDocumentHandler(documents *service.DocumentService) *DocumentHandler {
	return &DocumentHandler{documents: documents}
}

// Upload godoc
// @Summary Upload a document
// @Description Multipart upload; the file goes to the remote host, metadata is stored locally
// @Tags Documents
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Document file"
// @Param title formData string true "Title"
// @Param document_type formData string true "Document type"
// @Param section_id formData string false "Section id"
// @Param assignment_id formData string false "Assignment id"
// @Param description formData string false "Description"
// @Success 201 {object} response.Envelope
// @Failure 413 {object} response.Envelope
// @Failure 415 {object} response.Envelope
// @Router /student/documents [post]
func (h *DocumentHandler) Upload(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	req, file, err := h.uploadRequestFromForm(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	defer file.Close() //nolint:errcheck

	doc, err := h.documents.Upload(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, doc)
}

// Mine godoc
// @Summary List my documents
// @Tags Documents
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /student/documents [get]
func (h *DocumentHandler) Mine(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	docs, err := h.documents.Mine(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, docs, nil)
}

// Resubmit godoc
// @Summary Resubmit a document
// @Description Replace the stored file and return the upload to pending review
// @Tags Documents
// @Accept multipart/form-data
// @Produce json
// @Param id path string true "Document id"
// @Param file formData file true "Replacement file"
// @Param change_description formData string false "What changed"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /student/documents/{id}/resubmit [post]
func (h *DocumentHandler) Resubmit(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	req, file, err := h.uploadRequestFromForm(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	defer file.Close() //nolint:errcheck

	var changeDescription *string
	if value := c.PostForm("change_description"); value != "" {
		changeDescription = &value
	}

	doc, err := h.documents.Resubmit(c.Request.Context(), claims.UserID, c.Param("id"), changeDescription, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, doc, nil)
}

// Delete godoc
// @Summary Delete a document
// @Description Remove the upload, its version history and the remote file
// @Tags Documents
// @Produce json
// @Param id path string true "Document id"
// @Success 204 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /student/documents/{id} [delete]
func (h *DocumentHandler) Delete(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	if err := h.documents.Delete(c.Request.Context(), claims.UserID, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Versions godoc
// @Summary Document version history
// @Tags Documents
// @Produce json
// @Param id path string true "Document id"
// @Success 200 {object} response.Envelope
// @Router /student/documents/{id}/versions [get]
func (h *DocumentHandler) Versions(c *gin.Context) {
	versions, err := h.documents.Versions(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, versions, nil)
}

// ForReview godoc
// @Summary Pending documents for review
// @Description Pending uploads across the caller's taught sections
// @Tags Documents
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /faculty/documents/review [get]
func (h *DocumentHandler) ForReview(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	docs, err := h.documents.ForReview(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, docs, nil)
}

// Review godoc
// @Summary Review a document
// @Description Approve, reject or request revision; the student is notified
// @Tags Documents
// @Accept json
// @Produce json
// @Param id path string true "Document id"
// @Param payload body service.ReviewDocumentRequest true "Decision"
// @Success 204 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /faculty/documents/{id}/review [post]
func (h *DocumentHandler) Review(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req service.ReviewDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	if err := h.documents.Review(c.Request.Context(), claims.UserID, c.Param("id"), req); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

func (h *DocumentHandler) uploadRequestFromForm(c *gin.Context) (service.UploadDocumentRequest, interface{ Close() error }, error) {
	header, err := c.FormFile("file")
	if err != nil {
		return service.UploadDocumentRequest{}, nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "file is required")
	}

	file, err := header.Open()
	if err != nil {
		return service.UploadDocumentRequest{}, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read uploaded file")
	}

	req := service.UploadDocumentRequest{
		DocumentType: c.PostForm("document_type"),
		Title:        c.PostForm("title"),
		Filename:     header.Filename,
		Size:         header.Size,
		MimeType:     header.Header.Get("Content-Type"),
		Content:      file,
	}
	if req.DocumentType == "" {
		req.DocumentType = "general"
	}
	if value := c.PostForm("section_id"); value != "" {
		req.SectionID = &value
	}
	if value := c.PostForm("assignment_id"); value != "" {
		req.AssignmentID = &value
	}
	if value := c.PostForm("description"); value != "" {
		req.Description = &value
	}
	return req, file, nil
}
