package handler

import (
	"net/http"

	"anoa.com/reportdesk/internal/dto"
	"anoa.com/reportdesk/internal/middleware"
	"anoa.com/reportdesk/internal/service"
	"anoa.com/reportdesk/pkg/response"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// maxReportFiles caps how many files a single report request may carry.
const maxReportFiles = 10

type ReportHandler struct {
	reportService service.ReportService
}

func NewReportHandler(reportService service.ReportService) *ReportHandler {
	return &ReportHandler{
		reportService: reportService,
	}
}

func (h *ReportHandler) CreateReport(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	var input dto.CreateReportInput
	if err := c.ShouldBind(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": formatValidationError(err)})
		return
	}

	uploads, closers, err := h.collectFiles(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	defer closeAll(closers)

	res, err := h.reportService.Create(c.Request.Context(), user, input, uploads)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusCreated, res)
}

func (h *ReportHandler) ListReports(c *gin.Context) {
	res, err := h.reportService.List(c.Request.Context())
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, res)
}

func (h *ReportHandler) SearchReports(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "query parameter q is required"})
		return
	}

	res, err := h.reportService.Search(c.Request.Context(), query)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, res)
}

func (h *ReportHandler) UpdateReport(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid report id"})
		return
	}

	var input dto.UpdateReportInput
	if err := c.ShouldBind(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": formatValidationError(err)})
		return
	}

	uploads, closers, err := h.collectFiles(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	defer closeAll(closers)

	res, err := h.reportService.Update(c.Request.Context(), user, id, input, uploads)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, res)
}

func (h *ReportHandler) ConfirmApproval(c *gin.Context) {
	admin, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid report id"})
		return
	}

	res, err := h.reportService.Approve(c.Request.Context(), admin, id)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, res)
}

func (h *ReportHandler) collectFiles(c *gin.Context) ([]*service.UploadFile, []func() error, error) {
	form, err := c.MultipartForm()
	if err != nil {
		// No multipart body at all is fine; JSON-only requests land here.
		return nil, nil, nil
	}

	headers := form.File["files"]
	if len(headers) > maxReportFiles {
		headers = headers[:maxReportFiles]
	}

	var uploads []*service.UploadFile
	var closers []func() error
	for _, fh := range headers {
		upload, file, err := openUpload(fh)
		if err != nil {
			closeAll(closers)
			return nil, nil, err
		}
		uploads = append(uploads, upload)
		closers = append(closers, file.Close)
	}

	return uploads, closers, nil
}

func closeAll(closers []func() error) {
	for _, close := range closers {
		_ = close()
	}
}
