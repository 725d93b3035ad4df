package handlers

import (
	"net/http"

	"selftape/services/storage"
	"selftape/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// StorageHandler accepts headshot uploads.
type StorageHandler struct {
	StorageSvc storage.StorageService
}

func NewStorageHandler(svc storage.StorageService) *StorageHandler {
	return &StorageHandler{StorageSvc: svc}
}

// UploadHeadshot handles POST /api/uploads with a multipart "file" field.
func (h *StorageHandler) UploadHeadshot(c *gin.Context) {
	if h.StorageSvc == nil {
		utils.RespondError(c, storage.ErrNotConfigured)
		return
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, storage.MaxHeadshotSize+(1<<20))

	fileHeader, err := c.FormFile("file")
	if err != nil {
		utils.RespondError(c, utils.NewFieldError("file", "is required"))
		return
	}
	upload := storage.Upload{
		Filename:    fileHeader.Filename,
		ContentType: fileHeader.Header.Get("Content-Type"),
		Size:        fileHeader.Size,
	}
	if err := storage.ValidateHeadshot(upload); err != nil {
		utils.RespondError(c, err)
		return
	}

	f, err := fileHeader.Open()
	if err != nil {
		utils.RespondError(c, utils.NewValidationError("could not read upload"))
		return
	}
	defer f.Close()
	upload.Body = f

	url, err := h.StorageSvc.UploadHeadshot(c.Request.Context(), upload)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	getLogger(c).Info("Upload stored", zap.String("filename", upload.Filename))
	c.JSON(http.StatusCreated, gin.H{"url": url})
}
