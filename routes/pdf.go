package routes

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"pdfqa/internal/app"
	"pdfqa/internal/logger"
	"pdfqa/internal/vectorstore"
	"pdfqa/middleware"
	"pdfqa/models"
	"pdfqa/utils"
)

func SetupPDFRoutes(router *gin.Engine, a *app.App) {
	upload := router.Group("/")
	upload.Use(middleware.RequestSizeLimit(a.Config.MaxFileSize))

	upload.POST("/upload_pdf", func(c *gin.Context) {
		fileHeader, err := c.FormFile("file")
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				utils.RespondWithError(c, http.StatusRequestEntityTooLarge, utils.KindValidation,
					"Request body exceeds maximum size")
				return
			}
			utils.RespondWithBadRequest(c, "file is required")
			return
		}

		var req models.UploadRequest
		if err := c.ShouldBind(&req); err != nil || req.UUID == "" {
			utils.RespondWithBadRequest(c, "uuid is required")
			return
		}
		if vectorstore.ValidateOwner(req.UUID) != nil {
			utils.RespondWithBadRequest(c, "invalid uuid")
			return
		}

		filename := fileHeader.Filename
		if !strings.HasSuffix(filename, ".pdf") {
			utils.RespondWithBadRequest(c, "Only PDF files are allowed")
			return
		}

		log := logger.With(
			"request_id", middleware.GetRequestID(c),
			"uuid", req.UUID,
			"filename", filename,
		)

		file, err := fileHeader.Open()
		if err != nil {
			log.Error("failed to open upload", "error", err)
			utils.RespondWithAppError(c, "Error processing PDF", err)
			return
		}
		defer file.Close()

		resp, err := a.Upload(c.Request.Context(), file, filename, req.UUID)
		if err != nil {
			log.Error("pdf upload failed", "error", err, "kind", utils.KindOf(err))
			utils.RespondWithAppError(c, "Error processing PDF", err)
			return
		}

		log.Info("pdf indexed", "pages", resp.PageCount, "chunks", resp.ChunkCount)
		c.JSON(http.StatusOK, resp)
	})
}
