package routes

import (
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

func SetupChatRoutes(router *gin.Engine, a *app.App) {
	router.POST("/ask_question", func(c *gin.Context) {
		var req models.AskRequest
		if err := c.ShouldBind(&req); err != nil {
			utils.RespondWithBadRequest(c, "invalid form data")
			return
		}
		if strings.TrimSpace(req.Question) == "" {
			utils.RespondWithBadRequest(c, "question is required")
			return
		}
		if req.UUID == "" {
			utils.RespondWithBadRequest(c, "uuid is required")
			return
		}
		if vectorstore.ValidateOwner(req.UUID) != nil {
			utils.RespondWithBadRequest(c, "invalid uuid")
			return
		}

		log := logger.With("request_id", middleware.GetRequestID(c), "uuid", req.UUID)

		resp, err := a.Ask(c.Request.Context(), req.Question, req.UUID)
		if err != nil {
			log.Error("question failed", "error", err, "kind", utils.KindOf(err))
			utils.RespondWithAppError(c, "Error answering question", err)
			return
		}

		log.Info("question answered", "sources", len(resp.Metadata))
		c.JSON(http.StatusOK, resp)
	})
}
