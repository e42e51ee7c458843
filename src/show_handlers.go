package main

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"stagelink/src/db"
	"stagelink/src/lib/mailer"
	"stagelink/src/models"
	"stagelink/src/types"
	"stagelink/src/utils"
)

func showHandlers(g *gin.RouterGroup) *gin.RouterGroup {
	g.
		GET("/shows", func(ctx *gin.Context) {
			var query struct {
				Featured bool `form:"featured"`
			}
			if err := ctx.ShouldBindQuery(&query); err != nil {
				ctx.Status(http.StatusBadRequest)
				return
			}
			db := db.GetDb()
			tx := db.
				Preload("Producer").
				Where("status = ?", types.SHOW_APPROVED)
			if query.Featured {
				tx = tx.Where("is_featured = ?", true)
			}
			var shows []models.Show
			if err := tx.Order("date_time asc").Find(&shows).Error; err != nil {
				log.Printf("Error retrieving Shows: %s\n", err.Error())
				ctx.Status(http.StatusBadRequest)
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": shows})
		}).
		GET("/shows/:id", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			var show models.Show
			db := db.GetDb()
			if err := db.
				Preload("Producer").
				First(&show, "id = ?", params.ID).Error; err != nil {
				log.Printf("Error retrieving Show [%s]: %s\n", params.ID, err.Error())
				if errors.Is(gorm.ErrRecordNotFound, err) {
					ctx.Status(http.StatusNotFound)
					return
				}
				ctx.Status(http.StatusBadRequest)
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": show})
		})
	return g
}

func showAuthHandlers(g *gin.RouterGroup) *gin.RouterGroup {
	g.
		POST("/shows", func(ctx *gin.Context) {
			var body types.CreateShowRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			role := types.ProfileRole(ctx.GetString("role"))
			if role != types.ROLE_PRODUCER && role != types.ROLE_ADMIN {
				ctx.Status(http.StatusForbidden)
				return
			}
			producerID, err := uuid.Parse(ctx.GetString("profile_id"))
			if err != nil {
				ctx.Status(http.StatusUnauthorized)
				return
			}
			show, err := utils.CreateNewShow(ctx.Copy(), &body, producerID)
			if err != nil {
				log.Printf("error creating show: %s", err.Error())
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusCreated, gin.H{"id": show.ID})
		})
	return g
}

func showAdminHandlers(g *gin.RouterGroup) *gin.RouterGroup {
	g.
		POST("/shows/review", func(ctx *gin.Context) {
			var body types.ReviewShowRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			var show models.Show
			db := db.GetDb()
			if err := db.
				Preload("Producer").
				First(&show, "id = ?", body.ShowID).Error; err != nil {
				if errors.Is(gorm.ErrRecordNotFound, err) {
					ctx.Status(http.StatusNotFound)
					return
				}
				ctx.Status(http.StatusBadRequest)
				return
			}
			target := types.SHOW_APPROVED
			if body.Action == "reject" {
				target = types.SHOW_REJECTED
			}
			if err := db.Model(&show).Update("status", target).Error; err != nil {
				log.Printf("Error reviewing Show [%s]: %s\n", show.ID, err.Error())
				ctx.Status(http.StatusBadRequest)
				return
			}
			if show.Producer != nil {
				go mailer.SendShowStatusUpdate(show.Producer.Email, show.Title, target == types.SHOW_APPROVED)
			}
			ctx.JSON(http.StatusOK, gin.H{"id": show.ID, "status": target})
		})
	return g
}
