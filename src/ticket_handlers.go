package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"path"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/yeqown/go-qrcode"
	"gorm.io/gorm"

	"stagelink/src/db"
	"stagelink/src/lib"
	awslib "stagelink/src/lib/aws"
	"stagelink/src/models"
	"stagelink/src/types"
)

func ticketHandlers(g *gin.RouterGroup) *gin.RouterGroup {
	g.
		GET("/tickets", func(ctx *gin.Context) {
			profileID := ctx.GetString("profile_id")
			var tickets []models.Ticket
			db := db.GetDb()
			if err := db.
				Preload("Show").
				Where("user_id = ?", profileID).
				Order("created_at desc").
				Find(&tickets).Error; err != nil {
				log.Printf("Error retrieving Tickets: %s\n", err.Error())
				ctx.Status(http.StatusBadRequest)
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": tickets})
		}).
		GET("/tickets/:id", func(ctx *gin.Context) {
			ticket, err := loadOwnedTicket(ctx)
			if err != nil {
				respondTicketError(ctx, err)
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": ticket})
		}).
		GET("/tickets/:id/code", func(ctx *gin.Context) {
			ticket, err := loadOwnedTicket(ctx)
			if err != nil {
				respondTicketError(ctx, err)
				return
			}
			if ticket.Status != types.TICKET_CONFIRMED {
				ctx.JSON(http.StatusConflict, gin.H{"error": "ticket is not confirmed"})
				return
			}
			filename := fmt.Sprintf("eticket_%s", ticket.ID)
			rd := lib.GetRedisClient()
			if rd != nil {
				cached, err := rd.Get(context.Background(), filename).Result()
				if err == nil {
					ctx.JSON(http.StatusOK, gin.H{"url": cached})
					return
				}
				if !errors.Is(redis.Nil, err) {
					log.Printf("Error reading from cache: %s\n", err.Error())
				}
			}

			rawData := map[string]any{
				"ticket_id":   ticket.ID,
				"access_code": ticket.AccessCode,
			}
			rawBytes, _ := json.Marshal(rawData)
			qrc, err := qrcode.New(string(rawBytes))
			if err != nil {
				log.Printf("Error generating code for ticket [%s]: %s\n", ticket.ID, err.Error())
				ctx.Status(http.StatusInternalServerError)
				return
			}
			filepath := path.Join(os.TempDir(), fmt.Sprintf("%s.jpeg", filename))
			if err = qrc.Save(filepath); err != nil {
				log.Printf("Could not save qrcode to file [%s]: %s\n", filepath, err.Error())
				ctx.Status(http.StatusInternalServerError)
				return
			}
			url, err := awslib.S3UploadAsset(filename, filepath)
			if err != nil {
				log.Printf("Error uploading asset to S3 bucket: %s\n", err.Error())
				// The image still exists locally; serve it directly rather
				// than failing the download.
				ctx.FileAttachment(filepath, "eticket.jpeg")
				return
			}
			if rd != nil {
				rd.SetEx(context.Background(), filename, *url, 2*time.Hour)
			}
			ctx.JSON(http.StatusOK, gin.H{"url": url})
		}).
		POST("/tickets/claim", func(ctx *gin.Context) {
			var body struct {
				AccessCode string `json:"access_code" binding:"required"`
			}
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			profileID := ctx.GetString("profile_id")
			email := ctx.GetString("email")
			code := strings.ToUpper(strings.TrimSpace(body.AccessCode))
			gdb := db.GetDb()
			var ticket models.Ticket
			if err := gdb.First(&ticket, "access_code = ?", code).Error; err != nil {
				if errors.Is(gorm.ErrRecordNotFound, err) {
					ctx.Status(http.StatusNotFound)
					return
				}
				ctx.Status(http.StatusBadRequest)
				return
			}
			if ticket.UserID != nil {
				ctx.JSON(http.StatusConflict, gin.H{"error": "ticket is already claimed"})
				return
			}
			// A guest ticket can only be claimed by the address it was sold to.
			if ticket.CustomerEmail == nil || !strings.EqualFold(*ticket.CustomerEmail, email) {
				ctx.Status(http.StatusForbidden)
				return
			}
			if err := gdb.Model(&ticket).Update("user_id", profileID).Error; err != nil {
				log.Printf("Error claiming ticket [%s]: %s\n", ticket.ID, err.Error())
				ctx.Status(http.StatusBadRequest)
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"id": ticket.ID})
		})
	return g
}

// loadOwnedTicket binds the :id param and enforces that the requester owns
// the ticket. Admins can fetch any ticket.
func loadOwnedTicket(ctx *gin.Context) (*models.Ticket, error) {
	var params types.SimpleRequestParams
	if err := ctx.ShouldBindUri(&params); err != nil {
		return nil, err
	}
	var ticket models.Ticket
	db := db.GetDb()
	if err := db.
		Preload("Show").
		Preload("Holder").
		First(&ticket, "id = ?", params.ID).Error; err != nil {
		if errors.Is(gorm.ErrRecordNotFound, err) {
			return nil, types.ErrNotFound
		}
		log.Printf("Error retrieving Ticket [%s]: %s\n", params.ID, err.Error())
		return nil, err
	}
	role := types.ProfileRole(ctx.GetString("role"))
	profileID := ctx.GetString("profile_id")
	if role != types.ROLE_ADMIN && (ticket.UserID == nil || ticket.UserID.String() != profileID) {
		return nil, types.ErrForbidden
	}
	return &ticket, nil
}

func respondTicketError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, types.ErrNotFound):
		ctx.Status(http.StatusNotFound)
	case errors.Is(err, types.ErrForbidden):
		ctx.Status(http.StatusForbidden)
	default:
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	}
}
