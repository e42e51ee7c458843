package main

import (
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"stagelink/src/db"
	"stagelink/src/models"
	"stagelink/src/types"
)

// canScanForShow decides whether the requesting profile may check tickets in
// for the given show. Admins always can, the producer of the show can, and
// so can group members the producer flagged as scanners.
func canScanForShow(gdb *gorm.DB, profileID uuid.UUID, role types.ProfileRole, show *models.Show) bool {
	if role == types.ROLE_ADMIN {
		return true
	}
	if show.ProducerID == profileID {
		return true
	}
	var member models.GroupMember
	err := gdb.
		Where("profile_id = ? AND group_id = ? AND status = ? AND can_scan_tickets = ?",
			profileID, show.ProducerID, "active", true).
		First(&member).Error
	return err == nil
}

func scanHandlers(g *gin.RouterGroup) *gin.RouterGroup {
	g.
		POST("/tickets/scan", func(ctx *gin.Context) {
			var body types.ScanTicketRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			if body.TicketID == nil && body.AccessCode == nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": "ticket_id or access_code is required"})
				return
			}
			profileID, err := uuid.Parse(ctx.GetString("profile_id"))
			if err != nil {
				ctx.Status(http.StatusUnauthorized)
				return
			}
			role := types.ProfileRole(ctx.GetString("role"))

			gdb := db.GetDb()
			var ticket models.Ticket
			tx := gdb.Preload("Show").Preload("Holder")
			if body.TicketID != nil {
				err = tx.First(&ticket, "id = ?", *body.TicketID).Error
			} else {
				code := strings.ToUpper(strings.TrimSpace(*body.AccessCode))
				err = tx.First(&ticket, "access_code = ?", code).Error
			}
			if err != nil {
				if errors.Is(gorm.ErrRecordNotFound, err) {
					ctx.JSON(http.StatusNotFound, types.ScanTicketResponse{
						Success: false,
						Message: "Ticket not found",
					})
					return
				}
				log.Printf("Error retrieving ticket for scan: %s\n", err.Error())
				ctx.Status(http.StatusBadRequest)
				return
			}
			if !canScanForShow(gdb, profileID, role, &ticket.Show) {
				ctx.Status(http.StatusForbidden)
				return
			}
			if body.ShowID != nil && ticket.ShowID.String() != *body.ShowID {
				ctx.JSON(http.StatusOK, scanFailure("Ticket belongs to a different show", &ticket))
				return
			}

			switch ticket.Status {
			case types.TICKET_USED:
				ctx.JSON(http.StatusOK, scanFailure("Ticket already checked in", &ticket))
				return
			case types.TICKET_PENDING:
				ctx.JSON(http.StatusOK, scanFailure("Payment is still pending", &ticket))
				return
			case types.TICKET_CANCELLED:
				ctx.JSON(http.StatusOK, scanFailure("Ticket was cancelled", &ticket))
				return
			}

			// Guard the status in the WHERE clause so two scanners racing on
			// the same ticket produce exactly one check-in.
			now := time.Now()
			res := gdb.Model(&models.Ticket{}).
				Where("id = ? AND status = ?", ticket.ID, types.TICKET_CONFIRMED).
				Updates(map[string]any{
					"status":        types.TICKET_USED,
					"checked_in_at": now,
					"checked_in_by": profileID,
				})
			if res.Error != nil {
				log.Printf("Error checking in ticket [%s]: %s\n", ticket.ID, res.Error.Error())
				ctx.Status(http.StatusBadRequest)
				return
			}
			if res.RowsAffected == 0 {
				// Lost the race; report it the same way as a rescanned ticket.
				if err := gdb.Preload("Holder").First(&ticket, "id = ?", ticket.ID).Error; err == nil {
					ctx.JSON(http.StatusOK, scanFailure("Ticket already checked in", &ticket))
					return
				}
				ctx.Status(http.StatusConflict)
				return
			}
			ticket.Status = types.TICKET_USED
			ticket.CheckedInAt = &now
			ticket.CheckedInBy = &profileID
			ctx.JSON(http.StatusOK, types.ScanTicketResponse{
				Success: true,
				Message: "Checked in",
				Ticket:  scannedTicket(&ticket),
			})
		})
	return g
}

func scanFailure(message string, ticket *models.Ticket) types.ScanTicketResponse {
	return types.ScanTicketResponse{
		Success: false,
		Message: message,
		Ticket:  scannedTicket(ticket),
	}
}

func scannedTicket(t *models.Ticket) *types.ScannedTicket {
	return &types.ScannedTicket{
		ID:          t.ID.String(),
		Status:      t.Status,
		CheckedInAt: t.CheckedInAt,
		Attendee:    t.Attendee(),
		Type:        "reservation",
	}
}
