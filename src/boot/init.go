package boot

import (
	"log"
	"time"

	"gorm.io/gorm"

	"stagelink/src/db"
	"stagelink/src/lib"
	"stagelink/src/lib/mailer"
	"stagelink/src/models"
	"stagelink/src/types"
)

func InitDb() *gorm.DB {
	db := db.GetDb()

	err := db.AutoMigrate(
		&models.Profile{},
		&models.GroupMember{},
		&models.Show{},
		&models.Payment{},
		&models.Ticket{},
	)
	if err != nil {
		log.Fatalf("error migration: %s", err.Error())
	}

	return db
}

// InitScheduler registers the daily show-reminder job. Reminders go out the
// morning of the show to every confirmed ticket holder with an email.
func InitScheduler() {
	_, err := lib.CreateDailyJob(8, 0, SendShowReminders)
	if err != nil {
		log.Printf("Error scheduling reminder job: %s\n", err.Error())
		return
	}
	sched, err := lib.GetScheduler()
	if err != nil {
		log.Println("An error has occurred. Check logs for info")
		return
	}
	sched.Start()
	log.Println("Jobs in queue:", len(sched.Jobs()))
}

func StopScheduler() {
	sched, err := lib.GetScheduler()
	if err != nil {
		return
	}
	if err := sched.Shutdown(); err != nil {
		log.Printf("Error shutting down scheduler: %s\n", err.Error())
	}
}

func SendShowReminders() {
	gdb := db.GetDb()
	dayStart := time.Now().Truncate(24 * time.Hour)
	dayEnd := dayStart.Add(24 * time.Hour)

	var shows []models.Show
	err := gdb.
		Where("status = ? AND date_time >= ? AND date_time < ?", types.SHOW_APPROVED, dayStart, dayEnd).
		Find(&shows).Error
	if err != nil {
		log.Printf("Error loading shows for reminders: %s\n", err.Error())
		return
	}
	for _, show := range shows {
		var tickets []models.Ticket
		err := gdb.
			Preload("Holder").
			Where("show_id = ? AND status = ?", show.ID, types.TICKET_CONFIRMED).
			Find(&tickets).Error
		if err != nil {
			log.Printf("Error loading tickets for show [%s]: %s\n", show.ID, err.Error())
			continue
		}
		for _, ticket := range tickets {
			email := ticket.ContactEmail()
			if email == "" {
				continue
			}
			mailer.SendShowReminder(email, ticket.Attendee(), show.Title, show.Venue, *show.DateTime)
		}
		log.Printf("Sent %d reminders for show [%s]\n", len(tickets), show.ID)
	}
}
