package boot

import (
	"log"
	"time"

	"tourops/src/common"
	"tourops/src/db"
	"tourops/src/lib"
	"tourops/src/models"
	"tourops/src/utils"

	"gorm.io/gorm"
)

func InitDb() *gorm.DB {
	db := db.GetDb()

	err := db.AutoMigrate(
		&models.User{},
		&models.Route{},
		&models.Trip{},
		&models.Booking{},
		&models.BookingDetail{},
		&models.Traveler{},
		&models.Invoice{},
		&models.CartItem{},
		&models.PaymentEvent{},
	)
	if err != nil {
		log.Fatalf("error migration: %s", err.Error())
	}

	return db
}

func InitBroker() {
	go common.BookingEventsConsumer()
	go common.EmailQueueConsumer()
}

// InitScheduler wires the periodic jobs: trip status rollover and the
// stale cart sweep.
func InitScheduler() {
	sched, err := lib.GetScheduler()
	if err != nil {
		log.Println("An error has occurred. Check logs for info")
		return
	}
	if _, err := lib.CreateCronJob(utils.AdvanceTripStatuses, 10*time.Minute); err != nil {
		log.Printf("Error scheduling trip status job: %s\n", err.Error())
	}
	if _, err := lib.CreateCronJob(utils.SweepStaleCartItems, 1*time.Hour); err != nil {
		log.Printf("Error scheduling cart sweep job: %s\n", err.Error())
	}
	jobsWaitingInQueue := len(sched.Jobs())
	log.Println("Jobs in queue:", jobsWaitingInQueue)
	sched.Start()
}
