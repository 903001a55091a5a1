package app

import (
	"gorm.io/gorm"

	"github.com/parcelworks/parcelworks-backend/internal/platform/logger"
	"github.com/parcelworks/parcelworks-backend/internal/repos"
)

type Repos struct {
	Shipment        repos.ShipmentRepo
	RateRequest     repos.RateRequestRepo
	CarrierActivity repos.CarrierActivityRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		Shipment:        repos.NewShipmentRepo(db, log),
		RateRequest:     repos.NewRateRequestRepo(db, log),
		CarrierActivity: repos.NewCarrierActivityRepo(db, log),
	}
}
