package main

import (
	"time"

	"github.com/paperlens/pdf2jpg/config"
	"github.com/paperlens/pdf2jpg/controllers"
	"github.com/paperlens/pdf2jpg/models"
	"github.com/paperlens/pdf2jpg/routes"
	"github.com/paperlens/pdf2jpg/utils"
)

func main() {
	cfg := config.Load()

	// Initialize logger early
	if err := utils.InitLogger(cfg); err != nil {
		panic(err)
	}

	db := config.InitDatabase(&models.User{}, &models.Conversion{})

	tokens := utils.NewTokenService(cfg.JWTSecret, time.Duration(cfg.TokenTTLHours)*time.Hour)
	converter := &controllers.SimulatedConverter{
		Delay:      time.Duration(cfg.ConvertDelayMs) * time.Millisecond,
		OutputDir:  cfg.ConvertedDir,
		PublicBase: cfg.ConvertedPublicURL,
	}

	r := routes.SetupRouter(db, tokens, converter)

	// Sweep stored uploads that never got a conversion record (best-effort)
	utils.StartOrphanSweeper(10*time.Minute, time.Hour)

	utils.Sugar.Infof("Starting server on port %s (graceful)", cfg.AppPort)
	if err := utils.GraceServer(":"+cfg.AppPort, r); err != nil {
		utils.Sugar.Fatalf("server stopped with error: %v", err)
	}
}
