package main

import (
	"os"

	"github.com/shreyescodes/erp-portal/internal/pkg/logger"
	"github.com/shreyescodes/erp-portal/internal/server"
)

//go:generate swag init -g cmd/api/main.go -o docs

// @title Institute Portal API
// @version 1.0
// @description API for the institute portal: study content, opportunities, complaints and search

// @contact.name API Support
// @contact.email support@institute.edu

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:5000
// @BasePath /api/v1
// @schemes http https

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the access token

func main() {
	srv, err := server.NewServer()
	if err != nil {
		// Setup functions log the details
		logger.Error().Err(err).Msg("Failed to initialize server")
		os.Exit(1)
	}

	if err := srv.Run(); err != nil {
		logger.Error().Err(err).Msg("Server execution failed or shutdown encountered errors")
		os.Exit(1)
	}

	logger.Info().Msg("Application finished gracefully.")
}
