package main

import (
	"errors"

	"github.com/gin-contrib/cors"
	"github.com/wb-go/wbf/config"
	"github.com/wb-go/wbf/ginext"
	"github.com/wb-go/wbf/zlog"

	"confreg/cmd/middleware"
	"confreg/internal/dto"
	"confreg/internal/stability"
)

// Standalone single-page app: loads the fitted model, scaler and label
// encoder at startup and serves one prediction form.
func main() {
	zlog.Init()
	log := zlog.Logger

	cfg := config.New()
	if err := cfg.Load("config.yaml", "", "'"); err != nil {
		log.Fatal().Msgf("failed to load configuration: %v", err)
	}

	port := cfg.GetString("stability.port")
	if port == "" {
		port = "8081"
	}
	modelPath := cfg.GetString("stability.model_path")
	scalerPath := cfg.GetString("stability.scaler_path")
	encoderPath := cfg.GetString("stability.encoder_path")

	predictor, err := stability.Load(modelPath, scalerPath, encoderPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load model artifacts")
	}
	log.Info().Msg("Model artifacts loaded")

	app := ginext.New("release")
	app.Use(middleware.LoggingMiddleware())
	app.Use(cors.Default())

	app.GET("/", func(c *ginext.Context) {
		c.File("./frontend/stability.html")
	})

	app.POST("/predict", func(c *ginext.Context) {
		var req dto.PredictRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			dto.BadResponseError(c, dto.FieldIncorrect, "Invalid JSON format")
			return
		}

		status, err := predictor.Predict(req.HydraulicRadius, req.StabilityNumber)
		if err != nil {
			if errors.Is(err, stability.ErrMissingParameters) {
				dto.BadResponseError(c, dto.FieldIncorrect, "Please enter all required parameters.")
				return
			}
			log.Error().Err(err).Msg("prediction failed")
			dto.InternalServerError(c)
			return
		}

		dto.SuccessResponse(c, dto.PredictResponse{Status: status})
	})

	log.Info().Msgf("Starting stability form on %s", port)
	if err := app.Run(":" + port); err != nil {
		log.Fatal().Msgf("failed to start server: %v", err)
	}
}
