package main

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/vaxwatch/vax-agent/internal/auth"
	"github.com/vaxwatch/vax-agent/internal/cowin"
	"github.com/vaxwatch/vax-agent/internal/models"
	"github.com/vaxwatch/vax-agent/internal/otpserver"
	"github.com/vaxwatch/vax-agent/internal/schedule"
	"github.com/vaxwatch/vax-agent/internal/service_registry"
	"github.com/vaxwatch/vax-agent/internal/services"
	"github.com/vaxwatch/vax-agent/internal/utils"
	"github.com/vaxwatch/vax-agent/pkg/encryption"
	"github.com/vaxwatch/vax-agent/pkg/file"
	"github.com/vaxwatch/vax-agent/pkg/mqtt"
	"github.com/vaxwatch/vax-agent/pkg/notification"
	"github.com/vaxwatch/vax-agent/pkg/otp"
	"github.com/vaxwatch/vax-agent/pkg/token"
)

func main() {
	// Optional .env for the secrets read by LoadConfig
	_ = godotenv.Load()

	log := zerolog.New(os.Stdout).With().Timestamp().Logger().Level(zerolog.DebugLevel)

	fileClient := file.NewFileService()

	config, err := utils.LoadConfig("configs/config.yaml", fileClient)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	if config.Debug {
		log = log.Level(zerolog.TraceLevel)
	}

	reqs, err := models.NewRequirements(
		config.Requirements.VaccineType,
		config.Requirements.MinAge,
		config.Requirements.DoseSeq,
		config.Requirements.FeeType,
		config.Requirements.PreferredCenters,
	)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid requirements configuration")
	}

	encryptionManager, err := encryption.NewEncryptionManager(fileClient, config.Security.AESKeyFile)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize encryption manager")
	}

	tokenStore := token.NewStore(config.Security.TokenFile, config.Security.TokenMaxAge,
		fileClient, encryptionManager)

	otpChannel := otp.NewChannel()

	apiClient := cowin.NewClient(config.API.BaseURL, config.API.Timeout, tokenStore,
		log.With().Str("component", "cowin").Logger())

	authManager := auth.NewManager(config.Auth.Mobile, config.Auth.Secret,
		apiClient, otpChannel, tokenStore,
		config.Auth.OtpTimeout, config.Auth.MaxAttempts,
		log.With().Str("component", "auth").Logger())

	retryPolicy := cowin.NewRetryPolicy(config.Retry.MaxAttempts, config.Retry.BackoffBase,
		authManager, log.With().Str("component", "retry").Logger())

	notifier := notification.NewTelegramNotifier(
		config.Notifications.Telegram.APIToken,
		config.Notifications.Telegram.ChatID,
		log.With().Str("component", "telegram").Logger())

	// Known-dead window: hold off everything, including the OTP receivers,
	// until slots could plausibly open again.
	if !config.Debug && schedule.InQuietHours(time.Now()) {
		wake := schedule.NextWakeTime(time.Now())
		log.Info().Time("until", wake).Msg("Inside quiet hours, sleeping")
		time.Sleep(time.Until(wake))
	}

	serviceRegistry := service_registry.NewServiceRegistry(log.With().Str("component", "registry").Logger())

	serviceRegistry.RegisterService("otp_webhook", otpserver.NewServer(
		config.OtpServer.Port, config.OtpServer.AuthKey, otpChannel,
		log.With().Str("component", "otp_webhook").Logger()))

	if config.OtpMqtt.Enabled {
		mqttClient := mqtt.NewMqttService(fileClient)
		clientID := config.OtpMqtt.ClientID + "-" + uuid.New().String()
		if err := mqttClient.Initialize(config.OtpMqtt.Broker, clientID, config.OtpMqtt.CACertificate); err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize MQTT connection")
		}
		defer mqttClient.Disconnect(250)

		serviceRegistry.RegisterService("otp_mqtt", services.NewMqttOtpService(
			config.OtpMqtt.Topic, config.OtpMqtt.QOS, mqttClient, otpChannel,
			log.With().Str("component", "otp_mqtt").Logger()))
	}

	bookingService := services.NewBookingService(
		config.Booking.Pincode, config.Booking.Date, config.Booking.AutoBook,
		config.Booking.PollInterval, reqs, authManager, apiClient, retryPolicy,
		notifier, log.With().Str("component", "booking").Logger())

	// The OTP receivers must come up before the booking service: its startup
	// login blocks on an OTP they deliver.
	serviceRegistry.RegisterService("booking", bookingService)

	if err := serviceRegistry.StartServices(); err != nil {
		log.Fatal().Err(err).Msg("Failed to start services")
	}

	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-bookingService.Done():
		if err != nil {
			_ = notifier.Notify("Booking agent died: " + err.Error())
			log.Error().Err(err).Msg("Booking loop failed")
			_ = serviceRegistry.StopServices()
			os.Exit(1)
		}
		log.Info().Msg("Booking loop finished")
	case sig := <-stopCh:
		log.Info().Str("signal", sig.String()).Msg("Shutting down gracefully...")
	}

	if err := serviceRegistry.StopServices(); err != nil {
		log.Warn().Err(err).Msg("Error during shutdown")
	}
}
