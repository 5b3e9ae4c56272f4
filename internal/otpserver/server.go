// Package otpserver receives the OTP out-of-band: an SMS-forwarder app on the
// user's phone POSTs the raw message here and the 6-digit code is handed to
// the waiting authentication flow.
package otpserver

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/vaxwatch/vax-agent/internal/models"
	"github.com/vaxwatch/vax-agent/pkg/otp"
)

// OtpSink is the push side of the OTP handoff.
type OtpSink interface {
	Submit(otp string)
}

// Server exposes the POST /cowinOtp endpoint.
type Server struct {
	port    int
	authKey string
	sink    OtpSink
	logger  zerolog.Logger

	echo *echo.Echo
}

// NewServer creates the webhook server. authKey is the shared secret the
// forwarder must present.
func NewServer(port int, authKey string, sink OtpSink, logger zerolog.Logger) *Server {
	s := &Server{
		port:    port,
		authKey: authKey,
		sink:    sink,
		logger:  logger,
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.CORS())
	e.POST("/cowinOtp", s.handleOtpMessage)
	s.echo = e

	return s
}

// Start runs the server in a background goroutine.
func (s *Server) Start() error {
	if s.echo == nil {
		return errors.New("otp server is not initialized")
	}

	go func() {
		addr := fmt.Sprintf(":%d", s.port)
		if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error().Err(err).Msg("OTP webhook server stopped unexpectedly")
		}
	}()

	s.logger.Info().Int("port", s.port).Msg("OTP webhook server started")
	return nil
}

// Stop shuts the server down gracefully.
func (s *Server) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.echo.Shutdown(ctx)
}

// handleOtpMessage validates the shared key, extracts the 6-digit code from
// the message body and enqueues it.
func (s *Server) handleOtpMessage(c echo.Context) error {
	var msg models.OtpMessage
	if err := c.Bind(&msg); err != nil {
		return c.String(http.StatusBadRequest, "This endpoint only supports JSON requests")
	}

	if msg.AuthKey != s.authKey {
		s.logger.Warn().Msg("OTP message rejected: bad auth key")
		return c.NoContent(http.StatusForbidden)
	}

	code, ok := otp.Extract(msg.MsgBody)
	if !ok {
		s.logger.Warn().Msg("OTP message carried no 6-digit code")
		return c.NoContent(http.StatusBadRequest)
	}

	s.logger.Info().Str("otp", code).Msg("Got OTP from webhook")
	s.sink.Submit(code)
	return c.NoContent(http.StatusOK)
}
