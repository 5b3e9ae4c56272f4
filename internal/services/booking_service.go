package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/vaxwatch/vax-agent/internal/cowin"
	"github.com/vaxwatch/vax-agent/internal/models"
	"github.com/vaxwatch/vax-agent/internal/schedule"
	"github.com/vaxwatch/vax-agent/internal/selection"
	"github.com/vaxwatch/vax-agent/pkg/notification"
)

// DefaultPollInterval is the sleep between polling iterations.
const DefaultPollInterval = 10 * time.Second

// Authenticator performs the startup login; reactive refreshes go through the
// retry policy instead.
type Authenticator interface {
	Authenticate() (string, error)
}

// BookingAPI is the slice of the remote client the loop needs.
type BookingAPI interface {
	SessionsByPin(ctx context.Context, pincode, date string) (*models.SessionsResponse, error)
	Beneficiaries(ctx context.Context) (*models.BeneficiariesResponse, error)
	ScheduleAppointment(ctx context.Context, req models.BookingRequest) (*models.BookingConfirmation, error)
}

// BookingService polls for sessions matching the requirements and stops on
// the first committed candidate or a fatal error.
type BookingService struct {
	// Configuration fields
	pincode        string
	configuredDate string
	autoBook       bool
	pollInterval   time.Duration

	// Dependencies
	reqs          *models.Requirements
	authenticator Authenticator
	api           BookingAPI
	retry         *cowin.RetryPolicy
	notifier      notification.Notifier
	logger        zerolog.Logger

	// Internal state for managing service lifecycle
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	mu     sync.Mutex
	done   chan error
}

// NewBookingService initializes and returns a new BookingService instance.
func NewBookingService(pincode, configuredDate string, autoBook bool, pollInterval time.Duration,
	reqs *models.Requirements, authenticator Authenticator, api BookingAPI,
	retry *cowin.RetryPolicy, notifier notification.Notifier, logger zerolog.Logger) *BookingService {

	if pollInterval <= 0 {
		pollInterval = DefaultPollInterval
	}
	return &BookingService{
		pincode:        pincode,
		configuredDate: configuredDate,
		autoBook:       autoBook,
		pollInterval:   pollInterval,
		reqs:           reqs,
		authenticator:  authenticator,
		api:            api,
		retry:          retry,
		notifier:       notifier,
		logger:         logger,
		done:           make(chan error, 1),
	}
}

// Start launches the polling loop in a background goroutine.
func (bs *BookingService) Start() error {
	bs.mu.Lock()
	defer bs.mu.Unlock()

	if bs.ctx != nil {
		bs.logger.Warn().Msg("Booking service is already running")
		return errors.New("booking service is already running")
	}

	bs.ctx, bs.cancel = context.WithCancel(context.Background())

	bs.wg.Add(1)
	go func() {
		defer bs.wg.Done()
		bs.done <- bs.run(bs.ctx)
	}()

	bs.logger.Info().Str("pincode", bs.pincode).Msg("Booking service started")
	return nil
}

// Stop cancels the polling loop and waits for it to exit.
func (bs *BookingService) Stop() error {
	bs.mu.Lock()
	defer bs.mu.Unlock()

	if bs.ctx == nil {
		return errors.New("booking service is not running")
	}

	bs.cancel()
	bs.wg.Wait()

	bs.ctx = nil
	bs.cancel = nil

	bs.logger.Info().Msg("Booking service stopped")
	return nil
}

// Done delivers the terminal outcome of the loop: nil after a committed
// candidate, otherwise the fatal error.
func (bs *BookingService) Done() <-chan error {
	return bs.done
}

// run is the polling loop. It resolves the booking date once, fetches the
// beneficiary list once, then polls until a candidate is committed or an
// unrecoverable error surfaces.
func (bs *BookingService) run(ctx context.Context) error {
	if _, err := bs.authenticator.Authenticate(); err != nil {
		return fmt.Errorf("startup authentication failed: %w", err)
	}

	bookDate, err := schedule.BookingDate(bs.configuredDate, time.Now())
	if err != nil {
		return err
	}
	bs.logger.Info().Str("date", bookDate).Str("pincode", bs.pincode).Msg("Resolved booking target")

	beneficiaries, err := cowin.WithAuthRetry(ctx, bs.retry, "beneficiaries",
		func() (*models.BeneficiariesResponse, error) {
			return bs.api.Beneficiaries(ctx)
		})
	if err != nil {
		return fmt.Errorf("failed to fetch beneficiaries: %w", err)
	}
	bs.logger.Info().Int("count", len(beneficiaries.Beneficiaries)).Msg("Fetched beneficiaries")

	for {
		resp, err := cowin.WithAuthRetry(ctx, bs.retry, "sessions",
			func() (*models.SessionsResponse, error) {
				return bs.api.SessionsByPin(ctx, bs.pincode, bookDate)
			})
		if err != nil {
			return fmt.Errorf("failed to fetch sessions: %w", err)
		}

		switch {
		case len(resp.Sessions) == 0:
			bs.logger.Info().Msg("No sessions available")
		default:
			candidates := selection.Rank(bs.reqs, resp.Sessions)
			if len(candidates) > 0 {
				return bs.commit(ctx, &candidates[0], beneficiaries.Beneficiaries)
			}
			bs.logger.Trace().Interface("sessions", resp.Sessions).Msg("Raw session list")
			bs.logger.Info().Msg("Nothing eligible this poll")
		}

		select {
		case <-time.After(bs.pollInterval):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// commit reports the chosen session and, when auto-booking is enabled,
// submits the appointment. Either way it is the loop's terminal success.
func (bs *BookingService) commit(ctx context.Context, session *models.Session,
	beneficiaries []models.Beneficiary) error {

	bs.logger.Info().
		Str("center", session.Name).
		Str("session_id", session.SessionID).
		Str("vaccine", session.Vaccine).
		Int("capacity", session.AvailableCapacity).
		Msg("Found candidate!")

	if err := bs.notifier.Notify(fmt.Sprintf("Found slot at %s (%s)", session.Name, session.Vaccine)); err != nil {
		bs.logger.Warn().Err(err).Msg("Failed to notify about candidate")
	}

	if !bs.autoBook {
		bs.logger.Info().Msg("Auto-booking disabled, stopping after identification")
		return nil
	}

	if len(session.Slots) == 0 {
		return fmt.Errorf("candidate session %s has no slots to book", session.SessionID)
	}

	ids := make([]string, 0, len(beneficiaries))
	for _, b := range beneficiaries {
		ids = append(ids, b.ReferenceID)
	}

	req := models.BookingRequest{
		Dose:          bs.reqs.DoseSeq,
		SessionID:     session.SessionID,
		Slot:          session.Slots[0],
		Beneficiaries: ids,
	}

	confirmation, err := cowin.WithAuthRetry(ctx, bs.retry, "schedule",
		func() (*models.BookingConfirmation, error) {
			return bs.api.ScheduleAppointment(ctx, req)
		})
	if err != nil {
		return fmt.Errorf("failed to book session %s: %w", session.SessionID, err)
	}

	bs.logger.Info().
		Str("confirmation", confirmation.AppointmentConfirmationNo).
		Msg("Booking successful")

	if err := bs.notifier.Notify(fmt.Sprintf("Booked %s, confirmation %s",
		session.Name, confirmation.AppointmentConfirmationNo)); err != nil {
		bs.logger.Warn().Err(err).Msg("Failed to notify about booking")
	}

	return nil
}
