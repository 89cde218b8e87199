package job

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"

	"github.com/sebastianleon1-sys/Zerby2/internal/lib/email"
	"github.com/sebastianleon1-sys/Zerby2/internal/lib/geo"
	"github.com/sebastianleon1-sys/Zerby2/internal/model"
)

// Mailer is the part of the email client the handlers use.
type Mailer interface {
	SendWelcomeEmail(ctx context.Context, to, nombre, tipo string) error
	SendRequestCreatedEmail(ctx context.Context, to string, d email.RequestCreated) error
	SendRequestUpdatedEmail(ctx context.Context, to string, d email.RequestUpdated) error
}

// AddressGeocoder resolves an address to coordinates.
type AddressGeocoder interface {
	Geocode(ctx context.Context, address string) (geo.Point, bool, error)
}

// CoordinateStore writes geocoding results back to an account. It must only
// update the row while its address still equals direccion, and reports
// whether a row was updated.
type CoordinateStore interface {
	UpdateCoordinatesIfAddress(ctx context.Context, tipo model.AccountType, id int64, direccion string, c model.Coordinates) (bool, error)
}

type handlerDeps struct {
	mailer   Mailer
	geocoder AddressGeocoder
	coords   CoordinateStore
}

// InitHandlers wires the dependencies the task handlers need. It must be
// called before Start.
func (j *JobService) InitHandlers(mailer Mailer, geocoder AddressGeocoder, coords CoordinateStore) {
	j.deps = &handlerDeps{mailer: mailer, geocoder: geocoder, coords: coords}
}

func decode(t *asynq.Task, v any) error {
	if err := json.Unmarshal(t.Payload(), v); err != nil {
		// A payload that cannot be decoded will never succeed.
		return fmt.Errorf("failed to unmarshal %s payload: %v: %w", t.Type(), err, asynq.SkipRetry)
	}
	return nil
}

func (j *JobService) finish(taskType, to string, err error) error {
	if err != nil {
		j.metrics.EmailJob(taskType, "error")
		j.logger.Error().Str("type", taskType).Str("to", to).Err(err).Msg("failed to send email")
		return err
	}
	j.metrics.EmailJob(taskType, "sent")
	j.logger.Info().Str("type", taskType).Str("to", to).Msg("email sent")
	return nil
}

func (j *JobService) handleWelcomeEmailTask(ctx context.Context, t *asynq.Task) error {
	var p WelcomeEmailPayload
	if err := decode(t, &p); err != nil {
		return err
	}
	return j.finish(TaskWelcome, p.To, j.deps.mailer.SendWelcomeEmail(ctx, p.To, p.Nombre, p.Tipo))
}

func (j *JobService) handleRequestCreatedTask(ctx context.Context, t *asynq.Task) error {
	var p RequestCreatedPayload
	if err := decode(t, &p); err != nil {
		return err
	}
	return j.finish(TaskRequestCreated, p.To, j.deps.mailer.SendRequestCreatedEmail(ctx, p.To, p.RequestCreated))
}

func (j *JobService) handleRequestUpdatedTask(ctx context.Context, t *asynq.Task) error {
	var p RequestUpdatedPayload
	if err := decode(t, &p); err != nil {
		return err
	}
	return j.finish(TaskRequestUpdated, p.To, j.deps.mailer.SendRequestUpdatedEmail(ctx, p.To, p.RequestUpdated))
}

// handleGeoRefreshTask retries geocoding. Upstream failures are returned so
// asynq retries with backoff; an address the service does not know is final.
func (j *JobService) handleGeoRefreshTask(ctx context.Context, t *asynq.Task) error {
	var p GeoRefreshPayload
	if err := decode(t, &p); err != nil {
		return err
	}

	logger := j.logger.With().
		Str("type", TaskGeoRefresh).
		Str("account_type", string(p.AccountType)).
		Int64("account_id", p.AccountID).
		Logger()

	point, found, err := j.deps.geocoder.Geocode(ctx, p.Direccion)
	if err != nil {
		logger.Warn().Err(err).Msg("geocoding still failing")
		return err
	}
	if !found {
		logger.Info().Msg("address could not be resolved, giving up")
		return nil
	}

	updated, err := j.deps.coords.UpdateCoordinatesIfAddress(ctx, p.AccountType, p.AccountID, p.Direccion, model.CoordinatesOf(point, true))
	if err != nil {
		return err
	}
	if !updated {
		logger.Info().Msg("address changed since enqueue, skipping")
		return nil
	}

	logger.Info().Float64("lat", point.Lat).Float64("lon", point.Lon).Msg("coordinates refreshed")
	return nil
}
