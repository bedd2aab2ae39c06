package console

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/jwalitptl/clinic-console/internal/apiclient"
	"github.com/jwalitptl/clinic-console/internal/filter"
	"github.com/jwalitptl/clinic-console/internal/model"
	"github.com/jwalitptl/clinic-console/internal/registry"
	"github.com/jwalitptl/clinic-console/internal/store"
	apperrors "github.com/jwalitptl/clinic-console/pkg/errors"
	"github.com/jwalitptl/clinic-console/pkg/messaging"
	"github.com/jwalitptl/clinic-console/pkg/metrics"
)

// State tells the renderer which of the three list layouts to use.
type State string

const (
	StateNoData    State = "no_data"
	StateNoResults State = "no_results"
	StateResults   State = "results"
)

type Card struct {
	ID      int64  `json:"id"`
	Title   string `json:"title"`
	Details string `json:"details"`
}

// View is one rendering of a section list.
type View struct {
	Type    model.ResourceType `json:"type"`
	Query   string             `json:"query"`
	State   State              `json:"state"`
	Message string             `json:"message,omitempty"`
	Records []model.Record     `json:"records"`
	Cards   []Card             `json:"cards"`
}

type Dashboard struct {
	TotalDoctors      int `json:"total_doctors"`
	TotalPatients     int `json:"total_patients"`
	TotalAppointments int `json:"total_appointments"`
	AvailableDoctors  int `json:"available_doctors"`
}

type Config struct {
	ActivityChannel string
}

type Service struct {
	api       apiclient.API
	store     *store.Store
	registry  *registry.Registry
	engine    *filter.Engine
	publisher messaging.Publisher
	channel   string
	metrics   *metrics.Metrics
	logger    zerolog.Logger
}

func NewService(
	api apiclient.API,
	st *store.Store,
	reg *registry.Registry,
	publisher messaging.Publisher,
	cfg Config,
	m *metrics.Metrics,
	logger zerolog.Logger,
) *Service {
	if publisher == nil {
		publisher = messaging.Nop{}
	}
	if m == nil {
		m = metrics.NewNop()
	}
	return &Service{
		api:       api,
		store:     st,
		registry:  reg,
		engine:    filter.NewEngine(reg),
		publisher: publisher,
		channel:   cfg.ActivityChannel,
		metrics:   m,
		logger:    logger.With().Str("component", "console").Logger(),
	}
}

// Load fetches a collection, replaces its snapshot and returns the unfiltered view.
// The snapshot is left untouched when the fetch fails.
func (s *Service) Load(ctx context.Context, t model.ResourceType) (View, error) {
	kind, err := s.kind(t)
	if err != nil {
		return View{}, err
	}

	records, err := s.api.List(ctx, t)
	if err != nil {
		return View{}, err
	}
	s.store.Replace(t, records)
	s.logger.Debug().Str("resource", t.String()).Int("records", len(records)).Msg("collection loaded")

	return s.view(kind, "", records, records), nil
}

// Search filters the stored snapshot without contacting the API.
func (s *Service) Search(t model.ResourceType, query string) (View, error) {
	kind, err := s.kind(t)
	if err != nil {
		return View{}, err
	}

	stored := s.store.Get(t)
	matched := s.engine.Filter(t, query, stored)
	v := s.view(kind, query, stored, matched)
	s.metrics.Searches.WithLabelValues(t.String(), string(v.State)).Inc()
	return v, nil
}

// Loaded reports whether the collection has a snapshot to search.
func (s *Service) Loaded(t model.ResourceType) bool {
	return s.store.Loaded(t)
}

func (s *Service) Find(ctx context.Context, t model.ResourceType, id int64) (model.Record, error) {
	if _, err := s.kind(t); err != nil {
		return nil, err
	}
	return s.api.Get(ctx, t, id)
}

// Save creates the record when id is zero and updates it otherwise. The store is
// not touched; callers reload the collection afterwards.
func (s *Service) Save(ctx context.Context, t model.ResourceType, id int64, payload interface{}) (model.Record, error) {
	if _, err := s.kind(t); err != nil {
		return nil, err
	}

	if id == 0 {
		rec, err := s.api.Create(ctx, t, payload)
		if err != nil {
			return nil, err
		}
		s.publish(ctx, model.NewActivity(t, model.ActionCreate, rec.ID()))
		return rec, nil
	}

	rec, err := s.api.Update(ctx, t, id, payload)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, model.NewActivity(t, model.ActionUpdate, id))
	return rec, nil
}

func (s *Service) Remove(ctx context.Context, t model.ResourceType, id int64) error {
	if _, err := s.kind(t); err != nil {
		return err
	}
	if err := s.api.Delete(ctx, t, id); err != nil {
		return err
	}
	s.publish(ctx, model.NewActivity(t, model.ActionDelete, id))
	return nil
}

// Dashboard fetches all three collections and reduces them to counts.
func (s *Service) Dashboard(ctx context.Context) (Dashboard, error) {
	doctors, err := s.api.List(ctx, model.Doctors)
	if err != nil {
		return Dashboard{}, err
	}
	patients, err := s.api.List(ctx, model.Patients)
	if err != nil {
		return Dashboard{}, err
	}
	appointments, err := s.api.List(ctx, model.Appointments)
	if err != nil {
		return Dashboard{}, err
	}

	d := Dashboard{
		TotalDoctors:      len(doctors),
		TotalPatients:     len(patients),
		TotalAppointments: len(appointments),
	}
	for _, doc := range doctors {
		if doc.Bool("available") {
			d.AvailableDoctors++
		}
	}
	return d, nil
}

func (s *Service) kind(t model.ResourceType) (*registry.Kind, error) {
	k := s.registry.Kind(t)
	if k == nil {
		return nil, apperrors.NotFound(fmt.Sprintf("resource %q", t), nil)
	}
	return k, nil
}

func (s *Service) view(kind *registry.Kind, query string, stored, matched []model.Record) View {
	v := View{
		Type:    kind.Type,
		Query:   query,
		Records: matched,
		Cards:   make([]Card, 0, len(matched)),
	}

	switch {
	case len(stored) == 0:
		v.State = StateNoData
		v.Message = "No data available. Create a new entry to get started!"
	case len(matched) == 0:
		v.State = StateNoResults
		v.Message = fmt.Sprintf("No results found for \"%s\"", query)
	default:
		v.State = StateResults
	}

	for _, r := range matched {
		v.Cards = append(v.Cards, Card{
			ID:      r.ID(),
			Title:   kind.CardTitle(r),
			Details: kind.CardDetails(r),
		})
	}
	return v
}

func (s *Service) publish(ctx context.Context, a model.Activity) {
	if strings.TrimSpace(s.channel) == "" {
		return
	}
	if err := s.publisher.Publish(ctx, s.channel, a); err != nil {
		s.metrics.ActivitiesPublished.WithLabelValues("failed").Inc()
		s.logger.Error().Err(err).Str("resource", a.Resource.String()).Str("action", string(a.Action)).Msg("failed to publish activity")
		return
	}
	s.metrics.ActivitiesPublished.WithLabelValues("published").Inc()
}
