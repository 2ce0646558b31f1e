package services

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/yukikurage/ensemble/internal/metrics"
	"github.com/yukikurage/ensemble/internal/models"
	"github.com/yukikurage/ensemble/internal/notify"
	"github.com/yukikurage/ensemble/internal/repository"
	"github.com/yukikurage/ensemble/internal/series"
	"gorm.io/gorm"
)

// EventService schedules household events, expanding multi-date requests into
// series and applying edits and deletes to one occurrence or the whole series.
type EventService struct {
	eventRepo   repository.EventRepository
	memberRepo  repository.MemberRepository
	metrics     *metrics.Metrics
	log         *logrus.Logger
	loc         *time.Location
	strictDates bool
}

// NewEventService creates a new EventService. loc is the household calendar
// timezone; strictDates rejects unparseable dates on edit instead of keeping
// the stored one.
func NewEventService(
	eventRepo repository.EventRepository,
	memberRepo repository.MemberRepository,
	m *metrics.Metrics,
	log *logrus.Logger,
	loc *time.Location,
	strictDates bool,
) *EventService {
	if loc == nil {
		loc = time.UTC
	}
	return &EventService{
		eventRepo:   eventRepo,
		memberRepo:  memberRepo,
		metrics:     m,
		log:         log,
		loc:         loc,
		strictDates: strictDates,
	}
}

// CreateEventInput represents input for scheduling an event on one or more dates
type CreateEventInput struct {
	Title          string
	Description    *string
	Category       models.EventCategory
	Visibility     models.Visibility
	Dates          []string
	StartTime      string
	EndTime        string
	ParticipantIDs []string
}

// UpdateEventInput represents a partial edit. ParticipantIDs nil leaves the
// participants untouched; an empty slice removes them all.
type UpdateEventInput struct {
	Scope          series.Propagation
	Patch          series.Patch
	ParticipantIDs *[]string
}

// ListEventsInput represents filters for listing events
type ListEventsInput struct {
	From      *time.Time
	To        *time.Time
	MemberIDs []string
}

// CreateEvent stores one event per requested date. More than one date groups
// the events under a new series; everything is written in one transaction.
func (s *EventService) CreateEvent(actor Actor, input CreateEventInput) ([]models.Event, []notify.Event, error) {
	title, err := requireTitle(input.Title)
	if err != nil {
		return nil, nil, err
	}

	plan, err := series.Expand(input.Dates, input.StartTime, input.EndTime, s.loc)
	if err != nil {
		return nil, nil, err
	}

	participants, err := resolveMembers(s.memberRepo, actor.HouseholdID(), input.ParticipantIDs)
	if err != nil {
		return nil, nil, err
	}

	visibility := input.Visibility
	if visibility == "" {
		visibility = models.VisibilityHousehold
	}

	var anchor *models.EventSeries
	if plan.NeedsSeries {
		anchor = &models.EventSeries{}
	}

	events := make([]models.Event, len(plan.Occurrences))
	for i, occ := range plan.Occurrences {
		events[i] = models.Event{
			Title:       title,
			Description: input.Description,
			StartTime:   occ.Start,
			EndTime:     occ.End,
			Category:    input.Category,
			Visibility:  visibility,
			HouseholdID: actor.HouseholdID(),
		}
	}

	if err := s.eventRepo.CreateOccurrences(anchor, events, memberIDs(participants)); err != nil {
		return nil, nil, fmt.Errorf("failed to create event: %w", err)
	}

	if s.metrics != nil {
		s.metrics.EventsCreated.Add(float64(len(events)))
		if anchor != nil {
			s.metrics.SeriesCreated.Inc()
		}
	}

	fields := logrus.Fields{
		"household_id": actor.HouseholdID(),
		"occurrences":  len(events),
	}
	if anchor != nil {
		fields["series_id"] = anchor.ID
	}
	s.log.WithFields(fields).Info("event created")

	domainEvents := []notify.Event{{
		Kind:        models.NotificationEventInvite,
		HouseholdID: actor.HouseholdID(),
		Recipients:  notify.Recipients(participants, actor.UserID),
		ResourceID:  events[0].ID,
		ActorName:   actor.Name,
		Subject:     title,
	}}

	return events, domainEvents, nil
}

// GetEvent returns an event the actor is allowed to see.
func (s *EventService) GetEvent(actor Actor, eventID string) (*models.Event, error) {
	return s.findVisibleEvent(actor, eventID)
}

// ListEvents lists the events of the actor's household visible to them.
func (s *EventService) ListEvents(actor Actor, input ListEventsInput) ([]models.Event, error) {
	events, err := s.eventRepo.List(repository.EventFilter{
		HouseholdID:    actor.HouseholdID(),
		From:           input.From,
		To:             input.To,
		MemberIDs:      uniqueStrings(input.MemberIDs),
		ViewerMemberID: actor.Member.ID,
		ViewerIsAdmin:  actor.IsAdmin(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	return events, nil
}

// UpdateEvent applies an edit to one occurrence, or to every occurrence of its
// series when the scope asks for it. Series edits keep each occurrence's date.
// A single edit that moves the event notifies the participants it had before
// the edit.
func (s *EventService) UpdateEvent(actor Actor, eventID string, input UpdateEventInput) ([]models.Event, []notify.Event, error) {
	event, err := s.findVisibleEvent(actor, eventID)
	if err != nil {
		return nil, nil, err
	}

	previous := participantMembers(*event)

	var participantIDs *[]string
	if input.ParticipantIDs != nil {
		participants, err := resolveMembers(s.memberRepo, actor.HouseholdID(), *input.ParticipantIDs)
		if err != nil {
			return nil, nil, err
		}
		ids := memberIDs(participants)
		participantIDs = &ids
	}

	seriesEdit := input.Scope == series.PropagateSeries && event.SeriesID != nil

	var changes []series.Change
	if seriesEdit {
		siblings, err := s.eventRepo.ListBySeries(*event.SeriesID)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to load series: %w", err)
		}
		changes, err = series.ApplySeries(siblings, input.Patch, s.loc)
		if err != nil {
			return nil, nil, err
		}
	} else {
		change, err := series.ApplySingle(*event, input.Patch, s.loc, s.strictDates)
		if err != nil {
			return nil, nil, err
		}
		changes = []series.Change{change}
	}

	updated := make([]models.Event, len(changes))
	for i, c := range changes {
		updated[i] = c.After
	}
	if err := s.eventRepo.SaveChanges(updated, participantIDs); err != nil {
		return nil, nil, fmt.Errorf("failed to update event: %w", err)
	}

	var domainEvents []notify.Event
	if !seriesEdit && changes[0].Rescheduled() {
		before, after := changes[0].Before, changes[0].After
		domainEvents = append(domainEvents, notify.Event{
			Kind:        models.NotificationEventUpdated,
			HouseholdID: actor.HouseholdID(),
			Recipients:  notify.Recipients(previous, actor.UserID),
			ResourceID:  after.ID,
			ActorName:   actor.Name,
			Subject:     after.Title,
			OldTime:     &before.StartTime,
			NewTime:     &after.StartTime,
		})
	}

	return updated, domainEvents, nil
}

// DeleteEvent removes one occurrence, or its whole series and the series anchor
// when wholeSeries is set. Participants are told before the rows disappear.
func (s *EventService) DeleteEvent(actor Actor, eventID string, wholeSeries bool) ([]notify.Event, error) {
	event, err := s.findVisibleEvent(actor, eventID)
	if err != nil {
		return nil, err
	}

	affected := []models.Event{*event}
	if wholeSeries && event.SeriesID != nil {
		affected, err = s.eventRepo.ListBySeries(*event.SeriesID)
		if err != nil {
			return nil, fmt.Errorf("failed to load series: %w", err)
		}
	}

	var participants []models.Member
	for _, ev := range affected {
		participants = append(participants, participantMembers(ev)...)
	}
	domainEvents := []notify.Event{{
		Kind:        models.NotificationEventDeleted,
		HouseholdID: actor.HouseholdID(),
		Recipients:  notify.Recipients(participants, actor.UserID),
		ActorName:   actor.Name,
		Subject:     event.Title,
	}}

	if wholeSeries && event.SeriesID != nil {
		err = s.eventRepo.DeleteSeries(*event.SeriesID)
	} else {
		err = s.eventRepo.Delete(event.ID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to delete event: %w", err)
	}

	s.log.WithFields(logrus.Fields{
		"household_id": actor.HouseholdID(),
		"event_id":     event.ID,
		"occurrences":  len(affected),
	}).Info("event deleted")

	return domainEvents, nil
}

func (s *EventService) findVisibleEvent(actor Actor, eventID string) (*models.Event, error) {
	event, err := s.eventRepo.FindByID(eventID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEventNotFound
		}
		return nil, fmt.Errorf("failed to find event: %w", err)
	}
	if event.HouseholdID != actor.HouseholdID() {
		return nil, ErrEventNotFound
	}
	if event.Visibility == models.VisibilityParticipants && !actor.IsAdmin() && !slices.Contains(event.ParticipantMemberIDs(), actor.Member.ID) {
		return nil, ErrEventNotFound
	}
	return event, nil
}

// resolveMembers loads the household members behind ids, failing when any of
// them is unknown. The result follows the order of ids.
func resolveMembers(repo repository.MemberRepository, householdID string, ids []string) ([]models.Member, error) {
	ids = uniqueStrings(ids)
	if len(ids) == 0 {
		return []models.Member{}, nil
	}

	found, err := repo.ListByIDs(householdID, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load members: %w", err)
	}
	byID := membersByID(found)

	members := make([]models.Member, 0, len(ids))
	for _, id := range ids {
		m, ok := byID[id]
		if !ok {
			return nil, invalid("member_ids", ErrUnknownMembers)
		}
		members = append(members, m)
	}
	return members, nil
}

func memberIDs(members []models.Member) []string {
	ids := make([]string, len(members))
	for i, m := range members {
		ids[i] = m.ID
	}
	return ids
}

func participantMembers(ev models.Event) []models.Member {
	members := make([]models.Member, 0, len(ev.Participants))
	for _, p := range ev.Participants {
		members = append(members, p.Member)
	}
	return members
}
