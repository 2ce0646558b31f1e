package repository

import (
	"github.com/yukikurage/ensemble/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormEventRepository is a GORM implementation of EventRepository
type GormEventRepository struct {
	db *gorm.DB
}

// NewEventRepository creates a new EventRepository
func NewEventRepository(db *gorm.DB) EventRepository {
	return &GormEventRepository{db: db}
}

func participantRows(eventID string, memberIDs []string) []models.EventParticipant {
	rows := make([]models.EventParticipant, len(memberIDs))
	for i, memberID := range memberIDs {
		rows[i] = models.EventParticipant{EventID: eventID, MemberID: memberID}
	}
	return rows
}

// CreateOccurrences stores the series anchor (if any), the events and their
// participants. Either everything is committed or nothing is.
func (r *GormEventRepository) CreateOccurrences(series *models.EventSeries, events []models.Event, participantIDs []string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if series != nil {
			if err := tx.Create(series).Error; err != nil {
				return err
			}
		}

		for i := range events {
			if series != nil {
				events[i].SeriesID = &series.ID
			}
			events[i].StartTime = events[i].StartTime.UTC()
			events[i].EndTime = events[i].EndTime.UTC()

			if err := tx.Omit(clause.Associations).Create(&events[i]).Error; err != nil {
				return err
			}

			if len(participantIDs) == 0 {
				continue
			}
			rows := participantRows(events[i].ID, participantIDs)
			if err := tx.Omit(clause.Associations).Create(&rows).Error; err != nil {
				return err
			}
			events[i].Participants = rows
		}

		return nil
	})
}

// FindByID finds an event with its participants
func (r *GormEventRepository) FindByID(id string) (*models.Event, error) {
	var event models.Event
	if err := r.db.Preload("Participants.Member.User").
		Where("id = ?", id).
		First(&event).Error; err != nil {
		return nil, err
	}
	return &event, nil
}

// ListBySeries lists every event of a series, ordered by start time
func (r *GormEventRepository) ListBySeries(seriesID string) ([]models.Event, error) {
	var events []models.Event
	if err := r.db.Preload("Participants.Member.User").
		Where("series_id = ?", seriesID).
		Order("start_time ASC").
		Find(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}

// SaveChanges writes every edited event and optionally replaces participants
func (r *GormEventRepository) SaveChanges(events []models.Event, participantIDs *[]string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		for i := range events {
			ev := &events[i]
			ev.StartTime = ev.StartTime.UTC()
			ev.EndTime = ev.EndTime.UTC()

			if err := tx.Model(&models.Event{}).
				Where("id = ?", ev.ID).
				Updates(map[string]interface{}{
					"title":       ev.Title,
					"description": ev.Description,
					"category":    ev.Category,
					"visibility":  ev.Visibility,
					"start_time":  ev.StartTime,
					"end_time":    ev.EndTime,
				}).Error; err != nil {
				return err
			}

			if participantIDs == nil {
				continue
			}
			if err := tx.Where("event_id = ?", ev.ID).Delete(&models.EventParticipant{}).Error; err != nil {
				return err
			}
			rows := participantRows(ev.ID, *participantIDs)
			if len(rows) > 0 {
				if err := tx.Omit(clause.Associations).Create(&rows).Error; err != nil {
					return err
				}
			}
			ev.Participants = rows
		}

		return nil
	})
}

// Delete removes a single event and its participants
func (r *GormEventRepository) Delete(id string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("event_id = ?", id).Delete(&models.EventParticipant{}).Error; err != nil {
			return err
		}

		return tx.Where("id = ?", id).Delete(&models.Event{}).Error
	})
}

// DeleteSeries removes every event of a series, their participants and the anchor
func (r *GormEventRepository) DeleteSeries(seriesID string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		eventIDs := tx.Model(&models.Event{}).Select("id").Where("series_id = ?", seriesID)
		if err := tx.Where("event_id IN (?)", eventIDs).Delete(&models.EventParticipant{}).Error; err != nil {
			return err
		}

		if err := tx.Where("series_id = ?", seriesID).Delete(&models.Event{}).Error; err != nil {
			return err
		}

		return tx.Where("id = ?", seriesID).Delete(&models.EventSeries{}).Error
	})
}

// List retrieves events of a household ordered by start time
func (r *GormEventRepository) List(filter EventFilter) ([]models.Event, error) {
	query := r.db.Model(&models.Event{}).Where("events.household_id = ?", filter.HouseholdID)

	if filter.From != nil {
		query = query.Where("events.end_time >= ?", filter.From.UTC())
	}
	if filter.To != nil {
		query = query.Where("events.start_time < ?", filter.To.UTC())
	}
	if len(filter.MemberIDs) > 0 {
		participantSubQuery := r.db.Model(&models.EventParticipant{}).
			Select("1").
			Where("event_participants.event_id = events.id").
			Where("event_participants.member_id IN ?", filter.MemberIDs)
		query = query.Where("EXISTS (?)", participantSubQuery)
	}
	if !filter.ViewerIsAdmin {
		viewerSubQuery := r.db.Model(&models.EventParticipant{}).
			Select("1").
			Where("event_participants.event_id = events.id").
			Where("event_participants.member_id = ?", filter.ViewerMemberID)
		query = query.Where(
			r.db.Where("events.visibility = ?", models.VisibilityHousehold).
				Or("EXISTS (?)", viewerSubQuery),
		)
	}

	var events []models.Event
	if err := query.Preload("Participants.Member").
		Order("events.start_time ASC").
		Find(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}
