package notify

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/nats-io/nats.go"
	"github.com/sirupsen/logrus"
	"github.com/yukikurage/ensemble/internal/metrics"
	"github.com/yukikurage/ensemble/internal/models"
)

// SubjectPrefix is prepended to the household id to form the NATS subject.
const SubjectPrefix = "ensemble.notifications."

// Store persists rendered notifications.
type Store interface {
	Create(n *models.Notification) error
}

// Publisher fans a notification out to live listeners. *nats.Conn satisfies it.
type Publisher interface {
	Publish(subject string, data []byte) error
}

// Dispatcher consumes domain events and delivers them. Delivery failures are
// collected and logged; they never undo the operation that produced the events.
type Dispatcher struct {
	store     Store
	publisher Publisher
	metrics   *metrics.Metrics
	log       *logrus.Logger
	loc       *time.Location
}

// NewDispatcher builds a dispatcher. publisher and m may be nil.
func NewDispatcher(store Store, publisher Publisher, m *metrics.Metrics, log *logrus.Logger, loc *time.Location) *Dispatcher {
	if loc == nil {
		loc = time.UTC
	}
	return &Dispatcher{
		store:     store,
		publisher: publisher,
		metrics:   m,
		log:       log,
		loc:       loc,
	}
}

type message struct {
	ID          string                  `json:"id"`
	UserID      string                  `json:"user_id"`
	HouseholdID string                  `json:"household_id"`
	Type        models.NotificationKind `json:"type"`
	Title       string                  `json:"title"`
	Message     string                  `json:"message"`
	ResourceID  *string                 `json:"resource_id,omitempty"`
}

// Dispatch delivers every event to each of its recipients. The returned error
// aggregates all per-recipient failures and has already been logged.
func (d *Dispatcher) Dispatch(events []Event) error {
	var result *multierror.Error

	for _, ev := range events {
		title, body, err := Render(ev, d.loc)
		if err != nil {
			result = multierror.Append(result, err)
			continue
		}

		var resourceID *string
		if ev.ResourceID != "" {
			id := ev.ResourceID
			resourceID = &id
		}

		for _, userID := range ev.Recipients {
			n := &models.Notification{
				UserID:      userID,
				HouseholdID: ev.HouseholdID,
				Kind:        ev.Kind,
				Title:       title,
				Message:     body,
				ResourceID:  resourceID,
			}
			if err := d.store.Create(n); err != nil {
				d.count(ev.Kind, "failed")
				result = multierror.Append(result, fmt.Errorf("store %s for user %s: %w", ev.Kind, userID, err))
				continue
			}
			d.count(ev.Kind, "stored")

			if d.publisher == nil {
				continue
			}
			if err := d.publish(n); err != nil {
				d.count(ev.Kind, "publish_failed")
				result = multierror.Append(result, fmt.Errorf("publish %s for user %s: %w", ev.Kind, userID, err))
			}
		}
	}

	if err := result.ErrorOrNil(); err != nil {
		d.log.WithFields(logrus.Fields{
			"failures": len(result.Errors),
		}).WithError(err).Warn("notification dispatch incomplete")
		return err
	}
	return nil
}

func (d *Dispatcher) publish(n *models.Notification) error {
	payload, err := json.Marshal(message{
		ID:          n.ID,
		UserID:      n.UserID,
		HouseholdID: n.HouseholdID,
		Type:        n.Kind,
		Title:       n.Title,
		Message:     n.Message,
		ResourceID:  n.ResourceID,
	})
	if err != nil {
		return err
	}
	return d.publisher.Publish(SubjectPrefix+n.HouseholdID, payload)
}

func (d *Dispatcher) count(kind models.NotificationKind, outcome string) {
	if d.metrics == nil {
		return
	}
	d.metrics.Notifications.WithLabelValues(string(kind), outcome).Inc()
}

// ConnectNATS opens the connection used as the dispatcher's publisher.
func ConnectNATS(url string, log *logrus.Logger) (*nats.Conn, error) {
	conn, err := nats.Connect(url,
		nats.Name("ensemble"),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				log.WithError(err).Warn("nats disconnected")
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			log.WithField("url", c.ConnectedUrl()).Info("nats reconnected")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}
	return conn, nil
}
