package pg

import (
	"context"
	"fmt"
	"time"

	"github.com/crehub/news-digest/internal/domain"
	"github.com/google/uuid"
)

const listActiveSubscribersSQL = `
	SELECT id, email, first_name, interests, timezone, preferred_send_times, selected_counties, selected_cities, last_sent_at
	FROM subscribers
	WHERE is_active
	ORDER BY email`

func (s *Store) ListActiveSubscribers(ctx context.Context) ([]domain.Subscriber, error) {
	rows, err := s.db.Query(ctx, listActiveSubscribersSQL)
	if err != nil {
		return nil, fmt.Errorf("failed to list subscribers: %w", err)
	}
	defer rows.Close()

	var subs []domain.Subscriber
	for rows.Next() {
		var (
			sub       = domain.Subscriber{IsActive: true}
			sendTimes []byte
			cities    []byte
		)
		if err := rows.Scan(
			&sub.ID, &sub.Email, &sub.FirstName, &sub.Interests, &sub.Timezone,
			&sendTimes, &sub.SelectedCounties, &cities, &sub.LastSentAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan subscriber: %w", err)
		}
		sub.PreferredSendTimes = domain.ParseSendTimes(sendTimes)
		sub.SelectedCities = domain.ParseCities(cities)
		subs = append(subs, sub)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate subscribers: %w", err)
	}
	return subs, nil
}

const updateLastSentSQL = `UPDATE subscribers SET last_sent_at = $2 WHERE id = $1`

func (s *Store) UpdateSubscriberLastSent(ctx context.Context, id uuid.UUID, sentAt time.Time) error {
	if _, err := s.db.Exec(ctx, updateLastSentSQL, id, sentAt.UTC()); err != nil {
		return fmt.Errorf("failed to update subscriber last sent: %w", err)
	}
	return nil
}
