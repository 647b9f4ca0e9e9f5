package services

import (
	"context"
	"fmt"

	"lifeline/internal/models"
	"lifeline/pkg/logger"
	"lifeline/pkg/sms"
)

// PagingService reaches the dispatch desk out of band. The websocket
// escalation event only helps an operator who is connected; the pager
// message lands regardless.
type PagingService interface {
	PageOperators(ctx context.Context, trip *models.Trip)
}

type pagingService struct {
	provider sms.Provider
	numbers  []string
	from     string
	logger   *logger.Logger
}

func NewPagingService(provider sms.Provider, numbers []string, from string, log *logger.Logger) PagingService {
	return &pagingService{
		provider: provider,
		numbers:  numbers,
		from:     from,
		logger:   log,
	}
}

func (s *pagingService) PageOperators(ctx context.Context, trip *models.Trip) {
	if s.provider == nil || len(s.numbers) == 0 {
		return
	}

	body := fmt.Sprintf(
		"Unassigned emergency trip %s at (%.5f, %.5f) needs operator attention",
		trip.ID.Hex(),
		trip.PickupLocation.Latitude(),
		trip.PickupLocation.Longitude(),
	)

	requests := make([]*sms.Request, 0, len(s.numbers))
	for _, number := range s.numbers {
		requests = append(requests, &sms.Request{
			To:      number,
			From:    s.from,
			Message: body,
		})
	}

	responses, err := s.provider.SendBulkSMS(ctx, requests)
	if err != nil {
		s.logger.WithError(err).WithTripID(trip.ID).Warn("Failed to page operators")
		return
	}

	for _, resp := range responses {
		if resp.Error != "" {
			s.logger.WithFields(map[string]interface{}{
				"trip_id": trip.ID.Hex(),
				"error":   resp.Error,
			}).Warn("Operator page failed")
		}
	}
}
