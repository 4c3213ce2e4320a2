package error_notificator

import "context"

type Service struct {
	infra Notificator
}

func NewService(infra Notificator) *Service {
	return &Service{infra: infra}
}

// Notify never blocks the caller on a failed delivery; the error is returned
// only for logging.
func (s *Service) Notify(ctx context.Context, source string, err error, details string) error {
	if s == nil || s.infra == nil {
		return nil
	}
	return s.infra.Notify(ctx, source, err, details)
}
