package services

import (
	"context"
	"fmt"
	"log/slog"

	"clubstack/internal/domain"
)

type emailService struct {
	mailer   domain.Mailer
	renderer domain.EmailTemplateRenderer
	logger   *slog.Logger
}

// NewEmailService returns an EmailService that uses the given Mailer and template renderer.
func NewEmailService(mailer domain.Mailer, renderer domain.EmailTemplateRenderer, logger *slog.Logger) domain.EmailService {
	return &emailService{mailer: mailer, renderer: renderer, logger: logger}
}

// SendCancellationNotice sends the workshop-cancelled email using the
// "workshop_cancelled" template and the given data.
func (s *emailService) SendCancellationNotice(ctx context.Context, data *domain.CancellationNoticeEmailData) error {
	if data == nil {
		return fmt.Errorf("cancellation notice data is nil")
	}
	subject, htmlBody, textBody, err := s.renderer.Render("workshop_cancelled", data)
	if err != nil {
		return fmt.Errorf("render workshop_cancelled template: %w", err)
	}
	if err := s.mailer.Send(data.Email, subject, htmlBody, textBody); err != nil {
		return fmt.Errorf("send cancellation notice: %w", err)
	}
	s.logger.InfoContext(ctx, "cancellation notice sent", "to", data.Email, "workshop", data.WorkshopTitle)
	return nil
}
