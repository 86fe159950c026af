package domain

import "context"

// Mailer defines the contract for sending emails (infrastructure port).
type Mailer interface {
	Send(to, subject, html, text string) error
}

// EmailTemplateRenderer renders email content from a named template with the given data.
type EmailTemplateRenderer interface {
	Render(templateName string, data any) (subject, htmlBody, textBody string, err error)
}

// CancellationNoticeEmailData holds data for the workshop-cancelled email sent
// to each registered attendee.
type CancellationNoticeEmailData struct {
	Email         string
	AttendeeName  string
	WorkshopTitle string
	Refunded      bool
}

// EmailService defines the contract for sending domain-level emails.
type EmailService interface {
	SendCancellationNotice(ctx context.Context, data *CancellationNoticeEmailData) error
}
