package newsletter

import (
	"context"
	"fmt"

	"github.com/KobiNisim21/destiny-commerce/internal/domain/newsletter"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"
)

type Store interface {
	Subscribe(ctx context.Context, s *newsletter.Subscriber) error
	Unsubscribe(ctx context.Context, token string) error
	FindByEmail(ctx context.Context, email string) (*newsletter.Subscriber, error)
	ListActive(ctx context.Context) ([]newsletter.Subscriber, error)
}

type Mailer interface {
	Send(to, subject, bodyHTML string) error
}

type Service struct {
	subscribers Store
	mailer      Mailer
	baseURL     string
	logger      *zap.Logger
}

func NewService(subscribers Store, mailer Mailer, baseURL string, logger *zap.Logger) *Service {
	return &Service{
		subscribers: subscribers,
		mailer:      mailer,
		baseURL:     baseURL,
		logger:      logger,
	}
}

// Subscribe registers an email, idempotently, and sends a welcome email with
// the unsubscribe link. An already-active subscriber just gets a fresh
// acknowledgement.
func (s *Service) Subscribe(ctx context.Context, email string) (*newsletter.Subscriber, error) {
	sub := &newsletter.Subscriber{
		Email:            email,
		UnsubscribeToken: ulid.Make().String(),
	}

	if err := s.subscribers.Subscribe(ctx, sub); err != nil {
		return nil, err
	}

	s.logger.Info("newsletter subscription", zap.Int64("subscriber_id", sub.ID))

	// Welcome mail is best effort.
	go s.sendWelcome(sub)

	return sub, nil
}

// Unsubscribe deactivates the subscriber owning the token. Token-addressed
// so the link works from any mail client without a login.
func (s *Service) Unsubscribe(ctx context.Context, token string) error {
	if err := s.subscribers.Unsubscribe(ctx, token); err != nil {
		return err
	}

	s.logger.Info("newsletter unsubscribe")
	return nil
}

// ListSubscribers returns every active subscriber for the back-office.
func (s *Service) ListSubscribers(ctx context.Context) ([]newsletter.Subscriber, error) {
	return s.subscribers.ListActive(ctx)
}

// SendCampaign blasts a subject/body to all active subscribers, appending
// each one's unsubscribe link. Failures are counted, not fatal.
func (s *Service) SendCampaign(ctx context.Context, req *newsletter.CampaignRequest) (*newsletter.CampaignResult, error) {
	subs, err := s.subscribers.ListActive(ctx)
	if err != nil {
		return nil, err
	}

	result := &newsletter.CampaignResult{Recipients: len(subs)}
	for _, sub := range subs {
		body := req.BodyHTML + s.unsubscribeFooter(sub.UnsubscribeToken)
		if err := s.mailer.Send(sub.Email, req.Subject, body); err != nil {
			s.logger.Warn("campaign send failed",
				zap.Int64("subscriber_id", sub.ID),
				zap.Error(err),
			)
			result.Failed++
			continue
		}
		result.Sent++
	}

	s.logger.Info("campaign sent",
		zap.String("subject", req.Subject),
		zap.Int("sent", result.Sent),
		zap.Int("failed", result.Failed),
	)

	return result, nil
}

func (s *Service) sendWelcome(sub *newsletter.Subscriber) {
	body := fmt.Sprintf(
		`<h2>ברוכים הבאים לניוזלטר שלנו!</h2>
<p>מעכשיו תקבלו עדכונים על מוצרים חדשים ומבצעים.</p>
<p>Welcome to the Destiny newsletter.</p>%s`,
		s.unsubscribeFooter(sub.UnsubscribeToken),
	)

	if err := s.mailer.Send(sub.Email, "ברוכים הבאים!", body); err != nil {
		s.logger.Warn("failed to send welcome email",
			zap.Int64("subscriber_id", sub.ID),
			zap.Error(err),
		)
	}
}

func (s *Service) unsubscribeFooter(token string) string {
	return fmt.Sprintf(
		`<hr><p style="font-size:12px"><a href="%s/newsletter/unsubscribe?token=%s">להסרה מרשימת התפוצה / Unsubscribe</a></p>`,
		s.baseURL, token,
	)
}
