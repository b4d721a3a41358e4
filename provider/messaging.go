package provider

import (
	"context"
	"fmt"

	"github.com/ecomkit/gateway/infra/logger"
)

// resolveSMS returns an initialized SMS adapter for the active provider.
func (s *Service) resolveSMS(ctx context.Context) (SMSProvider, string, error) {
	providerKey, env, err := s.ActiveProvider(ctx, CategorySMS)
	if err != nil {
		return nil, "", err
	}
	adapter, err := s.registry.SMS(providerKey)
	if err != nil {
		return nil, "", err
	}
	creds, err := s.credentials.Resolve(ctx, CategorySMS, providerKey, env)
	if err != nil {
		return nil, "", err
	}
	if err := adapter.Initialize(creds, env); err != nil {
		return nil, "", fmt.Errorf("failed to initialize %s adapter: %w", providerKey, err)
	}
	return adapter, providerKey, nil
}

// SendSMS delivers a transactional message through the active SMS provider.
func (s *Service) SendSMS(ctx context.Context, to, message string) (string, error) {
	adapter, providerKey, err := s.resolveSMS(ctx)
	if err != nil {
		return "", err
	}

	messageID, err := adapter.SendSMS(ctx, to, message)
	if err != nil {
		logger.Error("SMS delivery failed", err, logger.LogContext{
			Provider: providerKey,
			Fields:   map[string]any{"to": logger.TruncatePhone(to)},
		})
		return "", err
	}

	logger.Info("SMS sent", logger.LogContext{
		Provider: providerKey,
		Fields:   map[string]any{"to": logger.TruncatePhone(to), "message_id": messageID},
	})
	return messageID, nil
}

// SendOTP issues a one-time code for a phone number and delivers it through
// the active SMS provider. Only the reference id is returned; the code goes
// to the handset and nowhere else.
func (s *Service) SendOTP(ctx context.Context, phone string) (string, error) {
	referenceID, code, err := s.otps.Issue(ctx, phone, 6)
	if err != nil {
		return "", err
	}

	message := fmt.Sprintf("Your verification code is %s. Valid for 5 minutes.", code)
	if _, err := s.SendSMS(ctx, phone, message); err != nil {
		return "", err
	}

	logger.Info("OTP issued", logger.LogContext{
		Fields: map[string]any{
			"reference_id": referenceID,
			"phone":        logger.TruncatePhone(phone),
		},
	})
	return referenceID, nil
}

// VerifyOTP checks a submitted code against its reference.
func (s *Service) VerifyOTP(ctx context.Context, referenceID, code string) error {
	return s.otps.Verify(ctx, referenceID, code)
}

// resolveWhatsApp returns an initialized WhatsApp adapter for the active
// provider.
func (s *Service) resolveWhatsApp(ctx context.Context) (WhatsAppProvider, string, error) {
	providerKey, env, err := s.ActiveProvider(ctx, CategoryWhatsApp)
	if err != nil {
		return nil, "", err
	}
	adapter, err := s.registry.WhatsApp(providerKey)
	if err != nil {
		return nil, "", err
	}
	creds, err := s.credentials.Resolve(ctx, CategoryWhatsApp, providerKey, env)
	if err != nil {
		return nil, "", err
	}
	if err := adapter.Initialize(creds, env); err != nil {
		return nil, "", fmt.Errorf("failed to initialize %s adapter: %w", providerKey, err)
	}
	return adapter, providerKey, nil
}

// SendWhatsAppTemplate sends a pre-approved template message.
func (s *Service) SendWhatsAppTemplate(ctx context.Context, to, template string, params []string) (string, error) {
	adapter, providerKey, err := s.resolveWhatsApp(ctx)
	if err != nil {
		return "", err
	}

	messageID, err := adapter.SendTemplate(ctx, to, template, params)
	if err != nil {
		logger.Error("WhatsApp template delivery failed", err, logger.LogContext{
			Provider: providerKey,
			Fields:   map[string]any{"to": logger.TruncatePhone(to), "template": template},
		})
		return "", err
	}
	return messageID, nil
}

// SendWhatsAppText sends a free-form session message.
func (s *Service) SendWhatsAppText(ctx context.Context, to, text string) (string, error) {
	adapter, providerKey, err := s.resolveWhatsApp(ctx)
	if err != nil {
		return "", err
	}

	messageID, err := adapter.SendText(ctx, to, text)
	if err != nil {
		logger.Error("WhatsApp text delivery failed", err, logger.LogContext{
			Provider: providerKey,
			Fields:   map[string]any{"to": logger.TruncatePhone(to)},
		})
		return "", err
	}
	return messageID, nil
}
