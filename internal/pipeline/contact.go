package pipeline

import (
	"context"
	"errors"

	"github.com/gat-college/faqbot/internal/config"
	"github.com/gat-college/faqbot/internal/logger"
	"github.com/gat-college/faqbot/internal/storage"
)

// ContactSource looks up the stored admin contact.
type ContactSource interface {
	AdminContact(ctx context.Context) (storage.Contact, error)
}

// DefaultContact is used when nothing else is configured.
func DefaultContact() storage.Contact {
	return storage.Contact{
		Role:  storage.RoleAdmin,
		Name:  config.DefaultAdminName,
		Email: config.DefaultAdminEmail,
	}
}

// ResolveContact picks each field from override, then the store, then
// DefaultContact. A store failure is logged and skipped; src may be nil.
func ResolveContact(ctx context.Context, src ContactSource, override storage.Contact, log *logger.Logger) storage.Contact {
	out := DefaultContact()

	if src != nil {
		stored, err := src.AdminContact(ctx)
		switch {
		case err == nil:
			if stored.Name != "" {
				out.Name = stored.Name
			}
			if stored.Email != "" {
				out.Email = stored.Email
			}
			out.Phone = stored.Phone
		case errors.Is(err, storage.ErrNotFound):
			log.Debug("No admin contact stored, using defaults")
		default:
			log.WithError(err).Warn("Failed to load admin contact")
		}
	}

	if override.Name != "" {
		out.Name = override.Name
	}
	if override.Email != "" {
		out.Email = override.Email
	}
	return out
}
