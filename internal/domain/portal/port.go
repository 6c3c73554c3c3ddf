package portal

import "context"

// OwnerRepo port (interface untuk persistence)
type OwnerRepo interface {
	ByEmail(ctx context.Context, email string) (*Owner, error)
	ByID(ctx context.Context, id string) (*Owner, error)
	Save(ctx context.Context, o *Owner) error
}

// MagicLinks issues and consumes single-use login tokens.
type MagicLinks interface {
	// Issue creates a token bound to the owner; the returned string is the
	// raw token for the emailed link.
	Issue(ctx context.Context, ownerID string) (string, error)
	// Verify consumes the token on first success. Consumed, expired,
	// tampered and unknown tokens all fail with ErrUnauthorized.
	Verify(ctx context.Context, token string) (string, error)
}

// Mailer delivers magic-link emails.
type Mailer interface {
	SendMagicLink(ctx context.Context, to, name, link string) error
}
