package email

import (
	"context"
)

// Service sends transactional mail. Callers on the booking path treat
// failures as best-effort.
type Service interface {
	Send(ctx context.Context, to, subject, body string) error
}
