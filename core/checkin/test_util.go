package checkin

import (
	"time"

	"github.com/njitshpe/shpe-app-sub007/core"
	"github.com/njitshpe/shpe-app-sub007/core/member"
)

// NewServiceMock returns a Service that notifies synchronously and reads the time from now.
func NewServiceMock(db core.DB, repo Repository, members *member.Service, signer *Signer, notifier Notifier, logger core.Logger, opts Options, now func() time.Time) *Service {
	svc := NewService(db, repo, members, signer, notifier, logger, opts)
	svc.goFunc = func(f func()) { f() }
	if now != nil {
		svc.now = now
		signer.now = now
	}
	return svc
}
