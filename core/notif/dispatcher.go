// Package notif fans a message out to one or more users. Each delivery
// appends an in-app notification and optionally sends an email. Dispatch
// is strictly best-effort: failures are logged and swallowed so they can
// never fail the state-changing operation that triggered them.
package notif

import (
	"fmt"
	"net/mail"
	"time"

	"github.com/google/uuid"

	"github.com/uwezocare/uwezo/core"
	"github.com/uwezocare/uwezo/core/user"
)

// notification types
const (
	TypeInfo       = "info"
	TypeAssignment = "assignment"
	TypeStatus     = "status"
	TypeNote       = "note"
	TypeReview     = "review"
)

type Dispatcher struct {
	users   user.Repository
	mailSvc core.EmailService
	logger  core.Logger
}

func NewDispatcher(users user.Repository, mailSvc core.EmailService, logger core.Logger) *Dispatcher {
	return &Dispatcher{users: users, mailSvc: mailSvc, logger: logger}
}

// Notify delivers one notification to one user. It never returns an
// error; delivery problems are logged only.
func (d *Dispatcher) Notify(userID, message, ntype, link string, alsoEmail bool) {
	usr, err := d.users.GetUserByID(userID)
	if err != nil {
		d.logger.Warn(fmt.Sprintf("notify: loading user %s: %v", userID, err), err)
		return
	}

	n := user.Notification{
		ID:      uuid.New().String(),
		Message: message,
		Type:    ntype,
		Link:    link,
		Date:    time.Now().UTC(),
	}
	if err = d.users.AddNotification(usr.ID, n, core.Conf.NotificationCap); err != nil {
		d.logger.Error(fmt.Sprintf("notify: storing notification for %s: %v", usr.ID, err), err, usr)
		return
	}

	if alsoEmail {
		d.mailSvc.SendMessages(&core.EmailMessage{
			To:           []mail.Address{{Name: usr.Name, Address: usr.Email}},
			Subject:      message,
			TemplateName: "notification",
			TemplateData: struct {
				Name    string
				Message string
				Link    string
				AppName string
			}{usr.Name, message, link, core.Conf.AppName},
		})
	}
}

// NotifyMany fans out to several users, independently best-effort per
// recipient.
func (d *Dispatcher) NotifyMany(userIDs []string, message, ntype, link string, alsoEmail bool) {
	for _, id := range userIDs {
		d.Notify(id, message, ntype, link, alsoEmail)
	}
}

// NotifyByRole fans out to every active user holding the given role.
func (d *Dispatcher) NotifyByRole(role user.Role, message, ntype, link string, alsoEmail bool) {
	active := true
	users, err := d.users.FilterUsers(user.QueryFilter{Role: role, IsActive: &active})
	if err != nil {
		d.logger.Warn(fmt.Sprintf("notify: listing %s users: %v", role, err), err)
		return
	}
	for _, usr := range users {
		d.Notify(usr.ID, message, ntype, link, alsoEmail)
	}
}
