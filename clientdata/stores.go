package clientdata

import (
	"context"
	"net/url"
	"strconv"

	"github.com/jrsteele09/go-auth-client/datastore"
)

// Store names as registered for cleanup.
const (
	ProfileStore        = "profile"
	VisitsStore         = "visits"
	PackagesStore       = "packages"
	UnpaidInvoicesStore = "unpaidInvoices"
	PaidInvoicesStore   = "paidInvoices"
	UserInfoStore       = "userInfo"
	NotificationsStore  = "notifications"
)

// Stores is every domain data store the client keeps.
type Stores struct {
	Profile        *datastore.Store[ProfileParams, Profile]
	Visits         *datastore.Store[ClientParams, []Visit]
	Packages       *datastore.Store[ClientParams, []Package]
	UnpaidInvoices *datastore.Store[ClientParams, []Invoice]
	PaidInvoices   *datastore.Store[ClientParams, []Invoice]
	UserInfo       *datastore.Store[NoParams, UserInfo]
	Notifications  *datastore.Store[NoParams, NotificationCount]
}

// New creates the stores. Invoice endpoints are served by the documents
// service, which takes the token in the URL, so they use documents; the rest
// use client.
func New(client, documents datastore.JSONGetter) *Stores {
	return &Stores{
		Profile: datastore.New(ProfileStore, func() Profile { return Profile{} },
			datastore.GetJSON[ProfileParams, Profile](client,
				func(p ProfileParams) string { return "/clients/" + url.PathEscape(p.ID) }, nil)),
		Visits: datastore.New(VisitsStore, func() []Visit { return []Visit{} },
			datastore.GetJSON[ClientParams, []Visit](client, clientPath("visits"), pageQuery)),
		Packages: datastore.New(PackagesStore, func() []Package { return []Package{} },
			datastore.GetJSON[ClientParams, []Package](client, clientPath("packages"), pageQuery)),
		UnpaidInvoices: datastore.New(UnpaidInvoicesStore, func() []Invoice { return []Invoice{} },
			datastore.GetJSON[ClientParams, []Invoice](documents, clientPath("invoices"), invoiceQuery("unpaid"))),
		PaidInvoices: datastore.New(PaidInvoicesStore, func() []Invoice { return []Invoice{} },
			datastore.GetJSON[ClientParams, []Invoice](documents, clientPath("invoices"), invoiceQuery("paid"))),
		UserInfo: datastore.New(UserInfoStore, func() UserInfo { return UserInfo{} },
			datastore.GetJSON[NoParams, UserInfo](client, func(NoParams) string { return "/me" }, nil)),
		Notifications: datastore.New(NotificationsStore, func() NotificationCount { return NotificationCount{Unread: 0} },
			datastore.GetJSON[NoParams, NotificationCount](client, func(NoParams) string { return "/notifications/unread-count" }, nil)),
	}
}

// Register adds every store to r so a logout clears all of them.
func (s *Stores) Register(r *datastore.Registry) {
	r.Register(ProfileStore, s.Profile)
	r.Register(VisitsStore, s.Visits)
	r.Register(PackagesStore, s.Packages)
	r.Register(UnpaidInvoicesStore, s.UnpaidInvoices)
	r.Register(PaidInvoicesStore, s.PaidInvoices)
	r.Register(UserInfoStore, s.UserInfo)
	r.Register(NotificationsStore, s.Notifications)
}

// FetchProfile loads the profile of clientID.
func (s *Stores) FetchProfile(ctx context.Context, clientID string) error {
	return s.Profile.Fetch(ctx, ProfileParams{ID: clientID})
}

func clientPath(resource string) func(ClientParams) string {
	return func(p ClientParams) string {
		return "/clients/" + url.PathEscape(p.ClientID) + "/" + resource
	}
}

func pageQuery(p ClientParams) url.Values {
	if p.Page <= 0 {
		return nil
	}
	return url.Values{"page": {strconv.Itoa(p.Page)}}
}

func invoiceQuery(status string) func(ClientParams) url.Values {
	return func(p ClientParams) url.Values {
		q := url.Values{"status": {status}}
		if p.Page > 0 {
			q.Set("page", strconv.Itoa(p.Page))
		}
		return q
	}
}
