package clientdata_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jrsteele09/go-auth-client/api"
	"github.com/jrsteele09/go-auth-client/clientdata"
	"github.com/jrsteele09/go-auth-client/datastore"
	"github.com/stretchr/testify/require"
)

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/clients/42":
			_ = json.NewEncoder(w).Encode(clientdata.Profile{ID: "42", FirstName: "Ada"})
		case "/clients/42/visits":
			_ = json.NewEncoder(w).Encode([]clientdata.Visit{{ID: "v1"}})
		case "/clients/42/packages":
			_ = json.NewEncoder(w).Encode([]clientdata.Package{{ID: "p1", VisitsLeft: 3}})
		case "/clients/42/invoices":
			paid := r.URL.Query().Get("status") == "paid"
			_ = json.NewEncoder(w).Encode([]clientdata.Invoice{{ID: "i-" + r.URL.Query().Get("status"), Paid: paid}})
		case "/me":
			_ = json.NewEncoder(w).Encode(clientdata.UserInfo{UserID: "u1", Email: "ada@example.com"})
		case "/notifications/unread-count":
			_ = json.NewEncoder(w).Encode(clientdata.NotificationCount{Unread: 5})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestStores_FetchAndClearAll(t *testing.T) {
	ctx := context.Background()
	srv := newServer(t)
	client, err := api.New(srv.URL)
	require.NoError(t, err)

	stores := clientdata.New(client, client)
	registry := datastore.NewRegistry()
	stores.Register(registry)
	require.Len(t, registry.Names(), 7)

	params := clientdata.ClientParams{ClientID: "42"}
	require.NoError(t, stores.FetchProfile(ctx, "42"))
	require.NoError(t, stores.Visits.Fetch(ctx, params))
	require.NoError(t, stores.Packages.Fetch(ctx, params))
	require.NoError(t, stores.UnpaidInvoices.Fetch(ctx, params))
	require.NoError(t, stores.PaidInvoices.Fetch(ctx, params))
	require.NoError(t, stores.UserInfo.Fetch(ctx, clientdata.NoParams{}))
	require.NoError(t, stores.Notifications.Fetch(ctx, clientdata.NoParams{}))

	require.Equal(t, "Ada", stores.Profile.Get().FirstName)
	require.Len(t, stores.Visits.Get(), 1)
	require.Equal(t, 3, stores.Packages.Get()[0].VisitsLeft)
	require.Equal(t, "i-unpaid", stores.UnpaidInvoices.Get()[0].ID)
	require.True(t, stores.PaidInvoices.Get()[0].Paid)
	require.Equal(t, "u1", stores.UserInfo.Get().UserID)
	require.Equal(t, 5, stores.Notifications.Get().Unread)

	registry.ClearAll()

	require.Equal(t, clientdata.Profile{}, stores.Profile.Get())
	require.Empty(t, stores.Visits.Get())
	require.Empty(t, stores.Packages.Get())
	require.Empty(t, stores.UnpaidInvoices.Get())
	require.Empty(t, stores.PaidInvoices.Get())
	require.Equal(t, clientdata.UserInfo{}, stores.UserInfo.Get())
	require.Equal(t, 0, stores.Notifications.Get().Unread)
}

func TestStores_FetchProfileNotFound(t *testing.T) {
	srv := newServer(t)
	client, err := api.New(srv.URL)
	require.NoError(t, err)

	stores := clientdata.New(client, client)
	require.Error(t, stores.FetchProfile(context.Background(), "missing"))
	require.Equal(t, clientdata.Profile{}, stores.Profile.Get())
}
