package notification

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "campusvoice/pkg/domain"
	"campusvoice/pkg/requestcontext"
	"campusvoice/pkg/testutil"
)

type listPayload struct {
	Notifications []Notification `json:"notifications"`
	UnreadCount   int            `json:"unread_count"`
}

func newNotificationRouter(t *testing.T, userID id.UserID) (chi.Router, *InMemoryStore) {
	t.Helper()
	store := NewInMemoryStore()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := NewHandler(store, logger)

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, req.WithContext(requestcontext.WithUserID(req.Context(), userID)))
		})
	})
	h.RegisterAuthenticated(r)
	return r, store
}

func seed(t *testing.T, store *InMemoryStore, userID id.UserID, read bool) Notification {
	t.Helper()
	n := Notification{
		ID:        id.NewNotificationID(),
		UserID:    userID,
		Type:      TypeComment,
		Title:     "New comment on your issue",
		IsRead:    read,
		CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, store.Append(context.Background(), n))
	return n
}

func TestListNotifications(t *testing.T) {
	userID := id.NewUserID()
	router, store := newNotificationRouter(t, userID)

	seed(t, store, userID, false)
	seed(t, store, userID, true)
	seed(t, store, id.NewUserID(), false)

	rr := testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodGet, "/notifications", nil))
	testutil.AssertStatus(t, rr, http.StatusOK)

	payload := testutil.UnmarshalResponse[listPayload](t, rr)
	assert.Len(t, payload.Notifications, 2)
	assert.Equal(t, 1, payload.UnreadCount)
}

func TestMarkRead(t *testing.T) {
	t.Run("marks one as read", func(t *testing.T) {
		userID := id.NewUserID()
		router, store := newNotificationRouter(t, userID)
		n := seed(t, store, userID, false)

		rr := testutil.DoRequest(router,
			testutil.NewJSONRequest(t, http.MethodPost, "/notifications/"+n.ID.String()+"/read", nil))
		testutil.AssertStatus(t, rr, http.StatusNoContent)

		remaining, err := store.ListByUser(context.Background(), userID)
		require.NoError(t, err)
		assert.True(t, remaining[0].IsRead)
	})

	t.Run("unknown notification is 404", func(t *testing.T) {
		router, _ := newNotificationRouter(t, id.NewUserID())
		rr := testutil.DoRequest(router,
			testutil.NewJSONRequest(t, http.MethodPost, "/notifications/"+id.NewNotificationID().String()+"/read", nil))
		testutil.AssertStatus(t, rr, http.StatusNotFound)
	})
}

func TestMarkAllRead(t *testing.T) {
	userID := id.NewUserID()
	router, store := newNotificationRouter(t, userID)
	seed(t, store, userID, false)
	seed(t, store, userID, false)

	rr := testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodPost, "/notifications/read-all", nil))
	testutil.AssertStatus(t, rr, http.StatusNoContent)

	all, err := store.ListByUser(context.Background(), userID)
	require.NoError(t, err)
	for _, n := range all {
		assert.True(t, n.IsRead)
	}
}
