package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"travel-booking/internal/data/entity"
	"travel-booking/internal/data/memory"
	"travel-booking/pkg/utils"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func seedSession(store *memory.Store, role entity.UserRole, expiresAt time.Time) (uuid.UUID, string) {
	u := &entity.User{Username: "u-" + uuid.NewString()[:8], Role: role, IsActive: true}
	u.ID = uuid.New()
	store.PutUser(u)

	sess := &entity.Session{UserID: u.ID, Token: uuid.New(), ExpiresAt: expiresAt}
	sess.ID = uuid.New()
	store.PutSession(sess)
	return u.ID, sess.Token.String()
}

func TestAuthSession(t *testing.T) {
	store := memory.NewStore(zap.NewNop())
	repo := store.Repository()
	userID, token := seedSession(store, entity.RoleCustomer, time.Now().Add(time.Hour))
	_, expired := seedSession(store, entity.RoleCustomer, time.Now().Add(-time.Minute))

	var seen uuid.UUID
	var role string
	h := AuthSession(repo.Session, zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = utils.GetUserIDFromContext(r.Context())
		role, _ = utils.GetRoleFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"valid", "Bearer " + token, http.StatusNoContent},
		{"missing", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic " + token, http.StatusUnauthorized},
		{"expired", "Bearer " + expired, http.StatusUnauthorized},
		{"unknown", "Bearer " + uuid.NewString(), http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, tt.want, rec.Code)
		})
	}

	assert.Equal(t, userID, seen)
	assert.Equal(t, utils.RoleCustomer, role)
}

func TestAdmin(t *testing.T) {
	store := memory.NewStore(zap.NewNop())
	repo := store.Repository()
	_, customer := seedSession(store, entity.RoleCustomer, time.Now().Add(time.Hour))
	_, admin := seedSession(store, entity.RoleAdmin, time.Now().Add(time.Hour))

	var role string
	h := AuthSession(repo.Session, zap.NewNop())(
		Admin(repo.User, zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role, _ = utils.GetRoleFromContext(r.Context())
		})),
	)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+customer)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+admin)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, utils.RoleAdmin, role)
}

func TestRecover(t *testing.T) {
	h := Logger(zap.NewNop())(Recover(zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	})))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/panic", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"status":false,"message":"Internal server error"}`, rec.Body.String())
}

func TestRecover_AbortHandlerPropagates(t *testing.T) {
	h := Recover(zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic(http.ErrAbortHandler)
	}))

	assert.PanicsWithError(t, http.ErrAbortHandler.Error(), func() {
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	})
}

func TestLogger_BookingRouteFields(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)

	r := chi.NewRouter()
	r.Use(Logger(zap.New(core)))
	r.Use(Recover(zap.New(core)))
	r.Get("/api/bookings/{id}", func(w http.ResponseWriter, r *http.Request) {
		utils.ResponseNotFound(w, "Booking not found")
	})
	r.Post("/api/bookings/{id}/cancel", func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	})
	r.Get("/api/groups/{id}", func(w http.ResponseWriter, r *http.Request) {
		utils.ResponseSuccess(w, "success", nil)
	})

	id := uuid.NewString()

	req := httptest.NewRequest(http.MethodGet, "/api/bookings/"+id, nil)
	req.Header.Set(RequestIDHeader, "req-1")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, "req-1", rec.Header().Get(RequestIDHeader))

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/bookings/"+id+"/cancel", nil))
	assert.NotEmpty(t, rec.Header().Get(RequestIDHeader))

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/groups/"+id+"?page=2", nil))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/nowhere", nil))

	access := logs.FilterMessage("HTTP request").All()
	require.Len(t, access, 4)

	notFound := access[0].ContextMap()
	assert.Equal(t, zapcore.WarnLevel, access[0].Level)
	assert.Equal(t, "/api/bookings/{id}", notFound["route"])
	assert.Equal(t, id, notFound["booking_id"])
	assert.Equal(t, "req-1", notFound["request_id"])
	assert.EqualValues(t, http.StatusNotFound, notFound["status"])

	panicked := access[1].ContextMap()
	assert.Equal(t, zapcore.ErrorLevel, access[1].Level)
	assert.Equal(t, "/api/bookings/{id}/cancel", panicked["route"])
	assert.Equal(t, id, panicked["booking_id"])
	assert.EqualValues(t, http.StatusInternalServerError, panicked["status"])

	group := access[2].ContextMap()
	assert.Equal(t, zapcore.InfoLevel, access[2].Level)
	assert.Equal(t, id, group["group_id"])
	assert.Equal(t, "page=2", group["query"])
	assert.NotContains(t, group, "booking_id")

	assert.Equal(t, "unmatched", access[3].ContextMap()["route"])

	recovered := logs.FilterMessage("Handler panicked").All()
	require.Len(t, recovered, 1)
	assert.Equal(t, panicked["request_id"], recovered[0].ContextMap()["request_id"])
}
