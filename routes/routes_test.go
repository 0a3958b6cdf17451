package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"smovers/database/repository/memory"
	"smovers/handlers"
	"smovers/models"
	"smovers/services/account"
	"smovers/services/availability"
	"smovers/services/booking"
	"smovers/services/notification"
	"smovers/services/proposal"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type inbox struct {
	mu    sync.Mutex
	mails []string
}

func (i *inbox) Send(_ context.Context, to, subject, htmlBody string) (models.DeliveryStatus, error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.mails = append(i.mails, htmlBody)
	return models.DeliveryStatus{Success: true, StatusCode: 202}, nil
}

var acceptLink = regexp.MustCompile(`/api/proposals/([^/"]+)/accept`)

func (i *inbox) lastToken(t *testing.T) string {
	t.Helper()
	i.mu.Lock()
	defer i.mu.Unlock()
	for n := len(i.mails) - 1; n >= 0; n-- {
		if m := acceptLink.FindStringSubmatch(i.mails[n]); m != nil {
			return m[1]
		}
	}
	t.Fatal("no proposal mail sent")
	return ""
}

type noopScheduler struct{}

func (noopScheduler) ScheduleExpiry(context.Context, models.ExpiryTask, time.Duration) error {
	return nil
}

type server struct {
	t      *testing.T
	router *gin.Engine
	inbox  *inbox
}

func newServer(t *testing.T) *server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger := zap.NewNop()

	ledger := memory.NewLedgerStore()
	accounts := memory.NewAccountStore()
	avStore := memory.NewAvailabilityStore()
	tokens, err := proposal.NewTokenService("routes-secret", 2*time.Hour, memory.NewUsedTokenStore(), nil)
	require.NoError(t, err)

	box := &inbox{}
	accountService := &account.Service{
		Repo:         accounts,
		Availability: avStore,
		Revocations:  account.NewMemoryRevocations(),
		SessionTTL:   time.Hour,
		Logger:       logger,
	}
	availabilityService := &availability.Service{
		Availability: avStore,
		Accounts:     accounts,
		Location:     time.UTC,
		Logger:       logger,
		Now:          func() time.Time { return time.Date(2026, 4, 5, 9, 0, 0, 0, time.UTC) },
	}
	engine := &booking.Engine{
		Directory: accountService,
		Ledger:    ledger,
		Tokens:    tokens,
		Notifier:  notification.NewMailer(box, "http://localhost:3001", logger),
		Scheduler: noopScheduler{},
		Ratings:   memory.NewRatingStore(ledger, accounts),
		Settings: booking.Settings{
			DriverWindow:       15 * time.Minute,
			HelperWindow:       time.Hour,
			CancellationCutoff: 48 * time.Hour,
		},
		Logger: logger,
	}

	bookingHandler := handlers.NewBookingHandler(engine, accountService)
	availabilityHandler := handlers.NewAvailabilityHandler(availabilityService)
	hb := &handlers.HandlerBundle{
		Sessions:                  accountService,
		Bookers:                   handlers.NewAccountHandler(accountService, models.RoleBooker).Bundle(),
		Drivers:                   handlers.NewAccountHandler(accountService, models.RoleDriver).Bundle(),
		Helpers:                   handlers.NewAccountHandler(accountService, models.RoleHelper).Bundle(),
		BookDriverHandler:         bookingHandler.BookDriverHandler,
		BookHelperHandler:         bookingHandler.BookHelperHandler,
		ListBookingsHandler:       bookingHandler.ListBookingsHandler,
		RespondProposalHandler:    bookingHandler.RespondProposalHandler,
		CancelBookingHandler:      bookingHandler.CancelBookingHandler,
		RateBookingHandler:        bookingHandler.RateBookingHandler,
		UpcomingBookingsHandler:   bookingHandler.UpcomingBookingsHandler,
		SetAvailabilityHandler:    availabilityHandler.SetAvailabilityHandler,
		GetAvailabilityHandler:    availabilityHandler.GetAvailabilityHandler,
		SearchAvailabilityHandler: availabilityHandler.SearchAvailabilityHandler,
		HealthHandler:             handlers.HealthHandler,
	}

	r := gin.New()
	RegisterRoutes(r, hb)
	return &server{t: t, router: r, inbox: box}
}

func (s *server) do(method, path, token string, body any) (int, map[string]any) {
	s.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(s.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	out := map[string]any{}
	if w.Body.Len() > 0 {
		_ = json.Unmarshal(w.Body.Bytes(), &out)
	}
	return w.Code, out
}

func (s *server) register(path, email string, extra map[string]any) string {
	s.t.Helper()
	body := map[string]any{"name": strings.Split(email, "@")[0], "email": email, "password": "secret123"}
	for k, v := range extra {
		body[k] = v
	}
	code, out := s.do(http.MethodPost, "/api/"+path, "", body)
	require.Equal(s.t, http.StatusCreated, code, out)
	return out["token"].(string)
}

var address = map[string]any{
	"street": "Main", "number": 1, "city": "Rosario", "province": "SF", "zipCode": "2000", "country": "AR",
}

func bookingBody(counterpart string) map[string]any {
	return map[string]any{
		"counterpartEmail": counterpart,
		"pickUp":           address,
		"drop":             address,
		"date":             time.Now().AddDate(0, 0, 10).Format("2006-01-02"),
		"startTime":        "09:00",
	}
}

func TestBookingLifecycleOverHTTP(t *testing.T) {
	s := newServer(t)
	booker := s.register("bookers", "bea@x.io", nil)
	driver := s.register("drivers", "dee@x.io", map[string]any{"carType": "van"})

	code, receipt := s.do(http.MethodPost, "/api/bookers/book/driver", booker, bookingBody("dee@x.io"))
	require.Equal(t, http.StatusCreated, code, receipt)
	assert.Equal(t, float64(models.StatusPending), receipt["status"])
	bookingID := receipt["bookingId"].(string)

	token := s.inbox.lastToken(t)
	code, out := s.do(http.MethodGet, "/api/proposals/"+token+"/maybe", "", nil)
	assert.Equal(t, http.StatusBadRequest, code)

	code, out = s.do(http.MethodGet, "/api/proposals/"+token+"/accept", "", nil)
	require.Equal(t, http.StatusOK, code, out)
	assert.Equal(t, "Booking accepted", out["message"])
	assert.Equal(t, bookingID, out["bookingId"])

	code, out = s.do(http.MethodPut, "/api/proposals/"+token+"/reject", "", nil)
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "already_used", out["code"])

	code, out = s.do(http.MethodGet, "/api/proposals/not-a-token/accept", "", nil)
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, "invalid_token", out["code"])

	code, out = s.do(http.MethodGet, "/api/bookers/bookings", booker, nil)
	require.Equal(t, http.StatusOK, code)
	list := out["bookings"].([]any)
	require.Len(t, list, 1)
	assert.Equal(t, float64(models.StatusAccepted), list[0].(map[string]any)["status"])

	code, out = s.do(http.MethodGet, "/api/drivers/bookings/upcoming", driver, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, out["bookings"].([]any), 1)

	code, out = s.do(http.MethodPost, "/api/bookings/"+bookingID+"/rate/5", booker, nil)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "not_eligible", out["code"])

	code, _ = s.do(http.MethodPost, "/api/bookings/"+bookingID+"/rate/five", booker, nil)
	assert.Equal(t, http.StatusBadRequest, code)

	code, out = s.do(http.MethodPost, "/api/bookings/"+bookingID+"/cancel", driver, nil)
	require.Equal(t, http.StatusOK, code, out)
	assert.Equal(t, true, out["cancellation"])

	code, out = s.do(http.MethodPost, "/api/bookings/"+bookingID+"/cancel", booker, nil)
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "invalid_state", out["code"])
}

func TestBookingErrorsOverHTTP(t *testing.T) {
	s := newServer(t)
	booker := s.register("bookers", "bea@x.io", nil)

	code, out := s.do(http.MethodPost, "/api/bookers/book/helper", booker, bookingBody("nobody@x.io"))
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "not_found", out["code"])

	body := bookingBody("nobody@x.io")
	body["date"] = "2001-01-01"
	code, out = s.do(http.MethodPost, "/api/bookers/book/helper", booker, body)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "validation", out["code"])
}

func TestAccountEndpoints(t *testing.T) {
	s := newServer(t)
	token := s.register("helpers", "hal@x.io", nil)

	code, _ := s.do(http.MethodPost, "/api/helpers", "", map[string]any{"name": "Hal", "email": "hal@x.io", "password": "secret123"})
	assert.Equal(t, http.StatusConflict, code)

	code, _ = s.do(http.MethodPost, "/api/helpers", "", map[string]any{"name": "Hal", "email": "hal2@x.io", "password": "password"})
	assert.Equal(t, http.StatusBadRequest, code)

	code, out := s.do(http.MethodPost, "/api/helpers/login", "", map[string]any{"email": "hal@x.io", "password": "nope1234"})
	assert.Equal(t, http.StatusUnauthorized, code, out)

	code, out = s.do(http.MethodGet, "/api/helpers/profile", token, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "hal@x.io", out["email"])
	assert.NotContains(t, out, "passwordHash")

	code, _ = s.do(http.MethodGet, "/api/helpers/profile", "", nil)
	assert.Equal(t, http.StatusUnauthorized, code)
	code, _ = s.do(http.MethodGet, "/api/drivers/profile", token, nil)
	assert.Equal(t, http.StatusForbidden, code)

	code, out = s.do(http.MethodPatch, "/api/helpers/profile", token, map[string]any{"location": "Funes"})
	require.Equal(t, http.StatusOK, code, out)
	assert.Equal(t, "Funes", out["location"])

	code, _ = s.do(http.MethodGet, "/api/helpers/logout", token, nil)
	assert.Equal(t, http.StatusOK, code)
	code, _ = s.do(http.MethodGet, "/api/helpers/profile", token, nil)
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestAvailabilityEndpoints(t *testing.T) {
	s := newServer(t)
	booker := s.register("bookers", "bea@x.io", nil)
	driver := s.register("drivers", "dee@x.io", map[string]any{"carType": "van"})

	days := make([]map[string]any, models.DaysPerWeek)
	for i := range days {
		days[i] = map[string]any{"available": true, "from": "08:00", "to": "18:00"}
	}
	code, out := s.do(http.MethodPut, "/api/drivers/availability", driver, map[string]any{"availability": days})
	require.Equal(t, http.StatusOK, code, out)

	code, out = s.do(http.MethodPut, "/api/drivers/availability", driver, map[string]any{"availability": days[:3]})
	assert.Equal(t, http.StatusBadRequest, code, out)

	code, _ = s.do(http.MethodPut, "/api/drivers/availability", booker, map[string]any{"availability": days})
	assert.Equal(t, http.StatusForbidden, code)

	code, out = s.do(http.MethodGet, "/api/availability?date=2026-04-08&carType=van", booker, nil)
	require.Equal(t, http.StatusOK, code, out)
	providers := out["providers"].([]any)
	require.Len(t, providers, 1)
	assert.Equal(t, "dee@x.io", providers[0].(map[string]any)["email"])

	code, _ = s.do(http.MethodGet, "/api/availability?date=2026-04-01", booker, nil)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestHealth(t *testing.T) {
	s := newServer(t)
	code, out := s.do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", out["status"])
}
