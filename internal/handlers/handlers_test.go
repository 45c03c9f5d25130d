package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Chamindu77/SFBS-Backend/internal/artifact"
	"github.com/Chamindu77/SFBS-Backend/internal/auth"
	"github.com/Chamindu77/SFBS-Backend/internal/calendar"
	"github.com/Chamindu77/SFBS-Backend/internal/db/dbtest"
	"github.com/Chamindu77/SFBS-Backend/internal/lock"
	"github.com/Chamindu77/SFBS-Backend/internal/repository"
	"github.com/Chamindu77/SFBS-Backend/internal/service"
)

const secret = "s3cret"

var pngBytes = append([]byte("\x89PNG\r\n\x1a\n"), bytes.Repeat([]byte{0}, 64)...)

type testAPI struct {
	r        *gin.Engine
	admitter *service.Admitter
}

func newAPI(t *testing.T) *testAPI {
	t.Helper()
	gin.SetMode(gin.TestMode)

	gdb := dbtest.Open(t)
	store, err := artifact.NewLocalStore(t.TempDir(), "http://localhost/uploads")
	if err != nil {
		t.Fatalf("NewLocalStore: %v", err)
	}
	bookings := repository.NewGormBookingRepository(gdb)
	facilities := repository.NewGormFacilityRepository(gdb)
	catalog := calendar.DefaultCatalog()

	clock := service.FixedClock{T: time.Date(2030, 5, 10, 9, 0, 0, 0, time.UTC)}
	admitter := service.NewAdmitter(bookings, lock.NewMemoryLocker(), artifact.NewQRGenerator(store), nil)
	bookingSvc := service.NewBookingService(
		service.NewValidator(catalog, clock),
		service.NewAvailabilityResolver(catalog, bookings, facilities),
		admitter, bookings, facilities, store,
	)

	r := NewRouter(Deps{
		Bookings:   bookingSvc,
		Facilities: service.NewFacilityService(facilities, store),
		JWTSecret:  secret,
		UploadDir:  store.Dir(),
	})
	return &testAPI{r: r, admitter: admitter}
}

func bearer(t *testing.T, sub, role string) string {
	t.Helper()
	tok, err := auth.CreateAccessToken(secret, sub, role, sub+"@example.com", "Name "+sub, time.Hour)
	if err != nil {
		t.Fatalf("CreateAccessToken: %v", err)
	}
	return "Bearer " + tok
}

func (a *testAPI) do(req *http.Request, authz string) *httptest.ResponseRecorder {
	if authz != "" {
		req.Header.Set("Authorization", authz)
	}
	w := httptest.NewRecorder()
	a.r.ServeHTTP(w, req)
	return w
}

func (a *testAPI) json(method, path, authz string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if s, ok := body.(string); ok {
		buf.WriteString(s)
	} else if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	return a.do(req, authz)
}

func multipartBody(t *testing.T, fields map[string][]string, files map[string][]byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, vs := range fields {
		for _, v := range vs {
			if err := mw.WriteField(k, v); err != nil {
				t.Fatalf("WriteField: %v", err)
			}
		}
	}
	for k, data := range files {
		fw, err := mw.CreateFormFile(k, k+".png")
		if err != nil {
			t.Fatalf("CreateFormFile: %v", err)
		}
		_, _ = fw.Write(data)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	return &buf, mw.FormDataContentType()
}

func (a *testAPI) book(t *testing.T, authz string, fields map[string][]string, withReceipt bool) *httptest.ResponseRecorder {
	t.Helper()
	files := map[string][]byte{}
	if withReceipt {
		files["receipt"] = pngBytes
	}
	body, ct := multipartBody(t, fields, files)
	req := httptest.NewRequest(http.MethodPost, "/v1/facility-bookings", body)
	req.Header.Set("Content-Type", ct)
	return a.do(req, authz)
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
	return out
}

func (a *testAPI) seedCourt(t *testing.T, court string) string {
	t.Helper()
	w := a.json(http.MethodPost, "/v1/facilities", bearer(t, "admin", auth.RoleAdmin),
		map[string]any{"courtNumber": court, "sportName": "Tennis", "courtPrice": 1500})
	if w.Code != http.StatusCreated {
		t.Fatalf("create facility: %d %s", w.Code, w.Body)
	}
	return decode[facilityDTO](t, w).ID
}

func tennis(slots ...string) map[string][]string {
	return map[string][]string{
		"courtNumber": {"C1"},
		"sportName":   {"Tennis"},
		"date":        {"2030-05-17"},
		"timeSlots":   slots,
	}
}

func TestAvailableSlots(t *testing.T) {
	a := newAPI(t)

	w := a.json(http.MethodPost, "/v1/facility-bookings/available-slots", "",
		map[string]string{"courtNumber": "C1", "sportName": "Tennis", "date": "2030-05-17"})
	if w.Code != http.StatusOK {
		t.Fatalf("status %d: %s", w.Code, w.Body)
	}
	out := decode[struct {
		AvailableSlots []string `json:"availableSlots"`
	}](t, w)
	if len(out.AvailableSlots) != 10 || out.AvailableSlots[0] != "08:00 - 09:00" {
		t.Fatalf("slots = %v", out.AvailableSlots)
	}

	w = a.json(http.MethodPost, "/v1/facility-bookings/available-slots", "",
		`{"courtNumber":"C1","sportName":"Tennis","date":"2030-05-17","extra":1}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("unknown field: status %d", w.Code)
	}

	w = a.json(http.MethodPost, "/v1/facility-bookings/available-slots", "",
		map[string]string{"sportName": "Tennis", "date": "2030-05-17"})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("missing court: status %d", w.Code)
	}
	if fields := decode[map[string]any](t, w)["fields"]; fields == nil {
		t.Fatalf("expected fields in error body: %s", w.Body)
	}
}

func TestCreateBooking_Flow(t *testing.T) {
	a := newAPI(t)
	a.seedCourt(t, "C1")
	user := bearer(t, "u-1", auth.RoleUser)

	if w := a.book(t, "", tennis("09:00 - 10:00"), true); w.Code != http.StatusUnauthorized {
		t.Fatalf("no token: %d", w.Code)
	}

	w := a.book(t, user, tennis(`["09:00 - 10:00","10:00 - 11:00"]`), true)
	if w.Code != http.StatusCreated {
		t.Fatalf("create: %d %s", w.Code, w.Body)
	}
	created := decode[struct {
		Booking bookingDTO `json:"booking"`
	}](t, w).Booking
	if created.TotalHours != 2 || created.TotalPrice != 3000 || created.UserEmail != "u-1@example.com" || created.QRCode == "" {
		t.Fatalf("unexpected booking %+v", created)
	}

	w = a.book(t, user, tennis("10:00 - 11:00", "11:00 - 12:00"), true)
	if w.Code != http.StatusConflict {
		t.Fatalf("overlap: %d %s", w.Code, w.Body)
	}
	conflict := decode[struct {
		UnavailableSlots []string `json:"unavailableSlots"`
	}](t, w)
	if len(conflict.UnavailableSlots) != 1 || conflict.UnavailableSlots[0] != "10:00 - 11:00" {
		t.Fatalf("unavailableSlots = %v", conflict.UnavailableSlots)
	}

	w = a.book(t, user, tennis("07:00 - 08:00"), true)
	if w.Code != http.StatusBadRequest || !strings.Contains(w.Body.String(), "invalidSlots") {
		t.Fatalf("invalid slot: %d %s", w.Code, w.Body)
	}

	past := tennis("09:00 - 10:00")
	past["date"] = []string{"2030-05-01"}
	if w := a.book(t, user, past, true); w.Code != http.StatusBadRequest {
		t.Fatalf("past date: %d", w.Code)
	}

	extra := tennis("12:00 - 13:00")
	extra["discount"] = []string{"100"}
	if w := a.book(t, user, extra, true); w.Code != http.StatusBadRequest {
		t.Fatalf("unknown form field: %d", w.Code)
	}

	if w := a.book(t, user, tennis("12:00 - 13:00"), false); w.Code != http.StatusBadRequest {
		t.Fatalf("missing receipt: %d", w.Code)
	}

	// чтение: владелец, чужой пользователь, админ
	path := "/v1/facility-bookings/" + created.ID
	if w := a.do(httptest.NewRequest(http.MethodGet, path, nil), user); w.Code != http.StatusOK {
		t.Fatalf("owner get: %d", w.Code)
	}
	if w := a.do(httptest.NewRequest(http.MethodGet, path, nil), bearer(t, "u-2", auth.RoleUser)); w.Code != http.StatusForbidden {
		t.Fatalf("stranger get: %d", w.Code)
	}
	if w := a.do(httptest.NewRequest(http.MethodGet, path, nil), bearer(t, "admin", auth.RoleAdmin)); w.Code != http.StatusOK {
		t.Fatalf("admin get: %d", w.Code)
	}

	w = a.do(httptest.NewRequest(http.MethodGet, path+"/qr", nil), user)
	if w.Code != http.StatusOK || w.Header().Get("Content-Type") != "image/png" {
		t.Fatalf("qr: %d %s", w.Code, w.Header().Get("Content-Type"))
	}
	if !strings.Contains(w.Header().Get("Content-Disposition"), "Booking-"+created.ID+"-QRCode.png") {
		t.Fatalf("Content-Disposition = %q", w.Header().Get("Content-Disposition"))
	}

	if w := a.do(httptest.NewRequest(http.MethodGet, "/v1/facility-bookings/user/u-1", nil), user); w.Code != http.StatusOK {
		t.Fatalf("list own: %d", w.Code)
	}
	if w := a.do(httptest.NewRequest(http.MethodGet, "/v1/facility-bookings", nil), user); w.Code != http.StatusForbidden {
		t.Fatalf("list all as user: %d", w.Code)
	}
	w = a.do(httptest.NewRequest(http.MethodGet, "/v1/facility-bookings?page=1&pageSize=5", nil), bearer(t, "admin", auth.RoleAdmin))
	if w.Code != http.StatusOK || decode[calendar.Page[bookingDTO]](t, w).Total != 1 {
		t.Fatalf("list all as admin: %d %s", w.Code, w.Body)
	}

	a.admitter.Wait()
}

func TestAvailableFacilities(t *testing.T) {
	a := newAPI(t)
	a.seedCourt(t, "C1")
	a.seedCourt(t, "C2")

	if w := a.book(t, bearer(t, "u-1", auth.RoleUser), tennis("09:00 - 10:00"), true); w.Code != http.StatusCreated {
		t.Fatalf("create: %d %s", w.Code, w.Body)
	}

	w := a.json(http.MethodPost, "/v1/facility-bookings/available-facilities", "",
		map[string]string{"sportName": "Tennis", "date": "2030-05-17", "timeSlot": "09:00 - 10:00"})
	if w.Code != http.StatusOK {
		t.Fatalf("status %d: %s", w.Code, w.Body)
	}
	out := decode[struct {
		AvailableFacilities []facilityDTO `json:"availableFacilities"`
	}](t, w)
	if len(out.AvailableFacilities) != 1 || out.AvailableFacilities[0].CourtNumber != "C2" {
		t.Fatalf("free courts = %+v", out.AvailableFacilities)
	}

	w = a.json(http.MethodPost, "/v1/facility-bookings/available-facilities", "",
		map[string]string{"sportName": "Squash", "date": "2030-05-17", "timeSlot": "09:00 - 10:00"})
	if w.Code != http.StatusNotFound {
		t.Fatalf("unknown sport: %d", w.Code)
	}
	a.admitter.Wait()
}

func TestFacilityEndpoints(t *testing.T) {
	a := newAPI(t)
	admin := bearer(t, "admin", auth.RoleAdmin)

	w := a.json(http.MethodPost, "/v1/facilities", bearer(t, "u-1", auth.RoleUser),
		map[string]any{"courtNumber": "C1", "sportName": "Tennis", "courtPrice": 1500})
	if w.Code != http.StatusForbidden {
		t.Fatalf("user create: %d", w.Code)
	}

	id := a.seedCourt(t, "C1")
	if w := a.json(http.MethodPost, "/v1/facilities", admin,
		map[string]any{"courtNumber": "C1", "sportName": "Tennis", "courtPrice": 1}); w.Code != http.StatusConflict {
		t.Fatalf("duplicate: %d", w.Code)
	}

	body, ct := multipartBody(t, map[string][]string{"courtPrice": {"1800"}}, map[string][]byte{"image": pngBytes})
	req := httptest.NewRequest(http.MethodPut, "/v1/facilities/"+id, body)
	req.Header.Set("Content-Type", ct)
	w = a.do(req, admin)
	if w.Code != http.StatusOK {
		t.Fatalf("update: %d %s", w.Code, w.Body)
	}
	updated := decode[facilityDTO](t, w)
	if updated.CourtPrice != 1800 || updated.Image == "" || updated.SportName != "Tennis" {
		t.Fatalf("updated = %+v", updated)
	}

	w = a.json(http.MethodPatch, "/v1/facilities/"+id+"/toggle", admin, nil)
	if w.Code != http.StatusOK || decode[facilityDTO](t, w).IsActive {
		t.Fatalf("toggle: %d %s", w.Code, w.Body)
	}

	w = a.do(httptest.NewRequest(http.MethodGet, "/v1/facilities?sportName=Tennis&active=true", nil), "")
	if w.Code != http.StatusOK || len(decode[[]facilityDTO](t, w)) != 0 {
		t.Fatalf("list active: %d %s", w.Code, w.Body)
	}

	if w := a.json(http.MethodDelete, "/v1/facilities/"+id, admin, nil); w.Code != http.StatusOK {
		t.Fatalf("delete: %d", w.Code)
	}
	if w := a.do(httptest.NewRequest(http.MethodGet, "/v1/facilities/"+id, nil), ""); w.Code != http.StatusNotFound {
		t.Fatalf("get deleted: %d", w.Code)
	}
}

func TestWriteError_InternalIsGeneric(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

	writeError(c, errors.New("pq: connection refused"))
	if w.Code != http.StatusInternalServerError || strings.Contains(w.Body.String(), "pq:") {
		t.Fatalf("internal: %d %s", w.Code, w.Body)
	}
}
