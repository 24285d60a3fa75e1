package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/abdoelngaar-maker/housing-management/internal/domain"
	"github.com/abdoelngaar-maker/housing-management/internal/repository"
	"github.com/abdoelngaar-maker/housing-management/internal/service"
	"github.com/abdoelngaar-maker/housing-management/internal/storage"
	"github.com/abdoelngaar-maker/housing-management/internal/store"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testSecret = "test-secret"

type testEnv struct {
	t      *testing.T
	store  *repository.MemoryStore
	server *httptest.Server
	auth   *Authenticator
}

func newTestEnv(t *testing.T, secret string) *testEnv {
	t.Helper()
	logger := zap.NewNop()
	reg := prometheus.NewRegistry()
	st := repository.NewMemoryStore()
	metrics := service.NewMetrics(reg)
	cache := service.NewDashboardCache(store.NewMemoryKV(), time.Minute, metrics, logger)
	notify := service.NewNotificationService(st, metrics, logger)
	objects := storage.NewLocalStoreFs(afero.NewMemMapFs())

	h := NewRouter(Deps{
		Units:         service.NewUnitService(st, notify, cache, logger),
		Residents:     service.NewResidentService(st, logger),
		Occupancy:     service.NewOccupancyService(st, notify, cache, metrics, logger),
		Sectors:       service.NewSectorService(st, cache, logger),
		Notifications: notify,
		Reports:       service.NewReportService(st, cache, nil, logger),
		Documents:     service.NewDocumentService(nil, objects, logger),
		Store:         st,
		Uploads:       objects.Handler(),
		Registry:      reg,
		Logger:        logger,
		JWTSecret:     secret,
	})
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return &testEnv{t: t, store: st, server: srv, auth: NewAuthenticator(secret, st, logger)}
}

type envelope struct {
	Code    int             `json:"code"`
	Type    string          `json:"type"`
	Message string          `json:"message"`
	Result  json.RawMessage `json:"result"`
}

type call struct {
	method, path string
	body         any
	token        string
	lang         string
}

func (e *testEnv) do(c call) (*http.Response, envelope) {
	e.t.Helper()
	var body io.Reader
	if c.body != nil {
		b, err := json.Marshal(c.body)
		require.NoError(e.t, err)
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequest(c.method, e.server.URL+c.path, body)
	require.NoError(e.t, err)
	req.Header.Set("Content-Type", "application/json")
	return e.send(req, c.token, c.lang)
}

func (e *testEnv) send(req *http.Request, token, lang string) (*http.Response, envelope) {
	e.t.Helper()
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if lang != "" {
		req.Header.Set("Accept-Language", lang)
	}
	resp, err := e.server.Client().Do(req)
	require.NoError(e.t, err)
	defer resp.Body.Close()
	var env envelope
	require.NoError(e.t, json.NewDecoder(resp.Body).Decode(&env))
	return resp, env
}

func (e *testEnv) unit(code string, typ domain.UnitType, beds int, scope domain.Scope) string {
	e.t.Helper()
	id, err := e.store.Units().CreateUnit(context.Background(), &domain.Unit{
		Code: code, Name: code, Type: typ, Rooms: 1, Beds: beds, Scope: scope, Status: domain.UnitStatusVacant,
	})
	require.NoError(e.t, err)
	return id
}

func (e *testEnv) user(openID string, role domain.Role) string {
	e.t.Helper()
	id, err := e.store.Users().UpsertUser(context.Background(), &domain.User{OpenID: openID, Role: role})
	require.NoError(e.t, err)
	return id
}

func (e *testEnv) token(userID string, ttl time.Duration) string {
	e.t.Helper()
	tok, err := e.auth.IssueToken(userID, ttl)
	require.NoError(e.t, err)
	return tok
}

func decode[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(raw, &v))
	return v
}

func TestHealthAndMetrics(t *testing.T) {
	e := newTestEnv(t, "")

	resp, env := e.do(call{method: http.MethodGet, path: "/health"})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, ResultSuccess, env.Code)

	resp, env = e.do(call{method: http.MethodGet, path: "/ready"})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"status":"ready"}`, string(env.Result))

	mresp, err := e.server.Client().Get(e.server.URL + "/metrics")
	require.NoError(t, err)
	defer mresp.Body.Close()
	text, err := io.ReadAll(mresp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(text), "housing_http_request_duration_seconds")
}

func TestCheckInFlow(t *testing.T) {
	e := newTestEnv(t, "")
	unitID := e.unit("A-1", domain.UnitTypeApartment, 1, domain.GlobalScope())

	resp, env := e.do(call{method: http.MethodPost, path: "/api/v1/occupancy/check-in", body: map[string]any{
		"type": "egyptian", "name": "Ahmed", "nationalId": "29901011234567", "unitId": unitID,
	}})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, ResultSuccess, env.Code)
	residentID := decode[service.CheckInResponse](t, env.Result).ResidentID
	require.NotEmpty(t, residentID)

	resp, env = e.do(call{method: http.MethodGet, path: "/api/v1/units/" + unitID})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	u := decode[map[string]any](t, env.Result)
	assert.Equal(t, "occupied", u["status"])
	assert.EqualValues(t, 1, u["current_occupants"])
	assert.EqualValues(t, 0, u["available_beds"])

	// 满员
	resp, env = e.do(call{method: http.MethodPost, path: "/api/v1/occupancy/check-in", body: map[string]any{
		"type": "egyptian", "name": "Omar", "nationalId": "29901011234568", "unitId": unitID,
	}})
	require.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, ResultError, env.Code)
	assert.Equal(t, "السعة غير كافية: المتاح 0 سرير والمطلوب 1", env.Message)
	detail := decode[ErrorDetail](t, env.Result)
	assert.Equal(t, domain.KindCapacityExceeded, detail.Kind)
	require.NotNil(t, detail.Available)
	assert.Equal(t, 0, *detail.Available)
	assert.Equal(t, 1, *detail.Requested)

	resp, env = e.do(call{method: http.MethodGet, path: "/api/v1/residents/egyptian?unitId=" + unitID})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	list := decode[[]map[string]any](t, env.Result)
	require.Len(t, list, 1)
	assert.Equal(t, residentID, list[0]["id"])

	resp, _ = e.do(call{method: http.MethodPost, path: "/api/v1/residents/egyptian/" + residentID + "/check-out"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, env = e.do(call{method: http.MethodPost, path: "/api/v1/residents/egyptian/" + residentID + "/check-out", lang: "en"})
	require.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "Resident is not placed in a unit", env.Message)

	resp, env = e.do(call{method: http.MethodGet, path: "/api/v1/records?unitId=" + unitID})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	records := decode[[]map[string]any](t, env.Result)
	require.Len(t, records, 2)
	assert.Equal(t, "check_out", records[0]["action"])

	resp, env = e.do(call{method: http.MethodGet, path: "/api/v1/notifications/unread"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	notes := decode[[]map[string]any](t, env.Result)
	require.Len(t, notes, 1)
	assert.Equal(t, "تسكين جديد", notes[0]["title"])
}

func TestErrorLocalization(t *testing.T) {
	e := newTestEnv(t, "")

	tests := []struct {
		name       string
		call       call
		wantStatus int
		wantMsg    string
		wantKind   domain.ErrorKind
	}{
		{
			name:       "not found arabic",
			call:       call{method: http.MethodGet, path: "/api/v1/units/missing"},
			wantStatus: http.StatusNotFound,
			wantMsg:    "الوحدة غير موجود",
			wantKind:   domain.KindNotFound,
		},
		{
			name:       "not found english",
			call:       call{method: http.MethodGet, path: "/api/v1/units/missing", lang: "en-US,en;q=0.9"},
			wantStatus: http.StatusNotFound,
			wantMsg:    "Unit not found",
			wantKind:   domain.KindNotFound,
		},
		{
			name:       "empty body",
			call:       call{method: http.MethodPost, path: "/api/v1/occupancy/check-in", lang: "en"},
			wantStatus: http.StatusUnprocessableEntity,
			wantMsg:    "body is required",
			wantKind:   domain.KindMissingField,
		},
		{
			name:       "unknown population",
			call:       call{method: http.MethodGet, path: "/api/v1/residents/martian", lang: "en"},
			wantStatus: http.StatusUnprocessableEntity,
			wantMsg:    "type is required",
			wantKind:   domain.KindMissingField,
		},
		{
			name:       "ocr not configured",
			call:       call{method: http.MethodPost, path: "/api/v1/documents/scan", lang: "en", body: map[string]any{"type": "egyptian", "imageBase64": "aGk="}},
			wantStatus: http.StatusServiceUnavailable,
			wantMsg:    "Service is not available",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, env := e.do(tt.call)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			assert.Equal(t, ResultError, env.Code)
			assert.Equal(t, "error", env.Type)
			assert.Equal(t, tt.wantMsg, env.Message)
			if tt.wantKind != "" {
				assert.Equal(t, tt.wantKind, decode[ErrorDetail](t, env.Result).Kind)
			}
		})
	}
}

func TestPopulationMismatchOverHTTP(t *testing.T) {
	e := newTestEnv(t, "")
	chalet := e.unit("C-1", domain.UnitTypeChalet, 2, domain.GlobalScope())

	resp, env := e.do(call{method: http.MethodPost, path: "/api/v1/occupancy/check-in", lang: "en", body: map[string]any{
		"type": "egyptian", "name": "Ahmed", "nationalId": "1", "unitId": chalet,
	}})
	require.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "Wrong unit type, expected apartment", env.Message)
	assert.Equal(t, domain.UnitTypeApartment, decode[ErrorDetail](t, env.Result).ExpectedUnitType)
}

func TestAuthentication(t *testing.T) {
	e := newTestEnv(t, testSecret)
	adminID := e.user("admin-1", domain.RoleAdmin)
	userID := e.user("user-1", domain.RoleUser)

	t.Run("missing token", func(t *testing.T) {
		resp, env := e.do(call{method: http.MethodGet, path: "/api/v1/units"})
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		assert.Equal(t, ResultError, env.Code)
	})

	t.Run("expired token", func(t *testing.T) {
		resp, env := e.do(call{method: http.MethodGet, path: "/api/v1/units", token: e.token(adminID, -time.Minute), lang: "en"})
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		assert.Equal(t, ResultTokenExpired, env.Code)
		assert.Equal(t, "Session expired", env.Message)
	})

	t.Run("unknown user", func(t *testing.T) {
		resp, env := e.do(call{method: http.MethodGet, path: "/api/v1/units", token: e.token("ghost", time.Hour)})
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		assert.Equal(t, ResultError, env.Code)
	})

	t.Run("wrong signature", func(t *testing.T) {
		other := NewAuthenticator("another-secret", e.store, zap.NewNop())
		tok, err := other.IssueToken(adminID, time.Hour)
		require.NoError(t, err)
		resp, _ := e.do(call{method: http.MethodGet, path: "/api/v1/units", token: tok})
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("admin guard", func(t *testing.T) {
		body := map[string]any{"name": "North", "code": "N"}
		resp, env := e.do(call{method: http.MethodPost, path: "/api/v1/sectors", body: body, token: e.token(userID, time.Hour), lang: "en"})
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
		assert.Equal(t, "Operation not allowed", env.Message)

		resp, _ = e.do(call{method: http.MethodGet, path: "/api/v1/users", token: e.token(userID, time.Hour)})
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)

		resp, env = e.do(call{method: http.MethodPost, path: "/api/v1/sectors", body: body, token: e.token(adminID, time.Hour)})
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		assert.Equal(t, "N", decode[map[string]any](t, env.Result)["code"])

		// 普通用户可以读取
		resp, env = e.do(call{method: http.MethodGet, path: "/api/v1/sectors", token: e.token(userID, time.Hour)})
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Len(t, decode[[]map[string]any](t, env.Result), 1)
	})
}

func TestSectorUserSeesOwnUnits(t *testing.T) {
	e := newTestEnv(t, testSecret)
	ctx := context.Background()
	sectorID, err := e.store.Sectors().CreateSector(ctx, &domain.Sector{Name: "North", Code: "N", Color: domain.DefaultSectorColor})
	require.NoError(t, err)
	userID := e.user("user-n", domain.RoleUser)
	require.NoError(t, e.store.Users().AssignSector(ctx, userID, domain.SectorScope(sectorID)))

	e.unit("N-1", domain.UnitTypeApartment, 2, domain.SectorScope(sectorID))
	other := e.unit("S-1", domain.UnitTypeApartment, 2, domain.SectorScope("elsewhere"))
	e.unit("G-1", domain.UnitTypeApartment, 2, domain.GlobalScope())

	tok := e.token(userID, time.Hour)
	resp, env := e.do(call{method: http.MethodGet, path: "/api/v1/units", token: tok})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var codes []string
	for _, u := range decode[[]map[string]any](t, env.Result) {
		codes = append(codes, u["code"].(string))
	}
	assert.ElementsMatch(t, []string{"N-1", "G-1"}, codes)

	resp, _ = e.do(call{method: http.MethodGet, path: "/api/v1/units/" + other, token: tok})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestResidentImportUpload(t *testing.T) {
	e := newTestEnv(t, "")
	e.unit("A-1", domain.UnitTypeApartment, 4, domain.GlobalScope())

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "residents.csv")
	require.NoError(t, err)
	_, err = io.WriteString(fw, "name,nationalId,unitCode\nOne,1,A-1\nTwo,2,NOPE\n")
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req, err := http.NewRequest(http.MethodPost, e.server.URL+"/api/v1/occupancy/imports", &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	resp, env := e.send(req, "", "en")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	res := decode[service.BulkResult](t, env.Result)
	assert.Equal(t, 1, res.SuccessCount)
	assert.Equal(t, 1, res.FailedCount)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, 2, res.Errors[0].Row)
	assert.Equal(t, domain.KindNotFound, res.Errors[0].Kind)
	assert.Equal(t, "Unit not found", res.Errors[0].Message)

	resp, env = e.do(call{method: http.MethodGet, path: "/api/v1/import-logs/" + res.LogID})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "residents.csv", decode[map[string]any](t, env.Result)["file_name"])
}

func TestUploadBadDateFailsOnlyThatRow(t *testing.T) {
	e := newTestEnv(t, "")
	e.unit("A-1", domain.UnitTypeApartment, 4, domain.GlobalScope())

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "residents.csv")
	require.NoError(t, err)
	_, err = io.WriteString(fw, "name,nationalId,unitCode,checkInDate\nOne,1,A-1,someday\n,,,\nTwo,2,A-1,2025-01-15\n")
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req, err := http.NewRequest(http.MethodPost, e.server.URL+"/api/v1/occupancy/imports", &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	resp, env := e.send(req, "", "en")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	res := decode[service.BulkResult](t, env.Result)
	assert.Equal(t, 1, res.SuccessCount)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, 1, res.Errors[0].Row)
	assert.Equal(t, domain.KindInvalidValue, res.Errors[0].Kind)
	assert.Equal(t, "Invalid value for checkInDate: someday", res.Errors[0].Message)

	resp, env = e.do(call{method: http.MethodGet, path: "/api/v1/import-logs/" + res.LogID})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "completed", decode[map[string]any](t, env.Result)["status"])
}

func TestTemplateDownload(t *testing.T) {
	e := newTestEnv(t, "")

	resp, err := e.server.Client().Get(e.server.URL + "/api/v1/units/template")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, xlsxContentType, resp.Header.Get("Content-Type"))
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "units-template.xlsx")
}
