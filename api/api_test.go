package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"backend_smartiv/models"
	"backend_smartiv/services"
	"backend_smartiv/testutils"
)

type apiTestEnv struct {
	db              *gorm.DB
	router          *gin.Engine
	adminToken      string
	advertiserToken string
}

// setupAPITest поднимает router поверх SQLite в памяти и выдает токены двум пользователям
func setupAPITest(t *testing.T) *apiTestEnv {
	gin.SetMode(gin.TestMode)

	db, err := testutils.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() { testutils.CleanupTestDB(db) })

	cfg := testutils.SetupTestConfig()
	store := services.NewGormCatalogStore(db)
	catalog := services.NewCatalogService(store, zap.NewNop(), cfg.Catalog.PageMaxTake)
	auth := services.NewAuthService(db, cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.ExpiresIn, zap.NewNop())

	router := SetupRouter(RouterDeps{
		Config:    cfg,
		Logger:    zap.NewNop(),
		Catalog:   catalog,
		Export:    services.NewExportService(catalog, zap.NewNop()),
		Auth:      auth,
		Heartbeat: services.NewHeartbeatService(store, zap.NewNop(), cfg.Catalog.HeartbeatStaleAfter),
	})

	hash, err := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.MinCost)
	require.NoError(t, err)
	admin := testutils.CreateTestUser(db, "admin@smartiv.test", string(hash), models.RoleAdmin)
	advertiser := testutils.CreateTestUser(db, "ads@smartiv.test", string(hash), models.RoleAdvertiser)
	require.NotNil(t, admin)
	require.NotNil(t, advertiser)

	adminToken, _, err := auth.IssueToken(admin)
	require.NoError(t, err)
	advertiserToken, _, err := auth.IssueToken(advertiser)
	require.NoError(t, err)

	return &apiTestEnv{db: db, router: router, adminToken: adminToken, advertiserToken: advertiserToken}
}

func (env *apiTestEnv) do(method, path string, body any, token string) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		data, _ := json.Marshal(b)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var response map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response), w.Body.String())
	return response
}

func dataOf(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	response := decode(t, w)
	require.Equal(t, "success", response["status"], w.Body.String())
	data, ok := response["data"].(map[string]any)
	require.True(t, ok, w.Body.String())
	return data
}

func idOf(t *testing.T, w *httptest.ResponseRecorder) uint {
	t.Helper()
	return uint(dataOf(t, w)["id"].(float64))
}

func propertyBody(name, code string) map[string]any {
	return map[string]any{
		"name":          name,
		"address":       "Abay ave 10",
		"city":          "Almaty",
		"smartiv_code":  code,
		"enabled_slots": []string{"BACKGROUND", "SCREENSAVER", "SCREENSAVER"},
	}
}

func TestPing(t *testing.T) {
	env := setupAPITest(t)

	w := env.do(http.MethodGet, "/ping", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "pong", decode(t, w)["message"])
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestAuthAPI(t *testing.T) {
	env := setupAPITest(t)

	w := env.do(http.MethodPost, "/api/auth/register", map[string]any{
		"email": "new@smartiv.test", "password": "secret1", "name": "New Advertiser",
	}, "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	registered := dataOf(t, w)
	assert.Equal(t, "ADVERTISER", registered["role"])
	assert.NotContains(t, w.Body.String(), "secret1")

	w = env.do(http.MethodPost, "/api/auth/register", map[string]any{
		"email": "new@smartiv.test", "password": "secret1", "name": "Again",
	}, "")
	assert.Equal(t, http.StatusConflict, w.Code)

	w = env.do(http.MethodPost, "/api/auth/register", `{"email":`, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(http.MethodPost, "/api/auth/login", map[string]any{"email": "new@smartiv.test", "password": "wrong"}, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.do(http.MethodPost, "/api/auth/login", map[string]any{"email": "new@smartiv.test", "password": "secret1"}, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	token, _ := dataOf(t, w)["access_token"].(string)
	require.NotEmpty(t, token)

	w = env.do(http.MethodGet, "/api/auth/me", nil, token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "new@smartiv.test", dataOf(t, w)["email"])

	w = env.do(http.MethodGet, "/api/auth/me", nil, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCatalogAPI_PropertyLifecycle(t *testing.T) {
	env := setupAPITest(t)

	// Без токена и без прав
	w := env.do(http.MethodPost, "/api/inventory/properties", propertyBody("Grand", "C1"), "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	w = env.do(http.MethodPost, "/api/inventory/properties", propertyBody("Grand", "C1"), env.advertiserToken)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = env.do(http.MethodPost, "/api/inventory/properties", propertyBody("Grand", "C1"), env.adminToken)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := dataOf(t, w)
	assert.Equal(t, "HOTEL", created["type"])
	assert.Equal(t, []any{"SCREENSAVER", "BACKGROUND"}, created["enabled_slots"])
	propertyID := uint(created["id"].(float64))

	// Повтор кода
	w = env.do(http.MethodPost, "/api/inventory/properties", propertyBody("Other", "C1"), env.adminToken)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "smartiv_code", decode(t, w)["field"])

	// Неверные данные
	invalid := propertyBody("Bad", "C2")
	invalid["type"] = "CASTLE"
	w = env.do(http.MethodPost, "/api/inventory/properties", invalid, env.adminToken)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "type", decode(t, w)["field"])

	// Чтение доступно любому аутентифицированному пользователю
	w = env.do(http.MethodGet, "/api/inventory/properties?take=5&order=asc&search=gra", nil, env.advertiserToken)
	require.Equal(t, http.StatusOK, w.Code)
	list := decode(t, w)
	assert.Len(t, list["data"], 1)
	meta := list["meta"].(map[string]any)
	assert.Equal(t, float64(1), meta["total"])
	assert.Equal(t, float64(1), meta["last_page"])
	assert.Equal(t, float64(5), meta["take"])

	w = env.do(http.MethodGet, "/api/inventory/properties?take=abc", nil, env.adminToken)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	path := fmt.Sprintf("/api/inventory/properties/%d", propertyID)
	w = env.do(http.MethodGet, path, nil, env.advertiserToken)
	require.Equal(t, http.StatusOK, w.Code)
	detail := dataOf(t, w)
	assert.Equal(t, "Grand", detail["name"])
	screensField, ok := detail["screens"]
	require.True(t, ok, "карточка без экранов должна содержать screens")
	assert.Equal(t, []any{}, screensField)

	w = env.do(http.MethodPatch, path, map[string]any{"city": "Astana"}, env.adminToken)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	updated := dataOf(t, w)
	assert.Equal(t, "Astana", updated["city"])
	assert.Equal(t, "Grand", updated["name"])

	w = env.do(http.MethodGet, "/api/inventory/properties/9999", nil, env.adminToken)
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = env.do(http.MethodGet, "/api/inventory/properties/abc", nil, env.adminToken)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Объект с экраном удалить нельзя
	w = env.do(http.MethodPost, "/api/inventory/screens", map[string]any{
		"property_id": propertyID, "name": "Lobby", "code": "AA:BB:CC:00:00:01",
	}, env.adminToken)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	screenID := idOf(t, w)

	w = env.do(http.MethodGet, path, nil, env.advertiserToken)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, dataOf(t, w)["screens"], 1)

	w = env.do(http.MethodDelete, path, nil, env.adminToken)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = env.do(http.MethodDelete, fmt.Sprintf("/api/inventory/screens/%d", screenID), nil, env.adminToken)
	require.Equal(t, http.StatusOK, w.Code)
	w = env.do(http.MethodDelete, path, nil, env.adminToken)
	require.Equal(t, http.StatusOK, w.Code)
	w = env.do(http.MethodGet, path, nil, env.adminToken)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCatalogAPI_Screens(t *testing.T) {
	env := setupAPITest(t)
	first := testutils.CreateTestProperty(env.db, "Hotel A", "C1")
	second := testutils.CreateTestProperty(env.db, "Hotel B", "C2")
	testutils.CreateTestScreen(env.db, first.ID, "Lobby A", "S-1")
	testutils.CreateTestScreen(env.db, second.ID, "Lobby B", "S-2")

	w := env.do(http.MethodPost, "/api/inventory/screens", map[string]any{
		"property_id": 9999, "name": "Ghost", "code": "S-9",
	}, env.adminToken)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do(http.MethodPost, "/api/inventory/screens", map[string]any{
		"property_id": first.ID, "name": "Dup", "code": "S-2",
	}, env.adminToken)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = env.do(http.MethodPost, "/api/inventory/screens", map[string]any{
		"property_id": first.ID, "name": "Suite", "code": "S-3", "orientation": "PORTRAIT", "room_category": "SUITE",
	}, env.adminToken)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	screen := dataOf(t, w)
	assert.Equal(t, "OFFLINE", screen["status"])
	assert.Equal(t, "1920x1080", screen["resolution"])
	screenID := uint(screen["id"].(float64))

	w = env.do(http.MethodGet, fmt.Sprintf("/api/inventory/screens?propertyId=%d", first.ID), nil, env.advertiserToken)
	require.Equal(t, http.StatusOK, w.Code)
	list := decode(t, w)
	require.Len(t, list["data"], 2)
	for _, item := range list["data"].([]any) {
		assert.Equal(t, "Hotel A", item.(map[string]any)["property_name"])
	}

	w = env.do(http.MethodGet, "/api/inventory/screens?status=BROKEN", nil, env.adminToken)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = env.do(http.MethodGet, "/api/inventory/screens?propertyId=x", nil, env.adminToken)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	path := fmt.Sprintf("/api/inventory/screens/%d", screenID)
	w = env.do(http.MethodPatch, path, map[string]any{"property_id": second.ID, "name": "Moved"}, env.adminToken)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, float64(second.ID), dataOf(t, w)["property_id"])

	w = env.do(http.MethodPatch, path, map[string]any{"ip_address": "not-an-ip"}, env.adminToken)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(http.MethodGet, path, nil, env.adminToken)
	require.Equal(t, http.StatusOK, w.Code)
	property := dataOf(t, w)["property"].(map[string]any)
	assert.Equal(t, "Hotel B", property["name"])

	w = env.do(http.MethodDelete, path, nil, env.advertiserToken)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestCatalogAPI_RateCardsAndQuote(t *testing.T) {
	env := setupAPITest(t)
	property := testutils.CreateTestProperty(env.db, "Hotel A", "C1")
	base := fmt.Sprintf("/api/inventory/properties/%d", property.ID)

	w := env.do(http.MethodPost, base+"/rate-cards", map[string]any{"price_per_day": 1000}, env.adminToken)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	defaultCardID := idOf(t, w)

	w = env.do(http.MethodPost, base+"/rate-cards", map[string]any{"price_per_day": 2500, "target_slot": "SCREENSAVER"}, env.adminToken)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = env.do(http.MethodPost, base+"/rate-cards", map[string]any{"price_per_day": 3000, "target_slot": "SCREENSAVER"}, env.adminToken)
	assert.Equal(t, http.StatusConflict, w.Code)
	w = env.do(http.MethodPost, base+"/rate-cards", map[string]any{"price_per_day": 0}, env.adminToken)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(http.MethodGet, base+"/rate-cards", nil, env.advertiserToken)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w)["data"], 2)

	w = env.do(http.MethodGet, base+"/quote?slot=SCREENSAVER&days=3", nil, env.advertiserToken)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, float64(7500), dataOf(t, w)["total"])

	w = env.do(http.MethodGet, base+"/quote?slot=BACKGROUND&days=2", nil, env.advertiserToken)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(2000), dataOf(t, w)["total"])

	w = env.do(http.MethodGet, base+"/quote?days=0", nil, env.advertiserToken)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = env.do(http.MethodGet, "/api/inventory/properties/9999/quote?days=1", nil, env.advertiserToken)
	assert.Equal(t, http.StatusNotFound, w.Code)

	cardPath := fmt.Sprintf("/api/inventory/rate-cards/%d", defaultCardID)
	w = env.do(http.MethodPatch, cardPath, map[string]any{"is_active": false}, env.adminToken)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, false, dataOf(t, w)["is_active"])

	// Активного тарифа по умолчанию больше нет
	w = env.do(http.MethodGet, base+"/quote?slot=BACKGROUND&days=2", nil, env.advertiserToken)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do(http.MethodGet, base+"/rate-cards.pdf", nil, env.advertiserToken)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("%PDF-")))

	w = env.do(http.MethodDelete, cardPath, nil, env.adminToken)
	require.Equal(t, http.StatusOK, w.Code)
	w = env.do(http.MethodDelete, cardPath, nil, env.adminToken)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCatalogAPI_ExportInventory(t *testing.T) {
	env := setupAPITest(t)
	property := testutils.CreateTestProperty(env.db, "Hotel A", "C1")
	testutils.CreateTestScreen(env.db, property.ID, "Lobby", "S-1")

	w := env.do(http.MethodGet, "/api/inventory/export.xlsx", nil, env.advertiserToken)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "inventory.xlsx")
	// XLSX это zip-архив
	assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("PK")))
}

func TestHeartbeatAPI(t *testing.T) {
	env := setupAPITest(t)
	property := testutils.CreateTestProperty(env.db, "Hotel A", "C1")
	testutils.CreateTestScreen(env.db, property.ID, "Lobby", "AA:BB:CC:00:00:01")

	w := env.do(http.MethodPost, "/api/screens/heartbeat", map[string]any{"code": "UNKNOWN"}, "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do(http.MethodPost, "/api/screens/heartbeat", map[string]any{"code": "AA:BB:CC:00:00:01"}, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	data := dataOf(t, w)
	assert.Equal(t, "ONLINE", data["status"])
	assert.NotNil(t, data["last_ping"])

	var screen models.Screen
	require.NoError(t, env.db.Where("code = ?", "AA:BB:CC:00:00:01").First(&screen).Error)
	require.NotNil(t, screen.IPAddress)
	assert.Equal(t, "192.0.2.1", *screen.IPAddress)
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{&services.CatalogError{Kind: services.ErrNotFound}, http.StatusNotFound},
		{&services.CatalogError{Kind: services.ErrDuplicateCode}, http.StatusConflict},
		{&services.CatalogError{Kind: services.ErrEmailTaken}, http.StatusConflict},
		{&services.CatalogError{Kind: services.ErrHasDependents}, http.StatusConflict},
		{&services.CatalogError{Kind: services.ErrValidation}, http.StatusBadRequest},
		{&services.CatalogError{Kind: services.ErrForbidden}, http.StatusForbidden},
		{&services.CatalogError{Kind: services.ErrInvalidCredentials}, http.StatusUnauthorized},
		{&services.CatalogError{Kind: services.ErrStorageUnavailable}, http.StatusServiceUnavailable},
		{errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			assert.Equal(t, tt.status, statusFor(tt.err))
		})
	}
}

func TestRespondError_HidesInternalDetails(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

	respondError(c, zap.NewNop(), errors.New("pq: password authentication failed"))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "password")
	assert.Equal(t, "error", decode(t, w)["status"])
}
