package httpapi_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sudo-init-do/tradegrid/internal/directory"
	"github.com/sudo-init-do/tradegrid/internal/httpapi"
	"github.com/sudo-init-do/tradegrid/internal/listing"
	"github.com/sudo-init-do/tradegrid/internal/locator"
	"github.com/sudo-init-do/tradegrid/internal/market"
	"github.com/sudo-init-do/tradegrid/internal/notify"
	"github.com/sudo-init-do/tradegrid/internal/objstore"
	"github.com/sudo-init-do/tradegrid/internal/shard"
	"github.com/sudo-init-do/tradegrid/internal/user"
	"github.com/sudo-init-do/tradegrid/internal/wallet"
)

const (
	testSecret = "test-secret"
	sellerID   = "11111111-1111-1111-1111-111111111111"
	buyerID    = "22222222-2222-2222-2222-222222222222"
)

func newServer(t *testing.T) *echo.Echo {
	t.Helper()
	log := zap.NewNop()

	objects := objstore.NewMemoryStorage()
	reg, err := shard.NewRegistry("shard1",
		&shard.Shard{ID: "shard1", Objects: objects, Bucket: "b"},
		&shard.Shard{ID: "shard2", Objects: objects, Bucket: "b"})
	require.NoError(t, err)

	users := user.NewMemoryStore()
	users.Put("shard1", user.User{ID: sellerID, DisplayName: "seller", Role: user.RoleSeller})
	users.Put("shard1", user.User{ID: buyerID, DisplayName: "buyer", ShardID: "shard2"})
	users.Put("shard2", user.User{ID: buyerID, DisplayName: "buyer"})

	loc := locator.New(reg, nil, log)
	dir := directory.NewResolver(reg, users, log)
	listings := listing.NewService(reg, listing.NewMemoryStore(), loc, dir, log)
	engine := market.NewEngine(reg, market.NewMemoryStore(), listings,
		wallet.NewMemoryLedger(), dir, users, loc, notify.NewLogNotifier(log),
		decimal.NewFromFloat(0.02), 5*time.Minute, log)

	e := echo.New()
	h := &httpapi.Handler{Engine: engine, Listings: listings, Log: log}
	h.Register(e, testSecret)
	return e
}

func token(t *testing.T, id, role string) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"id":   id,
		"role": role,
		"exp":  time.Now().Add(time.Hour).Unix(),
	})
	signed, err := tok.SignedString([]byte(testSecret))
	require.NoError(t, err)
	return signed
}

func do(e *echo.Echo, method, path, bearer, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if bearer != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+bearer)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	e := newServer(t)
	rec := do(e, http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAuthRequired(t *testing.T) {
	e := newServer(t)

	rec := do(e, http.MethodGet, "/wallet", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = do(e, http.MethodGet, "/wallet", "not-a-jwt", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestPublishRequiresSellerRole(t *testing.T) {
	e := newServer(t)
	body := `{"title":"widget","price":"9.99","type":"product"}`

	rec := do(e, http.MethodPost, "/marketplace/ads", token(t, buyerID, user.RoleNormal), body)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = do(e, http.MethodPost, "/marketplace/ads", token(t, sellerID, user.RoleSeller), body)
	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestPurchaseFlowOverHTTP(t *testing.T) {
	e := newServer(t)
	sellerTok := token(t, sellerID, user.RoleSeller)
	buyerTok := token(t, buyerID, user.RoleNormal)

	rec := do(e, http.MethodPost, "/marketplace/ads", sellerTok,
		`{"title":"ebook","price":"50.00","type":"digital_product","file_path":"assets/ebook.pdf"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	var created struct {
		AdID string `json:"ad_id"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	require.NotEmpty(t, created.AdID)

	rec = do(e, http.MethodPost, "/marketplace/purchases", buyerTok,
		`{"ad_id":"`+created.AdID+`","amount":"50.00","payment_method":"card"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	var purchase struct {
		TransactionID string `json:"transaction_id"`
		Status        string `json:"status"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &purchase))
	assert.Equal(t, market.StatusCompleted, purchase.Status)

	// Digital sale settles immediately: 50.00 minus 2% commission.
	rec = do(e, http.MethodGet, "/wallet", sellerTok, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var w struct {
		Available decimal.Decimal `json:"available_balance"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &w))
	assert.Equal(t, "49.00", w.Available.StringFixed(2))

	// Second claim on the same ad conflicts.
	rec = do(e, http.MethodPost, "/marketplace/purchases", buyerTok,
		`{"ad_id":"`+created.AdID+`","amount":"50.00","payment_method":"card"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestPurchaseUnknownAdIs404(t *testing.T) {
	e := newServer(t)
	rec := do(e, http.MethodPost, "/marketplace/purchases", token(t, buyerID, user.RoleNormal),
		`{"ad_id":"00000000-0000-0000-0000-000000000000","amount":"1.00","payment_method":"card"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "NOT_FOUND", body.Error.Code)
}

func TestPinForeignAdIs403(t *testing.T) {
	e := newServer(t)
	sellerTok := token(t, sellerID, user.RoleSeller)

	rec := do(e, http.MethodPost, "/marketplace/ads", sellerTok,
		`{"title":"widget","price":"9.99","type":"product"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	var created struct {
		AdID string `json:"ad_id"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))

	rec = do(e, http.MethodPost, "/marketplace/ads/"+created.AdID+"/pin",
		token(t, buyerID, user.RoleNormal), `{"hours":2}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}
