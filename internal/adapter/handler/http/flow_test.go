package http_test

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/MikeRez0/campuscafe/internal/adapter/auth"
	"github.com/MikeRez0/campuscafe/internal/adapter/storage/memory"
	"github.com/MikeRez0/campuscafe/internal/core/domain"
	"github.com/MikeRez0/campuscafe/internal/core/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type nopNotifier struct{}

func (nopNotifier) Notify(context.Context, domain.Event) {}

func decode[T any](t *testing.T, raw []byte) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(raw, &v))
	return v
}

func TestRouter_OrderFlow(t *testing.T) {
	store := memory.New()
	for _, item := range memory.DefaultMenu() {
		store.PutMenuItem(item)
	}

	tokens, err := auth.New()
	require.NoError(t, err)
	svc, err := service.NewService(store, store, nopNotifier{}, tokens, zap.NewNop())
	require.NoError(t, err)
	s := newTestServer(t, svc, "kitchen", tokens)

	w := s.do(t, http.MethodPost, "/api/students/register", "",
		map[string]string{"student_id": "2023001", "name": "Ann", "password": "pw"})
	require.Equal(t, http.StatusCreated, w.Code)
	token := decode[map[string]string](t, w.Body.Bytes())["token"]

	w = s.do(t, http.MethodPost, "/api/students/register", "",
		map[string]string{"student_id": "chef", "password": "pw", "staff_code": "kitchen"})
	require.Equal(t, http.StatusCreated, w.Code)
	staff := decode[map[string]string](t, w.Body.Bytes())["token"]

	w = s.do(t, http.MethodPost, "/api/orders", token, nil)
	require.Equal(t, http.StatusCreated, w.Code)
	orderID := decode[map[string]any](t, w.Body.Bytes())["id"].(string)
	base := "/api/orders/" + orderID

	w = s.do(t, http.MethodPost, base+"/items", token, map[string]any{"item_id": "rice-bowl", "quantity": 2})
	require.Equal(t, http.StatusOK, w.Code)
	w = s.do(t, http.MethodPost, base+"/items", token, map[string]any{"item_id": "salad", "quantity": 1})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	w = s.do(t, http.MethodPost, base+"/items", token, map[string]any{"item_id": "coffee", "quantity": 49})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	w = s.do(t, http.MethodPut, base+"/notes", token, map[string]string{"notes": "no chili"})
	require.Equal(t, http.StatusOK, w.Code)

	w = s.do(t, http.MethodGet, base+"/eta", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"minutes":19}`, w.Body.String())

	w = s.do(t, http.MethodPost, base+"/redeem", token, map[string]int{"points": 50})
	assert.Equal(t, http.StatusPaymentRequired, w.Code)

	w = s.do(t, http.MethodPost, base+"/confirm", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	confirmed := decode[map[string]any](t, w.Body.Bytes())
	assert.Equal(t, "CONFIRMED", confirmed["status"])
	assert.Equal(t, "90.00", confirmed["total_amount"])
	assert.Equal(t, float64(9), confirmed["loyalty_points_earned"])

	w = s.do(t, http.MethodDelete, base+"/items/rice-bowl", token, nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = s.do(t, http.MethodPut, "/api/staff/orders/"+orderID+"/status", staff, map[string]string{"status": "READY"})
	assert.Equal(t, http.StatusConflict, w.Code)
	for _, status := range []string{"PREPARING", "READY", "COMPLETED"} {
		w = s.do(t, http.MethodPut, "/api/staff/orders/"+orderID+"/status", staff, map[string]string{"status": status})
		require.Equal(t, http.StatusOK, w.Code, status)
	}

	w = s.do(t, http.MethodPost, "/api/staff/loyalty/2023001/adjust", staff, map[string]any{"points": 41})
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"student_id":"2023001","balance":50}`, w.Body.String())

	w = s.do(t, http.MethodGet, "/api/loyalty/redemptions", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	options := decode[[]map[string]any](t, w.Body.Bytes())
	require.Len(t, options, 1)
	assert.Equal(t, float64(50), options[0]["points_required"])

	w = s.do(t, http.MethodGet, "/api/orders", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]map[string]any](t, w.Body.Bytes()), 1)
}
