package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/MikeRez0/campuscafe/internal/adapter/auth"
	handler "github.com/MikeRez0/campuscafe/internal/adapter/handler/http"
	"github.com/MikeRez0/campuscafe/internal/core/domain"
	"github.com/MikeRez0/campuscafe/internal/core/port"
	"github.com/MikeRez0/campuscafe/internal/core/port/mock"
	"github.com/gin-gonic/gin"
	"github.com/golang/mock/gomock"
	"github.com/govalues/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var testNow = time.Date(2024, 9, 2, 12, 0, 0, 0, time.UTC)

type testServer struct {
	router *handler.Router
	tokens port.TokenService
}

func newTestServer(t *testing.T, svc port.Service, staffCode string, tokens port.TokenService) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)
	log := zap.NewNop()

	if tokens == nil {
		var err error
		tokens, err = auth.New()
		require.NoError(t, err)
	}

	sh, err := handler.NewStudentHandler(svc, staffCode, log)
	require.NoError(t, err)
	oh, err := handler.NewOrderHandler(svc, log)
	require.NoError(t, err)
	lh, err := handler.NewLoyaltyHandler(svc, log)
	require.NoError(t, err)

	r, err := handler.NewRouter(handler.NewHandler(log), tokens, sh, oh, lh)
	require.NoError(t, err)
	return &testServer{router: r, tokens: tokens}
}

func (s *testServer) token(t *testing.T, id string, role domain.Role) string {
	t.Helper()
	token, err := s.tokens.CreateToken(&domain.Student{ID: id, Role: role})
	require.NoError(t, err)
	return token
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func ownedOrder(studentID string) *domain.Order {
	o, _ := domain.NewOrder("order-1", studentID, testNow)
	_ = o.AddLine(domain.CatalogItem{ID: "coffee", Name: "Coffee", Price: decimal.MustParse("12.00"), Available: true}, 2)
	return o
}

func TestRouter_Auth(t *testing.T) {
	mockCtrl := gomock.NewController(t)
	defer mockCtrl.Finish()

	svc := mock.NewMockService(mockCtrl)
	s := newTestServer(t, svc, "", nil)

	tests := []struct {
		name   string
		header string
		status int
	}{
		{name: "no header", status: http.StatusUnauthorized},
		{name: "one word", header: "Bearer", status: http.StatusUnauthorized},
		{name: "wrong type", header: "Basic abc", status: http.StatusUnauthorized},
		{name: "garbage token", header: "Bearer v4.local.garbage", status: http.StatusUnauthorized},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/orders", nil)
			if test.header != "" {
				req.Header.Set("Authorization", test.header)
			}
			w := httptest.NewRecorder()
			s.router.ServeHTTP(w, req)
			assert.Equal(t, test.status, w.Code)
		})
	}
}

func TestRouter_StaffOnly(t *testing.T) {
	mockCtrl := gomock.NewController(t)
	defer mockCtrl.Finish()

	svc := mock.NewMockService(mockCtrl)
	s := newTestServer(t, svc, "", nil)

	w := s.do(t, http.MethodGet, "/api/staff/orders?status=CONFIRMED", s.token(t, "2023001", domain.RoleStudent), nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	svc.EXPECT().ListOrdersByStatus(gomock.Any(), domain.OrderStatusConfirmed).Return([]*domain.Order{}, nil)
	w = s.do(t, http.MethodGet, "/api/staff/orders?status=CONFIRMED", s.token(t, "staff-1", domain.RoleStaff), nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = s.do(t, http.MethodGet, "/api/staff/orders?status=LOST", s.token(t, "staff-1", domain.RoleStaff), nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRouter_ErrorStatus(t *testing.T) {
	mockCtrl := gomock.NewController(t)
	defer mockCtrl.Finish()

	tests := []struct {
		err    error
		status int
	}{
		{err: fmt.Errorf("%w: empty", domain.ErrValidation), status: http.StatusBadRequest},
		{err: fmt.Errorf("%w: salad", domain.ErrItemUnavailable), status: http.StatusUnprocessableEntity},
		{err: domain.ErrDataNotFound, status: http.StatusNotFound},
		{err: domain.ErrConflictingData, status: http.StatusConflict},
		{err: domain.ErrOrderNotModifiable, status: http.StatusConflict},
		{err: &domain.TransitionError{From: domain.OrderStatusCompleted, To: domain.OrderStatusConfirmed}, status: http.StatusConflict},
		{err: domain.ErrCapacityExceeded, status: http.StatusUnprocessableEntity},
		{err: domain.ErrRedemptionNotApplicable, status: http.StatusUnprocessableEntity},
		{err: domain.ErrInsufficientBalance, status: http.StatusPaymentRequired},
		{err: fmt.Errorf("connection reset"), status: http.StatusInternalServerError},
	}

	for _, test := range tests {
		t.Run(test.err.Error(), func(t *testing.T) {
			svc := mock.NewMockService(mockCtrl)
			s := newTestServer(t, svc, "", nil)

			svc.EXPECT().GetOrder(gomock.Any(), "order-1").Return(ownedOrder("2023001"), nil)
			svc.EXPECT().ConfirmOrder(gomock.Any(), "order-1").Return(nil, test.err)

			w := s.do(t, http.MethodPost, "/api/orders/order-1/confirm", s.token(t, "2023001", domain.RoleStudent), nil)
			assert.Equal(t, test.status, w.Code)

			var body map[string]string
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.NotEmpty(t, body["error"])
			if test.status == http.StatusInternalServerError {
				assert.Equal(t, domain.ErrInternal.Error(), body["error"])
			}
		})
	}
}

func TestRouter_OrderOwnership(t *testing.T) {
	mockCtrl := gomock.NewController(t)
	defer mockCtrl.Finish()

	svc := mock.NewMockService(mockCtrl)
	s := newTestServer(t, svc, "", nil)

	svc.EXPECT().GetOrder(gomock.Any(), "order-1").Return(ownedOrder("2023001"), nil).Times(2)

	w := s.do(t, http.MethodGet, "/api/orders/order-1", s.token(t, "2023999", domain.RoleStudent), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(t, http.MethodGet, "/api/orders/order-1", s.token(t, "staff-1", domain.RoleStaff), nil)
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "order-1", body["id"])
	assert.Equal(t, "PENDING", body["status"])
	assert.Equal(t, "24.00", body["total_amount"])
}

func TestRouter_StaffCannotEditStudentOrder(t *testing.T) {
	mockCtrl := gomock.NewController(t)
	defer mockCtrl.Finish()

	svc := mock.NewMockService(mockCtrl)
	s := newTestServer(t, svc, "", nil)
	staff := s.token(t, "staff-1", domain.RoleStaff)

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		status int
	}{
		{name: "add item", method: http.MethodPost, path: "/api/orders/order-1/items",
			body: map[string]any{"item_id": "coffee", "quantity": 1}, status: http.StatusNotFound},
		{name: "redeem", method: http.MethodPost, path: "/api/orders/order-1/redeem",
			body: map[string]any{"points": 50}, status: http.StatusNotFound},
		{name: "confirm", method: http.MethodPost, path: "/api/orders/order-1/confirm", status: http.StatusNotFound},
		{name: "discard", method: http.MethodDelete, path: "/api/orders/order-1", status: http.StatusNotFound},
		{name: "estimate", method: http.MethodGet, path: "/api/orders/order-1/eta", status: http.StatusOK},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			svc.EXPECT().GetOrder(gomock.Any(), "order-1").Return(ownedOrder("2023001"), nil)
			if test.status == http.StatusOK {
				svc.EXPECT().EstimatedPreparationTime(gomock.Any(), "order-1").Return(19*time.Minute, nil)
			}
			w := s.do(t, test.method, test.path, staff, test.body)
			assert.Equal(t, test.status, w.Code)
		})
	}
}

func TestRouter_AddItemValidation(t *testing.T) {
	mockCtrl := gomock.NewController(t)
	defer mockCtrl.Finish()

	svc := mock.NewMockService(mockCtrl)
	s := newTestServer(t, svc, "", nil)
	token := s.token(t, "2023001", domain.RoleStudent)

	w := s.do(t, http.MethodPost, "/api/orders/order-1/items", token, map[string]any{"quantity": 1})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	svc.EXPECT().GetOrder(gomock.Any(), "order-1").Return(ownedOrder("2023001"), nil)
	svc.EXPECT().AddItem(gomock.Any(), "order-1", "muffin", 3).Return(ownedOrder("2023001"), nil)
	w = s.do(t, http.MethodPost, "/api/orders/order-1/items", token, map[string]any{"item_id": "muffin", "quantity": 3})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRouter_Register(t *testing.T) {
	mockCtrl := gomock.NewController(t)
	defer mockCtrl.Finish()

	svc := mock.NewMockService(mockCtrl)
	s := newTestServer(t, svc, "kitchen", nil)

	w := s.do(t, http.MethodPost, "/api/students/register", "",
		map[string]string{"student_id": "staff-1", "password": "pw", "staff_code": "guess"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	svc.EXPECT().RegisterStudent(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, st *domain.Student) (*domain.Student, error) {
			assert.Equal(t, domain.RoleStaff, st.Role)
			return st, nil
		})
	svc.EXPECT().LoginStudent(gomock.Any(), "staff-1", "pw").Return("token", nil)
	w = s.do(t, http.MethodPost, "/api/students/register", "",
		map[string]string{"student_id": "staff-1", "password": "pw", "staff_code": "kitchen"})
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.JSONEq(t, `{"token":"token"}`, w.Body.String())

	svc.EXPECT().LoginStudent(gomock.Any(), "2023001", "bad").Return("", domain.ErrInvalidCredentials)
	w = s.do(t, http.MethodPost, "/api/students/login", "",
		map[string]string{"student_id": "2023001", "password": "bad"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRouter_LoyaltyHistoryLimit(t *testing.T) {
	mockCtrl := gomock.NewController(t)
	defer mockCtrl.Finish()

	svc := mock.NewMockService(mockCtrl)
	s := newTestServer(t, svc, "", nil)
	token := s.token(t, "2023001", domain.RoleStudent)

	w := s.do(t, http.MethodGet, "/api/loyalty/history?limit=abc", token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	svc.EXPECT().History(gomock.Any(), "2023001", 5).Return([]domain.LoyaltyTransaction{
		{ID: 2, Type: domain.TransactionEarned, Points: 9, Description: "Earned on order order-1", Timestamp: testNow},
	}, nil)
	w = s.do(t, http.MethodGet, "/api/loyalty/history?limit=5", token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var body []map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body, 1)
	assert.Equal(t, "EARNED", body[0]["type"])
	assert.Equal(t, float64(9), body[0]["points"])
}
