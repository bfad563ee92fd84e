package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/pentacabs/booking-api/internal/domain"
	"github.com/pentacabs/booking-api/internal/fare"
	"github.com/pentacabs/booking-api/internal/handlers"
	"github.com/pentacabs/booking-api/internal/service"
	"github.com/pentacabs/booking-api/pkg/config"
)

// ---------- Mocks ----------

type mockPublisher struct {
	published  []string
	publishErr error
}

func (m *mockPublisher) Publish(_ context.Context, subject string, _ interface{}) error {
	m.published = append(m.published, subject)
	return m.publishErr
}

func (m *mockPublisher) Close() error { return nil }

type mockBookingService struct {
	nextID    int64
	bookings  map[string]*domain.BookingRequest // customBookingId -> booking
	tokens    map[string]string                 // manage_token -> customBookingId
	cabs      []domain.CabOption
	searchErr error
}

func newMockBookingService() *mockBookingService {
	return &mockBookingService{
		nextID:   1,
		bookings: make(map[string]*domain.BookingRequest),
		tokens:   make(map[string]string),
		cabs: []domain.CabOption{
			{CabType: "Sedan", Price: 2500, Capacity: 4},
			{CabType: "SUV", Price: 3500, Capacity: 6},
		},
	}
}

func (m *mockBookingService) SearchCabs(_ context.Context, _ domain.ServiceType, _, _ string) ([]domain.CabOption, error) {
	if m.searchErr != nil {
		return nil, m.searchErr
	}
	return m.cabs, nil
}

func (m *mockBookingService) CreateBookingRequest(_ context.Context, draft *domain.BookingDraft, tier string, paymentOrderID *string, _ string) (*domain.BookingRequest, error) {
	if err := draft.Validate(); err != nil {
		return nil, err
	}
	if _, ok := fare.OptionForTier(draft.CabPrice, tier); !ok {
		return nil, service.ErrInvalidTier
	}

	id := m.nextID
	m.nextID++

	customID := fmt.Sprintf("PC-%08X", id)
	token := fmt.Sprintf("manage-%d", id)
	pickup, dropoff := draft.Route()

	method := domain.PayGateway
	if tier == fare.TierCash {
		method = domain.PayCash
	}

	booking := &domain.BookingRequest{
		ID:              id,
		CustomBookingID: customID,
		ManageToken:     token,
		Status:          domain.BookingConfirmed,
		ServiceType:     domain.ServiceType(draft.ServiceType),
		TripType:        domain.TripType(draft.TripType),
		Pickup:          pickup,
		Dropoff:         dropoff,
		TravelDate:      draft.Date,
		TravelTime:      draft.Time,
		TravelerName:    draft.Name,
		TravelerMobile:  draft.Mobile,
		TravelerEmail:   strings.ToLower(draft.Email),
		CabType:         draft.CabType,
		TotalFare:       draft.CabPrice,
		PaymentMethod:   method,
		PaymentOrderID:  paymentOrderID,
	}

	m.bookings[customID] = booking
	m.tokens[token] = customID
	return booking, nil
}

func (m *mockBookingService) GetBooking(_ context.Context, customID string) (*domain.BookingRequest, error) {
	booking, exists := m.bookings[customID]
	if !exists {
		return nil, nil
	}
	copied := *booking
	return &copied, nil
}

func (m *mockBookingService) GetBookingWithToken(_ context.Context, customID, token string) (*domain.BookingRequest, error) {
	if m.tokens[token] != customID {
		return nil, nil
	}
	copied := *m.bookings[customID]
	return &copied, nil
}

func (m *mockBookingService) ListBookingsByEmail(_ context.Context, email string, _, _ int) ([]domain.BookingRequest, error) {
	var result []domain.BookingRequest
	for _, b := range m.bookings {
		if strings.EqualFold(b.TravelerEmail, email) {
			result = append(result, *b)
		}
	}
	return result, nil
}

type mockPaymentService struct {
	bookings      *mockBookingService
	nextOrder     int64
	orders        map[string]domain.AttemptStatus
	createErr     error
	goodSignature string
}

func newMockPaymentService(bookings *mockBookingService) *mockPaymentService {
	return &mockPaymentService{
		bookings:      bookings,
		nextOrder:     1,
		orders:        make(map[string]domain.AttemptStatus),
		goodSignature: "valid-sig",
	}
}

func (m *mockPaymentService) CreateOrder(_ context.Context, draft *domain.BookingDraft, tier string) (*domain.PaymentAttempt, error) {
	if tier == fare.TierCash {
		return nil, service.ErrCashTier
	}
	if err := draft.Validate(); err != nil {
		return nil, err
	}
	opt, ok := fare.OptionForTier(draft.CabPrice, tier)
	if !ok {
		return nil, service.ErrInvalidTier
	}
	if opt.Amount <= 0 {
		return nil, service.ErrInvalidAmount
	}
	if m.createErr != nil {
		return nil, m.createErr
	}

	orderID := fmt.Sprintf("order_%d", m.nextOrder)
	m.nextOrder++
	m.orders[orderID] = domain.AttemptCreated

	return &domain.PaymentAttempt{
		OrderID:     orderID,
		Tier:        tier,
		BaseAmount:  opt.BaseAmount,
		PlatformFee: opt.PlatformFee,
		Amount:      opt.Amount,
		Currency:    "INR",
		Status:      domain.AttemptCreated,
	}, nil
}

func (m *mockPaymentService) VerifyPayment(ctx context.Context, req *service.VerifyRequest, idempotencyKey string) (*domain.BookingRequest, error) {
	status, exists := m.orders[req.OrderID]
	if !exists {
		return nil, service.ErrOrderNotFound
	}
	if status != domain.AttemptCreated {
		return nil, service.ErrOrderNotOpen
	}
	if req.Signature != m.goodSignature {
		m.orders[req.OrderID] = domain.AttemptFailed
		return nil, service.ErrVerificationFailed
	}

	booking, err := m.bookings.CreateBookingRequest(ctx, req.Draft, req.Tier, &req.OrderID, idempotencyKey)
	if err != nil {
		return nil, err
	}
	m.orders[req.OrderID] = domain.AttemptCaptured
	return booking, nil
}

func (m *mockPaymentService) CancelOrder(_ context.Context, orderID string) error {
	status, exists := m.orders[orderID]
	if !exists {
		return service.ErrOrderNotFound
	}
	if status != domain.AttemptCreated {
		return service.ErrOrderNotOpen
	}
	m.orders[orderID] = domain.AttemptCanceled
	return nil
}

// ---------- Test Setup ----------

func setupTestServer() (*httptest.Server, *mockBookingService, *mockPaymentService, *mockPublisher) {
	bookingSvc := newMockBookingService()
	paymentSvc := newMockPaymentService(bookingSvc)
	publisher := &mockPublisher{}

	h := handlers.New(bookingSvc, paymentSvc, publisher, config.Load())

	r := chi.NewRouter()
	r.Route("/api", func(r chi.Router) {
		r.Post("/search-cabs", h.SearchCabs)
		r.Post("/payment-options", h.PaymentOptions)
		r.Get("/payment-options", h.PaymentOptionsFromQuery)
		r.Post("/create-order", h.CreateOrder)
		r.Post("/verify-payment", h.VerifyPayment)
		r.Post("/cancel-order", h.CancelOrder)
		r.Post("/create-booking-request", h.CreateBookingRequest)
		r.Get("/booking-requests", h.ListBookingRequests)
		r.Get("/booking-requests/{customBookingId}", h.GetBookingRequest)
		r.Post("/send-airport-email", h.SendAirportEmail)
		r.Post("/send-local-email", h.SendLocalEmail)
		r.Post("/send-intercity-email", h.SendIntercityEmail)
	})

	return httptest.NewServer(r), bookingSvc, paymentSvc, publisher
}

func testDraft() map[string]interface{} {
	return map[string]interface{}{
		"serviceType": "OUTSTATION",
		"tripType":    "ONEWAY",
		"origin":      "Ahmedabad",
		"destination": "Mumbai",
		"date":        "2025-11-20",
		"time":        "09:30",
		"name":        "Ravi Patel",
		"mobile":      "+919876543210",
		"email":       "ravi@example.com",
		"cabType":     "Sedan",
		"cabPrice":    2500,
		"cabCapacity": 4,
	}
}

// ---------- Tests ----------

func TestCreateOrder_Success(t *testing.T) {
	server, _, _, _ := setupTestServer()
	defer server.Close()

	body := map[string]interface{}{
		"price":           2500,
		"selectedPayment": "20",
		"booking":         testDraft(),
	}

	resp := postJSON(t, server.URL+"/api/create-order", body, http.StatusOK)
	defer resp.Body.Close()

	var result struct {
		Success  bool   `json:"success"`
		ID       string `json:"id"`
		Amount   int64  `json:"amount"`
		Currency string `json:"currency"`
	}
	json.NewDecoder(resp.Body).Decode(&result)

	if !result.Success {
		t.Fatal("Expected success")
	}
	if result.ID == "" {
		t.Fatal("Expected an order id")
	}
	// 20% of 2500 = 500, plus 2% fee = 510 rupees = 51000 paise
	if result.Amount != 51000 {
		t.Fatalf("Expected amount 51000 paise, got %d", result.Amount)
	}
	if result.Currency != "INR" {
		t.Fatalf("Expected currency INR, got %s", result.Currency)
	}
}

func TestCreateOrder_CashTierRejected(t *testing.T) {
	server, _, _, _ := setupTestServer()
	defer server.Close()

	body := map[string]interface{}{
		"price":           2500,
		"selectedPayment": "0",
		"booking":         testDraft(),
	}

	resp := postJSON(t, server.URL+"/api/create-order", body, http.StatusBadRequest)
	resp.Body.Close()
}

func TestCreateOrder_BadPriceRejected(t *testing.T) {
	server, _, _, _ := setupTestServer()
	defer server.Close()

	// A fractional fare cannot be read as whole rupees; it falls back to 0
	// and is rejected as a non-positive amount.
	body := map[string]interface{}{
		"price":           2500.5,
		"selectedPayment": "100",
		"booking":         testDraft(),
	}

	resp := postJSON(t, server.URL+"/api/create-order", body, http.StatusBadRequest)
	defer resp.Body.Close()

	var result map[string]interface{}
	json.NewDecoder(resp.Body).Decode(&result)
	if result["success"] != false {
		t.Fatal("Expected success false")
	}
}

func TestVerifyPayment_FullFlow(t *testing.T) {
	server, _, _, _ := setupTestServer()
	defer server.Close()

	// Step 1: create the order
	orderBody := map[string]interface{}{
		"price":           2500,
		"selectedPayment": "20",
		"booking":         testDraft(),
	}
	orderResp := postJSON(t, server.URL+"/api/create-order", orderBody, http.StatusOK)
	var order struct {
		ID string `json:"id"`
	}
	json.NewDecoder(orderResp.Body).Decode(&order)
	orderResp.Body.Close()

	// Step 2: verify after the hosted checkout
	verifyBody := map[string]interface{}{
		"razorpay_order_id":   order.ID,
		"razorpay_payment_id": "pay_1",
		"razorpay_signature":  "valid-sig",
		"bookingData":         testDraft(),
		"selectedPayment":     "20",
		"totalFare":           2500,
	}
	verifyResp := postJSON(t, server.URL+"/api/verify-payment", verifyBody, http.StatusOK)
	var verified struct {
		Success         bool   `json:"success"`
		CustomBookingID string `json:"customBookingId"`
		ManageToken     string `json:"manage_token"`
		AccessToken     string `json:"access_token"`
	}
	json.NewDecoder(verifyResp.Body).Decode(&verified)
	verifyResp.Body.Close()

	if !verified.Success {
		t.Fatal("Expected verification to succeed")
	}
	if verified.CustomBookingID == "" {
		t.Fatal("Expected a customBookingId")
	}

	// Step 3: the id is displayed verbatim on the thank-you page
	getResp := get(t, server.URL+"/api/booking-requests/"+verified.CustomBookingID+"?manage_token="+verified.ManageToken, http.StatusOK)
	var booking domain.BookingRequest
	json.NewDecoder(getResp.Body).Decode(&booking)
	getResp.Body.Close()

	if booking.CustomBookingID != verified.CustomBookingID {
		t.Fatalf("Expected booking %s, got %s", verified.CustomBookingID, booking.CustomBookingID)
	}
	if booking.PaymentOrderID == nil || *booking.PaymentOrderID != order.ID {
		t.Fatal("Expected booking to reference the payment order")
	}
}

func TestVerifyPayment_BadSignature(t *testing.T) {
	server, bookingSvc, _, _ := setupTestServer()
	defer server.Close()

	orderBody := map[string]interface{}{
		"price":           2500,
		"selectedPayment": "100",
		"booking":         testDraft(),
	}
	orderResp := postJSON(t, server.URL+"/api/create-order", orderBody, http.StatusOK)
	var order struct {
		ID string `json:"id"`
	}
	json.NewDecoder(orderResp.Body).Decode(&order)
	orderResp.Body.Close()

	verifyBody := map[string]interface{}{
		"razorpay_order_id":   order.ID,
		"razorpay_payment_id": "pay_1",
		"razorpay_signature":  "tampered",
		"bookingData":         testDraft(),
		"selectedPayment":     "100",
		"totalFare":           2500,
	}
	resp := postJSON(t, server.URL+"/api/verify-payment", verifyBody, http.StatusBadRequest)
	defer resp.Body.Close()

	var result map[string]interface{}
	json.NewDecoder(resp.Body).Decode(&result)
	if result["success"] != false {
		t.Fatal("Expected success false")
	}
	if len(bookingSvc.bookings) != 0 {
		t.Fatal("Expected no booking after a failed verification")
	}
}

func TestCancelOrder_DismissedCheckout(t *testing.T) {
	server, _, paymentSvc, _ := setupTestServer()
	defer server.Close()

	orderBody := map[string]interface{}{
		"price":           2500,
		"selectedPayment": "20",
		"booking":         testDraft(),
	}
	orderResp := postJSON(t, server.URL+"/api/create-order", orderBody, http.StatusOK)
	var order struct {
		ID string `json:"id"`
	}
	json.NewDecoder(orderResp.Body).Decode(&order)
	orderResp.Body.Close()

	resp := postJSON(t, server.URL+"/api/cancel-order", map[string]string{"order_id": order.ID}, http.StatusOK)
	resp.Body.Close()

	if paymentSvc.orders[order.ID] != domain.AttemptCanceled {
		t.Fatal("Expected attempt to be canceled")
	}

	// A canceled order can no longer be verified.
	verifyBody := map[string]interface{}{
		"razorpay_order_id":   order.ID,
		"razorpay_payment_id": "pay_1",
		"razorpay_signature":  "valid-sig",
		"bookingData":         testDraft(),
		"selectedPayment":     "20",
		"totalFare":           2500,
	}
	conflictResp := postJSON(t, server.URL+"/api/verify-payment", verifyBody, http.StatusConflict)
	conflictResp.Body.Close()
}

func TestCreateBookingRequest_CashPath(t *testing.T) {
	server, _, paymentSvc, _ := setupTestServer()
	defer server.Close()

	body := map[string]interface{}{
		"booking":         testDraft(),
		"selectedPayment": "0",
	}

	resp := postJSON(t, server.URL+"/api/create-booking-request", body, http.StatusCreated)
	defer resp.Body.Close()

	var result struct {
		Success         bool   `json:"success"`
		CustomBookingID string `json:"customBookingId"`
		ManageToken     string `json:"manage_token"`
		AccessToken     string `json:"access_token"`
	}
	json.NewDecoder(resp.Body).Decode(&result)

	if !result.Success || result.CustomBookingID == "" {
		t.Fatal("Expected a confirmed booking with a customBookingId")
	}
	if result.AccessToken == "" {
		t.Fatal("Expected a booking access token")
	}
	if len(paymentSvc.orders) != 0 {
		t.Fatal("Cash path must not create payment orders")
	}

	// Token-based retrieval for the thank-you page.
	req, _ := http.NewRequest(http.MethodGet, server.URL+"/api/booking-requests/"+result.CustomBookingID, nil)
	req.Header.Set("Authorization", "Bearer "+result.AccessToken)
	tokenResp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET with access token failed: %v", err)
	}
	defer tokenResp.Body.Close()
	if tokenResp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200 with access token, got %d", tokenResp.StatusCode)
	}

	var booking domain.BookingRequest
	json.NewDecoder(tokenResp.Body).Decode(&booking)
	if booking.PaymentMethod != domain.PayCash {
		t.Fatalf("Expected cash payment method, got %s", booking.PaymentMethod)
	}
	if booking.ManageToken != "" {
		t.Fatal("Manage token must not leak through token-based access")
	}
}

func TestCreateBookingRequest_PaidTierRejected(t *testing.T) {
	server, _, _, _ := setupTestServer()
	defer server.Close()

	body := map[string]interface{}{
		"booking":         testDraft(),
		"selectedPayment": "20",
	}

	resp := postJSON(t, server.URL+"/api/create-booking-request", body, http.StatusBadRequest)
	resp.Body.Close()
}

func TestGetBookingRequest_RequiresAuth(t *testing.T) {
	server, _, _, _ := setupTestServer()
	defer server.Close()

	resp := get(t, server.URL+"/api/booking-requests/PC-00000001", http.StatusUnauthorized)
	resp.Body.Close()

	resp = get(t, server.URL+"/api/booking-requests/PC-00000001?manage_token=wrong", http.StatusNotFound)
	resp.Body.Close()
}

func TestSearchCabs(t *testing.T) {
	server, _, _, _ := setupTestServer()
	defer server.Close()

	body := map[string]string{
		"serviceType": "OUTSTATION",
		"pickup":      "Ahmedabad",
		"dropoff":     "Mumbai",
	}

	resp := postJSON(t, server.URL+"/api/search-cabs", body, http.StatusOK)
	defer resp.Body.Close()

	var result struct {
		Success bool               `json:"success"`
		Cabs    []domain.CabOption `json:"cabs"`
	}
	json.NewDecoder(resp.Body).Decode(&result)

	if !result.Success || len(result.Cabs) != 2 {
		t.Fatalf("Expected 2 cabs, got %d", len(result.Cabs))
	}
}

func TestPaymentOptions(t *testing.T) {
	server, _, _, _ := setupTestServer()
	defer server.Close()

	resp := postJSON(t, server.URL+"/api/payment-options", map[string]interface{}{"totalFare": 1000}, http.StatusOK)
	defer resp.Body.Close()

	var result struct {
		Success bool                 `json:"success"`
		Options []fare.PaymentOption `json:"options"`
	}
	json.NewDecoder(resp.Body).Decode(&result)

	if len(result.Options) != 3 {
		t.Fatalf("Expected 3 options, got %d", len(result.Options))
	}
	if result.Options[1].Amount != 204 {
		t.Fatalf("Expected advance amount 204, got %d", result.Options[1].Amount)
	}
	if result.Options[2].Amount != 1020 {
		t.Fatalf("Expected full amount 1020, got %d", result.Options[2].Amount)
	}
}

func TestPaymentOptionsFromQuery(t *testing.T) {
	server, _, _, _ := setupTestServer()
	defer server.Close()

	q := url.Values{}
	q.Set("serviceType", "OUTSTATION")
	q.Set("tripType", "ONEWAY")
	q.Set("origin", "Ahmedabad")
	q.Set("destination", "Mumbai")
	q.Set("date", "2025-11-20")
	q.Set("time", "09:30")
	q.Set("name", "Ravi Patel")
	q.Set("mobile", "+919876543210")
	q.Set("email", "ravi@example.com")
	q.Set("cabType", "Sedan")
	q.Set("cabPrice", "2500")
	q.Set("cabCapacity", "4")

	resp := get(t, server.URL+"/api/payment-options?"+q.Encode(), http.StatusOK)
	defer resp.Body.Close()

	var result struct {
		Success bool                 `json:"success"`
		Draft   domain.BookingDraft  `json:"draft"`
		Query   string               `json:"query"`
		Options []fare.PaymentOption `json:"options"`
	}
	json.NewDecoder(resp.Body).Decode(&result)

	if !result.Success {
		t.Fatal("Expected success response")
	}
	if result.Draft.Origin != "Ahmedabad" || result.Draft.CabPrice != 2500 {
		t.Fatalf("Draft not decoded from query: %+v", result.Draft)
	}
	if len(result.Options) != 3 {
		t.Fatalf("Expected 3 options, got %d", len(result.Options))
	}
	if result.Options[1].Amount != 510 {
		t.Fatalf("Expected tier-20 amount 510, got %d", result.Options[1].Amount)
	}

	reencoded, err := url.ParseQuery(result.Query)
	if err != nil {
		t.Fatalf("Returned query does not parse: %v", err)
	}
	if reencoded.Get("destination") != "Mumbai" || reencoded.Get("cabPrice") != "2500" {
		t.Fatalf("Returned query lost draft fields: %s", result.Query)
	}
}

func TestPaymentOptionsFromQuery_BadFareDefaultsToZero(t *testing.T) {
	server, _, _, _ := setupTestServer()
	defer server.Close()

	resp := get(t, server.URL+"/api/payment-options?serviceType=LOCAL&cabPrice=abc", http.StatusOK)
	defer resp.Body.Close()

	var result struct {
		Options []fare.PaymentOption `json:"options"`
	}
	json.NewDecoder(resp.Body).Decode(&result)

	if len(result.Options) != 3 {
		t.Fatalf("Expected 3 options, got %d", len(result.Options))
	}
	for _, opt := range result.Options {
		if opt.Amount != 0 {
			t.Fatalf("Expected zero amounts for unparseable fare, got %d", opt.Amount)
		}
	}
}

func TestSendEmail_FireAndForget(t *testing.T) {
	server, _, _, publisher := setupTestServer()
	defer server.Close()

	resp := postJSON(t, server.URL+"/api/send-airport-email", map[string]interface{}{
		"serviceType": "AIRPORT",
		"name":        "Ravi Patel",
		"email":       "ravi@example.com",
		"airport":     "SVPI Airport",
		"address":     "Satellite",
		"date":        "2025-11-20",
	}, http.StatusAccepted)
	resp.Body.Close()

	if len(publisher.published) != 1 || publisher.published[0] != "notify.send" {
		t.Fatalf("Expected one notify.send event, got %v", publisher.published)
	}
}

func TestSendEmail_PublishFailureStillSucceeds(t *testing.T) {
	server, _, _, publisher := setupTestServer()
	defer server.Close()

	publisher.publishErr = fmt.Errorf("nats down")

	resp := postJSON(t, server.URL+"/api/send-local-email", map[string]interface{}{
		"name":  "Ravi Patel",
		"email": "ravi@example.com",
		"city":  "Ahmedabad",
	}, http.StatusAccepted)
	resp.Body.Close()
}

func TestSendEmail_InvalidEmailRejected(t *testing.T) {
	server, _, _, _ := setupTestServer()
	defer server.Close()

	resp := postJSON(t, server.URL+"/api/send-intercity-email", map[string]interface{}{
		"name":  "Ravi Patel",
		"email": "not-an-email",
	}, http.StatusBadRequest)
	resp.Body.Close()
}

// ---------- Helpers ----------

func postJSON(t *testing.T, url string, data interface{}, expectedStatus int) *http.Response {
	t.Helper()

	body, _ := json.Marshal(data)
	resp, err := http.Post(url, "application/json", bytes.NewBuffer(body))
	if err != nil {
		t.Fatalf("POST %s failed: %v", url, err)
	}

	if resp.StatusCode != expectedStatus {
		t.Fatalf("POST %s: expected status %d, got %d", url, expectedStatus, resp.StatusCode)
	}

	return resp
}

func get(t *testing.T, url string, expectedStatus int) *http.Response {
	t.Helper()

	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s failed: %v", url, err)
	}

	if resp.StatusCode != expectedStatus {
		t.Fatalf("GET %s: expected status %d, got %d", url, expectedStatus, resp.StatusCode)
	}

	return resp
}
