package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"health-intake-backend/config"
	"health-intake-backend/models"
	"health-intake-backend/repository"

	"go.uber.org/zap"
)

type fakeGateway struct {
	verification *PaymentVerification
	verifyErr    error
	checkouts    []CheckoutRequest
	verified     []string
}

// CreateCheckout issues ref-1, ref-2, ... in call order.
func (g *fakeGateway) CreateCheckout(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error) {
	g.checkouts = append(g.checkouts, req)
	ref := fmt.Sprintf("ref-%d", len(g.checkouts))
	return &CheckoutSession{Reference: ref, RedirectURL: "https://pay.test/" + ref}, nil
}

func (g *fakeGateway) VerifyPayment(ctx context.Context, reference string) (*PaymentVerification, error) {
	g.verified = append(g.verified, reference)
	return g.verification, g.verifyErr
}

func newPaymentFixture(t *testing.T, gateway PaymentProvider) (*PaymentService, *repository.MemoryStore, string) {
	t.Helper()
	store := repository.NewMemoryStore()
	cfg := testConfig()
	cfg.Payment.SuccessURL = "https://clinic.test/paid"
	s := NewPaymentService(gateway, store, cfg, zap.NewNop())
	s.now = func() time.Time { return time.Date(2026, 10, 14, 9, 30, 0, 0, time.UTC) }
	return s, store, pendingAppointment(t, store)
}

func pendingAppointment(t *testing.T, store *repository.MemoryStore) string {
	t.Helper()
	id, err := store.CreateAppointment(context.Background(), &models.Appointment{
		OwnerID: "owner", DoctorID: "dr-rahman", Status: models.AppointmentPending, Amount: 1000,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	return id
}

func checkout(t *testing.T, s *PaymentService, id string) string {
	t.Helper()
	session, err := s.StartCheckout(context.Background(), id)
	if err != nil {
		t.Fatalf("StartCheckout: %v", err)
	}
	return session.Reference
}

func TestStartCheckout(t *testing.T) {
	gateway := &fakeGateway{}
	s, store, id := newPaymentFixture(t, gateway)

	if ref := checkout(t, s, id); ref != "ref-1" {
		t.Fatalf("reference = %q", ref)
	}
	req := gateway.checkouts[0]
	if req.AppointmentID != id || req.Amount != 1000 || req.Currency != "BDT" || req.SuccessURL != "https://clinic.test/paid" {
		t.Fatalf("unexpected checkout request %+v", req)
	}
	a, _ := store.GetAppointment(context.Background(), id)
	if a.CheckoutReference != "ref-1" {
		t.Fatalf("checkout reference not stored: %+v", a)
	}
}

func TestConfirmPaymentVerifiesBeforeWriting(t *testing.T) {
	cases := map[string]*fakeGateway{
		"gateway error":     {verifyErr: errBackend},
		"unpaid":            {verification: &PaymentVerification{Paid: false, Amount: 1000}},
		"short amount":      {verification: &PaymentVerification{Paid: true, Amount: 999}},
		"other appointment": {verification: &PaymentVerification{Paid: true, Amount: 1000, AppointmentID: "someone-else"}},
	}
	for name, gateway := range cases {
		t.Run(name, func(t *testing.T) {
			s, store, id := newPaymentFixture(t, gateway)
			ref := checkout(t, s, id)
			if _, err := s.ConfirmPayment(context.Background(), id, ref); !errors.Is(err, ErrPaymentNotVerified) {
				t.Fatalf("expected ErrPaymentNotVerified, got %v", err)
			}
			a, _ := store.GetAppointment(context.Background(), id)
			if a.Paid || a.Status != models.AppointmentPending {
				t.Fatalf("appointment changed without verification: %+v", a)
			}
		})
	}
}

func TestConfirmPaymentNeedsIssuedReference(t *testing.T) {
	gateway := &fakeGateway{verification: &PaymentVerification{Paid: true, Amount: 1000, TransactionID: "txn-1"}}
	s, store, id := newPaymentFixture(t, gateway)

	if _, err := s.ConfirmPayment(context.Background(), id, "ref-1"); !errors.Is(err, ErrPaymentNotVerified) {
		t.Fatalf("confirmed without a checkout: %v", err)
	}
	checkout(t, s, id)
	if _, err := s.ConfirmPayment(context.Background(), id, "forged"); !errors.Is(err, ErrPaymentNotVerified) {
		t.Fatalf("confirmed with a foreign reference: %v", err)
	}
	if len(gateway.verified) != 0 {
		t.Fatalf("gateway asked about unissued references: %v", gateway.verified)
	}
	if a, _ := store.GetAppointment(context.Background(), id); a.Paid {
		t.Fatalf("appointment paid: %+v", a)
	}
}

func TestConfirmPaymentOneTransactionOneAppointment(t *testing.T) {
	gateway := &fakeGateway{verification: &PaymentVerification{Paid: true, Amount: 1000, TransactionID: "tx-1"}}
	s, store, first := newPaymentFixture(t, gateway)
	second := pendingAppointment(t, store)
	firstRef := checkout(t, s, first)
	secondRef := checkout(t, s, second)

	if _, err := s.ConfirmPayment(context.Background(), first, firstRef); err != nil {
		t.Fatalf("ConfirmPayment first: %v", err)
	}
	if _, err := s.ConfirmPayment(context.Background(), second, firstRef); !errors.Is(err, ErrPaymentNotVerified) {
		t.Fatalf("first reference confirmed the second appointment: %v", err)
	}
	// The gateway reports the same transaction for the second reference.
	if _, err := s.ConfirmPayment(context.Background(), second, secondRef); !errors.Is(err, repository.ErrReferenceInUse) {
		t.Fatalf("expected ErrReferenceInUse, got %v", err)
	}
	a, _ := store.GetAppointment(context.Background(), second)
	if a.Paid || a.Status != models.AppointmentPending {
		t.Fatalf("second appointment changed: %+v", a)
	}
}

func TestConfirmPaymentMarksPaidOnce(t *testing.T) {
	gateway := &fakeGateway{verification: &PaymentVerification{Paid: true, Amount: 1000, TransactionID: "txn-9"}}
	s, _, id := newPaymentFixture(t, gateway)
	ref := checkout(t, s, id)

	a, err := s.ConfirmPayment(context.Background(), id, ref)
	if err != nil {
		t.Fatalf("ConfirmPayment: %v", err)
	}
	want := time.Date(2026, 10, 15, 16, 0, 0, 0, time.UTC)
	if !a.Paid || a.Status != models.AppointmentConfirmed || a.PaymentReference != "txn-9" || !a.AppointmentDate.Equal(want) {
		t.Fatalf("unexpected appointment %+v", a)
	}

	gateway.verifyErr = errBackend
	again, err := s.ConfirmPayment(context.Background(), id, ref)
	if err != nil {
		t.Fatalf("already paid should not be verified again: %v", err)
	}
	if again.PaymentReference != "txn-9" || len(gateway.verified) != 1 {
		t.Fatalf("unexpected repeat confirmation %+v, verified %v", again, gateway.verified)
	}
	if _, err := s.StartCheckout(context.Background(), id); !errors.Is(err, ErrAppointmentNotPayable) {
		t.Fatalf("expected ErrAppointmentNotPayable, got %v", err)
	}
}

func TestConfirmPaymentUnknownAppointment(t *testing.T) {
	s, _, _ := newPaymentFixture(t, &fakeGateway{})
	if _, err := s.ConfirmPayment(context.Background(), "missing", "ref"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestHTTPPaymentProvider(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/checkout":
			var req CheckoutRequest
			_ = json.NewDecoder(r.Body).Decode(&req)
			_ = json.NewEncoder(w).Encode(CheckoutSession{Reference: "ref-" + req.AppointmentID, RedirectURL: "https://pay.test"})
		case r.Method == http.MethodGet && r.URL.Path == "/payments/ref-a1":
			_ = json.NewEncoder(w).Encode(PaymentVerification{Paid: true, Amount: 1000, TransactionID: "txn"})
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	p := NewHTTPPaymentProvider(config.PaymentConfig{BaseURL: srv.URL + "/", APIKey: "secret", Timeout: time.Second})
	session, err := p.CreateCheckout(context.Background(), CheckoutRequest{AppointmentID: "a1", Amount: 1000})
	if err != nil || session.Reference != "ref-a1" {
		t.Fatalf("CreateCheckout = %+v, %v", session, err)
	}
	v, err := p.VerifyPayment(context.Background(), "ref-a1")
	if err != nil || !v.Paid || v.TransactionID != "txn" {
		t.Fatalf("VerifyPayment = %+v, %v", v, err)
	}
	if _, err := p.VerifyPayment(context.Background(), "unknown"); err == nil {
		t.Fatalf("expected an error for a 404")
	}
}
