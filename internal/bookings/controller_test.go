package bookings

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"busline/internal/shared/validation"
	"busline/internal/tickets"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type envelope struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Errors  any             `json:"errors"`
}

func (e envelope) kind() any {
	if detail, ok := e.Errors.(map[string]any); ok {
		return detail["kind"]
	}
	return nil
}

func newTestRouter(h *harness) *gin.Engine {
	gin.SetMode(gin.TestMode)
	validation.Register()

	c := NewController(h.svc, tickets.NewRenderer())
	r := gin.New()
	r.POST("/bookings", c.CreateBooking)
	r.GET("/bookings/:id", c.GetBooking)
	r.POST("/bookings/:id/reserve", c.ReserveBooking)
	r.POST("/bookings/:id/confirm", c.ConfirmBooking)
	r.POST("/bookings/:id/cancel", c.CancelBooking)
	r.GET("/bookings/:id/ticket.pdf", c.TicketPDF)
	r.GET("/bookings/:id/qr.png", c.TicketQR)
	return r
}

func serve(t *testing.T, r *gin.Engine, method, path string, body any) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var env envelope
	if w.Header().Get("Content-Type") == "application/json; charset=utf-8" {
		if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
			t.Fatalf("bad envelope %s: %v", w.Body.String(), err)
		}
	}
	return w, env
}

func TestControllerCreateAndReserve(t *testing.T) {
	h := newHarness(t, 5)
	r := newTestRouter(h)

	w, env := serve(t, r, http.MethodPost, "/bookings", h.request(h.a, h.c))
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	var created Booking
	if err := json.Unmarshal(env.Data, &created); err != nil {
		t.Fatal(err)
	}
	if created.State != StateDraft || created.ID == uuid.Nil {
		t.Fatalf("unexpected booking %+v", created)
	}

	w, env = serve(t, r, http.MethodPost, "/bookings/"+created.ID.String()+"/reserve", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var reserved Booking
	if err := json.Unmarshal(env.Data, &reserved); err != nil {
		t.Fatal(err)
	}
	if reserved.State != StateReserved || reserved.TotalAmount != 10500 {
		t.Fatalf("unexpected booking %+v", reserved)
	}
}

func TestControllerErrors(t *testing.T) {
	h := newHarness(t, 1)
	r := newTestRouter(h)
	held := h.reserve(h.a, h.c)
	waiting := h.create(h.a, h.c)

	badPhone := h.request(h.a, h.c)
	badPhone.Passenger.Phone = "call me"

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		code   int
		kind   string
	}{
		{"bind failure", http.MethodPost, "/bookings", badPhone, http.StatusBadRequest, ""},
		{"malformed id", http.MethodGet, "/bookings/nope", nil, http.StatusBadRequest, ""},
		{"unknown booking", http.MethodGet, "/bookings/" + uuid.NewString(), nil, http.StatusNotFound, "not_found"},
		{"quota full", http.MethodPost, "/bookings/" + waiting.ID.String() + "/reserve", nil, http.StatusConflict, "admission_denied"},
		{"unpaid confirm", http.MethodPost, "/bookings/" + held.ID.String() + "/confirm", nil, http.StatusPaymentRequired, "payment_incomplete"},
		{"ticket before confirmation", http.MethodGet, "/bookings/" + held.ID.String() + "/ticket.pdf", nil, http.StatusConflict, "state_conflict"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, env := serve(t, r, tt.method, tt.path, tt.body)
			if w.Code != tt.code {
				t.Fatalf("expected %d, got %d: %s", tt.code, w.Code, w.Body.String())
			}
			if env.Status != "error" {
				t.Fatalf("expected error envelope, got %s", w.Body.String())
			}
			if tt.kind != "" && env.kind() != tt.kind {
				t.Fatalf("expected kind %s, got %v", tt.kind, env.Errors)
			}
		})
	}
}

func TestControllerCancelWithReason(t *testing.T) {
	h := newHarness(t, 5)
	r := newTestRouter(h)
	b := h.reserve(h.a, h.c)

	w, env := serve(t, r, http.MethodPost, "/bookings/"+b.ID.String()+"/cancel", CancelRequest{Reason: "changed plans"})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var cancelled Booking
	if err := json.Unmarshal(env.Data, &cancelled); err != nil {
		t.Fatal(err)
	}
	if cancelled.State != StateCancelled || cancelled.CancellationReason != "changed plans" {
		t.Fatalf("unexpected booking %+v", cancelled)
	}
}

func TestControllerTicketDocuments(t *testing.T) {
	h := newHarness(t, 5)
	r := newTestRouter(h)
	b := h.confirm(h.a, h.c)

	w, _ := serve(t, r, http.MethodGet, "/bookings/"+b.ID.String()+"/ticket.pdf", nil)
	if w.Code != http.StatusOK || w.Header().Get("Content-Type") != "application/pdf" {
		t.Fatalf("unexpected pdf response %d %s", w.Code, w.Header().Get("Content-Type"))
	}
	if !bytes.HasPrefix(w.Body.Bytes(), []byte("%PDF")) {
		t.Fatal("body is not a pdf")
	}

	w, _ = serve(t, r, http.MethodGet, "/bookings/"+b.ID.String()+"/qr.png", nil)
	if w.Code != http.StatusOK || w.Header().Get("Content-Type") != "image/png" {
		t.Fatalf("unexpected qr response %d %s", w.Code, w.Header().Get("Content-Type"))
	}
	if !bytes.HasPrefix(w.Body.Bytes(), []byte("\x89PNG")) {
		t.Fatal("body is not a png")
	}
}
