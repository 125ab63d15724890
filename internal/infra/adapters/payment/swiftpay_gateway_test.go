//go:build !integration

package payment

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"nyota-pay/internal/domain"
	"nyota-pay/internal/domain/model"
)

func newTestGateway(t *testing.T, handler http.HandlerFunc) (*SwiftPayGateway, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	gw, err := NewSwiftPayGateway(srv.URL, "test-key", "till-42")
	if err != nil {
		t.Fatalf("NewSwiftPayGateway: %v", err)
	}
	return gw, srv
}

func chargeReq() model.ChargeRequest {
	return model.ChargeRequest{
		Phone:       "254712345678",
		AmountKES:   129,
		Reference:   "NYT-TEST",
		Description: "Application processing fee",
	}
}

func TestInitiateSTKPush(t *testing.T) {
	t.Run("sends credentials and normalized payload", func(t *testing.T) {
		var gotPath, gotAuth string
		var gotBody map[string]any
		gw, _ := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
			gotPath = r.URL.Path
			gotAuth = r.Header.Get("Authorization")
			_ = json.NewDecoder(r.Body).Decode(&gotBody)
			_ = json.NewEncoder(w).Encode(map[string]any{
				"success": true,
				"data":    map[string]any{"checkout_id": "abc123XY"},
			})
		})

		checkout, err := gw.InitiateSTKPush(context.Background(), chargeReq())
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if checkout.ID != "abc123XY" {
			t.Errorf("checkout id = %q, want abc123XY", checkout.ID)
		}
		if gotPath != "/api/mpesa/stk-push-api" {
			t.Errorf("path = %q", gotPath)
		}
		if gotAuth != "Bearer test-key" {
			t.Errorf("auth header = %q", gotAuth)
		}
		if gotBody["phone_number"] != "254712345678" {
			t.Errorf("phone_number = %v", gotBody["phone_number"])
		}
		if gotBody["till_id"] != "till-42" {
			t.Errorf("till_id = %v", gotBody["till_id"])
		}
		if gotBody["amount"] != float64(129) {
			t.Errorf("amount = %v", gotBody["amount"])
		}
		if gotBody["reference"] != "NYT-TEST" {
			t.Errorf("reference = %v", gotBody["reference"])
		}
	})

	t.Run("checkout id extraction tries all known shapes", func(t *testing.T) {
		shapes := []struct {
			name string
			body map[string]any
			want string
		}{
			{"nested snake case", map[string]any{"data": map[string]any{"checkout_id": "id-1"}}, "id-1"},
			{"nested camel case", map[string]any{"data": map[string]any{"checkoutId": "id-2"}}, "id-2"},
			{"daraja style", map[string]any{"checkoutRequestId": "ws_CO_3"}, "ws_CO_3"},
			{"flat snake case", map[string]any{"checkout_id": "id-4"}, "id-4"},
			{"flat camel case", map[string]any{"checkoutId": "id-5"}, "id-5"},
			{"numeric id stringified", map[string]any{"checkout_id": 987654}, "987654"},
		}
		for _, shape := range shapes {
			t.Run(shape.name, func(t *testing.T) {
				gw, _ := newTestGateway(t, func(w http.ResponseWriter, _ *http.Request) {
					_ = json.NewEncoder(w).Encode(shape.body)
				})
				checkout, err := gw.InitiateSTKPush(context.Background(), chargeReq())
				if err != nil {
					t.Fatalf("expected no error, got %v", err)
				}
				if checkout.ID != shape.want {
					t.Errorf("checkout id = %q, want %q", checkout.ID, shape.want)
				}
			})
		}
	})

	t.Run("200 without checkout id is a rejection", func(t *testing.T) {
		gw, _ := newTestGateway(t, func(w http.ResponseWriter, _ *http.Request) {
			_ = json.NewEncoder(w).Encode(map[string]any{"success": true, "message": "queued"})
		})
		_, err := gw.InitiateSTKPush(context.Background(), chargeReq())
		ge, ok := domain.AsGatewayError(err)
		if !ok {
			t.Fatalf("expected GatewayError, got %v", err)
		}
		if ge.Message != "queued" {
			t.Errorf("message = %q, want remote message passthrough", ge.Message)
		}
	})

	t.Run("non-2xx surfaces remote message and status", func(t *testing.T) {
		gw, _ := newTestGateway(t, func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusPaymentRequired)
			_ = json.NewEncoder(w).Encode(map[string]any{"error": "insufficient till balance"})
		})
		_, err := gw.InitiateSTKPush(context.Background(), chargeReq())
		ge, ok := domain.AsGatewayError(err)
		if !ok {
			t.Fatalf("expected GatewayError, got %v", err)
		}
		if ge.StatusCode != http.StatusPaymentRequired {
			t.Errorf("status = %d, want 402", ge.StatusCode)
		}
		if ge.Message != "insufficient till balance" {
			t.Errorf("message = %q", ge.Message)
		}
	})

	t.Run("unparsable body is a rejection even on 200", func(t *testing.T) {
		gw, _ := newTestGateway(t, func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte("<html>gateway timeout</html>"))
		})
		_, err := gw.InitiateSTKPush(context.Background(), chargeReq())
		if _, ok := domain.AsGatewayError(err); !ok {
			t.Fatalf("expected GatewayError, got %v", err)
		}
	})

	t.Run("transport failure is a plain error, not a rejection", func(t *testing.T) {
		gw, srv := newTestGateway(t, func(w http.ResponseWriter, _ *http.Request) {})
		srv.Close()
		_, err := gw.InitiateSTKPush(context.Background(), chargeReq())
		if err == nil {
			t.Fatal("expected error")
		}
		if _, ok := domain.AsGatewayError(err); ok {
			t.Error("transport failure must not look like a gateway rejection")
		}
	})
}

func TestLookupStatus(t *testing.T) {
	t.Run("sends checkout id and api key in body", func(t *testing.T) {
		var gotPath string
		var gotBody map[string]any
		gw, _ := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
			gotPath = r.URL.Path
			_ = json.NewDecoder(r.Body).Decode(&gotBody)
			_ = json.NewEncoder(w).Encode(map[string]any{"status": "pending"})
		})
		if _, err := gw.LookupStatus(context.Background(), "abc123XY"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if gotPath != "/api/mpesa-verification-proxy" {
			t.Errorf("path = %q", gotPath)
		}
		if gotBody["checkoutId"] != "abc123XY" || gotBody["apiKey"] != "test-key" {
			t.Errorf("body = %v", gotBody)
		}
	})

	t.Run("maps gateway status text", func(t *testing.T) {
		cases := []struct {
			name string
			body map[string]any
			want model.PaymentStatus
		}{
			{"completed is paid", map[string]any{"status": "completed"}, model.PaymentStatusPaid},
			{"nested status", map[string]any{"data": map[string]any{"status": "paid"}}, model.PaymentStatusPaid},
			{"nested state", map[string]any{"data": map[string]any{"state": "SUCCESS"}}, model.PaymentStatusPaid},
			{"result status", map[string]any{"result": map[string]any{"status": "failed"}}, model.PaymentStatusFailed},
			{"cancelled is failed", map[string]any{"status": "cancelled"}, model.PaymentStatusFailed},
			{"success flag wins without text", map[string]any{"success": true}, model.PaymentStatusPaid},
			{"success false alone stays pending", map[string]any{"success": false, "status": "processing"}, model.PaymentStatusPending},
			{"unknown text is pending", map[string]any{"status": "queued"}, model.PaymentStatusPending},
			{"empty body is pending", map[string]any{}, model.PaymentStatusPending},
		}
		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				gw, _ := newTestGateway(t, func(w http.ResponseWriter, _ *http.Request) {
					_ = json.NewEncoder(w).Encode(tc.body)
				})
				res, err := gw.LookupStatus(context.Background(), "abc123XY")
				if err != nil {
					t.Fatalf("expected no error, got %v", err)
				}
				if res.Status != tc.want {
					t.Errorf("status = %q, want %q", res.Status, tc.want)
				}
			})
		}
	})

	t.Run("non-2xx is an error, not a failed payment", func(t *testing.T) {
		gw, _ := newTestGateway(t, func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
			_ = json.NewEncoder(w).Encode(map[string]any{"message": "upstream busy"})
		})
		res, err := gw.LookupStatus(context.Background(), "abc123XY")
		if err == nil {
			t.Fatalf("expected error, got result %+v", res)
		}
	})

	t.Run("unparsable body is an error", func(t *testing.T) {
		gw, _ := newTestGateway(t, func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte("not json"))
		})
		if _, err := gw.LookupStatus(context.Background(), "abc123XY"); err == nil {
			t.Fatal("expected error")
		}
	})
}

func TestNewSwiftPayGateway(t *testing.T) {
	if _, err := NewSwiftPayGateway("", "", "till"); err != domain.ErrNotConfigured {
		t.Errorf("missing api key: err = %v, want ErrNotConfigured", err)
	}
	if _, err := NewSwiftPayGateway("", "key", ""); err != domain.ErrNotConfigured {
		t.Errorf("missing till id: err = %v, want ErrNotConfigured", err)
	}
	gw, err := NewSwiftPayGateway("", "key", "till")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if gw.baseURL != DefaultBaseURL {
		t.Errorf("baseURL = %q, want default", gw.baseURL)
	}
}
