package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/pennywise-app/pennywise/internal/model"

	"github.com/shopspring/decimal"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := NewClient(srv.URL)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return c
}

func TestFetchExpenses(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/get_expenses" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("username"); got != "ann" {
			t.Errorf("username = %q, want ann", got)
		}
		if r.Header.Get("X-Request-ID") == "" {
			t.Error("missing X-Request-ID")
		}
		_, _ = io.WriteString(w, `{"success":true,"expenses":[
			{"id":1,"name":"Coffee","amount":4.5,"category":"Food","date":"2024-01-05"},
			{"id":2,"name":"Rent","amount":1200,"category":"Housing","date":"2024-01-01"}]}`)
	})

	got, err := c.FetchExpenses(context.Background(), "ann")
	if err != nil {
		t.Fatalf("FetchExpenses: %v", err)
	}
	if len(got) != 2 || got[0].ID != "1" || got[1].Name != "Rent" {
		t.Fatalf("expenses = %+v", got)
	}
}

func TestFetchExpensesEmptyList(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"success":true}`)
	})
	got, err := c.FetchExpenses(context.Background(), "ann")
	if err != nil {
		t.Fatalf("FetchExpenses: %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Errorf("expenses = %#v, want empty non-nil slice", got)
	}
}

func TestAddExpenseRemoteMessageVerbatim(t *testing.T) {
	var sent map[string]any
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&sent); err != nil {
			t.Errorf("decode: %v", err)
		}
		_, _ = io.WriteString(w, `{"success":false,"message":"duplicate"}`)
	})

	ne, err := model.Draft{Name: "Coffee", Amount: "4.50", Category: "Food", Date: "2024-01-05"}.Parse()
	if err != nil {
		t.Fatal(err)
	}
	err = c.AddExpense(context.Background(), "ann", ne)

	var re *RemoteError
	if !errors.As(err, &re) {
		t.Fatalf("err = %v (%T), want *RemoteError", err, err)
	}
	if err.Error() != "duplicate" || Message(err) != "duplicate" {
		t.Errorf("message = %q / %q, want duplicate", err.Error(), Message(err))
	}
	if sent["username"] != "ann" || sent["date"] != "2024-01-05" {
		t.Errorf("request body = %v", sent)
	}
	if amt, ok := sent["amount"].(float64); !ok || amt != 4.5 {
		t.Errorf("amount = %#v, want number 4.5", sent["amount"])
	}
}

func TestDeleteExpensesSendsNumericIDs(t *testing.T) {
	var raw []byte
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		raw, _ = io.ReadAll(r.Body)
		_, _ = io.WriteString(w, `{"success":true,"message":"Expenses deleted"}`)
	})
	if err := c.DeleteExpenses(context.Background(), []model.ID{"1", "3"}); err != nil {
		t.Fatalf("DeleteExpenses: %v", err)
	}
	if string(raw) != `{"expense_ids":[1,3]}` {
		t.Errorf("body = %s", raw)
	}
}

func TestErrorClassification(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		body      string
		transport bool
		msg       string
	}{
		{"non-2xx with message", http.StatusNotFound, `{"success":false,"message":"User not found"}`, false, "User not found"},
		{"non-2xx without body", http.StatusInternalServerError, ``, false, ""},
		{"malformed 2xx", http.StatusOK, `<html>`, true, ""},
		{"missing success", http.StatusOK, `{"expenses":[]}`, true, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			})
			_, err := c.FetchExpenses(context.Background(), "ann")
			if err == nil {
				t.Fatal("expected error")
			}
			if IsTransport(err) != tt.transport {
				t.Fatalf("IsTransport(%v) = %v, want %v", err, !tt.transport, tt.transport)
			}
			if tt.msg != "" && err.Error() != tt.msg {
				t.Errorf("Error() = %q, want %q", err.Error(), tt.msg)
			}
		})
	}
}

func TestTimeoutIsTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	c, err := NewClient(srv.URL, WithTimeout(50*time.Millisecond))
	if err != nil {
		t.Fatal(err)
	}
	_, err = c.FetchExpenses(context.Background(), "ann")
	if !IsTransport(err) {
		t.Fatalf("err = %v, want transport error", err)
	}
	if !strings.HasPrefix(Message(err), "Could not reach the server") {
		t.Errorf("Message = %q", Message(err))
	}
}

func TestOversizedResponseIsNotTransportError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"success":true,"expenses":[`)
		row := `{"id":1,"name":"Coffee","amount":4.5,"category":"Food","date":"2024-01-05"},`
		for written := 0; written <= maxBodySize; written += len(row) {
			_, _ = io.WriteString(w, row)
		}
		_, _ = io.WriteString(w, `{"id":2,"name":"Rent","amount":1,"category":"Housing","date":"2024-01-01"}]}`)
	})

	_, err := c.FetchExpenses(context.Background(), "ann")
	if !errors.Is(err, ErrResponseTooLarge) {
		t.Fatalf("err = %v, want ErrResponseTooLarge", err)
	}
	if IsTransport(err) {
		t.Errorf("oversized response classified as transport error: %v", err)
	}
}

func TestThresholdNullAndSet(t *testing.T) {
	body := `{"success":true,"threshold":null}`
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			var req map[string]any
			_ = json.NewDecoder(r.Body).Decode(&req)
			body = `{"success":true,"threshold":` + strings.TrimSpace(string(mustJSON(t, req["amount"]))) + `}`
			_, _ = io.WriteString(w, `{"success":true,"message":"Threshold updated"}`)
			return
		}
		_, _ = io.WriteString(w, body)
	})

	th, err := c.Threshold(context.Background(), "ann")
	if err != nil {
		t.Fatalf("Threshold: %v", err)
	}
	if th.IsSet() {
		t.Fatalf("null threshold reported as set: %v", th.Amount)
	}

	msg, err := c.SetThreshold(context.Background(), "ann", decimal.RequireFromString("250.5"))
	if err != nil || msg != "Threshold updated" {
		t.Fatalf("SetThreshold = %q, %v", msg, err)
	}
	th, err = c.Threshold(context.Background(), "ann")
	if err != nil {
		t.Fatal(err)
	}
	if !th.IsSet() || !th.Amount.Equal(decimal.RequireFromString("250.5")) {
		t.Errorf("threshold = %v, want 250.5", th.Amount)
	}
}

func TestUpdateProfileNullPassword(t *testing.T) {
	var raw map[string]json.RawMessage
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&raw)
		_, _ = io.WriteString(w, `{"success":true,"message":"Profile updated"}`)
	})
	msg, err := c.UpdateProfile(context.Background(), model.ProfileUpdate{Username: "ann", Name: "Ann", Email: "a@b.c"})
	if err != nil || msg != "Profile updated" {
		t.Fatalf("UpdateProfile = %q, %v", msg, err)
	}
	if string(raw["password"]) != "null" {
		t.Errorf("password = %s, want null", raw["password"])
	}
}

func TestUploadReceipt(t *testing.T) {
	png := append([]byte("\x89PNG\r\n\x1a\n"), bytes.Repeat([]byte{0}, 32)...)
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("ParseMultipartForm: %v", err)
		}
		if r.FormValue("username") != "ann" {
			t.Errorf("username = %q", r.FormValue("username"))
		}
		f, hdr, err := r.FormFile("file")
		if err != nil {
			t.Errorf("FormFile: %v", err)
			return
		}
		defer f.Close()
		if hdr.Filename != "lunch.png" {
			t.Errorf("filename = %q", hdr.Filename)
		}
		_, _ = io.WriteString(w, `{"success":true,"message":"Receipt processed"}`)
	})

	msg, err := c.UploadReceipt(context.Background(), "ann", "/tmp/receipts/lunch.png", bytes.NewReader(png))
	if err != nil || msg != "Receipt processed" {
		t.Fatalf("UploadReceipt = %q, %v", msg, err)
	}

	_, err = c.UploadReceipt(context.Background(), "ann", "notes.txt", strings.NewReader("just text"))
	var ve *model.ValidationError
	if !errors.As(err, &ve) {
		t.Errorf("text upload err = %v, want validation error", err)
	}
}

func TestNewClientRejectsBadURL(t *testing.T) {
	for _, u := range []string{"ftp://example.com", "http://", "::"} {
		if _, err := NewClient(u); err == nil {
			t.Errorf("NewClient(%q) succeeded", u)
		}
	}
	c, err := NewClient("")
	if err != nil || c.BaseURL() != DefaultBaseURL {
		t.Errorf("NewClient(\"\") = %v, %v", c, err)
	}
}

func mustJSON(t *testing.T, v any) []byte {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatal(err)
	}
	return b
}
