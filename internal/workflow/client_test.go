package workflow

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/closersai/leadgen/pkg/models"
	"github.com/google/uuid"
)

func engineServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	return httptest.NewServer(handler)
}

func sampleInput() models.JobInput {
	return models.JobInput{
		BusinessContext: models.BusinessContext{Industry: "SaaS", B2BOrB2C: "B2B"},
		IdealCustomer:   models.IdealCustomer{Role: "CTO"},
		SearchRules:     models.SearchRules{Platforms: []string{"linkedin"}},
		ContactStrategy: models.ContactStrategy{Tone: "casual", Goal: "meeting"},
	}
}

func TestTrigger_PayloadShape(t *testing.T) {
	var captured TriggerPayload
	var capturedContentType string
	ts := engineServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("unexpected method: %s", r.Method)
		}
		capturedContentType = r.Header.Get("Content-Type")
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Errorf("decoding trigger body: %v", err)
		}
		w.WriteHeader(http.StatusAccepted)
	})
	defer ts.Close()

	jobID := uuid.New()
	c := NewClient(ts.URL, "https://api.example.com/webhooks/workflow", "s3cret", 5*time.Second)
	if err := c.Trigger(context.Background(), jobID, sampleInput()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if capturedContentType != "application/json" {
		t.Errorf("unexpected content type: %q", capturedContentType)
	}
	if captured.JobID != jobID {
		t.Errorf("expected job_id %s, got %s", jobID, captured.JobID)
	}
	if captured.CallbackURL != "https://api.example.com/webhooks/workflow" {
		t.Errorf("unexpected callback_url: %q", captured.CallbackURL)
	}
	if captured.CallbackSecret != "s3cret" {
		t.Errorf("unexpected callback_secret: %q", captured.CallbackSecret)
	}
	if captured.Input.BusinessContext.Industry != "SaaS" {
		t.Errorf("input not forwarded, got industry %q", captured.Input.BusinessContext.Industry)
	}
}

func TestTrigger_Accepts2xx(t *testing.T) {
	for _, status := range []int{http.StatusOK, http.StatusCreated, http.StatusAccepted} {
		ts := engineServer(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
		})
		c := NewClient(ts.URL, "https://cb.example.com", "s", 5*time.Second)
		if err := c.Trigger(context.Background(), uuid.New(), sampleInput()); err != nil {
			t.Errorf("status %d: unexpected error: %v", status, err)
		}
		ts.Close()
	}
}

func TestTrigger_Rejected(t *testing.T) {
	ts := engineServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
	})
	defer ts.Close()

	c := NewClient(ts.URL, "https://cb.example.com", "s", 5*time.Second)
	err := c.Trigger(context.Background(), uuid.New(), sampleInput())
	if err == nil {
		t.Fatal("expected error for 422 response")
	}
	if !errors.Is(err, ErrTriggerFailed) {
		t.Errorf("expected ErrTriggerFailed, got: %v", err)
	}
}

func TestTrigger_ConnectionRefused(t *testing.T) {
	c := NewClient("http://127.0.0.1:1", "https://cb.example.com", "s", 5*time.Second)
	err := c.Trigger(context.Background(), uuid.New(), sampleInput())
	if err == nil {
		t.Fatal("expected error for connection refused")
	}
	if !errors.Is(err, ErrUnreachable) {
		t.Errorf("expected ErrUnreachable, got: %v", err)
	}
}

func TestTrigger_Timeout(t *testing.T) {
	ts := engineServer(t, func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(2 * time.Second)
		w.WriteHeader(http.StatusOK)
	})
	defer ts.Close()

	c := NewClient(ts.URL, "https://cb.example.com", "s", 100*time.Millisecond)
	err := c.Trigger(context.Background(), uuid.New(), sampleInput())
	if err == nil {
		t.Fatal("expected error for timeout")
	}
	if !errors.Is(err, ErrTriggerTimeout) {
		t.Errorf("expected ErrTriggerTimeout, got: %v", err)
	}
}
