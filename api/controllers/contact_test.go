package controllers

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/folio-storefront/internal/contact"
	"github.com/angelmondragon/folio-storefront/pkg/db/models"
	"github.com/angelmondragon/folio-storefront/pkg/logger"
	"github.com/angelmondragon/folio-storefront/pkg/pagination"
)

type stubContact struct {
	input    contact.Submission
	remoteIP string
}

func (s *stubContact) Submit(_ context.Context, input contact.Submission, remoteIP string) (*models.ContactMessage, error) {
	s.input, s.remoteIP = input, remoteIP
	return &models.ContactMessage{ID: uuid.New(), CreatedAt: time.Now()}, nil
}

func (s *stubContact) List(context.Context, pagination.Params) (*contact.MessageList, error) {
	return &contact.MessageList{}, nil
}

func TestContactSubmit(t *testing.T) {
	svc := &stubContact{}
	body := `{"name":"Ada","email":"ada@example.com","message":"Can you build a store?"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/contact", bytes.NewBufferString(body))
	req.Header.Set("X-Forwarded-For", "203.0.113.9")
	resp := httptest.NewRecorder()
	ContactSubmit(svc, logger.Nop()).ServeHTTP(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", resp.Code, resp.Body.String())
	}
	if svc.remoteIP != "203.0.113.9" || svc.input.Name != "Ada" {
		t.Fatalf("unexpected submission %+v from %q", svc.input, svc.remoteIP)
	}
}

func TestContactSubmitValidation(t *testing.T) {
	for name, body := range map[string]string{
		"missing message": `{"name":"Ada","email":"ada@example.com"}`,
		"bad email":       `{"name":"Ada","email":"nope","message":"hi"}`,
		"missing name":    `{"email":"ada@example.com","message":"hi"}`,
	} {
		t.Run(name, func(t *testing.T) {
			resp := httptest.NewRecorder()
			ContactSubmit(&stubContact{}, logger.Nop()).ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/api/v1/contact", bytes.NewBufferString(body)))
			if resp.Code != http.StatusBadRequest {
				t.Fatalf("expected 400 got %d", resp.Code)
			}
		})
	}
}
