package validators

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	pkgerrors "github.com/angelmondragon/scrapscan-backend/pkg/errors"
)

func TestParseQueryUUIDs(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	req := httptest.NewRequest(http.MethodGet, "/stock?product_ids="+a.String()+",%20,"+b.String()+"&product_ids="+a.String(), nil)

	ids, err := ParseQueryUUIDs(req, "product_ids")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ids) != 3 || ids[0] != a || ids[1] != b || ids[2] != a {
		t.Fatalf("unexpected ids %v", ids)
	}

	req = httptest.NewRequest(http.MethodGet, "/stock", nil)
	ids, err = ParseQueryUUIDs(req, "product_ids")
	if err != nil || ids == nil || len(ids) != 0 {
		t.Fatalf("expected empty slice, got %v (%v)", ids, err)
	}

	req = httptest.NewRequest(http.MethodGet, "/stock?product_ids=nope", nil)
	if _, err := ParseQueryUUIDs(req, "product_ids"); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestParseUUIDParam(t *testing.T) {
	id := uuid.New()
	routeCtx := chi.NewRouteContext()
	routeCtx.URLParams.Add("scrapId", id.String())
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx))

	got, err := ParseUUIDParam(req, "scrapId")
	if err != nil || got != id {
		t.Fatalf("expected %s got %s (%v)", id, got, err)
	}
	if _, err := ParseUUIDParam(req, "missing"); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

type sampleBody struct {
	Barcode string `json:"barcode" validate:"required"`
}

func TestDecodeJSONBody(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"barcode":"123"}`))
	var body sampleBody
	if err := DecodeJSONBody(req, &body); err != nil || body.Barcode != "123" {
		t.Fatalf("unexpected decode result %+v (%v)", body, err)
	}

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"barcode":"123","extra":1}`))
	if err := DecodeJSONBody(req, &sampleBody{}); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected unknown field rejection, got %v", err)
	}

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{}`))
	err := DecodeJSONBody(req, &sampleBody{})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	details, ok := typed.Details().(map[string]string)
	if !ok || details["barcode"] != "is required" {
		t.Fatalf("unexpected details %v", typed.Details())
	}
}

func TestSanitizeString(t *testing.T) {
	if got := SanitizeString("  2101234050002 \n", 0); got != "2101234050002" {
		t.Fatalf("unexpected %q", got)
	}
	if got := SanitizeString("abcdef", 3); got != "abc" {
		t.Fatalf("unexpected %q", got)
	}
	if got := SanitizeString("0104012345\x1d1012\r", 0); got != "01040123451012" {
		t.Fatalf("control characters should be dropped, got %q", got)
	}
	if got := SanitizeString("crème brûlée", 4); got != "crèm" {
		t.Fatalf("truncation should respect runes, got %q", got)
	}
}
