package weberror

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/louisbranch/campaignforge/internal/platform/requestctx"
	apperrors "github.com/louisbranch/campaignforge/internal/services/web/platform/errors"
	webi18n "github.com/louisbranch/campaignforge/internal/services/web/platform/i18n"
	"golang.org/x/text/language"
)

func TestWriteModuleErrorRendersErrorPageForNotFound(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "/app/campaigns/missing", nil)
	rr := httptest.NewRecorder()
	WriteModuleError(rr, req, apperrors.E(apperrors.KindNotFound, "missing"))
	if rr.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusNotFound)
	}
	body := rr.Body.String()
	if !strings.Contains(body, `data-status="404"`) || !strings.Contains(body, "The page you requested was not found.") {
		t.Fatalf("body = %q", body)
	}
}

func TestWriteModuleErrorWritesPlainTextForBadRequest(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodPost, "/app/campaigns", nil)
	rr := httptest.NewRecorder()
	WriteModuleError(rr, req, apperrors.E(apperrors.KindInvalidInput, "bad form"))
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusBadRequest)
	}
	body := rr.Body.String()
	if !strings.Contains(body, "The request was not valid.") {
		t.Fatalf("body = %q, want localized invalid message", body)
	}
	if strings.Contains(body, "bad form") {
		t.Fatalf("body leaked internal error text: %q", body)
	}
}

func TestWriteModuleErrorRedirectsUnauthorizedToLogin(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "/app/campaigns/c1?page=2", nil)
	rr := httptest.NewRecorder()
	WriteModuleError(rr, req, apperrors.E(apperrors.KindUnauthorized, "expired"))
	if rr.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusSeeOther)
	}
	if got := rr.Header().Get("Location"); got != "/auth/login?next=%2Fapp%2Fcampaigns%2Fc1%3Fpage%3D2" {
		t.Fatalf("Location = %q", got)
	}
}

func TestWriteModuleErrorTreatsMissingIdentityAsInternal(t *testing.T) {
	t.Parallel()

	rr := httptest.NewRecorder()
	WriteModuleError(rr, httptest.NewRequest(http.MethodGet, "/", nil), requestctx.ErrNoIdentity)
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rr.Code)
	}
}

func TestPublicMessage(t *testing.T) {
	t.Parallel()

	ptBR := webi18n.WithTag(context.Background(), language.MustParse("pt-BR"))
	tests := []struct {
		name string
		ctx  context.Context
		err  error
		want string
	}{
		{name: "nil", ctx: context.Background(), err: nil, want: ""},
		{name: "explicit key", ctx: context.Background(), err: apperrors.EK(apperrors.KindInvalidInput, "web.record.title_required", "x"), want: "A title is required."},
		{name: "untyped", ctx: context.Background(), err: errors.New("boom"), want: "An unexpected error occurred."},
		{name: "unknown key falls back to status", ctx: context.Background(), err: apperrors.EK(apperrors.KindConflict, "web.missing.key", "x"), want: http.StatusText(http.StatusConflict)},
		{name: "localized", ctx: ptBR, err: apperrors.EK(apperrors.KindInvalidInput, "web.record.title_required", "x"), want: "O título é obrigatório."},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := PublicMessage(tc.ctx, tc.err); got != tc.want {
				t.Fatalf("PublicMessage() = %q, want %q", got, tc.want)
			}
		})
	}
}
