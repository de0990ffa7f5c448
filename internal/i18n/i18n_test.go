package i18n

import (
	"context"
	"testing"
)

func initLang(t *testing.T, lang string) context.Context {
	t.Helper()
	if err := Init(lang); err != nil {
		t.Fatalf("Init(%q): %v", lang, err)
	}
	loc := NewLocalizer(lang)
	return WithLocalizer(context.Background(), loc)
}

func TestTranslatePortuguese(t *testing.T) {
	ctx := initLang(t, "pt")

	got := T(ctx, "error.unauthorized")
	if got != "Sessão expirada ou inexistente. Faça login novamente." {
		t.Errorf("T(error.unauthorized) = %q", got)
	}

	got = T(ctx, "error.email_taken")
	if got != "Já existe uma conta com este e-mail." {
		t.Errorf("T(error.email_taken) = %q", got)
	}
}

func TestTranslateEnglish(t *testing.T) {
	ctx := initLang(t, "en")

	got := T(ctx, "error.generation_failed")
	if got != "Could not generate exam questions. Please try again." {
		t.Errorf("T(error.generation_failed) = %q", got)
	}
}

func TestMissingKey(t *testing.T) {
	ctx := initLang(t, "pt")

	got := T(ctx, "NonExistentKey")
	if got != "NonExistentKey" {
		t.Errorf("T(NonExistentKey) = %q, want 'NonExistentKey'", got)
	}
}
