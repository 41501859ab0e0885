package apperr

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"golang.org/x/text/language"
)

type codedError struct {
	code string
	msg  string
}

func (e codedError) Error() string     { return e.msg }
func (e codedError) ErrorCode() string { return e.code }

func TestClassifyMessages(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"network", errors.New("Network request failed"), KindNetwork},
		{"offline", errors.New("device is offline"), KindNetwork},
		{"connection", errors.New("dial tcp: connection refused"), KindNetwork},
		{"login", errors.New("Invalid login credentials"), KindAuth},
		{"token", errors.New("JWT token expired"), KindAuth},
		{"auth code", codedError{code: "auth/user-disabled", msg: "disabled"}, KindAuth},
		{"validation", errors.New("email is required"), KindValidation},
		{"invalid", errors.New("invalid input syntax"), KindValidation},
		{"server", errors.New("internal server error"), KindServer},
		{"timeout", errors.New("gateway timeout"), KindServer},
		{"not found", errors.New("resource not found"), KindNotFound},
		{"not-found code", codedError{code: "storage/not-found", msg: "object"}, KindNotFound},
		{"forbidden", errors.New("forbidden"), KindPermission},
		{"duplicate", errors.New(`duplicate key value violates unique constraint "users_pkey"`), KindConflict},
		{"duplicate code", codedError{code: "23505", msg: "conflict"}, KindConflict},
		{"unknown", errors.New("something odd"), KindUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.err))
		})
	}
}

func TestClassifyKeepsExistingKind(t *testing.T) {
	err := fmt.Errorf("fetch profile: %w", New(KindPermission, "profile", errors.New("row level security")))
	assert.Equal(t, KindPermission, Classify(err))
	assert.Equal(t, KindAuth, Classify(ErrNotAuthenticated))
	assert.Equal(t, KindUnknown, KindOf(nil))
}

func TestClassifyDeadline(t *testing.T) {
	err := fmt.Errorf("get movie: %w", context.DeadlineExceeded)
	assert.Equal(t, KindNetwork, Classify(err))
}

func TestFromStatus(t *testing.T) {
	assert.Equal(t, KindAuth, FromStatus("op", http.StatusUnauthorized, "", "").Kind)
	assert.Equal(t, KindNotFound, FromStatus("op", http.StatusNotFound, "", "").Kind)
	assert.Equal(t, KindServer, FromStatus("op", http.StatusBadGateway, "", "").Kind)
	assert.Equal(t, KindConflict, FromStatus("op", http.StatusConflict, "", "").Kind)

	err := FromStatus("create profile", http.StatusBadRequest, DuplicateKeyCode, "duplicate key")
	assert.Equal(t, KindConflict, err.Kind)
	assert.Equal(t, DuplicateKeyCode, err.ErrorCode())
	assert.Contains(t, err.Error(), "create profile")
	assert.Contains(t, err.Error(), "status 400")
}

func TestWrap(t *testing.T) {
	assert.Nil(t, Wrap("op", nil))

	base := errors.New("connection reset by peer")
	err := Wrap("list movies", base)
	assert.Equal(t, KindNetwork, KindOf(err))
	assert.True(t, errors.Is(err, base))
}

func TestUserMessage(t *testing.T) {
	ptBR := language.MustParse("pt-BR")

	assert.Equal(t, "", UserMessage(ptBR, nil))
	assert.Equal(t, "O conteúdo solicitado não foi encontrado.",
		UserMessage(ptBR, New(KindNotFound, "movie", errors.New("missing"))))
	assert.Equal(t, "The requested content was not found.",
		UserMessage(language.AmericanEnglish, New(KindNotFound, "movie", errors.New("missing"))))
	assert.Equal(t, "Você precisa fazer login primeiro.", UserMessage(ptBR, ErrNotAuthenticated))
	assert.Equal(t, "This movie is already in your watched list.", UserMessage(language.English, ErrAlreadyWatched))
}

func TestAuthMessage(t *testing.T) {
	ptBR := language.MustParse("pt-BR")

	assert.Equal(t, "Email ou senha incorretos", AuthMessage(ptBR, errors.New("Invalid login credentials")))
	assert.Equal(t, "Este email já está registrado", AuthMessage(ptBR, errors.New("User already registered")))
	assert.Equal(t, "A senha é muito fraca", AuthMessage(ptBR, errors.New("weak password")))
	assert.Equal(t, "Erro de autenticação. Tente novamente.", AuthMessage(ptBR, errors.New("boom")))
	assert.Equal(t, "Incorrect email or password", AuthMessage(language.French, errors.New("Invalid login credentials")))
}
