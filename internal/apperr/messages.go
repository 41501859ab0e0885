package apperr

import (
	"errors"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

// Message keys
const (
	msgNetwork            = "error.network"
	msgValidation         = "error.validation"
	msgServer             = "error.server"
	msgNotFound           = "error.not_found"
	msgPermission         = "error.permission"
	msgConflict           = "error.conflict"
	msgUnknown            = "error.unknown"
	msgNotAuthenticated   = "error.not_authenticated"
	msgAlreadyWatched     = "error.already_watched"
	msgInvalidCredentials = "auth.invalid_credentials"
	msgAlreadyRegistered  = "auth.already_registered"
	msgWeakPassword       = "auth.weak_password"
	msgAuthNetwork        = "auth.network"
	msgAuthFailed         = "auth.failed"
)

var (
	supported = []language.Tag{language.English, language.BrazilianPortuguese}
	matcher   = language.NewMatcher(supported)
	messages  = newCatalog()
)

func newCatalog() *catalog.Builder {
	b := catalog.NewBuilder(catalog.Fallback(language.English))

	set := func(key, en, ptBR string) {
		_ = b.SetString(language.English, key, en)
		_ = b.SetString(language.BrazilianPortuguese, key, ptBR)
	}

	set(msgNetwork,
		"Internet connection failed. Check your connection and try again.",
		"Falha na conexão com a internet. Verifique sua conexão e tente novamente.")
	set(msgValidation,
		"Some fields contain invalid information. Check the data and try again.",
		"Alguns campos contêm informações inválidas. Verifique os dados e tente novamente.")
	set(msgServer,
		"The server is having problems. Try again later.",
		"O servidor está enfrentando problemas. Tente novamente mais tarde.")
	set(msgNotFound,
		"The requested content was not found.",
		"O conteúdo solicitado não foi encontrado.")
	set(msgPermission,
		"You do not have permission to access this content.",
		"Você não tem permissão para acessar este conteúdo.")
	set(msgConflict,
		"This record already exists.",
		"Este registro já existe.")
	set(msgUnknown,
		"An unexpected error occurred. Try again later.",
		"Ocorreu um erro inesperado. Tente novamente mais tarde.")
	set(msgNotAuthenticated,
		"You need to sign in first.",
		"Você precisa fazer login primeiro.")
	set(msgAlreadyWatched,
		"This movie is already in your watched list.",
		"Este filme já está na sua lista de assistidos.")
	set(msgInvalidCredentials,
		"Incorrect email or password",
		"Email ou senha incorretos")
	set(msgAlreadyRegistered,
		"This email is already registered",
		"Este email já está registrado")
	set(msgWeakPassword,
		"The password is too weak",
		"A senha é muito fraca")
	set(msgAuthNetwork,
		"Connection failed. Check your internet.",
		"Falha na conexão. Verifique sua internet.")
	set(msgAuthFailed,
		"Authentication error. Try again.",
		"Erro de autenticação. Tente novamente.")

	return b
}

func printer(tag language.Tag) *message.Printer {
	_, i, _ := matcher.Match(tag)
	return message.NewPrinter(supported[i], message.Catalog(messages))
}

// UserMessage returns the localized message shown for err
func UserMessage(tag language.Tag, err error) string {
	p := printer(tag)

	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNotAuthenticated):
		return p.Sprintf(msgNotAuthenticated)
	case errors.Is(err, ErrAlreadyWatched):
		return p.Sprintf(msgAlreadyWatched)
	}

	switch Classify(err) {
	case KindNetwork:
		return p.Sprintf(msgNetwork)
	case KindAuth:
		return AuthMessage(tag, err)
	case KindValidation:
		return p.Sprintf(msgValidation)
	case KindServer:
		return p.Sprintf(msgServer)
	case KindNotFound:
		return p.Sprintf(msgNotFound)
	case KindPermission:
		return p.Sprintf(msgPermission)
	case KindConflict:
		return p.Sprintf(msgConflict)
	default:
		return p.Sprintf(msgUnknown)
	}
}

// AuthMessage maps a sign-in / sign-up failure to a localized message
func AuthMessage(tag language.Tag, err error) string {
	if err == nil {
		return ""
	}
	p := printer(tag)
	if errors.Is(err, ErrNotAuthenticated) {
		return p.Sprintf(msgNotAuthenticated)
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "invalid login credentials"):
		return p.Sprintf(msgInvalidCredentials)
	case strings.Contains(msg, "already registered"):
		return p.Sprintf(msgAlreadyRegistered)
	case strings.Contains(msg, "weak password"), strings.Contains(msg, "password should be at least"),
		strings.Contains(msg, "password must have at least"):
		return p.Sprintf(msgWeakPassword)
	case strings.Contains(msg, "network request failed"), Classify(err) == KindNetwork:
		return p.Sprintf(msgAuthNetwork)
	}
	return p.Sprintf(msgAuthFailed)
}
