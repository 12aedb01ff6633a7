package exam

import "strings"

// FailureCategory is the user-facing class of an analysis failure.
type FailureCategory string

const (
	FailureAuth    FailureCategory = "auth"
	FailureQuota   FailureCategory = "quota"
	FailureGeneric FailureCategory = "generic"
)

var (
	authMarkers  = []string{"api key not valid", "invalid api key", "api_key_invalid"}
	quotaMarkers = []string{"quota", "rate limit", "resource_exhausted"}
)

// ClassifyFailure matches the error text against markers the model
// services are known to use. Upstream wording changes fall to generic.
func ClassifyFailure(err error) FailureCategory {
	if err == nil {
		return FailureGeneric
	}
	text := strings.ToLower(err.Error())
	if containsAny(text, authMarkers) {
		return FailureAuth
	}
	if containsAny(text, quotaMarkers) {
		return FailureQuota
	}
	return FailureGeneric
}

// FailureMessage is the flash text shown on the upload form.
func FailureMessage(err error) string {
	switch ClassifyFailure(err) {
	case FailureAuth:
		return "Erro de autenticação: GEMINI_API_KEY inválida. Verifique a chave configurada."
	case FailureQuota:
		return "Cota da API excedida. Tente novamente mais tarde."
	default:
		return "Erro durante a análise: " + err.Error()
	}
}

func containsAny(s string, markers []string) bool {
	for _, m := range markers {
		if strings.Contains(s, m) {
			return true
		}
	}
	return false
}
