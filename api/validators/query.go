package validators

import (
	"net/http"
	"strconv"
	"strings"

	pkgerrors "github.com/angelmondragon/photoalbum-backend/pkg/errors"
	"github.com/go-chi/chi/v5"
)

// RequireQueryInt parses a mandatory integer query parameter.
func RequireQueryInt(r *http.Request, key string, min, max int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, key+" is required").WithDetails(map[string]any{"field": key})
	}
	return parseBoundedInt(key, raw, min, max)
}

// ParsePathInt parses an integer chi URL parameter.
func ParsePathInt(r *http.Request, key string, min, max int) (int, error) {
	return parseBoundedInt(key, strings.TrimSpace(chi.URLParam(r, key)), min, max)
}

// ParseFormInt parses a mandatory integer multipart or urlencoded form value.
func ParseFormInt(r *http.Request, key string, min, max int) (int, error) {
	raw := strings.TrimSpace(r.FormValue(key))
	if raw == "" {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, key+" is required").WithDetails(map[string]any{"field": key})
	}
	return parseBoundedInt(key, raw, min, max)
}

func parseBoundedInt(key, raw string, min, max int) (int, error) {
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, key+" must be an integer").WithDetails(map[string]any{"field": key})
	}
	if value < min || value > max {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, key+" out of range").WithDetails(map[string]any{"field": key, "min": min, "max": max})
	}
	return value, nil
}
