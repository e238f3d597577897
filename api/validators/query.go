package validators

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	pkgerrors "github.com/angelmondragon/scrapscan-backend/pkg/errors"
)

// maxQueryUUIDs bounds list-style query parameters such as ?product_ids=a,b.
const maxQueryUUIDs = 200

// ParseQueryUUIDs reads a comma separated list of uuids. Repeated keys are merged and
// blanks are ignored; an absent parameter yields an empty slice.
func ParseQueryUUIDs(r *http.Request, key string) ([]uuid.UUID, error) {
	out := []uuid.UUID{}
	for _, raw := range r.URL.Query()[key] {
		for _, part := range strings.Split(raw, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			id, err := uuid.Parse(part)
			if err != nil {
				return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "query parameter must contain uuids").WithDetails(map[string]any{"field": key, "value": part})
			}
			out = append(out, id)
		}
	}
	if len(out) > maxQueryUUIDs {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "too many ids requested").WithDetails(map[string]any{"field": key, "max": maxQueryUUIDs})
	}
	return out, nil
}

// ParseUUIDParam reads a chi path parameter as a uuid.
func ParseUUIDParam(r *http.Request, key string) (uuid.UUID, error) {
	raw := strings.TrimSpace(chi.URLParam(r, key))
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid "+key).WithDetails(map[string]any{"field": key})
	}
	return id, nil
}
