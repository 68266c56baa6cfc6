package interceptors

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

// HouseholdHeader names the household a request acts for. Authentication
// happens in front of this service, which trusts the header.
const HouseholdHeader = "X-Household-ID"

type contextKey string

const householdIDKey contextKey = "householdID"

// WithHouseholdID stores the household id in ctx.
func WithHouseholdID(ctx context.Context, id uuid.UUID) context.Context {
	return context.WithValue(ctx, householdIDKey, id)
}

// GetHouseholdIDFromContext returns the household id set by RequireHousehold.
func GetHouseholdIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(householdIDKey).(uuid.UUID)
	return id, ok && id != uuid.Nil
}

// RequireHousehold rejects requests without a valid household header.
func RequireHousehold(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := r.Header.Get(HouseholdHeader)
		if raw == "" {
			WriteError(w, http.StatusUnauthorized, "missing "+HouseholdHeader+" header")
			return
		}
		id, err := uuid.Parse(raw)
		if err != nil || id == uuid.Nil {
			WriteError(w, http.StatusUnauthorized, "invalid "+HouseholdHeader+" header")
			return
		}
		next.ServeHTTP(w, r.WithContext(WithHouseholdID(r.Context(), id)))
	})
}
