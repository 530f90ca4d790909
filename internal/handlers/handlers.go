package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/leasedesk/leasedesk/internal/model"
	"github.com/leasedesk/leasedesk/pkg/auth"
	xhttp "github.com/leasedesk/leasedesk/pkg/http"
	"github.com/leasedesk/leasedesk/pkg/logger"
)

const principalKey = "principal"

// envelope is the body of every JSON response: success, message and the payload keys.
type envelope map[string]any

type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*auth.Principal, error)
}

// PrincipalMiddleware resolves the bearer token into a principal when one is sent.
// It never rejects a request; handlers decide who may call them.
func PrincipalMiddleware(a Authenticator) xhttp.MiddlewareFunc {
	return func(next xhttp.RequestHandler) xhttp.RequestHandler {
		return func(ctx *xhttp.RequestCtx) {
			if token := xhttp.BearerToken(ctx); token != "" {
				if p, err := a.Authenticate(ctx, token); err == nil {
					ctx.SetUserValue(principalKey, p)
				}
			}
			next(ctx)
		}
	}
}

// currentPrincipal returns the caller when it holds one of roles.
func currentPrincipal(ctx *xhttp.RequestCtx, roles ...auth.Role) (*auth.Principal, error) {
	p, ok := ctx.UserValue(principalKey).(*auth.Principal)
	if !ok || p == nil {
		return nil, model.ErrUnauthorized
	}
	if len(roles) == 0 {
		return p, nil
	}
	for _, r := range roles {
		if p.Role == r {
			return p, nil
		}
	}
	return nil, model.ErrForbidden
}

func setPrincipal(ctx *xhttp.RequestCtx, p *auth.Principal) {
	ctx.SetUserValue(principalKey, p)
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, model.ErrUnauthorized), errors.Is(err, model.ErrInvalidCredentials):
		return xhttp.StatusUnauthorized
	case errors.Is(err, model.ErrForbidden):
		return xhttp.StatusForbidden
	case errors.Is(err, model.ErrNotFound):
		return xhttp.StatusNotFound
	case errors.Is(err, model.ErrValidation),
		errors.Is(err, model.ErrAlreadyProcessed),
		errors.Is(err, model.ErrUnitOccupiedConflict),
		errors.Is(err, model.ErrTenantUnitMismatch),
		errors.Is(err, model.ErrMissingCredentialInputs):
		return xhttp.StatusUnprocessableEntity
	case errors.Is(err, model.ErrNoTenantAssigned),
		errors.Is(err, model.ErrWrongPaymentType),
		errors.Is(err, model.ErrReceiptUnavailable),
		errors.Is(err, model.ErrBadRequest):
		return xhttp.StatusBadRequest
	}
	return xhttp.StatusInternalServerError
}

func readJSON(ctx *xhttp.RequestCtx, dst any) error {
	body := ctx.PostBody()
	if len(body) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return fmt.Errorf("invalid JSON: %w", model.ErrBadRequest)
	}
	return nil
}

func writeJSON(ctx *xhttp.RequestCtx, status int, v any) {
	b, _ := json.Marshal(v)
	ctx.Response.Header.Set("Content-Type", "application/json; charset=utf-8")
	ctx.Response.SetStatusCode(status)
	ctx.Response.SetBodyRaw(b)
}

func respond(ctx *xhttp.RequestCtx, status int, message string, payload envelope) {
	body := envelope{"success": true}
	if message != "" {
		body["message"] = message
	}
	for k, v := range payload {
		body[k] = v
	}
	writeJSON(ctx, status, body)
}

func writeError(ctx *xhttp.RequestCtx, err error) {
	status := statusOf(err)
	body := envelope{"success": false, "message": err.Error()}

	var fe model.FieldErrors
	if errors.As(err, &fe) {
		body["message"] = "The given data was invalid."
		body["errors"] = fe
	}
	if status == xhttp.StatusInternalServerError {
		logger.Error("request failed", "error", err, "path", string(ctx.Path()), "request_id", xhttp.RequestID(ctx))
		body["message"] = "Something went wrong. Please try again later."
	}
	writeJSON(ctx, status, body)
}

func writeFile(ctx *xhttp.RequestCtx, name, contentType string, data []byte) {
	ctx.Response.Header.Set("Content-Type", contentType)
	ctx.Response.Header.Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	ctx.Response.SetStatusCode(xhttp.StatusOK)
	ctx.Response.SetBodyRaw(data)
}

// pathID reads a numeric route parameter; anything else cannot name a record.
func pathID(ctx *xhttp.RequestCtx, name string) (int64, error) {
	v, _ := ctx.UserValue(name).(string)
	id, err := strconv.ParseInt(v, 10, 64)
	if err != nil || id <= 0 {
		return 0, model.ErrNotFound
	}
	return id, nil
}

func pathString(ctx *xhttp.RequestCtx, name string) string {
	v, _ := ctx.UserValue(name).(string)
	return v
}

func query(ctx *xhttp.RequestCtx, key string) string {
	return string(ctx.QueryArgs().Peek(key))
}
