package client

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// Organisation is the API representation of a tenant.
type Organisation struct {
	ID            uuid.UUID `json:"id"`
	Slug          string    `json:"slug"`
	Name          string    `json:"name"`
	Status        string    `json:"status"`
	BillingStatus string    `json:"billing_status"`
	BillingNote   *string   `json:"billing_note"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Me is the authenticated principal as seen by the API.
type Me struct {
	ID             uuid.UUID     `json:"id"`
	Email          string        `json:"email"`
	Roles          []string      `json:"roles"`
	OrganisationID *uuid.UUID    `json:"organisation_id"`
	Organisation   *Organisation `json:"organisation"`
}

// APIError is a non-2xx response.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%d %s: %s", e.StatusCode, http.StatusText(e.StatusCode), e.Message)
}

// PortalClient calls the operator routes of the API.
type PortalClient struct {
	http *resty.Client
}

// PortalConfig configures a PortalClient.
type PortalConfig struct {
	// ServerURL is the portal host, e.g. https://portal.ledenhub.nl.
	ServerURL string
	Token     string
	Timeout   time.Duration
	Tracing   bool
}

type errorBody struct {
	Message string `json:"message"`
}

// NewPortalClient creates a client for the portal API.
func NewPortalClient(cfg PortalConfig) *PortalClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultConfig().Timeout
	}

	client := resty.New().
		SetBaseURL(strings.TrimRight(cfg.ServerURL, "/")).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json")
	if cfg.Token != "" {
		client.SetAuthToken(cfg.Token)
	}
	if cfg.Tracing {
		client.SetTransport(otelhttp.NewTransport(http.DefaultTransport))
	}

	return &PortalClient{http: client}
}

func (c *PortalClient) Me(ctx context.Context) (*Me, error) {
	var me Me
	if err := c.do(ctx, http.MethodGet, "/api/me", nil, &me); err != nil {
		return nil, err
	}
	return &me, nil
}

func (c *PortalClient) ListOrganisations(ctx context.Context) ([]Organisation, error) {
	var orgs []Organisation
	if err := c.do(ctx, http.MethodGet, "/api/portal/organisations", nil, &orgs); err != nil {
		return nil, err
	}
	return orgs, nil
}

func (c *PortalClient) CreateOrganisation(ctx context.Context, slug, name string) (*Organisation, error) {
	body := map[string]string{"slug": slug, "name": name}
	var org Organisation
	if err := c.do(ctx, http.MethodPost, "/api/portal/organisations", body, &org); err != nil {
		return nil, err
	}
	return &org, nil
}

func (c *PortalClient) Block(ctx context.Context, id uuid.UUID) (*Organisation, error) {
	return c.organisationAction(ctx, http.MethodPost, id, "block", nil)
}

func (c *PortalClient) Activate(ctx context.Context, id uuid.UUID) (*Organisation, error) {
	return c.organisationAction(ctx, http.MethodPost, id, "activate", nil)
}

// SetBilling records a billing status; a nil note clears it.
func (c *PortalClient) SetBilling(ctx context.Context, id uuid.UUID, status string, note *string) (*Organisation, error) {
	body := struct {
		BillingStatus string  `json:"billing_status"`
		BillingNote   *string `json:"billing_note"`
	}{status, note}
	return c.organisationAction(ctx, http.MethodPut, id, "billing", body)
}

func (c *PortalClient) organisationAction(ctx context.Context, method string, id uuid.UUID, action string, body any) (*Organisation, error) {
	var org Organisation
	if err := c.do(ctx, method, "/api/portal/organisations/"+id.String()+"/"+action, body, &org); err != nil {
		return nil, err
	}
	return &org, nil
}

func (c *PortalClient) do(ctx context.Context, method, path string, body, out any) error {
	req := c.http.R().
		SetContext(ctx).
		SetResult(out).
		SetError(&errorBody{})
	if body != nil {
		req.SetBody(body)
	}

	resp, err := req.Execute(method, path)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}

	if !resp.IsSuccess() {
		apiErr := &APIError{StatusCode: resp.StatusCode()}
		if e, ok := resp.Error().(*errorBody); ok {
			apiErr.Message = e.Message
		}
		return apiErr
	}
	return nil
}
