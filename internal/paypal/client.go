package paypal

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	liveBaseURL    = "https://api-m.paypal.com"
	sandboxBaseURL = "https://api-m.sandbox.paypal.com"
)

// ErrProvider wraps every remote failure. The underlying provider message is
// logged, never surfaced verbatim to API callers.
var ErrProvider = errors.New("payment provider error")

// Remote subscription statuses as reported by PayPal.
const (
	StatusActive    = "ACTIVE"
	StatusSuspended = "SUSPENDED"
	StatusCancelled = "CANCELLED"
	StatusExpired   = "EXPIRED"
)

// Link is a HATEOAS link on a PayPal resource.
type Link struct {
	Href string `json:"href"`
	Rel  string `json:"rel"`
}

// Subscription is the remote billing subscription resource.
type Subscription struct {
	ID          string `json:"id"`
	Status      string `json:"status"`
	PlanID      string `json:"plan_id"`
	BillingInfo struct {
		NextBillingTime time.Time `json:"next_billing_time"`
	} `json:"billing_info"`
	Links []Link `json:"links"`
}

// ApprovalURL returns the link the subscriber must follow to authorize
// payment, or empty if the resource carries none.
func (s *Subscription) ApprovalURL() string {
	for _, l := range s.Links {
		if l.Rel == "approve" {
			return l.Href
		}
	}
	return ""
}

// PlanParams describes a billing plan to provision.
type PlanParams struct {
	ProductID   string
	Name        string
	Description string
	PriceValue  string // e.g. "19.00"
	Interval    string // e.g. "MONTH"
}

// Client talks to the PayPal REST billing API.
type Client interface {
	CreateSubscription(ctx context.Context, planID, userID string) (*Subscription, error)
	GetSubscription(ctx context.Context, subscriptionID string) (*Subscription, error)
	CancelSubscription(ctx context.Context, subscriptionID, reason string) error
	CreateProduct(ctx context.Context, name, description string) (string, error)
	CreatePlan(ctx context.Context, p PlanParams) (string, error)
}

type restClient struct {
	client       *http.Client
	baseURL      string
	clientID     string
	clientSecret string
	frontendURL  string

	mu       sync.Mutex
	token    string
	tokenExp time.Time
}

// New creates a PayPal client. Mode "live" targets production, anything else
// the sandbox.
func New(mode, clientID, clientSecret, frontendURL string) Client {
	baseURL := sandboxBaseURL
	if mode == "live" {
		baseURL = liveBaseURL
	}
	return &restClient{
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
		baseURL:      baseURL,
		clientID:     clientID,
		clientSecret: clientSecret,
		frontendURL:  frontendURL,
	}
}

// accessToken returns a cached OAuth2 client-credentials token, refreshing it
// shortly before expiry.
func (c *restClient) accessToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.token != "" && time.Now().Before(c.tokenExp) {
		return c.token, nil
	}

	form := url.Values{"grant_type": {"client_credentials"}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/oauth2/token", strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrProvider, err)
	}
	req.SetBasicAuth(c.clientID, c.clientSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: token request: %w", ErrProvider, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: read token response: %w", ErrProvider, err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: token request returned HTTP %d", ErrProvider, resp.StatusCode)
	}

	var tok struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.Unmarshal(body, &tok); err != nil {
		return "", fmt.Errorf("%w: decode token response: %w", ErrProvider, err)
	}
	c.token = tok.AccessToken
	// Refresh a minute early to avoid racing the expiry.
	c.tokenExp = time.Now().Add(time.Duration(tok.ExpiresIn)*time.Second - time.Minute)
	return c.token, nil
}

func (c *restClient) CreateSubscription(ctx context.Context, planID, userID string) (*Subscription, error) {
	requestBody := map[string]interface{}{
		"plan_id": planID,
		"custom_id": userID,
		"application_context": map[string]interface{}{
			"brand_name":          "AI Marketing Creator",
			"locale":              "en-US",
			"shipping_preference": "NO_SHIPPING",
			"user_action":         "SUBSCRIBE_NOW",
			"payment_method": map[string]string{
				"payer_selected":  "PAYPAL",
				"payee_preferred": "IMMEDIATE_PAYMENT_REQUIRED",
			},
			"return_url": c.frontendURL + "/subscription/success",
			"cancel_url": c.frontendURL + "/subscription/cancel",
		},
	}
	var sub Subscription
	if err := c.do(ctx, http.MethodPost, "/v1/billing/subscriptions", requestBody, &sub, true); err != nil {
		return nil, err
	}
	return &sub, nil
}

func (c *restClient) GetSubscription(ctx context.Context, subscriptionID string) (*Subscription, error) {
	var sub Subscription
	if err := c.do(ctx, http.MethodGet, "/v1/billing/subscriptions/"+subscriptionID, nil, &sub, false); err != nil {
		return nil, err
	}
	return &sub, nil
}

func (c *restClient) CancelSubscription(ctx context.Context, subscriptionID, reason string) error {
	if reason == "" {
		reason = "User requested cancellation"
	}
	requestBody := map[string]string{"reason": reason}
	return c.do(ctx, http.MethodPost, "/v1/billing/subscriptions/"+subscriptionID+"/cancel", requestBody, nil, false)
}

func (c *restClient) CreateProduct(ctx context.Context, name, description string) (string, error) {
	requestBody := map[string]string{
		"name":        name,
		"description": description,
		"type":        "SERVICE",
		"category":    "SOFTWARE",
	}
	var result struct {
		ID string `json:"id"`
	}
	if err := c.do(ctx, http.MethodPost, "/v1/catalogs/products", requestBody, &result, true); err != nil {
		return "", err
	}
	return result.ID, nil
}

func (c *restClient) CreatePlan(ctx context.Context, p PlanParams) (string, error) {
	requestBody := map[string]interface{}{
		"product_id":  p.ProductID,
		"name":        p.Name,
		"description": p.Description,
		"status":      "ACTIVE",
		"billing_cycles": []map[string]interface{}{{
			"frequency": map[string]interface{}{
				"interval_unit":  p.Interval,
				"interval_count": 1,
			},
			"tenure_type": "REGULAR",
			"sequence":    1,
			"total_cycles": 0,
			"pricing_scheme": map[string]interface{}{
				"fixed_price": map[string]string{
					"value":         p.PriceValue,
					"currency_code": "USD",
				},
			},
		}},
		"payment_preferences": map[string]interface{}{
			"auto_bill_outstanding":     true,
			"setup_fee_failure_action":  "CONTINUE",
			"payment_failure_threshold": 3,
		},
	}
	var result struct {
		ID string `json:"id"`
	}
	if err := c.do(ctx, http.MethodPost, "/v1/billing/plans", requestBody, &result, true); err != nil {
		return "", err
	}
	return result.ID, nil
}

// do executes an authenticated API call. Mutating calls carry a
// PayPal-Request-Id so provider-side retries stay idempotent.
func (c *restClient) do(ctx context.Context, method, path string, requestBody, out interface{}, idempotent bool) error {
	token, err := c.accessToken(ctx)
	if err != nil {
		return err
	}

	var reqBody io.Reader
	if requestBody != nil {
		bodyJSON, err := json.Marshal(requestBody)
		if err != nil {
			return fmt.Errorf("%w: marshal request: %w", ErrProvider, err)
		}
		reqBody = bytes.NewReader(bodyJSON)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrProvider, err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	if idempotent {
		req.Header.Set("PayPal-Request-Id", uuid.NewString())
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrProvider, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: read response: %w", ErrProvider, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var apiErr struct {
			Name    string `json:"name"`
			Message string `json:"message"`
		}
		if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Name != "" {
			return fmt.Errorf("%w: %s %s (HTTP %d): %s", ErrProvider, method, path, resp.StatusCode, apiErr.Name)
		}
		return fmt.Errorf("%w: %s %s returned HTTP %d", ErrProvider, method, path, resp.StatusCode)
	}
	if out != nil && len(body) > 0 {
		if err := json.Unmarshal(body, out); err != nil {
			return fmt.Errorf("%w: decode response: %w", ErrProvider, err)
		}
	}
	return nil
}
