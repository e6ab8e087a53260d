// Package stripe implements the payments-provider contract against the
// Stripe REST API.
package stripe

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	paymentdomain "github.com/clashcoffee/storefront/internal/providers/payment/domain"
	"go.uber.org/zap"
)

const defaultBaseURL = "https://api.stripe.com"

// Client talks to the Stripe API with form-encoded requests.
type Client struct {
	baseURL    string
	secretKey  string
	httpClient *http.Client
	log        *zap.Logger
}

// Config configures the Stripe client.
type Config struct {
	SecretKey string
	BaseURL   string
	Timeout   time.Duration
}

func NewClient(cfg Config, log *zap.Logger) *Client {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL:    baseURL,
		secretKey:  strings.TrimSpace(cfg.SecretKey),
		httpClient: &http.Client{Timeout: timeout},
		log:        log.Named("stripe.client"),
	}
}

type stripeError struct {
	Error struct {
		Type    string `json:"type"`
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

type customerObject struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

type sessionObject struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

type subscriptionList struct {
	Data []subscriptionObject `json:"data"`
}

type subscriptionObject struct {
	ID                string `json:"id"`
	Status            string `json:"status"`
	CancelAtPeriodEnd bool   `json:"cancel_at_period_end"`
	Items             struct {
		Data []struct {
			Price struct {
				ID string `json:"id"`
			} `json:"price"`
		} `json:"data"`
	} `json:"items"`
}

type productList struct {
	Data []productObject `json:"data"`
}

type productObject struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Images      []string `json:"images"`
	Active      bool     `json:"active"`
}

func (c *Client) CreateCustomer(ctx context.Context, email string) (string, error) {
	form := url.Values{}
	form.Set("email", email)

	var customer customerObject
	if err := c.do(ctx, http.MethodPost, "/v1/customers", form, &customer); err != nil {
		return "", err
	}
	return customer.ID, nil
}

func (c *Client) CustomerEmail(ctx context.Context, customerRef string) (string, error) {
	var customer customerObject
	if err := c.do(ctx, http.MethodGet, "/v1/customers/"+url.PathEscape(customerRef), nil, &customer); err != nil {
		return "", err
	}
	return customer.Email, nil
}

func (c *Client) CreateCheckoutSession(ctx context.Context, req paymentdomain.CheckoutSessionRequest) (paymentdomain.CheckoutSession, error) {
	form := url.Values{}
	form.Set("mode", "subscription")
	form.Set("payment_method_types[0]", "card")
	form.Set("line_items[0][price]", req.PlanRef)
	form.Set("line_items[0][quantity]", "1")
	form.Set("success_url", req.SuccessURL)
	form.Set("cancel_url", req.CancelURL)
	if req.CustomerRef != "" {
		form.Set("customer", req.CustomerRef)
	} else {
		form.Set("customer_email", req.CustomerEmail)
	}

	var session sessionObject
	if err := c.do(ctx, http.MethodPost, "/v1/checkout/sessions", form, &session); err != nil {
		return paymentdomain.CheckoutSession{}, err
	}
	return paymentdomain.CheckoutSession{Ref: session.ID, URL: session.URL}, nil
}

func (c *Client) GetSubscription(ctx context.Context, subscriptionRef string) (paymentdomain.Subscription, error) {
	var sub subscriptionObject
	if err := c.do(ctx, http.MethodGet, "/v1/subscriptions/"+url.PathEscape(subscriptionRef), nil, &sub); err != nil {
		return paymentdomain.Subscription{}, err
	}
	planRef := ""
	if len(sub.Items.Data) > 0 {
		planRef = sub.Items.Data[0].Price.ID
	}
	return paymentdomain.Subscription{
		Ref:               sub.ID,
		PlanRef:           planRef,
		Status:            paymentdomain.SubscriptionStatus(sub.Status),
		CancelAtPeriodEnd: sub.CancelAtPeriodEnd,
	}, nil
}

func (c *Client) ListActiveSubscriptions(ctx context.Context, customerRef string) ([]paymentdomain.Subscription, error) {
	query := url.Values{}
	query.Set("customer", customerRef)
	query.Set("status", "active")

	var list subscriptionList
	if err := c.do(ctx, http.MethodGet, "/v1/subscriptions?"+query.Encode(), nil, &list); err != nil {
		return nil, err
	}

	subs := make([]paymentdomain.Subscription, 0, len(list.Data))
	for _, sub := range list.Data {
		planRef := ""
		if len(sub.Items.Data) > 0 {
			planRef = sub.Items.Data[0].Price.ID
		}
		subs = append(subs, paymentdomain.Subscription{
			Ref:               sub.ID,
			PlanRef:           planRef,
			Status:            paymentdomain.SubscriptionStatus(sub.Status),
			CancelAtPeriodEnd: sub.CancelAtPeriodEnd,
		})
	}
	return subs, nil
}

func (c *Client) CancelAtPeriodEnd(ctx context.Context, subscriptionRef string) error {
	form := url.Values{}
	form.Set("cancel_at_period_end", "true")
	return c.do(ctx, http.MethodPost, "/v1/subscriptions/"+url.PathEscape(subscriptionRef), form, &subscriptionObject{})
}

func (c *Client) ListProducts(ctx context.Context) ([]paymentdomain.Product, error) {
	query := url.Values{}
	query.Set("limit", "100")

	var list productList
	if err := c.do(ctx, http.MethodGet, "/v1/products?"+query.Encode(), nil, &list); err != nil {
		return nil, err
	}

	products := make([]paymentdomain.Product, 0, len(list.Data))
	for _, product := range list.Data {
		imageURL := ""
		if len(product.Images) > 0 {
			imageURL = product.Images[0]
		}
		products = append(products, paymentdomain.Product{
			Ref:         product.ID,
			Name:        product.Name,
			Description: product.Description,
			ImageURL:    imageURL,
			Active:      product.Active,
		})
	}
	return products, nil
}

func (c *Client) do(ctx context.Context, method, path string, form url.Values, out any) error {
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("%w: %v", paymentdomain.ErrProviderUnavailable, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Warn("stripe request failed", zap.String("path", path), zap.Error(err))
		return fmt.Errorf("%w: %v", paymentdomain.ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("%w: %v", paymentdomain.ErrProviderUnavailable, err)
	}

	if resp.StatusCode == http.StatusNotFound {
		return paymentdomain.ErrNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var apiErr stripeError
		_ = json.Unmarshal(payload, &apiErr)
		c.log.Warn("stripe error response",
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
			zap.String("code", apiErr.Error.Code),
			zap.String("message", apiErr.Error.Message),
		)
		return fmt.Errorf("%w: %s", paymentdomain.ErrProviderUnavailable, apiErr.Error.Type)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return fmt.Errorf("%w: %v", paymentdomain.ErrProviderUnavailable, err)
	}
	return nil
}
