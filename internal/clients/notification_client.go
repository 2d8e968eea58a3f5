package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/config"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/errors"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/logging"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/middleware"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/models"
)

const orderConfirmationTemplate = "order_confirmation"

// NotificationSender tells customers about their orders.
type NotificationSender interface {
	SendOrderConfirmation(ctx context.Context, order *models.Order) error
}

var (
	_ NotificationSender = (*HTTPNotificationClient)(nil)
	_ NotificationSender = (*MockNotificationClient)(nil)
)

// SendEmailRequest is the notification service email payload.
type SendEmailRequest struct {
	To       string                 `json:"to"`
	Subject  string                 `json:"subject"`
	Template string                 `json:"template"`
	Data     map[string]interface{} `json:"data"`
}

// SendSMSRequest is the notification service SMS payload.
type SendSMSRequest struct {
	To       string                 `json:"to"`
	Template string                 `json:"template"`
	Data     map[string]interface{} `json:"data"`
}

// HTTPNotificationClient implements NotificationSender over HTTP.
type HTTPNotificationClient struct {
	baseURL    string
	httpClient *http.Client
	apiKey     string
	logger     *logging.LoggerV2
}

// NewHTTPNotificationClient creates a new HTTP-based notification client.
func NewHTTPNotificationClient(cfg config.ServiceConfig, logger *logging.LoggerV2) *HTTPNotificationClient {
	return &HTTPNotificationClient{
		baseURL: cfg.BaseURL,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		apiKey: cfg.APIKey,
		logger: logger,
	}
}

// SendOrderConfirmation emails the order summary and, when the customer left
// a phone number, sends a short SMS as well. An SMS failure is logged only.
func (c *HTTPNotificationClient) SendOrderConfirmation(ctx context.Context, order *models.Order) error {
	data := confirmationData(order)

	err := c.SendEmail(ctx, &SendEmailRequest{
		To:       order.Contact.Email,
		Subject:  fmt.Sprintf("Confirmation de commande %s", order.ID),
		Template: orderConfirmationTemplate,
		Data:     data,
	})
	if err != nil {
		return err
	}

	if phone, ok := order.Contact.Phone.Get(); ok && phone != "" {
		smsErr := c.SendSMS(ctx, &SendSMSRequest{
			To:       phone,
			Template: orderConfirmationTemplate,
			Data:     data,
		})
		if smsErr != nil {
			c.logger.Warn("Order confirmation SMS failed", logging.Fields{
				"order_id": order.ID,
				"error":    smsErr.Error(),
			})
		}
	}
	return nil
}

// SendEmail sends an email notification.
func (c *HTTPNotificationClient) SendEmail(ctx context.Context, req *SendEmailRequest) error {
	c.logger.Debug("Sending email", logging.Fields{
		"to":       req.To,
		"template": req.Template,
	})

	if err := c.post(ctx, "/api/v2/notifications/email", req); err != nil {
		c.logger.Error("Failed to send email", logging.Fields{
			"to":    req.To,
			"error": err.Error(),
		})
		return err
	}

	c.logger.Info("Email sent", logging.Fields{"to": req.To})
	return nil
}

// SendSMS sends an SMS notification.
func (c *HTTPNotificationClient) SendSMS(ctx context.Context, req *SendSMSRequest) error {
	if err := c.post(ctx, "/api/v2/notifications/sms", req); err != nil {
		return err
	}
	c.logger.Info("SMS sent", logging.Fields{"template": req.Template})
	return nil
}

func (c *HTTPNotificationClient) post(ctx context.Context, path string, payload interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return errors.Wrap(err, "marshal notification")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return errors.Wrap(err, "build notification request")
	}
	c.setHeaders(ctx, req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.Wrap(err, "call notification service")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
		return fmt.Errorf("notification service returned status %d", resp.StatusCode)
	}
	return nil
}

func (c *HTTPNotificationClient) setHeaders(ctx context.Context, req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	if requestID := middleware.RequestIDFromContext(ctx); requestID != "" {
		req.Header.Set(middleware.RequestIDHeader, requestID)
	}
}

func confirmationData(order *models.Order) map[string]interface{} {
	lines := make([]map[string]interface{}, 0, len(order.Items))
	for _, l := range order.Items {
		lines = append(lines, map[string]interface{}{
			"name":     l.Product.Name,
			"quantity": l.Quantity,
			"unit":     l.Product.Unit,
			"subtotal": l.Subtotal().StringFixed(2),
		})
	}
	return map[string]interface{}{
		"order_id": order.ID,
		"name":     order.Contact.Name.OrElse(""),
		"total":    order.Total.StringFixed(2),
		"currency": "EUR",
		"items":    lines,
		"city":     order.Address.City,
	}
}

// MockNotificationClient records confirmations for tests.
type MockNotificationClient struct {
	mu     sync.Mutex
	Orders []string
	Err    error
	sent   chan struct{}
}

// NewMockNotificationClient creates a mock notification client.
func NewMockNotificationClient() *MockNotificationClient {
	return &MockNotificationClient{
		Orders: make([]string, 0),
		sent:   make(chan struct{}, 16),
	}
}

func (m *MockNotificationClient) SendOrderConfirmation(ctx context.Context, order *models.Order) error {
	m.mu.Lock()
	m.Orders = append(m.Orders, order.ID)
	err := m.Err
	m.mu.Unlock()

	select {
	case m.sent <- struct{}{}:
	default:
	}
	return err
}

// Sent is signalled once per confirmation attempt.
func (m *MockNotificationClient) Sent() <-chan struct{} {
	return m.sent
}
