package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	domainErrors "github.com/GS-Pro2025/movewise/internal/domain/errors"
	"github.com/GS-Pro2025/movewise/internal/domain/model"
)

type personBody struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone,omitempty"`
	Address   string `json:"address,omitempty"`
}

// orderBody mirrors the order resource of the remote API.
type orderBody struct {
	Key            string          `json:"key,omitempty"`
	Reference      string          `json:"key_ref"`
	Date           string          `json:"date"`
	Weight         decimal.Decimal `json:"weight"`
	Job            int64           `json:"job"`
	Company        int64           `json:"customer_factory"`
	Location       string          `json:"state_usa"`
	Person         personBody      `json:"person"`
	DispatchTicket string          `json:"dispatch_ticket,omitempty"`
	Status         string          `json:"status,omitempty"`
	Evidence       string          `json:"evidence,omitempty"`
}

func newOrderBody(payload model.OrderPayload) (orderBody, error) {
	weight, err := decimal.NewFromString(strings.TrimSpace(payload.Weight))
	if err != nil {
		return orderBody{}, fmt.Errorf("weight %q: %w", payload.Weight, err)
	}
	return orderBody{
		Reference: payload.Reference,
		Date:      payload.Date,
		Weight:    weight,
		Job:       payload.JobID,
		Company:   payload.CompanyID,
		Location:  payload.Location,
		Person: personBody{
			FirstName: payload.Contact.FirstName,
			LastName:  payload.Contact.LastName,
			Email:     payload.Contact.Email,
			Phone:     payload.Contact.Phone,
			Address:   payload.Contact.Address,
		},
		DispatchTicket: payload.DispatchTicket,
	}, nil
}

func (b orderBody) toModel() *model.Order {
	order := &model.Order{
		Key:       b.Key,
		Reference: b.Reference,
		Status:    model.ParseOrderStatus(b.Status),
		Date:      b.Date,
		Weight:    b.Weight.String(),
		JobID:     b.Job,
		CompanyID: b.Company,
		Location:  b.Location,
		Contact: model.Contact{
			FirstName: b.Person.FirstName,
			LastName:  b.Person.LastName,
			Email:     b.Person.Email,
			Phone:     b.Person.Phone,
			Address:   b.Person.Address,
		},
	}
	if b.DispatchTicket != "" {
		order.DispatchTicket = &model.Image{URI: b.DispatchTicket}
	}
	if b.Evidence != "" {
		order.Evidence = &model.Image{URI: b.Evidence}
	}
	return order
}

func ordersPath(variant model.Variant) string {
	if variant == model.VariantWorkhouse {
		return "workhouse-orders"
	}
	return "orders"
}

type createdBody struct {
	Key  string `json:"key"`
	Data *struct {
		Key string `json:"key"`
	} `json:"data,omitempty"`
}

// CreateOrder registers a new order and returns its key.
func (c *HTTPClient) CreateOrder(ctx context.Context, variant model.Variant, payload model.OrderPayload) (string, error) {
	body, err := newOrderBody(payload)
	if err != nil {
		return "", err
	}
	var created createdBody
	if err := c.doJSON(ctx, http.MethodPost, c.endpoint(nil, ordersPath(variant)), body, &created); err != nil {
		return "", err
	}
	key := created.Key
	if key == "" && created.Data != nil {
		key = created.Data.Key
	}
	if key == "" {
		return "", fmt.Errorf("create order: response carries no key")
	}
	return key, nil
}

// GetOrder loads a single order. The shared read endpoint does not report the
// order subtype, so Variant is left for the caller to supply.
func (c *HTTPClient) GetOrder(ctx context.Context, key string) (*model.Order, error) {
	if err := checkSegment(key); err != nil {
		return nil, err
	}
	var raw json.RawMessage
	if err := c.doJSON(ctx, http.MethodGet, c.endpoint(nil, "orders", key), nil, &raw); err != nil {
		return nil, err
	}
	var body orderBody
	if err := unwrapObject(raw, &body); err != nil {
		return nil, fmt.Errorf("decode order: %w", err)
	}
	if body.Key == "" {
		body.Key = key
	}
	return body.toModel(), nil
}

// UpdateOrder applies the editable fields of payload to an existing order.
func (c *HTTPClient) UpdateOrder(ctx context.Context, key string, payload model.OrderPayload) error {
	if err := checkSegment(key); err != nil {
		return err
	}
	body, err := newOrderBody(payload)
	if err != nil {
		return err
	}
	return c.doJSON(ctx, http.MethodPatch, c.endpoint(nil, "orders", key), body, nil)
}

// DeleteOrder removes an order.
func (c *HTTPClient) DeleteOrder(ctx context.Context, key string) error {
	if err := checkSegment(key); err != nil {
		return err
	}
	return c.doJSON(ctx, http.MethodDelete, c.endpoint(nil, "orders", key), nil, nil)
}

// SetOrderStatus changes the order status through the multipart status
// endpoint, optionally attaching an evidence file. The caller's token is
// required.
func (c *HTTPClient) SetOrderStatus(ctx context.Context, token, key string, status model.OrderStatus, evidence *model.Upload) error {
	if token == "" {
		return domainErrors.ErrUnauthorized
	}
	form := newMultipartForm()
	form.field("status", status.APIValue())
	form.file("evidence", evidence)
	body, contentType, err := form.finish()
	if err != nil {
		return fmt.Errorf("build status form: %w", err)
	}

	compact := strings.ReplaceAll(key, "-", "")
	if err := checkSegment(compact); err != nil {
		return err
	}
	endpoint := c.endpoint(nil, "orders", "status", compact)
	resp, data, err := c.do(WithToken(ctx, token), http.MethodPatch, endpoint, body, contentType)
	if err != nil {
		return err
	}
	return c.check(http.MethodPatch, endpoint, resp, data)
}

// unwrapObject decodes either a bare object or {"data": {...}} into out.
func unwrapObject(raw json.RawMessage, out any) error {
	var env struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(raw, &env); err == nil && len(env.Data) > 0 && env.Data[0] == '{' {
		return json.Unmarshal(env.Data, out)
	}
	return json.Unmarshal(raw, out)
}
