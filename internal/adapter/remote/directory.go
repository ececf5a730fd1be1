package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/shopspring/decimal"

	domainErrors "github.com/GS-Pro2025/movewise/internal/domain/errors"
	"github.com/GS-Pro2025/movewise/internal/domain/model"
)

var locationTypes = map[model.LocationLevel]string{
	model.LocationCountry: "countries",
	model.LocationState:   "states",
	model.LocationCity:    "cities",
}

type locationsBody struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Data    []struct {
		Name string `json:"name"`
	} `json:"data"`
}

// Locations returns the option names for one level of the location cascade.
func (c *HTTPClient) Locations(ctx context.Context, query model.LocationQuery) ([]string, error) {
	kind, ok := locationTypes[query.Level]
	if !ok {
		return nil, fmt.Errorf("unknown location level %q", query.Level)
	}
	params := url.Values{"type": {kind}}
	if query.Country != "" {
		params.Set("country", query.Country)
	}
	if query.State != "" {
		params.Set("state", query.State)
	}

	var body locationsBody
	if err := c.doJSON(ctx, http.MethodGet, c.endpoint(params, "orders-locations"), nil, &body); err != nil {
		return nil, err
	}
	if body.Status != "success" {
		message := body.Message
		if message == "" {
			message = fmt.Sprintf("failed to load %s", kind)
		}
		return nil, &domainErrors.APIError{Status: http.StatusOK, Message: message}
	}

	names := make([]string, 0, len(body.Data))
	for _, item := range body.Data {
		names = append(names, item.Name)
	}
	return names, nil
}

type operatorBody struct {
	ID        int64           `json:"id_operator"`
	Code      string          `json:"code"`
	FirstName string          `json:"first_name"`
	LastName  string          `json:"last_name"`
	IDType    string          `json:"type_id"`
	IDNumber  string          `json:"id_number"`
	Phone     string          `json:"phone"`
	Email     string          `json:"email"`
	Salary    decimal.Decimal `json:"salary"`
	Status    string          `json:"status"`
	Photo     string          `json:"photo"`
	License   string          `json:"license_front"`
}

func (b operatorBody) toModel() model.Operator {
	op := model.Operator{
		ID:        b.ID,
		Code:      b.Code,
		FirstName: b.FirstName,
		LastName:  b.LastName,
		IDType:    b.IDType,
		IDNumber:  b.IDNumber,
		Phone:     b.Phone,
		Email:     b.Email,
		Salary:    b.Salary,
		Status:    model.OperatorStatus(b.Status),
	}
	if b.Photo != "" {
		op.Photo = &model.Image{URI: b.Photo}
	}
	if b.License != "" {
		op.License = &model.Image{URI: b.License}
	}
	return op
}

type operatorPageBody struct {
	Results []operatorBody `json:"results"`
	Next    *string        `json:"next"`
}

// Operators fetches one page of operators matching search.
func (c *HTTPClient) Operators(ctx context.Context, page int, search string) (model.OperatorPage, error) {
	if page < 1 {
		page = 1
	}
	params := url.Values{"page": {strconv.Itoa(page)}}
	if search != "" {
		params.Set("search", search)
	}

	var body operatorPageBody
	if err := c.doJSON(ctx, http.MethodGet, c.endpoint(params, "operators"), nil, &body); err != nil {
		return model.OperatorPage{}, err
	}

	result := model.OperatorPage{Page: page, Search: search, Results: make([]model.Operator, 0, len(body.Results))}
	for _, item := range body.Results {
		result.Results = append(result.Results, item.toModel())
	}
	if body.Next != nil {
		result.Next = *body.Next
	}
	return result, nil
}

// FreelancerByCode looks a freelancer up by their code.
func (c *HTTPClient) FreelancerByCode(ctx context.Context, code string) (*model.Operator, error) {
	if err := checkSegment(code); err != nil {
		return nil, err
	}
	var raw json.RawMessage
	if err := c.doJSON(ctx, http.MethodGet, c.endpoint(nil, "freelancers", "code", code), nil, &raw); err != nil {
		return nil, err
	}
	var body operatorBody
	if err := unwrapObject(raw, &body); err != nil {
		return nil, fmt.Errorf("decode freelancer: %w", err)
	}
	op := body.toModel()
	return &op, nil
}

// CreateFreelancer registers a freelancer; photo and license travel as data URIs.
func (c *HTTPClient) CreateFreelancer(ctx context.Context, payload model.FreelancerPayload) (*model.Operator, error) {
	form := newMultipartForm()
	form.field("code", payload.Code)
	form.field("first_name", payload.FirstName)
	form.field("last_name", payload.LastName)
	form.field("type_id", payload.IDType)
	form.field("id_number", payload.IDNumber)
	form.field("phone", payload.Phone)
	form.field("email", payload.Email)
	form.field("salary", payload.Salary.String())
	form.field("status", string(model.OperatorStatusFreelance))
	form.field("photo", payload.Photo)
	form.field("license_front", payload.License)
	body, contentType, err := form.finish()
	if err != nil {
		return nil, fmt.Errorf("build freelancer form: %w", err)
	}

	endpoint := c.endpoint(nil, "freelancers")
	resp, data, err := c.do(ctx, http.MethodPost, endpoint, body, contentType)
	if err != nil {
		return nil, err
	}
	if err := c.check(http.MethodPost, endpoint, resp, data); err != nil {
		return nil, err
	}

	var created operatorBody
	if len(data) > 0 {
		if err := unwrapObject(data, &created); err != nil {
			return nil, fmt.Errorf("decode freelancer: %w", err)
		}
	}
	op := created.toModel()
	if op.Status == "" {
		op.Status = model.OperatorStatusFreelance
	}
	return &op, nil
}
