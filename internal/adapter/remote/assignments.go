package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	domainErrors "github.com/GS-Pro2025/movewise/internal/domain/errors"
	"github.com/GS-Pro2025/movewise/internal/domain/model"
)

type assignRequestBody struct {
	Operator        int64       `json:"operator"`
	Order           string      `json:"order"`
	Role            string      `json:"rol"`
	AdditionalCosts json.Number `json:"additional_costs"`
}

type assignmentBody struct {
	ID              int64           `json:"id"`
	Operator        int64           `json:"operator"`
	Order           string          `json:"order"`
	Role            string          `json:"rol"`
	AssignedAt      string          `json:"assigned_at"`
	AdditionalCosts decimal.Decimal `json:"additional_costs"`
}

type conflictBody struct {
	Data struct {
		Conflicts []struct {
			OperatorID int64  `json:"operator_id"`
			Message    string `json:"message"`
		} `json:"conflicts"`
	} `json:"data"`
}

// AssignBulk assigns several operators to one order in a single call. A
// multi-status answer is reported as *errors.AssignmentConflictError.
func (c *HTTPClient) AssignBulk(ctx context.Context, requests []model.AssignmentRequest) error {
	items := make([]assignRequestBody, 0, len(requests))
	for _, r := range requests {
		items = append(items, assignRequestBody{
			Operator:        r.OperatorID,
			Order:           r.OrderKey,
			Role:            string(r.Role),
			AdditionalCosts: json.Number(r.AdditionalCosts.String()),
		})
	}
	payload, err := json.Marshal(items)
	if err != nil {
		return err
	}

	endpoint := c.endpoint(nil, "assigns", "bulk")
	resp, data, err := c.do(ctx, http.MethodPost, endpoint, bytes.NewReader(payload), "application/json")
	if err != nil {
		return err
	}

	if resp.StatusCode == http.StatusMultiStatus {
		var body conflictBody
		if err := json.Unmarshal(data, &body); err != nil {
			return fmt.Errorf("decode assignment conflicts: %w", err)
		}
		conflictErr := &domainErrors.AssignmentConflictError{}
		for _, conflict := range body.Data.Conflicts {
			conflictErr.Conflicts = append(conflictErr.Conflicts, model.AssignmentConflict{
				OperatorID: conflict.OperatorID,
				Message:    conflict.Message,
			})
		}
		return conflictErr
	}
	return c.check(http.MethodPost, endpoint, resp, data)
}

// OrderAssignments lists operators currently assigned to an order.
func (c *HTTPClient) OrderAssignments(ctx context.Context, key string) ([]model.Assignment, error) {
	if err := checkSegment(key); err != nil {
		return nil, err
	}
	endpoint := c.endpoint(nil, "assigns", "order", key)
	resp, data, err := c.do(ctx, http.MethodGet, endpoint, nil, "")
	if err != nil {
		return nil, err
	}
	if err := c.check(http.MethodGet, endpoint, resp, data); err != nil {
		return nil, err
	}

	items, err := decodeList[assignmentBody](data)
	if err != nil {
		return nil, fmt.Errorf("decode assignments: %w", err)
	}
	assignments := make([]model.Assignment, 0, len(items))
	for _, item := range items {
		orderKey := item.Order
		if orderKey == "" {
			orderKey = key
		}
		assignments = append(assignments, model.Assignment{
			ID:              item.ID,
			OperatorID:      item.Operator,
			OrderKey:        orderKey,
			Role:            model.Role(item.Role),
			AssignedAt:      parseTimestamp(item.AssignedAt),
			AdditionalCosts: item.AdditionalCosts,
		})
	}
	return assignments, nil
}

// DeleteAssignment removes a single assignment.
func (c *HTTPClient) DeleteAssignment(ctx context.Context, id int64) error {
	return c.doJSON(ctx, http.MethodDelete, c.endpoint(nil, "assigns", strconv.FormatInt(id, 10)), nil, nil)
}

func parseTimestamp(raw string) time.Time {
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05", time.DateOnly} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t
		}
	}
	return time.Time{}
}
