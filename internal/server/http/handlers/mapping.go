package handlers

import (
	"github.com/GS-Pro2025/movewise/internal/domain/model"
	"github.com/GS-Pro2025/movewise/internal/server/http/dto"
)

func toImage(req *dto.ImageRequest) *model.Image {
	if req == nil {
		return nil
	}
	return &model.Image{
		URI:      req.URI,
		Name:     req.Name,
		Type:     req.Type,
		Width:    req.Width,
		Height:   req.Height,
		FileSize: req.FileSize,
	}
}

func toDraftPatch(req dto.DraftRequest) model.OrderDraft {
	return model.OrderDraft{
		Date:      req.Date,
		Reference: req.Key,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Phone:     req.Phone,
		Address:   req.Address,
		Weight:    req.Weight,
		JobID:     req.Job,
		CompanyID: req.Company,
	}
}

func toFreelancerForm(req dto.FreelancerRequest) model.FreelancerForm {
	return model.FreelancerForm{
		Code:      req.Code,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		IDType:    req.IDType,
		IDNumber:  req.IDNumber,
		Phone:     req.Phone,
		Email:     req.Email,
		Salary:    req.Salary,
		Photo:     toImage(req.Photo),
		License:   toImage(req.License),
	}
}

func toImageResponse(img *model.Image) *dto.ImageResponse {
	if img == nil {
		return nil
	}
	return &dto.ImageResponse{URI: img.URI, Name: img.Name, Type: img.Type, FileSize: img.FileSize}
}

func toLevelResponse(l model.LevelSnapshot) dto.LevelResponse {
	options := l.Options
	if options == nil {
		options = []string{}
	}
	return dto.LevelResponse{Value: l.Value, Options: options, Loading: l.Loading, Disabled: l.Disabled, Error: l.Error}
}

func toOperatorResponse(o model.Operator) dto.OperatorResponse {
	resp := dto.OperatorResponse{
		ID:        o.ID,
		Code:      o.Code,
		FirstName: o.FirstName,
		LastName:  o.LastName,
		Status:    string(o.Status),
		Role:      string(o.Role()),
	}
	if !o.Salary.IsZero() {
		resp.Salary = o.Salary.StringFixed(2)
	}
	return resp
}

func toOperatorPageResponse(p model.OperatorPage) dto.OperatorPageResponse {
	results := make([]dto.OperatorResponse, 0, len(p.Results))
	for _, o := range p.Results {
		results = append(results, toOperatorResponse(o))
	}
	return dto.OperatorPageResponse{Page: p.Page, Search: p.Search, Results: results, HasNext: p.HasNext()}
}

func toAssignmentResponse(a model.Assignment) dto.AssignmentResponse {
	return dto.AssignmentResponse{
		ID:              a.ID,
		OperatorID:      a.OperatorID,
		OrderKey:        a.OrderKey,
		Role:            string(a.Role),
		AssignedAt:      a.AssignedAt,
		AdditionalCosts: a.AdditionalCosts.StringFixed(2),
	}
}

func toAssignmentResponses(items []model.Assignment) []dto.AssignmentResponse {
	out := make([]dto.AssignmentResponse, 0, len(items))
	for _, a := range items {
		out = append(out, toAssignmentResponse(a))
	}
	return out
}

func toFlowResponse(v model.FlowView) dto.FlowResponse {
	d := v.Draft
	resp := dto.FlowResponse{
		ID:      v.ID,
		Kind:    string(v.Kind),
		Variant: string(v.Variant),
		Draft: dto.DraftResponse{
			Variant:        string(d.Variant),
			Country:        d.Country,
			State:          d.State,
			City:           d.City,
			Date:           d.Date,
			Key:            d.Reference,
			FirstName:      d.FirstName,
			LastName:       d.LastName,
			Email:          d.Email,
			Phone:          d.Phone,
			Address:        d.Address,
			Weight:         d.Weight,
			Job:            d.JobID,
			Company:        d.CompanyID,
			DispatchTicket: toImageResponse(d.DispatchTicket),
		},
		Location: dto.LocationResponse{
			Country: toLevelResponse(v.Location.Country),
			State:   toLevelResponse(v.Location.State),
			City:    toLevelResponse(v.Location.City),
		},
		PendingKey: v.PendingKey,
		OrderKey:   v.OrderKey,
		Busy:       v.Busy,
	}
	if a := v.Assignment; a != nil {
		selected := a.Selected
		if selected == nil {
			selected = []int64{}
		}
		resp.Assignment = &dto.AssignmentSessionResponse{
			OrderKey:  a.OrderKey,
			View:      string(a.View),
			Assigned:  toAssignmentResponses(a.Assigned),
			Selected:  selected,
			Operators: toOperatorPageResponse(a.Operators),
		}
	}
	return resp
}

// flowData returns nil for an empty view so failed lookups carry no data.
func flowData(v model.FlowView) any {
	if v.ID == "" {
		return nil
	}
	return toFlowResponse(v)
}
