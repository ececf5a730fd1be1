package usecase

import (
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/GS-Pro2025/movewise/internal/domain/model"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func validDraft() model.OrderDraft {
	return model.OrderDraft{
		Variant:   model.VariantWorkhouse,
		Country:   "United States",
		State:     "Texas",
		City:      "Austin",
		Date:      "2024-01-15",
		Reference: "ORD-100",
		FirstName: "Jane",
		LastName:  "Doe",
		Email:     "jane@x.com",
		Weight:    "500",
		JobID:     3,
		CompanyID: 7,
		DispatchTicket: &model.Image{
			URI:      "file:///tmp/ticket.png",
			Name:     "ticket.png",
			Type:     "image/png",
			FileSize: 2 << 20,
		},
	}
}

func requireNotice(t *testing.T, notices *Notices, level model.NotificationLevel, contains string) {
	t.Helper()
	for _, item := range notices.Items() {
		if item.Level == level && strings.Contains(item.Message, contains) {
			return
		}
	}
	t.Fatalf("expected %s notice containing %q, got %+v", level, contains, notices.Items())
}
