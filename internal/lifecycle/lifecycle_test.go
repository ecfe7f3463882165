package lifecycle

import (
	"testing"

	"github.com/mmeshcher/storefront-system/internal/model"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		name string
		from model.OrderStatus
		to   model.OrderStatus
		want bool
	}{
		{
			name: "pending to processing",
			from: model.OrderStatusPending,
			to:   model.OrderStatusProcessing,
			want: true,
		},
		{
			name: "pending to cancelled",
			from: model.OrderStatusPending,
			to:   model.OrderStatusCancelled,
			want: true,
		},
		{
			name: "pending skips to shipped",
			from: model.OrderStatusPending,
			to:   model.OrderStatusShipped,
			want: false,
		},
		{
			name: "pending skips to delivered",
			from: model.OrderStatusPending,
			to:   model.OrderStatusDelivered,
			want: false,
		},
		{
			name: "processing to shipped",
			from: model.OrderStatusProcessing,
			to:   model.OrderStatusShipped,
			want: true,
		},
		{
			name: "processing to cancelled",
			from: model.OrderStatusProcessing,
			to:   model.OrderStatusCancelled,
			want: true,
		},
		{
			name: "shipped to delivered",
			from: model.OrderStatusShipped,
			to:   model.OrderStatusDelivered,
			want: true,
		},
		{
			name: "shipped cannot be cancelled",
			from: model.OrderStatusShipped,
			to:   model.OrderStatusCancelled,
			want: false,
		},
		{
			name: "no transition to same status",
			from: model.OrderStatusPending,
			to:   model.OrderStatusPending,
			want: false,
		},
		{
			name: "unknown status",
			from: model.OrderStatus("archived"),
			to:   model.OrderStatusPending,
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CanTransition(tt.from, tt.to); got != tt.want {
				t.Fatalf("CanTransition(%s, %s) = %v, want %v", tt.from, tt.to, got, tt.want)
			}
		})
	}
}

func TestTerminalStatusesHaveNoOutgoingTransitions(t *testing.T) {
	all := []model.OrderStatus{
		model.OrderStatusPending,
		model.OrderStatusProcessing,
		model.OrderStatusShipped,
		model.OrderStatusDelivered,
		model.OrderStatusCancelled,
	}

	for _, terminal := range []model.OrderStatus{model.OrderStatusDelivered, model.OrderStatusCancelled} {
		if !IsTerminal(terminal) {
			t.Fatalf("IsTerminal(%s) = false, want true", terminal)
		}
		for _, to := range all {
			if CanTransition(terminal, to) {
				t.Fatalf("terminal status %s must not allow transition to %s", terminal, to)
			}
		}
	}
}

func TestIsValid(t *testing.T) {
	if !IsValid(model.OrderStatusPending) {
		t.Fatalf("pending must be a valid status")
	}
	if IsValid(model.OrderStatus("unknown")) {
		t.Fatalf("unknown status must not be valid")
	}
	if IsTerminal(model.OrderStatus("unknown")) {
		t.Fatalf("unknown status must not be terminal")
	}
}

func TestAllowed(t *testing.T) {
	allowed := Allowed(model.OrderStatusProcessing)
	if len(allowed) != 2 {
		t.Fatalf("Allowed(processing) returned %d statuses, want 2", len(allowed))
	}
}

func TestDisplaySplit(t *testing.T) {
	subtotal := DisplaySubtotal(100)
	tax := DisplayTax(100)

	if subtotal != 90 {
		t.Fatalf("DisplaySubtotal(100) = %v, want 90", subtotal)
	}
	if tax != 10 {
		t.Fatalf("DisplayTax(100) = %v, want 10", tax)
	}
	if subtotal+tax != 100 {
		t.Fatalf("subtotal + tax = %v, want 100", subtotal+tax)
	}
}
