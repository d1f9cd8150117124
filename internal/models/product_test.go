package models

import "testing"

func TestProductCreateRequest_Validate(t *testing.T) {
	valid := func() ProductCreateRequest {
		return ProductCreateRequest{
			EventID:    1,
			Name:       "Conference Dinner",
			Price:      45000,
			VATPercent: 15,
			Visibility: VisibilityEvent,
		}
	}

	tests := []struct {
		name    string
		mutate  func(*ProductCreateRequest)
		wantErr bool
	}{
		{"valid product", func(p *ProductCreateRequest) {}, false},
		{"defaults empty visibility to event", func(p *ProductCreateRequest) { p.Visibility = "" }, false},
		{"missing event", func(p *ProductCreateRequest) { p.EventID = 0 }, true},
		{"empty name", func(p *ProductCreateRequest) { p.Name = "  " }, true},
		{"negative price", func(p *ProductCreateRequest) { p.Price = -1 }, true},
		{"vat above 100", func(p *ProductCreateRequest) { p.VATPercent = 101 }, true},
		{"negative minimum quantity", func(p *ProductCreateRequest) { p.MinimumQuantity = -1 }, true},
		{"unknown visibility", func(p *ProductCreateRequest) { p.Visibility = "global" }, true},
		{"variant without name", func(p *ProductCreateRequest) {
			p.Variants = []ProductVariantCreateRequest{{Name: "", Price: 100}}
		}, true},
		{"variant with negative price", func(p *ProductCreateRequest) {
			p.Variants = []ProductVariantCreateRequest{{Name: "Small", Price: -5}}
		}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := valid()
			tt.mutate(&req)
			err := req.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestProduct_OrderableFrom(t *testing.T) {
	tests := []struct {
		name    string
		product Product
		eventID int
		want    bool
	}{
		{"own event", Product{EventID: 1, Visibility: VisibilityEvent}, 1, true},
		{"foreign event", Product{EventID: 1, Visibility: VisibilityEvent}, 2, false},
		{"collection product from any event", Product{EventID: 1, Visibility: VisibilityCollection}, 2, true},
		{"archived product", Product{EventID: 1, Visibility: VisibilityEvent, Archived: true}, 1, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.product.OrderableFrom(tt.eventID); got != tt.want {
				t.Errorf("OrderableFrom(%d) = %v, want %v", tt.eventID, got, tt.want)
			}
		})
	}
}

func TestProduct_IsMandatory(t *testing.T) {
	if (&Product{MinimumQuantity: 0}).IsMandatory() {
		t.Error("product without minimum quantity reported mandatory")
	}
	if !(&Product{MinimumQuantity: 1}).IsMandatory() {
		t.Error("product with minimum quantity not reported mandatory")
	}
}
