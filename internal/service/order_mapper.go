package service

import (
	"strings"
	"time"

	"balcao/internal/dto"
	"balcao/internal/model"
	"balcao/internal/orderflow"
	"balcao/internal/payment"
	"balcao/internal/schedule"
)

func orderToResponse(o *model.Order) dto.OrderResponse {
	resp := dto.OrderResponse{
		ID:            o.ID.String(),
		OrderNumber:   o.OrderNumber,
		Source:        o.Source,
		Status:        o.Status,
		StatusLabel:   orderflow.Status(o.Status).Label(),
		Total:         o.Total,
		DeliveryFee:   o.DeliveryFee,
		PaymentMethod: o.PaymentMethod,
		CustomerName:  o.CustomerName,
		Delivery:      o.Delivery,
		Address:       deliveryAddress(o),
		PickupTime:    o.PickupTime,
		CreatedAt:     o.CreatedAt.Format(time.RFC3339),
		Items:         make([]dto.OrderItemResponse, 0, len(o.Items)),
	}
	if o.CustomerID != nil {
		id := o.CustomerID.String()
		resp.CustomerID = &id
	}
	if o.CashRegisterID != nil {
		id := o.CashRegisterID.String()
		resp.CashRegisterID = &id
	}
	if o.ReservationDate != nil {
		d := o.ReservationDate.Format(schedule.DateLayout)
		resp.ReservationAt = &d
	}
	for _, p := range o.Payments {
		m := payment.Method(p.Method)
		resp.Payments = append(resp.Payments, dto.PaymentPartResponse{Method: p.Method, Label: m.Label(), Amount: p.Amount})
		if m == payment.Loyalty {
			resp.PointsRedeemed = int(p.Amount.IntPart())
		}
	}
	for _, it := range o.Items {
		ir := dto.OrderItemResponse{
			ProductID:            it.ProductID.String(),
			Name:                 lineName(it),
			Quantity:             it.Quantity,
			UnitPrice:            it.ProductPrice,
			Subtotal:             it.Subtotal,
			IsRedeemedWithPoints: it.IsRedeemedWithPoints,
		}
		if it.VariationID != nil {
			id := it.VariationID.String()
			ir.VariationID = &id
		}
		resp.Items = append(resp.Items, ir)
	}
	return resp
}

// deliveryAddress renders "Rua X, 10 - Bairro (ref)" for delivery orders.
func deliveryAddress(o *model.Order) string {
	if !o.Delivery || o.DeliveryAddress == nil {
		return ""
	}
	var b strings.Builder
	b.WriteString(*o.DeliveryAddress)
	if o.DeliveryNumber != nil && *o.DeliveryNumber != "" {
		b.WriteString(", " + *o.DeliveryNumber)
	}
	if o.DeliveryNeighborhood != nil && *o.DeliveryNeighborhood != "" {
		b.WriteString(" - " + *o.DeliveryNeighborhood)
	}
	if o.DeliveryReference != nil && *o.DeliveryReference != "" {
		b.WriteString(" (" + *o.DeliveryReference + ")")
	}
	return b.String()
}
