package request

import (
	"time"

	"github.com/shopspring/decimal"

	"fulfilment/internal/app/domains/entity/etorder"
	"fulfilment/internal/app/domains/services/svorder"
	"fulfilment/internal/app/domains/services/svsubstitution"
)

// ToCreateOrderCmd 转换为创建订单命令
func (r *CreateOrderRequest) ToCreateOrderCmd() svorder.CreateOrderCmd {
	lines := make([]*etorder.OrderLine, 0, len(r.Items))
	for _, it := range r.Items {
		lines = append(lines, &etorder.OrderLine{
			LineID:      it.LineID,
			ProductCode: it.ProductCode,
			Name:        it.Name,
			Quantity:    decimal.NewFromFloat(it.Qty),
			Unit:        it.Unit,
		})
	}
	return svorder.CreateOrderCmd{OrderID: r.OrderID, CustomerID: r.CustomerID, Lines: lines}
}

// ToShortageCmd 转换为缺货命令
func (r *PickShortageRequest) ToShortageCmd() svorder.ShortageCmd {
	cmd := svorder.ShortageCmd{
		OrderID:     r.OrderID,
		LineID:      r.LineID,
		ProductCode: r.ProductCode,
		ExpectedQty: decimal.NewFromFloat(r.ExpectedQty),
		PickedQty:   decimal.NewFromFloat(r.PickedQty),
		PickerID:    r.PickerID,
		Comment:     r.Comment,
	}
	if r.PickedAt > 0 {
		cmd.At = time.UnixMilli(r.PickedAt).UTC()
	}
	return cmd
}

// ToProactiveItems 转换为主动决策项
func (r *ProactiveRequest) ToProactiveItems() []svorder.ProactiveItem {
	items := make([]svorder.ProactiveItem, 0, len(r.Items))
	for _, it := range r.Items {
		item := svorder.ProactiveItem{From: toProactiveLine(it.From)}
		if it.To != nil {
			to := toProactiveLine(*it.To)
			item.To = &to
		}
		items = append(items, item)
	}
	return items
}

// ToPreflightCmd 转换为预检命令
func (r *PreflightRequest) ToPreflightCmd() svorder.PreflightCmd {
	lines := make([]svorder.ProactiveLine, 0, len(r.Items))
	for _, l := range r.Items {
		lines = append(lines, toProactiveLine(*l))
	}
	return svorder.PreflightCmd{OrderID: r.OrderID, CustomerID: r.CustomerID, Lines: lines}
}

// ToCustomerResponseCmd 转换为客户回复命令
func (r *CustomerResponseRequest) ToCustomerResponseCmd(orderID string) svorder.CustomerResponseCmd {
	return svorder.CustomerResponseCmd{
		OrderID:   orderID,
		SessionID: r.SessionID,
		Texts:     r.AllTexts(),
		Context:   r.Context,
	}
}

// ToClaimEntity 转换为索赔实体
func (r *CreateClaimRequest) ToClaimEntity() *etorder.Claim {
	return &etorder.Claim{
		OrderID:       r.OrderID,
		CustomerID:    r.CustomerID,
		Channel:       r.Channel,
		Description:   r.Description,
		AttachmentIDs: r.AttachmentIDs,
	}
}

// ToSuggestCmd 转换为推荐命令
func (r *SuggestRequest) ToSuggestCmd() svsubstitution.SuggestCmd {
	return svsubstitution.SuggestCmd{SKU: r.SKU, K: r.K, Context: r.Context}
}

func toProactiveLine(l ProactiveLine) svorder.ProactiveLine {
	return svorder.ProactiveLine{
		LineID:      l.LineID,
		ProductCode: l.ProductCode,
		Qty:         decimal.NewFromFloat(l.Qty),
	}
}
