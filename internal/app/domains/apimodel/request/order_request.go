package request

// CreateOrderRequest 创建订单请求
type CreateOrderRequest struct {
	OrderID    string             `json:"orderId" example:"ORD-1001"`
	CustomerID string             `json:"customerId" example:"CUST-1"`
	Items      []*CreateOrderItem `json:"items" binding:"required,min=1,dive,required"`
}

// CreateOrderItem 订单行
type CreateOrderItem struct {
	LineID      int64   `json:"lineId" binding:"required,gt=0" example:"10"`
	ProductCode string  `json:"productCode" binding:"required" example:"MILK-1L"`
	Name        string  `json:"name" example:"Whole milk 1L"`
	Qty         float64 `json:"qty" binding:"required,gt=0" example:"2"`
	Unit        string  `json:"unit" example:"pcs"`
}

// PickShortageRequest 拣货缺货事件
type PickShortageRequest struct {
	OrderID     string  `json:"orderId" binding:"required"`
	LineID      int64   `json:"lineId" binding:"required,gt=0"`
	ProductCode string  `json:"productCode"`
	ExpectedQty float64 `json:"expectedQty" binding:"gte=0"`
	PickedQty   float64 `json:"pickedQty" binding:"gte=0"`
	PickerID    string  `json:"pickerId"`
	Comment     string  `json:"comment"`
	// PickedAt 拣货时间（Unix 毫秒）
	PickedAt int64 `json:"pickedAt"`
}

// ProactiveLine 主动决策中的订单行
type ProactiveLine struct {
	LineID      int64   `json:"lineId"`
	ProductCode string  `json:"productCode"`
	Qty         float64 `json:"qty" binding:"gte=0"`
}

// ProactiveItem 可能缺货的行与可选的指定替代品
type ProactiveItem struct {
	From ProactiveLine  `json:"from"`
	To   *ProactiveLine `json:"to"`
}

// ProactiveRequest 主动缺货决策请求
type ProactiveRequest struct {
	Items []*ProactiveItem `json:"items" binding:"required,min=1,dive,required"`
}

// PreflightRequest 下单前预检请求
type PreflightRequest struct {
	OrderID    string           `json:"orderId"`
	CustomerID string           `json:"customerId"`
	Items      []*ProactiveLine `json:"items" binding:"required,min=1,dive,required"`
}

// CustomerResponseRequest 客户回复
type CustomerResponseRequest struct {
	SessionID string                 `json:"sessionId" binding:"required"`
	Text      string                 `json:"text"`
	Texts     []string               `json:"texts"`
	Context   map[string]interface{} `json:"context"`
}

// AllTexts 合并 text 与 texts
func (r *CustomerResponseRequest) AllTexts() []string {
	texts := make([]string, 0, len(r.Texts)+1)
	if r.Text != "" {
		texts = append(texts, r.Text)
	}
	return append(texts, r.Texts...)
}

// TransitionRequest 状态流转（fulfil/cancel）的可选原因
type TransitionRequest struct {
	Reason string `json:"reason"`
}

// CreateClaimRequest 售后索赔
type CreateClaimRequest struct {
	OrderID       string   `json:"orderId" binding:"required"`
	CustomerID    string   `json:"customerId"`
	Channel       string   `json:"channel"`
	Description   string   `json:"description"`
	AttachmentIDs []string `json:"attachmentIds"`
}
