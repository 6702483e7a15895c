package model

// PickShortageJob 仓库拣货缺货消息（仓库 → 履约服务）
type PickShortageJob struct {
	RequestID   string  `json:"request_id"`
	OrderID     string  `json:"orderId" validate:"required"`
	LineID      int64   `json:"lineId" validate:"gt=0"`
	ProductCode string  `json:"productCode"`
	ExpectedQty float64 `json:"expectedQty" validate:"gte=0"`
	PickedQty   float64 `json:"pickedQty" validate:"gte=0,ltefield=ExpectedQty"`
	PickerID    string  `json:"pickerId,omitempty"`
	Comment     string  `json:"comment,omitempty"`
	// PickedAt 拣货时间（Unix 毫秒），用于重放识别
	PickedAt int64 `json:"pickedAt,omitempty"`
}
