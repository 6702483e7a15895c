package etorder

import "fmt"

// ClaimEndpoint 索赔接口路径
const ClaimEndpoint = "/api/orders/claims/create"

// Claim 售后索赔（尚未实现，仅作为占位）
type Claim struct {
	OrderID       string
	CustomerID    string
	Channel       string
	Description   string
	AttachmentIDs []string
}

// ClaimStub 索赔占位响应
type ClaimStub struct {
	Endpoint    string   `json:"endpoint"`
	Status      string   `json:"status"`
	Description []string `json:"description"`
}

// NewClaimStub 构造索赔占位响应，描述该接口未来的处理步骤
func NewClaimStub(c *Claim) ClaimStub {
	return ClaimStub{
		Endpoint: ClaimEndpoint,
		Status:   "NOT_IMPLEMENTED",
		Description: []string{
			fmt.Sprintf("Persist the complaint context for order %s submitted via %s.", c.OrderID, c.Channel),
			"Request Multimodal Evidence Service to validate provided attachmentIds.",
			"Based on the evaluation, call Compensation and orchestrate follow-up back-office actions.",
		},
	}
}
