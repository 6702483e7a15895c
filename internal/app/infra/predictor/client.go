package predictor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"fulfilment/internal/app/pkg/errorx"
)

// Client 缺货预测服务 HTTP 客户端
type Client struct {
	baseURL string
	timeout time.Duration
	http    *http.Client
}

// NewClient 创建预测客户端
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		timeout: timeout,
		http:    &http.Client{},
	}
}

// OrderItem 预测请求中的订单行
type OrderItem struct {
	LineID      int64   `json:"line_id"`
	ProductCode string  `json:"product_code"`
	Qty         float64 `json:"qty"`
}

// Order 预测请求
type Order struct {
	OrderID    string      `json:"order_id"`
	CustomerID string      `json:"customer_id,omitempty"`
	Items      []OrderItem `json:"items"`
}

// ItemPrediction 单行预测
type ItemPrediction struct {
	LineID      int64   `json:"line_id"`
	ProductCode string  `json:"product_code"`
	InStock     bool    `json:"in_stock"`
	Probability float64 `json:"probability"`
}

// Prediction 整单预测
type Prediction struct {
	Prediction string           `json:"prediction"`
	Items      []ItemPrediction `json:"items"`
}

// ShortageLines 预测缺货的行
func (p *Prediction) ShortageLines() []int64 {
	var out []int64
	for _, it := range p.Items {
		if !it.InStock {
			out = append(out, it.LineID)
		}
	}
	return out
}

// Predict 整单缺货预测
func (c *Client) Predict(ctx context.Context, order Order) (*Prediction, error) {
	var out Prediction
	if err := c.post(ctx, "/predict", order, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// PredictOrder 返回可能缺货的行 ID
func (c *Client) PredictOrder(ctx context.Context, order Order) ([]int64, error) {
	var out struct {
		LineIDs []int64 `json:"lineIds"`
	}
	if err := c.post(ctx, "/predict/order", order, &out); err != nil {
		return nil, err
	}
	return out.LineIDs, nil
}

func (c *Client) post(ctx context.Context, path string, body, out interface{}) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode predictor request failed: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return errorx.DependencyUnavailable("predictor %s: %v", path, err).WithCause(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return errorx.DependencyUnavailable("predictor %s: status=%d", path, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errorx.DependencyUnavailable("predictor %s: decode response: %v", path, err).WithCause(err)
	}
	return nil
}
