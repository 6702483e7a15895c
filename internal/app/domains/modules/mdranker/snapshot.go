package mdranker

import "strings"

// 特征名称
const (
	FeatureCategoryAffinity = "category_affinity"
	FeaturePriceDelta       = "price_delta"
	FeatureUnitCompat       = "unit_compat"
	FeatureAcceptanceRate   = "acceptance_rate"
	FeatureAvailability     = "availability"
)

// FeatureNames 特征顺序
var FeatureNames = []string{
	FeatureCategoryAffinity,
	FeaturePriceDelta,
	FeatureUnitCompat,
	FeatureAcceptanceRate,
	FeatureAvailability,
}

// Product 商品目录条目
type Product struct {
	Code           string  `yaml:"code"`
	Name           string  `yaml:"name"`
	Category       string  `yaml:"category"`
	Price          float64 `yaml:"price"`
	Unit           string  `yaml:"unit"`
	OnHand         float64 `yaml:"on_hand"`
	AcceptanceRate float64 `yaml:"acceptance_rate"`
}

// Group 品类的顶层分组（"dairy/milk" → "dairy"）
func (p *Product) Group() string {
	if i := strings.IndexByte(p.Category, '/'); i >= 0 {
		return p.Category[:i]
	}
	return p.Category
}

// Catalog 商品目录（只读）
type Catalog struct {
	Products []*Product `yaml:"products"`

	index map[string]*Product
}

// NewCatalog 构建目录索引
func NewCatalog(products []*Product) *Catalog {
	c := &Catalog{Products: products}
	c.reindex()
	return c
}

func (c *Catalog) reindex() {
	c.index = make(map[string]*Product, len(c.Products))
	for _, p := range c.Products {
		c.index[p.Code] = p
	}
}

// Lookup 按编码查询
func (c *Catalog) Lookup(code string) (*Product, bool) {
	if c == nil {
		return nil, false
	}
	p, ok := c.index[code]
	return p, ok
}

// Len 商品数量
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.Products)
}

// Model 逻辑回归适配度模型，权重非负保证单调
type Model struct {
	Version string             `yaml:"version"`
	Bias    float64            `yaml:"bias"`
	Weights map[string]float64 `yaml:"weights"`
}

// Snapshot 目录与模型的只读快照，整体原子替换
type Snapshot struct {
	Catalog *Catalog
	Model   *Model // nil 表示模型不可用，走兜底
}
