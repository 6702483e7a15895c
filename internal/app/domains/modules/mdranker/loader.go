package mdranker

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"

	"fulfilment/internal/app/pkg/errorx"
)

// LoadCatalog 读取商品目录 YAML
func LoadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog failed: %w", err)
	}
	return ParseCatalog(data)
}

// ParseCatalog 解析商品目录
func ParseCatalog(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("decode catalog failed: %w", err)
	}

	seen := make(map[string]struct{}, len(c.Products))
	for i, p := range c.Products {
		if p == nil || p.Code == "" {
			return nil, fmt.Errorf("catalog product #%d has no code", i)
		}
		if _, dup := seen[p.Code]; dup {
			return nil, fmt.Errorf("catalog product %s is duplicated", p.Code)
		}
		seen[p.Code] = struct{}{}
		if p.AcceptanceRate < 0 || p.AcceptanceRate > 1 {
			return nil, fmt.Errorf("catalog product %s acceptance_rate out of [0,1]", p.Code)
		}
	}
	c.reindex()
	return &c, nil
}

// LoadModel 读取模型 YAML，文件不存在返回 ErrModelUnavailable
func LoadModel(path string) (*Model, error) {
	if path == "" {
		return nil, errorx.ErrModelUnavailable
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", errorx.ErrModelUnavailable, path)
		}
		return nil, fmt.Errorf("read model failed: %w", err)
	}
	return ParseModel(data)
}

// ParseModel 解析模型并校验权重非负
func ParseModel(data []byte) (*Model, error) {
	var m Model
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decode model failed: %w", err)
	}
	if len(m.Weights) == 0 {
		return nil, fmt.Errorf("%w: model has no weights", errorx.ErrModelUnavailable)
	}

	known := make(map[string]struct{}, len(FeatureNames))
	for _, f := range FeatureNames {
		known[f] = struct{}{}
	}
	for name, w := range m.Weights {
		if _, ok := known[name]; !ok {
			return nil, fmt.Errorf("model weight %q is not a known feature", name)
		}
		if w < 0 {
			return nil, fmt.Errorf("model weight %q must be non-negative, got %v", name, w)
		}
	}
	return &m, nil
}

// LoadSnapshot 读取目录与模型；模型缺失不算错误，快照以兜底模式运行
func LoadSnapshot(catalogPath, modelPath string) (*Snapshot, error) {
	snap := &Snapshot{Catalog: NewCatalog(nil)}

	if catalogPath != "" {
		catalog, err := LoadCatalog(catalogPath)
		if err != nil {
			return nil, err
		}
		snap.Catalog = catalog
	}

	model, err := LoadModel(modelPath)
	switch {
	case err == nil:
		snap.Model = model
	case errors.Is(err, errorx.ErrModelUnavailable):
		snap.Model = nil
	default:
		return nil, err
	}
	return snap, nil
}
