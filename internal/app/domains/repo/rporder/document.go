package rporder

import (
	"time"

	"github.com/shopspring/decimal"

	"fulfilment/internal/app/domains/entity/etorder"
)

// orderDocument 订单聚合的 JSON 文档
type orderDocument struct {
	Lines             []lineDoc     `json:"lines"`
	Shortages         []shortageDoc `json:"shortages,omitempty"`
	Decisions         []decisionDoc `json:"decisions,omitempty"`
	Claims            []claimDoc    `json:"claims,omitempty"`
	ExpectedShortages []int64       `json:"expectedShortages,omitempty"`
}

type lineDoc struct {
	LineID      int64           `json:"lineId"`
	ProductCode string          `json:"productCode"`
	Name        string          `json:"name,omitempty"`
	Quantity    decimal.Decimal `json:"qty"`
	Unit        string          `json:"unit,omitempty"`
}

type shortageDoc struct {
	LineID      int64           `json:"lineId"`
	ProductCode string          `json:"productCode,omitempty"`
	Expected    decimal.Decimal `json:"expectedQty"`
	Picked      decimal.Decimal `json:"pickedQty"`
	PickerID    string          `json:"pickerId,omitempty"`
	Comment     string          `json:"comment,omitempty"`
	At          time.Time       `json:"at"`
}

type replacementDoc struct {
	ProductCode string  `json:"productCode"`
	Score       float64 `json:"score"`
	Name        string  `json:"name,omitempty"`
}

type decisionDoc struct {
	Seq            int64            `json:"seq"`
	LineID         int64            `json:"lineId"`
	Action         string           `json:"action"`
	Replacements   []replacementDoc `json:"replacements,omitempty"`
	ReplacementQty decimal.Decimal  `json:"replacementQty"`
	KeptQty        decimal.Decimal  `json:"keptQty"`
	Source         string           `json:"source"`
	Confirmed      bool             `json:"confirmed"`
	Reason         string           `json:"reason,omitempty"`
	DecidedAt      time.Time        `json:"decidedAt"`
}

type claimDoc struct {
	OrderID       string   `json:"orderId"`
	CustomerID    string   `json:"customerId,omitempty"`
	Channel       string   `json:"channel,omitempty"`
	Description   string   `json:"description,omitempty"`
	AttachmentIDs []string `json:"attachmentIds,omitempty"`
}

func toDocument(o *etorder.Order) orderDocument {
	doc := orderDocument{ExpectedShortages: o.ExpectedShortages}
	for _, l := range o.Lines {
		doc.Lines = append(doc.Lines, lineDoc{
			LineID: l.LineID, ProductCode: l.ProductCode, Name: l.Name, Quantity: l.Quantity, Unit: l.Unit,
		})
	}
	for _, s := range o.Shortages {
		doc.Shortages = append(doc.Shortages, shortageDoc{
			LineID: s.LineID, ProductCode: s.ProductCode, Expected: s.Expected, Picked: s.Picked,
			PickerID: s.PickerID, Comment: s.Comment, At: s.At,
		})
	}
	for _, d := range o.Decisions {
		dd := decisionDoc{
			Seq: d.Seq, LineID: d.LineID, Action: string(d.Action), ReplacementQty: d.ReplacementQty,
			KeptQty: d.KeptQty, Source: string(d.Source), Confirmed: d.Confirmed, Reason: d.Reason, DecidedAt: d.DecidedAt,
		}
		for _, r := range d.Replacements {
			dd.Replacements = append(dd.Replacements, replacementDoc{ProductCode: r.ProductCode, Score: r.Score, Name: r.Name})
		}
		doc.Decisions = append(doc.Decisions, dd)
	}
	for _, c := range o.Claims {
		doc.Claims = append(doc.Claims, claimDoc{
			OrderID: c.OrderID, CustomerID: c.CustomerID, Channel: c.Channel,
			Description: c.Description, AttachmentIDs: c.AttachmentIDs,
		})
	}
	return doc
}

func (doc orderDocument) apply(o *etorder.Order) {
	o.ExpectedShortages = doc.ExpectedShortages
	for _, l := range doc.Lines {
		o.Lines = append(o.Lines, &etorder.OrderLine{
			LineID: l.LineID, ProductCode: l.ProductCode, Name: l.Name, Quantity: l.Quantity, Unit: l.Unit,
		})
	}
	for _, s := range doc.Shortages {
		o.Shortages = append(o.Shortages, &etorder.Shortage{
			LineID: s.LineID, ProductCode: s.ProductCode, Expected: s.Expected, Picked: s.Picked,
			PickerID: s.PickerID, Comment: s.Comment, At: s.At,
		})
	}
	for _, d := range doc.Decisions {
		dd := &etorder.Decision{
			Seq: d.Seq, LineID: d.LineID, Action: etorder.Action(d.Action), ReplacementQty: d.ReplacementQty,
			KeptQty: d.KeptQty, Source: etorder.Source(d.Source), Confirmed: d.Confirmed, Reason: d.Reason, DecidedAt: d.DecidedAt,
		}
		for _, r := range d.Replacements {
			dd.Replacements = append(dd.Replacements, etorder.Replacement{ProductCode: r.ProductCode, Score: r.Score, Name: r.Name})
		}
		o.Decisions = append(o.Decisions, dd)
	}
	for _, c := range doc.Claims {
		o.Claims = append(o.Claims, &etorder.Claim{
			OrderID: c.OrderID, CustomerID: c.CustomerID, Channel: c.Channel,
			Description: c.Description, AttachmentIDs: c.AttachmentIDs,
		})
	}
}
