package prompt

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// Plan is the optional DIY-vs-studio recommendation a reply may carry.
// The object is forwarded exactly as the model wrote it, extra keys and
// all. The typed fields are a best-effort projection for the lead email.
type Plan struct {
	ProblemStatement string
	DIYOption        *DIYOption
	StudioOption     *StudioOption

	raw json.RawMessage
}

type DIYOption struct {
	Tools             []string `json:"tools"`
	EffortHours       Amount   `json:"effort_hours"`
	EstCostUSDMonthly Amount   `json:"est_cost_usd_monthly"`
}

type StudioOption struct {
	TimelineWeeksTotal Amount `json:"timeline_weeks_total"`
	PriceBandUSD       Amount `json:"price_band_usd"`
}

// Amount is a plan figure the model writes either as a number or as free
// text ("20-40"). Empty means unset.
type Amount string

func (a *Amount) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*a = ""
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*a = Amount(s)
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	*a = Amount(strconv.FormatFloat(f, 'f', -1, 64))
	return nil
}

// UnmarshalJSON keeps the raw object and never fails on a field of the
// wrong shape: such fields are left unset in the projection.
func (p *Plan) UnmarshalJSON(data []byte) error {
	p.raw = append(json.RawMessage(nil), data...)

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil
	}
	if v, ok := fields["problem_statement"]; ok {
		_ = json.Unmarshal(v, &p.ProblemStatement)
	}
	if v, ok := fields["diy_option"]; ok {
		p.DIYOption = decodeOption[DIYOption](v)
	}
	if v, ok := fields["limbo_option"]; ok {
		p.StudioOption = decodeOption[StudioOption](v)
	}
	return nil
}

func (p Plan) MarshalJSON() ([]byte, error) {
	if len(p.raw) > 0 {
		return p.raw, nil
	}
	out := map[string]any{}
	if p.ProblemStatement != "" {
		out["problem_statement"] = p.ProblemStatement
	}
	if p.DIYOption != nil {
		out["diy_option"] = p.DIYOption
	}
	if p.StudioOption != nil {
		out["limbo_option"] = p.StudioOption
	}
	return json.Marshal(out)
}

// decodeOption decodes the object key by key so one bad value does not
// discard its siblings. Non-objects yield nil.
func decodeOption[T any](data json.RawMessage) *T {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil || fields == nil {
		return nil
	}
	var out T
	for k, v := range fields {
		one, err := json.Marshal(map[string]json.RawMessage{k: v})
		if err != nil {
			continue
		}
		_ = json.Unmarshal(one, &out)
	}
	return &out
}
