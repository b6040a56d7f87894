package utils

// Label 记录曲目在推荐链路中的来源与处理痕迹，例如 recall_source、filtered。
type Label struct {
	Value  string `json:"value"`
	Source string `json:"source"` // recall / filter / rerank / rule
}

// MergeLabel 合并同名 Label：Value 以 '|' 累积，Source 以 ',' 累积，空值不参与合并。
func MergeLabel(existing Label, incoming Label) Label {
	if existing.Value == "" {
		return incoming
	}
	if incoming.Value == "" {
		return existing
	}

	merged := Label{Value: existing.Value + "|" + incoming.Value}
	switch {
	case existing.Source == "":
		merged.Source = incoming.Source
	case incoming.Source == "", incoming.Source == existing.Source:
		merged.Source = existing.Source
	default:
		merged.Source = existing.Source + "," + incoming.Source
	}
	return merged
}
