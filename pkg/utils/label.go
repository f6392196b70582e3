package utils

import "strings"

// Label 记录条目在推荐链路中途经的来源与策略，用于可解释性与调试。
// Value 为标签内容（如召回方法名），Source 为打标阶段（recall / rank / rerank ...）。
type Label struct {
	Value  string `json:"value"`
	Source string `json:"source"`
}

// MergeLabel 将 incoming 合并进标签列表：
//   - 同 Source 的标签只保留一条，Value 以 '|' 累积（重复值去重）
//   - 不同 Source 的标签各自独立
func MergeLabel(labels []Label, incoming Label) []Label {
	if incoming.Value == "" {
		return labels
	}
	for i, l := range labels {
		if l.Source != incoming.Source {
			continue
		}
		for _, v := range strings.Split(l.Value, "|") {
			if v == incoming.Value {
				return labels
			}
		}
		labels[i].Value = l.Value + "|" + incoming.Value
		return labels
	}
	return append(labels, incoming)
}

// LabelValues 返回指定 Source 下的全部标签值。
func LabelValues(labels []Label, source string) []string {
	for _, l := range labels {
		if l.Source == source {
			return strings.Split(l.Value, "|")
		}
	}
	return nil
}

// HasLabelValue 判断指定 Source 下是否存在某个标签值。
func HasLabelValue(labels []Label, source, value string) bool {
	for _, v := range LabelValues(labels, source) {
		if v == value {
			return true
		}
	}
	return false
}
