package i18n

import (
	"strings"
	"sync"
)

// Translator renders localized violation messages.
// key is a message key (usually an issue code); data provides the values
// substituted into "{name}" placeholders (for example "path" or "min").
type Translator interface {
	Message(key string, data map[string]string) string
}

var english = map[string]string{
	"unknown_event":        "no schema registered for event '{event}'",
	"missing_record":       "event record missing or null",
	"invalid_record":       "event record expected object, got {got}",
	"required":             "missing required field: {path}",
	"unknown_key":          "unexpected field: {path}",
	"invalid_type":         `field "{path}" expected {expected}, got {got}`,
	"item_not_object":      "{path} expected object, got {got}",
	"const_mismatch":       `field "{path}" expected "{want}", got "{value}"`,
	"invalid_enum":         `field "{path}" value "{value}" not in allowed values: {allowed}`,
	"pattern":              `field "{path}" value "{value}" doesn't match pattern: {pattern}`,
	"length_below_min":     `field "{path}" length {len} below minimum: {min}`,
	"length_above_max":     `field "{path}" length {len} exceeds maximum: {max}`,
	"range_below_min":      `field "{path}" value {value} below minimum: {min}`,
	"range_above_max":      `field "{path}" value {value} exceeds maximum: {max}`,
	"items_below_min":      `field "{path}" array length {len} below minimum: {min}`,
	"items_above_max":      `field "{path}" array length {len} exceeds maximum: {max}`,
	"array_item_required":  "{path} is required but missing",
	"schema_too_deep":      `field "{path}" exceeds maximum nesting depth: {max}`,
	"no_event_found":       "no {event} event found in dataLayer",
	"event_name_too_long":  `event name "{event}" exceeds {max} characters`,
	"too_many_params":      `event "{event}" has {count} parameters (max {max})`,
	"param_name_too_long":  `parameter "{path}" exceeds {max} characters`,
	"param_value_too_long": `parameter "{path}" value exceeds {max} characters in event "{event}"`,
	"too_many_items":       `event "{event}" has {count} items (max {max})`,
}

var japanese = map[string]string{
	"unknown_event":       "イベント '{event}' のスキーマが登録されていません",
	"missing_record":      "イベントレコードがありません",
	"invalid_record":      "イベントレコードはオブジェクトである必要があります ({got})",
	"required":            "必須フィールドが不足しています: {path}",
	"unknown_key":         "未知のフィールドです: {path}",
	"invalid_type":        `フィールド "{path}" の型が不正です (期待: {expected}, 実際: {got})`,
	"item_not_object":     "{path} はオブジェクトである必要があります ({got})",
	"pattern":             `フィールド "{path}" の値 "{value}" がパターンに一致しません: {pattern}`,
	"array_item_required": "{path} は必須ですが不足しています",
	"no_event_found":      "dataLayer に {event} イベントが見つかりません",
}

// dictTranslator is the built-in dictionary-based Translator.
type dictTranslator struct{ lang string }

func (t dictTranslator) Message(key string, data map[string]string) string {
	tmpl, ok := "", false
	if t.lang == "ja" {
		tmpl, ok = japanese[key]
	}
	if !ok {
		tmpl, ok = english[key]
	}
	if !ok {
		return key
	}
	return render(tmpl, data)
}

func render(tmpl string, data map[string]string) string {
	if len(data) == 0 || !strings.Contains(tmpl, "{") {
		return tmpl
	}
	pairs := make([]string, 0, 2*len(data))
	for k, v := range data {
		pairs = append(pairs, "{"+k+"}", v)
	}
	return strings.NewReplacer(pairs...).Replace(tmpl)
}

var (
	mu                sync.RWMutex
	currentTranslator Translator = dictTranslator{lang: "en"}
)

// SetLanguage switches the built-in Translator language ("en"/"ja").
func SetLanguage(lang string) {
	if lang != "ja" {
		lang = "en"
	}
	SetTranslator(dictTranslator{lang: lang})
}

// SetTranslator replaces the Translator implementation (not limited to the
// dictionary version).
func SetTranslator(tr Translator) {
	if tr == nil {
		tr = dictTranslator{lang: "en"}
	}
	mu.Lock()
	currentTranslator = tr
	mu.Unlock()
}

// T fetches a message for the given key using the current Translator.
func T(key string, data map[string]string) string {
	mu.RLock()
	tr := currentTranslator
	mu.RUnlock()
	return tr.Message(key, data)
}
