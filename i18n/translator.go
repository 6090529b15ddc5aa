package i18n

import "sync"

// Translator retrieves localized titles for error codes.
// data provides optional metadata to embed in the message (for example,
// "expected" or "field").
type Translator interface {
	Message(code string, data map[string]string) string
}

// dictTranslator is the built-in dictionary-based Translator.
type dictTranslator struct{ lang string }

func (t dictTranslator) Message(code string, data map[string]string) string {
	switch t.lang {
	case "ja":
		switch code {
		case "FieldTypeError":
			return "フィールドの型が不正です"
		case "ValueConstraintError":
			return "値の制約に違反しています"
		case "TypeConstraintError":
			return "型の制約に違反しています"
		case "ElementTypeError":
			return "要素の型が不正です"
		case "UnknownFieldError":
			return "未知のフィールドです"
		case "ClassReferenceError":
			return "クラス参照を解決できません"
		case "CycleError":
			return "循環参照があります"
		case "ImmutableDefaultError":
			return "変更可能なデフォルト値は使用できません"
		case "ParseError":
			return "解析エラー"
		case "DuplicateKeyError":
			return "キーが重複しています"
		case "LimitError":
			return "入力が制限を超えています"
		}
	default: // "en"
		switch code {
		case "FieldTypeError":
			return "field type error"
		case "ValueConstraintError":
			return "value constraint error"
		case "TypeConstraintError":
			return "type constraint error"
		case "ElementTypeError":
			return "element type error"
		case "UnknownFieldError":
			return "unknown field"
		case "ClassReferenceError":
			return "class reference error"
		case "CycleError":
			return "cycle detected"
		case "ImmutableDefaultError":
			return "mutable default not allowed"
		case "ParseError":
			return "parse error"
		case "DuplicateKeyError":
			return "duplicate key"
		case "LimitError":
			return "limit exceeded"
		}
	}
	return code
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
	mu.Lock()
	currentTranslator = dictTranslator{lang: lang}
	mu.Unlock()
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

// T fetches a message for the given code using the current Translator.
func T(code string, data map[string]string) string {
	mu.RLock()
	tr := currentTranslator
	mu.RUnlock()
	return tr.Message(code, data)
}
