package shellgen

import (
	"fmt"
	"strings"
)

// Lang is a supported output locale
type Lang string

// Supported locales
const (
	LangEN Lang = "en"
	LangZH Lang = "zh"
)

// DefaultLang is used for unknown locales
const DefaultLang = LangEN

// ParseLang maps a locale name to a supported Lang; unknown values map to
// DefaultLang
func ParseLang(s string) Lang {
	switch Lang(strings.ToLower(strings.TrimSpace(s))) {
	case LangZH:
		return LangZH
	default:
		return DefaultLang
	}
}

// Message identifies a localized string
type Message string

// Localized messages used in generated scripts
const (
	MsgScriptsManager     Message = "psScriptsManager"
	MsgSelectScript       Message = "psSelectScript"
	MsgSelectCategory     Message = "psSelectCategory"
	MsgBackToCategories   Message = "psBackToCategories"
	MsgExit               Message = "psExit"
	MsgGoodbye            Message = "psGoodbye"
	MsgInvalidSelection   Message = "psInvalidSelection"
	MsgExecuting          Message = "psExecuting"
	MsgErrorExecuting     Message = "psErrorExecuting"
	MsgPressAnyKey        Message = "psPressAnyKey"
	MsgNoScriptsAvailable Message = "psNoScriptsAvailable"
	MsgErrorLoading       Message = "psErrorLoading"
	MsgLoadingLanguage    Message = "psLoadingLanguage"
	MsgScriptsCount       Message = "scriptsCount"
	MsgScriptsCountPlural Message = "scriptsCountPlural"
)

var translations = map[Lang]map[Message]string{
	LangEN: {
		MsgScriptsManager:     "PowerShell Scripts Manager",
		MsgSelectScript:       "Please select a script number",
		MsgSelectCategory:     "Please select a category",
		MsgBackToCategories:   "Back to Categories",
		MsgExit:               "Exit",
		MsgGoodbye:            "Goodbye!",
		MsgInvalidSelection:   "Invalid selection",
		MsgExecuting:          "Executing: {name}...",
		MsgErrorExecuting:     "Error executing script: {error}",
		MsgPressAnyKey:        "Press any key to continue...",
		MsgNoScriptsAvailable: "No scripts available",
		MsgErrorLoading:       "Error loading scripts",
		MsgLoadingLanguage:    "Loading scripts manager ({lang})...",
		MsgScriptsCount:       "{count} script",
		MsgScriptsCountPlural: "{count} scripts",
	},
	LangZH: {
		MsgScriptsManager:     "PowerShell 脚本管理器",
		MsgSelectScript:       "请选择脚本编号",
		MsgSelectCategory:     "请选择一个分类",
		MsgBackToCategories:   "返回分类",
		MsgExit:               "退出",
		MsgGoodbye:            "再见！",
		MsgInvalidSelection:   "无效选择",
		MsgExecuting:          "正在执行：{name}...",
		MsgErrorExecuting:     "执行脚本时出错：{error}",
		MsgPressAnyKey:        "按任意键继续...",
		MsgNoScriptsAvailable: "没有可用的脚本",
		MsgErrorLoading:       "加载脚本时出错",
		MsgLoadingLanguage:    "正在加载脚本管理器 ({lang})...",
		MsgScriptsCount:       "{count} 个脚本",
		MsgScriptsCountPlural: "{count} 个脚本",
	},
}

// T returns the localized text for msg with {placeholders} replaced from
// params. Missing translations fall back to DefaultLang and then to the key.
func T(lang Lang, msg Message, params ...any) string {
	text, ok := translations[lang][msg]
	if !ok {
		if text, ok = translations[DefaultLang][msg]; !ok {
			text = string(msg)
		}
	}
	for i := 0; i+1 < len(params); i += 2 {
		key, _ := params[i].(string)
		text = strings.ReplaceAll(text, "{"+key+"}", fmt.Sprint(params[i+1]))
	}
	return text
}
