package minify

func set(names ...string) map[string]bool {
	m := make(map[string]bool, len(names))
	for _, n := range names {
		m[n] = true
	}
	return m
}

var voidElements = set(
	"area", "base", "br", "col", "embed", "hr", "img", "input", "keygen",
	"link", "meta", "param", "source", "track", "wbr",
)

// optionalEndTags may be left unclosed.
var optionalEndTags = set(
	"html", "head", "body", "li", "dt", "dd", "p", "rt", "rp", "optgroup",
	"option", "colgroup", "caption", "thead", "tbody", "tfoot", "tr", "td", "th",
)

var inlineElements = set(
	"a", "abbr", "acronym", "b", "bdi", "bdo", "big", "button", "cite", "code",
	"del", "dfn", "em", "font", "i", "img", "input", "ins", "kbd", "label",
	"mark", "math", "nobr", "object", "q", "rp", "rt", "rtc", "ruby", "s",
	"samp", "select", "small", "span", "strike", "strong", "sub", "sup", "svg",
	"textarea", "time", "tt", "u", "var", "wbr",
)

// preserveElements keep their content whitespace verbatim.
var preserveElements = set("pre", "textarea", "script", "style")

var booleanAttributes = set(
	"allowfullscreen", "async", "autofocus", "autoplay", "checked", "compact",
	"controls", "declare", "default", "defaultchecked", "defaultmuted",
	"defaultselected", "defer", "disabled", "enabled", "formnovalidate",
	"hidden", "indeterminate", "inert", "ismap", "itemscope", "loop",
	"multiple", "muted", "nohref", "noresize", "noshade", "novalidate",
	"nowrap", "open", "pauseonexit", "readonly", "required", "reversed",
	"scoped", "seamless", "selected", "sortable", "truespeed",
	"typemustmatch", "visible",
)

var closesParagraph = set(
	"address", "article", "aside", "blockquote", "details", "div", "dl",
	"fieldset", "figcaption", "figure", "footer", "form", "h1", "h2", "h3",
	"h4", "h5", "h6", "header", "hgroup", "hr", "main", "menu", "nav", "ol",
	"p", "pre", "section", "table", "ul",
)

// closesImplicitly reports whether opening next ends the still-open element.
func closesImplicitly(open, next string) bool {
	switch open {
	case "p":
		return closesParagraph[next]
	case "li":
		return next == "li"
	case "dt", "dd":
		return next == "dt" || next == "dd"
	case "option":
		return next == "option" || next == "optgroup"
	case "optgroup":
		return next == "optgroup"
	case "rt", "rp":
		return next == "rt" || next == "rp"
	case "td", "th":
		return next == "td" || next == "th" || next == "tr" || next == "tbody" || next == "tfoot"
	case "tr":
		return next == "tr" || next == "tbody" || next == "tfoot"
	case "thead", "tbody":
		return next == "tbody" || next == "tfoot"
	case "colgroup", "caption":
		return next != "col"
	case "head":
		return next == "body"
	}
	return false
}
