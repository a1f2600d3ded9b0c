package theme

import (
	"os"
	"strings"
)

// SymbolSet holds all UI symbols, allowing runtime switching between
// Unicode and ASCII fallback sets.
type SymbolSet struct {
	Success  string
	Error    string
	Info     string
	ArrowR   string
	Bullet   string
	Ellipsis string
	User     string
}

var unicodeSymbols = SymbolSet{
	Success:  "✓",
	Error:    "✗",
	Info:     "●",
	ArrowR:   "→",
	Bullet:   "•",
	Ellipsis: "…",
	User:     "You",
}

var asciiSymbols = SymbolSet{
	Success:  "[OK]",
	Error:    "[ERR]",
	Info:     "[i]",
	ArrowR:   "->",
	Bullet:   "*",
	Ellipsis: "...",
	User:     "You",
}

// Current symbols. Unicode unless ApplySymbols chose ASCII.
var (
	SymbolSuccess  = unicodeSymbols.Success
	SymbolError    = unicodeSymbols.Error
	SymbolInfo     = unicodeSymbols.Info
	SymbolArrowR   = unicodeSymbols.ArrowR
	SymbolBullet   = unicodeSymbols.Bullet
	SymbolEllipsis = unicodeSymbols.Ellipsis
	SymbolUser     = unicodeSymbols.User
)

// localeIsUTF8 reports whether the locale variables name a UTF-8 charset.
// An unset locale counts as UTF-8: most modern terminals are.
func localeIsUTF8() bool {
	for _, key := range []string{"LC_ALL", "LC_CTYPE", "LANG"} {
		val := strings.ToLower(os.Getenv(key))
		if val == "" {
			continue
		}
		return strings.Contains(val, "utf-8") || strings.Contains(val, "utf8")
	}
	return true
}

// ApplySymbols selects the symbol set. forceASCII comes from ui.ascii_symbols;
// a non-UTF-8 locale also selects ASCII.
func ApplySymbols(forceASCII bool) SymbolSet {
	set := unicodeSymbols
	if forceASCII || !localeIsUTF8() {
		set = asciiSymbols
	}

	SymbolSuccess = set.Success
	SymbolError = set.Error
	SymbolInfo = set.Info
	SymbolArrowR = set.ArrowR
	SymbolBullet = set.Bullet
	SymbolEllipsis = set.Ellipsis
	SymbolUser = set.User
	return set
}
