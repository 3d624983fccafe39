package domain

// Symbol is one reel position in a bet result.
type Symbol string

const (
	SymbolTiger   Symbol = "🐅"
	SymbolDiamond Symbol = "💎"
	SymbolBell    Symbol = "🔔"
)

// Symbols lists every reel symbol in reel order.
var Symbols = []Symbol{SymbolTiger, SymbolDiamond, SymbolBell}

// SymbolToName maps a symbol to its ASCII name.
var SymbolToName = map[Symbol]string{
	SymbolTiger:   "TIGER",
	SymbolDiamond: "DIAMOND",
	SymbolBell:    "BELL",
}

// Known reports whether s is one of the reel symbols.
func (s Symbol) Known() bool {
	_, ok := SymbolToName[s]
	return ok
}
