package ui

// SymbolComplete marks a published status line.
const SymbolComplete = "●"
