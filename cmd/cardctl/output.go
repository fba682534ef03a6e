package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"card-collection/collection/domain"

	"github.com/fatih/color"
)

var (
	nameColor = color.New(color.FgCyan, color.Bold)
	okColor   = color.New(color.FgGreen)
	warnColor = color.New(color.FgYellow)
	errColor  = color.New(color.FgRed)
	dimColor  = color.New(color.Faint)
)

// cardSummary são os campos exibidos do documento da carta.
type cardSummary struct {
	Name       string `json:"name"`
	ManaCost   string `json:"mana_cost"`
	TypeLine   string `json:"type_line"`
	OracleText string `json:"oracle_text"`
	SetName    string `json:"set_name"`
}

func printCard(w io.Writer, card domain.Card, asJSON bool) {
	if asJSON {
		printJSON(w, card)
		return
	}
	var s cardSummary
	_ = json.Unmarshal(card.Raw(), &s)
	if s.Name == "" {
		s.Name = card.Name
	}

	nameColor.Fprint(w, s.Name)
	if s.ManaCost != "" {
		fmt.Fprint(w, " ", s.ManaCost)
	}
	fmt.Fprintln(w)
	if s.TypeLine != "" {
		fmt.Fprintln(w, "  "+s.TypeLine)
	}
	if s.OracleText != "" {
		for _, line := range strings.Split(s.OracleText, "\n") {
			fmt.Fprintln(w, "  "+line)
		}
	}
	if s.SetName != "" {
		dimColor.Fprintln(w, "  "+s.SetName)
	}
}

func printJSON(w io.Writer, v any) {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}

func printNames(w io.Writer, c *color.Color, label string, names []string) {
	if len(names) == 0 {
		return
	}
	c.Fprintf(w, "%s (%d):\n", label, len(names))
	for _, n := range names {
		fmt.Fprintln(w, "  "+n)
	}
}
