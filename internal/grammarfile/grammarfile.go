// Package grammarfile has functions for loading operator-precedence grammar
// definitions from OPG files, a TOML-based format that declares the terminal
// and non-terminal alphabets, the precedence table, and the production rules
// a parse run needs. The same definition structure, minus the file framing,
// is also what the job server accepts when a grammar is registered over
// HTTP; Def is the shared middle form.
package grammarfile

import (
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/dekarrin/opgparse/internal/apperr"
	"github.com/dekarrin/opgparse/internal/grammar"
	"github.com/dekarrin/opgparse/internal/sym"
)

// FileInfo contains the essential information all OPG format files must
// contain: the format marker and the file type. Currently "grammar" is the
// only file type.
type FileInfo struct {
	Format string `toml:"format"`
	Type   string `toml:"type"`
}

// topLevelGrammar is the top-level structure containing all keys in a
// complete OPG 'grammar' type file.
type topLevelGrammar struct {
	Format  string       `toml:"format"`
	Type    string       `toml:"type"`
	Symbols symbolTables `toml:"symbols"`
	Prec    []PrecDef    `toml:"prec"`
	Rules   []RuleDef    `toml:"rule"`
}

type symbolTables struct {
	Terminals    []string `toml:"terminals"`
	NonTerminals []string `toml:"nonterminals"`
}

// PrecDef declares the precedence relation holding between one ordered pair
// of terminals.
type PrecDef struct {
	Left  string `toml:"left"`
	Right string `toml:"right"`
	Rel   string `toml:"rel"`
}

// RuleDef declares one production: LHS expands to the RHS symbols, each of
// which must be a declared terminal or non-terminal.
type RuleDef struct {
	LHS string   `toml:"lhs"`
	RHS []string `toml:"rhs"`
}

// Def is a complete grammar definition in its unvalidated, external-symbol
// form. Build turns it into a usable grammar.
type Def struct {
	Terminals    []string
	NonTerminals []string
	Prec         []PrecDef
	Rules        []RuleDef
}

// ParseRel parses the name of a precedence relation as it appears in a
// grammar definition's prec entries. Accepted names are "gives", "equals",
// and "takes" (case-insensitive); the glyph forms "<.", "=.", and ".>" are
// also accepted.
func ParseRel(s string) (sym.Prec, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "gives", "<.":
		return sym.Gives, nil
	case "equals", "=.":
		return sym.Equals, nil
	case "takes", ".>":
		return sym.Takes, nil
	default:
		return sym.Undef, fmt.Errorf("must be one of 'gives', 'equals', or 'takes': %q", s)
	}
}

// Load reads the OPG grammar file at path and builds the grammar it defines.
// The returned error will match apperr.ErrBadGrammar for any structural
// problem with the file's contents; file I/O problems are returned as-is.
func Load(path string) (*grammar.OPGrammar[string, string], error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	g, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return g, nil
}

// Parse builds a grammar from the contents of an OPG grammar file. The
// returned error will match apperr.ErrBadGrammar for any structural problem
// with the data.
func Parse(data []byte) (*grammar.OPGrammar[string, string], error) {
	var tl topLevelGrammar
	if err := toml.Unmarshal(data, &tl); err != nil {
		return nil, apperr.New("TOML decode failed", err, apperr.ErrBadGrammar)
	}

	if tl.Type != "" && strings.ToLower(tl.Type) != "grammar" {
		return nil, apperr.New(fmt.Sprintf("file type is %q, not \"grammar\"", tl.Type), apperr.ErrBadGrammar)
	}

	def := Def{
		Terminals:    tl.Symbols.Terminals,
		NonTerminals: tl.Symbols.NonTerminals,
		Prec:         tl.Prec,
		Rules:        tl.Rules,
	}
	return def.Build()
}

// Build validates d and constructs the grammar it defines. The returned
// error will match apperr.ErrBadGrammar for any structural problem with the
// definition.
func (d Def) Build() (*grammar.OPGrammar[string, string], error) {
	if len(d.Terminals) < 1 {
		return nil, apperr.New("no terminals declared", apperr.ErrBadGrammar)
	}
	if len(d.NonTerminals) < 1 {
		return nil, apperr.New("no nonterminals declared", apperr.ErrBadGrammar)
	}

	terms := make(map[string]bool, len(d.Terminals))
	for _, t := range d.Terminals {
		if terms[t] {
			return nil, apperr.New(fmt.Sprintf("terminal %q declared twice", t), apperr.ErrBadGrammar)
		}
		terms[t] = true
	}
	nonterms := make(map[string]bool, len(d.NonTerminals))
	for _, n := range d.NonTerminals {
		if terms[n] {
			return nil, apperr.New(fmt.Sprintf("%q declared as both terminal and nonterminal", n), apperr.ErrBadGrammar)
		}
		if nonterms[n] {
			return nil, apperr.New(fmt.Sprintf("nonterminal %q declared twice", n), apperr.ErrBadGrammar)
		}
		nonterms[n] = true
	}

	matrix := make(map[[2]string]sym.Prec, len(d.Prec))
	for i, p := range d.Prec {
		if !terms[p.Left] {
			return nil, apperr.New(fmt.Sprintf("prec entry %d: left symbol %q is not a declared terminal", i, p.Left), apperr.ErrBadGrammar)
		}
		if !terms[p.Right] {
			return nil, apperr.New(fmt.Sprintf("prec entry %d: right symbol %q is not a declared terminal", i, p.Right), apperr.ErrBadGrammar)
		}
		rel, err := ParseRel(p.Rel)
		if err != nil {
			return nil, apperr.New(fmt.Sprintf("prec entry %d: rel: %s", i, err.Error()), apperr.ErrBadGrammar)
		}
		pair := [2]string{p.Left, p.Right}
		if _, ok := matrix[pair]; ok {
			return nil, apperr.New(fmt.Sprintf("prec entry %d: relation for (%q, %q) given twice", i, p.Left, p.Right), apperr.ErrBadGrammar)
		}
		matrix[pair] = rel
	}

	if len(d.Rules) < 1 {
		return nil, apperr.New("no rules declared", apperr.ErrBadGrammar)
	}
	rules := make([]grammar.Rule[string, string], len(d.Rules))
	for i, r := range d.Rules {
		if !nonterms[r.LHS] {
			return nil, apperr.New(fmt.Sprintf("rule %d: lhs %q is not a declared nonterminal", i, r.LHS), apperr.ErrBadGrammar)
		}
		if len(r.RHS) < 1 {
			return nil, apperr.New(fmt.Sprintf("rule %d: rhs is empty", i), apperr.ErrBadGrammar)
		}

		rhs := make([]sym.MixedSymbol[string, string], len(r.RHS))
		for j, rs := range r.RHS {
			switch {
			case terms[rs]:
				rhs[j] = sym.NewTerminal[string, string](rs)
			case nonterms[rs]:
				rhs[j] = sym.NewNonTerminal[string, string](rs)
			default:
				return nil, apperr.New(fmt.Sprintf("rule %d: rhs symbol %q is not declared", i, rs), apperr.ErrBadGrammar)
			}
		}
		rules[i] = grammar.Rule[string, string]{LHS: r.LHS, RHS: rhs}
	}

	return grammar.New(d.Terminals, d.NonTerminals, rules, matrix), nil
}

// ScanFileInfo reads the OPG format common header info from the given file
// data, ignoring everything else in the file.
func ScanFileInfo(data []byte) (FileInfo, error) {
	var info FileInfo
	if err := toml.Unmarshal(data, &info); err != nil {
		return info, apperr.New("TOML decode failed", err, apperr.ErrBadGrammar)
	}
	return info, nil
}
