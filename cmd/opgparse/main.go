/*
Opgparse runs the data-parallel operator-precedence parser against an input
string and prints each worker's residual stack.

It reads in an OPG grammar file, encodes the input, cuts it into chunks of
the requested size, and dispatches one parallel worker per chunk. Each
worker's leftover shift-reduce stack is printed along with its error slot;
the residuals are the raw material a downstream stitching pass would
assemble into a full parse tree, and are printed as-is.

Usage:

	opgparse [flags] INPUT...

The flags are:

	-v, --version
		Give the current version of opgparse and then exit.

	-g, --grammar FILE
		Use the provided OPG grammar file. Defaults to the file
		"grammar.opg" in the current working directory.

	-n, --chunk-size SIZE
		Cut the input into chunks of at most SIZE symbols, one worker per
		chunk. Defaults to 32.

	-t, --tokens
		Treat each INPUT argument as one terminal token instead of
		splitting every argument into one token per character.

	-i, --interactive
		Start an interactive session after processing any INPUT arguments.
		Each line read is parsed as a fresh input against the loaded
		grammar. Type "quit" to exit.

	-d, --direct
		Force reading directly from the console as opposed to using GNU
		readline based routines for reading input in interactive mode.
*/
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode"

	"github.com/dekarrin/opgparse/internal/chunk"
	"github.com/dekarrin/opgparse/internal/dispatch"
	"github.com/dekarrin/opgparse/internal/grammar"
	"github.com/dekarrin/opgparse/internal/grammarfile"
	"github.com/dekarrin/opgparse/internal/input"
	"github.com/dekarrin/opgparse/internal/sym"
	"github.com/dekarrin/opgparse/internal/version"
	"github.com/dekarrin/rosed"
	"github.com/spf13/pflag"
)

const (

	// ExitSuccess indicates a successful program execution.
	ExitSuccess = iota

	// ExitParseError indicates an unsuccessful program execution due to at
	// least one worker reporting a parse error.
	ExitParseError

	// ExitInitError indicates an unsuccessful program execution due to an
	// issue loading the grammar or reading input.
	ExitInitError
)

const outputWidth = 78

var (
	returnCode      int     = ExitSuccess
	flagVersion     *bool   = pflag.BoolP("version", "v", false, "Gives the version info")
	grammarFile     *string = pflag.StringP("grammar", "g", "grammar.opg", "The OPG grammar file defining the language to parse")
	chunkSize       *int    = pflag.IntP("chunk-size", "n", 32, "Maximum number of symbols per worker chunk")
	tokenArgs       *bool   = pflag.BoolP("tokens", "t", false, "Treat each argument as one terminal token instead of splitting into characters")
	flagInteractive *bool   = pflag.BoolP("interactive", "i", false, "Start an interactive parsing session")
	forceDirect     *bool   = pflag.BoolP("direct", "d", false, "Force reading directly from stdin instead of going through GNU readline where possible")
)

func main() {
	defer func() {
		if panicErr := recover(); panicErr != nil {
			// we are panicking, make sure we dont lose the panic just because
			// we checked
			panic(fmt.Sprintf("unrecoverable panic occured: %v", panicErr))
		} else {
			os.Exit(returnCode)
		}
	}()

	pflag.Parse()

	if *flagVersion {
		fmt.Printf("opgparse %s\n", version.Current)
		return
	}

	args := pflag.Args()
	if len(args) == 0 && !*flagInteractive {
		fmt.Fprintf(os.Stderr, "No input given and not in interactive mode\nDo -h for help.\n")
		returnCode = ExitInitError
		return
	}

	g, err := grammarfile.Load(*grammarFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %s\n", err.Error())
		returnCode = ExitInitError
		return
	}

	if len(args) > 0 {
		tokens := argsToTokens(args, *tokenArgs)
		if !runOnce(g, tokens, *chunkSize) {
			returnCode = ExitParseError
		}
	}

	if *flagInteractive {
		if err := runInteractive(g, *chunkSize, *tokenArgs, *forceDirect); err != nil {
			fmt.Fprintf(os.Stderr, "ERROR: %s\n", err.Error())
			returnCode = ExitInitError
			return
		}
	}
}

// argsToTokens splits command arguments into terminal tokens: one token per
// argument in tokens mode, one token per character otherwise.
func argsToTokens(args []string, tokenMode bool) []string {
	if tokenMode {
		return args
	}
	var tokens []string
	for _, arg := range args {
		for _, ch := range arg {
			if unicode.IsSpace(ch) {
				continue
			}
			tokens = append(tokens, string(ch))
		}
	}
	return tokens
}

// runOnce parses one input and prints the per-worker residuals. Returns
// false if any worker reported a parse error or the input could not be
// encoded.
func runOnce(g *grammar.OPGrammar[string, string], tokens []string, chunkSize int) bool {
	encoded := make([]sym.Sym, len(tokens))
	for i, tok := range tokens {
		if !g.HasTerminal(tok) {
			fmt.Fprintf(os.Stderr, "ERROR: token %d: %q is not in the grammar's terminal alphabet\n", i, tok)
			return false
		}
		encoded[i] = g.EncodeTerminal(tok)
	}

	chunker, err := chunk.New(chunk.FromSymbols(encoded), chunkSize)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %s\n", err.Error())
		return false
	}

	var configs []chunk.Config
	for {
		cfg, ok := chunker.Next()
		if !ok {
			break
		}
		configs = append(configs, cfg)
	}

	report, err := dispatch.Run(context.Background(), configs, dispatch.Grammar{
		Matrix:     grammar.PrecMatrixView{Raw: g.EncodeOpMatrix(), TermThresh: g.TermThresh()},
		Rules:      g.EncodeRules(),
		TermThresh: g.TermThresh(),
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %s\n", err.Error())
		return false
	}

	printReport(g, tokens, report, chunkSize)

	for _, r := range report.Residuals {
		if r.Err.Failed() {
			return false
		}
	}
	return true
}

// printReport renders the per-worker residuals as a table, followed by a
// cursor diagnostic for every failed worker.
func printReport(g *grammar.OPGrammar[string, string], tokens []string, report dispatch.Report, chunkSize int) {
	data := [][]string{{"Worker", "Status", "Residual"}}
	for i, r := range report.Residuals {
		status := "ok"
		if r.Err.Failed() {
			status = fmt.Sprintf("error@%d", r.Err.Location)
		}
		data = append(data, []string{fmt.Sprintf("%d", i), status, renderStack(g, r)})
	}

	table := rosed.Edit("").
		InsertTableOpts(0, data, outputWidth, rosed.Options{
			TableHeaders:             true,
			NoTrailingLineSeparators: true,
		}).
		String()
	fmt.Println(table)

	for i, r := range report.Residuals {
		if !r.Err.Failed() {
			continue
		}
		fmt.Println(failureDiagnostic(tokens, i, chunkSize, r.Err.Location))
	}
}

// renderStack formats one residual stack bottom-to-top, each entry as its
// decoded symbol with the precedence glyph it was pushed under. The topmost
// Gives entry, where the stitcher would split the residual, is marked with a
// leading asterisk.
func renderStack(g *grammar.OPGrammar[string, string], r dispatch.Residual) string {
	if len(r.Stack) == 0 {
		return "(empty)"
	}

	entries := make([]string, len(r.Stack))
	for i, entry := range r.Stack {
		var name string
		m, ok := g.DecodeMixed(entry.Sym)
		if ok {
			name = m.String()
		} else {
			name = fmt.Sprintf("?%d", uint32(entry.Sym))
		}

		s := name
		if entry.Prec != sym.Undef {
			s += entry.Prec.String()
		}
		if r.TopGives >= 0 && r.TopGives < len(r.Stack) && i == r.TopGives {
			s = "*" + s
		}
		entries[i] = s
	}
	return strings.Join(entries, " ")
}

// failureDiagnostic builds a two-line cursor diagnostic pointing at the
// input token a failed worker stopped on. loc is the worker's error slot
// location: an index into its own chunk window, where index 1 is the first
// token of the chunk.
func failureDiagnostic(tokens []string, workerIdx, chunkSize int, loc uint32) string {
	pos := workerIdx*chunkSize + int(loc) - 1

	var line strings.Builder
	var cursorCol int
	for i, tok := range tokens {
		if i == pos {
			cursorCol = line.Len()
		}
		line.WriteString(tok)
	}
	if pos >= len(tokens) {
		// failure on the trailing border, past the last real token
		cursorCol = line.Len()
	}

	msg := rosed.
		Edit(fmt.Sprintf("worker %d could not continue at position %d:", workerIdx, pos)).
		WithOptions(rosed.Options{NoTrailingLineSeparators: true}).
		Wrap(outputWidth).
		String()
	return msg + "\n  " + line.String() + "\n  " + strings.Repeat(" ", cursorCol) + "^"
}

// runInteractive reads inputs line by line and parses each one against g.
func runInteractive(g *grammar.OPGrammar[string, string], chunkSize int, tokenMode, direct bool) error {
	var reader interface {
		ReadCommand() (string, error)
		Close() error
	}

	if direct {
		reader = input.NewDirectReader(os.Stdin)
	} else {
		icr, err := input.NewInteractiveReader()
		if err != nil {
			return fmt.Errorf("create interactive reader: %w", err)
		}
		reader = icr
	}
	defer reader.Close()

	for {
		line, err := reader.ReadCommand()
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return err
		}

		if strings.EqualFold(strings.TrimSpace(line), "quit") {
			return nil
		}

		var tokens []string
		if tokenMode {
			tokens = strings.Fields(line)
		} else {
			tokens = argsToTokens([]string{strings.TrimSpace(line)}, false)
		}
		if len(tokens) == 0 {
			continue
		}

		runOnce(g, tokens, chunkSize)
	}
}
