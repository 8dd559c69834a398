// Package recover parses possibly-incomplete SQL up to a cursor position,
// trying an ordered list of fallback strategies until one produces a usable
// statement. It never returns an error: editor tooling needs a best-effort
// AST for scope analysis even while the user is mid-keystroke.
package recover

import (
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/sqlweave/sqlweave/ast"
	"github.com/sqlweave/sqlweave/lexer"
	"github.com/sqlweave/sqlweave/parser"
	"github.com/sqlweave/sqlweave/token"
)

// DefaultMaxAttempts caps the number of reparse attempts so adversarial
// input cannot loop the recovery pipeline.
const DefaultMaxAttempts = 5

// Options configures a recovery parse.
type Options struct {
	MaxAttempts int         // 0 means DefaultMaxAttempts
	Logger      *zap.Logger // nil means no logging
}

// Result is the outcome of a recovery parse. Success is true whenever any
// strategy produced a statement, including the hard-coded minimal one.
type Result struct {
	Success           bool
	Statement         ast.Statement
	Partial           bool // Statement came from a fallback, not a clean parse
	Strategy          string
	Attempts          int
	Lexemes           []token.Item // full lexeme stream of the original input
	TokenBeforeCursor *token.Item
}

// minimalSQL is the last-resort statement every recovery ends on.
const minimalSQL = "SELECT 1 FROM dual WHERE 1=1"

// incompleteTails are the trailing tokens that force the normal parse to be
// treated as a failure: the user is mid-clause and the incomplete tail must
// be handled by a recovery strategy instead.
var incompleteTails = []string{".", ",", "select", "from", "where", "join", "on"}

// insertionFixups patch a dangling clause keyword with the smallest text
// that completes it.
var insertionFixups = []struct {
	tail string
	fix  string
}{
	{"select", " 1 "},
	{"from", " dual "},
	{"where", " 1=1 "},
}

// truncationSuffixes are appended to the input cut at the cursor.
var truncationSuffixes = []string{"", " 1", " FROM dual", " WHERE 1=1"}

// completionPatterns match the immediate left of the cursor and insert a
// minimal completion at that point.
var completionPatterns = []struct {
	re     *regexp.Regexp
	insert string
}{
	{regexp.MustCompile(`\.$`), "id"},
	{regexp.MustCompile(`\w+$`), ""},
	{regexp.MustCompile(`,$`), "1"},
	{regexp.MustCompile(`\($`), "1)"},
}

// ParseToPosition parses sql with error recovery up to cursor. The cursor
// is a 0-based byte offset; values outside the input are clamped.
func ParseToPosition(sql string, cursor int, opts Options) *Result {
	if cursor < 0 {
		cursor = 0
	}
	if cursor > len(sql) {
		cursor = len(sql)
	}
	maxAttempts := opts.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	res := &Result{Lexemes: tokenizeAll(sql)}
	res.TokenBeforeCursor = tokenBefore(res.Lexemes, cursor)

	try := func(strategy, candidate string) bool {
		if res.Attempts >= maxAttempts {
			return false
		}
		res.Attempts++
		stmt, err := parseOne(candidate)
		ok := err == nil && stmt != nil
		logger.Debug("recovery parse attempt",
			zap.String("strategy", strategy),
			zap.Int("attempt", res.Attempts),
			zap.Bool("success", ok))
		if ok {
			res.Success = true
			res.Statement = stmt
			res.Strategy = strategy
			res.Partial = strategy != "normal"
		}
		return ok
	}

	// Strategy 1: normal parse, unless the input trails off mid-clause.
	if !endsIncomplete(sql) && try("normal", sql) {
		return res
	}

	// Strategy 2: token insertion after a dangling clause keyword.
	trimmed := strings.TrimRight(sql, " \t\r\n")
	lower := strings.ToLower(trimmed)
	for _, f := range insertionFixups {
		if strings.HasSuffix(lower, f.tail) {
			if try("insertion", trimmed+f.fix) {
				return res
			}
			break
		}
	}

	// Strategy 3: truncate at the cursor and complete minimally. A head
	// ending in a dangling dot is token-level incomplete; no clause suffix
	// can repair it, so it goes straight to strategy 4.
	head := sql[:cursor]
	if !strings.HasSuffix(strings.TrimRight(head, " \t\r\n"), ".") {
		for _, suffix := range truncationSuffixes {
			if try("truncation", head+suffix) {
				return res
			}
		}
	}

	// Strategy 4: pattern-match the immediate left of the cursor and insert
	// a minimal completion at the cursor, keeping the text after it.
	for _, c := range completionPatterns {
		if c.re.MatchString(head) {
			if try("completion", head+c.insert+sql[cursor:]) {
				return res
			}
			break
		}
	}

	// Strategy 5: hard-coded minimal statement, always succeeds.
	stmt, err := parseOne(minimalSQL)
	if err == nil {
		res.Success = true
		res.Statement = stmt
		res.Strategy = "minimal"
		res.Partial = true
	}
	logger.Debug("recovery parse attempt",
		zap.String("strategy", "minimal"),
		zap.Int("attempt", res.Attempts),
		zap.Bool("success", res.Success))
	return res
}

func parseOne(sql string) (ast.Statement, error) {
	p := parser.Get(sql)
	stmt, err := p.Parse()
	parser.Put(p)
	return stmt, err
}

// endsIncomplete reports whether the input trails off after a token that
// cannot legally end a statement.
func endsIncomplete(sql string) bool {
	trimmed := strings.ToLower(strings.TrimRight(sql, " \t\r\n"))
	for _, tail := range incompleteTails {
		if strings.HasSuffix(trimmed, tail) {
			// A word tail must not be a suffix of a longer identifier.
			if isWordChar(tail[0]) && len(trimmed) > len(tail) &&
				isWordChar(trimmed[len(trimmed)-len(tail)-1]) {
				continue
			}
			return true
		}
	}
	return false
}

func isWordChar(ch byte) bool {
	return ch == '_' || (ch >= 'a' && ch <= 'z') || (ch >= '0' && ch <= '9')
}

// tokenizeAll materializes the full lexeme stream, comments included.
func tokenizeAll(sql string) []token.Item {
	l := lexer.Get(sql)
	defer lexer.Put(l)
	var items []token.Item
	for {
		item := l.Next()
		if item.Type == token.EOF {
			return items
		}
		items = append(items, item)
		if item.Type == token.ILLEGAL {
			return items
		}
	}
}

// tokenBefore returns the last lexeme beginning strictly before cursor.
func tokenBefore(items []token.Item, cursor int) *token.Item {
	var found *token.Item
	for i := range items {
		if items[i].Pos.Offset >= cursor {
			break
		}
		found = &items[i]
	}
	return found
}
