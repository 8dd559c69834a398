package format

import "github.com/sqlweave/sqlweave/ast"

// TokenType classifies a PrintToken for phase B rendering.
type TokenType int

const (
	TokenValue TokenType = iota
	TokenKeyword
	TokenIdentifier
	TokenFunction
	TokenOperator
	TokenComma
	TokenParenOpen
	TokenParenClose
	TokenParameter
	TokenDot
	TokenSpace
	TokenComment
	TokenTypeName
	TokenContainer
)

func (t TokenType) String() string {
	switch t {
	case TokenValue:
		return "value"
	case TokenKeyword:
		return "keyword"
	case TokenIdentifier:
		return "identifier"
	case TokenFunction:
		return "function"
	case TokenOperator:
		return "operator"
	case TokenComma:
		return "comma"
	case TokenParenOpen, TokenParenClose:
		return "parenthesis"
	case TokenParameter:
		return "parameter"
	case TokenDot:
		return "dot"
	case TokenSpace:
		return "space"
	case TokenComment:
		return "comment"
	case TokenTypeName:
		return "type"
	case TokenContainer:
		return "container"
	default:
		return "unknown"
	}
}

// PrintToken is one unit of the intermediate formatting tree produced by
// Emit. Leaf tokens carry Text; container tokens carry Inner instead and
// name the construct they wrap in Container.
type PrintToken struct {
	Type      TokenType
	Text      string
	Container string       // construct name, set when Type is TokenContainer
	Inner     []PrintToken // children, set when Type is TokenContainer
	Param     *ast.Param   // set when Type is TokenParameter
	Ordinal   int          // 1-based first-visit number, set when Type is TokenParameter
}

// walkTokens visits every leaf token in tree order.
func walkTokens(tokens []PrintToken, fn func(*PrintToken)) {
	for i := range tokens {
		if tokens[i].Type == TokenContainer {
			walkTokens(tokens[i].Inner, fn)
			continue
		}
		fn(&tokens[i])
	}
}
