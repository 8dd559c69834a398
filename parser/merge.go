package parser

import (
	"github.com/sqlweave/sqlweave/ast"
	"github.com/sqlweave/sqlweave/token"
)

// parseMerge handles MERGE INTO target USING source ON cond
// WHEN [NOT] MATCHED [AND cond] THEN { UPDATE SET ... | DELETE | INSERT ... }.
func (p *Parser) parseMerge() *ast.MergeStmt {
	pos := p.cur.Pos
	p.advance() // consume MERGE

	stmt := &ast.MergeStmt{StartPos: pos}

	if !p.expect(token.INTO) {
		return nil
	}
	stmt.Target = p.parseTablePrimary()

	if !p.expect(token.USING) {
		return nil
	}
	stmt.Source = p.parseTablePrimary()

	if !p.expect(token.ON) {
		return nil
	}
	stmt.On = p.parseExpr()

	for p.curIs(token.WHEN) {
		p.advance()
		clause := &ast.MergeWhenClause{StartPos: p.cur.Pos}

		if p.curIs(token.NOT) {
			p.advance()
			if !p.expect(token.MATCHED) {
				return nil
			}
			clause.Matched = false
		} else if p.expect(token.MATCHED) {
			clause.Matched = true
		} else {
			return nil
		}

		if p.curIs(token.AND) {
			p.advance()
			clause.Condition = p.parseExpr()
		}

		if !p.expect(token.THEN) {
			return nil
		}

		switch p.cur.Type {
		case token.UPDATE:
			p.advance()
			if !p.expect(token.SET) {
				return nil
			}
			clause.Action = &ast.MergeUpdateAction{Set: p.parseUpdateExprs()}
		case token.DELETE:
			p.advance()
			clause.Action = &ast.MergeDeleteAction{}
		case token.INSERT:
			p.advance()
			action := &ast.MergeInsertAction{}
			if p.curIs(token.LPAREN) {
				p.advance()
				for p.curIsIdent() {
					action.Columns = append(action.Columns, &ast.ColName{
						StartPos: p.cur.Pos,
						EndPos:   p.cur.Pos,
						Parts:    []string{p.curIdentValue()},
					})
					p.advance()
					if !p.curIs(token.COMMA) {
						break
					}
					p.advance()
				}
				p.expect(token.RPAREN)
			}
			if !p.expect(token.VALUES) {
				return nil
			}
			p.expect(token.LPAREN)
			for {
				expr := p.parseExpr()
				if expr == nil {
					break
				}
				action.Values = append(action.Values, expr)
				if !p.curIs(token.COMMA) {
					break
				}
				p.advance()
			}
			p.expect(token.RPAREN)
			clause.Action = action
		default:
			p.errorf("expected UPDATE, DELETE, or INSERT after THEN, got %v", p.cur.Type)
			return nil
		}

		clause.EndPos = p.cur.Pos
		stmt.WhenClauses = append(stmt.WhenClauses, clause)
	}

	stmt.EndPos = p.cur.Pos
	return stmt
}
