// Package parser implements a recursive-descent, Pratt-style expression
// parser over the lexer's token stream, producing an ast.Module.
//
// Grounded on the teacher's internal/parser split into parser.go (driver
// + Pratt core) and parser_expr.go/parser_decl.go (per-construct
// parsing functions), generalized from the teacher's functional-language
// grammar (let/match/lambda-with-effects) to spec §4.1's surface
// constructs. Errors are accumulated as *molterr.Error with HIR-phase
// codes reserved for lowering; syntax errors here use the SyntaxError
// kind with parser-phase codes, matching the teacher's parser_error.go
// convention of attaching precise source positions to every diagnostic.
package parser

import (
	"strconv"

	"github.com/adpena/molt/internal/ast"
	"github.com/adpena/molt/internal/lexer"
	"github.com/adpena/molt/internal/molterr"
)

type Parser struct {
	toks []lexer.Token
	pos  int
	errs []*molterr.Error
	noIn bool // set while parsing a for-target, where `in` ends the target
}

// New constructs a Parser over already-tokenized source.
func New(toks []lexer.Token) *Parser {
	return &Parser{toks: toks}
}

// Parse tokenizes src and parses a full Module.
func Parse(src string) (*ast.Module, []*molterr.Error) {
	p := New(lexer.Tokenize(src))
	mod := p.parseModule()
	return mod, p.errs
}

func (p *Parser) cur() lexer.Token  { return p.toks[p.pos] }
func (p *Parser) peekAt(n int) lexer.Token {
	if p.pos+n >= len(p.toks) {
		return p.toks[len(p.toks)-1]
	}
	return p.toks[p.pos+n]
}
func (p *Parser) advance() lexer.Token {
	t := p.cur()
	if t.Type != lexer.EOF {
		p.pos++
	}
	return t
}

func (p *Parser) at(tt lexer.TokenType) bool { return p.cur().Type == tt }

func (p *Parser) expect(tt lexer.TokenType) lexer.Token {
	if !p.at(tt) {
		p.errorf("expected token %v, got %v %q", tt, p.cur().Type, p.cur().Literal)
		return p.cur()
	}
	return p.advance()
}

func (p *Parser) errorf(format string, args ...any) {
	e := molterr.New(molterr.KindSyntax, "PAR001", format, args...)
	e.Traceback = []molterr.FrameDescriptor{{Line: p.cur().Line, Col: p.cur().Col}}
	p.errs = append(p.errs, e)
}

func (p *Parser) skipNewlines() {
	for p.at(lexer.NEWLINE) {
		p.advance()
	}
}

func (p *Parser) parseModule() *ast.Module {
	mod := &ast.Module{Pos: ast.Pos{Line: 1, Col: 1}}
	p.skipNewlines()
	for !p.at(lexer.EOF) {
		mod.Body = append(mod.Body, p.parseStatement())
		p.skipNewlines()
	}
	return mod
}

type Stmts = []ast.Stmt

func (p *Parser) parseSuite() Stmts {
	p.expect(lexer.COLON)
	if p.at(lexer.NEWLINE) {
		p.advance()
		p.expect(lexer.INDENT)
		var body Stmts
		p.skipNewlines()
		for !p.at(lexer.DEDENT) && !p.at(lexer.EOF) {
			body = append(body, p.parseStatement())
			p.skipNewlines()
		}
		p.expect(lexer.DEDENT)
		return body
	}
	// single-line suite: `if x: pass`
	var body Stmts
	body = append(body, p.parseSimpleStatement())
	for p.at(lexer.SEMICOLON) {
		p.advance()
		body = append(body, p.parseSimpleStatement())
	}
	if p.at(lexer.NEWLINE) {
		p.advance()
	}
	return body
}

func (p *Parser) parseStatement() ast.Stmt {
	switch p.cur().Type {
	case lexer.DEF, lexer.ASYNC:
		return p.parseFuncDef()
	case lexer.CLASS:
		return p.parseClassDef()
	case lexer.IF:
		return p.parseIf()
	case lexer.WHILE:
		return p.parseWhile()
	case lexer.FOR:
		return p.parseFor()
	case lexer.WITH:
		return p.parseWith()
	case lexer.TRY:
		return p.parseTry()
	default:
		s := p.parseSimpleStatement()
		if p.at(lexer.NEWLINE) {
			p.advance()
		}
		return s
	}
}

func (p *Parser) parseSimpleStatement() ast.Stmt {
	pos := ast.Pos{Line: p.cur().Line, Col: p.cur().Col}
	switch p.cur().Type {
	case lexer.RETURN:
		p.advance()
		if p.at(lexer.NEWLINE) || p.at(lexer.SEMICOLON) || p.at(lexer.EOF) {
			return &ast.Return{Pos: pos}
		}
		return &ast.Return{Pos: pos, Value: p.parseExprList()}
	case lexer.PASS:
		p.advance()
		return &ast.Pass{Pos: pos}
	case lexer.BREAK:
		p.advance()
		return &ast.Break{Pos: pos}
	case lexer.CONTINUE:
		p.advance()
		return &ast.Continue{Pos: pos}
	case lexer.RAISE:
		p.advance()
		if p.at(lexer.NEWLINE) || p.at(lexer.SEMICOLON) || p.at(lexer.EOF) {
			return &ast.Raise{Pos: pos}
		}
		return &ast.Raise{Pos: pos, Value: p.parseExpr()}
	case lexer.IMPORT:
		return p.parseImport()
	case lexer.FROM:
		return p.parseFromImport()
	case lexer.GLOBAL:
		p.advance()
		names := p.parseNameList()
		return &ast.GlobalDecl{Pos: pos, Names: names}
	case lexer.NONLOCAL:
		p.advance()
		names := p.parseNameList()
		return &ast.NonlocalDecl{Pos: pos, Names: names}
	case lexer.DEL:
		p.advance()
		targets := []ast.Expr{p.parseExpr()}
		for p.at(lexer.COMMA) {
			p.advance()
			targets = append(targets, p.parseExpr())
		}
		return &ast.Del{Pos: pos, Targets: targets}
	default:
		return p.parseExprOrAssignStatement()
	}
}

func (p *Parser) parseNameList() []string {
	var names []string
	names = append(names, p.expect(lexer.IDENT).Literal)
	for p.at(lexer.COMMA) {
		p.advance()
		names = append(names, p.expect(lexer.IDENT).Literal)
	}
	return names
}

func (p *Parser) parseImport() ast.Stmt {
	pos := ast.Pos{Line: p.cur().Line, Col: p.cur().Col}
	p.advance()
	name := p.expect(lexer.IDENT).Literal
	alias := ""
	if p.at(lexer.AS) {
		p.advance()
		alias = p.expect(lexer.IDENT).Literal
	}
	return &ast.Import{Pos: pos, Module: name, Alias: alias}
}

func (p *Parser) parseFromImport() ast.Stmt {
	pos := ast.Pos{Line: p.cur().Line, Col: p.cur().Col}
	p.advance()
	module := p.expect(lexer.IDENT).Literal
	p.expect(lexer.IMPORT)
	names := p.parseNameList()
	return &ast.Import{Pos: pos, Module: module, Names: names}
}

// parseExprOrAssignStatement handles expression statements, simple
// assignment, tuple-target assignment, and augmented assignment.
func (p *Parser) parseExprOrAssignStatement() ast.Stmt {
	pos := ast.Pos{Line: p.cur().Line, Col: p.cur().Col}
	first := p.parseExprList()
	if aug, op := p.matchAugAssign(); aug {
		p.advance()
		value := p.parseExprList()
		return &ast.AugAssign{Pos: pos, Target: first, Op: op, Value: value}
	}
	if p.at(lexer.ASSIGN) {
		targets := []ast.Expr{first}
		var value ast.Expr
		for p.at(lexer.ASSIGN) {
			p.advance()
			value = p.parseExprList()
			if p.at(lexer.ASSIGN) {
				targets = append(targets, value)
			}
		}
		return &ast.Assign{Pos: pos, Targets: targets, Value: value}
	}
	return &ast.ExprStmt{Pos: pos, X: first}
}

func (p *Parser) matchAugAssign() (bool, string) {
	switch p.cur().Type {
	case lexer.PLUSEQ:
		return true, "+"
	case lexer.MINUSEQ:
		return true, "-"
	case lexer.STAREQ:
		return true, "*"
	case lexer.SLASHEQ:
		return true, "/"
	default:
		return false, ""
	}
}

// parseExprList parses a comma-separated expression list, returning a
// TupleLit if more than one element was present (covers bare-tuple
// assignment targets/values like `a, b = b, a`).
func (p *Parser) parseExprList() ast.Expr {
	pos := ast.Pos{Line: p.cur().Line, Col: p.cur().Col}
	first := p.parseTestOrStarred()
	if !p.at(lexer.COMMA) {
		return first
	}
	elems := []ast.Expr{first}
	for p.at(lexer.COMMA) {
		p.advance()
		if p.atStmtEnd() {
			break
		}
		elems = append(elems, p.parseTestOrStarred())
	}
	return &ast.TupleLit{Pos: pos, Elems: elems}
}

func (p *Parser) atStmtEnd() bool {
	switch p.cur().Type {
	case lexer.NEWLINE, lexer.EOF, lexer.SEMICOLON, lexer.ASSIGN, lexer.COLON,
		lexer.RPAREN, lexer.RBRACKET, lexer.RBRACE:
		return true
	}
	return false
}

func (p *Parser) parseTestOrStarred() ast.Expr {
	if p.at(lexer.STAR) {
		pos := ast.Pos{Line: p.cur().Line, Col: p.cur().Col}
		p.advance()
		return &ast.Starred{Pos: pos, X: p.parseExpr()}
	}
	return p.parseExpr()
}

func (p *Parser) parseFuncDef() ast.Stmt {
	pos := ast.Pos{Line: p.cur().Line, Col: p.cur().Col}
	isAsync := false
	if p.at(lexer.ASYNC) {
		isAsync = true
		p.advance()
	}
	p.expect(lexer.DEF)
	name := p.expect(lexer.IDENT).Literal
	params := p.parseParamList()
	body := p.parseSuite()
	return &ast.FuncDef{Pos: pos, Name: name, Params: params, Body: body, IsAsync: isAsync}
}

func (p *Parser) parseParamList() []ast.Param {
	p.expect(lexer.LPAREN)
	var params []ast.Param
	for !p.at(lexer.RPAREN) && !p.at(lexer.EOF) {
		kind := ast.ParamPlain
		if p.at(lexer.STAR) {
			kind = ast.ParamStar
			p.advance()
		} else if p.at(lexer.DSTAR) {
			kind = ast.ParamDoubleStar
			p.advance()
		}
		name := p.expect(lexer.IDENT).Literal
		var def ast.Expr
		if p.at(lexer.ASSIGN) {
			p.advance()
			def = p.parseExpr()
		}
		params = append(params, ast.Param{Name: name, Default: def, Kind: kind})
		if p.at(lexer.COMMA) {
			p.advance()
		}
	}
	p.expect(lexer.RPAREN)
	return params
}

func (p *Parser) parseClassDef() ast.Stmt {
	pos := ast.Pos{Line: p.cur().Line, Col: p.cur().Col}
	p.expect(lexer.CLASS)
	name := p.expect(lexer.IDENT).Literal
	var bases []ast.Expr
	if p.at(lexer.LPAREN) {
		p.advance()
		for !p.at(lexer.RPAREN) && !p.at(lexer.EOF) {
			bases = append(bases, p.parseExpr())
			if p.at(lexer.COMMA) {
				p.advance()
			}
		}
		p.expect(lexer.RPAREN)
	}
	body := p.parseSuite()
	return &ast.ClassDef{Pos: pos, Name: name, Bases: bases, Body: body}
}

func (p *Parser) parseIf() ast.Stmt {
	pos := ast.Pos{Line: p.cur().Line, Col: p.cur().Col}
	p.expect(lexer.IF)
	cond := p.parseExpr()
	then := p.parseSuite()
	var elseBody Stmts
	if p.at(lexer.ELIF) {
		elseBody = Stmts{p.parseElif()}
	} else if p.at(lexer.ELSE) {
		p.advance()
		elseBody = p.parseSuite()
	}
	return &ast.If{Pos: pos, Cond: cond, Then: then, Else: elseBody}
}

func (p *Parser) parseElif() ast.Stmt {
	pos := ast.Pos{Line: p.cur().Line, Col: p.cur().Col}
	p.expect(lexer.ELIF)
	cond := p.parseExpr()
	then := p.parseSuite()
	var elseBody Stmts
	if p.at(lexer.ELIF) {
		elseBody = Stmts{p.parseElif()}
	} else if p.at(lexer.ELSE) {
		p.advance()
		elseBody = p.parseSuite()
	}
	return &ast.If{Pos: pos, Cond: cond, Then: then, Else: elseBody}
}

func (p *Parser) parseWhile() ast.Stmt {
	pos := ast.Pos{Line: p.cur().Line, Col: p.cur().Col}
	p.expect(lexer.WHILE)
	cond := p.parseExpr()
	body := p.parseSuite()
	return &ast.While{Pos: pos, Cond: cond, Body: body}
}

func (p *Parser) parseFor() ast.Stmt {
	pos := ast.Pos{Line: p.cur().Line, Col: p.cur().Col}
	p.expect(lexer.FOR)
	p.noIn = true
	target := p.parseExprList()
	p.noIn = false
	p.expect(lexer.IN)
	iter := p.parseExpr()
	body := p.parseSuite()
	return &ast.For{Pos: pos, Target: target, Iter: iter, Body: body}
}

func (p *Parser) parseWith() ast.Stmt {
	pos := ast.Pos{Line: p.cur().Line, Col: p.cur().Col}
	p.expect(lexer.WITH)
	var items []ast.WithItem
	for {
		ctx := p.parseExpr()
		var as ast.Expr
		if p.at(lexer.AS) {
			p.advance()
			as = p.parseExpr()
		}
		items = append(items, ast.WithItem{Context: ctx, As: as})
		if p.at(lexer.COMMA) {
			p.advance()
			continue
		}
		break
	}
	body := p.parseSuite()
	return &ast.With{Pos: pos, Items: items, Body: body}
}

func (p *Parser) parseTry() ast.Stmt {
	pos := ast.Pos{Line: p.cur().Line, Col: p.cur().Col}
	p.expect(lexer.TRY)
	body := p.parseSuite()
	var handlers []ast.ExceptHandler
	for p.at(lexer.EXCEPT) {
		p.advance()
		var kind, as string
		if !p.at(lexer.COLON) {
			kind = p.expect(lexer.IDENT).Literal
			if p.at(lexer.AS) {
				p.advance()
				as = p.expect(lexer.IDENT).Literal
			}
		}
		hBody := p.parseSuite()
		handlers = append(handlers, ast.ExceptHandler{Kind: kind, As: as, Body: hBody})
	}
	var finallyBody Stmts
	if p.at(lexer.FINALLY) {
		p.advance()
		finallyBody = p.parseSuite()
	}
	return &ast.Try{Pos: pos, Body: body, Handlers: handlers, Finally: finallyBody}
}

// ---- Expressions: precedence-climbing core ----

var binaryPrec = map[lexer.TokenType]int{
	lexer.PIPE: 1, lexer.CARET: 2, lexer.AMP: 3,
	lexer.SHL: 4, lexer.SHR: 4,
	lexer.PLUS: 5, lexer.MINUS: 5,
	lexer.STAR: 6, lexer.SLASH: 6, lexer.DSLASH: 6, lexer.PERCENT: 6,
}

var compareOps = map[lexer.TokenType]bool{
	lexer.LT: true, lexer.GT: true, lexer.LE: true, lexer.GE: true,
	lexer.EQ: true, lexer.NEQ: true, lexer.IN: true,
}

func (p *Parser) parseExpr() ast.Expr { return p.parseOr() }

func (p *Parser) parseOr() ast.Expr {
	pos := ast.Pos{Line: p.cur().Line, Col: p.cur().Col}
	left := p.parseAnd()
	if !p.at(lexer.OR) {
		return left
	}
	values := []ast.Expr{left}
	for p.at(lexer.OR) {
		p.advance()
		values = append(values, p.parseAnd())
	}
	return &ast.BoolOp{Pos: pos, Op: "or", Values: values}
}

func (p *Parser) parseAnd() ast.Expr {
	pos := ast.Pos{Line: p.cur().Line, Col: p.cur().Col}
	left := p.parseNot()
	if !p.at(lexer.AND) {
		return left
	}
	values := []ast.Expr{left}
	for p.at(lexer.AND) {
		p.advance()
		values = append(values, p.parseNot())
	}
	return &ast.BoolOp{Pos: pos, Op: "and", Values: values}
}

func (p *Parser) parseNot() ast.Expr {
	if p.at(lexer.NOT) {
		pos := ast.Pos{Line: p.cur().Line, Col: p.cur().Col}
		p.advance()
		return &ast.UnaryExpr{Pos: pos, Op: "not", X: p.parseNot()}
	}
	return p.parseComparison()
}

func (p *Parser) parseComparison() ast.Expr {
	pos := ast.Pos{Line: p.cur().Line, Col: p.cur().Col}
	left := p.parseBinary(1)
	for compareOps[p.cur().Type] && !(p.noIn && p.at(lexer.IN)) {
		op := p.cur().Literal
		if p.at(lexer.IN) {
			op = "in"
		}
		p.advance()
		right := p.parseBinary(1)
		left = &ast.BinaryExpr{Pos: pos, Op: op, Left: left, Right: right}
	}
	return left
}

func (p *Parser) parseBinary(minPrec int) ast.Expr {
	left := p.parseUnary()
	for {
		prec, ok := binaryPrec[p.cur().Type]
		if !ok || prec < minPrec {
			return left
		}
		op := p.cur().Literal
		pos := ast.Pos{Line: p.cur().Line, Col: p.cur().Col}
		p.advance()
		right := p.parseBinary(prec + 1)
		left = &ast.BinaryExpr{Pos: pos, Op: op, Left: left, Right: right}
	}
}

func (p *Parser) parseUnary() ast.Expr {
	pos := ast.Pos{Line: p.cur().Line, Col: p.cur().Col}
	switch p.cur().Type {
	case lexer.MINUS:
		p.advance()
		return &ast.UnaryExpr{Pos: pos, Op: "-", X: p.parseUnary()}
	case lexer.PLUS:
		p.advance()
		return &ast.UnaryExpr{Pos: pos, Op: "+", X: p.parseUnary()}
	case lexer.TILDE:
		p.advance()
		return &ast.UnaryExpr{Pos: pos, Op: "~", X: p.parseUnary()}
	default:
		return p.parsePower()
	}
}

func (p *Parser) parsePower() ast.Expr {
	base := p.parsePostfix()
	if p.at(lexer.DSTAR) {
		pos := ast.Pos{Line: p.cur().Line, Col: p.cur().Col}
		p.advance()
		exp := p.parseUnary()
		return &ast.BinaryExpr{Pos: pos, Op: "**", Left: base, Right: exp}
	}
	return base
}

func (p *Parser) parsePostfix() ast.Expr {
	x := p.parseAtom()
	for {
		switch p.cur().Type {
		case lexer.DOT:
			pos := ast.Pos{Line: p.cur().Line, Col: p.cur().Col}
			p.advance()
			name := p.expect(lexer.IDENT).Literal
			x = &ast.Attribute{Pos: pos, X: x, Name: name}
		case lexer.LPAREN:
			x = p.parseCall(x)
		case lexer.LBRACKET:
			pos := ast.Pos{Line: p.cur().Line, Col: p.cur().Col}
			p.advance()
			idx := p.parseExprList()
			p.expect(lexer.RBRACKET)
			x = &ast.Subscript{Pos: pos, X: x, Index: idx}
		default:
			return x
		}
	}
}

func (p *Parser) parseCall(fn ast.Expr) ast.Expr {
	pos := ast.Pos{Line: p.cur().Line, Col: p.cur().Col}
	p.expect(lexer.LPAREN)
	var args []ast.Expr
	kwargs := map[string]ast.Expr{}
	for !p.at(lexer.RPAREN) && !p.at(lexer.EOF) {
		if p.at(lexer.IDENT) && p.peekAt(1).Type == lexer.ASSIGN {
			name := p.advance().Literal
			p.advance() // '='
			kwargs[name] = p.parseExpr()
		} else {
			args = append(args, p.parseTestOrStarred())
		}
		if p.at(lexer.COMMA) {
			p.advance()
		}
	}
	p.expect(lexer.RPAREN)
	return &ast.Call{Pos: pos, Func: fn, Args: args, Keywords: kwargs}
}

func (p *Parser) parseAtom() ast.Expr {
	t := p.cur()
	pos := ast.Pos{Line: t.Line, Col: t.Col}
	switch t.Type {
	case lexer.INT:
		p.advance()
		return &ast.IntLit{Pos: pos, Value: t.Literal}
	case lexer.FLOAT:
		p.advance()
		f, _ := strconv.ParseFloat(t.Literal, 64)
		return &ast.FloatLit{Pos: pos, Value: f}
	case lexer.STRING:
		p.advance()
		return &ast.StringLit{Pos: pos, Value: t.Literal}
	case lexer.TRUE:
		p.advance()
		return &ast.BoolLit{Pos: pos, Value: true}
	case lexer.FALSE:
		p.advance()
		return &ast.BoolLit{Pos: pos, Value: false}
	case lexer.NULL:
		p.advance()
		return &ast.NullLit{Pos: pos}
	case lexer.IDENT:
		p.advance()
		return &ast.Ident{Pos: pos, Name: t.Literal}
	case lexer.LPAREN:
		p.advance()
		if p.at(lexer.RPAREN) {
			p.advance()
			return &ast.TupleLit{Pos: pos}
		}
		x := p.parseTestOrStarred()
		if p.at(lexer.COMMA) {
			elems := []ast.Expr{x}
			for p.at(lexer.COMMA) {
				p.advance()
				if p.at(lexer.RPAREN) {
					break
				}
				elems = append(elems, p.parseTestOrStarred())
			}
			p.expect(lexer.RPAREN)
			return &ast.TupleLit{Pos: pos, Elems: elems}
		}
		if p.at(lexer.FOR) {
			return p.parseComprehensionTail(pos, ast.ComprehensionGenerator, x, nil)
		}
		p.expect(lexer.RPAREN)
		return x
	case lexer.LBRACKET:
		return p.parseListOrComprehension()
	case lexer.LBRACE:
		return p.parseDictOrSetOrComprehension()
	case lexer.LAMBDA:
		return p.parseLambda()
	default:
		p.errorf("unexpected token %v %q in expression", t.Type, t.Literal)
		p.advance()
		return &ast.NullLit{Pos: pos}
	}
}

func (p *Parser) parseListOrComprehension() ast.Expr {
	pos := ast.Pos{Line: p.cur().Line, Col: p.cur().Col}
	p.expect(lexer.LBRACKET)
	if p.at(lexer.RBRACKET) {
		p.advance()
		return &ast.ListLit{Pos: pos}
	}
	first := p.parseTestOrStarred()
	if p.at(lexer.FOR) {
		return p.parseComprehensionTail(pos, ast.ComprehensionList, first, nil)
	}
	elems := []ast.Expr{first}
	for p.at(lexer.COMMA) {
		p.advance()
		if p.at(lexer.RBRACKET) {
			break
		}
		elems = append(elems, p.parseTestOrStarred())
	}
	p.expect(lexer.RBRACKET)
	return &ast.ListLit{Pos: pos, Elems: elems}
}

func (p *Parser) parseDictOrSetOrComprehension() ast.Expr {
	pos := ast.Pos{Line: p.cur().Line, Col: p.cur().Col}
	p.expect(lexer.LBRACE)
	if p.at(lexer.RBRACE) {
		p.advance()
		return &ast.DictLit{Pos: pos}
	}
	firstKey := p.parseExpr()
	if p.at(lexer.COLON) {
		p.advance()
		firstVal := p.parseExpr()
		if p.at(lexer.FOR) {
			return p.parseComprehensionTail(pos, ast.ComprehensionMapping, firstVal, firstKey)
		}
		keys := []ast.Expr{firstKey}
		vals := []ast.Expr{firstVal}
		for p.at(lexer.COMMA) {
			p.advance()
			if p.at(lexer.RBRACE) {
				break
			}
			k := p.parseExpr()
			p.expect(lexer.COLON)
			v := p.parseExpr()
			keys = append(keys, k)
			vals = append(vals, v)
		}
		p.expect(lexer.RBRACE)
		return &ast.DictLit{Pos: pos, Keys: keys, Values: vals}
	}
	if p.at(lexer.FOR) {
		return p.parseComprehensionTail(pos, ast.ComprehensionSet, firstKey, nil)
	}
	elems := []ast.Expr{firstKey}
	for p.at(lexer.COMMA) {
		p.advance()
		if p.at(lexer.RBRACE) {
			break
		}
		elems = append(elems, p.parseExpr())
	}
	p.expect(lexer.RBRACE)
	return &ast.SetLit{Pos: pos, Elems: elems}
}

func (p *Parser) parseComprehensionTail(pos ast.Pos, kind ast.ComprehensionKind, elem ast.Expr, keyElem ast.Expr) ast.Expr {
	p.expect(lexer.FOR)
	p.noIn = true
	target := p.parseExprList()
	p.noIn = false
	p.expect(lexer.IN)
	iter := p.parseBinary(1)
	var ifs []ast.Expr
	for p.at(lexer.IF) {
		p.advance()
		ifs = append(ifs, p.parseExpr())
	}
	switch kind {
	case ast.ComprehensionList, ast.ComprehensionGenerator:
		if kind == ast.ComprehensionGenerator {
			p.expect(lexer.RPAREN)
		} else {
			p.expect(lexer.RBRACKET)
		}
	case ast.ComprehensionSet:
		p.expect(lexer.RBRACE)
	case ast.ComprehensionMapping:
		p.expect(lexer.RBRACE)
	}
	return &ast.Comprehension{Pos: pos, Kind: kind, Element: elem, KeyElem: keyElem, Target: target, Iter: iter, Ifs: ifs}
}

func (p *Parser) parseLambda() ast.Expr {
	pos := ast.Pos{Line: p.cur().Line, Col: p.cur().Col}
	p.expect(lexer.LAMBDA)
	var params []ast.Param
	for !p.at(lexer.COLON) {
		name := p.expect(lexer.IDENT).Literal
		var def ast.Expr
		if p.at(lexer.ASSIGN) {
			p.advance()
			def = p.parseExpr()
		}
		params = append(params, ast.Param{Name: name, Default: def})
		if p.at(lexer.COMMA) {
			p.advance()
		}
	}
	p.expect(lexer.COLON)
	body := p.parseExpr()
	return &ast.Lambda{Pos: pos, Params: params, Body: body}
}

// Errors returns the syntax errors accumulated during parsing.
func (p *Parser) Errors() []*molterr.Error { return p.errs }
