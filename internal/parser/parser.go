// Package parser turns quill source into an ast.File. Syntax problems are
// reported as diagnostics rather than returned errors so that a broken file
// still yields as much tree as possible.
package parser

import (
	"strconv"

	"quill/internal/ast"
	"quill/internal/diag"
	"quill/internal/lexer"
)

type Parser struct {
	tokens  []lexer.Token
	current int
	bag     *diag.Bag
}

func New(tokens []lexer.Token, bag *diag.Bag) *Parser {
	return &Parser{tokens: tokens, bag: bag}
}

// Parse scans and parses src in one step.
func Parse(src, path string, opts ast.Options) (*ast.File, []diag.Diagnostic) {
	scanner := lexer.NewScanner(src)
	tokens := scanner.ScanTokens()
	var bag diag.Bag
	p := New(tokens, &bag)
	file := p.ParseFile()
	file.Path = path
	file.Options = opts
	return file, bag.All()
}

// ParseFile parses one compilation unit: use declarations, then namespaces.
func (p *Parser) ParseFile() *ast.File {
	file := &ast.File{}
	for p.match(lexer.TokenUse) {
		use := p.useDecl()
		if use != nil {
			file.Uses = append(file.Uses, use)
		}
	}
	for !p.isAtEnd() {
		if p.match(lexer.TokenNamespace) {
			file.Namespaces = append(file.Namespaces, p.namespaceDecl())
			continue
		}
		if p.check(lexer.TokenError) {
			tok := p.advance()
			p.bag.Errorf(tok.Line, tok.Col, "%s", tok.Lexeme)
			continue
		}
		tok := p.advance()
		p.bag.Errorf(tok.Line, tok.Col, "namespace expected")
		p.synchronize()
	}
	return file
}

func (p *Parser) useDecl() *ast.Use {
	name := p.consume(lexer.TokenIdent, "identifier")
	p.consume(lexer.TokenSemicolon, ";")
	// A failed consume fabricates a token with an empty lexeme; drop the
	// malformed declaration rather than binding a nameless module.
	if name.Lexeme == "" {
		return nil
	}
	return &ast.Use{Name: name.Lexeme, Line: name.Line, Col: name.Col}
}

func (p *Parser) namespaceDecl() *ast.Namespace {
	name := p.consume(lexer.TokenIdent, "identifier")
	ns := &ast.Namespace{Name: name.Lexeme, Line: name.Line, Col: name.Col}
	p.consume(lexer.TokenLBrace, "{")
	for !p.check(lexer.TokenRBrace) && !p.isAtEnd() {
		if p.match(lexer.TokenClass) {
			ns.Classes = append(ns.Classes, p.classDecl())
		} else {
			tok := p.advance()
			p.bag.Errorf(tok.Line, tok.Col, "class expected")
			p.synchronize()
		}
	}
	p.consume(lexer.TokenRBrace, "}")
	return ns
}

func (p *Parser) classDecl() *ast.Class {
	name := p.consume(lexer.TokenIdent, "identifier")
	cls := &ast.Class{Name: name.Lexeme, Line: name.Line, Col: name.Col}
	p.consume(lexer.TokenLBrace, "{")
	for !p.check(lexer.TokenRBrace) && !p.isAtEnd() {
		switch {
		case p.match(lexer.TokenVar):
			cls.Fields = append(cls.Fields, p.fieldDecl())
		case p.match(lexer.TokenFn):
			cls.Methods = append(cls.Methods, p.methodDecl())
		default:
			tok := p.advance()
			p.bag.Errorf(tok.Line, tok.Col, "var or fn expected")
			p.synchronize()
		}
	}
	p.consume(lexer.TokenRBrace, "}")
	return cls
}

func (p *Parser) fieldDecl() *ast.Field {
	name := p.consume(lexer.TokenIdent, "identifier")
	p.consume(lexer.TokenEqual, "=")
	init := p.expression()
	p.consume(lexer.TokenSemicolon, ";")
	return &ast.Field{Name: name.Lexeme, Init: init, Line: name.Line, Col: name.Col}
}

func (p *Parser) methodDecl() *ast.Method {
	name := p.consume(lexer.TokenIdent, "identifier")
	m := &ast.Method{Name: name.Lexeme, Line: name.Line, Col: name.Col}
	p.consume(lexer.TokenLParen, "(")
	if p.check(lexer.TokenIdent) {
		m.Params = append(m.Params, p.advance().Lexeme)
		for p.match(lexer.TokenComma) {
			param := p.consume(lexer.TokenIdent, "identifier")
			m.Params = append(m.Params, param.Lexeme)
		}
	}
	p.consume(lexer.TokenRParen, ")")
	m.Body = p.block()
	return m
}

func (p *Parser) block() []ast.Stmt {
	p.consume(lexer.TokenLBrace, "{")
	var stmts []ast.Stmt
	for !p.check(lexer.TokenRBrace) && !p.isAtEnd() {
		stmts = append(stmts, p.statement())
	}
	p.consume(lexer.TokenRBrace, "}")
	return stmts
}

func (p *Parser) statement() ast.Stmt {
	if p.match(lexer.TokenLet) {
		name := p.consume(lexer.TokenIdent, "identifier")
		p.consume(lexer.TokenEqual, "=")
		init := p.expression()
		p.consume(lexer.TokenSemicolon, ";")
		return &ast.Let{Name: name.Lexeme, Init: init, Line: name.Line, Col: name.Col}
	}
	if p.match(lexer.TokenIf) {
		cond := p.expression()
		then := p.block()
		var els []ast.Stmt
		if p.match(lexer.TokenElse) {
			if p.check(lexer.TokenIf) {
				els = []ast.Stmt{p.statement()}
			} else {
				els = p.block()
			}
		}
		return &ast.If{Cond: cond, Then: then, Else: els}
	}
	if p.match(lexer.TokenWhile) {
		cond := p.expression()
		body := p.block()
		return &ast.While{Cond: cond, Body: body}
	}
	if ret, ok := p.tryMatch(lexer.TokenReturn); ok {
		var value ast.Expr
		if !p.check(lexer.TokenSemicolon) && !p.check(lexer.TokenRBrace) && !p.isAtEnd() {
			value = p.expression()
		}
		p.consume(lexer.TokenSemicolon, ";")
		return &ast.Return{Value: value, Line: ret.Line, Col: ret.Col}
	}
	if p.match(lexer.TokenLog) {
		p.consume(lexer.TokenLParen, "(")
		expr := p.expression()
		p.consume(lexer.TokenRParen, ")")
		p.consume(lexer.TokenSemicolon, ";")
		return &ast.Log{Expr: expr}
	}
	expr := p.expression()
	p.consume(lexer.TokenSemicolon, ";")
	return &ast.ExprStmt{Expr: expr}
}

// Expression parsing, lowest precedence first.

func (p *Parser) expression() ast.Expr {
	return p.assignment()
}

func (p *Parser) assignment() ast.Expr {
	expr := p.or()
	if eq, ok := p.tryMatch(lexer.TokenEqual); ok {
		value := p.assignment()
		if v, isVar := expr.(*ast.Variable); isVar {
			return &ast.Assign{Name: v.Name, Value: value, Line: v.Line, Col: v.Col}
		}
		p.bag.Errorf(eq.Line, eq.Col, "invalid assignment target")
	}
	return expr
}

func (p *Parser) or() ast.Expr {
	expr := p.and()
	for p.match(lexer.TokenOr) {
		right := p.and()
		expr = &ast.Logical{Left: expr, Operator: "||", Right: right}
	}
	return expr
}

func (p *Parser) and() ast.Expr {
	expr := p.equality()
	for p.match(lexer.TokenAnd) {
		right := p.equality()
		expr = &ast.Logical{Left: expr, Operator: "&&", Right: right}
	}
	return expr
}

func (p *Parser) equality() ast.Expr {
	expr := p.comparison()
	for p.check(lexer.TokenDoubleEqual) || p.check(lexer.TokenNotEqual) {
		op := p.advance()
		right := p.comparison()
		expr = &ast.Binary{Left: expr, Operator: op.Lexeme, Right: right, Line: op.Line, Col: op.Col}
	}
	return expr
}

func (p *Parser) comparison() ast.Expr {
	expr := p.term()
	for p.check(lexer.TokenLT) || p.check(lexer.TokenGT) || p.check(lexer.TokenLE) || p.check(lexer.TokenGE) {
		op := p.advance()
		right := p.term()
		expr = &ast.Binary{Left: expr, Operator: op.Lexeme, Right: right, Line: op.Line, Col: op.Col}
	}
	return expr
}

func (p *Parser) term() ast.Expr {
	expr := p.factor()
	for p.check(lexer.TokenPlus) || p.check(lexer.TokenMinus) {
		op := p.advance()
		right := p.factor()
		expr = &ast.Binary{Left: expr, Operator: op.Lexeme, Right: right, Line: op.Line, Col: op.Col}
	}
	return expr
}

func (p *Parser) factor() ast.Expr {
	expr := p.unary()
	for p.check(lexer.TokenStar) || p.check(lexer.TokenSlash) || p.check(lexer.TokenPercent) {
		op := p.advance()
		right := p.unary()
		expr = &ast.Binary{Left: expr, Operator: op.Lexeme, Right: right, Line: op.Line, Col: op.Col}
	}
	return expr
}

func (p *Parser) unary() ast.Expr {
	if p.check(lexer.TokenNot) || p.check(lexer.TokenMinus) {
		op := p.advance()
		operand := p.unary()
		return &ast.Unary{Operator: op.Lexeme, Operand: operand}
	}
	return p.postfix()
}

func (p *Parser) postfix() ast.Expr {
	expr := p.primary()
	for {
		switch {
		case p.check(lexer.TokenLParen):
			paren := p.advance()
			var args []ast.Expr
			if !p.check(lexer.TokenRParen) {
				args = append(args, p.expression())
				for p.match(lexer.TokenComma) {
					args = append(args, p.expression())
				}
			}
			p.consume(lexer.TokenRParen, ")")
			expr = &ast.Call{Callee: expr, Args: args, Line: paren.Line, Col: paren.Col}
		case p.check(lexer.TokenDot):
			p.advance()
			name := p.consume(lexer.TokenIdent, "identifier")
			expr = &ast.Get{Object: expr, Name: name.Lexeme, Line: name.Line, Col: name.Col}
		case p.check(lexer.TokenLBracket):
			bracket := p.advance()
			idx := p.expression()
			p.consume(lexer.TokenRBracket, "]")
			expr = &ast.Index{Object: expr, Index: idx, Line: bracket.Line, Col: bracket.Col}
		default:
			return expr
		}
	}
}

func (p *Parser) primary() ast.Expr {
	switch {
	case p.match(lexer.TokenTrue):
		return &ast.Literal{Value: true}
	case p.match(lexer.TokenFalse):
		return &ast.Literal{Value: false}
	case p.match(lexer.TokenNil):
		return &ast.Literal{Value: nil}
	case p.check(lexer.TokenNumber):
		tok := p.advance()
		n, err := strconv.ParseFloat(tok.Lexeme, 64)
		if err != nil {
			p.bag.Errorf(tok.Line, tok.Col, "malformed number %q", tok.Lexeme)
		}
		return &ast.Literal{Value: n}
	case p.check(lexer.TokenString):
		tok := p.advance()
		return &ast.Literal{Value: tok.Lexeme}
	case p.check(lexer.TokenIdent):
		tok := p.advance()
		return &ast.Variable{Name: tok.Lexeme, Line: tok.Line, Col: tok.Col}
	case p.match(lexer.TokenLParen):
		expr := p.expression()
		p.consume(lexer.TokenRParen, ")")
		return expr
	case p.match(lexer.TokenLBracket):
		arr := &ast.Array{}
		if !p.check(lexer.TokenRBracket) {
			arr.Elements = append(arr.Elements, p.expression())
			for p.match(lexer.TokenComma) {
				arr.Elements = append(arr.Elements, p.expression())
			}
		}
		p.consume(lexer.TokenRBracket, "]")
		return arr
	case p.match(lexer.TokenLBrace):
		m := &ast.Map{}
		if !p.check(lexer.TokenRBrace) {
			p.mapEntry(m)
			for p.match(lexer.TokenComma) {
				p.mapEntry(m)
			}
		}
		p.consume(lexer.TokenRBrace, "}")
		return m
	case p.check(lexer.TokenError):
		tok := p.advance()
		p.bag.Errorf(tok.Line, tok.Col, "%s", tok.Lexeme)
		return &ast.Literal{Value: nil}
	}
	tok := p.peek()
	p.bag.Errorf(tok.Line, tok.Col, "expression expected")
	if !p.isAtEnd() {
		p.advance()
	}
	return &ast.Literal{Value: nil}
}

func (p *Parser) mapEntry(m *ast.Map) {
	key := p.expression()
	p.consume(lexer.TokenColon, ":")
	value := p.expression()
	m.Keys = append(m.Keys, key)
	m.Values = append(m.Values, value)
}

// Token plumbing.

func (p *Parser) match(t lexer.TokenType) bool {
	if !p.check(t) {
		return false
	}
	p.advance()
	return true
}

func (p *Parser) tryMatch(t lexer.TokenType) (lexer.Token, bool) {
	if !p.check(t) {
		return lexer.Token{}, false
	}
	return p.advance(), true
}

func (p *Parser) check(t lexer.TokenType) bool {
	return p.peek().Type == t
}

// consume advances past an expected token. On mismatch it reports
// "<what> expected" at the offending token and leaves the token in place so
// parsing can continue from it.
func (p *Parser) consume(t lexer.TokenType, what string) lexer.Token {
	if p.check(t) {
		return p.advance()
	}
	tok := p.peek()
	p.bag.Errorf(tok.Line, tok.Col, "%s expected", what)
	return lexer.Token{Type: t, Line: tok.Line, Col: tok.Col}
}

func (p *Parser) advance() lexer.Token {
	tok := p.tokens[p.current]
	if !p.isAtEnd() {
		p.current++
	}
	return tok
}

func (p *Parser) peek() lexer.Token {
	return p.tokens[p.current]
}

func (p *Parser) isAtEnd() bool {
	return p.tokens[p.current].Type == lexer.TokenEOF
}

// synchronize skips tokens after a malformed declaration until a point where
// parsing can safely resume. The skipped stretch is reported once as a
// warning so cascade noise stays out of the error list.
func (p *Parser) synchronize() {
	skipped := 0
	var first lexer.Token
	for !p.isAtEnd() {
		switch p.peek().Type {
		case lexer.TokenSemicolon:
			p.advance()
			p.warnSkipped(skipped, first)
			return
		case lexer.TokenRBrace, lexer.TokenNamespace, lexer.TokenClass,
			lexer.TokenFn, lexer.TokenVar, lexer.TokenUse:
			p.warnSkipped(skipped, first)
			return
		}
		tok := p.advance()
		if skipped == 0 {
			first = tok
		}
		skipped++
	}
	p.warnSkipped(skipped, first)
}

func (p *Parser) warnSkipped(n int, first lexer.Token) {
	if n == 0 {
		return
	}
	p.bag.Warnf(first.Line, first.Col, "skipped %d token(s) while recovering", n)
}
