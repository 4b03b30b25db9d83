// Recursive descent parser
// https://en.wikipedia.org/wiki/Recursive_descent_parser
//
// The parser walks the token stream with a cursor and builds the
// position-annotated AST. Expression parsing is layered by precedence, from
// the maybe operators at the bottom up through `or`, `and`, equality,
// comparison, additive, multiplicative, unary and finally the postfix
// accessor chain.
package parser

import (
	"frisbee/ast"
	"frisbee/token"
	"frisbee/types"
)

// Parser consumes a scanned token stream and produces a FileAst.
type Parser struct {
	tokens   []token.Token
	position int
}

// Make initializes and returns a new Parser over the given tokens.
func Make(tokens []token.Token) *Parser {
	return &Parser{tokens: tokens, position: 0}
}

// fullToken returns the token at the given offset relative to the cursor;
// out-of-range positions yield the trailing EOF token.
func (p *Parser) fullToken(rel int) token.Token {
	pos := p.position + rel
	if pos < 0 || pos >= len(p.tokens) {
		return token.Token{Kind: token.EOF}
	}
	return p.tokens[pos]
}

func (p *Parser) relKind(rel int) token.Kind {
	return p.fullToken(rel).Kind
}

func (p *Parser) check(rel int, kind token.Kind) bool {
	return p.relKind(rel) == kind
}

// consume returns the current token and advances the cursor.
func (p *Parser) consume() token.Token {
	tok := p.fullToken(0)
	p.position++
	return tok
}

// consumeIfMatches advances iff the current token is one of the given
// kinds; reports whether it advanced.
func (p *Parser) consumeIfMatches(kinds ...token.Kind) bool {
	for _, kind := range kinds {
		if p.check(0, kind) {
			p.position++
			return true
		}
	}
	return false
}

func (p *Parser) isFinished() bool {
	return p.position >= len(p.tokens) || p.check(0, token.EOF)
}

func (p *Parser) fail(message string) error {
	return Error{At: p.fullToken(0), Message: message}
}

func (p *Parser) expect(kind token.Kind) error {
	if p.check(0, kind) {
		p.position++
		return nil
	}
	return Error{At: p.fullToken(0), Message: "unexpected token", Expected: kind}
}

func (p *Parser) consumeIdent() (string, error) {
	if p.check(0, token.IDENTIFIER) {
		return p.consume().Lexeme, nil
	}
	return "", Error{At: p.fullToken(0), Message: "unexpected token (expected identifier)"}
}

func (p *Parser) consumeTypeIdent() (string, error) {
	if p.check(0, token.TYPE_IDENTIFIER) {
		return p.consume().Lexeme, nil
	}
	return "", Error{At: p.fullToken(0), Message: "unexpected token (expected type identifier)"}
}

// span builds the byte range covered by the tokens [startTok, endTok].
func (p *Parser) span(startTok, endTok int) ast.Span {
	clamp := func(i int) int {
		if i < 0 {
			return 0
		}
		if i >= len(p.tokens) {
			return len(p.tokens) - 1
		}
		return i
	}
	return ast.Span{First: p.tokens[clamp(startTok)].First, Last: p.tokens[clamp(endTok)].Last}
}

// spanToHere builds the byte range from startTok up to the last consumed
// token.
func (p *Parser) spanToHere(startTok int) ast.Span {
	return p.span(startTok, p.position-1)
}

// ParseTopLevel parses a whole file: a sequence of imports, class/active
// declarations and function declarations, terminated by EOF.
func (p *Parser) ParseTopLevel() (ast.FileAst, error) {
	file := ast.FileAst{}

	for !p.isFinished() {
		switch p.relKind(0) {
		case token.FROM:
			imp, err := p.parseImport()
			if err != nil {
				return file, err
			}
			file.Imports = append(file.Imports, imp)
		case token.ACTIVE:
			class, err := p.parseObject(true)
			if err != nil {
				return file, err
			}
			file.Types = append(file.Types, class)
		case token.CLASS:
			class, err := p.parseObject(false)
			if err != nil {
				return file, err
			}
			file.Types = append(file.Types, class)
		case token.FUN:
			fn, err := p.parseFunctionDefinition("")
			if err != nil {
				return file, err
			}
			file.Functions = append(file.Functions, fn)
		default:
			return file, p.fail("only imports and fun/class/active declarations are allowed at top level")
		}
	}
	return file, nil
}

func (p *Parser) parseImport() (ast.ImportDecl, error) {
	start := p.fullToken(0).First
	if err := p.expect(token.FROM); err != nil {
		return ast.ImportDecl{}, err
	}

	first, err := p.consumeIdent()
	if err != nil {
		return ast.ImportDecl{}, err
	}
	modulePath := []string{first}
	for p.consumeIfMatches(token.DOT) {
		sub, err := p.consumeIdent()
		if err != nil {
			return ast.ImportDecl{}, err
		}
		modulePath = append(modulePath, sub)
	}

	if err := p.expect(token.IMPORT); err != nil {
		return ast.ImportDecl{}, err
	}

	var typenames, functions []string
	for {
		switch p.relKind(0) {
		case token.TYPE_IDENTIFIER:
			typenames = append(typenames, p.consume().Lexeme)
		case token.IDENTIFIER:
			functions = append(functions, p.consume().Lexeme)
		default:
			return ast.ImportDecl{}, p.fail("unexpected token (expected identifier)")
		}
		if p.check(0, token.COMMA) {
			p.consume()
		} else if p.check(0, token.SEMICOLON) {
			break
		}
	}
	if err := p.expect(token.SEMICOLON); err != nil {
		return ast.ImportDecl{}, err
	}

	return ast.ImportDecl{At: start, ModulePath: modulePath, Typenames: typenames, Functions: functions}, nil
}

// ParseType parses a type expression: `[T]` lists, `(T1, …)` tuples
// (singleton collapses to the inner type, empty is rejected), primitive
// names, other type identifiers as Custom. Any number of trailing `?` wrap
// the result in Maybe.
func (p *Parser) ParseType() (types.Type, error) {
	var result types.Type

	switch p.relKind(0) {
	case token.LSQB:
		p.consume()
		item, err := p.ParseType()
		if err != nil {
			return types.Type{}, err
		}
		if err := p.expect(token.RSQB); err != nil {
			return types.Type{}, err
		}
		result = types.ListOf(item)
	case token.LPA:
		p.consume()
		var items []types.Type
		for !p.check(0, token.RPA) {
			item, err := p.ParseType()
			if err != nil {
				return types.Type{}, err
			}
			items = append(items, item)
			if p.check(0, token.COMMA) {
				p.consume()
			}
		}
		if err := p.expect(token.RPA); err != nil {
			return types.Type{}, err
		}
		switch len(items) {
		case 0:
			return types.Type{}, p.fail("empty tuple is not allowed")
		case 1:
			result = items[0]
		default:
			result = types.TupleOf(items...)
		}
	case token.TYPE_IDENTIFIER:
		name := p.consume().Lexeme
		switch name {
		case "Int":
			result = types.Int
		case "Float":
			result = types.Float
		case "Bool":
			result = types.Bool
		case "String":
			result = types.String
		default:
			result = types.CustomOf(name)
		}
	default:
		return types.Type{}, p.fail("wrong token for type definition")
	}

	for p.check(0, token.QUESTION) {
		p.consume()
		result = types.MaybeOf(result)
	}
	return result, nil
}

// parseFunctionDefinition parses a `fun` declaration. For methods, memberOf
// holds the enclosing class name; a method whose return type equals the
// class name and whose name slot is immediately `(` is the constructor.
func (p *Parser) parseFunctionDefinition(memberOf string) (ast.FunctionDecl, error) {
	start := p.fullToken(0).First
	if err := p.expect(token.FUN); err != nil {
		return ast.FunctionDecl{}, err
	}

	var rettype *types.Type
	if p.check(0, token.VOID) {
		p.consume()
	} else {
		t, err := p.ParseType()
		if err != nil {
			return ast.FunctionDecl{}, err
		}
		rettype = &t
	}

	var name string
	if p.check(0, token.LPA) {
		// The name slot being `(` means this is a constructor, which is
		// only legal inside a class and must return the class type.
		if memberOf == "" {
			return ast.FunctionDecl{}, p.fail("function is missing name")
		}
		if rettype == nil || rettype.Kind != types.KindCustom || rettype.Name != memberOf {
			return ast.FunctionDecl{}, p.fail("method name is missing")
		}
		name = memberOf
	} else {
		ident, err := p.consumeIdent()
		if err != nil {
			return ast.FunctionDecl{}, err
		}
		name = ident
	}

	if err := p.expect(token.LPA); err != nil {
		return ast.FunctionDecl{}, err
	}
	var args []ast.TypedName
	for !p.check(0, token.RPA) {
		argType, err := p.ParseType()
		if err != nil {
			return ast.FunctionDecl{}, err
		}
		argName, err := p.consumeIdent()
		if err != nil {
			return ast.FunctionDecl{}, err
		}
		if p.check(0, token.COMMA) {
			p.consume()
		}
		args = append(args, ast.TypedName{Type: argType, Name: argName})
	}
	if err := p.expect(token.RPA); err != nil {
		return ast.FunctionDecl{}, err
	}

	statements, err := p.parseStatementsInCurlyBlock()
	if err != nil {
		return ast.FunctionDecl{}, err
	}

	return ast.FunctionDecl{At: start, ReturnType: rettype, Name: name, Args: args, Statements: statements}, nil
}

// parseObject parses a `class` or `active` declaration: fields first, then
// methods, inside curly brackets.
func (p *Parser) parseObject(isActive bool) (ast.ClassDecl, error) {
	start := p.fullToken(0).First
	if isActive {
		if err := p.expect(token.ACTIVE); err != nil {
			return ast.ClassDecl{}, err
		}
	} else {
		if err := p.expect(token.CLASS); err != nil {
			return ast.ClassDecl{}, err
		}
	}

	name, err := p.consumeTypeIdent()
	if err != nil {
		return ast.ClassDecl{}, err
	}
	if err := p.expect(token.LCUR); err != nil {
		return ast.ClassDecl{}, err
	}

	var fields []ast.TypedName
	var methods []ast.FunctionDecl

	for !p.check(0, token.FUN) && !p.check(0, token.RCUR) {
		fieldType, err := p.ParseType()
		if err != nil {
			return ast.ClassDecl{}, err
		}
		fieldName, err := p.consumeIdent()
		if err != nil {
			return ast.ClassDecl{}, err
		}
		if err := p.expect(token.SEMICOLON); err != nil {
			return ast.ClassDecl{}, err
		}
		fields = append(fields, ast.TypedName{Type: fieldType, Name: fieldName})
	}

	for !p.check(0, token.RCUR) {
		method, err := p.parseFunctionDefinition(name)
		if err != nil {
			return ast.ClassDecl{}, err
		}
		methods = append(methods, method)
	}
	if err := p.expect(token.RCUR); err != nil {
		return ast.ClassDecl{}, err
	}

	return ast.ClassDecl{At: start, IsActive: isActive, Name: name, Fields: fields, Methods: methods}, nil
}

func (p *Parser) parseStatementsInCurlyBlock() ([]ast.Statement, error) {
	if err := p.expect(token.LCUR); err != nil {
		return nil, err
	}
	statements := []ast.Statement{}
	for !p.check(0, token.RCUR) {
		if p.isFinished() {
			return nil, p.fail("unexpected end of file inside block")
		}
		stmt, err := p.ParseStatement()
		if err != nil {
			return nil, err
		}
		statements = append(statements, stmt)
	}
	if err := p.expect(token.RCUR); err != nil {
		return nil, err
	}
	return statements, nil
}

func (p *Parser) parseIfElseStatement() (ast.Statement, error) {
	start := p.fullToken(0).First
	if err := p.expect(token.IF); err != nil {
		return nil, err
	}
	condition, err := p.ParseExpr()
	if err != nil {
		return nil, err
	}
	ifBody, err := p.parseStatementsInCurlyBlock()
	if err != nil {
		return nil, err
	}

	var elifs []ast.ElifBranch
	for p.consumeIfMatches(token.ELIF) {
		elifCondition, err := p.ParseExpr()
		if err != nil {
			return nil, err
		}
		elifBody, err := p.parseStatementsInCurlyBlock()
		if err != nil {
			return nil, err
		}
		elifs = append(elifs, ast.ElifBranch{Condition: elifCondition, Body: elifBody})
	}

	var elseBody []ast.Statement
	if p.consumeIfMatches(token.ELSE) {
		elseBody, err = p.parseStatementsInCurlyBlock()
		if err != nil {
			return nil, err
		}
	}

	return ast.IfElse{
		StmtAt:    ast.StmtAt{At: start},
		Condition: condition,
		IfBody:    ifBody,
		Elifs:     elifs,
		ElseBody:  elseBody,
	}, nil
}

func (p *Parser) parseWhileStatement() (ast.Statement, error) {
	start := p.fullToken(0).First
	if err := p.expect(token.WHILE); err != nil {
		return nil, err
	}
	condition, err := p.ParseExpr()
	if err != nil {
		return nil, err
	}
	body, err := p.parseStatementsInCurlyBlock()
	if err != nil {
		return nil, err
	}
	return ast.While{StmtAt: ast.StmtAt{At: start}, Condition: condition, Body: body}, nil
}

func (p *Parser) parseForeachStatement() (ast.Statement, error) {
	start := p.fullToken(0).First
	if err := p.expect(token.FOREACH); err != nil {
		return nil, err
	}
	itemName, err := p.consumeIdent()
	if err != nil {
		return nil, err
	}
	if err := p.expect(token.IN); err != nil {
		return nil, err
	}
	iterable, err := p.ParseExpr()
	if err != nil {
		return nil, err
	}
	body, err := p.parseStatementsInCurlyBlock()
	if err != nil {
		return nil, err
	}
	return ast.Foreach{StmtAt: ast.StmtAt{At: start}, ItemName: itemName, Iterable: iterable, Body: body}, nil
}

// parseVarDeclarationContinuation finishes a statement whose head parsed as
// a type: either `Type name;` or `Type name = expr;`.
func (p *Parser) parseVarDeclarationContinuation(declType types.Type, start int) (ast.Statement, error) {
	varname, err := p.consumeIdent()
	if err != nil {
		return nil, err
	}
	if p.consumeIfMatches(token.SEMICOLON) {
		return ast.VarDecl{StmtAt: ast.StmtAt{At: start}, Type: declType, Name: varname}, nil
	}
	if p.consumeIfMatches(token.ASSIGN) {
		value, err := p.ParseExpr()
		if err != nil {
			return nil, err
		}
		if err := p.expect(token.SEMICOLON); err != nil {
			return nil, err
		}
		return ast.VarDeclAssign{StmtAt: ast.StmtAt{At: start}, Type: declType, Name: varname, Value: value}, nil
	}
	return nil, p.fail("expected assignment or semicolon to finish declaration")
}

// ParseStatement parses a single statement. Variable declarations are
// detected by successfully parsing a type; on failure the cursor rewinds
// and an expression-led statement (expression, assignment or send) is tried.
func (p *Parser) ParseStatement() (ast.Statement, error) {
	start := p.fullToken(0).First

	switch p.relKind(0) {
	case token.BREAK:
		p.consume()
		if err := p.expect(token.SEMICOLON); err != nil {
			return nil, err
		}
		return ast.Break{StmtAt: ast.StmtAt{At: start}}, nil
	case token.CONTINUE:
		p.consume()
		if err := p.expect(token.SEMICOLON); err != nil {
			return nil, err
		}
		return ast.Continue{StmtAt: ast.StmtAt{At: start}}, nil
	case token.IF:
		return p.parseIfElseStatement()
	case token.WHILE:
		return p.parseWhileStatement()
	case token.FOREACH:
		return p.parseForeachStatement()
	case token.RETURN:
		p.consume()
		if p.consumeIfMatches(token.SEMICOLON) {
			return ast.Return{StmtAt: ast.StmtAt{At: start}}, nil
		}
		value, err := p.ParseExpr()
		if err != nil {
			return nil, err
		}
		if err := p.expect(token.SEMICOLON); err != nil {
			return nil, err
		}
		return ast.Return{StmtAt: ast.StmtAt{At: start}, Value: value}, nil
	}

	// First, try to consume a type to see if this is a declaration. If the
	// type parses, this must be some kind of variable declaration.
	checkpoint := p.position
	if declType, err := p.ParseType(); err == nil {
		return p.parseVarDeclarationContinuation(declType, start)
	}

	// Not a declaration: rewind and fall back to expression-led statements.
	p.position = checkpoint

	expr, err := p.ParseExpr()
	if err != nil {
		return nil, err
	}

	if p.consumeIfMatches(token.SEMICOLON) {
		return ast.ExprStatement{StmtAt: ast.StmtAt{At: start}, Inner: expr}, nil
	}
	if p.consumeIfMatches(token.ASSIGN) {
		value, err := p.ParseExpr()
		if err != nil {
			return nil, err
		}
		if err := p.expect(token.SEMICOLON); err != nil {
			return nil, err
		}
		return ast.Assign{StmtAt: ast.StmtAt{At: start}, Left: expr, Right: value}, nil
	}
	if p.consumeIfMatches(token.BANG) {
		method, err := p.consumeIdent()
		if err != nil {
			return nil, err
		}
		args, err := p.parseFunctionCallArgs()
		if err != nil {
			return nil, err
		}
		if err := p.expect(token.SEMICOLON); err != nil {
			return nil, err
		}
		return ast.SendMessage{StmtAt: ast.StmtAt{At: start}, Active: expr, Method: method, Args: args}, nil
	}

	return nil, Error{At: p.fullToken(0), Message: "expression abruptly ended", Expected: token.SEMICOLON}
}

func binOpFromToken(kind token.Kind) ast.BinaryOp {
	switch kind {
	case token.ADD:
		return ast.OpPlus
	case token.SUB:
		return ast.OpMinus
	case token.MULT:
		return ast.OpMultiply
	case token.DIV:
		return ast.OpDivide
	case token.LARGER:
		return ast.OpGreater
	case token.LARGER_EQUAL:
		return ast.OpGreaterEqual
	case token.LESS:
		return ast.OpLess
	case token.LESS_EQUAL:
		return ast.OpLessEqual
	case token.EQUAL_EQUAL:
		return ast.OpIsEqual
	case token.NOT_EQUAL:
		return ast.OpIsNotEqual
	case token.AND:
		return ast.OpAnd
	case token.OR:
		return ast.OpOr
	}
	panic("not a binary operator token: " + string(kind))
}

// ParseExpr parses a full expression, starting at the lowest-precedence
// level (the maybe operators).
func (p *Parser) ParseExpr() (ast.Expr, error) {
	return p.parseMaybeOperators()
}

// parseMaybeOperators handles `?:` (elvis) and `?.` (maybe-method call).
func (p *Parser) parseMaybeOperators() (ast.Expr, error) {
	start := p.position
	result, err := p.parseOr()
	if err != nil {
		return nil, err
	}

	for p.consumeIfMatches(token.QUESTION_ELVIS, token.QUESTION_DOT) {
		if p.relKind(-1) == token.QUESTION_ELVIS {
			right, err := p.parseOr()
			if err != nil {
				return nil, err
			}
			result = ast.BinaryExpr{Span: p.spanToHere(start), Op: ast.OpElvis, Left: result, Right: right}
		} else {
			method, err := p.consumeIdent()
			if err != nil {
				return nil, err
			}
			args, err := p.parseFunctionCallArgs()
			if err != nil {
				return nil, err
			}
			result = ast.MaybeMethodCall{Span: p.spanToHere(start), Object: result, Method: method, Args: args}
		}
	}
	return result, nil
}

// parseBinaryLevel builds one left-associative precedence level.
func (p *Parser) parseBinaryLevel(next func() (ast.Expr, error), kinds ...token.Kind) (ast.Expr, error) {
	start := p.position
	result, err := next()
	if err != nil {
		return nil, err
	}
	for p.consumeIfMatches(kinds...) {
		op := binOpFromToken(p.relKind(-1))
		right, err := next()
		if err != nil {
			return nil, err
		}
		result = ast.BinaryExpr{Span: p.spanToHere(start), Op: op, Left: result, Right: right}
	}
	return result, nil
}

func (p *Parser) parseOr() (ast.Expr, error) {
	return p.parseBinaryLevel(p.parseAnd, token.OR)
}

func (p *Parser) parseAnd() (ast.Expr, error) {
	return p.parseBinaryLevel(p.parseEquality, token.AND)
}

func (p *Parser) parseEquality() (ast.Expr, error) {
	return p.parseBinaryLevel(p.parseComparison, token.EQUAL_EQUAL, token.NOT_EQUAL)
}

func (p *Parser) parseComparison() (ast.Expr, error) {
	return p.parseBinaryLevel(p.parsePlusMinus, token.LARGER, token.LARGER_EQUAL, token.LESS, token.LESS_EQUAL)
}

func (p *Parser) parsePlusMinus() (ast.Expr, error) {
	return p.parseBinaryLevel(p.parseMulDiv, token.ADD, token.SUB)
}

func (p *Parser) parseMulDiv() (ast.Expr, error) {
	return p.parseBinaryLevel(p.parseUnary, token.MULT, token.DIV)
}

func (p *Parser) parseUnary() (ast.Expr, error) {
	start := p.position
	if p.consumeIfMatches(token.SUB, token.NOT) {
		op := ast.OpNegate
		if p.relKind(-1) == token.NOT {
			op = ast.OpNot
		}
		operand, err := p.parseMethodOrFieldAccess()
		if err != nil {
			return nil, err
		}
		return ast.UnaryExpr{Span: p.spanToHere(start), Op: op, Operand: operand}, nil
	}
	return p.parseMethodOrFieldAccess()
}

// parseFunctionCallArgs consumes a parenthesized argument list, both
// parentheses included. A trailing comma is allowed.
func (p *Parser) parseFunctionCallArgs() ([]ast.Expr, error) {
	if p.check(0, token.LPA) && p.check(1, token.RPA) {
		p.consume()
		p.consume()
		return []ast.Expr{}, nil
	}

	if err := p.expect(token.LPA); err != nil {
		return nil, err
	}
	first, err := p.ParseExpr()
	if err != nil {
		return nil, err
	}
	args := []ast.Expr{first}

	for p.consumeIfMatches(token.COMMA) {
		if p.check(0, token.RPA) {
			break
		}
		arg, err := p.ParseExpr()
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
	}
	if err := p.expect(token.RPA); err != nil {
		return nil, err
	}
	return args, nil
}

// parseMethodOrFieldAccess parses the postfix chain: `.field`,
// `.method(args)`, `[index]` and `name(args)` calls. Chained calls like
// `f()()` are rejected, as the language has no first-class functions.
func (p *Parser) parseMethodOrFieldAccess() (ast.Expr, error) {
	start := p.position
	result, err := p.parseExprPrimary()
	if err != nil {
		return nil, err
	}

	for p.consumeIfMatches(token.DOT, token.LSQB, token.LPA) {
		switch p.relKind(-1) {
		case token.DOT:
			fieldOrMethod, err := p.consumeIdent()
			if err != nil {
				return nil, err
			}
			if p.check(0, token.LPA) {
				args, err := p.parseFunctionCallArgs()
				if err != nil {
					return nil, err
				}
				result = ast.MethodCall{Span: p.spanToHere(start), Object: result, Method: fieldOrMethod, Args: args}
			} else {
				result = ast.FieldAccess{Span: p.spanToHere(start), Object: result, Field: fieldOrMethod}
			}
		case token.LSQB:
			index, err := p.ParseExpr()
			if err != nil {
				return nil, err
			}
			if err := p.expect(token.RSQB); err != nil {
				return nil, err
			}
			result = ast.ListAccess{Span: p.spanToHere(start), List: result, Index: index}
		default:
			// A call: identifiers make plain function calls, `@name` makes
			// an own-method call; anything else cannot be called.
			var called string
			isOwnMethod := false
			switch base := result.(type) {
			case ast.Identifier:
				called = base.Name
			case ast.OwnFieldAccess:
				called = base.Field
				isOwnMethod = true
			default:
				return nil, p.fail("function call of non-function expression")
			}

			// The loop condition consumed the left parenthesis, but
			// parseFunctionCallArgs wants to see it; step back.
			p.position--
			args, err := p.parseFunctionCallArgs()
			if err != nil {
				return nil, err
			}

			if p.check(0, token.LPA) {
				return nil, p.fail("no first-class functions, chained func calls disallowed")
			}

			if isOwnMethod {
				result = ast.OwnMethodCall{Span: p.spanToHere(start), Method: called, Args: args}
			} else {
				result = ast.FunctionCall{Span: p.spanToHere(start), Function: called, Args: args}
			}
		}
	}
	return result, nil
}

// parseGroupOrTuple handles a parenthesized expression, which is either a
// grouping or a tuple literal; a trailing comma is allowed and a singleton
// collapses to the inner expression.
func (p *Parser) parseGroupOrTuple() (ast.Expr, error) {
	start := p.position
	if err := p.expect(token.LPA); err != nil {
		return nil, err
	}
	result, err := p.ParseExpr()
	if err != nil {
		return nil, err
	}

	if p.check(0, token.COMMA) {
		items := []ast.Expr{result}
		for p.consumeIfMatches(token.COMMA) {
			if p.check(0, token.RPA) {
				break
			}
			item, err := p.ParseExpr()
			if err != nil {
				return nil, err
			}
			items = append(items, item)
		}
		if len(items) > 1 {
			// span includes the right parenthesis consumed just below
			result = ast.TupleValue{Span: p.span(start, p.position), Items: items}
		}
	}

	if err := p.expect(token.RPA); err != nil {
		return nil, err
	}
	return result, nil
}

func (p *Parser) parseListLiteral() (ast.Expr, error) {
	start := p.position
	if err := p.expect(token.LSQB); err != nil {
		return nil, err
	}
	items := []ast.Expr{}
	for !p.check(0, token.RSQB) {
		item, err := p.ParseExpr()
		if err != nil {
			return nil, err
		}
		items = append(items, item)
		p.consumeIfMatches(token.COMMA)
	}
	if err := p.expect(token.RSQB); err != nil {
		return nil, err
	}
	return ast.ListValue{Span: p.spanToHere(start), Items: items}, nil
}

func (p *Parser) parseNewClassInstance() (ast.Expr, error) {
	start := p.position
	typename, err := p.consumeTypeIdent()
	if err != nil {
		return nil, err
	}
	args, err := p.parseFunctionCallArgs()
	if err != nil {
		return nil, err
	}
	return ast.NewClassInstance{Span: p.spanToHere(start), Typename: typename, Args: args}, nil
}

func (p *Parser) parseSpawnActive() (ast.Expr, error) {
	start := p.position
	if err := p.expect(token.SPAWN); err != nil {
		return nil, err
	}
	typename, err := p.consumeTypeIdent()
	if err != nil {
		return nil, err
	}
	args, err := p.parseFunctionCallArgs()
	if err != nil {
		return nil, err
	}
	return ast.SpawnActive{Span: p.spanToHere(start), Typename: typename, Args: args}, nil
}

func (p *Parser) parseExprPrimary() (ast.Expr, error) {
	start := p.position
	tok := p.fullToken(0)

	var expr ast.Expr
	switch tok.Kind {
	case token.THIS:
		expr = ast.This{}
	case token.FLOAT:
		expr = ast.FloatLiteral{Value: tok.Float}
	case token.INT:
		expr = ast.IntLiteral{Value: tok.Int}
	case token.STRING:
		expr = ast.StringLiteral{Value: tok.Lexeme}
	case token.NIL:
		expr = ast.NilLiteral{}
	case token.TRUE:
		expr = ast.BoolLiteral{Value: true}
	case token.FALSE:
		expr = ast.BoolLiteral{Value: false}
	case token.IDENTIFIER:
		expr = ast.Identifier{Name: tok.Lexeme}
	case token.OWN_IDENTIFIER:
		expr = ast.OwnFieldAccess{Field: tok.Lexeme}
	case token.LPA:
		return p.parseGroupOrTuple()
	case token.LSQB:
		return p.parseListLiteral()
	case token.TYPE_IDENTIFIER:
		return p.parseNewClassInstance()
	case token.SPAWN:
		return p.parseSpawnActive()
	default:
		return nil, p.fail("can't parse expression")
	}

	p.consume()
	return withSpan(expr, p.spanToHere(start)), nil
}

// withSpan stamps the byte range onto a primary expression variant.
func withSpan(expr ast.Expr, span ast.Span) ast.Expr {
	switch e := expr.(type) {
	case ast.This:
		e.Span = span
		return e
	case ast.FloatLiteral:
		e.Span = span
		return e
	case ast.IntLiteral:
		e.Span = span
		return e
	case ast.StringLiteral:
		e.Span = span
		return e
	case ast.NilLiteral:
		e.Span = span
		return e
	case ast.BoolLiteral:
		e.Span = span
		return e
	case ast.Identifier:
		e.Span = span
		return e
	case ast.OwnFieldAccess:
		e.Span = span
		return e
	}
	return expr
}
