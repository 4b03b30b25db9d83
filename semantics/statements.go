package semantics

import (
	"sort"

	"frisbee/ast"
	"frisbee/loader"
	"frisbee/symbols"
	"frisbee/types"
)

// StatementsVerifier lowers the parsed statements of one function into
// typed IR, tracking scoped locals and flow-sensitive insights on the way.
type StatementsVerifier struct {
	fn        *RawFunction
	aggregate *ProgramAggregate
	resolver  *NameResolver
	locals    *LocalVariables

	tempCounter int
	blocks      [][]VStatement
}

func newStatementsVerifier(
	fn *RawFunction,
	aggregate *ProgramAggregate,
	resolver *NameResolver,
	locals *LocalVariables,
) *StatementsVerifier {
	return &StatementsVerifier{fn: fn, aggregate: aggregate, resolver: resolver, locals: locals}
}

func (s *StatementsVerifier) emit(stmt VStatement) {
	top := len(s.blocks) - 1
	s.blocks[top] = append(s.blocks[top], stmt)
}

func (s *StatementsVerifier) annotateType(t types.Type, stmt ast.Statement) (types.Type, error) {
	typeResolver := s.resolver.TypenamesResolver(s.fn.DefinedAt)
	mapper := func(name string) (string, error) {
		qualified, err := typeResolver(name)
		return string(qualified), err
	}
	verified, err := types.VerifyParsed(t, mapper)
	if err != nil {
		return types.Type{}, stmtError(stmt, "%v", err)
	}
	return verified, nil
}

// checkExpr verifies one expression, materializing any temporaries the
// maybe operators required as assignments in front of the current
// statement.
func (s *StatementsVerifier) checkExpr(
	expr ast.Expr,
	expected *types.Type,
	insights *Insights,
) (VExprTyped, error) {
	verifier := &ExpressionsVerifier{
		fn:           s.fn,
		aggregate:    s.aggregate,
		locals:       s.locals,
		insights:     insights,
		typeResolver: s.resolver.TypenamesResolver(s.fn.DefinedAt),
		funcResolver: s.resolver.FunctionsResolver(s.fn.DefinedAt),
		tempCounter:  &s.tempCounter,
	}
	calculated, err := verifier.Calculate(expr, expected)
	if err != nil {
		return VExprTyped{}, err
	}
	for _, temp := range verifier.requiredTemps {
		s.emit(VAssignLocal{Name: temp.name, Value: temp.value})
	}
	return calculated, nil
}

// generateBlock verifies a statement list inside its own scope. After an
// unconditional break/continue the remaining statements are verified
// against a cloned insights copy so "initialized" facts stop propagating.
func (s *StatementsVerifier) generateBlock(statements []ast.Statement, insights *Insights) ([]VStatement, error) {
	s.blocks = append(s.blocks, nil)
	s.locals.StartScope()

	var afterJump *Insights
	for _, statement := range statements {
		if insights.BreakOrContinueFound && afterJump == nil {
			afterJump = insights.Clone()
		}
		target := insights
		if afterJump != nil {
			target = afterJump
		}
		if err := s.generateSingle(statement, target); err != nil {
			return nil, err
		}
	}

	s.locals.DropScope()
	top := len(s.blocks) - 1
	block := s.blocks[top]
	s.blocks = s.blocks[:top]
	return block, nil
}

// generateIfElifElse desugars an elif chain into nested IfElse and merges
// the branch insights at the join point.
func (s *StatementsVerifier) generateIfElifElse(
	condition ast.Expr,
	ifBody []ast.Statement,
	elifs []ast.ElifBranch,
	elseBody []ast.Statement,
	insights *Insights,
) (VStatement, error) {
	boolType := types.Bool
	verifiedCondition, err := s.checkExpr(condition, &boolType, insights)
	if err != nil {
		return nil, err
	}

	ifInsights := insights.Clone()
	verifiedIf, err := s.generateBlock(ifBody, ifInsights)
	if err != nil {
		return nil, err
	}

	var verifiedElse []VStatement
	if len(elifs) == 0 {
		verifiedElse, err = s.generateBlock(elseBody, insights)
		if err != nil {
			return nil, err
		}
	} else {
		nested, err := s.generateIfElifElse(elifs[0].Condition, elifs[0].Body, elifs[1:], elseBody, insights)
		if err != nil {
			return nil, err
		}
		verifiedElse = []VStatement{nested}
	}

	insights.MergeWith(ifInsights)
	return VIfElse{Condition: verifiedCondition, IfBody: verifiedIf, ElseBody: verifiedElse}, nil
}

// splitAssignmentTarget peels AccessTupleItem wrappers off the verified
// left-hand side, leaving the base target plus the tuple index path.
func splitAssignmentTarget(target VExprTyped) (VExprTyped, []int) {
	if access, isTupleItem := target.Expr.(VAccessTupleItem); isTupleItem {
		base, indexes := splitAssignmentTarget(*access.Tuple)
		return base, append(indexes, access.Index)
	}
	return target, nil
}

func (s *StatementsVerifier) generateAssign(statement ast.Assign, insights *Insights) error {
	// The left-hand side is verified with the target name pre-marked as
	// initialized, so that the very assignment making it initialized does
	// not trip the uninitialized-read check.
	leftInsights := insights
	switch left := statement.Left.(type) {
	case ast.Identifier:
		if _, realName, err := s.locals.GetVariable(left.Name); err == nil {
			leftInsights = insights.Clone()
			leftInsights.MarkAsInitialized(realName)
		}
	case ast.OwnFieldAccess:
		leftInsights = insights.Clone()
		leftInsights.MarkOwnFieldAsInitialized(left.Field)
	}

	verifiedLeft, err := s.checkExpr(statement.Left, nil, leftInsights)
	if err != nil {
		return err
	}
	verifiedRight, err := s.checkExpr(statement.Right, &verifiedLeft.Type, insights)
	if err != nil {
		return err
	}

	base, tupleIndexes := splitAssignmentTarget(verifiedLeft)
	switch target := base.Expr.(type) {
	case VGetVar:
		if len(tupleIndexes) == 0 {
			insights.MarkAsInitialized(target.Name)
		}
		s.emit(VAssignLocal{Name: target.Name, TupleIndexes: tupleIndexes, Value: verifiedRight})
	case VAccessField:
		if len(tupleIndexes) == 0 {
			if getVar, isVar := target.Object.Expr.(VGetVar); isVar && getVar.Name == "this" {
				insights.MarkOwnFieldAsInitialized(target.Field)
			}
		}
		s.emit(VAssignToField{
			Object:       *target.Object,
			Field:        target.Field,
			TupleIndexes: tupleIndexes,
			Value:        verifiedRight,
		})
	case VCurrentActiveField:
		if len(tupleIndexes) == 0 {
			insights.MarkOwnFieldAsInitialized(target.Field)
		}
		active := VExprTyped{
			Expr: VCurrentActive{},
			Type: types.CustomOf(string(target.ActiveType)),
		}
		s.emit(VAssignToField{
			Object:       active,
			Field:        target.Field,
			TupleIndexes: tupleIndexes,
			Value:        verifiedRight,
		})
	case VAccessListItem:
		s.emit(VAssignToList{
			List:         *target.List,
			Index:        *target.Index,
			TupleIndexes: tupleIndexes,
			Value:        verifiedRight,
		})
	default:
		return stmtError(statement, "assigning to temporary value is not allowed")
	}
	return nil
}

func (s *StatementsVerifier) generateForeach(statement ast.Foreach, insights *Insights) error {
	iterable, err := s.checkExpr(statement.Iterable, nil, insights)
	if err != nil {
		return err
	}
	if iterable.Type.Kind != types.KindList {
		return exprError(statement.Iterable, "list is required in foreach, got %s", iterable.Type)
	}
	itemType := *iterable.Type.Inner

	// Muffled helper names carry an `@`, so user variables cannot collide.
	s.locals.StartScope()
	defer s.locals.DropScope()

	itemName, err := s.locals.AddVariable(statement.ItemName, itemType)
	if err != nil {
		return stmtError(statement, "%v", err)
	}
	indexName, err := s.locals.AddVariable(statement.ItemName+"@index", types.Int)
	if err != nil {
		return stmtError(statement, "%v", err)
	}
	iterableName, err := s.locals.AddVariable(statement.ItemName+"@iterable", iterable.Type)
	if err != nil {
		return stmtError(statement, "%v", err)
	}

	getIndex := func() VExprTyped {
		return VExprTyped{Expr: VGetVar{Name: indexName}, Type: types.Int}
	}
	getIterable := func() VExprTyped {
		return VExprTyped{Expr: VGetVar{Name: iterableName}, Type: iterable.Type}
	}
	intOf := func(i int64) VExprTyped {
		return VExprTyped{Expr: VInt{Value: i}, Type: types.Int}
	}

	s.emit(VAssignLocal{Name: indexName, Value: intOf(0)})
	s.emit(VAssignLocal{Name: iterableName, Value: iterable})

	length := VExprTyped{
		Expr: VCallFunction{
			Name:       symbols.NewStdMethod(iterable.Type, "len"),
			ReturnType: types.Int,
			Args:       []VExprTyped{getIterable()},
		},
		Type: types.Int,
	}
	condition := VExprTyped{
		Expr: VApplyOp{Operator: LessInts, Operands: []VExprTyped{getIndex(), length}},
		Type: types.Bool,
	}

	setItem := VAssignLocal{
		Name: itemName,
		Value: VExprTyped{
			Expr: VAccessListItem{List: ptrOf(getIterable()), Index: ptrOf(getIndex())},
			Type: itemType,
		},
	}
	increaseIndex := VAssignLocal{
		Name: indexName,
		Value: VExprTyped{
			Expr: VApplyOp{Operator: AddInts, Operands: []VExprTyped{getIndex(), intOf(1)}},
			Type: types.Int,
		},
	}

	loopInsights := insights.Clone()
	loopInsights.IsInLoop = true
	body, err := s.generateBlock(statement.Body, loopInsights)
	if err != nil {
		return err
	}

	body = append([]VStatement{setItem, increaseIndex}, body...)
	s.emit(VWhile{Condition: condition, Body: body})
	return nil
}

func ptrOf(e VExprTyped) *VExprTyped {
	return &e
}

func (s *StatementsVerifier) generateSendMessage(statement ast.SendMessage, insights *Insights) error {
	active, err := s.checkExpr(statement.Active, nil, insights)
	if err != nil {
		return err
	}
	if active.Type.Kind != types.KindCustom {
		return stmtError(statement, "`!` send requires an active object (got `%s`)", active.Type)
	}
	typeSymbol := symbols.SymbolType(active.Type.Name)
	if !s.aggregate.Types[typeSymbol].IsActive {
		return stmtError(statement, "`!` send requires an active object, but %s is passive", typeSymbol)
	}

	method, ok := s.aggregate.Functions[typeSymbol.Method(statement.Method)]
	if !ok {
		return stmtError(statement, "no method `%s` in type %s", statement.Method, typeSymbol)
	}
	if method.IsConstructor {
		return stmtError(statement, "constructor can't be sent as a message")
	}

	if len(statement.Args) != method.Args.Len() {
		return stmtError(statement, "method `%s` expects %d arguments, but %d given",
			statement.Method, method.Args.Len(), len(statement.Args))
	}
	args := make([]VExprTyped, 0, len(statement.Args))
	for i, arg := range statement.Args {
		expected := method.Args.Types()[i]
		calculated, err := s.checkExpr(arg, &expected, insights)
		if err != nil {
			return err
		}
		args = append(args, calculated)
	}

	s.emit(VSendMessage{Active: active, Method: method.Name, Args: args})
	return nil
}

func (s *StatementsVerifier) generateSingle(statement ast.Statement, insights *Insights) error {
	switch stmt := statement.(type) {
	case ast.ExprStatement:
		expr, err := s.checkExpr(stmt.Inner, nil, insights)
		if err != nil {
			return err
		}
		s.emit(VExpression{Inner: expr})

	case ast.VarDecl:
		varType, err := s.annotateType(stmt.Type, stmt)
		if err != nil {
			return err
		}
		realName, err := s.locals.AddVariable(stmt.Name, varType)
		if err != nil {
			return stmtError(stmt, "%v", err)
		}
		insights.AddUninitialized(realName)

	case ast.VarDeclAssign:
		varType, err := s.annotateType(stmt.Type, stmt)
		if err != nil {
			return err
		}
		value, err := s.checkExpr(stmt.Value, &varType, insights)
		if err != nil {
			return err
		}
		realName, err := s.locals.AddVariable(stmt.Name, varType)
		if err != nil {
			return stmtError(stmt, "%v", err)
		}
		s.emit(VAssignLocal{Name: realName, Value: value})

	case ast.Assign:
		return s.generateAssign(stmt, insights)

	case ast.Return:
		if s.fn.IsConstructor && stmt.Value != nil {
			return stmtError(stmt, "constructor must return void")
		}
		insights.ReturnFound = true

		var value VExprTyped
		switch {
		case s.fn.IsConstructor:
			value = s.constructorReturnValue()
		case stmt.Value == nil:
			if !s.fn.ReturnType.IsVoid() {
				return stmtError(stmt, "function `%s` must return a value of type `%s`",
					s.fn.ShortName, s.fn.ReturnType)
			}
			value = VExprTyped{Expr: VTupleValue{}, Type: types.Void()}
		default:
			var err error
			value, err = s.checkExpr(stmt.Value, &s.fn.ReturnType, insights)
			if err != nil {
				return err
			}
		}
		s.emit(VReturn{Value: value})

	case ast.Break:
		if !insights.IsInLoop {
			return stmtError(stmt, "`break` outside loop")
		}
		insights.BreakOrContinueFound = true
		s.emit(VBreak{})

	case ast.Continue:
		if !insights.IsInLoop {
			return stmtError(stmt, "`continue` outside loop")
		}
		insights.BreakOrContinueFound = true
		s.emit(VContinue{})

	case ast.IfElse:
		ifElse, err := s.generateIfElifElse(stmt.Condition, stmt.IfBody, stmt.Elifs, stmt.ElseBody, insights)
		if err != nil {
			return err
		}
		s.emit(ifElse)

	case ast.While:
		boolType := types.Bool
		condition, err := s.checkExpr(stmt.Condition, &boolType, insights)
		if err != nil {
			return err
		}
		// The loop may run zero times, so nothing verified inside becomes
		// newly initialized for the code after the loop.
		loopInsights := insights.Clone()
		loopInsights.IsInLoop = true
		body, err := s.generateBlock(stmt.Body, loopInsights)
		if err != nil {
			return err
		}
		s.emit(VWhile{Condition: condition, Body: body})

	case ast.Foreach:
		return s.generateForeach(stmt, insights)

	case ast.SendMessage:
		return s.generateSendMessage(stmt, insights)
	}
	return nil
}

// constructorReturnValue is `this` for passive constructors and the running
// active reference for active ones.
func (s *StatementsVerifier) constructorReturnValue() VExprTyped {
	classType := types.CustomOf(string(s.fn.MethodOf))
	if s.aggregate.Types[s.fn.MethodOf].IsActive {
		return VExprTyped{Expr: VCurrentActive{}, Type: classType}
	}
	return VExprTyped{Expr: VGetVar{Name: "this"}, Type: classType}
}

// VerifyRawFunction verifies and lowers one function body, filling its
// Body and Locals in the aggregate.
func VerifyRawFunction(
	parsed *ast.FunctionDecl,
	fnSymbol symbols.SymbolFunc,
	aggregate *ProgramAggregate,
	resolver *NameResolver,
) error {
	fn := aggregate.Functions[fnSymbol]
	locals := NewLocalVariables(&fn.Args)

	isActiveConstructor := false
	if fn.IsConstructor {
		if aggregate.Types[fn.MethodOf].IsActive {
			isActiveConstructor = true
		} else {
			// `this` acts as an ordinary local the implicit allocation
			// assigns before any user statement runs.
			if _, err := locals.AddVariable("this", fn.ReturnType); err != nil {
				return Error{Message: err.Error(), At: parsed.At}
			}
		}
	}

	verifier := newStatementsVerifier(fn, aggregate, resolver, locals)
	insights := NewInsights()

	body, err := verifier.generateBlock(parsed.Statements, insights)
	if err != nil {
		if semErr, ok := err.(Error); ok {
			return semErr
		}
		return err
	}

	if !insights.ReturnFound {
		// A terminal return is a must to unwind the frame, so add the
		// implicit one where the language allows it or fail otherwise.
		switch {
		case fn.IsConstructor:
			body = append(body, VReturn{Value: verifier.constructorReturnValue()})
		case fn.ReturnType.IsVoid():
			body = append(body, VReturn{Value: VExprTyped{Expr: VTupleValue{}, Type: types.Void()}})
		case fn.MethodOf != "":
			return Error{
				Message: "method `" + fn.ShortName + "` of class `" + string(fn.MethodOf) + "` is not guaranteed to return a value",
				At:      parsed.At,
			}
		default:
			return Error{
				Message: "function `" + fn.ShortName + "` is not guaranteed to return a value",
				At:      parsed.At,
			}
		}
	}

	if fn.IsConstructor {
		classFields := &aggregate.Types[fn.MethodOf].Fields
		for _, field := range classFields.Names() {
			if !insights.IsOwnFieldInitialized(field) {
				return Error{
					Message: "constructor does not initialize field `" + field + "`",
					At:      parsed.At,
				}
			}
		}
		if !isActiveConstructor {
			allocate := VAssignLocal{
				Name: "this",
				Value: VExprTyped{
					Expr: VAllocate{Typename: fn.MethodOf},
					Type: types.CustomOf(string(fn.MethodOf)),
				},
			}
			body = append([]VStatement{allocate}, body...)
		}
	}

	fn.Body = body
	fn.Locals = locals.AllLocals()
	return nil
}

// Analyze runs the whole semantic pipeline over a loaded program: default
// constructors, name resolution, aggregation, then verification of every
// function body.
func Analyze(wp *loader.WholeProgram) (*ProgramAggregate, error) {
	AddDefaultConstructors(wp)

	resolver, err := NewNameResolver(wp)
	if err != nil {
		return nil, err
	}
	aggregate, err := CreateBasicAggregate(wp, resolver)
	if err != nil {
		return nil, err
	}
	parsedDecls, err := FillAggregateWithFuncs(wp, aggregate, resolver)
	if err != nil {
		return nil, err
	}

	names := make([]symbols.SymbolFunc, 0, len(parsedDecls))
	for name := range parsedDecls {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })

	for _, name := range names {
		if err := VerifyRawFunction(parsedDecls[name], name, aggregate, resolver); err != nil {
			if semErr, ok := err.(Error); ok {
				return nil, ErrorWithModule{Module: aggregate.Functions[name].DefinedAt, Err: semErr}
			}
			return nil, err
		}
	}
	return aggregate, nil
}
