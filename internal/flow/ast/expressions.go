package ast

// StringLiteral is a plain (non-interpolated) string.
type StringLiteral struct {
	Value    string
	Position Position
}

func (e *StringLiteral) Pos() Position { return e.Position }
func (*StringLiteral) node()           {}
func (*StringLiteral) exprNode()       {}

// NumberLiteral is an integer or decimal literal.
type NumberLiteral struct {
	Value    float64
	Position Position
}

func (e *NumberLiteral) Pos() Position { return e.Position }
func (*NumberLiteral) node()           {}
func (*NumberLiteral) exprNode()       {}

// BooleanLiteral is `true` or `false`.
type BooleanLiteral struct {
	Value    bool
	Position Position
}

func (e *BooleanLiteral) Pos() Position { return e.Position }
func (*BooleanLiteral) node()           {}
func (*BooleanLiteral) exprNode()       {}

// Identifier is a bare name reference, resolved by scope lookup.
type Identifier struct {
	Name     string
	Position Position
}

func (e *Identifier) Pos() Position { return e.Position }
func (*Identifier) node()           {}
func (*Identifier) exprNode()       {}

// DotAccess is postfix `.` field access, applicable to any depth.
type DotAccess struct {
	Object   Expr
	Property string
	Position Position
}

func (e *DotAccess) Pos() Position { return e.Position }
func (*DotAccess) node()           {}
func (*DotAccess) exprNode()       {}

// InterpolationPart is one element of an InterpolatedString: either a
// literal text chunk (Expr is nil) or an embedded expression (Text is
// unused).
type InterpolationPart struct {
	Text string
	Expr Expr
}

// InterpolatedString is a string literal containing one or more `{expr}`
// interpolations.
type InterpolatedString struct {
	Parts    []InterpolationPart
	Position Position
}

func (e *InterpolatedString) Pos() Position { return e.Position }
func (*InterpolatedString) node()           {}
func (*InterpolatedString) exprNode()       {}

// MathOp identifies a MathExpression's operator.
type MathOp int

const (
	Add MathOp = iota
	Subtract
	Multiply
	DivideBy
	RoundedTo
)

// MathExpression is a left-associative arithmetic operation.
type MathExpression struct {
	Left     Expr
	Op       MathOp
	Right    Expr
	Position Position
}

func (e *MathExpression) Pos() Position { return e.Position }
func (*MathExpression) node()           {}
func (*MathExpression) exprNode()       {}

// CompareOp identifies a ComparisonExpression's operator. The unary
// operators (IsEmpty, IsNotEmpty, Exists, DoesNotExist) leave Right nil.
type CompareOp int

const (
	Is CompareOp = iota
	IsNot
	IsAbove
	IsBelow
	IsAtLeast
	IsAtMost
	Contains
	IsEmptyOp
	IsNotEmptyOp
	ExistsOp
	DoesNotExistOp
)

// ComparisonExpression compares Left against Right (absent for the unary
// empty/exists family).
type ComparisonExpression struct {
	Left     Expr
	Op       CompareOp
	Right    Expr // nil for unary operators
	Position Position
}

func (e *ComparisonExpression) Pos() Position { return e.Position }
func (*ComparisonExpression) node()           {}
func (*ComparisonExpression) exprNode()       {}

// LogicalOp identifies a LogicalExpression's operator.
type LogicalOp int

const (
	LogicalAnd LogicalOp = iota
	LogicalOr
)

// LogicalExpression is short-circuit `and`/`or`.
type LogicalExpression struct {
	Left     Expr
	Op       LogicalOp
	Right    Expr
	Position Position
}

func (e *LogicalExpression) Pos() Position { return e.Position }
func (*LogicalExpression) node()           {}
func (*LogicalExpression) exprNode()       {}
