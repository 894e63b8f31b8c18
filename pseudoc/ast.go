package pseudoc

// Stmt is one parsed statement.
type Stmt interface {
	stmt()
}

// AssignStmt is `dest = expr;`.
type AssignStmt struct {
	Dest Ref
	Expr Expr
	Pos  Position
}

func (AssignStmt) stmt() {}

// DiscardStmt is `discard;`. It flags the graph; it does not fork
// dependency chains.
type DiscardStmt struct {
	Pos Position
}

func (DiscardStmt) stmt() {}

// BadStmt is a statement the parser could not classify. When the
// destination was readable before the parse failed, Dest is set so the
// lowerer can record an Unk write and keep later reads resolvable.
type BadStmt struct {
	Dest *Ref
	Pos  Position
}

func (BadStmt) stmt() {}

// Expr is one parsed expression.
type Expr interface {
	expr()
}

// NumberExpr is a float literal.
type NumberExpr struct {
	Value float32
}

func (NumberExpr) expr() {}

// Ref is an identifier with its access chain: an optional struct field,
// an optional array index, and an optional component swizzle.
// `cbMaterial.tint[2].xyz` has Name cbMaterial, Field tint, Index 2,
// Swizzle "xyz".
type Ref struct {
	Name    string
	Field   string
	Index   *int
	Swizzle string
}

func (Ref) expr() {}

// UnaryExpr is a prefix operator application ('-').
type UnaryExpr struct {
	Op      byte
	Operand Expr
}

func (UnaryExpr) expr() {}

// BinaryExpr is an infix operator application ('+', '-', '*', '/').
type BinaryExpr struct {
	Op    byte
	Left  Expr
	Right Expr
}

func (BinaryExpr) expr() {}

// CallExpr is a function call, optionally swizzled (`texture(s0, uv).x`).
type CallExpr struct {
	Name    string
	Args    []Expr
	Swizzle string
	Pos     Position
}

func (CallExpr) expr() {}
