package ast

var (
	_ Stmt = (*Block)(nil)
	_ Stmt = (*Return)(nil)
	_ Stmt = (*ExprStmt)(nil)
	_ Stmt = (*LocalVar)(nil)
	_ Stmt = (*If)(nil)
	_ Stmt = (*While)(nil)
	_ Stmt = (*DoLoop)(nil)
	_ Stmt = (*For)(nil)
	_ Stmt = (*ForEach)(nil)
	_ Stmt = (*Switch)(nil)
	_ Stmt = (*Case)(nil)
	_ Stmt = (*Try)(nil)
	_ Stmt = (*Catch)(nil)
	_ Stmt = (*Synchronized)(nil)
	_ Stmt = (*Throw)(nil)
	_ Stmt = (*ClassDecl)(nil)
)

// Block represents a block of statements enclosed in braces.
type Block struct {
	Range
	Stmts []Stmt
}

// Return is a return statement, X is nil for a bare return
type Return struct {
	Range
	X Expr
}

// ExprStmt represents an expression used as a statement.
type ExprStmt struct {
	Range
	X Expr
}

// LocalVar declares a local variable. A nil Type means the type is taken from Init.
type LocalVar struct {
	Range
	Type *TypeTree
	Name string
	Init Expr
}

type If struct {
	Range
	Cond Expr
	Then Stmt
	// Else may be nil
	Else Stmt
}

type While struct {
	Range
	Cond Expr
	Body Stmt
}

type DoLoop struct {
	Range
	Body Stmt
	Cond Expr
}

type For struct {
	Range
	Init []Stmt
	// Cond may be nil
	Cond Expr
	Step []Expr
	Body Stmt
}

type ForEach struct {
	Range
	Var      *LocalVar
	Iterable Expr
	Body     Stmt
}

type Switch struct {
	Range
	Selector Expr
	Cases    []*Case
}

// Case is one arm of a Switch. Label is nil for the default arm.
type Case struct {
	Range
	Label Expr
	Body  []Stmt
}

type Try struct {
	Range
	Body    *Block
	Catches []*Catch
	// Finally may be nil
	Finally *Block
}

type Catch struct {
	Range
	Param *LocalVar
	Body  *Block
}

type Synchronized struct {
	Range
	Lock Expr
	Body *Block
}

type Throw struct {
	Range
	X Expr
}

// ClassDecl declares a local class. Header and Members use the declaration
// syntax of types.ClassSource; members have no bodies.
type ClassDecl struct {
	Range
	Header  string
	Name    string
	Members []string
}

func (s *Block) stmtNode()        {}
func (s *Return) stmtNode()       {}
func (s *ExprStmt) stmtNode()     {}
func (s *LocalVar) stmtNode()     {}
func (s *If) stmtNode()           {}
func (s *While) stmtNode()        {}
func (s *DoLoop) stmtNode()       {}
func (s *For) stmtNode()          {}
func (s *ForEach) stmtNode()      {}
func (s *Switch) stmtNode()       {}
func (s *Case) stmtNode()         {}
func (s *Try) stmtNode()          {}
func (s *Catch) stmtNode()        {}
func (s *Synchronized) stmtNode() {}
func (s *Throw) stmtNode()        {}
func (s *ClassDecl) stmtNode()    {}

func (s *Block) Kind() Kind        { return KindBlock }
func (s *Return) Kind() Kind       { return KindReturn }
func (s *ExprStmt) Kind() Kind     { return KindExprStmt }
func (s *LocalVar) Kind() Kind     { return KindLocalVar }
func (s *If) Kind() Kind           { return KindIf }
func (s *While) Kind() Kind        { return KindWhile }
func (s *DoLoop) Kind() Kind       { return KindDoLoop }
func (s *For) Kind() Kind          { return KindFor }
func (s *ForEach) Kind() Kind      { return KindForEach }
func (s *Switch) Kind() Kind       { return KindSwitch }
func (s *Case) Kind() Kind         { return KindCase }
func (s *Try) Kind() Kind          { return KindTry }
func (s *Catch) Kind() Kind        { return KindCatch }
func (s *Synchronized) Kind() Kind { return KindSynchronized }
func (s *Throw) Kind() Kind        { return KindThrow }
func (s *ClassDecl) Kind() Kind    { return KindClassDecl }

func (s *Block) Hash() uint64    { return hashOf("Block", s.Range, stmtNodes(s.Stmts)...) }
func (s *Return) Hash() uint64   { return hashOf("Return", s.Range, s.X) }
func (s *ExprStmt) Hash() uint64 { return hashOf("ExprStmt", s.Range, s.X) }
func (s *LocalVar) Hash() uint64 {
	return hashOf("LocalVar", s.Range, s.Type, s.Init) ^ nameHash(s.Name)
}
func (s *If) Hash() uint64      { return hashOf("If", s.Range, s.Cond, s.Then, s.Else) }
func (s *While) Hash() uint64   { return hashOf("While", s.Range, s.Cond, s.Body) }
func (s *DoLoop) Hash() uint64  { return hashOf("DoLoop", s.Range, s.Body, s.Cond) }
func (s *For) Hash() uint64     { return hashOf("For", s.Range, s.Cond, s.Body) }
func (s *ForEach) Hash() uint64 { return hashOf("ForEach", s.Range, s.Var, s.Iterable, s.Body) }
func (s *Switch) Hash() uint64 {
	children := []Node{s.Selector}
	for _, c := range s.Cases {
		children = append(children, c)
	}
	return hashOf("Switch", s.Range, children...)
}
func (s *Case) Hash() uint64 {
	return hashOf("Case", s.Range, append([]Node{s.Label}, stmtNodes(s.Body)...)...)
}
func (s *Try) Hash() uint64 {
	children := []Node{s.Body, s.Finally}
	for _, c := range s.Catches {
		children = append(children, c)
	}
	return hashOf("Try", s.Range, children...)
}
func (s *Catch) Hash() uint64        { return hashOf("Catch", s.Range, s.Param, s.Body) }
func (s *Synchronized) Hash() uint64 { return hashOf("Synchronized", s.Range, s.Lock, s.Body) }
func (s *Throw) Hash() uint64        { return hashOf("Throw", s.Range, s.X) }
func (s *ClassDecl) Hash() uint64    { return hashOf("ClassDecl", s.Range) ^ nameHash(s.Header) }
