// Package ast defines the typed abstract syntax tree produced by the
// parser: a Program with three optional top-level blocks and nested
// statement/expression sum types.
package ast

// Position is a node's location in the original source, used both for
// diagnostics and for the "location points into the original source"
// invariant tests exercise.
type Position struct {
	Line   int
	Column int
}

// Node is implemented by every AST node.
type Node interface {
	Pos() Position
	node()
}

// Program is the root of an AST: each top-level block is optional and each
// may appear at most once, in any order, in the source.
type Program struct {
	Config   *Config
	Services *Services
	Workflow *Workflow
	Position Position
}

func (p *Program) Pos() Position { return p.Position }
func (*Program) node()           {}

// Config is the `config:` block: an ordered list of key/value entries.
type Config struct {
	Entries  []*ConfigEntry
	Position Position
}

func (c *Config) Pos() Position { return c.Position }
func (*Config) node()           {}

// ConfigEntry is one `key: value` line inside a config block.
type ConfigEntry struct {
	Key      string
	Value    string // string, number, or free-form text such as "5 minutes"
	Position Position
}

func (e *ConfigEntry) Pos() Position { return e.Position }
func (*ConfigEntry) node()           {}

// ServiceKind is the declared shape of a service.
type ServiceKind int

const (
	ServiceAPI ServiceKind = iota
	ServiceAI
	ServicePlugin
	ServiceWebhook
)

func (k ServiceKind) String() string {
	switch k {
	case ServiceAPI:
		return "api"
	case ServiceAI:
		return "ai"
	case ServicePlugin:
		return "plugin"
	case ServiceWebhook:
		return "webhook"
	default:
		return "unknown"
	}
}

// Services is the `services:` block: an ordered list of declarations.
type Services struct {
	Declarations []*ServiceDecl
	Position     Position
}

func (s *Services) Pos() Position { return s.Position }
func (*Services) node()           {}

// ServiceDecl is one service declaration, e.g. `Api is an API at "..."`.
type ServiceDecl struct {
	Name     string
	Kind     ServiceKind
	Target   string // URL, model name, or plugin id depending on Kind
	Headers  []*Header
	Position Position
}

func (s *ServiceDecl) Pos() Position { return s.Position }
func (*ServiceDecl) node()           {}

// Header is one `Header-Name: "<value>"` line under a service's
// `with headers:` block. Value may itself be an interpolated string.
type Header struct {
	Name     string
	Value    Expr
	Position Position
}

func (h *Header) Pos() Position { return h.Position }
func (*Header) node()           {}

// Workflow is the `workflow:` block.
type Workflow struct {
	Trigger    string // free text following `trigger:`, empty if absent
	Statements []Stmt
	Position   Position
}

func (w *Workflow) Pos() Position { return w.Position }
func (*Workflow) node()           {}

// Stmt is implemented by every statement node.
type Stmt interface {
	Node
	stmtNode()
}

// Expr is implemented by every expression node.
type Expr interface {
	Node
	exprNode()
}
