// Package decls builds the declaration forest and call list of a single Swift
// file from its tree-sitter syntax tree.
//
// The walk is a single depth-first pass. Containers (types and extensions) are
// pushed on a scope stack when entered and attached to their parent when left,
// so members always land under the innermost open container. Everything the
// walk does not recognize is descended into, never rejected.
package decls

import (
	"context"
	"regexp"
	"strings"

	"github.com/classcleaner/classcleaner/pkg/models"
	"github.com/classcleaner/classcleaner/pkg/parser"
	"github.com/classcleaner/classcleaner/pkg/position"
	sitter "github.com/smacker/go-tree-sitter"
)

// UnknownName names calls whose callee shape is not recognized, and is the
// recorded owner of top-level functions.
const UnknownName = "Unknown"

var (
	whitespaceRe = regexp.MustCompile(`\s+`)
	identifierRe = regexp.MustCompile("^`?[\\p{L}_][\\p{L}\\p{N}_]*`?$")
)

// IndexFile parses path with psr and indexes it.
func IndexFile(ctx context.Context, psr *parser.Parser, path string) (*models.Fragment, error) {
	result, err := psr.ParseFile(ctx, path)
	if err != nil {
		return nil, err
	}
	defer result.Close()
	return Index(result), nil
}

// IndexSource parses src as Swift and indexes it under path.
func IndexSource(ctx context.Context, psr *parser.Parser, src []byte, path string) (*models.Fragment, error) {
	result, err := psr.Parse(ctx, src, parser.LangSwift, path)
	if err != nil {
		return nil, err
	}
	defer result.Close()
	return Index(result), nil
}

// Index walks a parsed file and returns its declarations and call sites in
// source order. Element IDs are unique within the returned fragment only.
func Index(result *parser.ParseResult) *models.Fragment {
	v := newVisitor(result)
	v.visit(result.Tree.RootNode())
	return &models.Fragment{
		Path:     result.Path,
		Elements: v.topLevel,
		Calls:    v.calls,
	}
}

// visitor carries the transient state of one file walk. It is never shared
// between goroutines.
type visitor struct {
	path   string
	source []byte
	lines  *position.Table

	scopeStack []*models.Element
	topLevel   []*models.Element
	calls      []models.CallSite

	// localTypeHints maps a bound name to the type it was built from. It is
	// flat for the whole file and last write wins.
	localTypeHints map[string]string
	// functionOwner maps a function name to the container it was declared in.
	functionOwner map[string]string

	nextID models.ElementID
}

func newVisitor(result *parser.ParseResult) *visitor {
	return &visitor{
		path:           result.Path,
		source:         result.Source,
		lines:          position.NewTable(result.Source),
		localTypeHints: make(map[string]string),
		functionOwner:  make(map[string]string),
	}
}

// visit dispatches on the node kind. Unhandled kinds fall through to a plain
// descent into their children.
func (v *visitor) visit(n *sitter.Node) {
	if n == nil {
		return
	}
	switch n.Type() {
	case "class_declaration":
		v.visitClassDeclaration(n)
	case "protocol_declaration":
		v.visitContainer(n, models.KindType, v.declName(n))
	case "function_declaration", "protocol_function_declaration":
		v.visitFunction(n)
	case "property_declaration", "protocol_property_declaration":
		v.visitProperty(n)
	case "lambda_literal":
		v.visitClosure(n)
	case "call_expression":
		v.visitCall(n)
	case "navigation_expression":
		v.visitMemberAccess(n)
	default:
		v.visitChildren(n)
	}
}

func (v *visitor) visitChildren(n *sitter.Node) {
	for i := range int(n.ChildCount()) {
		v.visit(n.Child(i))
	}
}

// visitClassDeclaration handles class, struct, actor, enum and extension
// declarations, which share one node kind in the Swift grammar.
func (v *visitor) visitClassDeclaration(n *sitter.Node) {
	kind := models.KindType
	if dk := n.ChildByFieldName("declaration_kind"); dk != nil && dk.Type() == "extension" {
		kind = models.KindExtension
	}
	v.visitContainer(n, kind, v.declName(n))
}

func (v *visitor) visitContainer(n *sitter.Node, kind models.ElementKind, name string) {
	el := v.newElement(n, kind, name)
	v.scopeStack = append(v.scopeStack, el)
	v.visitChildren(n)
	v.scopeStack = v.scopeStack[:len(v.scopeStack)-1]
	v.attach(el)
}

func (v *visitor) visitFunction(n *sitter.Node) {
	name := v.declName(n)
	el := v.newElement(n, models.KindMethod, name)
	el.Parameters = functionParameters(n, v.source)
	el.Signature = functionSignature(n, v.source)

	owner := UnknownName
	if c := v.currentOwner(); c != nil {
		owner = c.Name
	}
	v.functionOwner[name] = owner
	v.attach(el)
	v.visitChildren(n)
}

// visitProperty emits one Property per bound name, except for bindings whose
// initializer reveals a type (Type(...) or Type.shared), which only record a
// local type hint.
func (v *visitor) visitProperty(n *sitter.Node) {
	for _, b := range propertyBindings(n) {
		name := bindingName(b.pattern, v.source)
		if name == "" {
			continue
		}
		if typeName, ok := initializerType(b.value, v.source); ok {
			v.localTypeHints[name] = typeName
			continue
		}
		v.attach(v.newElement(n, models.KindProperty, name))
	}
	v.visitChildren(n)
}

func (v *visitor) visitClosure(n *sitter.Node) {
	el := v.newElement(n, models.KindClosure, models.ClosureName)
	el.Parameters = []string{}
	if typ := n.ChildByFieldName("type"); typ != nil {
		el.Parameters = closureParameters(typ, v.source)
		el.Signature = collapseWhitespace(parser.GetNodeText(typ, v.source))
	}
	v.attach(el)
	v.visitChildren(n)
}

// visitCall records a call site and then descends. The callee itself is
// descended into without being recorded as a member read.
func (v *visitor) visitCall(n *sitter.Node) {
	calleeNode := n.NamedChild(0)
	args := childOfType(childOfType(n, "call_suffix"), "value_arguments")

	if isSubscript(n) {
		v.calls = append(v.calls, models.CallSite{
			Name:     strings.TrimSpace(parser.GetNodeText(calleeNode, v.source)),
			Location: v.location(n, false),
		})
	} else {
		c := classifyCallee(calleeNode, v.source)
		v.calls = append(v.calls, models.CallSite{
			Name:       c.name,
			ClassHint:  v.resolveHint(c),
			Parameters: v.arguments(args),
			Location:   v.location(n, false),
		})
	}

	if calleeNode != nil {
		if calleeNode.Type() == "navigation_expression" {
			v.visitChildren(calleeNode)
		} else {
			v.visit(calleeNode)
		}
	}
	for i := range int(n.ChildCount()) {
		child := n.Child(i)
		if calleeNode != nil && sameNode(child, calleeNode) {
			continue
		}
		v.visit(child)
	}
}

// visitMemberAccess records a member access that is not a call's callee.
func (v *visitor) visitMemberAccess(n *sitter.Node) {
	v.calls = append(v.calls, models.CallSite{
		Name:     strings.TrimSpace(parser.GetNodeText(n, v.source)),
		Location: v.location(n, false),
	})
	v.visitChildren(n)
}

// arguments renders each value argument. Bare identifiers render as their
// name, anything else as its source text. Trailing closures are not arguments.
func (v *visitor) arguments(args *sitter.Node) []string {
	params := []string{}
	if args == nil {
		return params
	}
	for i := range int(args.NamedChildCount()) {
		arg := args.NamedChild(i)
		if arg.Type() != "value_argument" {
			continue
		}
		value := arg.ChildByFieldName("value")
		if value == nil {
			params = append(params, strings.TrimSpace(parser.GetNodeText(arg, v.source)))
			continue
		}
		params = append(params, renderArgument(value, v.source))
	}
	return params
}

func renderArgument(value *sitter.Node, source []byte) string {
	switch value.Type() {
	case "simple_identifier", "self_expression":
		return parser.GetNodeText(value, source)
	default:
		return strings.TrimSpace(parser.GetNodeText(value, source))
	}
}

func (v *visitor) newElement(n *sitter.Node, kind models.ElementKind, name string) *models.Element {
	el := &models.Element{
		ID:       v.nextID,
		Kind:     kind,
		Name:     name,
		Location: v.location(n, true),
	}
	v.nextID++
	return el
}

// attach adds el under the innermost open container, or at top level.
func (v *visitor) attach(el *models.Element) {
	if owner := v.currentOwner(); owner != nil {
		owner.AddChild(el)
		return
	}
	v.topLevel = append(v.topLevel, el)
}

func (v *visitor) currentOwner() *models.Element {
	if len(v.scopeStack) == 0 {
		return nil
	}
	return v.scopeStack[len(v.scopeStack)-1]
}

func (v *visitor) location(n *sitter.Node, withEnd bool) models.Location {
	line, end := v.lines.Span(n.StartByte(), n.EndByte())
	loc := models.Location{Path: v.path, Line: line}
	if withEnd && end > line {
		loc.EndLine = end
	}
	return loc
}

// declName returns the text of a declaration's name field.
func (v *visitor) declName(n *sitter.Node) string {
	if name := n.ChildByFieldName("name"); name != nil {
		if text := strings.TrimSpace(parser.GetNodeText(name, v.source)); text != "" {
			return text
		}
	}
	return UnknownName
}

type binding struct {
	pattern *sitter.Node
	value   *sitter.Node
}

// propertyBindings pairs every bound pattern with its initializer, if any.
// A declaration such as `let a = A(), b = 1` yields two bindings.
func propertyBindings(n *sitter.Node) []binding {
	var out []binding
	for i := range int(n.ChildCount()) {
		switch n.FieldNameForChild(i) {
		case "name":
			out = append(out, binding{pattern: n.Child(i)})
		case "value":
			if len(out) > 0 && out[len(out)-1].value == nil {
				out[len(out)-1].value = n.Child(i)
			}
		}
	}
	return out
}

// bindingName returns the bound identifier of a simple pattern, or "" for
// tuple and other destructuring patterns.
func bindingName(pattern *sitter.Node, source []byte) string {
	if pattern == nil {
		return ""
	}
	if bound := pattern.ChildByFieldName("bound_identifier"); bound != nil {
		return parser.GetNodeText(bound, source)
	}
	if pattern.Type() == "simple_identifier" {
		return parser.GetNodeText(pattern, source)
	}
	text := strings.TrimSpace(parser.GetNodeText(pattern, source))
	if identifierRe.MatchString(text) {
		return text
	}
	return ""
}

// initializerType recognizes `Type(...)` and `Type.member` initializers and
// returns Type.
func initializerType(value *sitter.Node, source []byte) (string, bool) {
	if value == nil {
		return "", false
	}
	switch value.Type() {
	case "call_expression":
		callee := value.NamedChild(0)
		if callee != nil && callee.Type() == "simple_identifier" && !isSubscript(value) {
			return parser.GetNodeText(callee, source), true
		}
	case "navigation_expression":
		target := value.ChildByFieldName("target")
		if target != nil && target.Type() == "simple_identifier" {
			return parser.GetNodeText(target, source), true
		}
	}
	return "", false
}

// functionParameters returns each parameter's argument label: the external
// name when one is written, otherwise the internal name.
func functionParameters(fn *sitter.Node, source []byte) []string {
	params := []string{}
	for i := range int(fn.NamedChildCount()) {
		p := fn.NamedChild(i)
		if p.Type() != "parameter" {
			continue
		}
		label := p.ChildByFieldName("external_name")
		if label == nil {
			label = p.ChildByFieldName("name")
		}
		params = append(params, parser.GetNodeText(label, source))
	}
	return params
}

// functionSignature renders the parameter clause through the return type,
// with whitespace collapsed.
func functionSignature(fn *sitter.Node, source []byte) string {
	start, end := uint32(0), fn.EndByte()
	found := false
	for i := range int(fn.ChildCount()) {
		child := fn.Child(i)
		if !found && child.Type() == "(" {
			start = child.StartByte()
			found = true
			continue
		}
		if found && (child.Type() == "function_body" || child.Type() == "type_constraints") {
			end = child.StartByte()
			break
		}
	}
	if !found || end <= start {
		return ""
	}
	return collapseWhitespace(string(source[start:end]))
}

// closureParameters collects the parameter names of a closure's type clause,
// without descending into nested closures.
func closureParameters(typ *sitter.Node, source []byte) []string {
	params := []string{}
	parser.Walk(typ, source, func(n *sitter.Node, src []byte) bool {
		switch n.Type() {
		case "lambda_literal":
			return false
		case "lambda_parameter":
			label := n.ChildByFieldName("external_name")
			if label == nil {
				label = n.ChildByFieldName("name")
			}
			if label == nil {
				params = append(params, strings.TrimSpace(parser.GetNodeText(n, src)))
			} else {
				params = append(params, parser.GetNodeText(label, src))
			}
			return false
		}
		return true
	})
	return params
}

// isSubscript reports whether a call expression uses brackets, as in xs[0].
func isSubscript(call *sitter.Node) bool {
	args := childOfType(childOfType(call, "call_suffix"), "value_arguments")
	return args != nil && firstTokenType(args) == "["
}

func childOfType(n *sitter.Node, typ string) *sitter.Node {
	if n == nil {
		return nil
	}
	for i := range int(n.ChildCount()) {
		if child := n.Child(i); child.Type() == typ {
			return child
		}
	}
	return nil
}

func firstTokenType(n *sitter.Node) string {
	if n == nil || n.ChildCount() == 0 {
		return ""
	}
	return n.Child(0).Type()
}

// sameNode compares nodes by position and kind; tree-sitter hands out fresh
// wrappers for the same node.
func sameNode(a, b *sitter.Node) bool {
	return a.StartByte() == b.StartByte() && a.EndByte() == b.EndByte() && a.Type() == b.Type()
}

func collapseWhitespace(s string) string {
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(s, " "))
}
