package decls

import (
	"github.com/classcleaner/classcleaner/pkg/parser"
	sitter "github.com/smacker/go-tree-sitter"
)

type calleeShape int

const (
	calleeOther calleeShape = iota
	calleeMember
	calleeIdentifier
	calleeAwait
)

// callee describes the called expression of a call site.
type callee struct {
	shape    calleeShape
	name     string
	receiver *sitter.Node // set for calleeMember
}

// classifyCallee determines the call name by precedence: member access
// trailing name, await-wrapped identifier, bare identifier, then Unknown.
func classifyCallee(n *sitter.Node, source []byte) callee {
	if n == nil {
		return callee{name: UnknownName}
	}
	switch n.Type() {
	case "navigation_expression":
		if name := memberName(n, source); name != "" {
			return callee{shape: calleeMember, name: name, receiver: n.ChildByFieldName("target")}
		}
	case "await_expression":
		if inner := unwrapAwait(n); inner != nil && isBareIdentifier(inner) {
			return callee{shape: calleeAwait, name: parser.GetNodeText(inner, source)}
		}
	case "simple_identifier":
		return callee{shape: calleeIdentifier, name: parser.GetNodeText(n, source)}
	}
	return callee{name: UnknownName}
}

// memberName returns the trailing identifier of `a.b.name`.
func memberName(nav *sitter.Node, source []byte) string {
	suffix := nav.ChildByFieldName("suffix")
	if suffix == nil {
		return ""
	}
	if id := suffix.ChildByFieldName("suffix"); id != nil {
		return parser.GetNodeText(id, source)
	}
	return ""
}

func unwrapAwait(n *sitter.Node) *sitter.Node {
	if inner := n.ChildByFieldName("expr"); inner != nil {
		return inner
	}
	if c := n.NamedChildCount(); c > 0 {
		return n.NamedChild(int(c) - 1)
	}
	return nil
}

// isBareIdentifier treats `self` like any other identifier reference.
func isBareIdentifier(n *sitter.Node) bool {
	return n != nil && (n.Type() == "simple_identifier" || n.Type() == "self_expression")
}

// hintStrategy proposes a receiver type for a call. ok=false means try the
// next strategy.
type hintStrategy func(v *visitor, c callee) (hint string, ok bool)

// Strategy chains in precedence order. Changing the order changes which
// declarations calls are attributed to.
var (
	identifierReceiverChain = []hintStrategy{localTypeHint, functionOwnerHint, enclosingScopeHint}
	chainedReceiverChain    = []hintStrategy{chainedBaseHint}
	bareCallChain           = []hintStrategy{functionOwnerHint, enclosingScopeHint}
)

func (v *visitor) resolveHint(c callee) string {
	var chain []hintStrategy
	switch c.shape {
	case calleeMember:
		switch {
		case isBareIdentifier(c.receiver):
			chain = identifierReceiverChain
		case c.receiver != nil && c.receiver.Type() == "navigation_expression":
			chain = chainedReceiverChain
		}
	case calleeIdentifier, calleeAwait:
		chain = bareCallChain
	}
	for _, strategy := range chain {
		if hint, ok := strategy(v, c); ok {
			return hint
		}
	}
	return ""
}

// localTypeHint looks the receiver up among names bound to Type(...) or
// Type.shared earlier in the file.
func localTypeHint(v *visitor, c callee) (string, bool) {
	hint, ok := v.localTypeHints[parser.GetNodeText(c.receiver, v.source)]
	return hint, ok
}

// functionOwnerHint uses the container a function of this name was declared in.
func functionOwnerHint(v *visitor, c callee) (string, bool) {
	hint, ok := v.functionOwner[c.name]
	return hint, ok
}

// enclosingScopeHint falls back to the innermost open container.
func enclosingScopeHint(v *visitor, _ callee) (string, bool) {
	if owner := v.currentOwner(); owner != nil {
		return owner.Name, true
	}
	return "", false
}

// chainedBaseHint handles `Outer.member.call()`: the base identifier is taken
// literally, without lookup.
func chainedBaseHint(v *visitor, c callee) (string, bool) {
	base := c.receiver.ChildByFieldName("target")
	if !isBareIdentifier(base) {
		return "", false
	}
	return parser.GetNodeText(base, v.source), true
}
