package ast

// Inspect traverses the tree rooted at node in depth-first preorder,
// calling f for each node. If f returns false for a node, its children
// are skipped.
func Inspect(node Node, f func(Node) bool) {
	if node == nil || !f(node) {
		return
	}
	switch n := node.(type) {
	case *Directive:
		Inspect(n.Expression, f)
	case *CallExpr:
		for _, arg := range n.Args {
			Inspect(arg, f)
		}
		for _, named := range n.Named {
			Inspect(named.Value, f)
		}
	case *PropertyAccess:
		Inspect(n.Target, f)
	case *MethodCall:
		Inspect(n.Target, f)
		for _, arg := range n.Args {
			Inspect(arg, f)
		}
		for _, named := range n.Named {
			Inspect(named.Value, f)
		}
	case *Assignment:
		Inspect(n.Target, f)
		Inspect(n.Value, f)
	case *StatementList:
		for _, stmt := range n.Statements {
			Inspect(stmt, f)
		}
	case *LambdaExpr:
		Inspect(n.Body, f)
	}
}
