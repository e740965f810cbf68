package program

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gosymreg/gpsym/function"
)

// String renders the program in infix-like lispy form, e.g.
// "mul(div(X8, X1), sub(X9, 0.500))". Feature i prints as Xi; constants
// print with 3-digit decimal precision.
func (p *Program) String() string {
	pos := 0
	return printNode(p.Tokens, p.Funcs, &pos)
}

func printNode(tokens []Token, funcs function.Set, pos *int) string {
	tok := tokens[*pos]
	*pos++

	switch tok.Kind {
	case TokenFunction:
		f := funcs[tok.Func]
		args := make([]string, f.Arity)
		for i := 0; i < f.Arity; i++ {
			args[i] = printNode(tokens, funcs, pos)
		}
		return baseName(f.Name) + "(" + strings.Join(args, ", ") + ")"
	case TokenFeature:
		return fmt.Sprintf("X%d", tok.Feature)
	default:
		return strconv.FormatFloat(tok.Const, 'f', 3, 64)
	}
}

// baseName strips the trailing arity digit from a function name, e.g.
// "mul2" -> "mul", "sqrt1" -> "sqrt".
func baseName(name string) string {
	return strings.TrimRight(name, "0123456789")
}

const (
	functionFill = "#3499cd"
	terminalFill = "#f89939"
)

// ExportGraphviz renders the program as a Graphviz digraph. Node numbering
// is the token's prefix-order index. Edges for each function are emitted in
// reverse child order (right child first, then left), per spec.md §4.B.
func (p *Program) ExportGraphviz() string {
	var buf strings.Builder
	buf.WriteString("digraph program {\n")
	buf.WriteString("node [style=filled]")
	exportNode(&buf, p.Tokens, p.Funcs, 0)
	buf.WriteString("}")
	return buf.String()
}

// exportNode writes the node line(s) for the subtree rooted at idx and
// returns the index one past the end of that subtree.
func exportNode(buf *strings.Builder, tokens []Token, funcs function.Set, idx int) int {
	tok := tokens[idx]

	if tok.Kind == TokenFunction {
		f := funcs[tok.Func]
		fmt.Fprintf(buf, "%d [label=\"%s\", fillcolor=\"%s\"] ;\n", idx, baseName(f.Name), functionFill)

		children := make([]int, 0, f.Arity)
		next := idx + 1
		for i := 0; i < f.Arity; i++ {
			children = append(children, next)
			next = exportNode(buf, tokens, funcs, next)
		}

		for i := len(children) - 1; i >= 0; i-- {
			fmt.Fprintf(buf, "%d -> %d ;\n", idx, children[i])
		}

		return next
	}

	var label string
	if tok.Kind == TokenFeature {
		label = fmt.Sprintf("X%d", tok.Feature)
	} else {
		label = strconv.FormatFloat(tok.Const, 'f', 3, 64)
	}
	fmt.Fprintf(buf, "%d [label=\"%s\", fillcolor=\"%s\"] ;\n", idx, label, terminalFill)
	return idx + 1
}
