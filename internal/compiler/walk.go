package compiler

import (
	"strconv"
	"text/template/parse"
)

// Substitute rewrites every directive call in tree into the literal it
// resolves to under env. Children are rewritten before their parents, and
// all other nodes are left as they are, so running it again is a no-op.
//
// text is the source the tree was parsed from; it is only used to report
// line numbers.
//
// A failure is returned as an invalid_template *Error without a path.
func Substitute(tree *parse.Tree, text string, env Env) error {
	if tree == nil || tree.Root == nil {
		return nil
	}
	s := &substituter{env: env, spliced: map[*parse.StringNode]bool{}}
	if _, err := s.node(tree.Root); err != nil {
		if err, ok := err.(posErr); ok {
			line, _ := pos(text, err.pos)
			return invalidTemplate("", line, err.message, nil)
		}
		return invalidTemplate("", 0, err.Error(), err)
	}
	return nil
}

type substituter struct {
	env Env
	// string literals produced by include; spliced verbatim when they make
	// up a whole action
	spliced map[*parse.StringNode]bool
}

func (s *substituter) node(node parse.Node) (parse.Node, error) {
	switch n := node.(type) {
	case *parse.ListNode:
		if n == nil {
			return n, nil
		}
		for i, c := range n.Nodes {
			r, err := s.node(c)
			if err != nil {
				return nil, err
			}
			n.Nodes[i] = r
		}
	case *parse.ActionNode:
		if err := s.pipe(n.Pipe); err != nil {
			return nil, err
		}
		if text, ok := s.splice(n.Pipe); ok {
			return &parse.TextNode{NodeType: parse.NodeText, Pos: n.Pos, Text: []byte(text)}, nil
		}
	case *parse.IfNode:
		return n, s.branch(&n.BranchNode)
	case *parse.RangeNode:
		return n, s.branch(&n.BranchNode)
	case *parse.WithNode:
		return n, s.branch(&n.BranchNode)
	case *parse.TemplateNode:
		return n, s.pipe(n.Pipe)
	case *parse.PipeNode:
		return n, s.pipe(n)
	case *parse.ChainNode:
		r, err := s.node(n.Node)
		if err != nil {
			return nil, err
		}
		n.Node = r
	}
	return node, nil
}

func (s *substituter) branch(b *parse.BranchNode) error {
	if err := s.pipe(b.Pipe); err != nil {
		return err
	}
	if _, err := s.node(b.List); err != nil {
		return err
	}
	_, err := s.node(b.ElseList)
	return err
}

func (s *substituter) pipe(p *parse.PipeNode) error {
	if p == nil {
		return nil
	}
	for i, cmd := range p.Cmds {
		if err := s.command(cmd, i); err != nil {
			return err
		}
	}
	return nil
}

// command rewrites the arguments of cmd and then cmd itself. index is the
// position of cmd in its pipeline.
func (s *substituter) command(cmd *parse.CommandNode, index int) error {
	for i := 1; i < len(cmd.Args); i++ {
		arg := cmd.Args[i]
		if id, ok := arg.(*parse.IdentifierNode); ok && IsDirective(id.Ident) {
			// bare directive operand, a call without arguments
			lit, err := s.resolve(id.Ident, nil, id.Pos)
			if err != nil {
				return err
			}
			cmd.Args[i] = lit
			continue
		}
		r, err := s.node(arg)
		if err != nil {
			return err
		}
		cmd.Args[i] = r
	}

	id, ok := cmd.Args[0].(*parse.IdentifierNode)
	if !ok {
		r, err := s.node(cmd.Args[0])
		if err != nil {
			return err
		}
		cmd.Args[0] = r
		return nil
	}
	if !IsDirective(id.Ident) {
		return nil
	}
	if index > 0 {
		return posErr{pos: int(cmd.Pos), message: id.Ident + " cannot take piped input"}
	}
	lit, err := s.resolve(id.Ident, cmd.Args[1:], cmd.Pos)
	if err != nil {
		return err
	}
	cmd.Args = []parse.Node{lit}
	return nil
}

func (s *substituter) resolve(name string, args []parse.Node, p parse.Pos) (*parse.StringNode, error) {
	value, err := resolveDirective(name, s.env, args)
	if err != nil {
		return nil, posErr{pos: int(p), message: err.Error()}
	}
	lit := &parse.StringNode{NodeType: parse.NodeString, Pos: p, Quoted: strconv.Quote(value), Text: value}
	if name == "include" {
		s.spliced[lit] = true
	}
	return lit, nil
}

// splice returns the include HTML when p consists of nothing but an include.
func (s *substituter) splice(p *parse.PipeNode) (string, bool) {
	if p == nil || len(p.Decl) != 0 || len(p.Cmds) != 1 || len(p.Cmds[0].Args) != 1 {
		return "", false
	}
	lit, ok := p.Cmds[0].Args[0].(*parse.StringNode)
	if !ok || !s.spliced[lit] {
		return "", false
	}
	return lit.Text, true
}

// posErr tracks the byte offset in the template source where substitution failed.
type posErr struct {
	pos     int
	message string
}

func (p posErr) Error() string {
	return p.message
}

func pos(body string, pos int) (line int, col int) {
	line = 1
	col = 1
	for i, char := range body {
		if i >= pos {
			break
		}

		if char == '\n' {
			line++
			col = 1
		} else {
			col++
		}
	}
	return line, col
}
