package output

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/tree"
)

var (
	okMark       = lipgloss.NewStyle().Foreground(lipgloss.Color("green")).Render("✓")
	missingMark  = lipgloss.NewStyle().Foreground(lipgloss.Color("red")).Render("✗")
	outdatedMark = lipgloss.NewStyle().Foreground(lipgloss.Color("yellow")).Render("!")
)

// Status marks a node in a file tree.
type Status int

const (
	StatusOK Status = iota
	StatusMissing
	StatusOutdated
)

func (s Status) mark() string {
	switch s {
	case StatusMissing:
		return missingMark
	case StatusOutdated:
		return outdatedMark
	default:
		return okMark
	}
}

// TreeNode is one entry of a status tree.
type TreeNode struct {
	Label    string
	Status   Status
	Detail   string
	Children []*TreeNode
}

// RenderTree renders nodes as a tree with status marks.
func RenderTree(nodes []*TreeNode) string {
	t := tree.New().Enumerator(tree.DefaultEnumerator)
	for _, n := range nodes {
		t.Child(buildTree(n))
	}
	return t.String()
}

// Tree prints nodes as a status tree.
func Tree(nodes []*TreeNode) {
	if len(nodes) == 0 {
		return
	}
	fmt.Fprintln(out, RenderTree(nodes))
}

func buildTree(n *TreeNode) any {
	label := n.Status.mark() + " " + n.Label
	if n.Detail != "" {
		label += " " + stepStyle.Render(n.Detail)
	}
	if len(n.Children) == 0 {
		return label
	}
	t := tree.Root(label)
	for _, child := range n.Children {
		t.Child(buildTree(child))
	}
	return t
}
