// Package outline models the hierarchical course outline that gets bound
// onto a course calendar.
package outline

import (
	"errors"
	"fmt"
	"io"
	"iter"
	"regexp"
	"slices"
	"strings"

	"coursecal/internal/calendar"
	appLog "coursecal/internal/log"
)

// ErrUnknownNodeType reports a node type other than root or headline.
var ErrUnknownNodeType = errors.New("unknown outline node type")

// NodeType is the kind of an outline node.
type NodeType string

const (
	TypeRoot     NodeType = "root"
	TypeHeadline NodeType = "headline"
)

// RootTitle is the title given to every root node.
const RootTitle = "TOP LEVEL"

// linkPattern matches org links of the form [[target][display]].
var linkPattern = regexp.MustCompile(`\[\[(.*?)\]\[(.*?)\]\]`)

// Node is one element of the outline tree.
type Node struct {
	ID       int
	Type     NodeType
	Title    string
	Tags     []string
	Level    int
	Children []*Node

	// Day is the calendar day this node was scheduled on, set by the
	// scheduler. Nil for nodes that were not scheduled.
	Day *calendar.Day
}

// HasTag reports whether the node carries tag.
func (n *Node) HasTag(tag string) bool {
	return slices.Contains(n.Tags, tag)
}

// IndentedTitle prefixes the title with one "|  " per level.
func (n *Node) IndentedTitle() string {
	return strings.Repeat("|  ", max(n.Level, 0)) + n.Title
}

// Outline is an immutable tree built from a Source.
type Outline struct {
	Root *Node
}

// Builder converts sources into outlines. Node ids are assigned from a
// counter owned by the builder and reset at the start of every Build.
type Builder struct {
	nextID int
}

// Build converts src into an Outline, numbering nodes from 0 in pre-order.
func (b *Builder) Build(src Source) (*Outline, error) {
	b.nextID = 0
	root, err := b.convert(src)
	if err != nil {
		return nil, err
	}
	o := &Outline{Root: root}
	appLog.Debug("outline built", "nodes", b.nextID, "deepest_level", o.DeepestLevel())
	return o, nil
}

// Build converts src with a fresh Builder.
func Build(src Source) (*Outline, error) {
	var b Builder
	return b.Build(src)
}

func (b *Builder) convert(src Source) (*Node, error) {
	n := &Node{ID: b.nextID}
	b.nextID++

	switch src.Type {
	case "root", "org-data":
		n.Type = TypeRoot
		n.Title = RootTitle
		n.Level = -1
	case "headline":
		n.Type = TypeHeadline
		n.Title = cleanTitle(src.Props.Title)
		n.Tags = slices.Clone(src.Props.Tags)
		n.Level = src.Props.Level
	default:
		return nil, fmt.Errorf("%w %q", ErrUnknownNodeType, src.Type)
	}

	n.Children = make([]*Node, 0, len(src.Children))
	for _, c := range src.Children {
		child, err := b.convert(c)
		if err != nil {
			return nil, err
		}
		n.Children = append(n.Children, child)
	}
	return n, nil
}

func cleanTitle(raw string) string {
	if m := linkPattern.FindStringSubmatch(raw); m != nil {
		return m[2]
	}
	return raw
}

// Nodes yields every node in pre-order: a node before its children,
// children in listed order. The sequence can be ranged over repeatedly.
func (o *Outline) Nodes() iter.Seq[*Node] {
	return func(yield func(*Node) bool) {
		if o.Root != nil {
			walk(o.Root, yield)
		}
	}
}

func walk(n *Node, yield func(*Node) bool) bool {
	if !yield(n) {
		return false
	}
	for _, c := range n.Children {
		if !walk(c, yield) {
			return false
		}
	}
	return true
}

// DeepestLevel returns the largest level of any node, -1 for a bare root.
func (o *Outline) DeepestLevel() int {
	deepest := -1
	for n := range o.Nodes() {
		deepest = max(deepest, n.Level)
	}
	return deepest
}

// Len returns the number of nodes, root included.
func (o *Outline) Len() int {
	count := 0
	for range o.Nodes() {
		count++
	}
	return count
}

// Dump writes one indented title per line.
func (o *Outline) Dump(w io.Writer) error {
	for n := range o.Nodes() {
		if _, err := fmt.Fprintln(w, n.IndentedTitle()); err != nil {
			return err
		}
	}
	return nil
}
