// Package view is the presentation-handle boundary of the onboarding flow.
//
// Components never touch a concrete page. They look elements up by id through a
// [Document] and mutate them through [Element]. A missing element is reported as
// nil, which every caller treats as "not ready yet" rather than as an error.
//
// [Page] is the in-memory implementation used by tests and by the terminal host.
package view

import (
	"sort"
	"strings"
	"sync"
)

// Element is a single presentation handle.
type Element interface {
	ID() string

	AddClass(name string)
	RemoveClass(name string)
	HasClass(name string) bool

	SetHidden(hidden bool)
	Hidden() bool

	SetText(text string)
	Text() string

	SetValue(value string)
	Value() string

	SetAttr(name, value string)
	Attr(name string) string

	Focus()
	Children() []Element
}

// Document resolves elements by id. Element returns nil when the id is absent.
type Document interface {
	Element(id string) Element
}

// SetClass adds or removes name depending on on.
func SetClass(el Element, name string, on bool) {
	if el == nil {
		return
	}
	if on {
		el.AddClass(name)
		return
	}
	el.RemoveClass(name)
}

// ChildWithClass returns the first direct child of el carrying class, or nil.
func ChildWithClass(el Element, class string) Element {
	if el == nil {
		return nil
	}
	for _, c := range el.Children() {
		if c != nil && c.HasClass(class) {
			return c
		}
	}
	return nil
}

// Page is an in-memory, mutex-guarded Document.
type Page struct {
	mu      sync.Mutex
	nodes   map[string]*Node
	focused string
	writes  uint64
}

// NewPage returns an empty page.
func NewPage() *Page {
	return &Page{nodes: make(map[string]*Node)}
}

// Add creates a node with id and registers it. Nodes with an empty id are
// reachable only through their parent.
func (p *Page) Add(id string, classes ...string) *Node {
	n := &Node{page: p, id: id, classes: make(map[string]struct{}), attrs: make(map[string]string)}
	for _, c := range classes {
		n.classes[c] = struct{}{}
	}
	if id != "" {
		p.mu.Lock()
		p.nodes[id] = n
		p.mu.Unlock()
	}
	return n
}

// Remove unregisters id. Subsequent lookups return nil.
func (p *Page) Remove(id string) {
	p.mu.Lock()
	delete(p.nodes, id)
	p.mu.Unlock()
}

func (p *Page) Element(id string) Element {
	p.mu.Lock()
	n, ok := p.nodes[id]
	p.mu.Unlock()
	if !ok {
		return nil
	}
	return n
}

// Node returns the concrete node registered under id, or nil.
func (p *Page) Node(id string) *Node {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.nodes[id]
}

// Focused returns the id of the last focused element.
func (p *Page) Focused() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.focused
}

// Writes counts every mutating call made on the page's nodes.
func (p *Page) Writes() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.writes
}

// IDs lists registered element ids in lexical order.
func (p *Page) IDs() []string {
	p.mu.Lock()
	out := make([]string, 0, len(p.nodes))
	for id := range p.nodes {
		out = append(out, id)
	}
	p.mu.Unlock()
	sort.Strings(out)
	return out
}

// Node is the in-memory [Element].
type Node struct {
	page     *Page
	id       string
	classes  map[string]struct{}
	attrs    map[string]string
	hidden   bool
	text     string
	value    string
	children []*Node
}

// Append adds child nodes in order and returns n.
func (n *Node) Append(children ...*Node) *Node {
	n.page.mu.Lock()
	n.children = append(n.children, children...)
	n.page.mu.Unlock()
	return n
}

func (n *Node) ID() string { return n.id }

func (n *Node) AddClass(name string) {
	n.page.mu.Lock()
	defer n.page.mu.Unlock()
	n.page.writes++
	n.classes[name] = struct{}{}
}

func (n *Node) RemoveClass(name string) {
	n.page.mu.Lock()
	defer n.page.mu.Unlock()
	n.page.writes++
	delete(n.classes, name)
}

func (n *Node) HasClass(name string) bool {
	n.page.mu.Lock()
	defer n.page.mu.Unlock()
	_, ok := n.classes[name]
	return ok
}

// Classes returns the node's classes joined by spaces in lexical order.
func (n *Node) Classes() string {
	n.page.mu.Lock()
	out := make([]string, 0, len(n.classes))
	for c := range n.classes {
		out = append(out, c)
	}
	n.page.mu.Unlock()
	sort.Strings(out)
	return strings.Join(out, " ")
}

func (n *Node) SetHidden(hidden bool) {
	n.page.mu.Lock()
	defer n.page.mu.Unlock()
	n.page.writes++
	n.hidden = hidden
}

func (n *Node) Hidden() bool {
	n.page.mu.Lock()
	defer n.page.mu.Unlock()
	return n.hidden
}

func (n *Node) SetText(text string) {
	n.page.mu.Lock()
	defer n.page.mu.Unlock()
	n.page.writes++
	n.text = text
}

func (n *Node) Text() string {
	n.page.mu.Lock()
	defer n.page.mu.Unlock()
	return n.text
}

func (n *Node) SetValue(value string) {
	n.page.mu.Lock()
	defer n.page.mu.Unlock()
	n.page.writes++
	n.value = value
}

func (n *Node) Value() string {
	n.page.mu.Lock()
	defer n.page.mu.Unlock()
	return n.value
}

func (n *Node) SetAttr(name, value string) {
	n.page.mu.Lock()
	defer n.page.mu.Unlock()
	n.page.writes++
	if value == "" {
		delete(n.attrs, name)
		return
	}
	n.attrs[name] = value
}

func (n *Node) Attr(name string) string {
	n.page.mu.Lock()
	defer n.page.mu.Unlock()
	return n.attrs[name]
}

func (n *Node) Focus() {
	n.page.mu.Lock()
	defer n.page.mu.Unlock()
	n.page.focused = n.id
}

func (n *Node) Children() []Element {
	n.page.mu.Lock()
	defer n.page.mu.Unlock()
	out := make([]Element, len(n.children))
	for i, c := range n.children {
		out[i] = c
	}
	return out
}
