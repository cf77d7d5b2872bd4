package view

import "testing"

func TestPageElementMissingReturnsNil(t *testing.T) {
	p := NewPage()
	if el := p.Element("nope"); el != nil {
		t.Fatalf("expected nil element, got %v", el)
	}
}

func TestNodeMutations(t *testing.T) {
	p := NewPage()
	n := p.Add("x", "a")

	n.AddClass("b")
	n.RemoveClass("a")
	n.SetText("hello")
	n.SetValue("v")
	n.SetAttr("style", "width: 10%")
	n.SetHidden(true)
	n.Focus()

	if n.HasClass("a") || !n.HasClass("b") {
		t.Fatalf("unexpected classes %q", n.Classes())
	}
	if n.Text() != "hello" || n.Value() != "v" || n.Attr("style") != "width: 10%" || !n.Hidden() {
		t.Fatal("node did not retain mutations")
	}
	if p.Focused() != "x" {
		t.Fatalf("expected focus on x, got %q", p.Focused())
	}
	if p.Writes() == 0 {
		t.Fatal("expected writes to be counted")
	}

	n.SetAttr("style", "")
	if n.Attr("style") != "" {
		t.Fatal("empty attr value should delete the attribute")
	}
}

func TestNewLayoutInitialState(t *testing.T) {
	ids := DefaultIDs()
	p := NewLayout(Layout{IDs: ids})

	if p.Element(ids.Links).Hidden() {
		t.Fatal("links must start visible")
	}
	if !p.Element(ids.UserInfo).Hidden() {
		t.Fatal("user info must start hidden")
	}
	for name, id := range ids.Panels {
		if !p.Element(id).Hidden() {
			t.Fatalf("panel %s must start hidden", name)
		}
	}

	indicators := p.Element(ids.ProgressBar).Children()
	if len(indicators) != 3 {
		t.Fatalf("expected 3 indicators, got %d", len(indicators))
	}
	for i, ind := range indicators {
		complete := ChildWithClass(ind, ClassIconComplete)
		incomplete := ChildWithClass(ind, ClassIconIncomplete)
		if complete == nil || incomplete == nil {
			t.Fatalf("indicator %d missing icons", i)
		}
		if !complete.Hidden() || incomplete.Hidden() {
			t.Fatalf("indicator %d should show only the incomplete icon", i)
		}
	}
}

func TestNewLayoutOmit(t *testing.T) {
	ids := DefaultIDs()
	p := NewLayout(Layout{IDs: ids, Omit: []string{ids.UserInfo, ids.ProgressBar}})

	if p.Element(ids.UserInfo) != nil || p.Element(ids.ProgressBar) != nil {
		t.Fatal("omitted ids must not be registered")
	}
	if p.Element(ids.Links) == nil {
		t.Fatal("non-omitted ids must be registered")
	}
}

func TestSetClassNilSafe(t *testing.T) {
	SetClass(nil, "x", true)
	if ChildWithClass(nil, "x") != nil {
		t.Fatal("expected nil")
	}
}
