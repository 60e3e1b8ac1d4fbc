package docx

import (
	"encoding/xml"
	"strings"

	"github.com/antchfx/xmlquery"
)

// WordprocessingML main namespace.
const wordMLNamespace = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"

// isW reports whether n is a WordprocessingML element with the given local name.
func isW(n *xmlquery.Node, local string) bool {
	return n != nil && n.Type == xmlquery.ElementNode && n.Prefix == "w" && n.Data == local
}

// newWElement creates a w-prefixed element node.
func newWElement(local string, attrs ...xmlquery.Attr) *xmlquery.Node {
	return &xmlquery.Node{
		Type:         xmlquery.ElementNode,
		Data:         local,
		Prefix:       "w",
		NamespaceURI: wordMLNamespace,
		Attr:         attrs,
	}
}

// newElement creates an unprefixed element node (package-level parts such as
// [Content_Types].xml use a default namespace).
func newElement(local string, attrs ...xmlquery.Attr) *xmlquery.Node {
	return &xmlquery.Node{
		Type: xmlquery.ElementNode,
		Data: local,
		Attr: attrs,
	}
}

// wAttr builds a w-namespaced attribute.
func wAttr(local, value string) xmlquery.Attr {
	return xmlquery.Attr{Name: xml.Name{Space: "w", Local: local}, Value: value}
}

// attr builds an unprefixed attribute.
func attr(local, value string) xmlquery.Attr {
	return xmlquery.Attr{Name: xml.Name{Local: local}, Value: value}
}

// newTextNode creates a text node.
func newTextNode(text string) *xmlquery.Node {
	return &xmlquery.Node{Type: xmlquery.TextNode, Data: text}
}

// appendChild attaches n as the last child of parent.
func appendChild(parent, n *xmlquery.Node) {
	n.Parent = parent
	n.NextSibling = nil
	if parent.LastChild == nil {
		parent.FirstChild = n
		n.PrevSibling = nil
	} else {
		parent.LastChild.NextSibling = n
		n.PrevSibling = parent.LastChild
	}
	parent.LastChild = n
}

// prependChild attaches n as the first child of parent.
func prependChild(parent, n *xmlquery.Node) {
	n.Parent = parent
	n.PrevSibling = nil
	n.NextSibling = parent.FirstChild
	if parent.FirstChild != nil {
		parent.FirstChild.PrevSibling = n
	} else {
		parent.LastChild = n
	}
	parent.FirstChild = n
}

// insertAfter splices n into the tree immediately after ref.
func insertAfter(ref, n *xmlquery.Node) {
	n.Parent = ref.Parent
	n.PrevSibling = ref
	n.NextSibling = ref.NextSibling
	if ref.NextSibling != nil {
		ref.NextSibling.PrevSibling = n
	} else if ref.Parent != nil {
		ref.Parent.LastChild = n
	}
	ref.NextSibling = n
}

// insertBefore splices n into the tree immediately before ref.
func insertBefore(ref, n *xmlquery.Node) {
	n.Parent = ref.Parent
	n.NextSibling = ref
	n.PrevSibling = ref.PrevSibling
	if ref.PrevSibling != nil {
		ref.PrevSibling.NextSibling = n
	} else if ref.Parent != nil {
		ref.Parent.FirstChild = n
	}
	ref.PrevSibling = n
}

// detach removes n from the tree. The node keeps its children.
func detach(n *xmlquery.Node) {
	if n.Parent != nil {
		if n.Parent.FirstChild == n {
			n.Parent.FirstChild = n.NextSibling
		}
		if n.Parent.LastChild == n {
			n.Parent.LastChild = n.PrevSibling
		}
	}
	if n.PrevSibling != nil {
		n.PrevSibling.NextSibling = n.NextSibling
	}
	if n.NextSibling != nil {
		n.NextSibling.PrevSibling = n.PrevSibling
	}
	n.Parent = nil
	n.PrevSibling = nil
	n.NextSibling = nil
}

// cloneNode deep-copies a node and its subtree. The copy is detached.
func cloneNode(n *xmlquery.Node) *xmlquery.Node {
	if n == nil {
		return nil
	}
	c := &xmlquery.Node{
		Type:         n.Type,
		Data:         n.Data,
		Prefix:       n.Prefix,
		NamespaceURI: n.NamespaceURI,
	}
	if len(n.Attr) > 0 {
		c.Attr = make([]xmlquery.Attr, len(n.Attr))
		copy(c.Attr, n.Attr)
	}
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		appendChild(c, cloneNode(child))
	}
	return c
}

// childElement returns the first direct child element matching prefix:local.
func childElement(n *xmlquery.Node, prefix, local string) *xmlquery.Node {
	if n == nil {
		return nil
	}
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		if child.Type == xmlquery.ElementNode && child.Prefix == prefix && child.Data == local {
			return child
		}
	}
	return nil
}

// removeChildren detaches all direct children matching prefix:local.
func removeChildren(n *xmlquery.Node, prefix, local string) {
	child := n.FirstChild
	for child != nil {
		next := child.NextSibling
		if child.Type == xmlquery.ElementNode && child.Prefix == prefix && child.Data == local {
			detach(child)
		}
		child = next
	}
}

// selectWAttr reads a w-namespaced attribute, tolerating unprefixed values.
func selectWAttr(n *xmlquery.Node, local string) string {
	if v := n.SelectAttr("w:" + local); v != "" {
		return v
	}
	return n.SelectAttr(local)
}

// hasEdgeSpace reports whether text begins or ends with whitespace that an
// XML serializer would otherwise trim.
func hasEdgeSpace(text string) bool {
	return text != "" && strings.TrimSpace(text) != text
}

// ensurePreserveSpace marks a w:t element so edge whitespace survives
// serialization.
func ensurePreserveSpace(t *xmlquery.Node) {
	for _, a := range t.Attr {
		if a.Name.Space == "xml" && a.Name.Local == "space" {
			return
		}
	}
	t.Attr = append(t.Attr, xmlquery.Attr{Name: xml.Name{Space: "xml", Local: "space"}, Value: "preserve"})
}
