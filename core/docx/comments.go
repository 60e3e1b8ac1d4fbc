package docx

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/antchfx/xmlquery"

	"github.com/panelzero/redline/core/annot"
	"github.com/panelzero/redline/core/errors"
)

const (
	commentsContentType = "application/vnd.openxmlformats-officedocument.wordprocessingml.comments+xml"
	commentsRelType     = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/comments"
)

const commentsSkeleton = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:comments xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"></w:comments>`

const documentRelsSkeleton = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships"></Relationships>`

// commentStore manages the word/comments.xml part and the bookkeeping
// (content-type override, relationship) needed when the part is introduced.
type commentStore struct {
	root    *xmlquery.Node
	created bool // part did not exist in the source package
	nextID  int
	dirty   bool
}

func (d *Document) ensureComments() (*commentStore, error) {
	if d.comments != nil {
		return d.comments, nil
	}
	store := &commentStore{nextID: 1}
	if part, ok := d.pkg.Part(partComments); ok {
		root, err := xmlquery.Parse(bytes.NewReader(part.Data))
		if err != nil {
			return nil, errors.NewCorruptPackage(partComments, "cannot parse comments", err)
		}
		store.root = root
		store.nextID = maxCommentID(root) + 1
	} else {
		root, err := xmlquery.Parse(strings.NewReader(commentsSkeleton))
		if err != nil {
			return nil, errors.Wrap(err, "building comments part")
		}
		store.root = root
		store.created = true
	}
	d.comments = store
	return store, nil
}

func maxCommentID(root *xmlquery.Node) int {
	max := 0
	commentsElem := childElement(root, "w", "comments")
	if commentsElem == nil {
		return 0
	}
	for child := commentsElem.FirstChild; child != nil; child = child.NextSibling {
		if !isW(child, "comment") {
			continue
		}
		if id, err := strconv.Atoi(selectWAttr(child, "id")); err == nil && id > max {
			max = id
		}
	}
	return max
}

// add appends a comment body and returns its allocated id.
func (c *commentStore) add(author, text string) int {
	id := c.nextID
	c.nextID++
	c.dirty = true

	commentsElem := childElement(c.root, "w", "comments")
	comment := newWElement("comment",
		wAttr("id", strconv.Itoa(id)),
		wAttr("author", author),
		wAttr("initials", initials(author)),
	)
	para := newWElement("p")
	run := newWElement("r")
	t := newWElement("t")
	appendChild(t, newTextNode(text))
	if hasEdgeSpace(text) {
		ensurePreserveSpace(t)
	}
	appendChild(run, t)
	appendChild(para, run)
	appendChild(comment, para)
	appendChild(commentsElem, comment)
	return id
}

func initials(author string) string {
	var b strings.Builder
	for _, word := range strings.Fields(author) {
		for _, r := range word {
			b.WriteRune(r)
			break
		}
	}
	if b.Len() == 0 {
		return "R"
	}
	return b.String()
}

// anchorComment wraps the target fragments of one plan entry in a comment
// range and records the comment body. The anchors are zero-width: they add
// no visible characters.
func (d *Document) anchorComment(entry annot.PlanEntry, targets []*Run) error {
	if len(targets) == 0 {
		return nil
	}
	store, err := d.ensureComments()
	if err != nil {
		return err
	}

	author := entry.Finding.AgentID
	if author == "" {
		author = "reviewer"
	}
	id := store.add(author, entry.Finding.Note)
	idStr := strconv.Itoa(id)

	first, last := targets[0], targets[len(targets)-1]
	insertBefore(first.node, newWElement("commentRangeStart", wAttr("id", idStr)))
	rangeEnd := newWElement("commentRangeEnd", wAttr("id", idStr))
	insertAfter(last.node, rangeEnd)

	refRun := newWElement("r")
	rPr := newWElement("rPr")
	appendChild(rPr, newWElement("rStyle", wAttr("val", "CommentReference")))
	appendChild(refRun, rPr)
	appendChild(refRun, newWElement("commentReference", wAttr("id", idStr)))
	insertAfter(rangeEnd, refRun)

	// Register the reference run in the arena so offset rebuilds and the
	// roundtrip guard see a consistent run list.
	lastPara := d.paras[entry.Spans[len(entry.Spans)-1].Para]
	for i, run := range lastPara.runs {
		if run == last {
			replaced := make([]*Run, 0, len(lastPara.runs)+1)
			replaced = append(replaced, lastPara.runs[:i+1]...)
			replaced = append(replaced, &Run{node: refRun})
			replaced = append(replaced, lastPara.runs[i+1:]...)
			lastPara.runs = replaced
			break
		}
	}
	return nil
}

// flush writes the comments part and, when the part is new, registers its
// content type and relationship.
func (c *commentStore) flush(pkg *Package) error {
	pkg.SetPart(partComments, []byte(c.root.OutputXML(false)))
	if !c.created {
		return nil
	}
	if err := addContentTypeOverride(pkg, "/word/comments.xml", commentsContentType); err != nil {
		return err
	}
	return addDocumentRelationship(pkg, commentsRelType, "comments.xml")
}

func addContentTypeOverride(pkg *Package, partName, contentType string) error {
	part, ok := pkg.Part(partContentTypes)
	if !ok {
		return errors.NewCorruptPackage(partContentTypes, "required part missing", nil)
	}
	root, err := xmlquery.Parse(bytes.NewReader(part.Data))
	if err != nil {
		return errors.NewCorruptPackage(partContentTypes, "cannot parse content types", err)
	}
	types := childElement(root, "", "Types")
	if types == nil {
		return errors.NewCorruptPackage(partContentTypes, "Types element missing", nil)
	}
	for child := types.FirstChild; child != nil; child = child.NextSibling {
		if child.Type == xmlquery.ElementNode && child.Data == "Override" && child.SelectAttr("PartName") == partName {
			return nil
		}
	}
	appendChild(types, newElement("Override",
		attr("PartName", partName),
		attr("ContentType", contentType),
	))
	pkg.SetPart(partContentTypes, []byte(root.OutputXML(false)))
	return nil
}

func addDocumentRelationship(pkg *Package, relType, target string) error {
	var root *xmlquery.Node
	var err error
	if part, ok := pkg.Part(partDocumentRels); ok {
		root, err = xmlquery.Parse(bytes.NewReader(part.Data))
		if err != nil {
			return errors.NewCorruptPackage(partDocumentRels, "cannot parse relationships", err)
		}
	} else {
		root, err = xmlquery.Parse(strings.NewReader(documentRelsSkeleton))
		if err != nil {
			return errors.Wrap(err, "building relationships part")
		}
	}
	rels := childElement(root, "", "Relationships")
	if rels == nil {
		return errors.NewCorruptPackage(partDocumentRels, "Relationships element missing", nil)
	}
	maxID := 0
	for child := rels.FirstChild; child != nil; child = child.NextSibling {
		if child.Type != xmlquery.ElementNode || child.Data != "Relationship" {
			continue
		}
		if child.SelectAttr("Type") == relType {
			return nil
		}
		idAttr := child.SelectAttr("Id")
		if strings.HasPrefix(idAttr, "rId") {
			if n, err := strconv.Atoi(idAttr[3:]); err == nil && n > maxID {
				maxID = n
			}
		}
	}
	appendChild(rels, newElement("Relationship",
		attr("Id", fmt.Sprintf("rId%d", maxID+1)),
		attr("Type", relType),
		attr("Target", target),
	))
	pkg.SetPart(partDocumentRels, []byte(root.OutputXML(false)))
	return nil
}
