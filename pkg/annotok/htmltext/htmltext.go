// Package htmltext extracts the visible text of an HTML document so it can be
// fed to a tokenizer.
package htmltext

import (
	"io"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

var skipped = map[atom.Atom]bool{
	atom.Script:   true,
	atom.Style:    true,
	atom.Noscript: true,
	atom.Template: true,
}

// Extract returns the text nodes of the document in order. Adjacent nodes are
// separated by a space so words from different elements never merge.
func Extract(r io.Reader) (string, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return "", err
	}

	var buf strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && skipped[n.DataAtom] {
			return
		}
		if n.Type == html.TextNode {
			appendText(&buf, n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return strings.TrimSpace(buf.String()), nil
}

func appendText(buf *strings.Builder, text string) {
	if strings.TrimSpace(text) == "" {
		if buf.Len() > 0 {
			ensureSpace(buf)
		}
		return
	}
	if buf.Len() > 0 {
		first, _ := utf8.DecodeRuneInString(text)
		if !unicode.IsSpace(first) {
			ensureSpace(buf)
		}
	}
	buf.WriteString(text)
}

func ensureSpace(buf *strings.Builder) {
	s := buf.String()
	last, _ := utf8.DecodeLastRuneInString(s)
	if !unicode.IsSpace(last) {
		buf.WriteByte(' ')
	}
}

// NewReader returns a reader over the extracted text of r. Parsing happens on
// the first Read; a parse or read error is returned from that call.
func NewReader(r io.Reader) io.Reader {
	return &reader{src: r}
}

type reader struct {
	src  io.Reader
	text *strings.Reader
	err  error
}

func (r *reader) Read(p []byte) (int, error) {
	if r.err != nil {
		return 0, r.err
	}
	if r.text == nil {
		text, err := Extract(r.src)
		if err != nil {
			r.err = err
			return 0, err
		}
		r.text = strings.NewReader(text)
	}
	return r.text.Read(p)
}
