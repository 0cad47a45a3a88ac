package markdown

import (
	"fmt"
	"html"
	"strings"

	gmast "github.com/yuin/goldmark/ast"

	"git.home.luguber.info/inful/bang/internal/config"
	"git.home.luguber.info/inful/bang/internal/urls"
)

// AMPView is the config scope whose conversions emit AMP markup.
const AMPView = "amp"

// plainText concatenates the text below n.
func plainText(n gmast.Node, source []byte) string {
	var b strings.Builder
	_ = gmast.Walk(n, func(c gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if !entering {
			return gmast.WalkContinue, nil
		}
		switch t := c.(type) {
		case *gmast.Text:
			b.Write(t.Segment.Value(source))
			if t.SoftLineBreak() || t.HardLineBreak() {
				b.WriteByte(' ')
			}
		case *gmast.String:
			b.Write(t.Value)
		case *gmast.CodeSpan:
			for s := t.FirstChild(); s != nil; s = s.NextSibling() {
				if txt, ok := s.(*gmast.Text); ok {
					b.Write(txt.Segment.Value(source))
				}
			}
			return gmast.WalkSkipChildren, nil
		}
		return gmast.WalkContinue, nil
	})
	return strings.TrimSpace(b.String())
}

// collect returns the nodes below root whose kind is one of kinds, in
// document order. Passes collect first so they can rewrite the tree
// without disturbing the walk.
func collect(root gmast.Node, kinds ...gmast.NodeKind) []gmast.Node {
	var out []gmast.Node
	_ = gmast.Walk(root, func(n gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if !entering {
			return gmast.WalkContinue, nil
		}
		for _, k := range kinds {
			if n.Kind() == k {
				out = append(out, n)
				break
			}
		}
		return gmast.WalkContinue, nil
	})
	return out
}

// extractTitle takes the title from metadata, or else removes the first
// level one heading and uses its text.
func extractTitle(doc *Document, root gmast.Node, source []byte) error {
	if t := doc.Meta.String("title"); t != "" {
		doc.Title = t
		return nil
	}
	for _, n := range collect(root, gmast.KindHeading) {
		h := n.(*gmast.Heading)
		if h.Level != 1 {
			continue
		}
		doc.Title = plainText(h, source)
		h.Parent().RemoveChild(h.Parent(), h)
		return nil
	}
	return nil
}

// embedImages replaces image embeds with a paragraph holding a regular
// image, as if the author had written ![basename](url).
func embedImages(_ *Document, root gmast.Node, _ []byte) error {
	for _, n := range collect(root, KindEmbed) {
		em := n.(*Embed)
		if !em.Image {
			continue
		}
		link := gmast.NewLink()
		link.Destination = []byte(em.URL)
		img := gmast.NewImage(link)
		img.AppendChild(img, gmast.NewString([]byte(urls.Parse(em.URL).Basename())))
		para := gmast.NewParagraph()
		para.AppendChild(para, img)
		em.Parent().ReplaceChild(em.Parent(), em, para)
	}
	return nil
}

// imageCaption turns the bracketed text of an untitled image into its
// title and uses the file name as alt text.
func imageCaption(_ *Document, root gmast.Node, source []byte) error {
	for _, n := range collect(root, gmast.KindImage) {
		img := n.(*gmast.Image)
		if len(img.Title) > 0 {
			continue
		}
		if label := plainText(img, source); label != "" {
			img.Title = []byte(label)
		}
		img.RemoveChildren(img)
		img.AppendChild(img, gmast.NewString([]byte(urls.Parse(string(img.Destination)).Basename())))
	}
	return nil
}

// figures wraps every image that is the only content of its paragraph in
// a Figure captioned with the image title.
func figures(_ *Document, root gmast.Node, _ []byte) error {
	for _, n := range collect(root, gmast.KindParagraph) {
		img, ok := n.FirstChild().(*gmast.Image)
		if !ok || n.ChildCount() != 1 {
			continue
		}
		fig := &Figure{Caption: img.Title}
		n.RemoveChild(n, img)
		fig.AppendChild(fig, img)
		n.Parent().ReplaceChild(n.Parent(), n, fig)
	}
	return nil
}

// lazyload marks images for lazy loading when lazyload_images is set.
func lazyload(doc *Document, root gmast.Node, _ []byte) error {
	if doc.View.Name() == AMPView || !doc.View.Bool(config.KeyLazyloadImages, true) {
		return nil
	}
	for _, n := range collect(root, gmast.KindImage) {
		n.SetAttributeString("loading", []byte("lazy"))
	}
	return nil
}

// absoluteLinks makes link and image destinations absolute: path-rooted
// URLs get the base URL and relative ones are resolved against the item.
func absoluteLinks(doc *Document, root gmast.Node, _ []byte) error {
	base := doc.View.BaseURL()
	itemURL := doc.URL()
	for _, n := range collect(root, gmast.KindLink, gmast.KindImage) {
		if class, ok := n.AttributeString("class"); ok {
			if c, isBytes := class.([]byte); isBytes && strings.HasPrefix(string(c), "footnote-") {
				continue
			}
		}
		var dest *[]byte
		switch l := n.(type) {
		case *gmast.Link:
			dest = &l.Destination
		case *gmast.Image:
			dest = &l.Destination
		}
		*dest = []byte(absolutize(string(*dest), base, itemURL))
	}
	return nil
}

func absolutize(raw, base, itemURL string) string {
	u := urls.Parse(raw)
	switch {
	case !u.Valid() || u.IsAbsolute():
		return raw
	case u.IsPathRooted():
		if base == "" {
			return raw
		}
		return urls.Join(base, raw)
	default:
		if itemURL == "" {
			return raw
		}
		return u.ResolveAgainst(itemURL)
	}
}

// ampTags switches images and embeds to their AMP elements when
// converting in the AMP view.
func ampTags(doc *Document, root gmast.Node, _ []byte) error {
	if doc.View.Name() != AMPView {
		return nil
	}
	for _, n := range collect(root, gmast.KindImage, KindEmbed) {
		switch v := n.(type) {
		case *gmast.Image:
			v.SetAttributeString("amp", []byte("1"))
		case *Embed:
			if v.StashIndex < 0 {
				continue
			}
			if markup := ampEmbed(v); markup != "" {
				doc.Stash.Replace(v.StashIndex, markup)
			}
		}
	}
	return nil
}

func ampEmbed(e *Embed) string {
	id := html.EscapeString(e.ID)
	switch e.Provider {
	case "youtube":
		return fmt.Sprintf(`<amp-youtube data-videoid="%s" layout="responsive" width="480" height="270"></amp-youtube>`, id)
	case "vimeo":
		return fmt.Sprintf(`<amp-vimeo data-videoid="%s" layout="responsive" width="500" height="281"></amp-vimeo>`, id)
	case "twitter":
		return fmt.Sprintf(`<amp-twitter data-tweetid="%s" layout="responsive" width="375" height="472"></amp-twitter>`, id)
	}
	if e.Frame != "" {
		return fmt.Sprintf(`<amp-iframe src="%s" layout="responsive" width="560" height="315" sandbox="allow-scripts allow-same-origin"></amp-iframe>`,
			html.EscapeString(e.Frame))
	}
	return ""
}
