package embed

import (
	"context"
	"fmt"
	"html"
	"net/url"
	"path"
	"regexp"
	"strings"
)

// Provider recognises URLs of one kind and produces their markup.
type Provider interface {
	Name() string
	// Match reports whether u belongs to the provider and returns the
	// provider's id for it.
	Match(u *url.URL) (id string, ok bool)
	// Render fills in the embed's markup. Providers that need the
	// network go through f, which is backed by the on-disk cache.
	Render(ctx context.Context, em *Embed, f Fetcher) error
}

// Fetcher resolves oEmbed HTML for a URL.
type Fetcher interface {
	OEmbed(ctx context.Context, endpoint, rawURL string) (string, error)
}

var (
	videoID = regexp.MustCompile(`^[A-Za-z0-9_-]{6,}$`)
	digits  = regexp.MustCompile(`^[0-9]+$`)
)

func iframe(src string) string {
	return fmt.Sprintf(`<iframe src="%s" width="560" height="315" frameborder="0" allow="fullscreen; picture-in-picture" allowfullscreen></iframe>`, html.EscapeString(src))
}

// YouTube embeds youtube.*/watch?v=<id> and youtu.be/<id> links.
type YouTube struct{}

func (YouTube) Name() string { return "youtube" }

func (YouTube) Match(u *url.URL) (string, bool) {
	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	host = strings.TrimPrefix(host, "m.")
	var id string
	switch {
	case host == "youtu.be":
		id = strings.Trim(u.Path, "/")
	case strings.HasPrefix(host, "youtube.") && u.Path == "/watch":
		id = u.Query().Get("v")
	default:
		return "", false
	}
	if !videoID.MatchString(id) {
		return "", false
	}
	return id, true
}

func (YouTube) Render(_ context.Context, em *Embed, _ Fetcher) error {
	em.Frame = "https://www.youtube.com/embed/" + em.ID
	em.HTML = iframe(em.Frame)
	return nil
}

// Vimeo embeds vimeo.com/<id> links.
type Vimeo struct{}

func (Vimeo) Name() string { return "vimeo" }

func (Vimeo) Match(u *url.URL) (string, bool) {
	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	if host != "vimeo.com" {
		return "", false
	}
	id := strings.Trim(u.Path, "/")
	if !digits.MatchString(id) {
		return "", false
	}
	return id, true
}

func (Vimeo) Render(_ context.Context, em *Embed, _ Fetcher) error {
	em.Frame = "https://player.vimeo.com/video/" + em.ID
	em.HTML = iframe(em.Frame)
	return nil
}

// DefaultTwitterEndpoint is the public oEmbed endpoint for tweets.
const DefaultTwitterEndpoint = "https://publish.twitter.com/oembed"

// Twitter embeds status links through the oEmbed endpoint.
type Twitter struct {
	Endpoint string
}

func (Twitter) Name() string { return "twitter" }

func (Twitter) Match(u *url.URL) (string, bool) {
	switch strings.ToLower(u.Hostname()) {
	case "twitter.com", "www.twitter.com", "mobile.twitter.com", "x.com", "www.x.com":
	default:
		return "", false
	}
	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(parts) < 3 || parts[1] != "status" || !digits.MatchString(parts[2]) {
		return "", false
	}
	return parts[2], true
}

func (t Twitter) Render(ctx context.Context, em *Embed, f Fetcher) error {
	endpoint := t.Endpoint
	if endpoint == "" {
		endpoint = DefaultTwitterEndpoint
	}
	markup, err := f.OEmbed(ctx, endpoint, em.URL)
	if err != nil {
		return err
	}
	em.HTML = markup
	return nil
}

// imageExtensions are the file endings treated as embeddable images.
var imageExtensions = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".gif": true,
	".webp": true, ".svg": true, ".avif": true,
}

// Image turns a bare image URL into an image. The markdown layer renders
// it through the regular image path, so no markup is produced here.
type Image struct{}

func (Image) Name() string { return "image" }

func (Image) Match(u *url.URL) (string, bool) {
	base := path.Base(u.Path)
	if base == "." || base == "/" {
		return "", false
	}
	if !imageExtensions[strings.ToLower(path.Ext(base))] {
		return "", false
	}
	return base, true
}

func (Image) Render(_ context.Context, em *Embed, _ Fetcher) error {
	em.Image = true
	return nil
}
