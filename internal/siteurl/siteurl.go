package siteurl

import (
	"fmt"
	"net/url"
	"strings"
)

// Site is the base URL of the job tracker the client talks to. The tracker
// may be mounted under a path prefix, e.g. https://example.com/tracker.
type Site struct {
	Scheme string
	Host   string
	Prefix string
	RawURL string
}

func (s Site) String() string {
	if s.Host == "" {
		return "unset"
	}
	return fmt.Sprintf("%s://%s%s", s.Scheme, s.Host, s.Prefix)
}

// Parse validates a user provided base URL and normalizes it into a Site.
func Parse(raw string) (Site, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Site{}, fmt.Errorf("empty URL")
	}

	u, err := url.Parse(raw)
	if err != nil {
		return Site{}, fmt.Errorf("invalid URL: %w", err)
	}

	switch u.Scheme {
	case "http", "https":
	default:
		return Site{}, fmt.Errorf("only http and https URLs are supported")
	}
	if u.Host == "" {
		return Site{}, fmt.Errorf("URL must include a host")
	}
	if u.RawQuery != "" || u.Fragment != "" {
		return Site{}, fmt.Errorf("base URL must not carry a query or fragment")
	}

	segments := splitPath(u.Path)
	prefix := ""
	if len(segments) > 0 {
		prefix = "/" + strings.Join(segments, "/")
	}

	return Site{
		Scheme: u.Scheme,
		Host:   u.Host,
		Prefix: prefix,
		RawURL: raw,
	}, nil
}

// URL builds an absolute URL for resource (a path relative to the site root)
// with the supplied query parameters.
func (s Site) URL(resource string, query map[string]string) string {
	u := url.URL{
		Scheme: s.Scheme,
		Host:   s.Host,
		Path:   s.Prefix + "/" + strings.Join(splitPath(resource), "/"),
	}
	if len(query) > 0 {
		q := u.Query()
		for k, v := range query {
			q.Set(k, v)
		}
		u.RawQuery = q.Encode()
	}
	return u.String()
}

// Link resolves a click-through reference. Absolute http(s) references are
// returned untouched; anything else is treated as a path on the site.
func (s Site) Link(ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		ref = "/jobs"
	}
	if u, err := url.Parse(ref); err == nil && (u.Scheme == "http" || u.Scheme == "https") {
		return ref
	}
	path, fragment, _ := strings.Cut(ref, "#")
	link := s.URL(path, nil)
	if fragment != "" {
		link += "#" + fragment
	}
	return link
}

func splitPath(p string) []string {
	parts := strings.Split(p, "/")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if part == "" {
			continue
		}
		out = append(out, part)
	}
	return out
}
