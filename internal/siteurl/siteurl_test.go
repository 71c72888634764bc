package siteurl

import (
	"testing"
)

func TestParseRoot(t *testing.T) {
	site, err := Parse("http://localhost:5000/")
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if site.Scheme != "http" || site.Host != "localhost:5000" || site.Prefix != "" {
		t.Fatalf("unexpected parsed fields: %#v", site)
	}
	if site.String() != "http://localhost:5000" {
		t.Fatalf("unexpected string form: %s", site.String())
	}
}

func TestParsePrefix(t *testing.T) {
	site, err := Parse("https://example.com//tracker/app/")
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if site.Prefix != "/tracker/app" {
		t.Fatalf("unexpected prefix: %q", site.Prefix)
	}
}

func TestParseRejectsScheme(t *testing.T) {
	_, err := Parse("ftp://example.com")
	if err == nil {
		t.Fatal("expected error for unsupported scheme")
	}
}

func TestParseRejectsMissingHost(t *testing.T) {
	_, err := Parse("http:///jobs")
	if err == nil {
		t.Fatal("expected error for missing host")
	}
}

func TestParseRejectsQuery(t *testing.T) {
	_, err := Parse("https://example.com/?user=1")
	if err == nil {
		t.Fatal("expected error for base URL with query")
	}
}

func TestURLWithQuery(t *testing.T) {
	site, err := Parse("https://example.com/tracker")
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	got := site.URL("/api/notifications", map[string]string{"unread_only": "true", "limit": "5"})
	want := "https://example.com/tracker/api/notifications?limit=5&unread_only=true"
	if got != want {
		t.Fatalf("expected %s, got %s", want, got)
	}
}

func TestLink(t *testing.T) {
	site, err := Parse("http://localhost:5000")
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}

	cases := map[string]string{
		"":                        "http://localhost:5000/jobs",
		"/jobs":                   "http://localhost:5000/jobs",
		"jobs#job-7":              "http://localhost:5000/jobs#job-7",
		"https://other.test/page": "https://other.test/page",
	}
	for ref, want := range cases {
		if got := site.Link(ref); got != want {
			t.Errorf("Link(%q): expected %s, got %s", ref, want, got)
		}
	}
}
