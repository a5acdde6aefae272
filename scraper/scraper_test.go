package scraper

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
)

const testPage = `<!DOCTYPE html>
<html><head><title>Kubernetes Upgrade Guide</title></head>
<body>
<nav>Home | About | Contact</nav>
<article>
<h1>Kubernetes Upgrade Guide</h1>
<p>Upgrading a Kubernetes cluster requires draining each node before the control plane is updated.
Operators should back up etcd and verify workload disruption budgets ahead of the maintenance window.</p>
<p>After the upgrade, validate that every deployment reports ready replicas and that ingress routes respond.
Rollbacks are possible only while the previous control plane images remain available in the registry.</p>
</article>
</body></html>`

func TestScrape_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(testPage))
	}))
	defer srv.Close()

	s := NewScraperWithClient(srv.Client())
	doc, err := s.Scrape(context.Background(), srv.URL+"/guides/upgrade")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	lines := strings.SplitN(doc.Content, "\n", 2)
	if !strings.Contains(lines[0], "Kubernetes Upgrade Guide") {
		t.Errorf("expected title as first line, got %q", lines[0])
	}
	if !strings.Contains(doc.Content, "draining each node") {
		t.Errorf("expected article body in content, got %q", doc.Content)
	}
	if !strings.HasSuffix(doc.Filename, "_guides_upgrade") {
		t.Errorf("unexpected document name %q", doc.Filename)
	}
}

func TestScrape_Non200(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	s := NewScraperWithClient(srv.Client())
	_, err := s.Scrape(context.Background(), srv.URL)
	if err == nil {
		t.Fatal("expected error for 404 response")
	}
	if !strings.Contains(err.Error(), "404") {
		t.Errorf("expected status code in error, got %v", err)
	}
}

func TestScrape_CancelledContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(testPage))
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewScraperWithClient(srv.Client()).Scrape(ctx, srv.URL)
	if err == nil {
		t.Fatal("expected error for cancelled context")
	}
}

func TestExtract_NoTitle(t *testing.T) {
	html := `<html><body><article><p>` + strings.Repeat("Plain paragraph text about caching strategies. ", 20) + `</p></article></body></html>`
	content, err := Extract(strings.NewReader(html), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(content, "caching strategies") {
		t.Errorf("expected body text, got %q", content)
	}
}

func TestDocumentName(t *testing.T) {
	cases := map[string]string{
		"https://example.com":               "example.com",
		"https://example.com/":              "example.com",
		"https://example.com/blog/post-1":   "example.com_blog_post-1",
		"https://example.com/a/../b/?q=1#x": "example.com_b",
	}
	for raw, want := range cases {
		u, err := url.Parse(raw)
		if err != nil {
			t.Fatal(err)
		}
		if got := DocumentName(u); got != want {
			t.Errorf("DocumentName(%q) = %q, want %q", raw, got, want)
		}
	}
}
