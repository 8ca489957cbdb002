package domain

import "testing"

func TestMatchMethod(t *testing.T) {
	cases := []struct {
		name   string
		method string
		rule   Rule
		want   bool
	}{
		{"any", "DELETE", Rule{Method: "any"}, true},
		{"exact", "GET", Rule{Method: "GET"}, true},
		{"exact lower request", "get", Rule{Method: "GET"}, true},
		{"mismatch", "POST", Rule{Method: "GET"}, false},
		{"list", "POST", Rule{Method: "GET,POST"}, true},
		{"not in list", "PUT", Rule{Method: "GET,POST"}, false},
		{"head like get", "HEAD", Rule{Method: "GET", TreatHeadLikeGet: true}, true},
		{"head not like get", "HEAD", Rule{Method: "GET", TreatHeadLikeGet: false}, false},
		{"head rule with aliasing", "HEAD", Rule{Method: "HEAD", TreatHeadLikeGet: true}, false},
		{"head rule without aliasing", "HEAD", Rule{Method: "HEAD", TreatHeadLikeGet: false}, true},
	}
	for _, tc := range cases {
		if got := MatchMethod(tc.method, tc.rule); got != tc.want {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, got)
		}
	}
}

func TestRoute_AnchoredCaseInsensitive(t *testing.T) {
	r := CompileRoute("/wp/v2/posts")
	if r.Err() != nil {
		t.Fatalf("unexpected compile error: %v", r.Err())
	}
	if !r.Match("/wp/v2/posts") || !r.Match("/WP/V2/Posts") {
		t.Fatalf("expected exact and case-insensitive match")
	}
	if r.Match("/wp/v2/posts/1") || r.Match("/api/wp/v2/posts") {
		t.Fatalf("expected match to be anchored on both ends")
	}
}

func TestRoute_PatternAndAlternation(t *testing.T) {
	r := CompileRoute(`/wp/v2/posts/(?P<id>[\d]+)`)
	if !r.Match("/wp/v2/posts/42") {
		t.Fatalf("expected numeric id to match")
	}
	if r.Match("/wp/v2/posts/abc") {
		t.Fatalf("expected non-numeric id not to match")
	}

	alt := CompileRoute("/a|/b")
	if !alt.Match("/a") || !alt.Match("/b") || alt.Match("/a/b") {
		t.Fatalf("expected alternation to stay anchored")
	}
}

func TestRoute_MalformedNeverMatches(t *testing.T) {
	cases := []struct {
		pattern string
		paths   []string
	}{
		{"/posts/(", []string{"/posts/("}},
		{"/posts)|(/x", []string{"/posts", "/posts/anything/else", "/zzz/x", "/x"}},
		{"/a)(/b", []string{"/a", "/b", "/a/b"}},
	}
	for _, tc := range cases {
		r := CompileRoute(tc.pattern)
		if r.Err() == nil {
			t.Fatalf("%q: expected compile error", tc.pattern)
		}
		for _, p := range tc.paths {
			if r.Match(p) {
				t.Fatalf("%q: expected malformed route never to match %q", tc.pattern, p)
			}
		}
		if r.Pattern() != tc.pattern {
			t.Fatalf("expected original pattern to be kept, got %q", r.Pattern())
		}
	}
}
