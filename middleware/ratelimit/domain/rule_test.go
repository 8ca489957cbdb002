package domain

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func validArgs() RuleArgs {
	return RuleArgs{
		"route":               "/wp/v2/posts",
		"window":              10,
		"limit":               25,
		"lockout":             200,
		"method":              "any",
		"treat_head_like_get": true,
	}
}

func TestValidateRule_AcceptsValidRule(t *testing.T) {
	r, err := ValidateRule(validArgs(), nil)
	if err != nil {
		t.Fatalf("expected valid rule, got %v", err)
	}
	want := Rule{Route: "/wp/v2/posts", Method: "any", Window: 10, Limit: 25, Lockout: 200, TreatHeadLikeGet: true}
	if diff := cmp.Diff(want, r); diff != "" {
		t.Fatalf("rule mismatch (-want +got):\n%s", diff)
	}
}

func TestValidateRule_FailsOnMissingField(t *testing.T) {
	for _, field := range []string{"route", "method", "window", "limit", "lockout", "treat_head_like_get"} {
		args := validArgs()
		delete(args, field)
		_, err := ValidateRule(args, nil)
		if !errors.Is(err, ErrInvalidRule) {
			t.Fatalf("missing %s: expected ErrInvalidRule, got %v", field, err)
		}
	}
}

func TestValidateRule_RejectsNonPositiveAndNonNumeric(t *testing.T) {
	bad := []any{0, -1, -0.5, "abc", "", nil, true, []int{1}}
	for _, field := range []string{"window", "limit", "lockout"} {
		for _, v := range bad {
			args := validArgs()
			args[field] = v
			if IsValidRule(args, nil) {
				t.Fatalf("expected %s=%v to be invalid", field, v)
			}
		}
	}
}

func TestValidateRule_AcceptsNumericKinds(t *testing.T) {
	for _, v := range []any{int64(5), uint8(5), float32(5), 5.0, json.Number("5"), "5", " 5 "} {
		args := validArgs()
		args["window"] = v
		r, err := ValidateRule(args, nil)
		if err != nil {
			t.Fatalf("window=%#v: unexpected error %v", v, err)
		}
		if r.Window != 5 {
			t.Fatalf("window=%#v: expected 5, got %v", v, r.Window)
		}
	}
}

func TestValidateRule_TreatHeadLikeGetMustBeBool(t *testing.T) {
	for _, v := range []any{"true", 1, nil} {
		args := validArgs()
		args["treat_head_like_get"] = v
		if IsValidRule(args, nil) {
			t.Fatalf("expected treat_head_like_get=%#v to be invalid", v)
		}
	}
}

func TestValidateRule_Methods(t *testing.T) {
	cases := []struct {
		method string
		want   string
		ok     bool
	}{
		{"any", "any", true},
		{"ANY", "any", true},
		{"GET", "GET", true},
		{"head", "HEAD", true},
		{"GET,POST", "GET,POST", true},
		{" get , post ", "GET,POST", true},
		{"GE", "", false},
		{"OPTIONS", "", false},
		{"GET,any", "", false},
		{"GET,", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		args := validArgs()
		args["method"] = tc.method
		r, err := ValidateRule(args, nil)
		if tc.ok != (err == nil) {
			t.Fatalf("method %q: expected ok=%v, got err=%v", tc.method, tc.ok, err)
		}
		if tc.ok && r.Method != tc.want {
			t.Fatalf("method %q: expected canonical %q, got %q", tc.method, tc.want, r.Method)
		}
	}
}

func TestValidateRule_FrameworkMethodsAlwaysIncludeHead(t *testing.T) {
	methods := []string{"GET", "OPTIONS"}

	args := validArgs()
	args["method"] = "OPTIONS"
	if !IsValidRule(args, methods) {
		t.Fatalf("expected OPTIONS to be valid with framework methods")
	}
	args["method"] = "HEAD"
	if !IsValidRule(args, methods) {
		t.Fatalf("expected HEAD to be valid even when not listed")
	}
	args["method"] = "POST"
	if IsValidRule(args, methods) {
		t.Fatalf("expected POST to be invalid when framework does not list it")
	}
}

func TestValidateRule_DoesNotValidateRouteContent(t *testing.T) {
	args := validArgs()
	args["route"] = "/custom/route/(that/does/not/exist"
	if !IsValidRule(args, nil) {
		t.Fatalf("expected any non-empty route to be accepted")
	}
}

func TestApplyDefaults(t *testing.T) {
	args := RuleArgs{"route": "/x", "window": 1, "limit": 1, "lockout": 1}
	got := ApplyDefaults(args)
	if got["method"] != "any" {
		t.Fatalf("expected default method any, got %v", got["method"])
	}
	if got["treat_head_like_get"] != true {
		t.Fatalf("expected default treat_head_like_get=true, got %v", got["treat_head_like_get"])
	}
	if _, ok := args["method"]; ok {
		t.Fatalf("ApplyDefaults must not mutate its input")
	}

	got = ApplyDefaults(RuleArgs{"method": "GET", "treat_head_like_get": false})
	if got["method"] != "GET" || got["treat_head_like_get"] != false {
		t.Fatalf("expected explicit values to win, got %v", got)
	}
}

func TestKnownMethod(t *testing.T) {
	cases := []struct {
		method  string
		methods []string
		want    bool
	}{
		{"get", nil, true},
		{"HEAD", []string{"GET"}, true},
		{"OPTIONS", nil, false},
		{"OPTIONS", []string{"GET", "OPTIONS"}, true},
		{"JUNK1", nil, false},
		{"", nil, false},
	}
	for _, tc := range cases {
		if got := KnownMethod(tc.method, tc.methods); got != tc.want {
			t.Fatalf("KnownMethod(%q, %v) = %v, want %v", tc.method, tc.methods, got, tc.want)
		}
	}
}
