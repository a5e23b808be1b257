package routepath

import "testing"

func TestTopLevelRouteConstants(t *testing.T) {
	t.Parallel()

	if Login != "/auth/login" {
		t.Fatalf("Login = %q", Login)
	}
	if Logout != "/auth/logout" {
		t.Fatalf("Logout = %q", Logout)
	}
	if Health != "/healthz" {
		t.Fatalf("Health = %q", Health)
	}
	if CampaignsPrefix != AppCampaigns+"/" {
		t.Fatalf("CampaignsPrefix = %q", CampaignsPrefix)
	}
}

func TestCampaignRouteBuilders(t *testing.T) {
	t.Parallel()

	tests := []struct {
		got  string
		want string
	}{
		{AppCampaign("camp-1"), "/app/campaigns/camp-1"},
		{AppCampaignContent("camp-1"), "/app/campaigns/camp-1/content"},
		{AppCampaignParty("camp-1"), "/app/campaigns/camp-1/party"},
		{AppCampaignForge("camp-1"), "/app/campaigns/camp-1/forge"},
		{AppCampaignForgeItems("camp-1"), "/app/campaigns/camp-1/forge/items"},
		{StandaloneParty("camp-1"), "/standalone/campaigns/camp-1/party"},
		{StandalonePartyItems("camp-1"), "/standalone/campaigns/camp-1/party/items"},
	}
	for _, tc := range tests {
		if tc.got != tc.want {
			t.Fatalf("route = %q, want %q", tc.got, tc.want)
		}
	}
}

func TestRouteBuildersEscapeSegments(t *testing.T) {
	t.Parallel()

	if got := AppCampaign(" a/b c "); got != "/app/campaigns/a%2Fb%20c" {
		t.Fatalf("AppCampaign() = %q", got)
	}
	if got := StandaloneParty("x?y"); got != "/standalone/campaigns/x%3Fy/party" {
		t.Fatalf("StandaloneParty() = %q", got)
	}
}

func TestWithPage(t *testing.T) {
	t.Parallel()

	if got := WithPage("/p", 1); got != "/p" {
		t.Fatalf("WithPage(1) = %q", got)
	}
	if got := WithPage("/p", 3); got != "/p?page=3" {
		t.Fatalf("WithPage(3) = %q", got)
	}
}

func TestPage(t *testing.T) {
	t.Parallel()

	tests := map[string]int{"": 1, "0": 1, "-2": 1, "abc": 1, "4": 4, " 2 ": 2}
	for raw, want := range tests {
		if got := Page(raw); got != want {
			t.Fatalf("Page(%q) = %d, want %d", raw, got, want)
		}
	}
}

func TestSafeNext(t *testing.T) {
	t.Parallel()

	tests := []struct {
		next string
		want string
	}{
		{"", "/fallback"},
		{"/app/campaigns", "/app/campaigns"},
		{"https://evil.example/", "/fallback"},
		{"//evil.example", "/fallback"},
		{"/\\evil.example", "/fallback"},
		{"relative", "/fallback"},
	}
	for _, tc := range tests {
		if got := SafeNext(tc.next, "/fallback"); got != tc.want {
			t.Fatalf("SafeNext(%q) = %q, want %q", tc.next, got, tc.want)
		}
	}
}

func TestLoginWithNext(t *testing.T) {
	t.Parallel()

	if got := LoginWithNext(""); got != Login {
		t.Fatalf("LoginWithNext(\"\") = %q", got)
	}
	if got := LoginWithNext("/app/campaigns/c1"); got != "/auth/login?next=%2Fapp%2Fcampaigns%2Fc1" {
		t.Fatalf("LoginWithNext() = %q", got)
	}
}
