package repository

import "testing"

func TestParseScopes_DropsUnknownAndDedupes(t *testing.T) {
	got := ParseScopes("tasks:read bogus tasks:read notes:write admin:everything")
	want := []Scope{ScopeTasksRead, ScopeNotesWrite}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestParseScopes_EmptyGrantsAll(t *testing.T) {
	for _, raw := range []string{"", "   ", "unknown other:bad"} {
		got := ParseScopes(raw)
		if len(got) != len(allScopes) {
			t.Fatalf("ParseScopes(%q) = %v, expected full set", raw, got)
		}
	}
}

func TestParseScopes_PreservesRequestOrder(t *testing.T) {
	got := ParseScopes("profile:read tasks:write")
	if got[0] != ScopeProfileRead || got[1] != ScopeTasksWrite {
		t.Fatalf("order not preserved: %v", got)
	}
}

func TestFormatScopes_RoundTrip(t *testing.T) {
	in := []Scope{ScopeNotesRead, ScopeProjectsWrite}
	s := FormatScopes(in)
	if s != "notes:read projects:write" {
		t.Fatalf("unexpected wire format: %q", s)
	}
	back := ParseScopes(s)
	if len(back) != 2 || back[0] != ScopeNotesRead || back[1] != ScopeProjectsWrite {
		t.Fatalf("round trip changed scopes: %v", back)
	}
}

func TestValidScope(t *testing.T) {
	if !ValidScope(ScopeTasksRead) {
		t.Fatal("tasks:read should be valid")
	}
	if ValidScope("tasks:admin") {
		t.Fatal("tasks:admin should not be valid")
	}
	if ValidScope("") {
		t.Fatal("empty scope should not be valid")
	}
}

func TestDescribe_KnownAndUnknown(t *testing.T) {
	if ScopeTasksRead.Describe() != "Read your tasks" {
		t.Fatalf("unexpected description: %q", ScopeTasksRead.Describe())
	}
	// Un scope fuera del conjunto se describe con su propio literal.
	if Scope("x:y").Describe() != "x:y" {
		t.Fatalf("unexpected fallback description")
	}
}

func TestHasScope(t *testing.T) {
	set := []Scope{ScopeTasksRead, ScopeNotesRead}
	if !HasScope(set, ScopeNotesRead) {
		t.Fatal("expected notes:read present")
	}
	if HasScope(set, ScopeNotesWrite) {
		t.Fatal("notes:write should not be present")
	}
}
