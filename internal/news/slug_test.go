package news

import (
	"errors"
	"testing"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"The New York Times", "the-new-york-times"},
		{"Café Olé!", "cafe-ole"},
		{"  Tech & Science  ", "tech-science"},
		{"---", "n-a"},
		{"", "n-a"},
		{"already-a-slug", "already-a-slug"},
	}
	for _, tt := range tests {
		if got := Slugify(tt.in); got != tt.want {
			t.Errorf("Slugify(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestResolveSlugCollision(t *testing.T) {
	taken := map[string]bool{"foo": true, "foo-1": true}
	probe := func(slug string) (bool, error) { return taken[slug], nil }

	got, err := ResolveSlugCollision("foo", probe)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "foo-2" {
		t.Errorf("ResolveSlugCollision = %q, want foo-2", got)
	}

	got, err = ResolveSlugCollision("bar", probe)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "bar" {
		t.Errorf("ResolveSlugCollision free slug = %q, want bar", got)
	}
}

func TestResolveSlugCollisionError(t *testing.T) {
	wantErr := errors.New("probe failed")
	_, err := ResolveSlugCollision("foo", func(string) (bool, error) { return false, wantErr })
	if !errors.Is(err, wantErr) {
		t.Errorf("error = %v, want %v", err, wantErr)
	}
}
