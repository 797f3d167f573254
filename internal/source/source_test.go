package source

import (
	"testing"

	"github.com/vovakirdan/tickrec/internal/core"
	"github.com/vovakirdan/tickrec/internal/tracker"
)

type stubSource struct {
	id    string
	steps int
}

func (s *stubSource) ID() string                       { return s.id }
func (s *stubSource) Title() string                    { return "Stub " + s.id }
func (s *stubSource) Reset(core.RuntimeConfig)         { s.steps = 0 }
func (s *stubSource) Step()                            { s.steps++ }
func (s *stubSource) Global() tracker.LiveGlobal       { return tracker.LiveGlobal{} }
func (s *stubSource) Character(int) *tracker.LiveActor { return nil }
func (s *stubSource) Object(int) *tracker.LiveActor    { return nil }

func TestRegistry(t *testing.T) {
	Register("zz-stub", func() Source { return &stubSource{id: "zz-stub"} })
	Register("aa-stub", func() Source { return &stubSource{id: "aa-stub"} })

	if !Exists("zz-stub") || !Exists("aa-stub") {
		t.Fatal("registered sources should exist")
	}
	if Exists("missing") {
		t.Error("Exists(missing) = true, expected false")
	}

	s, err := Create("zz-stub")
	if err != nil {
		t.Fatalf("Create() failed: %v", err)
	}
	if s.ID() != "zz-stub" {
		t.Errorf("ID() = %q, expected zz-stub", s.ID())
	}
	if _, err := Create("missing"); err == nil {
		t.Error("Create(missing) should fail")
	}

	list := List()
	for i := 1; i < len(list); i++ {
		if list[i-1].ID >= list[i].ID {
			t.Errorf("List() not sorted: %v", list)
		}
	}
	found := false
	for _, info := range list {
		if info.ID == "aa-stub" && info.Title == "Stub aa-stub" {
			found = true
		}
	}
	if !found {
		t.Errorf("List() = %v, expected aa-stub with its title", list)
	}
}

func TestRegisterDuplicatePanics(t *testing.T) {
	Register("dup-stub", func() Source { return &stubSource{id: "dup-stub"} })

	defer func() {
		if recover() == nil {
			t.Error("second Register() should panic")
		}
	}()
	Register("dup-stub", func() Source { return &stubSource{id: "dup-stub"} })
}
