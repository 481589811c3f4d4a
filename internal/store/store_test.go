package store

import (
	"testing"

	"github.com/vixalabs/vixa/internal/types"
)

func TestNewSeedsDefaultSession(t *testing.T) {
	s := New()
	layers := s.Layers()
	if len(layers) != 2 {
		t.Fatalf("seeded layer count = %d, want 2", len(layers))
	}
	if layers[0].Mode != types.ModeSmoke {
		t.Errorf("bottom layer mode = %q, want smoke", layers[0].Mode)
	}
	if layers[1].Mode != types.ModeWaveform {
		t.Errorf("top layer mode = %q, want waveform", layers[1].Mode)
	}
	if layers[1].Blend != types.BlendScreen {
		t.Errorf("waveform blend = %q, want screen", layers[1].Blend)
	}
}

func TestAddLayerGeneratesUniqueIDs(t *testing.T) {
	s := Empty()
	seen := make(map[string]bool)
	for i := 0; i < 20; i++ {
		l := s.AddLayer()
		if l.ID == "" {
			t.Fatal("empty layer id")
		}
		if seen[l.ID] {
			t.Fatalf("duplicate layer id %q", l.ID)
		}
		seen[l.ID] = true
	}
	if len(s.Layers()) != 20 {
		t.Errorf("layer count = %d, want 20", len(s.Layers()))
	}
}

func TestAddLayerNamesKeepCounting(t *testing.T) {
	s := Empty()
	a := s.AddLayer()
	b := s.AddLayer()
	if a.Name == b.Name {
		t.Errorf("consecutive layers share the name %q", a.Name)
	}

	// Names never repeat even after a removal.
	s.RemoveLayer(b.ID)
	c := s.AddLayer()
	if c.Name == b.Name {
		t.Errorf("name %q reused after removal", b.Name)
	}
}

func TestRemoveLayerUnknownIDIsNoop(t *testing.T) {
	s := Empty()
	s.AddLayer()
	s.RemoveLayer("not-an-id")
	if len(s.Layers()) != 1 {
		t.Error("removing an unknown id changed the layer list")
	}
}

func TestUpdateLayerPartialPatch(t *testing.T) {
	s := Empty()
	l := s.AddLayer()

	op := 0.4
	s.UpdateLayer(l.ID, LayerPatch{Opacity: &op})

	got := s.Layers()[0]
	if got.Opacity != 0.4 {
		t.Errorf("opacity = %f, want 0.4", got.Opacity)
	}
	if got.Mode != l.Mode || got.Name != l.Name || !got.Visible {
		t.Error("fields outside the patch were modified")
	}
}

func TestUpdateLayerUnknownIDIsNoop(t *testing.T) {
	s := Empty()
	l := s.AddLayer()
	op := 0.1
	s.UpdateLayer("not-an-id", LayerPatch{Opacity: &op})
	if s.Layers()[0].Opacity != l.Opacity {
		t.Error("patch for an unknown id was applied")
	}
}

func TestSnapshotIsolatedFromMutation(t *testing.T) {
	s := Empty()
	s.AddLayer()
	snap := s.Snapshot()

	s.AddLayer()
	vis := false
	s.UpdateLayer(snap.Layers[0].ID, LayerPatch{Visible: &vis})

	if len(snap.Layers) != 1 {
		t.Error("snapshot layer list grew after AddLayer")
	}
	if !snap.Layers[0].Visible {
		t.Error("snapshot layer mutated by a later patch")
	}
}

func TestSetLogoAndBackgroundMerge(t *testing.T) {
	s := Empty()

	x := 0.1
	s.SetLogo(LogoPatch{X: &x})
	snap := s.Snapshot()
	if snap.Logo.X != 0.1 {
		t.Errorf("logo X = %f, want 0.1", snap.Logo.X)
	}
	if snap.Logo.Scale != 0.5 {
		t.Error("unpatched logo scale changed")
	}

	col := "#112233"
	fit := types.FitContain
	s.SetBackground(BackgroundPatch{Color: &col, Fit: &fit})
	snap = s.Snapshot()
	if snap.Background.Color != "#112233" || snap.Background.Fit != types.FitContain {
		t.Error("background patch not applied")
	}
	if snap.Background.Opacity != 1 {
		t.Error("unpatched background opacity changed")
	}
}
