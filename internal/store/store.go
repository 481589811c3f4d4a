// Package store holds the mutable session state shared between user
// commands and the render loop: the ordered layer list plus the logo and
// background records. Mutations go through the store's methods and are
// atomic per call; the render loop reads an immutable snapshot each frame,
// so it never observes a half-applied patch.
package store

import (
	"fmt"
	"image"
	"sync"

	"github.com/google/uuid"
	"github.com/vixalabs/vixa/internal/types"
)

// Store is the single source of truth for layers, logo and background.
type Store struct {
	mu         sync.Mutex
	layers     []types.Layer
	logo       types.LogoState
	background types.BackgroundState
	added      int
}

// Snapshot is a per-frame read-only view of the store.
type Snapshot struct {
	Layers     []types.Layer
	Logo       types.LogoState
	Background types.BackgroundState
}

// LayerPatch is a partial layer update; nil fields are left untouched.
type LayerPatch struct {
	Name             *string
	Mode             *types.VisualMode
	PaletteID        *string
	Opacity          *float64
	Blend            *types.BlendMode
	Visible          *bool
	Mirrored         *bool
	MirroredVertical *bool
}

// LogoPatch is a partial logo update; nil fields are left untouched.
type LogoPatch struct {
	Image   *image.Image
	X       *float64
	Y       *float64
	Scale   *float64
	Opacity *float64
}

// BackgroundPatch is a partial background update.
type BackgroundPatch struct {
	Color   *string
	Image   *image.Image
	Fit     *types.FitMode
	Opacity *float64
}

// New creates a store seeded with the default session: a smoke base layer
// under a screen-blended waveform, logo tucked in the top-right corner.
func New() *Store {
	return &Store{
		layers: []types.Layer{
			{ID: uuid.NewString(), Name: "Smoke", Mode: types.ModeSmoke, PaletteID: "blue-ocean", Opacity: 1, Blend: types.BlendNormal, Visible: true},
			{ID: uuid.NewString(), Name: "Waveform", Mode: types.ModeWaveform, PaletteID: "blue-ocean", Opacity: 0.9, Blend: types.BlendScreen, Visible: true},
		},
		logo:       types.LogoState{X: 0.92, Y: 0.08, Scale: 0.5, Opacity: 0.8},
		background: types.BackgroundState{Color: "#07140e", Fit: types.FitCover, Opacity: 1},
		added:      2,
	}
}

// Empty creates a store with no layers, for programmatic setups.
func Empty() *Store {
	return &Store{
		logo:       types.LogoState{X: 0.92, Y: 0.08, Scale: 0.5, Opacity: 0.8},
		background: types.BackgroundState{Color: "#07140e", Fit: types.FitCover, Opacity: 1},
	}
}

// AddLayer appends a new layer with generated id and defaults, and returns
// a copy of it. Ids are unique for the lifetime of the session.
func (s *Store) AddLayer() types.Layer {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.added++
	l := types.Layer{
		ID:        uuid.NewString(),
		Name:      fmt.Sprintf("Layer %d", s.added),
		Mode:      types.ModeBars,
		PaletteID: "blue-ocean",
		Opacity:   1,
		Blend:     types.BlendNormal,
		Visible:   true,
	}
	s.layers = append(s.layers, l)
	return l
}

// RemoveLayer deletes the layer with the given id. Unknown ids are a no-op.
func (s *Store) RemoveLayer(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, l := range s.layers {
		if l.ID == id {
			s.layers = append(s.layers[:i], s.layers[i+1:]...)
			return
		}
	}
}

// UpdateLayer merges the patch into the layer with the given id.
// Unknown ids are a no-op.
func (s *Store) UpdateLayer(id string, p LayerPatch) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.layers {
		if s.layers[i].ID != id {
			continue
		}
		l := &s.layers[i]
		if p.Name != nil {
			l.Name = *p.Name
		}
		if p.Mode != nil {
			l.Mode = *p.Mode
		}
		if p.PaletteID != nil {
			l.PaletteID = *p.PaletteID
		}
		if p.Opacity != nil {
			l.Opacity = *p.Opacity
		}
		if p.Blend != nil {
			l.Blend = *p.Blend
		}
		if p.Visible != nil {
			l.Visible = *p.Visible
		}
		if p.Mirrored != nil {
			l.Mirrored = *p.Mirrored
		}
		if p.MirroredVertical != nil {
			l.MirroredVertical = *p.MirroredVertical
		}
		return
	}
}

// SetLogo merges the patch into the logo state.
func (s *Store) SetLogo(p LogoPatch) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.Image != nil {
		s.logo.Image = *p.Image
	}
	if p.X != nil {
		s.logo.X = *p.X
	}
	if p.Y != nil {
		s.logo.Y = *p.Y
	}
	if p.Scale != nil {
		s.logo.Scale = *p.Scale
	}
	if p.Opacity != nil {
		s.logo.Opacity = *p.Opacity
	}
}

// SetBackground merges the patch into the background state.
func (s *Store) SetBackground(p BackgroundPatch) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.Color != nil {
		s.background.Color = *p.Color
	}
	if p.Image != nil {
		s.background.Image = *p.Image
	}
	if p.Fit != nil {
		s.background.Fit = *p.Fit
	}
	if p.Opacity != nil {
		s.background.Opacity = *p.Opacity
	}
}

// Layers returns a copy of the current layer list.
func (s *Store) Layers() []types.Layer {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]types.Layer, len(s.layers))
	copy(out, s.layers)
	return out
}

// Snapshot returns an immutable view for one render frame. The layer slice
// is copied so concurrent mutations cannot reorder it mid-frame.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	layers := make([]types.Layer, len(s.layers))
	copy(layers, s.layers)
	return Snapshot{Layers: layers, Logo: s.logo, Background: s.background}
}
