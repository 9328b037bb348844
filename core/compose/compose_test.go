package compose

import (
	"testing"

	"segstitch/core/media"
	"segstitch/model"
)

// fakeOverlayer captures the layers it was asked to composite.
type fakeOverlayer struct {
	called bool
	base   model.Track
	layers []media.Layer
}

func (f *fakeOverlayer) Overlay(base model.Track, layers []media.Layer) (model.Track, error) {
	f.called = true
	f.base = base
	f.layers = layers
	out := base
	out.Path = "composite.mp4"
	return out, nil
}

func primaryTrack() model.Track {
	return model.Track{Path: "p.mp4", Role: model.RolePrimary, Duration: 5, Width: 1920, Height: 1080}
}

func overlayTrack() model.Track {
	return model.Track{Path: "o.mp4", Role: model.RolePip, Duration: 5, Width: 640, Height: 360}
}

func TestComposeNoOverlaysReencodesPrimary(t *testing.T) {
	// Even without overlays the primary must pass through the overlayer,
	// so the concat demuxer never sees a raw source next to uniformly
	// encoded intermediates.
	seg := &model.Segment{
		Config:  model.SegmentConfig{ID: 1, PrimaryPath: "p.mp4"},
		Primary: primaryTrack(),
	}
	ov := &fakeOverlayer{}
	out, err := NewCompositor(ov, model.DefaultPlacementPolicy()).Compose(seg)
	if err != nil {
		t.Fatalf("Compose: %v", err)
	}
	if !ov.called {
		t.Fatal("overlayer must run even for a segment without overlays")
	}
	if len(ov.layers) != 0 {
		t.Errorf("layers = %d, want 0", len(ov.layers))
	}
	if ov.base.Path != "p.mp4" {
		t.Errorf("base = %q", ov.base.Path)
	}
	if out.Path != "composite.mp4" {
		t.Errorf("output = %q, want the re-encoded clip", out.Path)
	}
}

func TestComposeExplicitPlacement(t *testing.T) {
	seg := &model.Segment{
		Config: model.SegmentConfig{
			ID:          1,
			PrimaryPath: "p.mp4",
			Overlays: []model.OverlayRef{
				{Path: "o.mp4", Role: model.RolePip, Placement: model.OverlayPlacement{X: 100, Y: 200, Width: 480, Policy: model.PolicyFill}},
			},
		},
		Primary:  primaryTrack(),
		Overlays: []model.Track{overlayTrack()},
	}

	ov := &fakeOverlayer{}
	if _, err := NewCompositor(ov, model.DefaultPlacementPolicy()).Compose(seg); err != nil {
		t.Fatalf("Compose: %v", err)
	}
	if len(ov.layers) != 1 {
		t.Fatalf("layers = %d", len(ov.layers))
	}
	l := ov.layers[0]
	if l.X != 100 || l.Y != 200 {
		t.Errorf("position = (%d, %d)", l.X, l.Y)
	}
	if l.Width != 480 {
		t.Errorf("width = %d", l.Width)
	}
	// Height derives from the overlay's 16:9 aspect ratio.
	if l.Height != 270 {
		t.Errorf("height = %d, want 270", l.Height)
	}
}

func TestPlaceLayerDefaultGeometry(t *testing.T) {
	primary := primaryTrack() // 1920x1080
	overlay := overlayTrack() // 640x360 intrinsic
	policy := model.DefaultPlacementPolicy()

	center := PlaceLayer(primary, overlay,
		model.OverlayPlacement{Width: 480, Position: model.PositionCenter}, 0, policy)
	if center.Width != 480 || center.Height != 270 {
		t.Errorf("center size = %dx%d", center.Width, center.Height)
	}
	if center.X != (1920-480)/2 || center.Y != (1080-270)/2 {
		t.Errorf("center position = (%d, %d), want (%d, %d)",
			center.X, center.Y, (1920-480)/2, (1080-270)/2)
	}

	br := PlaceLayer(primary, overlay,
		model.OverlayPlacement{Width: 480, Position: model.PositionBottomRight}, 1, policy)
	if br.X != 1920-480-20 || br.Y != 1080-270-20 {
		t.Errorf("bottom-right position = (%d, %d), want (%d, %d)",
			br.X, br.Y, 1920-480-20, 1080-270-20)
	}
}

func TestPlaceLayerFallsBackByIndex(t *testing.T) {
	primary := primaryTrack()
	overlay := overlayTrack()
	policy := model.DefaultPlacementPolicy()

	// No explicit position: index selects the named fallback.
	first := PlaceLayer(primary, overlay, model.OverlayPlacement{Position: "unknown"}, 0, policy)
	if first.X != (1920-640)/2 || first.Y != (1080-360)/2 {
		t.Errorf("first overlay should center, got (%d, %d)", first.X, first.Y)
	}

	second := PlaceLayer(primary, overlay, model.OverlayPlacement{Position: "unknown"}, 1, policy)
	if second.X != 1920-640-20 || second.Y != 1080-360-20 {
		t.Errorf("second overlay should sit bottom-right, got (%d, %d)", second.X, second.Y)
	}
}

func TestPlaceLayerZeroWidthKeepsIntrinsicSize(t *testing.T) {
	l := PlaceLayer(primaryTrack(), overlayTrack(),
		model.OverlayPlacement{Position: model.PositionCenter}, 0, model.DefaultPlacementPolicy())
	if l.Width != 640 || l.Height != 360 {
		t.Errorf("size = %dx%d, want intrinsic 640x360", l.Width, l.Height)
	}
}

func TestPlaceLayerMarginIsPolicyData(t *testing.T) {
	policy := model.PlacementPolicy{
		Margin:    48,
		Fallbacks: []model.NamedPosition{model.PositionBottomRight},
	}
	l := PlaceLayer(primaryTrack(), overlayTrack(),
		model.OverlayPlacement{Width: 320, Position: model.PositionBottomRight}, 0, policy)
	if l.X != 1920-320-48 || l.Y != 1080-180-48 {
		t.Errorf("custom margin ignored: (%d, %d)", l.X, l.Y)
	}
}
