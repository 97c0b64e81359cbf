package store_test

import (
	"testing"

	"github.com/jacentio/slipway/entity"
	"github.com/jacentio/slipway/store"
)

func TestNewRegistry(t *testing.T) {
	r := store.NewRegistry()
	if r == nil {
		t.Fatal("expected non-nil Registry")
	}
	if len(r.AllRelationships()) != 0 {
		t.Errorf("expected empty registry, got %v", r.AllRelationships())
	}
}

func TestDefaultRegistry(t *testing.T) {
	r := store.DefaultRegistry()

	rels := r.CargoOf(entity.KindBoat)
	if len(rels) != 1 {
		t.Fatalf("expected 1 cargo relationship for Boat, got %d", len(rels))
	}
	if rels[0].CargoKind != entity.KindLoad {
		t.Errorf("expected Load cargo, got %v", rels[0].CargoKind)
	}
	if rels[0].CarrierAttr != "carrier" {
		t.Errorf("expected 'carrier' attr, got %q", rels[0].CarrierAttr)
	}
}

func TestRegistry_Register(t *testing.T) {
	r := store.NewRegistry()

	rel := store.Relationship{
		CarrierKind: entity.KindBoat,
		CargoKind:   entity.KindLoad,
		CarrierAttr: "carrier",
	}
	r.Register(rel)

	rels := r.AllRelationships()
	if len(rels) != 1 {
		t.Fatalf("expected 1 relationship, got %d", len(rels))
	}
	if rels[0].CarrierKind != entity.KindBoat {
		t.Errorf("expected Boat carrier, got %v", rels[0].CarrierKind)
	}
}

func TestRegistry_Carries(t *testing.T) {
	r := store.DefaultRegistry()

	if !r.Carries(entity.KindBoat) {
		t.Error("boats carry loads")
	}
	if r.Carries(entity.KindLoad) {
		t.Error("loads carry nothing")
	}
}

func TestRegistry_CargoOf_Unregistered(t *testing.T) {
	r := store.NewRegistry()
	if got := r.CargoOf(entity.KindBoat); len(got) != 0 {
		t.Errorf("expected no cargo for empty registry, got %v", got)
	}
}
