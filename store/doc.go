// Package store provides the DynamoDB persistence layer for slipway's
// entity kinds.
//
// Slipway is a thin data-access layer: each entity kind (Boat, Load) lives
// in its own table, records carry a store-assigned numeric identifier, and
// every operation is a single round trip (or a single transaction) against
// the DynamoDB client.
//
// # Operations
//
//	rec, err := s.Create(ctx, entity.KindBoat, fields) // validates, saves, re-reads
//	rec, err := s.Get(ctx, entity.KindBoat, id)
//	recs, err := s.GetAll(ctx, entity.KindLoad)
//	err := s.Update(ctx, rec)                          // re-saves rec.Fields
//	err := s.Delete(ctx, rec, store.DeleteOptions{})
//
// Boats can carry loads:
//
//	err := s.Assign(ctx, boat, load)
//	err := s.Release(ctx, boat, load)
//	loads, err := s.Loads(ctx, boat)
//
// # Errors
//
// Two failure channels stay distinguishable. Construction-time validation
// failures surface as *entity.ValidationError; store-level failures are
// logged and returned wrapped around typed sentinels:
//
//   - [ErrNotFound] - record doesn't exist
//   - [ErrAlreadyExists] - identifier collision on create
//   - [ErrHasLoads] - protected delete of a boat still carrying loads
//   - [ErrAlreadyAssigned] - load already has a carrier
//   - [ErrNotAssigned] - release of a load the boat doesn't carry
//
// Not-found is therefore always distinguishable from a transport failure.
//
// # Configuration
//
// Use [DefaultConfig] for single-table-per-kind defaults. Increase
// NumShards to spread a busy boat's assignment rows across partitions:
//
//	cfg := store.DefaultConfig()
//	cfg.NumShards = 16
package store
