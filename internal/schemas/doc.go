// Package schemas defines the external shapes of the persisted entities.
//
// Each entity has a read DTO (GetX), a create DTO (CreateX) and, where updates are
// exposed, a patch DTO (PatchableX) whose fields are all pointers so that an absent
// field is distinguishable from a zero value.
//
// [MapOne] and [MapMany] project entities onto read DTOs by field name.
// [Dump] turns a create or patch DTO into a column map for inserts and updates.
package schemas
