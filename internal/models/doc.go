// Package models defines the persisted entities of the service.
//
// Entities are gorm models assembled from embedded mixins:
//   - [BigID], [IntID], [UUIDPK] : primary keys
//   - [DateCreated], [Dates] : created_at and last_modified timestamps
//   - [BigIDDates], [BigIDCreated], [IDDates], [IDCreated], [UUIDDates], [UUIDCreated] : common combinations
//
// The combinations resolve OrderFields and DefaultOrderFields explicitly so every entity satisfies [Model].
//
// Concrete entities:
//   - [User] : accounts, unique by username
//   - [Session] : logins issued to a user, with a refresh token id and expiry
//   - [Schedule] : time-bounded records with unix second start and stop times
//
// Tables are named by [TableName], which prefixes the snake_case type name with [TablePrefix].
package models
