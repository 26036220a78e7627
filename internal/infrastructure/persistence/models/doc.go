// Package models contains the GORM persistence models behind the domain
// aggregates. Domain types carry no ORM tags; each model converts to and
// from its aggregate with FromDomain and ToDomain.
//
//   - pipeline.go: pipeline runs, their stage results, and schedules
//   - article.go: generated articles and their WordPress publication
package models
