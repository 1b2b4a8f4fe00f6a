package model

import "time"

// Snapshot is one normalized read-through copy of the remote tables the
// dashboard consumes. It is disposable and regenerable; the remote store
// remains the single source of truth for every invariant.
//
// Version is issued monotonically by the snapshot cache. A snapshot with a
// lower version than the cached one is stale and must never be published
// over newer data.
type Snapshot struct {
	Departments []Department `json:"departments"`
	Categories  []Category   `json:"categories"`
	Colors      []Color      `json:"colors"`
	Sizes       []Size       `json:"sizes"`
	Products    []Product    `json:"products"`
	Customers   []Customer   `json:"customers"`
	Orders      []Order      `json:"orders"`
	Profits     []Profit     `json:"profits"`
	Profiles    []Profile    `json:"profiles"`

	Version   uint64    `json:"version"`
	FetchedAt time.Time `json:"fetched_at"`
}

// Clone returns a copy sharing the collection slices. Callers patching a
// collection must replace the whole slice, never mutate rows in place, so
// readers of the previous snapshot are unaffected.
func (s *Snapshot) Clone() *Snapshot {
	c := *s
	return &c
}

func (s *Snapshot) ProductByID(id int64) *Product {
	for i := range s.Products {
		if s.Products[i].ID == id {
			return &s.Products[i]
		}
	}
	return nil
}

func (s *Snapshot) OrderByID(id int64) *Order {
	for i := range s.Orders {
		if s.Orders[i].ID == id {
			return &s.Orders[i]
		}
	}
	return nil
}

func (s *Snapshot) CustomerByID(id int64) *Customer {
	for i := range s.Customers {
		if s.Customers[i].ID == id {
			return &s.Customers[i]
		}
	}
	return nil
}

func (s *Snapshot) ProfileByID(id string) *Profile {
	for i := range s.Profiles {
		if s.Profiles[i].ID == id {
			return &s.Profiles[i]
		}
	}
	return nil
}
