/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package testmodels

// SampleEntity keeps the caller's key in Key and mirrors the stored id in ID.
// Tables holding it are created as "<name>/Name" when keys carry a partition,
// or bare when they do not.
type SampleEntity struct {
	Key         string `json:"Key"`
	ID          string `json:"id"`
	Name        string `json:"Name,omitempty"`
	OtherField  string `json:"OtherField,omitempty"`
	OtherField2 *int   `json:"OtherField2,omitempty"`
	OtherField3 bool   `json:"OtherField3"`
}

func (s *SampleEntity) GetKey() string { return s.Key }

func (s *SampleEntity) SetKey(key string) {
	s.Key = key
	s.ID = key
}
