/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package testmodels

import "github.com/go-openapi/strfmt"

// RatingSystemTable partitions rating systems by the site they belong to.
const RatingSystemTable = "ratingsystems/SiteUrl"

type RatingSystem struct {

	// Timestamp when the rating system was created.
	// Format: date-time
	CreatedAt *strfmt.DateTime `json:"CreatedAt,omitempty"`

	// A description of the rating system.
	Description *string `json:"Description,omitempty"`

	// Record key, "<SiteUrl>/<id>" before a write and the bare id after.
	Key string `json:"id"`

	// Name of the rating system.
	// Required: true
	Name *string `json:"Name"`

	// site Url, the partition value
	SiteURL string `json:"SiteUrl,omitempty"`

	// Timestamp when the rating system was last updated.
	// Format: date-time
	UpdatedAt *strfmt.DateTime `json:"UpdatedAt,omitempty"`
}

func (r *RatingSystem) GetKey() string    { return r.Key }
func (r *RatingSystem) SetKey(key string) { r.Key = key }
